package game

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	apperrors "github.com/wfunc/monopoly-game/internal/errors"
)

// Roller 随机数来源
type Roller interface {
	// Intn 返回 [0, n) 内的随机数
	Intn(n int) int
}

// Dice 并发安全的随机数来源
type Dice struct {
	mu   sync.Mutex
	rand *rand.Rand
}

// NewDice 以当前时间为种子创建
func NewDice() *Dice {
	return NewSeededDice(time.Now().UnixNano())
}

// NewSeededDice 使用固定种子创建
func NewSeededDice(seed int64) *Dice {
	return &Dice{rand: rand.New(rand.NewSource(seed))}
}

// Intn 实现 Roller
func (d *Dice) Intn(n int) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rand.Intn(n)
}

// Roll 掷 count 个 sides 面骰子
func Roll(r Roller, sides, count int) []int {
	values := make([]int, count)
	for i := range values {
		values[i] = r.Intn(sides) + 1
	}
	return values
}

// 骰子参数范围
const (
	MinDiceSides = 2
	MaxDiceSides = 100
	MinDiceCount = 1
	MaxDiceCount = 10
)

// ValidateDice 校验骰子参数
func ValidateDice(sides, count int) error {
	if sides < MinDiceSides || sides > MaxDiceSides {
		return apperrors.Newf(apperrors.ErrInvalidParam, "骰子面数需在 %d-%d 之间", MinDiceSides, MaxDiceSides)
	}
	if count < MinDiceCount || count > MaxDiceCount {
		return apperrors.Newf(apperrors.ErrInvalidParam, "骰子数量需在 %d-%d 之间", MinDiceCount, MaxDiceCount)
	}
	return nil
}

// Initiative 先手点数
type Initiative struct {
	UserID uint `json:"user_id"`
	Roll   int  `json:"roll"`
}

// RollInitiative 为每位玩家掷 2-12 的先手点数，按点数降序排列，同点保持加入顺序
func RollInitiative(r Roller, userIDs []uint) []Initiative {
	rolls := make([]Initiative, len(userIDs))
	for i, id := range userIDs {
		rolls[i] = Initiative{UserID: id, Roll: 2 + r.Intn(11)}
	}
	sort.SliceStable(rolls, func(i, j int) bool {
		return rolls[i].Roll > rolls[j].Roll
	})
	return rolls
}

// TurnOrder 提取回合顺序
func TurnOrder(rolls []Initiative) []uint {
	order := make([]uint, len(rolls))
	for i, r := range rolls {
		order[i] = r.UserID
	}
	return order
}

// NextTurn 当前玩家之后的下一位，循环到队首
func NextTurn(order []uint, current uint) (uint, error) {
	if len(order) == 0 {
		return 0, apperrors.New(apperrors.ErrGameStateError, "回合顺序为空")
	}
	for i, id := range order {
		if id == current {
			return order[(i+1)%len(order)], nil
		}
	}
	return 0, apperrors.New(apperrors.ErrGameStateError, "当前玩家不在回合顺序中")
}

// RemoveFromOrder 从回合顺序中移除玩家，返回新顺序和接替者（若移除的是当前玩家）
func RemoveFromOrder(order []uint, current *uint, userID uint) ([]uint, *uint) {
	idx := -1
	for i, id := range order {
		if id == userID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return order, current
	}

	next := make([]uint, 0, len(order)-1)
	next = append(next, order[:idx]...)
	next = append(next, order[idx+1:]...)

	if current == nil || *current != userID {
		return next, current
	}
	if len(next) == 0 {
		return next, nil
	}
	successor := next[idx%len(next)]
	return next, &successor
}

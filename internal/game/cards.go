package game

import (
	apperrors "github.com/wfunc/monopoly-game/internal/errors"
	"github.com/wfunc/monopoly-game/internal/models"
)

// 改变资金流向的特殊卡
const (
	CardBank  = "El Banco"
	CardVault = "La Bóveda"
	// 黄色卡中唯一可以主动使用的
	CardPurchaseDie = "Dado de Compra"
)

// 使用后立即结束游戏的卡
var instantWinTitles = map[string]bool{
	"Tren de Victorias":    true,
	"Casa del Éxito":       true,
	"Campeón Doble":        true,
	"Victoria por Barrida": true,
	"Circuito Victoria":    true,
	"Dobles":               true,
	"Salida Victoriosa":    true,
}

// IsInstantWin 是否为直接获胜卡
func IsInstantWin(card *models.Card) bool {
	return instantWinTitles[card.Title]
}

// InstantWinTitles 直接获胜卡标题
func InstantWinTitles() []string {
	titles := make([]string, 0, len(instantWinTitles))
	for t := range instantWinTitles {
		titles = append(titles, t)
	}
	return titles
}

// CheckUsable 被动卡不能手动使用
func CheckUsable(card *models.Card) error {
	if card.Color == models.CardColorYellow && card.Title != CardPurchaseDie {
		return apperrors.New(apperrors.ErrPassiveCard)
	}
	return nil
}

// IsConsumable 红色卡与 arca/fortuna 卡使用后移出手牌
func IsConsumable(card *models.Card) bool {
	return card.Color == models.CardColorRed || card.Type.Drawable()
}

// SpecialAction 玩家间卡牌操作
type SpecialAction string

const (
	ActionDestroy  SpecialAction = "destroy"
	ActionSteal    SpecialAction = "buy"
	ActionExchange SpecialAction = "exchange"
)

// ParseSpecialAction 解析操作类型
func ParseSpecialAction(s string) (SpecialAction, error) {
	switch SpecialAction(s) {
	case ActionDestroy, ActionSteal, ActionExchange:
		return SpecialAction(s), nil
	}
	return "", apperrors.Newf(apperrors.ErrInvalidParam, "未知的卡牌操作: %s", s)
}

// PickUnclaimed 从 pool 中随机选一张不在 exclude 中的卡，没有候选时返回 nil
func PickUnclaimed(r Roller, pool []*models.Card, exclude []uint) *models.Card {
	taken := make(map[uint]bool, len(exclude))
	for _, id := range exclude {
		taken[id] = true
	}

	candidates := make([]*models.Card, 0, len(pool))
	for _, c := range pool {
		if !taken[c.ID] {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	return candidates[r.Intn(len(candidates))]
}

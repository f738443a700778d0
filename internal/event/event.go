package event

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"
)

// Type 领域事件类型
type Type string

const (
	TransactionCreated Type = "transaction_created"
	TransactionDeleted Type = "transaction_deleted"
	ParticipantUpdated Type = "participant_updated"
	GameUpdated        Type = "game_updated"
	MarketUpdated      Type = "market_updated"
	PropertyUpdated    Type = "property_updated"
	AuctionUpdated     Type = "auction_updated"
	TradeUpdated       Type = "trade_updated"
	TurnUpdated        Type = "turn_updated"
	CardUsed           Type = "card_used"
	DiceRolled         Type = "dice_rolled"
	RouletteSpun       Type = "roulette_spun"
	SpecialDiceRolled  Type = "special_dice_rolled"
)

// Event 按游戏分发的领域事件
type Event struct {
	Type      Type        `json:"type"`
	GameID    uint        `json:"game_id"`
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"timestamp"`
}

// New 创建事件
func New(t Type, gameID uint, data interface{}) Event {
	return Event{
		Type:      t,
		GameID:    gameID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
}

// Marshal 序列化为线上格式
func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher 事件发布器，尽力投递，失败不影响业务
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// Nop 丢弃全部事件
type Nop struct{}

// Publish 实现 Publisher
func (Nop) Publish(context.Context, Event) error { return nil }

// Multi 同时发布到多个目标
type Multi []Publisher

// Publish 实现 Publisher，一个目标失败不影响其他目标
func (m Multi) Publish(ctx context.Context, evt Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder 记录已发布事件，用于测试
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder 创建记录器
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Publish 实现 Publisher
func (r *Recorder) Publish(_ context.Context, evt Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

// Events 已记录的事件副本
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Types 已记录事件的类型序列
func (r *Recorder) Types() []Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Type, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

// Count 指定类型的事件数
func (r *Recorder) Count(t Type) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

// Reset 清空
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DeckType 牌组类型
type DeckType string

const (
	DeckArca    DeckType = "arca"
	DeckFortuna DeckType = "fortuna"
	DeckBoveda  DeckType = "boveda"
)

// Drawable 只有arca和fortuna可以抽取
func (d DeckType) Drawable() bool {
	return d == DeckArca || d == DeckFortuna
}

// CardColor 卡牌颜色（仅boveda卡）
type CardColor string

const (
	CardColorNone   CardColor = ""
	CardColorYellow CardColor = "yellow" // 被动
	CardColorGreen  CardColor = "green"  // 直接获胜
	CardColorRed    CardColor = "red"    // 一次性
)

// CardAction 卡牌效果类型
type CardAction string

const (
	ActionKeep        CardAction = "keep"
	ActionCustom      CardAction = "custom"
	ActionReceiveBank CardAction = "receive_bank"
	ActionPayBank     CardAction = "pay_bank"
	ActionReceiveAll  CardAction = "receive_all"
	ActionPayAll      CardAction = "pay_all"
	ActionMoveTo      CardAction = "move_to"
	ActionRepair      CardAction = "repair"
)

// Card 卡牌目录（全局只读）
type Card struct {
	BaseModel
	Type        DeckType            `gorm:"size:20;not null;index" json:"type"`
	Title       string              `gorm:"size:100;not null;index" json:"title"`
	Description string              `gorm:"size:500" json:"description"`
	Cost        decimal.NullDecimal `gorm:"type:decimal(20,2)" json:"cost"`
	Color       CardColor           `gorm:"size:20" json:"color,omitempty"`
	ActionType  CardAction          `gorm:"size:30" json:"action_type,omitempty"`
	ActionValue *int                `json:"action_value,omitempty"`
}

// TableName 指定表名
func (Card) TableName() string {
	return "cards"
}

// ParticipantCard 玩家手牌，同一局里每张卡最多在一个玩家手中
type ParticipantCard struct {
	BaseModel
	GameID        uint `gorm:"not null;uniqueIndex:idx_inventory_game_card" json:"game_id"`
	ParticipantID uint `gorm:"not null;index" json:"participant_id"`
	CardID        uint `gorm:"not null;uniqueIndex:idx_inventory_game_card;index" json:"card_id"`

	// 关联
	Card *Card `gorm:"foreignKey:CardID" json:"card,omitempty"`
}

// TableName 指定表名
func (ParticipantCard) TableName() string {
	return "participant_cards"
}

// DrawnCard 本轮已抽出的卡，洗牌时按牌组清空
type DrawnCard struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	GameID    uint      `gorm:"not null;uniqueIndex:idx_drawn_game_card" json:"game_id"`
	CardID    uint      `gorm:"not null;uniqueIndex:idx_drawn_game_card" json:"card_id"`
	DeckType  DeckType  `gorm:"size:20;not null;index" json:"deck_type"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName 指定表名
func (DrawnCard) TableName() string {
	return "drawn_cards"
}

// GameBovedaMarket boveda市场槽位
type GameBovedaMarket struct {
	BaseModel
	GameID    uint `gorm:"not null;uniqueIndex:idx_market_game_slot;uniqueIndex:idx_market_game_card" json:"game_id"`
	SlotIndex int  `gorm:"not null;uniqueIndex:idx_market_game_slot" json:"slot_index"`
	CardID    uint `gorm:"not null;uniqueIndex:idx_market_game_card" json:"card_id"`

	// 关联
	Card *Card `gorm:"foreignKey:CardID" json:"card,omitempty"`
}

// TableName 指定表名
func (GameBovedaMarket) TableName() string {
	return "game_boveda_market"
}

// CardUsageLog 卡牌使用记录
type CardUsageLog struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	GameID        uint      `gorm:"not null;index" json:"game_id"`
	ParticipantID uint      `gorm:"not null;index" json:"participant_id"`
	CardID        uint      `gorm:"not null" json:"card_id"`
	Action        string    `gorm:"size:30;not null" json:"action"` // use, discard, destroy, steal, swap
	Description   string    `gorm:"size:255" json:"description"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName 指定表名
func (CardUsageLog) TableName() string {
	return "card_usage_logs"
}

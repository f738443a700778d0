package models

import (
	"github.com/shopspring/decimal"
)

// TradeStatus 交易状态
type TradeStatus string

const (
	TradePending  TradeStatus = "PENDING"
	TradeAccepted TradeStatus = "ACCEPTED"
	TradeRejected TradeStatus = "REJECTED"
)

// Trade 玩家间交易，双方均为 participant id
type Trade struct {
	BaseModel
	GameID            uint            `gorm:"not null;index" json:"game_id"`
	InitiatorID       uint            `gorm:"not null;index" json:"initiator_id"`
	TargetID          uint            `gorm:"not null;index" json:"target_id"`
	OfferCash         decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"offer_cash"`
	RequestCash       decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"request_cash"`
	OfferProperties   IDList          `json:"offer_properties"`
	RequestProperties IDList          `json:"request_properties"`
	OfferCards        IDList          `json:"offer_cards"`   // participant_cards.id
	RequestCards      IDList          `json:"request_cards"` // participant_cards.id
	Status            TradeStatus     `gorm:"size:20;not null;index" json:"status"`
}

// TableName 指定表名
func (Trade) TableName() string {
	return "trades"
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AuctionStatus 拍卖状态
type AuctionStatus string

const (
	AuctionActive   AuctionStatus = "ACTIVE"
	AuctionFinished AuctionStatus = "FINISHED"
)

// Auction 地产拍卖
type Auction struct {
	BaseModel
	GameID          uint            `gorm:"not null;index" json:"game_id"`
	PropertyID      uint            `gorm:"not null" json:"property_id"`
	CurrentBid      decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"current_bid"`
	HighestBidderID *uint           `json:"highest_bidder_id"` // participant id
	Status          AuctionStatus   `gorm:"size:20;not null;index" json:"status"`
	EndedAt         *time.Time      `json:"ended_at,omitempty"`

	// 关联
	Property *Property `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
}

// TableName 指定表名
func (Auction) TableName() string {
	return "auctions"
}

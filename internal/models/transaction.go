package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction 账本流水，From/To 为空表示银行一侧
type Transaction struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	GameID            uint            `gorm:"not null;index" json:"game_id"`
	FromParticipantID *uint           `gorm:"index" json:"from_participant_id"`
	ToParticipantID   *uint           `gorm:"index" json:"to_participant_id"`
	Amount            decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	Description       string          `gorm:"size:255" json:"description"`
	CreatedAt         time.Time       `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (Transaction) TableName() string {
	return "transactions"
}

// JackpotEntryKind 奖池流水类型
type JackpotEntryKind string

const (
	JackpotContribution JackpotEntryKind = "contribution"  // 向银行付款进入奖池
	JackpotInjection    JackpotEntryKind = "injection"     // 银行持有者收款后的异步注入
	JackpotOwnerPayment JackpotEntryKind = "owner_payment" // 银行持有者免付
	JackpotClaim        JackpotEntryKind = "claim"
	JackpotReversal     JackpotEntryKind = "reversal"
)

// JackpotEntry 奖池变动记录
type JackpotEntry struct {
	ID            uint             `gorm:"primaryKey" json:"id"`
	GameID        uint             `gorm:"not null;index" json:"game_id"`
	ParticipantID *uint            `gorm:"index" json:"participant_id,omitempty"`
	Kind          JackpotEntryKind `gorm:"size:20;not null" json:"kind"`
	Amount        decimal.Decimal  `gorm:"type:decimal(20,2);not null" json:"amount"` // 带符号
	BalanceAfter  decimal.Decimal  `gorm:"type:decimal(20,2);not null" json:"balance_after"`
	Description   string           `gorm:"size:255" json:"description"`
	CreatedAt     time.Time        `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (JackpotEntry) TableName() string {
	return "jackpot_entries"
}

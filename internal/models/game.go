package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// GameStatus 游戏状态
type GameStatus string

const (
	GameStatusWaiting   GameStatus = "WAITING"
	GameStatusActive    GameStatus = "ACTIVE"
	GameStatusPaused    GameStatus = "PAUSED"
	GameStatusFinished  GameStatus = "FINISHED"
	GameStatusCancelled GameStatus = "CANCELLED"
)

// Valid 是否为已知状态
func (s GameStatus) Valid() bool {
	switch s {
	case GameStatusWaiting, GameStatusActive, GameStatusPaused, GameStatusFinished, GameStatusCancelled:
		return true
	}
	return false
}

// IsTerminal 终态游戏不再接受任何变更
func (s GameStatus) IsTerminal() bool {
	return s == GameStatusFinished || s == GameStatusCancelled
}

// GameSession 游戏会话表
type GameSession struct {
	BaseModel
	Code              string          `gorm:"uniqueIndex;size:8;not null" json:"code"`
	HostUserID        uint            `gorm:"not null;index" json:"host_user_id"`
	Name              string          `gorm:"size:100;not null" json:"name"`
	Status            GameStatus      `gorm:"size:20;not null;default:'WAITING';index" json:"status"`
	JackpotBalance    decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"jackpot_balance"`
	CurrentTurnUserID *uint           `json:"current_turn_user_id"`
	TurnOrder         IDList          `json:"turn_order"`
	StartedAt         *time.Time      `json:"started_at,omitempty"`
	FinishedAt        *time.Time      `json:"finished_at,omitempty"`
}

// TableName 指定表名
func (GameSession) TableName() string {
	return "game_sessions"
}

// Order 返回回合顺序（用户ID）
func (g *GameSession) Order() []uint {
	return ParseIDList(g.TurnOrder)
}

// SetOrder 设置回合顺序
func (g *GameSession) SetOrder(userIDs []uint) {
	g.TurnOrder = NewIDList(userIDs)
}

// IsHost 判断用户是否为房主
func (g *GameSession) IsHost(userID uint) bool {
	return g.HostUserID == userID
}

// Participant 游戏玩家表
type Participant struct {
	BaseModel
	GameID   uint            `gorm:"not null;uniqueIndex:idx_participant_game_user" json:"game_id"`
	UserID   uint            `gorm:"not null;uniqueIndex:idx_participant_game_user;index" json:"user_id"`
	Balance  decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"balance"`
	Position int             `gorm:"not null;default:0" json:"position"`

	// 关联
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (Participant) TableName() string {
	return "participants"
}

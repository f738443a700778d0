package models

import (
	"encoding/json"
	"time"
)

// DiceRoll 掷骰记录，只做日志，不驱动移动
type DiceRoll struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	GameID        uint      `gorm:"not null;index" json:"game_id"`
	ParticipantID uint      `gorm:"not null;index" json:"participant_id"`
	Sides         int       `gorm:"not null" json:"sides"`
	Values        IDList    `json:"values"`
	Total         int       `gorm:"not null" json:"total"`
	IsDouble      bool      `gorm:"not null;default:false" json:"is_double"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (DiceRoll) TableName() string {
	return "dice_rolls"
}

// SetValues 写入点数并计算总和
func (d *DiceRoll) SetValues(values []int) {
	raw, _ := json.Marshal(values)
	d.Values = IDList(raw)
	d.Total = 0
	for _, v := range values {
		d.Total += v
	}
	d.IsDouble = len(values) == 2 && values[0] == values[1]
}

// Faces 解码点数
func (d *DiceRoll) Faces() []int {
	var values []int
	if len(d.Values) == 0 {
		return values
	}
	_ = json.Unmarshal(d.Values, &values)
	return values
}

// 轮盘结果颜色
const (
	RouletteRed   = "red"
	RouletteGreen = "green"
)

// RouletteSpin 轮盘结果记录，结果由客户端转出后上报
type RouletteSpin struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	GameID      uint      `gorm:"not null;index" json:"game_id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	ResultLabel string    `gorm:"size:50;not null" json:"result_label"`
	ResultValue int       `gorm:"not null" json:"result_value"`
	ResultType  string    `gorm:"size:10;not null" json:"result_type"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (RouletteSpin) TableName() string {
	return "roulette_spins"
}

// SpecialDiceRoll 特殊骰子结果记录
type SpecialDiceRoll struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	GameID     uint      `gorm:"not null;index" json:"game_id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	DieName    string    `gorm:"size:100;not null" json:"die_name"`
	DieID      string    `gorm:"size:50;not null" json:"die_id"`
	FaceLabel  string    `gorm:"size:100;not null" json:"face_label"`
	FaceValue  *int      `json:"face_value"`
	FaceAction *string   `gorm:"size:50" json:"face_action"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (SpecialDiceRoll) TableName() string {
	return "special_dice_rolls"
}

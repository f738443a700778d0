package models

import (
	"time"

	"gorm.io/gorm"
)

// User 用户表
type User struct {
	BaseModel
	Username     string     `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Nickname     string     `gorm:"size:100" json:"nickname"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	Status       string     `gorm:"size:20;default:'active'" json:"status"` // active, banned
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	LastLogoutAt *time.Time `json:"last_logout_at,omitempty"`
}

// TableName 指定User表名
func (User) TableName() string {
	return "users"
}

// BeforeCreate 创建前的钩子
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.Nickname == "" {
		u.Nickname = u.Username
	}
	if u.Status == "" {
		u.Status = "active"
	}
	return nil
}

// CanLogin 检查用户是否可以登录
func (u *User) CanLogin() bool {
	return u.Status == "active"
}

// UpdateLoginInfo 更新登录信息
func (u *User) UpdateLoginInfo() {
	now := time.Now()
	u.LastLoginAt = &now
}

// RevokedSession 已注销的会话，同一会话签发的令牌全部失效
type RevokedSession struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID string    `gorm:"uniqueIndex;size:64;not null" json:"session_id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName 指定表名
func (RevokedSession) TableName() string {
	return "revoked_sessions"
}

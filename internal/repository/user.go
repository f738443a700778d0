package repository

import (
	"context"
	"time"

	"github.com/wfunc/monopoly-game/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository 用户仓储接口
type UserRepository interface {
	BaseRepository
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []uint) ([]*models.User, error)
	UpdateLastLogin(ctx context.Context, userID uint) error
	UpdatePassword(ctx context.Context, userID uint, hash string) error
	RevokeSession(ctx context.Context, userID uint, sessionID string) error
	IsSessionRevoked(ctx context.Context, sessionID string) (bool, error)
}

// userRepo 用户仓储实现
type userRepo struct {
	*BaseRepo
}

// NewUserRepository 创建用户仓储
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Create 创建用户
func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// Update 更新用户
func (r *userRepo) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// FindByID 根据ID查找用户
func (r *userRepo) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err, "用户不存在")
	}
	return &user, nil
}

// FindByUsername 根据用户名查找
func (r *userRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, notFound(err, "用户不存在")
	}
	return &user, nil
}

// FindByIDs 批量查找用户
func (r *userRepo) FindByIDs(ctx context.Context, ids []uint) ([]*models.User, error) {
	var users []*models.User
	if len(ids) == 0 {
		return users, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
	return users, err
}

// UpdateLastLogin 更新最后登录时间
func (r *userRepo) UpdateLastLogin(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("last_login_at", time.Now()).Error
}

// UpdatePassword 更新密码哈希
func (r *userRepo) UpdatePassword(ctx context.Context, userID uint, hash string) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("password_hash", hash).Error
}

// RevokeSession 注销会话并记录注销时间，重复注销视为成功
func (r *userRepo) RevokeSession(ctx context.Context, userID uint, sessionID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.RevokedSession{SessionID: sessionID, UserID: userID}).Error
		if err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Where("id = ?", userID).
			Update("last_logout_at", time.Now()).Error
	})
}

// IsSessionRevoked 会话是否已注销
func (r *userRepo) IsSessionRevoked(ctx context.Context, sessionID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.RevokedSession{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error
	return count > 0, err
}

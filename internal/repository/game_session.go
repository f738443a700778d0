package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	apperrors "github.com/wfunc/monopoly-game/internal/errors"
	"github.com/wfunc/monopoly-game/internal/models"
	"gorm.io/gorm"
)

// GameSessionRepository 游戏会话仓储接口
type GameSessionRepository interface {
	BaseRepository
	Create(ctx context.Context, game *models.GameSession) error
	Update(ctx context.Context, game *models.GameSession) error
	FindByID(ctx context.Context, id uint) (*models.GameSession, error)
	FindByCode(ctx context.Context, code string) (*models.GameSession, error)
	LockByID(ctx context.Context, id uint) (*models.GameSession, error)
	UpdateJackpot(ctx context.Context, id uint, balance decimal.Decimal) error
	CodeExists(ctx context.Context, code string) (bool, error)
	FindByHost(ctx context.Context, userID uint) ([]*models.GameSession, error)
	FindByPlayer(ctx context.Context, userID uint) ([]*models.GameSession, error)
	FindStaleWaiting(ctx context.Context, before time.Time) ([]*models.GameSession, error)
	DeleteCascade(ctx context.Context, id uint) error
}

// gameSessionRepo 游戏会话仓储实现
type gameSessionRepo struct {
	*BaseRepo
}

// NewGameSessionRepository 创建游戏会话仓储
func NewGameSessionRepository(db *gorm.DB) GameSessionRepository {
	return &gameSessionRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Create 创建游戏会话
func (r *gameSessionRepo) Create(ctx context.Context, game *models.GameSession) error {
	return r.db.WithContext(ctx).Create(game).Error
}

// Update 保存游戏会话全部字段
func (r *gameSessionRepo) Update(ctx context.Context, game *models.GameSession) error {
	return r.db.WithContext(ctx).Save(game).Error
}

// FindByID 根据ID查找
func (r *gameSessionRepo) FindByID(ctx context.Context, id uint) (*models.GameSession, error) {
	var game models.GameSession
	if err := r.db.WithContext(ctx).First(&game, id).Error; err != nil {
		return nil, notFound(err, "游戏不存在")
	}
	return &game, nil
}

// FindByCode 根据房间码查找
func (r *gameSessionRepo) FindByCode(ctx context.Context, code string) (*models.GameSession, error) {
	var game models.GameSession
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&game).Error; err != nil {
		return nil, notFound(err, "房间码无效")
	}
	return &game, nil
}

// LockByID 加行锁读取，奖池与回合顺序的修改都要先拿这把锁
func (r *gameSessionRepo) LockByID(ctx context.Context, id uint) (*models.GameSession, error) {
	var game models.GameSession
	if err := r.forUpdate(ctx).First(&game, id).Error; err != nil {
		return nil, notFound(err, "游戏不存在")
	}
	return &game, nil
}

// UpdateJackpot 写入奖池余额，调用方需已持有游戏行锁
func (r *gameSessionRepo) UpdateJackpot(ctx context.Context, id uint, balance decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.GameSession{}).
		Where("id = ?", id).
		Update("jackpot_balance", balance).Error
}

// CodeExists 房间码是否已占用
func (r *gameSessionRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.GameSession{}).Where("code = ?", code).Count(&count).Error
	return count > 0, err
}

// FindByHost 查找用户创建的游戏
func (r *gameSessionRepo) FindByHost(ctx context.Context, userID uint) ([]*models.GameSession, error) {
	var games []*models.GameSession
	err := r.db.WithContext(ctx).
		Where("host_user_id = ?", userID).
		Order("created_at DESC").
		Find(&games).Error
	return games, err
}

// FindByPlayer 查找用户参与的游戏
func (r *gameSessionRepo) FindByPlayer(ctx context.Context, userID uint) ([]*models.GameSession, error) {
	var games []*models.GameSession
	err := r.db.WithContext(ctx).
		Joins("JOIN participants ON participants.game_id = game_sessions.id").
		Where("participants.user_id = ?", userID).
		Order("game_sessions.created_at DESC").
		Find(&games).Error
	return games, err
}

// FindStaleWaiting 查找创建早于指定时间且仍在等待的游戏
func (r *gameSessionRepo) FindStaleWaiting(ctx context.Context, before time.Time) ([]*models.GameSession, error) {
	var games []*models.GameSession
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", models.GameStatusWaiting, before).
		Find(&games).Error
	return games, err
}

// DeleteCascade 删除游戏及其全部子记录，调用方负责开启事务
func (r *gameSessionRepo) DeleteCascade(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)

	children := []interface{}{
		&models.Trade{},
		&models.Auction{},
		&models.ParticipantProperty{},
		&models.CardUsageLog{},
		&models.GameBovedaMarket{},
		&models.DrawnCard{},
		&models.ParticipantCard{},
		&models.DiceRoll{},
		&models.JackpotEntry{},
		&models.Transaction{},
		&models.Participant{},
	}
	for _, child := range children {
		if err := db.Where("game_id = ?", id).Delete(child).Error; err != nil {
			return apperrors.Wrap(err, apperrors.ErrDatabaseDelete, "删除游戏子记录失败")
		}
	}

	result := db.Delete(&models.GameSession{}, id)
	if result.Error != nil {
		return apperrors.Wrap(result.Error, apperrors.ErrDatabaseDelete, "删除游戏失败")
	}
	if result.RowsAffected == 0 {
		return apperrors.New(apperrors.ErrNotFound, "游戏不存在")
	}
	return nil
}

package repository

import (
	"context"

	"github.com/wfunc/monopoly-game/internal/models"
	"gorm.io/gorm"
)

// TradeRepository 交易仓储接口
type TradeRepository interface {
	BaseRepository
	Create(ctx context.Context, t *models.Trade) error
	UpdateStatus(ctx context.Context, id uint, status models.TradeStatus) error
	FindByID(ctx context.Context, id uint) (*models.Trade, error)
	LockByID(ctx context.Context, id uint) (*models.Trade, error)
	FindByGame(ctx context.Context, gameID uint, status models.TradeStatus) ([]*models.Trade, error)
}

// tradeRepo 交易仓储实现
type tradeRepo struct {
	*BaseRepo
}

// NewTradeRepository 创建交易仓储
func NewTradeRepository(db *gorm.DB) TradeRepository {
	return &tradeRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Create 创建交易
func (r *tradeRepo) Create(ctx context.Context, t *models.Trade) error {
	return r.db.WithContext(ctx).Create(t).Error
}

// UpdateStatus 更新状态
func (r *tradeRepo) UpdateStatus(ctx context.Context, id uint, status models.TradeStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Trade{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// FindByID 根据ID查找
func (r *tradeRepo) FindByID(ctx context.Context, id uint) (*models.Trade, error) {
	var t models.Trade
	if err := r.db.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, notFound(err, "交易不存在")
	}
	return &t, nil
}

// LockByID 加锁读取
func (r *tradeRepo) LockByID(ctx context.Context, id uint) (*models.Trade, error) {
	var t models.Trade
	if err := r.forUpdate(ctx).First(&t, id).Error; err != nil {
		return nil, notFound(err, "交易不存在")
	}
	return &t, nil
}

// FindByGame 本局交易，status 为空时返回全部
func (r *tradeRepo) FindByGame(ctx context.Context, gameID uint, status models.TradeStatus) ([]*models.Trade, error) {
	var list []*models.Trade
	query := r.db.WithContext(ctx).Where("game_id = ?", gameID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Order("id DESC").Find(&list).Error
	return list, err
}

package repository

import (
	"context"

	"github.com/wfunc/monopoly-game/internal/models"
	"gorm.io/gorm"
)

// JackpotRepository 奖池流水仓储接口
type JackpotRepository interface {
	BaseRepository
	Record(ctx context.Context, entry *models.JackpotEntry) error
	FindByGame(ctx context.Context, gameID uint, limit int) ([]*models.JackpotEntry, error)
}

// jackpotRepo 奖池流水仓储实现
type jackpotRepo struct {
	*BaseRepo
}

// NewJackpotRepository 创建奖池流水仓储
func NewJackpotRepository(db *gorm.DB) JackpotRepository {
	return &jackpotRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Record 记录一次奖池变动
func (r *jackpotRepo) Record(ctx context.Context, entry *models.JackpotEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// FindByGame 查询最近的奖池变动
func (r *jackpotRepo) FindByGame(ctx context.Context, gameID uint, limit int) ([]*models.JackpotEntry, error) {
	var entries []*models.JackpotEntry
	query := r.db.WithContext(ctx).
		Where("game_id = ?", gameID).
		Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&entries).Error
	return entries, err
}

package repository

import (
	"context"
	"errors"

	apperrors "github.com/wfunc/monopoly-game/internal/errors"
	"github.com/wfunc/monopoly-game/internal/models"
	"gorm.io/gorm"
)

// LedgerRepository 账本流水仓储接口
type LedgerRepository interface {
	BaseRepository
	Create(ctx context.Context, tx *models.Transaction) error
	FindByID(ctx context.Context, id uint) (*models.Transaction, error)
	FindByGame(ctx context.Context, gameID uint, p *Pagination) ([]*models.Transaction, error)
	Delete(ctx context.Context, id uint) error
}

// ledgerRepo 账本流水仓储实现
type ledgerRepo struct {
	*BaseRepo
}

// NewLedgerRepository 创建账本流水仓储
func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Create 写入流水
func (r *ledgerRepo) Create(ctx context.Context, tx *models.Transaction) error {
	if err := r.db.WithContext(ctx).Create(tx).Error; err != nil {
		return apperrors.Wrap(err, apperrors.ErrDatabaseInsert, "写入流水失败")
	}
	return nil
}

// FindByID 查找流水，不存在时返回 (nil, nil)
func (r *ledgerRepo) FindByID(ctx context.Context, id uint) (*models.Transaction, error) {
	var tx models.Transaction
	err := r.forUpdate(ctx).First(&tx, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery, "查询流水失败")
	}
	return &tx, nil
}

// FindByGame 按时间倒序分页查询
func (r *ledgerRepo) FindByGame(ctx context.Context, gameID uint, p *Pagination) ([]*models.Transaction, error) {
	var list []*models.Transaction
	query := r.db.WithContext(ctx).Model(&models.Transaction{}).Where("game_id = ?", gameID)

	if p != nil {
		if err := query.Count(&p.Total).Error; err != nil {
			return nil, err
		}
		query = query.Scopes(Paginate(p))
	}

	err := query.Order("created_at DESC, id DESC").Find(&list).Error
	return list, err
}

// Delete 物理删除流水
func (r *ledgerRepo) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Transaction{}, id).Error; err != nil {
		return apperrors.Wrap(err, apperrors.ErrDatabaseDelete, "删除流水失败")
	}
	return nil
}

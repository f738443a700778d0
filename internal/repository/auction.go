package repository

import (
	"context"
	"errors"

	apperrors "github.com/wfunc/monopoly-game/internal/errors"
	"github.com/wfunc/monopoly-game/internal/models"
	"gorm.io/gorm"
)

// AuctionRepository 拍卖仓储接口
type AuctionRepository interface {
	BaseRepository
	Create(ctx context.Context, a *models.Auction) error
	Save(ctx context.Context, a *models.Auction) error
	FindByID(ctx context.Context, id uint) (*models.Auction, error)
	LockByID(ctx context.Context, id uint) (*models.Auction, error)
	FindActiveByGame(ctx context.Context, gameID uint) (*models.Auction, error)
	FindByGame(ctx context.Context, gameID uint) ([]*models.Auction, error)
}

// auctionRepo 拍卖仓储实现
type auctionRepo struct {
	*BaseRepo
}

// NewAuctionRepository 创建拍卖仓储
func NewAuctionRepository(db *gorm.DB) AuctionRepository {
	return &auctionRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Create 创建拍卖
func (r *auctionRepo) Create(ctx context.Context, a *models.Auction) error {
	return r.db.WithContext(ctx).Omit("Property").Create(a).Error
}

// Save 保存拍卖
func (r *auctionRepo) Save(ctx context.Context, a *models.Auction) error {
	return r.db.WithContext(ctx).Omit("Property").Save(a).Error
}

// FindByID 根据ID查找
func (r *auctionRepo) FindByID(ctx context.Context, id uint) (*models.Auction, error) {
	var a models.Auction
	if err := r.db.WithContext(ctx).Preload("Property").First(&a, id).Error; err != nil {
		return nil, notFound(err, "拍卖不存在")
	}
	return &a, nil
}

// LockByID 加锁读取
func (r *auctionRepo) LockByID(ctx context.Context, id uint) (*models.Auction, error) {
	var a models.Auction
	if err := r.forUpdate(ctx).First(&a, id).Error; err != nil {
		return nil, notFound(err, "拍卖不存在")
	}
	return &a, nil
}

// FindActiveByGame 进行中的拍卖，没有时返回 ErrNotFound
func (r *auctionRepo) FindActiveByGame(ctx context.Context, gameID uint) (*models.Auction, error) {
	var a models.Auction
	err := r.db.WithContext(ctx).
		Preload("Property").
		Where("game_id = ? AND status = ?", gameID, models.AuctionActive).
		First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.New(apperrors.ErrNotFound, "没有进行中的拍卖")
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery, "查询拍卖失败")
	}
	return &a, nil
}

// FindByGame 本局全部拍卖
func (r *auctionRepo) FindByGame(ctx context.Context, gameID uint) ([]*models.Auction, error) {
	var list []*models.Auction
	err := r.db.WithContext(ctx).
		Preload("Property").
		Where("game_id = ?", gameID).
		Order("id DESC").
		Find(&list).Error
	return list, err
}

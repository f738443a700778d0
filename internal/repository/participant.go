package repository

import (
	"context"
	"errors"
	"sort"

	"github.com/shopspring/decimal"
	apperrors "github.com/wfunc/monopoly-game/internal/errors"
	"github.com/wfunc/monopoly-game/internal/models"
	"gorm.io/gorm"
)

// ParticipantRepository 玩家仓储接口
type ParticipantRepository interface {
	BaseRepository
	Create(ctx context.Context, p *models.Participant) error
	FindByID(ctx context.Context, id uint) (*models.Participant, error)
	FindByGameAndUser(ctx context.Context, gameID, userID uint) (*models.Participant, error)
	FindByGame(ctx context.Context, gameID uint) ([]*models.Participant, error)
	LockByIDs(ctx context.Context, ids ...uint) (map[uint]*models.Participant, error)
	AddBalance(ctx context.Context, id uint, delta decimal.Decimal) error
	UpdatePosition(ctx context.Context, id uint, position int) error
	Delete(ctx context.Context, id uint) error
}

// participantRepo 玩家仓储实现
type participantRepo struct {
	*BaseRepo
}

// NewParticipantRepository 创建玩家仓储
func NewParticipantRepository(db *gorm.DB) ParticipantRepository {
	return &participantRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Create 创建玩家
func (r *participantRepo) Create(ctx context.Context, p *models.Participant) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// FindByID 根据ID查找
func (r *participantRepo) FindByID(ctx context.Context, id uint) (*models.Participant, error) {
	var p models.Participant
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, notFound(err, "玩家不存在")
	}
	return &p, nil
}

// FindByGameAndUser 由 (游戏, 用户) 解析玩家
func (r *participantRepo) FindByGameAndUser(ctx context.Context, gameID, userID uint) (*models.Participant, error) {
	var p models.Participant
	err := r.db.WithContext(ctx).
		Where("game_id = ? AND user_id = ?", gameID, userID).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.New(apperrors.ErrNotParticipant)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery, "查询玩家失败")
	}
	return &p, nil
}

// FindByGame 按加入顺序列出玩家
func (r *participantRepo) FindByGame(ctx context.Context, gameID uint) ([]*models.Participant, error) {
	var list []*models.Participant
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("game_id = ?", gameID).
		Order("id ASC").
		Find(&list).Error
	return list, err
}

// LockByIDs 按ID升序加锁读取，多人操作统一走这里避免死锁
func (r *participantRepo) LockByIDs(ctx context.Context, ids ...uint) (map[uint]*models.Participant, error) {
	unique := make([]uint, 0, len(ids))
	seen := make(map[uint]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i] < unique[j] })

	locked := make(map[uint]*models.Participant, len(unique))
	for _, id := range unique {
		var p models.Participant
		if err := r.forUpdate(ctx).First(&p, id).Error; err != nil {
			return nil, notFound(err, "玩家不存在")
		}
		locked[id] = &p
	}
	return locked, nil
}

// AddBalance 增减余额，允许出现负数
func (r *participantRepo) AddBalance(ctx context.Context, id uint, delta decimal.Decimal) error {
	result := r.db.WithContext(ctx).
		Model(&models.Participant{}).
		Where("id = ?", id).
		Update("balance", gorm.Expr("balance + ?", delta))
	if result.Error != nil {
		return apperrors.Wrap(result.Error, apperrors.ErrDatabaseUpdate, "更新余额失败")
	}
	if result.RowsAffected == 0 {
		return apperrors.New(apperrors.ErrNotFound, "玩家不存在")
	}
	return nil
}

// UpdatePosition 更新棋盘位置
func (r *participantRepo) UpdatePosition(ctx context.Context, id uint, position int) error {
	return r.db.WithContext(ctx).
		Model(&models.Participant{}).
		Where("id = ?", id).
		Update("position", position).Error
}

// Delete 删除玩家
func (r *participantRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Participant{}, id).Error
}

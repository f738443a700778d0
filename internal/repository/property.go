package repository

import (
	"context"
	"errors"

	apperrors "github.com/wfunc/monopoly-game/internal/errors"
	"github.com/wfunc/monopoly-game/internal/models"
	"gorm.io/gorm"
)

// PropertyRepository 地产目录与归属仓储接口
type PropertyRepository interface {
	BaseRepository
	FindProperty(ctx context.Context, id uint) (*models.Property, error)
	FindAll(ctx context.Context) ([]*models.Property, error)
	FindByGroup(ctx context.Context, group string) ([]*models.Property, error)

	FindOwnership(ctx context.Context, gameID, propertyID uint) (*models.ParticipantProperty, error)
	LockOwnership(ctx context.Context, gameID, propertyID uint) (*models.ParticipantProperty, error)
	FindOwnershipsByGame(ctx context.Context, gameID uint) ([]*models.ParticipantProperty, error)
	FindOwnershipsByParticipant(ctx context.Context, participantID uint) ([]*models.ParticipantProperty, error)
	CreateOwnership(ctx context.Context, pp *models.ParticipantProperty) error
	SaveOwnership(ctx context.Context, pp *models.ParticipantProperty) error
	TransferOwnership(ctx context.Context, gameID, propertyID, fromParticipantID, toParticipantID uint) error
	DeleteOwnership(ctx context.Context, gameID, propertyID uint) error
	DeleteOwnershipsByParticipant(ctx context.Context, participantID uint) error
}

// propertyRepo 地产仓储实现
type propertyRepo struct {
	*BaseRepo
}

// NewPropertyRepository 创建地产仓储
func NewPropertyRepository(db *gorm.DB) PropertyRepository {
	return &propertyRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// FindProperty 查地产目录
func (r *propertyRepo) FindProperty(ctx context.Context, id uint) (*models.Property, error) {
	var p models.Property
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, notFound(err, "地产不存在")
	}
	return &p, nil
}

// FindAll 按棋盘位置列出地产
func (r *propertyRepo) FindAll(ctx context.Context) ([]*models.Property, error) {
	var list []*models.Property
	err := r.db.WithContext(ctx).Order("position ASC").Find(&list).Error
	return list, err
}

// FindByGroup 色组内全部地产
func (r *propertyRepo) FindByGroup(ctx context.Context, group string) ([]*models.Property, error) {
	var list []*models.Property
	err := r.db.WithContext(ctx).Where("color_group = ?", group).Order("position ASC").Find(&list).Error
	return list, err
}

// FindOwnership 查归属，无人拥有时返回 (nil, nil)
func (r *propertyRepo) FindOwnership(ctx context.Context, gameID, propertyID uint) (*models.ParticipantProperty, error) {
	return r.findOwnership(r.db.WithContext(ctx), gameID, propertyID)
}

// LockOwnership 加锁读取归属，无人拥有时返回 (nil, nil)
func (r *propertyRepo) LockOwnership(ctx context.Context, gameID, propertyID uint) (*models.ParticipantProperty, error) {
	return r.findOwnership(r.forUpdate(ctx), gameID, propertyID)
}

func (r *propertyRepo) findOwnership(db *gorm.DB, gameID, propertyID uint) (*models.ParticipantProperty, error) {
	var pp models.ParticipantProperty
	err := db.Preload("Property").
		Where("game_id = ? AND property_id = ?", gameID, propertyID).
		First(&pp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery, "查询地产归属失败")
	}
	return &pp, nil
}

// FindOwnershipsByGame 本局全部归属
func (r *propertyRepo) FindOwnershipsByGame(ctx context.Context, gameID uint) ([]*models.ParticipantProperty, error) {
	var list []*models.ParticipantProperty
	err := r.db.WithContext(ctx).
		Preload("Property").
		Where("game_id = ?", gameID).
		Order("property_id ASC").
		Find(&list).Error
	return list, err
}

// FindOwnershipsByParticipant 玩家持有的地产
func (r *propertyRepo) FindOwnershipsByParticipant(ctx context.Context, participantID uint) ([]*models.ParticipantProperty, error) {
	var list []*models.ParticipantProperty
	err := r.db.WithContext(ctx).
		Preload("Property").
		Where("participant_id = ?", participantID).
		Order("property_id ASC").
		Find(&list).Error
	return list, err
}

// CreateOwnership 写入归属，重复归属返回 ErrPropertyOwned
func (r *propertyRepo) CreateOwnership(ctx context.Context, pp *models.ParticipantProperty) error {
	err := r.db.WithContext(ctx).Omit("Property").Create(pp).Error
	if err != nil && IsConflictError(err) {
		return apperrors.Wrap(err, apperrors.ErrPropertyOwned)
	}
	return err
}

// SaveOwnership 保存抵押与建筑状态
func (r *propertyRepo) SaveOwnership(ctx context.Context, pp *models.ParticipantProperty) error {
	return r.db.WithContext(ctx).
		Model(&models.ParticipantProperty{}).
		Where("id = ?", pp.ID).
		Updates(map[string]interface{}{
			"is_mortgaged": pp.IsMortgaged,
			"house_count":  pp.HouseCount,
			"hotel_count":  pp.HotelCount,
		}).Error
}

// TransferOwnership 转移地产，要求当前持有者为 fromParticipantID
func (r *propertyRepo) TransferOwnership(ctx context.Context, gameID, propertyID, fromParticipantID, toParticipantID uint) error {
	result := r.db.WithContext(ctx).
		Model(&models.ParticipantProperty{}).
		Where("game_id = ? AND property_id = ? AND participant_id = ?", gameID, propertyID, fromParticipantID).
		Update("participant_id", toParticipantID)
	if result.Error != nil {
		return apperrors.Wrap(result.Error, apperrors.ErrDatabaseUpdate, "转移地产失败")
	}
	if result.RowsAffected == 0 {
		return apperrors.Newf(apperrors.ErrNotOwner, "地产 %d 不属于玩家 %d", propertyID, fromParticipantID)
	}
	return nil
}

// DeleteOwnership 删除归属
func (r *propertyRepo) DeleteOwnership(ctx context.Context, gameID, propertyID uint) error {
	return r.db.WithContext(ctx).
		Where("game_id = ? AND property_id = ?", gameID, propertyID).
		Delete(&models.ParticipantProperty{}).Error
}

// DeleteOwnershipsByParticipant 清空玩家地产
func (r *propertyRepo) DeleteOwnershipsByParticipant(ctx context.Context, participantID uint) error {
	return r.db.WithContext(ctx).
		Where("participant_id = ?", participantID).
		Delete(&models.ParticipantProperty{}).Error
}

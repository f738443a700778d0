package repository

import (
	"context"

	"github.com/wfunc/monopoly-game/internal/models"
	"gorm.io/gorm"
)

// DiceRepository 掷骰日志仓储接口
type DiceRepository interface {
	BaseRepository
	Create(ctx context.Context, roll *models.DiceRoll) error
	FindByGame(ctx context.Context, gameID uint, limit int) ([]*models.DiceRoll, error)

	// 轮盘与特殊骰子
	CreateSpin(ctx context.Context, spin *models.RouletteSpin) error
	FindSpins(ctx context.Context, gameID uint, limit int) ([]*models.RouletteSpin, error)
	CreateSpecial(ctx context.Context, roll *models.SpecialDiceRoll) error
	FindSpecial(ctx context.Context, gameID uint, limit int) ([]*models.SpecialDiceRoll, error)
}

type diceRepo struct {
	*BaseRepo
}

// NewDiceRepository 创建掷骰日志仓储
func NewDiceRepository(db *gorm.DB) DiceRepository {
	return &diceRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

func (r *diceRepo) Create(ctx context.Context, roll *models.DiceRoll) error {
	return r.db.WithContext(ctx).Create(roll).Error
}

func (r *diceRepo) FindByGame(ctx context.Context, gameID uint, limit int) ([]*models.DiceRoll, error) {
	var rolls []*models.DiceRoll
	query := r.db.WithContext(ctx).Where("game_id = ?", gameID).Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&rolls).Error
	return rolls, err
}

func (r *diceRepo) CreateSpin(ctx context.Context, spin *models.RouletteSpin) error {
	return r.db.WithContext(ctx).Omit("User").Create(spin).Error
}

// FindSpins 最近的轮盘结果，附带用户信息
func (r *diceRepo) FindSpins(ctx context.Context, gameID uint, limit int) ([]*models.RouletteSpin, error) {
	var spins []*models.RouletteSpin
	query := r.db.WithContext(ctx).Preload("User").Where("game_id = ?", gameID).Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&spins).Error
	return spins, err
}

func (r *diceRepo) CreateSpecial(ctx context.Context, roll *models.SpecialDiceRoll) error {
	return r.db.WithContext(ctx).Omit("User").Create(roll).Error
}

// FindSpecial 最近的特殊骰子结果，附带用户信息
func (r *diceRepo) FindSpecial(ctx context.Context, gameID uint, limit int) ([]*models.SpecialDiceRoll, error) {
	var rolls []*models.SpecialDiceRoll
	query := r.db.WithContext(ctx).Preload("User").Where("game_id = ?", gameID).Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&rolls).Error
	return rolls, err
}

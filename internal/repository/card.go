package repository

import (
	"context"
	"errors"

	apperrors "github.com/wfunc/monopoly-game/internal/errors"
	"github.com/wfunc/monopoly-game/internal/models"
	"gorm.io/gorm"
)

// CardRepository 卡牌仓储接口（目录、抽牌记录、市场、手牌、使用日志）
type CardRepository interface {
	BaseRepository

	// 目录
	FindCard(ctx context.Context, id uint) (*models.Card, error)
	FindByDeck(ctx context.Context, deck models.DeckType) ([]*models.Card, error)

	// 特殊卡持有者
	FindHolder(ctx context.Context, gameID uint, deck models.DeckType, title string) (*models.ParticipantCard, error)

	// 抽牌记录
	DrawnIDs(ctx context.Context, gameID uint, deck models.DeckType) ([]uint, error)
	MarkDrawn(ctx context.Context, gameID, cardID uint, deck models.DeckType) error
	ClearDrawn(ctx context.Context, gameID uint, deck models.DeckType) error

	// 市场
	MarketSlots(ctx context.Context, gameID uint) ([]*models.GameBovedaMarket, error)
	FindSlot(ctx context.Context, gameID uint, slot int) (*models.GameBovedaMarket, error)
	FillSlot(ctx context.Context, entry *models.GameBovedaMarket) error
	ClearSlot(ctx context.Context, gameID uint, slot int) error
	ClaimedBovedaIDs(ctx context.Context, gameID uint) ([]uint, error)
	HeldCardIDs(ctx context.Context, gameID uint, deck models.DeckType) ([]uint, error)

	// 手牌
	AddToInventory(ctx context.Context, pc *models.ParticipantCard) error
	FindInventory(ctx context.Context, id uint) (*models.ParticipantCard, error)
	FindInventoryByParticipant(ctx context.Context, participantID uint) ([]*models.ParticipantCard, error)
	FindInventoryByGame(ctx context.Context, gameID uint) ([]*models.ParticipantCard, error)
	RemoveInventory(ctx context.Context, id uint) error
	RemoveInventoryByParticipant(ctx context.Context, participantID uint) error

	// 使用日志
	LogUsage(ctx context.Context, log *models.CardUsageLog) error
	FindUsageLogs(ctx context.Context, gameID uint, limit int) ([]*models.CardUsageLog, error)
}

// cardRepo 卡牌仓储实现
type cardRepo struct {
	*BaseRepo
}

// NewCardRepository 创建卡牌仓储
func NewCardRepository(db *gorm.DB) CardRepository {
	return &cardRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// FindCard 查目录卡牌
func (r *cardRepo) FindCard(ctx context.Context, id uint) (*models.Card, error) {
	var card models.Card
	if err := r.db.WithContext(ctx).First(&card, id).Error; err != nil {
		return nil, notFound(err, "卡牌不存在")
	}
	return &card, nil
}

// FindByDeck 列出牌组全部卡牌
func (r *cardRepo) FindByDeck(ctx context.Context, deck models.DeckType) ([]*models.Card, error) {
	var cards []*models.Card
	err := r.db.WithContext(ctx).Where("type = ?", deck).Order("id ASC").Find(&cards).Error
	return cards, err
}

// FindHolder 查找本局持有指定标题卡牌的手牌记录，没有人持有时返回 (nil, nil)
func (r *cardRepo) FindHolder(ctx context.Context, gameID uint, deck models.DeckType, title string) (*models.ParticipantCard, error) {
	var pc models.ParticipantCard
	err := r.db.WithContext(ctx).
		Joins("JOIN cards ON cards.id = participant_cards.card_id").
		Where("participant_cards.game_id = ? AND cards.type = ? AND cards.title = ?", gameID, deck, title).
		Order("participant_cards.id ASC").
		First(&pc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery, "查询特殊卡持有者失败")
	}
	return &pc, nil
}

// DrawnIDs 本轮已抽出的卡
func (r *cardRepo) DrawnIDs(ctx context.Context, gameID uint, deck models.DeckType) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.DrawnCard{}).
		Where("game_id = ? AND deck_type = ?", gameID, deck).
		Pluck("card_id", &ids).Error
	return ids, err
}

// MarkDrawn 标记已抽出，重复标记触发唯一约束
func (r *cardRepo) MarkDrawn(ctx context.Context, gameID, cardID uint, deck models.DeckType) error {
	err := r.db.WithContext(ctx).Create(&models.DrawnCard{
		GameID:   gameID,
		CardID:   cardID,
		DeckType: deck,
	}).Error
	if err != nil && IsConflictError(err) {
		return apperrors.Wrap(err, apperrors.ErrCardClaimed, "卡牌已被抽出")
	}
	return err
}

// ClearDrawn 洗牌
func (r *cardRepo) ClearDrawn(ctx context.Context, gameID uint, deck models.DeckType) error {
	return r.db.WithContext(ctx).
		Where("game_id = ? AND deck_type = ?", gameID, deck).
		Delete(&models.DrawnCard{}).Error
}

// MarketSlots 按槽位顺序返回市场
func (r *cardRepo) MarketSlots(ctx context.Context, gameID uint) ([]*models.GameBovedaMarket, error) {
	var slots []*models.GameBovedaMarket
	err := r.db.WithContext(ctx).
		Preload("Card").
		Where("game_id = ?", gameID).
		Order("slot_index ASC").
		Find(&slots).Error
	return slots, err
}

// FindSlot 查询单个槽位
func (r *cardRepo) FindSlot(ctx context.Context, gameID uint, slot int) (*models.GameBovedaMarket, error) {
	var entry models.GameBovedaMarket
	err := r.db.WithContext(ctx).
		Preload("Card").
		Where("game_id = ? AND slot_index = ?", gameID, slot).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.New(apperrors.ErrMarketSlotEmpty)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery, "查询市场槽位失败")
	}
	return &entry, nil
}

// FillSlot 放入卡牌，槽位或卡牌冲突时返回 ErrCardClaimed
func (r *cardRepo) FillSlot(ctx context.Context, entry *models.GameBovedaMarket) error {
	err := r.db.WithContext(ctx).Omit("Card").Create(entry).Error
	if err != nil && IsConflictError(err) {
		return apperrors.Wrap(err, apperrors.ErrCardClaimed, "市场卡牌冲突")
	}
	return err
}

// ClearSlot 清空槽位
func (r *cardRepo) ClearSlot(ctx context.Context, gameID uint, slot int) error {
	return r.db.WithContext(ctx).
		Where("game_id = ? AND slot_index = ?", gameID, slot).
		Delete(&models.GameBovedaMarket{}).Error
}

// ClaimedBovedaIDs 本局已在市场或手牌中的 boveda 卡
func (r *cardRepo) ClaimedBovedaIDs(ctx context.Context, gameID uint) ([]uint, error) {
	var inMarket []uint
	if err := r.db.WithContext(ctx).
		Model(&models.GameBovedaMarket{}).
		Where("game_id = ?", gameID).
		Pluck("card_id", &inMarket).Error; err != nil {
		return nil, err
	}

	inHand, err := r.HeldCardIDs(ctx, gameID, models.DeckBoveda)
	if err != nil {
		return nil, err
	}

	return append(inMarket, inHand...), nil
}

// HeldCardIDs 本局玩家手中属于该牌组的卡
func (r *cardRepo) HeldCardIDs(ctx context.Context, gameID uint, deck models.DeckType) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.ParticipantCard{}).
		Joins("JOIN cards ON cards.id = participant_cards.card_id").
		Where("participant_cards.game_id = ? AND cards.type = ?", gameID, deck).
		Pluck("participant_cards.card_id", &ids).Error
	return ids, err
}

// AddToInventory 加入手牌，卡牌已在本局某人手中时返回 ErrCardClaimed
func (r *cardRepo) AddToInventory(ctx context.Context, pc *models.ParticipantCard) error {
	err := r.db.WithContext(ctx).Omit("Card").Create(pc).Error
	if err != nil && IsConflictError(err) {
		return apperrors.Wrap(err, apperrors.ErrCardClaimed, "卡牌已被持有")
	}
	return err
}

// FindInventory 查询手牌（含卡牌目录）
func (r *cardRepo) FindInventory(ctx context.Context, id uint) (*models.ParticipantCard, error) {
	var pc models.ParticipantCard
	if err := r.db.WithContext(ctx).Preload("Card").First(&pc, id).Error; err != nil {
		return nil, notFound(err, "手牌不存在")
	}
	return &pc, nil
}

// FindInventoryByParticipant 玩家手牌
func (r *cardRepo) FindInventoryByParticipant(ctx context.Context, participantID uint) ([]*models.ParticipantCard, error) {
	var list []*models.ParticipantCard
	err := r.db.WithContext(ctx).
		Preload("Card").
		Where("participant_id = ?", participantID).
		Order("id ASC").
		Find(&list).Error
	return list, err
}

// FindInventoryByGame 本局全部手牌
func (r *cardRepo) FindInventoryByGame(ctx context.Context, gameID uint) ([]*models.ParticipantCard, error) {
	var list []*models.ParticipantCard
	err := r.db.WithContext(ctx).
		Preload("Card").
		Where("game_id = ?", gameID).
		Order("participant_id ASC, id ASC").
		Find(&list).Error
	return list, err
}

// RemoveInventory 移除手牌
func (r *cardRepo) RemoveInventory(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.ParticipantCard{}, id)
	if result.Error != nil {
		return apperrors.Wrap(result.Error, apperrors.ErrDatabaseDelete, "移除手牌失败")
	}
	if result.RowsAffected == 0 {
		return apperrors.New(apperrors.ErrNotFound, "手牌不存在")
	}
	return nil
}

// RemoveInventoryByParticipant 清空玩家手牌
func (r *cardRepo) RemoveInventoryByParticipant(ctx context.Context, participantID uint) error {
	return r.db.WithContext(ctx).
		Where("participant_id = ?", participantID).
		Delete(&models.ParticipantCard{}).Error
}

// LogUsage 写入使用日志
func (r *cardRepo) LogUsage(ctx context.Context, log *models.CardUsageLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// FindUsageLogs 最近的使用日志
func (r *cardRepo) FindUsageLogs(ctx context.Context, gameID uint, limit int) ([]*models.CardUsageLog, error) {
	var logs []*models.CardUsageLog
	query := r.db.WithContext(ctx).Where("game_id = ?", gameID).Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&logs).Error
	return logs, err
}

package service

import (
	"context"

	"github.com/shopspring/decimal"
	apperrors "github.com/wfunc/monopoly-game/internal/errors"
	"github.com/wfunc/monopoly-game/internal/event"
	"github.com/wfunc/monopoly-game/internal/models"
	"go.uber.org/zap"
)

// DescTradeCash 交易现金流水描述
const DescTradeCash = "Trade Cash"

// tradeService 交易服务实现
type tradeService struct {
	*core
}

// Create 发起交易，双方资产在接受时才转移
func (s *tradeService) Create(ctx context.Context, gameID, userID uint, req *TradeRequest) (*models.Trade, error) {
	if req.OfferCash.IsNegative() || req.RequestCash.IsNegative() {
		return nil, apperrors.New(apperrors.ErrInvalidAmount, "交易金额不能为负")
	}

	var result *models.Trade
	err := s.run(ctx, func(u *unit) error {
		g, err := s.lockMutableGame(u, gameID)
		if err != nil {
			return err
		}
		initiator, err := s.participant(u, g.ID, userID)
		if err != nil {
			return err
		}
		target, err := s.member(u, g.ID, req.TargetParticipantID)
		if err != nil {
			return err
		}
		if target.ID == initiator.ID {
			return apperrors.New(apperrors.ErrInvalidParam, "不能与自己交易")
		}

		if err := s.checkProperties(u, g.ID, initiator.ID, req.OfferProperties); err != nil {
			return err
		}
		if err := s.checkProperties(u, g.ID, target.ID, req.RequestProperties); err != nil {
			return err
		}
		if err := s.checkCards(u, g.ID, initiator.ID, req.OfferCards); err != nil {
			return err
		}
		if err := s.checkCards(u, g.ID, target.ID, req.RequestCards); err != nil {
			return err
		}

		result = &models.Trade{
			GameID:            g.ID,
			InitiatorID:       initiator.ID,
			TargetID:          target.ID,
			OfferCash:         req.OfferCash,
			RequestCash:       req.RequestCash,
			OfferProperties:   models.NewIDList(req.OfferProperties),
			RequestProperties: models.NewIDList(req.RequestProperties),
			OfferCards:        models.NewIDList(req.OfferCards),
			RequestCards:      models.NewIDList(req.RequestCards),
			Status:            models.TradePending,
		}
		if err := u.tx.Trade().Create(u.ctx, result); err != nil {
			return err
		}
		u.emit(event.TradeUpdated, g.ID, result)
		return nil
	})
	return result, err
}

func (s *tradeService) checkProperties(u *unit, gameID, ownerID uint, propertyIDs []uint) error {
	for _, id := range propertyIDs {
		pp, err := u.tx.Property().FindOwnership(u.ctx, gameID, id)
		if err != nil {
			return err
		}
		if pp == nil || pp.ParticipantID != ownerID {
			return apperrors.Newf(apperrors.ErrNotOwner, "地产 %d 不属于该玩家", id)
		}
	}
	return nil
}

func (s *tradeService) checkCards(u *unit, gameID, ownerID uint, inventoryIDs []uint) error {
	for _, id := range inventoryIDs {
		pc, err := u.tx.Card().FindInventory(u.ctx, id)
		if err != nil {
			return err
		}
		if pc.GameID != gameID || pc.ParticipantID != ownerID {
			return apperrors.Newf(apperrors.ErrNotOwner, "卡牌 %d 不属于该玩家", id)
		}
	}
	return nil
}

// lockPending 先锁游戏再锁交易行
func (s *tradeService) lockPending(u *unit, tradeID uint) (*models.GameSession, *models.Trade, error) {
	t, err := u.tx.Trade().FindByID(u.ctx, tradeID)
	if err != nil {
		return nil, nil, err
	}
	g, err := s.lockMutableGame(u, t.GameID)
	if err != nil {
		return nil, nil, err
	}
	if t, err = u.tx.Trade().LockByID(u.ctx, tradeID); err != nil {
		return nil, nil, err
	}
	if t.Status != models.TradePending {
		return nil, nil, apperrors.New(apperrors.ErrTradeNotPending)
	}
	return g, t, nil
}

// Accept 交易对象接受交易，现金、地产、卡牌全部转移或全部不转移
func (s *tradeService) Accept(ctx context.Context, tradeID, userID uint) (*models.Trade, error) {
	var result *models.Trade
	err := s.run(ctx, func(u *unit) error {
		g, t, err := s.lockPending(u, tradeID)
		if err != nil {
			return err
		}
		p, err := s.participant(u, g.ID, userID)
		if err != nil {
			return err
		}
		if p.ID != t.TargetID {
			return apperrors.New(apperrors.ErrPermissionDenied, "只有交易对象可以接受交易")
		}

		if err := s.pay(u, g, t.InitiatorID, t.TargetID, t.OfferCash); err != nil {
			return err
		}
		if err := s.pay(u, g, t.TargetID, t.InitiatorID, t.RequestCash); err != nil {
			return err
		}
		for _, id := range models.ParseIDList(t.OfferProperties) {
			if err := u.tx.Property().TransferOwnership(u.ctx, g.ID, id, t.InitiatorID, t.TargetID); err != nil {
				return err
			}
		}
		for _, id := range models.ParseIDList(t.RequestProperties) {
			if err := u.tx.Property().TransferOwnership(u.ctx, g.ID, id, t.TargetID, t.InitiatorID); err != nil {
				return err
			}
		}
		if err := s.swapCards(u, g.ID, t.InitiatorID, t.TargetID, models.ParseIDList(t.OfferCards)); err != nil {
			return err
		}
		if err := s.swapCards(u, g.ID, t.TargetID, t.InitiatorID, models.ParseIDList(t.RequestCards)); err != nil {
			return err
		}

		if err := u.tx.Trade().UpdateStatus(u.ctx, t.ID, models.TradeAccepted); err != nil {
			return err
		}
		t.Status = models.TradeAccepted
		result = t
		u.emit(event.TradeUpdated, g.ID, t)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("交易完成",
		zap.Uint("trade_id", result.ID),
		zap.Uint("initiator_id", result.InitiatorID),
		zap.Uint("target_id", result.TargetID))
	return result, nil
}

func (s *tradeService) pay(u *unit, g *models.GameSession, from, to uint, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return nil
	}
	_, err := s.move(u, g, transfer{From: uintPtr(from), To: uintPtr(to), Amount: amount, Description: DescTradeCash})
	return err
}

func (s *tradeService) swapCards(u *unit, gameID, from, to uint, inventoryIDs []uint) error {
	for _, id := range inventoryIDs {
		pc, err := u.tx.Card().FindInventory(u.ctx, id)
		if err != nil {
			return err
		}
		if pc.GameID != gameID || pc.ParticipantID != from {
			return apperrors.Newf(apperrors.ErrNotOwner, "卡牌 %d 已不属于该玩家", id)
		}
		if err := s.moveCard(u, pc, to); err != nil {
			return err
		}
	}
	return nil
}

// Reject 任意一方都可以拒绝，没有副作用
func (s *tradeService) Reject(ctx context.Context, tradeID, userID uint) (*models.Trade, error) {
	var result *models.Trade
	err := s.run(ctx, func(u *unit) error {
		g, t, err := s.lockPending(u, tradeID)
		if err != nil {
			return err
		}
		p, err := s.participant(u, g.ID, userID)
		if err != nil {
			return err
		}
		if p.ID != t.TargetID && p.ID != t.InitiatorID {
			return apperrors.New(apperrors.ErrPermissionDenied, "只有交易双方可以拒绝交易")
		}
		if err := u.tx.Trade().UpdateStatus(u.ctx, t.ID, models.TradeRejected); err != nil {
			return err
		}
		t.Status = models.TradeRejected
		result = t
		u.emit(event.TradeUpdated, g.ID, t)
		return nil
	})
	return result, err
}

// List 按状态筛选交易，status 为空时返回全部
func (s *tradeService) List(ctx context.Context, gameID uint, status models.TradeStatus) ([]*models.Trade, error) {
	return s.repos.Trade().FindByGame(ctx, gameID, status)
}

package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	apperrors "github.com/wfunc/monopoly-game/internal/errors"
	"github.com/wfunc/monopoly-game/internal/event"
	"github.com/wfunc/monopoly-game/internal/models"
	"go.uber.org/zap"
)

// DescAuctionWin 拍卖成交流水描述
const DescAuctionWin = "Won Auction"

// auctionService 拍卖服务实现
type auctionService struct {
	*core
}

// Start 开始拍卖，每局同时只能有一场进行中的拍卖
func (s *auctionService) Start(ctx context.Context, gameID, userID, propertyID uint) (*models.Auction, error) {
	var result *models.Auction
	err := s.run(ctx, func(u *unit) error {
		g, err := s.lockMutableGame(u, gameID)
		if err != nil {
			return err
		}
		if _, err := s.participant(u, g.ID, userID); err != nil {
			return err
		}
		prop, err := u.tx.Property().FindProperty(u.ctx, propertyID)
		if err != nil {
			return err
		}

		active, err := u.tx.Auction().FindActiveByGame(u.ctx, g.ID)
		if err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		if active != nil {
			return apperrors.New(apperrors.ErrAuctionInProgress)
		}

		result = &models.Auction{
			GameID:     g.ID,
			PropertyID: prop.ID,
			CurrentBid: s.cfg.AuctionFloor,
			Status:     models.AuctionActive,
		}
		if err := u.tx.Auction().Create(u.ctx, result); err != nil {
			return err
		}
		result.Property = prop
		u.emit(event.AuctionUpdated, g.ID, result)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("拍卖开始",
		zap.Uint("game_id", gameID),
		zap.Uint("auction_id", result.ID),
		zap.String("property", result.Property.Name))
	return result, nil
}

// lockActive 先锁游戏再锁拍卖行
func (s *auctionService) lockActive(u *unit, auctionID uint) (*models.GameSession, *models.Auction, error) {
	a, err := u.tx.Auction().FindByID(u.ctx, auctionID)
	if err != nil {
		return nil, nil, err
	}
	g, err := s.lockMutableGame(u, a.GameID)
	if err != nil {
		return nil, nil, err
	}
	if a, err = u.tx.Auction().LockByID(u.ctx, auctionID); err != nil {
		return nil, nil, err
	}
	if a.Status != models.AuctionActive {
		return nil, nil, apperrors.New(apperrors.ErrAuctionNotActive)
	}
	return g, a, nil
}

// PlaceBid 出价必须高于当前价且不超过余额
func (s *auctionService) PlaceBid(ctx context.Context, auctionID, userID uint, amount decimal.Decimal) (*models.Auction, error) {
	var result *models.Auction
	err := s.run(ctx, func(u *unit) error {
		g, a, err := s.lockActive(u, auctionID)
		if err != nil {
			return err
		}
		p, err := s.participant(u, g.ID, userID)
		if err != nil {
			return err
		}
		if !amount.GreaterThan(a.CurrentBid) {
			return apperrors.Newf(apperrors.ErrBidTooLow, "当前出价 %s", a.CurrentBid.String())
		}

		locked, err := u.tx.Participant().LockByIDs(u.ctx, p.ID)
		if err != nil {
			return err
		}
		if locked[p.ID].Balance.LessThan(amount) {
			return apperrors.New(apperrors.ErrInsufficientFunds)
		}

		a.CurrentBid = amount
		a.HighestBidderID = uintPtr(p.ID)
		if err := u.tx.Auction().Save(u.ctx, a); err != nil {
			return err
		}
		result = a
		u.emit(event.AuctionUpdated, g.ID, a)
		return nil
	})
	return result, err
}

// End 结束拍卖。有出价时最高出价者付款并获得地产，无人出价则地产保持无主。
func (s *auctionService) End(ctx context.Context, auctionID, userID uint) (*models.Auction, error) {
	var result *models.Auction
	err := s.run(ctx, func(u *unit) error {
		g, a, err := s.lockActive(u, auctionID)
		if err != nil {
			return err
		}
		if _, err := s.participant(u, g.ID, userID); err != nil {
			return err
		}

		if a.HighestBidderID != nil {
			winner := *a.HighestBidderID
			if _, err := s.move(u, g, transfer{
				From:        uintPtr(winner),
				Amount:      a.CurrentBid,
				Description: DescAuctionWin,
			}); err != nil {
				return err
			}
			if err := u.tx.Property().DeleteOwnership(u.ctx, g.ID, a.PropertyID); err != nil {
				return err
			}
			pp := &models.ParticipantProperty{GameID: g.ID, PropertyID: a.PropertyID, ParticipantID: winner}
			if err := u.tx.Property().CreateOwnership(u.ctx, pp); err != nil {
				return err
			}
			u.emit(event.PropertyUpdated, g.ID, pp)
		}

		now := time.Now()
		a.Status = models.AuctionFinished
		a.EndedAt = &now
		if err := u.tx.Auction().Save(u.ctx, a); err != nil {
			return err
		}
		result = a
		u.emit(event.AuctionUpdated, g.ID, a)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("拍卖结束",
		zap.Uint("auction_id", result.ID),
		zap.Bool("sold", result.HighestBidderID != nil),
		zap.String("price", result.CurrentBid.String()))
	return result, nil
}

// Active 进行中的拍卖
func (s *auctionService) Active(ctx context.Context, gameID uint) (*models.Auction, error) {
	return s.repos.Auction().FindActiveByGame(ctx, gameID)
}

// List 本局全部拍卖
func (s *auctionService) List(ctx context.Context, gameID uint) ([]*models.Auction, error) {
	return s.repos.Auction().FindByGame(ctx, gameID)
}

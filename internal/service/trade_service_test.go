package service

import (
	apperrors "github.com/wfunc/monopoly-game/internal/errors"
	"github.com/wfunc/monopoly-game/internal/event"
	"github.com/wfunc/monopoly-game/internal/models"
)

func (s *ServiceTestSuite) TestTradeAccepted() {
	t := s.newTable("ana", "beto")
	ana, beto := t.players[0], t.players[1]
	q := s.own(ana, "Avenida Kentucky")
	r := s.own(beto, "Avenida Indiana")
	card := s.give(ana, models.DeckBoveda, "Número 7")

	trade, err := s.svc.Trade.Create(s.ctx, t.game.ID, t.users[0].ID, &TradeRequest{
		TargetParticipantID: beto.ID,
		OfferCash:           money(100),
		RequestCash:         money(50),
		OfferProperties:     []uint{q.ID},
		RequestProperties:   []uint{r.ID},
		OfferCards:          []uint{card.ID},
	})
	s.Require().NoError(err)
	s.Equal(models.TradePending, trade.Status)
	s.Equal(1, s.events.Count(event.TradeUpdated))

	// 资产在接受前不移动
	s.assertMoney(1500, s.balance(ana.ID))

	// 只有交易对象可以接受
	_, err = s.svc.Trade.Accept(s.ctx, trade.ID, t.users[0].ID)
	s.assertCode(err, apperrors.ErrPermissionDenied)

	done, err := s.svc.Trade.Accept(s.ctx, trade.ID, t.users[1].ID)
	s.Require().NoError(err)
	s.Equal(models.TradeAccepted, done.Status)

	s.assertMoney(1450, s.balance(ana.ID))
	s.assertMoney(1550, s.balance(beto.ID))
	s.assertMoney(0, s.jackpot(t.game.ID))
	s.Equal(beto.ID, s.ownerOf(t.game.ID, q.ID).ParticipantID)
	s.Equal(ana.ID, s.ownerOf(t.game.ID, r.ID).ParticipantID)
	s.Empty(s.inventory(ana))
	s.Require().Len(s.inventory(beto), 1)
	s.Equal("Número 7", s.inventory(beto)[0].Card.Title)

	_, err = s.svc.Trade.Accept(s.ctx, trade.ID, t.users[1].ID)
	s.assertCode(err, apperrors.ErrTradeNotPending)

	accepted, err := s.svc.Trade.List(s.ctx, t.game.ID, models.TradeAccepted)
	s.Require().NoError(err)
	s.Len(accepted, 1)
}

func (s *ServiceTestSuite) TestTradeRejected() {
	t := s.newTable("ana", "beto")
	trade, err := s.svc.Trade.Create(s.ctx, t.game.ID, t.users[0].ID, &TradeRequest{
		TargetParticipantID: t.players[1].ID,
		OfferCash:           money(100),
	})
	s.Require().NoError(err)

	// 发起方也可以撤回
	done, err := s.svc.Trade.Reject(s.ctx, trade.ID, t.users[0].ID)
	s.Require().NoError(err)
	s.Equal(models.TradeRejected, done.Status)
	s.assertMoney(1500, s.balance(t.players[0].ID))

	_, err = s.svc.Trade.Accept(s.ctx, trade.ID, t.users[1].ID)
	s.assertCode(err, apperrors.ErrTradeNotPending)

	pending, err := s.svc.Trade.List(s.ctx, t.game.ID, models.TradePending)
	s.Require().NoError(err)
	s.Empty(pending)
	all, err := s.svc.Trade.List(s.ctx, t.game.ID, "")
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *ServiceTestSuite) TestTradeValidation() {
	t := s.newTable("ana", "beto", "caro")
	ana, beto := t.players[0], t.players[1]
	notMine := s.own(beto, "Avenida Kentucky")

	_, err := s.svc.Trade.Create(s.ctx, t.game.ID, t.users[0].ID, &TradeRequest{
		TargetParticipantID: beto.ID,
		OfferCash:           money(-5),
	})
	s.assertCode(err, apperrors.ErrInvalidAmount)

	_, err = s.svc.Trade.Create(s.ctx, t.game.ID, t.users[0].ID, &TradeRequest{TargetParticipantID: ana.ID})
	s.assertCode(err, apperrors.ErrInvalidParam)

	_, err = s.svc.Trade.Create(s.ctx, t.game.ID, t.users[0].ID, &TradeRequest{TargetParticipantID: 9999})
	s.assertCode(err, apperrors.ErrNotParticipant)

	_, err = s.svc.Trade.Create(s.ctx, t.game.ID, t.users[0].ID, &TradeRequest{
		TargetParticipantID: beto.ID,
		OfferProperties:     []uint{notMine.ID},
	})
	s.assertCode(err, apperrors.ErrNotOwner)

	// 第三方不能拒绝别人的交易
	trade, err := s.svc.Trade.Create(s.ctx, t.game.ID, t.users[0].ID, &TradeRequest{
		TargetParticipantID: beto.ID,
		RequestProperties:   []uint{notMine.ID},
	})
	s.Require().NoError(err)
	_, err = s.svc.Trade.Reject(s.ctx, trade.ID, t.users[2].ID)
	s.assertCode(err, apperrors.ErrPermissionDenied)
}

func (s *ServiceTestSuite) TestLeaveRejectsPendingTrades() {
	t := s.newTable("ana", "beto")
	trade, err := s.svc.Trade.Create(s.ctx, t.game.ID, t.users[1].ID, &TradeRequest{
		TargetParticipantID: t.players[0].ID,
		OfferCash:           money(10),
	})
	s.Require().NoError(err)

	s.Require().NoError(s.svc.Game.Leave(s.ctx, t.game.ID, t.users[1].ID))

	list, err := s.svc.Trade.List(s.ctx, t.game.ID, "")
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(trade.ID, list[0].ID)
	s.Equal(models.TradeRejected, list[0].Status)
}

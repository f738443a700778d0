package service

import (
	apperrors "github.com/wfunc/monopoly-game/internal/errors"
	"github.com/wfunc/monopoly-game/internal/event"
	"github.com/wfunc/monopoly-game/internal/models"
	"github.com/wfunc/monopoly-game/internal/repository"
)

func (s *ServiceTestSuite) TestAuctionSoldToHighestBidder() {
	t := s.newTable("ana", "beto")
	prop := repository.FindPropertyByName(s.T(), s.db, "Plaza Park")

	a, err := s.svc.Auction.Start(s.ctx, t.game.ID, t.users[0].ID, prop.ID)
	s.Require().NoError(err)
	s.Equal(models.AuctionActive, a.Status)
	s.assertMoney(10, a.CurrentBid)

	// 出价必须严格高于当前价
	_, err = s.svc.Auction.PlaceBid(s.ctx, a.ID, t.users[1].ID, money(10))
	s.assertCode(err, apperrors.ErrBidTooLow)

	_, err = s.svc.Auction.PlaceBid(s.ctx, a.ID, t.users[1].ID, money(30))
	s.Require().NoError(err)
	a, err = s.svc.Auction.PlaceBid(s.ctx, a.ID, t.users[0].ID, money(50))
	s.Require().NoError(err)
	s.Equal(t.players[0].ID, *a.HighestBidderID)

	_, err = s.svc.Auction.PlaceBid(s.ctx, a.ID, t.users[1].ID, money(2000))
	s.assertCode(err, apperrors.ErrInsufficientFunds)

	a, err = s.svc.Auction.End(s.ctx, a.ID, t.users[1].ID)
	s.Require().NoError(err)
	s.Equal(models.AuctionFinished, a.Status)
	s.NotNil(a.EndedAt)

	s.assertMoney(1450, s.balance(t.players[0].ID))
	s.assertMoney(1500, s.balance(t.players[1].ID))
	s.assertMoney(50, s.jackpot(t.game.ID))
	owner := s.ownerOf(t.game.ID, prop.ID)
	s.Require().NotNil(owner)
	s.Equal(t.players[0].ID, owner.ParticipantID)

	_, err = s.svc.Auction.End(s.ctx, a.ID, t.users[0].ID)
	s.assertCode(err, apperrors.ErrAuctionNotActive)
	_, err = s.svc.Auction.PlaceBid(s.ctx, a.ID, t.users[1].ID, money(60))
	s.assertCode(err, apperrors.ErrAuctionNotActive)
}

func (s *ServiceTestSuite) TestOneActiveAuctionPerGame() {
	t := s.newTable("ana")
	park := repository.FindPropertyByName(s.T(), s.db, "Plaza Park")
	pier := repository.FindPropertyByName(s.T(), s.db, "El Muelle")

	first, err := s.svc.Auction.Start(s.ctx, t.game.ID, t.users[0].ID, park.ID)
	s.Require().NoError(err)
	_, err = s.svc.Auction.Start(s.ctx, t.game.ID, t.users[0].ID, pier.ID)
	s.assertCode(err, apperrors.ErrAuctionInProgress)

	active, err := s.svc.Auction.Active(s.ctx, t.game.ID)
	s.Require().NoError(err)
	s.Equal(first.ID, active.ID)

	// 无人出价：地产保持无主，没有资金变动
	_, err = s.svc.Auction.End(s.ctx, first.ID, t.users[0].ID)
	s.Require().NoError(err)
	s.Nil(s.ownerOf(t.game.ID, park.ID))
	s.Equal(0, s.events.Count(event.TransactionCreated))

	_, err = s.svc.Auction.Active(s.ctx, t.game.ID)
	s.assertCode(err, apperrors.ErrNotFound)

	_, err = s.svc.Auction.Start(s.ctx, t.game.ID, t.users[0].ID, pier.ID)
	s.Require().NoError(err)

	all, err := s.svc.Auction.List(s.ctx, t.game.ID)
	s.Require().NoError(err)
	s.Len(all, 2)
}

func (s *ServiceTestSuite) TestLeaveResetsTopBid() {
	t := s.newTable("ana", "beto")
	park := repository.FindPropertyByName(s.T(), s.db, "Plaza Park")

	a, err := s.svc.Auction.Start(s.ctx, t.game.ID, t.users[0].ID, park.ID)
	s.Require().NoError(err)
	_, err = s.svc.Auction.PlaceBid(s.ctx, a.ID, t.users[1].ID, money(120))
	s.Require().NoError(err)

	s.Require().NoError(s.svc.Game.Leave(s.ctx, t.game.ID, t.users[1].ID))

	active, err := s.svc.Auction.Active(s.ctx, t.game.ID)
	s.Require().NoError(err)
	s.Nil(active.HighestBidderID)
	s.assertMoney(10, active.CurrentBid)
}

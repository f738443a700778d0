package service

import (
	apperrors "github.com/wfunc/monopoly-game/internal/errors"
	"github.com/wfunc/monopoly-game/internal/event"
	"github.com/wfunc/monopoly-game/internal/repository"
)

func (s *ServiceTestSuite) TestBuyProperty() {
	t := s.newTable("ana", "beto")
	prop := repository.FindPropertyByName(s.T(), s.db, "Avenida Illinois")

	pp, err := s.svc.Property.Buy(s.ctx, t.game.ID, t.users[0].ID, prop.ID)
	s.Require().NoError(err)
	s.Equal(t.players[0].ID, pp.ParticipantID)
	s.assertMoney(1260, s.balance(t.players[0].ID))
	s.assertMoney(240, s.jackpot(t.game.ID))
	s.Equal(1, s.events.Count(event.PropertyUpdated))

	_, err = s.svc.Property.Buy(s.ctx, t.game.ID, t.users[1].ID, prop.ID)
	s.assertCode(err, apperrors.ErrPropertyOwned)
	s.assertMoney(1500, s.balance(t.players[1].ID))

	owner := s.ownerOf(t.game.ID, prop.ID)
	s.Require().NotNil(owner)
	s.Equal(t.players[0].ID, owner.ParticipantID)
}

func (s *ServiceTestSuite) TestBuyUnknownProperty() {
	t := s.newTable("ana")
	_, err := s.svc.Property.Buy(s.ctx, t.game.ID, t.users[0].ID, 9999)
	s.assertCode(err, apperrors.ErrNotFound)
}

func (s *ServiceTestSuite) TestMortgageCycle() {
	t := s.newTable("ana", "beto")
	ana := t.players[0]
	prop := s.own(ana, "Avenida Oriental")

	pp, err := s.svc.Property.Mortgage(s.ctx, t.game.ID, t.users[0].ID, prop.ID)
	s.Require().NoError(err)
	s.True(pp.IsMortgaged)
	s.assertMoney(1550, s.balance(ana.ID))

	_, err = s.svc.Property.Mortgage(s.ctx, t.game.ID, t.users[0].ID, prop.ID)
	s.assertCode(err, apperrors.ErrPropertyMortgaged)

	// 赎回价为抵押价加10%
	pp, err = s.svc.Property.Unmortgage(s.ctx, t.game.ID, t.users[0].ID, prop.ID)
	s.Require().NoError(err)
	s.False(pp.IsMortgaged)
	s.assertMoney(1495, s.balance(ana.ID))

	_, err = s.svc.Property.Unmortgage(s.ctx, t.game.ID, t.users[0].ID, prop.ID)
	s.assertCode(err, apperrors.ErrPropertyNotMortgaged)

	_, err = s.svc.Property.Mortgage(s.ctx, t.game.ID, t.users[1].ID, prop.ID)
	s.assertCode(err, apperrors.ErrNotOwner)
}

func (s *ServiceTestSuite) TestBuildingProgression() {
	t := s.newTable("ana", "beto")
	ana := t.players[0]
	med := s.own(ana, "Avenida Mediterráneo")

	// 没有整个色组不能建造
	_, err := s.svc.Property.BuyBuilding(s.ctx, t.game.ID, t.users[0].ID, med.ID)
	s.assertCode(err, apperrors.ErrNoMonopoly)

	s.own(ana, "Avenida Báltica")
	for i := 1; i <= 4; i++ {
		pp, err := s.svc.Property.BuyBuilding(s.ctx, t.game.ID, t.users[0].ID, med.ID)
		s.Require().NoError(err)
		s.Equal(i, pp.HouseCount)
		s.Equal(0, pp.HotelCount)
	}
	pp, err := s.svc.Property.BuyBuilding(s.ctx, t.game.ID, t.users[0].ID, med.ID)
	s.Require().NoError(err)
	s.Equal(0, pp.HouseCount)
	s.Equal(1, pp.HotelCount)
	s.assertMoney(1250, s.balance(ana.ID))

	_, err = s.svc.Property.BuyBuilding(s.ctx, t.game.ID, t.users[0].ID, med.ID)
	s.assertCode(err, apperrors.ErrBuildingLimit)

	// 有建筑时不能抵押
	_, err = s.svc.Property.Mortgage(s.ctx, t.game.ID, t.users[0].ID, med.ID)
	s.assertCode(err, apperrors.ErrHasBuildings)

	// 酒店降级为4栋房屋，退还半价
	pp, err = s.svc.Property.SellBuilding(s.ctx, t.game.ID, t.users[0].ID, med.ID)
	s.Require().NoError(err)
	s.Equal(4, pp.HouseCount)
	s.Equal(0, pp.HotelCount)
	s.assertMoney(1275, s.balance(ana.ID))

	for i := 3; i >= 0; i-- {
		pp, err = s.svc.Property.SellBuilding(s.ctx, t.game.ID, t.users[0].ID, med.ID)
		s.Require().NoError(err)
		s.Equal(i, pp.HouseCount)
	}
	s.assertMoney(1375, s.balance(ana.ID))

	_, err = s.svc.Property.SellBuilding(s.ctx, t.game.ID, t.users[0].ID, med.ID)
	s.assertCode(err, apperrors.ErrNoBuildings)
}

func (s *ServiceTestSuite) TestBuildingRequiresUnmortgagedGroup() {
	t := s.newTable("ana")
	ana := t.players[0]
	med := s.own(ana, "Avenida Mediterráneo")
	bal := s.own(ana, "Avenida Báltica")

	_, err := s.svc.Property.Mortgage(s.ctx, t.game.ID, t.users[0].ID, bal.ID)
	s.Require().NoError(err)
	_, err = s.svc.Property.BuyBuilding(s.ctx, t.game.ID, t.users[0].ID, med.ID)
	s.assertCode(err, apperrors.ErrPropertyMortgaged)
}

func (s *ServiceTestSuite) TestRailroadNotBuildable() {
	t := s.newTable("ana")
	rr := s.own(t.players[0], "Ferrocarril Reading")
	_, err := s.svc.Property.BuyBuilding(s.ctx, t.game.ID, t.users[0].ID, rr.ID)
	s.assertCode(err, apperrors.ErrNotBuildable)
}

func (s *ServiceTestSuite) TestCatalog() {
	props, err := s.svc.Property.Catalog(s.ctx)
	s.Require().NoError(err)
	s.Len(props, 28)
}

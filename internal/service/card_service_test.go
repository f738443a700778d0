package service

import (
	apperrors "github.com/wfunc/monopoly-game/internal/errors"
	"github.com/wfunc/monopoly-game/internal/event"
	"github.com/wfunc/monopoly-game/internal/models"
)

func (s *ServiceTestSuite) TestDrawWithoutReplacementThenReshuffle() {
	t := s.newTable("ana", "beto")

	seen := make(map[uint]bool)
	for i := 0; i < 16; i++ {
		res, err := s.svc.Card.Draw(s.ctx, t.game.ID, t.users[i%2].ID, models.DeckArca)
		s.Require().NoError(err)
		s.False(seen[res.Card.ID], "重复抽到 %s", res.Card.Title)
		seen[res.Card.ID] = true
	}
	s.Len(seen, 16)

	// 牌堆抽完后重新洗牌
	res, err := s.svc.Card.Draw(s.ctx, t.game.ID, t.users[0].ID, models.DeckArca)
	s.Require().NoError(err)
	s.True(seen[res.Card.ID])
	s.Equal(17, s.events.Count(event.CardUsed))
}

func (s *ServiceTestSuite) TestDrawRejectsBoveda() {
	t := s.newTable("ana")
	_, err := s.svc.Card.Draw(s.ctx, t.game.ID, t.users[0].ID, models.DeckBoveda)
	s.assertCode(err, apperrors.ErrInvalidParam)
}

func (s *ServiceTestSuite) TestDrawMovesMoneyForBankCards() {
	t := s.newTable("ana")
	ana := t.players[0]

	expected := money(1500)
	for i := 0; i < 15; i++ {
		res, err := s.svc.Card.Draw(s.ctx, t.game.ID, t.users[0].ID, models.DeckFortuna)
		s.Require().NoError(err)
		card := res.Card
		switch card.ActionType {
		case models.ActionReceiveBank:
			s.Require().NotNil(res.Transaction)
			expected = expected.Add(decimalFromInt(*card.ActionValue))
		case models.ActionPayBank:
			s.Require().NotNil(res.Transaction)
			expected = expected.Sub(decimalFromInt(*card.ActionValue))
		case models.ActionKeep:
			s.Require().NotNil(res.Inventory)
			s.Nil(res.Transaction)
		default:
			s.Nil(res.Transaction)
		}
	}
	s.True(expected.Equal(s.balance(ana.ID)), "want %s got %s", expected, s.balance(ana.ID))

	// Fortuna 有 Dividendo(+50)、Préstamo(+150)、Multa(-15)
	s.assertMoney(1685, s.balance(ana.ID))
	s.assertMoney(15, s.jackpot(t.game.ID))
	s.Len(s.inventory(ana), 1)
}

func (s *ServiceTestSuite) TestMarketFillsDistinctSlots() {
	t := s.newTable("ana")

	market, err := s.svc.Card.GetMarket(s.ctx, t.game.ID)
	s.Require().NoError(err)
	s.Require().Len(market, 3)
	seen := make(map[uint]bool)
	for i, m := range market {
		s.Equal(i, m.SlotIndex)
		s.False(seen[m.CardID])
		seen[m.CardID] = true
		s.Equal(models.DeckBoveda, m.Card.Type)
	}
	s.Equal(1, s.events.Count(event.MarketUpdated))

	// 已满时不再变化，也不通知
	again, err := s.svc.Card.GetMarket(s.ctx, t.game.ID)
	s.Require().NoError(err)
	for i := range again {
		s.Equal(market[i].CardID, again[i].CardID)
	}
	s.Equal(1, s.events.Count(event.MarketUpdated))

	_, err = s.svc.Card.RefreshMarket(s.ctx, t.game.ID)
	s.Require().NoError(err)
	s.Equal(2, s.events.Count(event.MarketUpdated))
}

func (s *ServiceTestSuite) TestBuyMarketCard() {
	t := s.newTable("ana", "beto")
	ana := t.players[0]

	market, err := s.svc.Card.GetMarket(s.ctx, t.game.ID)
	s.Require().NoError(err)
	bought := market[1]

	res, err := s.svc.Card.BuyMarketCard(s.ctx, t.game.ID, t.users[0].ID, 1)
	s.Require().NoError(err)
	s.Equal(bought.CardID, res.Inventory.CardID)

	cost := bought.Card.Cost.Decimal
	s.True(money(1500).Sub(cost).Equal(s.balance(ana.ID)))
	s.True(cost.Equal(s.jackpot(t.game.ID)))
	s.Require().NotNil(res.Transaction)
	s.Equal("Bought Boveda Card: "+bought.Card.Title, res.Transaction.Description)

	// 槽位被补满，且不会出现已购的卡
	s.Require().Len(res.Market, 3)
	ids := make(map[uint]bool)
	for _, m := range res.Market {
		s.NotEqual(bought.CardID, m.CardID)
		s.False(ids[m.CardID])
		ids[m.CardID] = true
	}
	s.Len(s.inventory(ana), 1)
}

func (s *ServiceTestSuite) TestBuyMarketCardPaysVaultHolder() {
	t := s.newTable("ana", "beto")
	ana, beto := t.players[0], t.players[1]
	s.give(beto, models.DeckBoveda, "La Bóveda")

	market, err := s.svc.Card.GetMarket(s.ctx, t.game.ID)
	s.Require().NoError(err)
	cost := market[0].Card.Cost.Decimal

	res, err := s.svc.Card.BuyMarketCard(s.ctx, t.game.ID, t.users[0].ID, 0)
	s.Require().NoError(err)
	s.Require().NotNil(res.Transaction.ToParticipantID)
	s.Equal(beto.ID, *res.Transaction.ToParticipantID)
	s.True(money(1500).Sub(cost).Equal(s.balance(ana.ID)))
	s.True(money(1500).Add(cost).Equal(s.balance(beto.ID)))
	s.assertMoney(0, s.jackpot(t.game.ID))

	// 持有者本人购买免费
	_, err = s.svc.Card.BuyMarketCard(s.ctx, t.game.ID, t.users[1].ID, 0)
	s.Require().NoError(err)
	s.True(money(1500).Add(cost).Equal(s.balance(beto.ID)))
}

func (s *ServiceTestSuite) TestBuyMarketCardValidation() {
	t := s.newTable("ana")
	_, err := s.svc.Card.BuyMarketCard(s.ctx, t.game.ID, t.users[0].ID, 3)
	s.assertCode(err, apperrors.ErrInvalidParam)
	_, err = s.svc.Card.BuyMarketCard(s.ctx, t.game.ID, t.users[0].ID, -1)
	s.assertCode(err, apperrors.ErrInvalidParam)

	// 市场尚未初始化，槽位为空
	_, err = s.svc.Card.BuyMarketCard(s.ctx, t.game.ID, t.users[0].ID, 0)
	s.assertCode(err, apperrors.ErrMarketSlotEmpty)
}

func (s *ServiceTestSuite) TestExchangeMarketCard() {
	t := s.newTable("ana")
	market, err := s.svc.Card.GetMarket(s.ctx, t.game.ID)
	s.Require().NoError(err)
	old := market[2].CardID

	after, err := s.svc.Card.ExchangeMarketCard(s.ctx, t.game.ID, t.users[0].ID, 2)
	s.Require().NoError(err)
	s.Require().Len(after, 3)
	s.NotEqual(old, after[2].CardID)
	s.Equal(market[0].CardID, after[0].CardID)
	s.Equal(market[1].CardID, after[1].CardID)

	// 换卡不收费
	s.assertMoney(1500, s.balance(t.players[0].ID))
}

func (s *ServiceTestSuite) TestUsePassiveCardRejected() {
	t := s.newTable("ana")
	pc := s.give(t.players[0], models.DeckBoveda, "El Banco")

	_, err := s.svc.Card.UseCard(s.ctx, t.game.ID, t.users[0].ID, pc.ID)
	s.assertCode(err, apperrors.ErrPassiveCard)

	// Dado de Compra 是唯一可以主动使用的黄色卡
	die := s.give(t.players[0], models.DeckBoveda, "Dado de Compra")
	res, err := s.svc.Card.UseCard(s.ctx, t.game.ID, t.users[0].ID, die.ID)
	s.Require().NoError(err)
	s.False(res.Consumed)
	s.Len(s.inventory(t.players[0]), 2)
}

func (s *ServiceTestSuite) TestUseInstantWinFinishesGame() {
	t := s.newTable("ana", "beto")
	pc := s.give(t.players[1], models.DeckBoveda, "Dobles")

	res, err := s.svc.Card.UseCard(s.ctx, t.game.ID, t.users[1].ID, pc.ID)
	s.Require().NoError(err)
	s.True(res.Victory)

	g, err := s.svc.Game.Get(s.ctx, t.game.ID)
	s.Require().NoError(err)
	s.Equal(models.GameStatusFinished, g.Status)
	s.NotNil(g.FinishedAt)
	s.Equal(1, s.events.Count(event.GameUpdated))

	_, err = s.svc.Card.Draw(s.ctx, t.game.ID, t.users[0].ID, models.DeckArca)
	s.assertCode(err, apperrors.ErrGameFinished)
}

func (s *ServiceTestSuite) TestUseRedCardConsumes() {
	t := s.newTable("ana")
	pc := s.give(t.players[0], models.DeckBoveda, "Propulsor")

	res, err := s.svc.Card.UseCard(s.ctx, t.game.ID, t.users[0].ID, pc.ID)
	s.Require().NoError(err)
	s.True(res.Consumed)
	s.Empty(s.inventory(t.players[0]))

	logs, err := s.svc.Card.UsageLogs(s.ctx, t.game.ID, 0)
	s.Require().NoError(err)
	s.Require().Len(logs, 1)
	s.Equal(usageUse, logs[0].Action)
}

func (s *ServiceTestSuite) TestUseOthersCardRejected() {
	t := s.newTable("ana", "beto")
	pc := s.give(t.players[1], models.DeckBoveda, "Propulsor")
	_, err := s.svc.Card.UseCard(s.ctx, t.game.ID, t.users[0].ID, pc.ID)
	s.assertCode(err, apperrors.ErrNotOwner)
}

func (s *ServiceTestSuite) TestDiscard() {
	t := s.newTable("ana")
	pc := s.give(t.players[0], models.DeckBoveda, "Número 7")
	s.Require().NoError(s.svc.Card.Discard(s.ctx, t.game.ID, t.users[0].ID, pc.ID))
	s.Empty(s.inventory(t.players[0]))
}

func (s *ServiceTestSuite) TestSpecialActions() {
	t := s.newTable("ana", "beto")
	ana, beto := t.players[0], t.players[1]

	victim := s.give(beto, models.DeckBoveda, "Número 7")
	s.Require().NoError(s.svc.Card.ExecuteSpecialAction(s.ctx, t.game.ID, t.users[0].ID, &SpecialActionRequest{
		Action:            "destroy",
		TargetInventoryID: victim.ID,
	}))
	s.Empty(s.inventory(beto))

	loot := s.give(beto, models.DeckBoveda, "El Banco")
	s.Require().NoError(s.svc.Card.ExecuteSpecialAction(s.ctx, t.game.ID, t.users[0].ID, &SpecialActionRequest{
		Action:            "buy",
		TargetInventoryID: loot.ID,
	}))
	mine := s.inventory(ana)
	s.Require().Len(mine, 1)
	s.Equal("El Banco", mine[0].Card.Title)
	// 夺取不收费
	s.assertMoney(1500, s.balance(ana.ID))

	theirs := s.give(beto, models.DeckBoveda, "Propulsor")
	s.Require().NoError(s.svc.Card.ExecuteSpecialAction(s.ctx, t.game.ID, t.users[0].ID, &SpecialActionRequest{
		Action:            "exchange",
		TargetInventoryID: theirs.ID,
		MyCardID:          &mine[0].ID,
	}))
	s.Require().Len(s.inventory(ana), 1)
	s.Equal("Propulsor", s.inventory(ana)[0].Card.Title)
	s.Require().Len(s.inventory(beto), 1)
	s.Equal("El Banco", s.inventory(beto)[0].Card.Title)

	logs, err := s.svc.Card.UsageLogs(s.ctx, t.game.ID, 10)
	s.Require().NoError(err)
	s.Len(logs, 3)
}

func (s *ServiceTestSuite) TestSpecialActionValidation() {
	t := s.newTable("ana", "beto")
	own := s.give(t.players[0], models.DeckBoveda, "Propulsor")
	other := s.give(t.players[1], models.DeckBoveda, "Número 7")

	err := s.svc.Card.ExecuteSpecialAction(s.ctx, t.game.ID, t.users[0].ID, &SpecialActionRequest{Action: "burn", TargetInventoryID: other.ID})
	s.assertCode(err, apperrors.ErrInvalidParam)

	err = s.svc.Card.ExecuteSpecialAction(s.ctx, t.game.ID, t.users[0].ID, &SpecialActionRequest{Action: "exchange", TargetInventoryID: other.ID})
	s.assertCode(err, apperrors.ErrInvalidParam)

	err = s.svc.Card.ExecuteSpecialAction(s.ctx, t.game.ID, t.users[0].ID, &SpecialActionRequest{Action: "destroy", TargetInventoryID: own.ID})
	s.assertCode(err, apperrors.ErrInvalidParam)
}

// assertCardsUnique 同一局里每张卡最多出现在一个手牌或一个市场槽位中
func (s *ServiceTestSuite) assertCardsUnique(gameID uint) {
	var held []uint
	s.Require().NoError(s.db.Model(&models.ParticipantCard{}).Where("game_id = ?", gameID).Pluck("card_id", &held).Error)
	var listed []uint
	s.Require().NoError(s.db.Model(&models.GameBovedaMarket{}).Where("game_id = ?", gameID).Pluck("card_id", &listed).Error)

	seen := make(map[uint]bool)
	for _, id := range append(held, listed...) {
		s.False(seen[id], "卡牌 %d 出现多次", id)
		seen[id] = true
	}
}

func (s *ServiceTestSuite) TestCardsStayUniqueAcrossMixedOperations() {
	t := s.newTable("ana", "beto")
	ana, beto := t.players[0], t.players[1]

	_, err := s.svc.Card.GetMarket(s.ctx, t.game.ID)
	s.Require().NoError(err)
	_, err = s.svc.Card.BuyMarketCard(s.ctx, t.game.ID, t.users[0].ID, 0)
	s.Require().NoError(err)
	_, err = s.svc.Card.ExchangeMarketCard(s.ctx, t.game.ID, t.users[0].ID, 1)
	s.Require().NoError(err)
	_, err = s.svc.Card.BuyMarketCard(s.ctx, t.game.ID, t.users[1].ID, 2)
	s.Require().NoError(err)
	s.assertCardsUnique(t.game.ID)

	// 抽完一轮再洗牌，仍在手中的保留卡不会再被抽出
	for i := 0; i < 20; i++ {
		_, err := s.svc.Card.Draw(s.ctx, t.game.ID, t.users[i%2].ID, models.DeckArca)
		s.Require().NoError(err)
	}
	s.assertCardsUnique(t.game.ID)

	var loot *models.ParticipantCard
	for _, pc := range s.inventory(beto) {
		if pc.Card.Type == models.DeckBoveda {
			loot = pc
		}
	}
	s.Require().NotNil(loot)
	s.Require().NoError(s.svc.Card.ExecuteSpecialAction(s.ctx, t.game.ID, t.users[0].ID, &SpecialActionRequest{
		Action:            "buy",
		TargetInventoryID: loot.ID,
	}))
	s.assertCardsUnique(t.game.ID)

	mine := s.inventory(ana)
	s.Require().NotEmpty(mine)
	trade, err := s.svc.Trade.Create(s.ctx, t.game.ID, t.users[0].ID, &TradeRequest{
		TargetParticipantID: beto.ID,
		OfferCards:          []uint{mine[0].ID},
	})
	s.Require().NoError(err)
	_, err = s.svc.Trade.Accept(s.ctx, trade.ID, t.users[1].ID)
	s.Require().NoError(err)

	_, err = s.svc.Card.RefreshMarket(s.ctx, t.game.ID)
	s.Require().NoError(err)
	s.assertCardsUnique(t.game.ID)
}

func (s *ServiceTestSuite) TestMarketLeavesSlotEmptyWhenPoolExhausted() {
	t := s.newTable("ana")
	ana := t.players[0]

	var pool []*models.Card
	s.Require().NoError(s.db.Where("type = ?", models.DeckBoveda).Order("id").Find(&pool).Error)
	s.Require().Len(pool, 20)
	for _, c := range pool[:18] {
		s.Require().NoError(s.db.Omit("Card").Create(&models.ParticipantCard{GameID: t.game.ID, ParticipantID: ana.ID, CardID: c.ID}).Error)
	}

	market, err := s.svc.Card.GetMarket(s.ctx, t.game.ID)
	s.Require().NoError(err)
	s.Require().Len(market, 2)
	listed := []uint{market[0].CardID, market[1].CardID}
	s.ElementsMatch([]uint{pool[18].ID, pool[19].ID}, listed)
	s.Equal(0, market[0].SlotIndex)
	s.Equal(1, market[1].SlotIndex)

	_, err = s.svc.Card.BuyMarketCard(s.ctx, t.game.ID, t.users[0].ID, 2)
	s.assertCode(err, apperrors.ErrMarketSlotEmpty)

	// 买走后没有可补的卡，市场只剩一个槽位
	res, err := s.svc.Card.BuyMarketCard(s.ctx, t.game.ID, t.users[0].ID, 0)
	s.Require().NoError(err)
	s.Require().Len(res.Market, 1)
	s.Equal(1, res.Market[0].SlotIndex)
	s.Len(s.inventory(ana), 19)
	s.assertCardsUnique(t.game.ID)
}

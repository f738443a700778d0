package service

import (
	"github.com/shopspring/decimal"
	apperrors "github.com/wfunc/monopoly-game/internal/errors"
	"github.com/wfunc/monopoly-game/internal/event"
	"github.com/wfunc/monopoly-game/internal/models"
)

func (s *ServiceTestSuite) TestJoinFundsFromBank() {
	t := s.newTable("ana", "beto")
	for _, p := range t.players {
		s.assertMoney(1500, s.balance(p.ID))
	}
	s.assertMoney(0, s.jackpot(t.game.ID))

	rows, _, err := s.svc.Ledger.List(s.ctx, t.game.ID, 1, 20)
	s.Require().NoError(err)
	s.Len(rows, 2)
	for _, r := range rows {
		s.Nil(r.FromParticipantID)
		s.Equal(DescInitialFunding, r.Description)
	}
}

func (s *ServiceTestSuite) TestPayBankFeedsJackpot() {
	t := s.newTable("ana", "beto")
	ana := t.players[0]

	tx, err := s.svc.Ledger.Transfer(s.ctx, t.users[0].ID, &TransferRequest{
		GameID:      t.game.ID,
		Amount:      money(200),
		Description: "Impuesto",
	})
	s.Require().NoError(err)
	s.Nil(tx.ToParticipantID)
	s.Equal(ana.ID, *tx.FromParticipantID)

	s.assertMoney(1300, s.balance(ana.ID))
	s.assertMoney(200, s.jackpot(t.game.ID))
	s.Equal(1, s.events.Count(event.TransactionCreated))

	entries, err := s.svc.Ledger.JackpotHistory(s.ctx, t.game.ID, 0)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(models.JackpotContribution, entries[0].Kind)
	s.assertMoney(200, entries[0].BalanceAfter)
}

func (s *ServiceTestSuite) TestTransferBetweenPlayersConservesMoney() {
	t := s.newTable("ana", "beto", "caro")
	to := t.players[1].ID

	_, err := s.svc.Ledger.Transfer(s.ctx, t.users[0].ID, &TransferRequest{
		GameID:          t.game.ID,
		ToParticipantID: &to,
		Amount:          decimal.RequireFromString("123.45"),
		Description:     "Renta",
	})
	s.Require().NoError(err)

	total := decimal.Zero
	for _, p := range t.players {
		total = total.Add(s.balance(p.ID))
	}
	s.assertMoney(4500, total)
	s.True(decimal.RequireFromString("1623.45").Equal(s.balance(to)))
}

func (s *ServiceTestSuite) TestTransferValidation() {
	t := s.newTable("ana", "beto")
	self := t.players[0].ID

	_, err := s.svc.Ledger.Transfer(s.ctx, t.users[0].ID, &TransferRequest{GameID: t.game.ID, Amount: money(0)})
	s.assertCode(err, apperrors.ErrInvalidAmount)

	_, err = s.svc.Ledger.Transfer(s.ctx, t.users[0].ID, &TransferRequest{GameID: t.game.ID, ToParticipantID: &self, Amount: money(5)})
	s.assertCode(err, apperrors.ErrInvalidParam)

	// 只有房主可以代表银行
	_, err = s.svc.Ledger.Transfer(s.ctx, t.users[1].ID, &TransferRequest{GameID: t.game.ID, ToParticipantID: &self, FromBank: true, Amount: money(5)})
	s.assertCode(err, apperrors.ErrNotHost)

	_, err = s.svc.Ledger.Execute(s.ctx, t.game.ID, nil, nil, money(5), "nada")
	s.assertCode(err, apperrors.ErrInvalidParam)

	outsider := uint(9999)
	_, err = s.svc.Ledger.Transfer(s.ctx, t.users[0].ID, &TransferRequest{GameID: t.game.ID, ToParticipantID: &outsider, Amount: money(5)})
	s.assertCode(err, apperrors.ErrNotParticipant)
	s.assertMoney(1500, s.balance(self))
}

func (s *ServiceTestSuite) TestBalanceMayGoNegative() {
	t := s.newTable("ana")
	_, err := s.svc.Ledger.Transfer(s.ctx, t.users[0].ID, &TransferRequest{GameID: t.game.ID, Amount: money(2000)})
	s.Require().NoError(err)
	s.assertMoney(-500, s.balance(t.players[0].ID))
}

func (s *ServiceTestSuite) TestElBancoHolderCollectsBankPayments() {
	t := s.newTable("ana", "beto")
	ana, beto := t.players[0], t.players[1]
	s.give(beto, models.DeckBoveda, "El Banco")

	tx, err := s.svc.Ledger.Transfer(s.ctx, t.users[0].ID, &TransferRequest{GameID: t.game.ID, Amount: money(100), Description: "Multa"})
	s.Require().NoError(err)
	s.Require().NotNil(tx.ToParticipantID)
	s.Equal(beto.ID, *tx.ToParticipantID)

	s.assertMoney(1400, s.balance(ana.ID))
	s.assertMoney(1600, s.balance(beto.ID))

	// 注入在提交后异步进行
	s.svc.Injector.Wait()
	s.assertMoney(100, s.jackpot(t.game.ID))

	entries, err := s.svc.Ledger.JackpotHistory(s.ctx, t.game.ID, 10)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(models.JackpotInjection, entries[0].Kind)
	s.Equal(DescBankBonus, entries[0].Description)
}

func (s *ServiceTestSuite) TestElBancoHolderPaysNothing() {
	t := s.newTable("ana", "beto")
	ana := t.players[0]
	s.give(ana, models.DeckBoveda, "El Banco")

	tx, err := s.svc.Ledger.Transfer(s.ctx, t.users[0].ID, &TransferRequest{GameID: t.game.ID, Amount: money(80)})
	s.Require().NoError(err)
	s.True(tx.Amount.IsZero())
	s.Nil(tx.ToParticipantID)

	s.assertMoney(1500, s.balance(ana.ID))
	s.assertMoney(80, s.jackpot(t.game.ID))

	entries, err := s.svc.Ledger.JackpotHistory(s.ctx, t.game.ID, 10)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(models.JackpotOwnerPayment, entries[0].Kind)

	// 删除零金额流水不退还，奖池保留原金额
	s.Require().NoError(s.svc.Ledger.Delete(s.ctx, tx.ID))
	s.assertMoney(1500, s.balance(ana.ID))
	s.assertMoney(80, s.jackpot(t.game.ID))
}

func (s *ServiceTestSuite) TestDeleteReversesTransaction() {
	t := s.newTable("ana", "beto")
	ana, beto := t.players[0], t.players[1]
	to := beto.ID

	p2p, err := s.svc.Ledger.Transfer(s.ctx, t.users[0].ID, &TransferRequest{GameID: t.game.ID, ToParticipantID: &to, Amount: money(300)})
	s.Require().NoError(err)
	bank, err := s.svc.Ledger.Transfer(s.ctx, t.users[1].ID, &TransferRequest{GameID: t.game.ID, Amount: money(50)})
	s.Require().NoError(err)

	got, err := s.svc.Ledger.Get(s.ctx, p2p.ID)
	s.Require().NoError(err)
	s.Equal(t.game.ID, got.GameID)

	s.Require().NoError(s.svc.Ledger.Delete(s.ctx, p2p.ID))
	s.Require().NoError(s.svc.Ledger.Delete(s.ctx, bank.ID))

	_, err = s.svc.Ledger.Get(s.ctx, p2p.ID)
	s.assertCode(err, apperrors.ErrNotFound)

	s.assertMoney(1500, s.balance(ana.ID))
	s.assertMoney(1500, s.balance(beto.ID))
	s.assertMoney(0, s.jackpot(t.game.ID))
	s.Equal(2, s.events.Count(event.TransactionDeleted))

	// 不存在的流水视为成功
	s.NoError(s.svc.Ledger.Delete(s.ctx, bank.ID))
}

func (s *ServiceTestSuite) TestDeleteClampsJackpotAtZero() {
	t := s.newTable("ana", "beto")
	bank, err := s.svc.Ledger.Transfer(s.ctx, t.users[0].ID, &TransferRequest{GameID: t.game.ID, Amount: money(200)})
	s.Require().NoError(err)
	_, err = s.svc.Ledger.ClaimJackpot(s.ctx, t.game.ID, t.users[1].ID)
	s.Require().NoError(err)

	s.Require().NoError(s.svc.Ledger.Delete(s.ctx, bank.ID))
	s.assertMoney(1500, s.balance(t.players[0].ID))
	s.assertMoney(0, s.jackpot(t.game.ID))
}

func (s *ServiceTestSuite) TestDeleteAfterParticipantLeft() {
	t := s.newTable("ana", "beto", "caro")
	ana, caro := t.players[0], t.players[2]
	toAna, toCaro := ana.ID, caro.ID

	paid, err := s.svc.Ledger.Transfer(s.ctx, t.users[1].ID, &TransferRequest{GameID: t.game.ID, ToParticipantID: &toCaro, Amount: money(100)})
	s.Require().NoError(err)
	received, err := s.svc.Ledger.Transfer(s.ctx, t.users[0].ID, &TransferRequest{GameID: t.game.ID, ToParticipantID: &t.players[1].ID, Amount: money(40)})
	s.Require().NoError(err)
	bank, err := s.svc.Ledger.Transfer(s.ctx, t.users[1].ID, &TransferRequest{GameID: t.game.ID, Amount: money(30)})
	s.Require().NoError(err)
	kept, err := s.svc.Ledger.Transfer(s.ctx, t.users[2].ID, &TransferRequest{GameID: t.game.ID, ToParticipantID: &toAna, Amount: money(10)})
	s.Require().NoError(err)

	s.Require().NoError(s.svc.Game.Leave(s.ctx, t.game.ID, t.users[1].ID))
	s.events.Reset()

	// 离开者作为付款方：只回滚仍在局内的收款方
	s.Require().NoError(s.svc.Ledger.Delete(s.ctx, paid.ID))
	s.assertMoney(1490, s.balance(caro.ID))

	// 离开者作为收款方：付款方照常收回
	s.Require().NoError(s.svc.Ledger.Delete(s.ctx, received.ID))
	s.assertMoney(1510, s.balance(ana.ID))

	// 离开者付给银行：奖池照常扣回
	s.Require().NoError(s.svc.Ledger.Delete(s.ctx, bank.ID))
	s.assertMoney(0, s.jackpot(t.game.ID))

	s.Equal(3, s.events.Count(event.TransactionDeleted))
	rows, _, err := s.svc.Ledger.List(s.ctx, t.game.ID, 1, 20)
	s.Require().NoError(err)
	ids := make([]uint, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	s.Contains(ids, kept.ID)
	s.NotContains(ids, paid.ID)
	s.NotContains(ids, received.ID)
	s.NotContains(ids, bank.ID)
}

func (s *ServiceTestSuite) TestClaimJackpot() {
	t := s.newTable("ana", "beto")
	_, err := s.svc.Ledger.ClaimJackpot(s.ctx, t.game.ID, t.users[1].ID)
	s.assertCode(err, apperrors.ErrJackpotEmpty)

	_, err = s.svc.Ledger.Transfer(s.ctx, t.users[0].ID, &TransferRequest{GameID: t.game.ID, Amount: money(200)})
	s.Require().NoError(err)

	tx, err := s.svc.Ledger.ClaimJackpot(s.ctx, t.game.ID, t.users[1].ID)
	s.Require().NoError(err)
	s.Equal(DescJackpotWin, tx.Description)
	s.Nil(tx.FromParticipantID)
	s.assertMoney(200, tx.Amount)

	s.assertMoney(1700, s.balance(t.players[1].ID))
	s.assertMoney(0, s.jackpot(t.game.ID))

	_, err = s.svc.Ledger.ClaimJackpot(s.ctx, t.game.ID, t.users[1].ID)
	s.assertCode(err, apperrors.ErrJackpotEmpty)
}

func (s *ServiceTestSuite) TestFinishedGameRejectsLedger() {
	t := s.newTable("ana", "beto")
	status := models.GameStatusCancelled
	_, err := s.svc.Game.Update(s.ctx, t.game.ID, t.users[0].ID, &UpdateGameRequest{Status: &status})
	s.Require().NoError(err)

	_, err = s.svc.Ledger.Transfer(s.ctx, t.users[0].ID, &TransferRequest{GameID: t.game.ID, Amount: money(10)})
	s.assertCode(err, apperrors.ErrGameFinished)
}

package service

import (
	"strings"
	"time"

	apperrors "github.com/wfunc/monopoly-game/internal/errors"
	"github.com/wfunc/monopoly-game/internal/event"
	"github.com/wfunc/monopoly-game/internal/models"
	"github.com/wfunc/monopoly-game/internal/repository"
)

func (s *ServiceTestSuite) start(t *table) *models.GameSession {
	status := models.GameStatusActive
	g, err := s.svc.Game.Update(s.ctx, t.game.ID, t.users[0].ID, &UpdateGameRequest{Status: &status})
	s.Require().NoError(err)
	return g
}

func (s *ServiceTestSuite) TestCreateGame() {
	host := repository.CreateTestUser(s.T(), s.db, "ana")

	g, err := s.svc.Game.Create(s.ctx, host.ID, "   ")
	s.Require().NoError(err)
	s.Equal("New Monopoly Game", g.Name)
	s.Equal(models.GameStatusWaiting, g.Status)
	s.Len(g.Code, 4)
	for _, r := range g.Code {
		s.True(strings.ContainsRune(codeAlphabet, r))
	}
	s.Empty(g.Order())

	players, err := s.svc.Game.Participants(s.ctx, g.ID)
	s.Require().NoError(err)
	s.Require().Len(players, 1)
	s.Equal(host.ID, players[0].UserID)

	_, err = s.svc.Game.Create(s.ctx, 9999, "Fantasma")
	s.assertCode(err, apperrors.ErrNotFound)
}

func (s *ServiceTestSuite) TestJoinWithCode() {
	t := s.newTable("ana")
	caro := repository.CreateTestUser(s.T(), s.db, "caro")

	p, err := s.svc.Game.JoinWithCode(s.ctx, " "+strings.ToLower(t.game.Code)+" ", caro.ID)
	s.Require().NoError(err)
	s.Equal(t.game.ID, p.GameID)
	s.assertMoney(1500, p.Balance)
	s.Equal(1, s.events.Count(event.ParticipantUpdated))

	_, err = s.svc.Game.JoinWithCode(s.ctx, t.game.Code, caro.ID)
	s.assertCode(err, apperrors.ErrAlreadyParticipant)

	_, err = s.svc.Game.JoinWithCode(s.ctx, "ZZZZZ", caro.ID)
	s.assertCode(err, apperrors.ErrNotFound)
	_, err = s.svc.Game.JoinWithCode(s.ctx, "  ", caro.ID)
	s.assertCode(err, apperrors.ErrInvalidParam)
}

func (s *ServiceTestSuite) TestStartGameSetsTurnOrder() {
	t := s.newTable("ana", "beto", "caro")

	// 只有房主可以开局
	status := models.GameStatusActive
	_, err := s.svc.Game.Update(s.ctx, t.game.ID, t.users[1].ID, &UpdateGameRequest{Status: &status})
	s.assertCode(err, apperrors.ErrNotHost)

	g := s.start(t)
	s.Equal(models.GameStatusActive, g.Status)
	s.NotNil(g.StartedAt)
	order := g.Order()
	s.Len(order, 3)
	s.ElementsMatch([]uint{t.users[0].ID, t.users[1].ID, t.users[2].ID}, order)
	s.Require().NotNil(g.CurrentTurnUserID)
	s.Equal(order[0], *g.CurrentTurnUserID)
	s.Equal(1, s.events.Count(event.TurnUpdated))

	evts := s.events.Events()
	var payload TurnPayload
	for _, e := range evts {
		if e.Type == event.TurnUpdated {
			payload = e.Data.(TurnPayload)
		}
	}
	s.Len(payload.Initiative, 3)
	for _, roll := range payload.Initiative {
		s.GreaterOrEqual(roll.Roll, 2)
		s.LessOrEqual(roll.Roll, 12)
	}

	late := repository.CreateTestUser(s.T(), s.db, "dani")
	_, err = s.svc.Game.Join(s.ctx, t.game.ID, late.ID)
	s.assertCode(err, apperrors.ErrGameAlreadyStarted)

	// 状态不能回退
	waiting := models.GameStatusWaiting
	_, err = s.svc.Game.Update(s.ctx, t.game.ID, t.users[0].ID, &UpdateGameRequest{Status: &waiting})
	s.assertCode(err, apperrors.ErrGameStateError)
}

func (s *ServiceTestSuite) TestEndTurnRotates() {
	t := s.newTable("ana", "beto")

	_, err := s.svc.Game.EndTurn(s.ctx, t.game.ID, t.users[0].ID)
	s.assertCode(err, apperrors.ErrGameNotActive)

	g := s.start(t)
	order := g.Order()
	first, second := order[0], order[1]

	_, err = s.svc.Game.EndTurn(s.ctx, t.game.ID, second)
	s.assertCode(err, apperrors.ErrNotYourTurn)

	g, err = s.svc.Game.EndTurn(s.ctx, t.game.ID, first)
	s.Require().NoError(err)
	s.Equal(second, *g.CurrentTurnUserID)

	g, err = s.svc.Game.EndTurn(s.ctx, t.game.ID, second)
	s.Require().NoError(err)
	s.Equal(first, *g.CurrentTurnUserID)
}

func (s *ServiceTestSuite) TestLeaveGame() {
	t := s.newTable("ana", "beto", "caro")
	beto := t.players[1]
	s.give(beto, models.DeckBoveda, "Propulsor")
	prop := s.own(beto, "Avenida Kentucky")
	s.start(t)

	err := s.svc.Game.Leave(s.ctx, t.game.ID, t.users[0].ID)
	s.assertCode(err, apperrors.ErrPermissionDenied)

	s.Require().NoError(s.svc.Game.Leave(s.ctx, t.game.ID, t.users[1].ID))

	players, err := s.svc.Game.Participants(s.ctx, t.game.ID)
	s.Require().NoError(err)
	s.Len(players, 2)
	s.Empty(s.inventory(beto))
	s.Nil(s.ownerOf(t.game.ID, prop.ID))

	g, err := s.svc.Game.Get(s.ctx, t.game.ID)
	s.Require().NoError(err)
	s.NotContains(g.Order(), t.users[1].ID)
	s.Len(g.Order(), 2)
	s.Require().NotNil(g.CurrentTurnUserID)
	s.NotEqual(t.users[1].ID, *g.CurrentTurnUserID)

	err = s.svc.Game.Leave(s.ctx, t.game.ID, t.users[1].ID)
	s.assertCode(err, apperrors.ErrNotParticipant)
}

func (s *ServiceTestSuite) TestRenameAndFinish() {
	t := s.newTable("ana")

	blank := "  "
	_, err := s.svc.Game.Update(s.ctx, t.game.ID, t.users[0].ID, &UpdateGameRequest{Name: &blank})
	s.assertCode(err, apperrors.ErrInvalidParam)

	name := "Noche de juegos"
	g, err := s.svc.Game.Update(s.ctx, t.game.ID, t.users[0].ID, &UpdateGameRequest{Name: &name})
	s.Require().NoError(err)
	s.Equal(name, g.Name)

	s.start(t)
	finished := models.GameStatusFinished
	g, err = s.svc.Game.Update(s.ctx, t.game.ID, t.users[0].ID, &UpdateGameRequest{Status: &finished})
	s.Require().NoError(err)
	s.Equal(models.GameStatusFinished, g.Status)
	s.NotNil(g.FinishedAt)

	_, err = s.svc.Game.Update(s.ctx, t.game.ID, t.users[0].ID, &UpdateGameRequest{Name: &name})
	s.assertCode(err, apperrors.ErrGameFinished)
}

func (s *ServiceTestSuite) TestDeleteGame() {
	t := s.newTable("ana", "beto")
	s.give(t.players[1], models.DeckBoveda, "Propulsor")
	_, err := s.svc.Ledger.Transfer(s.ctx, t.users[1].ID, &TransferRequest{GameID: t.game.ID, Amount: money(20)})
	s.Require().NoError(err)

	err = s.svc.Game.Delete(s.ctx, t.game.ID, t.users[1].ID)
	s.assertCode(err, apperrors.ErrNotHost)

	s.Require().NoError(s.svc.Game.Delete(s.ctx, t.game.ID, t.users[0].ID))
	_, err = s.svc.Game.Get(s.ctx, t.game.ID)
	s.assertCode(err, apperrors.ErrNotFound)

	var count int64
	s.Require().NoError(s.db.Model(&models.Participant{}).Where("game_id = ?", t.game.ID).Count(&count).Error)
	s.Zero(count)
	s.Require().NoError(s.db.Model(&models.Transaction{}).Where("game_id = ?", t.game.ID).Count(&count).Error)
	s.Zero(count)
}

func (s *ServiceTestSuite) TestUpdatePosition() {
	t := s.newTable("ana")

	p, err := s.svc.Game.UpdatePosition(s.ctx, t.game.ID, t.users[0].ID, 39)
	s.Require().NoError(err)
	s.Equal(39, p.Position)

	_, err = s.svc.Game.UpdatePosition(s.ctx, t.game.ID, t.users[0].ID, 40)
	s.assertCode(err, apperrors.ErrInvalidParam)
	_, err = s.svc.Game.UpdatePosition(s.ctx, t.game.ID, t.users[0].ID, -1)
	s.assertCode(err, apperrors.ErrInvalidParam)
}

func (s *ServiceTestSuite) TestHostedAndPlayed() {
	t := s.newTable("ana", "beto")

	hosted, err := s.svc.Game.Hosted(s.ctx, t.users[0].ID)
	s.Require().NoError(err)
	s.Len(hosted, 1)
	hosted, err = s.svc.Game.Hosted(s.ctx, t.users[1].ID)
	s.Require().NoError(err)
	s.Empty(hosted)

	played, err := s.svc.Game.Played(s.ctx, t.users[1].ID)
	s.Require().NoError(err)
	s.Require().Len(played, 1)
	s.Equal(t.game.ID, played[0].ID)
}

func (s *ServiceTestSuite) TestSweepStaleLobbies() {
	stale := s.newTable("ana")
	fresh := s.newTable("beto")
	running := s.newTable("caro")
	s.start(running)

	old := time.Now().Add(-48 * time.Hour)
	s.Require().NoError(s.db.Model(&models.GameSession{}).
		Where("id IN ?", []uint{stale.game.ID, running.game.ID}).
		Update("created_at", old).Error)

	n, err := s.svc.Game.SweepStaleLobbies(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, n)

	g, err := s.svc.Game.Get(s.ctx, stale.game.ID)
	s.Require().NoError(err)
	s.Equal(models.GameStatusCancelled, g.Status)

	g, err = s.svc.Game.Get(s.ctx, fresh.game.ID)
	s.Require().NoError(err)
	s.Equal(models.GameStatusWaiting, g.Status)

	n, err = s.svc.Game.SweepStaleLobbies(s.ctx)
	s.Require().NoError(err)
	s.Zero(n)
}

func (s *ServiceTestSuite) TestDiceRollAndHistory() {
	t := s.newTable("ana", "beto")

	roll, err := s.svc.Dice.Roll(s.ctx, t.game.ID, t.users[0].ID, 0, 0)
	s.Require().NoError(err)
	s.Equal(6, roll.Sides)
	faces := roll.Faces()
	s.Len(faces, 2)
	sum := 0
	for _, f := range faces {
		s.GreaterOrEqual(f, 1)
		s.LessOrEqual(f, 6)
		sum += f
	}
	s.Equal(sum, roll.Total)
	s.Equal(faces[0] == faces[1], roll.IsDouble)
	s.Equal(1, s.events.Count(event.DiceRolled))

	_, err = s.svc.Dice.Roll(s.ctx, t.game.ID, t.users[1].ID, 20, 3)
	s.Require().NoError(err)

	_, err = s.svc.Dice.Roll(s.ctx, t.game.ID, t.users[0].ID, 1, 2)
	s.assertCode(err, apperrors.ErrInvalidParam)
	_, err = s.svc.Dice.Roll(s.ctx, t.game.ID, t.users[0].ID, 6, 11)
	s.assertCode(err, apperrors.ErrInvalidParam)

	history, err := s.svc.Dice.History(s.ctx, t.game.ID)
	s.Require().NoError(err)
	s.Len(history, 2)
}

func (s *ServiceTestSuite) TestRouletteSpinAndHistory() {
	t := s.newTable("ana", "beto")
	outsider := repository.CreateTestUser(s.T(), s.db, "carla")

	spin, err := s.svc.Dice.RecordSpin(s.ctx, t.game.ID, t.users[1].ID, &SpinRequest{ResultLabel: " x2 ", ResultValue: 2, ResultType: "GREEN"})
	s.Require().NoError(err)
	s.Equal("x2", spin.ResultLabel)
	s.Equal(models.RouletteGreen, spin.ResultType)
	s.Equal(t.users[1].ID, spin.UserID)
	s.Equal(1, s.events.Count(event.RouletteSpun))

	_, err = s.svc.Dice.RecordSpin(s.ctx, t.game.ID, t.users[0].ID, &SpinRequest{ResultLabel: "100", ResultValue: 100, ResultType: "red"})
	s.Require().NoError(err)

	_, err = s.svc.Dice.RecordSpin(s.ctx, t.game.ID, t.users[0].ID, &SpinRequest{ResultLabel: "100", ResultType: "black"})
	s.assertCode(err, apperrors.ErrInvalidParam)
	_, err = s.svc.Dice.RecordSpin(s.ctx, t.game.ID, t.users[0].ID, &SpinRequest{ResultLabel: "  ", ResultType: "red"})
	s.assertCode(err, apperrors.ErrInvalidParam)
	_, err = s.svc.Dice.RecordSpin(s.ctx, t.game.ID, outsider.ID, &SpinRequest{ResultLabel: "5", ResultType: "red"})
	s.assertCode(err, apperrors.ErrNotParticipant)

	// 离开的玩家的记录仍保留在历史中
	s.Require().NoError(s.svc.Game.Leave(s.ctx, t.game.ID, t.users[1].ID))
	history, err := s.svc.Dice.SpinHistory(s.ctx, t.game.ID)
	s.Require().NoError(err)
	s.Require().Len(history, 2)
	s.Equal("100", history[0].ResultLabel)
	s.Equal(spin.ID, history[1].ID)
	s.Require().NotNil(history[1].User)
	s.Equal("beto", history[1].User.Username)
}

func (s *ServiceTestSuite) TestSpecialDiceRollAndHistory() {
	t := s.newTable("ana")
	value := 3
	action := "move"

	roll, err := s.svc.Dice.RecordSpecialRoll(s.ctx, t.game.ID, t.users[0].ID, &SpecialRollRequest{
		DieName:    "Dado de Movimiento",
		DieID:      "movimiento",
		FaceLabel:  "Avanza 3",
		FaceValue:  &value,
		FaceAction: &action,
	})
	s.Require().NoError(err)
	s.Require().NotNil(roll.FaceValue)
	s.Equal(3, *roll.FaceValue)
	s.Equal(1, s.events.Count(event.SpecialDiceRolled))

	_, err = s.svc.Dice.RecordSpecialRoll(s.ctx, t.game.ID, t.users[0].ID, &SpecialRollRequest{DieName: "Dado de Compra", DieID: "compra", FaceLabel: "Nada"})
	s.Require().NoError(err)

	_, err = s.svc.Dice.RecordSpecialRoll(s.ctx, t.game.ID, t.users[0].ID, &SpecialRollRequest{DieName: "Dado", FaceLabel: "x"})
	s.assertCode(err, apperrors.ErrInvalidParam)

	history, err := s.svc.Dice.SpecialHistory(s.ctx, t.game.ID)
	s.Require().NoError(err)
	s.Require().Len(history, 2)
	s.Equal("compra", history[0].DieID)
	s.Nil(history[0].FaceValue)
	s.Equal("Avanza 3", history[1].FaceLabel)
	s.Require().NotNil(history[1].FaceAction)
	s.Equal("move", *history[1].FaceAction)
}

package service

import (
	"context"
	"strings"

	apperrors "github.com/wfunc/monopoly-game/internal/errors"
	"github.com/wfunc/monopoly-game/internal/event"
	"github.com/wfunc/monopoly-game/internal/game"
	"github.com/wfunc/monopoly-game/internal/models"
)

// 默认骰子参数
const (
	defaultDiceSides = 6
	defaultDiceCount = 2
	diceHistoryLimit = 50
)

// diceService 掷骰服务实现，结果只记录与广播
type diceService struct {
	*core
}

// Roll 掷骰，sides/count 为0时使用两个六面骰
func (s *diceService) Roll(ctx context.Context, gameID, userID uint, sides, count int) (*models.DiceRoll, error) {
	if sides == 0 {
		sides = defaultDiceSides
	}
	if count == 0 {
		count = defaultDiceCount
	}
	if err := game.ValidateDice(sides, count); err != nil {
		return nil, err
	}

	var result *models.DiceRoll
	err := s.run(ctx, func(u *unit) error {
		g, err := s.lockMutableGame(u, gameID)
		if err != nil {
			return err
		}
		p, err := s.participant(u, g.ID, userID)
		if err != nil {
			return err
		}

		roll := &models.DiceRoll{GameID: g.ID, ParticipantID: p.ID, Sides: sides}
		roll.SetValues(game.Roll(s.dice, sides, count))
		if err := u.tx.Dice().Create(u.ctx, roll); err != nil {
			return err
		}
		result = roll
		u.emit(event.DiceRolled, g.ID, roll)
		return nil
	})
	return result, err
}

// History 最近的掷骰记录
func (s *diceService) History(ctx context.Context, gameID uint) ([]*models.DiceRoll, error) {
	return s.repos.Dice().FindByGame(ctx, gameID, diceHistoryLimit)
}

// RecordSpin 玩家上报轮盘结果
func (s *diceService) RecordSpin(ctx context.Context, gameID, userID uint, req *SpinRequest) (*models.RouletteSpin, error) {
	spin := &models.RouletteSpin{
		ResultLabel: strings.TrimSpace(req.ResultLabel),
		ResultValue: req.ResultValue,
		ResultType:  strings.ToLower(strings.TrimSpace(req.ResultType)),
	}
	if spin.ResultLabel == "" {
		return nil, apperrors.New(apperrors.ErrInvalidParam, "轮盘结果不能为空")
	}
	if spin.ResultType != models.RouletteRed && spin.ResultType != models.RouletteGreen {
		return nil, apperrors.Newf(apperrors.ErrInvalidParam, "未知的轮盘颜色: %s", req.ResultType)
	}

	err := s.run(ctx, func(u *unit) error {
		g, err := s.lockMutableGame(u, gameID)
		if err != nil {
			return err
		}
		if _, err := s.participant(u, g.ID, userID); err != nil {
			return err
		}
		spin.GameID = g.ID
		spin.UserID = userID
		if err := u.tx.Dice().CreateSpin(u.ctx, spin); err != nil {
			return err
		}
		u.emit(event.RouletteSpun, g.ID, spin)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return spin, nil
}

// SpinHistory 最近的轮盘结果
func (s *diceService) SpinHistory(ctx context.Context, gameID uint) ([]*models.RouletteSpin, error) {
	return s.repos.Dice().FindSpins(ctx, gameID, diceHistoryLimit)
}

// RecordSpecialRoll 玩家上报特殊骰子结果
func (s *diceService) RecordSpecialRoll(ctx context.Context, gameID, userID uint, req *SpecialRollRequest) (*models.SpecialDiceRoll, error) {
	roll := &models.SpecialDiceRoll{
		DieName:    strings.TrimSpace(req.DieName),
		DieID:      strings.TrimSpace(req.DieID),
		FaceLabel:  strings.TrimSpace(req.FaceLabel),
		FaceValue:  req.FaceValue,
		FaceAction: req.FaceAction,
	}
	if roll.DieName == "" || roll.DieID == "" || roll.FaceLabel == "" {
		return nil, apperrors.New(apperrors.ErrInvalidParam, "骰子名称、编号和点数标签不能为空")
	}

	err := s.run(ctx, func(u *unit) error {
		g, err := s.lockMutableGame(u, gameID)
		if err != nil {
			return err
		}
		if _, err := s.participant(u, g.ID, userID); err != nil {
			return err
		}
		roll.GameID = g.ID
		roll.UserID = userID
		if err := u.tx.Dice().CreateSpecial(u.ctx, roll); err != nil {
			return err
		}
		u.emit(event.SpecialDiceRolled, g.ID, roll)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return roll, nil
}

// SpecialHistory 最近的特殊骰子结果
func (s *diceService) SpecialHistory(ctx context.Context, gameID uint) ([]*models.SpecialDiceRoll, error) {
	return s.repos.Dice().FindSpecial(ctx, gameID, diceHistoryLimit)
}

package service

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	apperrors "github.com/wfunc/monopoly-game/internal/errors"
	"github.com/wfunc/monopoly-game/internal/event"
	"github.com/wfunc/monopoly-game/internal/game"
	"github.com/wfunc/monopoly-game/internal/models"
	"go.uber.org/zap"
)

// 房间码字符集
const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// 棋盘格数
const boardSize = 40

// gameService 游戏会话服务实现
type gameService struct {
	*core
}

// Create 创建游戏，房主自动加入
func (s *gameService) Create(ctx context.Context, hostUserID uint, name string) (*models.GameSession, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = s.cfg.DefaultGameName
	}

	var result *models.GameSession
	err := s.run(ctx, func(u *unit) error {
		if _, err := u.tx.User().FindByID(u.ctx, hostUserID); err != nil {
			return err
		}
		code, err := s.newCode(u)
		if err != nil {
			return err
		}

		g := &models.GameSession{
			Code:           code,
			HostUserID:     hostUserID,
			Name:           name,
			Status:         models.GameStatusWaiting,
			JackpotBalance: decimal.Zero,
		}
		g.SetOrder(nil)
		if err := u.tx.GameSession().Create(u.ctx, g); err != nil {
			return err
		}
		if _, err := s.join(u, g, hostUserID); err != nil {
			return err
		}
		result = g
		u.emit(event.GameUpdated, g.ID, g)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("游戏已创建",
		zap.Uint("game_id", result.ID),
		zap.String("code", result.Code),
		zap.Uint("host_user_id", hostUserID))
	return result, nil
}

// newCode 生成未被占用的房间码
func (s *gameService) newCode(u *unit) (string, error) {
	buf := make([]byte, s.cfg.JoinCodeLength)
	for attempt := 0; attempt < s.cfg.JoinCodeRetries; attempt++ {
		for i := range buf {
			buf[i] = codeAlphabet[s.dice.Intn(len(codeAlphabet))]
		}
		code := string(buf)
		exists, err := u.tx.GameSession().CodeExists(u.ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", apperrors.Newf(apperrors.ErrCodeCollision, "尝试 %d 次后仍未生成可用房间码", s.cfg.JoinCodeRetries)
}

// join 加入等待中的游戏并从银行领取初始资金
func (s *gameService) join(u *unit, g *models.GameSession, userID uint) (*models.Participant, error) {
	if err := game.EnsureWaiting(g.Status); err != nil {
		return nil, err
	}
	_, err := u.tx.Participant().FindByGameAndUser(u.ctx, g.ID, userID)
	if err == nil {
		return nil, apperrors.New(apperrors.ErrAlreadyParticipant)
	}
	if !apperrors.Is(err, apperrors.ErrNotParticipant) {
		return nil, err
	}

	p := &models.Participant{GameID: g.ID, UserID: userID, Balance: decimal.Zero}
	if err := u.tx.Participant().Create(u.ctx, p); err != nil {
		return nil, err
	}
	if s.cfg.StartingBalance.IsPositive() {
		if _, err := s.move(u, g, transfer{
			To:          uintPtr(p.ID),
			Amount:      s.cfg.StartingBalance,
			Description: DescInitialFunding,
		}); err != nil {
			return nil, err
		}
		p.Balance = s.cfg.StartingBalance
	}
	u.emit(event.ParticipantUpdated, g.ID, p)
	return p, nil
}

// Join 按游戏ID加入
func (s *gameService) Join(ctx context.Context, gameID, userID uint) (*models.Participant, error) {
	var result *models.Participant
	err := s.run(ctx, func(u *unit) error {
		g, err := s.lockGame(u, gameID)
		if err != nil {
			return err
		}
		result, err = s.join(u, g, userID)
		return err
	})
	return result, err
}

// JoinWithCode 按房间码加入，房间码不区分大小写
func (s *gameService) JoinWithCode(ctx context.Context, code string, userID uint) (*models.Participant, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, apperrors.New(apperrors.ErrInvalidParam, "房间码不能为空")
	}
	g, err := s.repos.GameSession().FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.Join(ctx, g.ID, userID)
}

// Leave 玩家离开游戏，清理手牌、地产、出价与待处理交易
func (s *gameService) Leave(ctx context.Context, gameID, userID uint) error {
	return s.run(ctx, func(u *unit) error {
		g, err := s.lockMutableGame(u, gameID)
		if err != nil {
			return err
		}
		if g.IsHost(userID) {
			return apperrors.New(apperrors.ErrPermissionDenied, "房主不能离开游戏，请删除游戏")
		}
		p, err := s.participant(u, g.ID, userID)
		if err != nil {
			return err
		}

		if err := u.tx.Card().RemoveInventoryByParticipant(u.ctx, p.ID); err != nil {
			return err
		}
		if err := u.tx.Property().DeleteOwnershipsByParticipant(u.ctx, p.ID); err != nil {
			return err
		}

		auction, err := u.tx.Auction().FindActiveByGame(u.ctx, g.ID)
		if err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		if auction != nil && auction.HighestBidderID != nil && *auction.HighestBidderID == p.ID {
			auction.HighestBidderID = nil
			auction.CurrentBid = s.cfg.AuctionFloor
			if err := u.tx.Auction().Save(u.ctx, auction); err != nil {
				return err
			}
			u.emit(event.AuctionUpdated, g.ID, auction)
		}

		pending, err := u.tx.Trade().FindByGame(u.ctx, g.ID, models.TradePending)
		if err != nil {
			return err
		}
		for _, t := range pending {
			if t.InitiatorID != p.ID && t.TargetID != p.ID {
				continue
			}
			if err := u.tx.Trade().UpdateStatus(u.ctx, t.ID, models.TradeRejected); err != nil {
				return err
			}
			t.Status = models.TradeRejected
			u.emit(event.TradeUpdated, g.ID, t)
		}

		if err := u.tx.Participant().Delete(u.ctx, p.ID); err != nil {
			return err
		}

		order, current := game.RemoveFromOrder(g.Order(), g.CurrentTurnUserID, userID)
		g.SetOrder(order)
		g.CurrentTurnUserID = current
		if err := u.tx.GameSession().Update(u.ctx, g); err != nil {
			return err
		}

		u.emit(event.ParticipantUpdated, g.ID, ParticipantLeft{ParticipantID: p.ID, UserID: userID, Left: true})
		u.emit(event.TurnUpdated, g.ID, turnPayload(g, nil))
		return nil
	})
}

// Delete 房主删除游戏及其全部数据
func (s *gameService) Delete(ctx context.Context, gameID, userID uint) error {
	err := s.run(ctx, func(u *unit) error {
		g, err := s.lockGame(u, gameID)
		if err != nil {
			return err
		}
		if !g.IsHost(userID) {
			return apperrors.New(apperrors.ErrNotHost)
		}
		if err := u.tx.GameSession().DeleteCascade(u.ctx, g.ID); err != nil {
			return err
		}
		u.emit(event.GameUpdated, g.ID, map[string]interface{}{"id": g.ID, "deleted": true})
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("游戏已删除", zap.Uint("game_id", gameID), zap.Uint("user_id", userID))
	return nil
}

// Update 房主修改名称或推进状态
func (s *gameService) Update(ctx context.Context, gameID, userID uint, req *UpdateGameRequest) (*models.GameSession, error) {
	var result *models.GameSession
	err := s.run(ctx, func(u *unit) error {
		g, err := s.lockMutableGame(u, gameID)
		if err != nil {
			return err
		}
		if !g.IsHost(userID) {
			return apperrors.New(apperrors.ErrNotHost)
		}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return apperrors.New(apperrors.ErrInvalidParam, "游戏名称不能为空")
			}
			g.Name = name
		}

		var initiative []game.Initiative
		if req.Status != nil && *req.Status != g.Status {
			evt, err := game.Transition(g.Status, *req.Status)
			if err != nil {
				return err
			}
			if initiative, err = s.apply(u, g, evt); err != nil {
				return err
			}
		}

		if err := u.tx.GameSession().Update(u.ctx, g); err != nil {
			return err
		}
		if initiative != nil {
			u.emit(event.TurnUpdated, g.ID, turnPayload(g, initiative))
		}
		u.emit(event.GameUpdated, g.ID, g)
		result = g
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("游戏已更新",
		zap.Uint("game_id", result.ID),
		zap.String("status", string(result.Status)))
	return result, nil
}

// apply 执行状态事件的副作用，开局时返回先手点数
func (s *gameService) apply(u *unit, g *models.GameSession, evt game.Event) ([]game.Initiative, error) {
	next, err := game.Fire(g.Status, evt)
	if err != nil {
		return nil, err
	}

	var initiative []game.Initiative
	now := time.Now()
	switch evt {
	case game.EventStart:
		players, err := u.tx.Participant().FindByGame(u.ctx, g.ID)
		if err != nil {
			return nil, err
		}
		if len(players) == 0 {
			return nil, apperrors.New(apperrors.ErrGameStateError, "没有玩家无法开始游戏")
		}
		userIDs := make([]uint, len(players))
		for i, p := range players {
			userIDs[i] = p.UserID
		}
		initiative = game.RollInitiative(s.dice, userIDs)
		order := game.TurnOrder(initiative)
		g.SetOrder(order)
		g.CurrentTurnUserID = uintPtr(order[0])
		g.StartedAt = &now
	case game.EventFinish, game.EventCancel:
		g.FinishedAt = &now
	}

	s.log.Info("游戏状态变更",
		zap.Uint("game_id", g.ID),
		zap.String("from", string(g.Status)),
		zap.String("to", string(next)),
		zap.String("event", string(evt)))
	g.Status = next
	return initiative, nil
}

// EndTurn 当前玩家结束回合
func (s *gameService) EndTurn(ctx context.Context, gameID, userID uint) (*models.GameSession, error) {
	var result *models.GameSession
	err := s.run(ctx, func(u *unit) error {
		g, err := s.lockGame(u, gameID)
		if err != nil {
			return err
		}
		if err := game.EnsureActive(g.Status); err != nil {
			return err
		}
		if g.CurrentTurnUserID == nil || *g.CurrentTurnUserID != userID {
			return apperrors.New(apperrors.ErrNotYourTurn)
		}
		next, err := game.NextTurn(g.Order(), userID)
		if err != nil {
			return err
		}
		g.CurrentTurnUserID = uintPtr(next)
		if err := u.tx.GameSession().Update(u.ctx, g); err != nil {
			return err
		}
		u.emit(event.TurnUpdated, g.ID, turnPayload(g, nil))
		result = g
		return nil
	})
	return result, err
}

// UpdatePosition 玩家自行更新棋盘位置
func (s *gameService) UpdatePosition(ctx context.Context, gameID, userID uint, position int) (*models.Participant, error) {
	if position < 0 || position >= boardSize {
		return nil, apperrors.Newf(apperrors.ErrInvalidParam, "位置需在 0-%d 之间", boardSize-1)
	}
	var result *models.Participant
	err := s.run(ctx, func(u *unit) error {
		g, err := s.lockMutableGame(u, gameID)
		if err != nil {
			return err
		}
		p, err := s.participant(u, g.ID, userID)
		if err != nil {
			return err
		}
		if err := u.tx.Participant().UpdatePosition(u.ctx, p.ID, position); err != nil {
			return err
		}
		p.Position = position
		result = p
		u.emit(event.ParticipantUpdated, g.ID, p)
		return nil
	})
	return result, err
}

// Get 查询游戏
func (s *gameService) Get(ctx context.Context, gameID uint) (*models.GameSession, error) {
	return s.repos.GameSession().FindByID(ctx, gameID)
}

// Participants 按加入顺序列出玩家
func (s *gameService) Participants(ctx context.Context, gameID uint) ([]*models.Participant, error) {
	if _, err := s.repos.GameSession().FindByID(ctx, gameID); err != nil {
		return nil, err
	}
	return s.repos.Participant().FindByGame(ctx, gameID)
}

// Hosted 用户创建的游戏
func (s *gameService) Hosted(ctx context.Context, userID uint) ([]*models.GameSession, error) {
	return s.repos.GameSession().FindByHost(ctx, userID)
}

// Played 用户参与的游戏
func (s *gameService) Played(ctx context.Context, userID uint) ([]*models.GameSession, error) {
	return s.repos.GameSession().FindByPlayer(ctx, userID)
}

// SweepStaleLobbies 取消长期未开始的游戏，返回取消数量
func (s *gameService) SweepStaleLobbies(ctx context.Context) (int, error) {
	stale, err := s.repos.GameSession().FindStaleWaiting(ctx, time.Now().Add(-s.cfg.LobbyTTL))
	if err != nil {
		return 0, err
	}

	cancelled := 0
	for _, candidate := range stale {
		changed := false
		err := s.run(ctx, func(u *unit) error {
			changed = false
			g, err := s.lockGame(u, candidate.ID)
			if err != nil {
				return err
			}
			// 加锁后状态可能已变化
			if g.Status != models.GameStatusWaiting {
				return nil
			}
			if _, err := s.apply(u, g, game.EventCancel); err != nil {
				return err
			}
			if err := u.tx.GameSession().Update(u.ctx, g); err != nil {
				return err
			}
			u.emit(event.GameUpdated, g.ID, g)
			changed = true
			return nil
		})
		if err != nil {
			s.log.Warn("取消过期游戏失败", zap.Uint("game_id", candidate.ID), zap.Error(err))
			continue
		}
		if changed {
			cancelled++
		}
	}
	return cancelled, nil
}

func turnPayload(g *models.GameSession, initiative []game.Initiative) TurnPayload {
	return TurnPayload{
		GameID:            g.ID,
		CurrentTurnUserID: g.CurrentTurnUserID,
		TurnOrder:         g.Order(),
		Initiative:        initiative,
	}
}

package service

import (
	"context"

	"github.com/shopspring/decimal"
	apperrors "github.com/wfunc/monopoly-game/internal/errors"
	"github.com/wfunc/monopoly-game/internal/event"
	"github.com/wfunc/monopoly-game/internal/game"
	"github.com/wfunc/monopoly-game/internal/models"
	"github.com/wfunc/monopoly-game/internal/repository"
	"go.uber.org/zap"
)

// core 各领域服务共享的依赖
type core struct {
	repos     *repository.Manager
	publisher event.Publisher
	injector  *JackpotInjector
	dice      game.Roller
	cfg       *Config
	log       *zap.Logger
}

// unit 一次事务内的上下文，事件与奖池注入在提交后才发出
type unit struct {
	ctx        context.Context
	tx         *repository.Transaction
	events     []event.Event
	injections []JackpotInjection
}

func (u *unit) emit(t event.Type, gameID uint, data interface{}) {
	u.events = append(u.events, event.New(t, gameID, data))
}

func (u *unit) inject(inj JackpotInjection) {
	u.injections = append(u.injections, inj)
}

// run 在事务中执行 fn，冲突时整体重试一次；提交成功后发布事件
func (c *core) run(ctx context.Context, fn func(u *unit) error) error {
	var done *unit
	err := c.repos.NewUnitOfWork().ExecuteWithRetry(ctx, func(tx *repository.Transaction) error {
		u := &unit{ctx: tx.Context(), tx: tx}
		if err := fn(u); err != nil {
			return err
		}
		done = u
		return nil
	})
	if err != nil {
		return err
	}
	c.flush(ctx, done)
	return nil
}

func (c *core) flush(ctx context.Context, u *unit) {
	for _, inj := range u.injections {
		c.injector.Enqueue(inj)
	}
	for _, evt := range u.events {
		if err := c.publisher.Publish(ctx, evt); err != nil {
			c.log.Warn("事件发布失败",
				zap.String("type", string(evt.Type)),
				zap.Uint("game_id", evt.GameID),
				zap.Error(err))
		}
		c.log.Debug("事件已发布", zap.String("type", string(evt.Type)), zap.Uint("game_id", evt.GameID))
	}
}

// lockGame 锁定游戏行，所有修改游戏状态的操作都先获取该锁
func (c *core) lockGame(u *unit, gameID uint) (*models.GameSession, error) {
	return u.tx.GameSession().LockByID(u.ctx, gameID)
}

// lockMutableGame 锁定游戏并拒绝已结束的游戏
func (c *core) lockMutableGame(u *unit, gameID uint) (*models.GameSession, error) {
	g, err := c.lockGame(u, gameID)
	if err != nil {
		return nil, err
	}
	if err := game.EnsureMutable(g.Status); err != nil {
		return nil, err
	}
	return g, nil
}

// participant 根据 (game, user) 解析调用者的玩家记录
func (c *core) participant(u *unit, gameID, userID uint) (*models.Participant, error) {
	return u.tx.Participant().FindByGameAndUser(u.ctx, gameID, userID)
}

// member 校验玩家属于该游戏
func (c *core) member(u *unit, gameID, participantID uint) (*models.Participant, error) {
	p, err := u.tx.Participant().FindByID(u.ctx, participantID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.New(apperrors.ErrNotParticipant, "目标玩家不存在")
		}
		return nil, err
	}
	if p.GameID != gameID {
		return nil, apperrors.New(apperrors.ErrNotParticipant, "目标玩家不在该游戏中")
	}
	return p, nil
}

func uintPtr(v uint) *uint {
	return &v
}

func decimalFromInt(v int) decimal.Decimal {
	return decimal.NewFromInt(int64(v))
}

package service

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wfunc/monopoly-game/internal/event"
	"github.com/wfunc/monopoly-game/internal/models"
	"github.com/wfunc/monopoly-game/internal/repository"
	"go.uber.org/zap"
)

const injectTimeout = 5 * time.Second

// JackpotInjection 转账提交后异步计入奖池的金额
type JackpotInjection struct {
	GameID        uint
	ParticipantID uint // 触发注入的银行持有者
	Amount        decimal.Decimal
	Description   string
}

// JackpotInjector 后台顺序处理奖池注入，失败只记录日志，不影响原转账
type JackpotInjector struct {
	repos     *repository.Manager
	publisher event.Publisher
	log       *zap.Logger

	queue   chan JackpotInjection
	pending sync.WaitGroup
	done    sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewJackpotInjector 创建并启动注入器
func NewJackpotInjector(repos *repository.Manager, publisher event.Publisher, log *zap.Logger, buffer int) *JackpotInjector {
	if buffer <= 0 {
		buffer = 256
	}
	j := &JackpotInjector{
		repos:     repos,
		publisher: publisher,
		log:       log,
		queue:     make(chan JackpotInjection, buffer),
	}
	j.done.Add(1)
	go j.loop()
	return j
}

// Enqueue 投递注入任务，队列已满或已关闭时丢弃
func (j *JackpotInjector) Enqueue(inj JackpotInjection) bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		j.log.Warn("奖池注入器已关闭，丢弃注入", zap.Uint("game_id", inj.GameID))
		return false
	}

	j.pending.Add(1)
	select {
	case j.queue <- inj:
		return true
	default:
		j.pending.Done()
		j.log.Warn("奖池注入队列已满，丢弃注入",
			zap.Uint("game_id", inj.GameID),
			zap.String("amount", inj.Amount.String()))
		return false
	}
}

// Wait 等待已投递的注入全部处理完
func (j *JackpotInjector) Wait() {
	j.pending.Wait()
}

// Close 停止接收新任务并处理完队列
func (j *JackpotInjector) Close() {
	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		return
	}
	j.closed = true
	close(j.queue)
	j.mu.Unlock()

	j.done.Wait()
}

func (j *JackpotInjector) loop() {
	defer j.done.Done()
	for inj := range j.queue {
		ctx, cancel := context.WithTimeout(context.Background(), injectTimeout)
		if err := j.apply(ctx, inj); err != nil {
			j.log.Error("奖池注入失败",
				zap.Uint("game_id", inj.GameID),
				zap.String("amount", inj.Amount.String()),
				zap.Error(err))
		}
		cancel()
		j.pending.Done()
	}
}

func (j *JackpotInjector) apply(ctx context.Context, inj JackpotInjection) error {
	var updated *models.GameSession
	err := j.repos.NewUnitOfWork().ExecuteWithRetry(ctx, func(tx *repository.Transaction) error {
		txCtx := tx.Context()
		g, err := tx.GameSession().LockByID(txCtx, inj.GameID)
		if err != nil {
			return err
		}
		if g.Status.IsTerminal() {
			j.log.Info("游戏已结束，跳过奖池注入", zap.Uint("game_id", g.ID))
			return nil
		}

		g.JackpotBalance = g.JackpotBalance.Add(inj.Amount)
		if err := tx.GameSession().UpdateJackpot(txCtx, g.ID, g.JackpotBalance); err != nil {
			return err
		}
		holder := inj.ParticipantID
		if err := tx.Jackpot().Record(txCtx, &models.JackpotEntry{
			GameID:        g.ID,
			ParticipantID: &holder,
			Kind:          models.JackpotInjection,
			Amount:        inj.Amount,
			BalanceAfter:  g.JackpotBalance,
			Description:   inj.Description,
		}); err != nil {
			return err
		}
		updated = g
		return nil
	})
	if err != nil || updated == nil {
		return err
	}

	if err := j.publisher.Publish(ctx, event.New(event.GameUpdated, updated.ID, updated)); err != nil {
		j.log.Warn("事件发布失败", zap.Uint("game_id", updated.ID), zap.Error(err))
	}
	return nil
}

package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	apperrors "github.com/wfunc/monopoly-game/internal/errors"
	"go.uber.org/zap"
)

// DefaultLobbySweep 默认每10分钟清理一次过期大厅
const DefaultLobbySweep = "@every 10m"

// Scheduler 后台定时任务
type Scheduler struct {
	cron  *cron.Cron
	games GameService
	log   *zap.Logger
}

// NewScheduler 注册大厅清理任务，spec 为空时使用默认周期
func NewScheduler(games GameService, spec string, log *zap.Logger) (*Scheduler, error) {
	if spec == "" {
		spec = DefaultLobbySweep
	}
	s := &Scheduler{
		cron:  cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		games: games,
		log:   log,
	}
	if _, err := s.cron.AddFunc(spec, s.sweep); err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrConfigParse, "无效的定时表达式: %s", spec)
	}
	return s, nil
}

func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := s.games.SweepStaleLobbies(ctx)
	if err != nil {
		s.log.Error("清理过期大厅失败", zap.Error(err))
		return
	}
	if n > 0 {
		s.log.Info("已取消过期大厅", zap.Int("count", n))
	}
}

// Start 启动调度
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("定时任务已启动", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop 停止调度并等待运行中的任务结束
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("定时任务已停止")
}

package worker

import (
	"context"
	"errors"
	"time"

	"github.com/hashburst/internal/config"
	"github.com/hashburst/internal/logger"
	"github.com/hashburst/internal/queue"

	"github.com/hibiken/asynq"
)

const defaultReconcileInterval = 5 * time.Minute

// Service 异步队列服务
type Service struct {
	name              string
	server            *asynq.Server
	mux               *asynq.ServeMux
	consumer          *Consumer
	scheduler         *queue.Client
	reconcileInterval time.Duration
	reconcileBatch    int
}

// NewService 创建异步队列服务
func NewService(cfg *config.Config, consumer *Consumer, scheduler *queue.Client) (*Service, error) {
	if cfg == nil || !cfg.Queue.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(&cfg.Queue)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)

	interval := time.Duration(cfg.Referral.BonusReconcileIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = defaultReconcileInterval
	}
	return &Service{
		name:              "worker",
		server:            server,
		mux:               mux,
		consumer:          consumer,
		scheduler:         scheduler,
		reconcileInterval: interval,
		reconcileBatch:    cfg.Referral.BonusReconcileBatchSize,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.scheduler.Enabled() {
		go s.runReconcileLoop(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(_ context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	s.server.Shutdown()
	return nil
}

// runReconcileLoop 周期投递对账任务，多实例部署时由 Unique 选项去重
func (s *Service) runReconcileLoop(ctx context.Context) {
	enqueue := func() {
		err := s.scheduler.EnqueueStructureBonusReconcile(queue.StructureBonusReconcilePayload{
			BatchSize: s.reconcileBatch,
		}, 0)
		if err != nil && !errors.Is(err, asynq.ErrDuplicateTask) {
			logger.Warnw("worker_structure_bonus_reconcile_enqueue_failed", "error", err)
		}
	}
	enqueue()

	ticker := time.NewTicker(s.reconcileInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			enqueue()
		}
	}
}

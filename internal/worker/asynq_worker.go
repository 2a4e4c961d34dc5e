package worker

import (
	"context"
	"errors"

	"github.com/hashburst/internal/logger"
	"github.com/hashburst/internal/provider"
	"github.com/hashburst/internal/queue"
	"github.com/hashburst/internal/service"

	"github.com/hibiken/asynq"
)

// StructureBonusProcessor 结构奖励的评估与对账能力
type StructureBonusProcessor interface {
	EvaluateStructureBonus(userIDs []uint) ([]uint, error)
	ReconcileStructureBonuses(batchSize int) (*service.StructureBonusReconcileResult, error)
}

// Consumer 异步任务消费者
type Consumer struct {
	bonus          StructureBonusProcessor
	reconcileBatch int
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	if c == nil {
		return nil
	}
	consumer := &Consumer{}
	if c.ReferralService != nil {
		consumer.bonus = c.ReferralService
	}
	if c.Config != nil {
		consumer.reconcileBatch = c.Config.Referral.BonusReconcileBatchSize
	}
	return consumer
}

// Register 注册任务处理器
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskStructureBonusEvaluate, c.handleStructureBonusEvaluate)
	mux.HandleFunc(queue.TaskStructureBonusReconcile, c.handleStructureBonusReconcile)
}

func (c *Consumer) handleStructureBonusEvaluate(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil || c.bonus == nil {
		logger.Debugw("worker_structure_bonus_evaluate_skip_nil", "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseStructureBonusEvaluatePayload(task)
	if err != nil {
		logger.Warnw("worker_structure_bonus_evaluate_unmarshal_failed", "error", err)
		// 载荷损坏重试无意义
		return errors.Join(err, asynq.SkipRetry)
	}
	if len(payload.UserIDs) == 0 {
		logger.Debugw("worker_structure_bonus_evaluate_skip_empty", "reason", payload.Reason)
		return nil
	}
	awarded, err := c.bonus.EvaluateStructureBonus(payload.UserIDs)
	if err != nil {
		logger.Warnw("worker_structure_bonus_evaluate_failed",
			"user_ids", payload.UserIDs,
			"reason", payload.Reason,
			"awarded", awarded,
			"error", err,
		)
		return err
	}
	if len(awarded) > 0 {
		logger.Infow("worker_structure_bonus_evaluate_awarded", "user_ids", awarded, "reason", payload.Reason)
	}
	return nil
}

func (c *Consumer) handleStructureBonusReconcile(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil || c.bonus == nil {
		logger.Debugw("worker_structure_bonus_reconcile_skip_nil", "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseStructureBonusReconcilePayload(task)
	if err != nil {
		logger.Warnw("worker_structure_bonus_reconcile_unmarshal_failed", "error", err)
		return errors.Join(err, asynq.SkipRetry)
	}
	batch := payload.BatchSize
	if batch <= 0 {
		batch = c.reconcileBatch
	}
	result, err := c.bonus.ReconcileStructureBonuses(batch)
	if err != nil {
		logger.Warnw("worker_structure_bonus_reconcile_failed", "batch_size", batch, "error", err)
		return err
	}
	if result != nil && result.Failed > 0 {
		logger.Warnw("worker_structure_bonus_reconcile_partial",
			"scanned", result.Scanned,
			"awarded", len(result.Awarded),
			"failed", result.Failed,
		)
	}
	return nil
}

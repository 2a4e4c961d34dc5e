package queue

import (
	"encoding/json"

	"github.com/hashburst/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskStructureBonusEvaluate 结构奖励补偿评估任务
	TaskStructureBonusEvaluate = constants.TaskStructureBonusEvaluate
	// TaskStructureBonusReconcile 结构奖励全量对账任务
	TaskStructureBonusReconcile = constants.TaskStructureBonusReconcile
)

// StructureBonusEvaluatePayload 结构奖励评估任务载荷
type StructureBonusEvaluatePayload struct {
	UserIDs []uint `json:"user_ids"`
	Reason  string `json:"reason,omitempty"`
}

// StructureBonusReconcilePayload 结构奖励对账任务载荷
type StructureBonusReconcilePayload struct {
	BatchSize int `json:"batch_size"`
}

// NewStructureBonusEvaluateTask 创建结构奖励评估任务
func NewStructureBonusEvaluateTask(payload StructureBonusEvaluatePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStructureBonusEvaluate, body), nil
}

// NewStructureBonusReconcileTask 创建结构奖励对账任务
func NewStructureBonusReconcileTask(payload StructureBonusReconcilePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStructureBonusReconcile, body), nil
}

// ParseStructureBonusEvaluatePayload 解析结构奖励评估任务载荷
func ParseStructureBonusEvaluatePayload(task *asynq.Task) (StructureBonusEvaluatePayload, error) {
	var payload StructureBonusEvaluatePayload
	if task == nil {
		return payload, nil
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, err
	}
	return payload, nil
}

// ParseStructureBonusReconcilePayload 解析结构奖励对账任务载荷
func ParseStructureBonusReconcilePayload(task *asynq.Task) (StructureBonusReconcilePayload, error) {
	var payload StructureBonusReconcilePayload
	if task == nil || len(task.Payload()) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, err
	}
	return payload, nil
}

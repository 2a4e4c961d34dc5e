package service

import (
	"strings"
	"time"

	"github.com/hashburst/internal/logger"
	"github.com/hashburst/internal/models"
	"github.com/hashburst/internal/repository"
)

// AdminAuditRecordInput 后台审计记录输入
type AdminAuditRecordInput struct {
	AdminID       uint
	AdminUsername string
	Action        string
	TargetType    string
	TargetID      uint
	Method        string
	Path          string
	RequestID     string
	Detail        models.JSON
}

// AdminAuditService 后台操作审计服务
type AdminAuditService struct {
	repo repository.AdminAuditLogRepository
}

// NewAdminAuditService 创建审计服务
func NewAdminAuditService(repo repository.AdminAuditLogRepository) *AdminAuditService {
	return &AdminAuditService{repo: repo}
}

// Record 写入审计日志，失败只记录告警不影响业务结果
func (s *AdminAuditService) Record(input AdminAuditRecordInput) {
	if s == nil || s.repo == nil {
		return
	}
	action := strings.TrimSpace(input.Action)
	if input.AdminID == 0 || action == "" {
		return
	}
	item := &models.AdminAuditLog{
		AdminID:       input.AdminID,
		AdminUsername: strings.TrimSpace(input.AdminUsername),
		Action:        action,
		TargetType:    strings.TrimSpace(input.TargetType),
		TargetID:      input.TargetID,
		Method:        strings.ToUpper(strings.TrimSpace(input.Method)),
		Path:          strings.TrimSpace(input.Path),
		RequestID:     strings.TrimSpace(input.RequestID),
		Detail:        input.Detail,
		CreatedAt:     time.Now(),
	}
	if err := s.repo.Create(item); err != nil {
		logger.Warnw("admin_audit_record_failed",
			"admin_id", input.AdminID,
			"action", action,
			"target_id", input.TargetID,
			"error", err,
		)
	}
}

// List 管理端查询审计日志
func (s *AdminAuditService) List(filter repository.AdminAuditLogListFilter) ([]models.AdminAuditLog, int64, error) {
	if s == nil || s.repo == nil {
		return []models.AdminAuditLog{}, 0, nil
	}
	return s.repo.List(filter)
}

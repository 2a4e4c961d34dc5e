package admin

import (
	"strings"

	handlershared "github.com/hashburst/internal/http/handlers/shared"
	"github.com/hashburst/internal/http/response"
	"github.com/hashburst/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListLoginLogs 登录日志，subject 区分用户与管理员
func (h *Handler) ListLoginLogs(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	logs, total, err := h.LoginLogService.List(repository.LoginLogListFilter{
		Page:        page,
		PageSize:    pageSize,
		Subject:     strings.TrimSpace(c.Query("subject")),
		SubjectID:   handlershared.ParseUintQuery(c, "subject_id"),
		Account:     strings.TrimSpace(c.Query("account")),
		Status:      strings.TrimSpace(c.Query("status")),
		ClientIP:    strings.TrimSpace(c.Query("client_ip")),
		CreatedFrom: handlershared.ParseTimeQuery(c, "created_from"),
		CreatedTo:   handlershared.ParseTimeQuery(c, "created_to"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.login_log_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, logs, response.BuildPagination(page, pageSize, total))
}

// ListAuditLogs 后台操作审计日志
func (h *Handler) ListAuditLogs(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	logs, total, err := h.AdminAuditService.List(repository.AdminAuditLogListFilter{
		Page:        page,
		PageSize:    pageSize,
		AdminID:     handlershared.ParseUintQuery(c, "admin_id"),
		Action:      strings.TrimSpace(c.Query("action")),
		TargetType:  strings.TrimSpace(c.Query("target_type")),
		TargetID:    handlershared.ParseUintQuery(c, "target_id"),
		CreatedFrom: handlershared.ParseTimeQuery(c, "created_from"),
		CreatedTo:   handlershared.ParseTimeQuery(c, "created_to"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.audit_log_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, logs, response.BuildPagination(page, pageSize, total))
}

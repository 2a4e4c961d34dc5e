package admin

import (
	"github.com/hashburst/internal/models"
	"github.com/hashburst/internal/service"

	"github.com/gin-gonic/gin"
)

// recordAudit 写后台审计日志，操作人与请求信息取自上下文
func (h *Handler) recordAudit(c *gin.Context, action, targetType string, targetID uint, detail models.JSON) {
	adminID := c.GetUint("admin_id")
	h.AdminAuditService.Record(service.AdminAuditRecordInput{
		AdminID:       adminID,
		AdminUsername: currentUsername(c),
		Action:        action,
		TargetType:    targetType,
		TargetID:      targetID,
		Method:        c.Request.Method,
		Path:          c.FullPath(),
		RequestID:     c.GetString("request_id"),
		Detail:        detail,
	})
	requestLog(c).Infow("admin_operation",
		"admin_id", adminID,
		"action", action,
		"target_type", targetType,
		"target_id", targetID,
	)
}

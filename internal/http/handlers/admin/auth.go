package admin

import (
	"errors"

	"github.com/hashburst/internal/constants"
	handlershared "github.com/hashburst/internal/http/handlers/shared"
	"github.com/hashburst/internal/http/response"
	"github.com/hashburst/internal/service"

	"github.com/gin-gonic/gin"
)

var adminPasswordErrorRules = []handlershared.MappedError{
	{Target: service.ErrInvalidPassword, Code: response.CodeBadRequest, Key: "error.password_old_invalid"},
	handlershared.NotFoundRule("error.admin_not_found"),
}

// LoginRequest 管理员登录请求
type LoginRequest struct {
	Username       string                              `json:"username" binding:"required"`
	Password       string                              `json:"password" binding:"required"`
	CaptchaPayload handlershared.CaptchaPayloadRequest `json:"captcha_payload"`
}

// AdminLogin 管理员登录
func (h *Handler) AdminLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	record := service.RecordLoginInput{
		Subject:   constants.LoginSubjectAdmin,
		Account:   req.Username,
		ClientIP:  c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		RequestID: c.GetString("request_id"),
	}
	if err := handlershared.VerifyCaptcha(c, h.CaptchaService, constants.CaptchaSceneLogin, req.CaptchaPayload); err != nil {
		record.FailReason = constants.LoginFailReasonCaptchaInvalid
		h.recordLogin(c, record)
		return
	}

	admin, token, expiresAt, err := h.AuthService.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			record.FailReason = constants.LoginFailReasonInvalidCredentials
			h.recordLogin(c, record)
			respondError(c, response.CodeUnauthorized, "error.admin_login_invalid", nil)
			return
		}
		record.FailReason = constants.LoginFailReasonInternalError
		h.recordLogin(c, record)
		respondError(c, response.CodeInternal, "error.login_failed", err)
		return
	}
	record.Success = true
	record.SubjectID = admin.ID
	h.recordLogin(c, record)

	roles, err := h.AuthzService.GetAdminRoles(admin.ID)
	if err != nil {
		requestLog(c).Warnw("admin_login_roles_fetch_failed", "admin_id", admin.ID, "error", err)
		roles = []string{}
	}
	response.Success(c, gin.H{
		"token":      token,
		"expires_at": expiresAt,
		"user": gin.H{
			"id":       admin.ID,
			"username": admin.Username,
			"is_super": admin.IsSuper,
			"roles":    roles,
		},
	})
}

func (h *Handler) recordLogin(c *gin.Context, input service.RecordLoginInput) {
	if err := h.LoginLogService.Record(input); err != nil {
		requestLog(c).Warnw("admin_login_log_record_failed", "account", input.Account, "error", err)
	}
}

// GetAdminMe 当前管理员信息与权限
func (h *Handler) GetAdminMe(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	admin, err := h.AdminRepo.GetByID(adminID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.admin_fetch_failed", err)
		return
	}
	if admin == nil {
		respondError(c, response.CodeNotFound, "error.admin_not_found", nil)
		return
	}
	roles, err := h.AuthzService.GetAdminRoles(admin.ID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.admin_fetch_failed", err)
		return
	}
	policies, err := h.AuthzService.GetAdminPolicies(admin.ID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.admin_fetch_failed", err)
		return
	}
	response.Success(c, gin.H{
		"id":            admin.ID,
		"username":      admin.Username,
		"is_super":      admin.IsSuper,
		"last_login_at": admin.LastLoginAt,
		"roles":         roles,
		"policies":      policies,
	})
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// ChangePassword 修改管理员密码
func (h *Handler) ChangePassword(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if err := h.AuthService.ChangePassword(adminID, req.OldPassword, req.NewPassword); err != nil {
		respondMappedError(c, err, adminPasswordErrorRules, "error.password_update_failed")
		return
	}
	response.Success(c, gin.H{"updated": true})
}

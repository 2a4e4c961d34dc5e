package public

import (
	"errors"

	"github.com/hashburst/internal/constants"
	handlershared "github.com/hashburst/internal/http/handlers/shared"
	"github.com/hashburst/internal/http/response"
	"github.com/hashburst/internal/models"
	"github.com/hashburst/internal/service"

	"github.com/gin-gonic/gin"
)

var registerErrorRules = []handlershared.MappedError{
	{Target: service.ErrInvalidEmail, Code: response.CodeBadRequest, Key: "error.email_invalid"},
	{Target: service.ErrEmailExists, Code: response.CodeConflict, Key: "error.email_exists"},
}

var loginErrorRules = []handlershared.MappedError{
	{Target: service.ErrInvalidEmail, Code: response.CodeBadRequest, Key: "error.email_invalid"},
	{Target: service.ErrInvalidCredentials, Code: response.CodeUnauthorized, Key: "error.login_invalid"},
	{Target: service.ErrUserDisabled, Code: response.CodeForbidden, Key: "error.user_disabled"},
}

var changePasswordErrorRules = []handlershared.MappedError{
	{Target: service.ErrInvalidPassword, Code: response.CodeBadRequest, Key: "error.password_old_invalid"},
	handlershared.NotFoundRule("error.user_not_found"),
}

func userProfile(user *models.User) gin.H {
	return gin.H{
		"id":                     user.ID,
		"email":                  user.Email,
		"display_name":           user.DisplayName,
		"locale":                 user.Locale,
		"status":                 user.Status,
		"referral_code":          user.ReferralCode,
		"referred_by_id":         user.ReferredByID,
		"direct_referrals":       user.DirectReferrals,
		"network_size":           user.NetworkSize,
		"referral_earnings":      user.ReferralEarnings,
		"structure_bonus_earned": user.StructureBonusEarned,
		"last_login_at":          user.LastLoginAt,
		"created_at":             user.CreatedAt,
	}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email          string                              `json:"email" binding:"required"`
	Password       string                              `json:"password" binding:"required"`
	DisplayName    string                              `json:"display_name"`
	ReferralCode   string                              `json:"referral_code"`
	CaptchaPayload handlershared.CaptchaPayloadRequest `json:"captcha_payload"`
}

// Register 用户注册，推荐码无效只影响推荐关系
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if handlershared.VerifyCaptcha(c, h.CaptchaService, constants.CaptchaSceneRegister, req.CaptchaPayload) != nil {
		return
	}

	result, err := h.UserAuthService.Register(service.RegisterInput{
		Email:        req.Email,
		Password:     req.Password,
		DisplayName:  req.DisplayName,
		ReferralCode: req.ReferralCode,
	})
	if err != nil {
		respondMappedError(c, err, registerErrorRules, "error.register_failed")
		return
	}

	data := gin.H{
		"user":       userProfile(result.User),
		"token":      result.Token,
		"expires_at": result.ExpiresAt,
	}
	if result.Referral != nil {
		data["referral"] = gin.H{
			"valid":  result.Referral.Valid,
			"reason": result.Referral.Reason,
			"linked": result.Link != nil && result.Link.Linked,
		}
	}
	response.Success(c, data)
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email          string                              `json:"email" binding:"required"`
	Password       string                              `json:"password" binding:"required"`
	RememberMe     bool                                `json:"remember_me"`
	CaptchaPayload handlershared.CaptchaPayloadRequest `json:"captcha_payload"`
}

// Login 用户登录，成功与失败都写登录日志
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	record := service.RecordLoginInput{
		Subject:   constants.LoginSubjectUser,
		Account:   req.Email,
		ClientIP:  c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		RequestID: c.GetString("request_id"),
	}
	if err := handlershared.VerifyCaptcha(c, h.CaptchaService, constants.CaptchaSceneLogin, req.CaptchaPayload); err != nil {
		record.FailReason = constants.LoginFailReasonCaptchaInvalid
		h.recordLogin(c, record)
		return
	}

	user, token, expiresAt, err := h.UserAuthService.LoginWithRememberMe(req.Email, req.Password, req.RememberMe)
	if err != nil {
		record.FailReason = loginFailReason(err)
		h.recordLogin(c, record)
		respondMappedError(c, err, loginErrorRules, "error.login_failed")
		return
	}
	record.Success = true
	record.SubjectID = user.ID
	h.recordLogin(c, record)

	response.Success(c, gin.H{
		"user":       userProfile(user),
		"token":      token,
		"expires_at": expiresAt,
	})
}

func (h *Handler) recordLogin(c *gin.Context, input service.RecordLoginInput) {
	if err := h.LoginLogService.Record(input); err != nil {
		handlershared.RequestLog(c).Warnw("user_login_log_record_failed", "account", input.Account, "error", err)
	}
}

func loginFailReason(err error) string {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInvalidEmail):
		return constants.LoginFailReasonInvalidCredentials
	case errors.Is(err, service.ErrUserDisabled):
		return constants.LoginFailReasonUserDisabled
	default:
		return constants.LoginFailReasonInternalError
	}
}

// GetMe 当前用户资料
func (h *Handler) GetMe(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	user, err := h.UserAuthService.GetProfile(userID)
	if err != nil {
		respondMappedError(c, err, []handlershared.MappedError{handlershared.NotFoundRule("error.user_not_found")}, "error.user_fetch_failed")
		return
	}
	response.Success(c, userProfile(user))
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// ChangePassword 修改密码，成功后需要重新登录
func (h *Handler) ChangePassword(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if err := h.UserAuthService.ChangePassword(userID, req.OldPassword, req.NewPassword); err != nil {
		respondMappedError(c, err, changePasswordErrorRules, "error.password_update_failed")
		return
	}
	response.Success(c, gin.H{"updated": true})
}

// ListMyLoginLogs 当前用户的登录记录
func (h *Handler) ListMyLoginLogs(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.ParsePagination(c)
	logs, total, err := h.LoginLogService.ListByUser(userID, page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "error.login_log_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, logs, response.BuildPagination(page, pageSize, total))
}

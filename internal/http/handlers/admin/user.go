package admin

import (
	"strconv"
	"strings"

	"github.com/hashburst/internal/constants"
	handlershared "github.com/hashburst/internal/http/handlers/shared"
	"github.com/hashburst/internal/http/response"
	"github.com/hashburst/internal/models"
	"github.com/hashburst/internal/repository"
	"github.com/hashburst/internal/service"

	"github.com/gin-gonic/gin"
)

var userErrorRules = []handlershared.MappedError{
	{Target: service.ErrUserStatusInvalid, Code: response.CodeBadRequest, Key: "error.user_status_invalid"},
	handlershared.NotFoundRule("error.user_not_found"),
}

// ListUsers 用户列表，可按关键字、状态、推荐人过滤
func (h *Handler) ListUsers(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	users, total, err := h.UserAuthService.ListUsers(repository.UserListFilter{
		Page:         page,
		PageSize:     pageSize,
		Keyword:      strings.TrimSpace(c.Query("keyword")),
		Status:       strings.TrimSpace(c.Query("status")),
		ReferredByID: handlershared.ParseUintQuery(c, "referred_by_id"),
		CreatedFrom:  handlershared.ParseTimeQuery(c, "created_from"),
		CreatedTo:    handlershared.ParseTimeQuery(c, "created_to"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.user_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, users, response.BuildPagination(page, pageSize, total))
}

// UpdateUserStatusRequest 用户状态更新请求
type UpdateUserStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateUserStatus 启用或禁用用户，禁用后其 token 立即失效
func (h *Handler) UpdateUserStatus(c *gin.Context) {
	userID, ok := parseIDParam(c, "error.user_id_invalid")
	if !ok {
		return
	}
	var req UpdateUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	user, err := h.UserAuthService.UpdateUserStatus(userID, req.Status)
	if err != nil {
		respondMappedError(c, err, userErrorRules, "error.user_update_failed")
		return
	}

	h.recordAudit(c, constants.AuditActionUserStatusUpdate, constants.AuditTargetUser, user.ID, models.JSON{
		"email":  user.Email,
		"status": user.Status,
	})
	response.Success(c, user)
}

// GetUserReferralStats 指定用户的推荐统计
func (h *Handler) GetUserReferralStats(c *gin.Context) {
	userID, ok := parseIDParam(c, "error.user_id_invalid")
	if !ok {
		return
	}
	stats, err := h.ReferralService.GetUserReferralStats(userID)
	if err != nil {
		respondMappedError(c, err, userErrorRules, "error.referral_stats_failed")
		return
	}
	response.Success(c, stats)
}

// GetUserReferralTree 指定用户的下线树
func (h *Handler) GetUserReferralTree(c *gin.Context) {
	userID, ok := parseIDParam(c, "error.user_id_invalid")
	if !ok {
		return
	}
	maxLevel, _ := strconv.Atoi(c.DefaultQuery("max_level", "3"))
	tree, err := h.ReferralService.GetReferralTree(userID, maxLevel)
	if err != nil {
		respondMappedError(c, err, userErrorRules, "error.referral_tree_failed")
		return
	}
	response.Success(c, tree)
}

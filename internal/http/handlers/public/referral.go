package public

import (
	"strconv"
	"strings"
	"time"

	handlershared "github.com/hashburst/internal/http/handlers/shared"
	"github.com/hashburst/internal/http/response"
	"github.com/hashburst/internal/service"

	"github.com/gin-gonic/gin"
)

var referralCommissionErrorRules = []handlershared.MappedError{
	{Target: service.ErrReferralCommissionStatusInvalid, Code: response.CodeBadRequest, Key: "error.referral_commission_status_invalid"},
}

// ValidateReferralCode 注册前校验推荐码，不暴露推荐人信息
func (h *Handler) ValidateReferralCode(c *gin.Context) {
	code := strings.TrimSpace(c.Query("code"))
	result, err := h.ReferralService.CheckReferralCode(code)
	if err != nil {
		respondError(c, response.CodeInternal, "error.referral_settings_fetch_failed", err)
		return
	}
	response.Success(c, gin.H{
		"code":   strings.ToUpper(code),
		"valid":  result.Valid,
		"reason": result.Reason,
	})
}

// GetReferralSettings 公开的推荐计划参数（比例、结构奖励、开放状态）
func (h *Handler) GetReferralSettings(c *gin.Context) {
	settings, err := h.SettingService.GetReferralSettings()
	if err != nil {
		respondError(c, response.CodeInternal, "error.referral_settings_fetch_failed", err)
		return
	}
	response.Success(c, settings.Public(time.Now()))
}

// GetReferralStats 当前用户推荐统计
func (h *Handler) GetReferralStats(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	stats, err := h.ReferralService.GetUserReferralStats(userID)
	if err != nil {
		respondMappedError(c, err, []handlershared.MappedError{handlershared.NotFoundRule("error.user_not_found")}, "error.referral_stats_failed")
		return
	}
	response.Success(c, stats)
}

// GetReferralLink 当前用户的推荐链接
func (h *Handler) GetReferralLink(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	user, err := h.UserAuthService.GetProfile(userID)
	if err != nil {
		respondMappedError(c, err, []handlershared.MappedError{handlershared.NotFoundRule("error.user_not_found")}, "error.user_fetch_failed")
		return
	}
	response.Success(c, gin.H{
		"referral_code": user.ReferralCode,
		"referral_link": h.ReferralService.BuildReferralLink(user.ReferralCode),
	})
}

// GetReferralTree 当前用户下线树，max_level 缺省为 3
func (h *Handler) GetReferralTree(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	maxLevel, _ := strconv.Atoi(c.DefaultQuery("max_level", "3"))
	tree, err := h.ReferralService.GetReferralTree(userID, maxLevel)
	if err != nil {
		respondMappedError(c, err, []handlershared.MappedError{handlershared.NotFoundRule("error.user_not_found")}, "error.referral_tree_failed")
		return
	}
	response.Success(c, tree)
}

// ListReferralCommissions 当前用户的佣金明细
func (h *Handler) ListReferralCommissions(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.ParsePagination(c)
	rows, total, err := h.ReferralService.ListUserCommissions(userID, c.Query("status"), page, pageSize)
	if err != nil {
		respondMappedError(c, err, referralCommissionErrorRules, "error.referral_commission_fetch_failed")
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}

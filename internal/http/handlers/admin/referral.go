package admin

import (
	"strconv"

	"github.com/hashburst/internal/constants"
	handlershared "github.com/hashburst/internal/http/handlers/shared"
	"github.com/hashburst/internal/http/response"
	"github.com/hashburst/internal/models"
	"github.com/hashburst/internal/repository"
	"github.com/hashburst/internal/service"

	"github.com/gin-gonic/gin"
)

var referralSettingErrorRules = []handlershared.MappedError{
	{Target: service.ErrReferralConfigInvalid, Code: response.CodeBadRequest, Key: "error.referral_config_invalid"},
}

var commissionErrorRules = []handlershared.MappedError{
	{Target: service.ErrReferralCommissionStatusInvalid, Code: response.CodeBadRequest, Key: "error.referral_commission_status_invalid"},
	handlershared.NotFoundRule("error.referral_commission_not_found"),
}

// GetReferralSettings 获取推荐计划配置
func (h *Handler) GetReferralSettings(c *gin.Context) {
	settings, err := h.SettingService.GetReferralSettings()
	if err != nil {
		respondError(c, response.CodeInternal, "error.referral_settings_fetch_failed", err)
		return
	}
	response.Success(c, settings)
}

// UpdateReferralSettings 部分更新推荐计划配置，未传字段保持不变
func (h *Handler) UpdateReferralSettings(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	var patch service.ReferralSettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if patch.IsEmpty() {
		respondError(c, response.CodeBadRequest, "error.referral_config_empty", nil)
		return
	}
	before, err := h.SettingService.GetReferralSettings()
	if err != nil {
		respondError(c, response.CodeInternal, "error.referral_settings_fetch_failed", err)
		return
	}
	updated, err := h.SettingService.UpdateReferralSettings(adminID, patch)
	if err != nil {
		respondMappedError(c, err, referralSettingErrorRules, "error.referral_settings_save_failed")
		return
	}

	h.recordAudit(c, constants.AuditActionReferralSettingsUpdate, constants.AuditTargetReferralSetting, 0, models.JSON{
		"before": before,
		"after":  updated,
	})
	response.Success(c, updated)
}

// GetReferralStats 推荐计划概览
func (h *Handler) GetReferralStats(c *gin.Context) {
	stats, err := h.ReferralService.GetAdminReferralStats()
	if err != nil {
		respondError(c, response.CodeInternal, "error.referral_stats_failed", err)
		return
	}
	response.Success(c, stats)
}

// ListCommissions 佣金记录列表
func (h *Handler) ListCommissions(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	level, _ := strconv.Atoi(c.Query("level"))
	rows, total, err := h.ReferralService.ListCommissions(repository.ReferralCommissionListFilter{
		Page:       page,
		PageSize:   pageSize,
		UserID:     handlershared.ParseUintQuery(c, "user_id"),
		FromUserID: handlershared.ParseUintQuery(c, "from_user_id"),
		PurchaseID: handlershared.ParseUintQuery(c, "purchase_id"),
		Level:      level,
		Status:     c.Query("status"),
	})
	if err != nil {
		respondMappedError(c, err, commissionErrorRules, "error.referral_commission_fetch_failed")
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}

// PayCommission 将待结算佣金标记为已发放
func (h *Handler) PayCommission(c *gin.Context) {
	id, ok := parseIDParam(c, "error.commission_id_invalid")
	if !ok {
		return
	}
	commission, err := h.ReferralService.PayCommission(id)
	if err != nil {
		respondMappedError(c, err, commissionErrorRules, "error.referral_commission_pay_failed")
		return
	}

	h.recordAudit(c, constants.AuditActionCommissionPay, constants.AuditTargetReferralCommission, commission.ID, models.JSON{
		"user_id": commission.UserID,
		"level":   commission.Level,
		"amount":  commission.CommissionAmount.String(),
	})
	response.Success(c, commission)
}

// ReconcileBonusesRequest 结构奖励对账请求
type ReconcileBonusesRequest struct {
	BatchSize int `json:"batch_size"`
}

// ReconcileBonuses 扫描达到门槛但未发放结构奖励的用户并补发
func (h *Handler) ReconcileBonuses(c *gin.Context) {
	var req ReconcileBonusesRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
	}
	result, err := h.ReferralService.ReconcileStructureBonuses(req.BatchSize)
	if err != nil {
		respondError(c, response.CodeInternal, "error.referral_bonus_reconcile_failed", err)
		return
	}

	h.recordAudit(c, constants.AuditActionBonusReconcile, constants.AuditTargetStructureBonus, 0, models.JSON{
		"scanned": result.Scanned,
		"awarded": result.Awarded,
		"failed":  result.Failed,
	})
	response.Success(c, result)
}

package admin

import (
	"github.com/hashburst/internal/constants"
	handlershared "github.com/hashburst/internal/http/handlers/shared"
	"github.com/hashburst/internal/http/response"
	"github.com/hashburst/internal/models"
	"github.com/hashburst/internal/repository"
	"github.com/hashburst/internal/service"

	"github.com/gin-gonic/gin"
)

var purchaseErrorRules = []handlershared.MappedError{
	{Target: service.ErrPurchaseStatusInvalid, Code: response.CodeBadRequest, Key: "error.purchase_status_invalid"},
	{Target: service.ErrPurchaseAmountInvalid, Code: response.CodeBadRequest, Key: "error.purchase_amount_invalid"},
	handlershared.NotFoundRule("error.purchase_not_found"),
}

// ListPurchases 购买记录列表
func (h *Handler) ListPurchases(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	purchases, total, err := h.PurchaseService.List(repository.PurchaseListFilter{
		Page:        page,
		PageSize:    pageSize,
		UserID:      handlershared.ParseUintQuery(c, "user_id"),
		Status:      c.Query("status"),
		CreatedFrom: handlershared.ParseTimeQuery(c, "created_from"),
		CreatedTo:   handlershared.ParseTimeQuery(c, "created_to"),
	})
	if err != nil {
		respondMappedError(c, err, purchaseErrorRules, "error.purchase_fetch_failed")
		return
	}
	response.SuccessWithPage(c, purchases, response.BuildPagination(page, pageSize, total))
}

// CompletePurchase 确认购买完成并发放三级佣金
func (h *Handler) CompletePurchase(c *gin.Context) {
	id, ok := parseIDParam(c, "error.purchase_id_invalid")
	if !ok {
		return
	}
	result, err := h.PurchaseService.Complete(id)
	if err != nil {
		respondMappedError(c, err, purchaseErrorRules, "error.purchase_update_failed")
		return
	}

	commissionIDs := make([]uint, 0, len(result.Commissions))
	for _, commission := range result.Commissions {
		commissionIDs = append(commissionIDs, commission.ID)
	}
	h.recordAudit(c, constants.AuditActionPurchaseComplete, constants.AuditTargetPurchase, result.Purchase.ID, models.JSON{
		"user_id":        result.Purchase.UserID,
		"amount":         result.Purchase.Amount.String(),
		"commission_ids": commissionIDs,
	})
	response.Success(c, result)
}

// FailPurchase 将待处理购买标记为失败，不产生佣金
func (h *Handler) FailPurchase(c *gin.Context) {
	id, ok := parseIDParam(c, "error.purchase_id_invalid")
	if !ok {
		return
	}
	purchase, err := h.PurchaseService.Fail(id)
	if err != nil {
		respondMappedError(c, err, purchaseErrorRules, "error.purchase_update_failed")
		return
	}

	h.recordAudit(c, constants.AuditActionPurchaseFail, constants.AuditTargetPurchase, purchase.ID, models.JSON{
		"user_id": purchase.UserID,
		"amount":  purchase.Amount.String(),
	})
	response.Success(c, purchase)
}

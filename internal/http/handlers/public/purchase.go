package public

import (
	"strings"

	handlershared "github.com/hashburst/internal/http/handlers/shared"
	"github.com/hashburst/internal/http/response"
	"github.com/hashburst/internal/repository"
	"github.com/hashburst/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

var purchaseErrorRules = []handlershared.MappedError{
	{Target: service.ErrPurchaseAmountInvalid, Code: response.CodeBadRequest, Key: "error.purchase_amount_invalid"},
	{Target: service.ErrPurchaseStatusInvalid, Code: response.CodeBadRequest, Key: "error.purchase_status_invalid"},
	{Target: service.ErrUserDisabled, Code: response.CodeForbidden, Key: "error.user_disabled"},
	handlershared.NotFoundRule("error.purchase_not_found"),
}

// CreatePurchaseRequest 提交算力购买申请
type CreatePurchaseRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Remark string          `json:"remark"`
}

// CreatePurchase 创建待处理的购买申请
func (h *Handler) CreatePurchase(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req CreatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if len(strings.TrimSpace(req.Remark)) > 255 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	purchase, err := h.PurchaseService.Create(service.CreatePurchaseInput{
		UserID: userID,
		Amount: req.Amount,
		Remark: req.Remark,
	})
	if err != nil {
		respondMappedError(c, err, purchaseErrorRules, "error.purchase_create_failed")
		return
	}
	response.Success(c, purchase)
}

// ListMyPurchases 当前用户的购买记录
func (h *Handler) ListMyPurchases(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.ParsePagination(c)
	purchases, total, err := h.PurchaseService.List(repository.PurchaseListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   userID,
		Status:   c.Query("status"),
	})
	if err != nil {
		respondMappedError(c, err, purchaseErrorRules, "error.purchase_fetch_failed")
		return
	}
	response.SuccessWithPage(c, purchases, response.BuildPagination(page, pageSize, total))
}

// GetMyPurchase 查看单条购买记录，只能查看自己的
func (h *Handler) GetMyPurchase(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.purchase_id_invalid", nil)
		return
	}
	purchase, err := h.PurchaseService.GetByID(id)
	if err == nil && purchase.UserID != userID {
		err = service.ErrNotFound
	}
	if err != nil {
		respondMappedError(c, err, purchaseErrorRules, "error.purchase_fetch_failed")
		return
	}
	response.Success(c, purchase)
}

package service

import (
	"strings"
	"time"

	"github.com/hashburst/internal/constants"
	"github.com/hashburst/internal/models"
	"github.com/hashburst/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const purchaseRemarkMaxLen = 255

// PurchaseService 矿机份额购买服务
type PurchaseService struct {
	purchaseRepo    repository.PurchaseRepository
	userRepo        repository.UserRepository
	referralService *ReferralService
}

// NewPurchaseService 创建购买服务
func NewPurchaseService(
	purchaseRepo repository.PurchaseRepository,
	userRepo repository.UserRepository,
	referralService *ReferralService,
) *PurchaseService {
	return &PurchaseService{
		purchaseRepo:    purchaseRepo,
		userRepo:        userRepo,
		referralService: referralService,
	}
}

// CreatePurchaseInput 创建购买输入
type CreatePurchaseInput struct {
	UserID uint
	Amount decimal.Decimal
	Remark string
}

// Create 创建待处理的购买记录，并快照推荐计划在此刻是否开放
func (s *PurchaseService) Create(input CreatePurchaseInput) (*models.Purchase, error) {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrPurchaseAmountInvalid
	}
	user, err := s.userRepo.GetByID(input.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	if strings.TrimSpace(user.Status) == constants.UserStatusDisabled {
		return nil, ErrUserDisabled
	}
	settings, err := s.referralService.CurrentSettings()
	if err != nil {
		return nil, err
	}

	remark := strings.TrimSpace(input.Remark)
	if len(remark) > purchaseRemarkMaxLen {
		remark = remark[:purchaseRemarkMaxLen]
	}
	purchase := &models.Purchase{
		UserID:           user.ID,
		Amount:           models.NewMoneyFromDecimal(input.Amount),
		Status:           constants.PurchaseStatusPending,
		ReferralEligible: settings.IsOpenAt(time.Now()),
		Remark:           remark,
	}
	if !purchase.Amount.IsPositive() {
		return nil, ErrPurchaseAmountInvalid
	}
	if err := s.purchaseRepo.Create(purchase); err != nil {
		return nil, err
	}
	return purchase, nil
}

// Complete 将待处理购买置为完成，佣金与状态变更在同一事务内提交，仅执行一次
func (s *PurchaseService) Complete(id uint) (*PurchaseCommissionResult, error) {
	settings, err := s.referralService.CurrentSettings()
	if err != nil {
		return nil, err
	}
	result := &PurchaseCommissionResult{Commissions: []models.ReferralCommission{}}
	err = s.purchaseRepo.Transaction(func(tx *gorm.DB) error {
		purchaseRepo := s.purchaseRepo.WithTx(tx)
		purchase, err := purchaseRepo.GetByIDForUpdate(id)
		if err != nil {
			return err
		}
		if purchase == nil {
			return ErrNotFound
		}
		if purchase.Status != constants.PurchaseStatusPending {
			return ErrPurchaseStatusInvalid
		}
		now := time.Now()
		affected, err := purchaseRepo.UpdateStatus(id, constants.PurchaseStatusPending, constants.PurchaseStatusCompleted, now)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrPurchaseStatusInvalid
		}
		purchase.Status = constants.PurchaseStatusCompleted
		purchase.CompletedAt = &now
		result.Purchase = purchase

		if !purchase.ReferralEligible {
			return nil
		}
		purchaser, err := s.userRepo.WithTx(tx).GetByID(purchase.UserID)
		if err != nil {
			return err
		}
		if purchaser == nil {
			return ErrNotFound
		}
		commissions, err := s.referralService.creditCommissionsTx(tx, purchase, purchaser, settings)
		if err != nil {
			return err
		}
		result.Commissions = commissions
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.referralService.logCommissions(result.Commissions)
	return result, nil
}

// Fail 将待处理购买置为失败
func (s *PurchaseService) Fail(id uint) (*models.Purchase, error) {
	purchase, err := s.purchaseRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if purchase == nil {
		return nil, ErrNotFound
	}
	if purchase.Status != constants.PurchaseStatusPending {
		return nil, ErrPurchaseStatusInvalid
	}
	affected, err := s.purchaseRepo.UpdateStatus(id, constants.PurchaseStatusPending, constants.PurchaseStatusFailed, time.Now())
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrPurchaseStatusInvalid
	}
	return s.purchaseRepo.GetByID(id)
}

// GetByID 获取购买记录
func (s *PurchaseService) GetByID(id uint) (*models.Purchase, error) {
	purchase, err := s.purchaseRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if purchase == nil {
		return nil, ErrNotFound
	}
	return purchase, nil
}

// List 购买记录列表
func (s *PurchaseService) List(filter repository.PurchaseListFilter) ([]models.Purchase, int64, error) {
	status := strings.TrimSpace(filter.Status)
	switch status {
	case "", constants.PurchaseStatusPending, constants.PurchaseStatusCompleted, constants.PurchaseStatusFailed:
	default:
		return nil, 0, ErrPurchaseStatusInvalid
	}
	filter.Status = status
	return s.purchaseRepo.List(filter)
}

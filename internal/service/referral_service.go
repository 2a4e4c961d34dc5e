package service

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/hashburst/internal/constants"
	"github.com/hashburst/internal/logger"
	"github.com/hashburst/internal/models"
	"github.com/hashburst/internal/queue"
	"github.com/hashburst/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	referralSignupPath          = "/signup"
	referralTopReferrersLimit   = 10
	referralRecentCommissionCap = 50
	referralRecentBonusCap      = 20
	defaultReconcileBatchSize   = 200
)

// ReferralService 三级推荐业务服务
type ReferralService struct {
	userRepo       repository.UserRepository
	purchaseRepo   repository.PurchaseRepository
	referralRepo   repository.ReferralRepository
	settingService *SettingService
	queueClient    *queue.Client
	appURL         string
}

// NewReferralService 创建推荐服务
func NewReferralService(
	userRepo repository.UserRepository,
	purchaseRepo repository.PurchaseRepository,
	referralRepo repository.ReferralRepository,
	settingService *SettingService,
	queueClient *queue.Client,
	appURL string,
) *ReferralService {
	return &ReferralService{
		userRepo:       userRepo,
		purchaseRepo:   purchaseRepo,
		referralRepo:   referralRepo,
		settingService: settingService,
		queueClient:    queueClient,
		appURL:         strings.TrimRight(strings.TrimSpace(appURL), "/"),
	}
}

// ReferralCodeValidation 推荐码校验结果
type ReferralCodeValidation struct {
	Valid      bool   `json:"valid"`
	ReferrerID *uint  `json:"referrer_id,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// ReferralLinkResult 绑定推荐关系的结果
type ReferralLinkResult struct {
	Linked         bool          `json:"linked"`
	AlreadyLinked  bool          `json:"already_linked"`
	Chain          AncestorChain `json:"chain"`
	Upline         []uint        `json:"upline"`
	AwardedBonuses []uint        `json:"awarded_bonuses"`
}

// PurchaseCommissionResult 购买完成后的佣金入账结果
type PurchaseCommissionResult struct {
	Purchase    *models.Purchase            `json:"purchase"`
	Commissions []models.ReferralCommission `json:"commissions"`
}

// StructureBonusReconcileResult 结构奖励对账结果
type StructureBonusReconcileResult struct {
	Scanned int    `json:"scanned"`
	Awarded []uint `json:"awarded"`
	Failed  int    `json:"failed"`
}

// UserReferralStats 用户推荐统计
type UserReferralStats struct {
	UserID                  uint         `json:"user_id"`
	ReferralCode            string       `json:"referral_code"`
	ReferralLink            string       `json:"referral_link"`
	ReferredByID            *uint        `json:"referred_by_id,omitempty"`
	DirectReferrals         int64        `json:"direct_referrals"`
	TotalReferrals          int64        `json:"total_referrals"`
	NetworkSize             int64        `json:"network_size"`
	Level1Count             int64        `json:"level1_count"`
	Level2Count             int64        `json:"level2_count"`
	Level3Count             int64        `json:"level3_count"`
	ReferralEarnings        models.Money `json:"referral_earnings"`
	Level1Earnings          models.Money `json:"level1_earnings"`
	Level2Earnings          models.Money `json:"level2_earnings"`
	Level3Earnings          models.Money `json:"level3_earnings"`
	PendingCommission       models.Money `json:"pending_commission"`
	PaidCommission          models.Money `json:"paid_commission"`
	StructureBonusEarned    bool         `json:"structure_bonus_earned"`
	StructureBonusAmount    models.Money `json:"structure_bonus_amount"`
	StructureBonusThreshold int          `json:"structure_bonus_threshold"`
	ProgramOpen             bool         `json:"program_open"`
}

// ReferralTreeMember 推荐树节点
type ReferralTreeMember struct {
	ID              uint      `json:"id"`
	Level           int       `json:"level"`
	Email           string    `json:"email"`
	DisplayName     string    `json:"display_name"`
	ReferralCode    string    `json:"referral_code"`
	ReferredByID    *uint     `json:"referred_by_id,omitempty"`
	DirectReferrals int64     `json:"direct_referrals"`
	NetworkSize     int64     `json:"network_size"`
	JoinedAt        time.Time `json:"joined_at"`
}

// ReferralTreeLevel 推荐树单层
type ReferralTreeLevel struct {
	Level   int                  `json:"level"`
	Count   int                  `json:"count"`
	Members []ReferralTreeMember `json:"members"`
}

// ReferralTree 用户的下线树（按层级分组）
type ReferralTree struct {
	UserID   uint                `json:"user_id"`
	MaxLevel int                 `json:"max_level"`
	Total    int                 `json:"total"`
	Levels   []ReferralTreeLevel `json:"levels"`
}

// TopReferrerItem 网络规模排行项
type TopReferrerItem struct {
	UserID           uint         `json:"user_id"`
	Email            string       `json:"email"`
	ReferralCode     string       `json:"referral_code"`
	DirectReferrals  int64        `json:"direct_referrals"`
	NetworkSize      int64        `json:"network_size"`
	ReferralEarnings models.Money `json:"referral_earnings"`
}

// AdminReferralStats 后台推荐计划概览
type AdminReferralStats struct {
	TotalUsers          int64                              `json:"total_users"`
	ReferredUsers       int64                              `json:"referred_users"`
	TotalCommissions    models.Money                       `json:"total_commissions"`
	PaidCommissions     models.Money                       `json:"paid_commissions"`
	PendingCommissions  models.Money                       `json:"pending_commissions"`
	CommissionCount     int64                              `json:"commission_count"`
	StructureBonusCount int64                              `json:"structure_bonus_count"`
	StructureBonusTotal models.Money                       `json:"structure_bonus_total"`
	Level1Connections   int64                              `json:"level1_connections"`
	Level2Connections   int64                              `json:"level2_connections"`
	Level3Connections   int64                              `json:"level3_connections"`
	TopReferrers        []TopReferrerItem                  `json:"top_referrers"`
	RecentCommissions   []repository.ReferralCommissionRow `json:"recent_commissions"`
	RecentBonuses       []repository.StructureBonusRow     `json:"recent_bonuses"`
	Settings            ReferralSettings                   `json:"settings"`
}

// CurrentSettings 读取本次操作使用的配置快照
func (s *ReferralService) CurrentSettings() (ReferralSettings, error) {
	if s.settingService == nil {
		return DefaultReferralSettings(), nil
	}
	return s.settingService.GetReferralSettings()
}

// ValidateReferralCode 注册前校验推荐码：计划开放、未过期、推荐码存在，依次判断
func (s *ReferralService) ValidateReferralCode(code string, settings ReferralSettings) (*ReferralCodeValidation, error) {
	if reason := settings.ClosedReason(time.Now()); reason != "" {
		return &ReferralCodeValidation{Valid: false, Reason: reason}, nil
	}
	normalized := normalizeReferralCode(code)
	if normalized == "" {
		return &ReferralCodeValidation{Valid: false, Reason: constants.ReferralReasonCodeEmpty}, nil
	}
	referrer, err := s.userRepo.GetByReferralCode(normalized)
	if err != nil {
		return nil, err
	}
	if referrer == nil {
		return &ReferralCodeValidation{Valid: false, Reason: constants.ReferralReasonCodeNotFound}, nil
	}
	referrerID := referrer.ID
	return &ReferralCodeValidation{Valid: true, ReferrerID: &referrerID}, nil
}

// CheckReferralCode 使用当前配置校验推荐码
func (s *ReferralService) CheckReferralCode(code string) (*ReferralCodeValidation, error) {
	settings, err := s.CurrentSettings()
	if err != nil {
		return nil, err
	}
	return s.ValidateReferralCode(code, settings)
}

// ResolveAncestors 解析用户的三级上级链
func (s *ReferralService) ResolveAncestors(userID uint) (AncestorChain, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return BuildAncestorChain(user), nil
}

// RegisterWithReferrer 为新用户绑定推荐人，并累加整条上线的网络规模。
// 已绑定同一推荐人时不重复累加，只重新评估结构奖励。
func (s *ReferralService) RegisterWithReferrer(newUserID uint, referrerID *uint) (*ReferralLinkResult, error) {
	result := &ReferralLinkResult{Chain: AncestorChain{}, Upline: []uint{}, AwardedBonuses: []uint{}}
	if referrerID == nil || *referrerID == 0 {
		return result, nil
	}
	if newUserID == *referrerID {
		return nil, ErrReferralSelf
	}
	settings, err := s.CurrentSettings()
	if err != nil {
		return nil, err
	}

	err = s.userRepo.Transaction(func(tx *gorm.DB) error {
		userRepo := s.userRepo.WithTx(tx)
		user, err := userRepo.GetByID(newUserID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrNotFound
		}
		referrer, err := userRepo.GetByID(*referrerID)
		if err != nil {
			return err
		}
		if referrer == nil {
			return ErrNotFound
		}

		if user.ReferredByID != nil {
			if *user.ReferredByID != *referrerID {
				return ErrReferralAlreadyLinked
			}
			result.AlreadyLinked = true
		} else if user.DirectReferrals > 0 {
			return ErrReferralDownlineExists
		}

		upline, hitSelf, err := walkUpline(userRepo, *referrerID, newUserID)
		if err != nil {
			return err
		}
		if hitSelf {
			return ErrReferralCycle
		}
		result.Upline = upline
		result.Chain = chainFromUpline(upline)
		if result.AlreadyLinked {
			return nil
		}

		affected, err := userRepo.LinkReferrer(newUserID, result.Chain.UserIDs())
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrReferralAlreadyLinked
		}
		if err := userRepo.IncrementDirectReferrals(*referrerID); err != nil {
			return err
		}
		if err := userRepo.IncrementNetworkSize(upline); err != nil {
			return err
		}
		result.Linked = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Linked {
		logger.Infow("referral_link_created",
			"user_id", newUserID,
			"referrer_id", *referrerID,
			"chain", result.Chain.UserIDs(),
			"upline_size", len(result.Upline),
		)
	}

	awarded, evalErr := s.EvaluateStructureBonuses(result.Upline, settings)
	result.AwardedBonuses = awarded
	if evalErr != nil {
		logger.Warnw("referral_structure_bonus_evaluate_failed",
			"user_id", newUserID,
			"upline_size", len(result.Upline),
			"error", evalErr,
		)
		s.enqueueStructureBonusEvaluate(result.Upline, "register")
	}
	return result, nil
}

// EvaluateStructureBonuses 评估一组用户是否达到结构奖励门槛，可安全重复执行
func (s *ReferralService) EvaluateStructureBonuses(userIDs []uint, settings ReferralSettings) ([]uint, error) {
	awarded := make([]uint, 0)
	if len(userIDs) == 0 || !settings.IsOpenAt(time.Now()) {
		return awarded, nil
	}
	users, err := s.userRepo.ListByIDs(userIDs)
	if err != nil {
		return awarded, err
	}
	var errs []error
	for i := range users {
		user := &users[i]
		if !qualifiesForStructureBonus(user, settings) {
			continue
		}
		inserted, err := s.awardStructureBonus(user, settings)
		if err != nil {
			errs = append(errs, fmt.Errorf("user %d: %w", user.ID, err))
			continue
		}
		if inserted {
			awarded = append(awarded, user.ID)
		}
	}
	if len(errs) > 0 {
		return awarded, fmt.Errorf("%w: %w", ErrStructureBonusAwardFailed, errors.Join(errs...))
	}
	return awarded, nil
}

// EvaluateStructureBonus 使用当前配置评估指定用户（供异步任务重试）
func (s *ReferralService) EvaluateStructureBonus(userIDs []uint) ([]uint, error) {
	settings, err := s.CurrentSettings()
	if err != nil {
		return nil, err
	}
	return s.EvaluateStructureBonuses(userIDs, settings)
}

// ReconcileStructureBonuses 按 ID 游标扫描已达标但未发放的用户并补发
func (s *ReferralService) ReconcileStructureBonuses(batchSize int) (*StructureBonusReconcileResult, error) {
	if batchSize <= 0 {
		batchSize = defaultReconcileBatchSize
	}
	result := &StructureBonusReconcileResult{Awarded: []uint{}}
	settings, err := s.CurrentSettings()
	if err != nil {
		return nil, err
	}
	if !settings.IsOpenAt(time.Now()) {
		return result, nil
	}

	afterID := uint(0)
	for {
		candidates, err := s.userRepo.ListStructureBonusCandidates(settings.StructureBonusThreshold, afterID, batchSize)
		if err != nil {
			return result, err
		}
		if len(candidates) == 0 {
			break
		}
		for i := range candidates {
			user := &candidates[i]
			afterID = user.ID
			result.Scanned++
			inserted, err := s.awardStructureBonus(user, settings)
			if err != nil {
				result.Failed++
				logger.Warnw("referral_structure_bonus_reconcile_failed", "user_id", user.ID, "error", err)
				continue
			}
			if inserted {
				result.Awarded = append(result.Awarded, user.ID)
			}
		}
		if len(candidates) < batchSize {
			break
		}
	}
	if result.Scanned > 0 {
		logger.Infow("referral_structure_bonus_reconciled",
			"scanned", result.Scanned,
			"awarded", len(result.Awarded),
			"failed", result.Failed,
		)
	}
	return result, nil
}

// awardStructureBonus 写入结构奖励并标记用户，唯一索引冲突视为已发放
func (s *ReferralService) awardStructureBonus(user *models.User, settings ReferralSettings) (bool, error) {
	amount := models.NewMoneyFromDecimal(decimal.NewFromFloat(settings.StructureBonusAmount))
	inserted := false
	err := s.userRepo.Transaction(func(tx *gorm.DB) error {
		referralRepo := s.referralRepo.WithTx(tx)
		userRepo := s.userRepo.WithTx(tx)
		bonus := &models.StructureBonus{
			UserID:      user.ID,
			Amount:      amount,
			NetworkSize: user.NetworkSize,
			Threshold:   settings.StructureBonusThreshold,
			AwardedAt:   time.Now(),
		}
		created, err := referralRepo.CreateStructureBonusIfAbsent(bonus)
		if err != nil {
			return err
		}
		flagAmount := amount.Decimal
		if !created {
			existing, err := referralRepo.GetStructureBonusByUserID(user.ID)
			if err != nil {
				return err
			}
			if existing != nil {
				flagAmount = existing.Amount.Decimal
			}
		}
		if _, err := userRepo.MarkStructureBonusEarned(user.ID, flagAmount); err != nil {
			return err
		}
		inserted = created
		return nil
	})
	if err != nil {
		return false, err
	}
	if inserted {
		logger.Infow("referral_structure_bonus_awarded",
			"user_id", user.ID,
			"amount", amount.String(),
			"network_size", user.NetworkSize,
			"threshold", settings.StructureBonusThreshold,
		)
	}
	return inserted, nil
}

func (s *ReferralService) enqueueStructureBonusEvaluate(userIDs []uint, reason string) {
	if len(userIDs) == 0 {
		return
	}
	if s.queueClient == nil || !s.queueClient.Enabled() {
		logger.Warnw("referral_structure_bonus_retry_skipped",
			"reason", reason,
			"error", ErrQueueUnavailable,
		)
		return
	}
	if err := s.queueClient.EnqueueStructureBonusEvaluate(queue.StructureBonusEvaluatePayload{
		UserIDs: userIDs,
		Reason:  reason,
	}); err != nil {
		logger.Errorw("referral_structure_bonus_enqueue_failed",
			"reason", reason,
			"user_count", len(userIDs),
			"error", err,
		)
	}
}

// OnPurchaseCompleted 记录一笔已完成的购买，并在同一事务内发放三级佣金
func (s *ReferralService) OnPurchaseCompleted(userID uint, amount decimal.Decimal) (*PurchaseCommissionResult, error) {
	// 四舍五入到分后为 0 的金额同样拒绝
	if !models.NewMoneyFromDecimal(amount).IsPositive() {
		return nil, ErrPurchaseAmountInvalid
	}
	settings, err := s.CurrentSettings()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	result := &PurchaseCommissionResult{Commissions: []models.ReferralCommission{}}

	err = s.purchaseRepo.Transaction(func(tx *gorm.DB) error {
		user, err := s.userRepo.WithTx(tx).GetByID(userID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrNotFound
		}
		purchase := &models.Purchase{
			UserID:           userID,
			Amount:           models.NewMoneyFromDecimal(amount),
			Status:           constants.PurchaseStatusCompleted,
			ReferralEligible: settings.IsOpenAt(now),
			CompletedAt:      &now,
		}
		if err := s.purchaseRepo.WithTx(tx).Create(purchase); err != nil {
			return err
		}
		result.Purchase = purchase
		if !purchase.ReferralEligible {
			return nil
		}
		commissions, err := s.creditCommissionsTx(tx, purchase, user, settings)
		if err != nil {
			return err
		}
		result.Commissions = commissions
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logCommissions(result.Commissions)
	return result, nil
}

// creditCommissionsTx 在调用方事务内写入佣金记录并累加上级收益
func (s *ReferralService) creditCommissionsTx(tx *gorm.DB, purchase *models.Purchase, purchaser *models.User, settings ReferralSettings) ([]models.ReferralCommission, error) {
	plans, err := CalculateCommissions(BuildAncestorChain(purchaser), purchase.Amount.Decimal, settings)
	if err != nil {
		return nil, err
	}
	referralRepo := s.referralRepo.WithTx(tx)
	userRepo := s.userRepo.WithTx(tx)
	commissions := make([]models.ReferralCommission, 0, len(plans))
	for _, plan := range plans {
		commission := models.ReferralCommission{
			UserID:           plan.UserID,
			FromUserID:       purchaser.ID,
			PurchaseID:       purchase.ID,
			Level:            plan.Level,
			Rate:             plan.Rate,
			PurchaseAmount:   purchase.Amount,
			CommissionAmount: models.NewMoneyFromDecimal(plan.Amount),
			Status:           constants.ReferralCommissionStatusPending,
		}
		if err := referralRepo.CreateCommission(&commission); err != nil {
			return nil, err
		}
		if err := userRepo.AddReferralEarnings(plan.UserID, plan.Level, plan.Amount); err != nil {
			return nil, fmt.Errorf("credit referral earnings for user %d: %w", plan.UserID, err)
		}
		commissions = append(commissions, commission)
	}
	return commissions, nil
}

func (s *ReferralService) logCommissions(commissions []models.ReferralCommission) {
	for _, commission := range commissions {
		logger.Infow("referral_commission_credited",
			"purchase_id", commission.PurchaseID,
			"user_id", commission.UserID,
			"from_user_id", commission.FromUserID,
			"commission_level", commission.Level,
			"rate", commission.Rate.String(),
			"amount", commission.CommissionAmount.String(),
		)
	}
}

// GetUserReferralStats 用户推荐统计
func (s *ReferralService) GetUserReferralStats(userID uint) (*UserReferralStats, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	settings, err := s.CurrentSettings()
	if err != nil {
		return nil, err
	}

	counts := make([]int64, constants.ReferralMaxLevel)
	for level := constants.ReferralLevel1; level <= constants.ReferralMaxLevel; level++ {
		count, err := s.userRepo.CountDownlineByLevel(userID, level)
		if err != nil {
			return nil, err
		}
		counts[level-1] = count
	}
	pending, err := s.referralRepo.SumCommissions(userID, constants.ReferralCommissionStatusPending)
	if err != nil {
		return nil, err
	}
	paid, err := s.referralRepo.SumCommissions(userID, constants.ReferralCommissionStatusPaid)
	if err != nil {
		return nil, err
	}

	return &UserReferralStats{
		UserID:                  user.ID,
		ReferralCode:            user.ReferralCode,
		ReferralLink:            s.BuildReferralLink(user.ReferralCode),
		ReferredByID:            user.ReferredByID,
		DirectReferrals:         user.DirectReferrals,
		TotalReferrals:          user.TotalReferrals,
		NetworkSize:             user.NetworkSize,
		Level1Count:             counts[0],
		Level2Count:             counts[1],
		Level3Count:             counts[2],
		ReferralEarnings:        user.ReferralEarnings,
		Level1Earnings:          user.Level1Earnings,
		Level2Earnings:          user.Level2Earnings,
		Level3Earnings:          user.Level3Earnings,
		PendingCommission:       models.NewMoneyFromDecimal(pending),
		PaidCommission:          models.NewMoneyFromDecimal(paid),
		StructureBonusEarned:    user.StructureBonusEarned,
		StructureBonusAmount:    user.StructureBonusAmount,
		StructureBonusThreshold: settings.StructureBonusThreshold,
		ProgramOpen:             settings.IsOpenAt(time.Now()),
	}, nil
}

// BuildReferralLink 生成推荐注册链接
func (s *ReferralService) BuildReferralLink(code string) string {
	code = normalizeReferralCode(code)
	if code == "" {
		return ""
	}
	return s.appURL + referralSignupPath + "?ref=" + code
}

// GetReferralTree 按层级列出下线，maxLevel 缺省为 3 并限制在 1-3
func (s *ReferralService) GetReferralTree(userID uint, maxLevel int) (*ReferralTree, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	maxLevel = normalizeTreeDepth(maxLevel)

	tree := &ReferralTree{
		UserID:   userID,
		MaxLevel: maxLevel,
		Levels:   make([]ReferralTreeLevel, 0, maxLevel),
	}
	for level := constants.ReferralLevel1; level <= maxLevel; level++ {
		users, err := s.userRepo.ListDownlineByLevel(userID, level)
		if err != nil {
			return nil, err
		}
		members := make([]ReferralTreeMember, 0, len(users))
		for _, member := range users {
			if member.ID == userID {
				logger.Warnw("referral_ancestor_cycle_detected", "user_id", userID, "ancestor_level", level)
				continue
			}
			members = append(members, ReferralTreeMember{
				ID:              member.ID,
				Level:           level,
				Email:           member.Email,
				DisplayName:     member.DisplayName,
				ReferralCode:    member.ReferralCode,
				ReferredByID:    member.ReferredByID,
				DirectReferrals: member.DirectReferrals,
				NetworkSize:     member.NetworkSize,
				JoinedAt:        member.CreatedAt,
			})
		}
		tree.Levels = append(tree.Levels, ReferralTreeLevel{
			Level:   level,
			Count:   len(members),
			Members: members,
		})
		tree.Total += len(members)
	}
	return tree, nil
}

func normalizeTreeDepth(maxLevel int) int {
	if maxLevel <= 0 {
		return constants.ReferralMaxLevel
	}
	if maxLevel > constants.ReferralMaxLevel {
		return constants.ReferralMaxLevel
	}
	return maxLevel
}

// ListCommissions 佣金列表
func (s *ReferralService) ListCommissions(filter repository.ReferralCommissionListFilter) ([]repository.ReferralCommissionRow, int64, error) {
	return s.referralRepo.ListCommissions(filter)
}

// ListUserCommissions 用户自己的佣金记录
func (s *ReferralService) ListUserCommissions(userID uint, status string, page, pageSize int) ([]repository.ReferralCommissionRow, int64, error) {
	if userID == 0 {
		return nil, 0, ErrNotFound
	}
	status = strings.TrimSpace(status)
	if status != "" && status != constants.ReferralCommissionStatusPending && status != constants.ReferralCommissionStatusPaid {
		return nil, 0, ErrReferralCommissionStatusInvalid
	}
	return s.referralRepo.ListCommissions(repository.ReferralCommissionListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   userID,
		Status:   status,
	})
}

// PayCommission 结算佣金（pending -> paid），只记录结算时间
func (s *ReferralService) PayCommission(id uint) (*models.ReferralCommission, error) {
	var paid *models.ReferralCommission
	err := s.referralRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.referralRepo.WithTx(tx)
		commission, err := repo.GetCommissionByIDForUpdate(id)
		if err != nil {
			return err
		}
		if commission == nil {
			return ErrNotFound
		}
		if commission.Status != constants.ReferralCommissionStatusPending {
			return ErrReferralCommissionStatusInvalid
		}
		affected, err := repo.MarkCommissionPaid(id, time.Now())
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrReferralCommissionStatusInvalid
		}
		paid, err = repo.GetCommissionByID(id)
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("referral_commission_paid",
		"commission_id", id,
		"user_id", paid.UserID,
		"amount", paid.CommissionAmount.String(),
	)
	return paid, nil
}

// GetAdminReferralStats 后台推荐计划概览
func (s *ReferralService) GetAdminReferralStats() (*AdminReferralStats, error) {
	settings, err := s.CurrentSettings()
	if err != nil {
		return nil, err
	}
	stats := &AdminReferralStats{Settings: settings}

	if stats.TotalUsers, err = s.userRepo.CountAll(); err != nil {
		return nil, err
	}
	if stats.ReferredUsers, err = s.userRepo.CountReferred(); err != nil {
		return nil, err
	}
	connections := []*int64{&stats.Level1Connections, &stats.Level2Connections, &stats.Level3Connections}
	for idx, target := range connections {
		count, err := s.userRepo.CountReferralConnections(idx + 1)
		if err != nil {
			return nil, err
		}
		*target = count
	}

	total, err := s.referralRepo.SumCommissions(0, "")
	if err != nil {
		return nil, err
	}
	paid, err := s.referralRepo.SumCommissions(0, constants.ReferralCommissionStatusPaid)
	if err != nil {
		return nil, err
	}
	stats.TotalCommissions = models.NewMoneyFromDecimal(total)
	stats.PaidCommissions = models.NewMoneyFromDecimal(paid)
	stats.PendingCommissions = models.NewMoneyFromDecimal(total.Sub(paid))
	if stats.CommissionCount, err = s.referralRepo.CountCommissions(0); err != nil {
		return nil, err
	}

	bonusCount, bonusTotal, err := s.referralRepo.SummarizeStructureBonuses()
	if err != nil {
		return nil, err
	}
	stats.StructureBonusCount = bonusCount
	stats.StructureBonusTotal = models.NewMoneyFromDecimal(bonusTotal)

	top, err := s.userRepo.ListTopByNetworkSize(referralTopReferrersLimit)
	if err != nil {
		return nil, err
	}
	stats.TopReferrers = make([]TopReferrerItem, 0, len(top))
	for _, user := range top {
		stats.TopReferrers = append(stats.TopReferrers, TopReferrerItem{
			UserID:           user.ID,
			Email:            user.Email,
			ReferralCode:     user.ReferralCode,
			DirectReferrals:  user.DirectReferrals,
			NetworkSize:      user.NetworkSize,
			ReferralEarnings: user.ReferralEarnings,
		})
	}

	recent, _, err := s.referralRepo.ListCommissions(repository.ReferralCommissionListFilter{
		Page:     1,
		PageSize: referralRecentCommissionCap,
	})
	if err != nil {
		return nil, err
	}
	stats.RecentCommissions = recent
	if stats.RecentBonuses, err = s.referralRepo.ListRecentStructureBonuses(referralRecentBonusCap); err != nil {
		return nil, err
	}
	return stats, nil
}

// GenerateUniqueReferralCode 生成未被占用的推荐码
func (s *ReferralService) GenerateUniqueReferralCode() (string, error) {
	for i := 0; i < constants.ReferralCodeMaxAttempts; i++ {
		code, err := generateReferralCode()
		if err != nil {
			return "", err
		}
		exists, err := s.userRepo.ExistsByReferralCode(code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", ErrReferralCodeGenerateFailed
}

func qualifiesForStructureBonus(user *models.User, settings ReferralSettings) bool {
	if user == nil || user.StructureBonusEarned {
		return false
	}
	return settings.StructureBonusThreshold > 0 && user.NetworkSize >= int64(settings.StructureBonusThreshold)
}

func normalizeReferralCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func generateReferralCode() (string, error) {
	alphabet := constants.ReferralCodeAlphabet
	var builder strings.Builder
	builder.Grow(constants.ReferralCodeLength)
	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < constants.ReferralCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		builder.WriteByte(alphabet[n.Int64()])
	}
	return builder.String(), nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}

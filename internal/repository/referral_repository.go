package repository

import (
	"errors"
	"time"

	"github.com/hashburst/internal/constants"
	"github.com/hashburst/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReferralRepository 推荐佣金与结构奖励数据访问接口
type ReferralRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) ReferralRepository

	CreateCommission(commission *models.ReferralCommission) error
	GetCommissionByID(id uint) (*models.ReferralCommission, error)
	GetCommissionByIDForUpdate(id uint) (*models.ReferralCommission, error)
	ListCommissionsByPurchase(purchaseID uint) ([]models.ReferralCommission, error)
	MarkCommissionPaid(id uint, paidAt time.Time) (int64, error)
	ListCommissions(filter ReferralCommissionListFilter) ([]ReferralCommissionRow, int64, error)
	SumCommissions(userID uint, status string) (decimal.Decimal, error)
	CountCommissions(userID uint) (int64, error)

	CreateStructureBonusIfAbsent(bonus *models.StructureBonus) (bool, error)
	GetStructureBonusByUserID(userID uint) (*models.StructureBonus, error)
	ListRecentStructureBonuses(limit int) ([]StructureBonusRow, error)
	SummarizeStructureBonuses() (int64, decimal.Decimal, error)
}

// GormReferralRepository GORM 实现
type GormReferralRepository struct {
	db *gorm.DB
}

// NewReferralRepository 创建推荐仓库
func NewReferralRepository(db *gorm.DB) *GormReferralRepository {
	return &GormReferralRepository{db: db}
}

// WithTx 绑定事务
func (r *GormReferralRepository) WithTx(tx *gorm.DB) ReferralRepository {
	if tx == nil {
		return r
	}
	return &GormReferralRepository{db: tx}
}

// Transaction 执行事务
func (r *GormReferralRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// CreateCommission 创建佣金记录
func (r *GormReferralRepository) CreateCommission(commission *models.ReferralCommission) error {
	return r.db.Create(commission).Error
}

// GetCommissionByID 根据 ID 获取佣金记录
func (r *GormReferralRepository) GetCommissionByID(id uint) (*models.ReferralCommission, error) {
	return r.getCommission(r.db, id)
}

// GetCommissionByIDForUpdate 加锁读取佣金记录
func (r *GormReferralRepository) GetCommissionByIDForUpdate(id uint) (*models.ReferralCommission, error) {
	return r.getCommission(r.db.Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormReferralRepository) getCommission(query *gorm.DB, id uint) (*models.ReferralCommission, error) {
	if id == 0 {
		return nil, nil
	}
	var commission models.ReferralCommission
	if err := query.First(&commission, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &commission, nil
}

// ListCommissionsByPurchase 某笔购买产生的全部佣金（按层级）
func (r *GormReferralRepository) ListCommissionsByPurchase(purchaseID uint) ([]models.ReferralCommission, error) {
	var rows []models.ReferralCommission
	if err := r.db.Where("purchase_id = ?", purchaseID).Order("level ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// MarkCommissionPaid 待结算佣金置为已结算
func (r *GormReferralRepository) MarkCommissionPaid(id uint, paidAt time.Time) (int64, error) {
	result := r.db.Model(&models.ReferralCommission{}).
		Where("id = ? AND status = ?", id, constants.ReferralCommissionStatusPending).
		Updates(map[string]interface{}{
			"status":     constants.ReferralCommissionStatusPaid,
			"paid_at":    paidAt,
			"updated_at": paidAt,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ListCommissions 佣金列表，附带收益人与来源用户信息
func (r *GormReferralRepository) ListCommissions(filter ReferralCommissionListFilter) ([]ReferralCommissionRow, int64, error) {
	query := r.db.Table("referral_commissions AS rc").
		Joins("LEFT JOIN users AS earner ON earner.id = rc.user_id").
		Joins("LEFT JOIN users AS buyer ON buyer.id = rc.from_user_id")
	if filter.UserID != 0 {
		query = query.Where("rc.user_id = ?", filter.UserID)
	}
	if filter.FromUserID != 0 {
		query = query.Where("rc.from_user_id = ?", filter.FromUserID)
	}
	if filter.PurchaseID != 0 {
		query = query.Where("rc.purchase_id = ?", filter.PurchaseID)
	}
	if filter.Level != 0 {
		query = query.Where("rc.level = ?", filter.Level)
	}
	if filter.Status != "" {
		query = query.Where("rc.status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	rows := make([]ReferralCommissionRow, 0)
	if err := query.Select(
		"rc.id AS id",
		"rc.user_id AS user_id",
		"earner.email AS user_email",
		"rc.from_user_id AS from_user_id",
		"buyer.email AS from_user_email",
		"buyer.referral_code AS from_user_referral_code",
		"rc.purchase_id AS purchase_id",
		"rc.level AS level",
		"rc.rate AS rate",
		"rc.purchase_amount AS purchase_amount",
		"rc.commission_amount AS commission_amount",
		"rc.status AS status",
		"rc.paid_at AS paid_at",
		"rc.created_at AS created_at",
	).Order("rc.id DESC").Scan(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// SumCommissions 佣金合计，userID 为 0 时统计全站，status 为空时不限状态
func (r *GormReferralRepository) SumCommissions(userID uint, status string) (decimal.Decimal, error) {
	query := r.db.Model(&models.ReferralCommission{})
	if userID != 0 {
		query = query.Where("user_id = ?", userID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var row struct {
		Total decimal.Decimal `gorm:"column:total"`
	}
	if err := query.Select("COALESCE(SUM(commission_amount), 0) AS total").Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total.Round(2), nil
}

// CountCommissions 佣金笔数，userID 为 0 时统计全站
func (r *GormReferralRepository) CountCommissions(userID uint) (int64, error) {
	query := r.db.Model(&models.ReferralCommission{})
	if userID != 0 {
		query = query.Where("user_id = ?", userID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CreateStructureBonusIfAbsent 按 user_id 幂等写入结构奖励，返回是否实际插入
func (r *GormReferralRepository) CreateStructureBonusIfAbsent(bonus *models.StructureBonus) (bool, error) {
	if bonus == nil || bonus.UserID == 0 {
		return false, nil
	}
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(bonus)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// GetStructureBonusByUserID 获取用户的结构奖励记录
func (r *GormReferralRepository) GetStructureBonusByUserID(userID uint) (*models.StructureBonus, error) {
	if userID == 0 {
		return nil, nil
	}
	var bonus models.StructureBonus
	if err := r.db.Where("user_id = ?", userID).First(&bonus).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &bonus, nil
}

// ListRecentStructureBonuses 最近发放的结构奖励
func (r *GormReferralRepository) ListRecentStructureBonuses(limit int) ([]StructureBonusRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows := make([]StructureBonusRow, 0)
	if err := r.db.Table("structure_bonuses AS sb").
		Joins("LEFT JOIN users AS u ON u.id = sb.user_id").
		Select(
			"sb.id AS id",
			"sb.user_id AS user_id",
			"u.email AS user_email",
			"u.referral_code AS referral_code",
			"sb.amount AS amount",
			"sb.network_size AS network_size",
			"sb.awarded_at AS awarded_at",
		).
		Order("sb.awarded_at DESC").
		Order("sb.id DESC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// SummarizeStructureBonuses 结构奖励发放人数与总额
func (r *GormReferralRepository) SummarizeStructureBonuses() (int64, decimal.Decimal, error) {
	var row struct {
		Count int64           `gorm:"column:count"`
		Total decimal.Decimal `gorm:"column:total"`
	}
	if err := r.db.Model(&models.StructureBonus{}).
		Select("COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total").
		Scan(&row).Error; err != nil {
		return 0, decimal.Zero, err
	}
	return row.Count, row.Total.Round(2), nil
}

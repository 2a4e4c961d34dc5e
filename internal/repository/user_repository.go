package repository

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashburst/internal/constants"
	"github.com/hashburst/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) UserRepository

	GetByEmail(email string) (*models.User, error)
	GetByID(id uint) (*models.User, error)
	GetByReferralCode(code string) (*models.User, error)
	ExistsByReferralCode(code string) (bool, error)
	ListByIDs(ids []uint) ([]models.User, error)
	Create(user *models.User) error
	UpdateLastLogin(userID uint, at time.Time) error
	UpdatePassword(userID uint, passwordHash string, invalidBefore time.Time) error
	UpdateStatus(userID uint, status string, at time.Time) error
	List(filter UserListFilter) ([]models.User, int64, error)

	LinkReferrer(userID uint, chain []uint) (int64, error)
	IncrementDirectReferrals(userID uint) error
	IncrementNetworkSize(userIDs []uint) error
	AddReferralEarnings(userID uint, level int, amount decimal.Decimal) error
	MarkStructureBonusEarned(userID uint, amount decimal.Decimal) (int64, error)
	ListStructureBonusCandidates(threshold int, afterID uint, limit int) ([]models.User, error)
	ListDownlineByLevel(ancestorID uint, level int) ([]models.User, error)
	CountDownlineByLevel(ancestorID uint, level int) (int64, error)
	CountReferralConnections(level int) (int64, error)
	CountAll() (int64, error)
	CountReferred() (int64, error)
	ListTopByNetworkSize(limit int) ([]models.User, error)
}

// GormUserRepository GORM 实现
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓库
func NewUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// WithTx 绑定事务
func (r *GormUserRepository) WithTx(tx *gorm.DB) UserRepository {
	if tx == nil {
		return r
	}
	return &GormUserRepository{db: tx}
}

// Transaction 执行事务
func (r *GormUserRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// GetByEmail 根据邮箱获取用户
func (r *GormUserRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByID 根据 ID 获取用户
func (r *GormUserRepository) GetByID(id uint) (*models.User, error) {
	if id == 0 {
		return nil, nil
	}
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByReferralCode 根据推荐码获取用户（推荐码统一大写存储）
func (r *GormUserRepository) GetByReferralCode(code string) (*models.User, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, nil
	}
	var user models.User
	if err := r.db.Where("referral_code = ?", code).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// ExistsByReferralCode 推荐码是否已被占用（含软删除用户）
func (r *GormUserRepository) ExistsByReferralCode(code string) (bool, error) {
	var count int64
	if err := r.db.Unscoped().Model(&models.User{}).
		Where("referral_code = ?", strings.ToUpper(strings.TrimSpace(code))).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListByIDs 批量获取用户
func (r *GormUserRepository) ListByIDs(ids []uint) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	var users []models.User
	if err := r.db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Create 创建用户
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// UpdateLastLogin 只写最后登录时间，不覆盖推荐计数与收益列
func (r *GormUserRepository) UpdateLastLogin(userID uint, at time.Time) error {
	return r.db.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("last_login_at", at).Error
}

// UpdatePassword 写入新密码哈希并递增 token 版本
func (r *GormUserRepository) UpdatePassword(userID uint, passwordHash string, invalidBefore time.Time) error {
	return r.db.Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"password_hash":        passwordHash,
			"token_version":        gorm.Expr("token_version + 1"),
			"token_invalid_before": invalidBefore,
			"updated_at":           invalidBefore,
		}).Error
}

// UpdateStatus 更新账号状态
func (r *GormUserRepository) UpdateStatus(userID uint, status string, at time.Time) error {
	return r.db.Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": at,
		}).Error
}

// List 用户列表
func (r *GormUserRepository) List(filter UserListFilter) ([]models.User, int64, error) {
	query := r.db.Model(&models.User{})

	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		condition, argCount := buildLikeCondition(r.db, []string{"email", "display_name", "referral_code"})
		query = query.Where(condition, repeatLikeArgs("%"+keyword+"%", argCount)...)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ReferredByID != 0 {
		query = query.Where("referred_by_id = ?", filter.ReferredByID)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var users []models.User
	if err := query.Order("id DESC").Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// LinkReferrer 写入推荐关系，chain 依次为一、二、三级上级。
// 仅在用户尚未绑定上级时生效，返回受影响行数。
func (r *GormUserRepository) LinkReferrer(userID uint, chain []uint) (int64, error) {
	if userID == 0 || len(chain) == 0 {
		return 0, nil
	}
	updates := map[string]interface{}{
		"referred_by_id":     chain[0],
		"level2_ancestor_id": nil,
		"level3_ancestor_id": nil,
	}
	if len(chain) > 1 {
		updates["level2_ancestor_id"] = chain[1]
	}
	if len(chain) > 2 {
		updates["level3_ancestor_id"] = chain[2]
	}
	result := r.db.Model(&models.User{}).
		Where("id = ? AND referred_by_id IS NULL", userID).
		Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// IncrementDirectReferrals 直推人数 +1
func (r *GormUserRepository) IncrementDirectReferrals(userID uint) error {
	if userID == 0 {
		return nil
	}
	return r.db.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("direct_referrals", gorm.Expr("direct_referrals + 1")).Error
}

// IncrementNetworkSize 整条上线的网络规模与下线总数各 +1
func (r *GormUserRepository) IncrementNetworkSize(userIDs []uint) error {
	if len(userIDs) == 0 {
		return nil
	}
	return r.db.Model(&models.User{}).
		Where("id IN ?", userIDs).
		UpdateColumns(map[string]interface{}{
			"network_size":    gorm.Expr("network_size + 1"),
			"total_referrals": gorm.Expr("total_referrals + 1"),
		}).Error
}

// AddReferralEarnings 累加佣金总额与对应层级佣金
func (r *GormUserRepository) AddReferralEarnings(userID uint, level int, amount decimal.Decimal) error {
	column, err := levelEarningsColumn(level)
	if err != nil {
		return err
	}
	amount = amount.Round(2)
	result := r.db.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumns(map[string]interface{}{
			"referral_earnings": gorm.Expr("referral_earnings + ?", amount),
			column:              gorm.Expr(column+" + ?", amount),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkStructureBonusEarned 标记结构奖励已发放，已标记时不重复写入
func (r *GormUserRepository) MarkStructureBonusEarned(userID uint, amount decimal.Decimal) (int64, error) {
	result := r.db.Model(&models.User{}).
		Where("id = ? AND structure_bonus_earned = ?", userID, false).
		UpdateColumns(map[string]interface{}{
			"structure_bonus_earned": true,
			"structure_bonus_amount": amount.Round(2),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ListStructureBonusCandidates 按 ID 游标列出达标但未发放结构奖励的用户
func (r *GormUserRepository) ListStructureBonusCandidates(threshold int, afterID uint, limit int) ([]models.User, error) {
	if threshold < 1 {
		return []models.User{}, nil
	}
	if limit <= 0 {
		limit = 100
	}
	var users []models.User
	if err := r.db.
		Where("network_size >= ? AND structure_bonus_earned = ? AND id > ?", threshold, false, afterID).
		Order("id ASC").
		Limit(limit).
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// ListDownlineByLevel 列出某用户指定层级的下线
func (r *GormUserRepository) ListDownlineByLevel(ancestorID uint, level int) ([]models.User, error) {
	column, err := ancestorColumn(level)
	if err != nil {
		return nil, err
	}
	var users []models.User
	if err := r.db.Where(column+" = ?", ancestorID).Order("id ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// CountDownlineByLevel 统计某用户指定层级的下线人数
func (r *GormUserRepository) CountDownlineByLevel(ancestorID uint, level int) (int64, error) {
	column, err := ancestorColumn(level)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := r.db.Model(&models.User{}).Where(column+" = ?", ancestorID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountReferralConnections 统计全站指定层级的推荐关系数量
func (r *GormUserRepository) CountReferralConnections(level int) (int64, error) {
	column, err := ancestorColumn(level)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := r.db.Model(&models.User{}).Where(column + " IS NOT NULL").Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountAll 用户总数
func (r *GormUserRepository) CountAll() (int64, error) {
	var count int64
	if err := r.db.Model(&models.User{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountReferred 有上级的用户数
func (r *GormUserRepository) CountReferred() (int64, error) {
	return r.CountReferralConnections(constants.ReferralLevel1)
}

// ListTopByNetworkSize 网络规模排行
func (r *GormUserRepository) ListTopByNetworkSize(limit int) ([]models.User, error) {
	if limit <= 0 {
		limit = 10
	}
	var users []models.User
	if err := r.db.Where("network_size > 0").
		Order("network_size DESC").
		Order("id ASC").
		Limit(limit).
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func ancestorColumn(level int) (string, error) {
	switch level {
	case constants.ReferralLevel1:
		return "referred_by_id", nil
	case constants.ReferralLevel2:
		return "level2_ancestor_id", nil
	case constants.ReferralLevel3:
		return "level3_ancestor_id", nil
	default:
		return "", fmt.Errorf("unsupported referral level: %d", level)
	}
}

func levelEarningsColumn(level int) (string, error) {
	switch level {
	case constants.ReferralLevel1:
		return "level1_earnings", nil
	case constants.ReferralLevel2:
		return "level2_earnings", nil
	case constants.ReferralLevel3:
		return "level3_earnings", nil
	default:
		return "", fmt.Errorf("unsupported referral level: %d", level)
	}
}

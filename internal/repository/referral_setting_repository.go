package repository

import (
	"errors"

	"github.com/hashburst/internal/constants"
	"github.com/hashburst/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReferralSettingRepository 推荐计划配置数据访问接口
type ReferralSettingRepository interface {
	Get() (*models.ReferralSetting, error)
	Save(setting *models.ReferralSetting) error
	CreateIfAbsent(setting *models.ReferralSetting) error
}

// GormReferralSettingRepository GORM 实现
type GormReferralSettingRepository struct {
	db *gorm.DB
}

// NewReferralSettingRepository 创建推荐配置仓库
func NewReferralSettingRepository(db *gorm.DB) *GormReferralSettingRepository {
	return &GormReferralSettingRepository{db: db}
}

// Get 读取单例配置，不存在时返回 nil
func (r *GormReferralSettingRepository) Get() (*models.ReferralSetting, error) {
	var setting models.ReferralSetting
	if err := r.db.First(&setting, constants.ReferralSettingsSingletonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &setting, nil
}

// Save 覆盖写入单例配置
func (r *GormReferralSettingRepository) Save(setting *models.ReferralSetting) error {
	if setting == nil {
		return nil
	}
	setting.ID = constants.ReferralSettingsSingletonID
	existing, err := r.Get()
	if err != nil {
		return err
	}
	if existing == nil {
		return r.db.Create(setting).Error
	}
	setting.CreatedAt = existing.CreatedAt
	return r.db.Save(setting).Error
}

// CreateIfAbsent 首次写入单例配置，已存在时忽略
func (r *GormReferralSettingRepository) CreateIfAbsent(setting *models.ReferralSetting) error {
	if setting == nil {
		return nil
	}
	setting.ID = constants.ReferralSettingsSingletonID
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(setting).Error
}

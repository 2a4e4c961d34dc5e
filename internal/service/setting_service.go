package service

import (
	"context"
	"time"

	"github.com/hashburst/internal/cache"
	"github.com/hashburst/internal/logger"
	"github.com/hashburst/internal/repository"
)

// SettingService 推荐计划配置服务
type SettingService struct {
	repo     repository.ReferralSettingRepository
	cacheTTL time.Duration
}

// NewSettingService 创建配置服务
func NewSettingService(repo repository.ReferralSettingRepository, cacheTTL time.Duration) *SettingService {
	if cacheTTL <= 0 {
		cacheTTL = cache.DefaultReferralSettingsTTL
	}
	return &SettingService{repo: repo, cacheTTL: cacheTTL}
}

// EnsureReferralSettings 配置行不存在时写入默认值
func (s *SettingService) EnsureReferralSettings() error {
	if s == nil || s.repo == nil {
		return nil
	}
	return s.repo.CreateIfAbsent(referralSettingsToModel(DefaultReferralSettings()))
}

// GetReferralSettings 读取当前推荐计划配置（缓存 -> 数据库 -> 默认值）
func (s *SettingService) GetReferralSettings() (ReferralSettings, error) {
	if s == nil || s.repo == nil {
		return DefaultReferralSettings(), nil
	}
	ctx := context.Background()
	cached, hit, err := cache.GetReferralSetting(ctx)
	if err != nil {
		logger.Warnw("referral_settings_cache_get_failed", "error", err)
	}
	if hit && cached != nil {
		return referralSettingsFromModel(cached), nil
	}

	row, err := s.repo.Get()
	if err != nil {
		return ReferralSettings{}, err
	}
	if row == nil {
		if err := s.EnsureReferralSettings(); err != nil {
			return ReferralSettings{}, err
		}
		row, err = s.repo.Get()
		if err != nil {
			return ReferralSettings{}, err
		}
		if row == nil {
			return DefaultReferralSettings(), nil
		}
	}
	if err := cache.SetReferralSetting(ctx, row, s.cacheTTL); err != nil {
		logger.Warnw("referral_settings_cache_set_failed", "error", err)
	}
	return referralSettingsFromModel(row), nil
}

// UpdateReferralSettings 管理员部分更新推荐计划配置，仅影响之后产生的佣金
func (s *SettingService) UpdateReferralSettings(adminID uint, patch ReferralSettingsPatch) (ReferralSettings, error) {
	current, err := s.GetReferralSettings()
	if err != nil {
		return ReferralSettings{}, err
	}
	next := patch.Apply(current)
	if err := ValidateReferralSettings(next); err != nil {
		return ReferralSettings{}, err
	}
	if adminID != 0 {
		id := adminID
		next.UpdatedByAdminID = &id
	}

	row := referralSettingsToModel(next)
	if err := s.repo.Save(row); err != nil {
		return ReferralSettings{}, err
	}
	if err := cache.DelReferralSetting(context.Background()); err != nil {
		logger.Warnw("referral_settings_cache_del_failed", "error", err)
	}
	logger.Infow("referral_settings_updated",
		"admin_id", adminID,
		"level1_rate", next.Level1Rate,
		"level2_rate", next.Level2Rate,
		"level3_rate", next.Level3Rate,
		"structure_bonus_threshold", next.StructureBonusThreshold,
		"program_active", next.ProgramActive,
	)

	saved, err := s.repo.Get()
	if err != nil {
		return ReferralSettings{}, err
	}
	if saved == nil {
		return next, nil
	}
	return referralSettingsFromModel(saved), nil
}

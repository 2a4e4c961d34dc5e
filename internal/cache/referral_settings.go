package cache

import (
	"context"
	"time"

	"github.com/hashburst/internal/models"
)

const referralSettingsKey = "referral:settings"

// DefaultReferralSettingsTTL 推荐配置缓存默认有效期
const DefaultReferralSettingsTTL = time.Minute

// GetReferralSetting 读取推荐配置缓存
func GetReferralSetting(ctx context.Context) (*models.ReferralSetting, bool, error) {
	var setting models.ReferralSetting
	hit, err := GetJSON(ctx, referralSettingsKey, &setting)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &setting, true, nil
}

// SetReferralSetting 写入推荐配置缓存
func SetReferralSetting(ctx context.Context, setting *models.ReferralSetting, ttl time.Duration) error {
	if setting == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = DefaultReferralSettingsTTL
	}
	return SetJSON(ctx, referralSettingsKey, setting, ttl)
}

// DelReferralSetting 配置变更后清除缓存
func DelReferralSetting(ctx context.Context) error {
	return Del(ctx, referralSettingsKey)
}

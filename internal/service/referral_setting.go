package service

import (
	"fmt"
	"math"
	"time"

	"github.com/hashburst/internal/constants"
	"github.com/hashburst/internal/models"

	"github.com/shopspring/decimal"
)

const (
	referralRateMin = 0
	referralRateMax = 100
	// 与 referral_settings 表 decimal(10,3) 一致
	referralRateScale = 3
)

// ReferralSettings 推荐计划配置快照，每次业务操作读取一次并显式向下传递
type ReferralSettings struct {
	Level1Rate              float64    `json:"level1_rate"`
	Level2Rate              float64    `json:"level2_rate"`
	Level3Rate              float64    `json:"level3_rate"`
	StructureBonusThreshold int        `json:"structure_bonus_threshold"`
	StructureBonusAmount    float64    `json:"structure_bonus_amount"`
	ProgramActive           bool       `json:"program_active"`
	ProgramEndDate          *time.Time `json:"program_end_date"`
	UpdatedByAdminID        *uint      `json:"updated_by_admin_id,omitempty"`
	UpdatedAt               *time.Time `json:"updated_at,omitempty"`
}

// DefaultReferralSettings 默认推荐计划配置，所有缺省值只在这里定义
func DefaultReferralSettings() ReferralSettings {
	return ReferralSettings{
		Level1Rate:              10,
		Level2Rate:              5,
		Level3Rate:              2.5,
		StructureBonusThreshold: 50,
		StructureBonusAmount:    500,
		ProgramActive:           true,
	}
}

// RateForLevel 返回层级对应的佣金比例（百分比），越界层级为 0
func (s ReferralSettings) RateForLevel(level int) float64 {
	switch level {
	case constants.ReferralLevel1:
		return s.Level1Rate
	case constants.ReferralLevel2:
		return s.Level2Rate
	case constants.ReferralLevel3:
		return s.Level3Rate
	default:
		return 0
	}
}

// ClosedReason 计划在 now 时刻不可用的原因，可用时返回空串
func (s ReferralSettings) ClosedReason(now time.Time) string {
	if !s.ProgramActive {
		return constants.ReferralReasonProgramInactive
	}
	if s.ProgramEndDate != nil && !now.Before(*s.ProgramEndDate) {
		return constants.ReferralReasonProgramExpired
	}
	return ""
}

// IsOpenAt 计划在 now 时刻是否开放
func (s ReferralSettings) IsOpenAt(now time.Time) bool {
	return s.ClosedReason(now) == ""
}

// PublicReferralSettings 对外展示的计划参数，不含后台操作人信息
type PublicReferralSettings struct {
	Level1Rate              float64    `json:"level1_rate"`
	Level2Rate              float64    `json:"level2_rate"`
	Level3Rate              float64    `json:"level3_rate"`
	StructureBonusThreshold int        `json:"structure_bonus_threshold"`
	StructureBonusAmount    float64    `json:"structure_bonus_amount"`
	ProgramActive           bool       `json:"program_active"`
	ProgramEndDate          *time.Time `json:"program_end_date"`
	ProgramOpen             bool       `json:"program_open"`
}

// Public 生成 now 时刻的对外配置视图
func (s ReferralSettings) Public(now time.Time) PublicReferralSettings {
	return PublicReferralSettings{
		Level1Rate:              s.Level1Rate,
		Level2Rate:              s.Level2Rate,
		Level3Rate:              s.Level3Rate,
		StructureBonusThreshold: s.StructureBonusThreshold,
		StructureBonusAmount:    s.StructureBonusAmount,
		ProgramActive:           s.ProgramActive,
		ProgramEndDate:          s.ProgramEndDate,
		ProgramOpen:             s.IsOpenAt(now),
	}
}

// ValidateReferralSettings 校验推荐计划配置，越界直接拒绝而不是截断
func ValidateReferralSettings(s ReferralSettings) error {
	rates := []struct {
		level int
		value float64
	}{
		{constants.ReferralLevel1, s.Level1Rate},
		{constants.ReferralLevel2, s.Level2Rate},
		{constants.ReferralLevel3, s.Level3Rate},
	}
	for _, rate := range rates {
		if math.IsNaN(rate.value) || math.IsInf(rate.value, 0) ||
			rate.value < referralRateMin || rate.value > referralRateMax {
			return fmt.Errorf("%w: level%d rate must be within 0-100, got %v", ErrReferralConfigInvalid, rate.level, rate.value)
		}
		if !decimal.NewFromFloat(rate.value).Equal(rateDecimal(rate.value)) {
			return fmt.Errorf("%w: level%d rate allows at most %d decimal places, got %v", ErrReferralConfigInvalid, rate.level, referralRateScale, rate.value)
		}
	}
	if s.StructureBonusThreshold < 1 {
		return fmt.Errorf("%w: structure bonus threshold must be at least 1", ErrReferralConfigInvalid)
	}
	if math.IsNaN(s.StructureBonusAmount) || math.IsInf(s.StructureBonusAmount, 0) || s.StructureBonusAmount < 0 {
		return fmt.Errorf("%w: structure bonus amount must not be negative", ErrReferralConfigInvalid)
	}
	return nil
}

// ReferralSettingsPatch 推荐计划配置的部分更新
type ReferralSettingsPatch struct {
	Level1Rate              *float64   `json:"level1_rate"`
	Level2Rate              *float64   `json:"level2_rate"`
	Level3Rate              *float64   `json:"level3_rate"`
	StructureBonusThreshold *int       `json:"structure_bonus_threshold"`
	StructureBonusAmount    *float64   `json:"structure_bonus_amount"`
	ProgramActive           *bool      `json:"program_active"`
	ProgramEndDate          *time.Time `json:"program_end_date"`
	ClearProgramEndDate     bool       `json:"clear_program_end_date"`
}

// IsEmpty 补丁是否没有任何字段
func (p ReferralSettingsPatch) IsEmpty() bool {
	return p.Level1Rate == nil &&
		p.Level2Rate == nil &&
		p.Level3Rate == nil &&
		p.StructureBonusThreshold == nil &&
		p.StructureBonusAmount == nil &&
		p.ProgramActive == nil &&
		p.ProgramEndDate == nil &&
		!p.ClearProgramEndDate
}

// Apply 将补丁应用到当前配置上
func (p ReferralSettingsPatch) Apply(base ReferralSettings) ReferralSettings {
	next := base
	if p.Level1Rate != nil {
		next.Level1Rate = *p.Level1Rate
	}
	if p.Level2Rate != nil {
		next.Level2Rate = *p.Level2Rate
	}
	if p.Level3Rate != nil {
		next.Level3Rate = *p.Level3Rate
	}
	if p.StructureBonusThreshold != nil {
		next.StructureBonusThreshold = *p.StructureBonusThreshold
	}
	if p.StructureBonusAmount != nil {
		next.StructureBonusAmount = *p.StructureBonusAmount
	}
	if p.ProgramActive != nil {
		next.ProgramActive = *p.ProgramActive
	}
	if p.ClearProgramEndDate {
		next.ProgramEndDate = nil
	} else if p.ProgramEndDate != nil {
		end := p.ProgramEndDate.UTC()
		next.ProgramEndDate = &end
	}
	return next
}

func referralSettingsFromModel(row *models.ReferralSetting) ReferralSettings {
	if row == nil {
		return DefaultReferralSettings()
	}
	updatedAt := row.UpdatedAt
	return ReferralSettings{
		Level1Rate:              row.Level1Rate.InexactFloat64(),
		Level2Rate:              row.Level2Rate.InexactFloat64(),
		Level3Rate:              row.Level3Rate.InexactFloat64(),
		StructureBonusThreshold: row.StructureBonusThreshold,
		StructureBonusAmount:    row.StructureBonusAmount.InexactFloat64(),
		ProgramActive:           row.ProgramActive,
		ProgramEndDate:          row.ProgramEndDate,
		UpdatedByAdminID:        row.UpdatedByAdminID,
		UpdatedAt:               &updatedAt,
	}
}

func referralSettingsToModel(s ReferralSettings) *models.ReferralSetting {
	return &models.ReferralSetting{
		ID:                      constants.ReferralSettingsSingletonID,
		Level1Rate:              rateDecimal(s.Level1Rate),
		Level2Rate:              rateDecimal(s.Level2Rate),
		Level3Rate:              rateDecimal(s.Level3Rate),
		StructureBonusThreshold: s.StructureBonusThreshold,
		StructureBonusAmount:    models.NewMoneyFromDecimal(decimal.NewFromFloat(s.StructureBonusAmount)),
		ProgramActive:           s.ProgramActive,
		ProgramEndDate:          s.ProgramEndDate,
		UpdatedByAdminID:        s.UpdatedByAdminID,
	}
}

// rateDecimal 比例按 decimal(10,3) 列精度取值
func rateDecimal(rate float64) decimal.Decimal {
	return decimal.NewFromFloat(rate).Round(referralRateScale)
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReferralSetting 推荐计划配置（单行表，id 固定为 1）
type ReferralSetting struct {
	ID                      uint            `gorm:"primarykey" json:"id"`
	Level1Rate              decimal.Decimal `gorm:"type:decimal(10,3);not null" json:"level1_rate"`
	Level2Rate              decimal.Decimal `gorm:"type:decimal(10,3);not null" json:"level2_rate"`
	Level3Rate              decimal.Decimal `gorm:"type:decimal(10,3);not null" json:"level3_rate"`
	StructureBonusThreshold int             `gorm:"not null" json:"structure_bonus_threshold"`
	StructureBonusAmount    Money           `gorm:"type:decimal(20,2);not null" json:"structure_bonus_amount"`
	ProgramActive           bool            `gorm:"not null" json:"program_active"`
	ProgramEndDate          *time.Time      `json:"program_end_date,omitempty"`
	UpdatedByAdminID        *uint           `json:"updated_by_admin_id,omitempty"`
	CreatedAt               time.Time       `json:"created_at"`
	UpdatedAt               time.Time       `json:"updated_at"`
}

// TableName 指定表名
func (ReferralSetting) TableName() string {
	return "referral_settings"
}

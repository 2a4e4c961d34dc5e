package models

import (
	"time"
)

// StructureBonus 结构奖励发放记录，user_id 唯一保证每人仅发放一次
type StructureBonus struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	UserID      uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	Amount      Money     `gorm:"type:decimal(20,2);not null" json:"amount"`
	NetworkSize int64     `gorm:"not null" json:"network_size"`
	Threshold   int       `gorm:"not null" json:"threshold"`
	AwardedAt   time.Time `gorm:"index" json:"awarded_at"`
	CreatedAt   time.Time `json:"created_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (StructureBonus) TableName() string {
	return "structure_bonuses"
}

package models

import (
	"time"
)

// Purchase 矿机份额购买记录
type Purchase struct {
	ID               uint       `gorm:"primarykey" json:"id"`                            // 主键
	UserID           uint       `gorm:"not null;index" json:"user_id"`                   // 购买用户
	Amount           Money      `gorm:"type:decimal(20,2);not null" json:"amount"`       // 购买金额
	Status           string     `gorm:"type:varchar(20);not null;index" json:"status"`   // pending / completed / failed
	ReferralEligible bool       `gorm:"not null;default:false" json:"referral_eligible"` // 创建时推荐计划是否开放
	Remark           string     `gorm:"type:varchar(255);default:''" json:"remark"`      // 备注
	CompletedAt      *time.Time `gorm:"index" json:"completed_at,omitempty"`             // 完成时间
	FailedAt         *time.Time `json:"failed_at,omitempty"`                             // 失败时间
	CreatedAt        time.Time  `gorm:"index" json:"created_at"`                         // 创建时间
	UpdatedAt        time.Time  `json:"updated_at"`                                      // 更新时间

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (Purchase) TableName() string {
	return "purchases"
}

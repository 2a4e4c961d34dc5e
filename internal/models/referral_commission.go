package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReferralCommission 推荐佣金记录（每笔购买每个层级至多一条）
type ReferralCommission struct {
	ID               uint            `gorm:"primarykey" json:"id"`                                                            // 主键
	UserID           uint            `gorm:"not null;index" json:"user_id"`                                                   // 获得佣金的上级
	FromUserID       uint            `gorm:"not null;index" json:"from_user_id"`                                              // 产生购买的用户
	PurchaseID       uint            `gorm:"not null;index:idx_referral_commission_purchase_level,unique" json:"purchase_id"` // 购买记录
	Level            int             `gorm:"not null;index:idx_referral_commission_purchase_level,unique" json:"level"`       // 层级 1-3
	Rate             decimal.Decimal `gorm:"type:decimal(10,3);not null;default:0" json:"rate"`                               // 比例快照（百分比）
	PurchaseAmount   Money           `gorm:"type:decimal(20,2);not null" json:"purchase_amount"`                              // 购买金额
	CommissionAmount Money           `gorm:"type:decimal(20,2);not null" json:"commission_amount"`                            // 佣金金额
	Status           string          `gorm:"type:varchar(20);not null;index" json:"status"`                                   // pending / paid
	PaidAt           *time.Time      `json:"paid_at,omitempty"`                                                               // 结算时间
	CreatedAt        time.Time       `gorm:"index" json:"created_at"`                                                         // 创建时间
	UpdatedAt        time.Time       `json:"updated_at"`                                                                      // 更新时间

	User     *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	FromUser *User `gorm:"foreignKey:FromUserID" json:"from_user,omitempty"`
}

// TableName 指定表名
func (ReferralCommission) TableName() string {
	return "referral_commissions"
}

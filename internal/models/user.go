package models

import (
	"time"

	"gorm.io/gorm"
)

// User 用户表（含推荐关系与推荐收益聚合字段）
type User struct {
	ID                   uint           `gorm:"primarykey" json:"id"`                                                // 主键
	Email                string         `gorm:"uniqueIndex;not null" json:"email"`                                   // 邮箱
	PasswordHash         string         `gorm:"not null" json:"-"`                                                   // 密码哈希（不返回给前端）
	DisplayName          string         `gorm:"default:''" json:"display_name"`                                      // 昵称
	Locale               string         `gorm:"default:'zh-CN'" json:"locale"`                                       // 语言偏好
	Status               string         `gorm:"default:'active'" json:"status"`                                      // 账号状态
	TokenVersion         uint64         `gorm:"not null;default:0" json:"-"`                                         // Token 版本（用于全量失效）
	TokenInvalidBefore   *time.Time     `gorm:"index" json:"-"`                                                      // 该时间点前签发的 Token 失效
	ReferralCode         string         `gorm:"type:varchar(16);uniqueIndex;not null" json:"referral_code"`          // 推荐码（大写）
	ReferredByID         *uint          `gorm:"index" json:"referred_by_id,omitempty"`                               // 一级上级
	Level2AncestorID     *uint          `gorm:"index" json:"level2_ancestor_id,omitempty"`                           // 二级上级
	Level3AncestorID     *uint          `gorm:"index" json:"level3_ancestor_id,omitempty"`                           // 三级上级
	DirectReferrals      int64          `gorm:"not null;default:0" json:"direct_referrals"`                          // 直推人数
	TotalReferrals       int64          `gorm:"not null;default:0" json:"total_referrals"`                           // 全部下线人数
	NetworkSize          int64          `gorm:"not null;default:0;index" json:"network_size"`                        // 网络规模（不限层级）
	ReferralEarnings     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"referral_earnings"`      // 推荐佣金总额
	Level1Earnings       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"level1_earnings"`        // 一级佣金
	Level2Earnings       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"level2_earnings"`        // 二级佣金
	Level3Earnings       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"level3_earnings"`        // 三级佣金
	StructureBonusEarned bool           `gorm:"not null;default:false;index" json:"structure_bonus_earned"`          // 是否已获得结构奖励
	StructureBonusAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"structure_bonus_amount"` // 结构奖励金额
	LastLoginAt          *time.Time     `json:"last_login_at"`                                                       // 最后登录时间
	CreatedAt            time.Time      `gorm:"index" json:"created_at"`                                             // 创建时间
	UpdatedAt            time.Time      `gorm:"index" json:"updated_at"`                                             // 更新时间
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`                                                      // 软删除时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// AncestorIDs 按层级返回已落库的上级（一级在前）
func (u *User) AncestorIDs() []*uint {
	if u == nil {
		return nil
	}
	return []*uint{u.ReferredByID, u.Level2AncestorID, u.Level3AncestorID}
}

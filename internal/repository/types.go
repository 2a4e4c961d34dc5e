package repository

import (
	"time"

	"github.com/hashburst/internal/models"

	"github.com/shopspring/decimal"
)

// UserListFilter 查询用户列表的过滤条件
type UserListFilter struct {
	Page         int
	PageSize     int
	Keyword      string
	Status       string
	ReferredByID uint
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
}

// PurchaseListFilter 查询购买记录的过滤条件
type PurchaseListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// ReferralCommissionListFilter 查询佣金记录的过滤条件
type ReferralCommissionListFilter struct {
	Page       int
	PageSize   int
	UserID     uint
	FromUserID uint
	PurchaseID uint
	Level      int
	Status     string
}

// ReferralCommissionRow 佣金记录及来源用户信息
type ReferralCommissionRow struct {
	ID                   uint            `json:"id"`
	UserID               uint            `json:"user_id"`
	UserEmail            string          `json:"user_email"`
	FromUserID           uint            `json:"from_user_id"`
	FromUserEmail        string          `json:"from_user_email"`
	FromUserReferralCode string          `json:"from_user_referral_code"`
	PurchaseID           uint            `json:"purchase_id"`
	Level                int             `json:"level"`
	Rate                 decimal.Decimal `json:"rate"`
	PurchaseAmount       models.Money    `json:"purchase_amount"`
	CommissionAmount     models.Money    `json:"commission_amount"`
	Status               string          `json:"status"`
	PaidAt               *time.Time      `json:"paid_at,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
}

// StructureBonusRow 结构奖励记录及用户信息
type StructureBonusRow struct {
	ID           uint         `json:"id"`
	UserID       uint         `json:"user_id"`
	UserEmail    string       `json:"user_email"`
	ReferralCode string       `json:"referral_code"`
	Amount       models.Money `json:"amount"`
	NetworkSize  int64        `json:"network_size"`
	AwardedAt    time.Time    `json:"awarded_at"`
}

// LoginLogListFilter 查询登录日志的过滤条件
type LoginLogListFilter struct {
	Page        int
	PageSize    int
	Subject     string
	SubjectID   uint
	Account     string
	Status      string
	ClientIP    string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// AdminAuditLogListFilter 查询后台审计日志的过滤条件
type AdminAuditLogListFilter struct {
	Page        int
	PageSize    int
	AdminID     uint
	Action      string
	TargetType  string
	TargetID    uint
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

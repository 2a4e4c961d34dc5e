package models

import "time"

// AdminAuditLog 后台操作审计日志（配置变更、佣金结算、购买处理、角色调整）
type AdminAuditLog struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	AdminID       uint      `gorm:"index;not null" json:"admin_id"`
	AdminUsername string    `gorm:"type:varchar(100);index;not null;default:''" json:"admin_username"`
	Action        string    `gorm:"type:varchar(64);index;not null" json:"action"`
	TargetType    string    `gorm:"type:varchar(32);index;not null;default:''" json:"target_type"`
	TargetID      uint      `gorm:"index" json:"target_id"`
	Method        string    `gorm:"type:varchar(10);not null;default:''" json:"method"`
	Path          string    `gorm:"type:varchar(255);not null;default:''" json:"path"`
	RequestID     string    `gorm:"type:varchar(64);index;not null;default:''" json:"request_id"`
	Detail        JSON      `gorm:"type:text" json:"detail"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (AdminAuditLog) TableName() string {
	return "admin_audit_logs"
}

package models

import "time"

// LoginLog 登录日志，用户与管理员共用，subject 区分来源
type LoginLog struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	Subject    string    `gorm:"type:varchar(16);index;not null" json:"subject"`       // user / admin
	SubjectID  uint      `gorm:"index" json:"subject_id"`                              // 失败时可能为 0
	Account    string    `gorm:"type:varchar(255);index;not null" json:"account"`      // 邮箱或管理员用户名
	Status     string    `gorm:"type:varchar(16);index;not null" json:"status"`        // success / failed
	FailReason string    `gorm:"type:varchar(64);index;default:''" json:"fail_reason"` // 失败原因
	ClientIP   string    `gorm:"type:varchar(64);index;default:''" json:"client_ip"`   // 客户端 IP
	UserAgent  string    `gorm:"type:text" json:"user_agent"`                          // 客户端 UA
	RequestID  string    `gorm:"type:varchar(64);index;default:''" json:"request_id"`  // 请求追踪 ID
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (LoginLog) TableName() string {
	return "login_logs"
}

package service

import (
	"strings"
	"time"

	"github.com/hashburst/internal/constants"
	"github.com/hashburst/internal/models"
	"github.com/hashburst/internal/repository"
)

const loginLogUserAgentMaxLen = 512

// LoginLogService 登录日志服务
type LoginLogService struct {
	repo repository.LoginLogRepository
}

// NewLoginLogService 创建登录日志服务
func NewLoginLogService(repo repository.LoginLogRepository) *LoginLogService {
	return &LoginLogService{repo: repo}
}

// RecordLoginInput 登录日志记录输入
type RecordLoginInput struct {
	Subject    string
	SubjectID  uint
	Account    string
	Success    bool
	FailReason string
	ClientIP   string
	UserAgent  string
	RequestID  string
}

// Record 记录一次登录尝试
func (s *LoginLogService) Record(input RecordLoginInput) error {
	if s == nil || s.repo == nil {
		return nil
	}
	subject := strings.ToLower(strings.TrimSpace(input.Subject))
	if subject != constants.LoginSubjectAdmin {
		subject = constants.LoginSubjectUser
	}
	account := strings.TrimSpace(input.Account)
	if subject == constants.LoginSubjectUser {
		if normalized, err := normalizeEmail(account); err == nil {
			account = normalized
		}
	}

	status := constants.LoginLogStatusSuccess
	failReason := ""
	if !input.Success {
		status = constants.LoginLogStatusFailed
		failReason = strings.ToLower(strings.TrimSpace(input.FailReason))
		if failReason == "" {
			failReason = constants.LoginFailReasonInternalError
		}
	}
	userAgent := strings.TrimSpace(input.UserAgent)
	if len(userAgent) > loginLogUserAgentMaxLen {
		userAgent = userAgent[:loginLogUserAgentMaxLen]
	}

	return s.repo.Create(&models.LoginLog{
		Subject:    subject,
		SubjectID:  input.SubjectID,
		Account:    account,
		Status:     status,
		FailReason: failReason,
		ClientIP:   strings.TrimSpace(input.ClientIP),
		UserAgent:  userAgent,
		RequestID:  strings.TrimSpace(input.RequestID),
		CreatedAt:  time.Now(),
	})
}

// List 管理端查询登录日志
func (s *LoginLogService) List(filter repository.LoginLogListFilter) ([]models.LoginLog, int64, error) {
	if s == nil || s.repo == nil {
		return []models.LoginLog{}, 0, nil
	}
	return s.repo.List(filter)
}

// ListByUser 用户查看自己的登录记录
func (s *LoginLogService) ListByUser(userID uint, page, pageSize int) ([]models.LoginLog, int64, error) {
	if s == nil || s.repo == nil || userID == 0 {
		return []models.LoginLog{}, 0, nil
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return s.repo.List(repository.LoginLogListFilter{
		Page:      page,
		PageSize:  pageSize,
		Subject:   constants.LoginSubjectUser,
		SubjectID: userID,
	})
}

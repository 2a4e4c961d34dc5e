package shared

import (
	"errors"

	"github.com/hashburst/internal/http/response"
	"github.com/hashburst/internal/i18n"
	"github.com/hashburst/internal/logger"
	"github.com/hashburst/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 带 request_id 的日志
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if id := c.GetString("request_id"); id != "" {
		return logger.SW("request_id", id)
	}
	return logger.S()
}

// RespondError 返回国际化错误，有原始错误时记录日志
func RespondError(c *gin.Context, code int, key string, err error) {
	RespondErrorWithMsg(c, code, i18n.T(i18n.ResolveLocale(c), key), err)
}

// RespondErrorWithMsg 返回自定义文案错误
func RespondErrorWithMsg(c *gin.Context, code int, msg string, err error) {
	appErr := response.WrapError(code, msg, err)
	if err != nil {
		RequestLog(c).Errorw("handler_error",
			"code", appErr.Code,
			"message", appErr.Message,
			"error", err,
		)
	}
	response.Error(c, appErr.Code, appErr.Message)
}

// MappedError 业务错误到响应码与文案 key 的映射
type MappedError struct {
	Target error
	Code   int
	Key    string
}

// RespondMappedError 按顺序匹配映射表，未命中时使用兜底并记录原始错误
func RespondMappedError(c *gin.Context, err error, rules []MappedError, fallbackKey string) {
	if errors.Is(err, service.ErrWeakPassword) {
		RespondWeakPassword(c, err)
		return
	}
	for _, rule := range rules {
		if errors.Is(err, rule.Target) {
			RespondError(c, rule.Code, rule.Key, nil)
			return
		}
	}
	RespondError(c, response.CodeInternal, fallbackKey, err)
}

// RespondWeakPassword 带参数的密码策略提示
func RespondWeakPassword(c *gin.Context, err error) {
	var policyErr interface {
		Key() string
		Args() []interface{}
	}
	if errors.As(err, &policyErr) {
		msg := i18n.Sprintf(i18n.ResolveLocale(c), policyErr.Key(), policyErr.Args()...)
		RespondErrorWithMsg(c, response.CodeBadRequest, msg, nil)
		return
	}
	RespondError(c, response.CodeBadRequest, "error.password_weak", nil)
}

// NotFoundRule 通用的资源不存在映射
func NotFoundRule(key string) MappedError {
	return MappedError{Target: service.ErrNotFound, Code: response.CodeNotFound, Key: key}
}

package shared

import (
	"errors"
	"strings"

	"github.com/hashburst/internal/http/response"
	"github.com/hashburst/internal/service"

	"github.com/gin-gonic/gin"
)

// CaptchaPayloadRequest 请求体中的验证码字段
type CaptchaPayloadRequest struct {
	CaptchaID   string `json:"captcha_id"`
	CaptchaCode string `json:"captcha_code"`
}

// ToServicePayload 转换为 service 层载荷
func (r CaptchaPayloadRequest) ToServicePayload() service.CaptchaVerifyPayload {
	return service.CaptchaVerifyPayload{
		CaptchaID:   strings.TrimSpace(r.CaptchaID),
		CaptchaCode: strings.TrimSpace(r.CaptchaCode),
	}
}

// VerifyCaptcha 校验场景验证码，失败时已写出响应并返回对应错误
func VerifyCaptcha(c *gin.Context, svc *service.CaptchaService, scene string, payload CaptchaPayloadRequest) error {
	if svc == nil {
		return nil
	}
	err := svc.Verify(scene, payload.ToServicePayload())
	switch {
	case err == nil:
		return nil
	case errors.Is(err, service.ErrCaptchaRequired):
		RespondError(c, response.CodeBadRequest, "error.captcha_required", nil)
	case errors.Is(err, service.ErrCaptchaInvalid):
		RespondError(c, response.CodeBadRequest, "error.captcha_invalid", nil)
	case errors.Is(err, service.ErrCaptchaConfigInvalid):
		RespondError(c, response.CodeInternal, "error.captcha_config_invalid", err)
	default:
		RespondError(c, response.CodeInternal, "error.captcha_unavailable", err)
	}
	return err
}

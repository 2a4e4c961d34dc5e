package shared

import (
	"github.com/hashburst/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetContextUintWithKeys 读取鉴权中间件写入的 uint，缺失视为未登录
func GetContextUintWithKeys(c *gin.Context, key, invalidKey, typeInvalidKey string) (uint, bool) {
	value, exists := c.Get(key)
	if !exists {
		RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return 0, false
	}
	id, ok := value.(uint)
	if !ok {
		RespondError(c, response.CodeInternal, typeInvalidKey, nil)
		return 0, false
	}
	if id == 0 {
		RespondError(c, response.CodeUnauthorized, invalidKey, nil)
		return 0, false
	}
	return id, true
}

// GetContextString 读取上下文字符串，不存在时返回空串
func GetContextString(c *gin.Context, key string) string {
	return c.GetString(key)
}

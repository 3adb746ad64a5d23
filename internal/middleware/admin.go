package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/homestay-booking-backend/internal/common/response"
)

// AdminTokenHeader 后台访问令牌请求头
const AdminTokenHeader = "X-Admin-Token"

// AdminToken 校验后台共享令牌，未配置令牌时拒绝所有请求
func AdminToken(token string) gin.HandlerFunc {
	expected := []byte(token)
	return func(c *gin.Context) {
		got := []byte(c.GetHeader(AdminTokenHeader))
		if len(expected) == 0 || subtle.ConstantTimeCompare(got, expected) != 1 {
			response.Unauthorized(c, "后台令牌无效")
			c.Abort()
			return
		}
		c.Next()
	}
}

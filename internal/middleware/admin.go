package middleware

import (
	"net/http"

	"github.com/D3stinn3/HC/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StaffMiddleware 确保只有员工可以访问某些路由
// 依赖 AuthMiddleware 已写入的 is_staff 声明
func StaffMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("user_id")
		if !exists {
			util.Logger.Warn("用户ID不存在")
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "需要认证",
				"error":   "User ID not found in context",
			})
			c.Abort()
			return
		}

		if isStaff, _ := c.Get("is_staff"); isStaff != true {
			util.Logger.Warn("非员工访问",
				zap.Int("user_id", userID.(int)),
				zap.String("path", c.Request.URL.Path))
			c.JSON(http.StatusForbidden, gin.H{
				"code":    403,
				"message": "需要员工权限",
				"error":   "Staff access required",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

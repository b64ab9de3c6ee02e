package middleware

import (
	"bytes"
	"io"
	"time"

	"github.com/D3stinn3/HC/internal/model"
	"github.com/D3stinn3/HC/internal/repository/interfaces"
	"github.com/D3stinn3/HC/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxLoggedBodySize = 1000

// APILogMiddleware 把每个请求记入 api_logs 表
// 写库失败只记日志，不影响请求本身
func APILogMiddleware(repo interfaces.APILogRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var requestBody string
		if c.Request.Body != nil {
			body, err := io.ReadAll(c.Request.Body)
			if err == nil {
				c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
				if len(body) > maxLoggedBodySize {
					body = body[:maxLoggedBodySize]
				}
				requestBody = string(body)
			}
		}

		c.Next()

		entry := &model.APILog{
			Endpoint:       c.Request.URL.Path,
			Method:         c.Request.Method,
			StatusCode:     c.Writer.Status(),
			ResponseTimeMS: int(time.Since(start).Milliseconds()),
			RequestBody:    requestBody,
			IPAddress:      c.ClientIP(),
		}

		if userID, exists := c.Get("user_id"); exists {
			if id, ok := userID.(int); ok {
				entry.UserID = &id
			}
		}

		if len(c.Errors) > 0 {
			entry.ErrorMessage = c.Errors.String()
		}

		if err := repo.Create(entry); err != nil {
			util.Logger.Warn("写入请求日志失败",
				zap.Error(err),
				zap.String("endpoint", entry.Endpoint))
		}
	}
}

package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipe-chat-agent/internal/pkg/common"
)

// BodySizeLimit 限制請求體大小的中間件
// 聊天訊息只有表單文字，超長的請求體一律拒收
func BodySizeLimit(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxSize {
			common.LogWarn("Request body too large",
				zap.Int64("content_length", c.Request.ContentLength),
				zap.Int64("max_size", maxSize),
				zap.String("ip", c.ClientIP()),
			)
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"error":    "Request body too large",
				"code":     common.ErrCodeInvalidRequest,
				"max_size": maxSize,
			})
			return
		}

		// Content-Length 不可信時由讀取端強制截斷
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)

		c.Next()
	}
}

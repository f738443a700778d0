package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apperrors "github.com/wfunc/monopoly-game/internal/errors"
	"github.com/wfunc/monopoly-game/internal/logger"
)

// HeaderRequestID 请求ID头
const HeaderRequestID = "X-Request-ID"

const contextRequestID = "requestID"

// RequestID 透传或生成请求ID
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(contextRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// GetRequestID 当前请求ID
func GetRequestID(c *gin.Context) string {
	return c.GetString(contextRequestID)
}

// AccessLog 记录每个请求的方法、路径、状态码与耗时
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.LogRequest(c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start), c.ClientIP())
	}
}

// Recovery 捕获 panic 并返回 500
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.LogPanic(r, debug.Stack())
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					apperrors.NewErrorResponse(apperrors.New(apperrors.ErrUnknown), GetRequestID(c)))
			}
		}()
		c.Next()
	}
}

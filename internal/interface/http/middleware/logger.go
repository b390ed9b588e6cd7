package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xiebiao/inventory-reservation/pkg/tracing"
)

// RequestIDHeader 请求ID响应头
const RequestIDHeader = "X-Request-ID"

// slowRequest 超过该耗时记warn
const slowRequest = 3 * time.Second

// Logger 请求日志中间件
//
// 教学要点：
// 1. 每个请求一个请求ID，客户端传了X-Request-ID就沿用
// 2. 用zap结构化输出方法、路径、状态码、耗时，带上trace_id便于和链路对照
// 3. 5xx记error，慢请求记warn，其余记info
func Logger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header(RequestIDHeader, requestID)

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		status := c.Writer.Status()
		fields := append(tracing.LogFields(c.Request.Context()),
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case status >= 500:
			log.Error("http request", fields...)
		case latency > slowRequest:
			log.Warn("slow http request", fields...)
		default:
			log.Info("http request", fields...)
		}
	}
}

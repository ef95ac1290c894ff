package logger

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const accessLogMsg = "HTTP Request"

// GinMiddleware writes the access log line after the handler chain. The
// request logger it builds is reachable through FromContext downstream.
func GinMiddleware(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		began := time.Now()
		req := c.Request

		log := base.With(
			zap.String("request_id", c.GetString("request_id")),
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
		)
		c.Set("logger", log)
		c.Request = req.WithContext(WithContext(req.Context(), log))

		c.Next()

		status := c.Writer.Status()
		if ce := log.Check(accessLevel(status), accessLogMsg); ce != nil {
			ce.Write(accessFields(c, req.URL.RawQuery, status, time.Since(began))...)
		}
	}
}

func accessLevel(status int) zapcore.Level {
	if status >= http.StatusInternalServerError {
		return zapcore.ErrorLevel
	}
	if status >= http.StatusBadRequest {
		return zapcore.WarnLevel
	}
	return zapcore.InfoLevel
}

func accessFields(c *gin.Context, query string, status int, took time.Duration) []zap.Field {
	fields := []zap.Field{
		zap.Int("status", status),
		zap.Duration("latency", took),
		zap.String("client_ip", c.ClientIP()),
		zap.Int("body_size", c.Writer.Size()),
	}
	// set by the auth middleware once the bearer token is accepted
	if id := c.GetString("customer_id"); id != "" {
		fields = append(fields, zap.String("customer_id", id))
	}
	if query != "" {
		fields = append(fields, zap.String("query", query))
	}
	if errs := c.Errors.Errors(); len(errs) > 0 {
		fields = append(fields, zap.Strings("errors", errs))
	}
	return fields
}

// Recovery answers a handler panic with a 500 in the API error envelope
func Recovery(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			p := recover()
			if p == nil {
				return
			}
			id := c.GetString("request_id")
			base.Error("Panic recovered",
				zap.String("request_id", id),
				zap.String("route", c.Request.Method+" "+c.Request.URL.Path),
				zap.Any("panic", p),
				zap.Stack("stacktrace"),
			)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success":    false,
				"error":      gin.H{"code": "INTERNAL_ERROR", "message": "An internal error occurred"},
				"request_id": id,
			})
		}()
		c.Next()
	}
}

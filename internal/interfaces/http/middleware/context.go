// Package middleware provides the gin middleware of the shop API.
package middleware

import (
	"github.com/b2bshop/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// gin context keys shared with the logger and the handlers
const (
	RequestIDKey    = "request_id"
	RequestIDHeader = "X-Request-ID"
	PrincipalKey    = "principal"
	CustomerIDKey   = "customer_id"
)

// GetRequestID returns the id assigned by RequestID
func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}

// abort writes the error envelope and stops the chain
func abort(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(dto.GetHTTPStatus(code), dto.NewErrorResponse(code, message, GetRequestID(c), nil))
}

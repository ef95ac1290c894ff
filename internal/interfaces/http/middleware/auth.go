package middleware

import (
	"errors"
	"slices"
	"strings"

	"github.com/b2bshop/backend/internal/infrastructure/auth"
	"github.com/b2bshop/backend/internal/infrastructure/logger"
	"github.com/b2bshop/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const bearerPrefix = "Bearer "

// TokenValidator turns a bearer token into the caller's identity
type TokenValidator interface {
	Validate(token string) (auth.Principal, error)
}

// JWTAuth requires a valid bearer token and stores the caller as an auth.Principal
func JWTAuth(validator TokenValidator, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, bearerPrefix)
		if !ok || strings.TrimSpace(token) == "" {
			abort(c, dto.CodeUnauthorized, "Authentication required")
			return
		}

		principal, err := validator.Validate(strings.TrimSpace(token))
		if err != nil {
			log.Debug("bearer token rejected",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err))
			if errors.Is(err, auth.ErrExpiredToken) {
				abort(c, dto.CodeTokenExpired, "Token has expired")
				return
			}
			abort(c, dto.CodeInvalidToken, "Invalid token")
			return
		}

		c.Set(PrincipalKey, principal)
		c.Set(CustomerIDKey, principal.ID.String())
		c.Request = c.Request.WithContext(logger.WithCustomerID(c.Request.Context(), principal.ID.String()))

		if span := trace.SpanFromContext(c.Request.Context()); span.IsRecording() {
			span.SetAttributes(
				attribute.String("enduser.id", principal.ID.String()),
				attribute.String("enduser.role", string(principal.Role)),
			)
		}
		c.Next()
	}
}

// RequireRole lets the request through only when the principal holds one of roles
func RequireRole(roles ...auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok {
			abort(c, dto.CodeUnauthorized, "Authentication required")
			return
		}
		if !slices.Contains(roles, principal.Role) {
			abort(c, dto.CodeForbidden, "You do not have access to this resource")
			return
		}
		c.Next()
	}
}

// GetPrincipal returns the caller stored by JWTAuth
func GetPrincipal(c *gin.Context) (auth.Principal, bool) {
	v, ok := c.Get(PrincipalKey)
	if !ok {
		return auth.Principal{}, false
	}
	p, ok := v.(auth.Principal)
	return p, ok
}

// Package handler holds the gin handlers of the cart and order API.
package handler

import (
	"errors"
	"net/http"

	"github.com/b2bshop/backend/internal/domain/shared"
	"github.com/b2bshop/backend/internal/infrastructure/logger"
	"github.com/b2bshop/backend/internal/interfaces/http/dto"
	"github.com/b2bshop/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BaseHandler is embedded by every handler for the response envelope
type BaseHandler struct{}

func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// ErrorWithCode answers with the status dto maps code to
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	h.fail(c, dto.GetHTTPStatus(code), code, message, nil)
}

func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.ErrorWithCode(c, dto.CodeBadRequest, message)
}

// HandleError writes a DomainError anywhere in err's chain with its code,
// message and details. Any other error is logged with the route and
// answered with a generic 500 so driver and SQL text never leak.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	var de *shared.DomainError
	if errors.As(err, &de) {
		h.fail(c, dto.GetHTTPStatus(de.Code), de.Code, de.Message, de.Details)
		return
	}

	_ = c.Error(err)
	logger.L(c.Request.Context()).Error("Unhandled request error", zap.String("route", c.FullPath()), zap.Error(err))
	h.fail(c, http.StatusInternalServerError, dto.CodeInternal, "An unexpected error occurred", nil)
}

func (h *BaseHandler) fail(c *gin.Context, status int, code, message string, details map[string]any) {
	c.JSON(status, dto.NewErrorResponse(code, message, middleware.GetRequestID(c), details))
}

// customerID is the authenticated caller. Routes behind JWTAuth always have one;
// the 401 only fires if a route is mounted outside it.
func (h *BaseHandler) customerID(c *gin.Context) (uuid.UUID, bool) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		h.ErrorWithCode(c, dto.CodeUnauthorized, "Authentication required")
		return uuid.Nil, false
	}
	return p.ID, true
}

func (h *BaseHandler) uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.BadRequest(c, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func pageOrDefault(page, pageSize int) (int, int) {
	if pageSize < 1 {
		pageSize = shared.DefaultPageSize
	}
	return max(page, 1), pageSize
}

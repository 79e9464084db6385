// Package handler contains the gin handlers of the HTTP API. Handlers bind
// and validate requests, call one application service and translate the
// result or domain error into the response envelope.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/retailops/backend/internal/infrastructure/logger"
	"github.com/retailops/backend/internal/interfaces/http/dto"
	"github.com/retailops/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

func getRequestID(c *gin.Context) string {
	return c.GetString(middleware.RequestIDKey)
}

// Success sends a 200 response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// BadRequest sends a 400 validation error
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(dto.ErrorInfo{
		Code:      shared.CodeValidation,
		Message:   message,
		RequestID: getRequestID(c),
	}))
}

// HandleError converts err into the error envelope. Errors that are not
// domain errors are logged and answered with an opaque 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)

	status, info, expose := dto.FromError(err)
	if !expose {
		logger.L(c.Request.Context()).Error("request failed",
			zap.String("route", c.FullPath()),
			zap.Error(err))
	}
	info.RequestID = getRequestID(c)
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(info))
}

// principal returns the authenticated caller or answers 401.
func (h *BaseHandler) principal(c *gin.Context) (shared.Principal, bool) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(dto.ErrorInfo{
			Code:      shared.CodeUnauthorized,
			Message:   "Authentication required",
			RequestID: getRequestID(c),
		}))
		return shared.Principal{}, false
	}
	return p, true
}

// pathID parses a uuid path parameter or answers 400.
func (h *BaseHandler) pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.BadRequest(c, "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON binds and validates the body, answering 400/413 on failure.
func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		middleware.BindError(c, err)
		return false
	}
	return true
}

// bindQuery binds and validates the query string.
func bindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		middleware.BindError(c, err)
		return false
	}
	return true
}

func pageFilter(q dto.PageQuery) shared.Filter {
	f := shared.DefaultFilter()
	if q.Page > 0 {
		f.Page = q.Page
	}
	if q.PageSize > 0 {
		f.PageSize = q.PageSize
	}
	return f
}

func respondPage[T any](c *gin.Context, p shared.Paginated[T]) {
	c.JSON(http.StatusOK, dto.NewPageResponse(p))
}

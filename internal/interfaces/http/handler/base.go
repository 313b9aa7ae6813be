package handler

import (
	"errors"
	"net/http"

	"github.com/erp/bullion/internal/domain/shared"
	"github.com/erp/bullion/internal/infrastructure/logger"
	"github.com/erp/bullion/internal/interfaces/http/dto"
	"github.com/erp/bullion/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader is the header carrying the request ID
const RequestIDHeader = "X-Request-ID"

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString(logger.RequestIDKey); id != "" {
		return id
	}
	return c.GetHeader(RequestIDHeader)
}

// parseID reads a uuid path parameter, answering 400 when it is malformed
func (h *BaseHandler) parseID(c *gin.Context, param, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		h.BadRequest(c, "Invalid "+what+" ID format")
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON decodes the body into req, answering 400 with field details
// when binding or validation fails
func (h *BaseHandler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.bindError(c, err, dto.ErrCodeInvalidJSON)
		return false
	}
	return true
}

// bindQuery decodes query parameters into req
func (h *BaseHandler) bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		h.bindError(c, err, dto.ErrCodeBadRequest)
		return false
	}
	return true
}

func (h *BaseHandler) bindError(c *gin.Context, err error, code string) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		h.ValidationError(c, middleware.ValidationDetails(verrs))
		return
	}
	h.Error(c, http.StatusBadRequest, code, err.Error())
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// ValidationError sends a 400 validation error response with details
func (h *BaseHandler) ValidationError(c *gin.Context, details []dto.ValidationDetail) {
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
		"Request validation failed",
		getRequestID(c),
		details,
	))
}

// HandleError maps domain errors to their HTTP status; anything else is
// logged and reported as a 500 without leaking its message
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		h.Error(c, dto.GetHTTPStatus(code), code, domainErr.Message)
		return
	}

	_ = c.Error(err)
	logger.L(c.Request.Context()).Error("request failed", zap.Error(err))
	h.InternalError(c, "An unexpected error occurred")
}

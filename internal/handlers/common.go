package handlers

import (
	"errors"
	"net/http"

	apperrors "github.com/SAP-F-2025/student-portal-service/internal/errors"
	"github.com/SAP-F-2025/student-portal-service/internal/models"
	"github.com/SAP-F-2025/student-portal-service/internal/services"
	"github.com/SAP-F-2025/student-portal-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// ===== COMMON RESPONSE STRUCTURES =====

// Response is the envelope every endpoint answers with
type Response struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	Details    interface{} `json:"details,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

func NewPagination(opts models.ListOptions, total int64) *Pagination {
	opts = opts.Normalize()
	return &Pagination{
		Page:  opts.Page,
		Limit: opts.PageSize,
		Total: total,
		Pages: models.Pages(total, opts.PageSize),
	}
}

// ===== BASE HANDLER STRUCT =====

// BaseHandler provides common logging and response helpers for all handlers
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) requestFields(c *gin.Context, additionalFields ...interface{}) []interface{} {
	fields := []interface{}{
		"request_id", c.GetString(utils.RequestIDKey),
		"user_id", h.extractUserID(c),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	}
	return append(fields, additionalFields...)
}

// LogRequest logs an incoming request with context information
func (h *BaseHandler) LogRequest(c *gin.Context, message string, additionalFields ...interface{}) {
	h.logger.Debug(message, h.requestFields(c, additionalFields...)...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, message string, additionalFields ...interface{}) {
	h.logger.LogError(err, message, h.requestFields(c, additionalFields...)...)
}

func (h *BaseHandler) LogInfo(c *gin.Context, message string, additionalFields ...interface{}) {
	h.logger.Info(message, h.requestFields(c, additionalFields...)...)
}

func (h *BaseHandler) LogWarn(c *gin.Context, message string, additionalFields ...interface{}) {
	h.logger.Warn(message, h.requestFields(c, additionalFields...)...)
}

func (h *BaseHandler) extractUserID(c *gin.Context) interface{} {
	if userID, exists := c.Get("user_id"); exists {
		return userID
	}
	return nil
}

// ===== RESPONSES =====

func (h *BaseHandler) respondSuccess(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Response{Success: true, Message: message, Data: data})
}

func (h *BaseHandler) respondPage(c *gin.Context, data interface{}, opts models.ListOptions, total int64) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data, Pagination: NewPagination(opts, total)})
}

// respondBadRequest answers a malformed body or query that never reached a service.
func (h *BaseHandler) respondBadRequest(c *gin.Context, message string, err error) {
	resp := Response{Success: false, Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	h.LogWarn(c, message, "error", err)
	c.JSON(http.StatusBadRequest, resp)
}

// respondError maps a service error onto a status code and the error envelope.
func (h *BaseHandler) respondError(c *gin.Context, err error) {
	status, resp := errorResponse(err)
	if status >= http.StatusInternalServerError {
		h.LogError(c, err, "Request failed", "status_code", status)
	} else {
		h.LogWarn(c, resp.Error, "status_code", status, "error", err)
	}
	c.JSON(status, resp)
}

func errorResponse(err error) (int, Response) {
	if errs, ok := apperrors.AsValidationErrors(err); ok {
		return http.StatusBadRequest, Response{Error: "Validation failed", Details: errs}
	}

	var dup *apperrors.DuplicateKeyError
	if errors.As(err, &dup) {
		return http.StatusBadRequest, Response{
			Error:   dup.Error(),
			Details: map[string]interface{}{"field": dup.Field},
		}
	}

	var businessRuleError *services.BusinessRuleError
	if errors.As(err, &businessRuleError) {
		return http.StatusBadRequest, Response{
			Error: businessRuleError.Message,
			Details: map[string]interface{}{
				"rule":    businessRuleError.Rule,
				"context": businessRuleError.Context,
			},
		}
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		return http.StatusForbidden, Response{
			Error: "Access denied",
			Details: map[string]interface{}{
				"resource": permissionError.Resource,
				"action":   permissionError.Action,
				"reason":   permissionError.Reason,
			},
		}
	}

	var partial *services.PartialAssignmentError
	if errors.As(err, &partial) {
		return http.StatusInternalServerError, Response{
			Error: "Mentor assignment partially applied",
			Details: map[string]interface{}{
				"student_id": partial.StudentID,
				"mentor_id":  partial.MentorID,
			},
		}
	}

	switch {
	case errors.Is(err, apperrors.ErrRecordNotFound):
		return http.StatusNotFound, Response{Error: "Record not found"}
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, Response{Error: "User not found"}
	case errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized, Response{Error: "Unauthorized"}
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden, Response{Error: "Access denied"}
	case apperrors.IsConnection(err):
		return http.StatusInternalServerError, Response{Error: "Database unavailable"}
	default:
		return http.StatusInternalServerError, Response{Error: "Internal server error"}
	}
}

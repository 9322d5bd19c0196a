package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	apperrors "github.com/SAP-F-2025/student-portal-service/internal/errors"
	"github.com/SAP-F-2025/student-portal-service/internal/models"
	"github.com/SAP-F-2025/student-portal-service/internal/services"
	"github.com/stretchr/testify/assert"
)

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{
			name:   "validation",
			err:    services.ValidationErrors{*services.NewValidationError("email", "is required", "")},
			status: http.StatusBadRequest,
			msg:    "Validation failed",
		},
		{
			name:   "duplicate key",
			err:    fmt.Errorf("create: %w", apperrors.NewDuplicateKeyError("email")),
			status: http.StatusBadRequest,
		},
		{
			name:   "business rule",
			err:    services.NewBusinessRuleError("mentor_role", "target is not a mentor", nil),
			status: http.StatusBadRequest,
			msg:    "target is not a mentor",
		},
		{
			name:   "permission",
			err:    services.NewPermissionError("a", "b", "user", "update", "nope"),
			status: http.StatusForbidden,
			msg:    "Access denied",
		},
		{
			name:   "partial assignment",
			err:    &services.PartialAssignmentError{StudentID: "s", MentorID: "m", Err: errors.New("boom")},
			status: http.StatusInternalServerError,
			msg:    "Mentor assignment partially applied",
		},
		{
			name:   "record not found",
			err:    apperrors.ErrRecordNotFound,
			status: http.StatusNotFound,
			msg:    "Record not found",
		},
		{
			name:   "user not found",
			err:    fmt.Errorf("lookup: %w", apperrors.ErrNotFound),
			status: http.StatusNotFound,
			msg:    "User not found",
		},
		{
			name:   "unauthorized",
			err:    services.ErrUnauthorized,
			status: http.StatusUnauthorized,
			msg:    "Unauthorized",
		},
		{
			name:   "connection",
			err:    apperrors.NewConnectionError(errors.New("dial tcp")),
			status: http.StatusInternalServerError,
			msg:    "Database unavailable",
		},
		{
			name:   "unknown",
			err:    errors.New("boom"),
			status: http.StatusInternalServerError,
			msg:    "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := errorResponse(tt.err)
			assert.Equal(t, tt.status, status)
			assert.False(t, resp.Success)
			if tt.msg != "" {
				assert.Equal(t, tt.msg, resp.Error)
			} else {
				assert.NotEmpty(t, resp.Error)
			}
		})
	}
}

func TestErrorResponseDuplicateDetails(t *testing.T) {
	_, resp := errorResponse(apperrors.NewDuplicateKeyError("username"))
	assert.Equal(t, map[string]interface{}{"field": "username"}, resp.Details)
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(models.ListOptions{Page: 2, PageSize: 10}, 25)
	assert.Equal(t, &Pagination{Page: 2, Limit: 10, Total: 25, Pages: 3}, p)

	p = NewPagination(models.ListOptions{}, 0)
	assert.Equal(t, models.DefaultPage, p.Page)
	assert.Equal(t, models.DefaultPageSize, p.Limit)
	assert.Equal(t, int64(0), p.Pages)
}

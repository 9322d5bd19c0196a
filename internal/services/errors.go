package services

import (
	"errors"
	"fmt"

	apperrors "github.com/SAP-F-2025/student-portal-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	ErrNotFound       = apperrors.ErrNotFound
	ErrRecordNotFound = apperrors.ErrRecordNotFound
	ErrUnauthorized   = apperrors.ErrUnauthorized
	ErrForbidden      = apperrors.ErrForbidden

	ErrInvalidID            = errors.New("invalid id")
	ErrStudentCodeExhausted = errors.New("could not allocate a unique student code")
	ErrUsernameExhausted    = errors.New("could not allocate a unique username")
)

// ===== CUSTOM ERROR TYPES =====

type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// BusinessRuleError is a well-formed request that the current state rejects,
// e.g. assigning a student to a user who is not a mentor.
type BusinessRuleError struct {
	Rule    string                 `json:"rule"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (bre *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule violation (%s): %s", bre.Rule, bre.Message)
}

// PermissionError is returned when the actor's role does not allow the action.
// It matches ErrForbidden under errors.Is.
type PermissionError struct {
	ActorID    string `json:"actor_id"`
	ResourceID string `json:"resource_id,omitempty"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (pe *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %s - %s",
		pe.ActorID, pe.Action, pe.Resource, pe.ResourceID, pe.Reason)
}

func (pe *PermissionError) Unwrap() error {
	return ErrForbidden
}

// ===== ERROR HELPERS =====

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: message,
		Context: context,
	}
}

func NewPermissionError(actorID, resourceID, resource, action, reason string) *PermissionError {
	return &PermissionError{
		ActorID:    actorID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

func IsNotFound(err error) bool {
	return apperrors.IsNotFound(err)
}

func IsUnauthorized(err error) bool {
	return apperrors.IsUnauthorized(err)
}

func IsForbidden(err error) bool {
	return apperrors.IsForbidden(err)
}

func IsValidation(err error) bool {
	return apperrors.IsValidation(err)
}

func IsDuplicate(err error) bool {
	return apperrors.IsDuplicate(err)
}

func IsBusinessRule(err error) bool {
	var bre *BusinessRuleError
	return errors.As(err, &bre)
}

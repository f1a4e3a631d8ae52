package services

import (
	"errors"
	"fmt"

	"github.com/SAP-F-2025/learning-service/internal/cache"
	apperrors "github.com/SAP-F-2025/learning-service/internal/errors"
	"github.com/SAP-F-2025/learning-service/internal/quiz"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrForbidden        = errors.New("forbidden - insufficient permissions")
	ErrValidationFailed = errors.New("validation failed")
	ErrConflict         = errors.New("resource conflict")

	// Course errors
	ErrCourseNotFound     = errors.New("course not found")
	ErrSubCourseNotFound  = errors.New("sub-course not found")
	ErrMediaNotFound      = errors.New("media not found")
	ErrCourseAccessDenied = errors.New("access denied to course")

	// Quiz session errors
	ErrSessionNotFound    = errors.New("quiz session not found")
	ErrSessionBusy        = errors.New("quiz session is being modified, try again")
	ErrAlreadySubmitted   = errors.New("quiz already submitted for this sub-course")
	ErrSubmissionNotFound = errors.New("submission not found")

	// User errors
	ErrUserNotFound     = errors.New("user not found")
	ErrUserExists       = errors.New("user already exists")
	ErrDepartmentExists = errors.New("department already exists")
	ErrAccessNotFound   = errors.New("course access record not found")

	// Task errors
	ErrTaskNotFound         = errors.New("task not found")
	ErrNotificationNotFound = errors.New("notification not found")
)

// ===== CUSTOM ERROR TYPES =====

type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type BusinessRuleError struct {
	Rule    string                 `json:"rule"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (bre *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule violation (%s): %s", bre.Rule, bre.Message)
}

type PermissionError struct {
	UserID     string `json:"user_id"`
	ResourceID string `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (pe *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %s - %s",
		pe.UserID, pe.Action, pe.Resource, pe.ResourceID, pe.Reason)
}

// ===== ERROR HELPERS =====

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

// validationFailure wraps a single field problem so it is reported as ValidationErrors
func validationFailure(field, message string, value interface{}) error {
	return ValidationErrors{*NewValidationError(field, message, value)}
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: message,
		Context: context,
	}
}

func NewPermissionError(userID, resourceID, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrCourseNotFound) ||
		errors.Is(err, ErrSubCourseNotFound) ||
		errors.Is(err, ErrMediaNotFound) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrSubmissionNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrAccessNotFound) ||
		errors.Is(err, ErrTaskNotFound) ||
		errors.Is(err, ErrNotificationNotFound) ||
		errors.Is(err, quiz.ErrSubCourseNotFound) ||
		errors.Is(err, cache.ErrSessionNotFound)
}

// IsUnauthorized checks if error represents an "unauthorized" condition
func IsUnauthorized(err error) bool {
	var pe *PermissionError
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrCourseAccessDenied) ||
		errors.As(err, &pe)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) ||
		errors.Is(err, quiz.ErrMissingMainCourse) ||
		errors.Is(err, quiz.ErrMissingSubCourse) ||
		errors.Is(err, quiz.ErrUnknownAnswer) ||
		errors.Is(err, quiz.ErrQuestionOutOfRange) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}

// IsBusinessRule checks if error represents a business rule violation
func IsBusinessRule(err error) bool {
	var bre *BusinessRuleError
	return errors.As(err, &bre) || errors.Is(err, quiz.ErrSubmitNotReady)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrAlreadySubmitted) ||
		errors.Is(err, ErrSessionBusy) ||
		errors.Is(err, ErrUserExists) ||
		errors.Is(err, ErrDepartmentExists) ||
		errors.Is(err, quiz.ErrSessionSubmitted) ||
		errors.Is(err, quiz.ErrAlreadyLoaded)
}

package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"

	// ErrorTypeDataError marks missing or malformed reference data discovered
	// while a check runs. The pipeline converts it into a Critical issue and
	// keeps going instead of aborting the run.
	ErrorTypeDataError ErrorType = "DATA_ERROR"

	// ErrorTypeExecutionFailure marks an engine fault (panic, dead database,
	// timeout). Runs failed this way are eligible for retry.
	ErrorTypeExecutionFailure ErrorType = "EXECUTION_FAILURE"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidPeriod    ErrorCode = "INVALID_PERIOD"
	ErrCodeInvalidSeverity  ErrorCode = "INVALID_SEVERITY"
	ErrCodeInvalidCheckName ErrorCode = "INVALID_CHECK_NAME"

	ErrCodeAwardNotFound      ErrorCode = "AWARD_NOT_FOUND"
	ErrCodeAwardLevelNotFound ErrorCode = "AWARD_LEVEL_NOT_FOUND"
	ErrCodeEmployeeNotFound   ErrorCode = "EMPLOYEE_NOT_FOUND"
	ErrCodeRosterNotFound     ErrorCode = "ROSTER_NOT_FOUND"
	ErrCodePayslipNotFound    ErrorCode = "PAYSLIP_NOT_FOUND"
	ErrCodeRunNotFound        ErrorCode = "VALIDATION_RUN_NOT_FOUND"
	ErrCodeIssueNotFound      ErrorCode = "VALIDATION_ISSUE_NOT_FOUND"

	ErrCodeRunAlreadyActive ErrorCode = "VALIDATION_RUN_ALREADY_ACTIVE"
	ErrCodeRunNotRetryable  ErrorCode = "VALIDATION_RUN_NOT_RETRYABLE"
	ErrCodeIssueResolved    ErrorCode = "ISSUE_ALREADY_RESOLVED"
	ErrCodeIssueWaived      ErrorCode = "ISSUE_ALREADY_WAIVED"
	ErrCodeWaiverNotAllowed ErrorCode = "WAIVER_NOT_ALLOWED"

	ErrCodeUnauthorizedAccess ErrorCode = "UNAUTHORIZED_ACCESS"
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeUserInactive       ErrorCode = "USER_INACTIVE"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"

	ErrCodeDataError        ErrorCode = "DATA_ERROR"
	ErrCodeExecutionFailure ErrorCode = "EXECUTION_FAILURE"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok {
			if len(validationErrors.Errors) == 1 {
				return validationErrors.Errors[0].Message
			} else if len(validationErrors.Errors) > 1 {
				messages := make([]string, len(validationErrors.Errors))
				for i, err := range validationErrors.Errors {
					messages[i] = err.Message
				}
				return strings.Join(messages, "; ")
			}
		}
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// NewDataError wraps a reference-data problem hit during a check, e.g. an
// employee mapped to a deleted award. Not an engine fault: the run continues
// and records an issue for the affected unit.
func NewDataError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeDataError,
		Code:       ErrCodeDataError,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
		Cause:      cause,
	}
}

// NewExecutionFailure wraps an engine-side fault that aborted a run.
func NewExecutionFailure(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeExecutionFailure,
		Code:       ErrCodeExecutionFailure,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

var (
	ErrAwardNotFound      = NewNotFoundError("Award not found", ErrCodeAwardNotFound)
	ErrAwardLevelNotFound = NewNotFoundError("No award level rate effective for the requested date", ErrCodeAwardLevelNotFound)
	ErrEmployeeNotFound   = NewNotFoundError("Employee not found", ErrCodeEmployeeNotFound)
	ErrRosterNotFound     = NewNotFoundError("Roster not found", ErrCodeRosterNotFound)
	ErrPayslipNotFound    = NewNotFoundError("Payslip not found", ErrCodePayslipNotFound)
	ErrRunNotFound        = NewNotFoundError("Validation run not found", ErrCodeRunNotFound)
	ErrIssueNotFound      = NewNotFoundError("Validation issue not found", ErrCodeIssueNotFound)

	ErrRunAlreadyActive = NewConflictError("A validation run is already in progress for this period", ErrCodeRunAlreadyActive)
	ErrRunNotRetryable  = NewConflictError("Only execution failures can be retried", ErrCodeRunNotRetryable)
	ErrIssueResolved    = NewConflictError("Issue is already resolved", ErrCodeIssueResolved)
	ErrIssueWaived      = NewConflictError("Issue is already waived", ErrCodeIssueWaived)
	ErrWaiverNotAllowed = NewValidationError("Critical issues cannot be waived", ErrCodeWaiverNotAllowed)

	ErrUnauthorizedAccess = NewForbiddenError("unauthorized access to organization data", ErrCodeUnauthorizedAccess)
	ErrInvalidCredentials = NewUnauthorizedError("Invalid email or password", ErrCodeInvalidCredentials)
	ErrUserInactive       = NewForbiddenError("User account is inactive", ErrCodeUserInactive)
	ErrInvalidToken       = NewUnauthorizedError("Invalid token", ErrCodeInvalidToken)
	ErrTokenExpired       = NewUnauthorizedError("Token has expired", ErrCodeTokenExpired)
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsDataError reports whether err is a reference-data problem rather than an
// engine fault.
func IsDataError(err error) bool {
	if appErr, ok := IsAppError(err); ok {
		return appErr.Type == ErrorTypeDataError || appErr.Type == ErrorTypeNotFound
	}
	return false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}

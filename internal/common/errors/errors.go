// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Admission business rule errors. These are thrown to the process as BPMN errors.
const (
	ErrCodeApplicationValidationFailed ErrorCode = "APPLICATION_VALIDATION_FAILED"
	ErrCodeApplicationNotFound         ErrorCode = "APPLICATION_NOT_FOUND"
	ErrCodeOutOfApplicationPeriod      ErrorCode = "OUT_OF_APPLICATION_PERIOD"
	ErrCodeFormAlreadySubmitted        ErrorCode = "FORM_ALREADY_SUBMITTED"
	ErrCodeInvalidStatusTransition     ErrorCode = "INVALID_STATUS_TRANSITION"
	ErrCodeInvalidJobVariables         ErrorCode = "INVALID_JOB_VARIABLES"

	ErrCodeExaminationNumberAssigned ErrorCode = "EXAMINATION_NUMBER_ALREADY_ASSIGNED"
	ErrCodeInsufficientData          ErrorCode = "INSUFFICIENT_DATA"
	ErrCodeFirstPassAlreadySelected  ErrorCode = "FIRST_PASS_ALREADY_SELECTED"
	ErrCodeSecondPassAlreadySelected ErrorCode = "SECOND_PASS_ALREADY_SELECTED"

	ErrCodeInvalidCellType           ErrorCode = "INVALID_CELL_TYPE"
	ErrCodeScoreOutOfRange           ErrorCode = "SCORE_OUT_OF_RANGE"
	ErrCodeRowCountMismatch          ErrorCode = "ROW_COUNT_MISMATCH"
	ErrCodeExaminationNumberMismatch ErrorCode = "EXAMINATION_NUMBER_MISMATCH"
)

// Technical errors. These fail the job and are retried by the broker.
const (
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"

	ErrCodeSelectionLocked ErrorCode = "SELECTION_IN_PROGRESS"
	ErrCodeLockFailed      ErrorCode = "LOCK_FAILED"

	ErrCodeElasticsearchConnectionFailed ErrorCode = "ELASTICSEARCH_CONNECTION_FAILED"
	ErrCodeIndexingFailed                ErrorCode = "INDEXING_FAILED"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata attaches a value that travels to the process as an error variable.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newBusinessError(code ErrorCode, message, details string) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func newTechnicalError(code ErrorCode, message string, err error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewApplicationValidationFailedError creates a non-retryable input validation error.
func NewApplicationValidationFailedError(details string) *StandardError {
	return newBusinessError(ErrCodeApplicationValidationFailed, "Application data validation failed", details)
}

// NewInvalidJobVariablesError reports job variables that fail schema validation.
func NewInvalidJobVariablesError(details string) *StandardError {
	return newBusinessError(ErrCodeInvalidJobVariables, "Job variables are invalid", details)
}

func NewApplicationNotFoundError(applicationID string) *StandardError {
	return newBusinessError(ErrCodeApplicationNotFound, "Application not found",
		fmt.Sprintf("applicationId: %s", applicationID))
}

func NewOutOfApplicationPeriodError(details string) *StandardError {
	return newBusinessError(ErrCodeOutOfApplicationPeriod, "Application period is closed", details)
}

func NewFormAlreadySubmittedError(userID string) *StandardError {
	return newBusinessError(ErrCodeFormAlreadySubmitted, "Applicant already submitted a form",
		fmt.Sprintf("userId: %s", userID))
}

func NewInvalidStatusTransitionError(details string) *StandardError {
	return newBusinessError(ErrCodeInvalidStatusTransition, "Status transition not allowed", details)
}

// NewSelectionAlreadyDoneError reports a selection batch that already ran.
func NewSelectionAlreadyDoneError(code ErrorCode, details string) *StandardError {
	return newBusinessError(code, "Selection has already been completed", details)
}

// NewSelectionLockedError is retryable: another worker holds the batch lock.
func NewSelectionLockedError(lockKey string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSelectionLocked,
		Message:   "Another selection run holds the lock",
		Details:   fmt.Sprintf("lockKey: %s", lockKey),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewLockFailedError(err error) *StandardError {
	return newTechnicalError(ErrCodeLockFailed, "Redis lock operation failed", err)
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newTechnicalError(ErrCodeDatabaseConnectionFailed, "Database connection error", err)
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryTimeoutError creates a retryable query timeout error.
func NewQueryTimeoutError(operation string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryTimeout,
		Message:   "Database query timeout",
		Details:   fmt.Sprintf("operation: %s", operation),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewElasticsearchConnectionFailedError creates a retryable Elasticsearch connection error.
func NewElasticsearchConnectionFailedError(err error) *StandardError {
	return newTechnicalError(ErrCodeElasticsearchConnectionFailed, "Elasticsearch connection error", err)
}

func NewIndexingFailedError(index string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeIndexingFailed,
		Message:   "Result indexing failed",
		Details:   fmt.Sprintf("index: %s, error: %s", index, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// Generic constructors

func NewBusinessRuleError(message, details string) *StandardError {
	return newBusinessError("BUSINESS_RULE_VIOLATION", message, details)
}

func NewExternalServiceError(service string, err error) *StandardError {
	return newTechnicalError("EXTERNAL_SERVICE_ERROR", fmt.Sprintf("External service '%s' error", service), err)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newTechnicalError("TIMEOUT_ERROR", fmt.Sprintf("Service '%s' timeout", service), err)
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return newBusinessError("RESOURCE_NOT_FOUND", fmt.Sprintf("Resource not found in %s", service), details)
}

func NewAuthenticationError(details string) *StandardError {
	return newBusinessError("AUTHENTICATION_ERROR", "Authentication failed", details)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeLockFailed,
		ErrCodeElasticsearchConnectionFailed,
		ErrCodeIndexingFailed,
		ErrCodeNotificationSendFailed,
		"EXTERNAL_SERVICE_ERROR":
		return 3

	case ErrCodeQueryTimeout,
		ErrCodeSelectionLocked,
		"TIMEOUT_ERROR":
		return 2

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
// Metadata entries are forwarded as error variables.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "CELL") || strings.Contains(codeStr, "RANGE") ||
		strings.Contains(codeStr, "ROW_COUNT") || strings.Contains(codeStr, "MISMATCH"):
		return "SCORE_SHEET"
	case strings.Contains(codeStr, "PASS") || strings.Contains(codeStr, "SELECTION") ||
		strings.Contains(codeStr, "LOCK"):
		return "SELECTION"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "ELASTICSEARCH") || strings.Contains(codeStr, "INDEXING"):
		return "SEARCH"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION") ||
		strings.Contains(codeStr, "INSUFFICIENT"):
		return "VALIDATION"
	case strings.Contains(codeStr, "APPLICATION") || strings.Contains(codeStr, "FORM") ||
		strings.Contains(codeStr, "EXAMINATION"):
		return "APPLICATION"
	default:
		return "OTHER"
	}
}

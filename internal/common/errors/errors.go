// Package errors provides the forecast error taxonomy and its conversions for the
// HTTP boundary and the Camunda job workers.
package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Pipeline errors
const (
	ErrCodeMissingField      ErrorCode = "MISSING_FIELD"
	ErrCodeUnknownOutlet     ErrorCode = "UNKNOWN_OUTLET"
	ErrCodeSchemaMismatch    ErrorCode = "SCHEMA_MISMATCH"
	ErrCodeInvalidInput      ErrorCode = "INVALID_INPUT"
	ErrCodeModelLoadFailed   ErrorCode = "MODEL_LOAD_FAILED"
	ErrCodePredictionFailed  ErrorCode = "PREDICTION_FAILED"
	ErrCodePaletteIncomplete ErrorCode = "PALETTE_INCOMPLETE"
)

// Infrastructure errors
const (
	ErrCodeOutletSourceFailed     ErrorCode = "OUTLET_SOURCE_FAILED"
	ErrCodeResultNotFound         ErrorCode = "RESULT_NOT_FOUND"
	ErrCodeResultStoreFailed      ErrorCode = "RESULT_STORE_FAILED"
	ErrCodeSearchQueryFailed      ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeWorkflowEngineFailed   ErrorCode = "WORKFLOW_ENGINE_FAILED"
	ErrCodeInternal               ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
}

// Is matches any StandardError carrying the same code, so the sentinels below work
// with errors.Is through fmt.Errorf("%w") wrapping.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata returns a copy of e with key set in its metadata.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	cp := *e
	cp.Metadata = make(map[string]interface{}, len(e.Metadata)+1)
	for k, v := range e.Metadata {
		cp.Metadata[k] = v
	}
	cp.Metadata[key] = value
	return &cp
}

// Sentinels for errors.Is.
var (
	ErrMissingField      = &StandardError{Code: ErrCodeMissingField}
	ErrUnknownOutlet     = &StandardError{Code: ErrCodeUnknownOutlet}
	ErrSchemaMismatch    = &StandardError{Code: ErrCodeSchemaMismatch}
	ErrInvalidInput      = &StandardError{Code: ErrCodeInvalidInput}
	ErrModelLoadFailed   = &StandardError{Code: ErrCodeModelLoadFailed}
	ErrPredictionFailed  = &StandardError{Code: ErrCodePredictionFailed}
	ErrPaletteIncomplete = &StandardError{Code: ErrCodePaletteIncomplete}
	ErrOutletSource      = &StandardError{Code: ErrCodeOutletSourceFailed}
	ErrResultNotFound    = &StandardError{Code: ErrCodeResultNotFound}
	ErrResultStore       = &StandardError{Code: ErrCodeResultStoreFailed}
	ErrSearchQueryFailed = &StandardError{Code: ErrCodeSearchQueryFailed}
	ErrNotificationSend  = &StandardError{Code: ErrCodeNotificationSendFailed}
	ErrWorkflowEngine    = &StandardError{Code: ErrCodeWorkflowEngineFailed}
)

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

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewMissingFieldError reports a required input key that was not supplied.
func NewMissingFieldError(field string) *StandardError {
	return newError(ErrCodeMissingField, fmt.Sprintf("missing required field %q", field), "", false, nil).
		WithMetadata("field", field)
}

// NewUnknownOutletError reports an outlet identifier absent from the enrichment table.
func NewUnknownOutletError(outletID string) *StandardError {
	return newError(ErrCodeUnknownOutlet, fmt.Sprintf("unknown outlet identifier %q", outletID), "", false, nil).
		WithMetadata("outletIdentifier", outletID)
}

// NewSchemaMismatchError reports declared model features that the record cannot supply,
// or columns the model does not accept.
func NewSchemaMismatchError(missing, extra []string) *StandardError {
	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing: "+strings.Join(missing, ", "))
	}
	if len(extra) > 0 {
		parts = append(parts, "unexpected: "+strings.Join(extra, ", "))
	}
	return newError(ErrCodeSchemaMismatch, "record columns do not match the model schema", strings.Join(parts, "; "), false, nil)
}

// NewColumnTypeError reports a column whose kind differs from what the model expects.
func NewColumnTypeError(column, want string) *StandardError {
	return newError(ErrCodeSchemaMismatch, "record columns do not match the model schema",
		fmt.Sprintf("column %s must be %s", column, want), false, nil)
}

func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "invalid input", details, false, nil)
}

func NewModelLoadFailedError(path string, err error) *StandardError {
	return newError(ErrCodeModelLoadFailed, "model artifact could not be loaded",
		fmt.Sprintf("path: %s, error: %v", path, err), false, err)
}

func NewPredictionFailedError(details string) *StandardError {
	return newError(ErrCodePredictionFailed, "prediction failed", details, false, nil)
}

// NewPaletteIncompleteError lists the categories that have no assigned color.
func NewPaletteIncompleteError(missing []string) *StandardError {
	sorted := append([]string(nil), missing...)
	sort.Strings(sorted)
	return newError(ErrCodePaletteIncomplete, "categories without an assigned color",
		strings.Join(sorted, ", "), false, nil)
}

func NewOutletSourceError(source string, err error) *StandardError {
	return newError(ErrCodeOutletSourceFailed, "outlet table could not be loaded",
		fmt.Sprintf("source: %s, error: %v", source, err), true, err)
}

func NewResultNotFoundError(id string) *StandardError {
	return newError(ErrCodeResultNotFound, "batch result not found or expired", fmt.Sprintf("batchId: %s", id), false, nil)
}

func NewResultStoreError(err error) *StandardError {
	return newError(ErrCodeResultStoreFailed, "batch result store error", err.Error(), true, err)
}

func NewSearchQueryFailedError(err error) *StandardError {
	return newError(ErrCodeSearchQueryFailed, "item search failed", err.Error(), true, err)
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, fmt.Sprintf("%s notification failed", channel), err.Error(), true, err)
}

// NewWorkflowEngineError reports a Zeebe gateway call that failed.
func NewWorkflowEngineError(operation string, err error, retryable bool) *StandardError {
	return newError(ErrCodeWorkflowEngineFailed, fmt.Sprintf("zeebe %s failed", operation), err.Error(), retryable, err)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "unexpected error", err.Error(), false, err)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// AsStandardError finds the first StandardError in err's chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// Normalize always returns a StandardError, wrapping unknown errors as INTERNAL_ERROR.
// The outer error text is kept in Details so row prefixes added by callers survive.
func Normalize(err error) *StandardError {
	if stdErr, ok := AsStandardError(err); ok {
		if err.Error() != stdErr.Error() {
			cp := *stdErr
			cp.Details = err.Error()
			return &cp
		}
		return stdErr
	}
	return NewInternalError(err)
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeOutletSourceFailed,
		ErrCodeResultStoreFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeWorkflowEngineFailed:
		return 3
	case ErrCodeModelLoadFailed:
		return 1
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
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

// IsValidation reports codes that describe bad user input rather than a failure of
// the service.
func IsValidation(code ErrorCode) bool {
	switch code {
	case ErrCodeMissingField, ErrCodeUnknownOutlet, ErrCodeInvalidInput:
		return true
	}
	return false
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	switch {
	case IsValidation(code):
		return "VALIDATION"
	case code == ErrCodeSchemaMismatch || code == ErrCodeModelLoadFailed || code == ErrCodePredictionFailed:
		return "MODEL"
	case code == ErrCodeResultNotFound || code == ErrCodeResultStoreFailed:
		return "STORE"
	case code == ErrCodeSearchQueryFailed:
		return "SEARCH"
	case code == ErrCodeNotificationSendFailed:
		return "NOTIFICATION"
	case code == ErrCodeWorkflowEngineFailed:
		return "WORKFLOW"
	default:
		return "OTHER"
	}
}

package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeConfig       = "CONFIG_ERROR"
	ErrCodeConnectivity = "CONNECTIVITY_ERROR"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrInvalidDocumentType = NewDomainError(ErrCodeValidation, "invalid document type")
	ErrInvalidPatientID    = NewDomainError(ErrCodeValidation, "patient ID contains path characters")
	ErrMissingRequired     = NewDomainError(ErrCodeValidation, "missing required field")
)

// Not found errors
var (
	ErrReportNotFound = NewDomainError(ErrCodeNotFound, "clinical report not found")
)

// Configuration errors
var (
	ErrDatabaseNotConfigured   = NewDomainError(ErrCodeConfig, "DATABASE_URL not configured")
	ErrEmbeddingNotConfigured  = NewDomainError(ErrCodeConfig, "embedding backend not configured: OPENAI_API_KEY required")
	ErrGenerationNotConfigured = NewDomainError(ErrCodeConfig, "generation backend not configured: GROQ_API_KEY required")
)

// NewConnectivityError wraps a backend failure with the backend name for diagnosis.
func NewConnectivityError(backend string, err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeConnectivity, fmt.Sprintf("%s unreachable", backend), err)
}

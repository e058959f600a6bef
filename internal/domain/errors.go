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
	ErrCodeValidation  = "VALIDATION_ERROR"
	ErrCodeNotFound    = "NOT_FOUND"
	ErrCodeUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodePersistence = "PERSISTENCE_ERROR"
	ErrCodeInternal    = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrEmptyQuestion       = NewDomainError(ErrCodeValidation, "question text cannot be empty")
	ErrEmptyDocumentID     = NewDomainError(ErrCodeValidation, "document id is required")
	ErrMissingOrgScope     = NewDomainError(ErrCodeValidation, "organization id is required")
	ErrInvalidChunkConfig  = NewDomainError(ErrCodeValidation, "chunk overlap must be smaller than chunk size")
	ErrInvalidDocumentType = NewDomainError(ErrCodeValidation, "invalid document type")
)

// Not found errors
var (
	ErrQuestionNotFound = NewDomainError(ErrCodeNotFound, "question not found")
	ErrAnswerNotFound   = NewDomainError(ErrCodeNotFound, "answer not found")
	ErrDocumentNotFound = NewDomainError(ErrCodeNotFound, "document not found")
	ErrIndexJobNotFound = NewDomainError(ErrCodeNotFound, "index job not found")
)

// Provider errors. Indexing requires the embedding provider; retrieval and
// synthesis degrade instead of raising, so only the indexer surfaces these.
var (
	ErrEmbeddingUnavailable = NewDomainError(ErrCodeUnavailable, "embedding provider not configured")
	ErrIndexingFailed       = NewDomainError(ErrCodeUnavailable, "indexing failed")
)

// Persistence errors
var (
	ErrAnswerPersist = NewDomainError(ErrCodePersistence, "failed to persist generated answer")
)

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

// Is reports whether target is a DomainError of the same kind, ignoring the cause.
// This lets errors.Is(err, ErrRetrieval) match an ErrRetrieval.WithCause(...) value.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// WithCause returns a copy of the error carrying err as its cause.
func (e *DomainError) WithCause(err error) *DomainError {
	return NewDomainErrorWithCause(e.Code, e.Message, err)
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
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeInternalError = "INTERNAL_ERROR"

	ErrCodeInvalidChunking     = "INVALID_CHUNKING_PARAMETERS"
	ErrCodeEmbeddingGeneration = "EMBEDDING_GENERATION_FAILED"
	ErrCodeEmptyInput          = "EMPTY_INPUT"
	ErrCodeDimensionMismatch   = "DIMENSION_MISMATCH"
	ErrCodeRetrieval           = "RETRIEVAL_FAILED"
	ErrCodeAnswerGeneration    = "ANSWER_GENERATION_FAILED"
)

// Validation errors
var (
	ErrEmptyQuery           = NewDomainError(ErrCodeValidation, "query produced no chunks")
	ErrInvalidTopK          = NewDomainError(ErrCodeValidation, "topK must be greater than zero")
	ErrTopKTooLarge         = NewDomainError(ErrCodeValidation, "topK exceeds the configured maximum")
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
	ErrInvalidCursor        = NewDomainError(ErrCodeValidation, "invalid pagination cursor")
)

// Not found errors
var (
	ErrDocumentNotFound = NewDomainError(ErrCodeNotFound, "document not found")
)

// Pipeline errors. Callers match these with errors.Is; instances returned at runtime
// usually carry the upstream cause.
var (
	ErrInvalidChunkingParameters = NewDomainError(ErrCodeInvalidChunking, "chunk overlap must be non-negative and smaller than chunk size")
	ErrEmbeddingGeneration       = NewDomainError(ErrCodeEmbeddingGeneration, "embedding generation failed after retries")
	ErrEmptyInput                = NewDomainError(ErrCodeEmptyInput, "cannot aggregate an empty set of vectors")
	ErrDimensionMismatch         = NewDomainError(ErrCodeDimensionMismatch, "vectors have different dimensions")
	ErrRetrieval                 = NewDomainError(ErrCodeRetrieval, "similarity retrieval failed")
	ErrAnswerGeneration          = NewDomainError(ErrCodeAnswerGeneration, "answer generation failed")
)

// Storage errors
var (
	ErrStorageOperationFail = NewDomainError(ErrCodeInternalError, "storage operation failed")
)

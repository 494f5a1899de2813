package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Error(t *testing.T) {
	err := NewDomainError(ErrCodeValidation, "bad input")
	assert.Equal(t, "[VALIDATION_ERROR] bad input", err.Error())

	withCause := NewDomainErrorWithCause(ErrCodeRetrieval, "lookup failed", errors.New("connection refused"))
	assert.Equal(t, "[RETRIEVAL_FAILED] lookup failed: connection refused", withCause.Error())
}

func TestDomainError_IsMatchesKindIgnoringCause(t *testing.T) {
	cause := errors.New("timeout")
	err := ErrEmbeddingGeneration.WithCause(cause)

	assert.True(t, errors.Is(err, ErrEmbeddingGeneration))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrRetrieval))
}

func TestDomainError_IsThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("stage retrieving: %w", ErrRetrieval.WithCause(errors.New("pool closed")))

	assert.True(t, errors.Is(wrapped, ErrRetrieval))

	var de *DomainError
	assert.True(t, errors.As(wrapped, &de))
	assert.Equal(t, ErrCodeRetrieval, de.Code)
}

func TestDomainError_WithCauseDoesNotMutateSentinel(t *testing.T) {
	_ = ErrAnswerGeneration.WithCause(errors.New("boom"))

	assert.Nil(t, ErrAnswerGeneration.Err)
}

func TestDomainError_SameCodeDifferentKind(t *testing.T) {
	assert.False(t, errors.Is(ErrEmptyQuery, ErrInvalidTopK))
}

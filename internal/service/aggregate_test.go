package service

import (
	"testing"

	"github.com/cloo-solutions/docqa/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAverageEmbeddings(t *testing.T) {
	tests := []struct {
		name     string
		vectors  [][]float32
		expected []float32
	}{
		{
			name:     "two vectors",
			vectors:  [][]float32{{1, 2}, {3, 4}},
			expected: []float32{2, 3},
		},
		{
			name:     "single vector is returned as is",
			vectors:  [][]float32{{5, 5, 5}},
			expected: []float32{5, 5, 5},
		},
		{
			name:     "negative values",
			vectors:  [][]float32{{-1, 4}, {1, -4}, {3, 3}},
			expected: []float32{1, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			avg, err := AverageEmbeddings(tt.vectors)
			require.NoError(t, err)
			assert.InDeltaSlice(t, tt.expected, avg, 1e-6)
		})
	}
}

func TestAverageEmbeddings_DoesNotModifyInput(t *testing.T) {
	in := [][]float32{{1, 2}, {3, 4}}

	_, err := AverageEmbeddings(in)
	require.NoError(t, err)

	assert.Equal(t, [][]float32{{1, 2}, {3, 4}}, in)
}

func TestAverageEmbeddings_Empty(t *testing.T) {
	_, err := AverageEmbeddings(nil)
	assert.ErrorIs(t, err, domain.ErrEmptyInput)

	_, err = AverageEmbeddings([][]float32{})
	assert.ErrorIs(t, err, domain.ErrEmptyInput)
}

func TestAverageEmbeddings_DimensionMismatch(t *testing.T) {
	_, err := AverageEmbeddings([][]float32{{1, 2}, {3}})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

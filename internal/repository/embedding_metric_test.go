package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceOperator(t *testing.T) {
	tests := []struct {
		metric string
		op     string
	}{
		{metric: "", op: "<->"},
		{metric: "l2", op: "<->"},
		{metric: "cosine", op: "<=>"},
		{metric: "inner_product", op: "<#>"},
	}

	for _, tt := range tests {
		t.Run(tt.metric, func(t *testing.T) {
			op, err := DistanceOperator(tt.metric)
			require.NoError(t, err)
			assert.Equal(t, tt.op, op)
		})
	}
}

func TestDistanceOperator_Unknown(t *testing.T) {
	_, err := DistanceOperator("hamming")
	assert.Error(t, err)

	_, err = NewEmbeddingRepository(nil, "hamming")
	assert.Error(t, err)
}

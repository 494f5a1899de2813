package service

import "github.com/cloo-solutions/docqa/internal/domain"

// AverageEmbeddings returns the element-wise mean of equal-length vectors.
func AverageEmbeddings(vectors [][]float32) ([]float32, error) {
	if len(vectors) == 0 {
		return nil, domain.ErrEmptyInput
	}

	dim := len(vectors[0])
	sums := make([]float64, dim)
	for _, v := range vectors {
		if len(v) != dim {
			return nil, domain.ErrDimensionMismatch
		}
		for i, x := range v {
			sums[i] += float64(x)
		}
	}

	n := float64(len(vectors))
	avg := make([]float32, dim)
	for i, s := range sums {
		avg[i] = float32(s / n)
	}
	return avg, nil
}

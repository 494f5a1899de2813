package pagination

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeCursor(t *testing.T) {
	ts := time.Date(2024, 6, 1, 10, 20, 30, 123456000, time.FixedZone("CEST", 2*3600))

	encoded := EncodeCursor("doc|with|pipes", ts)
	require.NotEmpty(t, encoded)
	assert.Equal(t, encoded, url.QueryEscape(encoded), "cursor must survive a query string unescaped")

	cursor, err := DecodeCursor(encoded)
	require.NoError(t, err)
	assert.Equal(t, "doc|with|pipes", cursor.LastID)
	assert.True(t, ts.Equal(cursor.Timestamp))
}

func TestEncodeCursor_EmptyID(t *testing.T) {
	assert.Empty(t, EncodeCursor("", time.Now()))
}

func TestDecodeCursor_Empty(t *testing.T) {
	cursor, err := DecodeCursor("")
	require.NoError(t, err)
	assert.Nil(t, cursor)
}

func TestDecodeCursor_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		cursor string
	}{
		{"not base64", "!!!"},
		{"no separator", "bm8tc2VwYXJhdG9y"},
		{"bad timestamp", "eWVzdGVyZGF5fGRvYy0x"},
		{"missing id", "MjAyNC0wMS0wMVQwMDowMDowMFp8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeCursor(tt.cursor)
			assert.ErrorIs(t, err, ErrInvalidCursor)
		})
	}
}

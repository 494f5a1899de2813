package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForModel_RoundTrip(t *testing.T) {
	tok, err := ForModel("text-embedding-ada-002")
	require.NoError(t, err)

	text := "Revenue grew 10% in the third quarter."
	tokens := tok.Encode(text)

	assert.NotEmpty(t, tokens)
	assert.Less(t, len(tokens), len(text))
	assert.Equal(t, text, tok.Decode(tokens))
}

func TestForModel_KnownTokens(t *testing.T) {
	tok, err := ForModel("text-embedding-ada-002")
	require.NoError(t, err)

	assert.Equal(t, []int{15339, 1917}, tok.Encode("hello world"))
}

func TestForModel_UnknownModelFallsBack(t *testing.T) {
	tok, err := ForModel("some-future-model")
	require.NoError(t, err)

	def, err := ForEncoding(DefaultEncoding)
	require.NoError(t, err)

	assert.Equal(t, def.Encode("hello world"), tok.Encode("hello world"))
}

func TestForEncoding_Unknown(t *testing.T) {
	_, err := ForEncoding("no_such_encoding")
	assert.Error(t, err)
}

func TestEncode_Empty(t *testing.T) {
	tok, err := ForEncoding(DefaultEncoding)
	require.NoError(t, err)

	assert.Empty(t, tok.Encode(""))
	assert.Equal(t, "", tok.Decode(nil))
}

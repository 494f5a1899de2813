// Package tokenizer exposes the BPE vocabulary of the embedding model so text can be
// split on the same token boundaries the model sees.
package tokenizer

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// Tokenizer converts between text and model token ids.
type Tokenizer interface {
	Encode(text string) []int
	Decode(tokens []int) string
}

// DefaultEncoding is used when the model name is not known to tiktoken.
const DefaultEncoding = "cl100k_base"

var loaderOnce sync.Once

// useOfflineLoader reads BPE ranks from files embedded in the binary instead of
// downloading them on first use.
func useOfflineLoader() {
	loaderOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	})
}

type tiktokenTokenizer struct {
	enc *tiktoken.Tiktoken
}

// ForModel returns the tokenizer for an OpenAI model name, falling back to
// DefaultEncoding for unknown names.
func ForModel(model string) (Tokenizer, error) {
	useOfflineLoader()

	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(DefaultEncoding)
		if err != nil {
			return nil, fmt.Errorf("failed to load encoding %s: %w", DefaultEncoding, err)
		}
	}
	return &tiktokenTokenizer{enc: enc}, nil
}

// ForEncoding returns the tokenizer for a named encoding such as "cl100k_base".
func ForEncoding(name string) (Tokenizer, error) {
	useOfflineLoader()

	enc, err := tiktoken.GetEncoding(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load encoding %s: %w", name, err)
	}
	return &tiktokenTokenizer{enc: enc}, nil
}

// Encode treats special-token text as ordinary text.
func (t *tiktokenTokenizer) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

func (t *tiktokenTokenizer) Decode(tokens []int) string {
	return t.enc.Decode(tokens)
}

package service

import (
	"iter"

	"github.com/cloo-solutions/docqa/internal/config"
	"github.com/cloo-solutions/docqa/internal/domain"
	"github.com/cloo-solutions/docqa/internal/tokenizer"
)

func validateChunking(cfg config.ChunkingConfig) error {
	if cfg.Size <= 0 || cfg.Overlap < 0 || cfg.Overlap >= cfg.Size {
		return domain.ErrInvalidChunkingParameters
	}
	return nil
}

// Chunks splits text into windows of at most cfg.Size tokens. Consecutive windows share
// cfg.Overlap tokens. Windows are decoded lazily, one per yield.
//
// Each window is decoded on its own, so a boundary that falls inside a multi-byte
// character yields U+FFFD at that edge of the chunk text.
func Chunks(tok tokenizer.Tokenizer, text string, cfg config.ChunkingConfig) (iter.Seq[domain.Chunk], error) {
	if err := validateChunking(cfg); err != nil {
		return nil, err
	}

	if text == "" {
		return func(func(domain.Chunk) bool) {}, nil
	}

	tokens := tok.Encode(text)
	step := cfg.Size - cfg.Overlap

	return func(yield func(domain.Chunk) bool) {
		index := 0
		for start := 0; start < len(tokens); start += step {
			end := min(start+cfg.Size, len(tokens))
			if !yield(domain.Chunk{Text: tok.Decode(tokens[start:end]), Index: index}) {
				return
			}
			index++
		}
	}, nil
}

// ChunkText is Chunks collected into a slice.
func ChunkText(tok tokenizer.Tokenizer, text string, cfg config.ChunkingConfig) ([]domain.Chunk, error) {
	seq, err := Chunks(tok, text, cfg)
	if err != nil {
		return nil, err
	}

	var chunks []domain.Chunk
	for c := range seq {
		chunks = append(chunks, c)
	}
	return chunks, nil
}

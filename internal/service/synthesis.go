package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloo-solutions/docqa/internal/domain"
)

// FallbackAnswer is what the model is told to say when the context lacks the answer.
const FallbackAnswer = "I don't know."

// ChatClient sends one prompt to a chat model and returns its reply.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, prompt string) (string, error)
}

// AnswerSynthesizer produces an answer grounded only in retrieved chunks.
type AnswerSynthesizer struct {
	chat ChatClient
}

func NewAnswerSynthesizer(chat ChatClient) *AnswerSynthesizer {
	return &AnswerSynthesizer{chat: chat}
}

// BuildPrompt lays out the retrieved chunks in rank order followed by the question.
func BuildPrompt(query string, chunks []domain.RetrievedChunk) string {
	blocks := make([]string, len(chunks))
	for i, c := range chunks {
		blocks[i] = fmt.Sprintf("Chunk %d:\n%s", i+1, c.Content)
	}

	var b strings.Builder
	b.WriteString("You are a helpful assistant. Answer the question using only the context below. ")
	b.WriteString("Do not use prior knowledge.\n\n")
	b.WriteString("Context:\n")
	b.WriteString(strings.Join(blocks, "\n\n"))
	b.WriteString("\n\nQuestion:\n")
	b.WriteString(query)
	b.WriteString("\n\nIf the answer cannot be found in the context, say \"")
	b.WriteString(FallbackAnswer)
	b.WriteString("\"")
	return b.String()
}

// Synthesize returns the model's trimmed answer.
func (s *AnswerSynthesizer) Synthesize(ctx context.Context, query string, chunks []domain.RetrievedChunk) (string, error) {
	answer, err := s.chat.CreateChatCompletion(ctx, BuildPrompt(query, chunks))
	if err != nil {
		return "", domain.ErrAnswerGeneration.WithCause(err)
	}
	return strings.TrimSpace(answer), nil
}

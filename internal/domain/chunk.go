package domain

// Chunk is a token-bounded slice of text produced by the chunker.
type Chunk struct {
	Text  string
	Index int // 0-based, in production order
}

// RetrievedChunk is a stored chunk returned by similarity search.
type RetrievedChunk struct {
	Content    string
	DocumentID string
	ChunkIndex int
	// Distance under the index's configured metric. Smaller is nearer.
	Distance float64
}

// QueryResult is the outcome of answering one question.
type QueryResult struct {
	Query         string
	Answer        string
	DocumentIDs   []string
	MatchedChunks []RetrievedChunk
}

package domain

import (
	"fmt"
	"time"
)

// Document is an uploaded PDF whose chunks live in the embeddings index.
type Document struct {
	ID         string
	S3Key      string
	Title      string
	UploadedBy string
	CreatedAt  time.Time
	Processed  bool
}

// NewDocument creates a new Document instance
func NewDocument(id, s3Key, title, uploadedBy string, createdAt time.Time, processed bool) *Document {
	return &Document{
		ID:         id,
		S3Key:      s3Key,
		Title:      title,
		UploadedBy: uploadedBy,
		CreatedAt:  createdAt,
		Processed:  processed,
	}
}

// ValidateDocument validates a Document instance
func ValidateDocument(d *Document) error {
	if d == nil {
		return fmt.Errorf("document cannot be nil")
	}

	if d.ID == "" {
		return fmt.Errorf("document ID is required")
	}

	if d.S3Key == "" {
		return fmt.Errorf("document S3Key is required")
	}

	if d.Title == "" {
		return fmt.Errorf("document Title is required")
	}

	return nil
}

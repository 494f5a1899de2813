package service

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/cloo-solutions/docqa/internal/config"
)

// IngestSettingsReader returns the key/value settings recorded at ingestion time.
type IngestSettingsReader interface {
	GetAll(ctx context.Context) (map[string]string, error)
}

// SettingMismatch is one query-time setting that differs from what ingestion used.
type SettingMismatch struct {
	Key      string
	Ingested string
	Query    string
}

// CheckIngestSettings compares the chunking and distance settings used to build the
// index with the ones this process will query with. Every mismatch is logged as a
// warning and returned. Settings the ingestion side did not record are skipped.
func CheckIngestSettings(ctx context.Context, reader IngestSettingsReader, chunking config.ChunkingConfig, metric string, logger *slog.Logger) ([]SettingMismatch, error) {
	stored, err := reader.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	current := map[string]string{
		"chunk_size":      strconv.Itoa(chunking.Size),
		"chunk_overlap":   strconv.Itoa(chunking.Overlap),
		"distance_metric": metric,
	}

	var mismatches []SettingMismatch
	for _, key := range []string{"chunk_size", "chunk_overlap", "distance_metric"} {
		ingested, ok := stored[key]
		if !ok || ingested == current[key] {
			continue
		}
		mismatches = append(mismatches, SettingMismatch{Key: key, Ingested: ingested, Query: current[key]})
		logger.WarnContext(ctx, "query setting differs from ingestion",
			"key", key,
			"ingested", ingested,
			"query", current[key],
		)
	}
	return mismatches, nil
}

package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cloo-solutions/docqa/internal/config"
	"github.com/cloo-solutions/docqa/internal/service"
)

// IngestSettingsWatcher re-reads the settings recorded by ingestion and warns while
// they disagree with the query configuration.
type IngestSettingsWatcher struct {
	reader   service.IngestSettingsReader
	chunking config.ChunkingConfig
	metric   string
	logger   *slog.Logger

	mismatched bool
}

func NewIngestSettingsWatcher(reader service.IngestSettingsReader, chunking config.ChunkingConfig, metric string, logger *slog.Logger) *IngestSettingsWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestSettingsWatcher{
		reader:   reader,
		chunking: chunking,
		metric:   metric,
		logger:   logger,
	}
}

// ProcessJobs implements the JobProcessor interface
func (w *IngestSettingsWatcher) ProcessJobs(ctx context.Context) error {
	mismatches, err := service.CheckIngestSettings(ctx, w.reader, w.chunking, w.metric, w.logger)
	if err != nil {
		return fmt.Errorf("failed to read ingest settings: %w", err)
	}

	if w.mismatched && len(mismatches) == 0 {
		w.logger.InfoContext(ctx, "ingest settings match query settings again")
	}
	w.mismatched = len(mismatches) > 0
	return nil
}

// Mismatched reports whether the last check found a difference.
func (w *IngestSettingsWatcher) Mismatched() bool {
	return w.mismatched
}

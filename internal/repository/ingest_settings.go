package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// IngestSettingsRepository reads the parameters the ingestion pipeline recorded.
type IngestSettingsRepository struct {
	db dbtx
}

func NewIngestSettingsRepository(pool *pgxpool.Pool) *IngestSettingsRepository {
	return &IngestSettingsRepository{db: pool}
}

func (r *IngestSettingsRepository) GetAll(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.Query(ctx, `SELECT key, value FROM ingest_settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		settings[key] = value
	}
	return settings, rows.Err()
}

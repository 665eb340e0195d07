package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/dashboard-scraper/internal/entity"
)

const createRecordsTable = `
	CREATE TABLE IF NOT EXISTS dashboard_records (
		identity_key TEXT PRIMARY KEY,
		site         TEXT NOT NULL,
		thumbnail    TEXT NOT NULL DEFAULT '',
		source_link  TEXT NOT NULL DEFAULT '',
		title        TEXT NOT NULL DEFAULT '',
		author       TEXT NOT NULL DEFAULT '',
		extra_text   TEXT NOT NULL DEFAULT '',
		first_seen   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
`

const upsertRecord = `
	INSERT INTO dashboard_records (identity_key, site, thumbnail, source_link, title, author, extra_text)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (identity_key) DO NOTHING;
`

// RecordIndexRepoImpl mirrors new metadata records into PostgreSQL. The JSON
// collection stays the source of truth; this table is only for querying.
type RecordIndexRepoImpl struct {
	db *pgxpool.Pool
}

// NewRecordIndexRepo creates a new instance of RecordIndexRepoImpl.
func NewRecordIndexRepo(db *pgxpool.Pool) *RecordIndexRepoImpl {
	return &RecordIndexRepoImpl{db: db}
}

// EnsureSchema creates the records table if needed.
func (r *RecordIndexRepoImpl) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, createRecordsTable); err != nil {
		return fmt.Errorf("create dashboard_records: %w", err)
	}
	return nil
}

// Upsert writes records in one transaction using a batch.
func (r *RecordIndexRepoImpl) Upsert(ctx context.Context, site string, records []entity.MetadataRecord) error {
	batch := buildUpsertBatch(site, records)
	if batch.Len() == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert dashboard_records: %w", err)
	}
	return tx.Commit(ctx)
}

func buildUpsertBatch(site string, records []entity.MetadataRecord) *pgx.Batch {
	batch := &pgx.Batch{}
	for _, rec := range records {
		key := rec.IdentityKey()
		if key == "" {
			continue
		}
		batch.Queue(upsertRecord, key, site, rec.Thumbnail, rec.SourceLink, rec.Title, rec.Author, rec.ExtraText)
	}
	return batch
}

// NewPool connects to PostgreSQL and verifies the connection.
func NewPool(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to reach database: %w", err)
	}
	return pool, nil
}

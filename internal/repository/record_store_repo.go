package repository

import (
	"context"

	"github.com/user/dashboard-scraper/internal/entity"
)

// RecordStore is the persisted metadata collection.
type RecordStore interface {
	// Merge appends records whose identity key is not yet stored and
	// rewrites the collection. It returns only the newly added records.
	Merge(ctx context.Context, records []entity.MetadataRecord) ([]entity.MetadataRecord, error)
	// Load returns every stored record.
	Load(ctx context.Context) ([]entity.MetadataRecord, error)
	// Prune removes records for which drop returns true.
	Prune(ctx context.Context, drop func(entity.MetadataRecord) bool) (entity.CleanupReport, error)
	// Path is the location of the collection file.
	Path() string
}

// RecordIndexRepository mirrors new records into a queryable index.
type RecordIndexRepository interface {
	Upsert(ctx context.Context, site string, records []entity.MetadataRecord) error
}

// CollectionMirror copies the rewritten collection file somewhere durable.
type CollectionMirror interface {
	Mirror(ctx context.Context, path string) error
}

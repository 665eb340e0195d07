package usecase

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/user/dashboard-scraper/internal/entity"
	"github.com/user/dashboard-scraper/internal/repository"
)

// Cleaner removes low-value records from the collection.
type Cleaner interface {
	Clean(ctx context.Context) (entity.CleanupReport, error)
}

type cleanupUseCase struct {
	store  repository.RecordStore
	logger *zap.Logger
}

func NewCleanupUseCase(store repository.RecordStore, logger *zap.Logger) Cleaner {
	return &cleanupUseCase{store: store, logger: logger}
}

// ShouldRemove reports a record that only points at itself (the thumbnail
// is the source link) or carries no text at all.
func ShouldRemove(r entity.MetadataRecord) bool {
	if r.Thumbnail != "" && r.Thumbnail == r.SourceLink {
		return true
	}
	return strings.TrimSpace(r.Title) == "" && strings.TrimSpace(r.ExtraText) == ""
}

func (uc *cleanupUseCase) Clean(ctx context.Context) (entity.CleanupReport, error) {
	report, err := uc.store.Prune(ctx, ShouldRemove)
	if err != nil {
		return report, err
	}
	uc.logger.Info("cleanup finished",
		zap.String("path", report.Path),
		zap.Int("removed", report.Removed),
		zap.Int("remaining", report.Remaining),
	)
	return report, nil
}

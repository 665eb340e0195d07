package usecase

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/user/dashboard-scraper/internal/entity"
	"github.com/user/dashboard-scraper/internal/extractor"
	"github.com/user/dashboard-scraper/internal/repository"
)

// TextFetcher downloads a text resource.
type TextFetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

// LookerImportResult reports one Looker Studio catalog import.
type LookerImportResult struct {
	Source  string
	Reports int
	Added   []entity.MetadataRecord
}

// LookerImporter loads the Looker Studio report gallery into the store.
type LookerImporter interface {
	// Import reads the gallery bundle from source, a URL or a local file
	// path, and merges its reports. An empty source uses the public bundle.
	Import(ctx context.Context, source string) (*LookerImportResult, error)
}

type lookerUseCase struct {
	fetcher TextFetcher
	store   repository.RecordStore
	logger  *zap.Logger
}

func NewLookerUseCase(fetcher TextFetcher, store repository.RecordStore, logger *zap.Logger) LookerImporter {
	return &lookerUseCase{fetcher: fetcher, store: store, logger: logger}
}

func (uc *lookerUseCase) Import(ctx context.Context, source string) (*LookerImportResult, error) {
	if source == "" {
		source = extractor.LookerGalleryBundleURL
	}
	logger := uc.logger.With(zap.String("site", "looker"), zap.String("source", source))

	bundle, err := uc.read(ctx, source)
	if err != nil {
		return nil, err
	}
	records, err := extractor.NewLooker().Extract(bundle, nil)
	if err != nil {
		return nil, err
	}
	logger.Info("parsed looker reports", zap.Int("reports", len(records)))

	result := &LookerImportResult{Source: source, Reports: len(records)}
	added, err := uc.store.Merge(ctx, records)
	result.Added = added
	if err != nil {
		return result, err
	}
	logger.Info("looker import finished", zap.Int("new", len(added)))
	return result, nil
}

func (uc *lookerUseCase) read(ctx context.Context, source string) (string, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return uc.fetcher.FetchText(ctx, source)
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return "", fmt.Errorf("read looker bundle %s: %w", source, err)
	}
	return string(data), nil
}

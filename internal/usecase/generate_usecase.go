package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/user/dashboard-scraper/internal/entity"
	"github.com/user/dashboard-scraper/internal/repository"
)

// MaxItemsPerRequest is the most items one generation call may ask for.
const MaxItemsPerRequest = 15

// Drafter drafts dashboard items for a topic.
type Drafter interface {
	Draft(ctx context.Context, topic string, count int) ([]entity.DashboardItem, error)
}

type generateUseCase struct {
	catalog   CatalogSearcher
	generator repository.ItemGenerator
	logger    *zap.Logger
}

// NewGenerateUseCase creates a Drafter. catalog may be nil, in which case
// the generator receives no candidates.
func NewGenerateUseCase(catalog CatalogSearcher, generator repository.ItemGenerator, logger *zap.Logger) Drafter {
	return &generateUseCase{catalog: catalog, generator: generator, logger: logger}
}

// Draft ranks the scraped catalog for topic and asks the generator for
// count items chosen from it. count is clamped to [1, MaxItemsPerRequest].
func (uc *generateUseCase) Draft(ctx context.Context, topic string, count int) ([]entity.DashboardItem, error) {
	count = max(1, min(count, MaxItemsPerRequest))

	var candidates []entity.CatalogEntry
	if uc.catalog != nil {
		var err error
		candidates, err = uc.catalog.Search(ctx, topic, 0)
		if err != nil {
			return nil, fmt.Errorf("search catalog: %w", err)
		}
	}

	uc.logger.Info("requesting dashboard entries",
		zap.String("topic", topic),
		zap.Int("count", count),
		zap.Int("candidates", len(candidates)),
	)
	items, err := uc.generator.GenerateItems(ctx, topic, count, candidates)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("generated dashboard entries", zap.Int("items", len(items)))
	return items, nil
}

// SaveItems writes items to path as an indented JSON array, creating
// parent directories.
func SaveItems(path string, items []entity.DashboardItem) error {
	if items == nil {
		items = []entity.DashboardItem{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(items); err != nil {
		return fmt.Errorf("encode items: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// LoadItems reads a JSON array of items written by SaveItems.
func LoadItems(path string) ([]entity.DashboardItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read items %s: %w", path, err)
	}
	var items []entity.DashboardItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse items %s: %w", path, err)
	}
	for i := range items {
		items[i].Normalize()
	}
	return items, nil
}

package repository

import (
	"context"

	"github.com/user/dashboard-scraper/internal/entity"
)

// ItemGenerator drafts dashboard items for a topic.
type ItemGenerator interface {
	GenerateItems(ctx context.Context, topic string, count int, candidates []entity.CatalogEntry) ([]entity.DashboardItem, error)
}

// ImageScorer rates how well an image matches keywords.
type ImageScorer interface {
	Score(ctx context.Context, img entity.DownloadedImage, keywords string) (entity.ImageScore, error)
}

// ImageFetcher downloads image content.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) (entity.DownloadedImage, error)
}

// AssetUploader stores an image in the CMS asset host and returns its URL.
type AssetUploader interface {
	Upload(ctx context.Context, siteID, fileName string, data []byte) (string, error)
}

// CMSPublisher creates and publishes collection items.
type CMSPublisher interface {
	CollectionSchema(ctx context.Context, collectionID string) (*entity.CollectionSchema, error)
	CreateItem(ctx context.Context, collectionID string, fieldData map[string]any, live bool) (string, error)
	PublishItems(ctx context.Context, collectionID string, itemIDs []string) error
	PublishSite(ctx context.Context, siteID string) error
}

// FieldMapper converts an item into collection field data, honouring the
// collection schema when one is known.
type FieldMapper interface {
	FieldData(item entity.DashboardItem, schema *entity.CollectionSchema) map[string]any
}

package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/user/dashboard-scraper/internal/entity"
	"github.com/user/dashboard-scraper/internal/repository"
)

// PublishOptions controls a bulk publish of drafted items.
type PublishOptions struct {
	CollectionID string
	// SiteID is needed to make live items visible; without it they stay
	// queued until the site is published by hand.
	SiteID string
	Live   bool
	// Limit caps the number of items created; zero means no cap.
	Limit int
}

// ItemPublisher pushes drafted items into a CMS collection.
type ItemPublisher interface {
	PublishAll(ctx context.Context, items []entity.DashboardItem, opts PublishOptions) (*entity.PublishSummary, error)
}

type publishUseCase struct {
	cms    repository.CMSPublisher
	mapper repository.FieldMapper
	logger *zap.Logger
}

func NewPublishUseCase(cms repository.CMSPublisher, mapper repository.FieldMapper, logger *zap.Logger) ItemPublisher {
	return &publishUseCase{cms: cms, mapper: mapper, logger: logger}
}

// PublishAll creates each item through the field mapper. An item whose
// mapping is empty is skipped. A create or publish failure stops the run
// and is returned together with the summary so far.
func (uc *publishUseCase) PublishAll(ctx context.Context, items []entity.DashboardItem, opts PublishOptions) (*entity.PublishSummary, error) {
	summary := &entity.PublishSummary{RunID: uuid.NewString(), Items: []entity.ItemResult{}}
	logger := uc.logger.With(zap.String("run_id", summary.RunID), zap.String("collection_id", opts.CollectionID))

	schema, err := uc.cms.CollectionSchema(ctx, opts.CollectionID)
	if err != nil {
		logger.Warn("could not load collection schema, sending unfiltered fields", zap.Error(err))
		schema = nil
	}

	var ids []string
	for _, item := range items {
		if opts.Limit > 0 && summary.Created >= opts.Limit {
			logger.Info("creation limit reached, stopping", zap.Int("limit", opts.Limit))
			break
		}
		fieldData := uc.mapper.FieldData(item, schema)
		if len(fieldData) == 0 {
			logger.Warn("skipping item, no mapped fields matched the collection", zap.String("slug", item.Slug))
			summary.Add(entity.ItemResult{
				Slug:   item.Slug,
				Title:  item.Title,
				Status: entity.ItemSkipped,
				Reason: "no mapped fields",
			})
			continue
		}

		logger.Info("creating item", zap.String("slug", item.Slug), zap.Bool("live", opts.Live))
		id, err := uc.cms.CreateItem(ctx, opts.CollectionID, fieldData, opts.Live)
		if err != nil {
			summary.Add(entity.ItemResult{Slug: item.Slug, Title: item.Title, Status: entity.ItemFailed, Reason: err.Error()})
			return summary, fmt.Errorf("create %q: %w", item.Slug, err)
		}
		summary.Add(entity.ItemResult{Slug: item.Slug, Title: item.Title, Status: entity.ItemCreated, ItemID: id})
		if id != "" {
			ids = append(ids, id)
		}
	}
	logger.Info("items created", zap.Int("created", summary.Created), zap.Int("ids", len(ids)))

	if !opts.Live {
		return summary, nil
	}
	if len(ids) == 0 {
		logger.Warn("no item IDs collected, items stay queued for publishing")
		return summary, nil
	}
	if opts.SiteID == "" {
		logger.Info("no site ID given, skipping publish; items stay queued until the site is published")
		return summary, nil
	}
	if err := uc.cms.PublishItems(ctx, opts.CollectionID, ids); err != nil {
		return summary, fmt.Errorf("publish items: %w", err)
	}
	if err := uc.cms.PublishSite(ctx, opts.SiteID); err != nil {
		return summary, fmt.Errorf("publish site: %w", err)
	}
	return summary, nil
}

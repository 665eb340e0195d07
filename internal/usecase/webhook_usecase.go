package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/user/dashboard-scraper/internal/entity"
	"github.com/user/dashboard-scraper/internal/extractor"
	"github.com/user/dashboard-scraper/internal/repository"
	"github.com/user/dashboard-scraper/internal/urlnorm"
	"github.com/user/dashboard-scraper/pkg/metrics"
)

const (
	// DefaultWebhookCount is the number of items drafted when a request
	// does not say.
	DefaultWebhookCount = 5

	contentDirLayout = "20060102_15-04-05"
	defaultKeywords  = "dashboard"
)

// WebhookRequest asks for count new items on topic in a CMS collection.
type WebhookRequest struct {
	CollectionID string
	SiteID       string
	Topic        string
	Count        int
}

// WebhookProcessor runs the draft, image and publish pipeline.
type WebhookProcessor interface {
	Process(ctx context.Context, req WebhookRequest) (*entity.PublishSummary, error)
}

type webhookUseCase struct {
	drafter    Drafter
	scraper    Scraper
	selector   ImageSelector
	uploader   repository.AssetUploader
	cms        repository.CMSPublisher
	contentDir string
	logger     *zap.Logger
	now        func() time.Time
}

// NewWebhookUseCase wires the pipeline. Drafted items are saved under
// contentDir for later inspection.
func NewWebhookUseCase(
	drafter Drafter,
	scraper Scraper,
	selector ImageSelector,
	uploader repository.AssetUploader,
	cms repository.CMSPublisher,
	contentDir string,
	logger *zap.Logger,
) WebhookProcessor {
	return &webhookUseCase{
		drafter:    drafter,
		scraper:    scraper,
		selector:   selector,
		uploader:   uploader,
		cms:        cms,
		contentDir: contentDir,
		logger:     logger,
		now:        time.Now,
	}
}

// Process drafts the items and publishes every one that yields an image.
// Item-level problems are reported in the summary; only a failed draft is
// returned as an error.
func (uc *webhookUseCase) Process(ctx context.Context, req WebhookRequest) (*entity.PublishSummary, error) {
	if req.Count <= 0 {
		req.Count = DefaultWebhookCount
	}
	summary := &entity.PublishSummary{RunID: uuid.NewString(), Topic: req.Topic, Items: []entity.ItemResult{}}
	logger := uc.logger.With(
		zap.String("run_id", summary.RunID),
		zap.String("collection_id", req.CollectionID),
		zap.String("topic", req.Topic),
	)
	logger.Info("processing webhook", zap.Int("count", req.Count))

	items, err := uc.drafter.Draft(ctx, req.Topic, req.Count)
	if err != nil {
		return nil, fmt.Errorf("generate items: %w", err)
	}
	summary.ContentDir = uc.saveDrafts(items, req.Topic, logger)

	schema, schemaErr := uc.cms.CollectionSchema(ctx, req.CollectionID)
	if schemaErr != nil {
		logger.Error("failed to fetch collection schema", zap.Error(schemaErr))
	}

	var created []string
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		itemLogger := logger.With(zap.Int("item", i+1), zap.Int("items", len(items)), zap.String("slug", item.Slug))
		itemLogger.Info("processing item", zap.String("title", item.Title))

		var result entity.ItemResult
		if schemaErr != nil {
			result = entity.ItemResult{
				Slug:   item.Slug,
				Title:  item.Title,
				Status: entity.ItemFailed,
				Reason: "fetch collection schema: " + schemaErr.Error(),
			}
		} else {
			result = uc.processItem(ctx, req, schema, item, itemLogger)
		}
		metrics.WebhookItems.WithLabelValues(result.Status).Inc()
		summary.Add(result)
		if result.Status == entity.ItemCreated && result.ItemID != "" {
			created = append(created, result.ItemID)
		}
	}

	uc.publish(ctx, req, created, logger)
	logger.Info("webhook finished",
		zap.Int("created", summary.Created),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

func (uc *webhookUseCase) processItem(
	ctx context.Context,
	req WebhookRequest,
	schema *entity.CollectionSchema,
	item entity.DashboardItem,
	logger *zap.Logger,
) entity.ItemResult {
	result := entity.ItemResult{Slug: item.Slug, Title: item.Title}
	fail := func(status, reason string) entity.ItemResult {
		result.Status = status
		result.Reason = reason
		if status == entity.ItemSkipped {
			logger.Warn("skipping item", zap.String("reason", reason))
		} else {
			logger.Error("item failed", zap.String("reason", reason))
		}
		return result
	}

	if item.Link == "" {
		return fail(entity.ItemFailed, "item has no link")
	}
	keywords := item.Slug
	if keywords == "" {
		keywords = item.Category
	}
	if keywords == "" {
		keywords = defaultKeywords
	}

	records, err := uc.scraper.Collect(ctx, ScrapeRequest{Site: extractor.Generic, URL: item.Link})
	if err != nil {
		return fail(entity.ItemFailed, "scrape images: "+err.Error())
	}
	best, err := uc.selector.Select(ctx, thumbnails(records), keywords)
	if errors.Is(err, repository.ErrNoImages) {
		return fail(entity.ItemSkipped, "no images found at the provided link")
	}
	if err != nil {
		return fail(entity.ItemFailed, "select image: "+err.Error())
	}
	result.Score = best.Score.Score

	hosted, err := uc.uploader.Upload(ctx, req.SiteID, imageFileName(best.Image, item.Slug), best.Image.Data)
	if err != nil {
		return fail(entity.ItemFailed, "upload image: "+err.Error())
	}
	result.Thumbnail = hosted

	fieldData := webhookFieldData(item)
	thumbField, ok := schema.FirstOfType("Image")
	if !ok {
		logger.Warn("no image field in collection schema, using thumbnail")
		thumbField = "thumbnail"
	}
	fieldData[thumbField] = map[string]string{"url": hosted}
	delete(fieldData, "link")

	id, err := uc.cms.CreateItem(ctx, req.CollectionID, fieldData, true)
	if err != nil {
		return fail(entity.ItemFailed, "create item: "+err.Error())
	}
	result.Status = entity.ItemCreated
	result.ItemID = id
	logger.Info("item created", zap.String("item_id", id), zap.Float64("score", result.Score))
	return result
}

// publish makes the created items live. Failures are logged only.
func (uc *webhookUseCase) publish(ctx context.Context, req WebhookRequest, ids []string, logger *zap.Logger) {
	if len(ids) == 0 {
		return
	}
	logger.Info("publishing items", zap.Int("items", len(ids)))
	if err := uc.cms.PublishItems(ctx, req.CollectionID, ids); err != nil {
		logger.Error("failed to publish items", zap.Error(err))
	}
	if err := uc.cms.PublishSite(ctx, req.SiteID); err != nil {
		logger.Error("failed to publish site", zap.Error(err))
	}
}

func (uc *webhookUseCase) saveDrafts(items []entity.DashboardItem, topic string, logger *zap.Logger) string {
	dir := filepath.Join(uc.contentDir, uc.now().Format(contentDirLayout)+"_"+entity.Slugify(topic))
	file := filepath.Join(dir, "generated.json")
	if err := SaveItems(file, items); err != nil {
		logger.Warn("could not save generated items", zap.Error(err))
		return ""
	}
	logger.Info("saved generated items", zap.String("path", file), zap.Int("items", len(items)))
	return dir
}

// webhookFieldData is the fixed field layout of the webhook collection.
func webhookFieldData(item entity.DashboardItem) map[string]any {
	return map[string]any{
		"name":         item.Title,
		"slug":         item.Slug,
		"category":     item.Category,
		"link":         item.Link,
		"source-url":   item.Link,
		"source":       item.Source,
		"author":       item.Author,
		"post-summary": item.Description,
		"access":       item.Access,
		"source-type":  item.SourceType,
		"language":     item.Language,
		"last-checked": item.LastChecked,
	}
}

func thumbnails(records []entity.MetadataRecord) []string {
	urls := make([]string, 0, len(records))
	for _, r := range records {
		if r.Thumbnail != "" {
			urls = append(urls, r.Thumbnail)
		}
	}
	return urlnorm.Dedupe(urls)
}

var contentTypeExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/avif": ".avif",
}

// imageFileName keeps the URL's file name when it has an extension and
// otherwise names the file after the item.
func imageFileName(img entity.DownloadedImage, slug string) string {
	if u, err := url.Parse(img.URL); err == nil {
		if name := path.Base(u.Path); path.Ext(name) != "" && name != "/" {
			return name
		}
	}
	ext, ok := contentTypeExt[strings.TrimSpace(strings.SplitN(img.ContentType, ";", 2)[0])]
	if !ok {
		ext = ".jpg"
	}
	if slug == "" {
		slug = "thumbnail"
	}
	return slug + ext
}

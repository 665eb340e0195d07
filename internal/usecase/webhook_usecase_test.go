package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/dashboard-scraper/internal/entity"
)

func newTestWebhook(t *testing.T, drafter Drafter, scraper Scraper, cms *fakeCMS) (*webhookUseCase, *fakeSelector, *fakeUploader) {
	t.Helper()
	selector := &fakeSelector{}
	uploader := &fakeUploader{}
	uc := NewWebhookUseCase(drafter, scraper, selector, uploader, cms, t.TempDir(), zap.NewNop()).(*webhookUseCase)
	uc.now = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC) }
	return uc, selector, uploader
}

func TestWebhookProcess(t *testing.T) {
	drafter := fakeDrafter{items: []entity.DashboardItem{
		{Title: "Sales", Slug: "sales", Link: "https://a", Description: "Pipeline view"},
		{Title: "Orphan", Slug: "orphan"},
		{Title: "Blank", Slug: "blank", Link: "https://b"},
		{Title: "Broken", Category: "ops", Link: "https://c"},
	}}
	scraper := &fakeScraper{
		collect: map[string][]entity.MetadataRecord{
			"https://a": {
				{Thumbnail: "https://img/a.png"},
				{Thumbnail: "https://img/a.png"},
				{SourceLink: "https://a/x"},
			},
		},
		errs: map[string]error{"https://c": errors.New("navigation timeout")},
	}
	cms := &fakeCMS{schema: &entity.CollectionSchema{Fields: []entity.SchemaField{
		{Slug: "name", Type: "PlainText"},
		{Slug: "hero-image", Type: "Image"},
	}}}
	uc, selector, uploader := newTestWebhook(t, drafter, scraper, cms)

	summary, err := uc.Process(context.Background(), WebhookRequest{CollectionID: "col", SiteID: "site", Topic: "Sales Ops"})
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 1, summary.Created)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 2, summary.Failed)
	assert.Equal(t, "Sales Ops", summary.Topic)
	assert.NotEmpty(t, summary.RunID)

	statuses := make([]string, 0, len(summary.Items))
	for _, r := range summary.Items {
		statuses = append(statuses, r.Status)
	}
	assert.Equal(t, []string{entity.ItemCreated, entity.ItemFailed, entity.ItemSkipped, entity.ItemFailed}, statuses)
	assert.Equal(t, "item-1", summary.Items[0].ItemID)
	assert.Equal(t, "https://cdn.example/a.png", summary.Items[0].Thumbnail)
	assert.Equal(t, 95.0, summary.Items[0].Score)
	assert.Equal(t, "item has no link", summary.Items[1].Reason)
	assert.Contains(t, summary.Items[3].Reason, "navigation timeout")

	assert.Equal(t, []string{"sales", "blank"}, selector.keywords)
	assert.Equal(t, []string{"a.png"}, uploader.names)

	require.Len(t, cms.created, 1)
	fields := cms.created[0]
	assert.Equal(t, map[string]string{"url": "https://cdn.example/a.png"}, fields["hero-image"])
	assert.Equal(t, "Pipeline view", fields["post-summary"])
	assert.Equal(t, "https://a", fields["source-url"])
	assert.NotContains(t, fields, "link")
	assert.Equal(t, []bool{true}, cms.live)
	assert.Equal(t, []string{"item-1"}, cms.published)
	assert.Equal(t, []string{"site"}, cms.sitePublish)

	wantDir := filepath.Join(uc.contentDir, "20240309_14-05-07_sales-ops")
	assert.Equal(t, wantDir, summary.ContentDir)
	saved, err := LoadItems(filepath.Join(wantDir, "generated.json"))
	require.NoError(t, err)
	assert.Len(t, saved, 4)
}

func TestWebhookSchemaFailureFailsEveryItem(t *testing.T) {
	drafter := fakeDrafter{items: []entity.DashboardItem{
		{Title: "One", Slug: "one", Link: "https://a"},
		{Title: "Two", Slug: "two", Link: "https://b"},
	}}
	cms := &fakeCMS{schemaErr: errors.New("unauthorized")}
	uc, selector, _ := newTestWebhook(t, drafter, &fakeScraper{}, cms)

	summary, err := uc.Process(context.Background(), WebhookRequest{CollectionID: "col", SiteID: "site", Topic: "x", Count: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Failed)
	assert.Contains(t, summary.Items[0].Reason, "unauthorized")
	assert.Empty(t, selector.keywords)
	assert.Empty(t, cms.created)
	assert.Empty(t, cms.published)
	assert.Empty(t, cms.sitePublish)
}

func TestWebhookFallsBackToThumbnailField(t *testing.T) {
	drafter := fakeDrafter{items: []entity.DashboardItem{{Title: "Ads", Link: "https://a"}}}
	scraper := &fakeScraper{collect: map[string][]entity.MetadataRecord{
		"https://a": {{Thumbnail: "https://img/render"}},
	}}
	cms := &fakeCMS{schema: &entity.CollectionSchema{}}
	uc, selector, uploader := newTestWebhook(t, drafter, scraper, cms)

	summary, err := uc.Process(context.Background(), WebhookRequest{CollectionID: "col", SiteID: "site", Topic: "ads"})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Created)
	assert.Equal(t, []string{defaultKeywords}, selector.keywords)
	assert.Equal(t, []string{"thumbnail.png"}, uploader.names)
	assert.Equal(t, map[string]string{"url": "https://cdn.example/thumbnail.png"}, cms.created[0]["thumbnail"])
}

func TestWebhookDraftFailure(t *testing.T) {
	uc, _, _ := newTestWebhook(t, fakeDrafter{err: errors.New("quota")}, &fakeScraper{}, &fakeCMS{})
	_, err := uc.Process(context.Background(), WebhookRequest{Topic: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota")

	entries, err := os.ReadDir(uc.contentDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestImageFileName(t *testing.T) {
	assert.Equal(t, "chart.webp", imageFileName(entity.DownloadedImage{URL: "https://x/a/chart.webp?w=2"}, "s"))
	assert.Equal(t, "s.gif", imageFileName(entity.DownloadedImage{URL: "https://x/render", ContentType: "image/gif; q=1"}, "s"))
	assert.Equal(t, "thumbnail.jpg", imageFileName(entity.DownloadedImage{URL: "https://x/"}, ""))
}

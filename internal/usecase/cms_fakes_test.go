package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/user/dashboard-scraper/internal/entity"
	"github.com/user/dashboard-scraper/internal/repository"
)

type fakeCMS struct {
	schema      *entity.CollectionSchema
	schemaErr   error
	failSlugs   map[string]bool
	created     []map[string]any
	live        []bool
	published   []string
	sitePublish []string
	publishErr  error
	nextID      int
	omitIDs     bool
}

func (c *fakeCMS) CollectionSchema(context.Context, string) (*entity.CollectionSchema, error) {
	return c.schema, c.schemaErr
}

func (c *fakeCMS) CreateItem(_ context.Context, _ string, fieldData map[string]any, live bool) (string, error) {
	if slug, _ := fieldData["slug"].(string); c.failSlugs[slug] {
		return "", errors.New("validation error")
	}
	c.created = append(c.created, fieldData)
	c.live = append(c.live, live)
	if c.omitIDs {
		return "", nil
	}
	c.nextID++
	return fmt.Sprintf("item-%d", c.nextID), nil
}

func (c *fakeCMS) PublishItems(_ context.Context, _ string, ids []string) error {
	c.published = append(c.published, ids...)
	return c.publishErr
}

func (c *fakeCMS) PublishSite(_ context.Context, siteID string) error {
	c.sitePublish = append(c.sitePublish, siteID)
	return nil
}

type fakeDrafter struct {
	items []entity.DashboardItem
	err   error
}

func (d fakeDrafter) Draft(context.Context, string, int) ([]entity.DashboardItem, error) {
	return d.items, d.err
}

type fakeSelector struct{ keywords []string }

func (s *fakeSelector) Select(_ context.Context, urls []string, keywords string) (*entity.ScoredImage, error) {
	s.keywords = append(s.keywords, keywords)
	if len(urls) == 0 {
		return nil, repository.ErrNoImages
	}
	return &entity.ScoredImage{
		Image: entity.DownloadedImage{URL: urls[0], ContentType: "image/png", Data: []byte("png")},
		Score: entity.ImageScore{Score: 95},
	}, nil
}

type fakeUploader struct{ names []string }

func (u *fakeUploader) Upload(_ context.Context, _ string, fileName string, _ []byte) (string, error) {
	u.names = append(u.names, fileName)
	return "https://cdn.example/" + fileName, nil
}

package webflow

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/user/dashboard-scraper/internal/entity"
	"github.com/user/dashboard-scraper/internal/repository"
)

// Publisher creates and publishes CMS collection items.
type Publisher struct {
	*Client
}

var _ repository.CMSPublisher = (*Publisher)(nil)

func NewPublisher(c *Client) *Publisher {
	return &Publisher{Client: c}
}

// CollectionSchema fetches the field definitions of a collection.
func (p *Publisher) CollectionSchema(ctx context.Context, collectionID string) (*entity.CollectionSchema, error) {
	var schema entity.CollectionSchema
	if err := p.do(ctx, http.MethodGet, "/v2/collections/"+url.PathEscape(collectionID), nil, &schema); err != nil {
		return nil, err
	}
	p.logger.Debug("collection schema loaded",
		zap.String("collection_id", collectionID),
		zap.Int("fields", len(schema.Fields)),
	)
	return &schema, nil
}

type createItem struct {
	IsArchived bool           `json:"isArchived"`
	IsDraft    bool           `json:"isDraft"`
	FieldData  map[string]any `json:"fieldData"`
}

type itemsEnvelope struct {
	Items []createItem `json:"items"`
}

type createdItems struct {
	Items []struct {
		ID string `json:"id"`
	} `json:"items"`
}

// CreateItem creates one item and returns its ID, which is empty when the
// API did not echo the item back.
func (p *Publisher) CreateItem(ctx context.Context, collectionID string, fieldData map[string]any, live bool) (string, error) {
	path := fmt.Sprintf("/v2/collections/%s/items?live=%s", url.PathEscape(collectionID), strconv.FormatBool(live))
	var out createdItems
	err := p.do(ctx, http.MethodPost, path, itemsEnvelope{
		Items: []createItem{{IsDraft: !live, FieldData: fieldData}},
	}, &out)
	if err != nil {
		return "", err
	}
	if len(out.Items) == 0 || out.Items[0].ID == "" {
		p.logger.Warn("no item ID returned", zap.Any("slug", fieldData["slug"]))
		return "", nil
	}
	p.logger.Info("created item", zap.String("item_id", out.Items[0].ID), zap.Bool("live", live))
	return out.Items[0].ID, nil
}

// PublishItems publishes already created items of a collection.
func (p *Publisher) PublishItems(ctx context.Context, collectionID string, itemIDs []string) error {
	if len(itemIDs) == 0 {
		return nil
	}
	path := fmt.Sprintf("/v2/collections/%s/items/publish", url.PathEscape(collectionID))
	if err := p.do(ctx, http.MethodPost, path, map[string]any{"itemIds": itemIDs}, nil); err != nil {
		return err
	}
	p.logger.Info("published items", zap.Int("items", len(itemIDs)))
	return nil
}

// PublishSite publishes the site to its Webflow subdomain.
func (p *Publisher) PublishSite(ctx context.Context, siteID string) error {
	path := fmt.Sprintf("/v2/sites/%s/publish", url.PathEscape(siteID))
	if err := p.do(ctx, http.MethodPost, path, map[string]any{"publishToWebflowSubdomain": true}, nil); err != nil {
		return err
	}
	p.logger.Info("site publish initiated", zap.String("site_id", siteID))
	return nil
}

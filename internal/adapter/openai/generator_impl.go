package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/user/dashboard-scraper/internal/entity"
	"github.com/user/dashboard-scraper/internal/repository"
)

// ItemSchema is the JSON schema of one generated item, embedded in the
// prompt so the model keeps keys stable.
const ItemSchema = `{"slug":{"type":"string","pattern":"^[a-z0-9-]+$"},` +
	`"title":{"type":"string","minLength":5},` +
	`"subtitle":{"type":"string","minLength":10},` +
	`"source":{"type":"string","minLength":3},` +
	`"author":{"type":"string","minLength":3},` +
	`"link":{"type":"string","format":"uri"},` +
	`"thumbnail":{"type":"string","format":"uri"},` +
	`"tags":{"type":"array","items":{"type":"string"},"minItems":0,"maxItems":10,"uniqueItems":true},` +
	`"category":{"type":"string"},` +
	`"description":{"type":"string","minLength":20},` +
	`"access":{"type":"string"},` +
	`"source_type":{"type":"string"},` +
	`"license":{"type":["string","null"]},` +
	`"last_checked":{"type":"string","format":"date"},` +
	`"language":{"type":"string","minLength":2,"maxLength":10}}`

const generatePrompt = `You find public %[1]s dashboards on the given URLs and deliver a clean JSON library for a free dashboard library.
Deliver a curated list of %[2]d dashboards with validated links. Look at the given thumbnail image URLs and choose one that fits each dashboard. Do not choose more than 3 from the same source. Only choose from the URLs below.
Return a JSON object {"items": [...]} using stable keys and null for unknowns. Item JSON schema (use these keys in this order): %[3]s
Prefer public, no-login examples and canonical URLs. Deduplicate. Do not invent details.
Normalize categories (Marketing, Product, Finance, Operations, Healthcare, Government & Open Data, Sales, People/HR, Engineering/DevOps) and give every item a one-word category. Use 1-3 tags.
URLs: %[4]s
You must return %[2]d dashboards from the URLs above.`

// Generator drafts dashboard items through the chat completions API.
type Generator struct {
	client *Client
}

var _ repository.ItemGenerator = (*Generator)(nil)

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

// GenerateItems asks the model for count items about topic, grounded on
// candidates, and decodes the reply. Items without a slug get one derived
// from their title.
func (g *Generator) GenerateItems(ctx context.Context, topic string, count int, candidates []entity.CatalogEntry) ([]entity.DashboardItem, error) {
	if candidates == nil {
		candidates = []entity.CatalogEntry{}
	}
	urls, err := json.Marshal(candidates)
	if err != nil {
		return nil, fmt.Errorf("encode candidates: %w", err)
	}
	prompt := fmt.Sprintf(generatePrompt, topic, count, ItemSchema, urls)

	g.client.logger.Info("requesting dashboard items",
		zap.String("topic", topic),
		zap.Int("count", count),
		zap.Int("candidates", len(candidates)),
	)
	reply, err := g.client.complete(ctx, []chatMessage{{Role: "user", Content: prompt}}, 0)
	if err != nil {
		return nil, err
	}

	raw, err := ExtractItems(reply)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrCollaborator, err)
	}
	items := make([]entity.DashboardItem, 0, len(raw))
	for i, r := range raw {
		var item entity.DashboardItem
		if err := json.Unmarshal(r, &item); err != nil {
			g.client.logger.Warn("skipping undecodable item", zap.Int("index", i), zap.Error(err))
			continue
		}
		item.Normalize()
		items = append(items, item)
	}
	g.client.logger.Info("generated dashboard items", zap.Int("items", len(items)))
	return items, nil
}

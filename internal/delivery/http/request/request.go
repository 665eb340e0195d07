package request

import (
	"errors"
	"strings"
)

// WebhookRequest is the body of POST /webhook. The topic is taken from
// fieldData.slug, then fieldData.category, then topic.
type WebhookRequest struct {
	CollectionID string         `json:"collection_id"`
	SiteID       string         `json:"site_id"`
	FieldData    map[string]any `json:"fieldData"`
	Topic        string         `json:"topic"`
	Count        int            `json:"count"`
}

// ResolvedTopic returns the topic the items are drafted for.
func (r WebhookRequest) ResolvedTopic() string {
	for _, key := range []string{"slug", "category"} {
		if v, ok := r.FieldData[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return strings.TrimSpace(r.Topic)
}

// Validate reports the first missing required field.
func (r WebhookRequest) Validate() error {
	switch {
	case r.CollectionID == "":
		return errors.New("collection_id is required")
	case r.SiteID == "":
		return errors.New("site_id is required")
	case r.ResolvedTopic() == "":
		return errors.New("slug or category in fieldData is required")
	case r.Count < 0:
		return errors.New("count must not be negative")
	}
	return nil
}

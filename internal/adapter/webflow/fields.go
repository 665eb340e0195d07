package webflow

import (
	"go.uber.org/zap"

	"github.com/user/dashboard-scraper/internal/entity"
)

// DefaultFieldMap maps canonical item keys to collection field slugs.
var DefaultFieldMap = map[string]string{
	"title":        "name",
	"slug":         "slug",
	"subtitle":     "subtitle",
	"source":       "source-name",
	"author":       "author",
	"link":         "source-url",
	"thumbnail":    "thumbnail",
	"tags":         "tags",
	"category":     "category",
	"description":  "description",
	"access":       "access-level",
	"source_type":  "source-type",
	"license":      "license",
	"last_checked": "last-checked",
	"language":     "language",
}

// Schema field types that need special value shapes.
const (
	FieldTypeImage          = "Image"
	FieldTypeReference      = "Reference"
	FieldTypeMultiReference = "MultiReference"
)

// FieldMapper turns a DashboardItem into collection field data.
type FieldMapper struct {
	// FieldMap overrides DefaultFieldMap when non-nil.
	FieldMap map[string]string
	// TagMap resolves tag names to reference item IDs. Tags are dropped
	// when it is nil.
	TagMap map[string]string
	Logger *zap.Logger
}

func (m FieldMapper) fieldMap() map[string]string {
	if m.FieldMap != nil {
		return m.FieldMap
	}
	return DefaultFieldMap
}

func (m FieldMapper) logger() *zap.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return zap.NewNop()
}

// FieldData maps item through the field map and, when schema is known,
// drops fields the collection does not define or whose value shape does
// not fit the field type.
func (m FieldMapper) FieldData(item entity.DashboardItem, schema *entity.CollectionSchema) map[string]any {
	fields := m.fieldMap()
	out := make(map[string]any)
	for key, value := range item.Canonical() {
		slug, ok := fields[key]
		if !ok || isEmpty(value) {
			continue
		}
		switch key {
		case "thumbnail":
			out[slug] = map[string]string{"url": value.(string)}
		case "tags":
			ids := m.mapTags(value.([]string))
			if len(ids) > 0 {
				out[slug] = ids
			}
		default:
			out[slug] = value
		}
	}
	if schema.Empty() {
		return out
	}
	return m.filter(out, schema)
}

func (m FieldMapper) mapTags(tags []string) []string {
	if m.TagMap == nil {
		return nil
	}
	ids := make([]string, 0, len(tags))
	for _, tag := range tags {
		id, ok := m.TagMap[tag]
		if !ok {
			m.logger().Warn("tag missing from tag map", zap.String("tag", tag))
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func (m FieldMapper) filter(data map[string]any, schema *entity.CollectionSchema) map[string]any {
	out := make(map[string]any, len(data))
	for slug, value := range data {
		field, ok := schema.Field(slug)
		if !ok {
			m.logger().Debug("dropping field unknown to collection", zap.String("field", slug))
			continue
		}
		switch field.Type {
		case FieldTypeMultiReference:
			if _, ok := value.([]string); !ok {
				continue
			}
		case FieldTypeReference:
			if _, ok := value.(string); !ok {
				continue
			}
		}
		out[slug] = value
	}
	return out
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []string:
		return len(t) == 0
	}
	return false
}

// ThumbnailField returns the slug of the collection's first image field,
// falling back to "thumbnail".
func ThumbnailField(schema *entity.CollectionSchema) string {
	if slug, ok := schema.FirstOfType(FieldTypeImage); ok {
		return slug
	}
	return "thumbnail"
}

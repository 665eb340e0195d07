package entity

// SchemaField is one field of a CMS collection.
type SchemaField struct {
	ID          string `json:"id,omitempty"`
	Slug        string `json:"slug"`
	Type        string `json:"type"`
	DisplayName string `json:"displayName,omitempty"`
	IsRequired  bool   `json:"isRequired,omitempty"`
}

// CollectionSchema describes a CMS collection's fields.
type CollectionSchema struct {
	ID     string        `json:"id"`
	Fields []SchemaField `json:"fields"`
}

// Field looks a field up by slug.
func (s *CollectionSchema) Field(slug string) (SchemaField, bool) {
	if s == nil {
		return SchemaField{}, false
	}
	for _, f := range s.Fields {
		if f.Slug == slug {
			return f, true
		}
	}
	return SchemaField{}, false
}

// FirstOfType returns the slug of the first field with the given type.
func (s *CollectionSchema) FirstOfType(fieldType string) (string, bool) {
	if s == nil {
		return "", false
	}
	for _, f := range s.Fields {
		if f.Type == fieldType {
			return f.Slug, true
		}
	}
	return "", false
}

// Empty reports whether no schema information is available.
func (s *CollectionSchema) Empty() bool { return s == nil || len(s.Fields) == 0 }

// Item outcomes reported by the webhook pipeline.
const (
	ItemCreated = "created"
	ItemSkipped = "skipped"
	ItemFailed  = "failed"
)

// ItemResult is the outcome for one generated item.
type ItemResult struct {
	Slug      string  `json:"slug"`
	Title     string  `json:"title"`
	Status    string  `json:"status"`
	ItemID    string  `json:"item_id,omitempty"`
	Thumbnail string  `json:"thumbnail,omitempty"`
	Score     float64 `json:"score,omitempty"`
	Reason    string  `json:"reason,omitempty"`
}

// PublishSummary aggregates a webhook run.
type PublishSummary struct {
	RunID      string       `json:"run_id"`
	Topic      string       `json:"topic,omitempty"`
	ContentDir string       `json:"content_dir,omitempty"`
	Total      int          `json:"total"`
	Created    int          `json:"created"`
	Skipped    int          `json:"skipped"`
	Failed     int          `json:"failed"`
	Items      []ItemResult `json:"items"`
}

// Add records r and bumps the matching counter.
func (s *PublishSummary) Add(r ItemResult) {
	s.Items = append(s.Items, r)
	s.Total++
	switch r.Status {
	case ItemCreated:
		s.Created++
	case ItemSkipped:
		s.Skipped++
	default:
		s.Failed++
	}
}

// CatalogEntry is a previously scraped record considered for generation.
type CatalogEntry struct {
	Title       string `json:"title,omitempty"`
	ExtraText   string `json:"extra_text,omitempty"`
	Description string `json:"description,omitempty"`
	SourceURL   string `json:"source_url,omitempty"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	Author      string `json:"author,omitempty"`
	Score       int    `json:"-"`
}

// BatchSummary aggregates a batch scrape.
type BatchSummary struct {
	Targets    int `json:"targets"`
	Succeeded  int `json:"succeeded"`
	Failed     int `json:"failed"`
	Skipped    int `json:"skipped"`
	NewRecords int `json:"new_records"`
}

package entity

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DashboardItem is a CMS-ready dashboard entry before field mapping.
type DashboardItem struct {
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Subtitle    string   `json:"subtitle"`
	Source      string   `json:"source"`
	Author      string   `json:"author"`
	Link        string   `json:"link"`
	Thumbnail   string   `json:"thumbnail"`
	Tags        []string `json:"tags"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Access      string   `json:"access"`
	SourceType  string   `json:"source_type"`
	LastChecked string   `json:"last_checked"`
	Language    string   `json:"language"`
	License     *string  `json:"license"`
}

// Normalize fills defaults: empty tags, slug derived from the title.
func (d *DashboardItem) Normalize() {
	if d.Tags == nil {
		d.Tags = []string{}
	}
	if d.Slug == "" {
		d.Slug = Slugify(d.Title)
	}
}

// Canonical returns the logical field map used before CMS slug mapping.
func (d DashboardItem) Canonical() map[string]any {
	m := map[string]any{
		"title":        d.Title,
		"slug":         d.Slug,
		"subtitle":     d.Subtitle,
		"source":       d.Source,
		"author":       d.Author,
		"link":         d.Link,
		"thumbnail":    d.Thumbnail,
		"tags":         d.Tags,
		"category":     d.Category,
		"description":  d.Description,
		"access":       d.Access,
		"source_type":  d.SourceType,
		"last_checked": d.LastChecked,
		"language":     d.Language,
	}
	if d.License != nil {
		m["license"] = *d.License
	}
	return m
}

var nonSlug = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// Slugify folds value to ASCII and joins alphanumeric runs with hyphens.
func Slugify(value string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})))
	ascii, _, err := transform.String(t, value)
	if err != nil {
		ascii = value
	}
	cleaned := strings.ToLower(strings.Trim(nonSlug.ReplaceAllString(ascii, "-"), "-"))
	if cleaned == "" {
		return "dashboard-entry"
	}
	return cleaned
}

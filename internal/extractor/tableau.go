package extractor

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/user/dashboard-scraper/internal/entity"
	"github.com/user/dashboard-scraper/internal/urlnorm"
)

const (
	// TableauBase is the origin viz links and thumbnails resolve against.
	TableauBase = "https://public.tableau.com"
	// TableauCardSelector matches one search result card.
	TableauCardSelector = `div[data-testid="VizCard"]`
)

// TableauSearchURL returns the vizzes search page for query. Page 1 has no
// page parameter.
func TableauSearchURL(query string, page int) string {
	u := TableauBase + "/app/search/vizzes/" + url.PathEscape(query)
	if page > 1 {
		u += fmt.Sprintf("?page=%d", page)
	}
	return u
}

// NewTableau extracts viz cards from a rendered Tableau Public search page.
// Cards without a /viz/ link are skipped.
func NewTableau() Extractor {
	return ExtractorFunc(tableauCards)
}

func tableauCards(doc *goquery.Document, base *url.URL) []entity.MetadataRecord {
	if base == nil {
		base, _ = url.Parse(TableauBase)
	}
	var records []entity.MetadataRecord
	doc.Find(TableauCardSelector).Each(func(_ int, card *goquery.Selection) {
		href, ok := card.Find("a[href]").First().Attr("href")
		if !ok || !strings.Contains(href, "/viz/") {
			return
		}
		rec := entity.MetadataRecord{
			Origin:     entity.OriginCard,
			SourceLink: urlnorm.Resolve(base, href),
			Title:      strings.TrimSpace(card.Find(`a[class*="title"]`).First().Text()),
			Author:     strings.TrimSpace(card.Find(`a[class*="author"]`).First().Text()),
		}
		if src := firstAttr(card.Find("img").First(), "src"); src != "" {
			rec.Thumbnail = urlnorm.Resolve(base, src)
		}
		records = append(records, rec)
	})
	return records
}

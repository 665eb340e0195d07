package extractor

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/user/dashboard-scraper/internal/entity"
	"github.com/user/dashboard-scraper/internal/urlnorm"
)

// AgencyAnalyticsCardSelector matches one dashboard card. The hashed CSS
// module suffix changes between deploys, so only the prefix is matched.
const AgencyAnalyticsCardSelector = `div[class*="DashboardReportCard_cardWrap"]`

// NewAgencyAnalytics extracts the dashboard cards of one gallery page.
func NewAgencyAnalytics() Extractor {
	return ExtractorFunc(agencyAnalyticsCards)
}

func agencyAnalyticsCards(doc *goquery.Document, base *url.URL) []entity.MetadataRecord {
	var records []entity.MetadataRecord
	doc.Find(AgencyAnalyticsCardSelector).Each(func(_ int, card *goquery.Selection) {
		rec := entity.MetadataRecord{Origin: entity.OriginCard}
		rec.SourceLink = resolveHref(card.Find("a[href]").First(), base)

		if img := card.Find(`img[class*="DashboardReportCard_thumbnail"]`).First(); img.Length() > 0 {
			src := firstAttr(img, "src", "data-src", "data-lazy-src")
			if src == "" {
				if fields := strings.FieldsFunc(img.AttrOr("srcset", ""), func(r rune) bool {
					return r == ',' || r == ' ' || r == '\t' || r == '\n'
				}); len(fields) > 0 {
					src = fields[0]
				}
			}
			if src != "" {
				rec.Thumbnail = urlnorm.Resolve(base, src)
			}
		}

		rec.Title = strippedText(card.Find(`h2[class*="Text_text"]`).First())
		rec.ExtraText = spacedText(card.Find(`div[class*="line-clamp-2"]`).First().Find(`div[class*="Text_text"]`).First())

		if rec.Thumbnail != "" || rec.Title != "" {
			records = append(records, rec)
		}
	})
	return records
}

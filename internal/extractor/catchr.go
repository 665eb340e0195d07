package extractor

import (
	"net/url"

	"github.com/PuerkitoBio/goquery"

	"github.com/user/dashboard-scraper/internal/entity"
	"github.com/user/dashboard-scraper/internal/urlnorm"
)

// NewCatchr extracts Webflow template cards from the Catchr gallery.
func NewCatchr() Extractor {
	return ExtractorFunc(catchrCards)
}

func catchrCards(doc *goquery.Document, base *url.URL) []entity.MetadataRecord {
	var records []entity.MetadataRecord
	doc.Find("div.cards").Each(func(_ int, card *goquery.Selection) {
		rec := entity.MetadataRecord{Origin: entity.OriginCard}
		if src := firstAttr(card.Find("div.cards-image img[src]").First(), "src"); src != "" {
			rec.Thumbnail = urlnorm.Resolve(base, src)
		}
		rec.Title = strippedText(card.Find("div.templatename").First())
		rec.ExtraText = strippedText(card.Find("div.text-block-52").First())
		rec.SourceLink = resolveHref(card.Find("a.button-23[href]").First(), base)
		records = append(records, rec)
	})
	return records
}

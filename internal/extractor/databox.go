package extractor

import (
	"net/url"

	"github.com/PuerkitoBio/goquery"

	"github.com/user/dashboard-scraper/internal/entity"
)

// NewDatabox scans the whole page like the generic extractor, but images
// inside a Databox template card take the card's title, link and blurb.
func NewDatabox() Extractor {
	return ExtractorFunc(scanner{card: databoxCard}.scan)
}

func databoxCard(img *goquery.Selection, base *url.URL, rec *entity.MetadataRecord) bool {
	card := img.Closest("div.dbx-template-card")
	if card.Length() == 0 {
		return false
	}
	rec.Title = strippedText(card.Find("h4.dbx-template-card__title").First())
	rec.SourceLink = resolveHref(card.Find("a.dbx-container-anchor[href]").First(), base)
	rec.ExtraText = spacedText(card.Find("p.dbx-template-card__text").First())
	return true
}

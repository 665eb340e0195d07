package extractor

import (
	"net/url"
	"regexp"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/user/dashboard-scraper/internal/entity"
	"github.com/user/dashboard-scraper/internal/urlnorm"
)

var backgroundURL = regexp.MustCompile(`url\s*\(\s*["']?([^"'()]+)["']?\s*\)`)

// NewByMarketers extracts WooCommerce product tiles from the ByMarketers
// template shop.
func NewByMarketers() Extractor {
	return ExtractorFunc(byMarketersProducts)
}

func byMarketersProducts(doc *goquery.Document, base *url.URL) []entity.MetadataRecord {
	var records []entity.MetadataRecord
	doc.Find("li").Each(func(_ int, li *goquery.Selection) {
		if !slices.Contains(strings.Fields(li.AttrOr("class", "")), "product") {
			return
		}
		rec := byMarketersProduct(li, base)
		if rec.Thumbnail != "" || rec.Title != "" {
			records = append(records, rec)
		}
	})
	return records
}

func byMarketersProduct(li *goquery.Selection, base *url.URL) entity.MetadataRecord {
	rec := entity.MetadataRecord{Origin: entity.OriginCard}

	names := li.Find("a.product-text-name[href]")
	names.EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if text := strippedText(a); text != "" {
			rec.Title = text
			rec.SourceLink = resolveHref(a, base)
			return false
		}
		return true
	})

	if rec.Title == "" {
		if button := li.Find("a.button.alt[href]").First(); button.Length() > 0 {
			if rec.SourceLink == "" {
				rec.SourceLink = resolveHref(button, base)
			}
			rec.Title = firstAttr(button, "data-product-title")
		}
	}
	if rec.SourceLink == "" && names.Length() > 0 {
		rec.SourceLink = resolveHref(names.First(), base)
	}

	rec.ExtraText = strippedText(li.Find("div.product-short-description").First())

	if style := li.Find("div.product-img").First().AttrOr("style", ""); style != "" {
		if m := backgroundURL.FindStringSubmatch(style); m != nil {
			rec.Thumbnail = urlnorm.Resolve(base, m[1])
		}
	}
	return rec
}

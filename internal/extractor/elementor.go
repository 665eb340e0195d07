package extractor

import (
	"net/url"

	"github.com/PuerkitoBio/goquery"

	"github.com/user/dashboard-scraper/internal/entity"
	"github.com/user/dashboard-scraper/internal/urlnorm"
)

// NewPorterMetrics extracts Elementor post cards, bare Elementor text
// blocks, and then every other image on the page. Card records come first
// so their metadata wins when a scanned image repeats a card thumbnail.
func NewPorterMetrics() Extractor {
	return ExtractorFunc(func(doc *goquery.Document, base *url.URL) []entity.MetadataRecord {
		records := elementorPosts(doc, base)
		records = append(records, elementorTextBlocks(doc, base)...)
		return append(records, scanner{}.scan(doc, base)...)
	})
}

func elementorPosts(doc *goquery.Document, base *url.URL) []entity.MetadataRecord {
	var records []entity.MetadataRecord
	doc.Find("article.elementor-post.elementor-grid-item").Each(func(_ int, article *goquery.Selection) {
		link := article.Find("a.elementor-post__thumbnail__link[href]").First()
		if link.Length() == 0 {
			link = article.Find("h2.elementor-post__title a[href]").First()
		}
		rec := entity.MetadataRecord{
			Origin:     entity.OriginCard,
			SourceLink: resolveHref(link, base),
			Title:      normalizeSpaces(spacedText(article.Find("h2.elementor-post__title a").First())),
			ExtraText:  normalizeSpaces(spacedText(article.Find(".elementor-post__excerpt").First())),
		}

		img := article.Find(".elementor-post__thumbnail img").First()
		if img.Length() > 0 {
			if found := rasterSrcsetURLs(firstAttr(img, "srcset", "data-srcset")); len(found) > 0 {
				// Elementor lists srcset candidates smallest first.
				rec.Thumbnail = urlnorm.Resolve(base, found[len(found)-1])
			}
			if rec.Thumbnail == "" {
				src := firstAttr(img, "src", "data-src", "data-lazy-src", "data-original")
				if src != "" && !urlnorm.IsDataURL(src) {
					rec.Thumbnail = urlnorm.Resolve(base, src)
				}
			}
		} else {
			rec.Thumbnail = rec.SourceLink
		}

		if rec.Thumbnail != "" || rec.SourceLink != "" || rec.Title != "" || rec.ExtraText != "" {
			records = append(records, rec)
		}
	})
	return records
}

// elementorTextBlocks covers cards rendered without the outer article. The
// post link stands in for the missing thumbnail.
func elementorTextBlocks(doc *goquery.Document, base *url.URL) []entity.MetadataRecord {
	var records []entity.MetadataRecord
	doc.Find("div.elementor-post__text").Each(func(_ int, block *goquery.Selection) {
		title := block.Find("h2.elementor-post__title a[href]").First()
		rec := entity.MetadataRecord{
			Origin:     entity.OriginCard,
			SourceLink: resolveHref(title, base),
			Title:      normalizeSpaces(spacedText(title)),
			ExtraText:  normalizeSpaces(spacedText(block.Find(".elementor-post__excerpt").First())),
		}
		rec.Thumbnail = rec.SourceLink
		if rec.SourceLink != "" || rec.Title != "" || rec.ExtraText != "" {
			records = append(records, rec)
		}
	})
	return records
}

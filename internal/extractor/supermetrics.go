package extractor

import (
	"net/url"

	"github.com/PuerkitoBio/goquery"

	"github.com/user/dashboard-scraper/internal/entity"
	"github.com/user/dashboard-scraper/internal/urlnorm"
)

// NewSupermetrics extracts report articles from the Supermetrics template
// gallery. Thumbnails are served through an image proxy and are unwrapped
// to the origin CDN asset.
func NewSupermetrics() Extractor {
	return ExtractorFunc(supermetricsReports)
}

func supermetricsReports(doc *goquery.Document, base *url.URL) []entity.MetadataRecord {
	var records []entity.MetadataRecord
	doc.Find(`article[data-template-type="report"]`).Each(func(_ int, article *goquery.Selection) {
		rec := entity.MetadataRecord{Origin: entity.OriginCard}
		if link := article.Find("a[href]").First(); link.Length() > 0 {
			rec.SourceLink = resolveHref(link, base)
			rec.Title = strippedText(link.Find("h3").First())
		}
		if thumb := pictureThumbnail(article.Find("picture").First()); thumb != "" {
			rec.Thumbnail = urlnorm.Resolve(base, UnwrapCDN(thumb))
		}
		records = append(records, rec)
	})
	return records
}

// pictureThumbnail picks the widest source candidate of a picture element,
// then the widest img srcset candidate, then the img src.
func pictureThumbnail(picture *goquery.Selection) string {
	if picture.Length() == 0 {
		return ""
	}
	var srcsets []string
	picture.Find("source[srcset]").Each(func(_ int, s *goquery.Selection) {
		srcsets = append(srcsets, s.AttrOr("srcset", ""))
	})
	if best, _ := widestCandidate(srcsets...); best != "" {
		return best
	}
	img := picture.Find("img").First()
	if img.Length() == 0 {
		return ""
	}
	return BestSrcset(img.AttrOr("srcset", ""), img.AttrOr("src", ""))
}

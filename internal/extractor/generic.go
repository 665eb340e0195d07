package extractor

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/user/dashboard-scraper/internal/entity"
	"github.com/user/dashboard-scraper/internal/urlnorm"
)

// cardHook lets a site fill title, link and extra text for an image it
// recognises as part of a card. It reports false for other images.
type cardHook func(img *goquery.Selection, base *url.URL, rec *entity.MetadataRecord) bool

// NewGeneric returns the page-wide image scanner.
func NewGeneric() Extractor {
	return ExtractorFunc(scanner{}.scan)
}

type scanner struct {
	card cardHook
}

// scan collects every image candidate on the page: img src and srcset,
// picture sources, og:image/twitter:image and link rel=image_src. Only img
// elements carry context; the other candidates yield bare thumbnails.
func (s scanner) scan(doc *goquery.Document, base *url.URL) []entity.MetadataRecord {
	var records []entity.MetadataRecord
	bare := func(raw string) {
		if raw = strings.TrimSpace(raw); raw == "" || urlnorm.IsDataURL(raw) {
			return
		}
		if u := urlnorm.Resolve(base, raw); u != "" {
			records = append(records, entity.MetadataRecord{Thumbnail: u})
		}
	}

	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		src := firstAttr(img, "src", "data-src", "data-lazy-src")
		if src != "" && !urlnorm.IsDataURL(src) {
			if rec, ok := s.imageRecord(img, src, base); ok {
				records = append(records, rec)
			}
		}
		for _, u := range rasterSrcsetURLs(firstAttr(img, "srcset", "data-srcset")) {
			bare(u)
		}
	})

	doc.Find("source").Each(func(_ int, src *goquery.Selection) {
		for _, u := range absoluteSrcsetURLs(firstAttr(src, "srcset", "data-srcset")) {
			bare(u)
		}
		bare(firstAttr(src, "src"))
	})

	doc.Find("meta, link").Each(func(_ int, tag *goquery.Selection) {
		switch firstAttr(tag, "property", "name") {
		case "og:image", "twitter:image":
			bare(firstAttr(tag, "content"))
			return
		}
		if goquery.NodeName(tag) == "link" && strings.Join(strings.Fields(tag.AttrOr("rel", "")), " ") == "image_src" {
			bare(firstAttr(tag, "href"))
		}
	})
	return records
}

func (s scanner) imageRecord(img *goquery.Selection, src string, base *url.URL) (entity.MetadataRecord, bool) {
	rec := entity.MetadataRecord{Thumbnail: urlnorm.Resolve(base, src)}
	if rec.Thumbnail == "" {
		return rec, false
	}

	if s.card == nil || !s.card(img, base, &rec) {
		rec.SourceLink = resolveHref(img.ParentsFiltered("a[href]").First(), base)
		rec.Title = firstAttr(img, "alt", "title")
		if rec.Title == "" {
			rec.Title = strippedText(figcaption(img))
		}
	}
	rec.Author = findAuthor(img)
	if rec.ExtraText == "" {
		rec.ExtraText = spacedText(figcaption(img))
	}
	if rec.ExtraText == "" {
		rec.ExtraText = nearbyText(img)
	}
	return rec, true
}

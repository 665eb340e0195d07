// Package extractor turns rendered gallery HTML into metadata records.
// Each supported site has one Extractor; Lookup returns the site profile
// bundling it with the filter and pagination settings the site needs.
package extractor

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/user/dashboard-scraper/internal/entity"
	"github.com/user/dashboard-scraper/internal/repository"
)

// Extractor parses one rendered document. It fails only when the document
// itself cannot be parsed; a malformed card yields empty fields and a page
// without matching containers yields an empty slice.
type Extractor interface {
	Extract(html string, base *url.URL) ([]entity.MetadataRecord, error)
}

// ExtractorFunc adapts a document walker to Extractor.
type ExtractorFunc func(doc *goquery.Document, base *url.URL) []entity.MetadataRecord

// Extract implements Extractor.
func (f ExtractorFunc) Extract(html string, base *url.URL) ([]entity.MetadataRecord, error) {
	doc, err := parse(html)
	if err != nil {
		return nil, err
	}
	records := f(doc, base)
	if records == nil {
		records = []entity.MetadataRecord{}
	}
	return records, nil
}

func parse(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrExtractionFailed, err)
	}
	return doc, nil
}

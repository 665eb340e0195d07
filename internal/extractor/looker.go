package extractor

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/user/dashboard-scraper/internal/entity"
	"github.com/user/dashboard-scraper/internal/repository"
)

const (
	// LookerGalleryBundleURL is the gallery script that embeds the
	// report catalogue.
	LookerGalleryBundleURL = "https://lookerstudio.google.com/gallery/static/gallery/report_gallery_js.js"

	lookerReportsMarker = "reportsList:["
	lookerThumbnailURL  = "https://datastudio.google.com/reporting/%s/thumbnail?sz=w320-h240-p-k-nu"
)

// ErrReportsListMissing means the bundle has no complete reportsList array.
var ErrReportsListMissing = fmt.Errorf("%w: looker reportsList not found", repository.ErrExtractionFailed)

// LookerReport is one gallery entry decoded from the bundle.
type LookerReport struct {
	ID       string
	Title    string
	URL      string
	Category string
	Author   string
}

// Record converts the report into a card record.
func (r LookerReport) Record() entity.MetadataRecord {
	return entity.MetadataRecord{
		Origin:     entity.OriginCard,
		Thumbnail:  fmt.Sprintf(lookerThumbnailURL, r.ID),
		SourceLink: r.URL,
		Title:      r.Title,
		Author:     r.Author,
		ExtraText:  r.Category,
	}
}

// NewLooker returns an Extractor over the gallery JavaScript bundle. The
// base URL is unused: report URLs in the bundle are absolute.
func NewLooker() Extractor {
	return lookerExtractor{}
}

type lookerExtractor struct{}

func (lookerExtractor) Extract(src string, _ *url.URL) ([]entity.MetadataRecord, error) {
	reports, err := ParseLookerBundle(src)
	if err != nil {
		return nil, err
	}
	records := make([]entity.MetadataRecord, 0, len(reports))
	for _, r := range reports {
		records = append(records, r.Record())
	}
	return records, nil
}

// ParseLookerBundle finds the reportsList array literal in src and decodes
// every object in it that has an id, a title and a URL.
func ParseLookerBundle(src string) ([]LookerReport, error) {
	array, err := reportsArray(src)
	if err != nil {
		return nil, err
	}
	var reports []LookerReport
	for _, obj := range objectLiterals(array) {
		r := LookerReport{
			ID:       stringField(obj, "reportId"),
			Title:    stringField(obj, "reportTitle"),
			URL:      stringField(obj, "reportUrl"),
			Category: stringField(obj, "category"),
			Author:   stringField(obj, "authorName"),
		}
		if r.ID == "" || r.Title == "" || r.URL == "" {
			continue
		}
		reports = append(reports, r)
	}
	return reports, nil
}

// jsScanner tracks whether a position is inside a JS string, template
// literal or comment. Regular expression literals are not recognised.
type jsScanner struct {
	quote   byte
	escape  bool
	comment byte // '/' for a line comment, '*' for a block comment
	slash   bool // previous structural byte was '/'
	star    bool // previous byte inside a block comment was '*'
}

// step consumes c and reports whether it is structural (outside a string
// or comment).
func (s *jsScanner) step(c byte) bool {
	switch s.comment {
	case '/':
		if c == '\n' {
			s.comment = 0
		}
		return false
	case '*':
		if s.star && c == '/' {
			s.comment = 0
		}
		s.star = c == '*'
		return false
	}
	if s.quote != 0 {
		switch {
		case s.escape:
			s.escape = false
		case c == '\\':
			s.escape = true
		case c == s.quote:
			s.quote = 0
		}
		return false
	}
	if s.slash {
		s.slash = false
		if c == '/' || c == '*' {
			s.comment = c
			s.star = false
			return false
		}
	}
	switch c {
	case '"', '\'', '`':
		s.quote = c
		return false
	case '/':
		s.slash = true
	}
	return true
}

func reportsArray(src string) (string, error) {
	i := strings.Index(src, lookerReportsMarker)
	if i < 0 {
		return "", ErrReportsListMissing
	}
	start := i + len(lookerReportsMarker) - 1
	var (
		sc    jsScanner
		depth int
	)
	for j := start; j < len(src); j++ {
		c := src[j]
		if !sc.step(c) {
			continue
		}
		switch c {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return src[start : j+1], nil
			}
		}
	}
	return "", fmt.Errorf("%w: unterminated array", ErrReportsListMissing)
}

func objectLiterals(array string) []string {
	var (
		sc    jsScanner
		depth int
		start = -1
		out   []string
	)
	for j := 0; j < len(array); j++ {
		c := array[j]
		if !sc.step(c) {
			continue
		}
		switch c {
		case '{':
			if depth == 0 {
				start = j
			}
			depth++
		case '}':
			depth--
			if depth == 0 && start >= 0 {
				out = append(out, array[start:j+1])
				start = -1
			}
		}
	}
	return out
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// stringField returns the decoded string literal assigned to key in obj,
// or "" when the key is absent or not a string.
func stringField(obj, key string) string {
	pattern := key + ":"
	from := 0
	for {
		i := strings.Index(obj[from:], pattern)
		if i < 0 {
			return ""
		}
		i += from
		from = i + len(pattern)
		if i > 0 && isIdentByte(obj[i-1]) {
			continue
		}
		rest := strings.TrimLeft(obj[from:], " \t\r\n")
		if rest == "" || (rest[0] != '"' && rest[0] != '\'' && rest[0] != '`') {
			return ""
		}
		v, err := decodeJSString(rest)
		if err != nil {
			return ""
		}
		return v
	}
}

var errBadLiteral = errors.New("malformed string literal")

// decodeJSString decodes the quoted literal at the start of s.
func decodeJSString(s string) (string, error) {
	quote := s[0]
	var b strings.Builder
	pending := rune(-1) // high surrogate awaiting its pair
	flush := func() {
		if pending >= 0 {
			b.WriteRune(utf8.RuneError)
			pending = -1
		}
	}
	for i := 1; i < len(s); {
		c := s[i]
		switch {
		case c == quote:
			flush()
			return b.String(), nil
		case c != '\\':
			flush()
			r, size := utf8.DecodeRuneInString(s[i:])
			b.WriteRune(r)
			i += size
			continue
		}
		if i+1 >= len(s) {
			return "", errBadLiteral
		}
		esc := s[i+1]
		i += 2
		switch esc {
		case 'n':
			flush()
			b.WriteByte('\n')
		case 't':
			flush()
			b.WriteByte('\t')
		case 'r':
			flush()
			b.WriteByte('\r')
		case 'b':
			flush()
			b.WriteByte('\b')
		case 'f':
			flush()
			b.WriteByte('\f')
		case 'x', 'u':
			n := 2
			if esc == 'u' {
				n = 4
			}
			if i+n > len(s) {
				return "", errBadLiteral
			}
			v, err := strconv.ParseUint(s[i:i+n], 16, 32)
			if err != nil {
				return "", errBadLiteral
			}
			i += n
			r := rune(v)
			switch {
			case utf16.IsSurrogate(r) && r < 0xDC00:
				flush()
				pending = r
			case utf16.IsSurrogate(r) && pending >= 0:
				b.WriteRune(utf16.DecodeRune(pending, r))
				pending = -1
			default:
				flush()
				b.WriteRune(r)
			}
		default:
			// \\ \' \" \/ and any other escaped character stand for themselves.
			flush()
			r, size := utf8.DecodeRuneInString(s[i-1:])
			b.WriteRune(r)
			i += size - 1
		}
	}
	return "", errBadLiteral
}

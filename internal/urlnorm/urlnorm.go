// Package urlnorm resolves, classifies and filters image and link URLs
// found on gallery pages.
package urlnorm

import (
	"net/url"
	"strings"

	"github.com/user/dashboard-scraper/internal/entity"
	"github.com/user/dashboard-scraper/pkg/utils"
)

var rasterExtensions = []string{
	".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp",
	".tiff", ".tif", ".heic", ".heif", ".avif", ".jfif", "thumbnail",
}

var trackingParams = map[string]struct{}{
	"fbclid": {},
	"gclid":  {},
	"mc_cid": {},
	"mc_eid": {},
}

// Resolve makes raw absolute against base. Only the first whitespace
// separated token is used, so srcset fragments resolve to their URL.
// It returns "" for empty input and unparsable references.
func Resolve(base *url.URL, raw string) string {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return ""
	}
	abs, err := utils.ToAbsoluteURL(base, fields[0])
	if err != nil {
		return ""
	}
	return abs
}

// IsDataURL reports an inline data: URI.
func IsDataURL(raw string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(raw)), "data:")
}

func lowerPathAndQuery(raw string) (string, string) {
	u, err := url.Parse(raw)
	if err != nil {
		return strings.ToLower(raw), ""
	}
	return strings.ToLower(u.Path), strings.ToLower(u.RawQuery)
}

// IsVector reports a URL whose path ends in .svg.
func IsVector(raw string) bool {
	p, _ := lowerPathAndQuery(raw)
	return strings.HasSuffix(p, ".svg")
}

// HasImageExtension reports a raster extension at the end of the path or
// anywhere in the query string, where some CDNs carry the format.
func HasImageExtension(raw string) bool {
	if raw == "" {
		return false
	}
	p, q := lowerPathAndQuery(raw)
	for _, ext := range rasterExtensions {
		if strings.HasSuffix(p, ext) {
			return true
		}
	}
	for _, ext := range rasterExtensions {
		if strings.Contains(q, ext) {
			return true
		}
	}
	return false
}

// Classify sorts a URL into raster, vector or unknown.
func Classify(raw string) entity.ImageKind {
	switch {
	case IsVector(raw):
		return entity.ImageKindVector
	case HasImageExtension(raw):
		return entity.ImageKindRaster
	default:
		return entity.ImageKindUnknown
	}
}

// StripQuery drops the query string and fragment.
func StripQuery(raw string) string {
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		return raw[:i]
	}
	return raw
}

// StripTracking removes utm_* and click-id parameters, keeping the rest of
// the query in its original order.
func StripTracking(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.RawQuery == "" {
		return raw
	}

	parts := strings.Split(u.RawQuery, "&")
	kept := parts[:0]
	for _, part := range parts {
		name := part
		if i := strings.IndexByte(part, '='); i >= 0 {
			name = part[:i]
		}
		name = strings.ToLower(name)
		if strings.HasPrefix(name, "utm_") {
			continue
		}
		if _, ok := trackingParams[name]; ok {
			continue
		}
		kept = append(kept, part)
	}
	u.RawQuery = strings.Join(kept, "&")
	return u.String()
}

// Dedupe drops repeated strings, keeping the first occurrence.
func Dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

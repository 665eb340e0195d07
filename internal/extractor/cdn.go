package extractor

import (
	"regexp"
	"strings"

	"github.com/user/dashboard-scraper/internal/urlnorm"
)

const (
	sanityHost   = "cdn.sanity.io"
	schemeWindow = 50
)

var (
	schemeRun      = regexp.MustCompile(`https?:/+`)
	schemeFix      = regexp.MustCompile(`^(https?):/+`)
	cloudflareWrap = regexp.MustCompile(`https?://[^/]+/cdn-cgi/image/[^/]+/(https?:/+/[^\s?]+)`)
)

// UnwrapCDN recovers the origin asset from an image-proxy URL such as
// https://site/format=avif/https:/cdn.sanity.io/images/x.png?w=100 or a
// Cloudflare /cdn-cgi/image/ URL. Other URLs lose their query string.
func UnwrapCDN(raw string) string {
	if raw == "" {
		return raw
	}
	if pos := strings.Index(raw, sanityHost); pos > 0 {
		start := max(0, pos-schemeWindow)
		// The inner scheme is the one closest to the host.
		if locs := schemeRun.FindAllStringIndex(raw[start:pos], -1); len(locs) > 0 {
			from := start + locs[len(locs)-1][0]
			end := strings.IndexByte(raw[pos:], '?')
			if end < 0 {
				end = len(raw)
			} else {
				end += pos
			}
			return schemeFix.ReplaceAllString(raw[from:end], "$1://")
		}
	}
	if m := cloudflareWrap.FindStringSubmatch(raw); m != nil {
		return urlnorm.StripQuery(schemeFix.ReplaceAllString(m[1], "$1://"))
	}
	return urlnorm.StripQuery(raw)
}

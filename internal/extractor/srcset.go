package extractor

import (
	"regexp"
	"strconv"
	"strings"
)

// srcsetRaster matches raster URLs whatever descriptors follow them.
var (
	srcsetEntry    = regexp.MustCompile(`(.+?)\s+(\d+)w\s*$`)
	srcsetRaster   = regexp.MustCompile(`(?i)([^\s,]+(?:\.jpg|\.jpeg|\.png|\.gif|\.webp)[^\s,]*)`)
	srcsetAbsolute = regexp.MustCompile(`(https?://[^\s,]+)`)
)

// widestCandidate scans srcsets for the entry with the largest width
// descriptor. It returns "" and 0 when no entry carries one.
func widestCandidate(srcsets ...string) (string, int) {
	best, bestWidth := "", 0
	for _, srcset := range srcsets {
		for _, entry := range strings.Split(srcset, ",") {
			m := srcsetEntry.FindStringSubmatch(strings.TrimSpace(entry))
			if m == nil {
				continue
			}
			w, err := strconv.Atoi(m[2])
			if err != nil {
				continue
			}
			if w > bestWidth {
				best, bestWidth = strings.TrimSpace(m[1]), w
			}
		}
	}
	return best, bestWidth
}

// BestSrcset returns the widest srcset candidate, or fallback when the
// srcset has no width descriptors.
func BestSrcset(srcset, fallback string) string {
	if best, _ := widestCandidate(srcset); best != "" {
		return best
	}
	return strings.TrimSpace(fallback)
}

func rasterSrcsetURLs(srcset string) []string {
	return srcsetRaster.FindAllString(srcset, -1)
}

func absoluteSrcsetURLs(srcset string) []string {
	return srcsetAbsolute.FindAllString(srcset, -1)
}

package urlnorm

import "github.com/user/dashboard-scraper/internal/entity"

// Policy controls record-level filtering for a site.
type Policy struct {
	// RequireImageExtension drops scan records whose thumbnail has no
	// raster extension. Card records are never subject to it.
	RequireImageExtension bool
}

// Clean applies URL rules to extracted records:
//   - data: and .svg thumbnails drop scan records and are cleared on cards
//   - the raster-extension rule, when enabled, drops scan records
//   - tracking parameters are stripped from source links
func Clean(records []entity.MetadataRecord, p Policy) []entity.MetadataRecord {
	out := make([]entity.MetadataRecord, 0, len(records))
	for _, r := range records {
		if r.Thumbnail != "" && (IsDataURL(r.Thumbnail) || IsVector(r.Thumbnail)) {
			if r.Origin == entity.OriginScan {
				continue
			}
			r.Thumbnail = ""
		}
		if p.RequireImageExtension && r.Origin == entity.OriginScan && !HasImageExtension(r.Thumbnail) {
			continue
		}
		if r.SourceLink != "" {
			r.SourceLink = StripTracking(r.SourceLink)
		}
		out = append(out, r)
	}
	return out
}

// Unique keeps the first record per identity key. Records without a key
// are kept as they are.
func Unique(records []entity.MetadataRecord) []entity.MetadataRecord {
	seen := make(map[string]struct{}, len(records))
	out := make([]entity.MetadataRecord, 0, len(records))
	for _, r := range records {
		key := r.IdentityKey()
		if key != "" {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
		}
		out = append(out, r)
	}
	return out
}

// DropNoise removes records with neither a thumbnail nor a title.
func DropNoise(records []entity.MetadataRecord) []entity.MetadataRecord {
	out := records[:0:0]
	for _, r := range records {
		if !r.IsNoise() {
			out = append(out, r)
		}
	}
	return out
}

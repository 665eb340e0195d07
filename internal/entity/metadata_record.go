package entity

// Origin records which extraction path produced a record. Filters consult it
// to decide whether a record is subject to raster/dimension checks.
type Origin int

const (
	// OriginScan marks records from a page-wide image scan.
	OriginScan Origin = iota
	// OriginCard marks records taken from a recognised gallery card.
	OriginCard
)

func (o Origin) String() string {
	if o == OriginCard {
		return "card"
	}
	return "scan"
}

// MetadataRecord is one dashboard/template entry scraped from a gallery.
type MetadataRecord struct {
	Thumbnail  string `json:"thumbnail"`
	SourceLink string `json:"source_link"`
	Title      string `json:"title"`
	Author     string `json:"author"`
	ExtraText  string `json:"extra_text"`

	Origin Origin `json:"-"`
}

// IdentityKey is the thumbnail when present, else the source link.
func (r MetadataRecord) IdentityKey() string {
	if r.Thumbnail != "" {
		return r.Thumbnail
	}
	return r.SourceLink
}

// IsNoise reports a record with neither a thumbnail nor a title.
func (r MetadataRecord) IsNoise() bool {
	return r.Thumbnail == "" && r.Title == ""
}

// CleanupReport summarises a collection cleanup pass.
type CleanupReport struct {
	Path      string `json:"path"`
	Removed   int    `json:"removed"`
	Remaining int    `json:"remaining"`
}

package entity

// ImageKind classifies a candidate image URL.
type ImageKind int

const (
	ImageKindUnknown ImageKind = iota
	ImageKindRaster
	ImageKindVector
)

func (k ImageKind) String() string {
	switch k {
	case ImageKindRaster:
		return "raster"
	case ImageKindVector:
		return "vector"
	default:
		return "unknown"
	}
}

// CandidateImage is a resolved image URL with an optional measurement.
// It is transient and never persisted.
type CandidateImage struct {
	URL      string
	Kind     ImageKind
	Width    int
	Height   int
	Measured bool
}

// DownloadedImage is image content fetched for scoring and upload.
type DownloadedImage struct {
	URL         string
	ContentType string
	Data        []byte
}

// ImageScore is a vision-model relevance rating in [0, 100].
type ImageScore struct {
	Score     float64 `json:"score"`
	Reasoning string  `json:"reasoning"`
}

// ScoredImage pairs an image with its rating.
type ScoredImage struct {
	Image DownloadedImage
	Score ImageScore
}

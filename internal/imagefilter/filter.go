// Package imagefilter drops thumbnails too small to be dashboard previews.
package imagefilter

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/user/dashboard-scraper/internal/entity"
	"github.com/user/dashboard-scraper/internal/urlnorm"
	"github.com/user/dashboard-scraper/pkg/metrics"
)

// DefaultThreshold is the minimum edge length, exclusive, in pixels.
const DefaultThreshold = 200

// Prober measures an image. (0, 0) means it could not be measured.
type Prober interface {
	Measure(ctx context.Context, imageURL string) (width, height int)
}

// Policy decides whether a measured size is acceptable.
type Policy struct {
	Threshold int
	// Strict rejects images that could not be measured.
	Strict bool
}

// DefaultPolicy accepts unmeasured images.
func DefaultPolicy() Policy { return Policy{Threshold: DefaultThreshold} }

// Accept reports whether both edges exceed the threshold. An unmeasured
// (0, 0) image passes unless the policy is strict.
func (p Policy) Accept(w, h int) bool {
	if w == 0 && h == 0 {
		return !p.Strict
	}
	return w > p.Threshold && h > p.Threshold
}

// Filter applies a Policy through a Prober, memoizing results per URL.
type Filter struct {
	prober Prober
	policy Policy
	mode   string
	logger *zap.Logger
	cache  map[string]entity.CandidateImage
}

// New returns a Filter. mode labels metrics and logs ("browser", "http").
func New(prober Prober, policy Policy, mode string, logger *zap.Logger) *Filter {
	return &Filter{
		prober: prober,
		policy: policy,
		mode:   mode,
		logger: logger,
		cache:  make(map[string]entity.CandidateImage),
	}
}

// Check measures imageURL (once per Filter) and applies the policy.
func (f *Filter) Check(ctx context.Context, imageURL string) (entity.CandidateImage, bool) {
	c, ok := f.cache[imageURL]
	if !ok {
		w, h := f.prober.Measure(ctx, imageURL)
		c = entity.CandidateImage{
			URL:      imageURL,
			Kind:     urlnorm.Classify(imageURL),
			Width:    w,
			Height:   h,
			Measured: w != 0 || h != 0,
		}
		f.cache[imageURL] = c
	}

	accepted := f.policy.Accept(c.Width, c.Height)
	outcome := "rejected"
	switch {
	case accepted && !c.Measured:
		outcome = "unmeasured"
	case accepted:
		outcome = "accepted"
	}
	if !ok {
		metrics.ImageProbes.WithLabelValues(f.mode, outcome).Inc()
		f.logger.Debug("image probed",
			zap.String("url", imageURL),
			zap.Int("width", c.Width),
			zap.Int("height", c.Height),
			zap.String("outcome", outcome),
		)
	}
	return c, accepted
}

// Records drops records of the given origin whose thumbnail fails Check.
// Records of other origins, and records without a thumbnail, pass through.
func (f *Filter) Records(ctx context.Context, records []entity.MetadataRecord, origin entity.Origin) []entity.MetadataRecord {
	out := make([]entity.MetadataRecord, 0, len(records))
	rejected := 0
	for _, r := range records {
		if ctx.Err() != nil {
			// Cancelled: keep what is left unchecked rather than lose it.
			out = append(out, r)
			continue
		}
		if r.Origin != origin || r.Thumbnail == "" {
			out = append(out, r)
			continue
		}
		if _, ok := f.Check(ctx, r.Thumbnail); !ok {
			rejected++
			continue
		}
		out = append(out, r)
	}
	if rejected > 0 {
		f.logger.Info("dropped undersized images",
			zap.Int("rejected", rejected),
			zap.Int("threshold", f.policy.Threshold),
		)
	}
	return out
}

// NaturalSizer is the browser capability BrowserProber needs.
type NaturalSizer interface {
	MeasureImageNaturalSize(ctx context.Context, url string, timeout time.Duration) (int, int)
}

// BrowserProber measures images inside the live page session.
type BrowserProber struct {
	Session NaturalSizer
	Timeout time.Duration
}

func (p BrowserProber) Measure(ctx context.Context, imageURL string) (int, int) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return p.Session.MeasureImageNaturalSize(ctx, imageURL, timeout)
}

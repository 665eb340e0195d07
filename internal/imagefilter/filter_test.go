package imagefilter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/user/dashboard-scraper/internal/entity"
)

type sizeMap struct {
	sizes map[string][2]int
	calls map[string]int
}

func (s *sizeMap) Measure(_ context.Context, u string) (int, int) {
	s.calls[u]++
	d := s.sizes[u]
	return d[0], d[1]
}

func TestPolicyBoundary(t *testing.T) {
	p := DefaultPolicy()
	assert.False(t, p.Accept(200, 200))
	assert.True(t, p.Accept(201, 201))
	assert.True(t, p.Accept(0, 0))
	assert.False(t, p.Accept(800, 150))

	strict := Policy{Threshold: 200, Strict: true}
	assert.False(t, strict.Accept(0, 0))
	assert.True(t, strict.Accept(201, 201))
}

func TestFilterRecordsMemoizesAndRespectsOrigin(t *testing.T) {
	prober := &sizeMap{
		sizes: map[string][2]int{
			"https://x/big.png":   {800, 600},
			"https://x/small.png": {64, 64},
		},
		calls: map[string]int{},
	}
	f := New(prober, DefaultPolicy(), "browser", zap.NewNop())

	records := []entity.MetadataRecord{
		{Thumbnail: "https://x/big.png", Title: "big"},
		{Thumbnail: "https://x/small.png", Title: "small"},
		{Thumbnail: "https://x/unknown.png", Title: "unknown"},
		{Thumbnail: "https://x/big.png", Title: "big again"},
		{Thumbnail: "https://x/small.png", Title: "card", Origin: entity.OriginCard},
		{Title: "no thumbnail"},
	}
	got := f.Records(context.Background(), records, entity.OriginScan)

	titles := make([]string, 0, len(got))
	for _, r := range got {
		titles = append(titles, r.Title)
	}
	assert.Equal(t, []string{"big", "unknown", "big again", "card", "no thumbnail"}, titles)
	assert.Equal(t, 1, prober.calls["https://x/big.png"])
	assert.Equal(t, 1, prober.calls["https://x/small.png"])
}

func TestCheckStrict(t *testing.T) {
	prober := &sizeMap{sizes: map[string][2]int{}, calls: map[string]int{}}
	f := New(prober, Policy{Threshold: 200, Strict: true}, "http", zap.NewNop())

	c, ok := f.Check(context.Background(), "https://x/broken.jpg")
	assert.False(t, ok)
	assert.False(t, c.Measured)
	assert.Equal(t, entity.ImageKindRaster, c.Kind)
}

type fakeSizer struct{ timeout time.Duration }

func (f *fakeSizer) MeasureImageNaturalSize(_ context.Context, _ string, timeout time.Duration) (int, int) {
	f.timeout = timeout
	return 300, 300
}

func TestBrowserProberDefaultsTimeout(t *testing.T) {
	s := &fakeSizer{}
	w, h := BrowserProber{Session: s}.Measure(context.Background(), "https://x/a.png")
	assert.Equal(t, 300, w)
	assert.Equal(t, 300, h)
	assert.Equal(t, 5*time.Second, s.timeout)
}

package extractor

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/dashboard-scraper/internal/entity"
	"github.com/user/dashboard-scraper/internal/repository"
)

func mustBase(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func thumbnails(records []entity.MetadataRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Thumbnail)
	}
	return out
}

func TestBestSrcset(t *testing.T) {
	assert.Equal(t, "b.jpg", BestSrcset("a.jpg 320w, b.jpg 800w, c.jpg 640w", ""))
	assert.Equal(t, "fallback.png", BestSrcset("a.jpg 1x, b.jpg 2x", "fallback.png"))
	assert.Equal(t, "", BestSrcset("", ""))
}

func TestUnwrapCDN(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "sanity behind image proxy",
			in:   "https://supermetrics.com/template-gallery/format=avif/https:/cdn.sanity.io/images/abc/def.png?w=100",
			want: "https://cdn.sanity.io/images/abc/def.png",
		},
		{
			name: "sanity with extra slashes",
			in:   "https://x.io/p/http:///cdn.sanity.io/a.jpg",
			want: "http://cdn.sanity.io/a.jpg",
		},
		{
			name: "cloudflare image resizing",
			in:   "https://example.com/cdn-cgi/image/width=800,quality=75/https://assets.example.com/shot.png?v=2",
			want: "https://assets.example.com/shot.png",
		},
		{
			name: "plain url loses query",
			in:   "https://example.com/a.png?w=100&h=50",
			want: "https://example.com/a.png",
		},
		{
			name: "empty",
			in:   "",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UnwrapCDN(tt.in))
		})
	}
}

func TestLookup(t *testing.T) {
	p, err := Lookup("")
	require.NoError(t, err)
	assert.Equal(t, Generic, p.Name)

	p, err = Lookup("AgencyAnalytics")
	require.NoError(t, err)
	assert.Equal(t, 9, p.Pages)
	assert.True(t, p.Paginated())

	p, err = Lookup("bymarketers")
	require.NoError(t, err)
	assert.Equal(t, ProbeHTTP, p.Probe)
	assert.True(t, p.StrictProbe)

	_, err = Lookup("nope")
	assert.ErrorIs(t, err, repository.ErrUnknownSite)

	assert.Contains(t, Names(), "portermetrics")
}

package urlnorm

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/dashboard-scraper/internal/entity"
)

func TestResolve(t *testing.T) {
	base, err := url.Parse("https://gallery.example.com/templates/")
	require.NoError(t, err)

	assert.Equal(t, "https://gallery.example.com/templates/a.png", Resolve(base, "  a.png 2x"))
	assert.Equal(t, "https://cdn.example.com/b.jpg", Resolve(base, "https://cdn.example.com/b.jpg 800w"))
	assert.Equal(t, "https://gallery.example.com/c.webp", Resolve(base, "/c.webp"))
	assert.Empty(t, Resolve(base, "   "))
}

func TestRejectRules(t *testing.T) {
	assert.True(t, IsDataURL(" DATA:image/png;base64,AAAA"))
	assert.False(t, IsDataURL("https://example.com/data:x"))
	assert.True(t, IsVector("https://example.com/logo.SVG?v=2"))
	assert.False(t, IsVector("https://example.com/logo.svg.png"))
}

func TestHasImageExtension(t *testing.T) {
	cases := []struct {
		url  string
		want bool
	}{
		{"https://example.com/a.JPG", true},
		{"https://example.com/a.avif", true},
		{"https://example.com/render?file=chart.webp", true},
		{"https://example.com/render?format=webp", false},
		{"https://example.com/reporting/123/thumbnail", true},
		{"https://example.com/page", false},
		{"https://example.com/a.svg", false},
		{"", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HasImageExtension(tc.url), tc.url)
	}
}

func TestClassify(t *testing.T) {
	assert.Equal(t, entity.ImageKindVector, Classify("https://x/a.svg"))
	assert.Equal(t, entity.ImageKindRaster, Classify("https://x/a.png"))
	assert.Equal(t, entity.ImageKindUnknown, Classify("https://x/a"))
}

func TestStripTracking(t *testing.T) {
	got := StripTracking("https://example.com/t?id=7&utm_source=x&UTM_medium=y&fbclid=1&gclid=2&mc_cid=3&mc_eid=4&page=2")
	assert.Equal(t, "https://example.com/t?id=7&page=2", got)
	assert.Equal(t, "https://example.com/t", StripTracking("https://example.com/t?utm_campaign=z"))
	assert.Equal(t, "https://example.com/t", StripTracking("https://example.com/t"))
}

func TestStripQuery(t *testing.T) {
	assert.Equal(t, "https://x/a.png", StripQuery("https://x/a.png?w=100#frag"))
	assert.Equal(t, "https://x/a.png", StripQuery("https://x/a.png"))
}

func TestDedupePreservesOrder(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, Dedupe([]string{"a", "b", "a", "c"}))
}

func TestCleanAndUnique(t *testing.T) {
	records := []entity.MetadataRecord{
		{Thumbnail: "data:image/gif;base64,R0lGOD", Title: "pixel"},
		{Thumbnail: "https://x/logo.svg", Title: "logo"},
		{Thumbnail: "https://x/page", Title: "no ext"},
		{Thumbnail: "https://x/a.jpg", Title: "a", SourceLink: "https://x/a?utm_source=g"},
		{Thumbnail: "https://x/a.jpg", Title: "a dup"},
		{Thumbnail: "https://x/card.svg", Title: "card", Origin: entity.OriginCard},
		{Thumbnail: "https://x/card-page", Title: "card no ext", Origin: entity.OriginCard},
	}

	got := Unique(Clean(records, Policy{RequireImageExtension: true}))
	require.Len(t, got, 3)
	assert.Equal(t, "https://x/a.jpg", got[0].Thumbnail)
	assert.Equal(t, "https://x/a", got[0].SourceLink)
	assert.Empty(t, got[1].Thumbnail)
	assert.Equal(t, "card", got[1].Title)
	assert.Equal(t, "https://x/card-page", got[2].Thumbnail)

	lenient := Clean(records, Policy{})
	assert.Len(t, lenient, 5)
}

func TestDropNoise(t *testing.T) {
	got := DropNoise([]entity.MetadataRecord{
		{SourceLink: "https://x/only-link"},
		{Title: "titled"},
		{Thumbnail: "https://x/a.png"},
	})
	assert.Len(t, got, 2)
}

package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Marketing Dashboard", "marketing-dashboard"},
		{"  Café Métricas 2024! ", "cafe-metricas-2024"},
		{"GA4 / Search Console", "ga4-search-console"},
		{"", "dashboard-entry"},
		{"???", "dashboard-entry"},
		{"Ünïcödé--and---dashes", "unicode-and-dashes"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Slugify(tc.in), tc.in)
	}
}

func TestDashboardItemNormalize(t *testing.T) {
	item := DashboardItem{Title: "Sales Pipeline Overview"}
	item.Normalize()
	assert.Equal(t, "sales-pipeline-overview", item.Slug)
	assert.NotNil(t, item.Tags)

	item = DashboardItem{Title: "x", Slug: "keep-me"}
	item.Normalize()
	assert.Equal(t, "keep-me", item.Slug)
}

func TestMetadataRecordIdentity(t *testing.T) {
	assert.Equal(t, "t", MetadataRecord{Thumbnail: "t", SourceLink: "s"}.IdentityKey())
	assert.Equal(t, "s", MetadataRecord{SourceLink: "s"}.IdentityKey())
	assert.True(t, MetadataRecord{SourceLink: "s"}.IsNoise())
	assert.False(t, MetadataRecord{Title: "x"}.IsNoise())
}

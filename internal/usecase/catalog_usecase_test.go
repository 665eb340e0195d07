package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/dashboard-scraper/internal/entity"
	"github.com/user/dashboard-scraper/internal/extractor"
)

func titles(entries []entity.CatalogEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Title)
	}
	return out
}

func TestRankCatalog(t *testing.T) {
	entries := []entity.CatalogEntry{
		{Title: "Finance overview"},
		{Title: "Weekly report", Description: "marketing analytics for teams"},
		{Title: "Marketing Analytics Hub"},
		{Title: "Ads", SourceURL: "https://x/marketing-analytics"},
		{Title: "Marketing spend"},
	}
	ranked := RankCatalog(entries, "  Marketing Analytics ")
	assert.Equal(t, []string{
		"Marketing Analytics Hub",
		"Weekly report",
		"Ads",
		"Marketing spend",
		"Finance overview",
	}, titles(ranked))
	assert.Equal(t, 4, ranked[0].Score)
	assert.Equal(t, 3, ranked[1].Score)
	assert.Equal(t, 2, ranked[2].Score)
	assert.Equal(t, 1, ranked[3].Score)

	assert.Equal(t, titles(entries), titles(RankCatalog(entries, "")))
}

func TestRankCatalogCapsResults(t *testing.T) {
	entries := make([]entity.CatalogEntry, 150)
	entries[120].Title = "seo"
	ranked := RankCatalog(entries, "seo")
	assert.Len(t, ranked, 100)
	assert.Equal(t, "seo", ranked[0].Title)
}

type fakeTableau struct {
	records []entity.MetadataRecord
	err     error
	limit   int
}

func (f *fakeTableau) Search(_ context.Context, _ string, numResults, _ int) ([]entity.MetadataRecord, error) {
	f.limit = numResults
	return f.records, f.err
}

func TestCatalogSearchLoadsReports(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"),
		[]byte(`[{"title":"SEO audit","source_link":"https://x/seo"},{"title":"Other"}]`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.json"),
		[]byte(`{"title":"Looker SEO","sourceUrl":"https://y/seo","extra_text":"seo"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(`ignored`), 0o644))

	tableau := &fakeTableau{records: []entity.MetadataRecord{{Title: "Viz", SourceLink: "https://public.tableau.com/viz/1"}}}
	uc := NewCatalogUseCase(dir, tableau, zap.NewNop())

	entries, err := uc.Search(context.Background(), "seo", 0)
	require.NoError(t, err)
	assert.Equal(t, 10, tableau.limit)
	require.Len(t, entries, 4)
	assert.Equal(t, "Looker SEO", entries[0].Title)
	assert.Equal(t, "https://y/seo", entries[0].SourceURL)
	assert.Equal(t, "SEO audit", entries[1].Title)
	assert.Equal(t, "https://x/seo", entries[1].SourceURL)
	assert.Equal(t, []string{"Other", "Viz"}, titles(entries[2:]))
}

func TestCatalogSearchSurvivesTableauFailure(t *testing.T) {
	uc := NewCatalogUseCase(t.TempDir(), &fakeTableau{err: errors.New("chrome missing")}, zap.NewNop())
	entries, err := uc.Search(context.Background(), "seo", 5)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func tableauPage(cards ...string) string {
	html := "<html><body>"
	for _, c := range cards {
		html += c
	}
	return html + "</body></html>"
}

func TestTableauSearchStopsAtResultCount(t *testing.T) {
	card := func(id string) string {
		return `<div data-testid="VizCard"><a href="/app/profile/ann/viz/` + id + `"><img src="/thumb/` + id + `.png"></a>` +
			`<a class="title_x">Viz ` + id + `</a><a class="author_y">Ann</a></div>`
	}
	session := &fakeSession{byURL: map[string]string{
		extractor.TableauSearchURL("sales kpi", 1): tableauPage(card("1"), card("2")),
		extractor.TableauSearchURL("sales kpi", 2): tableauPage(card("3"), card("4")),
	}}
	uc := NewTableauUseCase(&fakeLauncher{session: session}, zap.NewNop())

	records, err := uc.Search(context.Background(), "sales kpi", 3, 5)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Viz 3", records[2].Title)
	assert.Equal(t, "https://public.tableau.com/app/profile/ann/viz/1", records[0].SourceLink)
	assert.Equal(t, "https://public.tableau.com/thumb/1.png", records[0].Thumbnail)
	assert.Equal(t, "Ann", records[0].Author)
	assert.Len(t, session.opened, 2)
	assert.True(t, session.closed)
}

func TestTableauSearchStopsWithoutCards(t *testing.T) {
	empty := extractor.TableauSearchURL("nothing", 1)
	session := &fakeSession{noCards: map[string]bool{empty: true}}
	uc := NewTableauUseCase(&fakeLauncher{session: session}, zap.NewNop()).(*tableauUseCase)
	uc.cardWait = 10 * time.Millisecond

	records, err := uc.Search(context.Background(), "nothing", 10, 5)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, []string{empty}, session.opened)
}

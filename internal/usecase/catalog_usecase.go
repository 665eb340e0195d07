package usecase

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/user/dashboard-scraper/internal/entity"
)

// maxCatalogEntries caps the candidates handed to the generator.
const maxCatalogEntries = 100

// CatalogSearcher ranks previously scraped dashboards for a topic.
type CatalogSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]entity.CatalogEntry, error)
}

type catalogUseCase struct {
	reportsDir string
	tableau    TableauSearcher
	logger     *zap.Logger
}

// NewCatalogUseCase ranks every *.json collection in reportsDir. tableau may
// be nil to skip live Tableau Public results.
func NewCatalogUseCase(reportsDir string, tableau TableauSearcher, logger *zap.Logger) CatalogSearcher {
	return &catalogUseCase{reportsDir: reportsDir, tableau: tableau, logger: logger}
}

// Search loads the catalog, appends live Tableau results when configured
// (limit of them, 10 when limit is zero) and returns the top entries by
// relevance to query.
func (uc *catalogUseCase) Search(ctx context.Context, query string, limit int) ([]entity.CatalogEntry, error) {
	entries := uc.load()

	if uc.tableau != nil {
		n := limit
		if n <= 0 {
			n = 10
		}
		records, err := uc.tableau.Search(ctx, query, n, defaultTableauPages)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			uc.logger.Warn("tableau search failed, continuing without it", zap.Error(err))
		}
		for _, r := range records {
			entries = append(entries, entity.CatalogEntry{
				Title:     r.Title,
				SourceURL: r.SourceLink,
				Thumbnail: r.Thumbnail,
				Author:    r.Author,
			})
		}
	}

	ranked := RankCatalog(entries, query)
	uc.logger.Info("catalog ranked",
		zap.String("query", query),
		zap.Int("entries", len(entries)),
		zap.Int("returned", len(ranked)),
	)
	return ranked, nil
}

// load reads every JSON file in the reports directory. Files hold either a
// single object or an array of them; unreadable files are logged and skipped.
func (uc *catalogUseCase) load() []entity.CatalogEntry {
	files, err := filepath.Glob(filepath.Join(uc.reportsDir, "*.json"))
	if err != nil || len(files) == 0 {
		uc.logger.Debug("no report files found", zap.String("dir", uc.reportsDir))
		return nil
	}
	sort.Strings(files)

	var entries []entity.CatalogEntry
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			uc.logger.Warn("could not read report file", zap.String("path", path), zap.Error(err))
			continue
		}
		parsed, err := decodeCatalog(data)
		if err != nil {
			uc.logger.Warn("could not parse report file", zap.String("path", path), zap.Error(err))
			continue
		}
		entries = append(entries, parsed...)
	}
	return entries
}

func decodeCatalog(data []byte) ([]entity.CatalogEntry, error) {
	var objects []map[string]any
	if err := json.Unmarshal(data, &objects); err != nil {
		var single map[string]any
		if err2 := json.Unmarshal(data, &single); err2 != nil {
			return nil, err
		}
		objects = []map[string]any{single}
	}
	out := make([]entity.CatalogEntry, 0, len(objects))
	for _, o := range objects {
		out = append(out, entity.CatalogEntry{
			Title:       stringField(o, "title"),
			ExtraText:   stringField(o, "extra_text"),
			Description: stringField(o, "description"),
			SourceURL:   stringField(o, "source_url", "source_link", "sourceUrl", "url"),
			Thumbnail:   stringField(o, "thumbnail", "thumbnail_url"),
			Author:      stringField(o, "author"),
		})
	}
	return out, nil
}

func stringField(o map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := o[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// RankCatalog scores entries against query and returns at most 100 of
// them, best first. Ties keep their input order. An empty query scores
// everything zero, which leaves the order unchanged.
func RankCatalog(entries []entity.CatalogEntry, query string) []entity.CatalogEntry {
	q := strings.ToLower(strings.TrimSpace(query))
	ranked := make([]entity.CatalogEntry, len(entries))
	copy(ranked, entries)
	for i := range ranked {
		ranked[i].Score = relevance(ranked[i], q)
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	if len(ranked) > maxCatalogEntries {
		ranked = ranked[:maxCatalogEntries]
	}
	return ranked
}

func relevance(e entity.CatalogEntry, q string) int {
	if q == "" {
		return 0
	}
	title := strings.ToLower(e.Title)
	extra := strings.ToLower(e.ExtraText)
	description := strings.ToLower(e.Description)
	source := strings.ToLower(e.SourceURL)

	score := 0
	if strings.Contains(title, q) {
		score += 2
	}
	if strings.Contains(extra, q) {
		score += 2
	}
	if strings.Contains(description, q) {
		score++
	}
	if strings.Contains(source, q) {
		score += 2
	}

	words := make(map[string]struct{})
	for _, w := range strings.Fields(q) {
		words[w] = struct{}{}
	}
	for _, field := range []string{title, extra, description, source} {
		for w := range words {
			if strings.Contains(field, w) {
				score++
			}
		}
	}
	return score
}

package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/user/dashboard-scraper/internal/entity"
	"github.com/user/dashboard-scraper/internal/repository"
	"github.com/user/dashboard-scraper/pkg/config"
)

type fakeScraper struct {
	added   map[string]int
	errs    map[string]error
	collect map[string][]entity.MetadataRecord
	calls   []ScrapeRequest
}

func (s *fakeScraper) Scrape(_ context.Context, req ScrapeRequest) (*ScrapeResult, error) {
	s.calls = append(s.calls, req)
	if err := s.errs[req.URL]; err != nil {
		return nil, err
	}
	return &ScrapeResult{Site: req.Site, URL: req.URL, Added: make([]entity.MetadataRecord, s.added[req.URL])}, nil
}

func (s *fakeScraper) Collect(_ context.Context, req ScrapeRequest) ([]entity.MetadataRecord, error) {
	s.calls = append(s.calls, req)
	if err := s.errs[req.URL]; err != nil {
		return nil, err
	}
	return s.collect[req.URL], nil
}

func TestBatchContinuesPastFailures(t *testing.T) {
	scraper := &fakeScraper{
		added: map[string]int{"https://a": 3, "https://c": 2},
		errs:  map[string]error{"https://b": fmt.Errorf("%w: timeout", repository.ErrNavigationFailed)},
	}
	visited := &fakeVisited{visited: map[string]bool{"https://d": true}}
	uc := NewBatchUseCase(scraper, visited, 0, time.Hour, zap.NewNop())

	targets := []config.Target{
		{Site: "databox", URL: "https://a"},
		{Site: "databox", URL: "https://b"},
		{Site: "catchr", URL: "https://c", Pages: 2},
		{Site: "catchr", URL: "https://d"},
	}
	summary, err := uc.Run(context.Background(), targets, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrNavigationFailed)
	assert.Len(t, multierr.Errors(err), 1)

	assert.Equal(t, entity.BatchSummary{Targets: 4, Succeeded: 2, Failed: 1, Skipped: 1, NewRecords: 5}, *summary)
	require.Len(t, scraper.calls, 3)
	assert.Equal(t, 2, scraper.calls[2].Pages)
	assert.True(t, visited.visited["https://a"])
	assert.False(t, visited.visited["https://b"])
}

func TestBatchForceClearsVisited(t *testing.T) {
	scraper := &fakeScraper{added: map[string]int{"https://a": 1}}
	visited := &fakeVisited{visited: map[string]bool{"https://a": true}}
	uc := NewBatchUseCase(scraper, visited, 0, time.Hour, zap.NewNop())

	summary, err := uc.Run(context.Background(), []config.Target{{Site: "generic", URL: "https://a"}}, true)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, []string{"https://a"}, visited.removed)
	assert.True(t, visited.visited["https://a"])
}

func TestBatchWithoutVisitedCacheAndDelay(t *testing.T) {
	scraper := &fakeScraper{}
	uc := NewBatchUseCase(scraper, nil, 20*time.Millisecond, 0, zap.NewNop())

	start := time.Now()
	summary, err := uc.Run(context.Background(), []config.Target{
		{URL: "https://a"}, {URL: "https://b"}, {URL: "https://c"},
	}, false)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Succeeded)
	assert.GreaterOrEqual(t, time.Since(start), 35*time.Millisecond)
}

func TestBatchStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	uc := NewBatchUseCase(&fakeScraper{}, nil, time.Second, 0, zap.NewNop())

	summary, err := uc.Run(ctx, []config.Target{{URL: "https://a"}}, false)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, summary.Succeeded)
}

package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/user/dashboard-scraper/internal/entity"
	"github.com/user/dashboard-scraper/internal/pagination"
	"github.com/user/dashboard-scraper/internal/repository"
)

// fakeSession serves canned HTML. pages are shown in order as pager
// buttons are clicked; byURL overrides them for specific URLs.
type fakeSession struct {
	mu      sync.Mutex
	pages   []string
	byURL   map[string]string
	sizes   map[string][2]int
	noCards map[string]bool
	openErr error
	// renderErr fails RenderedHTML while the given page index is shown.
	renderErr map[int]error
	// onRender runs before each RenderedHTML with the shown page index.
	onRender func(page int)

	current string
	page    int
	opened  []string
	probed  []string
	closed  bool
}

func (s *fakeSession) Open(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opened = append(s.opened, url)
	if s.openErr != nil {
		return s.openErr
	}
	s.current = url
	s.page = 0
	return nil
}

func (s *fakeSession) WaitForRender(ctx context.Context, _ time.Duration) error { return ctx.Err() }

func (s *fakeSession) ScrollToBottom(context.Context, time.Duration, int) (int, error) { return 0, nil }

func (s *fakeSession) RenderedHTML(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.onRender != nil {
		s.onRender(s.page)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := s.renderErr[s.page]; err != nil {
		return "", err
	}
	if html, ok := s.byURL[s.current]; ok {
		return html, nil
	}
	if s.page < len(s.pages) {
		return s.pages[s.page], nil
	}
	return "<html></html>", nil
}

func (s *fakeSession) MeasureImageNaturalSize(_ context.Context, url string, _ time.Duration) (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.probed = append(s.probed, url)
	size := s.sizes[url]
	return size[0], size[1]
}

func (s *fakeSession) ClickElement(context.Context, string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page++
	return nil
}

// Evaluate answers the pager search: a button exists while another page
// is left to show.
func (s *fakeSession) Evaluate(_ context.Context, _ string, out any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := out.(*pagination.Control); ok {
		c.Found = s.page+1 < len(s.pages)
	}
	return nil
}

func (s *fakeSession) CountElements(context.Context, string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.noCards[s.current] {
		return 0, nil
	}
	return 1, nil
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

type fakeLauncher struct {
	session  *fakeSession
	err      error
	launches int
}

func (l *fakeLauncher) Launch(context.Context) (repository.BrowserSession, error) {
	l.launches++
	if l.err != nil {
		return nil, l.err
	}
	return l.session, nil
}

// countingStore wraps a RecordStore and counts merges.
type countingStore struct {
	repository.RecordStore
	merges int
}

func (s *countingStore) Merge(ctx context.Context, records []entity.MetadataRecord) ([]entity.MetadataRecord, error) {
	s.merges++
	return s.RecordStore.Merge(ctx, records)
}

type fakeIndex struct {
	site    string
	records []entity.MetadataRecord
}

func (i *fakeIndex) Upsert(_ context.Context, site string, records []entity.MetadataRecord) error {
	i.site = site
	i.records = append(i.records, records...)
	return nil
}

type fakeMirror struct{ paths []string }

func (m *fakeMirror) Mirror(_ context.Context, path string) error {
	m.paths = append(m.paths, path)
	return errors.New("bucket unavailable")
}

type fakeVisited struct {
	visited map[string]bool
	removed []string
}

func (v *fakeVisited) MarkVisited(_ context.Context, url string, _ time.Duration) error {
	v.visited[url] = true
	return nil
}

func (v *fakeVisited) IsVisited(_ context.Context, url string) (bool, error) {
	return v.visited[url], nil
}

func (v *fakeVisited) RemoveVisited(_ context.Context, url string) error {
	v.removed = append(v.removed, url)
	delete(v.visited, url)
	return nil
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/user/dashboard-scraper/internal/entity"
	"github.com/user/dashboard-scraper/internal/extractor"
	"github.com/user/dashboard-scraper/internal/imagefilter"
	"github.com/user/dashboard-scraper/internal/pagination"
	"github.com/user/dashboard-scraper/internal/repository"
	"github.com/user/dashboard-scraper/internal/urlnorm"
	"github.com/user/dashboard-scraper/pkg/metrics"
)

// ErrInvalidTarget is returned for a target URL that is not absolute http(s).
var ErrInvalidTarget = errors.New("invalid target URL")

// debugFileLayout names saved page sources, scrape_page_source_YYYYMMDD_HHMMSS.html.
const debugFileLayout = "20060102_150405"

// ScrapeOptions holds the settings shared by every scrape of a run.
type ScrapeOptions struct {
	Wait          time.Duration
	Scroll        bool
	MinImageSize  int
	ProbeTimeout  time.Duration
	SaveDebugHTML bool
	DebugDir      string
	// FlushEachPage merges every gallery page into the store as soon as it
	// is extracted.
	FlushEachPage bool
	// Pages overrides the site profile's page count when positive.
	Pages int
}

// ScrapeRequest names one gallery page to scrape.
type ScrapeRequest struct {
	Site  string
	URL   string
	Pages int
}

// ScrapeResult reports one scrape.
type ScrapeResult struct {
	Site      string
	URL       string
	Extracted int
	Added     []entity.MetadataRecord
	Duration  time.Duration
}

// Scraper scrapes gallery pages into metadata records.
type Scraper interface {
	// Scrape extracts the target and merges its records into the store.
	Scrape(ctx context.Context, req ScrapeRequest) (*ScrapeResult, error)
	// Collect extracts the target without touching the store.
	Collect(ctx context.Context, req ScrapeRequest) ([]entity.MetadataRecord, error)
}

type scrapeUseCase struct {
	launcher   repository.BrowserLauncher
	store      repository.RecordStore
	httpProber imagefilter.Prober
	index      repository.RecordIndexRepository
	mirror     repository.CollectionMirror
	opts       ScrapeOptions
	logger     *zap.Logger
	now        func() time.Time
}

// ScrapeOption wires optional collaborators into the scrape usecase.
type ScrapeOption func(*scrapeUseCase)

// WithRecordIndex mirrors newly added records into idx.
func WithRecordIndex(idx repository.RecordIndexRepository) ScrapeOption {
	return func(uc *scrapeUseCase) { uc.index = idx }
}

// WithCollectionMirror copies the collection file after each rewrite.
func WithCollectionMirror(m repository.CollectionMirror) ScrapeOption {
	return func(uc *scrapeUseCase) { uc.mirror = m }
}

// NewScrapeUseCase creates a Scraper. httpProber serves site profiles that
// measure images over HTTP and may be nil when none are used.
func NewScrapeUseCase(
	launcher repository.BrowserLauncher,
	store repository.RecordStore,
	httpProber imagefilter.Prober,
	opts ScrapeOptions,
	logger *zap.Logger,
	options ...ScrapeOption,
) Scraper {
	uc := &scrapeUseCase{
		launcher:   launcher,
		store:      store,
		httpProber: httpProber,
		opts:       opts,
		logger:     logger,
		now:        time.Now,
	}
	for _, o := range options {
		o(uc)
	}
	return uc
}

func (uc *scrapeUseCase) Scrape(ctx context.Context, req ScrapeRequest) (*ScrapeResult, error) {
	profile, base, err := resolveTarget(req)
	if err != nil {
		return nil, err
	}
	logger := uc.logger.With(zap.String("site", profile.Name), zap.String("url", base.String()))
	logger.Info("scraping target")

	start := uc.now()
	var flushed []entity.MetadataRecord
	var onPage pagination.PageHook
	if uc.opts.FlushEachPage && uc.pages(profile, req) > 1 {
		onPage = func(ctx context.Context, n int, records []entity.MetadataRecord) {
			added, err := uc.store.Merge(ctx, records)
			if err != nil {
				logger.Warn("page flush failed", zap.Int("page", n), zap.Error(err))
				return
			}
			flushed = append(flushed, added...)
		}
	}

	records, err := uc.collect(ctx, profile, base, uc.pages(profile, req), onPage, logger)
	duration := uc.now().Sub(start)
	metrics.ScrapeDuration.WithLabelValues(profile.Name).Observe(duration.Seconds())
	if err != nil && len(records) == 0 {
		uc.recordFailure(profile.Name, err)
		logger.Error("scrape failed", zap.Error(err))
		return nil, err
	}
	collectErr := err
	metrics.RecordsExtracted.WithLabelValues(profile.Name).Add(float64(len(records)))

	result := &ScrapeResult{
		Site:      profile.Name,
		URL:       base.String(),
		Extracted: len(records),
		Duration:  duration,
	}

	// Partial results of an interrupted run are still persisted.
	writeCtx := ctx
	if collectErr != nil {
		writeCtx = context.WithoutCancel(ctx)
	}
	added, err := uc.store.Merge(writeCtx, records)
	result.Added = append(flushed, added...)
	if len(result.Added) > 0 {
		metrics.RecordsAdded.WithLabelValues(profile.Name).Add(float64(len(result.Added)))
		uc.afterWrite(writeCtx, profile.Name, result.Added, logger)
	}
	if err = multierr.Append(collectErr, err); err != nil {
		uc.recordFailure(profile.Name, err)
		logger.Error("scrape finished with errors",
			zap.Int("extracted", result.Extracted),
			zap.Int("new", len(result.Added)),
			zap.Error(err),
		)
		return result, err
	}

	metrics.ScrapesTotal.WithLabelValues(profile.Name, "success", "").Inc()
	logger.Info("scrape finished",
		zap.Int("extracted", result.Extracted),
		zap.Int("new", len(result.Added)),
		zap.Duration("duration", duration),
	)
	return result, nil
}

func (uc *scrapeUseCase) Collect(ctx context.Context, req ScrapeRequest) ([]entity.MetadataRecord, error) {
	profile, base, err := resolveTarget(req)
	if err != nil {
		return nil, err
	}
	logger := uc.logger.With(zap.String("site", profile.Name), zap.String("url", base.String()))
	return uc.collect(ctx, profile, base, uc.pages(profile, req), nil, logger)
}

func resolveTarget(req ScrapeRequest) (extractor.Profile, *url.URL, error) {
	profile, err := extractor.Lookup(req.Site)
	if err != nil {
		return extractor.Profile{}, nil, err
	}
	base, err := url.Parse(req.URL)
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return extractor.Profile{}, nil, fmt.Errorf("%w: %q", ErrInvalidTarget, req.URL)
	}
	return profile, base, nil
}

func (uc *scrapeUseCase) pages(profile extractor.Profile, req ScrapeRequest) int {
	switch {
	case req.Pages > 0:
		return req.Pages
	case uc.opts.Pages > 0 && profile.Paginated():
		return uc.opts.Pages
	}
	return profile.Pages
}

// collect runs one browser session over the target and returns the
// normalized records of every page. Records gathered before a cancellation
// are returned with the error.
func (uc *scrapeUseCase) collect(
	ctx context.Context,
	profile extractor.Profile,
	base *url.URL,
	pages int,
	onPage pagination.PageHook,
	logger *zap.Logger,
) ([]entity.MetadataRecord, error) {
	session, err := uc.launcher.Launch(ctx)
	if err != nil {
		if !errors.Is(err, repository.ErrBrowserLaunch) {
			err = fmt.Errorf("%w: %v", repository.ErrBrowserLaunch, err)
		}
		return nil, err
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			logger.Warn("closing browser failed", zap.Error(cerr))
		}
	}()

	if err := session.Open(ctx, base.String()); err != nil {
		return nil, err
	}
	logger.Info("waiting for page to render", zap.Duration("wait", uc.opts.Wait))
	if err := session.WaitForRender(ctx, uc.opts.Wait); err != nil {
		return nil, err
	}

	filter := uc.filterFor(profile, session, logger)
	extract := func(ctx context.Context, n int) ([]entity.MetadataRecord, error) {
		html, err := session.RenderedHTML(ctx)
		if err != nil {
			return nil, err
		}
		if n == 1 && uc.opts.SaveDebugHTML {
			uc.saveDebugHTML(html, logger)
		}
		raw, err := profile.Extractor.Extract(html, base)
		if err != nil {
			return nil, err
		}
		return normalize(ctx, profile, filter, raw), nil
	}

	ctrl := pagination.NewController(session, pagination.Config{
		TotalPages:   pages,
		RenderWait:   uc.opts.Wait,
		CardSelector: profile.CardSelector,
		Scroll:       uc.opts.Scroll,
		OnPage:       onPage,
	}, logger, pagination.Site(profile.Name))

	records, err := ctrl.Run(ctx, extract)
	return urlnorm.Unique(records), err
}

// normalize runs the record pipeline: URL rules, dimension filter, the
// thumbnail-or-title rule, then dedup. Noise is dropped first so it never
// shadows a later duplicate that carries a title.
func normalize(ctx context.Context, profile extractor.Profile, filter *imagefilter.Filter, raw []entity.MetadataRecord) []entity.MetadataRecord {
	records := urlnorm.Clean(raw, urlnorm.Policy{RequireImageExtension: profile.RequireImageExtension})
	if filter != nil {
		records = filter.Records(ctx, records, profile.ProbeOrigin)
	}
	return urlnorm.Unique(urlnorm.DropNoise(records))
}

func (uc *scrapeUseCase) filterFor(profile extractor.Profile, session repository.BrowserSession, logger *zap.Logger) *imagefilter.Filter {
	policy := imagefilter.Policy{Threshold: uc.opts.MinImageSize, Strict: profile.StrictProbe}
	switch profile.Probe {
	case extractor.ProbeBrowser:
		prober := imagefilter.BrowserProber{Session: session, Timeout: uc.opts.ProbeTimeout}
		return imagefilter.New(prober, policy, profile.Probe.String(), logger)
	case extractor.ProbeHTTP:
		if uc.httpProber == nil {
			logger.Warn("no HTTP prober configured, image sizes are not checked")
			return nil
		}
		return imagefilter.New(uc.httpProber, policy, profile.Probe.String(), logger)
	}
	return nil
}

func (uc *scrapeUseCase) saveDebugHTML(html string, logger *zap.Logger) {
	dir := uc.opts.DebugDir
	if dir == "" {
		dir = "debug_output"
	}
	path := filepath.Join(dir, "scrape_page_source_"+uc.now().Format(debugFileLayout)+".html")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Warn("could not create debug directory", zap.String("dir", dir), zap.Error(err))
		return
	}
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		logger.Warn("could not save page source", zap.String("path", path), zap.Error(err))
		return
	}
	logger.Info("saved page source", zap.String("path", path))
}

// afterWrite feeds the optional index and mirror. Their failures never fail
// the scrape.
func (uc *scrapeUseCase) afterWrite(ctx context.Context, site string, added []entity.MetadataRecord, logger *zap.Logger) {
	if uc.index != nil {
		if err := uc.index.Upsert(ctx, site, added); err != nil {
			logger.Warn("record index upsert failed", zap.Error(err))
		}
	}
	if uc.mirror != nil {
		if err := uc.mirror.Mirror(ctx, uc.store.Path()); err != nil {
			logger.Warn("collection mirror failed", zap.Error(err))
		}
	}
}

func (uc *scrapeUseCase) recordFailure(site string, err error) {
	metrics.ScrapesTotal.WithLabelValues(site, "failure", errorType(err)).Inc()
}

func errorType(err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	case errors.Is(err, repository.ErrBrowserLaunch):
		return "launch"
	case errors.Is(err, repository.ErrNavigationFailed):
		return "navigation"
	case errors.Is(err, repository.ErrExtractionFailed):
		return "extraction"
	case errors.Is(err, repository.ErrStoreWrite):
		return "store"
	}
	return "unknown"
}

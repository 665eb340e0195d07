// Package pagination walks JavaScript-driven gallery pagers: it clicks the
// numbered button for each page, waits for the cards to re-render and hands
// every page to an extraction callback.
package pagination

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/user/dashboard-scraper/internal/entity"
	"github.com/user/dashboard-scraper/pkg/metrics"
	"github.com/user/dashboard-scraper/pkg/utils"
)

// Page is the subset of a browser session the controller drives.
type Page interface {
	Evaluate(ctx context.Context, script string, out any) error
	ClickElement(ctx context.Context, selector string) error
	CountElements(ctx context.Context, selector string) (int, error)
	WaitForRender(ctx context.Context, d time.Duration) error
	ScrollToBottom(ctx context.Context, pause time.Duration, maxScrolls int) (int, error)
}

// ExtractFunc extracts the records of the page currently shown.
type ExtractFunc func(ctx context.Context, n int) ([]entity.MetadataRecord, error)

// PageHook observes the records of each page as soon as they are extracted.
type PageHook func(ctx context.Context, n int, records []entity.MetadataRecord)

// Config controls one pagination run.
type Config struct {
	TotalPages int
	// RenderWait is slept after each click.
	RenderWait time.Duration
	// CardSelector is polled after a click until it matches; empty skips
	// the poll.
	CardSelector    string
	CardWaitTimeout time.Duration
	PollInterval    time.Duration
	Scroll          bool
	ScrollPause     time.Duration
	MaxScrolls      int
	OnPage          PageHook
}

func (c Config) withDefaults() Config {
	if c.TotalPages < 1 {
		c.TotalPages = 1
	}
	if c.CardWaitTimeout <= 0 {
		c.CardWaitTimeout = 10 * time.Second
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 250 * time.Millisecond
	}
	if c.ScrollPause <= 0 {
		c.ScrollPause = time.Second
	}
	if c.MaxScrolls <= 0 {
		c.MaxScrolls = 3
	}
	return c
}

// Controller pages through a gallery.
type Controller struct {
	page    Page
	cfg     Config
	locator Locator
	site    string
	logger  *zap.Logger
}

// Option customises a Controller.
type Option func(*Controller)

// WithLocator replaces the in-page button search.
func WithLocator(l Locator) Option {
	return func(c *Controller) { c.locator = l }
}

// Site labels logs and metrics.
func Site(name string) Option {
	return func(c *Controller) { c.site = name }
}

// NewController returns a Controller over page.
func NewController(page Page, cfg Config, logger *zap.Logger, opts ...Option) *Controller {
	c := &Controller{
		page:    page,
		cfg:     cfg.withDefaults(),
		locator: ScriptLocator{},
		site:    "unknown",
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.String("site", c.site))
	return c
}

// Run visits pages 1..TotalPages and returns every record extracted. A page
// whose control is missing or disabled is skipped with a warning, and a page
// that fails to extract is logged and skipped. Run fails only when ctx is
// done or no page could be extracted; on cancellation the records gathered
// so far are returned along with the error.
func (c *Controller) Run(ctx context.Context, extract ExtractFunc) ([]entity.MetadataRecord, error) {
	var (
		all       []entity.MetadataRecord
		extracted int
		lastErr   error
	)
	for n := 1; n <= c.cfg.TotalPages; n++ {
		if err := ctx.Err(); err != nil {
			return all, err
		}
		c.logger.Info("processing page", zap.Int("page", n), zap.Int("total", c.cfg.TotalPages))

		if n > 1 {
			ok, err := c.advance(ctx, n)
			if err != nil {
				if ctx.Err() != nil {
					return all, ctx.Err()
				}
				c.logger.Error("pagination failed", zap.Int("page", n), zap.Error(err))
				metrics.PaginationSkips.WithLabelValues(c.site, "error").Inc()
				continue
			}
			if !ok {
				continue
			}
		}

		if c.cfg.Scroll {
			if _, err := c.page.ScrollToBottom(ctx, c.cfg.ScrollPause, c.cfg.MaxScrolls); err != nil {
				c.logger.Warn("scroll failed", zap.Int("page", n), zap.Error(err))
			}
		}

		records, err := extract(ctx, n)
		if err != nil {
			if ctx.Err() != nil {
				return all, ctx.Err()
			}
			c.logger.Error("page extraction failed, skipping", zap.Int("page", n), zap.Error(err))
			metrics.PaginationSkips.WithLabelValues(c.site, "error").Inc()
			lastErr = err
			continue
		}
		extracted++
		all = append(all, records...)
		c.logger.Info("extracted page",
			zap.Int("page", n),
			zap.Int("records", len(records)),
			zap.Int("total_records", len(all)),
		)
		if c.cfg.OnPage != nil {
			c.cfg.OnPage(ctx, n, records)
		}
	}
	if extracted == 0 && lastErr != nil {
		return all, lastErr
	}
	return all, nil
}

// advance switches the gallery to page n. It reports false when the page
// must be skipped.
func (c *Controller) advance(ctx context.Context, n int) (bool, error) {
	control, err := c.locator.Locate(ctx, c.page, n)
	if err != nil {
		return false, err
	}
	switch {
	case !control.Found:
		c.logger.Warn("could not find pagination button, skipping", zap.Int("page", n))
		metrics.PaginationSkips.WithLabelValues(c.site, "not_found").Inc()
		return false, nil
	case control.Disabled:
		c.logger.Warn("pagination button is disabled, skipping", zap.Int("page", n))
		metrics.PaginationSkips.WithLabelValues(c.site, "disabled").Inc()
		return false, nil
	}

	if err := c.page.ClickElement(ctx, control.Selector); err != nil {
		return false, err
	}
	c.logger.Info("clicked pagination button", zap.Int("page", n))

	if err := c.page.WaitForRender(ctx, c.cfg.RenderWait); err != nil {
		return false, err
	}
	c.waitForCards(ctx, n)
	return true, nil
}

// waitForCards polls for rendered cards. A timeout is not an error: the
// page is extracted as it is.
func (c *Controller) waitForCards(ctx context.Context, n int) {
	if c.cfg.CardSelector == "" {
		return
	}
	err := WaitForCards(ctx, c.page, c.cfg.CardSelector, c.cfg.CardWaitTimeout, c.cfg.PollInterval)
	if errors.Is(err, ErrNoCards) {
		c.logger.Debug("cards did not render before timeout", zap.Int("page", n))
	}
}

// ErrNoCards is returned by WaitForCards when nothing rendered in time.
var ErrNoCards = errors.New("no cards rendered")

// WaitForCards polls page until selector matches at least one element.
func WaitForCards(ctx context.Context, page Page, selector string, timeout, interval time.Duration) error {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	deadline := time.Now().Add(timeout)
	for {
		count, err := page.CountElements(ctx, selector)
		if err == nil && count > 0 {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrNoCards
		}
		if err := utils.Sleep(ctx, interval); err != nil {
			return err
		}
	}
}

package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/user/dashboard-scraper/internal/entity"
	"github.com/user/dashboard-scraper/internal/repository"
	"github.com/user/dashboard-scraper/pkg/config"
)

// BatchRunner scrapes a list of gallery targets one after another.
type BatchRunner interface {
	Run(ctx context.Context, targets []config.Target, force bool) (*entity.BatchSummary, error)
}

type batchUseCase struct {
	scraper    Scraper
	visited    repository.VisitedRepository
	delay      time.Duration
	visitedTTL time.Duration
	logger     *zap.Logger
}

// NewBatchUseCase creates a BatchRunner. visited may be nil, in which case
// every target is scraped.
func NewBatchUseCase(
	scraper Scraper,
	visited repository.VisitedRepository,
	delay time.Duration,
	visitedTTL time.Duration,
	logger *zap.Logger,
) BatchRunner {
	return &batchUseCase{
		scraper:    scraper,
		visited:    visited,
		delay:      delay,
		visitedTTL: visitedTTL,
		logger:     logger,
	}
}

// Run scrapes targets sequentially with a politeness delay between them. A
// failed target is logged and skipped; the returned error aggregates every
// failure. Targets scraped within the visited TTL are skipped unless force
// is set.
func (uc *batchUseCase) Run(ctx context.Context, targets []config.Target, force bool) (*entity.BatchSummary, error) {
	summary := &entity.BatchSummary{Targets: len(targets)}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if uc.delay > 0 {
		limiter = rate.NewLimiter(rate.Every(uc.delay), 1)
	}

	var errs error
	for i, t := range targets {
		logger := uc.logger.With(
			zap.String("site", t.Site),
			zap.String("url", t.URL),
			zap.Int("target", i+1),
			zap.Int("targets", len(targets)),
		)

		if uc.skip(ctx, t, force, logger) {
			summary.Skipped++
			continue
		}

		if err := limiter.Wait(ctx); err != nil {
			return summary, multierr.Append(errs, err)
		}

		result, err := uc.scraper.Scrape(ctx, ScrapeRequest{Site: t.Site, URL: t.URL, Pages: t.Pages})
		if result != nil {
			summary.NewRecords += len(result.Added)
		}
		if err != nil {
			if ctx.Err() != nil {
				return summary, multierr.Append(errs, ctx.Err())
			}
			summary.Failed++
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", t.URL, err))
			logger.Error("target failed, continuing", zap.Error(err))
			continue
		}

		summary.Succeeded++
		logger.Info("target done", zap.Int("new", len(result.Added)))
		uc.markVisited(ctx, t, logger)
	}

	uc.logger.Info("batch finished",
		zap.Int("targets", summary.Targets),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
		zap.Int("new_records", summary.NewRecords),
	)
	return summary, errs
}

func (uc *batchUseCase) skip(ctx context.Context, t config.Target, force bool, logger *zap.Logger) bool {
	if uc.visited == nil {
		return false
	}
	if force {
		if err := uc.visited.RemoveVisited(ctx, t.URL); err != nil {
			logger.Warn("failed to clear visited mark", zap.Error(err))
		}
		return false
	}
	visited, err := uc.visited.IsVisited(ctx, t.URL)
	if err != nil {
		logger.Warn("visited lookup failed, scraping anyway", zap.Error(err))
		return false
	}
	if visited {
		logger.Info("target scraped recently, skipping")
	}
	return visited
}

func (uc *batchUseCase) markVisited(ctx context.Context, t config.Target, logger *zap.Logger) {
	if uc.visited == nil {
		return
	}
	if err := uc.visited.MarkVisited(ctx, t.URL, uc.visitedTTL); err != nil {
		logger.Warn("failed to mark target visited", zap.Error(err))
	}
}

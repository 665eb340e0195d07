// Package app builds the adapters and use cases shared by the scraper CLI
// and the webhook server from a loaded configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/user/dashboard-scraper/internal/adapter/chromedp_browser"
	"github.com/user/dashboard-scraper/internal/adapter/httpprobe"
	"github.com/user/dashboard-scraper/internal/adapter/jsonstore"
	"github.com/user/dashboard-scraper/internal/adapter/openai"
	"github.com/user/dashboard-scraper/internal/adapter/postgres"
	redis_adapter "github.com/user/dashboard-scraper/internal/adapter/redis"
	"github.com/user/dashboard-scraper/internal/adapter/s3mirror"
	"github.com/user/dashboard-scraper/internal/adapter/webflow"
	"github.com/user/dashboard-scraper/internal/repository"
	"github.com/user/dashboard-scraper/internal/usecase"
	"github.com/user/dashboard-scraper/pkg/config"
)

// ErrNotConfigured is returned when a use case needs credentials that are
// missing from the configuration.
var ErrNotConfigured = errors.New("not configured")

const (
	imageHostInterval = 200 * time.Millisecond
	imageTimeout      = 30 * time.Second
	connectTimeout    = 10 * time.Second
)

// App owns the adapters of one process. Close releases them.
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Launcher *chromedp_browser.Launcher
	Store    *jsonstore.Store
	Images   *httpprobe.Client
	// Visited is nil when REDIS_ADDR is empty or Redis is unreachable.
	Visited repository.VisitedRepository

	scrapeOptions []usecase.ScrapeOption
	closers       []func() error
}

// New wires the adapters. Redis, PostgreSQL and S3 are optional: an empty
// setting disables them and a connection failure is logged and disables
// them too.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) *App {
	opts := chromedp_browser.DefaultOptions()
	opts.Headless = cfg.Headless
	opts.UserAgent = cfg.UserAgent
	opts.WindowWidth = cfg.WindowWidth
	opts.WindowHeight = cfg.WindowHeight
	opts.PageLoadTimeout = cfg.PageLoad()

	a := &App{
		Config:   cfg,
		Logger:   logger,
		Launcher: chromedp_browser.NewLauncher(opts, logger.Named("browser")),
		Store:    jsonstore.New(cfg.OutputDir, logger.Named("store")),
		Images: httpprobe.New(httpprobe.Config{
			UserAgent:    cfg.UserAgent,
			Timeout:      imageTimeout,
			HostInterval: imageHostInterval,
		}, logger.Named("images")),
	}
	a.connectOptional(ctx)
	return a
}

func (a *App) connectOptional(ctx context.Context) {
	cfg := a.Config
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if cfg.RedisAddr != "" {
		rdb, err := redis_adapter.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			a.Logger.Warn("redis unavailable, visited cache disabled", zap.Error(err))
		} else {
			a.Visited = redis_adapter.NewVisitedRepo(rdb)
			a.closers = append(a.closers, rdb.Close)
			a.Logger.Info("redis connection established", zap.String("addr", cfg.RedisAddr))
		}
	}

	if cfg.PostgresURL != "" {
		pool, err := postgres.NewPool(ctx, cfg.PostgresURL)
		if err != nil {
			a.Logger.Warn("postgres unavailable, record index disabled", zap.Error(err))
		} else {
			idx := postgres.NewRecordIndexRepo(pool)
			if err := idx.EnsureSchema(ctx); err != nil {
				a.Logger.Warn("could not create record index table", zap.Error(err))
			}
			a.scrapeOptions = append(a.scrapeOptions, usecase.WithRecordIndex(idx))
			a.closers = append(a.closers, func() error { pool.Close(); return nil })
			a.Logger.Info("postgres connection pool established")
		}
	}

	if cfg.S3Bucket != "" {
		m, err := s3mirror.New(ctx, cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, cfg.S3Region, cfg.S3Bucket, cfg.S3Prefix, a.Logger.Named("s3"))
		if err != nil {
			a.Logger.Warn("s3 unavailable, collection mirror disabled", zap.Error(err))
		} else {
			a.scrapeOptions = append(a.scrapeOptions, usecase.WithCollectionMirror(m))
			a.Logger.Info("collection mirror enabled", zap.String("bucket", cfg.S3Bucket))
		}
	}
}

// ScrapeOptions derives the per-run scrape settings from the configuration.
func (a *App) ScrapeOptions() usecase.ScrapeOptions {
	cfg := a.Config
	return usecase.ScrapeOptions{
		Wait:          cfg.WaitTime(),
		Scroll:        cfg.Scroll,
		MinImageSize:  cfg.MinImageSize,
		ProbeTimeout:  cfg.ProbeTimeout(),
		SaveDebugHTML: cfg.SaveDebugHTML,
		DebugDir:      cfg.DebugDir,
		FlushEachPage: cfg.FlushEachPage,
		Pages:         cfg.TotalPages,
	}
}

func (a *App) Scraper() usecase.Scraper {
	return usecase.NewScrapeUseCase(a.Launcher, a.Store, a.Images, a.ScrapeOptions(), a.Logger.Named("scrape"), a.scrapeOptions...)
}

func (a *App) Batch() usecase.BatchRunner {
	return usecase.NewBatchUseCase(a.Scraper(), a.Visited, a.Config.BatchDelay(), a.Config.VisitedTTL(), a.Logger.Named("batch"))
}

func (a *App) Tableau() usecase.TableauSearcher {
	return usecase.NewTableauUseCase(a.Launcher, a.Logger.Named("tableau"))
}

// Catalog ranks saved collections. Tableau search joins in only when
// withTableau is set, since it starts a browser.
func (a *App) Catalog(withTableau bool) usecase.CatalogSearcher {
	var tableau usecase.TableauSearcher
	if withTableau {
		tableau = a.Tableau()
	}
	return usecase.NewCatalogUseCase(a.Config.ReportsDir, tableau, a.Logger.Named("catalog"))
}

func (a *App) openAI() (*openai.Client, error) {
	if a.Config.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY: %w", ErrNotConfigured)
	}
	return openai.New(openai.Config{
		APIKey:  a.Config.OpenAIAPIKey,
		BaseURL: a.Config.OpenAIBaseURL,
		Model:   a.Config.OpenAIModel,
	}, a.Logger.Named("openai")), nil
}

func (a *App) webflow() (*webflow.Client, error) {
	if a.Config.WebflowToken == "" {
		return nil, fmt.Errorf("WEBFLOW_TOKEN: %w", ErrNotConfigured)
	}
	return webflow.New(a.Config.WebflowToken, a.Config.WebflowBaseURL, a.Logger.Named("webflow")), nil
}

func (a *App) Drafter() (usecase.Drafter, error) {
	client, err := a.openAI()
	if err != nil {
		return nil, err
	}
	return usecase.NewGenerateUseCase(a.Catalog(false), openai.NewGenerator(client), a.Logger.Named("generate")), nil
}

// Publisher maps items with the default field map. tagMap resolves tag
// names to reference IDs and may be nil.
func (a *App) Publisher(tagMap map[string]string) (usecase.ItemPublisher, error) {
	client, err := a.webflow()
	if err != nil {
		return nil, err
	}
	mapper := &webflow.FieldMapper{TagMap: tagMap, Logger: a.Logger.Named("fields")}
	return usecase.NewPublishUseCase(webflow.NewPublisher(client), mapper, a.Logger.Named("publish")), nil
}

// Webhook wires the full draft, image and publish pipeline.
func (a *App) Webhook() (usecase.WebhookProcessor, error) {
	ai, err := a.openAI()
	if err != nil {
		return nil, err
	}
	wf, err := a.webflow()
	if err != nil {
		return nil, err
	}
	drafter := usecase.NewGenerateUseCase(a.Catalog(false), openai.NewGenerator(ai), a.Logger.Named("generate"))
	selector := usecase.NewImageSelectUseCase(a.Images, openai.NewScorer(ai), a.Config.ScoreThreshold, a.Logger.Named("select"))
	return usecase.NewWebhookUseCase(
		drafter,
		a.Scraper(),
		selector,
		webflow.NewAssetUploader(wf, ""),
		webflow.NewPublisher(wf),
		a.Config.ContentDir,
		a.Logger.Named("webhook"),
	), nil
}

// Close releases the optional backends.
func (a *App) Close() error {
	var errs error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = multierr.Append(errs, a.closers[i]())
	}
	return errs
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/user/dashboard-scraper/internal/app"
	"github.com/user/dashboard-scraper/internal/entity"
	"github.com/user/dashboard-scraper/internal/usecase"
	"github.com/user/dashboard-scraper/pkg/config"
)

type runFunc func(ctx context.Context, a *app.App, args []string, stdout io.Writer) error

// command registers its flags and returns the function that runs it.
// Best-effort commands exit zero unless the browser cannot start or the
// invocation is invalid.
type command struct {
	setup      func(f *pflag.FlagSet) runFunc
	bestEffort bool
}

var commands = map[string]command{
	"scrape":   {setup: scrapeCmd, bestEffort: true},
	"batch":    {setup: batchCmd, bestEffort: true},
	"cleanup":  {setup: cleanupCmd, bestEffort: true},
	"looker":   {setup: lookerCmd, bestEffort: true},
	"tableau":  {setup: tableauCmd, bestEffort: true},
	"generate": {setup: generateCmd},
	"publish":  {setup: publishCmd},
}

func scrapeCmd(f *pflag.FlagSet) runFunc {
	site := f.String("site", "generic", "site profile (see the sites command)")
	target := f.String("url", "", "gallery page URL; may also be given as an argument")
	return func(ctx context.Context, a *app.App, args []string, stdout io.Writer) error {
		if *target == "" && len(args) > 0 {
			*target = args[0]
		}
		if *target == "" {
			return usagef("scrape: --url is required")
		}
		res, err := a.Scraper().Scrape(ctx, usecase.ScrapeRequest{Site: *site, URL: *target})
		if res == nil {
			fmt.Fprintln(stdout, "0 new records")
			return err
		}
		fmt.Fprintf(stdout, "%d new records (%d extracted) saved to %s\n", len(res.Added), res.Extracted, a.Store.Path())
		return err
	}
}

func batchCmd(f *pflag.FlagSet) runFunc {
	targetsFile := f.String("targets", "", "YAML file listing the targets")
	site := f.String("site", "", "scrape the built-in galleries of this site")
	f.Int("delay", 2, "seconds between targets")
	force := f.Bool("force", false, "scrape targets visited recently")
	return func(ctx context.Context, a *app.App, _ []string, stdout io.Writer) error {
		if *targetsFile == "" {
			*targetsFile = a.Config.TargetsFile
		}
		targets, err := config.LoadTargets(*targetsFile)
		if err != nil {
			return usagef("batch: %v", err)
		}
		if len(targets) == 0 && *site != "" {
			targets = config.BuiltinTargets(*site)
		}
		if len(targets) == 0 {
			return usagef("batch: no targets; pass --targets or a --site with built-in galleries")
		}

		summary, err := a.Batch().Run(ctx, targets, *force)
		if summary != nil {
			fmt.Fprintf(stdout, "%d new records from %d targets (%d failed, %d skipped)\n",
				summary.NewRecords, summary.Succeeded, summary.Failed, summary.Skipped)
		}
		return err
	}
}

func cleanupCmd(*pflag.FlagSet) runFunc {
	return func(ctx context.Context, a *app.App, _ []string, stdout io.Writer) error {
		report, err := usecase.NewCleanupUseCase(a.Store, a.Logger.Named("cleanup")).Clean(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "removed %d records, %d remaining in %s\n", report.Removed, report.Remaining, report.Path)
		return nil
	}
}

func lookerCmd(f *pflag.FlagSet) runFunc {
	source := f.String("source", "", "bundle URL or local file (default: the public gallery bundle)")
	return func(ctx context.Context, a *app.App, _ []string, stdout io.Writer) error {
		res, err := usecase.NewLookerUseCase(a.Images, a.Store, a.Logger.Named("looker")).Import(ctx, *source)
		if err != nil {
			fmt.Fprintln(stdout, "0 new records")
			return err
		}
		fmt.Fprintf(stdout, "%d new records from %d reports\n", len(res.Added), res.Reports)
		return nil
	}
}

func tableauCmd(f *pflag.FlagSet) runFunc {
	query := f.String("query", "", "search query")
	results := f.Int("results", 10, "number of vizzes to return")
	maxPages := f.Int("max-pages", 5, "result pages to visit")
	return func(ctx context.Context, a *app.App, args []string, stdout io.Writer) error {
		if *query == "" {
			*query = strings.Join(args, " ")
		}
		if strings.TrimSpace(*query) == "" {
			return usagef("tableau: --query is required")
		}
		records, err := a.Tableau().Search(ctx, *query, *results, *maxPages)
		if len(records) > 0 || err == nil {
			if records == nil {
				records = []entity.MetadataRecord{}
			}
			if perr := printJSON(stdout, records); perr != nil {
				return perr
			}
		}
		return err
	}
}

func generateCmd(f *pflag.FlagSet) runFunc {
	topic := f.String("topic", "", "topic to draft items for")
	count := f.Int("count", 5, fmt.Sprintf("items to draft (at most %d)", usecase.MaxItemsPerRequest))
	out := f.String("out", "", "output file (default: <content dir>/<timestamp>_<topic>/generated.json)")
	return func(ctx context.Context, a *app.App, args []string, stdout io.Writer) error {
		if *topic == "" {
			*topic = strings.Join(args, " ")
		}
		if strings.TrimSpace(*topic) == "" {
			return usagef("generate: --topic is required")
		}
		drafter, err := a.Drafter()
		if err != nil {
			return err
		}
		items, err := drafter.Draft(ctx, *topic, *count)
		if err != nil {
			return err
		}
		path := *out
		if path == "" {
			dir := time.Now().Format("20060102_15-04-05") + "_" + entity.Slugify(*topic)
			path = filepath.Join(a.Config.ContentDir, dir, "generated.json")
		}
		if err := usecase.SaveItems(path, items); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%d items saved to %s\n", len(items), path)
		return nil
	}
}

func publishCmd(f *pflag.FlagSet) runFunc {
	in := f.String("in", "", "JSON file of drafted items")
	collection := f.String("collection", "", "CMS collection ID (default WEBFLOW_COLLECTION_ID)")
	siteID := f.String("site-id", "", "CMS site ID to publish (default WEBFLOW_SITE_ID)")
	live := f.Bool("live", false, "create items live and publish them")
	limit := f.Int("limit", 0, "create at most this many items")
	tagMapFile := f.String("tag-map", "", "JSON object mapping tag names to reference item IDs")
	return func(ctx context.Context, a *app.App, _ []string, stdout io.Writer) error {
		if *in == "" {
			return usagef("publish: --in is required")
		}
		if *collection == "" {
			*collection = a.Config.WebflowCollectionID
		}
		if *collection == "" {
			return usagef("publish: --collection or WEBFLOW_COLLECTION_ID is required")
		}
		if *siteID == "" {
			*siteID = a.Config.WebflowSiteID
		}
		tagMap, err := loadTagMap(*tagMapFile)
		if err != nil {
			return usagef("publish: %v", err)
		}
		items, err := usecase.LoadItems(*in)
		if err != nil {
			return usagef("publish: %v", err)
		}

		publisher, err := a.Publisher(tagMap)
		if err != nil {
			return err
		}
		summary, err := publisher.PublishAll(ctx, items, usecase.PublishOptions{
			CollectionID: *collection,
			SiteID:       *siteID,
			Live:         *live,
			Limit:        *limit,
		})
		if summary != nil {
			a.Logger.Info("publish summary",
				zap.String("run_id", summary.RunID),
				zap.Int("created", summary.Created),
				zap.Int("skipped", summary.Skipped),
				zap.Int("failed", summary.Failed),
			)
			fmt.Fprintf(stdout, "%d created, %d skipped, %d failed\n", summary.Created, summary.Skipped, summary.Failed)
		}
		return err
	}
}

func loadTagMap(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tag map: %w", err)
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse tag map %s: %w", path, err)
	}
	return m, nil
}

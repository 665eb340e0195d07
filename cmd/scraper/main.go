package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/user/dashboard-scraper/internal/app"
	"github.com/user/dashboard-scraper/internal/extractor"
	"github.com/user/dashboard-scraper/internal/repository"
	"github.com/user/dashboard-scraper/internal/usecase"
	"github.com/user/dashboard-scraper/pkg/config"
	"github.com/user/dashboard-scraper/pkg/logger"
)

const usage = `usage: scraper <command> [flags]

commands:
  scrape    scrape one gallery page (--site, --url)
  batch     scrape a target list or a site's built-in galleries
  cleanup   drop self-referencing and empty records from the collection
  looker    import the Looker Studio report gallery
  tableau   search Tableau Public and print the vizzes as JSON
  generate  draft dashboard items for a topic
  publish   create drafted items in the CMS collection
  sites     list the known site profiles
`

// usageError marks a bad invocation, which exits non-zero.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		fmt.Fprint(stderr, usage)
		return boolToExit(len(args) == 0)
	}
	name, args := args[0], args[1:]
	if name == "sites" {
		fmt.Fprintln(stdout, strings.Join(extractor.Names(), "\n"))
		return 0
	}

	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", name, usage)
		return 1
	}

	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flags.SetOutput(stderr)
	commonFlags(flags)
	runCmd := cmd.setup(flags)
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 1
	}

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintln(stderr, "config:", err)
		return 1
	}
	log := logger.Must(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = log.Sync() }()

	a := app.New(ctx, cfg, log)
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("closing backends failed", zap.Error(err))
		}
	}()

	err = runCmd(ctx, a, flags.Args(), stdout)
	if err == nil {
		return 0
	}
	if !cmd.bestEffort || fatal(err) {
		log.Error("command failed", zap.String("command", name), zap.Error(err))
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	log.Warn("command finished with errors", zap.String("command", name), zap.Error(err))
	return 0
}

// fatal reports the errors that exit non-zero. Everything else is best
// effort: logged, with whatever was scraped kept.
func fatal(err error) bool {
	var ue usageError
	return errors.As(err, &ue) ||
		errors.Is(err, repository.ErrBrowserLaunch) ||
		errors.Is(err, repository.ErrUnknownSite) ||
		errors.Is(err, usecase.ErrInvalidTarget) ||
		errors.Is(err, app.ErrNotConfigured)
}

func boolToExit(failed bool) int {
	if failed {
		return 1
	}
	return 0
}

// commonFlags are the flags every command accepts; they override the
// matching configuration keys when set.
func commonFlags(f *pflag.FlagSet) {
	f.String("output-dir", "images", "directory of the metadata collection")
	f.Int("wait-time", 10, "seconds to wait for the page to render")
	f.Bool("scroll", true, "scroll to the bottom to trigger lazy loading")
	f.Bool("headless", true, "run Chrome headless")
	f.String("log-level", "info", "log level (debug, info, warn, error)")
	f.Bool("save-html", false, "save the rendered page source for debugging")
	f.Int("min-size", 200, "minimum image width and height in pixels")
	f.Int("pages", 0, "gallery pages to visit for paginated sites")
	f.Bool("flush-each-page", false, "merge records after every gallery page")
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

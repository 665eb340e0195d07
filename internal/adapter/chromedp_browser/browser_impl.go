package chromedp_browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/user/dashboard-scraper/internal/repository"
	"github.com/user/dashboard-scraper/pkg/utils"
)

// Launcher starts one Chrome process per session.
type Launcher struct {
	opts   Options
	logger *zap.Logger
}

// NewLauncher creates a browser launcher.
func NewLauncher(opts Options, logger *zap.Logger) *Launcher {
	return &Launcher{opts: opts.withDefaults(), logger: logger}
}

// Launch starts Chrome and opens a tab. The returned session owns the
// process; callers must Close it.
func (l *Launcher) Launch(ctx context.Context) (repository.BrowserSession, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, BuildAllocatorOptions(l.opts)...)
	taskCtx, cancelTask := chromedp.NewContext(allocCtx, chromedp.WithLogf(l.logger.Sugar().Debugf))

	// An empty Run starts the browser so launch failures surface here.
	if err := chromedp.Run(taskCtx); err != nil {
		cancelTask()
		cancelAlloc()
		return nil, fmt.Errorf("%w: %v", repository.ErrBrowserLaunch, err)
	}

	l.logger.Debug("browser launched", zap.Bool("headless", l.opts.Headless))
	return &Session{
		ctx:         taskCtx,
		cancelTask:  cancelTask,
		cancelAlloc: cancelAlloc,
		opts:        l.opts,
		logger:      l.logger,
	}, nil
}

// Session is a single Chrome tab.
type Session struct {
	ctx         context.Context
	cancelTask  context.CancelFunc
	cancelAlloc context.CancelFunc
	opts        Options
	logger      *zap.Logger
	closeOnce   sync.Once
}

// run executes actions on the tab, bounded by timeout and by the caller's ctx.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (s *Session) Open(ctx context.Context, url string) error {
	s.logger.Info("navigating", zap.String("url", url))
	if err := s.run(ctx, s.opts.PageLoadTimeout, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("%w: %s: %v", repository.ErrNavigationFailed, url, err)
	}
	return nil
}

func (s *Session) WaitForRender(ctx context.Context, d time.Duration) error {
	s.logger.Debug("waiting for render", zap.Duration("wait", d))
	return utils.Sleep(ctx, d)
}

func (s *Session) ScrollToBottom(ctx context.Context, pause time.Duration, maxScrolls int) (int, error) {
	var last int
	if err := s.Evaluate(ctx, scrollHeightScript, &last); err != nil {
		return 0, err
	}

	scrolls := 0
	for scrolls < maxScrolls {
		if err := s.Evaluate(ctx, scrollToBottomScript, nil); err != nil {
			return scrolls, err
		}
		scrolls++
		if err := utils.Sleep(ctx, pause); err != nil {
			return scrolls, err
		}

		var height int
		if err := s.Evaluate(ctx, scrollHeightScript, &height); err != nil {
			return scrolls, err
		}
		if height == last {
			break
		}
		last = height
	}
	s.logger.Debug("scrolled to bottom", zap.Int("scrolls", scrolls), zap.Int("height", last))
	return scrolls, nil
}

func (s *Session) RenderedHTML(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, s.opts.ActionTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read rendered html: %w", err)
	}
	return html, nil
}

func (s *Session) MeasureImageNaturalSize(ctx context.Context, url string, timeout time.Duration) (int, int) {
	var dims struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	awaitPromise := func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithAwaitPromise(true)
	}
	// The script resolves on its own timer; the extra margin covers CDP latency.
	err := s.run(ctx, timeout+2*time.Second, chromedp.Evaluate(naturalSizeScript(url, timeout), &dims, awaitPromise))
	if err != nil {
		s.logger.Debug("image size probe failed", zap.String("url", url), zap.Error(err))
		return 0, 0
	}
	return dims.Width, dims.Height
}

// ErrElementNotFound is returned by ClickElement when nothing matches.
var ErrElementNotFound = errors.New("element not found")

func (s *Session) ClickElement(ctx context.Context, selector string) error {
	var clicked bool
	if err := s.Evaluate(ctx, clickScript(selector), &clicked); err != nil {
		return err
	}
	if !clicked {
		return fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}
	return nil
}

func (s *Session) Evaluate(ctx context.Context, script string, out any) error {
	if err := s.run(ctx, s.opts.ActionTimeout, chromedp.Evaluate(script, out)); err != nil {
		return fmt.Errorf("evaluate script: %w", err)
	}
	return nil
}

func (s *Session) CountElements(ctx context.Context, selector string) (int, error) {
	var n int
	if err := s.Evaluate(ctx, countScript(selector), &n); err != nil {
		return 0, err
	}
	return n, nil
}

// Close shuts the browser down. It is safe to call more than once.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = chromedp.Cancel(s.ctx)
		s.cancelTask()
		s.cancelAlloc()
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		s.logger.Debug("browser closed")
	})
	return err
}

package chromedp_browser

import (
	"time"

	"github.com/chromedp/chromedp"
)

// DefaultUserAgent is sent when no override is configured.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const (
	DefaultWindowWidth  = 1920
	DefaultWindowHeight = 1080
)

// Options configures the Chrome process and per-call timeouts.
type Options struct {
	Headless     bool
	UserAgent    string
	WindowWidth  int
	WindowHeight int
	// ExtraFlags are passed through to Chrome, e.g. {"proxy-server": "..."}.
	ExtraFlags map[string]any
	// PageLoadTimeout bounds navigation.
	PageLoadTimeout time.Duration
	// ActionTimeout bounds every other browser call.
	ActionTimeout time.Duration
}

// DefaultOptions returns headless options with a desktop viewport.
func DefaultOptions() Options {
	return Options{
		Headless:        true,
		UserAgent:       DefaultUserAgent,
		WindowWidth:     DefaultWindowWidth,
		WindowHeight:    DefaultWindowHeight,
		PageLoadTimeout: 60 * time.Second,
		ActionTimeout:   30 * time.Second,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.UserAgent == "" {
		o.UserAgent = d.UserAgent
	}
	if o.WindowWidth <= 0 || o.WindowHeight <= 0 {
		o.WindowWidth, o.WindowHeight = d.WindowWidth, d.WindowHeight
	}
	if o.PageLoadTimeout <= 0 {
		o.PageLoadTimeout = d.PageLoadTimeout
	}
	if o.ActionTimeout <= 0 {
		o.ActionTimeout = d.ActionTimeout
	}
	return o
}

// BuildAllocatorOptions turns Options into Chrome exec allocator options.
func BuildAllocatorOptions(o Options) []chromedp.ExecAllocatorOption {
	o = o.withDefaults()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(o.WindowWidth, o.WindowHeight),
		chromedp.UserAgent(o.UserAgent),
	)

	if o.Headless {
		opts = append(opts, chromedp.Flag("headless", "new"))
	} else {
		// A false bool drops the flag set by the defaults.
		opts = append(opts, chromedp.Flag("headless", false))
	}

	for name, value := range o.ExtraFlags {
		opts = append(opts, chromedp.Flag(name, value))
	}
	return opts
}

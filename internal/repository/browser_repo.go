package repository

import (
	"context"
	"time"
)

// BrowserSession drives one headless browser tab. Implementations must
// terminate the browser process on Close.
type BrowserSession interface {
	// Open navigates to url. Failures wrap ErrNavigationFailed.
	Open(ctx context.Context, url string) error
	// WaitForRender sleeps for d to let client-side rendering settle.
	WaitForRender(ctx context.Context, d time.Duration) error
	// ScrollToBottom scrolls until the page height stops growing or
	// maxScrolls is reached, returning the number of scrolls made.
	ScrollToBottom(ctx context.Context, pause time.Duration, maxScrolls int) (int, error)
	// RenderedHTML returns the post-JavaScript DOM serialization.
	RenderedHTML(ctx context.Context) (string, error)
	// MeasureImageNaturalSize loads url off-DOM and returns its natural
	// size, or (0, 0) on error or timeout.
	MeasureImageNaturalSize(ctx context.Context, url string, timeout time.Duration) (int, int)
	// ClickElement scrolls the first match of selector into view and
	// dispatches a DOM-level click.
	ClickElement(ctx context.Context, selector string) error
	// Evaluate runs script and decodes its result into out (may be nil).
	Evaluate(ctx context.Context, script string, out any) error
	// CountElements returns the number of nodes matching selector.
	CountElements(ctx context.Context, selector string) (int, error)
	Close() error
}

// BrowserLauncher starts browser sessions.
type BrowserLauncher interface {
	Launch(ctx context.Context) (BrowserSession, error)
}

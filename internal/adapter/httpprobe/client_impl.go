package httpprobe

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/time/rate"

	"github.com/user/dashboard-scraper/internal/entity"
	"github.com/user/dashboard-scraper/internal/repository"
)

const (
	// maxImageBytes caps downloads; dashboard screenshots are well below it.
	maxImageBytes = 20 << 20
	// minImageBytes drops tracking pixels and placeholders on Fetch.
	minImageBytes = 1024
)

// Config configures the HTTP image client.
type Config struct {
	UserAgent string
	Timeout   time.Duration
	// HostInterval is the minimum gap between requests to one host.
	HostInterval time.Duration
}

// Client measures and downloads images over plain HTTP, rate limited per host.
type Client struct {
	httpClient *http.Client
	userAgent  string
	interval   time.Duration
	logger     *zap.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// New creates a Client.
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		userAgent:  cfg.UserAgent,
		interval:   cfg.HostInterval,
		logger:     logger,
		limiters:   make(map[string]*rate.Limiter),
	}
}

func (c *Client) limiterFor(host string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	if l, ok := c.limiters[host]; ok {
		return l
	}
	limit := rate.Inf
	if c.interval > 0 {
		limit = rate.Every(c.interval)
	}
	l := rate.NewLimiter(limit, 1)
	c.limiters[host] = l
	return l
}

const imageAccept = "image/avif,image/webp,image/png,image/*;q=0.8,*/*;q=0.5"

func (c *Client) get(ctx context.Context, rawURL, accept string) (*http.Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url %s: %w", rawURL, err)
	}
	if err := c.limiterFor(u.Hostname()).Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", accept)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: status %d", rawURL, resp.StatusCode)
	}
	return resp, nil
}

// Measure decodes just the image header and returns its size, or (0, 0)
// when the image cannot be fetched or decoded.
func (c *Client) Measure(ctx context.Context, imageURL string) (int, int) {
	resp, err := c.get(ctx, imageURL, imageAccept)
	if err != nil {
		c.logger.Debug("image fetch failed", zap.String("url", imageURL), zap.Error(err))
		return 0, 0
	}
	defer resp.Body.Close()

	cfg, format, err := image.DecodeConfig(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		c.logger.Debug("image decode failed", zap.String("url", imageURL), zap.Error(err))
		return 0, 0
	}
	c.logger.Debug("image measured",
		zap.String("url", imageURL),
		zap.String("format", format),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
	)
	return cfg.Width, cfg.Height
}

// Fetch downloads an image for scoring and upload. Non-image responses and
// tiny bodies are rejected.
func (c *Client) Fetch(ctx context.Context, imageURL string) (entity.DownloadedImage, error) {
	resp, err := c.get(ctx, imageURL, imageAccept)
	if err != nil {
		return entity.DownloadedImage{}, fmt.Errorf("%w: %v", repository.ErrCollaborator, err)
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return entity.DownloadedImage{}, fmt.Errorf("%s is not an image (content type %q)", imageURL, contentType)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return entity.DownloadedImage{}, fmt.Errorf("read %s: %w", imageURL, err)
	}
	if len(data) < minImageBytes {
		return entity.DownloadedImage{}, fmt.Errorf("%s is too small (%d bytes)", imageURL, len(data))
	}

	return entity.DownloadedImage{URL: imageURL, ContentType: contentType, Data: data}, nil
}

// FetchText downloads a text resource such as a script bundle.
func (c *Client) FetchText(ctx context.Context, rawURL string) (string, error) {
	resp, err := c.get(ctx, rawURL, "*/*")
	if err != nil {
		return "", fmt.Errorf("%w: %v", repository.ErrNavigationFailed, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", rawURL, err)
	}
	return string(data), nil
}

// Package osm implements the tile source against an OSM-compatible
// raster tile server.
package osm

import (
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/paulmach/orb/maptile"
	"golang.org/x/time/rate"

	"github.com/werner-roman/OSM-and-Stadiamaps-Downloader/internal/adapters/raster"
)

// DefaultURLTemplate is the public OpenStreetMap raster endpoint. Stadia
// Maps styles follow the same {z}/{x}/{y} convention and work unchanged.
const DefaultURLTemplate = "https://tile.openstreetmap.org/{z}/{x}/{y}.png"

// Config holds tile-server client settings.
type Config struct {
	URLTemplate string
	UserAgent   string
	Timeout     time.Duration
	Retries     int
	RatePerSec  float64
}

// Client fetches tiles over HTTP. The rate limiter is shared by all
// callers so concurrent workers stay inside the tile usage policy.
type Client struct {
	http        *http.Client
	urlTemplate string
	userAgent   string
	limiter     *rate.Limiter
	retries     uint64
	backoffBase time.Duration
}

// New creates a tile client from cfg, applying defaults for zero values.
func New(cfg Config) *Client {
	if cfg.URLTemplate == "" {
		cfg.URLTemplate = DefaultURLTemplate
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 3
	}
	return &Client{
		http:        &http.Client{Timeout: cfg.Timeout},
		urlTemplate: cfg.URLTemplate,
		userAgent:   cfg.UserAgent,
		limiter:     rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1),
		retries:     uint64(cfg.Retries),
		backoffBase: 500 * time.Millisecond,
	}
}

// URL returns the request URL for a tile.
func (c *Client) URL(t maptile.Tile) string {
	r := strings.NewReplacer(
		"{z}", strconv.FormatUint(uint64(t.Z), 10),
		"{x}", strconv.FormatUint(uint64(t.X), 10),
		"{y}", strconv.FormatUint(uint64(t.Y), 10),
	)
	return r.Replace(c.urlTemplate)
}

// Fetch downloads and decodes one tile, retrying transient failures with
// exponential backoff. 5xx and 429 responses are retried; any other
// non-200 status (404 included) fails immediately.
func (c *Client) Fetch(ctx context.Context, t maptile.Tile) (image.Image, error) {
	var img image.Image

	op := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		url := c.URL(t)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("build request: %w", err))
		}
		if c.userAgent != "" {
			req.Header.Set("User-Agent", c.userAgent)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", url, err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
		default:
			return backoff.Permanent(fmt.Errorf("HTTP %d for %s", resp.StatusCode, url))
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}

		decoded, err := raster.DecodeTile(body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("tile %d/%d/%d: %w", t.Z, t.X, t.Y, err))
		}
		img = decoded
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.backoffBase
	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, c.retries), ctx)); err != nil {
		return nil, err
	}
	return img, nil
}

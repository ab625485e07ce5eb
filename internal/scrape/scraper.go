// Package scrape turns an arbitrary retailer URL into a best-effort price,
// currency, name, image and stock reading. Two fetch modes (rendered browser,
// then static HTTP) and three extraction strategies (structured data, meta
// tags, selector/regex) run in fixed order with early exit on success.
package scrape

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/denwilliams/pricetracker/config"
)

// Result is the combined outcome of one scrape across both fetch modes.
// Price nil means every mode failed; Error then carries the reason.
type Result struct {
	Price     *float64
	Currency  string
	Name      string
	ImageURL  string
	Available bool
	Source    string
	Error     string
}

// Scraper orchestrates fetch fallback and the extraction pipeline. Concurrent
// scrapes of the same URL are collapsed into one fetch.
type Scraper struct {
	cfg      *config.AppConfig
	fetchers []Fetcher
	group    singleflight.Group
}

// NewScraper builds the default rendered-then-static fetch chain. Tests pass
// explicit fetchers to substitute stubs.
func NewScraper(cfg *config.AppConfig, fetchers ...Fetcher) *Scraper {
	if len(fetchers) == 0 {
		fetchers = DefaultFetchers(cfg, true)
	}
	return &Scraper{cfg: cfg, fetchers: fetchers}
}

// DefaultFetchers assembles the fetch chain. renderFirst puts the browser
// mode ahead of the static one; BrowserDisable drops the browser entirely.
func DefaultFetchers(cfg *config.AppConfig, renderFirst bool) []Fetcher {
	timeout := time.Duration(cfg.Monitor.FetchTimeout) * time.Second
	settle := time.Duration(cfg.Monitor.SettleDelay) * time.Second

	static := NewStaticFetcher(timeout)
	if cfg.Monitor.BrowserDisable {
		return []Fetcher{static}
	}
	browser := NewBrowserFetcher(timeout, settle)
	if renderFirst {
		return []Fetcher{browser, static}
	}
	return []Fetcher{static, browser}
}

// Scrape fetches and extracts pageURL. Overlapping ticks asking for the same
// URL share a single in-flight attempt.
func (s *Scraper) Scrape(ctx context.Context, pageURL string, opts Options) Result {
	v, _, _ := s.group.Do(pageURL, func() (interface{}, error) {
		return s.scrape(ctx, pageURL, opts), nil
	})
	return v.(Result)
}

func (s *Scraper) scrape(ctx context.Context, pageURL string, opts Options) Result {
	waitSelector := s.waitSelector(opts)

	var fallback Result
	for _, fetcher := range s.fetchers {
		d, err := fetcher.Fetch(ctx, pageURL, waitSelector)
		if err != nil {
			zap.L().Debug("fetch attempt failed",
				zap.String("url", pageURL),
				zap.String("mode", fetcher.Name()),
				zap.Error(err))
			continue
		}

		ex := Extract(d, opts)
		if ex.Price != nil {
			return Result{
				Price:     ex.Price,
				Currency:  ex.Currency,
				Name:      ex.Name,
				ImageURL:  ex.ImageURL,
				Available: Classify(d),
				Source:    d.Source,
			}
		}
		// Remember name/image from a priceless attempt so a monitor can still
		// be labelled even when extraction fails.
		if fallback.Name == "" {
			fallback.Name = ex.Name
		}
		if fallback.ImageURL == "" {
			fallback.ImageURL = ex.ImageURL
		}
	}

	fallback.Error = NoPriceMessage
	return fallback
}

// waitSelector picks the selector the rendered fetch should wait for: the
// per-product override when set, otherwise the retailer default.
func (s *Scraper) waitSelector(opts Options) string {
	if sel := strings.TrimSpace(opts.SelectorOverride); sel != "" {
		return sel
	}
	if retailer, ok := opts.Retailers[opts.Store]; ok {
		return strings.TrimSpace(retailer.Selector)
	}
	return ""
}

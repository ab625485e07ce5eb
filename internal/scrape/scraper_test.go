package scrape

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denwilliams/pricetracker/config"
)

type stubFetcher struct {
	name  string
	html  string
	err   error
	calls int
}

func (f *stubFetcher) Name() string { return f.name }

func (f *stubFetcher) Fetch(_ context.Context, pageURL, _ string) (*Document, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return NewDocument(f.html, pageURL, f.name)
}

func testConfig() *config.AppConfig {
	cfg := *config.DefaultAppConfig
	return &cfg
}

func TestScrapeRenderedPreferred(t *testing.T) {
	rendered := &stubFetcher{name: "browser", html: `<html><body><span class="price">$199.00</span></body></html>`}
	static := &stubFetcher{name: "static", html: `<html><body><span class="price">$299.00</span></body></html>`}

	s := NewScraper(testConfig(), rendered, static)
	res := s.Scrape(context.Background(), "https://example.com/p/1", Options{DefaultCurrency: "AUD"})

	require.NotNil(t, res.Price)
	assert.Equal(t, 199.00, *res.Price)
	assert.Equal(t, "browser", res.Source)
	assert.Equal(t, 0, static.calls)
}

func TestScrapeFallsBackToStatic(t *testing.T) {
	rendered := &stubFetcher{name: "browser", err: ErrFetch}
	static := &stubFetcher{name: "static", html: `<html><body><span class="price">$299.00</span></body></html>`}

	s := NewScraper(testConfig(), rendered, static)
	res := s.Scrape(context.Background(), "https://example.com/p/1", Options{DefaultCurrency: "AUD"})

	require.NotNil(t, res.Price)
	assert.Equal(t, 299.00, *res.Price)
	assert.Equal(t, "static", res.Source)
	assert.Equal(t, 1, rendered.calls)
}

func TestScrapePricelessRenderedTriesStatic(t *testing.T) {
	// A rendered attempt that yields no price is a method failure, not a
	// result; the static mode still gets its turn.
	rendered := &stubFetcher{name: "browser", html: `<html><head><title>Widget</title></head><body>no price here</body></html>`}
	static := &stubFetcher{name: "static", html: `<html><body><span class="price">$49.00</span></body></html>`}

	s := NewScraper(testConfig(), rendered, static)
	res := s.Scrape(context.Background(), "https://example.com/p/1", Options{DefaultCurrency: "AUD"})

	require.NotNil(t, res.Price)
	assert.Equal(t, 49.00, *res.Price)
	assert.Equal(t, "static", res.Source)
}

func TestScrapeAllModesFail(t *testing.T) {
	rendered := &stubFetcher{name: "browser", err: ErrFetch}
	static := &stubFetcher{name: "static", err: ErrFetch}

	s := NewScraper(testConfig(), rendered, static)
	res := s.Scrape(context.Background(), "https://example.com/p/1", Options{DefaultCurrency: "AUD"})

	assert.Nil(t, res.Price)
	assert.Equal(t, NoPriceMessage, res.Error)
}

func TestDefaultFetchersOrder(t *testing.T) {
	names := func(fetchers []Fetcher) []string {
		var out []string
		for _, f := range fetchers {
			out = append(out, f.Name())
		}
		return out
	}

	cfg := testConfig()
	assert.Equal(t, []string{"browser", "static"}, names(DefaultFetchers(cfg, true)))
	assert.Equal(t, []string{"static", "browser"}, names(DefaultFetchers(cfg, false)))

	cfg.Monitor.BrowserDisable = true
	assert.Equal(t, []string{"static"}, names(DefaultFetchers(cfg, true)))
}

func TestValidateSelector(t *testing.T) {
	assert.NoError(t, ValidateSelector(""))
	assert.NoError(t, ValidateSelector("  "))
	assert.NoError(t, ValidateSelector(".price-value, [data-testid='price']"))

	err := ValidateSelector("[[[broken")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoSelector)
}

func TestScrapeKeepsNameFromPricelessAttempt(t *testing.T) {
	rendered := &stubFetcher{name: "browser", html: `<html><body><h1 itemprop="name">Nice Toaster</h1></body></html>`}
	static := &stubFetcher{name: "static", err: ErrFetch}

	s := NewScraper(testConfig(), rendered, static)
	res := s.Scrape(context.Background(), "https://example.com/p/1", Options{DefaultCurrency: "AUD"})

	assert.Nil(t, res.Price)
	assert.Equal(t, NoPriceMessage, res.Error)
	assert.Equal(t, "Nice Toaster", res.Name)
}

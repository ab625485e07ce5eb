package scrape

import (
	"context"
	"net/http"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/guonaihong/gout"
	"github.com/pkg/errors"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// waitSelectorTimeout bounds how long the rendered fetch waits for the price
// selector to appear. Absence does not abort the attempt.
const waitSelectorTimeout = 5 * time.Second

// Fetcher retrieves a product page as a parsed document. Implementations own
// their timeouts; a failed attempt surfaces as ErrFetch so the orchestrator
// can fall back to the next mode.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, pageURL, waitSelector string) (*Document, error)
}

// BrowserFetcher renders the page in headless Chrome so JavaScript-populated
// prices are present in the captured DOM.
type BrowserFetcher struct {
	timeout time.Duration
	settle  time.Duration
}

func NewBrowserFetcher(timeout, settle time.Duration) *BrowserFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &BrowserFetcher{timeout: timeout, settle: settle}
}

func (f *BrowserFetcher) Name() string { return "browser" }

func (f *BrowserFetcher) Fetch(ctx context.Context, pageURL, waitSelector string) (*Document, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(browserUserAgent),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	if err := chromedp.Run(browserCtx, chromedp.Navigate(pageURL)); err != nil {
		return nil, errors.Wrapf(ErrFetch, "browser navigate %s: %v", pageURL, err)
	}

	if waitSelector != "" {
		// Best effort: extraction proceeds on whatever DOM exists.
		waitCtx, cancelWait := context.WithTimeout(browserCtx, waitSelectorTimeout)
		_ = chromedp.Run(waitCtx, chromedp.WaitVisible(waitSelector, chromedp.ByQuery))
		cancelWait()
	}
	if f.settle > 0 {
		_ = chromedp.Run(browserCtx, chromedp.Sleep(f.settle))
	}

	var html string
	if err := chromedp.Run(browserCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return nil, errors.Wrapf(ErrFetch, "browser capture %s: %v", pageURL, err)
	}
	return NewDocument(html, pageURL, f.Name())
}

// StaticFetcher performs a plain HTTP GET with browser-like headers. Cheaper
// than a render and sufficient for server-rendered pages.
type StaticFetcher struct {
	timeout time.Duration
}

func NewStaticFetcher(timeout time.Duration) *StaticFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &StaticFetcher{timeout: timeout}
}

func (f *StaticFetcher) Name() string { return "static" }

func (f *StaticFetcher) Fetch(ctx context.Context, pageURL, waitSelector string) (*Document, error) {
	var body string
	var code int
	err := gout.GET(pageURL).
		WithContext(ctx).
		SetTimeout(f.timeout).
		SetHeader(gout.H{
			"User-Agent":      browserUserAgent,
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language": "en-AU,en;q=0.9",
		}).
		BindBody(&body).
		Code(&code).
		Do()
	if err != nil {
		return nil, errors.Wrapf(ErrFetch, "static fetch %s: %v", pageURL, err)
	}
	if code != http.StatusOK {
		return nil, errors.Wrapf(ErrFetch, "static fetch %s: status %d", pageURL, code)
	}
	return NewDocument(body, pageURL, f.Name())
}

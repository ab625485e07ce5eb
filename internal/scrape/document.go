package scrape

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/pkg/errors"
)

// Document is a parsed page snapshot plus enough context to resolve relative
// links. Source records which fetch mode produced it.
type Document struct {
	Doc     *goquery.Document
	BaseURL *url.URL
	Source  string
}

// NewDocument parses raw HTML captured from pageURL.
func NewDocument(html, pageURL, source string) (*Document, error) {
	gq, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, errors.Wrapf(ErrParse, "parse document from %s: %v", pageURL, err)
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		base = nil
	}
	return &Document{Doc: gq, BaseURL: base, Source: source}, nil
}

// resolveURL makes href absolute against the document base when possible.
func (d *Document) resolveURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || d.BaseURL == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return d.BaseURL.ResolveReference(ref).String()
}

// ValidateSelector reports whether a user-supplied CSS selector compiles.
// Empty means "no override" and is valid.
func ValidateSelector(selector string) error {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return nil
	}
	if _, err := cascadia.Compile(selector); err != nil {
		return errors.Wrapf(ErrNoSelector, "selector %q: %v", selector, err)
	}
	return nil
}

// findSafe runs a selector query, swallowing the panic goquery raises on a
// selector that fails to compile (user-supplied overrides reach this path).
func findSafe(doc *goquery.Document, selector string) (sel *goquery.Selection) {
	defer func() {
		if r := recover(); r != nil {
			sel = nil
		}
	}()
	return doc.Find(selector)
}

package scrape

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Availability signals, first one wins: structured-data offer availability,
// then an active add-to-cart/buy-now control, then a negative-keyword scan
// scoped to product-area containers. No signal at all means "assume available".

var ctaPattern = regexp.MustCompile(`(?i)\b(add\s+to\s+cart|buy\s+now)\b`)

var outOfStockPhrases = []string{
	"out of stock",
	"sold out",
	"currently unavailable",
	"temporarily unavailable",
}

// productAreaSelectors scope the keyword scan. Full-page text regularly
// mentions "out of stock" in recommendation rails and filter chips, which
// would misclassify an in-stock product.
var productAreaSelectors = []string{
	"#availability",
	".availability",
	"[class*='availability']",
	"[class*='stock-status']",
	"[itemprop='availability']",
	".stock",
	".product-info",
	".product-details",
	".product-summary",
	".buybox",
}

// Classify reports whether the product appears purchasable.
func Classify(d *Document) bool {
	if avail, ok := structuredAvailability(d.Doc); ok {
		return avail
	}
	if hasActiveCTA(d.Doc) {
		return true
	}
	return !productAreaOutOfStock(d.Doc)
}

func structuredAvailability(doc *goquery.Document) (bool, bool) {
	for _, p := range parseStructuredData(doc) {
		if p.Availability == "" {
			continue
		}
		token := strings.ToLower(strings.ReplaceAll(p.Availability, " ", ""))
		switch {
		case strings.Contains(token, "outofstock"), strings.Contains(token, "soldout"):
			return false, true
		case strings.Contains(token, "instock"):
			return true, true
		}
		// unknown token such as LimitedAvailability: fall through
	}
	return false, false
}

// hasActiveCTA detects a non-disabled submit/add-to-cart/buy-now control.
func hasActiveCTA(doc *goquery.Document) bool {
	active := false
	doc.Find(`button, input[type="submit"], a`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if _, disabled := s.Attr("disabled"); disabled {
			return true
		}
		if aria, ok := s.Attr("aria-disabled"); ok && aria == "true" {
			return true
		}
		if class, ok := s.Attr("class"); ok && strings.Contains(strings.ToLower(class), "disabled") {
			return true
		}
		text := s.Text()
		if text == "" {
			text, _ = s.Attr("value")
		}
		if ctaPattern.MatchString(text) {
			active = true
			return false
		}
		return true
	})
	return active
}

func productAreaOutOfStock(doc *goquery.Document) bool {
	for _, sel := range productAreaSelectors {
		text := strings.ToLower(doc.Find(sel).Text())
		if text == "" {
			continue
		}
		for _, phrase := range outOfStockPhrases {
			if strings.Contains(text, phrase) {
				return true
			}
		}
	}
	return false
}

package scrape

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/denwilliams/pricetracker/config"
)

// maxSanePrice rejects matches that are clearly page noise (order totals,
// phone numbers, product codes) rather than a unit price.
const maxSanePrice = 1_000_000

// Options carry the per-document extraction context.
type Options struct {
	Store            string
	SelectorOverride string
	DefaultCurrency  string
	Retailers        map[string]config.RetailerConfig
}

// Extraction is the best-effort product read from one document. A nil Price
// means every strategy failed; the caller treats that as "method failed".
type Extraction struct {
	Price    *float64
	Currency string
	Name     string
	ImageURL string
}

type priceHit struct {
	price    float64
	currency string
	name     string
}

type priceStrategy func(d *Document, opts Options) (priceHit, bool)

// Extract runs the ordered strategies until one yields an in-bounds price:
// structured data, then social/meta tags, then selector/regex scanning. Name
// and image resolution are always attempted, independent of the price path.
func Extract(d *Document, opts Options) Extraction {
	ex := Extraction{Currency: opts.DefaultCurrency}

	strategies := []priceStrategy{
		extractStructured,
		extractMetaTags,
		extractSelectors,
	}
	for _, strategy := range strategies {
		hit, ok := strategy(d, opts)
		if !ok {
			continue
		}
		price := hit.price
		ex.Price = &price
		if hit.currency != "" {
			ex.Currency = hit.currency
		}
		if hit.name != "" {
			ex.Name = hit.name
		}
		break
	}

	if ex.Name == "" {
		ex.Name = extractName(d, opts)
	}
	ex.ImageURL = extractImage(d)
	return ex
}

// extractStructured reads the first JSON-LD Product offer carrying a price.
func extractStructured(d *Document, opts Options) (priceHit, bool) {
	for _, p := range parseStructuredData(d.Doc) {
		if !p.HasPrice || !priceInBounds(p.Price) {
			continue
		}
		return priceHit{price: p.Price, currency: p.Currency, name: p.Name}, true
	}
	return priceHit{}, false
}

// Social/meta tag names tried in order; the parallel currency list mirrors it.
var metaPriceSelectors = []string{
	`meta[property="og:price:amount"]`,
	`meta[property="product:price:amount"]`,
	`meta[itemprop="price"]`,
	`meta[name="price"]`,
	`meta[name="twitter:data1"]`,
}

var metaCurrencySelectors = []string{
	`meta[property="og:price:currency"]`,
	`meta[property="product:price:currency"]`,
	`meta[itemprop="priceCurrency"]`,
	`meta[name="currency"]`,
}

func extractMetaTags(d *Document, opts Options) (priceHit, bool) {
	for _, sel := range metaPriceSelectors {
		content, exists := d.Doc.Find(sel).First().Attr("content")
		if !exists {
			continue
		}
		price, ok := parseAmount(content)
		if !ok {
			continue
		}
		hit := priceHit{price: price}
		for _, csel := range metaCurrencySelectors {
			if cur, ok := d.Doc.Find(csel).First().Attr("content"); ok && strings.TrimSpace(cur) != "" {
				hit.currency = strings.ToUpper(strings.TrimSpace(cur))
				break
			}
		}
		return hit, true
	}
	return priceHit{}, false
}

// genericPriceSelectors is the heuristic fallback when a store has neither an
// override nor a retailer default.
var genericPriceSelectors = []string{
	".price",
	"[data-price]",
	"[itemprop='price']",
	"[class*='price']",
	"[class*='cost']",
	"[class*='amount']",
	"[class*='dollar']",
	"[class*='currency']",
	"[id*='price']",
}

// Price-shaped patterns in fixed priority: $-prefixed, $-suffixed,
// currency-code-prefixed, bare numeric.
var pricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\$\s*([0-9][0-9,]*(?:\.[0-9]+)?)`),
	regexp.MustCompile(`([0-9][0-9,]*(?:\.[0-9]+)?)\s*\$`),
	regexp.MustCompile(`(?i)\b(?:AUD|USD|NZD|EUR|GBP|CAD)\s*\$?\s*([0-9][0-9,]*(?:\.[0-9]+)?)`),
	regexp.MustCompile(`([0-9][0-9,]*(?:\.[0-9]+)?)`),
}

// effectiveSelectors resolves the selector chain for a store: explicit
// per-product override, then the retailer default, then the generic set.
func effectiveSelectors(opts Options) []string {
	if s := strings.TrimSpace(opts.SelectorOverride); s != "" {
		return append([]string{s}, genericPriceSelectors...)
	}
	if retailer, ok := opts.Retailers[opts.Store]; ok && strings.TrimSpace(retailer.Selector) != "" {
		return append([]string{retailer.Selector}, genericPriceSelectors...)
	}
	return genericPriceSelectors
}

func extractSelectors(d *Document, opts Options) (priceHit, bool) {
	var hit priceHit
	found := false
	for _, selector := range effectiveSelectors(opts) {
		sel := findSafe(d.Doc, selector)
		if sel == nil {
			continue
		}
		sel.EachWithBreak(func(_ int, s *goquery.Selection) bool {
			candidates := []string{strings.TrimSpace(s.Text())}
			if attr, ok := s.Attr("data-price"); ok {
				candidates = append(candidates, attr)
			}
			if attr, ok := s.Attr("content"); ok {
				candidates = append(candidates, attr)
			}
			for _, text := range candidates {
				if text == "" {
					continue
				}
				if price, ok := matchPrice(text); ok {
					hit = priceHit{price: price}
					found = true
					return false
				}
			}
			return true
		})
		if found {
			return hit, true
		}
	}
	return priceHit{}, false
}

// matchPrice tries each price-shaped pattern against the text; out-of-bounds
// matches are rejected and the next pattern is tried.
func matchPrice(text string) (float64, bool) {
	for _, pattern := range pricePatterns {
		m := pattern.FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}
		if price, ok := parseAmount(m[1]); ok {
			return price, true
		}
	}
	return 0, false
}

// parseAmount strips thousands separators and currency noise, then parses.
// Zero, negative, out-of-bounds and non-finite values are rejected.
func parseAmount(text string) (float64, bool) {
	text = strings.TrimSpace(text)
	text = strings.ReplaceAll(text, ",", "")
	text = strings.Trim(text, "$ \t\n")
	if text == "" {
		return 0, false
	}
	price, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, false
	}
	if !priceInBounds(price) {
		return 0, false
	}
	return price, true
}

func priceInBounds(price float64) bool {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return false
	}
	return price > 0 && price < maxSanePrice
}

var nameSelectors = []string{
	"h1[itemprop='name']",
	"[itemprop='name']",
	"h1.product-title",
	".product-title",
	".product-name",
	"#productTitle",
	"h1",
}

// extractName tries title-like selectors, then falls back to the document
// title stripped of known retailer suffixes.
func extractName(d *Document, opts Options) string {
	for _, sel := range nameSelectors {
		name := strings.TrimSpace(d.Doc.Find(sel).First().Text())
		if name != "" {
			return collapseSpace(name)
		}
	}
	title := strings.TrimSpace(d.Doc.Find("title").First().Text())
	if title == "" {
		return ""
	}
	return collapseSpace(stripRetailerSuffix(title, opts.Retailers))
}

// stripRetailerSuffix removes trailing " - Store" / " | Store" decorations for
// every retailer in the domain table.
func stripRetailerSuffix(title string, retailers map[string]config.RetailerConfig) string {
	separators := []string{" - ", " | ", " – "}
	for _, retailer := range retailers {
		if retailer.Name == "" {
			continue
		}
		for _, sep := range separators {
			suffix := sep + retailer.Name
			if strings.HasSuffix(strings.ToLower(title), strings.ToLower(suffix)) {
				return strings.TrimSpace(title[:len(title)-len(suffix)])
			}
		}
	}
	return title
}

var imageSelectors = []string{
	`meta[property="og:image"]`,
	`meta[name="twitter:image"]`,
	"[itemprop='image']",
	".product-image img",
	"#landingImage",
	".gallery img",
	"main img",
}

// extractImage returns the first image-like element with a resolvable source.
func extractImage(d *Document) string {
	for _, sel := range imageSelectors {
		node := d.Doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		for _, attr := range []string{"content", "src", "data-src", "href"} {
			if src, ok := node.Attr(attr); ok && strings.TrimSpace(src) != "" {
				return d.resolveURL(src)
			}
		}
	}
	return ""
}

var spaceRe = regexp.MustCompile(`\s+`)

func collapseSpace(s string) string {
	return spaceRe.ReplaceAllString(strings.TrimSpace(s), " ")
}

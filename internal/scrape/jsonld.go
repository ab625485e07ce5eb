package scrape

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// maxLdDepth bounds the structured-data descent; @graph containers nest
// arbitrarily and adversarial documents must not blow the stack.
const maxLdDepth = 16

// ldProduct is the subset of a schema.org Product offer the pipeline reads.
type ldProduct struct {
	Name         string
	Image        string
	Price        float64
	HasPrice     bool
	Currency     string
	Availability string
	ValidUntil   time.Time
}

// parseStructuredData scans every JSON-LD block in the document for Product
// nodes. Malformed blocks are skipped individually; one broken script tag
// never aborts the strategy.
func parseStructuredData(doc *goquery.Document) []ldProduct {
	var products []ldProduct
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}
		var v interface{}
		if err := json.Unmarshal([]byte(text), &v); err != nil {
			zap.L().Debug("skipping malformed json-ld block", zap.Error(err))
			return
		}
		if node, ok := findProductNode(v, 0); ok {
			products = append(products, productFromNode(node))
		}
	})
	return products
}

// findProductNode searches a decoded JSON-LD value for the first node typed
// Product: directly, as an array element, or nested under a @graph container.
func findProductNode(v interface{}, depth int) (map[string]interface{}, bool) {
	if depth > maxLdDepth {
		return nil, false
	}
	switch t := v.(type) {
	case []interface{}:
		for _, item := range t {
			if node, ok := findProductNode(item, depth+1); ok {
				return node, true
			}
		}
	case map[string]interface{}:
		if isProductType(t["@type"]) {
			return t, true
		}
		if graph, ok := t["@graph"]; ok {
			return findProductNode(graph, depth+1)
		}
	}
	return nil, false
}

func isProductType(v interface{}) bool {
	switch t := v.(type) {
	case string:
		return strings.EqualFold(t, "Product")
	case []interface{}:
		for _, item := range t {
			if s, ok := item.(string); ok && strings.EqualFold(s, "Product") {
				return true
			}
		}
	}
	return false
}

func productFromNode(node map[string]interface{}) ldProduct {
	p := ldProduct{}
	if name, ok := node["name"].(string); ok {
		p.Name = strings.TrimSpace(name)
	}
	p.Image = imageFromValue(node["image"])

	offer, ok := firstOffer(node["offers"])
	if !ok {
		return p
	}
	for _, key := range []string{"price", "lowPrice"} {
		if price, ok := amountFromValue(offer[key]); ok {
			p.Price = price
			p.HasPrice = true
			break
		}
	}
	if cur, ok := offer["priceCurrency"].(string); ok {
		p.Currency = strings.ToUpper(strings.TrimSpace(cur))
	}
	if avail, ok := offer["availability"].(string); ok {
		p.Availability = avail
	}
	if until, ok := offer["priceValidUntil"].(string); ok {
		if ts, err := dateparse.ParseAny(until); err == nil {
			p.ValidUntil = ts
		}
	}
	return p
}

// firstOffer accepts a single offer object or an array of offers, returning
// the first entry that carries a price.
func firstOffer(v interface{}) (map[string]interface{}, bool) {
	switch t := v.(type) {
	case map[string]interface{}:
		return t, true
	case []interface{}:
		for _, item := range t {
			offer, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			if _, has := offer["price"]; has {
				return offer, true
			}
			if _, has := offer["lowPrice"]; has {
				return offer, true
			}
		}
	}
	return nil, false
}

// amountFromValue parses a JSON price value, numeric or string form.
func amountFromValue(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		if priceInBounds(t) {
			return t, true
		}
	case string:
		return parseAmount(t)
	}
	return 0, false
}

func imageFromValue(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []interface{}:
		for _, item := range t {
			if s := imageFromValue(item); s != "" {
				return s
			}
		}
	case map[string]interface{}:
		if u, ok := t["url"].(string); ok {
			return strings.TrimSpace(u)
		}
	}
	return ""
}

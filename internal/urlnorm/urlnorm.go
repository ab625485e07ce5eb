// Package urlnorm canonicalizes retailer product URLs so each product maps to
// exactly one monitor row regardless of how the link was shared.
package urlnorm

import (
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidURL marks input that cannot identify a product. Not retried.
var ErrInvalidURL = errors.New("invalid product url")

// ProductRef is the per-retailer identity derived from a canonical URL.
type ProductRef struct {
	Store     string
	ProductID string
}

// trackingParams are always stripped; any "utm_"-prefixed parameter is too.
var trackingParams = map[string]struct{}{
	"fbclid":   {},
	"gclid":    {},
	"msclkid":  {},
	"yclid":    {},
	"igshid":   {},
	"mc_cid":   {},
	"mc_eid":   {},
	"ref":      {},
	"ref_":     {},
	"tag":      {},
	"spm":      {},
	"cmpid":    {},
	"icid":     {},
	"sc_icid":  {},
	"_ga":      {},
	"affil":    {},
	"clickref": {},
}

// Canonicalize normalizes a raw product URL and derives its retailer identity.
// The returned URL is stable: lowercased scheme/host, tracking parameters and
// fragments removed, remaining query sorted, trailing slash dropped.
func Canonicalize(raw string) (string, ProductRef, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ProductRef{}, errors.Wrap(ErrInvalidURL, "empty url")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", ProductRef{}, errors.Wrapf(ErrInvalidURL, "parse %q: %v", raw, err)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", ProductRef{}, errors.Wrapf(ErrInvalidURL, "unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", ProductRef{}, errors.Wrapf(ErrInvalidURL, "missing host in %q", raw)
	}

	u.Host = strings.ToLower(u.Host)
	u.Host = strings.TrimSuffix(u.Host, ":80")
	u.Host = strings.TrimSuffix(u.Host, ":443")
	u.Fragment = ""

	q := u.Query()
	for name := range q {
		if _, drop := trackingParams[name]; drop || strings.HasPrefix(name, "utm_") {
			q.Del(name)
		}
	}
	u.RawQuery = q.Encode() // Encode sorts keys

	if u.Path != "/" {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	ref := ProductRef{
		Store:     StoreLabel(u.Host),
		ProductID: productID(u),
	}
	return u.String(), ref, nil
}

// StoreLabel returns the second-level domain label used as retailer key,
// e.g. "www.jbhifi.com.au" -> "jbhifi".
func StoreLabel(host string) string {
	host = strings.TrimPrefix(host, "www.")
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	if i := strings.IndexByte(host, '.'); i >= 0 {
		return host[:i]
	}
	return host
}

// productID derives a per-retailer product identifier from the URL path.
// Retailers with structured paths get their native ID; everything else falls
// back to the last path segment.
func productID(u *url.URL) string {
	segs := splitPath(u.Path)
	if len(segs) == 0 {
		return ""
	}

	switch StoreLabel(u.Host) {
	case "amazon":
		// /dp/<ASIN> or /gp/product/<ASIN>
		for i, s := range segs {
			if (s == "dp" || s == "product") && i+1 < len(segs) {
				return segs[i+1]
			}
		}
	case "ebay":
		// /itm/<title>/<id> or /itm/<id>
		for i, s := range segs {
			if s == "itm" && i+1 < len(segs) {
				return segs[len(segs)-1]
			}
		}
	}
	return segs[len(segs)-1]
}

func splitPath(p string) []string {
	var segs []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

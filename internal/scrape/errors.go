package scrape

import "github.com/pkg/errors"

// Failure taxonomy. Fetch errors cascade to the next fetch mode; parse errors
// degrade to a null-price result, never a panic. ErrNoSelector rejects a
// selector override that does not compile, before it is ever stored.
var (
	ErrFetch      = errors.New("document fetch failed")
	ErrNoSelector = errors.New("no usable selector for domain")
	ErrParse      = errors.New("malformed structured data")
)

// NoPriceMessage is the user-visible reason reported when every fetch mode and
// extraction strategy has been exhausted.
const NoPriceMessage = "Unable to extract price with any method"

package urlnorm

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "strips utm and tracking params",
			raw:  "https://www.jbhifi.com.au/products/sony-wh1000xm5?utm_source=fb&utm_campaign=x&gclid=abc123",
			want: "https://www.jbhifi.com.au/products/sony-wh1000xm5",
		},
		{
			name: "keeps meaningful params sorted",
			raw:  "https://example.com/p/widget?variant=red&colour=blue",
			want: "https://example.com/p/widget?colour=blue&variant=red",
		},
		{
			name: "lowercases scheme and host",
			raw:  "HTTPS://WWW.Amazon.com.au/dp/B0ABCD1234",
			want: "https://www.amazon.com.au/dp/B0ABCD1234",
		},
		{
			name: "drops default port and fragment",
			raw:  "https://shop.example.com:443/item/42#reviews",
			want: "https://shop.example.com/item/42",
		},
		{
			name: "trims trailing slash",
			raw:  "https://example.com/products/thing/",
			want: "https://example.com/products/thing",
		},
		{
			name: "root path survives",
			raw:  "https://example.com/",
			want: "https://example.com/",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := Canonicalize(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanonicalizeStable(t *testing.T) {
	first, _, err := Canonicalize("https://example.com/p/1?b=2&a=1&utm_medium=email")
	require.NoError(t, err)
	second, _, err := Canonicalize(first)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCanonicalizeInvalid(t *testing.T) {
	for _, raw := range []string{
		"",
		"   ",
		"ftp://example.com/file",
		"javascript:alert(1)",
		"/relative/path/only",
	} {
		_, _, err := Canonicalize(raw)
		require.Error(t, err, "input %q", raw)
		assert.True(t, errors.Is(err, ErrInvalidURL))
	}
}

func TestProductRef(t *testing.T) {
	tests := []struct {
		raw       string
		store     string
		productID string
	}{
		{"https://www.amazon.com.au/Some-Product-Title/dp/B0ABCD1234?ref=sr_1_1", "amazon", "B0ABCD1234"},
		{"https://www.amazon.com.au/gp/product/B09XYZW876", "amazon", "B09XYZW876"},
		{"https://www.ebay.com.au/itm/335012345678", "ebay", "335012345678"},
		{"https://www.ebay.com.au/itm/cool-gadget/335012345678", "ebay", "335012345678"},
		{"https://www.jbhifi.com.au/products/sony-wh1000xm5", "jbhifi", "sony-wh1000xm5"},
		{"https://www.kogan.com/au/buy/fancy-kettle-x1/", "kogan", "fancy-kettle-x1"},
	}
	for _, tt := range tests {
		_, ref, err := Canonicalize(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.store, ref.Store, tt.raw)
		assert.Equal(t, tt.productID, ref.ProductID, tt.raw)
	}
}

func TestStoreLabel(t *testing.T) {
	assert.Equal(t, "jbhifi", StoreLabel("www.jbhifi.com.au"))
	assert.Equal(t, "amazon", StoreLabel("amazon.com.au"))
	assert.Equal(t, "localhost", StoreLabel("localhost:8080"))
}

func TestSameProductDifferentLinks(t *testing.T) {
	a, _, err := Canonicalize("https://www.bigw.com.au/product/lego-set/p/123456?utm_source=newsletter")
	require.NoError(t, err)
	b, _, err := Canonicalize("https://www.bigw.com.au/product/lego-set/p/123456#details")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

package catalog

import (
	"errors"
	"testing"

	"github.com/fiffu/stockwatch/lib/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRef(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		product string
		version string
	}{
		{
			name:    "share link",
			url:     "https://www.zara.com/share/straight-blazer-zw-collection-p08771510.html?v1=402153953&v2=2420942&utm_campaign=productShare&utm_medium=mobile_sharing_iOS&utm_source=red_social_movil",
			product: "straight-blazer-zw-collection-p08771510",
			version: "402153953",
		},
		{
			name:    "locale link",
			url:     "https://www.zara.com/nl/en/straight-blazer-zw-collection-p08771510.html?v1=402153953&v2=2420942",
			product: "straight-blazer-zw-collection-p08771510",
			version: "402153953",
		},
		{
			name:    "v1 is the last parameter",
			url:     "https://www.zara.com/nl/en/wool-coat-p01234567.html?v1=1234",
			product: "wool-coat-p01234567",
			version: "1234",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := ParseRef(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.product, ref.Product)
			assert.Equal(t, tt.version, ref.Version)
		})
	}
}

func TestParseRef_Invalid(t *testing.T) {
	for _, raw := range []string{
		"",
		"https://www.zara.com/nl/en/",
		"https://www.zara.com/nl/en/wool-coat.html",
		"https://www.zara.com/nl/en/wool-coat?v1=1234",
		"://bad",
	} {
		_, err := ParseRef(raw)
		assert.True(t, errors.Is(err, errs.ErrValidation), "expected validation error for %q", raw)
	}
}

func TestRef_PageURL(t *testing.T) {
	ref := Ref{Product: "wool-coat-p01234567", Version: "1234"}
	assert.Equal(t,
		"https://www.zara.com/nl/en/wool-coat-p01234567.html?v1=1234",
		ref.PageURL("https://www.zara.com/", "/nl/en/"),
	)
}

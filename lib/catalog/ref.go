package catalog

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/fiffu/stockwatch/lib/errs"
)

// Ref identifies a product page: the slug from the page path and the v1 version token.
// Share links and locale links for the same product yield the same Ref.
type Ref struct {
	Product string `json:"product"`
	Version string `json:"version"`
}

func ParseRef(raw string) (Ref, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Ref{}, errs.Validationf("malformed product url %q", raw)
	}

	page := path.Base(u.Path)
	if !strings.HasSuffix(page, ".html") {
		return Ref{}, errs.Validationf("product url %q does not point to a product page", raw)
	}

	ref := Ref{
		Product: strings.TrimSuffix(page, ".html"),
		Version: u.Query().Get("v1"),
	}
	if ref.Product == "" || ref.Version == "" {
		return Ref{}, errs.Validationf("product url %q is missing the product or v1 parameter", raw)
	}
	return ref, nil
}

// PageURL builds the canonical product page URL under baseURL for the given locale, e.g. "nl/en".
func (r Ref) PageURL(baseURL, locale string) string {
	base := strings.TrimSuffix(baseURL, "/")
	locale = strings.Trim(locale, "/")
	return fmt.Sprintf("%s/%s/%s.html?v1=%s", base, locale, url.PathEscape(r.Product), url.QueryEscape(r.Version))
}

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/antchfx/htmlquery"
	"github.com/carlmjohnson/requests"
	"github.com/fiffu/stockwatch/config"
	"github.com/fiffu/stockwatch/lib/errs"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

const viewPayloadMarker = "window.zara.viewPayload = "

var (
	browserHeaders = map[string]string{
		"accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
		"accept-language": "en-US,en;q=0.9",
		"user-agent":      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/142.0.0.0 Safari/537.36",
	}

	// Availability states that can still be ordered.
	orderable = map[string]bool{
		"in_stock":     true,
		"low_on_stock": true,
	}
)

func NewSource(cfg *config.Config, log *zap.Logger, transport http.RoundTripper) Source {
	return NewZara(log, transport, cfg.Catalog.BaseURL, cfg.Catalog.Locale, cfg.Catalog.StoreID,
		time.Duration(cfg.Catalog.TimeoutSecs)*time.Second)
}

type Zara struct {
	log     *zap.Logger
	client  *http.Client
	baseURL string
	locale  string
	storeID string
	timeout time.Duration
}

func NewZara(log *zap.Logger, transport http.RoundTripper, baseURL, locale, storeID string, timeout time.Duration) *Zara {
	// The page is served from behind a bot wall that hands out session cookies.
	jar, _ := cookiejar.New(nil)
	return &Zara{
		log:     log,
		client:  &http.Client{Transport: transport, Jar: jar},
		baseURL: strings.TrimSuffix(baseURL, "/"),
		locale:  locale,
		storeID: storeID,
		timeout: timeout,
	}
}

func (z *Zara) CanonicalURL(raw string) (string, error) {
	ref, err := ParseRef(raw)
	if err != nil {
		return "", err
	}
	return ref.PageURL(z.baseURL, z.locale), nil
}

func (z *Zara) ResolveProduct(ctx context.Context, raw string) (*Product, error) {
	ref, err := ParseRef(raw)
	if err != nil {
		return nil, err
	}
	pageURL := ref.PageURL(z.baseURL, z.locale)

	ctx, cancel := context.WithTimeout(ctx, z.timeout)
	defer cancel()

	doc, err := z.fetchPage(ctx, pageURL, "")
	if err != nil {
		return nil, err
	}

	payload, ok := findScriptPayload(doc, viewPayloadMarker)
	if !ok {
		z.log.Sugar().Infow("Product page has no payload, retrying through interstitial", "url", pageURL)
		if err := z.passInterstitial(ctx, pageURL); err != nil {
			return nil, err
		}
		if doc, err = z.fetchPage(ctx, pageURL, pageURL); err != nil {
			return nil, err
		}
		if payload, ok = findScriptPayload(doc, viewPayloadMarker); !ok {
			return nil, errs.Transient("product page did not include a view payload", nil)
		}
	}

	var view viewPayload
	if err := json.NewDecoder(strings.NewReader(payload)).Decode(&view); err != nil {
		return nil, errs.Transient("malformed product payload", err)
	}
	if len(view.Product.Detail.Colors) == 0 || view.Product.Detail.Colors[0].ProductID == "" {
		return nil, errs.NotFoundf("no product details at %s", pageURL)
	}

	color := view.Product.Detail.Colors[0]
	product := &Product{
		ID:      string(color.ProductID),
		Name:    view.Product.Name,
		URL:     pageURL,
		Version: ref.Version,
		Sizes:   make([]Size, 0, len(color.Sizes)),
	}
	if product.Name == "" {
		product.Name = SelectText(doc, "/html/head/title")
	}
	for _, s := range color.Sizes {
		product.Sizes = append(product.Sizes, Size{SKU: string(s.SKU), Label: s.Name})
	}
	return product, nil
}

func (z *Zara) FetchAvailability(ctx context.Context, productID string) (Availability, error) {
	ctx, cancel := context.WithTimeout(ctx, z.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/itxrest/1/catalog/store/%s/product/id/%s/availability", z.baseURL, z.storeID, productID)

	var resp availabilityResponse
	err := z.request(endpoint, "").ToJSON(&resp).Fetch(ctx)
	if err != nil {
		return nil, errs.Transient("fetch availability", err)
	}

	avail := make(Availability, len(resp.SKUs))
	for _, s := range resp.SKUs {
		avail[string(s.SKU)] = orderable[s.Availability]
	}
	return avail, nil
}

func (z *Zara) fetchPage(ctx context.Context, pageURL, referer string) (*html.Node, error) {
	var body string
	err := z.request(pageURL, referer).ToString(&body).Fetch(ctx)
	switch {
	case requests.HasStatusErr(err, http.StatusNotFound, http.StatusGone):
		return nil, errs.NotFoundf("no product at %s", pageURL)
	case err != nil:
		return nil, errs.Transient("fetch product page", err)
	}

	doc, err := htmlquery.Parse(strings.NewReader(body))
	if err != nil {
		return nil, errs.Transient("parse product page", err)
	}
	return doc, nil
}

func (z *Zara) passInterstitial(ctx context.Context, pageURL string) error {
	err := z.request(z.baseURL+"/interstitial/ic.html", pageURL).Fetch(ctx)
	if err != nil {
		return errs.Transient("pass interstitial", err)
	}
	return nil
}

func (z *Zara) request(endpoint, referer string) *requests.Builder {
	rb := requests.URL(endpoint).Client(z.client)
	for k, v := range browserHeaders {
		rb = rb.Header(k, v)
	}
	if referer != "" {
		rb = rb.Header("referer", referer)
	}
	return rb
}

type viewPayload struct {
	Product struct {
		Name   string `json:"name"`
		Detail struct {
			Colors []struct {
				ProductID flexID `json:"productId"`
				Sizes     []struct {
					SKU  flexID `json:"sku"`
					Name string `json:"name"`
				} `json:"sizes"`
			} `json:"colors"`
		} `json:"detail"`
	} `json:"product"`
}

type availabilityResponse struct {
	SKUs []struct {
		SKU          flexID `json:"sku"`
		Availability string `json:"availability"`
	} `json:"skusAvailability"`
}

// flexID accepts identifiers encoded either as JSON numbers or strings.
type flexID string

func (id *flexID) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		*id = ""
		return nil
	}
	*id = flexID(strings.Trim(s, `"`))
	return nil
}

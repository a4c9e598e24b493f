// Package catalog resolves product references into product details and per-size availability.
package catalog

import (
	"context"

	"github.com/fiffu/stockwatch/lib/models"
)

// Source is the upstream catalog.
//
// ResolveProduct fails with errs.ErrNotFound when the reference does not point to a product and
// with errs.ErrTransient when the catalog could not be reached. FetchAvailability only fails
// with errs.ErrTransient. CanonicalURL does no I/O.
type Source interface {
	ResolveProduct(ctx context.Context, ref string) (*Product, error)
	FetchAvailability(ctx context.Context, productID string) (Availability, error)
	CanonicalURL(ref string) (string, error)
}

// Availability maps SKU to whether it can be ordered.
type Availability map[string]bool

type Size struct {
	SKU   string
	Label string
}

type Product struct {
	ID      string
	Name    string
	URL     string
	Version string
	Sizes   []Size // in catalog order
}

type SizeStock struct {
	Label   string
	InStock bool
}

// Labels returns the distinct size labels in catalog order.
func (p *Product) Labels() []string {
	seen := make(map[string]bool, len(p.Sizes))
	labels := make([]string, 0, len(p.Sizes))
	for _, s := range p.Sizes {
		if seen[s.Label] {
			continue
		}
		seen[s.Label] = true
		labels = append(labels, s.Label)
	}
	return labels
}

// Stock maps SKU availability onto size labels. SKUs that are not sizes of this product are
// ignored, and sizes missing from avail are out of stock.
func (p *Product) Stock(avail Availability) []SizeStock {
	inStock := make(map[string]bool, len(p.Sizes))
	for _, s := range p.Sizes {
		inStock[s.Label] = inStock[s.Label] || avail[s.SKU]
	}

	labels := p.Labels()
	stock := make([]SizeStock, len(labels))
	for i, label := range labels {
		stock[i] = SizeStock{Label: label, InStock: inStock[label]}
	}
	return stock
}

func (p *Product) ToModel() *models.Product {
	return &models.Product{
		CatalogID: p.ID,
		Name:      p.Name,
		URL:       p.URL,
		Version:   p.Version,
	}
}

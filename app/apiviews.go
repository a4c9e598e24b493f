package app

import (
	"github.com/fiffu/stockwatch/lib"
	"github.com/fiffu/stockwatch/lib/store"
)

type SubscriptionView struct {
	ProductID     string   `json:"product_id"`
	Name          string   `json:"name"`
	URL           string   `json:"url"`
	Version       string   `json:"version"`
	SelectedSizes []string `json:"selected_sizes"`
}

func (view SubscriptionView) From(entity store.SubscriptionView) SubscriptionView {
	return SubscriptionView{
		ProductID:     entity.CatalogID,
		Name:          entity.Name,
		URL:           entity.URL,
		Version:       entity.Version,
		SelectedSizes: entity.SelectedSizes,
	}
}

type SubscribeView struct {
	Created               bool     `json:"created"`
	SizesUpdated          bool     `json:"sizes_updated"`
	RequiresSizeSelection bool     `json:"requires_size_selection,omitempty"`
	Sizes                 []string `json:"sizes,omitempty"`
}

func (view SubscribeView) From(entity *lib.SubscribeResult) SubscribeView {
	return SubscribeView{
		Created:               entity.Created,
		SizesUpdated:          entity.SizesUpdated,
		RequiresSizeSelection: entity.RequiresSizeSelection,
		Sizes:                 entity.Sizes,
	}
}

type ErrorView struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

type Fromable[Entity any, Repr any] interface {
	From(Entity) Repr
}

func FromMany[T any, U Fromable[T, U]](elems []T) []U {
	out := make([]U, len(elems))
	for i, t := range elems {
		var u U
		out[i] = u.From(t)
	}
	return out
}

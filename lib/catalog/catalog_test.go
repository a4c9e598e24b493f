package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func blazer() *Product {
	return &Product{
		ID:      "383659350",
		Name:    "STRAIGHT BLAZER",
		URL:     "https://www.zara.com/nl/en/straight-blazer-p08771510.html?v1=402153953",
		Version: "402153953",
		Sizes: []Size{
			{SKU: "383659357", Label: "XS"},
			{SKU: "383659358", Label: "S"},
			{SKU: "383659353", Label: "M"},
			{SKU: "383659354", Label: "L"},
			{SKU: "383659355", Label: "XL"},
			{SKU: "383659356", Label: "XXL"},
		},
	}
}

func TestProduct_StockAllAvailable(t *testing.T) {
	avail := Availability{
		"383659358": true, "383659356": true, "383659357": true,
		"383659354": true, "383659355": true, "383659353": true,
	}

	for _, s := range blazer().Stock(avail) {
		assert.True(t, s.InStock, s.Label)
	}
}

func TestProduct_StockIgnoresUnknownSKUs(t *testing.T) {
	avail := Availability{
		"383659358": false, "383659356": false, "383659357": false,
		"383659354": true, "383659355": false, "383659353": false,
		"383659471": true,
	}

	assert.Equal(t, []SizeStock{
		{"XS", false}, {"S", false}, {"M", false}, {"L", true}, {"XL", false}, {"XXL", false},
	}, blazer().Stock(avail))
}

func TestProduct_StockMissingSKUIsOutOfStock(t *testing.T) {
	stock := blazer().Stock(Availability{"383659358": true})

	assert.Equal(t, SizeStock{"S", true}, stock[1])
	assert.Equal(t, SizeStock{"M", false}, stock[2])
}

func TestProduct_LabelsAreDistinct(t *testing.T) {
	p := &Product{Sizes: []Size{{"1", "ONE SIZE"}, {"2", "ONE SIZE"}}}

	assert.Equal(t, []string{"ONE SIZE"}, p.Labels())
	assert.Equal(t, []SizeStock{{"ONE SIZE", true}}, p.Stock(Availability{"2": true}))
}

func TestProduct_ToModel(t *testing.T) {
	m := blazer().ToModel()

	assert.Equal(t, "383659350", m.CatalogID)
	assert.Equal(t, "STRAIGHT BLAZER", m.Name)
	assert.Equal(t, "402153953", m.Version)
	assert.Equal(t, blazer().URL, m.URL)
}

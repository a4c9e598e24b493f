package tracker

import (
	"testing"
	"time"

	"github.com/fiffu/stockwatch/lib/catalog"
	"github.com/fiffu/stockwatch/lib/models"
	"github.com/stretchr/testify/assert"
)

func TestCheckSet(t *testing.T) {
	stock := []catalog.SizeStock{{Label: "XS", InStock: false}, {Label: "S", InStock: true}, {Label: "M", InStock: false}}

	assert.Equal(t, stock, checkSet(stock, nil))
	assert.Equal(t, stock, checkSet(stock, models.SizeSet{}))
	assert.Equal(t, []catalog.SizeStock{{Label: "S", InStock: true}, {Label: "M", InStock: false}}, checkSet(stock, models.SizeSet{"M", "S"}))
	assert.Empty(t, checkSet(stock, models.SizeSet{"XXL"}))
}

func TestAnyInStock(t *testing.T) {
	assert.False(t, anyInStock(nil))
	assert.False(t, anyInStock([]catalog.SizeStock{{Label: "S", InStock: false}}))
	assert.True(t, anyInStock([]catalog.SizeStock{{Label: "S", InStock: false}, {Label: "M", InStock: true}}))
}

func TestComposeReport(t *testing.T) {
	report := composeReport(blazer, []catalog.SizeStock{{Label: "S", InStock: true}, {Label: "M", InStock: false}})

	assert.Equal(t, "STRAIGHT BLAZER is available!\nS: In stock\nM: Not in stock\n"+blazer.URL, report)
}

func TestNoticeLimiter(t *testing.T) {
	unlimited := newNoticeLimiter(0)
	for i := 0; i < 5; i++ {
		assert.True(t, unlimited.Allow(Key{"u", "url"}))
	}

	limited := newNoticeLimiter(time.Hour)
	k1, k2 := Key{"u", "a"}, Key{"u", "b"}
	assert.True(t, limited.Allow(k1))
	assert.False(t, limited.Allow(k1))
	assert.True(t, limited.Allow(k2), "keys are independent")

	limited.Forget(k1)
	assert.True(t, limited.Allow(k1), "a forgotten key starts over")
}

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSizeSet(t *testing.T) {
	assert.Nil(t, NewSizeSet(nil))
	assert.Equal(t, SizeSet{}, NewSizeSet([]string{"", "  "}))
	assert.Equal(t, SizeSet{"S", "M"}, NewSizeSet([]string{" S", "M", "S ", ""}))
}

func TestSizeSet_Equal(t *testing.T) {
	assert.True(t, SizeSet{"S", "M"}.Equal(SizeSet{"M", "S"}))
	assert.True(t, SizeSet{"S", "S"}.Equal(SizeSet{"S"}))
	assert.True(t, SizeSet(nil).Equal(SizeSet{}))
	assert.False(t, SizeSet{"S"}.Equal(SizeSet{"S", "M"}))
	assert.False(t, SizeSet{"S", "L"}.Equal(SizeSet{"S", "M"}))
}

func TestSizeSet_ValueAndScan(t *testing.T) {
	v, err := SizeSet(nil).Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = SizeSet{"S", "M"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["S","M"]`, v)

	var s SizeSet
	require.NoError(t, s.Scan([]byte(`["XL"]`)))
	assert.Equal(t, SizeSet{"XL"}, s)

	require.NoError(t, s.Scan(nil))
	assert.Nil(t, s)

	assert.Error(t, s.Scan(42))
	assert.Error(t, s.Scan("not json"))
}

func TestSizeSet_OrNil(t *testing.T) {
	assert.Nil(t, SizeSet{}.OrNil())
	assert.Equal(t, SizeSet{"S"}, SizeSet{"S"}.OrNil())
}

package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTable(t *testing.T) {
	tbl := DefaultTable()
	require.Equal(t, 11, tbl.Len())

	s, ok := tbl.ByLabel("购方税号")
	require.True(t, ok)
	assert.Equal(t, BuyerTaxID, s.Kind)

	s, ok = tbl.ByLabel(" 价税合计大写 ")
	require.True(t, ok)
	assert.Equal(t, TotalIncludingTaxInWords, s.Kind)

	_, ok = tbl.ByLabel("不存在的字段")
	assert.False(t, ok)

	for _, l := range DefaultSelection {
		_, ok := tbl.ByLabel(l)
		assert.True(t, ok, l)
	}
}

func TestTableIsACopy(t *testing.T) {
	tbl := DefaultTable()
	specs := tbl.Specs()
	specs[0].Label = "changed"

	s, ok := tbl.ByKind(InvoiceNumber)
	require.True(t, ok)
	assert.Equal(t, "发票号码", s.Label)
}

func TestNewResultHasEveryKey(t *testing.T) {
	tbl := DefaultTable()
	r := NewResult(tbl)

	m := r.Map()
	require.Len(t, m, tbl.Len())
	for _, k := range tbl.Kinds() {
		v, ok := m[string(k)]
		assert.True(t, ok, k)
		assert.Nil(t, v, k)
	}
	assert.False(t, r.Usable())
}

func TestResultSet(t *testing.T) {
	r := NewResult(DefaultTable())
	r.Set(SellerName, "  济南公司 ")
	r.Set(Preparer, "   ")
	r.Set(Kind("unknown"), "x")

	require.NotNil(t, r.Get(SellerName))
	assert.Equal(t, "济南公司", *r.Get(SellerName))
	assert.Nil(t, r.Get(Preparer))
	assert.NotContains(t, r.Map(), "unknown")
	assert.True(t, r.Usable())
	assert.Equal(t, 1, r.Found())

	c := r.Clone()
	c.Clear(SellerName)
	assert.Equal(t, "济南公司", r.Value(SellerName))
	assert.Equal(t, "", c.Value(SellerName))
}

func TestAlternateTable(t *testing.T) {
	tbl := NewTable(
		Spec{Kind: InvoiceNumber, Label: "No."},
		Spec{Kind: InvoiceNumber, Label: "dup"},
	)
	assert.Equal(t, 1, tbl.Len())
	assert.Equal(t, []Kind{InvoiceNumber}, tbl.KindsForLabels([]string{"No.", "dup", "x"}))
	assert.Len(t, NewResult(tbl).Keys(), 1)
}

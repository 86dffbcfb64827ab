package parse

import (
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-renamer/internal/fields"
)

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"  a  b ",
		"发票号码：\t123\n\n开票日期：2025年　 03月",
		sampleInvoice,
		"\r\n\r\nx  y\n",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
		for _, ws := range []string{"  ", "\n", "\t", "　"} {
			assert.NotContains(t, once, ws)
		}
	}
}

func TestNormalizeUnicodeWhitespace(t *testing.T) {
	inputs := []string{
		"a\v\vb",
		"a\u2002\u2002b",
		"a \u200ab",
		"a\u0085\u0085b",
		"a\u2028\u2029b",
		"a\u202f\u205f\u3000\u00a0b",
		"\u3000发票号码：\f123\r\n",
	}
	for _, in := range inputs {
		out := Normalize(in)
		prevSpace := false
		for _, r := range out {
			space := unicode.IsSpace(r)
			assert.False(t, space && prevSpace, "consecutive whitespace in %q (input %q)", out, in)
			if space {
				assert.Equal(t, ' ', r, "non-ASCII space left in %q", out)
			}
			prevSpace = space
		}
		assert.Equal(t, strings.TrimSpace(out), out)
		assert.Equal(t, out, Normalize(out))
	}
	assert.Equal(t, "a b", Normalize("a\u2002\u2002b"))
	assert.Equal(t, "发票号码： 123", Normalize("\u3000发票号码：\f123\r\n"))
}

func TestExtractSampleInvoice(t *testing.T) {
	tbl := fields.DefaultTable()
	e := NewExtractor(tbl, nil)
	res := e.Extract(Normalize(sampleInvoice), nil)

	want := map[fields.Kind]string{
		fields.InvoiceNumber:            "25117000000123456789",
		fields.IssueDate:                "2025年03月01日",
		fields.BuyerName:                "武汉东湖学院",
		fields.SellerName:               "济南某某科技有限公司",
		fields.BuyerTaxID:               "52420000123406283N",
		fields.SellerTaxID:              "91420100717918134N",
		fields.TotalAmount:              "94.34",
		fields.TotalTax:                 "5.66",
		fields.TotalIncludingTax:        "100.00",
		fields.TotalIncludingTaxInWords: "壹佰元整",
		fields.Preparer:                 "王丽丽",
	}
	for k, v := range want {
		got := res.Get(k)
		require.NotNil(t, got, k)
		assert.Equal(t, v, *got, k)
	}
}

func TestExtractEveryKeyPresent(t *testing.T) {
	tbl := fields.DefaultTable()
	e := NewExtractor(tbl, nil)

	for _, text := range []string{"", "nothing to see here", Normalize(sampleInvoice)} {
		res := e.Extract(text, []fields.Kind{fields.SellerName})
		m := res.Map()
		assert.Len(t, m, tbl.Len())
		for _, k := range tbl.Kinds() {
			assert.Contains(t, m, string(k))
		}
	}
}

func TestExtractOnlyRequested(t *testing.T) {
	e := NewExtractor(fields.DefaultTable(), nil)
	res := e.Extract(Normalize(sampleInvoice), []fields.Kind{fields.SellerName, fields.IssueDate})

	assert.Equal(t, "济南某某科技有限公司", res.Value(fields.SellerName))
	assert.Equal(t, "2025年03月01日", res.Value(fields.IssueDate))
	assert.Nil(t, res.Get(fields.BuyerName))
	assert.Nil(t, res.Get(fields.TotalAmount))
}

func TestTaxIDPairingIsPositional(t *testing.T) {
	e := NewExtractor(fields.DefaultTable(), nil)
	text := Normalize("统一社会信用代码/纳税人识别号：AAA111\n统一社会信用代码/纳税人识别号:BBB222")
	res := e.Extract(text, nil)
	assert.Equal(t, "AAA111", res.Value(fields.BuyerTaxID))
	assert.Equal(t, "BBB222", res.Value(fields.SellerTaxID))

	res = e.Extract("统一社会信用代码/纳税人识别号：AAA111", nil)
	assert.Equal(t, "AAA111", res.Value(fields.BuyerTaxID))
	assert.Nil(t, res.Get(fields.SellerTaxID))
}

func TestTaxTotalNeedsTwoNumbers(t *testing.T) {
	e := NewExtractor(fields.DefaultTable(), nil)
	res := e.Extract(Normalize("合 计 ¥94.34\n价税合计（大写）壹佰元整"), nil)
	assert.Equal(t, "94.34", res.Value(fields.TotalAmount))
	assert.Nil(t, res.Get(fields.TotalTax))

	res = e.Extract("合计 94.34 * 5.66", nil)
	assert.Equal(t, "5.66", res.Value(fields.TotalTax))

	// a later digit pair must not be read as the tax
	res = e.Extract(Normalize("合 计 ¥94.34\n价税合计（大写） 壹佰圆整 （小写）¥100.00\n备 注 银行账号：6222 0210 0101\n开票人：王丽丽"), nil)
	assert.Equal(t, "94.34", res.Value(fields.TotalAmount))
	assert.Nil(t, res.Get(fields.TotalTax))
	assert.Equal(t, "100.00", res.Value(fields.TotalIncludingTax))
}

func TestTotalFormsDoNotOverlap(t *testing.T) {
	e := NewExtractor(fields.DefaultTable(), nil)

	res := e.Extract("价税合计（大写）壹佰元整", nil)
	assert.Nil(t, res.Get(fields.TotalIncludingTax))
	assert.Equal(t, "壹佰元整", res.Value(fields.TotalIncludingTaxInWords))

	res = e.Extract("价税合计 （小写）¥100.00", nil)
	assert.Equal(t, "100.00", res.Value(fields.TotalIncludingTax))
	assert.Nil(t, res.Get(fields.TotalIncludingTaxInWords))
}

func TestExtractLineItems(t *testing.T) {
	items := ExtractLineItems(sampleInvoice)
	require.Len(t, items, 1)
	assert.Equal(t, LineItem{
		Name:      "*餐饮服务*餐费",
		Spec:      "无",
		Unit:      "次",
		Quantity:  "1",
		UnitPrice: "94.34",
		Amount:    "94.34",
		TaxRate:   "6%",
		TaxAmount: "5.66",
	}, items[0])

	assert.Empty(t, ExtractLineItems(strings.ReplaceAll(sampleInvoice, "项目名称", "")))
}

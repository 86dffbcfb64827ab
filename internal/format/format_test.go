package format

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-renamer/internal/fields"
)

func sampleResult() fields.Result {
	res := fields.NewResult(fields.DefaultTable())
	res.Set(fields.SellerName, "济南公司")
	res.Set(fields.TotalAmount, "94.34")
	res.Set(fields.Preparer, "王丽丽")
	return res
}

func TestFormatByFieldsKeepsOrderAndDuplicates(t *testing.T) {
	f := NewFormatter(fields.DefaultTable(), nil)
	vals := f.FormatByFields(sampleResult(), []string{"合计", "销方名称", "合计"})

	require.Len(t, vals, 3)
	assert.Equal(t, "合计", vals[0].Label)
	assert.Equal(t, "销方名称", vals[1].Label)
	assert.Equal(t, "94.34_济南公司_94.34", Join(vals, "_"))
}

func TestFormatByFieldsUnknownLabel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	f := NewFormatter(fields.DefaultTable(), logger)

	vals := f.FormatByFields(sampleResult(), []string{"销方名称", "备注"})
	require.Len(t, vals, 2)
	assert.Nil(t, vals[1].Value)
	assert.Equal(t, "备注", vals[1].Label)
	assert.Contains(t, buf.String(), "format.unknown_label")
}

func TestJoinRendersNilAsEmpty(t *testing.T) {
	f := NewFormatter(fields.DefaultTable(), nil)
	vals := f.FormatByFields(sampleResult(), []string{"销方名称", "开票日期", "开票人"})
	assert.Equal(t, "济南公司__王丽丽", Join(vals, "_"))
	assert.Equal(t, []string{"济南公司", "", "王丽丽"}, Strings(vals))
}

func TestJoinEmpty(t *testing.T) {
	assert.Equal(t, "", Join(nil, "_"))
}

package report

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/invoice-renamer/internal/fields"
	"github.com/joseph-ayodele/invoice-renamer/internal/parse"
)

func strp(s string) *string { return &s }

func sampleRows() []Row {
	return []Row{
		{
			RunID:  "run-1",
			Source: "scan001.pdf",
			Backup: "/tmp/rename_1/scan001.pdf",
			Final:  "济南公司_2025年03月01日_94.34.pdf",
			Status: "RENAMED",
			State:  "regex_on_direct_text",
			Joined: "济南公司_2025年03月01日_94.34",
			Values: map[string]*string{
				"seller_name":  strp("济南公司"),
				"issue_date":   strp("2025年03月01日"),
				"total_amount": strp("94.34"),
				"preparer":     nil,
			},
			Items: []parse.LineItem{{Name: "*餐饮服务*餐费", Unit: "次", Quantity: "1", UnitPrice: "94.34", Amount: "94.34", TaxRate: "6%", TaxAmount: "5.66"}},
		},
		{
			RunID:  "run-1",
			Source: "notes.txt",
			Backup: "/tmp/rename_1/notes.txt",
			Status: "FAILED",
			Err:    "unsupported",
		},
	}
}

func TestJournalAppendAndRead(t *testing.T) {
	ctx := context.Background()
	j, err := OpenJournal(ctx, filepath.Join(t.TempDir(), "rename_journal.db"), nil)
	require.NoError(t, err)
	defer func() { _ = j.Close() }()

	for _, r := range sampleRows() {
		require.NoError(t, j.Record(ctx, r))
	}
	require.NoError(t, j.Record(ctx, Row{RunID: "run-2", Source: "x.pdf", Backup: "b", Status: "RENAMED"}))

	rows, err := j.Rows(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "scan001.pdf", rows[0].Source)
	require.NotNil(t, rows[0].Values["seller_name"])
	assert.Equal(t, "济南公司", *rows[0].Values["seller_name"])
	assert.Nil(t, rows[0].Values["preparer"])
	require.Len(t, rows[0].Items, 1)
	assert.Equal(t, "5.66", rows[0].Items[0].TaxAmount)
	assert.Equal(t, "unsupported", rows[1].Err)
	assert.False(t, rows[1].At.IsZero())

	all, err := j.Rows(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestJournalIsAppendOnly(t *testing.T) {
	ctx := context.Background()
	j, err := OpenJournal(ctx, filepath.Join(t.TempDir(), "j.db"), nil)
	require.NoError(t, err)
	defer func() { _ = j.Close() }()
	require.NoError(t, j.Record(ctx, sampleRows()[0]))

	_, err = j.db.ExecContext(ctx, `UPDATE renames SET status = 'FAILED'`)
	assert.Error(t, err)
	_, err = j.db.ExecContext(ctx, `DELETE FROM renames`)
	assert.Error(t, err)

	rows, err := j.Rows(ctx, "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "RENAMED", rows[0].Status)
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rename_report.xlsx")
	labels := []string{"销方名称", "开票日期", "合计"}
	require.NoError(t, WriteXLSX(path, fields.DefaultTable(), labels, sampleRows(), nil))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{"Renames", "Items"}, f.GetSheetList())

	rows, err := f.GetRows("Renames")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"原文件名", "新文件名", "状态", "提取方式", "销方名称", "开票日期", "合计", "错误"}, rows[0])
	assert.Equal(t, "济南公司", rows[1][4])
	assert.Equal(t, "94.34", rows[1][6])
	assert.Equal(t, "unsupported", rows[2][7])

	items, err := f.GetRows("Items")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "济南公司_2025年03月01日_94.34.pdf", items[1][0])
	assert.Equal(t, "*餐饮服务*餐费", items[1][1])
}

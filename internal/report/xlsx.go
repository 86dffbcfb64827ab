package report

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/invoice-renamer/internal/fields"
)

const (
	renamesSheet = "Renames"
	itemsSheet   = "Items"
)

// WriteXLSX writes a workbook with one row per document and, on a second
// sheet, every line item found. Columns follow labels, in order.
func WriteXLSX(path string, table fields.Table, labels []string, rows []Row, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()

	f := excelize.NewFile()
	defer func(f *excelize.File) {
		_ = f.Close()
	}(f)

	// rename the default sheet instead of leaving an empty "Sheet1"
	if err := f.SetSheetName("Sheet1", renamesSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(itemsSheet); err != nil {
		return err
	}
	activeIndex, _ := f.GetSheetIndex(renamesSheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{"原文件名", "新文件名", "状态", "提取方式"}
	headers = append(headers, labels...)
	headers = append(headers, "错误")
	writeRow(f, renamesSheet, 1, headers)

	for i, r := range rows {
		cells := []string{r.Source, r.Final, r.Status, r.State}
		for _, l := range labels {
			v := ""
			if s, ok := table.ByLabel(l); ok {
				if p := r.Values[string(s.Kind)]; p != nil {
					v = *p
				}
			}
			cells = append(cells, v)
		}
		cells = append(cells, r.Err)
		writeRow(f, renamesSheet, i+2, cells)
	}

	_ = f.SetColWidth(renamesSheet, "A", "B", 40)
	_ = f.SetColWidth(renamesSheet, "C", "D", 18)
	if last, err := excelize.ColumnNumberToName(len(headers)); err == nil && len(labels) > 0 {
		_ = f.SetColWidth(renamesSheet, "E", last, 24)
	}

	writeRow(f, itemsSheet, 1, []string{"文件", "项目名称", "规格型号", "单位", "数量", "单价", "金额", "税率", "税额"})
	line := 2
	for _, r := range rows {
		name := r.Final
		if name == "" {
			name = r.Source
		}
		for _, it := range r.Items {
			writeRow(f, itemsSheet, line, []string{name, it.Name, it.Spec, it.Unit, it.Quantity, it.UnitPrice, it.Amount, it.TaxRate, it.TaxAmount})
			line++
		}
	}
	_ = f.SetColWidth(itemsSheet, "A", "B", 36)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	logger.Info("report.xlsx.ok",
		"path", path,
		"rows", len(rows),
		"items", line-2,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []string) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

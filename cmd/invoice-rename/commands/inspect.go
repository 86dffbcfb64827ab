package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/invoice-renamer/cmd/invoice-rename/ui"
	"github.com/joseph-ayodele/invoice-renamer/internal/cascade"
	"github.com/joseph-ayodele/invoice-renamer/internal/common"
	"github.com/joseph-ayodele/invoice-renamer/internal/fields"
	"github.com/joseph-ayodele/invoice-renamer/internal/parse"
	"github.com/joseph-ayodele/invoice-renamer/internal/rename"
)

var (
	inspectFile  string
	inspectItems bool
	inspectOCR   bool
	inspectFlags extractionFlags
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Run the extraction cascade on one file and print what it found",
	Long:  "inspect never renames or copies anything; it shows the fields, the stages tried and the name a rename would pick.",
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().StringVarP(&inspectFile, "file", "f", "", "invoice file (required)")
	inspectCmd.Flags().BoolVar(&inspectItems, "items", false, "also print the line items table")
	inspectCmd.Flags().BoolVar(&inspectOCR, "ocr", false, "also print the OCR text (or why OCR failed)")
	inspectFlags.register(inspectCmd)
	_ = inspectCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	if st, err := os.Stat(inspectFile); err != nil || st.IsDir() {
		return common.NewAppError(common.CodeIO, "file not found: "+inspectFile, common.ErrNotFound)
	}
	cfg, err := inspectFlags.loadSettings(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	table := fields.DefaultTable()
	cas, err := buildCascade(cfg, table, logger)
	if err != nil {
		return err
	}

	sp := ui.NewSpinner("提取中：" + filepath.Base(inspectFile))
	sp.Start()
	out := cas.Run(ctx, inspectFile)
	sp.Stop()

	trail := make([]string, len(out.Trail))
	for i, st := range out.Trail {
		trail[i] = st.String()
	}

	ui.Section(filepath.Base(inspectFile))
	ui.Info("提取方式：%s", out.State)
	ui.Info("经过阶段：%s", strings.Join(trail, " -> "))
	if out.SecondChance {
		ui.Warning("文件名异常，已重新提取一次")
	}
	for _, v := range out.Values {
		ui.KeyValue(v.Label, v.Value)
	}
	base := strings.TrimSpace(rename.SanitizeFilename(out.Joined))
	if base == "" {
		ui.Warning("未提取到字段，新文件名：%s%s", rename.UnnamedBase, filepath.Ext(inspectFile))
	} else {
		ui.Success("新文件名：%s%s", base, filepath.Ext(inspectFile))
	}

	if inspectItems {
		printItems(parse.ExtractLineItems(out.Text()))
	}
	if inspectOCR {
		ui.Section("OCR")
		fmt.Println(ocrText(ctx, cfg, out, inspectFile))
	}
	return nil
}

// ocrText reuses the cascade's OCR text when it ran; otherwise OCR runs now
// and a failure comes back as a descriptive line instead of an error.
func ocrText(ctx context.Context, cfg *common.Config, out cascade.Outcome, path string) string {
	if strings.TrimSpace(out.OCRText) != "" {
		return out.OCRText
	}
	return newOCR(cfg, logger).ExtractText(ctx, path)
}

func printItems(items []parse.LineItem) {
	if len(items) == 0 {
		ui.Info("未识别到明细行")
		return
	}
	rows := make([][]string, len(items))
	for i, it := range items {
		rows[i] = []string{it.Name, it.Spec, it.Unit, it.Quantity, it.UnitPrice, it.Amount, it.TaxRate, it.TaxAmount}
	}
	ui.Section("明细")
	ui.Table([]string{"项目名称", "规格型号", "单位", "数量", "单价", "金额", "税率", "税额"}, rows)
}

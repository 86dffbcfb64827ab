package commands

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/invoice-renamer/internal/fields"
	"github.com/joseph-ayodele/invoice-renamer/internal/rename"
)

var renameCmd = &cobra.Command{
	Use:   "rename",
	Short: "Back up a directory of invoices and rename the copies",
	Example: `  invoice-rename rename --dir ./invoices
  invoice-rename rename --dir ./invoices --fields 销方名称,开票日期,合计 --sep _ --dedupe --report`,
	RunE: runRename,
}

var (
	renameDir    string
	renameDedupe bool
	renameReport bool
	renameFlags  extractionFlags
)

func init() {
	renameCmd.Flags().StringVarP(&renameDir, "dir", "d", "", "source directory of invoices (required)")
	renameCmd.Flags().BoolVar(&renameDedupe, "dedupe", false, "delete byte-identical copies in the backup before renaming")
	renameCmd.Flags().BoolVar(&renameReport, "report", false, "write rename_report.xlsx into the backup directory")
	renameFlags.register(renameCmd)
	_ = renameCmd.MarkFlagRequired("dir")
	rootCmd.AddCommand(renameCmd)
}

func runRename(cmd *cobra.Command, args []string) error {
	cfg, err := renameFlags.loadSettings(cmd)
	if err != nil {
		return err
	}
	src, err := filepath.Abs(renameDir)
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
	pipe := rename.NewPipeline(cas, table, logger)

	s := startSession(ctx, pipe)
	submitErr := s.submit(ctx, rename.Request{
		Source:  src,
		Labels:  cfg.Rename.Fields,
		Dedupe:  renameDedupe,
		Journal: true,
		Report:  renameReport,
	})
	_, err = s.finish()
	if submitErr != nil {
		return submitErr
	}
	return err
}

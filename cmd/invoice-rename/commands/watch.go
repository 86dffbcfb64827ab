package commands

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/invoice-renamer/cmd/invoice-rename/ui"
	"github.com/joseph-ayodele/invoice-renamer/internal/fields"
	"github.com/joseph-ayodele/invoice-renamer/internal/ingest"
	"github.com/joseph-ayodele/invoice-renamer/internal/rename"
)

var (
	watchDir      string
	watchInitial  bool
	watchDebounce time.Duration
	watchReport   bool
	watchFlags    extractionFlags
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rename new invoices as they land in a directory",
	Long: `watch runs one rename batch per burst of new files. Each batch gets its own
backup directory holding only the new files; the originals stay where they are.
Stop with Ctrl+C.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchDir, "dir", "d", "", "directory to watch (required)")
	watchCmd.Flags().BoolVar(&watchInitial, "initial", false, "also process the invoices already present")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 2*time.Second, "quiet period before a batch starts")
	watchCmd.Flags().BoolVar(&watchReport, "report", false, "write rename_report.xlsx for every batch")
	watchFlags.register(watchCmd)
	_ = watchCmd.MarkFlagRequired("dir")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := watchFlags.loadSettings(cmd)
	if err != nil {
		return err
	}
	src, err := filepath.Abs(watchDir)
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

	batches, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Root:        src,
		InitialScan: watchInitial,
		Debounce:    watchDebounce,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	ui.Info("监控目录：%s（Ctrl+C 退出）", src)

	s := startSession(ctx, pipe)
	for batches != nil || errs != nil {
		select {
		case paths, ok := <-batches:
			if !ok {
				batches = nil
				continue
			}
			only := make([]string, len(paths))
			for i, p := range paths {
				only[i] = filepath.Base(p)
			}
			ui.Step("检测到%d个新文件", len(only))
			if err := s.submit(ctx, rename.Request{
				Source:  src,
				Labels:  cfg.Rename.Fields,
				Journal: true,
				Report:  watchReport,
				Only:    only,
			}); err != nil {
				logger.Warn("watch.submit_failed", "error", err)
			}
		case werr, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			ui.Error("监控出错：%v", werr)
		}
	}

	results, err := s.finish()
	ui.Info("已退出监控，共处理%d批", len(results))
	if ctx.Err() != nil {
		return nil
	}
	return err
}

package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/invoice-renamer/cmd/invoice-rename/ui"
	"github.com/joseph-ayodele/invoice-renamer/internal/dedupe"
)

var dedupeDir string

var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Delete byte-identical duplicates in a directory, keeping the first of each",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		sp := ui.NewSpinner("检测重复文件：" + dedupeDir)
		sp.Start()
		rep, err := dedupe.NewFilter(logger).Run(ctx, dedupeDir)
		sp.Stop()
		if err != nil {
			return err
		}

		for _, name := range rep.Removed {
			ui.Step("已删除：%s", name)
		}
		for name, ferr := range rep.Failed {
			ui.Error("%s: %v", name, ferr)
		}
		ui.Success("%s", rep.Message())
		return nil
	},
}

func init() {
	dedupeCmd.Flags().StringVarP(&dedupeDir, "dir", "d", "", "directory to deduplicate in place (required)")
	_ = dedupeCmd.MarkFlagRequired("dir")
	rootCmd.AddCommand(dedupeCmd)
}

// Package commands holds the cobra command tree of invoice-rename.
package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/invoice-renamer/cmd/invoice-rename/ui"
)

var (
	cfgFile   string
	verbose   bool
	logFormat string
	noColor   bool

	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "invoice-rename",
	Short: "Rename invoice PDFs and images after the fields printed on them",
	Long: `invoice-rename copies a directory of invoices into a fresh backup directory
and renames every copy after fields read from the document: the PDF text layer
first, then OCR and a language model, with a vision model as the last resort.
The originals are never touched.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		ui.Init(noColor)
		l, err := newLogger(verbose, logFormat)
		if err != nil {
			return err
		}
		logger = l
		slog.SetDefault(l)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (.json or .yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text or json")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// newLogger writes to stderr so stdout carries only result lines.
func newLogger(verbose bool, format string) (*slog.Logger, error) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (want text or json)", format)
	}
}

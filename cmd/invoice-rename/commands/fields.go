package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/invoice-renamer/cmd/invoice-rename/ui"
	"github.com/joseph-ayodele/invoice-renamer/internal/fields"
)

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "List the field labels that --fields accepts",
	RunE: func(cmd *cobra.Command, args []string) error {
		table := fields.DefaultTable()
		rows := make([][]string, 0, table.Len())
		for _, s := range table.Specs() {
			rows = append(rows, []string{s.Label, string(s.Kind), s.Description})
		}
		ui.Table([]string{"字段", "键", "说明"}, rows)
		ui.Info("默认：%s", strings.Join(fields.DefaultSelection, ","))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fieldsCmd)
}

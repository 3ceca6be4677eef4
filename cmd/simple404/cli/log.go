package cli

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/pandeptwidyaop/simple404/internal/notfound"
	"github.com/pandeptwidyaop/simple404/internal/options"
)

var logAsJSON bool

func init() {
	logCmd.Flags().BoolVar(&logAsJSON, "json", false, "print rows as JSON")
	rootCmd.AddCommand(logCmd)
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Print the 404 log",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, database, err := bootstrap()
		if err != nil {
			return err
		}

		renderer := notfound.NewRenderer(options.NewGormStore(database), cfg.NotFound.OptionName, displayFormats(cfg.Display))
		rows, err := renderer.Render(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if logAsJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(rows)
		}

		fmt.Fprintln(out, renderLogTable(rows))
		return nil
	},
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	noteStyle   = lipgloss.NewStyle().Faint(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// renderLogTable draws the log with the same columns as the admin page.
func renderLogTable(rows []notfound.Row) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("URL", "IP Address", "Most recent access time").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for _, r := range rows {
		t.Row(r.URL, r.ClientAddress, r.LastAccess)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("404 Log"),
		noteStyle.Render("For performance reasons, only the latest 404 error is logged for each URL."),
		t.Render(),
	)
}

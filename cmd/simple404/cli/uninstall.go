package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pandeptwidyaop/simple404/internal/options"
)

var uninstallConfirmed bool

func init() {
	uninstallCmd.Flags().BoolVar(&uninstallConfirmed, "yes", false, "confirm deleting the recorded log")
	rootCmd.AddCommand(uninstallCmd)
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Delete the recorded 404 log",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if !uninstallConfirmed {
			return fmt.Errorf("refusing to delete the 404 log without --yes")
		}

		cfg, database, err := bootstrap()
		if err != nil {
			return err
		}

		if err := options.NewGormStore(database).Delete(cmd.Context(), cfg.NotFound.OptionName); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Deleted option %q\n", cfg.NotFound.OptionName)
		return nil
	},
}

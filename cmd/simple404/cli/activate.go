package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pandeptwidyaop/simple404/internal/auth"
	"github.com/pandeptwidyaop/simple404/internal/options"
)

func init() {
	rootCmd.AddCommand(activateCmd)
}

var activateCmd = &cobra.Command{
	Use:   "activate",
	Short: "Create the database tables, the log option and the admin user",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, database, err := bootstrap()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if err := options.Activate(ctx, options.NewGormStore(database), cfg.NotFound.OptionName); err != nil {
			return err
		}

		if cfg.Auth.AdminPassword != "" {
			if err := auth.NewUserService(database).EnsureAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword); err != nil {
				return err
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Activated option %q\n", cfg.NotFound.OptionName)
		return nil
	},
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pandeptwidyaop/simple404/internal/auth"
	"github.com/pandeptwidyaop/simple404/internal/db/models"
)

var (
	newUsername string
	newPassword string
	newRole     string
	enableTOTP  bool
)

func init() {
	userCreateCmd.Flags().StringVar(&newUsername, "username", "", "login name")
	userCreateCmd.Flags().StringVar(&newPassword, "password", "", "password")
	userCreateCmd.Flags().StringVar(&newRole, "role", string(models.RoleAdministrator), "administrator or viewer")
	userCreateCmd.Flags().BoolVar(&enableTOTP, "totp", false, "enable two-factor login and print the enrollment URL")
	_ = userCreateCmd.MarkFlagRequired("username")
	_ = userCreateCmd.MarkFlagRequired("password")

	userCmd.AddCommand(userCreateCmd)
	rootCmd.AddCommand(userCmd)
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage admin users",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an admin user",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, database, err := bootstrap()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		users := auth.NewUserService(database)

		user, err := users.Create(ctx, newUsername, newPassword, models.Role(newRole))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Created user %q (%s)\n", user.Username, user.Role)

		if enableTOTP {
			url, err := users.EnableTOTP(ctx, user.Username, "simple404")
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Add this account to your authenticator app:\n%s\n", url)
		}

		return nil
	},
}

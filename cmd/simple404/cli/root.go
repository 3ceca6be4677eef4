package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pandeptwidyaop/simple404/internal/version"
)

var configPath string

// SetVersion sets the version information
func SetVersion(v, b, g string) {
	version.Set(v, b, g)
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "simple404",
	Short: "Record and review 404 requests",
	Long: `simple404 serves a static site, records the latest request for every URL
that ended in a 404, and shows the log on an admin page.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/simple404.yaml", "path to config file")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			info := version.GetVersion()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "simple404\n")
			fmt.Fprintf(out, "  Version:    %s\n", info.Version)
			fmt.Fprintf(out, "  Build Time: %s\n", info.BuildDate)
			fmt.Fprintf(out, "  Git Commit: %s\n", info.GitCommit)
			fmt.Fprintf(out, "  Go Version: %s\n", info.GoVersion)
		},
	})
}

package cli

import (
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/geodex/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("geodexctl version %s\n", version.Describe(appVersion))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Set at build time with
// -ldflags "-X github.com/spigell/interview-screener/cmd.version=... -X github.com/spigell/interview-screener/cmd.commit=...".
var (
	version = "unknown"
	commit  = "none"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and build commit",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), versionString())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func versionString() string {
	return fmt.Sprintf("%s version: %s (commit %s)", app, version, commit)
}

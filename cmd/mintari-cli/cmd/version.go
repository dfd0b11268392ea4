package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nfrund/mintari/internal/config"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of Mintari CLI",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "Mintari CLI v%s\n", config.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nfrund/mintari/cmd/mintari-cli/internal/output"
	"github.com/nfrund/mintari/internal/ipfs"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List the storage provider chain",
	Long: `List the storage providers in the order uploads try them, and whether
each one has the credentials it needs.

Examples:
  mintari-cli providers
  mintari-cli providers --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		providers := ipfs.NewFromConfig(cfg.Storage, nil).Providers()

		if outputFormat == "json" {
			return output.JSON(cmd.OutOrStdout(), providers)
		}
		t := output.Table{Headers: []string{"ORDER", "NAME", "CONFIGURED"}}
		for i, p := range providers {
			configured := "no"
			if p.Configured {
				configured = "yes"
			}
			t.Rows = append(t.Rows, []string{strconv.Itoa(i + 1), p.Name, configured})
		}
		return t.Write(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(providersCmd)
}

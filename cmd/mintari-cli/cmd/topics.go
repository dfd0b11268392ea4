package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/nfrund/mintari/cmd/mintari-cli/internal/output"
	"github.com/nfrund/mintari/internal/pubsub"
)

// topicsCmd represents the topics command
var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "List the event bus topics",
	Long: `List every topic published on the in-process event bus, with the
payload each one carries. The WebSocket analytics feed relays these payloads.

Examples:
  mintari-cli topics
  mintari-cli topics --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		topics := pubsub.Topics()
		if outputFormat == "json" {
			return output.JSON(cmd.OutOrStdout(), topics)
		}
		t := output.Table{
			Headers: []string{"NAME", "PAYLOAD", "DESCRIPTION", "FIELDS"},
			Empty:   "No topics found",
		}
		for _, topic := range topics {
			t.Rows = append(t.Rows, []string{
				topic.Name,
				topic.PayloadType,
				output.Truncate(topic.Description, 40),
				output.Truncate(strings.Join(topic.PayloadFields, ","), 50),
			})
		}
		return t.Write(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(topicsCmd)
}

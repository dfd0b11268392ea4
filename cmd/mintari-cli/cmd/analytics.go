package cmd

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/nfrund/mintari/cmd/mintari-cli/internal/output"
	"github.com/nfrund/mintari/internal/analytics"
)

var (
	eventsSponsor string
	pruneDays     int
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Inspect and prune sponsor analytics",
	Long: `The analytics command reads the sponsor event log the server persists
in its key/value store (KV_DIR, or Redis when REDIS_ADDR is set).

Available subcommands:
  summary   Totals per event type and sponsor
  events    List recorded events
  prune     Remove events older than a number of days

Examples:
  mintari-cli analytics summary
  mintari-cli analytics events --sponsor flowty
  mintari-cli analytics prune --days 30`,
}

// withTracker runs fn against a tracker loaded from the configured store.
func withTracker(cmd *cobra.Command, fn func(ctx context.Context, t *analytics.Tracker) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	return fn(ctx, analytics.NewTracker(ctx, store, nil, nil))
}

var analyticsSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show totals per event type and sponsor",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTracker(cmd, func(ctx context.Context, t *analytics.Tracker) error {
			s := t.Summary()
			w := cmd.OutOrStdout()
			if outputFormat == "json" {
				return output.JSON(w, s)
			}

			fmt.Fprintf(w, "Total events:     %d\n", s.TotalEvents)
			fmt.Fprintf(w, "Unique sponsors:  %d\n", s.UniqueSponsors)
			fmt.Fprintf(w, "Conversion rate:  %.1f%%\n\n", s.ConversionRate)

			types := output.Table{Headers: []string{"EVENT", "COUNT"}, Empty: "No events recorded"}
			for _, k := range sortedKeys(s.EventsByType) {
				types.Rows = append(types.Rows, []string{output.Title(k), strconv.Itoa(s.EventsByType[k])})
			}
			if err := types.Write(w); err != nil {
				return err
			}
			if len(s.TopSponsors) == 0 {
				return nil
			}

			fmt.Fprintln(w)
			sponsors := output.Table{Headers: []string{"SPONSOR", "EVENTS"}}
			for _, k := range sortedKeys(s.TopSponsors) {
				sponsors.Rows = append(sponsors.Rows, []string{k, strconv.Itoa(s.TopSponsors[k])})
			}
			return sponsors.Write(w)
		})
	},
}

var analyticsEventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List recorded events, optionally for one sponsor",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTracker(cmd, func(ctx context.Context, t *analytics.Tracker) error {
			events := t.Events()
			if eventsSponsor != "" {
				events = t.SponsorEvents(eventsSponsor)
			}
			if outputFormat == "json" {
				return output.JSON(cmd.OutOrStdout(), events)
			}

			table := output.Table{
				Headers: []string{"TIME", "SPONSOR", "EVENT", "USER"},
				Empty:   "No events found",
			}
			for _, ev := range events {
				user := ev.UserAddress
				if user == "" {
					user = "-"
				}
				table.Rows = append(table.Rows, []string{
					time.UnixMilli(ev.Timestamp).UTC().Format(time.RFC3339),
					ev.SponsorName,
					output.Title(string(ev.EventType)),
					output.Truncate(user, 20),
				})
			}
			return table.Write(cmd.OutOrStdout())
		})
	},
}

var analyticsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove events older than --days",
	RunE: func(cmd *cobra.Command, args []string) error {
		if pruneDays <= 0 {
			return fmt.Errorf("--days must be a positive integer")
		}
		return withTracker(cmd, func(ctx context.Context, t *analytics.Tracker) error {
			removed := t.ClearOld(ctx, pruneDays)
			if outputFormat == "json" {
				return output.JSON(cmd.OutOrStdout(), map[string]int{"removed": removed, "remaining": len(t.Events())})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d events, %d remaining\n", removed, len(t.Events()))
			return nil
		})
	},
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func init() {
	analyticsEventsCmd.Flags().StringVar(&eventsSponsor, "sponsor", "", "Only show events for this sponsor id")
	analyticsPruneCmd.Flags().IntVar(&pruneDays, "days", 30, "Retention in days")

	analyticsCmd.AddCommand(analyticsSummaryCmd, analyticsEventsCmd, analyticsPruneCmd)
	rootCmd.AddCommand(analyticsCmd)
}

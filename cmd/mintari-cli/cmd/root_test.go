package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/mintari/internal/pubsub"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		outputFormat = "table"
		rootCmd.SetArgs(nil)
	})
	require.NoError(t, rootCmd.Execute(), out.String())
	return out.String()
}

func TestVersion(t *testing.T) {
	assert.Equal(t, "Mintari CLI vdev\n", run(t, "version"))
}

func TestTopics(t *testing.T) {
	t.Run("table", func(t *testing.T) {
		out := run(t, "topics")
		assert.Contains(t, out, "NAME")
		assert.Contains(t, out, "analytics.sponsor.event")
	})

	t.Run("json", func(t *testing.T) {
		var topics []pubsub.TopicInfo
		require.NoError(t, json.Unmarshal([]byte(run(t, "topics", "--format", "json")), &topics))
		require.NotEmpty(t, topics)
	})
}

func TestAnalyticsSummaryOnEmptyStore(t *testing.T) {
	t.Setenv("KV_DIR", t.TempDir())
	out := run(t, "analytics", "summary")
	assert.Contains(t, out, "Total events:     0")
	assert.Contains(t, out, "No events recorded")
}

func TestAnalyticsPruneRejectsBadDays(t *testing.T) {
	rootCmd.SetArgs([]string{"analytics", "prune", "--days", "0"})
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	t.Cleanup(func() { pruneDays = 30 })
	assert.ErrorContains(t, rootCmd.Execute(), "--days must be a positive integer")
}

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/nfrund/mintari/internal/config"
	"github.com/nfrund/mintari/internal/kv"
	"github.com/nfrund/mintari/internal/logging"
)

var (
	outputFormat string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "mintari-cli",
	Short: "Mintari CLI tool",
	Long: `Mintari CLI is a command-line interface for operating a Mintari deployment.

It reads the same environment (and .env file) as the server.

Available commands:
  version     Print the version
  providers   List the storage provider chain
  upload      Upload a file through the provider chain
  analytics   Inspect and prune sponsor analytics
  topics      List the event bus topics

Use "mintari-cli [command] --help" for more information about a specific command.`,
	SilenceUsage: true,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "table", "Output format (table, json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at the configured LOG_LEVEL instead of warn")
}

// loadConfig reads configuration and quiets slog below warn unless
// --verbose is set, so command output stays machine readable.
func loadConfig() (*config.Config, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, err
	}
	logCfg := cfg.Log
	logCfg.File = ""
	if !verbose {
		logCfg.Level = "warn"
	}
	logging.New(logCfg)
	return cfg, nil
}

// openStore opens the key/value store the server uses.
func openStore(ctx context.Context, cfg *config.Config) (kv.Store, func(), error) {
	if cfg.Redis.Addr != "" {
		s, err := kv.NewRedisStore(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	}
	s, err := kv.NewFileStore(afero.NewOsFs(), cfg.KVDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open kv store: %w", err)
	}
	return s, func() {}, nil
}

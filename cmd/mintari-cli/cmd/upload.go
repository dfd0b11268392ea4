package cmd

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/nfrund/mintari/cmd/mintari-cli/internal/output"
	"github.com/nfrund/mintari/internal/ipfs"
)

var (
	uploadLocalFallback bool
	uploadTimeout       time.Duration
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a file through the storage provider chain",
	Long: `Upload a file to decentralized storage. Providers are tried in order
(Walrus, Pinata, Web3.Storage, NFT.Storage) and the first success wins.

Examples:
  mintari-cli upload ./art.png
  mintari-cli upload ./art.png --local-fallback
  mintari-cli upload ./art.png --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		path := args[0]
		data, err := afero.ReadFile(afero.NewOsFs(), path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		file := ipfs.File{
			Name:        filepath.Base(path),
			ContentType: http.DetectContentType(data),
			Data:        data,
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), uploadTimeout)
		defer cancel()

		uploader := ipfs.NewFromConfig(cfg.Storage, nil)
		var res ipfs.Result
		if uploadLocalFallback {
			res, err = uploader.UploadWithLocalFallback(ctx, file)
		} else {
			res, err = uploader.Upload(ctx, file)
		}
		if err != nil {
			return err
		}

		if outputFormat == "json" {
			return output.JSON(cmd.OutOrStdout(), res)
		}
		t := output.Table{
			Headers: []string{"PROVIDER", "HASH", "URL"},
			Rows:    [][]string{{res.Provider, output.Truncate(res.Hash, 24), res.URL}},
		}
		return t.Write(cmd.OutOrStdout())
	},
}

func init() {
	uploadCmd.Flags().BoolVar(&uploadLocalFallback, "local-fallback", false, "Return a local reference when every provider fails")
	uploadCmd.Flags().DurationVar(&uploadTimeout, "timeout", 2*time.Minute, "Overall upload timeout")
	rootCmd.AddCommand(uploadCmd)
}

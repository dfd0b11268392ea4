package ipfs

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nfrund/mintari/internal/config"
	"github.com/nfrund/mintari/internal/metrics"
)

// LocalProviderName tags results produced by the inline data URL fallback.
const LocalProviderName = "Local Base64"

// Uploader runs a file through an ordered list of providers.
type Uploader struct {
	providers []Provider
	walrus    *WalrusClient
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewUploader creates an Uploader over providers, tried in the given order.
func NewUploader(m *metrics.Metrics, providers ...Provider) *Uploader {
	u := &Uploader{providers: providers, metrics: m, now: time.Now}
	for _, p := range providers {
		if w, ok := p.(*WalrusClient); ok {
			u.walrus = w
			break
		}
	}
	return u
}

// NewFromConfig builds the standard Walrus, Pinata, Web3Storage, NFTStorage chain.
func NewFromConfig(cfg config.StorageConfig, m *metrics.Metrics) *Uploader {
	return NewUploader(m,
		NewWalrusClient(cfg.WalrusPublisherURL, cfg.WalrusAggregatorURL, cfg.WalrusAPIKey),
		NewPinata(cfg.PinataAPIKey, cfg.PinataSecretKey),
		NewWeb3Storage(cfg.Web3StorageToken),
		NewNFTStorage(cfg.NFTStorageToken),
	)
}

// ProviderStatus reports whether a provider in the chain is usable.
type ProviderStatus struct {
	Name       string `json:"name"`
	Configured bool   `json:"configured"`
}

// Providers lists the chain in order.
func (u *Uploader) Providers() []ProviderStatus {
	out := make([]ProviderStatus, 0, len(u.providers))
	for _, p := range u.providers {
		out = append(out, ProviderStatus{Name: p.Name(), Configured: p.Configured()})
	}
	return out
}

// Walrus returns the Walrus client in the chain, or nil.
func (u *Uploader) Walrus() *WalrusClient {
	return u.walrus
}

// Upload returns the first successful provider result. When every provider
// fails the error wraps ErrAllProvidersFailed and each provider's error.
func (u *Uploader) Upload(ctx context.Context, f File) (Result, error) {
	errs := []error{ErrAllProvidersFailed}
	for _, p := range u.providers {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if !p.Configured() {
			slog.DebugContext(ctx, "Skipping unconfigured storage provider", "provider", p.Name())
			u.metrics.ObserveUpload(p.Name(), "skipped")
			errs = append(errs, fmt.Errorf("%s %w", p.Name(), ErrNotConfigured))
			continue
		}

		res, err := p.Upload(ctx, f)
		if err != nil {
			slog.WarnContext(ctx, "Storage provider failed", "provider", p.Name(), "error", err)
			u.metrics.ObserveUpload(p.Name(), "error")
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			continue
		}

		res.Provider = p.Name()
		u.metrics.ObserveUpload(p.Name(), "success")
		slog.InfoContext(ctx, "Uploaded file to decentralized storage", "provider", p.Name(), "url", res.URL)
		return res, nil
	}
	return Result{}, errors.Join(errs...)
}

// UploadWithLocalFallback behaves like Upload but falls back to an inline data
// URL instead of failing.
func (u *Uploader) UploadWithLocalFallback(ctx context.Context, f File) (Result, error) {
	res, err := u.Upload(ctx, f)
	if err == nil {
		return res, nil
	}
	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}
	slog.WarnContext(ctx, "All storage providers failed, using inline data URL", "error", err)
	u.metrics.ObserveUpload(LocalProviderName, "success")
	return LocalFallback(f, u.now()), nil
}

// LocalFallback encodes f as a data URL.
func LocalFallback(f File, now time.Time) Result {
	return Result{
		URL:         "data:" + f.contentType() + ";base64," + base64.StdEncoding.EncodeToString(f.Data),
		Hash:        fmt.Sprintf("local_%d", now.UnixMilli()),
		Provider:    LocalProviderName,
		Size:        int64(len(f.Data)),
		ContentType: f.contentType(),
	}
}

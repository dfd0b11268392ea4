// Package transform turns an uploaded picture into a Ghibli-style variant by
// calling an external image model, with a deterministic mock for demos.
package transform

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nfrund/mintari/internal/config"
	"github.com/nfrund/mintari/internal/metrics"
)

// Style is the only transformation style the service offers.
const Style = "ghibli"

// ErrTransformFailed wraps every provider failure.
var ErrTransformFailed = errors.New("image transformation failed")

// Image is an uploaded source picture.
type Image struct {
	Data     []byte
	MIMEType string
	Filename string
	// Fresh skips cached results, used when regenerating.
	Fresh bool
}

// Digest identifies the image content.
func (img Image) Digest() string {
	sum := sha256.Sum256(img.Data)
	return hex.EncodeToString(sum[:])
}

// Result is a transformed image reference.
type Result struct {
	URL      string `json:"url"`
	Provider string `json:"provider"`
	Cached   bool   `json:"cached"`
}

// Transformer produces a transformed image for a source picture.
type Transformer interface {
	Transform(ctx context.Context, img Image) (Result, error)
}

// NewFromConfig assembles the transformer stack: the configured provider,
// optionally wrapped with the placeholder fallback, then the result cache.
func NewFromConfig(ctx context.Context, cfg config.TransformConfig, m *metrics.Metrics) (Transformer, error) {
	var base Transformer
	switch cfg.Mode {
	case "http":
		base = NewHTTPTransformer(cfg.APIURL, cfg.APIKey, cfg.RatePerSec, cfg.Timeout)
	case "mock", "":
		base = NewMockTransformer(cfg.MockDelay)
	default:
		return nil, fmt.Errorf("unknown transform mode %q", cfg.Mode)
	}

	t := &instrumented{name: cfg.Mode, next: base, metrics: m}
	var out Transformer = t
	if cfg.Fallback {
		out = NewFallbackTransformer(t, m)
	}
	if cfg.CacheTTL > 0 {
		cached, err := NewCachingTransformer(ctx, out, cfg.CacheTTL)
		if err != nil {
			return nil, err
		}
		out = cached
	}
	slog.Info("Image transformer ready", "mode", cfg.Mode, "fallback", cfg.Fallback, "cache_ttl", cfg.CacheTTL)
	return out, nil
}

// instrumented records provider outcomes.
type instrumented struct {
	name    string
	next    Transformer
	metrics *metrics.Metrics
}

func (t *instrumented) Transform(ctx context.Context, img Image) (Result, error) {
	res, err := t.next.Transform(ctx, img)
	if err != nil {
		t.metrics.ObserveTransform(t.name, "error")
		return Result{}, err
	}
	t.metrics.ObserveTransform(res.Provider, "success")
	return res, nil
}

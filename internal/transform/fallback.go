package transform

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nfrund/mintari/internal/metrics"
)

const placeholderImage = "https://images.unsplash.com/photo-1696862048447-3ab8435ce5f1?crop=entropy&cs=tinysrgb&fit=max&fm=jpg&ixid=M3w3Nzg4Nzd8MHwxfHNlYXJjaHwxfHxzdHVkaW8lMjBnaGlibGklMjBsYW5kc2NhcGV8ZW58MXx8fHwxNzU1MzUxNTkxfDA&ixlib=rb-4.1.0&q=80&w=1080&utm_source=figma&utm_medium=referral"

// FallbackProvider tags results that came from the static placeholder.
const FallbackProvider = "fallback"

// PlaceholderURL is the stock image shown when transformation fails.
func PlaceholderURL(now time.Time) string {
	return fmt.Sprintf("%s?v=%d", placeholderImage, now.UnixMilli())
}

// FallbackTransformer keeps the flow moving when the primary transformer
// fails by returning the placeholder image. Context cancellation is still
// reported as an error.
type FallbackTransformer struct {
	primary Transformer
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewFallbackTransformer(primary Transformer, m *metrics.Metrics) *FallbackTransformer {
	return &FallbackTransformer{primary: primary, metrics: m, now: time.Now}
}

func (f *FallbackTransformer) Transform(ctx context.Context, img Image) (Result, error) {
	res, err := f.primary.Transform(ctx, img)
	if err == nil {
		return res, nil
	}
	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}
	slog.WarnContext(ctx, "Transformation failed, serving placeholder image", "error", err)
	f.metrics.ObserveTransform(FallbackProvider, "success")
	return Result{URL: PlaceholderURL(f.now()), Provider: FallbackProvider}, nil
}

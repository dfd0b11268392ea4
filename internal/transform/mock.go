package transform

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

var mockImages = []string{
	"https://images.unsplash.com/photo-1696862048447-3ab8435ce5f1?crop=entropy&cs=tinysrgb&fit=max&fm=jpg&ixid=M3w3Nzg4Nzd8MHwxfHNlYXJjaHwxfHxzdHVkaW8lMjBnaGlibGklMjBsYW5kc2NhcGV8ZW58MXx8fHwxNzU1MzUxNTkxfDA&ixlib=rb-4.1.0&q=80&w=1080",
	"https://images.unsplash.com/photo-1605014409302-0233cb7884db?crop=entropy&cs=tinysrgb&fit=max&fm=jpg&ixid=M3w3Nzg4Nzd8MHwxfHNlYXJjaHwxfHxhbmltZSUyMGZvcmVzdCUyMGxhbmRzY2FwZXxlbnwxfHx8fDE3NTUzNDAyMzF8MA&ixlib=rb-4.1.0&q=80&w=1080",
	"https://images.unsplash.com/photo-1719498482206-661df940253d?crop=entropy&cs=tinysrgb&fit=max&fm=jpg&ixid=M3w3Nzg4Nzd8MHwxfHNlYXJjaHwxfHxtYWdpY2FsJTIwZ2FyZGVuJTIwaWxsdXN0cmF0aW9ufGVufDF8fHx8MTc1NTM0MDIzMnww&ixlib=rb-4.1.0&q=80&w=1080",
	"https://images.unsplash.com/photo-1578662996442-48f60103fc96?crop=entropy&cs=tinysrgb&fit=max&fm=jpg&ixid=M3w3Nzg4Nzd8MHwxfHNlYXJjaHwxfHxzdHVkaW8lMjBnaGlibGklMjBhcnR3b3JrfGVufDF8fHx8MTc1NTM0MDIzM3ww&ixlib=rb-4.1.0&q=80&w=1080",
	"https://images.unsplash.com/photo-1630870085043-ae88fe510404?crop=entropy&cs=tinysrgb&fit=max&fm=jpg&ixid=M3w3Nzg4Nzd8MHwxfHNlYXJjaHwxfHxteXN0aWNhbCUyMG5hdHVyZSUyMGFydHxlbnwxfHx8fDE3NTUzNDAyMzJ8MA&ixlib=rb-4.1.0&q=80&w=1080",
}

// MockTransformer needs no API keys. It waits for a fixed delay and returns
// one of a handful of stock images, made unique with a timestamp.
type MockTransformer struct {
	delay time.Duration
	now   func() time.Time
	pick  func(n int) int
}

func NewMockTransformer(delay time.Duration) *MockTransformer {
	return &MockTransformer{delay: delay, now: time.Now, pick: rand.IntN}
}

func (m *MockTransformer) Transform(ctx context.Context, img Image) (Result, error) {
	if m.delay > 0 {
		timer := time.NewTimer(m.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-timer.C:
		}
	}

	base := mockImages[m.pick(len(mockImages))]
	return Result{
		URL:      fmt.Sprintf("%s&v=%d", base, m.now().UnixMilli()),
		Provider: "mock",
	}, nil
}

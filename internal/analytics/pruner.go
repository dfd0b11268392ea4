package analytics

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Pruner runs ClearOld on a cron schedule.
type Pruner struct {
	cron *cron.Cron
}

// NewPruner schedules tracker.ClearOld(retentionDays). schedule accepts the
// standard five-field syntax and descriptors such as "@daily".
func NewPruner(tracker *Tracker, schedule string, retentionDays int) (*Pruner, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		removed := tracker.ClearOld(context.Background(), retentionDays)
		slog.Debug("Scheduled sponsor event prune finished", "removed", removed)
	})
	if err != nil {
		return nil, fmt.Errorf("invalid prune schedule %q: %w", schedule, err)
	}
	return &Pruner{cron: c}, nil
}

func (p *Pruner) Start() {
	p.cron.Start()
}

// Stop halts scheduling and waits for a running prune to finish or ctx to end.
func (p *Pruner) Stop(ctx context.Context) {
	select {
	case <-p.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// CLAUDE:SUMMARY Periodic sweep loop that lists pending documents and feeds them to the processing callback.
// Package monitor drives periodic ingestion sweeps: on each tick it lists
// pending documents and hands them to the processing callback one at a
// time.
package monitor

import (
	"context"
	"log/slog"
	"time"
)

// ListFunc returns IDs of documents awaiting processing, oldest first,
// at most limit.
type ListFunc func(ctx context.Context, limit int) ([]string, error)

// ProcessFunc processes one document end to end.
type ProcessFunc func(ctx context.Context, id string) error

// Config controls sweep cadence.
type Config struct {
	SweepInterval time.Duration
	BatchSize     int
}

// Monitor polls for pending documents on a fixed interval.
type Monitor struct {
	list    ListFunc
	process ProcessFunc
	cfg     Config
	logger  *slog.Logger
}

func New(list ListFunc, process ProcessFunc, cfg Config, logger *slog.Logger) *Monitor {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 15 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 25
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{list: list, process: process, cfg: cfg, logger: logger}
}

// Run blocks until ctx is cancelled. The first sweep happens immediately
// so documents queued before startup are not delayed a full interval.
func (m *Monitor) Run(ctx context.Context) {
	m.logger.Info("monitor: started", "sweep_interval", m.cfg.SweepInterval.String())
	m.Sweep(ctx)

	ticker := time.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("monitor: stopped")
			return
		case <-ticker.C:
			m.Sweep(ctx)
		}
	}
}

// Sweep runs one polling pass. Documents are processed sequentially;
// a failure on one document is logged and does not abort the batch.
func (m *Monitor) Sweep(ctx context.Context) {
	ids, err := m.list(ctx, m.cfg.BatchSize)
	if err != nil {
		m.logger.Error("monitor: listing pending documents failed", "error", err)
		return
	}
	if len(ids) == 0 {
		return
	}
	m.logger.Info("monitor: sweep", "pending", len(ids))
	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}
		if err := m.process(ctx, id); err != nil {
			m.logger.Error("monitor: processing failed", "document_id", id, "error", err)
		}
	}
}

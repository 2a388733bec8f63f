package health

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Monitor polls the prober on a fixed interval until its context ends.
// There is no backoff and no jitter.
type Monitor struct {
	prober   *Prober
	interval time.Duration
	log      *slog.Logger

	mu      sync.RWMutex
	current Status
}

func NewMonitor(p *Prober, interval time.Duration, log *slog.Logger) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if log == nil {
		log = slog.Default()
	}
	return &Monitor{prober: p, interval: interval, log: log}
}

// Run probes once immediately, then on every tick. It returns when ctx is
// done.
func (m *Monitor) Run(ctx context.Context) {
	m.probe(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.probe(ctx)
		}
	}
}

func (m *Monitor) probe(ctx context.Context) {
	st := m.prober.Check(ctx)
	if ctx.Err() != nil {
		return
	}

	m.mu.Lock()
	prev := m.current
	m.current = st
	m.mu.Unlock()

	if prev.CheckedAt.IsZero() || prev.Available != st.Available {
		m.log.Info("api availability changed", "available", st.Available, "err", st.Err)
	}
}

// Current returns the last probe result. Before the first probe it is the
// zero Status, which reads as unavailable.
func (m *Monitor) Current() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

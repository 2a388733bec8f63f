package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"buscalisto/internal/metrics"
)

const (
	DefaultTimeout  = 5 * time.Second
	DefaultInterval = 30 * time.Second
)

// Pinger sends the health request. Any error means unavailable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Status struct {
	Available bool          `json:"isAvailable"`
	CheckedAt time.Time     `json:"lastCheck"`
	Err       string        `json:"error,omitempty"`
	Latency   time.Duration `json:"-"`
}

type Prober struct {
	pinger  Pinger
	timeout time.Duration
	metrics *metrics.Metrics
	log     *slog.Logger
}

func NewProber(p Pinger, timeout time.Duration, m *metrics.Metrics, log *slog.Logger) *Prober {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &Prober{pinger: p, timeout: timeout, metrics: m, log: log}
}

// Check performs one probe bounded by the prober timeout. Transport
// errors, non-2xx statuses and timeouts all yield Available=false.
func (p *Prober) Check(ctx context.Context) Status {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	err := p.pinger.Ping(ctx)
	st := Status{
		Available: err == nil,
		CheckedAt: time.Now(),
		Latency:   time.Since(start),
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("health probe timed out after %s: %w", p.timeout, err)
		}
		st.Err = err.Error()
		p.log.Debug("api unavailable", "err", err, "latency", st.Latency)
	}

	p.metrics.RecordProbe(st.Available, st.Latency)
	return st
}

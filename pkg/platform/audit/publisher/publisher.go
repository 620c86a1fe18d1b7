// Package publisher provides audit event sinks. The ops publisher writes
// structured log lines and counts events; it is the default sink for
// single-node deployments where no external audit pipeline exists.
package publisher

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"sigil/pkg/platform/audit"
)

// Publisher is the sink interface domain services emit events through.
type Publisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Ops logs audit events as structured records and exposes per-action counters.
type Ops struct {
	logger *slog.Logger
	events *prometheus.CounterVec
}

// NewOps constructs the log-backed audit publisher.
func NewOps(logger *slog.Logger) *Ops {
	return &Ops{
		logger: logger,
		events: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sigil_audit_events_total",
			Help: "Total number of audit events emitted, by action",
		}, []string{"action"}),
	}
}

// Emit writes the event to the log and increments its action counter.
func (p *Ops) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	p.events.WithLabelValues(event.Action).Inc()
	p.logger.InfoContext(ctx, "audit event",
		"action", event.Action,
		"subject", event.Subject,
		"owner_id", event.OwnerID,
		"actor", event.Actor,
		"decision", event.Decision,
		"reason", event.Reason,
		"device", event.Device,
		"request_id", event.RequestID,
		"timestamp", event.Timestamp,
	)
	return nil
}

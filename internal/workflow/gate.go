package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/terra-clan/symposium-registry/internal/metrics"
	"github.com/terra-clan/symposium-registry/internal/models"
	"github.com/terra-clan/symposium-registry/internal/storage"
)

// SettingsSource provides a fresh settings snapshot
type SettingsSource interface {
	Fetch(ctx context.Context) models.SiteSettings
}

// Counter is the part of a registration collection gating needs
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// Gate decides whether a variant accepts registrations. Decisions are made
// from a snapshot that may already be stale, so capacity can overshoot.
type Gate struct {
	settings SettingsSource
	counters map[models.Variant]Counter
	deadline time.Time
	now      func() time.Time
}

// NewGate creates a gate; counters must hold one entry per variant
func NewGate(settings SettingsSource, counters map[models.Variant]Counter, deadline time.Time) *Gate {
	return &Gate{
		settings: settings,
		counters: counters,
		deadline: deadline,
		now:      time.Now,
	}
}

// Evaluate is the pure gating decision, in order: maintenance, open flag,
// deadline, capacity. A negative count skips the capacity check.
func (g *Gate) Evaluate(s models.SiteSettings, v models.Variant, count int, now time.Time) error {
	if s.MaintenanceMode {
		return ErrMaintenance
	}
	if !s.RegistrationOpen {
		return &ClosedError{Variant: v, Reason: ReasonClosed}
	}
	if !g.deadline.IsZero() && now.After(g.deadline) {
		return &ClosedError{Variant: v, Reason: ReasonDeadline}
	}
	if count >= 0 && count >= s.LimitFor(v) {
		return &ClosedError{Variant: v, Reason: ReasonFull}
	}
	return nil
}

// Admit fetches settings and applies every check except capacity
func (g *Gate) Admit(ctx context.Context, v models.Variant) (models.SiteSettings, error) {
	s := g.settings.Fetch(ctx)
	return s, g.record(v, g.Evaluate(s, v, -1, g.now()))
}

// CheckCapacity compares the live row count with the snapshot's limit
func (g *Gate) CheckCapacity(ctx context.Context, s models.SiteSettings, v models.Variant) error {
	counter, ok := g.counters[v]
	if !ok {
		return fmt.Errorf("no counter for variant %s", v)
	}

	count, err := counter.Count(ctx)
	if err != nil {
		return storage.Remote("count "+string(v)+" registrations", err)
	}
	return g.record(v, g.Evaluate(s, v, count, g.now()))
}

// Check runs the full gate and returns the snapshot it used
func (g *Gate) Check(ctx context.Context, v models.Variant) (models.SiteSettings, error) {
	s, err := g.Admit(ctx, v)
	if err != nil {
		return s, err
	}
	return s, g.CheckCapacity(ctx, s, v)
}

func (g *Gate) record(v models.Variant, err error) error {
	if ce, ok := err.(*ClosedError); ok {
		slog.Info("registration gated", "variant", v, "reason", ce.Reason)
		metrics.RecordGateClosed(string(v), string(ce.Reason))
	}
	return err
}

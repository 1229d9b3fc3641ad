// Package cleanup removes payment proofs that no registration references.
// They are left behind when a proof upload succeeds but the insert that follows fails.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/terra-clan/symposium-registry/internal/blobstore"
	"github.com/terra-clan/symposium-registry/internal/metrics"
)

// ReferenceSource returns the set of proof URLs still referenced by registrations
type ReferenceSource interface {
	PaymentScreenshotURLs(ctx context.Context) (map[string]bool, error)
}

// Cleaner handles periodic removal of orphaned proofs
type Cleaner struct {
	blobs    blobstore.Lister
	refs     ReferenceSource
	interval time.Duration
	grace    time.Duration
	now      func() time.Time
}

// NewCleaner creates a new cleanup worker. Blobs younger than grace are never removed,
// so a proof whose registration is still being inserted survives.
func NewCleaner(blobs blobstore.Lister, refs ReferenceSource, interval, grace time.Duration) *Cleaner {
	if interval <= 0 {
		interval = time.Hour
	}
	if grace <= 0 {
		grace = 24 * time.Hour
	}

	return &Cleaner{
		blobs:    blobs,
		refs:     refs,
		interval: interval,
		grace:    grace,
		now:      time.Now,
	}
}

// Start begins the cleanup worker in a goroutine
func (c *Cleaner) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *Cleaner) run(ctx context.Context) {
	slog.Info("cleanup worker started", "interval", c.interval, "grace", c.grace)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	// Run immediately on start
	c.Sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("cleanup worker stopped")
			return
		case <-ticker.C:
			c.Sweep(ctx)
		}
	}
}

// Sweep deletes unreferenced proofs older than the grace period and returns how many went
func (c *Cleaner) Sweep(ctx context.Context) int {
	slog.Debug("running cleanup cycle")

	objects, err := c.blobs.List(ctx)
	if err != nil {
		slog.Error("failed to list stored proofs", "error", err)
		return 0
	}
	if len(objects) == 0 {
		return 0
	}

	refs, err := c.refs.PaymentScreenshotURLs(ctx)
	if err != nil {
		slog.Error("failed to load referenced proofs", "error", err)
		return 0
	}

	keys := make(map[string]bool, len(refs))
	for u := range refs {
		if k := blobstore.KeyFromURL(u); k != "" {
			keys[k] = true
		}
	}

	cutoff := c.now().Add(-c.grace)
	removed := 0
	for _, obj := range objects {
		if keys[obj.Key] || refs[obj.URL] || obj.ModTime.After(cutoff) {
			continue
		}

		if err := c.blobs.Delete(ctx, obj.Key); err != nil {
			slog.Error("failed to delete orphaned proof", "error", err, "key", obj.Key)
			continue
		}
		slog.Info("orphaned proof deleted", "key", obj.Key, "modified", obj.ModTime)
		removed++
	}

	if removed > 0 {
		metrics.RecordOrphansRemoved(removed)
	}
	return removed
}

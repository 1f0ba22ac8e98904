package tasks

import (
	"context"
	"fmt"
	"time"
)

// NewImageMaintenanceTask returns the task that prunes expired archive
// rows and compacts the database. Hosted image URLs expire upstream, so
// rows past the retention window are dead weight.
func NewImageMaintenanceTask(deps Deps) TaskFunc {
	log := deps.Logger.With("task", "image_maintenance")

	return func(ctx context.Context) error {
		cutoff := time.Now().UTC().Add(-deps.Retention)

		removed, err := deps.Store.PruneOlderThan(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("image archive prune failed: %w", err)
		}
		log.InfoContext(ctx, "Pruned expired archive entries", "removed", removed, "cutoff", cutoff)

		if err := deps.Store.RunMaintenance(ctx); err != nil {
			return fmt.Errorf("database maintenance failed: %w", err)
		}
		return nil
	}
}

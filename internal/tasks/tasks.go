// Package tasks implements the application's scheduled background tasks.
package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/amorahq/amora/internal/database"
)

// TaskFunc is the standard signature for scheduled tasks. The provided
// context should be respected for cancellation.
type TaskFunc func(ctx context.Context) error

// Deps holds the dependencies scheduled tasks draw on.
type Deps struct {
	Logger    *slog.Logger
	Store     database.Store
	Retention time.Duration
}

package database

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Store is the data access layer for the generated-image archive.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// SaveImage inserts a new archive record. An empty ID is filled in.
	SaveImage(ctx context.Context, image *GeneratedImage) error

	// RecentImages returns the newest 'limit' archive records.
	RecentImages(ctx context.Context, limit int) ([]GeneratedImage, error)

	// PruneOlderThan deletes records created before the cutoff and
	// returns the number removed.
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// RunMaintenance performs database maintenance (VACUUM).
	RunMaintenance(ctx context.Context) error
}

type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a Store backed by sqlx.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) SaveImage(ctx context.Context, image *GeneratedImage) error {
	if image == nil {
		return fmt.Errorf("cannot save nil image")
	}
	if image.URL == "" {
		return fmt.Errorf("image must have a non-empty url")
	}
	if image.ID == "" {
		image.ID = uuid.NewString()
	}
	if image.CreatedAt.IsZero() {
		image.CreatedAt = time.Now().UTC()
	}

	query := `
        INSERT INTO generated_images (id, kind, prompt, url, created_at)
        VALUES (:id, :kind, :prompt, :url, :created_at);
    `
	if _, err := s.db.NamedExecContext(ctx, query, image); err != nil {
		s.logger.ErrorContext(ctx, "Error saving generated image", "kind", image.Kind, "error", err)
		return fmt.Errorf("failed to save generated image: %w", err)
	}

	s.logger.DebugContext(ctx, "Generated image saved", "id", image.ID, "kind", image.Kind)
	return nil
}

func (s *sqlxStore) RecentImages(ctx context.Context, limit int) ([]GeneratedImage, error) {
	if limit <= 0 {
		limit = 20
	} else if limit > 100 {
		limit = 100
	}

	var images []GeneratedImage
	query := `
        SELECT id, kind, prompt, url, created_at
        FROM generated_images
        ORDER BY created_at DESC
        LIMIT ?;
    `
	if err := s.db.SelectContext(ctx, &images, query, limit); err != nil {
		s.logger.ErrorContext(ctx, "Error getting recent images", "limit", limit, "error", err)
		return nil, fmt.Errorf("failed to get recent images: %w", err)
	}

	s.logger.DebugContext(ctx, "Fetched recent images", "count", len(images))
	return images, nil
}

func (s *sqlxStore) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM generated_images WHERE created_at < ?`, cutoff)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error pruning image archive", "cutoff", cutoff, "error", err)
		return 0, fmt.Errorf("failed to prune image archive: %w", err)
	}

	count, _ := result.RowsAffected()
	s.logger.InfoContext(ctx, "Pruned image archive", "removed", count, "cutoff", cutoff)
	return count, nil
}

// RunMaintenance executes VACUUM. SQLite requires it to run outside a
// transaction.
func (s *sqlxStore) RunMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)")
	if _, err := s.db.ExecContext(ctx, "VACUUM;"); err != nil {
		s.logger.ErrorContext(ctx, "Database maintenance failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}
	s.logger.InfoContext(ctx, "Database maintenance completed")
	return nil
}

// Archiver adapts a Store to the chat flow's best-effort image recording:
// a failed insert is logged, never surfaced to the conversation.
type Archiver struct {
	store  Store
	logger *slog.Logger
}

// NewArchiver wraps store for best-effort recording.
func NewArchiver(store Store, logger *slog.Logger) *Archiver {
	return &Archiver{store: store, logger: logger.With("component", "archiver")}
}

// RecordImage saves a generated image, logging failures.
func (a *Archiver) RecordImage(ctx context.Context, kind, prompt, url string) {
	img := &GeneratedImage{Kind: kind, Prompt: prompt, URL: url}
	if err := a.store.SaveImage(ctx, img); err != nil {
		a.logger.WarnContext(ctx, "Failed to archive generated image", "kind", kind, "error", err)
	}
}

package database_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/amorahq/amora/internal/database"
)

func newTestStore(t *testing.T) database.Store {
	t.Helper()
	db, err := database.NewDB(":memory:")
	if err != nil {
		t.Fatalf("NewDB() error = %v", err)
	}
	t.Cleanup(func() { database.CloseDB(db) })
	return database.NewStore(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSaveAndRecentImages(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	img := &database.GeneratedImage{
		Kind:   "chat",
		Prompt: "sunset over the bay",
		URL:    "https://img.example/1.png",
	}
	if err := store.SaveImage(ctx, img); err != nil {
		t.Fatalf("SaveImage() error = %v", err)
	}
	if img.ID == "" {
		t.Error("SaveImage() left ID empty")
	}

	second := &database.GeneratedImage{
		Kind:      "intro",
		Prompt:    "welcoming selfie",
		URL:       "https://img.example/2.png",
		CreatedAt: time.Now().UTC().Add(time.Minute),
	}
	if err := store.SaveImage(ctx, second); err != nil {
		t.Fatalf("SaveImage() error = %v", err)
	}

	images, err := store.RecentImages(ctx, 10)
	if err != nil {
		t.Fatalf("RecentImages() error = %v", err)
	}
	if len(images) != 2 {
		t.Fatalf("RecentImages() returned %d images, want 2", len(images))
	}
	if images[0].URL != "https://img.example/2.png" {
		t.Errorf("images[0].URL = %q, want newest first", images[0].URL)
	}
}

func TestSaveImageRejectsEmptyURL(t *testing.T) {
	store := newTestStore(t)

	err := store.SaveImage(context.Background(), &database.GeneratedImage{Kind: "chat", Prompt: "x"})
	if err == nil {
		t.Fatal("SaveImage() error = nil, want validation failure")
	}
}

func TestPruneOlderThan(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	old := &database.GeneratedImage{
		Kind:      "chat",
		Prompt:    "stale",
		URL:       "https://img.example/old.png",
		CreatedAt: time.Now().UTC().Add(-48 * time.Hour),
	}
	fresh := &database.GeneratedImage{
		Kind:   "chat",
		Prompt: "fresh",
		URL:    "https://img.example/new.png",
	}
	for _, img := range []*database.GeneratedImage{old, fresh} {
		if err := store.SaveImage(ctx, img); err != nil {
			t.Fatalf("SaveImage() error = %v", err)
		}
	}

	removed, err := store.PruneOlderThan(ctx, time.Now().UTC().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("PruneOlderThan() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("PruneOlderThan() removed %d, want 1", removed)
	}

	images, err := store.RecentImages(ctx, 10)
	if err != nil {
		t.Fatalf("RecentImages() error = %v", err)
	}
	if len(images) != 1 || images[0].URL != "https://img.example/new.png" {
		t.Errorf("RecentImages() = %+v, want only the fresh image", images)
	}
}

func TestRunMaintenance(t *testing.T) {
	store := newTestStore(t)
	if err := store.RunMaintenance(context.Background()); err != nil {
		t.Fatalf("RunMaintenance() error = %v", err)
	}
}

package images

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTempStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "gallery.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(context.Background(), " "); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestCreateGet(t *testing.T) {
	store := openTempStore(t)
	now := time.Date(2026, time.March, 3, 10, 0, 0, 0, time.UTC)

	created, err := store.Create(context.Background(), Image{
		Path:      "images/cat.png",
		Label:     "  Cat  ",
		UserID:    "1",
		CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("create image: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if created.Label != "Cat" {
		t.Fatalf("label = %q, want trimmed", created.Label)
	}

	got, err := store.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get image: %v", err)
	}
	if got.Path != "images/cat.png" || got.UserID != "1" || !got.CreatedAt.Equal(now) || !got.UpdatedAt.Equal(now) {
		t.Fatalf("unexpected image %+v", got)
	}
}

func TestGetMissing(t *testing.T) {
	store := openTempStore(t)
	if _, err := store.Get(context.Background(), 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	store := openTempStore(t)
	tests := map[string]Image{
		"missing path": {UserID: "1"},
		"missing user": {Path: "images/a.png"},
	}
	for name, img := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := store.Create(context.Background(), img); !errors.Is(err, ErrInvalidImage) {
				t.Fatalf("expected ErrInvalidImage, got %v", err)
			}
		})
	}
}

func TestListByUserNewestFirst(t *testing.T) {
	store := openTempStore(t)
	base := time.Date(2026, time.March, 3, 10, 0, 0, 0, time.UTC)
	ctx := context.Background()

	for i, p := range []string{"a.png", "b.png", "c.png"} {
		if _, err := store.Create(ctx, Image{Path: p, UserID: "1", CreatedAt: base.Add(time.Duration(i) * time.Minute)}); err != nil {
			t.Fatalf("create %s: %v", p, err)
		}
	}
	if _, err := store.Create(ctx, Image{Path: "other.png", UserID: "2", CreatedAt: base}); err != nil {
		t.Fatalf("create other: %v", err)
	}

	got, err := store.ListByUser(ctx, "1", 0)
	if err != nil {
		t.Fatalf("list images: %v", err)
	}
	if len(got) != 3 || got[0].Path != "c.png" || got[2].Path != "a.png" {
		t.Fatalf("unexpected listing %+v", got)
	}

	limited, err := store.ListByUser(ctx, "1", 2)
	if err != nil {
		t.Fatalf("list images: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected 2 images, got %d", len(limited))
	}

	empty, err := store.ListByUser(ctx, "3", 10)
	if err != nil {
		t.Fatalf("list images: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", empty)
	}
}

func TestListByUserRequiresUser(t *testing.T) {
	store := openTempStore(t)
	if _, err := store.ListByUser(context.Background(), "", 10); !errors.Is(err, ErrInvalidImage) {
		t.Fatalf("expected ErrInvalidImage, got %v", err)
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gallery.db")
	ctx := context.Background()

	first, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := first.Create(ctx, Image{Path: "a.png", UserID: "1"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	got, err := second.ListByUser(ctx, "1", 10)
	if err != nil || len(got) != 1 {
		t.Fatalf("expected persisted image, got %v %v", got, err)
	}
}

// Package images stores image metadata: where an uploaded file lives, its
// label, and which user owns it. File bytes are never handled here.
package images

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates the requested image does not exist.
	ErrNotFound = errors.New("image not found")
	// ErrInvalidImage indicates an image failed validation.
	ErrInvalidImage = errors.New("invalid image")
)

// DefaultListLimit applies when ListByUser is called with limit <= 0.
const DefaultListLimit = 50

// MaxListLimit caps ListByUser.
const MaxListLimit = 500

// Image is one stored image record.
type Image struct {
	ID        int64     `json:"id"`
	Path      string    `json:"path"`
	Label     string    `json:"label"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Repository persists image records.
type Repository interface {
	Create(ctx context.Context, img Image) (Image, error)
	Get(ctx context.Context, id int64) (Image, error)
	// ListByUser returns the user's images, newest first.
	ListByUser(ctx context.Context, userID string, limit int) ([]Image, error)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

package images

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/MrEthical07/goGallery/images/migrations"
	"github.com/MrEthical07/goGallery/internal/sqlitemigrate"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// SQLiteStore is a [Repository] on a SQLite file.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ Repository = (*SQLiteStore)(nil)

// Open opens the database at path and applies the embedded migrations.
func Open(ctx context.Context, path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.Apply(ctx, db, migrations.FS, ""); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Close closes the database handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// Create validates img, stamps missing timestamps and inserts it.
func (s *SQLiteStore) Create(ctx context.Context, img Image) (Image, error) {
	if err := ctx.Err(); err != nil {
		return Image{}, err
	}
	img.Path = strings.TrimSpace(img.Path)
	img.Label = strings.TrimSpace(img.Label)
	img.UserID = strings.TrimSpace(img.UserID)
	if img.Path == "" {
		return Image{}, fmt.Errorf("%w: path is required", ErrInvalidImage)
	}
	if img.UserID == "" {
		return Image{}, fmt.Errorf("%w: user id is required", ErrInvalidImage)
	}

	if img.CreatedAt.IsZero() {
		img.CreatedAt = s.now()
	}
	if img.UpdatedAt.IsZero() {
		img.UpdatedAt = img.CreatedAt
	}
	img.CreatedAt = fromMillis(toMillis(img.CreatedAt))
	img.UpdatedAt = fromMillis(toMillis(img.UpdatedAt))

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO images (path, label, user_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		img.Path, img.Label, img.UserID, toMillis(img.CreatedAt), toMillis(img.UpdatedAt),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return Image{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
		}
		return Image{}, fmt.Errorf("insert image: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Image{}, fmt.Errorf("insert image id: %w", err)
	}
	img.ID = id
	return img, nil
}

// Get returns the image with id, or ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, id int64) (Image, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, path, label, user_id, created_at, updated_at FROM images WHERE id = ?`, id)
	img, err := scanImage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Image{}, ErrNotFound
	}
	if err != nil {
		return Image{}, fmt.Errorf("get image: %w", err)
	}
	return img, nil
}

// ListByUser implements [Repository].
func (s *SQLiteStore) ListByUser(ctx context.Context, userID string, limit int) ([]Image, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidImage)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, path, label, user_id, created_at, updated_at
		   FROM images
		  WHERE user_id = ?
		  ORDER BY created_at DESC, id DESC
		  LIMIT ?`,
		userID, clampLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()

	out := make([]Image, 0)
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		out = append(out, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate images: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanImage(row rowScanner) (Image, error) {
	var (
		img                  Image
		createdAt, updatedAt int64
	)
	if err := row.Scan(&img.ID, &img.Path, &img.Label, &img.UserID, &createdAt, &updatedAt); err != nil {
		return Image{}, err
	}
	img.CreatedAt = fromMillis(createdAt)
	img.UpdatedAt = fromMillis(updatedAt)
	return img, nil
}

func isConstraintViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_NOTNULL, sqlite3lib.SQLITE_CONSTRAINT_CHECK:
			return true
		}
	}
	return false
}

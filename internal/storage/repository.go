package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"finboard/internal/session"

	_ "modernc.org/sqlite"
)

// SQLiteRepository persists the session and client preferences on disk.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

var _ session.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, queries: New(db)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// LoadSession implements session.Store
func (r *SQLiteRepository) LoadSession(ctx context.Context) (session.Saved, bool, error) {
	row, err := r.queries.GetSession(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return session.Saved{}, false, nil
	}
	if err != nil {
		return session.Saved{}, false, fmt.Errorf("get session: %w", err)
	}

	saved := session.Saved{Token: row.Token}
	if err := json.Unmarshal([]byte(row.UserJSON), &saved.User); err != nil {
		// auth/me can still recover the identity from the token.
		slog.WarnContext(ctx, "Stored user is unreadable", "component", "storage", "error", err)
	}
	return saved, true, nil
}

// SaveSession implements session.Store
func (r *SQLiteRepository) SaveSession(ctx context.Context, s session.Saved) error {
	userJSON, err := json.Marshal(s.User)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := r.queries.UpsertSession(ctx, s.Token, string(userJSON)); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	slog.DebugContext(ctx, "Session saved to SQLite", "component", "storage", "user_id", s.User.ID)
	return nil
}

// ClearSession implements session.Store
func (r *SQLiteRepository) ClearSession(ctx context.Context) error {
	if err := r.queries.DeleteSession(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Preference implements session.Store
func (r *SQLiteRepository) Preference(ctx context.Context, key string) (string, bool, error) {
	value, err := r.queries.GetPreference(ctx, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get preference %s: %w", key, err)
	}
	return value, true, nil
}

// SetPreference implements session.Store
func (r *SQLiteRepository) SetPreference(ctx context.Context, key, value string) error {
	if err := r.queries.UpsertPreference(ctx, key, value); err != nil {
		return fmt.Errorf("set preference %s: %w", key, err)
	}
	return nil
}

package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries holds the statements used by the repository.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type SessionRow struct {
	Token    string
	UserJSON string
	SavedAt  string
}

const getSession = `SELECT token, user_json, saved_at FROM session WHERE id = 1`

func (q *Queries) GetSession(ctx context.Context) (SessionRow, error) {
	var row SessionRow
	err := q.db.QueryRowContext(ctx, getSession).Scan(&row.Token, &row.UserJSON, &row.SavedAt)
	return row, err
}

const upsertSession = `INSERT INTO session (id, token, user_json, saved_at)
VALUES (1, ?, ?, strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
ON CONFLICT(id) DO UPDATE SET
    token = excluded.token,
    user_json = excluded.user_json,
    saved_at = excluded.saved_at`

func (q *Queries) UpsertSession(ctx context.Context, token, userJSON string) error {
	_, err := q.db.ExecContext(ctx, upsertSession, token, userJSON)
	return err
}

const deleteSession = `DELETE FROM session`

func (q *Queries) DeleteSession(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteSession)
	return err
}

const getPreference = `SELECT value FROM preferences WHERE key = ?`

func (q *Queries) GetPreference(ctx context.Context, key string) (string, error) {
	var value string
	err := q.db.QueryRowContext(ctx, getPreference, key).Scan(&value)
	return value, err
}

const upsertPreference = `INSERT INTO preferences (key, value, updated_at)
VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
ON CONFLICT(key) DO UPDATE SET
    value = excluded.value,
    updated_at = excluded.updated_at`

func (q *Queries) UpsertPreference(ctx context.Context, key, value string) error {
	_, err := q.db.ExecContext(ctx, upsertPreference, key, value)
	return err
}

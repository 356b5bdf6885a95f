// Package sqlite provides a SQLite implementation of the key-value store.
// It keeps cache state across restarts for single-node deployments.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"tagfeed/internal/repository"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	expires_at TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_kv_expires_at ON kv (expires_at);
`

// KV implements repository.KVStore on top of a SQLite database.
type KV struct {
	db *sql.DB

	// now is swappable for tests.
	now func() time.Time
}

// Open opens (and creates, if needed) the SQLite database at path and
// prepares the kv schema.
func Open(path string) (*KV, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite handles one writer at a time; a single connection avoids
	// SQLITE_BUSY under concurrent cache writes.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create kv schema: %w", err)
	}

	return &KV{db: db, now: time.Now}, nil
}

// NewWithDB wraps an existing database handle. The kv schema must already
// exist. Used in tests with sqlmock.
func NewWithDB(db *sql.DB) *KV {
	return &KV{db: db, now: time.Now}
}

// Get implements repository.KVStore.
func (kv *KV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	const query = `
SELECT value, expires_at
FROM kv
WHERE key = ?
LIMIT 1
`
	var value []byte
	var expiresAt sql.NullTime
	err := kv.db.QueryRowContext(ctx, query, key).Scan(&value, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("Get: QueryRowContext: %w", err)
	}

	if expiresAt.Valid && kv.now().After(expiresAt.Time) {
		// Expired entries read as absent; the reaper removes them later.
		return nil, false, nil
	}
	return value, true, nil
}

// Put implements repository.KVStore.
func (kv *KV) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	const query = `
INSERT INTO kv (key, value, expires_at)
VALUES (?, ?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at
`
	var expiresAt sql.NullTime
	if ttl > 0 {
		expiresAt = sql.NullTime{Time: kv.now().Add(ttl), Valid: true}
	}

	if _, err := kv.db.ExecContext(ctx, query, key, value, expiresAt); err != nil {
		return fmt.Errorf("Put: ExecContext: %w", err)
	}
	return nil
}

// Delete implements repository.KVStore.
func (kv *KV) Delete(ctx context.Context, key string) error {
	const query = `DELETE FROM kv WHERE key = ?`
	if _, err := kv.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("Delete: ExecContext: %w", err)
	}
	return nil
}

// List implements repository.KVStore.
func (kv *KV) List(ctx context.Context, prefix string) ([]string, error) {
	const query = `
SELECT key
FROM kv
WHERE key LIKE ? ESCAPE '\'
AND (expires_at IS NULL OR expires_at > ?)
`
	rows, err := kv.db.QueryContext(ctx, query, likePrefix(prefix), kv.now())
	if err != nil {
		return nil, fmt.Errorf("List: QueryContext: %w", err)
	}
	defer func() { _ = rows.Close() }()

	keys := make([]string, 0, 64)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("List: Scan: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows.Err: %w", err)
	}
	return keys, nil
}

// Ping implements repository.KVStore.
func (kv *KV) Ping(ctx context.Context) error {
	return kv.db.PingContext(ctx)
}

// Close implements repository.KVStore.
func (kv *KV) Close() error {
	return kv.db.Close()
}

// Reap deletes all expired entries. Intended to run periodically from the
// worker so the table does not grow without bound.
func (kv *KV) Reap(ctx context.Context) (int64, error) {
	const query = `DELETE FROM kv WHERE expires_at IS NOT NULL AND expires_at <= ?`
	res, err := kv.db.ExecContext(ctx, query, kv.now())
	if err != nil {
		return 0, fmt.Errorf("Reap: ExecContext: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("Reap: RowsAffected: %w", err)
	}
	return n, nil
}

// likePrefix escapes LIKE metacharacters so a key prefix matches literally.
func likePrefix(prefix string) string {
	escaped := make([]byte, 0, len(prefix)+8)
	for i := 0; i < len(prefix); i++ {
		switch prefix[i] {
		case '%', '_', '\\':
			escaped = append(escaped, '\\')
		}
		escaped = append(escaped, prefix[i])
	}
	return string(escaped) + "%"
}

var _ repository.KVStore = (*KV)(nil)

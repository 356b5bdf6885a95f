// Package postgres provides a PostgreSQL implementation of the key-value
// store for multi-instance deployments that share one cache.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"tagfeed/internal/repository"
	"tagfeed/internal/resilience/circuitbreaker"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      BYTEA NOT NULL,
	expires_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_kv_expires_at ON kv (expires_at);
`

// ConnectionConfig holds database connection pool configuration.
type ConnectionConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultConnectionConfig returns the default connection pool configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: 1 * time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
	}
}

// KV implements repository.KVStore on top of PostgreSQL via pgx.
// Queries run through a circuit breaker so a slow or unreachable database
// fails fast instead of stalling every cache operation.
type KV struct {
	db  *circuitbreaker.DBCircuitBreaker
	raw *sql.DB

	// now is swappable for tests.
	now func() time.Time
}

// Open connects to the database described by dsn, applies the connection
// pool configuration, and prepares the kv schema.
func Open(dsn string, cfg ConnectionConfig) (*KV, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create kv schema: %w", err)
	}

	return NewWithDB(db), nil
}

// NewWithDB wraps an existing database handle. Used in tests with sqlmock.
func NewWithDB(db *sql.DB) *KV {
	return &KV{
		db:  circuitbreaker.NewDBCircuitBreaker(db),
		raw: db,
		now: time.Now,
	}
}

// Get implements repository.KVStore.
func (kv *KV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	const query = `
SELECT value, expires_at
FROM kv
WHERE key = $1
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
		return nil, false, nil
	}
	return value, true, nil
}

// Put implements repository.KVStore.
func (kv *KV) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	const query = `
INSERT INTO kv (key, value, expires_at)
VALUES ($1, $2, $3)
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
	const query = `DELETE FROM kv WHERE key = $1`
	if _, err := kv.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("Delete: ExecContext: %w", err)
	}
	return nil
}

// List implements repository.KVStore.
func (kv *KV) List(ctx context.Context, prefix string) ([]string, error) {
	// starts_with avoids LIKE-metacharacter escaping for key prefixes.
	const query = `
SELECT key
FROM kv
WHERE starts_with(key, $1)
AND (expires_at IS NULL OR expires_at > $2)
`
	rows, err := kv.db.QueryContext(ctx, query, prefix, kv.now())
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
	return kv.raw.PingContext(ctx)
}

// Close implements repository.KVStore.
func (kv *KV) Close() error {
	return kv.raw.Close()
}

// Reap deletes all expired entries.
func (kv *KV) Reap(ctx context.Context) (int64, error) {
	const query = `DELETE FROM kv WHERE expires_at IS NOT NULL AND expires_at <= $1`
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

var _ repository.KVStore = (*KV)(nil)

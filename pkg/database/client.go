package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spaolacci/murmur3"

	"github.com/igorvan/omniscan/pkg/logging"
)

const (
	pingTimeout = 5 * time.Second
)

// Dialect - SQL flavour the key-value table is stored in
type Dialect int

const (
	// MySQL - go-sql-driver/mysql backed storage
	MySQL Dialect = iota
	// SQLite - modernc.org/sqlite backed storage
	SQLite
)

// DriverName - database/sql driver name of the dialect
func (d Dialect) DriverName() string {
	if d == SQLite {
		return "sqlite"
	}
	return "mysql"
}

// ParseDialect - maps a configured driver name onto a Dialect
func ParseDialect(name string) (Dialect, error) {
	switch name {
	case "mysql":
		return MySQL, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	}
	return 0, fmt.Errorf("unsupported storage driver %q", name)
}

// Client - DB backed key-value store
type Client struct {
	db      *sql.DB
	dialect Dialect
	log     *slog.Logger
}

// New - Client constructor
func New(db *sql.DB, dialect Dialect, log *slog.Logger) (*Client, error) {
	if db == nil {
		return nil, fmt.Errorf("no database handle provided")
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	err := db.PingContext(ctx)
	if err != nil {
		return nil, err
	}

	return &Client{db, dialect, logging.OrDiscard(log)}, nil
}

// Open - opens the database for the dialect and makes sure the table exists,
// the driver itself has to be registered by the caller
func Open(ctx context.Context, dialect Dialect, dsn string, log *slog.Logger) (*Client, error) {
	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, err
	}
	if dialect == SQLite {
		// a single connection keeps sqlite writers from tripping over each other
		db.SetMaxOpenConns(1)
	}
	cli, err := New(db, dialect, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := cli.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return cli, nil
}

// Migrate - creates the key-value table if it's missing
func (c *Client) Migrate(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, createTableQuery(c.dialect))
	if err != nil {
		return fmt.Errorf("cannot create kv_store table: %w", err)
	}
	return nil
}

// Get - returns the value stored under the key, ok is false if there is none
func (c *Client) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := c.db.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE hash = ?;`, Hash(key)).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		c.log.Error(fmt.Sprintf("cannot read key %s: %s", key, err))
		return "", false, err
	}
	return value, true, nil
}

// Set - insert or replace the value stored under the key
func (c *Client) Set(ctx context.Context, key, value string) error {
	_, err := c.db.ExecContext(ctx, upsertQuery(c.dialect), Hash(key), key, value, time.Now().UnixMilli())
	if err != nil {
		c.log.Error(fmt.Sprintf("cannot write key %s: %s", key, err))
	}
	return err
}

// Delete - removes the key, missing keys are not an error
func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM kv_store WHERE hash = ?;`, Hash(key))
	if err != nil {
		c.log.Error(fmt.Sprintf("cannot delete key %s: %s", key, err))
	}
	return err
}

// Close - closes the underlying database handle
func (c *Client) Close() error {
	return c.db.Close()
}

func createTableQuery(dialect Dialect) string {
	if dialect == SQLite {
		return `CREATE TABLE IF NOT EXISTS kv_store (
				hash INTEGER PRIMARY KEY,
				name TEXT NOT NULL,
				value TEXT NOT NULL,
				updated_at INTEGER NOT NULL);`
	}
	return `CREATE TABLE IF NOT EXISTS kv_store (
			hash BIGINT NOT NULL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			value LONGTEXT NOT NULL,
			updated_at BIGINT NOT NULL);`
}

func upsertQuery(dialect Dialect) string {
	if dialect == SQLite {
		return `INSERT INTO kv_store (hash, name, value, updated_at)
				VALUES (?,?,?,?)
				ON CONFLICT(hash) DO UPDATE SET
					value = excluded.value,
					updated_at = excluded.updated_at;`
	}
	return `INSERT INTO kv_store (hash, name, value, updated_at)
			VALUES (?,?,?,?)
			ON DUPLICATE KEY UPDATE
				value = VALUES(value),
				updated_at = VALUES(updated_at);`
}

// Hash - row key of a storage key, signed so every driver accepts it
func Hash(key string) int64 {
	return int64(murmur3.Sum64([]byte(key)))
}

// Package storage implements the SQLite-based persistence layer. Entities are
// stored as JSON documents with the columns the repositories filter on lifted
// out and indexed.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Config holds SQLite configuration options.
type Config struct {
	Path        string
	JournalMode string // WAL, DELETE, TRUNCATE
	Synchronous string // OFF, NORMAL, FULL
	CacheSize   int    // in KB (negative for KB, positive for pages)
	BusyTimeout int    // in milliseconds
}

// DefaultConfig returns the default SQLite configuration.
func DefaultConfig(dataDir string) Config {
	return Config{
		Path:        filepath.Join(dataDir, "plantline.db"),
		JournalMode: "WAL",
		Synchronous: "NORMAL",
		CacheSize:   -64000, // 64MB
		BusyTimeout: 5000,
	}
}

// DB wraps the SQLite database connection.
type DB struct {
	conn   *sql.DB
	config Config
}

// New creates a new SQLite database connection and initializes the schema.
func New(config Config) (*DB, error) {
	dir := filepath.Dir(config.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_journal_mode=%s&_synchronous=%s&_busy_timeout=%d",
		config.Path,
		config.JournalMode,
		config.Synchronous,
		config.BusyTimeout,
	)

	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{
		conn:   conn,
		config: config,
	}

	if err := db.applyPragmas(); err != nil {
		conn.Close()
		return nil, err
	}

	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, err
	}

	return db, nil
}

func (db *DB) applyPragmas() error {
	pragmas := []string{
		fmt.Sprintf("PRAGMA cache_size = %d", db.config.CacheSize),
		"PRAGMA temp_store = MEMORY",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.conn.Exec(pragma); err != nil {
			return fmt.Errorf("failed to apply pragma %q: %w", pragma, err)
		}
	}

	return nil
}

// initSchema creates the database tables if they don't exist.
func (db *DB) initSchema() error {
	schema := `
	-- Live recipe definitions
	CREATE TABLE IF NOT EXISTS recipes (
		id BLOB(16) PRIMARY KEY,
		name TEXT NOT NULL,
		is_deleted INTEGER DEFAULT 0,
		updated_at INTEGER NOT NULL,
		data JSON NOT NULL
	);

	-- Live product definitions
	CREATE TABLE IF NOT EXISTS products (
		id BLOB(16) PRIMARY KEY,
		name TEXT NOT NULL,
		is_deleted INTEGER DEFAULT 0,
		updated_at INTEGER NOT NULL,
		data JSON NOT NULL
	);

	-- Immutable recipe snapshots, append-only
	CREATE TABLE IF NOT EXISTS recipe_snapshots (
		id BLOB(16) PRIMARY KEY,
		recipe_id BLOB(16) NOT NULL,
		version INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		data JSON NOT NULL,
		UNIQUE (recipe_id, version)
	);
	CREATE INDEX IF NOT EXISTS idx_recipe_snapshots_recipe ON recipe_snapshots(recipe_id, version DESC);

	-- Immutable product snapshots, append-only
	CREATE TABLE IF NOT EXISTS product_snapshots (
		id BLOB(16) PRIMARY KEY,
		product_id BLOB(16) NOT NULL,
		version INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		data JSON NOT NULL,
		UNIQUE (product_id, version)
	);
	CREATE INDEX IF NOT EXISTS idx_product_snapshots_product ON product_snapshots(product_id, version DESC);

	-- Production runs
	CREATE TABLE IF NOT EXISTS projects (
		id BLOB(16) PRIMARY KEY,
		status TEXT NOT NULL,
		is_deleted INTEGER DEFAULT 0,
		updated_at INTEGER NOT NULL,
		data JSON NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_projects_status ON projects(status) WHERE is_deleted = 0;

	-- Work units
	CREATE TABLE IF NOT EXISTS tasks (
		id BLOB(16) PRIMARY KEY,
		project_id BLOB(16) NOT NULL,
		recipe_snapshot_id BLOB(16) NOT NULL,
		device_type_id BLOB(16) NOT NULL,
		device_id BLOB(16),
		worker_id BLOB(16),
		status TEXT NOT NULL,
		is_last_step INTEGER NOT NULL,
		priority INTEGER DEFAULT 0,
		data JSON NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
	CREATE INDEX IF NOT EXISTS idx_tasks_device_type ON tasks(device_type_id, status);

	-- Registered devices
	CREATE TABLE IF NOT EXISTS devices (
		id BLOB(16) PRIMARY KEY,
		device_type_id BLOB(16) NOT NULL,
		status TEXT NOT NULL,
		data JSON NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_devices_type ON devices(device_type_id);

	-- Alerts
	CREATE TABLE IF NOT EXISTS alerts (
		id BLOB(16) PRIMARY KEY,
		status TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		data JSON NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_alerts_status ON alerts(status);
	`

	_, err := db.conn.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying database connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// BeginTx starts a new transaction.
func (db *DB) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return db.conn.BeginTx(ctx, nil)
}

func idBytes(id uuid.UUID) []byte {
	b, _ := id.MarshalBinary()
	return b
}

// nullableID converts an optional UUID to a driver value.
func nullableID(id *uuid.UUID) interface{} {
	if id == nil {
		return nil
	}
	return idBytes(*id)
}

func uuidFromBytes(b []byte) uuid.UUID {
	id, err := uuid.FromBytes(b)
	if err != nil {
		return uuid.Nil
	}
	return id
}

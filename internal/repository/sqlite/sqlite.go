package sqlite

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite database connection with thread-safe access.
type DB struct {
	conn *sql.DB
	mu   sync.RWMutex
}

// New creates and initializes a new SQLite database connection.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// migrate creates the necessary tables if they don't exist.
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS detection_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		image_path TEXT NOT NULL,
		image_filename TEXT NOT NULL DEFAULT '',
		image_size INTEGER DEFAULT 0,
		image_width INTEGER DEFAULT 0,
		image_height INTEGER DEFAULT 0,
		image_format TEXT DEFAULT '',
		total_violations INTEGER DEFAULT 0,
		confidence_threshold REAL DEFAULT 0.5,
		iou_threshold REAL DEFAULT 0.45,
		processing_time REAL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'detected',
		metadata TEXT DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS violation_detections (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		result_id INTEGER NOT NULL,
		class_id INTEGER NOT NULL,
		class_name TEXT NOT NULL,
		violation_category TEXT DEFAULT '',
		confidence REAL NOT NULL,
		bbox_x REAL NOT NULL,
		bbox_y REAL NOT NULL,
		bbox_width REAL NOT NULL,
		bbox_height REAL NOT NULL,
		area REAL NOT NULL,
		severity TEXT DEFAULT '',
		description TEXT DEFAULT '',
		FOREIGN KEY (result_id) REFERENCES detection_results(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_results_status ON detection_results(status);
	CREATE INDEX IF NOT EXISTS idx_results_created_at ON detection_results(created_at);
	CREATE INDEX IF NOT EXISTS idx_detections_result_id ON violation_detections(result_id);
	CREATE INDEX IF NOT EXISTS idx_detections_category ON violation_detections(violation_category);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying database connection for use by repositories.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Lock acquires a write lock.
func (db *DB) Lock() {
	db.mu.Lock()
}

// Unlock releases the write lock.
func (db *DB) Unlock() {
	db.mu.Unlock()
}

// RLock acquires a read lock.
func (db *DB) RLock() {
	db.mu.RLock()
}

// RUnlock releases the read lock.
func (db *DB) RUnlock() {
	db.mu.RUnlock()
}

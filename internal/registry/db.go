package registry

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB is the artifact registry database handle.
type DB struct {
	*sql.DB
	prepared map[string]*sql.Stmt
	mutex    sync.RWMutex
}

// NewDB opens (or creates) the registry database under dataDir.
func NewDB(dataDir string) (*DB, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "modelmeter.db")
	connStr := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	database := &DB{
		DB:       db,
		prepared: make(map[string]*sql.Stmt),
	}

	if err := database.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := database.initPreparedStatements(); err != nil {
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return database, nil
}

// NewMemoryDB opens an in-memory registry, used by tests.
func NewMemoryDB() (*DB, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	// A single connection keeps all statements on the same in-memory db.
	db.SetMaxOpenConns(1)

	database := &DB{
		DB:       db,
		prepared: make(map[string]*sql.Stmt),
	}
	if err := database.migrate(); err != nil {
		return nil, err
	}
	if err := database.initPreparedStatements(); err != nil {
		return nil, err
	}
	return database, nil
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS artifacts (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		version TEXT NOT NULL DEFAULT '1.0.0',
		net_score REAL,
		scores_json TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		UNIQUE(name, version)
	);
	CREATE INDEX IF NOT EXISTS idx_artifacts_name ON artifacts(name);
	`
	_, err := db.Exec(schema)
	return err
}

func (db *DB) initPreparedStatements() error {
	statements := map[string]string{
		"upsert_artifact": `
			INSERT INTO artifacts (id, name, version, net_score, scores_json, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(name, version) DO UPDATE SET
				net_score = excluded.net_score,
				scores_json = excluded.scores_json,
				updated_at = excluded.updated_at`,
		"list_artifacts": `
			SELECT name, version, net_score FROM artifacts
			WHERE name LIKE ? ORDER BY name LIMIT ?`,
		"get_by_name": `
			SELECT net_score, scores_json FROM artifacts
			WHERE name = ? ORDER BY updated_at DESC LIMIT 1`,
	}

	db.mutex.Lock()
	defer db.mutex.Unlock()
	for name, query := range statements {
		stmt, err := db.Prepare(query)
		if err != nil {
			return fmt.Errorf("failed to prepare %s: %w", name, err)
		}
		db.prepared[name] = stmt
	}
	return nil
}

func (db *DB) stmt(name string) *sql.Stmt {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	return db.prepared[name]
}

// Close closes prepared statements and the underlying connection.
func (db *DB) Close() error {
	db.mutex.Lock()
	for _, stmt := range db.prepared {
		stmt.Close()
	}
	db.prepared = make(map[string]*sql.Stmt)
	db.mutex.Unlock()
	return db.DB.Close()
}

// Package ledgerstore mirrors a cluster's bus.Event stream to a SQLite
// database for observability, per spec.md's "optionally mirrored to disk"
// non-goal: the ledger itself stays in-memory and authoritative in
// internal/bus, this package is a write-only, best-effort sink a caller
// can query after the fact. It is never read back into live cluster state.
package ledgerstore

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "github.com/ncruces/go-sqlite3/driver" // registers the "sqlite3" database/sql driver
	_ "github.com/ncruces/go-sqlite3/embed"  // embeds the pure-Go sqlite3 runtime

	"github.com/zeroshot/zeroshot/internal/log"
)

// DB owns a sqlite connection and the ledgerstore schema migrated onto it.
type DB struct {
	conn *sql.DB
	path string
}

// NewDB opens (creating if necessary) the sqlite database at path,
// creating its parent directory with 0700 permissions, backing up any
// pre-existing file to path+".bak" before migrating it, applying pending
// schema migrations, and enabling WAL journaling, foreign keys, and a
// busy timeout generous enough for a mirror writer and a concurrent
// reader (e.g. a CLI inspection command) to coexist.
func NewDB(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("ledgerstore: create directory for %s: %w", path, err)
	}

	if _, err := os.Stat(path); err == nil {
		if err := backupFile(path, path+".bak"); err != nil {
			return nil, fmt.Errorf("ledgerstore: backup %s: %w", path, err)
		}
	}

	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("ledgerstore: open %s: %w", path, err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("ledgerstore: %s: %w", pragma, err)
		}
	}

	if err := migrateSchema(conn); err != nil {
		_ = conn.Close()
		return nil, err
	}

	log.Debug(log.CatLedger, "ledger database ready", "path", path)
	return &DB{conn: conn, path: path}, nil
}

func migrateSchema(conn *sql.DB) error {
	driver, err := sqlitemigrate.WithInstance(conn, &sqlitemigrate.Config{})
	if err != nil {
		return fmt.Errorf("ledgerstore: migration driver: %w", err)
	}
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("ledgerstore: migration source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("ledgerstore: migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("ledgerstore: apply migrations: %w", err)
	}
	return nil
}

func backupFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	_, err = io.Copy(out, in)
	return err
}

// Connection returns the underlying *sql.DB for callers that need direct
// query access (e.g. a CLI command inspecting a cluster's mirrored
// history).
func (d *DB) Connection() *sql.DB {
	return d.conn
}

// Mirror returns a bus.Mirror writing every event to this database,
// usable directly as orchestrator.Options.Mirror.
func (d *DB) Mirror() *Store {
	return newStore(d.conn)
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	return d.conn.Close()
}

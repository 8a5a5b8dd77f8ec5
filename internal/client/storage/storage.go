// Package storage opens the local SQLite database and brings its schema up
// to date.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/homes/internal/client/migrations"
	"github.com/dmitrijs2005/homes/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/homes/internal/filex"
	"github.com/dmitrijs2005/homes/internal/logging"
)

const driverName = "sqlite"

// DB is the opened client database.
type DB struct {
	*sql.DB
	Metadata metadata.Repository
}

// RunMigrations applies all pending embedded migrations.
func RunMigrations(ctx context.Context, db *sql.DB, log logging.Logger) error {
	p, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.Migrations)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	results, err := p.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	for _, r := range results {
		log.Debug(ctx, "migration applied", "version", r.Source.Version, "duration", r.Duration)
	}
	return nil
}

// Open opens (creating if needed) the database at dsn and migrates it.
// Missing parent directories of a file path are created.
// ":memory:" is accepted for tests; the pool is then pinned to one
// connection so every caller sees the same database.
func Open(ctx context.Context, dsn string, log logging.Logger) (*DB, error) {
	if log == nil {
		log = logging.Nop()
	}

	if _, err := filex.EnsureParentDir(dsn); err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// sqlite serializes writers; one connection avoids SQLITE_BUSY between
	// the session transaction and concurrent reads.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := RunMigrations(ctx, db, log); err != nil {
		_ = db.Close()
		return nil, err
	}

	log.Info(ctx, "database ready", "dsn", dsn)
	return &DB{DB: db, Metadata: metadata.NewSQLiteRepository(db)}, nil
}

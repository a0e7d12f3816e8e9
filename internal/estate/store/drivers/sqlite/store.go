// Package sqlite opens the estate store on an embedded SQLite database.
package sqlite

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/estate/internal/estate/store/drivers/sqldb"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const driverName = "sqlite"

func init() {
	sqlx.BindDriver(driverName, sqlx.QUESTION)
}

// NewStore opens dsn (a file path or ":memory:") with foreign keys enforced.
func NewStore(dsn string) (*sqldb.Store, error) {
	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}

	// One connection: writers serialize and ":memory:" stays a single database.
	db.SetMaxOpenConns(1)

	// Enforce FKs
	if _, err := db.ExecContext(context.Background(), `PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return sqldb.New(db, sqldb.Dialect{
		Name:              driverName,
		IsUniqueViolation: isUniqueViolation,
		Migrate:           applyMigrations,
	}), nil
}

func isUniqueViolation(err error) bool {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	return serr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

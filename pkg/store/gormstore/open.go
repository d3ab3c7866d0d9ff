package gormstore

import (
	"context"
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	mysqlcomp "github.com/kart-io/guard/pkg/component/mysql"
	pgcomp "github.com/kart-io/guard/pkg/component/postgres"
	mysqlopts "github.com/kart-io/guard/pkg/options/mysql"
	pgopts "github.com/kart-io/guard/pkg/options/postgres"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// OpenMySQL connects through the mysql component and returns a store that
// owns the connection.
func OpenMySQL(ctx context.Context, o *mysqlopts.Options, opts ...Option) (*Store, error) {
	client, err := mysqlcomp.NewWithContext(ctx, o)
	if err != nil {
		return nil, err
	}
	s, err := New(client.DB(), append(opts, withOwner(client))...)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return s, nil
}

// OpenPostgres connects through the postgres component and returns a store
// that owns the connection.
func OpenPostgres(ctx context.Context, o *pgopts.Options, opts ...Option) (*Store, error) {
	client, err := pgcomp.NewWithContext(ctx, o)
	if err != nil {
		return nil, err
	}
	s, err := New(client.DB(), append(opts, withOwner(client))...)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return s, nil
}

// OpenSQLite opens or creates a SQLite database at path. The pure-Go
// driver keeps binaries cgo-free; ":memory:" works for throwaway stores.
func OpenSQLite(path string, opts ...Option) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path cannot be empty")
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite at %s: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	s, err := New(db, append(opts, withOwner(closerFunc(sqlDB.Close)))...)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return s, nil
}

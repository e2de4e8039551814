package client

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"github.com/dmitrijs2005/daylog/internal/client/migrations"
	"github.com/dmitrijs2005/daylog/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/daylog/internal/client/repositories/records"
	"github.com/dmitrijs2005/daylog/internal/filex"
)

type Repositories struct {
	DB        *sql.DB
	Records   *records.SQLiteRepository
	Metadata  metadata.Repository
	Snapshots *metadata.Snapshots
}

func (r *Repositories) Close() error {
	return r.DB.Close()
}

// InitDatabase opens (or creates) the SQLite file at dsn, applies the
// embedded migrations and returns the local repositories.
func InitDatabase(ctx context.Context, dsn string) (*Repositories, error) {
	dsn, err := filex.EnsureParentDir(dsn)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dsn, err)
	}
	// SQLite allows one writer; a single connection keeps writes serialised.
	db.SetMaxOpenConns(1)

	if err := migrations.Up(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	meta := metadata.NewSQLiteRepository(db)
	return &Repositories{
		DB:        db,
		Records:   records.NewSQLiteRepository(db),
		Metadata:  meta,
		Snapshots: metadata.NewSnapshots(meta),
	}, nil
}

package client

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/daylog/internal/common"
)

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&n)
	if err != nil {
		t.Fatalf("tableExists query failed: %v", err)
	}
	return n > 0
}

func TestInitDatabase_CreatesSchema(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "daylog.db")

	repos, err := InitDatabase(ctx, dsn)
	if err != nil {
		t.Fatalf("InitDatabase error: %v", err)
	}
	defer repos.Close()

	if err := repos.DB.PingContext(ctx); err != nil {
		t.Fatalf("db.PingContext failed: %v", err)
	}

	for _, name := range []string{"goose_db_version", "daily_records", "monthly_summary", "metadata"} {
		if !tableExists(t, repos.DB, name) {
			t.Fatalf("expected %s table to exist after migrations", name)
		}
	}
}

func TestInitDatabase_IsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "daylog.db")

	first, err := InitDatabase(ctx, dsn)
	if err != nil {
		t.Fatalf("InitDatabase (first) error: %v", err)
	}
	if _, err := first.Records.Upsert(ctx, common.LocalOwner, "2024-03-15", "ran 5k"); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	_ = first.Close()

	second, err := InitDatabase(ctx, dsn)
	if err != nil {
		t.Fatalf("InitDatabase (second) should be idempotent, got error: %v", err)
	}
	defer second.Close()

	rec, err := second.Records.Get(ctx, common.LocalOwner, "2024-03-15")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if rec == nil || rec.Content != "ran 5k" {
		t.Fatalf("record did not survive reopen: %+v", rec)
	}
}

func TestInitDatabase_MetadataRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repos, err := InitDatabase(ctx, filepath.Join(t.TempDir(), "daylog.db"))
	if err != nil {
		t.Fatalf("InitDatabase error: %v", err)
	}
	defer repos.Close()

	if err := repos.Metadata.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	got, err := repos.Metadata.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if string(got) != "v" {
		t.Fatalf("unexpected metadata value: %q", got)
	}
}

func TestInitDatabase_CreatesMissingDirectory(t *testing.T) {
	t.Parallel()

	dsn := filepath.Join(t.TempDir(), "nested", "dir", "daylog.db")
	repos, err := InitDatabase(context.Background(), dsn)
	if err != nil {
		t.Fatalf("InitDatabase error: %v", err)
	}
	defer repos.Close()

	if !tableExists(t, repos.DB, "daily_records") {
		t.Fatal("expected daily_records table in the nested database")
	}
}

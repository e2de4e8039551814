// Package records is the local record store: daily records and monthly
// summaries kept in the client's SQLite database under the local owner.
package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/dmitrijs2005/daylog/internal/common"
	"github.com/dmitrijs2005/daylog/internal/dbx"
	"github.com/dmitrijs2005/daylog/internal/journal"
)

type SQLiteRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

var (
	_ journal.Store        = (*SQLiteRepository)(nil)
	_ journal.SummaryStore = (*SQLiteRepository)(nil)
	_ journal.Restorer     = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

// WithClock replaces the time source used for timestamps.
func (r *SQLiteRepository) WithClock(now func() time.Time) *SQLiteRepository {
	return &SQLiteRepository{db: r.db, now: now}
}

const recordColumns = `id, user_id, date, content, summary, created_at, updated_at`

func (r *SQLiteRepository) Get(ctx context.Context, owner, date string) (*journal.Record, error) {
	return getRecord(ctx, r.db, owner, date)
}

func (r *SQLiteRepository) Upsert(ctx context.Context, owner, date, content string) (*journal.Record, error) {
	var out *journal.Record
	err := dbx.Atomic(ctx, r.db, func(ctx context.Context, tx dbx.DBTX) error {
		prev, err := getRecord(ctx, tx, owner, date)
		if err != nil {
			return err
		}

		if prev == nil {
			ts := journal.NextStamp(time.Time{}, r.now())
			_, err = tx.ExecContext(ctx, `
				INSERT INTO daily_records (`+recordColumns+`)
				VALUES (?, ?, ?, ?, NULL, ?, ?)`,
				ulid.Make().String(), owner, date, content, dbx.FormatTime(ts), dbx.FormatTime(ts))
		} else {
			ts := journal.NextStamp(prev.UpdatedAt, r.now())
			_, err = tx.ExecContext(ctx, `
				UPDATE daily_records SET content = ?, updated_at = ?
				WHERE user_id = ? AND date = ?`,
				content, dbx.FormatTime(ts), owner, date)
		}
		if err != nil {
			return storeErr("upsert record", err)
		}

		out, err = getRecord(ctx, tx, owner, date)
		return err
	})
	return out, err
}

func (r *SQLiteRepository) UpdateSummary(ctx context.Context, owner, date string, summary *string) (*journal.Record, error) {
	var out *journal.Record
	err := dbx.Atomic(ctx, r.db, func(ctx context.Context, tx dbx.DBTX) error {
		prev, err := getRecord(ctx, tx, owner, date)
		if err != nil {
			return err
		}
		if prev == nil {
			return fmt.Errorf("update summary %s: %w", date, common.ErrNotFound)
		}

		ts := journal.NextStamp(prev.UpdatedAt, r.now())
		if _, err := tx.ExecContext(ctx, `
			UPDATE daily_records SET summary = ?, updated_at = ?
			WHERE user_id = ? AND date = ?`,
			dbx.NullString(journal.NormalizeSummary(summary)), dbx.FormatTime(ts), owner, date); err != nil {
			return storeErr("update summary", err)
		}

		out, err = getRecord(ctx, tx, owner, date)
		return err
	})
	return out, err
}

func (r *SQLiteRepository) Delete(ctx context.Context, owner, date string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM daily_records WHERE user_id = ? AND date = ?`, owner, date)
	if err != nil {
		return storeErr("delete record", err)
	}
	return nil
}

func (r *SQLiteRepository) ListRange(ctx context.Context, owner, from, to string) ([]journal.Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+recordColumns+` FROM daily_records
		WHERE user_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC`, owner, from, to)
	if err != nil {
		return nil, storeErr("list records", err)
	}
	defer rows.Close()

	result := make([]journal.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate records", err)
	}
	return result, nil
}

// Restore writes an imported record. Content and summary are overwritten,
// the original creation time is kept when the date already exists.
func (r *SQLiteRepository) Restore(ctx context.Context, owner string, rec journal.Record) (*journal.Record, error) {
	var out *journal.Record
	err := dbx.Atomic(ctx, r.db, func(ctx context.Context, tx dbx.DBTX) error {
		prev, err := getRecord(ctx, tx, owner, rec.Date)
		if err != nil {
			return err
		}

		summary := dbx.NullString(journal.NormalizeSummary(rec.Summary))
		if prev == nil {
			ts := journal.NextStamp(time.Time{}, r.now())
			created := rec.CreatedAt
			if created.IsZero() {
				created = ts
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO daily_records (`+recordColumns+`)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				ulid.Make().String(), owner, rec.Date, rec.Content, summary, dbx.FormatTime(created), dbx.FormatTime(ts))
		} else {
			ts := journal.NextStamp(prev.UpdatedAt, r.now())
			_, err = tx.ExecContext(ctx, `
				UPDATE daily_records SET content = ?, summary = ?, updated_at = ?
				WHERE user_id = ? AND date = ?`,
				rec.Content, summary, dbx.FormatTime(ts), owner, rec.Date)
		}
		if err != nil {
			return storeErr("restore record", err)
		}

		out, err = getRecord(ctx, tx, owner, rec.Date)
		return err
	})
	return out, err
}

func (r *SQLiteRepository) GetMonthlySummary(ctx context.Context, owner, month string) (*journal.MonthlySummary, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_id, month, summary, created_at, updated_at
		FROM monthly_summary WHERE user_id = ? AND month = ?`, owner, month)
	s, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

func (r *SQLiteRepository) PutMonthlySummary(ctx context.Context, owner string, s journal.MonthlySummary) (*journal.MonthlySummary, error) {
	body, err := json.Marshal(s.Review)
	if err != nil {
		return nil, fmt.Errorf("encode review: %w", err)
	}

	updated := s.UpdatedAt
	if updated.IsZero() {
		updated = r.now()
	}
	created := s.CreatedAt
	if created.IsZero() {
		created = updated
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO monthly_summary (user_id, month, summary, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, month) DO UPDATE SET
			summary = excluded.summary,
			updated_at = excluded.updated_at`,
		owner, s.Month, string(body), dbx.FormatTime(created), dbx.FormatTime(updated))
	if err != nil {
		return nil, storeErr("put monthly summary", err)
	}
	return r.GetMonthlySummary(ctx, owner, s.Month)
}

func (r *SQLiteRepository) ListMonthlySummaries(ctx context.Context, owner string) ([]journal.MonthlySummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, month, summary, created_at, updated_at
		FROM monthly_summary WHERE user_id = ? ORDER BY month ASC`, owner)
	if err != nil {
		return nil, storeErr("list monthly summaries", err)
	}
	defer rows.Close()

	result := make([]journal.MonthlySummary, 0)
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate monthly summaries", err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func getRecord(ctx context.Context, db dbx.DBTX, owner, date string) (*journal.Record, error) {
	row := db.QueryRowContext(ctx, `
		SELECT `+recordColumns+` FROM daily_records
		WHERE user_id = ? AND date = ?`, owner, date)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

func scanRecord(s scanner) (*journal.Record, error) {
	var (
		rec              journal.Record
		summary          sql.NullString
		created, updated string
	)
	if err := s.Scan(&rec.ID, &rec.Owner, &rec.Date, &rec.Content, &summary, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, storeErr("scan record", err)
	}

	var err error
	if rec.CreatedAt, err = dbx.ParseTime(created); err != nil {
		return nil, err
	}
	if rec.UpdatedAt, err = dbx.ParseTime(updated); err != nil {
		return nil, err
	}
	rec.Summary = dbx.StringPtr(summary)
	return &rec, nil
}

func scanSummary(s scanner) (*journal.MonthlySummary, error) {
	var (
		ms               journal.MonthlySummary
		body             string
		created, updated string
	)
	if err := s.Scan(&ms.Owner, &ms.Month, &body, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, storeErr("scan monthly summary", err)
	}
	if err := json.Unmarshal([]byte(body), &ms.Review); err != nil {
		return nil, fmt.Errorf("decode review %s: %w", ms.Month, err)
	}

	var err error
	if ms.CreatedAt, err = dbx.ParseTime(created); err != nil {
		return nil, err
	}
	if ms.UpdatedAt, err = dbx.ParseTime(updated); err != nil {
		return nil, err
	}
	return &ms, nil
}

// storeErr wraps a database error. Lock contention is reported as
// common.ErrUnavailable so callers may retry.
func storeErr(op string, err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return fmt.Errorf("%s: %w: %v", op, common.ErrUnavailable, err)
		}
	}
	return fmt.Errorf("%s: db error: %w", op, err)
}

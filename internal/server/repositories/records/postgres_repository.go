package records

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/daylog/internal/common"
	"github.com/dmitrijs2005/daylog/internal/dbx"
	"github.com/dmitrijs2005/daylog/internal/journal"
)

type PostgresRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

var (
	_ Repository           = (*PostgresRepository)(nil)
	_ journal.SummaryStore = (*PostgresRepository)(nil)
	_ journal.Restorer     = (*PostgresRepository)(nil)
)

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db, now: time.Now}
}

func (r *PostgresRepository) WithClock(now func() time.Time) *PostgresRepository {
	return &PostgresRepository{db: r.db, now: now}
}

const recordColumns = `id, user_id, to_char(date, 'YYYY-MM-DD'), content, summary, created_at, updated_at`

// bump keeps updated_at strictly increasing even when the clock has not
// moved since the last write.
const bump = `GREATEST($%d, daily_records.updated_at + interval '1 microsecond')`

func (r *PostgresRepository) stamp() time.Time {
	return journal.NextStamp(time.Time{}, r.now())
}

func (r *PostgresRepository) Get(ctx context.Context, owner, date string) (*journal.Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+`
		FROM daily_records WHERE user_id = $1 AND date = $2`, owner, date)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("get record", err)
	}
	return rec, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, owner, date, content string) (*journal.Record, error) {
	ts := r.stamp()
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO daily_records (id, user_id, date, content, summary, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULL, $5, $5)
		ON CONFLICT (user_id, date) DO UPDATE SET
			content = EXCLUDED.content,
			updated_at = `+fmt.Sprintf(bump, 5)+`
		RETURNING `+recordColumns,
		uuid.NewString(), owner, date, content, ts)
	rec, err := scanRecord(row)
	if err != nil {
		return nil, storeErr("upsert record", err)
	}
	return rec, nil
}

func (r *PostgresRepository) UpdateSummary(ctx context.Context, owner, date string, summary *string) (*journal.Record, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE daily_records SET summary = $3, updated_at = `+fmt.Sprintf(bump, 4)+`
		WHERE user_id = $1 AND date = $2
		RETURNING `+recordColumns,
		owner, date, dbx.NullString(journal.NormalizeSummary(summary)), r.stamp())
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update summary %s: %w", date, common.ErrNotFound)
	}
	if err != nil {
		return nil, storeErr("update summary", err)
	}
	return rec, nil
}

// UpdateSummaryIfUnchanged stores summary only while the record still
// carries stamp as its updated_at. It returns (nil, nil) when the record was
// edited, resummarised or removed since, so a background summary never
// replaces newer content or a summary the user wrote.
func (r *PostgresRepository) UpdateSummaryIfUnchanged(ctx context.Context, owner, date string, stamp time.Time, summary *string) (*journal.Record, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE daily_records SET summary = $4, updated_at = `+fmt.Sprintf(bump, 5)+`
		WHERE user_id = $1 AND date = $2 AND updated_at = $3
		RETURNING `+recordColumns,
		owner, date, stamp.UTC(), dbx.NullString(journal.NormalizeSummary(summary)), r.stamp())
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("update summary", err)
	}
	return rec, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, owner, date string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM daily_records WHERE user_id = $1 AND date = $2`, owner, date)
	if err != nil {
		return storeErr("delete record", err)
	}
	return nil
}

func (r *PostgresRepository) ListRange(ctx context.Context, owner, from, to string) ([]journal.Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM daily_records
		WHERE user_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC`, owner, from, to)
	if err != nil {
		return nil, storeErr("list records", err)
	}
	defer rows.Close()

	result := make([]journal.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, storeErr("scan record", err)
		}
		result = append(result, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate records", err)
	}
	return result, nil
}

func (r *PostgresRepository) Restore(ctx context.Context, owner string, rec journal.Record) (*journal.Record, error) {
	ts := r.stamp()
	created := rec.CreatedAt
	if created.IsZero() {
		created = ts
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO daily_records (id, user_id, date, content, summary, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, date) DO UPDATE SET
			content = EXCLUDED.content,
			summary = EXCLUDED.summary,
			updated_at = `+fmt.Sprintf(bump, 7)+`
		RETURNING `+recordColumns,
		uuid.NewString(), owner, rec.Date, rec.Content, dbx.NullString(journal.NormalizeSummary(rec.Summary)), created, ts)
	out, err := scanRecord(row)
	if err != nil {
		return nil, storeErr("restore record", err)
	}
	return out, nil
}

const summaryColumns = `user_id, month, summary, created_at, updated_at`

func (r *PostgresRepository) GetMonthlySummary(ctx context.Context, owner, month string) (*journal.MonthlySummary, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+summaryColumns+`
		FROM monthly_summary WHERE user_id = $1 AND month = $2`, owner, month)
	s, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("get monthly summary", err)
	}
	return s, nil
}

func (r *PostgresRepository) PutMonthlySummary(ctx context.Context, owner string, s journal.MonthlySummary) (*journal.MonthlySummary, error) {
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

	row := r.db.QueryRowContext(ctx, `
		INSERT INTO monthly_summary (user_id, month, summary, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, month) DO UPDATE SET
			summary = EXCLUDED.summary,
			updated_at = EXCLUDED.updated_at
		RETURNING `+summaryColumns,
		owner, s.Month, body, created, updated)
	out, err := scanSummary(row)
	if err != nil {
		return nil, storeErr("put monthly summary", err)
	}
	return out, nil
}

func (r *PostgresRepository) ListMonthlySummaries(ctx context.Context, owner string) ([]journal.MonthlySummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+summaryColumns+`
		FROM monthly_summary WHERE user_id = $1 ORDER BY month ASC`, owner)
	if err != nil {
		return nil, storeErr("list monthly summaries", err)
	}
	defer rows.Close()

	result := make([]journal.MonthlySummary, 0)
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, storeErr("scan monthly summary", err)
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

func scanRecord(s scanner) (*journal.Record, error) {
	var (
		rec     journal.Record
		summary sql.NullString
	)
	if err := s.Scan(&rec.ID, &rec.Owner, &rec.Date, &rec.Content, &summary, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	rec.Summary = dbx.StringPtr(summary)
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	return &rec, nil
}

func scanSummary(s scanner) (*journal.MonthlySummary, error) {
	var (
		out  journal.MonthlySummary
		body []byte
	)
	if err := s.Scan(&out.Owner, &out.Month, &body, &out.CreatedAt, &out.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(body, &out.Review); err != nil {
		return nil, fmt.Errorf("decode review %s: %w", out.Month, err)
	}
	out.CreatedAt = out.CreatedAt.UTC()
	out.UpdatedAt = out.UpdatedAt.UTC()
	return &out, nil
}

// storeErr wraps err, marking connection loss as common.ErrUnavailable.
func storeErr(op string, err error) error {
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.Timeout(err) || errors.Is(err, driver.ErrBadConn) {
		return fmt.Errorf("%s: %w: %v", op, common.ErrUnavailable, err)
	}
	return fmt.Errorf("%s: db error: %w", op, err)
}

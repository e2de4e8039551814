package journal

import (
	"context"
	"time"
)

// Store is the authoritative record store. Implementations:
// the local SQLite repository, the remote gRPC client, and the server's
// Postgres repository.
//
// Get returns (nil, nil) when nothing is stored for the date. Upsert never
// touches the summary. Every mutation advances UpdatedAt. Failures wrap
// common.ErrUnauthenticated or common.ErrUnavailable where applicable.
type Store interface {
	Get(ctx context.Context, owner, date string) (*Record, error)
	Upsert(ctx context.Context, owner, date, content string) (*Record, error)
	UpdateSummary(ctx context.Context, owner, date string, summary *string) (*Record, error)
	Delete(ctx context.Context, owner, date string) error
	ListRange(ctx context.Context, owner, from, to string) ([]Record, error)
}

// SummaryStore persists monthly reviews keyed by (owner, month).
type SummaryStore interface {
	GetMonthlySummary(ctx context.Context, owner, month string) (*MonthlySummary, error)
	PutMonthlySummary(ctx context.Context, owner string, s MonthlySummary) (*MonthlySummary, error)
	ListMonthlySummaries(ctx context.Context, owner string) ([]MonthlySummary, error)
}

// Restorer writes an imported record as-is: content and summary overwrite
// whatever is stored for the date.
type Restorer interface {
	Restore(ctx context.Context, owner string, rec Record) (*Record, error)
}

// Generator produces summaries. Daily returns "" when there is nothing to
// summarise.
type Generator interface {
	Daily(ctx context.Context, content string) (string, error)
	Monthly(ctx context.Context, merged string, year int, month time.Month) (*Review, error)
	Keywords(ctx context.Context, summaries []string) ([]Keyword, error)
}

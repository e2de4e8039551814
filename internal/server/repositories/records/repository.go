// Package records is the server's per-user record store in Postgres.
package records

import (
	"context"
	"time"

	"github.com/dmitrijs2005/daylog/internal/journal"
)

// Repository is a journal.Store that can also write a summary conditionally
// on the record being untouched since the content it was generated from was
// saved.
type Repository interface {
	journal.Store
	journal.SummaryStore
	journal.Restorer
	UpdateSummaryIfUnchanged(ctx context.Context, owner, date string, stamp time.Time, summary *string) (*journal.Record, error)
}

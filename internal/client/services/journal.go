package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dmitrijs2005/daylog/internal/backup"
	"github.com/dmitrijs2005/daylog/internal/client/client"
	"github.com/dmitrijs2005/daylog/internal/journal"
	"github.com/dmitrijs2005/daylog/internal/review"
)

// ErrRemoteOnly is returned by operations only the server can run.
var ErrRemoteOnly = errors.New("available in remote mode only")

// Reviewer answers month and year questions about an owner's journal.
type Reviewer interface {
	Review(ctx context.Context, owner string, year int, month time.Month, cachedOnly bool) (*journal.MonthlySummary, error)
	Keywords(ctx context.Context, owner string, year int, month time.Month) ([]journal.Keyword, error)
	Year(ctx context.Context, owner string, year int) ([]journal.Record, error)
}

// Archiver moves a whole journal in and out.
type Archiver interface {
	Export(ctx context.Context, owner string) ([]byte, error)
	Import(ctx context.Context, owner string, data []byte) (*backup.Report, error)
	Backup(ctx context.Context, owner string) (key, url string, err error)
}

// LocalJournal runs reviews and backups in-process over the local store.
type LocalJournal struct {
	reviews *review.Service
	backups *backup.Service
}

var (
	_ Reviewer = (*LocalJournal)(nil)
	_ Archiver = (*LocalJournal)(nil)
)

func NewLocalJournal(reviews *review.Service, backups *backup.Service) *LocalJournal {
	return &LocalJournal{reviews: reviews, backups: backups}
}

func (l *LocalJournal) Review(ctx context.Context, owner string, year int, month time.Month, cachedOnly bool) (*journal.MonthlySummary, error) {
	if cachedOnly {
		return l.reviews.Cached(ctx, owner, year, month)
	}
	return l.reviews.GetOrGenerate(ctx, owner, year, month)
}

func (l *LocalJournal) Keywords(ctx context.Context, owner string, year int, month time.Month) ([]journal.Keyword, error) {
	return l.reviews.Keywords(ctx, owner, year, month)
}

func (l *LocalJournal) Year(ctx context.Context, owner string, year int) ([]journal.Record, error) {
	return l.reviews.Year(ctx, owner, year)
}

func (l *LocalJournal) Export(ctx context.Context, owner string) ([]byte, error) {
	doc, err := l.backups.Export(ctx, owner)
	if err != nil {
		return nil, err
	}
	return backup.Encode(doc)
}

func (l *LocalJournal) Import(ctx context.Context, owner string, data []byte) (*backup.Report, error) {
	return l.backups.Import(ctx, owner, data)
}

func (l *LocalJournal) Backup(context.Context, string) (string, string, error) {
	return "", "", ErrRemoteOnly
}

// RemoteJournal delegates to the server, which scopes calls by token; owner
// is ignored.
type RemoteJournal struct {
	client client.Client
}

var (
	_ Reviewer = (*RemoteJournal)(nil)
	_ Archiver = (*RemoteJournal)(nil)
)

func NewRemoteJournal(c client.Client) *RemoteJournal {
	return &RemoteJournal{client: c}
}

func (r *RemoteJournal) Review(ctx context.Context, _ string, year int, month time.Month, cachedOnly bool) (*journal.MonthlySummary, error) {
	return r.client.MonthlyReview(ctx, year, month, cachedOnly)
}

func (r *RemoteJournal) Keywords(ctx context.Context, _ string, year int, month time.Month) ([]journal.Keyword, error) {
	return r.client.Keywords(ctx, year, month)
}

func (r *RemoteJournal) Year(ctx context.Context, owner string, year int) ([]journal.Record, error) {
	from, to := journal.YearRange(year)
	recs, err := r.client.ListRange(ctx, owner, from, to)
	if err != nil {
		return nil, fmt.Errorf("list %d: %w", year, err)
	}
	out := make([]journal.Record, 0, len(recs))
	for _, rec := range recs {
		if rec.Visible() {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (r *RemoteJournal) Export(ctx context.Context, _ string) ([]byte, error) {
	return r.client.Export(ctx)
}

func (r *RemoteJournal) Import(ctx context.Context, _ string, data []byte) (*backup.Report, error) {
	return r.client.Import(ctx, data)
}

func (r *RemoteJournal) Backup(ctx context.Context, _ string) (string, string, error) {
	return r.client.Backup(ctx)
}

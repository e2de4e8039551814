// Package review builds monthly reviews from a month of journal records and
// caches them per (owner, month).
package review

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/daylog/internal/common"
	"github.com/dmitrijs2005/daylog/internal/journal"
	"github.com/dmitrijs2005/daylog/internal/logging"
	"github.com/dmitrijs2005/daylog/internal/metrics"
)

type Service struct {
	records   journal.Store
	summaries journal.SummaryStore
	gen       journal.Generator
	logger    logging.Logger
	metrics   *metrics.Pipeline
	now       func() time.Time
}

func NewService(records journal.Store, summaries journal.SummaryStore, gen journal.Generator, logger logging.Logger, m *metrics.Pipeline) *Service {
	return &Service{
		records:   records,
		summaries: summaries,
		gen:       gen,
		logger:    logger.With("module", "review"),
		metrics:   m,
		now:       time.Now,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// GetOrGenerate returns the cached review for the month when it is at least
// as new as every record of the month, and generates a new one otherwise.
// A month without meaningful content yields common.ErrNoData.
func (s *Service) GetOrGenerate(ctx context.Context, owner string, year int, month time.Month) (*journal.MonthlySummary, error) {
	recs, err := s.month(ctx, owner, year, month)
	if err != nil {
		return nil, err
	}

	merged := Merge(recs)
	if merged == "" {
		return nil, fmt.Errorf("%s: %w", journal.MonthKey(year, month), common.ErrNoData)
	}

	key := journal.MonthKey(year, month)
	latest := latestUpdate(recs)

	cached, err := s.summaries.GetMonthlySummary(ctx, owner, key)
	if err != nil {
		return nil, fmt.Errorf("get review %s: %w", key, err)
	}
	if cached.FreshFor(latest) {
		s.metrics.Review(true)
		return cached, nil
	}
	s.metrics.Review(false)

	rv, err := s.gen.Monthly(ctx, merged, year, month)
	if err != nil {
		return nil, fmt.Errorf("generate review %s: %w", key, err)
	}

	stamp := s.now()
	if latest.After(stamp) {
		stamp = latest
	}
	out := journal.MonthlySummary{Owner: owner, Month: key, Review: *rv, UpdatedAt: stamp}
	if cached != nil {
		out.CreatedAt = cached.CreatedAt
	}

	saved, err := s.summaries.PutMonthlySummary(ctx, owner, out)
	if err != nil {
		// The review is still usable; it is regenerated next time.
		s.logger.Warn(ctx, "review not cached", "month", key, "error", err)
		return &out, nil
	}
	return saved, nil
}

// Cached returns the stored review if it is still fresh. It never calls the
// generator and returns (nil, nil) when nothing usable is cached.
func (s *Service) Cached(ctx context.Context, owner string, year int, month time.Month) (*journal.MonthlySummary, error) {
	recs, err := s.month(ctx, owner, year, month)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}

	key := journal.MonthKey(year, month)
	cached, err := s.summaries.GetMonthlySummary(ctx, owner, key)
	if err != nil {
		return nil, fmt.Errorf("get review %s: %w", key, err)
	}
	if !cached.FreshFor(latestUpdate(recs)) {
		return nil, nil
	}
	return cached, nil
}

// Keywords extracts keywords from the daily summaries of the month. A month
// without summaries has no keywords.
func (s *Service) Keywords(ctx context.Context, owner string, year int, month time.Month) ([]journal.Keyword, error) {
	recs, err := s.month(ctx, owner, year, month)
	if err != nil {
		return nil, err
	}

	var summaries []string
	for i := range recs {
		if recs[i].HasSummary() {
			summaries = append(summaries, *recs[i].Summary)
		}
	}
	if len(summaries) == 0 {
		return []journal.Keyword{}, nil
	}

	kw, err := s.gen.Keywords(ctx, summaries)
	if err != nil {
		return nil, fmt.Errorf("keywords %s: %w", journal.MonthKey(year, month), err)
	}
	return kw, nil
}

// Year lists every visible record of the year ordered by date.
func (s *Service) Year(ctx context.Context, owner string, year int) ([]journal.Record, error) {
	if owner == "" {
		return nil, common.ErrUnauthenticated
	}
	from, to := journal.YearRange(year)
	recs, err := s.records.ListRange(ctx, owner, from, to)
	if err != nil {
		return nil, fmt.Errorf("list %d: %w", year, err)
	}

	out := make([]journal.Record, 0, len(recs))
	for _, r := range recs {
		if r.Visible() {
			out = append(out, r)
		}
	}
	sortByDate(out)
	return out, nil
}

func (s *Service) month(ctx context.Context, owner string, year int, month time.Month) ([]journal.Record, error) {
	if owner == "" {
		return nil, common.ErrUnauthenticated
	}
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("%w: month %d", common.ErrInvalidDate, month)
	}
	from, to := journal.MonthRange(year, month)
	recs, err := s.records.ListRange(ctx, owner, from, to)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", journal.MonthKey(year, month), err)
	}
	return recs, nil
}

// Merge joins the meaningful contents of recs in date order, each under a
// 【YYYY-MM-DD】 header line.
func Merge(recs []journal.Record) string {
	sorted := append([]journal.Record(nil), recs...)
	sortByDate(sorted)

	var b strings.Builder
	for _, r := range sorted {
		if !journal.IsMeaningful(r.Content) {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "【%s】\n%s", r.Date, strings.TrimSpace(r.Content))
	}
	return b.String()
}

func latestUpdate(recs []journal.Record) time.Time {
	var latest time.Time
	for _, r := range recs {
		if r.UpdatedAt.After(latest) {
			latest = r.UpdatedAt
		}
	}
	return latest
}

func sortByDate(recs []journal.Record) {
	sort.Slice(recs, func(i, j int) bool { return recs[i].Date < recs[j].Date })
}

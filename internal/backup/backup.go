// Package backup exports a user's journal to a single JSON document and
// imports such documents back, merging them into the store.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/daylog/internal/common"
	"github.com/dmitrijs2005/daylog/internal/journal"
	"github.com/dmitrijs2005/daylog/internal/logging"
)

const Version = "1.0.0"

// Full range of dates a store can hold.
const (
	firstDate = "0000-01-01"
	lastDate  = "9999-12-31"
)

// Document is the export file format.
type Document struct {
	Records    []journal.Record                  `json:"records"`
	Summaries  map[string]journal.MonthlySummary `json:"summaries"`
	ExportDate time.Time                         `json:"exportDate"`
	Version    string                            `json:"version"`
}

// Report describes the outcome of an import.
type Report struct {
	Imported  int `json:"imported"`
	Rejected  int `json:"rejected"`
	Summaries int `json:"summaries"`
}

func (r Report) String() string {
	return fmt.Sprintf("imported %d records (%d rejected) and %d monthly summaries", r.Imported, r.Rejected, r.Summaries)
}

type Service struct {
	records   journal.Store
	restorer  journal.Restorer
	summaries journal.SummaryStore
	logger    logging.Logger
	now       func() time.Time
}

func NewService(records journal.Store, restorer journal.Restorer, summaries journal.SummaryStore, logger logging.Logger) *Service {
	return &Service{
		records:   records,
		restorer:  restorer,
		summaries: summaries,
		logger:    logger.With("module", "backup"),
		now:       time.Now,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Export collects every visible record and cached monthly summary of owner.
func (s *Service) Export(ctx context.Context, owner string) (*Document, error) {
	if owner == "" {
		return nil, common.ErrUnauthenticated
	}

	recs, err := s.records.ListRange(ctx, owner, firstDate, lastDate)
	if err != nil {
		return nil, fmt.Errorf("export records: %w", err)
	}
	out := make([]journal.Record, 0, len(recs))
	for _, r := range recs {
		if r.Visible() {
			out = append(out, r)
		}
	}

	sums, err := s.summaries.ListMonthlySummaries(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("export summaries: %w", err)
	}
	byMonth := make(map[string]journal.MonthlySummary, len(sums))
	for _, m := range sums {
		byMonth[m.Month] = m
	}

	return &Document{
		Records:    out,
		Summaries:  byMonth,
		ExportDate: s.now().UTC(),
		Version:    Version,
	}, nil
}

// Encode writes doc as indented JSON.
func Encode(doc *Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

type rawDocument struct {
	Records   []json.RawMessage          `json:"records"`
	Summaries map[string]json.RawMessage `json:"summaries"`
}

type rawRecord struct {
	Date      json.RawMessage `json:"date"`
	Content   json.RawMessage `json:"content"`
	Summary   *string         `json:"summary"`
	CreatedAt *time.Time      `json:"created_at"`
}

// Import merges an exported document into owner's store. Records are
// validated one by one and imported records overwrite stored ones for the
// same date; invalid records are counted and skipped. Imported monthly
// summaries replace stored ones. A document that is not a JSON object fails
// with common.ErrInvalidImport before anything is written.
func (s *Service) Import(ctx context.Context, owner string, data []byte) (*Report, error) {
	if owner == "" {
		return nil, common.ErrUnauthenticated
	}

	var doc rawDocument
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidImport, err)
	}

	rep := &Report{}
	var latest time.Time
	for _, raw := range doc.Records {
		rec, ok := parseRecord(raw)
		if !ok {
			rep.Rejected++
			continue
		}
		saved, err := s.restorer.Restore(ctx, owner, rec)
		if err != nil {
			return rep, fmt.Errorf("import %s: %w", rec.Date, err)
		}
		if saved.UpdatedAt.After(latest) {
			latest = saved.UpdatedAt
		}
		rep.Imported++
	}

	// Restored records are newer than any summary in the file; stamp the
	// summaries so they are not immediately stale.
	stamp := s.now()
	if latest.After(stamp) {
		stamp = latest
	}
	for month, raw := range doc.Summaries {
		sum, ok := parseSummary(month, raw)
		if !ok {
			s.logger.Warn(ctx, "skipping invalid monthly summary", "month", month)
			continue
		}
		sum.UpdatedAt = stamp
		if _, err := s.summaries.PutMonthlySummary(ctx, owner, sum); err != nil {
			return rep, fmt.Errorf("import summary %s: %w", month, err)
		}
		rep.Summaries++
	}

	s.logger.Info(ctx, "import finished", "imported", rep.Imported, "rejected", rep.Rejected, "summaries", rep.Summaries)
	return rep, nil
}

func parseRecord(raw json.RawMessage) (journal.Record, bool) {
	var r rawRecord
	if err := json.Unmarshal(raw, &r); err != nil {
		return journal.Record{}, false
	}

	var date, content string
	if json.Unmarshal(r.Date, &date) != nil || !journal.ValidDate(date) {
		return journal.Record{}, false
	}
	// content must be a JSON string, not a number or object.
	if len(r.Content) == 0 || r.Content[0] != '"' || json.Unmarshal(r.Content, &content) != nil {
		return journal.Record{}, false
	}
	if !journal.IsMeaningful(content) {
		return journal.Record{}, false
	}

	rec := journal.Record{Date: date, Content: content, Summary: journal.NormalizeSummary(r.Summary)}
	if r.CreatedAt != nil {
		rec.CreatedAt = *r.CreatedAt
	}
	return rec, true
}

// parseSummary accepts either a full MonthlySummary or a bare review body
// keyed by month.
func parseSummary(month string, raw json.RawMessage) (journal.MonthlySummary, bool) {
	if _, _, err := journal.ParseMonth(month); err != nil {
		return journal.MonthlySummary{}, false
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return journal.MonthlySummary{}, false
	}

	out := journal.MonthlySummary{Month: month}
	if _, nested := probe["summary"]; nested {
		var m journal.MonthlySummary
		if err := json.Unmarshal(raw, &m); err != nil {
			return journal.MonthlySummary{}, false
		}
		out.Review = m.Review
		out.CreatedAt = m.CreatedAt
	} else if err := json.Unmarshal(raw, &out.Review); err != nil {
		return journal.MonthlySummary{}, false
	}

	if out.Review.Takeaways == nil {
		out.Review.Takeaways = []string{}
	}
	if out.Review.Themes == nil {
		out.Review.Themes = []journal.Theme{}
	}
	if out.Review.Keywords == nil {
		out.Review.Keywords = []journal.Keyword{}
	}
	return out, true
}

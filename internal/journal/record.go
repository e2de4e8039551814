// Package journal holds the domain types of daylog and the contracts every
// record store implements, independent of where records live.
package journal

import (
	"regexp"
	"strings"
	"time"
)

// Record is one day's journal entry plus its derived summary.
type Record struct {
	ID        string    `json:"id,omitempty"`
	Owner     string    `json:"user_id,omitempty"`
	Date      string    `json:"date"`
	Content   string    `json:"content"`
	Summary   *string   `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasSummary reports whether a non-empty summary is attached.
func (r *Record) HasSummary() bool {
	return r != nil && r.Summary != nil && *r.Summary != ""
}

// Visible reports whether the record belongs in a month listing.
func (r *Record) Visible() bool {
	return r != nil && (IsMeaningful(r.Content) || r.HasSummary())
}

var meaningfulRe = regexp.MustCompile(`[\x{4e00}-\x{9fa5}a-zA-Z0-9]`)

// IsMeaningful reports whether content has anything worth keeping: at least
// one Latin letter, digit, or CJK ideograph after trimming.
func IsMeaningful(content string) bool {
	s := strings.TrimSpace(content)
	return s != "" && meaningfulRe.MatchString(s)
}

// NormalizeSummary maps an empty summary to nil.
func NormalizeSummary(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// NextStamp returns the updated_at value for a mutation happening at now on
// a record last stamped prev. The result has microsecond precision (what
// Postgres keeps) and is strictly after prev.
func NextStamp(prev, now time.Time) time.Time {
	next := now.UTC().Truncate(time.Microsecond)
	if !prev.IsZero() && !next.After(prev) {
		next = prev.UTC().Truncate(time.Microsecond).Add(time.Microsecond)
	}
	return next
}

// MonthSnapshot is a persisted copy of a month listing, used to pre-populate
// a view before the store confirms it.
type MonthSnapshot struct {
	Owner    string    `json:"owner"`
	Month    string    `json:"month"`
	SyncedAt time.Time `json:"synced_at"`
	Records  []Record  `json:"records"`
}

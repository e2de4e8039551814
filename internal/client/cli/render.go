package cli

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/daylog/internal/client/engine"
	"github.com/dmitrijs2005/daylog/internal/journal"
)

func formatRecord(rec *journal.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n%s\n", rec.Date, rec.Content)
	if rec.HasSummary() {
		fmt.Fprintf(&b, "-- summary --\n%s\n", *rec.Summary)
	} else {
		b.WriteString("-- no summary yet --\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// firstLine shortens content for list views.
func firstLine(s string, max int) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	r := []rune(s)
	if len(r) > max {
		return string(r[:max]) + "…"
	}
	return s
}

func formatMonth(m *engine.MonthCache, stale bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d entries", m.Key(), len(m.Records))
	if stale {
		b.WriteString(" (cached, refreshing)")
	}
	for _, r := range m.Records {
		mark := " "
		if r.HasSummary() {
			mark = "*"
		}
		fmt.Fprintf(&b, "\n %s %s  %s", mark, r.Date, firstLine(r.Content, 60))
	}
	return b.String()
}

func formatReview(s *journal.MonthlySummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== Review %s ==\n%s\n", s.Month, s.Review.Overview)
	if len(s.Review.Takeaways) > 0 {
		b.WriteString("\nTakeaways:\n")
		for _, t := range s.Review.Takeaways {
			fmt.Fprintf(&b, " • %s\n", t)
		}
	}
	if len(s.Review.Themes) > 0 {
		b.WriteString("\nThemes:\n")
		for _, t := range s.Review.Themes {
			fmt.Fprintf(&b, " - %s: %s\n", t.Name, t.Description)
		}
	}
	if len(s.Review.Keywords) > 0 {
		b.WriteString("\n")
		b.WriteString(formatKeywords(s.Review.Keywords))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatKeywords(kw []journal.Keyword) string {
	if len(kw) == 0 {
		return "No keywords."
	}
	parts := make([]string, 0, len(kw))
	for _, k := range kw {
		parts = append(parts, fmt.Sprintf("%s(%d)", k.Word, k.Count))
	}
	return "Keywords: " + strings.Join(parts, ", ")
}

// formatYear prints one line per month with the days that have entries.
func formatYear(year int, recs []journal.Record) string {
	byMonth := make(map[string][]string)
	for _, r := range recs {
		m := journal.MonthOf(r.Date)
		byMonth[m] = append(byMonth[m], r.Date[8:])
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d: %d entries", year, len(recs))
	for m := 1; m <= 12; m++ {
		key := fmt.Sprintf("%04d-%02d", year, m)
		if days, ok := byMonth[key]; ok {
			fmt.Fprintf(&b, "\n %s  %s", key, strings.Join(days, " "))
		}
	}
	return b.String()
}

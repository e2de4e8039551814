package journal

import "time"

type Theme struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Keyword struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Review is the generated body of a monthly summary.
type Review struct {
	Overview  string    `json:"overview"`
	Takeaways []string  `json:"takeaways"`
	Themes    []Theme   `json:"themes"`
	Keywords  []Keyword `json:"keywords"`
}

// MonthlySummary caches a Review for (owner, month). It is stale once any
// record of the month has UpdatedAt later than the summary's UpdatedAt.
type MonthlySummary struct {
	Owner     string    `json:"user_id,omitempty"`
	Month     string    `json:"month"`
	Review    Review    `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FreshFor reports whether the summary covers every change up to latest.
func (m *MonthlySummary) FreshFor(latest time.Time) bool {
	return m != nil && !m.UpdatedAt.Before(latest)
}

package proto

import "github.com/dmitrijs2005/daylog/internal/journal"

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	UserID string `json:"user_id"`
}

type LoginResponse struct {
	UserID      string `json:"user_id"`
	AccessToken string `json:"access_token"`
}

type DateRequest struct {
	Date string `json:"date"`
}

type UpsertRequest struct {
	Date    string `json:"date"`
	Content string `json:"content"`
}

type SummaryRequest struct {
	Date    string  `json:"date"`
	Summary *string `json:"summary"`
}

// RecordResponse carries a nil Record when nothing is stored for the date,
// including after an upsert of meaningless content.
type RecordResponse struct {
	Record *journal.Record `json:"record"`
}

type RangeRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type RangeResponse struct {
	Records []journal.Record `json:"records"`
}

type MonthRequest struct {
	Month      string `json:"month"`
	CachedOnly bool   `json:"cached_only,omitempty"`
}

// ReviewResponse has a nil Summary when CachedOnly was set and nothing fresh
// is cached.
type ReviewResponse struct {
	Summary *journal.MonthlySummary `json:"summary"`
}

type KeywordsResponse struct {
	Keywords []journal.Keyword `json:"keywords"`
}

// Document is an exported journal, as produced by the backup package.
type Document struct {
	Data []byte `json:"data"`
}

type ImportResponse struct {
	Imported  int `json:"imported"`
	Rejected  int `json:"rejected"`
	Summaries int `json:"summaries"`
}

type BackupResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

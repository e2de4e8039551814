package summarizer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/daylog/internal/common"
	"github.com/dmitrijs2005/daylog/internal/journal"
)

type rawKeyword struct {
	Word  string          `json:"word"`
	Name  string          `json:"name"`
	Count json.RawMessage `json:"count"`
}

type rawReview struct {
	Overview  string          `json:"overview"`
	Takeaways []string        `json:"takeaways"`
	Themes    []journal.Theme `json:"themes"`
	Keywords  []rawKeyword    `json:"keywords"`
}

// ParseReview decodes a model's JSON reply into a Review. Missing fields get
// defaults, keywords may use "name" instead of "word", a non-numeric count
// becomes 1, and keywords without a word are dropped.
func ParseReview(s string) (*journal.Review, error) {
	var raw rawReview
	if err := json.Unmarshal([]byte(stripFences(s)), &raw); err != nil {
		return nil, fmt.Errorf("%w: decode review: %v", common.ErrGeneration, err)
	}

	r := &journal.Review{
		Overview:  strings.TrimSpace(raw.Overview),
		Takeaways: raw.Takeaways,
		Themes:    raw.Themes,
		Keywords:  normalizeKeywords(raw.Keywords),
	}
	if r.Overview == "" {
		r.Overview = defaultOverview
	}
	if r.Takeaways == nil {
		r.Takeaways = []string{}
	}
	if r.Themes == nil {
		r.Themes = []journal.Theme{}
	}
	return r, nil
}

func normalizeKeywords(in []rawKeyword) []journal.Keyword {
	out := make([]journal.Keyword, 0, len(in))
	for _, k := range in {
		word := strings.TrimSpace(k.Word)
		if word == "" {
			word = strings.TrimSpace(k.Name)
		}
		if word == "" {
			continue
		}
		count := 1
		var n float64
		if err := json.Unmarshal(k.Count, &n); err == nil && n >= 1 {
			count = int(n)
		}
		out = append(out, journal.Keyword{Word: word, Count: count})
	}
	return out
}

// stripFences removes a ```json ... ``` wrapper some models add even in
// JSON mode.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

package summarizer

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/daylog/internal/journal"
)

// Offline is a Generator that never leaves the process. It is used when no
// API key is configured: daily summaries are points extracted from the
// paragraphs of the entry and reviews are built from word frequencies.
type Offline struct {
	// MaxKeywords caps the keyword list; zero means 20.
	MaxKeywords int
}

var _ journal.Generator = Offline{}

func (Offline) Daily(_ context.Context, content string) (string, error) {
	if !journal.IsMeaningful(content) {
		return "", nil
	}
	points := ExtractPoints(content)
	if !strings.Contains(points, "\n") {
		points = SplitPoints(points)
	}
	return points, nil
}

var dayHeaderRe = regexp.MustCompile(`(?m)^【[^】]*】\s*$`)

func (o Offline) Monthly(ctx context.Context, merged string, year int, month time.Month) (*journal.Review, error) {
	days := len(dayHeaderRe.FindAllString(merged, -1))
	body := dayHeaderRe.ReplaceAllString(merged, "")

	var takeaways []string
	for _, line := range strings.Split(ExtractPoints(body), "\n") {
		if line != "" && len(takeaways) < 8 {
			takeaways = append(takeaways, line)
		}
	}
	if takeaways == nil {
		takeaways = []string{}
	}

	kw, _ := o.Keywords(ctx, []string{body})
	themes := make([]journal.Theme, 0, 3)
	for _, k := range kw {
		if len(themes) == 3 {
			break
		}
		themes = append(themes, journal.Theme{Name: k.Word, Description: fmt.Sprintf("mentioned %d times", k.Count)})
	}

	return &journal.Review{
		Overview:  fmt.Sprintf("%d journal days recorded in %04d-%02d.", days, year, int(month)),
		Takeaways: takeaways,
		Themes:    themes,
		Keywords:  kw,
	}, nil
}

var (
	latinWordRe = regexp.MustCompile(`[A-Za-z][A-Za-z0-9.+#-]{2,}`)
	cjkRunRe    = regexp.MustCompile(`[\x{4e00}-\x{9fa5}]{2,6}`)
)

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "was": {}, "today": {}, "then": {},
	"今天": {}, "晚上": {}, "上午": {}, "下午": {}, "完成了": {}, "学习了": {},
}

func (o Offline) Keywords(_ context.Context, summaries []string) ([]journal.Keyword, error) {
	counts := map[string]int{}
	for _, s := range summaries {
		for _, w := range latinWordRe.FindAllString(s, -1) {
			counts[w]++
		}
		for _, w := range cjkRunRe.FindAllString(s, -1) {
			counts[w]++
		}
	}

	out := make([]journal.Keyword, 0, len(counts))
	for w, n := range counts {
		if _, stop := stopWords[strings.ToLower(w)]; stop {
			continue
		}
		out = append(out, journal.Keyword{Word: w, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Word < out[j].Word
	})

	limit := o.MaxKeywords
	if limit <= 0 {
		limit = 20
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

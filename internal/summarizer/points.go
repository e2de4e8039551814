package summarizer

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const maxPointRunes = 30

var (
	numberPrefixRe = regexp.MustCompile(`(?m)^[ \t]*(\d+[\.、]|[-*•])[ \t]*`)
	paragraphRe    = regexp.MustCompile(`\n\s*\n`)
	sentenceRe     = regexp.MustCompile(`[。；;\n]|\.\s`)
	clauseRe       = regexp.MustCompile(`[，,]`)
	leadInRe       = regexp.MustCompile(`^(今天|今日|完成了|晚上|上午|下午|早上|中午|傍晚|深夜|today|tonight|this morning)\s*`)
	verbSuffixRe   = regexp.MustCompile(`^(学习|复习|解决)了\s*`)
	trailingTailRe = regexp.MustCompile(`，[^，]{0,20}$`)
	endPunctRe     = regexp.MustCompile(`[。，,.]$`)
)

// CleanPoints normalises model output: one point per line, numbering and
// bullet prefixes removed, blank lines dropped.
func CleanPoints(s string) string {
	s = numberPrefixRe.ReplaceAllString(strings.TrimSpace(s), "")
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

// SplitPoints turns a single block of prose into one point per line. Text
// that already spans several lines is returned untouched. It tries
// paragraphs, then sentences, then comma clauses; fragments of five runes or
// fewer are dropped when splitting on sentences or clauses.
func SplitPoints(s string) string {
	if strings.Contains(s, "\n") {
		return s
	}

	if parts := nonEmpty(paragraphRe.Split(s, -1), 0); len(parts) > 1 {
		return joinPoints(parts, true)
	}
	if parts := nonEmpty(sentenceRe.Split(s, -1), 5); len(parts) > 1 {
		return joinPoints(parts, true)
	}
	if parts := nonEmpty(clauseRe.Split(s, -1), 5); len(parts) > 1 {
		return joinPoints(parts, false)
	}
	return s
}

// ExtractPoints derives points straight from entry content, one per
// paragraph. Used when the model output cannot be split and as the
// offline generator.
func ExtractPoints(content string) string {
	var points []string
	for _, p := range paragraphRe.Split(content, -1) {
		p = strings.TrimSpace(p)
		if utf8.RuneCountInString(p) <= 1 {
			continue
		}
		p = trailingTailRe.ReplaceAllString(corePoint(p), "")
		p = truncate(strings.TrimSpace(p))
		if p != "" {
			points = append(points, p)
		}
	}
	return strings.Join(points, "\n")
}

func corePoint(p string) string {
	p = leadInRe.ReplaceAllString(strings.TrimSpace(p), "")
	p = verbSuffixRe.ReplaceAllString(p, "$1")
	return strings.TrimSpace(p)
}

func truncate(p string) string {
	if utf8.RuneCountInString(p) <= maxPointRunes {
		return p
	}
	r := []rune(p)[:maxPointRunes]
	return endPunctRe.ReplaceAllString(string(r), "")
}

func nonEmpty(parts []string, minRunes int) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if utf8.RuneCountInString(p) > minRunes {
			out = append(out, p)
		}
	}
	return out
}

func joinPoints(parts []string, core bool) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if core {
			p = corePoint(p)
		}
		if p = truncate(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n")
}

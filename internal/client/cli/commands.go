package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/daylog/internal/client/engine"
	"github.com/dmitrijs2005/daylog/internal/netx"
)

// onChange prints background results. It runs on engine goroutines.
func (a *App) onChange(c engine.Change) {
	switch c.Kind {
	case engine.ChangeSummaryUpdated:
		if c.Record != nil && c.Record.HasSummary() {
			a.println(fmt.Sprintf("\n[summary ready] %s\n%s", c.Date, *c.Record.Summary))
		}
	case engine.ChangeSummaryUnchanged:
		a.println(fmt.Sprintf("\n[summary] no new summary for %s", c.Date))
	}
}

// Write reads an entry and saves it. Text whose save fails is kept as a
// draft; the next write for the date shows it and an empty entry retries it.
func (a *App) Write(ctx context.Context, args []string) error {
	owner, e, _ := a.session()
	date, err := dateArg(args, a.now())
	if err != nil {
		return err
	}
	key := owner + "|" + date

	if cur := e.Peek(owner, date); cur != nil {
		a.println(formatRecord(cur))
	}
	prompt := "Write your entry for " + date + " (an empty entry deletes it)"
	draft := a.draft(key)
	if draft != "" {
		a.println("-- unsaved draft --\n" + draft)
		prompt = "Write your entry for " + date + " (an empty entry saves the draft)"
	}
	content, err := GetMultiline(a.reader, prompt, a.out)
	if err != nil {
		return err
	}
	if content == "" && draft != "" {
		content = draft
	}

	rec, err := e.Save(ctx, owner, date, content)
	if err != nil {
		if content != "" {
			a.setDraft(key, content)
			a.println("Not saved; the text is kept as a draft for the next write.")
		}
		return err
	}
	a.setDraft(key, "")
	if rec == nil {
		a.println("Nothing meaningful to keep; entry for", date, "removed.")
		return nil
	}
	a.println("Saved. The summary will appear when ready.")
	return nil
}

func (a *App) draft(key string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.drafts[key]
}

func (a *App) setDraft(key, text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if text == "" {
		delete(a.drafts, key)
		return
	}
	a.drafts[key] = text
}

// Show prints the cached copy at once and the store's copy when it differs.
func (a *App) Show(ctx context.Context, args []string) error {
	owner, e, _ := a.session()
	date, err := dateArg(args, a.now())
	if err != nil {
		return err
	}

	cached := e.Peek(owner, date)
	if cached != nil {
		a.println(formatRecord(cached))
	}

	rec, err := e.GetRecord(ctx, owner, date)
	if err != nil {
		if cached != nil {
			a.println("(could not refresh:", Describe(err)+")")
			return nil
		}
		return err
	}
	switch {
	case rec == nil:
		a.println("No entry for", date)
	case cached == nil || !cached.UpdatedAt.Equal(rec.UpdatedAt):
		a.println(formatRecord(rec))
	}
	if rec != nil && !rec.HasSummary() && e.ActivePoll(owner, date) != nil {
		a.println("(summary pending)")
	}
	return nil
}

// Month shows the month as last seen and then re-lists it from the store.
func (a *App) Month(ctx context.Context, args []string) error {
	owner, e, _ := a.session()
	year, month, err := monthArg(args, a.now())
	if err != nil {
		return err
	}

	cached, fresh := e.CachedMonth(ctx, owner, year, month)
	if cached != nil {
		a.println(formatMonth(cached, !fresh))
		if fresh {
			return nil
		}
	}

	m, err := e.ListMonth(ctx, owner, year, month)
	if err != nil {
		return err
	}
	a.println(formatMonth(m, false))
	return nil
}

// Summary replaces the summary of a day by hand; an empty text clears it.
func (a *App) Summary(ctx context.Context, args []string) error {
	owner, e, _ := a.session()
	date, err := dateArg(args, a.now())
	if err != nil {
		return err
	}

	text, err := GetMultiline(a.reader, "Write the summary for "+date+" (empty clears it)", a.out)
	if err != nil {
		return err
	}
	rec, err := e.UpdateSummary(ctx, owner, date, &text)
	if err != nil {
		return err
	}
	a.println(formatRecord(rec))
	return nil
}

func (a *App) Review(ctx context.Context, args []string) error {
	owner, _, _ := a.session()
	year, month, err := monthArg(args, a.now())
	if err != nil {
		return err
	}

	if cached, err := a.reviewer.Review(ctx, owner, year, month, true); err == nil && cached != nil {
		a.println(formatReview(cached))
		return nil
	}

	a.println("Generating review...")
	s, err := a.reviewer.Review(ctx, owner, year, month, false)
	if err != nil {
		return err
	}
	a.println(formatReview(s))
	return nil
}

func (a *App) Keywords(ctx context.Context, args []string) error {
	owner, _, _ := a.session()
	year, month, err := monthArg(args, a.now())
	if err != nil {
		return err
	}
	kw, err := a.reviewer.Keywords(ctx, owner, year, month)
	if err != nil {
		return err
	}
	a.println(formatKeywords(kw))
	return nil
}

func (a *App) Year(ctx context.Context, args []string) error {
	owner, _, _ := a.session()
	year, err := yearArg(args, a.now())
	if err != nil {
		return err
	}
	recs, err := a.reviewer.Year(ctx, owner, year)
	if err != nil {
		return err
	}
	a.println(formatYear(year, recs))
	return nil
}

func (a *App) Export(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: export <file>")
	}
	owner, _, _ := a.session()
	data, err := a.archiver.Export(ctx, owner)
	if err != nil {
		return err
	}
	if err := os.WriteFile(args[0], data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", args[0], err)
	}
	a.println("Exported to", args[0])
	return nil
}

// Import loads a document from a file or URL. Cached months may now be
// stale, so the current month is re-listed afterwards.
func (a *App) Import(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: import <file|url>")
	}
	owner, e, _ := a.session()
	data, err := netx.ReadDocument(ctx, args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}
	rep, err := a.archiver.Import(ctx, owner, data)
	if err != nil {
		return err
	}
	a.println(rep.String())

	now := a.now()
	if _, err := e.ListMonth(ctx, owner, now.Year(), now.Month()); err != nil {
		a.logger.Warn(ctx, "refresh after import failed", "error", err)
	}
	return nil
}

func (a *App) Backup(ctx context.Context, _ []string) error {
	owner, _, _ := a.session()
	key, url, err := a.archiver.Backup(ctx, owner)
	if err != nil {
		return err
	}
	a.println("Backup stored as", key)
	a.println("Download (valid for a limited time):", url)
	return nil
}

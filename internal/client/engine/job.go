package engine

import (
	"context"

	"github.com/dmitrijs2005/daylog/internal/journal"
	"github.com/dmitrijs2005/daylog/internal/metrics"
)

// startJob runs in-process summarisation of rec under generation gen.
func (e *Engine) startJob(st *dateState, gen uint64, rec journal.Record) {
	ctx, cancel := context.WithTimeout(e.ctx, e.cfg.JobTimeout)

	e.mu.Lock()
	if st.gen != gen || e.closed {
		e.mu.Unlock()
		cancel()
		return
	}
	st.cancel = cancel
	e.wg.Add(1)
	e.mu.Unlock()

	go e.runJob(ctx, cancel, st, gen, rec)
}

func (e *Engine) runJob(ctx context.Context, cancel context.CancelFunc, st *dateState, gen uint64, rec journal.Record) {
	defer e.wg.Done()
	defer cancel()
	defer e.finish(st, gen)

	log := e.logger.With("owner", rec.Owner, "date", rec.Date, "gen", gen)
	start := e.now()
	e.metrics.JobStarted()

	summary, err := e.gen.Daily(ctx, rec.Content)
	if !e.current(st, gen) {
		e.metrics.JobFinished(metrics.OutcomeDiscarded, 0)
		log.Debug(ctx, "stale summary discarded")
		return
	}
	if err != nil {
		e.metrics.JobFinished(metrics.OutcomeFailed, e.now().Sub(start))
		log.Warn(ctx, "summary generation failed", "error", err)
		e.notifyUnchanged(rec.Owner, rec.Date)
		return
	}
	if summary == "" {
		e.metrics.JobFinished(metrics.OutcomeEmpty, e.now().Sub(start))
		e.notifyUnchanged(rec.Owner, rec.Date)
		return
	}

	st.write.Lock()
	defer st.write.Unlock()

	if !e.current(st, gen) {
		e.metrics.JobFinished(metrics.OutcomeDiscarded, 0)
		log.Debug(ctx, "stale summary discarded")
		return
	}

	updated, err := e.store.UpdateSummary(ctx, rec.Owner, rec.Date, &summary)
	if err != nil {
		if !e.current(st, gen) {
			e.metrics.JobFinished(metrics.OutcomeDiscarded, 0)
			return
		}
		e.metrics.JobFinished(metrics.OutcomeFailed, e.now().Sub(start))
		log.Warn(ctx, "store summary failed", "error", err)
		e.notifyUnchanged(rec.Owner, rec.Date)
		return
	}

	e.merge(*updated, false)
	e.metrics.JobFinished(metrics.OutcomeSucceeded, e.now().Sub(start))
	log.Debug(ctx, "summary merged")
	e.notify(Change{Kind: ChangeSummaryUpdated, Owner: rec.Owner, Date: rec.Date, Record: copyRecord(updated)})
}

func (e *Engine) notifyUnchanged(owner, date string) {
	e.notify(Change{Kind: ChangeSummaryUnchanged, Owner: owner, Date: date, Record: e.Peek(owner, date)})
}

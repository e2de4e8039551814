package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/daylog/internal/common"
	"github.com/dmitrijs2005/daylog/internal/journal"
	"github.com/dmitrijs2005/daylog/internal/metrics"
)

type PollState int32

const (
	PollPolling PollState = iota
	PollComplete
	PollGivenUp
	PollCancelled
)

func (s PollState) String() string {
	switch s {
	case PollPolling:
		return "POLLING"
	case PollComplete:
		return "COMPLETE"
	case PollGivenUp:
		return "GIVEN_UP"
	case PollCancelled:
		return "CANCELLED"
	default:
		return "UNKNOWN"
	}
}

// PollRequest identifies the record whose summary is awaited. The poll
// completes once the store returns that record with a summary written
// after Since. Zero MaxAttempts and Interval take the engine defaults.
type PollRequest struct {
	Owner       string
	Date        string
	RecordID    string
	Since       time.Time
	MaxAttempts int
	Interval    time.Duration
}

// Poll is a handle on one poll loop.
type Poll struct {
	req      PollRequest
	state    atomic.Int32
	attempts atomic.Int32
	done     chan struct{}
}

func newPoll(req PollRequest) *Poll {
	return &Poll{req: req, done: make(chan struct{})}
}

func (p *Poll) State() PollState { return PollState(p.state.Load()) }

func (p *Poll) Attempts() int { return int(p.attempts.Load()) }

// Done is closed when the loop reaches a final state.
func (p *Poll) Done() <-chan struct{} { return p.done }

// Wait blocks until the loop ends or ctx is done and returns the state seen.
func (p *Poll) Wait(ctx context.Context) PollState {
	select {
	case <-p.done:
	case <-ctx.Done():
	}
	return p.State()
}

func (p *Poll) finish(s PollState) {
	p.state.Store(int32(s))
	close(p.done)
}

// PollForSummary starts a poll loop for the date, replacing any job or poll
// already running for it.
func (e *Engine) PollForSummary(req PollRequest) (*Poll, error) {
	if err := validate(req.Owner, req.Date); err != nil {
		return nil, err
	}
	st, gen, err := e.advance(req.Owner, req.Date)
	if err != nil {
		return nil, err
	}
	return e.startPoll(st, gen, req), nil
}

// ActivePoll returns the running poll for the date, or nil.
func (e *Engine) ActivePoll(owner, date string) *Poll {
	e.mu.Lock()
	defer e.mu.Unlock()
	if st, ok := e.dates[dateKey{owner, date}]; ok {
		return st.poll
	}
	return nil
}

func (e *Engine) startPoll(st *dateState, gen uint64, req PollRequest) *Poll {
	if req.MaxAttempts <= 0 {
		req.MaxAttempts = e.cfg.PollAttempts
	}
	if req.Interval <= 0 {
		req.Interval = e.cfg.PollInterval
	}
	p := newPoll(req)
	ctx, cancel := context.WithCancel(e.ctx)

	e.mu.Lock()
	if st.gen != gen || e.closed {
		e.mu.Unlock()
		cancel()
		p.finish(PollCancelled)
		return p
	}
	st.cancel = cancel
	st.poll = p
	e.wg.Add(1)
	e.mu.Unlock()

	go e.runPoll(ctx, cancel, st, gen, p)
	return p
}

func (e *Engine) runPoll(ctx context.Context, cancel context.CancelFunc, st *dateState, gen uint64, p *Poll) {
	defer e.wg.Done()
	defer cancel()
	defer e.finish(st, gen)

	req := p.req
	log := e.logger.With("owner", req.Owner, "date", req.Date, "gen", gen)

	final := PollGivenUp
	defer func() {
		p.finish(final)
		e.metrics.PollFinished(pollOutcome(final))
		log.Debug(ctx, "poll finished", "state", final, "attempts", p.Attempts())
	}()

	timer := time.NewTimer(req.Interval)
	defer timer.Stop()

	for attempt := 1; attempt <= req.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			final = PollCancelled
			return
		case <-timer.C:
		}
		p.attempts.Store(int32(attempt))

		rec, err := e.store.Get(ctx, req.Owner, req.Date)
		switch {
		case ctx.Err() != nil:
			final = PollCancelled
			return
		case errors.Is(err, common.ErrUnauthenticated):
			log.Warn(ctx, "poll stopped, session lost", "error", err)
			return
		case err != nil:
			log.Debug(ctx, "poll read failed", "attempt", attempt, "error", err)
		case rec == nil || (req.RecordID != "" && rec.ID != req.RecordID):
			final = PollCancelled
			return
		case rec.HasSummary() && rec.UpdatedAt.After(req.Since):
			if e.completePoll(st, gen, rec) {
				final = PollComplete
			} else {
				final = PollCancelled
			}
			return
		}

		timer.Reset(req.Interval)
	}
}

func (e *Engine) completePoll(st *dateState, gen uint64, rec *journal.Record) bool {
	st.write.Lock()
	defer st.write.Unlock()

	if !e.current(st, gen) {
		return false
	}
	e.merge(*rec, false)
	e.notify(Change{Kind: ChangeSummaryUpdated, Owner: rec.Owner, Date: rec.Date, Record: copyRecord(rec)})
	return true
}

func pollOutcome(s PollState) string {
	switch s {
	case PollComplete:
		return metrics.PollComplete
	case PollCancelled:
		return metrics.PollCancelled
	default:
		return metrics.PollGivenUp
	}
}

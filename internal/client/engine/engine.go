// Package engine keeps the client's view of journal records consistent with
// the authoritative store while summaries are produced in the background.
//
// The Engine owns a cache of every month that has been listed during the
// session. Saves are written through to the store and patched into the
// cache; summary generation (in-process) or summary polling (when the store
// enriches records itself) runs afterwards without blocking the caller.
// Every save or manual summary edit advances a per-date generation counter
// and cancels whatever background work was running for that date, so a
// result computed for old content is discarded instead of merged.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/daylog/internal/common"
	"github.com/dmitrijs2005/daylog/internal/journal"
	"github.com/dmitrijs2005/daylog/internal/logging"
	"github.com/dmitrijs2005/daylog/internal/metrics"
)

// ErrClosed is returned by operations issued after Close.
var ErrClosed = errors.New("engine closed")

const (
	DefaultPollAttempts = 20
	DefaultPollInterval = 3 * time.Second
	DefaultSnapshotTTL  = 5 * time.Minute
	DefaultJobTimeout   = 2 * time.Minute
	DefaultMaxMonths    = 12
)

// Config tunes background work. Zero values select the defaults above.
type Config struct {
	PollAttempts int
	PollInterval time.Duration
	SnapshotTTL  time.Duration
	JobTimeout   time.Duration
	MaxMonths    int
}

func (c *Config) applyDefaults() {
	if c.PollAttempts <= 0 {
		c.PollAttempts = DefaultPollAttempts
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.SnapshotTTL <= 0 {
		c.SnapshotTTL = DefaultSnapshotTTL
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = DefaultJobTimeout
	}
	if c.MaxMonths <= 0 {
		c.MaxMonths = DefaultMaxMonths
	}
}

// SnapshotStore persists month listings between sessions.
type SnapshotStore interface {
	LoadMonth(ctx context.Context, owner, month string) (*journal.MonthSnapshot, error)
	SaveMonth(ctx context.Context, snap journal.MonthSnapshot) error
}

type Option func(*Engine)

// WithGenerator makes the engine summarise saved records itself. Without a
// generator the engine assumes the store enriches records and polls it.
func WithGenerator(g journal.Generator) Option {
	return func(e *Engine) { e.gen = g }
}

func WithSnapshots(s SnapshotStore) Option {
	return func(e *Engine) { e.snaps = s }
}

func WithMetrics(m *metrics.Pipeline) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithConfig(c Config) Option {
	return func(e *Engine) { e.cfg = c }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

type dateKey struct{ owner, date string }

type monthKey struct{ owner, month string }

// dateState serialises store writes for one (owner, date) and tracks the
// background work running for it.
type dateState struct {
	write sync.Mutex

	// guarded by Engine.mu
	gen    uint64
	cancel context.CancelFunc
	poll   *Poll
}

type monthEntry struct {
	owner    string
	year     int
	month    time.Month
	syncedAt time.Time
	touched  time.Time
	records  map[string]journal.Record
}

type Engine struct {
	store   journal.Store
	gen     journal.Generator
	snaps   SnapshotStore
	logger  logging.Logger
	metrics *metrics.Pipeline
	cfg     Config
	now     func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	closed    bool
	dates     map[dateKey]*dateState
	months    map[monthKey]*monthEntry
	last      *journal.Record
	observers map[int]Observer
	nextObs   int
}

// New builds an engine over store. Call Close when the session ends.
func New(store journal.Store, logger logging.Logger, opts ...Option) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		store:     store,
		logger:    logger.With("module", "engine"),
		now:       time.Now,
		ctx:       ctx,
		cancel:    cancel,
		dates:     make(map[dateKey]*dateState),
		months:    make(map[monthKey]*monthEntry),
		observers: make(map[int]Observer),
	}
	for _, o := range opts {
		o(e)
	}
	e.cfg.applyDefaults()
	return e
}

// Close cancels every background job and poll loop and waits for them.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()

	e.cancel()
	e.wg.Wait()
}

func validate(owner, date string) error {
	if owner == "" {
		return common.ErrUnauthenticated
	}
	_, err := journal.ParseDate(date)
	return err
}

// Save stores content for the date and returns as soon as it is durable.
// Meaningless content deletes the record and Save returns (nil, nil).
// Summarisation of meaningful content continues in the background.
func (e *Engine) Save(ctx context.Context, owner, date, content string) (*journal.Record, error) {
	if err := validate(owner, date); err != nil {
		return nil, err
	}

	st, err := e.state(owner, date)
	if err != nil {
		return nil, err
	}

	// The generation is taken under the write lock so that the last writer
	// to reach the store owns the newest generation.
	st.write.Lock()
	defer st.write.Unlock()

	gen, err := e.bump(st)
	if err != nil {
		return nil, err
	}

	if !journal.IsMeaningful(content) {
		if err := e.store.Delete(ctx, owner, date); err != nil {
			return nil, fmt.Errorf("delete %s: %w", date, err)
		}
		e.metrics.Saved(true)
		e.evict(owner, date)
		e.logger.Debug(ctx, "meaningless content, record deleted", "date", date)
		e.notify(Change{Kind: ChangeDeleted, Owner: owner, Date: date})
		return nil, nil
	}

	rec, err := e.store.Upsert(ctx, owner, date, content)
	if err != nil {
		return nil, fmt.Errorf("save %s: %w", date, err)
	}
	e.metrics.Saved(false)
	e.merge(*rec, true)
	e.notify(Change{Kind: ChangeSaved, Owner: owner, Date: date, Record: copyRecord(rec)})

	if e.gen != nil {
		e.startJob(st, gen, *rec)
	} else {
		e.startPoll(st, gen, PollRequest{Owner: owner, Date: date, RecordID: rec.ID, Since: rec.UpdatedAt})
	}
	return copyRecord(rec), nil
}

// UpdateSummary sets the summary by hand. Any pending generation or poll for
// the date is cancelled; an empty summary clears it.
func (e *Engine) UpdateSummary(ctx context.Context, owner, date string, summary *string) (*journal.Record, error) {
	if err := validate(owner, date); err != nil {
		return nil, err
	}

	st, err := e.state(owner, date)
	if err != nil {
		return nil, err
	}

	st.write.Lock()
	defer st.write.Unlock()

	if _, err := e.bump(st); err != nil {
		return nil, err
	}

	rec, err := e.store.UpdateSummary(ctx, owner, date, journal.NormalizeSummary(summary))
	if err != nil {
		return nil, fmt.Errorf("update summary %s: %w", date, err)
	}
	e.merge(*rec, true)
	e.notify(Change{Kind: ChangeSummaryUpdated, Owner: owner, Date: date, Record: copyRecord(rec)})
	return copyRecord(rec), nil
}

// GetRecord reads the record from the store and reconciles the cache with
// the result. The store wins: a record missing there is evicted here.
func (e *Engine) GetRecord(ctx context.Context, owner, date string) (*journal.Record, error) {
	if err := validate(owner, date); err != nil {
		return nil, err
	}

	rec, err := e.store.Get(ctx, owner, date)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", date, err)
	}

	if rec == nil {
		if e.evict(owner, date) {
			e.notify(Change{Kind: ChangeDeleted, Owner: owner, Date: date})
		}
		return nil, nil
	}

	prev := e.Peek(owner, date)
	e.merge(*rec, true)
	if prev == nil || !sameRecord(prev, rec) {
		e.notify(Change{Kind: ChangeRefreshed, Owner: owner, Date: date, Record: copyRecord(rec)})
	}
	return copyRecord(rec), nil
}

// Peek returns the cached record for the date without touching the store.
// It serves an optimistic value while GetRecord is in flight.
func (e *Engine) Peek(owner, date string) *journal.Record {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.peekLocked(owner, date)
}

func (e *Engine) peekLocked(owner, date string) *journal.Record {
	if e.last != nil && e.last.Owner == owner && e.last.Date == date {
		return copyRecord(e.last)
	}
	if m, ok := e.months[monthKey{owner, journal.MonthOf(date)}]; ok {
		if rec, ok := m.records[date]; ok {
			return copyRecord(&rec)
		}
	}
	return nil
}

// state returns the date's state, creating it on first use.
func (e *Engine) state(owner, date string) (*dateState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, ErrClosed
	}
	k := dateKey{owner, date}
	st, ok := e.dates[k]
	if !ok {
		st = &dateState{}
		e.dates[k] = st
	}
	return st, nil
}

// bump advances the date's generation, cancels its in-flight work and
// returns the new generation.
func (e *Engine) bump(st *dateState) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return 0, ErrClosed
	}
	st.gen++
	if st.cancel != nil {
		st.cancel()
		st.cancel = nil
	}
	st.poll = nil
	return st.gen, nil
}

// advance is state followed by bump, for callers that do not write.
func (e *Engine) advance(owner, date string) (*dateState, uint64, error) {
	st, err := e.state(owner, date)
	if err != nil {
		return nil, 0, err
	}
	gen, err := e.bump(st)
	if err != nil {
		return nil, 0, err
	}
	return st, gen, nil
}

// current reports whether gen is still the date's latest generation.
func (e *Engine) current(st *dateState, gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return st.gen == gen && !e.closed
}

// finish detaches finished work from the date if it is still current.
func (e *Engine) finish(st *dateState, gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if st.gen == gen {
		st.cancel = nil
		st.poll = nil
	}
}

// merge patches rec into the live month cache and, when it holds the same
// date, the last-accessed slot. An older copy of a record never replaces a
// newer one. With touch set, rec also becomes the last-accessed record.
func (e *Engine) merge(rec journal.Record, touch bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sameDate := e.last != nil && e.last.Owner == rec.Owner && e.last.Date == rec.Date
	if (touch || sameDate) && !(sameDate && newer(e.last, &rec)) {
		e.last = copyRecord(&rec)
	}

	m, ok := e.months[monthKey{rec.Owner, journal.MonthOf(rec.Date)}]
	if !ok {
		return
	}
	if cur, ok := m.records[rec.Date]; ok && newer(&cur, &rec) {
		return
	}
	if rec.Visible() {
		m.records[rec.Date] = rec
	} else {
		delete(m.records, rec.Date)
	}
}

// evict removes the date from the cache and reports whether it was there.
func (e *Engine) evict(owner, date string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	found := false
	if e.last != nil && e.last.Owner == owner && e.last.Date == date {
		e.last = nil
		found = true
	}
	if m, ok := e.months[monthKey{owner, journal.MonthOf(date)}]; ok {
		if _, ok := m.records[date]; ok {
			delete(m.records, date)
			found = true
		}
	}
	return found
}

// newer reports whether cur is a strictly later version of the same record
// than rec.
func newer(cur, rec *journal.Record) bool {
	return cur.ID == rec.ID && cur.UpdatedAt.After(rec.UpdatedAt)
}

func sameRecord(a, b *journal.Record) bool {
	if a.ID != b.ID || a.Content != b.Content || !a.UpdatedAt.Equal(b.UpdatedAt) {
		return false
	}
	if (a.Summary == nil) != (b.Summary == nil) {
		return false
	}
	return a.Summary == nil || *a.Summary == *b.Summary
}

func copyRecord(r *journal.Record) *journal.Record {
	if r == nil {
		return nil
	}
	c := *r
	if r.Summary != nil {
		s := *r.Summary
		c.Summary = &s
	}
	return &c
}

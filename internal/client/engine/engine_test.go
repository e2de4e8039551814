package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/daylog/internal/common"
	"github.com/dmitrijs2005/daylog/internal/journal"
	"github.com/dmitrijs2005/daylog/internal/logging"
	"github.com/dmitrijs2005/daylog/internal/metrics"
	"github.com/dmitrijs2005/daylog/internal/summarizer"
)

const owner = "u1"

// memStore is an in-memory journal.Store.
type memStore struct {
	mu      sync.Mutex
	recs    map[string]journal.Record
	seq     int
	summary []string // every summary written through UpdateSummary

	upsertErr error
	lists     [][2]string

	// afterUpsert runs in its own goroutine after each upsert.
	afterUpsert func(rec journal.Record)
}

func newMemStore() *memStore {
	return &memStore{recs: map[string]journal.Record{}}
}

func (s *memStore) key(o, d string) string { return o + "|" + d }

func (s *memStore) Get(_ context.Context, o, d string) (*journal.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recs[s.key(o, d)]
	if !ok {
		return nil, nil
	}
	return copyRecord(&r), nil
}

func (s *memStore) Upsert(_ context.Context, o, d, content string) (*journal.Record, error) {
	s.mu.Lock()
	if s.upsertErr != nil {
		err := s.upsertErr
		s.mu.Unlock()
		return nil, err
	}
	r, ok := s.recs[s.key(o, d)]
	if !ok {
		s.seq++
		r = journal.Record{ID: fmt.Sprintf("id-%d", s.seq), Owner: o, Date: d}
		r.CreatedAt = journal.NextStamp(time.Time{}, time.Now())
	}
	r.Content = content
	r.UpdatedAt = journal.NextStamp(r.UpdatedAt, time.Now())
	s.recs[s.key(o, d)] = r
	hook := s.afterUpsert
	s.mu.Unlock()

	if hook != nil {
		go hook(r)
	}
	return copyRecord(&r), nil
}

func (s *memStore) UpdateSummary(_ context.Context, o, d string, summary *string) (*journal.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recs[s.key(o, d)]
	if !ok {
		return nil, common.ErrNotFound
	}
	r.Summary = journal.NormalizeSummary(summary)
	r.UpdatedAt = journal.NextStamp(r.UpdatedAt, time.Now())
	s.recs[s.key(o, d)] = r
	if summary != nil {
		s.summary = append(s.summary, *summary)
	}
	return copyRecord(&r), nil
}

func (s *memStore) Delete(_ context.Context, o, d string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.recs, s.key(o, d))
	return nil
}

func (s *memStore) ListRange(_ context.Context, o, from, to string) ([]journal.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists = append(s.lists, [2]string{from, to})
	var out []journal.Record
	for _, r := range s.recs {
		if r.Owner == o && r.Date >= from && r.Date <= to {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memStore) written() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.summary...)
}

// fakeGen summarises content as "sum:<content>". Content listed in gates
// blocks until its gate is closed, ignoring cancellation.
type fakeGen struct {
	mu    sync.Mutex
	gates map[string]chan struct{}
	err   error
	calls atomic.Int32
}

func (g *fakeGen) gate(content string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.gates == nil {
		g.gates = map[string]chan struct{}{}
	}
	ch := make(chan struct{})
	g.gates[content] = ch
	return ch
}

func (g *fakeGen) Daily(_ context.Context, content string) (string, error) {
	g.calls.Add(1)
	g.mu.Lock()
	ch := g.gates[content]
	err := g.err
	g.mu.Unlock()
	if ch != nil {
		<-ch
	}
	if err != nil {
		return "", err
	}
	return "sum:" + content, nil
}

func (g *fakeGen) Monthly(context.Context, string, int, time.Month) (*journal.Review, error) {
	return nil, errors.New("not used")
}

func (g *fakeGen) Keywords(context.Context, []string) ([]journal.Keyword, error) {
	return nil, nil
}

// recorder collects changes.
type recorder struct {
	mu      sync.Mutex
	changes []Change
	ch      chan Change
}

func newRecorder(e *Engine) *recorder {
	r := &recorder{ch: make(chan Change, 128)}
	e.Subscribe(func(c Change) {
		r.mu.Lock()
		r.changes = append(r.changes, c)
		r.mu.Unlock()
		r.ch <- c
	})
	return r
}

func (r *recorder) waitFor(t *testing.T, kind ChangeKind, date string) Change {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case c := <-r.ch:
			if c.Kind == kind && c.Date == date {
				return c
			}
		case <-timeout:
			t.Fatalf("no %s change for %s", kind, date)
			return Change{}
		}
	}
}

func (r *recorder) kinds(date string) []ChangeKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ChangeKind
	for _, c := range r.changes {
		if c.Date == date {
			out = append(out, c.Kind)
		}
	}
	return out
}

func newEngine(t *testing.T, store journal.Store, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithConfig(Config{PollAttempts: 20, PollInterval: 5 * time.Millisecond})}, opts...)
	e := New(store, logging.NewNop(), opts...)
	t.Cleanup(e.Close)
	return e
}

func TestSave_MeaninglessContentDeletes(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	e := newEngine(t, store, WithGenerator(&fakeGen{}))
	rec := newRecorder(e)

	_, err := store.Upsert(ctx, owner, "2024-03-15", "existing")
	require.NoError(t, err)

	for _, c := range []string{"", "   ", "...", "!?，。", "\n\t-"} {
		got, err := e.Save(ctx, owner, "2024-03-15", c)
		require.NoError(t, err)
		require.Nil(t, got, "content %q", c)

		stored, err := store.Get(ctx, owner, "2024-03-15")
		require.NoError(t, err)
		require.Nil(t, stored, "content %q must leave no record", c)
	}
	assert.Contains(t, rec.kinds("2024-03-15"), ChangeDeleted)
}

func TestSave_SecondSaveWins(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	e := newEngine(t, store, WithGenerator(&fakeGen{}))

	first, err := e.Save(ctx, owner, "2024-03-15", "c1")
	require.NoError(t, err)
	second, err := e.Save(ctx, owner, "2024-03-15", "c2")
	require.NoError(t, err)

	got, err := e.GetRecord(ctx, owner, "2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, "c2", got.Content)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
}

func TestSave_RoundTripSummaryNeverEmpty(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	gen := &fakeGen{}
	e := newEngine(t, store, WithGenerator(gen))
	rec := newRecorder(e)

	saved, err := e.Save(ctx, owner, "2024-03-15", "ran 5k")
	require.NoError(t, err)
	require.Equal(t, "ran 5k", saved.Content)
	require.Nil(t, saved.Summary, "save returns before summarisation")

	rec.waitFor(t, ChangeSummaryUpdated, "2024-03-15")

	got, err := e.GetRecord(ctx, owner, "2024-03-15")
	require.NoError(t, err)
	require.Equal(t, "ran 5k", got.Content)
	require.NotNil(t, got.Summary)
	require.NotEmpty(t, *got.Summary)
}

func TestSave_StaleSummaryDiscarded(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	gen := &fakeGen{}
	releaseA := gen.gate("A")
	e := newEngine(t, store, WithGenerator(gen))
	rec := newRecorder(e)

	_, err := e.Save(ctx, owner, "2024-03-15", "A")
	require.NoError(t, err)
	_, err = e.Save(ctx, owner, "2024-03-15", "B")
	require.NoError(t, err)

	c := rec.waitFor(t, ChangeSummaryUpdated, "2024-03-15")
	require.Equal(t, "sum:B", *c.Record.Summary)

	close(releaseA)
	e.Close()

	got, err := store.Get(ctx, owner, "2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, "B", got.Content)
	assert.Equal(t, "sum:B", *got.Summary)
	assert.Equal(t, []string{"sum:B"}, store.written(), "result for A must never be written")
}

func TestSave_ConcurrentSavesSummariseStoredContent(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	e := newEngine(t, store, WithGenerator(&fakeGen{}))

	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	dates := make([]string, 0, 100)
	for i := 0; i < 100; i++ {
		date := day.AddDate(0, 0, i).Format(common.DateLayout)
		dates = append(dates, date)

		var wg sync.WaitGroup
		for _, content := range []string{"alpha one", "beta two", "gamma three"} {
			wg.Add(1)
			go func(content string) {
				defer wg.Done()
				_, err := e.Save(ctx, owner, date, content)
				assert.NoError(t, err)
			}(content)
		}
		wg.Wait()
	}

	for _, date := range dates {
		require.Eventually(t, func() bool {
			got, err := store.Get(ctx, owner, date)
			return err == nil && got != nil && got.Summary != nil && *got.Summary == "sum:"+got.Content
		}, 2*time.Second, time.Millisecond, "summary of %s must match its stored content", date)
	}
}

func TestSave_GenerationFailureKeepsPreviousSummary(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	gen := &fakeGen{err: errors.New("model down")}
	reg := prometheus.NewRegistry()
	e := newEngine(t, store, WithGenerator(gen), WithMetrics(metrics.NewPipeline(reg, "test")))
	rec := newRecorder(e)

	_, err := store.Upsert(ctx, owner, "2024-03-15", "old")
	require.NoError(t, err)
	good := "• good summary"
	_, err = store.UpdateSummary(ctx, owner, "2024-03-15", &good)
	require.NoError(t, err)

	saved, err := e.Save(ctx, owner, "2024-03-15", "new text")
	require.NoError(t, err, "generation failure never surfaces from save")
	require.NotNil(t, saved)

	rec.waitFor(t, ChangeSummaryUnchanged, "2024-03-15")

	got, err := store.Get(ctx, owner, "2024-03-15")
	require.NoError(t, err)
	require.Equal(t, "new text", got.Content)
	require.Equal(t, good, *got.Summary)
}

func TestSave_StoreErrorsSurface(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.upsertErr = fmt.Errorf("dial: %w", common.ErrUnavailable)
	e := newEngine(t, store, WithGenerator(&fakeGen{}))

	_, err := e.Save(ctx, owner, "2024-03-15", "text")
	require.ErrorIs(t, err, common.ErrUnavailable)

	_, err = e.Save(ctx, "", "2024-03-15", "text")
	require.ErrorIs(t, err, common.ErrUnauthenticated)

	_, err = e.Save(ctx, owner, "2024-02-30", "text")
	require.ErrorIs(t, err, common.ErrInvalidDate)
}

func TestSave_CJKEntrySummarisedByStoreWithinPollWindow(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	// The store enriches records itself, like the server does.
	store.afterUpsert = func(r journal.Record) {
		time.Sleep(20 * time.Millisecond)
		s, _ := summarizer.Offline{}.Daily(context.Background(), r.Content)
		_, _ = store.UpdateSummary(context.Background(), r.Owner, r.Date, &s)
	}
	e := newEngine(t, store)
	rec := newRecorder(e)

	content := "学习了 TypeScript\n\n完成了项目部署"
	saved, err := e.Save(ctx, owner, "2024-03-15", content)
	require.NoError(t, err)
	require.Equal(t, content, saved.Content)
	require.Nil(t, saved.Summary)

	poll := e.ActivePoll(owner, "2024-03-15")
	require.NotNil(t, poll)
	require.Equal(t, PollComplete, poll.Wait(ctx))

	got, err := e.GetRecord(ctx, owner, "2024-03-15")
	require.NoError(t, err)
	require.NotNil(t, got.Summary)
	require.Contains(t, *got.Summary, "TypeScript")
	require.NotContains(t, rec.kinds("2024-03-15"), ChangeDeleted)
}

func TestPoll_GivesUp(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	reg := prometheus.NewRegistry()
	e := newEngine(t, store, WithMetrics(metrics.NewPipeline(reg, "test")))

	saved, err := store.Upsert(ctx, owner, "2024-03-15", "text")
	require.NoError(t, err)

	p, err := e.PollForSummary(PollRequest{Owner: owner, Date: "2024-03-15", RecordID: saved.ID, Since: saved.UpdatedAt, MaxAttempts: 3, Interval: time.Millisecond})
	require.NoError(t, err)
	require.Equal(t, PollGivenUp, p.Wait(ctx))
	require.Equal(t, 3, p.Attempts())
}

func TestPoll_IgnoresSummaryOlderThanSave(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	e := newEngine(t, store, WithConfig(Config{PollAttempts: 1000, PollInterval: 5 * time.Millisecond}))

	_, err := store.Upsert(ctx, owner, "2024-03-15", "v1")
	require.NoError(t, err)
	old := "• v1"
	_, err = store.UpdateSummary(ctx, owner, "2024-03-15", &old)
	require.NoError(t, err)

	// The re-save keeps the old summary; it must not count as completion.
	saved, err := e.Save(ctx, owner, "2024-03-15", "v2")
	require.NoError(t, err)
	require.Equal(t, old, *saved.Summary)

	p := e.ActivePoll(owner, "2024-03-15")
	require.NotNil(t, p)
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, PollPolling, p.State())

	fresh := "• v2"
	_, err = store.UpdateSummary(ctx, owner, "2024-03-15", &fresh)
	require.NoError(t, err)
	require.Equal(t, PollComplete, p.Wait(ctx))
	require.Equal(t, fresh, *e.Peek(owner, "2024-03-15").Summary)
}

func TestPoll_NewSaveCancelsPriorPoll(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	e := newEngine(t, store)

	_, err := e.Save(ctx, owner, "2024-03-15", "A")
	require.NoError(t, err)
	first := e.ActivePoll(owner, "2024-03-15")
	require.NotNil(t, first)

	_, err = e.Save(ctx, owner, "2024-03-15", "B")
	require.NoError(t, err)
	second := e.ActivePoll(owner, "2024-03-15")

	require.Equal(t, PollCancelled, first.Wait(ctx))
	require.NotSame(t, first, second)
	require.Equal(t, PollPolling, second.State())
}

func TestPoll_StopsWhenRecordDisappears(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	e := newEngine(t, store)

	_, err := e.Save(ctx, owner, "2024-03-15", "A")
	require.NoError(t, err)
	p := e.ActivePoll(owner, "2024-03-15")
	require.NoError(t, store.Delete(ctx, owner, "2024-03-15"))

	require.Equal(t, PollCancelled, p.Wait(ctx))
}

func TestUpdateSummary_ManualEditWinsOverPendingJob(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	gen := &fakeGen{}
	release := gen.gate("A")
	e := newEngine(t, store, WithGenerator(gen))

	_, err := e.Save(ctx, owner, "2024-03-15", "A")
	require.NoError(t, err)

	mine := "my own words"
	got, err := e.UpdateSummary(ctx, owner, "2024-03-15", &mine)
	require.NoError(t, err)
	require.Equal(t, mine, *got.Summary)

	close(release)
	e.Close()

	stored, err := store.Get(ctx, owner, "2024-03-15")
	require.NoError(t, err)
	require.Equal(t, mine, *stored.Summary)
}

func TestUpdateSummary_EmptyClears(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	e := newEngine(t, store, WithGenerator(&fakeGen{err: errors.New("off")}))

	_, err := store.Upsert(ctx, owner, "2024-03-15", "A")
	require.NoError(t, err)
	s := "x"
	_, err = e.UpdateSummary(ctx, owner, "2024-03-15", &s)
	require.NoError(t, err)

	empty := ""
	got, err := e.UpdateSummary(ctx, owner, "2024-03-15", &empty)
	require.NoError(t, err)
	require.Nil(t, got.Summary)
}

func TestListMonth_RangeAndFilter(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	e := newEngine(t, store)

	for d, c := range map[string]string{
		"2024-01-31": "january",
		"2024-02-01": "first",
		"2024-02-29": "leap day",
		"2024-03-01": "march",
	} {
		_, err := store.Upsert(ctx, owner, d, c)
		require.NoError(t, err)
	}
	// A placeholder row with no meaningful content and no summary.
	_, err := store.Upsert(ctx, owner, "2024-02-10", "   ")
	require.NoError(t, err)
	// Meaningless content but a summary is still shown.
	_, err = store.Upsert(ctx, owner, "2024-02-11", "...")
	require.NoError(t, err)
	s := "• kept"
	_, err = store.UpdateSummary(ctx, owner, "2024-02-11", &s)
	require.NoError(t, err)

	m, err := e.ListMonth(ctx, owner, 2024, time.February)
	require.NoError(t, err)
	require.Equal(t, [2]string{"2024-02-01", "2024-02-29"}, store.lists[len(store.lists)-1])

	var dates []string
	for _, r := range m.Records {
		dates = append(dates, r.Date)
	}
	assert.Equal(t, []string{"2024-02-01", "2024-02-11", "2024-02-29"}, dates)
	assert.Equal(t, "2024-02", m.Key())
	assert.False(t, m.SyncedAt.IsZero())
	assert.Nil(t, m.Get("2024-02-10"))
	assert.Equal(t, "leap day", m.Get("2024-02-29").Content)

	_, err = e.ListMonth(ctx, owner, 2024, 13)
	require.ErrorIs(t, err, common.ErrInvalidDate)
	_, err = e.ListMonth(ctx, "", 2024, time.March)
	require.ErrorIs(t, err, common.ErrUnauthenticated)
}

func TestMonthCache_PatchedBySaveAndDelete(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	e := newEngine(t, store, WithGenerator(&fakeGen{err: errors.New("off")}))

	_, err := e.ListMonth(ctx, owner, 2024, time.March)
	require.NoError(t, err)

	_, err = e.Save(ctx, owner, "2024-03-15", "hello")
	require.NoError(t, err)
	m, fresh := e.CachedMonth(ctx, owner, 2024, time.March)
	require.True(t, fresh)
	require.NotNil(t, m.Get("2024-03-15"))

	_, err = e.Save(ctx, owner, "2024-03-15", "  ")
	require.NoError(t, err)
	m, _ = e.CachedMonth(ctx, owner, 2024, time.March)
	require.Nil(t, m.Get("2024-03-15"))
	require.Equal(t, 1, len(store.lists), "single-date patches never re-list the month")
}

func TestMonthSwitch_LateSummaryStillMerged(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	gen := &fakeGen{}
	release := gen.gate("march entry")
	e := newEngine(t, store, WithGenerator(gen))
	rec := newRecorder(e)

	_, err := e.ListMonth(ctx, owner, 2024, time.March)
	require.NoError(t, err)
	_, err = e.Save(ctx, owner, "2024-03-15", "march entry")
	require.NoError(t, err)

	_, err = e.ListMonth(ctx, owner, 2024, time.April)
	require.NoError(t, err)
	close(release)
	rec.waitFor(t, ChangeSummaryUpdated, "2024-03-15")

	m, _ := e.CachedMonth(ctx, owner, 2024, time.March)
	require.NotNil(t, m)
	got := m.Get("2024-03-15")
	require.NotNil(t, got)
	require.Equal(t, "sum:march entry", *got.Summary)
}

type memSnapshots struct {
	mu    sync.Mutex
	snaps map[string]journal.MonthSnapshot
}

func (m *memSnapshots) LoadMonth(_ context.Context, o, month string) (*journal.MonthSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.snaps[o+month]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *memSnapshots) SaveMonth(_ context.Context, s journal.MonthSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snaps == nil {
		m.snaps = map[string]journal.MonthSnapshot{}
	}
	m.snaps[s.Owner+s.Month] = s
	return nil
}

func TestCachedMonth_FromSnapshotWithFreshness(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	snaps := &memSnapshots{}

	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	var clock atomic.Value
	clock.Store(now)
	nowFn := func() time.Time { return clock.Load().(time.Time) }

	_, err := store.Upsert(ctx, owner, "2024-03-15", "hello")
	require.NoError(t, err)

	first := newEngine(t, store, WithSnapshots(snaps), WithClock(nowFn))
	_, err = first.ListMonth(ctx, owner, 2024, time.March)
	require.NoError(t, err)
	first.Close()

	// A new session starts with an empty memory cache.
	second := newEngine(t, store, WithSnapshots(snaps), WithClock(nowFn))

	m, fresh := second.CachedMonth(ctx, owner, 2024, time.March)
	require.NotNil(t, m)
	require.True(t, fresh)
	require.NotNil(t, m.Get("2024-03-15"))

	clock.Store(now.Add(DefaultSnapshotTTL + time.Second))
	m, fresh = second.CachedMonth(ctx, owner, 2024, time.March)
	require.NotNil(t, m)
	require.False(t, fresh)

	m, fresh = second.CachedMonth(ctx, owner, 2024, time.June)
	require.Nil(t, m)
	require.False(t, fresh)
}

func TestGetRecord_StoreWins(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	e := newEngine(t, store, WithGenerator(&fakeGen{err: errors.New("off")}))
	rec := newRecorder(e)

	_, err := e.ListMonth(ctx, owner, 2024, time.March)
	require.NoError(t, err)
	_, err = e.Save(ctx, owner, "2024-03-15", "hello")
	require.NoError(t, err)
	require.NotNil(t, e.Peek(owner, "2024-03-15"))

	// Someone else removed it.
	require.NoError(t, store.Delete(ctx, owner, "2024-03-15"))

	got, err := e.GetRecord(ctx, owner, "2024-03-15")
	require.NoError(t, err)
	require.Nil(t, got)
	require.Nil(t, e.Peek(owner, "2024-03-15"))
	m, _ := e.CachedMonth(ctx, owner, 2024, time.March)
	require.Nil(t, m.Get("2024-03-15"))
	require.Contains(t, rec.kinds("2024-03-15"), ChangeDeleted)

	// And someone else edited another date.
	_, err = store.Upsert(ctx, owner, "2024-03-16", "remote edit")
	require.NoError(t, err)
	got, err = e.GetRecord(ctx, owner, "2024-03-16")
	require.NoError(t, err)
	require.Equal(t, "remote edit", got.Content)
	require.Equal(t, "remote edit", e.Peek(owner, "2024-03-16").Content)
	require.Contains(t, rec.kinds("2024-03-16"), ChangeRefreshed)
}

func TestDates_AreIndependent(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	gen := &fakeGen{}
	release := gen.gate("slow")
	e := newEngine(t, store, WithGenerator(gen))
	rec := newRecorder(e)

	_, err := e.Save(ctx, owner, "2024-03-01", "slow")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		_, err := e.Save(ctx, owner, "2024-03-02", "fast")
		assert.NoError(t, err)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("save on another date blocked")
	}
	rec.waitFor(t, ChangeSummaryUpdated, "2024-03-02")
	close(release)
	rec.waitFor(t, ChangeSummaryUpdated, "2024-03-01")
}

func TestClose_StopsBackgroundWork(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	e := New(store, logging.NewNop(), WithConfig(Config{PollInterval: time.Hour}))

	_, err := e.Save(ctx, owner, "2024-03-15", "A")
	require.NoError(t, err)
	p := e.ActivePoll(owner, "2024-03-15")

	e.Close()
	require.Equal(t, PollCancelled, p.State())

	_, err = e.Save(ctx, owner, "2024-03-15", "B")
	require.ErrorIs(t, err, ErrClosed)
	e.Close()
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, newMemStore(), WithGenerator(&fakeGen{err: errors.New("off")}))

	var n atomic.Int32
	unsubscribe := e.Subscribe(func(c Change) {
		if c.Kind == ChangeSaved {
			n.Add(1)
		}
	})
	_, err := e.Save(ctx, owner, "2024-03-15", "one")
	require.NoError(t, err)
	unsubscribe()
	_, err = e.Save(ctx, owner, "2024-03-15", "two")
	require.NoError(t, err)

	require.EqualValues(t, 1, n.Load())
}

func TestChangeKind_String(t *testing.T) {
	for k := ChangeSaved; k <= ChangeReloaded; k++ {
		require.False(t, strings.Contains(k.String(), "unknown"))
	}
	require.Equal(t, "GIVEN_UP", PollGivenUp.String())
}

package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dmitrijs2005/daylog/internal/common"
	"github.com/dmitrijs2005/daylog/internal/journal"
)

// MonthCache is a point-in-time copy of the engine's view of one month:
// every record that has meaningful content or a summary, by date.
type MonthCache struct {
	Owner    string
	Year     int
	Month    time.Month
	SyncedAt time.Time
	Records  []journal.Record
}

// Key returns the YYYY-MM of the month.
func (m *MonthCache) Key() string {
	return journal.MonthKey(m.Year, m.Month)
}

func (m *MonthCache) Get(date string) *journal.Record {
	i := sort.Search(len(m.Records), func(i int) bool { return m.Records[i].Date >= date })
	if i < len(m.Records) && m.Records[i].Date == date {
		return copyRecord(&m.Records[i])
	}
	return nil
}

// ListMonth re-reads the month from the store and replaces the cached
// month with the result.
func (e *Engine) ListMonth(ctx context.Context, owner string, year int, month time.Month) (*MonthCache, error) {
	if owner == "" {
		return nil, common.ErrUnauthenticated
	}
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("%w: month %d", common.ErrInvalidDate, month)
	}

	from, to := journal.MonthRange(year, month)
	recs, err := e.store.ListRange(ctx, owner, from, to)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", journal.MonthKey(year, month), err)
	}

	now := e.now()
	entry := &monthEntry{
		owner:    owner,
		year:     year,
		month:    month,
		syncedAt: now,
		touched:  now,
		records:  make(map[string]journal.Record, len(recs)),
	}
	for _, r := range recs {
		if r.Visible() {
			entry.records[r.Date] = r
		}
	}

	key := monthKey{owner, journal.MonthKey(year, month)}

	e.mu.Lock()
	if old, ok := e.months[key]; ok {
		// A save that landed while the listing was in flight is newer than
		// what the listing returned for that date.
		for date, cur := range old.records {
			if r, ok := entry.records[date]; ok && newer(&cur, &r) {
				entry.records[date] = cur
			}
		}
	}
	e.months[key] = entry
	e.trimMonthsLocked()
	view := entry.view()
	e.mu.Unlock()

	e.saveSnapshot(ctx, view)
	e.notify(Change{Kind: ChangeReloaded, Owner: owner, Month: key.month})
	return view, nil
}

// CachedMonth returns the month as last seen, from memory or from the
// persisted snapshot, without reading the store. fresh reports whether the
// copy is younger than the snapshot TTL. A nil cache means nothing is known.
func (e *Engine) CachedMonth(ctx context.Context, owner string, year int, month time.Month) (cache *MonthCache, fresh bool) {
	key := monthKey{owner, journal.MonthKey(year, month)}
	now := e.now()

	e.mu.Lock()
	if entry, ok := e.months[key]; ok {
		entry.touched = now
		view := entry.view()
		e.mu.Unlock()
		return view, now.Sub(view.SyncedAt) <= e.cfg.SnapshotTTL
	}
	e.mu.Unlock()

	if e.snaps == nil {
		return nil, false
	}
	snap, err := e.snaps.LoadMonth(ctx, owner, key.month)
	if err != nil {
		e.logger.Warn(ctx, "load snapshot failed", "month", key.month, "error", err)
		return nil, false
	}
	if snap == nil {
		return nil, false
	}

	entry := &monthEntry{
		owner:    owner,
		year:     year,
		month:    month,
		syncedAt: snap.SyncedAt,
		touched:  now,
		records:  make(map[string]journal.Record, len(snap.Records)),
	}
	for _, r := range snap.Records {
		if r.Visible() {
			entry.records[r.Date] = r
		}
	}

	e.mu.Lock()
	if cur, ok := e.months[key]; ok {
		entry = cur
	} else {
		e.months[key] = entry
		e.trimMonthsLocked()
	}
	view := entry.view()
	e.mu.Unlock()

	return view, now.Sub(view.SyncedAt) <= e.cfg.SnapshotTTL
}

func (e *Engine) saveSnapshot(ctx context.Context, m *MonthCache) {
	if e.snaps == nil {
		return
	}
	snap := journal.MonthSnapshot{Owner: m.Owner, Month: m.Key(), SyncedAt: m.SyncedAt, Records: m.Records}
	if err := e.snaps.SaveMonth(ctx, snap); err != nil {
		e.logger.Warn(ctx, "save snapshot failed", "month", snap.Month, "error", err)
	}
}

// trimMonthsLocked drops the least recently used months beyond MaxMonths.
func (e *Engine) trimMonthsLocked() {
	for len(e.months) > e.cfg.MaxMonths {
		var (
			oldestKey monthKey
			oldest    time.Time
			first     = true
		)
		for k, m := range e.months {
			if first || m.touched.Before(oldest) {
				oldestKey, oldest, first = k, m.touched, false
			}
		}
		delete(e.months, oldestKey)
	}
}

func (m *monthEntry) view() *MonthCache {
	out := &MonthCache{
		Owner:    m.owner,
		Year:     m.year,
		Month:    m.month,
		SyncedAt: m.syncedAt,
		Records:  make([]journal.Record, 0, len(m.records)),
	}
	for _, r := range m.records {
		out.Records = append(out.Records, *copyRecord(&r))
	}
	sort.Slice(out.Records, func(i, j int) bool { return out.Records[i].Date < out.Records[j].Date })
	return out
}

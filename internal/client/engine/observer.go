package engine

import "github.com/dmitrijs2005/daylog/internal/journal"

type ChangeKind int

const (
	// ChangeSaved: content was written; the summary may still be pending.
	ChangeSaved ChangeKind = iota + 1
	// ChangeDeleted: the date has no record anymore.
	ChangeDeleted
	// ChangeSummaryUpdated: a generated or hand-written summary was merged.
	ChangeSummaryUpdated
	// ChangeSummaryUnchanged: background generation ended without a new summary.
	ChangeSummaryUnchanged
	// ChangeRefreshed: a store read replaced the cached copy of a record.
	ChangeRefreshed
	// ChangeReloaded: a whole month was re-listed from the store.
	ChangeReloaded
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeSaved:
		return "saved"
	case ChangeDeleted:
		return "deleted"
	case ChangeSummaryUpdated:
		return "summary_updated"
	case ChangeSummaryUnchanged:
		return "summary_unchanged"
	case ChangeRefreshed:
		return "refreshed"
	case ChangeReloaded:
		return "reloaded"
	default:
		return "unknown"
	}
}

// Change describes one cache mutation. Record is a private copy and is nil
// for deletions and month reloads; Month is set for reloads.
type Change struct {
	Kind   ChangeKind
	Owner  string
	Date   string
	Month  string
	Record *journal.Record
}

// Observer receives changes. It is called from the goroutine that made the
// change, background workers included, and must not block.
type Observer func(Change)

// Subscribe registers o and returns a function that removes it.
func (e *Engine) Subscribe(o Observer) (unsubscribe func()) {
	e.mu.Lock()
	id := e.nextObs
	e.nextObs++
	e.observers[id] = o
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		delete(e.observers, id)
		e.mu.Unlock()
	}
}

func (e *Engine) notify(c Change) {
	e.mu.Lock()
	obs := make([]Observer, 0, len(e.observers))
	for _, o := range e.observers {
		obs = append(obs, o)
	}
	e.mu.Unlock()

	for _, o := range obs {
		o(c)
	}
}

package services

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/daylog/internal/common"
	"github.com/dmitrijs2005/daylog/internal/dbx"
	"github.com/dmitrijs2005/daylog/internal/journal"
	"github.com/dmitrijs2005/daylog/internal/server/models"
	"github.com/dmitrijs2005/daylog/internal/server/repositories/records"
	"github.com/dmitrijs2005/daylog/internal/server/repositories/users"
)

// fakeRM hands out the same in-memory repositories for any DBTX.
type fakeRM struct {
	users   *fakeUsers
	records *fakeRecords
}

func (f *fakeRM) RunMigrations(context.Context, *sql.DB) error { return nil }
func (f *fakeRM) Users(dbx.DBTX) users.Repository              { return f.users }
func (f *fakeRM) Records(dbx.DBTX) records.Repository          { return f.records }

type fakeUsers struct {
	mu     sync.Mutex
	byName map[string]*models.User
	err    error
}

func (f *fakeUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.byName == nil {
		f.byName = map[string]*models.User{}
	}
	if _, ok := f.byName[u.UserName]; ok {
		return nil, common.ErrAlreadyExists
	}
	cp := *u
	cp.ID = "id-" + u.UserName
	cp.CreatedAt = time.Now()
	f.byName[u.UserName] = &cp
	return &cp, nil
}

func (f *fakeUsers) GetUserByLogin(_ context.Context, login string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.byName[login]
	if !ok {
		return nil, common.ErrNotFound
	}
	return u, nil
}

type recKey struct{ owner, date string }

type fakeRecords struct {
	mu        sync.Mutex
	recs      map[recKey]journal.Record
	summaries map[recKey]journal.MonthlySummary
	clock     time.Time
	err       error

	conditional int
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{
		recs:      map[recKey]journal.Record{},
		summaries: map[recKey]journal.MonthlySummary{},
		clock:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fakeRecords) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeRecords) Get(_ context.Context, owner, date string) (*journal.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	r, ok := f.recs[recKey{owner, date}]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (f *fakeRecords) Upsert(_ context.Context, owner, date, content string) (*journal.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	k := recKey{owner, date}
	r, ok := f.recs[k]
	now := f.tick()
	if !ok {
		r = journal.Record{ID: "r-" + date, Owner: owner, Date: date, CreatedAt: now}
	}
	r.Content = content
	r.UpdatedAt = now
	f.recs[k] = r
	return &r, nil
}

func (f *fakeRecords) UpdateSummary(_ context.Context, owner, date string, summary *string) (*journal.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := recKey{owner, date}
	r, ok := f.recs[k]
	if !ok {
		return nil, common.ErrNotFound
	}
	r.Summary = journal.NormalizeSummary(summary)
	r.UpdatedAt = f.tick()
	f.recs[k] = r
	return &r, nil
}

func (f *fakeRecords) UpdateSummaryIfUnchanged(_ context.Context, owner, date string, stamp time.Time, summary *string) (*journal.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.conditional++
	k := recKey{owner, date}
	r, ok := f.recs[k]
	if !ok || !r.UpdatedAt.Equal(stamp) {
		return nil, nil
	}
	r.Summary = journal.NormalizeSummary(summary)
	r.UpdatedAt = f.tick()
	f.recs[k] = r
	return &r, nil
}

func (f *fakeRecords) conditionalWrites() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.conditional
}

func (f *fakeRecords) Delete(_ context.Context, owner, date string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	delete(f.recs, recKey{owner, date})
	return nil
}

func (f *fakeRecords) ListRange(_ context.Context, owner, from, to string) ([]journal.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]journal.Record, 0)
	for k, r := range f.recs {
		if k.owner == owner && k.date >= from && k.date <= to {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (f *fakeRecords) Restore(_ context.Context, owner string, rec journal.Record) (*journal.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec.Owner = owner
	rec.ID = "r-" + rec.Date
	rec.Summary = journal.NormalizeSummary(rec.Summary)
	rec.UpdatedAt = f.tick()
	f.recs[recKey{owner, rec.Date}] = rec
	return &rec, nil
}

func (f *fakeRecords) GetMonthlySummary(_ context.Context, owner, month string) (*journal.MonthlySummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.summaries[recKey{owner, month}]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (f *fakeRecords) PutMonthlySummary(_ context.Context, owner string, s journal.MonthlySummary) (*journal.MonthlySummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.Owner = owner
	f.summaries[recKey{owner, s.Month}] = s
	return &s, nil
}

func (f *fakeRecords) ListMonthlySummaries(_ context.Context, owner string) ([]journal.MonthlySummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]journal.MonthlySummary, 0)
	for k, s := range f.summaries {
		if k.owner == owner {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out, nil
}

type fakeQueue struct {
	mu   sync.Mutex
	jobs []string
}

func (q *fakeQueue) Enqueue(owner, date, content string, _ time.Time) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, owner+"/"+date+"="+content)
	return true
}

type fakeUploader struct {
	userID string
	data   []byte
	err    error
}

func (u *fakeUploader) Upload(_ context.Context, userID string, data []byte) (string, string, error) {
	if u.err != nil {
		return "", "", u.err
	}
	u.userID = userID
	u.data = data
	return "backups/" + userID + "/x.json", "https://s3.local/x.json?sig", nil
}

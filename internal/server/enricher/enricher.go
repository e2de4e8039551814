// Package enricher summarises saved records in the background on the
// server. Clients only write content; they learn about the summary by
// polling the record.
package enricher

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/daylog/internal/journal"
	"github.com/dmitrijs2005/daylog/internal/logging"
	"github.com/dmitrijs2005/daylog/internal/metrics"
)

// Store writes a summary only while the record's updated_at is still stamp.
// It returns (nil, nil) when the record has changed since.
type Store interface {
	UpdateSummaryIfUnchanged(ctx context.Context, owner, date string, stamp time.Time, summary *string) (*journal.Record, error)
}

// DailyGenerator is the part of journal.Generator the enricher needs.
type DailyGenerator interface {
	Daily(ctx context.Context, content string) (string, error)
}

type Config struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
}

func (c *Config) applyDefaults() {
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 1024
	}
	if c.Timeout <= 0 {
		c.Timeout = time.Minute
	}
}

type key struct{ owner, date string }

// job is the content saved for a date and the updated_at the save produced.
type job struct {
	content string
	stamp   time.Time
}

// Enricher is a fixed pool of workers fed by Enqueue. Jobs for the same
// (owner, date) coalesce: a worker always summarises the newest save
// enqueued for the date.
type Enricher struct {
	store   Store
	gen     DailyGenerator
	logger  logging.Logger
	metrics *metrics.Pipeline
	cfg     Config

	mu      sync.Mutex
	pending map[key]job
	queue   chan key
	closed  bool
}

func New(store Store, gen DailyGenerator, logger logging.Logger, m *metrics.Pipeline, cfg Config) *Enricher {
	cfg.applyDefaults()
	return &Enricher{
		store:   store,
		gen:     gen,
		logger:  logger.With("module", "enricher"),
		metrics: m,
		cfg:     cfg,
		pending: make(map[key]job),
		queue:   make(chan key, cfg.QueueSize),
	}
}

// Enqueue schedules a summary for content, saved at stamp. The summary is
// stored only if the record is still at stamp when it is ready, so any later
// save or manual summary wins. Enqueue never blocks; when the queue is full
// the job is dropped and the record simply stays unsummarised.
func (e *Enricher) Enqueue(owner, date, content string, stamp time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return false
	}
	k := key{owner, date}
	if prev, ok := e.pending[k]; ok {
		if stamp.After(prev.stamp) {
			e.pending[k] = job{content, stamp}
		}
		return true
	}
	select {
	case e.queue <- k:
		e.pending[k] = job{content, stamp}
		return true
	default:
		e.logger.Warn(context.Background(), "summary queue full, dropping job", "owner", owner, "date", date)
		return false
	}
}

// Pending reports how many dates wait for a worker.
func (e *Enricher) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}

// Run starts the workers and blocks until ctx is done and every worker has
// returned. Jobs still queued at that point are abandoned.
func (e *Enricher) Run(ctx context.Context) error {
	e.logger.Info(ctx, "Starting summary workers", "workers", e.cfg.Workers)

	var wg sync.WaitGroup
	for i := 0; i < e.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.worker(ctx)
		}()
	}

	<-ctx.Done()
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	wg.Wait()
	e.logger.Info(ctx, "Summary workers stopped", "abandoned", e.Pending())
	return nil
}

func (e *Enricher) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case k := <-e.queue:
			e.mu.Lock()
			j, ok := e.pending[k]
			delete(e.pending, k)
			e.mu.Unlock()
			if ok {
				e.process(ctx, k, j)
			}
		}
	}
}

func (e *Enricher) process(ctx context.Context, k key, j job) {
	start := time.Now()
	e.metrics.JobStarted()

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	summary, err := e.gen.Daily(ctx, j.content)
	if err != nil {
		e.logger.Warn(ctx, "summary generation failed", "owner", k.owner, "date", k.date, "error", err)
		e.metrics.JobFinished(metrics.OutcomeFailed, time.Since(start))
		return
	}
	if summary == "" {
		e.metrics.JobFinished(metrics.OutcomeEmpty, time.Since(start))
		return
	}

	rec, err := e.store.UpdateSummaryIfUnchanged(ctx, k.owner, k.date, j.stamp, &summary)
	if err != nil {
		e.logger.Error(ctx, "summary not stored", "owner", k.owner, "date", k.date, "error", err)
		e.metrics.JobFinished(metrics.OutcomeFailed, time.Since(start))
		return
	}
	if rec == nil {
		e.logger.Debug(ctx, "record changed during generation", "owner", k.owner, "date", k.date)
		e.metrics.JobFinished(metrics.OutcomeDiscarded, time.Since(start))
		return
	}
	e.logger.Debug(ctx, "summary stored", "owner", k.owner, "date", k.date)
	e.metrics.JobFinished(metrics.OutcomeSucceeded, time.Since(start))
}

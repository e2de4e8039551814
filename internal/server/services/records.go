package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/daylog/internal/backup"
	"github.com/dmitrijs2005/daylog/internal/common"
	"github.com/dmitrijs2005/daylog/internal/dbx"
	"github.com/dmitrijs2005/daylog/internal/journal"
	"github.com/dmitrijs2005/daylog/internal/logging"
	"github.com/dmitrijs2005/daylog/internal/metrics"
	"github.com/dmitrijs2005/daylog/internal/review"
	"github.com/dmitrijs2005/daylog/internal/server/repositories/repomanager"
)

// Enqueuer schedules background summarisation of content saved at stamp.
type Enqueuer interface {
	Enqueue(owner, date, content string, stamp time.Time) bool
}

// Uploader stores a backup document and returns its key and a download URL.
type Uploader interface {
	Upload(ctx context.Context, userID string, data []byte) (key, url string, err error)
}

// RecordService is the per-user journal behind the gRPC API. Every method
// takes the user id resolved from the caller's access token.
type RecordService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	enricher    Enqueuer
	gen         journal.Generator
	backups     Uploader
	logger      logging.Logger
	metrics     *metrics.Pipeline
}

func NewRecordService(db *sql.DB, m repomanager.RepositoryManager, enricher Enqueuer, gen journal.Generator,
	backups Uploader, logger logging.Logger, p *metrics.Pipeline) *RecordService {
	return &RecordService{
		db:          db,
		repomanager: m,
		enricher:    enricher,
		gen:         gen,
		backups:     backups,
		logger:      logger.With("module", "record_service"),
		metrics:     p,
	}
}

func checkDate(userID, date string) error {
	if userID == "" {
		return common.ErrUnauthenticated
	}
	if !journal.ValidDate(date) {
		return fmt.Errorf("%q: %w", date, common.ErrInvalidDate)
	}
	return nil
}

// Get returns (nil, nil) when nothing is stored for the date.
func (s *RecordService) Get(ctx context.Context, userID, date string) (*journal.Record, error) {
	if err := checkDate(userID, date); err != nil {
		return nil, err
	}
	return s.repomanager.Records(s.db).Get(ctx, userID, date)
}

// Save stores content for the date and queues a summary. Content without a
// letter or digit removes the record instead and Save returns (nil, nil).
func (s *RecordService) Save(ctx context.Context, userID, date, content string) (*journal.Record, error) {
	if err := checkDate(userID, date); err != nil {
		return nil, err
	}
	repo := s.repomanager.Records(s.db)

	if !journal.IsMeaningful(content) {
		if err := repo.Delete(ctx, userID, date); err != nil {
			return nil, err
		}
		s.metrics.Saved(true)
		return nil, nil
	}

	rec, err := repo.Upsert(ctx, userID, date, content)
	if err != nil {
		return nil, err
	}
	s.metrics.Saved(false)
	if s.enricher != nil {
		s.enricher.Enqueue(userID, date, content, rec.UpdatedAt)
	}
	return rec, nil
}

// UpdateSummary overrides the summary; nil or blank clears it. The write
// moves updated_at, so a background summary still in flight for the date is
// discarded when it lands.
func (s *RecordService) UpdateSummary(ctx context.Context, userID, date string, summary *string) (*journal.Record, error) {
	if err := checkDate(userID, date); err != nil {
		return nil, err
	}
	return s.repomanager.Records(s.db).UpdateSummary(ctx, userID, date, summary)
}

func (s *RecordService) Delete(ctx context.Context, userID, date string) error {
	if err := checkDate(userID, date); err != nil {
		return err
	}
	return s.repomanager.Records(s.db).Delete(ctx, userID, date)
}

// List returns the records in [from, to] ordered by date.
func (s *RecordService) List(ctx context.Context, userID, from, to string) ([]journal.Record, error) {
	if err := checkDate(userID, from); err != nil {
		return nil, err
	}
	if err := checkDate(userID, to); err != nil {
		return nil, err
	}
	return s.repomanager.Records(s.db).ListRange(ctx, userID, from, to)
}

func (s *RecordService) reviews() *review.Service {
	repo := s.repomanager.Records(s.db)
	return review.NewService(repo, repo, s.gen, s.logger, s.metrics)
}

// MonthlyReview returns the review for month ("YYYY-MM"). With cachedOnly
// it never generates and may return (nil, nil).
func (s *RecordService) MonthlyReview(ctx context.Context, userID, month string, cachedOnly bool) (*journal.MonthlySummary, error) {
	year, m, err := journal.ParseMonth(month)
	if err != nil {
		return nil, err
	}
	if cachedOnly {
		return s.reviews().Cached(ctx, userID, year, m)
	}
	return s.reviews().GetOrGenerate(ctx, userID, year, m)
}

func (s *RecordService) Keywords(ctx context.Context, userID, month string) ([]journal.Keyword, error) {
	year, m, err := journal.ParseMonth(month)
	if err != nil {
		return nil, err
	}
	return s.reviews().Keywords(ctx, userID, year, m)
}

// Export returns the user's journal as an encoded backup document.
func (s *RecordService) Export(ctx context.Context, userID string) ([]byte, error) {
	repo := s.repomanager.Records(s.db)
	doc, err := backup.NewService(repo, repo, repo, s.logger).Export(ctx, userID)
	if err != nil {
		return nil, err
	}
	return backup.Encode(doc)
}

// Import restores a backup document in one transaction: either every
// accepted record lands or none does.
func (s *RecordService) Import(ctx context.Context, userID string, data []byte) (*backup.Report, error) {
	var rep *backup.Report
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Records(tx)
		var err error
		rep, err = backup.NewService(repo, repo, repo, s.logger).Import(ctx, userID, data)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rep, nil
}

// Backup exports the journal and stores it with the uploader.
func (s *RecordService) Backup(ctx context.Context, userID string) (string, string, error) {
	if s.backups == nil {
		return "", "", fmt.Errorf("backups not configured: %w", common.ErrUnavailable)
	}
	data, err := s.Export(ctx, userID)
	if err != nil {
		return "", "", err
	}
	return s.backups.Upload(ctx, userID, data)
}

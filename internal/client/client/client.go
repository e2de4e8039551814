package client

import (
	"context"
	"time"

	"github.com/dmitrijs2005/daylog/internal/backup"
	"github.com/dmitrijs2005/daylog/internal/journal"
)

// Client is the remote side of the journal as seen by the CLI: a record
// store plus the operations only the server can run.
type Client interface {
	journal.Store

	Close() error
	Register(ctx context.Context, username, password string) (string, error)
	Login(ctx context.Context, username, password string) (string, error)
	SetToken(token string)
	Token() string
	Ping(ctx context.Context) error

	MonthlyReview(ctx context.Context, year int, month time.Month, cachedOnly bool) (*journal.MonthlySummary, error)
	Keywords(ctx context.Context, year int, month time.Month) ([]journal.Keyword, error)
	Export(ctx context.Context) ([]byte, error)
	Import(ctx context.Context, data []byte) (*backup.Report, error)
	Backup(ctx context.Context) (key, url string, err error)
}

var _ Client = (*GRPCClient)(nil)

package server

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/daylog/internal/logging"
	"github.com/dmitrijs2005/daylog/internal/server/config"
	"github.com/dmitrijs2005/daylog/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/daylog/internal/summarizer"
)

func TestApp_RunStopsOnCancel(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.EndpointAddrGRPC = "127.0.0.1:0"
	cfg.MetricsAddr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	app := newApp(ctx, cfg, logging.NewNop(), db, repomanager.NewPostgresRepositoryManager())
	require.NotNil(t, app.ops)
	require.Equal(t, summarizer.DefaultModel, cfg.Summarizer().Model)

	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApp_ComponentFailureStopsApp(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.EndpointAddrGRPC = "127.0.0.1:99999"
	cfg.MetricsAddr = ""

	app := newApp(context.Background(), cfg, logging.NewNop(), db, repomanager.NewPostgresRepositoryManager())
	require.Nil(t, app.ops)

	done := make(chan struct{})
	go func() {
		app.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop after grpc failure")
	}
}

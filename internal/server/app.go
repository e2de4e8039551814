// Package server wires the daylog server together: Postgres repositories,
// the summary worker pool, the gRPC API and the ops listener.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dmitrijs2005/daylog/internal/logging"
	"github.com/dmitrijs2005/daylog/internal/metrics"
	"github.com/dmitrijs2005/daylog/internal/server/config"
	"github.com/dmitrijs2005/daylog/internal/server/enricher"
	"github.com/dmitrijs2005/daylog/internal/server/ops"
	"github.com/dmitrijs2005/daylog/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/daylog/internal/server/services"
	"github.com/dmitrijs2005/daylog/internal/summarizer"

	gs "github.com/dmitrijs2005/daylog/internal/server/grpc"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	registry *prometheus.Registry
	enricher *enricher.Enricher
	grpc     *gs.GRPCServer
	ops      *ops.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stdout, "json", c.LogLevel)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	return newApp(ctx, c, logger, db, rm), nil
}

// newApp builds every component on an open, migrated database.
func newApp(ctx context.Context, c *config.Config, logger logging.Logger, db *sql.DB, rm repomanager.RepositoryManager) *App {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	pipeline := metrics.NewPipeline(reg, "daylog")

	gen := summarizer.FromConfig(ctx, c.Summarizer(), logger)
	enr := enricher.New(rm.Records(db), gen, logger, pipeline, enricher.Config{Workers: c.EnrichWorkers})

	us := services.NewUserService(db, rm, c, logger)
	rs := services.NewRecordService(db, rm, enr, gen, services.NewBackupService(c, logger), logger, pipeline)

	app := &App{
		config:   c,
		logger:   logger,
		db:       db,
		registry: reg,
		enricher: enr,
		grpc:     gs.NewGRPCServer(c.EndpointAddrGRPC, logger, us, rs),
	}
	if c.MetricsAddr != "" {
		app.ops = ops.NewServer(c.MetricsAddr, reg, db.PingContext, logger)
	}
	return app
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run blocks until a signal arrives or a component fails, then stops the
// rest and closes the database.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	run := func(name string, fn func(context.Context) error) func() {
		return func() {
			if err := fn(ctx); err != nil {
				app.logger.Error(ctx, "component failed", "component", name, "error", err)
				cancelFunc()
			}
		}
	}

	var wg sync.WaitGroup
	components := []func(){
		run("grpc", app.grpc.Run),
		run("enricher", app.enricher.Run),
	}
	if app.ops != nil {
		components = append(components, run("ops", app.ops.Run))
	}
	for _, c := range components {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c()
		}()
	}

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}

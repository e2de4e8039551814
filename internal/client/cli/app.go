package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/daylog/internal/backup"
	"github.com/dmitrijs2005/daylog/internal/client/client"
	"github.com/dmitrijs2005/daylog/internal/client/config"
	"github.com/dmitrijs2005/daylog/internal/client/engine"
	"github.com/dmitrijs2005/daylog/internal/client/services"
	"github.com/dmitrijs2005/daylog/internal/common"
	"github.com/dmitrijs2005/daylog/internal/journal"
	"github.com/dmitrijs2005/daylog/internal/logging"
	"github.com/dmitrijs2005/daylog/internal/review"
	"github.com/dmitrijs2005/daylog/internal/summarizer"
)

type Mode string

const (
	ModeLocal   Mode = "local"
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	config *config.Config
	logger logging.Logger
	repos  *client.Repositories

	// remote is nil in local mode.
	remote   client.Client
	auth     *services.AuthService
	store    journal.Store
	gen      journal.Generator
	reviewer services.Reviewer
	archiver services.Archiver

	reader *bufio.Reader
	out    io.Writer
	outMu  sync.Mutex
	now    func() time.Time

	mu          sync.Mutex
	mode        Mode
	owner       string
	engine      *engine.Engine
	unsubscribe func()
	// drafts holds entry text whose save failed, by owner and date.
	drafts map[string]string
}

// NewApp opens the local database and, in remote mode, the server
// connection, then wires the services for the configured mode.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stderr, "text", c.LogLevel)

	repos, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	var (
		remote client.Client
		gen    journal.Generator
	)
	if c.Remote() {
		gc, err := client.NewGRPCClient(c.ServerEndpointAddr)
		if err != nil {
			_ = repos.Close()
			return nil, err
		}
		remote = gc
	} else {
		gen = summarizer.FromConfig(ctx, c.Summarizer(), logger)
	}

	return newApp(c, logger, repos, remote, gen, os.Stdin, os.Stdout), nil
}

func newApp(c *config.Config, logger logging.Logger, repos *client.Repositories, remote client.Client, gen journal.Generator, in io.Reader, out io.Writer) *App {
	a := &App{
		config: c,
		logger: logger.With("module", "cli"),
		repos:  repos,
		reader: bufio.NewReader(in),
		out:    out,
		now:    time.Now,
		drafts: make(map[string]string),
	}

	if remote != nil {
		a.remote = remote
		a.store = remote
		a.auth = services.NewAuthService(remote, repos.Metadata, repos.Snapshots)
		rj := services.NewRemoteJournal(remote)
		a.reviewer, a.archiver = rj, rj
		a.mode = ModeOffline
		return a
	}

	a.store = repos.Records
	a.gen = gen
	reviews := review.NewService(repos.Records, repos.Records, gen, logger, nil)
	backups := backup.NewService(repos.Records, repos.Records, repos.Records, logger)
	lj := services.NewLocalJournal(reviews, backups)
	a.reviewer, a.archiver = lj, lj
	a.mode = ModeLocal
	return a
}

// Start opens the session: the local owner in local mode, the saved login
// (if any) in remote mode.
func (a *App) Start(ctx context.Context) error {
	if a.remote == nil {
		a.startSession(common.LocalOwner)
		return nil
	}

	a.checkOnline(ctx)
	owner, err := a.auth.Restore(ctx)
	if err != nil {
		return err
	}
	if owner != "" {
		a.startSession(owner)
	}
	return nil
}

// Run starts the session and the REPL and blocks until the user exits or
// ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	if err := a.Start(ctx); err != nil {
		return err
	}

	a.println("Welcome to daylog (type 'help' for commands)")

	if a.remote != nil {
		go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)
	}

	runREPL(ctx, a, a.getStatus, a.reader, a.println)
	return nil
}

// Close ends the session and releases the connection and the database.
func (a *App) Close() {
	a.endSession()
	if a.remote != nil {
		_ = a.remote.Close()
	}
	if a.repos != nil {
		_ = a.repos.Close()
	}
}

func (a *App) engineOptions() []engine.Option {
	opts := []engine.Option{
		engine.WithConfig(a.config.Engine()),
		engine.WithSnapshots(a.repos.Snapshots),
	}
	if a.gen != nil {
		opts = append(opts, engine.WithGenerator(a.gen))
	}
	return opts
}

func (a *App) startSession(owner string) {
	a.endSession()

	e := engine.New(a.store, a.logger, a.engineOptions()...)
	unsubscribe := e.Subscribe(a.onChange)

	a.mu.Lock()
	a.owner = owner
	a.engine = e
	a.unsubscribe = unsubscribe
	a.mu.Unlock()
}

func (a *App) endSession() {
	a.mu.Lock()
	e, unsubscribe := a.engine, a.unsubscribe
	a.engine, a.unsubscribe, a.owner = nil, nil, ""
	a.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if e != nil {
		e.Close()
	}
}

// session returns the current owner and engine; ok is false when nobody is
// logged in.
func (a *App) session() (string, *engine.Engine, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.owner, a.engine, a.engine != nil
}

func (a *App) isLoggedIn() bool {
	_, _, ok := a.session()
	return ok
}

func (a *App) getStatus() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := ""
	if a.owner != "" && a.owner != common.LocalOwner {
		s = a.owner + " "
	}
	s += string(a.mode)
	return fmt.Sprintf("(%s)", s)
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed {
		a.println(fmt.Sprintf("Switched to %s mode", mode))
	}
}

func (a *App) checkOnline(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := a.auth.Ping(ctx); err != nil {
		a.setMode(ModeOffline)
		return
	}
	a.setMode(ModeOnline)
}

// StartOnlineStatusWatcher pings the server every interval and flips the
// mode shown in the prompt. It returns when ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// println serialises output from the REPL and from engine notifications.
func (a *App) println(args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintln(a.out, args...)
}

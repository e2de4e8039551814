package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/daylog/internal/client/services"
	"github.com/dmitrijs2005/daylog/internal/common"
)

// execIface defines the command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Write(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	Month(ctx context.Context, args []string) error
	Summary(ctx context.Context, args []string) error
	Review(ctx context.Context, args []string) error
	Keywords(ctx context.Context, args []string) error
	Year(ctx context.Context, args []string) error
	Export(ctx context.Context, args []string) error
	Import(ctx context.Context, args []string) error
	Backup(ctx context.Context, args []string) error
}

const (
	helpLoggedOut = "Available commands: register, login, exit"
	helpLoggedIn  = "Available commands: write [date], show [date], month [YYYY-MM], summary [date], " +
		"review [YYYY-MM], keywords [YYYY-MM], year [YYYY], export <file>, import <file|url>, backup, logout, exit"
)

// runREPL reads commands from reader until EOF, "exit" or "quit".
//
// Commands that need a session are refused until the user logs in. Errors
// from handlers are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, println func(...any)) {
	for {
		if ctx.Err() != nil {
			return
		}
		println(fmt.Sprintf("daylog %s > ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		quit, cmdErr := dispatch(ctx, a, parts[0], parts[1:], println)
		if cmdErr != nil {
			println("Error:", Describe(cmdErr))
		}
		if quit {
			println("Bye!")
			return
		}
	}
}

// dispatch runs one command. It is shared by the REPL and the one-shot
// subcommands of the binary.
func dispatch(ctx context.Context, a execIface, cmd string, args []string, println func(...any)) (quit bool, err error) {
	switch cmd {
	case "help":
		if a.isLoggedIn() {
			println(helpLoggedIn)
		} else {
			println(helpLoggedOut)
		}
		return false, nil
	case "exit", "quit":
		return true, nil
	case "register":
		return false, a.Register(ctx)
	case "login":
		return false, a.Login(ctx)
	}

	handler, ok := map[string]func(context.Context, []string) error{
		"write":    a.Write,
		"show":     a.Show,
		"month":    a.Month,
		"summary":  a.Summary,
		"review":   a.Review,
		"keywords": a.Keywords,
		"year":     a.Year,
		"export":   a.Export,
		"import":   a.Import,
		"backup":   a.Backup,
	}[cmd]
	if !ok && cmd != "logout" {
		println("Unknown command:", cmd)
		return false, nil
	}
	if !a.isLoggedIn() {
		return false, common.ErrUnauthenticated
	}
	if cmd == "logout" {
		return false, a.Logout(ctx)
	}
	return false, handler(ctx, args)
}

// Exec runs a single command against the current session, as the one-shot
// subcommands of the binary do.
func (a *App) Exec(ctx context.Context, cmd string, args []string) error {
	_, err := dispatch(ctx, a, cmd, args, a.println)
	return err
}

// Describe turns sentinel errors into a line for the user.
func Describe(err error) string {
	switch {
	case errors.Is(err, common.ErrTokenExpired):
		return "session expired, please log in again"
	case errors.Is(err, common.ErrInvalidCredentials):
		return "invalid username or password"
	case errors.Is(err, common.ErrUnauthenticated):
		return "please log in first"
	case errors.Is(err, common.ErrUnavailable):
		return "server unavailable, try again later"
	case errors.Is(err, common.ErrNoData):
		return "no journal entries in that period"
	case errors.Is(err, common.ErrAlreadyExists):
		return "user already exists"
	case errors.Is(err, services.ErrRemoteOnly):
		return "backups are available in remote mode only"
	default:
		return err.Error()
	}
}

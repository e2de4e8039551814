package cli

import (
	"context"
	"errors"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

var errLocalMode = errors.New("accounts are only used in remote mode")

// Register prompts for a username and password and creates the account on
// the server. It does not log in.
func (a *App) Register(ctx context.Context) error {
	if a.auth == nil {
		return errLocalMode
	}
	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}

	if err := a.auth.Register(ctx, userName, password); err != nil {
		return err
	}
	a.println("Registered. Use 'login' to start writing.")
	return nil
}

// Login prompts for credentials, persists the session and starts a new
// engine for the user.
func (a *App) Login(ctx context.Context) error {
	if a.auth == nil {
		return errLocalMode
	}
	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}

	owner, err := a.auth.Login(ctx, userName, password)
	if err != nil {
		return err
	}
	a.startSession(owner)
	a.setMode(ModeOnline)
	a.println("Logged in as", owner)
	return nil
}

// Logout tears the engine down and forgets the saved session.
func (a *App) Logout(ctx context.Context) error {
	if a.auth == nil {
		return errLocalMode
	}
	owner, _, _ := a.session()
	a.endSession()
	if err := a.auth.Logout(ctx, owner); err != nil {
		return err
	}
	a.println("Logged out.")
	return nil
}

// Package services contains application services for the daylog client.
// This file defines the authentication service: register, login, logout and
// restoring a saved session against the daylog server.
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/daylog/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/daylog/internal/common"
)

// RemoteAuth is the part of the server client the auth service needs.
type RemoteAuth interface {
	Register(ctx context.Context, username, password string) (string, error)
	Login(ctx context.Context, username, password string) (string, error)
	SetToken(token string)
	Ping(ctx context.Context) error
}

// SnapshotForgetter drops persisted month listings of an owner.
type SnapshotForgetter interface {
	Forget(ctx context.Context, owner string) error
}

// AuthService keeps the session token in the metadata table so a restarted
// CLI stays logged in until the token expires.
type AuthService struct {
	client    RemoteAuth
	meta      metadata.Repository
	snapshots SnapshotForgetter
}

func NewAuthService(client RemoteAuth, meta metadata.Repository, snapshots SnapshotForgetter) *AuthService {
	return &AuthService{client: client, meta: meta, snapshots: snapshots}
}

func credentials(username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", fmt.Errorf("%w: username and password are required", common.ErrInvalidCredentials)
	}
	return username, nil
}

func (a *AuthService) Register(ctx context.Context, username, password string) error {
	username, err := credentials(username, password)
	if err != nil {
		return err
	}
	_, err = a.client.Register(ctx, username, password)
	return err
}

// Login authenticates and persists the session. The returned owner is the
// key the engine caches this user's records under.
func (a *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	username, err := credentials(username, password)
	if err != nil {
		return "", err
	}
	token, err := a.client.Login(ctx, username, password)
	if err != nil {
		return "", err
	}
	if err := a.meta.Set(ctx, metadata.KeyAccessToken, []byte(token)); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	if err := a.meta.Set(ctx, metadata.KeyUsername, []byte(username)); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	return username, nil
}

// Restore loads a saved session into the client. It returns "" when there
// is none.
func (a *AuthService) Restore(ctx context.Context) (string, error) {
	token, err := a.meta.Get(ctx, metadata.KeyAccessToken)
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}
	username, err := a.meta.Get(ctx, metadata.KeyUsername)
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}
	if len(token) == 0 || len(username) == 0 {
		return "", nil
	}
	a.client.SetToken(string(token))
	return string(username), nil
}

// Logout forgets the token and the owner's persisted month listings.
func (a *AuthService) Logout(ctx context.Context, owner string) error {
	a.client.SetToken("")
	if err := a.meta.Delete(ctx, metadata.KeyAccessToken, metadata.KeyUsername); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	if owner != "" && a.snapshots != nil {
		if err := a.snapshots.Forget(ctx, owner); err != nil {
			return fmt.Errorf("clear snapshots: %w", err)
		}
	}
	return nil
}

func (a *AuthService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

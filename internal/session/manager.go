// Package session orchestrates the credential lifecycle: login issues an
// access/refresh pair, refresh rotates it, logout revokes it. The API surface
// collapses every token fault into one generic error; the precise cause only
// reaches the logs.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/1-IT-Gymnazium/1081-RecycleApi/internal/directory"
	"github.com/1-IT-Gymnazium/1081-RecycleApi/internal/token"
	"github.com/1-IT-Gymnazium/1081-RecycleApi/internal/tokenstore"
)

var (
	// ErrInvalidCredentials covers unknown email and wrong password alike,
	// so responses carry no enumeration signal.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountNotUsable means the credentials were right but the account
	// cannot sign in (email not confirmed).
	ErrAccountNotUsable = errors.New("account not usable")
	// ErrInvalidRefreshToken covers missing, expired, and revoked tokens.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

// Pair bundles a short-lived access token and a long-lived refresh token.
type Pair struct {
	AccessToken  string
	RefreshToken string
}

// Manager combines the token issuer and the refresh-token store. It holds no
// state of its own; the store's table is the only shared resource.
type Manager struct {
	directory directory.Directory
	issuer    *token.Issuer
	store     tokenstore.Store
	log       *slog.Logger
}

func NewManager(dir directory.Directory, issuer *token.Issuer, store tokenstore.Store, log *slog.Logger) *Manager {
	return &Manager{directory: dir, issuer: issuer, store: store, log: log}
}

// Login verifies credentials and issues a fresh token pair.
func (m *Manager) Login(ctx context.Context, email, password, requestInfo string) (*Pair, error) {
	user, err := m.directory.VerifyPassword(ctx, email, password)
	if err != nil {
		switch {
		case errors.Is(err, directory.ErrNotFound), errors.Is(err, directory.ErrBadPassword):
			m.log.Warn("login rejected", "email", email, "cause", err.Error())
			return nil, ErrInvalidCredentials
		default:
			return nil, fmt.Errorf("verifying credentials: %w", err)
		}
	}
	if !user.EmailConfirmed {
		m.log.Warn("login rejected", "userId", user.ID, "cause", "email not confirmed")
		return nil, ErrAccountNotUsable
	}

	access, err := m.issuer.Issue(user.ID, user.Email, user.DisplayName())
	if err != nil {
		return nil, fmt.Errorf("issuing access token: %w", err)
	}
	refresh, err := m.store.Issue(ctx, user.ID, requestInfo)
	if err != nil {
		return nil, fmt.Errorf("issuing refresh token: %w", err)
	}

	m.log.Info("session opened", "userId", user.ID)
	return &Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// Rotate exchanges a valid refresh token for a new pair, revoking the
// presented one. The revoke and the new issue happen atomically in the store;
// a concurrent rotation of the same token leaves exactly one winner.
func (m *Manager) Rotate(ctx context.Context, presented, requestInfo string) (*Pair, error) {
	record, err := m.store.Validate(ctx, presented)
	if err != nil {
		return nil, m.rejectRefresh(err)
	}

	user, err := m.directory.FindByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			m.log.Warn("refresh rejected", "tokenId", record.ID, "cause", "owner missing")
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("loading token owner: %w", err)
	}

	refresh, err := m.store.Rotate(ctx, record, requestInfo)
	if err != nil {
		return nil, m.rejectRefresh(err)
	}
	access, err := m.issuer.Issue(user.ID, user.Email, user.DisplayName())
	if err != nil {
		return nil, fmt.Errorf("issuing access token: %w", err)
	}

	m.log.Info("session rotated", "userId", user.ID, "oldTokenId", record.ID)
	return &Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// Logout revokes the presented refresh token. Missing or already-revoked
// tokens are not an error; logout is idempotent.
func (m *Manager) Logout(ctx context.Context, presented string) error {
	record, err := m.store.Validate(ctx, presented)
	if err != nil {
		if isTokenFault(err) {
			return nil
		}
		return fmt.Errorf("looking up refresh token: %w", err)
	}
	if err := m.store.Revoke(ctx, record); err != nil {
		return fmt.Errorf("revoking refresh token: %w", err)
	}
	m.log.Info("session closed", "userId", record.UserID)
	return nil
}

// LogoutEverywhere revokes every active refresh token for the owner.
func (m *Manager) LogoutEverywhere(ctx context.Context, ownerID string) error {
	if err := m.store.RevokeAllForOwner(ctx, ownerID); err != nil {
		return fmt.Errorf("revoking owner tokens: %w", err)
	}
	m.log.Info("all sessions closed", "userId", ownerID)
	return nil
}

// rejectRefresh maps store faults: token faults collapse into the generic
// error with the real cause logged, infrastructure faults pass through.
func (m *Manager) rejectRefresh(err error) error {
	if isTokenFault(err) {
		m.log.Warn("refresh rejected", "cause", err.Error())
		return ErrInvalidRefreshToken
	}
	return fmt.Errorf("refresh token store: %w", err)
}

func isTokenFault(err error) bool {
	return errors.Is(err, tokenstore.ErrNotFound) ||
		errors.Is(err, tokenstore.ErrExpired) ||
		errors.Is(err, tokenstore.ErrRevoked)
}

// Package directory is the user-directory collaborator: account lookup,
// password verification, and the account mutations the auth flows need.
// Password hashing lives here, not in the session layer.
package directory

import (
	"context"
	"errors"

	"github.com/1-IT-Gymnazium/1081-RecycleApi/internal/models"
)

var (
	ErrNotFound    = errors.New("user not found")
	ErrBadPassword = errors.New("password mismatch")
	ErrDuplicate   = errors.New("email already registered")
	// ErrUnavailable wraps infrastructure faults from the backing store.
	ErrUnavailable = errors.New("user directory unavailable")
)

// Directory exposes the user operations the auth subsystem consumes.
type Directory interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	// VerifyPassword checks the secret for the account with the given email.
	// It fails with ErrNotFound or ErrBadPassword; both cost a password
	// comparison so the two are indistinguishable from the outside.
	VerifyPassword(ctx context.Context, email, password string) (*models.User, error)
	// Register creates an unconfirmed account.
	Register(ctx context.Context, user *models.User, password string) error
	ConfirmEmail(ctx context.Context, userID string) error
	SetPassword(ctx context.Context, userID, newPassword string) error
}

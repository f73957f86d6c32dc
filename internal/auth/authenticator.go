// Package auth implements sync-server account authentication: bcrypt
// password verification and the JWT session tokens devices present on
// snapshot requests.
package auth

import (
	"context"

	"github.com/jortega/cuaderno/internal/models"
)

// Authenticator defines the interface for authentication
// implementations, so the HTTP layer does not care whether accounts
// are password-backed or delegated to an external provider.
type Authenticator interface {
	// Register creates a new account. The credential format depends on
	// the implementation (a password here).
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate verifies credentials and returns the user.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential checks the credential against the
	// implementation's requirements (length, format, ...).
	ValidateCredential(credential string) error
}

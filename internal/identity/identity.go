// Package identity supplies the current user handle and notifies the
// sync engine on sign-in/sign-out transitions. It is the client-side
// counterpart of the server's JWT auth: the device holds a token, the
// user ID is derived from its claims.
package identity

import (
	"fmt"
	"sync"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jortega/cuaderno/internal/auth"
)

// Provider yields the current user and auth-state change notifications.
type Provider interface {
	// CurrentUser returns the signed-in user's ID, or "" when signed out.
	CurrentUser() string

	// OnChange registers a callback fired on every sign-in/sign-out
	// transition with the new user ID ("" on sign-out). The returned
	// function unsubscribes; calling it more than once is harmless.
	OnChange(fn func(userID string)) (unsubscribe func())
}

// Ensure Session implements Provider
var _ Provider = (*Session)(nil)

// Session is a token-backed Provider. It is explicitly constructed and
// owned by whatever owns the client session; there is no package-level
// instance.
type Session struct {
	mu        sync.Mutex
	token     string
	userID    string
	nextSub   int
	listeners map[int]func(string)
}

// NewSession creates a signed-out session.
func NewSession() *Session {
	return &Session{listeners: make(map[int]func(string))}
}

// SignIn installs a sync-server token and notifies listeners. The user
// ID comes from the token claims; the signature is the server's to
// verify, not the device's.
func (s *Session) SignIn(token string) error {
	userID, err := userFromToken(token)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.token = token
	changed := s.userID != userID
	s.userID = userID
	fns := s.snapshotListeners()
	s.mu.Unlock()

	if changed {
		for _, fn := range fns {
			fn(userID)
		}
	}
	return nil
}

// SignOut clears the token and notifies listeners with "".
func (s *Session) SignOut() {
	s.mu.Lock()
	changed := s.userID != ""
	s.token = ""
	s.userID = ""
	fns := s.snapshotListeners()
	s.mu.Unlock()

	if changed {
		for _, fn := range fns {
			fn("")
		}
	}
}

// CurrentUser returns the signed-in user ID, or "".
func (s *Session) CurrentUser() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// Token returns the current bearer token, or "".
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// OnChange registers a listener. Listeners are invoked outside the
// session lock, in no particular order.
func (s *Session) OnChange(fn func(string)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// snapshotListeners copies the listener set; callers must hold the lock.
func (s *Session) snapshotListeners() []func(string) {
	fns := make([]func(string), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	return fns
}

// userFromToken extracts the user ID claim without verifying the
// signature; only the server holds the signing secret.
func userFromToken(token string) (string, error) {
	claims := &auth.Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("malformed token: %w", err)
	}
	if claims.UserID == "" {
		return "", fmt.Errorf("token carries no user id")
	}
	return claims.UserID, nil
}

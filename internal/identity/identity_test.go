package identity

import (
	"testing"
	"time"

	"github.com/jortega/cuaderno/internal/auth"
	"github.com/jortega/cuaderno/internal/models"
)

func testToken(t *testing.T, userID string) string {
	t.Helper()
	mgr := auth.NewJWTManager("test-secret", time.Hour)
	token, err := mgr.Generate(&models.User{ID: userID, Email: userID + "@example.com"})
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	return token
}

func TestSessionSignInSignOut(t *testing.T) {
	s := NewSession()

	if s.CurrentUser() != "" {
		t.Fatal("fresh session should be signed out")
	}

	var events []string
	unsub := s.OnChange(func(userID string) {
		events = append(events, userID)
	})
	defer unsub()

	if err := s.SignIn(testToken(t, "user-1")); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if s.CurrentUser() != "user-1" {
		t.Errorf("CurrentUser = %q, want user-1", s.CurrentUser())
	}
	if s.Token() == "" {
		t.Error("Token should be set after sign-in")
	}

	s.SignOut()
	if s.CurrentUser() != "" {
		t.Error("CurrentUser should be empty after sign-out")
	}

	if len(events) != 2 || events[0] != "user-1" || events[1] != "" {
		t.Errorf("unexpected event sequence: %v", events)
	}

	// Signing out twice must not fire again.
	s.SignOut()
	if len(events) != 2 {
		t.Errorf("redundant sign-out fired a change event: %v", events)
	}
}

func TestSessionUnsubscribe(t *testing.T) {
	s := NewSession()

	calls := 0
	unsub := s.OnChange(func(string) { calls++ })
	unsub()
	unsub() // second call is harmless

	if err := s.SignIn(testToken(t, "user-2")); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if calls != 0 {
		t.Errorf("unsubscribed listener was called %d times", calls)
	}
}

func TestSessionRejectsMalformedToken(t *testing.T) {
	s := NewSession()
	if err := s.SignIn("not-a-jwt"); err == nil {
		t.Fatal("expected error for malformed token")
	}
	if s.CurrentUser() != "" {
		t.Error("failed sign-in must leave the session signed out")
	}
}

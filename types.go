package herodb

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// IdentityProvider is the hosted identity service behind the auth flows.
// Implementations classify known failure sentinels into the package error
// variables (ErrInvalidCredentials, ErrIdentityAlreadyExists,
// ErrInvalidConfirmationCode) and pass everything else through unmodified.
type IdentityProvider interface {
	SignIn(ctx context.Context, username, password string) (*Session, error)
	SignUp(ctx context.Context, username, password string, attributes map[string]string) error
	ConfirmSignUp(ctx context.Context, username, code string) error
	ResendSignUp(ctx context.Context, username string) error
	SignOut(ctx context.Context) error
}

// SessionStore is the durable slot holding the last-known session. Load
// returns (nil, nil) when no session is stored.
type SessionStore interface {
	Load(ctx context.Context) (*Session, error)
	Save(ctx context.Context, session *Session) error
	Delete(ctx context.Context) error
}

// Navigator abstracts the host application's route changes so logout can
// redirect to the anonymous entry point without importing a UI layer.
type Navigator interface {
	Push(route string)
}

// NavigatorFunc adapts a function into a Navigator.
type NavigatorFunc func(route string)

// Push satisfies the Navigator interface.
func (f NavigatorFunc) Push(route string) {
	if f != nil {
		f(route)
	}
}

type noopNavigator struct{}

func (noopNavigator) Push(string) {}

func normalizeNavigator(n Navigator) Navigator {
	if n == nil {
		return noopNavigator{}
	}
	return n
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] HERODB "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] HERODB "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] HERODB "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] HERODB "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}

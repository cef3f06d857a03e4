package herodb

// AuthStatus enumerates the auth state machine's states.
type AuthStatus string

const (
	StatusAnonymous            AuthStatus = "anonymous"
	StatusAwaitingConfirmation AuthStatus = "awaiting_confirmation"
	StatusAuthenticated        AuthStatus = "authenticated"
	StatusError                AuthStatus = "error"
)

// AuthState is the machine's current position. Username is set while a
// registration awaits confirmation; Session while authenticated; Err when the
// last operation left the machine in the error state.
type AuthState struct {
	Status   AuthStatus
	Username string
	Session  *Session
	Err      error
}

// transitions is the allowed-target graph. Every auth operation is callable
// from any state (login replaces an existing session, register can start over
// a stale confirmation), so the graph is wide; it exists to keep the set of
// reachable states explicit and to reject empty or unknown targets.
var transitions = map[AuthStatus]map[AuthStatus]struct{}{
	StatusAnonymous: {
		StatusAnonymous:            {},
		StatusAwaitingConfirmation: {},
		StatusAuthenticated:        {},
		StatusError:                {},
	},
	StatusAwaitingConfirmation: {
		StatusAnonymous:            {},
		StatusAwaitingConfirmation: {},
		StatusAuthenticated:        {},
		StatusError:                {},
	},
	StatusAuthenticated: {
		StatusAnonymous:            {},
		StatusAwaitingConfirmation: {},
		StatusAuthenticated:        {},
		StatusError:                {},
	},
	StatusError: {
		StatusAnonymous:            {},
		StatusAwaitingConfirmation: {},
		StatusAuthenticated:        {},
		StatusError:                {},
	},
}

func canTransition(from, to AuthStatus) bool {
	allowed, ok := transitions[from]
	if !ok {
		return false
	}
	_, exists := allowed[to]
	return exists
}

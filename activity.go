package herodb

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventLoginSuccess     ActivityEventType = "auth.login.success"
	ActivityEventLoginFailure     ActivityEventType = "auth.login.failure"
	ActivityEventRegisterSuccess  ActivityEventType = "auth.register.success"
	ActivityEventRegisterFailure  ActivityEventType = "auth.register.failure"
	ActivityEventConfirmSuccess   ActivityEventType = "auth.confirm.success"
	ActivityEventConfirmFailure   ActivityEventType = "auth.confirm.failure"
	ActivityEventCodeResent       ActivityEventType = "auth.confirm.resent"
	ActivityEventLogout           ActivityEventType = "auth.logout"
	ActivityEventSessionEvicted   ActivityEventType = "auth.session.evicted"
	ActivityEventSessionRestored  ActivityEventType = "auth.session.restored"
	ActivityEventSessionDiscarded ActivityEventType = "auth.session.discarded"
)

// ActivityEvent captures audit-friendly information about an auth action.
type ActivityEvent struct {
	EventType  ActivityEventType
	Username   string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}

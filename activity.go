package auth

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventRegisterSuccess ActivityEventType = "auth.register.success"
	ActivityEventLoginSuccess    ActivityEventType = "auth.login.success"
	ActivityEventLoginFailure    ActivityEventType = "auth.login.failure"
	ActivityEventAccountLocked   ActivityEventType = "auth.account.locked"
	ActivityEventAccountInactive ActivityEventType = "auth.account.inactive"
	ActivityEventLockoutTripped  ActivityEventType = "auth.lockout.tripped"
	ActivityEventTokenRejected   ActivityEventType = "auth.token.rejected"
	ActivityEventLogout          ActivityEventType = "auth.logout"
)

// ActivitySeverity tags security events for the audit collaborator.
type ActivitySeverity string

const (
	SeverityLow    ActivitySeverity = "low"
	SeverityMedium ActivitySeverity = "medium"
	SeverityHigh   ActivitySeverity = "high"
)

// ActorRef identifies who/what triggered an event.
type ActorRef struct {
	ID   string
	Type string
}

// ActivityEvent captures audit-friendly information about an action.
type ActivityEvent struct {
	EventType  ActivityEventType
	Severity   ActivitySeverity
	Actor      ActorRef
	UserID     string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
// Sinks run best-effort: a failing sink is logged and never fails the
// primary operation.
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

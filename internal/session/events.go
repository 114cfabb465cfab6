package session

import (
	"call-server/internal/observability"
	"context"
	"time"
)

// EventKind is the closed set of voice-session events the runtime delivers.
type EventKind string

const (
	EventSessionStarted    EventKind = "session_started"
	EventTurnCommitted     EventKind = "turn_committed"
	EventAgentStateChanged EventKind = "agent_state_changed"
	EventSessionEnded      EventKind = "session_ended"
)

// Event is one callback-style event from the live voice session runtime.
type Event struct {
	Kind   EventKind
	CallID string
	Room   string

	// Metadata is the opaque dispatch metadata echoed back by the runtime on
	// session_started events.
	Metadata string

	// Role and Text are set on turn_committed events.
	Role string
	Text string

	// State is set on agent_state_changed events.
	State string

	// Reason is set on session_ended and error-ish events.
	Reason string

	Timestamp time.Time
}

// Handlers holds the typed callbacks the coordinator registers for session
// events. Nil handlers are skipped.
type Handlers struct {
	OnSessionStarted    func(ctx context.Context, ev Event)
	OnTurnCommitted     func(ctx context.Context, ev Event)
	OnAgentStateChanged func(ctx context.Context, ev Event)
	OnSessionEnded      func(ctx context.Context, ev Event)
}

// Dispatcher routes runtime events to the registered typed handlers. It
// replaces decorator-style global subscription with explicit registration.
type Dispatcher struct {
	handlers Handlers
	logger   *observability.Logger
}

func NewDispatcher(handlers Handlers, logger *observability.Logger) *Dispatcher {
	return &Dispatcher{handlers: handlers, logger: logger}
}

// Dispatch invokes the handler registered for the event's kind. Unknown kinds
// are logged and dropped.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) {
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "call_id", Value: ev.CallID},
		observability.Field{Key: "event_kind", Value: string(ev.Kind)},
	)

	switch ev.Kind {
	case EventSessionStarted:
		if d.handlers.OnSessionStarted != nil {
			d.handlers.OnSessionStarted(ctx, ev)
		}
	case EventTurnCommitted:
		if d.handlers.OnTurnCommitted != nil {
			d.handlers.OnTurnCommitted(ctx, ev)
		}
	case EventAgentStateChanged:
		if d.handlers.OnAgentStateChanged != nil {
			d.handlers.OnAgentStateChanged(ctx, ev)
		}
	case EventSessionEnded:
		if d.handlers.OnSessionEnded != nil {
			d.handlers.OnSessionEnded(ctx, ev)
		}
	default:
		d.logger.Warn(ctx, "dropping event of unknown kind")
	}
}

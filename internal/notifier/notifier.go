package notifier

import (
	"call-server/internal/observability"
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Listener receives serialized events for a single call id. Implementations
// must be safe for use from a single goroutine at a time; the notifier
// serializes sends per call id.
type Listener interface {
	Send(data []byte) error
	Close() error
}

// entry pairs a listener with a send mutex so delivery order per call id
// matches publish order without holding the registry lock during I/O.
type entry struct {
	mu       sync.Mutex
	listener Listener
}

// Notifier maintains at most one live listener per call id and delivers
// transcription, call-status and agent-state events to it. Delivery is
// best-effort: a failed send detaches the listener and drops the event.
type Notifier struct {
	mu      sync.Mutex
	entries map[string]*entry
	logger  *observability.Logger
}

func New(logger *observability.Logger) *Notifier {
	return &Notifier{
		entries: make(map[string]*entry),
		logger:  logger,
	}
}

// Attach registers a listener for a call id, evicting and closing any prior
// listener for that id, and immediately delivers a connection_established
// event.
func (n *Notifier) Attach(ctx context.Context, callID string, l Listener) {
	n.mu.Lock()
	prev := n.entries[callID]
	n.entries[callID] = &entry{listener: l}
	n.mu.Unlock()

	if prev != nil {
		prev.listener.Close()
	}

	ctx = observability.WithFields(ctx, observability.Field{Key: "call_id", Value: callID})
	n.logger.Info(ctx, "listener attached")

	n.publish(ctx, callID, ConnectionEstablishedEvent{
		Type:    "connection_established",
		CallID:  callID,
		Message: "Connected to real-time transcription",
	})
}

// Detach removes the listener for a call id, but only if it is still the one
// registered: an evicted listener's cleanup must not tear down its
// replacement. Detaching an id with no listener, or with a different listener
// attached, is a no-op.
func (n *Notifier) Detach(ctx context.Context, callID string, l Listener) {
	n.mu.Lock()
	e, ok := n.entries[callID]
	if ok && e.listener == l {
		delete(n.entries, callID)
	} else {
		ok = false
	}
	n.mu.Unlock()

	if ok {
		e.listener.Close()
		ctx = observability.WithFields(ctx, observability.Field{Key: "call_id", Value: callID})
		n.logger.Info(ctx, "listener detached")
	}
}

// Connected returns the call ids that currently have a listener attached.
func (n *Notifier) Connected() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	ids := make([]string, 0, len(n.entries))
	for id := range n.entries {
		ids = append(ids, id)
	}
	return ids
}

// SendTranscription pushes one committed utterance to the call's listener.
func (n *Notifier) SendTranscription(ctx context.Context, callID, text, speaker string) {
	n.publish(ctx, callID, TranscriptionEvent{
		Type:      "transcription",
		CallID:    callID,
		Text:      text,
		Speaker:   speaker,
		Timestamp: float64(time.Now().UnixMilli()) / 1000,
	})
}

// SendCallStatus pushes a call lifecycle status change to the call's listener.
func (n *Notifier) SendCallStatus(ctx context.Context, callID, status string, metadata map[string]any) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	n.publish(ctx, callID, CallStatusEvent{
		Type:     "call_status",
		CallID:   callID,
		Status:   status,
		Metadata: metadata,
	})
}

// SendAgentState pushes an agent state transition to the call's listener.
func (n *Notifier) SendAgentState(ctx context.Context, callID, state string) {
	n.publish(ctx, callID, AgentStateEvent{
		Type:   "agent_state",
		CallID: callID,
		State:  state,
	})
}

// SendTranscriptComplete pushes the full transcript after a call has ended.
func (n *Notifier) SendTranscriptComplete(ctx context.Context, callID string, transcript []TranscriptTurn) {
	if transcript == nil {
		transcript = []TranscriptTurn{}
	}
	n.publish(ctx, callID, TranscriptCompleteEvent{
		Type:       "transcript_complete",
		CallID:     callID,
		Transcript: transcript,
	})
}

// publish delivers one event to the listener for callID, if any. A send
// failure is treated as an implicit detach; it is never surfaced to the
// caller.
func (n *Notifier) publish(ctx context.Context, callID string, event any) {
	n.mu.Lock()
	e := n.entries[callID]
	n.mu.Unlock()
	if e == nil {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		n.logger.Error(ctx, "failed to marshal listener event", err)
		return
	}

	e.mu.Lock()
	sendErr := e.listener.Send(data)
	e.mu.Unlock()

	if sendErr != nil {
		ctx = observability.WithFields(ctx, observability.Field{Key: "call_id", Value: callID})
		n.logger.Error(ctx, "failed to deliver event, detaching listener", sendErr)

		// Only remove the exact entry that failed; a newer listener may have
		// been attached for the same id in the meantime.
		n.mu.Lock()
		if current, ok := n.entries[callID]; ok && current == e {
			delete(n.entries, callID)
		}
		n.mu.Unlock()
		e.listener.Close()
	}
}

package notifier

import (
	"call-server/internal/observability"
	"context"
	"encoding/json"
	"errors"
	"testing"
)

type fakeListener struct {
	sent    [][]byte
	sendErr error
	closed  bool
}

func (f *fakeListener) Send(data []byte) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, data)
	return nil
}

func (f *fakeListener) Close() error {
	f.closed = true
	return nil
}

func eventTypes(t *testing.T, sent [][]byte) []string {
	t.Helper()
	var types []string
	for _, data := range sent {
		var evt struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &evt); err != nil {
			t.Fatalf("failed to unmarshal event: %v", err)
		}
		types = append(types, evt.Type)
	}
	return types
}

func TestAttachDeliversConnectionEstablished(t *testing.T) {
	n := New(observability.NewLogger())
	l := &fakeListener{}

	n.Attach(context.Background(), "call-1", l)

	if len(l.sent) != 1 {
		t.Fatalf("expected 1 event after attach, got %d", len(l.sent))
	}
	var evt ConnectionEstablishedEvent
	if err := json.Unmarshal(l.sent[0], &evt); err != nil {
		t.Fatalf("failed to unmarshal event: %v", err)
	}
	if evt.Type != "connection_established" || evt.CallID != "call-1" {
		t.Errorf("unexpected event: %+v", evt)
	}
}

func TestAttachEvictsPriorListener(t *testing.T) {
	n := New(observability.NewLogger())
	ctx := context.Background()
	first := &fakeListener{}
	second := &fakeListener{}

	n.Attach(ctx, "call-1", first)
	n.Attach(ctx, "call-1", second)
	n.SendAgentState(ctx, "call-1", AgentStateThinking)

	if !first.closed {
		t.Error("expected first listener to be closed on eviction")
	}
	if len(first.sent) != 1 {
		t.Errorf("evicted listener should not receive further events, got %d", len(first.sent))
	}
	if got := eventTypes(t, second.sent); len(got) != 2 || got[1] != "agent_state" {
		t.Errorf("expected [connection_established agent_state], got %v", got)
	}
}

func TestPublishIsolationAcrossCallIDs(t *testing.T) {
	n := New(observability.NewLogger())
	ctx := context.Background()
	listenerX := &fakeListener{}
	listenerY := &fakeListener{}

	n.Attach(ctx, "call-x", listenerX)
	n.Attach(ctx, "call-y", listenerY)

	n.SendTranscription(ctx, "call-x", "hello", SpeakerAgent)
	n.SendTranscription(ctx, "call-x", "world", SpeakerUser)
	n.SendCallStatus(ctx, "call-y", StatusConnecting, nil)

	// connection_established plus two transcriptions for x
	if len(listenerX.sent) != 3 {
		t.Errorf("expected 3 events for call-x, got %d", len(listenerX.sent))
	}
	// connection_established plus one status for y
	if len(listenerY.sent) != 2 {
		t.Errorf("expected 2 events for call-y, got %d", len(listenerY.sent))
	}
	for _, data := range listenerX.sent {
		var evt struct {
			CallID string `json:"call_id"`
		}
		if err := json.Unmarshal(data, &evt); err != nil {
			t.Fatalf("failed to unmarshal: %v", err)
		}
		if evt.CallID != "call-x" {
			t.Errorf("listener for call-x received event for %s", evt.CallID)
		}
	}
}

func TestPublishPreservesOrder(t *testing.T) {
	n := New(observability.NewLogger())
	ctx := context.Background()
	l := &fakeListener{}
	n.Attach(ctx, "call-1", l)

	n.SendCallStatus(ctx, "call-1", StatusConnected, nil)
	n.SendTranscription(ctx, "call-1", "hi", SpeakerAgent)
	n.SendAgentState(ctx, "call-1", AgentStateListening)
	n.SendCallStatus(ctx, "call-1", StatusEnded, nil)

	want := []string{"connection_established", "call_status", "transcription", "agent_state", "call_status"}
	got := eventTypes(t, l.sent)
	if len(got) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestPublishWithoutListenerIsDropped(t *testing.T) {
	n := New(observability.NewLogger())
	// No listener attached; must not panic or error.
	n.SendTranscription(context.Background(), "ghost", "hello", SpeakerAgent)
}

func TestDetachUnknownIDIsNoOp(t *testing.T) {
	n := New(observability.NewLogger())
	n.Detach(context.Background(), "never-attached", &fakeListener{})
}

func TestDetachByEvictedListenerKeepsReplacement(t *testing.T) {
	n := New(observability.NewLogger())
	ctx := context.Background()
	first := &fakeListener{}
	second := &fakeListener{}

	n.Attach(ctx, "call-1", first)
	n.Attach(ctx, "call-1", second)

	// The evicted listener's cleanup fires after the replacement attached;
	// it must not remove or close the replacement.
	n.Detach(ctx, "call-1", first)

	if second.closed {
		t.Error("replacement listener must not be closed by the evicted listener's detach")
	}
	if ids := n.Connected(); len(ids) != 1 || ids[0] != "call-1" {
		t.Errorf("expected [call-1] still connected, got %v", ids)
	}

	n.SendAgentState(ctx, "call-1", AgentStateThinking)
	if got := eventTypes(t, second.sent); len(got) != 2 || got[1] != "agent_state" {
		t.Errorf("expected replacement to keep receiving events, got %v", got)
	}
}

func TestSendFailureDetachesListener(t *testing.T) {
	n := New(observability.NewLogger())
	ctx := context.Background()
	l := &fakeListener{sendErr: errors.New("broken pipe")}

	n.Attach(ctx, "call-1", l)

	if !l.closed {
		t.Error("expected listener to be closed after failed send")
	}
	if ids := n.Connected(); len(ids) != 0 {
		t.Errorf("expected no connected listeners, got %v", ids)
	}

	// Further publishes are silently dropped.
	n.SendAgentState(ctx, "call-1", AgentStateSpeaking)
}

func TestConnected(t *testing.T) {
	n := New(observability.NewLogger())
	ctx := context.Background()
	first := &fakeListener{}
	n.Attach(ctx, "call-1", first)
	n.Attach(ctx, "call-2", &fakeListener{})
	n.Detach(ctx, "call-1", first)

	ids := n.Connected()
	if len(ids) != 1 || ids[0] != "call-2" {
		t.Errorf("expected [call-2], got %v", ids)
	}
}

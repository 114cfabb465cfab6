package processor

import (
	"call-server/internal/notifier"
	"call-server/internal/observability"
	"call-server/internal/session"
	"call-server/internal/store"
	"call-server/internal/summary"
	"call-server/internal/telephony"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	agents  map[uuid.UUID]store.Agent
	calls   map[uuid.UUID]store.Call
	history map[uuid.UUID][]store.CallHistory

	createCallErr error
	historyErr    error

	finalizeCalls int
	lastOutcome   string
	lastSummary   string
	lastDuration  float64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		agents:  make(map[uuid.UUID]store.Agent),
		calls:   make(map[uuid.UUID]store.Call),
		history: make(map[uuid.UUID][]store.CallHistory),
	}
}

func (f *fakeStore) CreateCall(ctx context.Context, params store.CreateCallParams) (*store.Call, error) {
	if f.createCallErr != nil {
		return nil, f.createCallErr
	}
	call := store.Call{
		ID:          params.ID,
		Name:        params.Name,
		PhoneNumber: params.PhoneNumber,
		AgentID:     params.AgentID,
		Prompt:      params.Prompt,
		CreatedAt:   time.Now(),
	}
	f.calls[params.ID] = call
	return &call, nil
}

func (f *fakeStore) GetCallByID(ctx context.Context, id uuid.UUID) (*store.Call, error) {
	call, ok := f.calls[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &call, nil
}

func (f *fakeStore) GetAllCalls(ctx context.Context) ([]store.Call, error) {
	calls := make([]store.Call, 0, len(f.calls))
	for _, c := range f.calls {
		calls = append(calls, c)
	}
	return calls, nil
}

func (f *fakeStore) FinalizeCall(ctx context.Context, id uuid.UUID, durationMinutes float64, outcome, summaryText string) (*store.Call, error) {
	call, ok := f.calls[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	f.finalizeCalls++
	f.lastDuration = durationMinutes
	f.lastOutcome = outcome
	f.lastSummary = summaryText
	call.Outcome.String = outcome
	call.Outcome.Valid = true
	f.calls[id] = call
	return &call, nil
}

func (f *fakeStore) AddCallHistory(ctx context.Context, callID uuid.UUID, role, message string) (*store.CallHistory, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	h := store.CallHistory{
		ID:        uuid.New(),
		CallID:    callID,
		Role:      role,
		Message:   message,
		CreatedAt: time.Now(),
	}
	f.history[callID] = append(f.history[callID], h)
	return &h, nil
}

func (f *fakeStore) GetCallHistoryByCallID(ctx context.Context, callID uuid.UUID) ([]store.CallHistory, error) {
	return f.history[callID], nil
}

func (f *fakeStore) GetAgentByID(ctx context.Context, id uuid.UUID) (*store.Agent, error) {
	agent, ok := f.agents[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &agent, nil
}

type notified struct {
	kind    string
	status  string
	text    string
	speaker string
	state   string
}

type fakeNotifier struct {
	events     []notified
	transcript []notifier.TranscriptTurn
}

func (f *fakeNotifier) SendTranscription(ctx context.Context, callID, text, speaker string) {
	f.events = append(f.events, notified{kind: "transcription", text: text, speaker: speaker})
}

func (f *fakeNotifier) SendCallStatus(ctx context.Context, callID, status string, metadata map[string]any) {
	f.events = append(f.events, notified{kind: "call_status", status: status})
}

func (f *fakeNotifier) SendAgentState(ctx context.Context, callID, state string) {
	f.events = append(f.events, notified{kind: "agent_state", state: state})
}

func (f *fakeNotifier) SendTranscriptComplete(ctx context.Context, callID string, transcript []notifier.TranscriptTurn) {
	f.events = append(f.events, notified{kind: "transcript_complete"})
	f.transcript = transcript
}

func (f *fakeNotifier) statuses() []string {
	var out []string
	for _, e := range f.events {
		if e.kind == "call_status" {
			out = append(out, e.status)
		}
	}
	return out
}

type fakeSummarizer struct {
	text string
	err  error
}

func (f *fakeSummarizer) Summarize(ctx context.Context, turns []summary.Turn) (string, error) {
	return f.text, f.err
}

type fakeOriginator struct {
	req telephony.OriginateRequest
	err error
}

func (f *fakeOriginator) Name() string { return "fake" }

func (f *fakeOriginator) Originate(ctx context.Context, req telephony.OriginateRequest) error {
	f.req = req
	return f.err
}

func newTestProcessor(t *testing.T) (*Processor, *fakeStore, *fakeNotifier, *fakeSummarizer, *fakeOriginator) {
	t.Helper()
	st := newFakeStore()
	n := &fakeNotifier{}
	s := &fakeSummarizer{text: "# Summary\nGood call."}
	o := &fakeOriginator{}
	p := New(st, n, s, o, 5*time.Second, observability.NewLogger())
	return p, st, n, s, o
}

func TestStartCallDispatchesWithMetadata(t *testing.T) {
	p, st, _, _, o := newTestProcessor(t)

	result, err := p.StartCall(context.Background(), StartCallParams{
		Name:        "Alice",
		PhoneNumber: "+15551234567",
		Prompt:      "Book a table for two.",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.CallID)
	assert.Equal(t, "/ws/transcription/"+result.CallID, result.WebsocketURL)
	assert.Equal(t, "fake", result.Provider)

	assert.Equal(t, result.CallID, o.req.CallID)
	assert.Equal(t, "+15551234567", o.req.PhoneNumber)

	var meta dispatchMetadata
	require.NoError(t, json.Unmarshal([]byte(o.req.Metadata), &meta))
	assert.Equal(t, "Alice", meta.Name)
	assert.Equal(t, "Book a table for two.", meta.Prompt)

	// No call row until the session actually starts.
	assert.Empty(t, st.calls)

	state, ok := p.getState(result.CallID)
	require.True(t, ok)
	assert.Equal(t, StateDispatched, state)
}

func TestStartCallSnapshotsAgentPrompt(t *testing.T) {
	p, st, _, _, o := newTestProcessor(t)
	agentID := uuid.New()
	st.agents[agentID] = store.Agent{ID: agentID, Name: "booker", Prompt: "You book restaurants."}

	_, err := p.StartCall(context.Background(), StartCallParams{
		Name:        "Alice",
		PhoneNumber: "+15551234567",
		Prompt:      "ignored when an agent is set",
		AgentID:     &agentID,
	})
	require.NoError(t, err)

	var meta dispatchMetadata
	require.NoError(t, json.Unmarshal([]byte(o.req.Metadata), &meta))
	assert.Equal(t, "You book restaurants.", meta.Prompt)
	assert.Equal(t, agentID.String(), meta.AgentID)
}

func TestStartCallUnknownAgent(t *testing.T) {
	p, _, _, _, _ := newTestProcessor(t)
	agentID := uuid.New()

	_, err := p.StartCall(context.Background(), StartCallParams{
		Name:        "Alice",
		PhoneNumber: "+15551234567",
		AgentID:     &agentID,
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStartCallDispatchFailureCreatesNoRow(t *testing.T) {
	p, st, _, _, o := newTestProcessor(t)
	o.err = errors.New("trunk unavailable")

	_, err := p.StartCall(context.Background(), StartCallParams{
		Name:        "Alice",
		PhoneNumber: "+15551234567",
	})
	assert.ErrorIs(t, err, ErrDispatchFailed)
	assert.Empty(t, st.calls)
}

func TestSessionStartedCreatesCallRow(t *testing.T) {
	p, st, n, _, _ := newTestProcessor(t)
	callID := uuid.New()
	agentID := uuid.New()

	meta, _ := json.Marshal(dispatchMetadata{
		Name:        "Alice",
		PhoneNumber: "+15551234567",
		AgentID:     agentID.String(),
		Prompt:      "Book a table.",
	})
	p.HandleSessionStarted(context.Background(), sessionEvent(callID, string(meta)))

	call, ok := st.calls[callID]
	require.True(t, ok)
	assert.Equal(t, "Alice", call.Name)
	assert.Equal(t, "+15551234567", call.PhoneNumber)
	assert.Equal(t, "Book a table.", call.Prompt)
	require.True(t, call.AgentID.Valid)
	assert.Equal(t, agentID, call.AgentID.UUID)

	assert.Contains(t, n.statuses(), notifier.StatusConnected)

	state, _ := p.getState(callID.String())
	assert.Equal(t, StateActive, state)
}

func TestSessionStartedBadMetadata(t *testing.T) {
	p, st, n, _, _ := newTestProcessor(t)
	callID := uuid.New()

	p.HandleSessionStarted(context.Background(), sessionEvent(callID, "{not json"))

	assert.Empty(t, st.calls)
	assert.Contains(t, n.statuses(), notifier.StatusError)

	state, _ := p.getState(callID.String())
	assert.Equal(t, StateFailed, state)
}

func TestTurnCommittedPersistsAndNotifies(t *testing.T) {
	p, st, n, _, _ := newTestProcessor(t)
	callID := uuid.New()

	p.HandleTurnCommitted(context.Background(), turnEvent(callID, "agent", "Hello, am I speaking with Alice?"))
	p.HandleTurnCommitted(context.Background(), turnEvent(callID, "callee", "Yes, speaking."))

	history := st.history[callID]
	require.Len(t, history, 2)
	assert.Equal(t, store.RoleAgent, history[0].Role)
	assert.Equal(t, store.RoleCallee, history[1].Role)

	require.Len(t, n.events, 2)
	assert.Equal(t, notifier.SpeakerAgent, n.events[0].speaker)
	assert.Equal(t, notifier.SpeakerUser, n.events[1].speaker)
}

func TestTurnCommittedNotifiesEvenWhenPersistFails(t *testing.T) {
	p, st, n, _, _ := newTestProcessor(t)
	st.historyErr = errors.New("db down")
	callID := uuid.New()

	p.HandleTurnCommitted(context.Background(), turnEvent(callID, "agent", "Hello"))

	require.Len(t, n.events, 1)
	assert.Equal(t, "transcription", n.events[0].kind)
}

func sessionEvent(callID uuid.UUID, metadata string) session.Event {
	return session.Event{
		Kind:     session.EventSessionStarted,
		CallID:   callID.String(),
		Metadata: metadata,
	}
}

func turnEvent(callID uuid.UUID, role, text string) session.Event {
	return session.Event{
		Kind:   session.EventTurnCommitted,
		CallID: callID.String(),
		Role:   role,
		Text:   text,
	}
}

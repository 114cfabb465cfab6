package processor

import (
	"call-server/internal/observability"
	"call-server/internal/store"
	"call-server/internal/telephony"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrDispatchFailed is returned when the telephony provider rejects or
	// fails the call origination. No call row exists in that case.
	ErrDispatchFailed = errors.New("call dispatch failed")

	// ErrCallNotFound is returned when a call id is unknown to both the live
	// state map and the store.
	ErrCallNotFound = errors.New("call not found")
)

// CallState is the in-memory lifecycle state of a dispatched call.
type CallState string

const (
	StateDispatched CallState = "DISPATCHED"
	StateActive     CallState = "ACTIVE"
	StateFinalizing CallState = "FINALIZING"
	StateFinalized  CallState = "FINALIZED"
	StateFailed     CallState = "FAILED"
)

// dispatchMetadata is the opaque JSON document that travels with the dispatch
// and comes back on the session-started event. It carries everything needed to
// create the call row once the session is live.
type dispatchMetadata struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
	AgentID     string `json:"agent_id,omitempty"`
	Prompt      string `json:"prompt"`
}

// Processor coordinates the call lifecycle: dispatch, live session events,
// turn persistence and post-call finalization.
type Processor struct {
	store          CallStore
	notifier       CallNotifier
	summarizer     Summarizer
	originator     telephony.Originator
	summaryTimeout time.Duration
	logger         *observability.Logger

	mu     sync.Mutex
	states map[string]CallState
}

func New(callStore CallStore, callNotifier CallNotifier, summarizer Summarizer, originator telephony.Originator, summaryTimeout time.Duration, logger *observability.Logger) *Processor {
	return &Processor{
		store:          callStore,
		notifier:       callNotifier,
		summarizer:     summarizer,
		originator:     originator,
		summaryTimeout: summaryTimeout,
		logger:         logger,
		states:         make(map[string]CallState),
	}
}

// StartCallParams carries the validated dispatch request.
type StartCallParams struct {
	Name        string
	PhoneNumber string
	Prompt      string
	AgentID     *uuid.UUID
}

// StartCallResult is returned to the caller so it can attach the live
// transcript listener.
type StartCallResult struct {
	CallID       string `json:"call_id"`
	Status       string `json:"status"`
	WebsocketURL string `json:"websocket_url"`
	Provider     string `json:"provider"`
}

// StartCall dispatches an outbound call. When an agent id is given its prompt
// is snapshotted into the dispatch so later agent edits do not affect calls
// already in flight. On dispatch failure no call row is created.
func (p *Processor) StartCall(ctx context.Context, params StartCallParams) (StartCallResult, error) {
	callID := uuid.New()
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "call_id", Value: callID.String()},
		observability.Field{Key: "phone_number", Value: params.PhoneNumber},
	)

	meta := dispatchMetadata{
		Name:        params.Name,
		PhoneNumber: params.PhoneNumber,
		Prompt:      params.Prompt,
	}
	if params.AgentID != nil {
		agent, err := p.store.GetAgentByID(ctx, *params.AgentID)
		if err != nil {
			p.logger.Error(ctx, "failed to resolve agent for dispatch", err)
			return StartCallResult{}, err
		}
		meta.AgentID = agent.ID.String()
		meta.Prompt = agent.Prompt
	}

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return StartCallResult{}, fmt.Errorf("failed to marshal dispatch metadata: %w", err)
	}

	err = p.originator.Originate(ctx, telephony.OriginateRequest{
		CallID:      callID.String(),
		PhoneNumber: params.PhoneNumber,
		Metadata:    string(metaJSON),
	})
	if err != nil {
		p.logger.Error(ctx, "call origination failed", err)
		return StartCallResult{}, fmt.Errorf("%w: %v", ErrDispatchFailed, err)
	}

	p.setState(callID.String(), StateDispatched)
	p.logger.Info(ctx, "call dispatched")

	return StartCallResult{
		CallID:       callID.String(),
		Status:       "dispatched",
		WebsocketURL: fmt.Sprintf("/ws/transcription/%s", callID),
		Provider:     p.originator.Name(),
	}, nil
}

// GetCalls returns all calls, newest first.
func (p *Processor) GetCalls(ctx context.Context) ([]store.Call, error) {
	return p.store.GetAllCalls(ctx)
}

// CallDetail pairs a call with its ordered transcript.
type CallDetail struct {
	Call    store.Call          `json:"call"`
	History []store.CallHistory `json:"history"`
}

// GetCallDetail returns a call and its full transcript.
func (p *Processor) GetCallDetail(ctx context.Context, id uuid.UUID) (CallDetail, error) {
	call, err := p.store.GetCallByID(ctx, id)
	if err != nil {
		return CallDetail{}, err
	}
	history, err := p.store.GetCallHistoryByCallID(ctx, id)
	if err != nil {
		return CallDetail{}, err
	}
	if history == nil {
		history = []store.CallHistory{}
	}
	return CallDetail{Call: *call, History: history}, nil
}

// GetCallStatus reports the lifecycle state for a call id. Calls that have
// left the in-memory map are resolved from the store.
func (p *Processor) GetCallStatus(ctx context.Context, id uuid.UUID) (CallState, error) {
	p.mu.Lock()
	state, ok := p.states[id.String()]
	p.mu.Unlock()
	if ok {
		return state, nil
	}

	call, err := p.store.GetCallByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrCallNotFound
		}
		return "", err
	}
	if call.Outcome.Valid {
		return StateFinalized, nil
	}
	return StateActive, nil
}

func (p *Processor) setState(callID string, state CallState) {
	p.mu.Lock()
	p.states[callID] = state
	p.mu.Unlock()
}

func (p *Processor) clearState(callID string) {
	p.mu.Lock()
	delete(p.states, callID)
	p.mu.Unlock()
}

func (p *Processor) getState(callID string) (CallState, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	state, ok := p.states[callID]
	return state, ok
}

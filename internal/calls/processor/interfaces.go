package processor

import (
	"call-server/internal/notifier"
	"call-server/internal/store"
	"call-server/internal/summary"
	"context"

	"github.com/google/uuid"
)

// CallStore is the persistence surface the processor needs from the store.
type CallStore interface {
	CreateCall(ctx context.Context, params store.CreateCallParams) (*store.Call, error)
	GetCallByID(ctx context.Context, id uuid.UUID) (*store.Call, error)
	GetAllCalls(ctx context.Context) ([]store.Call, error)
	FinalizeCall(ctx context.Context, id uuid.UUID, durationMinutes float64, outcome, summary string) (*store.Call, error)
	AddCallHistory(ctx context.Context, callID uuid.UUID, role, message string) (*store.CallHistory, error)
	GetCallHistoryByCallID(ctx context.Context, callID uuid.UUID) ([]store.CallHistory, error)
	GetAgentByID(ctx context.Context, id uuid.UUID) (*store.Agent, error)
}

// CallNotifier pushes live call events to the per-call listener.
type CallNotifier interface {
	SendTranscription(ctx context.Context, callID, text, speaker string)
	SendCallStatus(ctx context.Context, callID, status string, metadata map[string]any)
	SendAgentState(ctx context.Context, callID, state string)
	SendTranscriptComplete(ctx context.Context, callID string, transcript []notifier.TranscriptTurn)
}

// Summarizer produces a post-call summary from the persisted transcript.
type Summarizer interface {
	Summarize(ctx context.Context, turns []summary.Turn) (string, error)
}

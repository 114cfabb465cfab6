package processor

import (
	"call-server/internal/notifier"
	"call-server/internal/observability"
	"call-server/internal/session"
	"call-server/internal/store"
	"call-server/internal/summary"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const summaryFallbackText = "Summary generation failed."

// Handlers returns the session event handlers wired to this processor.
func (p *Processor) Handlers() session.Handlers {
	return session.Handlers{
		OnSessionStarted:    p.HandleSessionStarted,
		OnTurnCommitted:     p.HandleTurnCommitted,
		OnAgentStateChanged: p.HandleAgentStateChanged,
		OnSessionEnded:      p.HandleSessionEnded,
	}
}

// HandleSessionStarted creates the call row from the dispatch metadata echoed
// back by the session runtime and marks the call active.
func (p *Processor) HandleSessionStarted(ctx context.Context, ev session.Event) {
	callID, err := uuid.Parse(ev.CallID)
	if err != nil {
		p.logger.Error(ctx, "session started with unparseable call id", err)
		return
	}

	var meta dispatchMetadata
	if err := json.Unmarshal([]byte(ev.Metadata), &meta); err != nil {
		p.fail(ctx, ev.CallID, "invalid dispatch metadata", err)
		return
	}

	params := store.CreateCallParams{
		ID:          callID,
		Name:        meta.Name,
		PhoneNumber: meta.PhoneNumber,
		Prompt:      meta.Prompt,
	}
	if meta.AgentID != "" {
		agentID, err := uuid.Parse(meta.AgentID)
		if err == nil {
			params.AgentID = uuid.NullUUID{UUID: agentID, Valid: true}
		}
	}

	if _, err := p.store.CreateCall(ctx, params); err != nil {
		p.fail(ctx, ev.CallID, "failed to record call", err)
		return
	}

	p.setState(ev.CallID, StateActive)
	p.notifier.SendCallStatus(ctx, ev.CallID, notifier.StatusConnected, nil)
	p.logger.Info(ctx, "call session started")
}

// HandleTurnCommitted persists one committed speaker turn and pushes it to the
// live listener. The live push happens even when persistence fails so the
// real-time view keeps flowing; the summary works from what was persisted.
func (p *Processor) HandleTurnCommitted(ctx context.Context, ev session.Event) {
	callID, err := uuid.Parse(ev.CallID)
	if err != nil {
		p.logger.Error(ctx, "turn committed with unparseable call id", err)
		return
	}

	role := store.RoleCallee
	speaker := notifier.SpeakerUser
	if ev.Role == store.RoleAgent {
		role = store.RoleAgent
		speaker = notifier.SpeakerAgent
	}

	if _, err := p.store.AddCallHistory(ctx, callID, role, ev.Text); err != nil {
		p.logger.Error(ctx, "failed to persist speaker turn", err)
	}

	p.notifier.SendTranscription(ctx, ev.CallID, ev.Text, speaker)
}

// HandleAgentStateChanged forwards agent state transitions to the listener.
func (p *Processor) HandleAgentStateChanged(ctx context.Context, ev session.Event) {
	p.notifier.SendAgentState(ctx, ev.CallID, ev.State)
}

// HandleSessionEnded finalizes the call: computes duration from the persisted
// turns, generates the summary under a timeout, writes the one-time
// finalization update and pushes the transcript and terminal status to the
// listener. Finalization runs at most once per call id.
func (p *Processor) HandleSessionEnded(ctx context.Context, ev session.Event) {
	callID, err := uuid.Parse(ev.CallID)
	if err != nil {
		p.logger.Error(ctx, "session ended with unparseable call id", err)
		return
	}

	p.mu.Lock()
	if p.states[ev.CallID] == StateFinalizing {
		p.mu.Unlock()
		p.logger.Warn(ctx, "ignoring duplicate session ended event")
		return
	}
	p.states[ev.CallID] = StateFinalizing
	p.mu.Unlock()

	// Finalized calls have already left the state map; replayed end events are
	// recognized by the outcome written during the first finalization.
	if call, err := p.store.GetCallByID(ctx, callID); err == nil && call.Outcome.Valid {
		p.clearState(ev.CallID)
		p.logger.Warn(ctx, "ignoring duplicate session ended event")
		return
	}

	history, err := p.store.GetCallHistoryByCallID(ctx, callID)
	if err != nil {
		p.fail(ctx, ev.CallID, "failed to load transcript", err)
		return
	}

	durationMinutes := 0.0
	if len(history) >= 2 {
		durationMinutes = history[len(history)-1].CreatedAt.Sub(history[0].CreatedAt).Minutes()
	}

	turns := make([]summary.Turn, 0, len(history))
	transcript := make([]notifier.TranscriptTurn, 0, len(history))
	for _, h := range history {
		turns = append(turns, summary.Turn{Role: h.Role, Text: h.Message})
		transcript = append(transcript, notifier.TranscriptTurn{
			Role:      h.Role,
			Text:      h.Message,
			Timestamp: h.CreatedAt,
		})
	}

	outcome := store.CallOutcomeCompleted
	summaryCtx, cancel := context.WithTimeout(ctx, p.summaryTimeout)
	summaryText, err := p.summarizer.Summarize(summaryCtx, turns)
	cancel()
	if err != nil {
		p.logger.Error(ctx, "summary generation failed, finalizing with fallback", err)
		outcome = store.CallOutcomeSummaryFailed
		summaryText = summaryFallbackText
	}

	if _, err := p.store.FinalizeCall(ctx, callID, durationMinutes, outcome, summaryText); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Session ended before it ever started; nothing to finalize.
			p.logger.Warn(ctx, "session ended for a call with no record")
			p.clearState(ev.CallID)
			return
		}
		p.fail(ctx, ev.CallID, "failed to finalize call", err)
		return
	}

	// The store answers status queries from here on; drop the live entry so
	// the map only tracks calls still in flight.
	p.clearState(ev.CallID)

	p.notifier.SendTranscriptComplete(ctx, ev.CallID, transcript)
	p.notifier.SendCallStatus(ctx, ev.CallID, notifier.StatusEnded, map[string]any{
		"duration_minutes": durationMinutes,
		"outcome":          outcome,
		"reason":           ev.Reason,
	})

	ctx = observability.WithFields(ctx,
		observability.Field{Key: "duration_minutes", Value: durationMinutes},
		observability.Field{Key: "outcome", Value: outcome},
	)
	p.logger.Info(ctx, "call finalized")
}

// fail marks the call failed and pushes an error status to the listener. It
// never writes to the store; failed lifecycles leave whatever was persisted
// untouched.
func (p *Processor) fail(ctx context.Context, callID, reason string, err error) {
	p.logger.Error(ctx, fmt.Sprintf("call lifecycle failure: %s", reason), err)
	p.setState(callID, StateFailed)
	p.notifier.SendCallStatus(ctx, callID, notifier.StatusError, map[string]any{
		"reason": reason,
	})
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Call is one outbound call attempt. Duration, outcome and summary stay NULL
// until the call is finalized.
type Call struct {
	ID              uuid.UUID       `db:"id"`
	Name            string          `db:"name"`
	PhoneNumber     string          `db:"phone_number"`
	AgentID         uuid.NullUUID   `db:"agent_id"`
	Prompt          string          `db:"prompt"`
	DurationMinutes sql.NullFloat64 `db:"duration_minutes"`
	Outcome         sql.NullString  `db:"outcome"`
	Summary         sql.NullString  `db:"summary"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
}

// Call outcome values written at finalization.
const (
	CallOutcomeCompleted     = "completed"
	CallOutcomeSummaryFailed = "summary_failed"
)

// CreateCallParams carries the fields captured when a session starts. The ID is
// the call-tracking identifier generated at dispatch time.
type CreateCallParams struct {
	ID          uuid.UUID
	Name        string
	PhoneNumber string
	AgentID     uuid.NullUUID
	Prompt      string
}

const sqlCreateCall = `
INSERT INTO calls (id, name, phone_number, agent_id, prompt)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, name, phone_number, agent_id, prompt, duration_minutes, outcome, summary, created_at, updated_at`

func (s *Store) CreateCall(ctx context.Context, params CreateCallParams) (*Call, error) {
	var call Call
	err := s.db.GetContext(ctx, &call, sqlCreateCall,
		params.ID, params.Name, params.PhoneNumber, params.AgentID, params.Prompt)
	if err != nil {
		s.logger.Error(ctx, "failed to create call", err)
		return nil, fmt.Errorf("failed to create call: %w", err)
	}
	return &call, nil
}

const sqlGetCallByID = `
SELECT * FROM calls WHERE id = $1`

func (s *Store) GetCallByID(ctx context.Context, id uuid.UUID) (*Call, error) {
	var call Call
	err := s.db.GetContext(ctx, &call, sqlGetCallByID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		s.logger.Error(ctx, "failed to get call by ID", err)
		return nil, fmt.Errorf("failed to get call by ID: %w", err)
	}
	return &call, nil
}

const sqlGetAllCalls = `
SELECT * FROM calls ORDER BY created_at DESC`

func (s *Store) GetAllCalls(ctx context.Context) ([]Call, error) {
	var calls []Call
	err := s.db.SelectContext(ctx, &calls, sqlGetAllCalls)
	if err != nil {
		s.logger.Error(ctx, "failed to get all calls", err)
		return nil, fmt.Errorf("failed to get all calls: %w", err)
	}
	return calls, nil
}

const sqlFinalizeCall = `
UPDATE calls
SET duration_minutes = $2, outcome = $3, summary = $4, updated_at = now()
WHERE id = $1
RETURNING id, name, phone_number, agent_id, prompt, duration_minutes, outcome, summary, created_at, updated_at`

// FinalizeCall writes the one-time duration/outcome/summary update. Finalizing
// an unknown call id returns ErrNotFound, never an insert.
func (s *Store) FinalizeCall(ctx context.Context, id uuid.UUID, durationMinutes float64, outcome, summary string) (*Call, error) {
	var call Call
	err := s.db.GetContext(ctx, &call, sqlFinalizeCall, id, durationMinutes, outcome, summary)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		s.logger.Error(ctx, "failed to finalize call", err)
		return nil, fmt.Errorf("failed to finalize call: %w", err)
	}
	return &call, nil
}

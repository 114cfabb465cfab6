package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CallHistory is one committed speaker turn. Rows are append-only and ordered
// by creation timestamp.
type CallHistory struct {
	ID        uuid.UUID `db:"id"`
	CallID    uuid.UUID `db:"call_id"`
	Role      string    `db:"role"`
	Message   string    `db:"message"`
	CreatedAt time.Time `db:"created_at"`
}

const RoleAgent = "agent"
const RoleCallee = "callee"

const sqlAddCallHistory = `
INSERT INTO call_history (call_id, role, message)
VALUES ($1, $2, $3)
RETURNING id, call_id, role, message, created_at`

func (s *Store) AddCallHistory(ctx context.Context, callID uuid.UUID, role, message string) (*CallHistory, error) {
	var history CallHistory
	err := s.db.GetContext(ctx, &history, sqlAddCallHistory, callID, role, message)
	if err != nil {
		s.logger.Error(ctx, "failed to add call history", err)
		return nil, fmt.Errorf("failed to add call history: %w", err)
	}
	return &history, nil
}

const sqlGetCallHistoryByCallID = `
SELECT * FROM call_history WHERE call_id = $1 ORDER BY created_at ASC`

func (s *Store) GetCallHistoryByCallID(ctx context.Context, callID uuid.UUID) ([]CallHistory, error) {
	var history []CallHistory
	err := s.db.SelectContext(ctx, &history, sqlGetCallHistoryByCallID, callID)
	if err != nil {
		s.logger.Error(ctx, "failed to get call history by call ID", err)
		return nil, fmt.Errorf("failed to get call history by call ID: %w", err)
	}
	return history, nil
}

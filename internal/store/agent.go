package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Agent is a reusable named prompt configuration for a call campaign.
type Agent struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	Prompt    string    `db:"prompt"`
	AgentType string    `db:"agent_type"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

const sqlCreateAgent = `
INSERT INTO agents (name, prompt, agent_type)
VALUES ($1, $2, $3)
RETURNING id, name, prompt, agent_type, created_at, updated_at`

func (s *Store) CreateAgent(ctx context.Context, name, prompt, agentType string) (*Agent, error) {
	var agent Agent
	err := s.db.GetContext(ctx, &agent, sqlCreateAgent, name, prompt, agentType)
	if err != nil {
		s.logger.Error(ctx, "failed to create agent", err)
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}
	return &agent, nil
}

const sqlGetAgentByID = `
SELECT * FROM agents WHERE id = $1`

func (s *Store) GetAgentByID(ctx context.Context, id uuid.UUID) (*Agent, error) {
	var agent Agent
	err := s.db.GetContext(ctx, &agent, sqlGetAgentByID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		s.logger.Error(ctx, "failed to get agent by ID", err)
		return nil, fmt.Errorf("failed to get agent by ID: %w", err)
	}
	return &agent, nil
}

const sqlGetAllAgents = `
SELECT * FROM agents ORDER BY created_at DESC`

func (s *Store) GetAllAgents(ctx context.Context) ([]Agent, error) {
	var agents []Agent
	err := s.db.SelectContext(ctx, &agents, sqlGetAllAgents)
	if err != nil {
		s.logger.Error(ctx, "failed to get all agents", err)
		return nil, fmt.Errorf("failed to get all agents: %w", err)
	}
	return agents, nil
}

const sqlUpdateAgent = `
UPDATE agents
SET name = COALESCE($2, name),
    prompt = COALESCE($3, prompt),
    agent_type = COALESCE($4, agent_type),
    updated_at = now()
WHERE id = $1
RETURNING id, name, prompt, agent_type, created_at, updated_at`

// UpdateAgent updates the non-nil fields of an agent.
func (s *Store) UpdateAgent(ctx context.Context, id uuid.UUID, name, prompt, agentType *string) (*Agent, error) {
	var agent Agent
	err := s.db.GetContext(ctx, &agent, sqlUpdateAgent, id, name, prompt, agentType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		s.logger.Error(ctx, "failed to update agent", err)
		return nil, fmt.Errorf("failed to update agent: %w", err)
	}
	return &agent, nil
}

const sqlDeleteAgent = `
DELETE FROM agents WHERE id = $1`

func (s *Store) DeleteAgent(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, sqlDeleteAgent, id)
	if err != nil {
		s.logger.Error(ctx, "failed to delete agent", err)
		return fmt.Errorf("failed to delete agent: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		s.logger.Error(ctx, "failed to get rows affected", err)
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

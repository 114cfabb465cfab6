package processor

import (
	"call-server/internal/observability"
	"call-server/internal/store"
	"context"

	"github.com/google/uuid"
)

// AgentStore is the persistence surface the processor needs from the store.
type AgentStore interface {
	CreateAgent(ctx context.Context, name, prompt, agentType string) (*store.Agent, error)
	GetAgentByID(ctx context.Context, id uuid.UUID) (*store.Agent, error)
	GetAllAgents(ctx context.Context) ([]store.Agent, error)
	UpdateAgent(ctx context.Context, id uuid.UUID, name, prompt, agentType *string) (*store.Agent, error)
	DeleteAgent(ctx context.Context, id uuid.UUID) error
}

const defaultAgentType = "custom"

// Processor manages reusable agent prompt configurations.
type Processor struct {
	store  AgentStore
	logger *observability.Logger
}

func New(agentStore AgentStore, logger *observability.Logger) *Processor {
	return &Processor{
		store:  agentStore,
		logger: logger,
	}
}

// CreateAgentParams carries the validated create request.
type CreateAgentParams struct {
	Name      string
	Prompt    string
	AgentType string
}

func (p *Processor) CreateAgent(ctx context.Context, params CreateAgentParams) (*store.Agent, error) {
	if params.AgentType == "" {
		params.AgentType = defaultAgentType
	}

	ctx = observability.WithFields(ctx, observability.Field{Key: "agent_name", Value: params.Name})
	agent, err := p.store.CreateAgent(ctx, params.Name, params.Prompt, params.AgentType)
	if err != nil {
		return nil, err
	}
	p.logger.Info(ctx, "agent created")
	return agent, nil
}

func (p *Processor) GetAgent(ctx context.Context, id uuid.UUID) (*store.Agent, error) {
	return p.store.GetAgentByID(ctx, id)
}

func (p *Processor) ListAgents(ctx context.Context) ([]store.Agent, error) {
	return p.store.GetAllAgents(ctx)
}

// UpdateAgentParams carries the partial update; nil fields are left unchanged.
type UpdateAgentParams struct {
	Name      *string
	Prompt    *string
	AgentType *string
}

func (p *Processor) UpdateAgent(ctx context.Context, id uuid.UUID, params UpdateAgentParams) (*store.Agent, error) {
	ctx = observability.WithFields(ctx, observability.Field{Key: "agent_id", Value: id.String()})
	agent, err := p.store.UpdateAgent(ctx, id, params.Name, params.Prompt, params.AgentType)
	if err != nil {
		return nil, err
	}
	p.logger.Info(ctx, "agent updated")
	return agent, nil
}

func (p *Processor) DeleteAgent(ctx context.Context, id uuid.UUID) error {
	ctx = observability.WithFields(ctx, observability.Field{Key: "agent_id", Value: id.String()})
	if err := p.store.DeleteAgent(ctx, id); err != nil {
		return err
	}
	p.logger.Info(ctx, "agent deleted")
	return nil
}

package processor

import (
	"call-server/internal/observability"
	"call-server/internal/store"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAgentStore struct {
	agents map[uuid.UUID]store.Agent

	lastName      string
	lastPrompt    string
	lastAgentType string
}

func newFakeAgentStore() *fakeAgentStore {
	return &fakeAgentStore{agents: make(map[uuid.UUID]store.Agent)}
}

func (f *fakeAgentStore) CreateAgent(ctx context.Context, name, prompt, agentType string) (*store.Agent, error) {
	f.lastName = name
	f.lastPrompt = prompt
	f.lastAgentType = agentType
	agent := store.Agent{ID: uuid.New(), Name: name, Prompt: prompt, AgentType: agentType}
	f.agents[agent.ID] = agent
	return &agent, nil
}

func (f *fakeAgentStore) GetAgentByID(ctx context.Context, id uuid.UUID) (*store.Agent, error) {
	agent, ok := f.agents[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &agent, nil
}

func (f *fakeAgentStore) GetAllAgents(ctx context.Context) ([]store.Agent, error) {
	agents := make([]store.Agent, 0, len(f.agents))
	for _, a := range f.agents {
		agents = append(agents, a)
	}
	return agents, nil
}

func (f *fakeAgentStore) UpdateAgent(ctx context.Context, id uuid.UUID, name, prompt, agentType *string) (*store.Agent, error) {
	agent, ok := f.agents[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if name != nil {
		agent.Name = *name
	}
	if prompt != nil {
		agent.Prompt = *prompt
	}
	if agentType != nil {
		agent.AgentType = *agentType
	}
	f.agents[id] = agent
	return &agent, nil
}

func (f *fakeAgentStore) DeleteAgent(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.agents[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.agents, id)
	return nil
}

func TestCreateAgentDefaultsType(t *testing.T) {
	st := newFakeAgentStore()
	p := New(st, observability.NewLogger())

	agent, err := p.CreateAgent(context.Background(), CreateAgentParams{
		Name:   "booker",
		Prompt: "You book restaurants.",
	})
	require.NoError(t, err)
	assert.Equal(t, defaultAgentType, agent.AgentType)
	assert.Equal(t, "booker", st.lastName)
}

func TestUpdateAgentPartial(t *testing.T) {
	st := newFakeAgentStore()
	p := New(st, observability.NewLogger())

	agent, err := p.CreateAgent(context.Background(), CreateAgentParams{Name: "booker", Prompt: "old"})
	require.NoError(t, err)

	newPrompt := "new prompt"
	updated, err := p.UpdateAgent(context.Background(), agent.ID, UpdateAgentParams{Prompt: &newPrompt})
	require.NoError(t, err)
	assert.Equal(t, "booker", updated.Name)
	assert.Equal(t, "new prompt", updated.Prompt)
}

func TestDeleteAgentNotFound(t *testing.T) {
	p := New(newFakeAgentStore(), observability.NewLogger())
	err := p.DeleteAgent(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

package handler

import (
	"net/http"

	"call-server/internal/agents/processor"
	"call-server/internal/apierrors"
	"call-server/internal/observability"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	processor *processor.Processor
	logger    *observability.Logger
}

func New(p *processor.Processor, logger *observability.Logger) Handler {
	return Handler{
		processor: p,
		logger:    logger,
	}
}

// CreateAgentRequest represents the HTTP request for creating an agent
type CreateAgentRequest struct {
	Name      string `json:"name" binding:"required,min=1,max=200"`
	Prompt    string `json:"prompt" binding:"required,min=1"`
	AgentType string `json:"agent_type" binding:"omitempty,max=100"`
}

// UpdateAgentRequest represents the HTTP request for updating an agent
type UpdateAgentRequest struct {
	Name      *string `json:"name,omitempty" binding:"omitempty,min=1,max=200"`
	Prompt    *string `json:"prompt,omitempty" binding:"omitempty,min=1"`
	AgentType *string `json:"agent_type,omitempty" binding:"omitempty,max=100"`
}

// HandleCreateAgent creates a reusable agent prompt configuration
func (h *Handler) HandleCreateAgent(c *gin.Context) {
	ctx := c.Request.Context()

	var req CreateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.RespondWithValidationError(c, err)
		return
	}

	agent, err := h.processor.CreateAgent(ctx, processor.CreateAgentParams{
		Name:      req.Name,
		Prompt:    req.Prompt,
		AgentType: req.AgentType,
	})
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, agent)
}

// HandleListAgents returns all agents
func (h *Handler) HandleListAgents(c *gin.Context) {
	agents, err := h.processor.ListAgents(c.Request.Context())
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"agents": agents})
}

// HandleGetAgent returns one agent by id
func (h *Handler) HandleGetAgent(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	agent, err := h.processor.GetAgent(c.Request.Context(), id)
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, agent)
}

// HandleUpdateAgent applies a partial update to an agent
func (h *Handler) HandleUpdateAgent(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req UpdateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.RespondWithValidationError(c, err)
		return
	}

	agent, err := h.processor.UpdateAgent(c.Request.Context(), id, processor.UpdateAgentParams{
		Name:      req.Name,
		Prompt:    req.Prompt,
		AgentType: req.AgentType,
	})
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, agent)
}

// HandleDeleteAgent removes an agent
func (h *Handler) HandleDeleteAgent(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.processor.DeleteAgent(c.Request.Context(), id); err != nil {
		apierrors.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apierrors.RespondWithError(c, apierrors.BadRequest(apierrors.CodeInvalidInput, "id must be a valid UUID"))
		return uuid.Nil, false
	}
	return id, true
}

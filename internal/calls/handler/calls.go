package handler

import (
	"net/http"

	"call-server/internal/apierrors"
	"call-server/internal/calls/processor"
	"call-server/internal/observability"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// StartCallRequest represents the HTTP request for dispatching an outbound call
type StartCallRequest struct {
	Name        string  `json:"name" binding:"required,min=1,max=200"`
	PhoneNumber string  `json:"phone_number" binding:"required,e164"`
	Prompt      string  `json:"prompt" binding:"required_without=AgentID"`
	AgentID     *string `json:"agent_id,omitempty" binding:"omitempty,uuid"`
}

// HandleStartCall dispatches an outbound call and returns the tracking id and
// websocket URL for the live transcript.
func (h *Handler) HandleStartCall(c *gin.Context) {
	ctx := c.Request.Context()

	var req StartCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.RespondWithValidationError(c, err)
		return
	}

	ctx = observability.WithFields(ctx,
		observability.Field{Key: "callee_name", Value: req.Name},
	)

	params := processor.StartCallParams{
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
		Prompt:      req.Prompt,
	}
	if req.AgentID != nil {
		agentID, err := uuid.Parse(*req.AgentID)
		if err != nil {
			apierrors.RespondWithError(c, apierrors.BadRequest(apierrors.CodeInvalidInput, "agent_id must be a valid UUID"))
			return
		}
		params.AgentID = &agentID
	}

	result, err := h.processor.StartCall(ctx, params)
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// HandleListCalls returns all calls, newest first.
func (h *Handler) HandleListCalls(c *gin.Context) {
	calls, err := h.processor.GetCalls(c.Request.Context())
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"calls": calls})
}

// HandleGetCall returns one call with its full transcript.
func (h *Handler) HandleGetCall(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	detail, err := h.processor.GetCallDetail(c.Request.Context(), id)
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// HandleGetCallStatus reports the live lifecycle state of a call.
func (h *Handler) HandleGetCallStatus(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	state, err := h.processor.GetCallStatus(c.Request.Context(), id)
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"call_id": id.String(),
		"status":  state,
	})
}

func (h *Handler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apierrors.RespondWithError(c, apierrors.BadRequest(apierrors.CodeInvalidInput, "id must be a valid UUID"))
		return uuid.Nil, false
	}
	return id, true
}

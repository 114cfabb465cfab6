package api

import (
	"net/http"

	agentsHandler "call-server/internal/agents/handler"
	callsHandler "call-server/internal/calls/handler"
	"call-server/internal/ratelimit"

	"github.com/gin-gonic/gin"
)

type API struct {
	router        *gin.RouterGroup
	callsHandler  callsHandler.Handler
	agentsHandler agentsHandler.Handler
	rateLimiter   *ratelimit.Service
}

func New(router *gin.RouterGroup, calls callsHandler.Handler, agents agentsHandler.Handler, rateLimiter *ratelimit.Service) API {
	return API{
		router:        router,
		callsHandler:  calls,
		agentsHandler: agents,
		rateLimiter:   rateLimiter,
	}
}

func (a *API) RegisterRoutes() {
	a.Health()

	apiGroup := a.router.Group("/api")
	{
		apiGroup.POST("/start-call", a.rateLimiter.Middleware(), a.callsHandler.HandleStartCall)
		apiGroup.GET("/calls", a.callsHandler.HandleListCalls)
		apiGroup.GET("/calls/:id", a.callsHandler.HandleGetCall)
		apiGroup.GET("/calls/:id/status", a.callsHandler.HandleGetCallStatus)

		agentsGroup := apiGroup.Group("/agents")
		agentsGroup.POST("", a.agentsHandler.HandleCreateAgent)
		agentsGroup.GET("", a.agentsHandler.HandleListAgents)
		agentsGroup.GET("/:id", a.agentsHandler.HandleGetAgent)
		agentsGroup.PATCH("/:id", a.agentsHandler.HandleUpdateAgent)
		agentsGroup.DELETE("/:id", a.agentsHandler.HandleDeleteAgent)
	}

	a.router.GET("/ws/transcription/:call_id", a.callsHandler.HandleTranscriptionWebSocket)
}

func (a *API) Health() {
	a.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})
}

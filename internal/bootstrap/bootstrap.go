package bootstrap

import (
	"call-server/internal/config"
	"call-server/internal/notifier"
	"call-server/internal/observability"
	"call-server/internal/ratelimit"
	"call-server/internal/session"
	"call-server/internal/store"
	"call-server/internal/summary"
	"call-server/internal/telephony"
	"context"
	"fmt"

	agentsHandler "call-server/internal/agents/handler"
	agentsProcessor "call-server/internal/agents/processor"
	callsHandler "call-server/internal/calls/handler"
	callsProcessor "call-server/internal/calls/processor"
	"call-server/internal/clients/googleai"
	"call-server/internal/clients/livekit"
	"call-server/internal/clients/openai"
	redisClient "call-server/internal/clients/redis"
	twilioClient "call-server/internal/clients/twilio"
)

// Dependencies holds all initialized application dependencies
type Dependencies struct {
	// Core
	Store    *store.Store
	Logger   *observability.Logger
	Notifier *notifier.Notifier

	// Handlers
	CallsHandler  callsHandler.Handler
	AgentsHandler agentsHandler.Handler

	// Rate limiting
	RateLimiter *ratelimit.Service

	// Background workers
	SessionWorker *session.Worker

	// Clients (for cleanup)
	Redis *redisClient.Client
}

// Initialize sets up all application dependencies
func Initialize(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Logger: logger,
	}

	// Initialize database store
	connectionString := cfg.Database.ConnectionString()
	var err error
	deps.Store, err = store.New(connectionString, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Initialize Redis (optional) and the dispatch rate limiter
	deps.Redis, err = redisClient.NewClient(cfg.Redis, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	deps.RateLimiter = ratelimit.NewService(deps.Redis, cfg.RateLimit.DispatchesPerMinute, logger)

	// Initialize the live transcript notifier
	deps.Notifier = notifier.New(logger)

	// Initialize the summary generator with the configured text backend
	var textGen summary.TextGenerator
	switch cfg.Services.SummaryProvider {
	case config.SummaryProviderGoogleAI:
		textGen, err = googleai.NewClient(cfg.Services.GoogleAIAPIKey, logger)
	case config.SummaryProviderOpenAI:
		textGen, err = openai.NewClient(cfg.Services.OpenAIAPIKey, logger)
	default:
		return nil, fmt.Errorf("unknown summary provider: %q", cfg.Services.SummaryProvider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create summary client: %w", err)
	}
	summaryGenerator := summary.New(textGen, logger)

	// The session bridge client is always needed for the event stream; it is
	// also the default originator.
	bridgeClient, err := livekit.NewClient(cfg.Bridge, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create bridge client: %w", err)
	}

	var originator telephony.Originator
	switch cfg.Services.TelephonyProvider {
	case config.TelephonyProviderLiveKit:
		originator = bridgeClient
	case config.TelephonyProviderTwilio:
		originator, err = twilioClient.NewClient(cfg.Twilio, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create Twilio client: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown telephony provider: %q", cfg.Services.TelephonyProvider)
	}

	// Initialize calls processor and handler
	callsProc := callsProcessor.New(
		deps.Store,
		deps.Notifier,
		summaryGenerator,
		originator,
		cfg.Services.SummaryTimeout,
		logger,
	)
	deps.CallsHandler = callsHandler.New(callsProc, deps.Notifier, logger)

	// Initialize agents processor and handler
	agentsProc := agentsProcessor.New(deps.Store, logger)
	deps.AgentsHandler = agentsHandler.New(agentsProc, logger)

	// Initialize the session event worker; it pumps bridge events into the
	// calls processor.
	dispatcher := session.NewDispatcher(callsProc.Handlers(), logger)
	deps.SessionWorker = session.NewWorker(bridgeClient, dispatcher, logger)

	return deps, nil
}

// Cleanup closes all resources that need cleanup
func (d *Dependencies) Cleanup() {
	if d.Redis != nil {
		d.Redis.Close()
	}
	if d.Store != nil {
		d.Store.Close()
	}
}

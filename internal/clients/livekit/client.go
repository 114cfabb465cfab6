package livekit

import (
	"bytes"
	"call-server/internal/config"
	"call-server/internal/observability"
	"call-server/internal/session"
	"call-server/internal/telephony"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	createDispatchPath       = "/twirp/livekit.AgentDispatchService/CreateDispatch"
	createSIPParticipantPath = "/twirp/livekit.SIP/CreateSIPParticipant"
	agentEventsPath          = "/agent/events"
)

// Client talks to the session bridge: a LiveKit-style media server with SIP
// trunking and an agent runtime. It dispatches agents into rooms, bridges the
// callee in over SIP, and streams the agent runtime's session events.
type Client struct {
	httpURL    string
	wsURL      string
	apiKey     string
	apiSecret  string
	trunkID    string
	agentName  string
	httpClient *http.Client
	logger     *observability.Logger
}

func NewClient(cfg config.BridgeConfig, logger *observability.Logger) (*Client, error) {
	if cfg.URL == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("bridge URL, API key and API secret are required")
	}
	return &Client{
		httpURL:    toHTTPURL(cfg.URL),
		wsURL:      toWSURL(cfg.URL),
		apiKey:     cfg.APIKey,
		apiSecret:  cfg.APISecret,
		trunkID:    cfg.TrunkID,
		agentName:  cfg.AgentName,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}, nil
}

// Name identifies the provider for logging and selection.
func (c *Client) Name() string {
	return "livekit"
}

type createDispatchRequest struct {
	AgentName string `json:"agent_name"`
	Room      string `json:"room"`
	Metadata  string `json:"metadata,omitempty"`
}

type createSIPParticipantRequest struct {
	SIPTrunkID          string `json:"sip_trunk_id"`
	SIPCallTo           string `json:"sip_call_to"`
	RoomName            string `json:"room_name"`
	ParticipantIdentity string `json:"participant_identity"`
	WaitUntilAnswered   bool   `json:"wait_until_answered"`
}

// Originate dispatches the voice agent into a room named after the call id and
// dials the callee into the same room over the SIP trunk. The metadata travels
// with the dispatch and is echoed back on the session-started event.
func (c *Client) Originate(ctx context.Context, req telephony.OriginateRequest) error {
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "call_id", Value: req.CallID},
		observability.Field{Key: "provider", Value: c.Name()},
	)

	dispatchReq := createDispatchRequest{
		AgentName: c.agentName,
		Room:      req.CallID,
		Metadata:  req.Metadata,
	}
	if err := c.post(ctx, createDispatchPath, dispatchReq); err != nil {
		c.logger.Error(ctx, "failed to create agent dispatch", err)
		return fmt.Errorf("failed to create agent dispatch: %w", err)
	}

	participantReq := createSIPParticipantRequest{
		SIPTrunkID:          c.trunkID,
		SIPCallTo:           req.PhoneNumber,
		RoomName:            req.CallID,
		ParticipantIdentity: fmt.Sprintf("callee-%s", req.CallID),
	}
	if err := c.post(ctx, createSIPParticipantPath, participantReq); err != nil {
		c.logger.Error(ctx, "failed to create SIP participant", err)
		return fmt.Errorf("failed to create SIP participant: %w", err)
	}

	c.logger.Info(ctx, "call originated through session bridge")
	return nil
}

func (c *Client) post(ctx context.Context, path string, body interface{}) error {
	token, err := buildAccessToken(c.apiKey, c.apiSecret, c.agentName,
		&videoGrants{RoomCreate: true, RoomAdmin: true},
		&sipGrants{Call: true},
	)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.httpURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("bridge returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// wireEvent is the JSON shape the agent runtime sends over the event stream.
type wireEvent struct {
	Event     string    `json:"event"`
	CallID    string    `json:"call_id"`
	Room      string    `json:"room"`
	Metadata  string    `json:"metadata,omitempty"`
	Role      string    `json:"role,omitempty"`
	Text      string    `json:"text,omitempty"`
	State     string    `json:"state,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// OpenEvents connects to the agent runtime's event stream and returns it as a
// session source. The session worker reopens the stream when it breaks.
func (c *Client) OpenEvents(ctx context.Context) (session.Source, error) {
	token, err := buildAccessToken(c.apiKey, c.apiSecret, c.agentName,
		&videoGrants{Agent: true},
		nil,
	)
	if err != nil {
		return nil, err
	}

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+token)

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.wsURL+agentEventsPath+"?agent_name="+c.agentName, headers)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to agent event stream: %w", err)
	}

	src := &eventSource{
		conn:   conn,
		events: make(chan session.Event),
		errs:   make(chan error, 1),
		done:   make(chan struct{}),
		logger: c.logger,
	}
	go src.readLoop()
	return src, nil
}

// eventSource adapts the websocket event stream to the session.Source
// interface. A reader goroutine owns the connection reads so Next can honor
// context cancellation.
type eventSource struct {
	conn   *websocket.Conn
	events chan session.Event
	errs   chan error
	done   chan struct{}
	logger *observability.Logger
}

func (s *eventSource) readLoop() {
	defer close(s.events)
	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			s.errs <- err
			return
		}

		var wire wireEvent
		if err := json.Unmarshal(msg, &wire); err != nil {
			s.logger.Warn(context.Background(), "dropping malformed bridge event")
			continue
		}

		ev := session.Event{
			Kind:      session.EventKind(wire.Event),
			CallID:    wire.CallID,
			Room:      wire.Room,
			Metadata:  wire.Metadata,
			Role:      wire.Role,
			Text:      wire.Text,
			State:     wire.State,
			Reason:    wire.Reason,
			Timestamp: wire.Timestamp,
		}
		select {
		case s.events <- ev:
		case <-s.done:
			return
		}
	}
}

func (s *eventSource) Next(ctx context.Context) (session.Event, error) {
	select {
	case <-ctx.Done():
		return session.Event{}, ctx.Err()
	case err := <-s.errs:
		return session.Event{}, err
	case ev, ok := <-s.events:
		if !ok {
			return session.Event{}, io.EOF
		}
		return ev, nil
	}
}

func (s *eventSource) Close() error {
	close(s.done)
	return s.conn.Close()
}

func toHTTPURL(bridgeURL string) string {
	switch {
	case strings.HasPrefix(bridgeURL, "wss://"):
		return "https://" + strings.TrimPrefix(bridgeURL, "wss://")
	case strings.HasPrefix(bridgeURL, "ws://"):
		return "http://" + strings.TrimPrefix(bridgeURL, "ws://")
	default:
		return bridgeURL
	}
}

func toWSURL(bridgeURL string) string {
	switch {
	case strings.HasPrefix(bridgeURL, "https://"):
		return "wss://" + strings.TrimPrefix(bridgeURL, "https://")
	case strings.HasPrefix(bridgeURL, "http://"):
		return "ws://" + strings.TrimPrefix(bridgeURL, "http://")
	default:
		return bridgeURL
	}
}

package twilio

import (
	"call-server/internal/config"
	"call-server/internal/observability"
	"call-server/internal/telephony"
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	api "github.com/twilio/twilio-go/rest/api/v2010"
	"github.com/twilio/twilio-go/twiml"
)

// Client originates calls directly through the Twilio REST API, streaming the
// call audio to the voice agent over a Media Streams websocket. It is the
// alternate originator selected with TELEPHONY_PROVIDER=twilio.
type Client struct {
	client     *twilio.RestClient
	fromNumber string
	streamURL  string
	logger     *observability.Logger
}

func NewClient(cfg config.TwilioConfig, logger *observability.Logger) (*Client, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, fmt.Errorf("Twilio account SID and auth token are required")
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &Client{
		client:     client,
		fromNumber: cfg.FromNumber,
		streamURL:  cfg.StreamURL,
		logger:     logger,
	}, nil
}

// Name identifies the provider for logging and selection.
func (c *Client) Name() string {
	return "twilio"
}

// Originate places the outbound call and connects it to the agent's media
// stream. The call id and dispatch metadata ride along as stream parameters so
// the agent runtime can attribute the session.
func (c *Client) Originate(ctx context.Context, req telephony.OriginateRequest) error {
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "call_id", Value: req.CallID},
		observability.Field{Key: "provider", Value: c.Name()},
	)

	twimlResult, err := c.buildStreamTwiML(req)
	if err != nil {
		c.logger.Error(ctx, "failed to build TwiML", err)
		return fmt.Errorf("failed to build TwiML: %w", err)
	}

	params := &api.CreateCallParams{}
	params.SetTo(req.PhoneNumber)
	params.SetFrom(c.fromNumber)
	params.SetTwiml(twimlResult)

	resp, err := c.client.Api.CreateCall(params)
	if err != nil {
		c.logger.Error(ctx, "failed to create Twilio call", err)
		return fmt.Errorf("failed to create Twilio call: %w", err)
	}

	if resp.Sid != nil {
		ctx = observability.WithFields(ctx, observability.Field{Key: "twilio_call_sid", Value: *resp.Sid})
	}
	c.logger.Info(ctx, "call originated through Twilio")
	return nil
}

func (c *Client) buildStreamTwiML(req telephony.OriginateRequest) (string, error) {
	stream := twiml.VoiceStream{
		Name: fmt.Sprintf("call-%s", req.CallID),
		Url:  c.streamURL,
		InnerElements: []twiml.Element{
			&twiml.VoiceParameter{Name: "call_id", Value: req.CallID},
			&twiml.VoiceParameter{Name: "metadata", Value: req.Metadata},
		},
	}

	connect := twiml.VoiceConnect{
		InnerElements: []twiml.Element{stream},
	}

	return twiml.Voice([]twiml.Element{connect})
}

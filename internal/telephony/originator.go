package telephony

import "context"

// Originator is the provider-agnostic capability for originating an outbound
// call and routing it into a live voice session.
//
// Rules:
// - No provider SDK calls outside the clients packages.
// - Keep the request provider-agnostic; provider-specific session metadata
//   travels in the opaque Metadata string.
type Originator interface {
	Name() string
	Originate(ctx context.Context, req OriginateRequest) error
}

// OriginateRequest asks a provider to dial PhoneNumber and attach a voice
// session identified by CallID.
type OriginateRequest struct {
	// CallID is the tracking identifier generated at dispatch; providers use
	// it as the session room name.
	CallID string

	// PhoneNumber is the destination in E.164 form where possible.
	PhoneNumber string

	// Metadata is an opaque JSON document handed to the voice session; the
	// session runtime echoes it back on session-started events.
	Metadata string
}

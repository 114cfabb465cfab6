package notifier

import "time"

// Call status values pushed to listeners.
const (
	StatusConnecting = "connecting"
	StatusConnected  = "connected"
	StatusSpeaking   = "speaking"
	StatusListening  = "listening"
	StatusEnded      = "ended"
	StatusError      = "error"
)

// Agent state values pushed to listeners.
const (
	AgentStateThinking  = "thinking"
	AgentStateSpeaking  = "speaking"
	AgentStateListening = "listening"
)

// Speaker tags on transcription events.
const (
	SpeakerAgent = "agent"
	SpeakerUser  = "user"
)

// TranscriptionEvent carries one committed utterance to the listener.
type TranscriptionEvent struct {
	Type      string  `json:"type"`
	CallID    string  `json:"call_id"`
	Text      string  `json:"text"`
	Speaker   string  `json:"speaker"`
	Timestamp float64 `json:"timestamp"`
}

// CallStatusEvent carries a call lifecycle status change.
type CallStatusEvent struct {
	Type     string         `json:"type"`
	CallID   string         `json:"call_id"`
	Status   string         `json:"status"`
	Metadata map[string]any `json:"metadata"`
}

// AgentStateEvent carries an agent speaking/listening/thinking transition.
type AgentStateEvent struct {
	Type   string `json:"type"`
	CallID string `json:"call_id"`
	State  string `json:"state"`
}

// ConnectionEstablishedEvent is sent once, immediately after a listener attaches.
type ConnectionEstablishedEvent struct {
	Type    string `json:"type"`
	CallID  string `json:"call_id"`
	Message string `json:"message"`
}

// TranscriptTurn is one turn inside a TranscriptCompleteEvent.
type TranscriptTurn struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// TranscriptCompleteEvent delivers the full transcript when a call ends.
type TranscriptCompleteEvent struct {
	Type       string           `json:"type"`
	CallID     string           `json:"call_id"`
	Transcript []TranscriptTurn `json:"transcript"`
}

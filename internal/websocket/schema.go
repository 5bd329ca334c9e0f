package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventTick      Event = "tick"
	EventExpired   Event = "expired"
	EventCompleted Event = "completed"
	EventError     Event = "error"
	EventPong      Event = "pong"
)

// TickResponse is pushed once per second while the attempt is active.
type TickResponse struct {
	Event            Event `json:"event"`
	RemainingSeconds int   `json:"remaining_seconds"`
}

// ExpiredResponse is pushed exactly once when the attempt window ends.
// The client is expected to auto-submit its local answer set in response.
type ExpiredResponse struct {
	Event Event `json:"event"`
}

// CompletedResponse is pushed when the attempt was finalized mid-stream,
// e.g. a submit from another tab.
type CompletedResponse struct {
	Event Event `json:"event"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}

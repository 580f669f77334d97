package websocket

import "github.com/pagehub/pagehub-backend/internal/model"

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventResult Event = "result"
	EventDone   Event = "done"
	EventError  Event = "error"
	EventPong   Event = "pong"
)

// ProgressEvent reports one page outcome of a multi-page publish.
type ProgressEvent struct {
	Event  Event               `json:"event"`
	Index  int                 `json:"index"`
	Total  int                 `json:"total"`
	Result model.PublishResult `json:"result"`
}

// DoneEvent is the terminal event of a publish dispatch. Error is set when
// the dispatch aborted.
type DoneEvent struct {
	Event     Event  `json:"event"`
	Total     int    `json:"total"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
	Error     string `json:"error,omitempty"`
}

// ErrorResponse is sent when the stream cannot be served.
type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const ActionPing Action = "ping"

// RequestEnvelope is used to peek at the action of a client frame.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

type PongResponse struct {
	Event Event `json:"event"`
}

package ws

import "github.com/ChamsBouzaiene/relay/internal/engine"

// inboundFrame is one client message on the WebSocket channel.
type inboundFrame struct {
	Message string `json:"message"`
}

// outboundFrame is one server frame pushed to the client. The Type field
// selects which of the optional fields are populated.
type outboundFrame struct {
	Type      string `json:"type"` // "connection" | "tool_use" | "response" | "error"
	Status    string `json:"status,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Tool      string `json:"tool,omitempty"`
	Content   string `json:"content,omitempty"`
}

// frameFor converts an engine notification into the wire frame shape.
func frameFor(sessionID string, n engine.Notification) outboundFrame {
	switch n.Kind {
	case engine.NotifyConnection:
		return outboundFrame{Type: "connection", Status: n.Status, SessionID: sessionID}
	case engine.NotifyToolUse:
		return outboundFrame{Type: "tool_use", Tool: n.Tool, Status: n.Status}
	case engine.NotifyResponse:
		return outboundFrame{Type: "response", Content: n.Content}
	default:
		return outboundFrame{Type: "error", Content: n.Content}
	}
}

package engine

// NotificationKind enumerates the progress events pushed toward a client.
type NotificationKind string

const (
	NotifyConnection NotificationKind = "connection"
	NotifyToolUse    NotificationKind = "tool_use"
	NotifyResponse   NotificationKind = "response"
	NotifyError      NotificationKind = "error"
)

// Notification is one progress or result event for a session.
type Notification struct {
	Kind    NotificationKind
	Tool    string // tool name, for NotifyToolUse
	Status  string // "connected" or "completed"
	Content string // final text or error message
}

// Connected builds the connection-established notification.
func Connected() Notification {
	return Notification{Kind: NotifyConnection, Status: "connected"}
}

// ToolUseCompleted builds the post-completion notification for one tool invocation.
func ToolUseCompleted(toolName string) Notification {
	return Notification{Kind: NotifyToolUse, Tool: toolName, Status: "completed"}
}

// FinalResponse builds the final-text notification for a completed run.
func FinalResponse(text string) Notification {
	return Notification{Kind: NotifyResponse, Content: text}
}

// ErrorEvent builds the notification for a failed run.
func ErrorEvent(message string) Notification {
	return Notification{Kind: NotifyError, Content: message}
}

// Sink pushes notifications toward a connected client. Delivery is
// best-effort: implementations must never block or fail the caller, and must
// preserve emission order within a session.
type Sink interface {
	Notify(sessionID string, n Notification)
}

// NopSink discards all notifications.
type NopSink struct{}

func (NopSink) Notify(string, Notification) {}

// Package tools contains the built-in tool implementations and the registry
// constructor wiring them into the engine.
package tools

import (
	"github.com/ChamsBouzaiene/relay/internal/engine"
)

// NewRegistry creates the engine.Registry with all built-in tools.
func NewRegistry() engine.Registry {
	reg := make(engine.Registry)

	reg["fetch_user_data"] = NewFetchUserDataTool()
	reg["fetch_conversation_analytics"] = NewFetchConversationAnalyticsTool()

	return reg
}

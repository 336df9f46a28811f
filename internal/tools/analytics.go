package tools

import (
	"context"
	"encoding/json"

	"github.com/ChamsBouzaiene/relay/internal/engine"
)

// conversationAnalytics is the payload returned by fetch_conversation_analytics.
type conversationAnalytics struct {
	SessionID       string  `json:"session_id"`
	MessageCount    int     `json:"message_count"`
	AvgResponseTime float64 `json:"avg_response_time"`
	Sentiment       string  `json:"sentiment"`
}

// NewFetchConversationAnalyticsTool creates the fetch_conversation_analytics
// tool. Stateless and idempotent.
func NewFetchConversationAnalyticsTool() engine.Tool {
	return engine.Tool{
		Name:        "fetch_conversation_analytics",
		Description: "Fetch conversation analytics",
		SchemaJSON:  `{"type":"object","properties":{"session_id":{"type":"string"}},"required":["session_id"]}`,
		Fn: func(ctx context.Context, input map[string]any) (string, error) {
			sessionID, _ := input["session_id"].(string)
			if sessionID == "" {
				sessionID = "unknown"
			}

			data, err := json.Marshal(conversationAnalytics{
				SessionID:       sessionID,
				MessageCount:    5,
				AvgResponseTime: 1.2,
				Sentiment:       "positive",
			})
			if err != nil {
				return "", err
			}
			return string(data), nil
		},
	}
}

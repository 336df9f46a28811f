package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ChamsBouzaiene/relay/internal/engine"
)

// userProfile is the payload returned by fetch_user_data.
type userProfile struct {
	UserID        string `json:"user_id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	AccountStatus string `json:"account_status"`
}

func fetchUserData(userID string) userProfile {
	short := userID
	if len(short) > 8 {
		short = short[:8]
	}
	return userProfile{
		UserID:        userID,
		Name:          fmt.Sprintf("User %s", short),
		Email:         fmt.Sprintf("user%s@example.com", short),
		AccountStatus: "active",
	}
}

// NewFetchUserDataTool creates the fetch_user_data tool. It is stateless and
// idempotent: identical input always yields an identical result.
func NewFetchUserDataTool() engine.Tool {
	return engine.Tool{
		Name:        "fetch_user_data",
		Description: "Fetch user profile information",
		SchemaJSON:  `{"type":"object","properties":{"user_id":{"type":"string"}},"required":["user_id"]}`,
		Fn: func(ctx context.Context, input map[string]any) (string, error) {
			userID, _ := input["user_id"].(string)
			if userID == "" {
				userID = "unknown"
			}

			data, err := json.Marshal(fetchUserData(userID))
			if err != nil {
				return "", err
			}
			return string(data), nil
		},
	}
}

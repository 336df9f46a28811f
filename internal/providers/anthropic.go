// Package providers contains model-service adapters behind engine.ModelClient.
package providers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ChamsBouzaiene/relay/internal/engine"

	anthropic "github.com/liushuangls/go-anthropic/v2"
)

// AnthropicClient implements engine.ModelClient against the Anthropic
// Messages API.
type AnthropicClient struct {
	client *anthropic.Client
}

// NewAnthropicClient creates a new Anthropic client.
func NewAnthropicClient(apiKey string) *AnthropicClient {
	return &AnthropicClient{client: anthropic.NewClient(apiKey)}
}

// Complete implements engine.ModelClient.Complete.
func (c *AnthropicClient) Complete(ctx context.Context, req engine.ModelRequest) (engine.ModelResponse, error) {
	msgs, err := toAnthropicMessages(req.Turns)
	if err != nil {
		return engine.ModelResponse{}, err
	}

	toolDefs, err := toToolDefinitions(req.Tools)
	if err != nil {
		return engine.ModelResponse{}, err
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	apiReq := anthropic.MessagesRequest{
		Model:     anthropic.Model(req.Model),
		Messages:  msgs,
		MaxTokens: maxTokens,
	}
	if req.System != "" {
		apiReq.MultiSystem = []anthropic.MessageSystemPart{
			{Type: "text", Text: req.System},
		}
	}
	if len(toolDefs) > 0 {
		apiReq.Tools = toolDefs
	}

	resp, err := c.client.CreateMessages(ctx, apiReq)
	if err != nil {
		return engine.ModelResponse{}, fmt.Errorf("anthropic messages call: %w", err)
	}

	return fromAnthropicResponse(resp)
}

// toAnthropicMessages converts transcript turns to the wire message shape.
// Tool results already live in user-role carrier turns, so the mapping is
// block for block.
func toAnthropicMessages(turns []engine.Turn) ([]anthropic.Message, error) {
	msgs := make([]anthropic.Message, 0, len(turns))

	for _, turn := range turns {
		var content []anthropic.MessageContent
		for _, b := range turn.Blocks {
			switch b.Kind {
			case engine.BlockText:
				if b.Text == "" {
					continue
				}
				content = append(content, anthropic.NewTextMessageContent(b.Text))
			case engine.BlockToolUse:
				inputJSON, err := json.Marshal(b.ToolUse.Input)
				if err != nil {
					return nil, fmt.Errorf("marshal tool input for %s: %w", b.ToolUse.Name, err)
				}
				content = append(content, anthropic.NewToolUseMessageContent(
					b.ToolUse.ID,
					b.ToolUse.Name,
					json.RawMessage(inputJSON),
				))
			case engine.BlockToolResult:
				// Anthropic rejects empty content strings.
				rc := b.ToolResult.Content
				if rc == "" {
					rc = "{}"
				}
				content = append(content, anthropic.NewToolResultMessageContent(
					b.ToolResult.ToolUseID,
					rc,
					b.ToolResult.IsError,
				))
			}
		}
		if len(content) == 0 {
			continue
		}

		role := anthropic.RoleUser
		if turn.Role == engine.RoleAssistant {
			role = anthropic.RoleAssistant
		}
		msgs = append(msgs, anthropic.Message{Role: role, Content: content})
	}

	return msgs, nil
}

func toToolDefinitions(schemas []engine.ToolSchema) ([]anthropic.ToolDefinition, error) {
	var defs []anthropic.ToolDefinition
	for _, ts := range schemas {
		var schemaObj map[string]any
		if err := json.Unmarshal([]byte(ts.JSONSchema), &schemaObj); err != nil {
			return nil, fmt.Errorf("invalid tool schema JSON for %s: %w", ts.Name, err)
		}
		defs = append(defs, anthropic.ToolDefinition{
			Name:        ts.Name,
			Description: ts.Description,
			InputSchema: schemaObj,
		})
	}
	return defs, nil
}

func fromAnthropicResponse(resp anthropic.MessagesResponse) (engine.ModelResponse, error) {
	var blocks []engine.ContentBlock

	for _, block := range resp.Content {
		switch block.Type {
		case anthropic.MessagesContentTypeText:
			if block.Text != nil {
				blocks = append(blocks, engine.TextBlock(*block.Text))
			}
		case "tool_use":
			if block.MessageContentToolUse == nil || block.ID == "" || block.Name == "" {
				continue
			}
			input := make(map[string]any)
			if len(block.Input) > 0 {
				if err := json.Unmarshal(block.Input, &input); err != nil {
					input = make(map[string]any)
				}
			}
			blocks = append(blocks, engine.ToolUseBlock(block.ID, block.Name, input))
		}
	}

	stop := engine.StopEndTurn
	if resp.StopReason == "tool_use" {
		stop = engine.StopToolUse
	}

	return engine.ModelResponse{StopReason: stop, Blocks: blocks}, nil
}

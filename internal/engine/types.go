package engine

import (
	"context"
	"fmt"
)

// Role identifies who produced a turn in a transcript.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// BlockKind discriminates the content block variants.
type BlockKind string

const (
	BlockText       BlockKind = "text"
	BlockToolUse    BlockKind = "tool_use"
	BlockToolResult BlockKind = "tool_result"
)

// ToolUse is a tool invocation requested by the model inside an assistant turn.
type ToolUse struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}

// ToolResult answers exactly one ToolUse, matched by ToolUseID.
type ToolResult struct {
	ToolUseID string `json:"tool_use_id"`
	Content   string `json:"content"`
	IsError   bool   `json:"is_error,omitempty"`
}

// ContentBlock is a closed tagged union: exactly one of the payload fields is
// set, selected by Kind. Callers switch on Kind rather than probing fields.
type ContentBlock struct {
	Kind       BlockKind   `json:"kind"`
	Text       string      `json:"text,omitempty"`
	ToolUse    *ToolUse    `json:"tool_use,omitempty"`
	ToolResult *ToolResult `json:"tool_result,omitempty"`
}

// TextBlock builds a text content block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Kind: BlockText, Text: text}
}

// ToolUseBlock builds a tool invocation request block.
func ToolUseBlock(id, name string, input map[string]any) ContentBlock {
	return ContentBlock{Kind: BlockToolUse, ToolUse: &ToolUse{ID: id, Name: name, Input: input}}
}

// ToolResultBlock builds a tool result block keyed by the invocation id it answers.
func ToolResultBlock(toolUseID, content string, isError bool) ContentBlock {
	return ContentBlock{Kind: BlockToolResult, ToolResult: &ToolResult{ToolUseID: toolUseID, Content: content, IsError: isError}}
}

// Turn is a single role-tagged entry in a session transcript.
// Tool results travel in user-role turns holding only tool_result blocks;
// this is the message shape the model service requires.
type Turn struct {
	Role   Role           `json:"role"`
	Blocks []ContentBlock `json:"blocks"`
}

// UserText builds a plain-text user turn.
func UserText(text string) Turn {
	return Turn{Role: RoleUser, Blocks: []ContentBlock{TextBlock(text)}}
}

// AssistantText builds a plain-text assistant turn.
func AssistantText(text string) Turn {
	return Turn{Role: RoleAssistant, Blocks: []ContentBlock{TextBlock(text)}}
}

// Validate checks the turn for structural problems before it is appended.
func (t Turn) Validate() error {
	switch t.Role {
	case RoleUser, RoleAssistant:
	default:
		return fmt.Errorf("invalid turn role: %s", t.Role)
	}
	if len(t.Blocks) == 0 {
		return fmt.Errorf("turn has no content blocks")
	}
	for i, b := range t.Blocks {
		switch b.Kind {
		case BlockText:
		case BlockToolUse:
			if b.ToolUse == nil {
				return fmt.Errorf("block %d: tool_use block without payload", i)
			}
		case BlockToolResult:
			if b.ToolResult == nil {
				return fmt.Errorf("block %d: tool_result block without payload", i)
			}
		default:
			return fmt.Errorf("block %d: unknown block kind: %s", i, b.Kind)
		}
	}
	return nil
}

// StopReason is the model service's signal of whether it needs tool results
// before it can produce final output.
type StopReason string

const (
	StopToolUse StopReason = "tool_use"
	StopEndTurn StopReason = "end_turn"
)

// ModelRequest is one call to the model service.
type ModelRequest struct {
	Model     string
	MaxTokens int
	System    string
	Tools     []ToolSchema
	Turns     []Turn
}

// ModelResponse is a normalized result of one model call.
type ModelResponse struct {
	StopReason StopReason
	Blocks     []ContentBlock
}

// ToolUses returns the tool invocation requests in block order.
func (r ModelResponse) ToolUses() []ToolUse {
	var uses []ToolUse
	for _, b := range r.Blocks {
		if b.Kind == BlockToolUse && b.ToolUse != nil {
			uses = append(uses, *b.ToolUse)
		}
	}
	return uses
}

// ModelClient abstracts the language-model service (Anthropic, a stub, etc.)
type ModelClient interface {
	Complete(ctx context.Context, req ModelRequest) (ModelResponse, error)
}

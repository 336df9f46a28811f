package engine

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
)

// TranscriptStore is the orchestrator's view of per-session state. BeginRun
// must serialize runs per session id: at most one in-flight run per session,
// runs for different sessions fully parallel.
type TranscriptStore interface {
	BeginRun(sessionID string) (release func(), err error)
	AppendTurn(sessionID string, t Turn) error
	Transcript(sessionID string) ([]Turn, error)
}

// Config holds the orchestrator knobs forwarded to the model service.
type Config struct {
	Model     string
	MaxTokens int
	System    string
	MaxRounds int // model round-trips allowed per user turn
}

// DefaultMaxRounds bounds the tool-call loop against a model service that
// never stops asking for tools.
const DefaultMaxRounds = 8

// Orchestrator drives the tool-call loop: it resolves one newly appended user
// turn into one final assistant turn, dispatching tool invocations and
// stitching their results back into the transcript between model calls.
type Orchestrator struct {
	llm   ModelClient
	tools Registry
	store TranscriptStore
	sink  Sink
	cfg   Config
}

// New creates an orchestrator. A nil sink is replaced with NopSink.
func New(llm ModelClient, tools Registry, store TranscriptStore, sink Sink, cfg Config) *Orchestrator {
	if sink == nil {
		sink = NopSink{}
	}
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = DefaultMaxRounds
	}
	return &Orchestrator{llm: llm, tools: tools, store: store, sink: sink, cfg: cfg}
}

// Respond appends userMessage to the session's transcript and loops against
// the model service until it yields a final answer instead of a tool request.
// The returned text is the ordered concatenation of every text fragment from
// every response observed during the run, including intermediate
// tool-requesting responses.
//
// On failure the run aborts without appending a partial assistant turn;
// tool-request/tool-result turns from completed rounds stay in the transcript.
func (o *Orchestrator) Respond(ctx context.Context, sessionID, userMessage string) (string, error) {
	release, err := o.store.BeginRun(sessionID)
	if err != nil {
		return "", err
	}
	defer release()

	if err := o.store.AppendTurn(sessionID, UserText(userMessage)); err != nil {
		return "", err
	}

	schemas := o.tools.Schemas()
	var text strings.Builder

	for round := 0; round < o.cfg.MaxRounds; round++ {
		turns, err := o.store.Transcript(sessionID)
		if err != nil {
			return "", err
		}

		resp, err := o.llm.Complete(ctx, ModelRequest{
			Model:     o.cfg.Model,
			MaxTokens: o.cfg.MaxTokens,
			System:    o.cfg.System,
			Tools:     schemas,
			Turns:     turns,
		})
		if err != nil {
			return "", &ModelServiceError{Err: err}
		}

		for _, b := range resp.Blocks {
			if b.Kind == BlockText {
				text.WriteString(b.Text)
			}
		}

		if resp.StopReason != StopToolUse {
			final := text.String()
			if err := o.store.AppendTurn(sessionID, AssistantText(final)); err != nil {
				return "", err
			}
			return final, nil
		}

		if err := o.runToolRound(ctx, sessionID, resp); err != nil {
			return "", err
		}
	}

	log.Warn().Str("session_id", sessionID).Int("max_rounds", o.cfg.MaxRounds).
		Msg("tool-call loop exceeded round limit")
	return "", ErrLoopLimitExceeded
}

// runToolRound resolves every tool invocation in resp and appends the two
// turns the model service's protocol mandates: the assistant turn carrying
// the requests, then a single user-role carrier turn holding all results in
// invocation order.
func (o *Orchestrator) runToolRound(ctx context.Context, sessionID string, resp ModelResponse) error {
	uses := resp.ToolUses()
	results := make([]ContentBlock, 0, len(uses))

	for _, use := range uses {
		content, isError := o.tools.Resolve(ctx, use.Name, use.Input)
		log.Debug().Str("session_id", sessionID).Str("tool", use.Name).
			Bool("is_error", isError).Msg("tool invocation completed")
		o.sink.Notify(sessionID, ToolUseCompleted(use.Name))
		results = append(results, ToolResultBlock(use.ID, content, isError))
	}

	if err := o.store.AppendTurn(sessionID, Turn{Role: RoleAssistant, Blocks: resp.Blocks}); err != nil {
		return err
	}
	return o.store.AppendTurn(sessionID, Turn{Role: RoleUser, Blocks: results})
}

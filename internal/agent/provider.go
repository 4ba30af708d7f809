// Package agent drives the copilot's multi-turn reasoning: it sends the
// conversation transcript to a hosted model backend, executes the tool
// calls the model emits through the dispatch engine, and appends completed
// turns to the transcript store.
package agent

import (
	"context"

	"go.uber.org/zap"

	"github.com/0xeb/lldb-copilot/internal/config"
	cperrors "github.com/0xeb/lldb-copilot/internal/errors"
	"github.com/0xeb/lldb-copilot/pkg/types"
)

// systemInstructions frames the model as a debugger copilot and describes
// its one tool.
const systemInstructions = `You are an expert debugging assistant operating a live LLDB session.
You answer questions about the debugged process by running native LLDB commands
through the lldb_command tool and reasoning over their output.
Run commands as needed (bt, frame variable, thread list, memory read, image lookup, ...),
then answer concisely. If a command fails, read the error and adjust rather than
repeating it. Never invent output you did not observe.`

// toolDescription documents the lldb_command tool for the model.
const toolDescription = "Execute one native LLDB command in the current debug session and return its output. " +
	"Example commands: 'bt', 'frame variable', 'thread list', 'memory read --size 4 --count 8 0x1000', " +
	"'image lookup -a 0x4005d0'."

// Reply is one model round trip: free text, tool-call requests, or both.
// A reply with no tool calls is a final answer.
type Reply struct {
	Text      string
	ToolCalls []types.ToolCall
}

// Provider is the hosted-agent capability: given the turn history so far,
// produce the next reply. Implementations must be stateless across calls;
// all context travels in the history.
type Provider interface {
	Name() string
	Complete(ctx context.Context, history []types.Turn) (*Reply, error)
}

// NewProvider builds the provider selected in the settings.
func NewProvider(ctx context.Context, settings *config.Settings, logger *zap.Logger) (Provider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch settings.Provider {
	case config.ProviderGemini:
		if settings.Gemini.APIKey == "" {
			return nil, cperrors.AgentAuth(config.ProviderGemini)
		}
		return newGeminiProvider(ctx, settings.Gemini, logger)
	case config.ProviderOpenAI:
		if settings.OpenAI.APIKey == "" && settings.OpenAI.BaseURL == "" {
			return nil, cperrors.AgentAuth(config.ProviderOpenAI)
		}
		return newOpenAIProvider(settings.OpenAI, logger), nil
	default:
		return nil, cperrors.ConfigInvalid("unknown provider '"+settings.Provider+"'", nil)
	}
}

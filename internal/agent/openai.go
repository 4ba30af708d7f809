package agent

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"

	"github.com/0xeb/lldb-copilot/internal/config"
	cperrors "github.com/0xeb/lldb-copilot/internal/errors"
	"github.com/0xeb/lldb-copilot/pkg/types"
)

// openaiProvider implements Provider against any OpenAI-compatible chat
// completion endpoint (including local servers via base_url).
type openaiProvider struct {
	client openai.Client
	model  string
	logger *zap.Logger
}

var _ Provider = (*openaiProvider)(nil)

func newOpenAIProvider(cfg config.OpenAISettings, logger *zap.Logger) *openaiProvider {
	var opts []option.RequestOption
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}

	return &openaiProvider{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
		logger: logger,
	}
}

func (p *openaiProvider) Name() string { return config.ProviderOpenAI }

// Complete sends the turn history as a chat completion request.
func (p *openaiProvider) Complete(ctx context.Context, history []types.Turn) (*Reply, error) {
	p.logger.Debug("openai round trip",
		zap.String("model", p.model),
		zap.Int("turns", len(history)))

	param := openai.ChatCompletionNewParams{
		Model:    p.model,
		Messages: openaiMessages(history),
		Tools:    openaiToolParams(),
	}

	completion, err := p.client.Chat.Completions.New(ctx, param)
	if err != nil {
		return nil, cperrors.AgentUnavailable(config.ProviderOpenAI, err)
	}
	if len(completion.Choices) == 0 {
		return nil, cperrors.AgentUnavailable(config.ProviderOpenAI, errNoChoices)
	}

	return openaiReply(completion.Choices[0].Message), nil
}

var errNoChoices = &noChoicesError{}

type noChoicesError struct{}

func (*noChoicesError) Error() string { return "completion contained no choices" }

// openaiMessages converts transcript turns to chat messages. Agent turns
// become assistant messages carrying tool calls; tool turns become tool
// messages keyed by tool call ID.
func openaiMessages(history []types.Turn) []openai.ChatCompletionMessageParamUnion {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(systemInstructions),
	}

	for _, turn := range history {
		switch turn.Role {
		case types.RoleUser:
			messages = append(messages, openai.UserMessage(turn.Content))

		case types.RoleAgent:
			msg := openai.AssistantMessage(turn.Content)
			for _, call := range turn.ToolCalls {
				args, err := json.Marshal(call.Arguments)
				if err != nil {
					args = []byte("{}")
				}
				msg.OfAssistant.ToolCalls = append(msg.OfAssistant.ToolCalls,
					openai.ChatCompletionMessageToolCallUnionParam{
						OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
							ID: call.ID,
							Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
								Name:      call.Name,
								Arguments: string(args),
							},
						},
					})
			}
			messages = append(messages, msg)

		case types.RoleTool:
			// A tool turn carries both the call and its result. The
			// wire protocol wants them as an assistant tool_calls
			// message followed by tool messages, so rebuild that pair.
			msg := openai.AssistantMessage("")
			for _, call := range turn.ToolCalls {
				args, err := json.Marshal(call.Arguments)
				if err != nil {
					args = []byte("{}")
				}
				msg.OfAssistant.ToolCalls = append(msg.OfAssistant.ToolCalls,
					openai.ChatCompletionMessageToolCallUnionParam{
						OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
							ID: call.ID,
							Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
								Name:      call.Name,
								Arguments: string(args),
							},
						},
					})
			}
			if len(msg.OfAssistant.ToolCalls) == 0 {
				continue
			}
			messages = append(messages, msg)
			for _, call := range turn.ToolCalls {
				messages = append(messages, openai.ToolMessage(toolResultPayload(call.Result), call.ID))
			}
		}
	}

	return messages
}

func openaiToolParams() []openai.ChatCompletionToolUnionParam {
	return []openai.ChatCompletionToolUnionParam{
		{
			OfFunction: &openai.ChatCompletionFunctionToolParam{
				Function: openai.FunctionDefinitionParam{
					Name:        types.ToolLLDBCommand,
					Description: openai.String(toolDescription),
					Parameters: openai.FunctionParameters{
						"type": "object",
						"properties": map[string]any{
							"command": map[string]string{
								"type":        "string",
								"description": "The LLDB command to execute.",
							},
						},
						"required": []string{"command"},
					},
				},
			},
		},
	}
}

// openaiReply extracts text and tool calls from a completion message.
func openaiReply(msg openai.ChatCompletionMessage) *Reply {
	reply := &Reply{Text: msg.Content}

	for _, call := range msg.ToolCalls {
		var args map[string]any
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			args = map[string]any{}
		}
		id := call.ID
		if id == "" {
			id = "call-" + uuid.New().String()
		}
		reply.ToolCalls = append(reply.ToolCalls, types.ToolCall{
			ID:        id,
			Name:      call.Function.Name,
			Arguments: args,
		})
	}

	return reply
}

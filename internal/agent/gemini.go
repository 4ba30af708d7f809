package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/0xeb/lldb-copilot/internal/config"
	cperrors "github.com/0xeb/lldb-copilot/internal/errors"
	"github.com/0xeb/lldb-copilot/pkg/types"
)

// geminiProvider implements Provider using the Google Gen AI SDK.
type geminiProvider struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

var _ Provider = (*geminiProvider)(nil)

func newGeminiProvider(ctx context.Context, cfg config.GeminiSettings, logger *zap.Logger) (*geminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, cperrors.AgentUnavailable(config.ProviderGemini, err)
	}
	return &geminiProvider{
		client: client,
		model:  cfg.Model,
		logger: logger,
	}, nil
}

func (p *geminiProvider) Name() string { return config.ProviderGemini }

// Complete sends the turn history to Gemini and collects the reply.
func (p *geminiProvider) Complete(ctx context.Context, history []types.Turn) (*Reply, error) {
	p.logger.Debug("gemini round trip",
		zap.String("model", p.model),
		zap.Int("turns", len(history)))

	contents := geminiContents(history)

	cfg := &genai.GenerateContentConfig{
		Tools: geminiToolDeclarations(),
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemInstructions}},
		},
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, cfg)
	if err != nil {
		return nil, cperrors.AgentUnavailable(config.ProviderGemini, err)
	}

	return geminiReply(resp), nil
}

// geminiContents converts transcript turns to genai content. Agent turns
// become model turns (text plus function calls); tool turns become user
// turns carrying function responses.
func geminiContents(history []types.Turn) []*genai.Content {
	var contents []*genai.Content

	for _, turn := range history {
		switch turn.Role {
		case types.RoleUser:
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []*genai.Part{{Text: turn.Content}},
			})

		case types.RoleAgent:
			var parts []*genai.Part
			if turn.Content != "" {
				parts = append(parts, &genai.Part{Text: turn.Content})
			}
			for _, call := range turn.ToolCalls {
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{
						ID:   call.ID,
						Name: call.Name,
						Args: call.Arguments,
					},
				})
			}
			if len(parts) > 0 {
				contents = append(contents, &genai.Content{
					Role:  "model",
					Parts: parts,
				})
			}

		case types.RoleTool:
			// A tool turn carries both the call and its result. The
			// API wants a model functionCall before each
			// functionResponse, so rebuild that pair.
			var calls []*genai.Part
			var responses []*genai.Part
			for _, call := range turn.ToolCalls {
				calls = append(calls, &genai.Part{
					FunctionCall: &genai.FunctionCall{
						ID:   call.ID,
						Name: call.Name,
						Args: call.Arguments,
					},
				})
				responses = append(responses, &genai.Part{
					FunctionResponse: &genai.FunctionResponse{
						ID:   call.ID,
						Name: call.Name,
						Response: map[string]any{
							"result": toolResultPayload(call.Result),
						},
					},
				})
			}
			if len(calls) > 0 {
				contents = append(contents, &genai.Content{
					Role:  "model",
					Parts: calls,
				})
				contents = append(contents, &genai.Content{
					Role:  "user",
					Parts: responses,
				})
			}
		}
	}

	return contents
}

// toolResultPayload renders a tool result for the model.
func toolResultPayload(result *types.ToolResult) string {
	if result == nil {
		return "(no result)"
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf("output: %s error: %s", result.Output, result.Error)
	}
	return string(data)
}

func geminiToolDeclarations() []*genai.Tool {
	return []*genai.Tool{
		{
			FunctionDeclarations: []*genai.FunctionDeclaration{
				{
					Name:        types.ToolLLDBCommand,
					Description: toolDescription,
					Parameters: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"command": {
								Type:        genai.TypeString,
								Description: "The LLDB command to execute.",
							},
						},
						Required: []string{"command"},
					},
				},
			},
		},
	}
}

// geminiReply extracts text and tool calls from a generate response.
func geminiReply(resp *genai.GenerateContentResponse) *Reply {
	reply := &Reply{}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.Text != "" {
				reply.Text += part.Text
			}
			if part.FunctionCall != nil {
				id := part.FunctionCall.ID
				if id == "" {
					id = "call-" + uuid.New().String()
				}
				reply.ToolCalls = append(reply.ToolCalls, types.ToolCall{
					ID:        id,
					Name:      part.FunctionCall.Name,
					Arguments: part.FunctionCall.Args,
				})
			}
		}
	}

	return reply
}

// Package openai adapts the OpenAI Responses API (or an OpenAI-compatible
// endpoint such as OpenRouter) to the llm.Model interface.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"

	"github.com/bebeku/farm/pkg/llm"
)

const defaultModel = "gpt-4o-mini"

// Config configures the Responses client. BaseURL is optional.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	MaxRetries int
}

// Client implements llm.Model over the Responses API function calling.
type Client struct {
	client *openai.Client
	model  string
}

var _ llm.Model = (*Client)(nil)

// NewClient builds a Responses API client.
func NewClient(cfg Config) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")+"/"))
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	client := openai.NewClient(opts...)
	return &Client{client: &client, model: cfg.Model}
}

// Complete sends the conversation and returns the text and function calls.
func (c *Client) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(c.model),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: toInput(req.Messages),
		},
		Tools: toTools(req.Tools),
	}
	if req.System != "" {
		params.Instructions = openai.String(req.System)
	}
	if req.MaxTokens > 0 {
		params.MaxOutputTokens = openai.Int(int64(req.MaxTokens))
	}

	resp, err := c.client.Responses.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai responses error: %w", err)
	}

	out := &llm.Response{
		Text:       strings.TrimSpace(resp.OutputText()),
		StopReason: string(resp.Status),
	}
	for _, item := range resp.Output {
		if item.Type != "function_call" {
			continue
		}
		call := item.AsFunctionCall()
		args := json.RawMessage(call.Arguments)
		if len(args) == 0 {
			args = json.RawMessage("{}")
		}
		out.ToolCalls = append(out.ToolCalls, llm.ToolCall{ID: call.CallID, Name: call.Name, Arguments: args})
	}
	return out, nil
}

func toInput(history []llm.Message) responses.ResponseInputParam {
	items := make(responses.ResponseInputParam, 0, len(history))
	for _, m := range history {
		if m.Text != "" {
			role := responses.EasyInputMessageRoleUser
			if m.Role == llm.RoleAssistant {
				role = responses.EasyInputMessageRoleAssistant
			}
			items = append(items, responses.ResponseInputItemParamOfMessage(m.Text, role))
		}
		for _, call := range m.ToolCalls {
			args := string(call.Arguments)
			if args == "" {
				args = "{}"
			}
			items = append(items, responses.ResponseInputItemParamOfFunctionCall(args, call.ID, call.Name))
		}
		for _, res := range m.ToolResults {
			items = append(items, responses.ResponseInputItemParamOfFunctionCallOutput(res.CallID, res.Content))
		}
	}
	return items
}

func toTools(specs []llm.ToolSpec) []responses.ToolUnionParam {
	out := make([]responses.ToolUnionParam, 0, len(specs))
	for _, t := range specs {
		out = append(out, responses.ToolUnionParam{
			OfFunction: &responses.FunctionToolParam{
				Name:        t.Name,
				Description: openai.String(t.Description),
				Parameters:  t.InputSchema,
				Strict:      openai.Bool(false),
			},
		})
	}
	return out
}

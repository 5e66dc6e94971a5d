package agent

import (
	"context"
	"errors"
	"fmt"
	"math"

	openai "github.com/sashabaranov/go-openai"
)

var ErrNoAPIKey = errors.New("openai: api key is not configured")

// OpenAIModel talks to any OpenAI-compatible Chat Completions endpoint.
// It holds only the process credentials and is shared by all turns.
type OpenAIModel struct {
	client *openai.Client
	model  string
}

func NewOpenAIModel(apiKey, model, baseURL string) (*OpenAIModel, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &OpenAIModel{client: openai.NewClientWithConfig(cfg), model: model}, nil
}

func (m *OpenAIModel) Complete(ctx context.Context, request Request) (*Response, error) {
	req := openai.ChatCompletionRequest{
		Model:    m.model,
		Messages: toWireMessages(request.Messages),
		// a literal 0 is dropped by omitempty
		Temperature: math.SmallestNonzeroFloat32,
	}

	for _, spec := range request.Tools {
		req.Tools = append(req.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        string(spec.Name),
				Description: spec.Description,
				Parameters:  spec.Parameters,
			},
		})
	}

	resp, err := m.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("chat completion: no choices returned")
	}

	msg := resp.Choices[0].Message
	out := &Response{Content: msg.Content}
	for _, tc := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out, nil
}

func toWireMessages(msgs []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		wm := openai.ChatCompletionMessage{
			Role:       string(m.Role),
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			wm.ToolCalls = append(wm.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		out = append(out, wm)
	}
	return out
}

// unavailableModel stands in when no API key is configured so that chat
// turns still complete with the apology reply.
type unavailableModel struct{}

func (unavailableModel) Complete(context.Context, Request) (*Response, error) {
	return nil, ErrNoAPIKey
}

// NewModel returns the OpenAI model, or a model that always fails when the
// API key is missing.
func NewModel(apiKey, model, baseURL string) (Model, error) {
	m, err := NewOpenAIModel(apiKey, model, baseURL)
	if errors.Is(err, ErrNoAPIKey) {
		return unavailableModel{}, err
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

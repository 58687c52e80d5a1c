package coach

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// ErrAgentUnavailable means the reasoning agent cannot be reached or is not
// configured. It never crosses the session boundary: callers convert it into
// the canned degraded report.
var ErrAgentUnavailable = errors.New("reasoning agent unavailable")

// Completer is the opaque text-completion function the reasoning agent is
// reduced to. Whatever tool-calling loop runs behind it is not this package's
// concern.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

const defaultAgentModel = "gpt-4o-mini"

// OpenAICompleter backs Completer with a chat-completion call.
type OpenAICompleter struct {
	client *openai.Client
	model  string
}

// NewOpenAICompleter builds a completer. A missing API key yields
// ErrAgentUnavailable so the caller can run in degraded mode instead of
// failing startup. baseURL is optional and supports OpenAI-compatible
// endpoints.
func NewOpenAICompleter(apiKey, model, baseURL string) (*OpenAICompleter, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("api key not set: %w", ErrAgentUnavailable)
	}
	if strings.TrimSpace(model) == "" {
		model = defaultAgentModel
	}
	clientCfg := openai.DefaultConfig(apiKey)
	if strings.TrimSpace(baseURL) != "" {
		clientCfg.BaseURL = strings.TrimSpace(baseURL)
	}
	return &OpenAICompleter{client: openai.NewClientWithConfig(clientCfg), model: model}, nil
}

func (o *OpenAICompleter) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: 0.2,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("agent completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("agent returned no choices: %w", ErrAgentUnavailable)
	}
	return resp.Choices[0].Message.Content, nil
}

package ai

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

// OllamaProvider talks to a local ollama daemon. No credential is involved.
type OllamaProvider struct {
	client *api.Client
	model  string
}

// NewOllamaProvider uses OLLAMA_HOST when baseURL is empty.
func NewOllamaProvider(baseURL, model string, timeout time.Duration) (*OllamaProvider, error) {
	if baseURL == "" {
		client, err := api.ClientFromEnvironment()
		if err != nil {
			return nil, err
		}
		return &OllamaProvider{client: client, model: model}, nil
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	return &OllamaProvider{
		client: api.NewClient(u, &http.Client{Timeout: timeout}),
		model:  model,
	}, nil
}

func (p *OllamaProvider) Complete(ctx context.Context, msgs []Message) (string, error) {
	stream := false
	req := &api.ChatRequest{
		Model:    p.model,
		Messages: make([]api.Message, 0, len(msgs)),
		Stream:   &stream,
	}
	for _, m := range msgs {
		req.Messages = append(req.Messages, api.Message{Role: m.Role, Content: m.Content})
	}

	var out strings.Builder
	err := p.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		out.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		var statusErr api.StatusError
		if errors.As(err, &statusErr) {
			return "", fromStatus(statusErr.StatusCode, statusErr.ErrorMessage)
		}
		var authErr api.AuthorizationError
		if errors.As(err, &authErr) {
			return "", fromStatus(authErr.StatusCode, authErr.Status)
		}
		return "", upstream("ollama request failed: %v", err)
	}
	return out.String(), nil
}

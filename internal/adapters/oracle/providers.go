package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Provider name constants.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderScripted  = "scripted"
)

const (
	defaultOpenAIBaseURL    = "https://api.openai.com"
	defaultAnthropicBaseURL = "https://api.anthropic.com"
	anthropicVersion        = "2023-06-01"
	defaultHTTPTimeout      = 120 * time.Second
	maxResponseBytes        = 4 << 20
)

// ErrUnknownProvider is returned by New for unrecognized provider names.
var ErrUnknownProvider = errors.New("unknown oracle provider")

// New builds the configured oracle. The provider switch happens here,
// once; callers only ever see the Oracle interface.
func New(cfg Config) (Oracle, error) {
	switch cfg.Provider {
	case ProviderOpenAI, ProviderAnthropic:
		return newHTTPOracle(cfg)
	case ProviderScripted:
		return NewScripted(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}

// httpOracle is a thin JSON client for hosted completion APIs.
type httpOracle struct {
	provider string
	baseURL  string
	apiKey   string
	model    string
	client   *http.Client
}

func newHTTPOracle(cfg Config) (*httpOracle, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: api key is required", cfg.Provider)
	}
	base := cfg.BaseURL
	if base == "" {
		if cfg.Provider == ProviderOpenAI {
			base = defaultOpenAIBaseURL
		} else {
			base = defaultAnthropicBaseURL
		}
	}
	return &httpOracle{
		provider: cfg.Provider,
		baseURL:  base,
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		client:   &http.Client{Timeout: defaultHTTPTimeout},
	}, nil
}

func (h *httpOracle) Generate(ctx context.Context, req Request) (Response, error) {
	body, path := h.encode(req)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return Response{}, Fatal(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if h.provider == ProviderAnthropic {
		httpReq.Header.Set("x-api-key", h.apiKey)
		httpReq.Header.Set("anthropic-version", anthropicVersion)
	} else {
		httpReq.Header.Set("Authorization", "Bearer "+h.apiKey)
	}

	resp, err := h.client.Do(httpReq)
	if err != nil {
		// Network failures and timeouts are retryable.
		return Response{}, Transient(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Response{}, Transient(err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return Response{}, Transient(fmt.Errorf("%s: status %d", h.provider, resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return Response{}, Fatal(fmt.Errorf("%s: status %d: %s", h.provider, resp.StatusCode, truncate(data)))
	}

	content, err := h.decode(data)
	if err != nil {
		return Response{}, Malformed(err)
	}
	return Response{Content: content}, nil
}

// encode builds the provider request body and endpoint path.
func (h *httpOracle) encode(req Request) ([]byte, string) {
	if h.provider == ProviderAnthropic {
		body, _ := json.Marshal(map[string]any{
			"model":      h.model,
			"max_tokens": 4096,
			"messages": []map[string]string{
				{"role": "user", "content": req.Prompt},
			},
			"temperature": req.Temperature,
		})
		return body, "/v1/messages"
	}
	body, _ := json.Marshal(map[string]any{
		"model": h.model,
		"messages": []map[string]string{
			{"role": "user", "content": req.Prompt},
		},
		"temperature": req.Temperature,
	})
	return body, "/v1/chat/completions"
}

// decode extracts the generated text from the provider reply.
func (h *httpOracle) decode(data []byte) (string, error) {
	if h.provider == ProviderAnthropic {
		var reply struct {
			Content []struct {
				Text string `json:"text"`
			} `json:"content"`
		}
		if err := json.Unmarshal(data, &reply); err != nil {
			return "", fmt.Errorf("decode anthropic reply: %w", err)
		}
		if len(reply.Content) == 0 || reply.Content[0].Text == "" {
			return "", errors.New("anthropic reply has no content")
		}
		return reply.Content[0].Text, nil
	}

	var reply struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(data, &reply); err != nil {
		return "", fmt.Errorf("decode openai reply: %w", err)
	}
	if len(reply.Choices) == 0 || reply.Choices[0].Message.Content == "" {
		return "", errors.New("openai reply has no choices")
	}
	return reply.Choices[0].Message.Content, nil
}

func truncate(data []byte) string {
	const limit = 256
	if len(data) > limit {
		return string(data[:limit]) + "..."
	}
	return string(data)
}

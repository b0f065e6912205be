package llm

import (
	"context"
	"encoding/json"
	"time"
)

// AnthropicProvider implements the Provider interface for Anthropic Claude.
// Anthropic streams its own event dialect (message_start, content_block_delta,
// message_delta) rather than the OpenAI one, and reports exact usage split
// across the first and last events.
type AnthropicProvider struct {
	baseProvider
}

// NewAnthropicProvider creates a new Anthropic provider.
func NewAnthropicProvider(cfg *ProviderConfig) *AnthropicProvider {
	return &AnthropicProvider{
		baseProvider: newBaseProvider(cfg, "anthropic"),
	}
}

type anthropicChatRequest struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature,omitempty"`
	Stream      bool               `json:"stream"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// anthropicStreamEvent is the union of the event payloads we care about.
type anthropicStreamEvent struct {
	Type    string `json:"type"`
	Message *struct {
		Usage struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	} `json:"message"`
	Delta *struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
	Usage *struct {
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete streams a chat completion from Anthropic.
func (p *AnthropicProvider) Complete(ctx context.Context, req *CompletionRequest) (*Completion, error) {
	if p.config.APIKey == "" {
		return nil, &ConfigError{Provider: p.config.Name, Missing: "API key"}
	}

	start := time.Now()
	timeout := p.callTimeout(req)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	antReq := anthropicChatRequest{
		Model:       req.Model,
		System:      req.SystemPrompt,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stream:      true,
	}
	if antReq.Model == "" {
		antReq.Model = p.config.Model
	}
	if antReq.MaxTokens == 0 {
		antReq.MaxTokens = p.config.MaxTokens
	}
	if antReq.Temperature == 0 {
		antReq.Temperature = p.config.Temperature
	}
	for _, msg := range req.Messages {
		antReq.Messages = append(antReq.Messages, anthropicMessage{Role: msg.Role, Content: msg.Content})
	}

	body, err := json.Marshal(antReq)
	if err != nil {
		return nil, &ProtocolError{Provider: p.config.Name, Detail: "marshal request", Err: err}
	}

	headers := map[string]string{
		"x-api-key":         p.config.APIKey,
		"anthropic-version": "2023-06-01",
	}
	resp, err := p.doStream(ctx, p.config.Endpoint+"/v1/messages", body, headers)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	sse := newSSEScanner(resp.Body)
	var inputTokens int
	next := func() (streamEvent, error) {
		_, data, err := sse.Next()
		if err != nil {
			return streamEvent{}, err
		}
		var event anthropicStreamEvent
		if err := json.Unmarshal(data, &event); err != nil {
			return streamEvent{}, &ProtocolError{Provider: p.config.Name, Detail: "decode event", Err: err}
		}

		switch event.Type {
		case "message_start":
			if event.Message != nil {
				inputTokens = event.Message.Usage.InputTokens
			}
			return streamEvent{}, nil
		case "content_block_delta":
			if event.Delta != nil && event.Delta.Type == "text_delta" {
				return streamEvent{Delta: event.Delta.Text}, nil
			}
			return streamEvent{}, nil
		case "message_delta":
			// Final usage: output tokens arrive here, input came with
			// message_start.
			if event.Usage != nil {
				return streamEvent{Usage: &streamUsage{
					InputTokens:  inputTokens,
					OutputTokens: event.Usage.OutputTokens,
				}}, nil
			}
			return streamEvent{}, nil
		case "message_stop":
			return streamEvent{Done: true}, nil
		case "error":
			msg := "backend reported error"
			if event.Error != nil {
				msg = event.Error.Message
			}
			return streamEvent{}, &BackendError{Provider: p.config.Name, Status: resp.StatusCode, Message: msg}
		default:
			// ping, content_block_start, content_block_stop
			return streamEvent{}, nil
		}
	}

	inputEstimate := estimateMessages(req.SystemPrompt, req.Messages)
	return collectStream(ctx, p.config.Name, timeout, start, inputEstimate, antReq.Model, req.OnDelta, next)
}

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"time"
)

// Five of the supported backends (OpenAI, Grok, Groq, DeepSeek, OpenRouter)
// speak the OpenAI chat-completions streaming dialect. This file holds the
// single wire implementation they share; each adapter contributes only its
// endpoint, headers, and identifier.

type oaiChatRequest struct {
	Model         string            `json:"model"`
	Messages      []oaiMessage      `json:"messages"`
	MaxTokens     int               `json:"max_tokens,omitempty"`
	Temperature   float64           `json:"temperature,omitempty"`
	Stream        bool              `json:"stream"`
	StreamOptions *oaiStreamOptions `json:"stream_options,omitempty"`
}

type oaiStreamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

type oaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// oaiStreamChunk is one SSE data frame of a streaming chat completion.
type oaiStreamChunk struct {
	Model   string `json:"model"`
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// completeOpenAICompatible runs one streaming chat-completion call for any
// backend speaking the OpenAI dialect. includeUsage asks for the terminal
// usage frame; backends that honor it get exact token accounting, the rest
// fall back to estimates.
func (b *baseProvider) completeOpenAICompatible(ctx context.Context, req *CompletionRequest, headers map[string]string, includeUsage bool) (*Completion, error) {
	if b.config.APIKey == "" {
		return nil, &ConfigError{Provider: b.config.Name, Missing: "API key"}
	}

	start := time.Now()
	timeout := b.callTimeout(req)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	oaiReq := oaiChatRequest{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stream:      true,
	}
	if oaiReq.Model == "" {
		oaiReq.Model = b.config.Model
	}
	if oaiReq.MaxTokens == 0 {
		oaiReq.MaxTokens = b.config.MaxTokens
	}
	if oaiReq.Temperature == 0 {
		oaiReq.Temperature = b.config.Temperature
	}
	if includeUsage {
		oaiReq.StreamOptions = &oaiStreamOptions{IncludeUsage: true}
	}

	if req.SystemPrompt != "" {
		oaiReq.Messages = append(oaiReq.Messages, oaiMessage{Role: "system", Content: req.SystemPrompt})
	}
	for _, msg := range req.Messages {
		oaiReq.Messages = append(oaiReq.Messages, oaiMessage{Role: msg.Role, Content: msg.Content})
	}

	body, err := json.Marshal(oaiReq)
	if err != nil {
		return nil, &ProtocolError{Provider: b.config.Name, Detail: "marshal request", Err: err}
	}

	resp, err := b.doStream(ctx, b.config.Endpoint+"/chat/completions", body, headers)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	sse := newSSEScanner(resp.Body)
	next := func() (streamEvent, error) {
		_, data, err := sse.Next()
		if err != nil {
			return streamEvent{}, err
		}
		if bytes.Equal(data, []byte("[DONE]")) {
			return streamEvent{Done: true}, nil
		}
		var chunk oaiStreamChunk
		if err := json.Unmarshal(data, &chunk); err != nil {
			return streamEvent{}, &ProtocolError{Provider: b.config.Name, Detail: "decode chunk", Err: err}
		}
		ev := streamEvent{}
		if len(chunk.Choices) > 0 {
			ev.Delta = chunk.Choices[0].Delta.Content
		}
		if chunk.Usage != nil {
			ev.Usage = &streamUsage{
				InputTokens:  chunk.Usage.PromptTokens,
				OutputTokens: chunk.Usage.CompletionTokens,
			}
		}
		return ev, nil
	}

	inputEstimate := estimateMessages(req.SystemPrompt, req.Messages)
	return collectStream(ctx, b.config.Name, timeout, start, inputEstimate, oaiReq.Model, req.OnDelta, next)
}

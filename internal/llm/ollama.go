package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// OllamaProvider implements the Provider interface for a local Ollama server.
// Ollama streams newline-delimited JSON chunks rather than SSE frames and
// reports exact usage (prompt_eval_count / eval_count) on the final chunk.
type OllamaProvider struct {
	baseProvider
}

// NewOllamaProvider creates a new Ollama provider.
func NewOllamaProvider(cfg *ProviderConfig) *OllamaProvider {
	return &OllamaProvider{
		baseProvider: newBaseProvider(cfg, "ollama"),
	}
}

// Available checks if Ollama is running and has at least one model.
// An Ollama endpoint with 0 models is not useful as a backend.
func (p *OllamaProvider) Available() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.Endpoint+"/api/tags", nil)
	if err != nil {
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	var result struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false
	}

	return len(result.Models) > 0
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  ollamaOptions   `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatChunk struct {
	Model           string        `json:"model"`
	Message         ollamaMessage `json:"message"`
	Done            bool          `json:"done"`
	PromptEvalCount int           `json:"prompt_eval_count"`
	EvalCount       int           `json:"eval_count"`
}

// Complete streams a chat completion from Ollama.
func (p *OllamaProvider) Complete(ctx context.Context, req *CompletionRequest) (*Completion, error) {
	start := time.Now()
	timeout := p.callTimeout(req)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	olReq := ollamaChatRequest{
		Model:  req.Model,
		Stream: true,
	}
	if olReq.Model == "" {
		olReq.Model = p.config.Model
	}
	if req.SystemPrompt != "" {
		olReq.Messages = append(olReq.Messages, ollamaMessage{Role: "system", Content: req.SystemPrompt})
	}
	for _, msg := range req.Messages {
		olReq.Messages = append(olReq.Messages, ollamaMessage{Role: msg.Role, Content: msg.Content})
	}
	olReq.Options.Temperature = req.Temperature
	if olReq.Options.Temperature == 0 {
		olReq.Options.Temperature = p.config.Temperature
	}
	olReq.Options.NumPredict = req.MaxTokens
	if olReq.Options.NumPredict == 0 {
		olReq.Options.NumPredict = p.config.MaxTokens
	}

	body, err := json.Marshal(olReq)
	if err != nil {
		return nil, &ProtocolError{Provider: p.config.Name, Detail: "marshal request", Err: err}
	}

	resp, err := p.doStream(ctx, p.config.Endpoint+"/api/chat", body, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	decoder := json.NewDecoder(resp.Body)
	next := func() (streamEvent, error) {
		var chunk ollamaChatChunk
		if err := decoder.Decode(&chunk); err != nil {
			return streamEvent{}, err
		}
		ev := streamEvent{Delta: chunk.Message.Content, Done: chunk.Done}
		if chunk.Done {
			ev.Usage = &streamUsage{
				InputTokens:  chunk.PromptEvalCount,
				OutputTokens: chunk.EvalCount,
			}
		}
		return ev, nil
	}

	inputEstimate := estimateMessages(req.SystemPrompt, req.Messages)
	return collectStream(ctx, p.config.Name, timeout, start, inputEstimate, olReq.Model, req.OnDelta, next)
}

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// GeminiProvider implements the Provider interface for Google Gemini.
type GeminiProvider struct {
	baseProvider
}

// NewGeminiProvider creates a new Gemini provider.
func NewGeminiProvider(cfg *ProviderConfig) *GeminiProvider {
	return &GeminiProvider{
		baseProvider: newBaseProvider(cfg, "gemini"),
	}
}

type geminiGenerateRequest struct {
	Contents          []geminiContent `json:"contents"`
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	GenerationConfig  struct {
		MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
		Temperature     float64 `json:"temperature,omitempty"`
	} `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

// geminiStreamChunk is one SSE frame of streamGenerateContent. The final
// frame carries usageMetadata with exact token counts.
type geminiStreamChunk struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata *struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

// Complete streams a chat completion from Gemini.
func (p *GeminiProvider) Complete(ctx context.Context, req *CompletionRequest) (*Completion, error) {
	if p.config.APIKey == "" {
		return nil, &ConfigError{Provider: p.config.Name, Missing: "API key"}
	}

	start := time.Now()
	timeout := p.callTimeout(req)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	model := req.Model
	if model == "" {
		model = p.config.Model
	}

	gemReq := geminiGenerateRequest{}
	gemReq.GenerationConfig.MaxOutputTokens = req.MaxTokens
	if gemReq.GenerationConfig.MaxOutputTokens == 0 {
		gemReq.GenerationConfig.MaxOutputTokens = p.config.MaxTokens
	}
	gemReq.GenerationConfig.Temperature = req.Temperature
	if gemReq.GenerationConfig.Temperature == 0 {
		gemReq.GenerationConfig.Temperature = p.config.Temperature
	}

	if req.SystemPrompt != "" {
		gemReq.SystemInstruction = &geminiContent{
			Parts: []geminiPart{{Text: req.SystemPrompt}},
		}
	}

	for _, msg := range req.Messages {
		role := msg.Role
		// Gemini uses "user" and "model" instead of "assistant".
		if role == "assistant" {
			role = "model"
		}
		gemReq.Contents = append(gemReq.Contents, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: msg.Content}},
		})
	}

	body, err := json.Marshal(gemReq)
	if err != nil {
		return nil, &ProtocolError{Provider: p.config.Name, Detail: "marshal request", Err: err}
	}

	// API key goes in a header rather than the URL to keep it out of logs.
	url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse", p.config.Endpoint, model)
	headers := map[string]string{
		"x-goog-api-key": p.config.APIKey,
	}
	resp, err := p.doStream(ctx, url, body, headers)
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
		var chunk geminiStreamChunk
		if err := json.Unmarshal(data, &chunk); err != nil {
			return streamEvent{}, &ProtocolError{Provider: p.config.Name, Detail: "decode chunk", Err: err}
		}
		ev := streamEvent{}
		if len(chunk.Candidates) > 0 {
			for _, part := range chunk.Candidates[0].Content.Parts {
				ev.Delta += part.Text
			}
		}
		if chunk.UsageMetadata != nil {
			ev.Usage = &streamUsage{
				InputTokens:  chunk.UsageMetadata.PromptTokenCount,
				OutputTokens: chunk.UsageMetadata.CandidatesTokenCount,
			}
		}
		return ev, nil
	}

	inputEstimate := estimateMessages(req.SystemPrompt, req.Messages)
	return collectStream(ctx, p.config.Name, timeout, start, inputEstimate, model, req.OnDelta, next)
}

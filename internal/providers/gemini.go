package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pulseai/pulseai/internal/config"
	"github.com/pulseai/pulseai/internal/domain/airequest"
)

// GeminiCompleter answers questions with the Gemini generateContent API
type GeminiCompleter struct {
	apiKey       string
	baseURL      string
	model        string
	maxTokens    int
	systemPrompt string
	httpClient   *http.Client
}

type geminiRequest struct {
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	Contents          []geminiContent        `json:"contents"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens int `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// NewGeminiCompleter builds a completer from config
func NewGeminiCompleter(cfg config.AIConfig) *GeminiCompleter {
	return &GeminiCompleter{
		apiKey:       cfg.GeminiAPIKey,
		baseURL:      strings.TrimRight(cfg.GeminiURL, "/"),
		model:        cfg.GeminiModel,
		maxTokens:    cfg.MaxTokens,
		systemPrompt: cfg.SystemPrompt,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
	}
}

// Complete sends the question and returns the first candidate's text
func (c *GeminiCompleter) Complete(ctx context.Context, question string) (*airequest.Completion, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("gemini API key is not configured")
	}

	body := geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: question}},
		}},
		GenerationConfig: geminiGenerationConfig{MaxOutputTokens: c.maxTokens},
	}
	if c.systemPrompt != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: c.systemPrompt}}}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out geminiResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini returned no content")
	}

	var text strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}

	return &airequest.Completion{
		Answer:     text.String(),
		TokensUsed: out.UsageMetadata.TotalTokenCount,
	}, nil
}

package translation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// LocalProvider calls the self-hosted llama.cpp HTTP server that ships
// with the jobsite deployment, so translation keeps working without
// internet access.
type LocalProvider struct {
	baseURL    string
	httpClient *http.Client
}

func NewLocalProvider(baseURL string) *LocalProvider {
	return &LocalProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type generateRequest struct {
	Prompt         string  `json:"prompt"`
	SystemPrompt   string  `json:"systemPrompt,omitempty"`
	MaxTokens      int     `json:"max_tokens,omitempty"`
	Temperature    float64 `json:"temperature,omitempty"`
	ResponseFormat string  `json:"response_format,omitempty"`
}

type generateResponse struct {
	Text       string `json:"text"`
	TokenCount int    `json:"tokenCount"`
}

func (p *LocalProvider) Name() string { return "local-llm" }

func (p *LocalProvider) Translate(ctx context.Context, text string, target Language) (string, error) {
	languageName := "English"
	if target == Spanish {
		languageName = "Spanish"
	}
	systemPrompt := fmt.Sprintf(
		"Translate the following construction jobsite message to %s. Reply with the translation only.",
		languageName)
	return p.generate(ctx, generateRequest{
		Prompt:       text,
		SystemPrompt: systemPrompt,
		MaxTokens:    256,
		Temperature:  0.3,
	})
}

// Complete sends a free-form prompt pair, used by the intent classifier.
// response_format "json" asks the server to extract a bare JSON object.
func (p *LocalProvider) Complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	return p.generate(ctx, generateRequest{
		Prompt:         userMessage,
		SystemPrompt:   systemPrompt,
		MaxTokens:      512,
		Temperature:    0.3,
		ResponseFormat: "json",
	})
}

// Healthy probes the server's /health endpoint.
func (p *LocalProvider) Healthy(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("local llm unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

func (p *LocalProvider) generate(ctx context.Context, request generateRequest) (string, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("local llm request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("local llm: status %d", resp.StatusCode)
	}

	var gr generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return "", fmt.Errorf("local llm decode: %w", err)
	}
	text := strings.TrimSpace(gr.Text)
	if text == "" {
		return "", fmt.Errorf("local llm returned empty text")
	}
	return text, nil
}

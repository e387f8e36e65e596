package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// GeminiProvider calls the Gemini generateContent API. Output contract is
// identical to the OpenAI provider: raw model text in, raw model text out.
type GeminiProvider struct {
	baseURL string
	model   string
	apiKey  string
	client  *http.Client
}

var _ Provider = (*GeminiProvider)(nil)

// NewGeminiProvider builds a provider from configuration.
func NewGeminiProvider(baseURL, model, apiKey string, client *http.Client) *GeminiProvider {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &GeminiProvider{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		apiKey:  apiKey,
		client:  client,
	}
}

func (p *GeminiProvider) Name() string { return "gemini" }

// Complete posts one generateContent call and returns the first candidate's
// text.
func (p *GeminiProvider) Complete(ctx context.Context, system, user string, image *ImagePayload) (string, error) {
	if p.apiKey == "" || p.baseURL == "" || p.model == "" {
		return "", fmt.Errorf("gemini provider misconfigured")
	}

	parts := []map[string]any{{"text": system + "\n\n" + user}}
	if image != nil {
		parts = append(parts, map[string]any{
			"inline_data": map[string]string{
				"mime_type": image.MIME,
				"data":      image.Base64,
			},
		})
	}

	body, err := json.Marshal(map[string]any{
		"contents": []map[string]any{{"parts": parts}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", p.baseURL, p.model, p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("gemini %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var decoded struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("response missing candidates")
	}
	return decoded.Candidates[0].Content.Parts[0].Text, nil
}

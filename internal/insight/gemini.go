package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "gemini-2.5-flash"
)

// GeminiClient calls the Gemini generateContent REST API.
type GeminiClient struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewGeminiClient creates a client using the default model and endpoint.
func NewGeminiClient(apiKey string) *GeminiClient {
	return &GeminiClient{
		apiKey:  apiKey,
		model:   defaultModel,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// NewGeminiClientWithBaseURL is used by tests to point at a local server.
func NewGeminiClientWithBaseURL(apiKey, baseURL string) *GeminiClient {
	c := NewGeminiClient(apiKey)
	c.baseURL = baseURL
	return c
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMimeType string `json:"responseMimeType"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// GenerateBusinessInsights prompts the model with the weekly stats and asks
// for a JSON summary plus three tips.
func (c *GeminiClient) GenerateBusinessInsights(ctx context.Context, stats Stats) (Insights, error) {
	statsJSON, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return Insights{}, fmt.Errorf("marshal stats: %w", err)
	}

	prompt := fmt.Sprintf(`You are an expert business consultant for a laundry business.
Analyze the following weekly performance data:
%s

Provide a concise response in valid JSON format with the following structure:
{
  "summary": "A 1-sentence summary of performance.",
  "tips": ["Tip 1", "Tip 2", "Tip 3"]
}
Do not include markdown formatting. Just the raw JSON string.`, statsJSON)

	reqBody, err := json.Marshal(generateRequest{
		Contents:         []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{ResponseMimeType: "application/json"},
	})
	if err != nil {
		return Insights{}, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return Insights{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return Insights{}, fmt.Errorf("call gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Insights{}, fmt.Errorf("gemini returned status %d", resp.StatusCode)
	}

	var gr generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return Insights{}, fmt.Errorf("decode response: %w", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return Insights{}, fmt.Errorf("gemini returned no candidates")
	}

	var insights Insights
	if err := json.Unmarshal([]byte(gr.Candidates[0].Content.Parts[0].Text), &insights); err != nil {
		return Insights{}, fmt.Errorf("parse insights: %w", err)
	}
	return insights, nil
}

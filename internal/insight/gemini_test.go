package insight

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGenerateBusinessInsights(t *testing.T) {
	var gotPath, gotKey string
	var gotReq generateRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}

		inner := `{"summary": "Strong week with growing revenue.", "tips": ["Promote express service.", "Reward repeat customers.", "Restock detergent early."]}`
		resp := generateResponse{}
		resp.Candidates = []struct {
			Content content `json:"content"`
		}{{Content: content{Parts: []part{{Text: inner}}}}}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewGeminiClientWithBaseURL("test-key", server.URL)
	got, err := client.GenerateBusinessInsights(context.Background(), Stats{
		TotalOrders: 12,
		Revenue:     "350000",
		ByStatus:    map[string]int{"DONE": 8, "PROCESSING": 4},
	})
	if err != nil {
		t.Fatalf("GenerateBusinessInsights: %v", err)
	}

	if gotPath != "/v1beta/models/gemini-2.5-flash:generateContent" {
		t.Errorf("path = %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("api key header = %q", gotKey)
	}
	if gotReq.GenerationConfig.ResponseMimeType != "application/json" {
		t.Errorf("responseMimeType = %q", gotReq.GenerationConfig.ResponseMimeType)
	}
	if len(gotReq.Contents) != 1 || len(gotReq.Contents[0].Parts) != 1 {
		t.Fatalf("unexpected request contents: %+v", gotReq.Contents)
	}
	prompt := gotReq.Contents[0].Parts[0].Text
	if !strings.Contains(prompt, `"totalOrders": 12`) {
		t.Errorf("prompt missing order count:\n%s", prompt)
	}
	if !strings.Contains(prompt, `"DONE": 8`) {
		t.Errorf("prompt missing status breakdown:\n%s", prompt)
	}

	if got.Summary != "Strong week with growing revenue." {
		t.Errorf("summary = %q", got.Summary)
	}
	if len(got.Tips) != 3 {
		t.Errorf("tips = %v", got.Tips)
	}
}

func TestGenerateBusinessInsightsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewGeminiClientWithBaseURL("test-key", server.URL)
	if _, err := client.GenerateBusinessInsights(context.Background(), Stats{}); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}

func TestGenerateBusinessInsightsBadModelOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := generateResponse{}
		resp.Candidates = []struct {
			Content content `json:"content"`
		}{{Content: content{Parts: []part{{Text: "sorry, no JSON today"}}}}}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewGeminiClientWithBaseURL("test-key", server.URL)
	if _, err := client.GenerateBusinessInsights(context.Background(), Stats{}); err == nil {
		t.Fatal("expected error on unparseable model output")
	}
}

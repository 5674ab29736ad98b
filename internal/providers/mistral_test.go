package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMistralOCRProcessImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ocr" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", got)
		}

		var req mistralOCRRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Document.Type != "image_url" {
			t.Errorf("unexpected document type: %s", req.Document.Type)
		}
		if !strings.HasPrefix(req.Document.ImageURL.URL, "data:image/png;base64,") {
			t.Errorf("image URL missing data prefix: %.40s", req.Document.ImageURL.URL)
		}

		json.NewEncoder(w).Encode(mistralOCRResponse{
			Model: "mistral-ocr-latest",
			Pages: []mistralOCRPage{
				{Index: 0, Markdown: "# Chapter One\n\nIt was a dark night."},
			},
		})
	}))
	defer server.Close()

	client := NewMistralOCRClient(MistralOCRConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
	})

	result, err := client.ProcessImage(context.Background(), []byte("fake-png"), 1)
	if err != nil {
		t.Fatalf("process image: %v", err)
	}
	if !result.Success {
		t.Fatal("expected success")
	}
	if !strings.Contains(result.Text, "Chapter One") {
		t.Fatalf("unexpected text: %q", result.Text)
	}
	if result.Confidence != 1.0 {
		t.Fatalf("expected full confidence, got %f", result.Confidence)
	}
}

func TestMistralOCRAPIErrorNotRetried(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "invalid document"},
		})
	}))
	defer server.Close()

	client := NewMistralOCRClient(MistralOCRConfig{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		RetryDelay: time.Millisecond,
	})

	result, err := client.ProcessImage(context.Background(), []byte("bad"), 1)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "invalid document") {
		t.Fatalf("expected API message in error, got: %v", err)
	}
	if result.Success {
		t.Fatal("expected failure result")
	}
	if requests != 1 {
		t.Fatalf("client error should not be retried, got %d requests", requests)
	}
}

func TestMistralOCRServerErrorRetried(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(mistralOCRResponse{
			Pages: []mistralOCRPage{{Markdown: "recovered"}},
		})
	}))
	defer server.Close()

	client := NewMistralOCRClient(MistralOCRConfig{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		RetryDelay: time.Millisecond,
	})

	result, err := client.ProcessImage(context.Background(), []byte("img"), 1)
	if err != nil {
		t.Fatalf("expected recovery after retries: %v", err)
	}
	if result.Text != "recovered" {
		t.Fatalf("unexpected text: %q", result.Text)
	}
	if requests != 3 {
		t.Fatalf("expected 3 requests, got %d", requests)
	}
}

func TestConfidenceForText(t *testing.T) {
	if got := confidenceForText(""); got != 0 {
		t.Fatalf("empty text should score 0, got %f", got)
	}
	if got := confidenceForText("clean text"); got != 1.0 {
		t.Fatalf("clean text should score 1, got %f", got)
	}
	if got := confidenceForText("a�b�"); got >= 1.0 || got <= 0 {
		t.Fatalf("replacement characters should lower score, got %f", got)
	}
}

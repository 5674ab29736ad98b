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

func TestElevenLabsGenerate(t *testing.T) {
	audioData := []byte("fake-mp3-audio-data")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/text-to-speech/voice-123") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("xi-api-key"); got != "test-key" {
			t.Errorf("unexpected api key header: %s", got)
		}
		if got := r.URL.Query().Get("output_format"); got != "mp3_44100_128" {
			t.Errorf("unexpected output format: %s", got)
		}

		var req elevenLabsTTSRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Text != "Hello world" {
			t.Errorf("unexpected text: %q", req.Text)
		}
		if req.VoiceSettings.Stability != 0.5 {
			t.Errorf("unexpected stability: %f", req.VoiceSettings.Stability)
		}

		w.Write(audioData)
	}))
	defer server.Close()

	client := NewElevenLabsClient(ElevenLabsConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
	})

	result, err := client.Generate(context.Background(), &TTSRequest{
		Text:  "Hello world",
		Voice: "voice-123",
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !result.Success {
		t.Fatal("expected success")
	}
	if string(result.Audio) != string(audioData) {
		t.Fatal("audio bytes mismatch")
	}
	if result.Format != "mp3" || result.SampleRate != 44100 {
		t.Fatalf("format parse mismatch: %s %d", result.Format, result.SampleRate)
	}
	// No duration metadata comes back from the endpoint; the synthesis stage
	// probes the audio instead of trusting an estimate.
	if result.DurationMS != 0 {
		t.Fatalf("expected no reported duration, got %d", result.DurationMS)
	}
	if result.CharCount != len("Hello world") {
		t.Fatalf("char count mismatch: %d", result.CharCount)
	}
}

func TestElevenLabsGenerateMissingVoice(t *testing.T) {
	client := NewElevenLabsClient(ElevenLabsConfig{APIKey: "test-key"})

	_, err := client.Generate(context.Background(), &TTSRequest{Text: "hi"})
	if err == nil {
		t.Fatal("expected error for missing voice")
	}
}

func TestElevenLabsGenerateRateLimitRetried(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]any{
				"detail": map[string]any{"message": "rate limited"},
			})
			return
		}
		w.Write([]byte("audio"))
	}))
	defer server.Close()

	client := NewElevenLabsClient(ElevenLabsConfig{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		RetryDelay: time.Millisecond,
	})

	result, err := client.Generate(context.Background(), &TTSRequest{Text: "hi", Voice: "v"})
	if err != nil {
		t.Fatalf("expected recovery after rate limit: %v", err)
	}
	if !result.Success {
		t.Fatal("expected success")
	}
	if requests != 2 {
		t.Fatalf("expected 2 requests, got %d", requests)
	}
}

func TestElevenLabsCloneVoice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/voices/add" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("name"); got != "Grandpa" {
			t.Errorf("unexpected name field: %q", got)
		}
		if files := r.MultipartForm.File["files"]; len(files) != 2 {
			t.Errorf("expected 2 sample files, got %d", len(files))
		}

		json.NewEncoder(w).Encode(elevenLabsAddVoiceResponse{VoiceID: "cloned-abc"})
	}))
	defer server.Close()

	client := NewElevenLabsClient(ElevenLabsConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
	})

	voiceID, err := client.CloneVoice(context.Background(), "Grandpa", [][]byte{
		[]byte("sample-one"),
		[]byte("sample-two"),
	})
	if err != nil {
		t.Fatalf("clone voice: %v", err)
	}
	if voiceID != "cloned-abc" {
		t.Fatalf("unexpected voice id: %q", voiceID)
	}
}

func TestElevenLabsCloneVoiceValidation(t *testing.T) {
	client := NewElevenLabsClient(ElevenLabsConfig{APIKey: "test-key"})

	if _, err := client.CloneVoice(context.Background(), "", [][]byte{[]byte("s")}); err == nil {
		t.Fatal("expected error for empty name")
	}
	if _, err := client.CloneVoice(context.Background(), "Name", nil); err == nil {
		t.Fatal("expected error for no samples")
	}
}

func TestElevenLabsListVoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/voices" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(elevenLabsVoicesResponse{
			Voices: []elevenLabsVoice{
				{VoiceID: "v1", Name: "Rachel", Description: "calm narrator"},
				{VoiceID: "v2", Name: "Custom", Labels: map[string]string{"accent": "british"}},
			},
		})
	}))
	defer server.Close()

	client := NewElevenLabsClient(ElevenLabsConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
	})

	voices, err := client.ListVoices(context.Background())
	if err != nil {
		t.Fatalf("list voices: %v", err)
	}
	if len(voices) != 2 {
		t.Fatalf("expected 2 voices, got %d", len(voices))
	}
	if voices[0].Description != "calm narrator" {
		t.Fatalf("unexpected description: %q", voices[0].Description)
	}
	if !strings.Contains(voices[1].Description, "accent: british") {
		t.Fatalf("label-built description missing: %q", voices[1].Description)
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		format     string
		container  string
		sampleRate int
	}{
		{"mp3_44100_128", "mp3", 44100},
		{"mp3_22050_32", "mp3", 22050},
		{"pcm_16000", "wav", 16000},
		{"", "mp3", 0},
	}
	for _, tt := range tests {
		container, rate := parseOutputFormat(tt.format)
		if container != tt.container || rate != tt.sampleRate {
			t.Errorf("parseOutputFormat(%q) = (%s, %d), want (%s, %d)",
				tt.format, container, rate, tt.container, tt.sampleRate)
		}
	}
}

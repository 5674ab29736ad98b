package providers

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// MockOCRProvider is an OCRProvider for testing.
type MockOCRProvider struct {
	ProviderName string
	Latency      time.Duration
	ShouldFail   bool
	FailAfter    int          // Fail after N requests (0 = never)
	FailPages    map[int]bool // Fail specific page numbers
	ResponseText string

	// PageLatency overrides Latency for specific pages, letting tests force
	// completions to land out of submission order.
	PageLatency map[int]time.Duration

	requestCount atomic.Int64
}

// NewMockOCRProvider creates a new mock OCR provider.
func NewMockOCRProvider() *MockOCRProvider {
	return &MockOCRProvider{
		ProviderName: "mock-ocr",
		Latency:      time.Millisecond,
		ResponseText: "mock OCR text",
	}
}

// Name returns the provider identifier.
func (p *MockOCRProvider) Name() string {
	return p.ProviderName
}

// ProcessImage extracts text from an image.
func (p *MockOCRProvider) ProcessImage(ctx context.Context, image []byte, pageNum int) (*OCRResult, error) {
	start := time.Now()
	count := p.requestCount.Add(1)

	result := &OCRResult{}

	if p.ShouldFail {
		result.ErrorMessage = "mock OCR provider configured to fail"
		result.ExecutionTime = time.Since(start)
		return result, fmt.Errorf("mock OCR provider configured to fail")
	}
	if p.FailAfter > 0 && int(count) > p.FailAfter {
		result.ErrorMessage = fmt.Sprintf("mock OCR provider failed after %d requests", p.FailAfter)
		result.ExecutionTime = time.Since(start)
		return result, fmt.Errorf("mock OCR provider failed after %d requests", p.FailAfter)
	}
	if p.FailPages[pageNum] {
		result.ErrorMessage = fmt.Sprintf("mock OCR provider failed page %d", pageNum)
		result.ExecutionTime = time.Since(start)
		return result, fmt.Errorf("mock OCR provider failed page %d", pageNum)
	}

	latency := p.Latency
	if override, ok := p.PageLatency[pageNum]; ok {
		latency = override
	}
	select {
	case <-time.After(latency):
	case <-ctx.Done():
		result.ErrorMessage = ctx.Err().Error()
		result.ExecutionTime = time.Since(start)
		return result, ctx.Err()
	}

	result.Success = true
	result.Text = fmt.Sprintf("Page %d: %s", pageNum, p.ResponseText)
	result.Confidence = 1.0
	result.ExecutionTime = time.Since(start)
	result.Metadata = map[string]any{
		"page_num":    pageNum,
		"provider":    p.ProviderName,
		"image_bytes": len(image),
	}

	return result, nil
}

// RequestCount returns the number of requests made.
func (p *MockOCRProvider) RequestCount() int64 {
	return p.requestCount.Load()
}

// Reset resets the request counter.
func (p *MockOCRProvider) Reset() {
	p.requestCount.Store(0)
}

// Verify interface
var _ OCRProvider = (*MockOCRProvider)(nil)

// MockTTSProvider is a TTSProvider for testing. It also implements
// VoiceCloner so orchestrator tests can exercise voice setup end to end.
type MockTTSProvider struct {
	ProviderName string
	Latency      time.Duration
	ShouldFail   bool
	FailAfter    int // Fail after N requests (0 = never)

	// DurationPerCharMS sets reported duration to len(text) * this value.
	// Zero means report no duration, which forces probing downstream.
	DurationPerCharMS int

	requestCount atomic.Int64
	cloneCount   atomic.Int64
}

// NewMockTTSProvider creates a new mock TTS provider.
func NewMockTTSProvider() *MockTTSProvider {
	return &MockTTSProvider{
		ProviderName:      "mock-tts",
		Latency:           time.Millisecond,
		DurationPerCharMS: 100,
	}
}

// Name returns the provider identifier.
func (p *MockTTSProvider) Name() string {
	return p.ProviderName
}

// Generate converts text to mock audio.
func (p *MockTTSProvider) Generate(ctx context.Context, req *TTSRequest) (*TTSResult, error) {
	start := time.Now()
	count := p.requestCount.Add(1)

	result := &TTSResult{CharCount: len(req.Text)}

	if p.ShouldFail {
		result.ErrorMessage = "mock TTS provider configured to fail"
		result.ExecutionTime = time.Since(start)
		return result, fmt.Errorf("mock TTS provider configured to fail")
	}
	if p.FailAfter > 0 && int(count) > p.FailAfter {
		result.ErrorMessage = fmt.Sprintf("mock TTS provider failed after %d requests", p.FailAfter)
		result.ExecutionTime = time.Since(start)
		return result, fmt.Errorf("mock TTS provider failed after %d requests", p.FailAfter)
	}

	select {
	case <-time.After(p.Latency):
	case <-ctx.Done():
		result.ErrorMessage = ctx.Err().Error()
		result.ExecutionTime = time.Since(start)
		return result, ctx.Err()
	}

	result.Success = true
	result.Audio = []byte(fmt.Sprintf("audio[%s:%s]", req.Voice, req.Text))
	result.DurationMS = len(req.Text) * p.DurationPerCharMS
	result.Format = "mp3"
	result.SampleRate = 44100
	result.ExecutionTime = time.Since(start)

	return result, nil
}

// CloneVoice returns a deterministic voice handle for the given name.
func (p *MockTTSProvider) CloneVoice(ctx context.Context, name string, samples [][]byte) (string, error) {
	if len(samples) == 0 {
		return "", fmt.Errorf("at least one audio sample is required")
	}
	n := p.cloneCount.Add(1)
	return fmt.Sprintf("mock-voice-%s-%d", name, n), nil
}

// RequestCount returns the number of synthesis requests made.
func (p *MockTTSProvider) RequestCount() int64 {
	return p.requestCount.Load()
}

// Reset resets the request counters.
func (p *MockTTSProvider) Reset() {
	p.requestCount.Store(0)
	p.cloneCount.Store(0)
}

// Verify interfaces
var (
	_ TTSProvider = (*MockTTSProvider)(nil)
	_ VoiceCloner = (*MockTTSProvider)(nil)
)

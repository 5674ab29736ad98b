// Package titles derives a human-readable book title from extracted page
// text using a chat model.
package titles

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	DefaultModel = "gpt-4o-mini"

	// Only the opening of the book is needed to name it.
	maxExcerptChars = 4000

	systemPrompt = "You are given the opening pages of a book, extracted via OCR. " +
		"Reply with the book's title only: no quotes, no commentary. " +
		"If the title is not evident, invent a short, descriptive one."
)

// Detector asks a chat model for a title. It implements the orchestrator's
// TitleDetector.
type Detector struct {
	client openai.Client
	model  string
}

// Config holds settings for the title detector.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// NewDetector creates a title detector.
func NewDetector(cfg Config) *Detector {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &Detector{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

// DetectTitle returns a title for the given extracted text.
func (d *Detector) DetectTitle(ctx context.Context, text string) (string, error) {
	excerpt := text
	if len(excerpt) > maxExcerptChars {
		excerpt = excerpt[:maxExcerptChars]
	}
	excerpt = strings.TrimSpace(excerpt)
	if excerpt == "" {
		return "", fmt.Errorf("no text to derive a title from")
	}

	resp, err := d.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: d.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(excerpt),
		},
		MaxTokens: openai.Int(60),
	})
	if err != nil {
		return "", fmt.Errorf("title completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("title completion returned no choices")
	}

	title := CleanTitle(resp.Choices[0].Message.Content)
	if title == "" {
		return "", fmt.Errorf("title completion returned empty title")
	}
	return title, nil
}

// CleanTitle normalizes model output into a usable title: first line only,
// surrounding quotes and whitespace stripped, length capped.
func CleanTitle(raw string) string {
	title := strings.TrimSpace(raw)
	if i := strings.IndexByte(title, '\n'); i >= 0 {
		title = strings.TrimSpace(title[:i])
	}
	title = strings.Trim(title, `"'`)
	title = strings.TrimSpace(title)
	if len(title) > 120 {
		title = strings.TrimSpace(title[:120])
	}
	return title
}

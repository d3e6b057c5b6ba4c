package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/nyasuto/mond/internal/usecase/summary"
)

// DefaultModel is used when no model is configured
const DefaultModel = "gemini-2.5-flash"

// Summarizer sends summary prompts to the Gemini API
type Summarizer struct {
	client *genai.Client
	model  string
}

var _ summary.Summarizer = (*Summarizer)(nil)

// NewSummarizer creates a Gemini-backed summarizer.
// An empty API key yields summary.ErrNotConfigured.
func NewSummarizer(ctx context.Context, apiKey, model string) (*Summarizer, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini api key is not set: %w", summary.ErrNotConfigured)
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gemini client: %w", err)
	}
	return &Summarizer{client: client, model: model}, nil
}

// Model returns the configured model name
func (s *Summarizer) Model() string {
	return s.model
}

// Summarize generates text for the prompt
func (s *Summarizer) Summarize(ctx context.Context, prompt string) (string, error) {
	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate summary: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini returned an empty summary")
	}
	return text, nil
}

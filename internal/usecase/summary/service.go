package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nyasuto/mond/internal/domain"
	"github.com/nyasuto/mond/internal/usecase/report"
)

// ErrNotConfigured is returned when no summarizer backend is available
var ErrNotConfigured = errors.New("summarizer not configured")

// Summarizer turns a prompt into opaque natural-language text
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}

// SummaryService packages report data into prompts for a Summarizer
type SummaryService struct {
	Reports    *report.ReportService
	Summarizer Summarizer
	Language   string
}

// NewSummaryService creates a new SummaryService instance. summarizer may be nil.
func NewSummaryService(reports *report.ReportService, summarizer Summarizer, language string) *SummaryService {
	if strings.TrimSpace(language) == "" {
		language = "Japanese"
	}
	return &SummaryService{
		Reports:    reports,
		Summarizer: summarizer,
		Language:   language,
	}
}

// SummarizeDay explains the movement of one date
func (s *SummaryService) SummarizeDay(ctx context.Context, date time.Time) (string, error) {
	if s.Summarizer == nil {
		return "", ErrNotConfigured
	}

	daily, err := s.Reports.Daily(ctx, date)
	if err != nil {
		return "", err
	}
	if len(daily.Attribution) == 0 {
		return "", fmt.Errorf("nothing to summarize on %s: %w", domain.FormatDate(date), domain.ErrNoBaseline)
	}

	prompt, err := BuildDayPrompt(daily.Date, daily.Total.ValueHome, daily.Attribution, daily.Exposure, s.Language)
	if err != nil {
		return "", err
	}
	return s.summarize(ctx, prompt)
}

// SummarizeHistory reviews the whole stored history; a positive limit keeps the most recent rows only
func (s *SummaryService) SummarizeHistory(ctx context.Context, limit int) (string, error) {
	if s.Summarizer == nil {
		return "", ErrNotConfigured
	}

	history, err := s.Reports.FullHistory(ctx, limit)
	if err != nil {
		return "", err
	}
	if len(history.Attribution) == 0 {
		return "", fmt.Errorf("nothing to summarize: %w", domain.ErrNoBaseline)
	}

	prompt, err := BuildHistoryPrompt(history.Attribution, history.Totals, s.Language)
	if err != nil {
		return "", err
	}
	return s.summarize(ctx, prompt)
}

func (s *SummaryService) summarize(ctx context.Context, prompt string) (string, error) {
	text, err := s.Summarizer.Summarize(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to summarize: %w", err)
	}
	return strings.TrimSpace(text), nil
}

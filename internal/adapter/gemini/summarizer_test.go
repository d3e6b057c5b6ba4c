package gemini

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nyasuto/mond/internal/usecase/summary"
)

func TestNewSummarizer_RequiresAPIKey(t *testing.T) {
	_, err := NewSummarizer(context.Background(), "  ", "")
	assert.ErrorIs(t, err, summary.ErrNotConfigured)
}

func TestNewSummarizer_DefaultModel(t *testing.T) {
	s, err := NewSummarizer(context.Background(), "test-key", "")
	if assert.NoError(t, err) {
		assert.Equal(t, DefaultModel, s.Model())
	}
}

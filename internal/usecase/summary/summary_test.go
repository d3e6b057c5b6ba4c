package summary

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nyasuto/mond/internal/domain"
	. "github.com/nyasuto/mond/internal/domain/domaintest"
	"github.com/nyasuto/mond/internal/usecase/aggregation"
	"github.com/nyasuto/mond/internal/usecase/attribution"
	"github.com/nyasuto/mond/internal/usecase/consistency"
	"github.com/nyasuto/mond/internal/usecase/report"
	"github.com/nyasuto/mond/internal/usecase/valuation"
)

type MockSummarizer struct {
	mock.Mock
}

func (m *MockSummarizer) Summarize(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func payloadOf(t *testing.T, prompt string) map[string]any {
	t.Helper()
	start := strings.Index(prompt, "Data(JSON):\n")
	end := strings.Index(prompt, "\n\nOutput format")
	require.True(t, start >= 0 && end > start, "prompt has no JSON block")

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(prompt[start+len("Data(JSON):\n"):end]), &payload))
	return payload
}

func TestBuildDayPrompt(t *testing.T) {
	day := Day(2024, 1, 2)
	rows := []domain.AttributionRow{
		{Date: day, Ticker: domain.PortfolioTicker, DeltaTotal: D("85400"), DeltaPrice: D("14000"), DeltaFx: D("10000"), DeltaCross: D("500"), Flow: D("60900")},
	}
	exposure := []domain.CurrencyExposure{{Date: day, Currency: "USD", ValueHome: D("365400")}}

	prompt, err := BuildDayPrompt(day, D("365400"), rows, exposure, "Japanese")

	require.NoError(t, err)
	assert.Contains(t, prompt, "in Japanese")
	payload := payloadOf(t, prompt)
	assert.Equal(t, "2024-01-02", payload["date"])
	assert.Equal(t, "365400", payload["portfolio_total_jpy"])

	attribution := payload["attribution"].([]any)
	require.Len(t, attribution, 1)
	first := attribution[0].(map[string]any)
	assert.Equal(t, "PORTFOLIO", first["ticker"])
	assert.Equal(t, "60900", first["flow"])
	assert.NotContains(t, first, "date")

	ccy := payload["currency_exposure"].([]any)[0].(map[string]any)
	assert.Equal(t, "USD", ccy["ccy"])
}

func TestBuildHistoryPrompt(t *testing.T) {
	d1, d2 := Day(2024, 1, 1), Day(2024, 1, 2)
	rows := []domain.AttributionRow{{Date: d2, Ticker: "VTI", DeltaTotal: D("1"), DeltaPrice: D("1"), DeltaFx: D("0"), DeltaCross: D("0"), Flow: D("0")}}
	totals := []domain.PortfolioTotal{{Date: d1, ValueHome: D("280000")}, {Date: d2, ValueHome: D("280001")}}

	prompt, err := BuildHistoryPrompt(rows, totals, "English")

	require.NoError(t, err)
	payload := payloadOf(t, prompt)
	history := payload["attribution_history"].([]any)
	assert.Equal(t, "2024-01-02", history[0].(map[string]any)["date"])
	assert.Len(t, payload["portfolio_totals"].([]any), 2)
}

func newReports(snapshots []*domain.HoldingSnapshot) *report.ReportService {
	assets := new(MockAssetRepository)
	fx := new(MockFxRateRepository)
	snaps := new(MockSnapshotRepository)

	d1, d2 := Day(2024, 1, 1), Day(2024, 1, 2)
	snaps.On("ListOn", mock.Anything, d2).Return(snapshots, nil)
	snaps.On("GetPrevious", mock.Anything, "1306.T", d2).Return(Snapshot(d1, "1306.T", "100", "2500"), nil)
	assets.On("GetByTicker", mock.Anything, "1306.T").Return(&domain.Asset{Ticker: "1306.T", Currency: "JPY"}, nil)
	fx.On("ListOn", mock.Anything, d2).Return([]*domain.FxRate{}, nil)

	valuationService := valuation.NewValuationService(assets, fx, snaps)
	return report.NewReportService(
		valuationService,
		aggregation.NewAggregationService(valuationService, snaps),
		attribution.NewAttributionService(assets, fx, snaps),
		consistency.NewConsistencyService(assets, fx, snaps, consistency.DefaultTolerance),
		zerolog.Nop(),
	)
}

func TestSummarizeDay(t *testing.T) {
	ctx := context.Background()
	summarizer := new(MockSummarizer)
	service := NewSummaryService(newReports([]*domain.HoldingSnapshot{Snapshot(Day(2024, 1, 2), "1306.T", "100", "2550")}), summarizer, "")

	summarizer.On("Summarize", ctx, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, `"portfolio_total_jpy":"255000"`) && strings.Contains(prompt, "in Japanese")
	})).Return("  - 価格要因が中心  \n", nil)

	text, err := service.SummarizeDay(ctx, Day(2024, 1, 2))

	require.NoError(t, err)
	assert.Equal(t, "- 価格要因が中心", text)
	summarizer.AssertExpectations(t)
}

func TestSummarizeDay_NothingToSummarize(t *testing.T) {
	summarizer := new(MockSummarizer)
	service := NewSummaryService(newReports([]*domain.HoldingSnapshot{}), summarizer, "Japanese")

	_, err := service.SummarizeDay(context.Background(), Day(2024, 1, 2))

	assert.ErrorIs(t, err, domain.ErrNoBaseline)
	summarizer.AssertNotCalled(t, "Summarize", mock.Anything, mock.Anything)
}

func TestSummarize_NotConfigured(t *testing.T) {
	service := NewSummaryService(nil, nil, "Japanese")

	_, err := service.SummarizeDay(context.Background(), Day(2024, 1, 2))
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = service.SummarizeHistory(context.Background(), 0)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

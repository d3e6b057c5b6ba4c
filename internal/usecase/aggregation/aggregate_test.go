package aggregation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nyasuto/mond/internal/domain"
	. "github.com/nyasuto/mond/internal/domain/domaintest"
	"github.com/nyasuto/mond/internal/usecase/valuation"
)

func valuationOf(ticker, currency, value string) domain.Valuation {
	return domain.Valuation{Date: Day(2024, 1, 1), Ticker: ticker, Currency: currency, ValueHome: D(value)}
}

func TestAggregate(t *testing.T) {
	day := Day(2024, 1, 1)

	tests := []struct {
		name       string
		valuations []domain.Valuation
		total      string
		exposure   []string // currency order
	}{
		{
			name:       "empty date",
			valuations: nil,
			total:      "0",
			exposure:   []string{},
		},
		{
			name: "exposure ordered by value descending",
			valuations: []domain.Valuation{
				valuationOf("1306.T", "JPY", "250000"),
				valuationOf("VTI", "USD", "280000"),
				valuationOf("AGG", "USD", "56000"),
				valuationOf("IWDA", "EUR", "40000"),
			},
			total:    "626000",
			exposure: []string{"USD", "JPY", "EUR"},
		},
		{
			name: "ties broken by currency",
			valuations: []domain.Valuation{
				valuationOf("A", "USD", "100"),
				valuationOf("B", "EUR", "100"),
			},
			total:    "200",
			exposure: []string{"EUR", "USD"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary := Aggregate(day, tt.valuations)

			assert.True(t, summary.Total.ValueHome.Equal(D(tt.total)), "total %s", summary.Total.ValueHome)
			currencies := make([]string, 0, len(summary.Exposure))
			for _, e := range summary.Exposure {
				currencies = append(currencies, e.Currency)
			}
			assert.Equal(t, tt.exposure, currencies)
		})
	}
}

func TestAggregate_TotalEqualsSumOfValuationsAndExposure(t *testing.T) {
	valuations := []domain.Valuation{
		valuationOf("VTI", "USD", "280000.125"),
		valuationOf("AGG", "USD", "56000.5"),
		valuationOf("1306.T", "JPY", "250000"),
	}

	summary := Aggregate(Day(2024, 1, 1), valuations)

	sumValuations := D("0")
	for _, v := range valuations {
		sumValuations = sumValuations.Add(v.ValueHome)
	}
	sumExposure := D("0")
	for _, e := range summary.Exposure {
		sumExposure = sumExposure.Add(e.ValueHome)
	}
	assert.True(t, summary.Total.ValueHome.Equal(sumValuations))
	assert.True(t, summary.Total.ValueHome.Equal(sumExposure))

	// Identical inputs, identical outputs
	again := Aggregate(Day(2024, 1, 1), valuations)
	assert.Equal(t, summary, again)
}

func TestSummarize_ExcludesFxGapFromTotal(t *testing.T) {
	ctx := context.Background()
	mockAssetRepo := new(MockAssetRepository)
	mockFxRepo := new(MockFxRateRepository)
	mockSnapshotRepo := new(MockSnapshotRepository)

	service := NewAggregationService(
		valuation.NewValuationService(mockAssetRepo, mockFxRepo, mockSnapshotRepo),
		mockSnapshotRepo,
	)

	day := Day(2024, 1, 1)
	mockSnapshotRepo.On("ListOn", mock.Anything, day).Return([]*domain.HoldingSnapshot{
		Snapshot(day, "VTI", "10", "200"),
		Snapshot(day, "IWDA", "5", "80"),
	}, nil)
	mockAssetRepo.On("GetByTicker", mock.Anything, "VTI").Return(&domain.Asset{Ticker: "VTI", Currency: "USD"}, nil)
	mockAssetRepo.On("GetByTicker", mock.Anything, "IWDA").Return(&domain.Asset{Ticker: "IWDA", Currency: "EUR"}, nil)
	mockFxRepo.On("Get", mock.Anything, day, "USDJPY").Return(Rate(day, "USD", "140"), nil)
	mockFxRepo.On("Get", mock.Anything, day, "EURJPY").Return(nil, NotFound("fx rate"))

	summary, err := service.Summarize(ctx, day)

	require.NoError(t, err)
	assert.True(t, summary.Total.ValueHome.Equal(D("280000")))
	require.Len(t, summary.FxGaps, 1)
	assert.Equal(t, "EURJPY", summary.FxGaps[0].Pair)
	require.Len(t, summary.Exposure, 1)
	assert.Equal(t, "USD", summary.Exposure[0].Currency)
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	mockAssetRepo := new(MockAssetRepository)
	mockFxRepo := new(MockFxRateRepository)
	mockSnapshotRepo := new(MockSnapshotRepository)

	service := NewAggregationService(
		valuation.NewValuationService(mockAssetRepo, mockFxRepo, mockSnapshotRepo),
		mockSnapshotRepo,
	)

	d1, d2 := Day(2024, 1, 1), Day(2024, 1, 2)
	mockSnapshotRepo.On("ListDates", mock.Anything, d1, d2).Return([]time.Time{d1, d2}, nil)
	mockSnapshotRepo.On("ListOn", mock.Anything, d1).Return([]*domain.HoldingSnapshot{Snapshot(d1, "VTI", "10", "200")}, nil)
	mockSnapshotRepo.On("ListOn", mock.Anything, d2).Return([]*domain.HoldingSnapshot{Snapshot(d2, "VTI", "12", "210")}, nil)
	mockAssetRepo.On("GetByTicker", mock.Anything, "VTI").Return(&domain.Asset{Ticker: "VTI", Currency: "USD"}, nil)
	mockFxRepo.On("Get", mock.Anything, d1, "USDJPY").Return(Rate(d1, "USD", "140"), nil)
	mockFxRepo.On("Get", mock.Anything, d2, "USDJPY").Return(Rate(d2, "USD", "145"), nil)

	history, err := service.History(ctx, d1, d2)

	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.True(t, history[0].Total.ValueHome.Equal(D("280000")))
	assert.True(t, history[1].Total.ValueHome.Equal(D("365400")))
}

func TestHistory_RejectsInvertedRange(t *testing.T) {
	service := NewAggregationService(nil, new(MockSnapshotRepository))

	_, err := service.History(context.Background(), Day(2024, 1, 2), Day(2024, 1, 1))

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

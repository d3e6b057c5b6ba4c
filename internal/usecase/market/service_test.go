package market

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nyasuto/mond/internal/domain"
	. "github.com/nyasuto/mond/internal/domain/domaintest"
)

type fixture struct {
	fx        *MockFxRateRepository
	prices    *MockPriceRepository
	snapshots *MockSnapshotRepository
	service   *MarketService
}

func newFixture() *fixture {
	f := &fixture{
		fx:        new(MockFxRateRepository),
		prices:    new(MockPriceRepository),
		snapshots: new(MockSnapshotRepository),
	}
	f.service = NewMarketService(f.fx, f.prices, f.snapshots)
	return f
}

func TestKeys(t *testing.T) {
	// Setup
	f := newFixture()
	f.prices.On("Tickers", mock.Anything).Return([]string{"1306.T", "VTI"}, nil)
	f.fx.On("Pairs", mock.Anything).Return([]string{"EURJPY", "USDJPY"}, nil)

	// Execute
	keys, err := f.service.Keys(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"1306.T", "VTI"}, keys.Tickers)
	assert.Equal(t, []string{"EURJPY", "USDJPY"}, keys.Pairs)
}

func TestKeys_StoreError(t *testing.T) {
	f := newFixture()
	f.prices.On("Tickers", mock.Anything).Return(nil, errors.New("database is locked"))

	_, err := f.service.Keys(context.Background())

	assert.ErrorContains(t, err, "failed to list price tickers")
	f.fx.AssertNotCalled(t, "Pairs", mock.Anything)
}

func TestPriceHistory(t *testing.T) {
	// Setup
	f := newFixture()
	d1, d2 := Day(2024, 1, 1), Day(2024, 1, 2)
	want := []*domain.PriceObservation{
		{Date: d1, Ticker: "VTI", Close: D("200")},
		{Date: d2, Ticker: "VTI", Close: D("210")},
	}
	f.prices.On("ListRange", mock.Anything, []string{"VTI"}, d1, d2).Return(want, nil)

	// Execute
	got, err := f.service.PriceHistory(context.Background(), []string{" VTI", "VTI", ""}, d1, d2)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, want, got)
	f.prices.AssertExpectations(t)
}

func TestPriceHistory_RejectsInvertedRange(t *testing.T) {
	f := newFixture()

	_, err := f.service.PriceHistory(context.Background(), nil, Day(2024, 1, 2), Day(2024, 1, 1))

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	f.prices.AssertNotCalled(t, "ListRange", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestFxHistory(t *testing.T) {
	// Setup
	f := newFixture()
	d1, d2 := Day(2024, 1, 1), Day(2024, 1, 2)
	want := []*domain.FxRate{Rate(d1, "USD", "140"), Rate(d2, "USD", "145")}
	f.fx.On("ListRange", mock.Anything, []string{"USDJPY"}, d1, d2).Return(want, nil)
	f.fx.On("ListRange", mock.Anything, []string{}, d1, d2).Return(want, nil)

	// Execute
	lower, err := f.service.FxHistory(context.Background(), []string{"usdjpy"}, d1, d2)
	require.NoError(t, err)
	all, err := f.service.FxHistory(context.Background(), nil, d1, d2)
	require.NoError(t, err)

	// Assert
	assert.Equal(t, want, lower)
	assert.Equal(t, want, all)
	f.fx.AssertExpectations(t)
}

func TestSnapshots(t *testing.T) {
	// Setup
	f := newFixture()
	d1, d2 := Day(2024, 1, 1), Day(2024, 1, 2)
	stored := []*domain.HoldingSnapshot{
		Snapshot(d2, "1306.T", "100", "2550"),
		Snapshot(d2, "VTI", "12", "210"),
		Snapshot(d1, "1306.T", "100", "2500"),
		Snapshot(d1, "VTI", "10", "200"),
	}
	f.snapshots.On("List", mock.Anything).Return(stored, nil)

	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{name: "no limit", limit: 0, want: 4},
		{name: "most recent two", limit: 2, want: 2},
		{name: "limit beyond size", limit: 10, want: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Execute
			got, err := f.service.Snapshots(context.Background(), tt.limit)

			// Assert
			require.NoError(t, err)
			require.Len(t, got, tt.want)
			assert.Equal(t, d2, got[0].Date)
		})
	}

	_, err := f.service.Snapshots(context.Background(), -1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

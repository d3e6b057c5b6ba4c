// Package domaintest provides testify mocks of the domain repository interfaces.
package domaintest

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/nyasuto/mond/internal/domain"
)

// MockAssetRepository is a mock implementation of domain.AssetRepository
type MockAssetRepository struct {
	mock.Mock
}

func (m *MockAssetRepository) Upsert(ctx context.Context, asset *domain.Asset) error {
	args := m.Called(ctx, asset)
	return args.Error(0)
}

func (m *MockAssetRepository) GetByTicker(ctx context.Context, ticker string) (*domain.Asset, error) {
	args := m.Called(ctx, ticker)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Asset), args.Error(1)
}

func (m *MockAssetRepository) List(ctx context.Context) ([]*domain.Asset, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Asset), args.Error(1)
}

// MockFxRateRepository is a mock implementation of domain.FxRateRepository
type MockFxRateRepository struct {
	mock.Mock
}

func (m *MockFxRateRepository) Upsert(ctx context.Context, rate *domain.FxRate) error {
	args := m.Called(ctx, rate)
	return args.Error(0)
}

func (m *MockFxRateRepository) UpsertBatch(ctx context.Context, rates []*domain.FxRate) error {
	args := m.Called(ctx, rates)
	return args.Error(0)
}

func (m *MockFxRateRepository) Get(ctx context.Context, date time.Time, pair string) (*domain.FxRate, error) {
	args := m.Called(ctx, date, pair)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FxRate), args.Error(1)
}

func (m *MockFxRateRepository) ListOn(ctx context.Context, date time.Time) ([]*domain.FxRate, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.FxRate), args.Error(1)
}

func (m *MockFxRateRepository) ListRange(ctx context.Context, pairs []string, start, end time.Time) ([]*domain.FxRate, error) {
	args := m.Called(ctx, pairs, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.FxRate), args.Error(1)
}

func (m *MockFxRateRepository) Pairs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockPriceRepository is a mock implementation of domain.PriceRepository
type MockPriceRepository struct {
	mock.Mock
}

func (m *MockPriceRepository) Upsert(ctx context.Context, price *domain.PriceObservation) error {
	args := m.Called(ctx, price)
	return args.Error(0)
}

func (m *MockPriceRepository) UpsertBatch(ctx context.Context, prices []*domain.PriceObservation) error {
	args := m.Called(ctx, prices)
	return args.Error(0)
}

func (m *MockPriceRepository) Get(ctx context.Context, date time.Time, ticker string) (*domain.PriceObservation, error) {
	args := m.Called(ctx, date, ticker)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PriceObservation), args.Error(1)
}

func (m *MockPriceRepository) ListRange(ctx context.Context, tickers []string, start, end time.Time) ([]*domain.PriceObservation, error) {
	args := m.Called(ctx, tickers, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PriceObservation), args.Error(1)
}

func (m *MockPriceRepository) Tickers(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockSnapshotRepository is a mock implementation of domain.SnapshotRepository
type MockSnapshotRepository struct {
	mock.Mock
}

func (m *MockSnapshotRepository) Upsert(ctx context.Context, snapshot *domain.HoldingSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockSnapshotRepository) ListOn(ctx context.Context, date time.Time) ([]*domain.HoldingSnapshot, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.HoldingSnapshot), args.Error(1)
}

func (m *MockSnapshotRepository) GetPrevious(ctx context.Context, ticker string, before time.Time) (*domain.HoldingSnapshot, error) {
	args := m.Called(ctx, ticker, before)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.HoldingSnapshot), args.Error(1)
}

func (m *MockSnapshotRepository) ListDates(ctx context.Context, start, end time.Time) ([]time.Time, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]time.Time), args.Error(1)
}

func (m *MockSnapshotRepository) DateRange(ctx context.Context) (time.Time, time.Time, error) {
	args := m.Called(ctx)
	return args.Get(0).(time.Time), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockSnapshotRepository) List(ctx context.Context) ([]*domain.HoldingSnapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.HoldingSnapshot), args.Error(1)
}

package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestHoldingSnapshot_Validate(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		snapshot HoldingSnapshot
		wantErr  bool
		errMsg   string
	}{
		{
			name:     "Regular position should pass",
			snapshot: HoldingSnapshot{Date: day, Ticker: "VTI", Quantity: decimal.NewFromInt(10), LocalPrice: decimal.NewFromInt(200)},
			wantErr:  false,
		},
		{
			name:     "Closed position (zero quantity) should pass",
			snapshot: HoldingSnapshot{Date: day, Ticker: "VTI", Quantity: decimal.Zero, LocalPrice: decimal.NewFromInt(200)},
			wantErr:  false,
		},
		{
			name:     "Negative quantity should fail",
			snapshot: HoldingSnapshot{Date: day, Ticker: "VTI", Quantity: decimal.NewFromInt(-1), LocalPrice: decimal.NewFromInt(200)},
			wantErr:  true,
			errMsg:   "quantity cannot be negative",
		},
		{
			name:     "Zero price should fail",
			snapshot: HoldingSnapshot{Date: day, Ticker: "VTI", Quantity: decimal.NewFromInt(10), LocalPrice: decimal.Zero},
			wantErr:  true,
			errMsg:   "local price must be positive",
		},
		{
			name:     "Empty ticker should fail",
			snapshot: HoldingSnapshot{Date: day, Quantity: decimal.NewFromInt(10), LocalPrice: decimal.NewFromInt(200)},
			wantErr:  true,
			errMsg:   "snapshot ticker cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.snapshot.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPriceObservation_Validate(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.NoError(t, (&PriceObservation{Date: day, Ticker: "VTI", Close: decimal.Zero}).Validate())
	assert.ErrorIs(t, (&PriceObservation{Date: day, Ticker: "VTI", Close: decimal.NewFromInt(-1)}).Validate(), ErrInvalidInput)
	assert.ErrorIs(t, (&PriceObservation{Date: day, Close: decimal.NewFromInt(1)}).Validate(), ErrInvalidInput)
}

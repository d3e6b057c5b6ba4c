package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAsset_Validate(t *testing.T) {
	name := "Vanguard Total Stock Market"

	tests := []struct {
		name    string
		asset   Asset
		wantErr bool
		errMsg  string
	}{
		{
			name:    "USD asset with name should pass",
			asset:   Asset{Ticker: "VTI", Currency: "USD", Name: &name},
			wantErr: false,
		},
		{
			name:    "Home currency asset without name should pass",
			asset:   Asset{Ticker: "1306.T", Currency: "JPY"},
			wantErr: false,
		},
		{
			name:    "Empty ticker should fail",
			asset:   Asset{Ticker: "  ", Currency: "USD"},
			wantErr: true,
			errMsg:  "asset ticker cannot be empty",
		},
		{
			name:    "Reserved ticker should fail",
			asset:   Asset{Ticker: PortfolioTicker, Currency: "USD"},
			wantErr: true,
			errMsg:  "is reserved",
		},
		{
			name:    "Two-letter currency should fail",
			asset:   Asset{Ticker: "VTI", Currency: "US"},
			wantErr: true,
			errMsg:  "3-letter code",
		},
		{
			name:    "Unknown currency should fail",
			asset:   Asset{Ticker: "VTI", Currency: "ZZZ"},
			wantErr: true,
			errMsg:  "unknown currency",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.asset.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidInput)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAsset_DisplayName(t *testing.T) {
	name := "Total Market"
	empty := ""

	assert.Equal(t, "Total Market", (&Asset{Ticker: "VTI", Name: &name}).DisplayName())
	assert.Equal(t, "VTI", (&Asset{Ticker: "VTI", Name: &empty}).DisplayName())
	assert.Equal(t, "VTI", (&Asset{Ticker: "VTI"}).DisplayName())
}

package shared

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCurrency_IsZeroDecimal(t *testing.T) {
	assert.True(t, JPY.IsZeroDecimal())
	assert.True(t, SEC.IsZeroDecimal())
	assert.False(t, USD.IsZeroDecimal())
	assert.Equal(t, JPY, ParseCurrency(" jpy "))
}

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		currency Currency
		expected int64
	}{
		{"yen stays whole", "1200", JPY, 1200},
		{"yen rounds", "1200.6", JPY, 1201},
		{"dollars to cents", "10.50", USD, 1050},
		{"euro fraction", "0.99", EUR, 99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ToMinorUnits(decimal.RequireFromString(tt.amount), tt.currency))
		})
	}
}

func TestFromMinorUnits(t *testing.T) {
	assert.True(t, decimal.NewFromInt(500).Equal(FromMinorUnits(500, JPY)))
	assert.True(t, decimal.RequireFromString("5.00").Equal(FromMinorUnits(500, USD)))
}

func TestRoundAmount(t *testing.T) {
	assert.True(t, decimal.NewFromInt(99).Equal(RoundAmount(decimal.RequireFromString("99.9"), JPY)))
	assert.True(t, decimal.RequireFromString("1.23").Equal(RoundAmount(decimal.RequireFromString("1.239"), USD)))
}

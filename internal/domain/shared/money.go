package shared

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 currency code, or SEC for the platform coin
type Currency string

const (
	JPY Currency = "JPY"
	USD Currency = "USD"
	EUR Currency = "EUR"
	// SEC is the internal loyalty coin settled by the coin payment service
	SEC Currency = "SEC"
)

// DefaultCurrency is the currency every price in the marketplace is stored in
const DefaultCurrency = JPY

// zero-decimal currencies are charged in whole units by Stripe
var zeroDecimalCurrencies = map[Currency]bool{
	JPY:   true,
	"KRW": true,
	"VND": true,
	SEC:   true,
}

// ParseCurrency normalizes a currency code
func ParseCurrency(code string) Currency {
	return Currency(strings.ToUpper(strings.TrimSpace(code)))
}

// IsZeroDecimal reports whether the currency has no minor unit
func (c Currency) IsZeroDecimal() bool {
	return zeroDecimalCurrencies[c]
}

// String returns the currency code
func (c Currency) String() string {
	return string(c)
}

// RoundAmount rounds an amount down to the smallest unit of the currency
func RoundAmount(amount decimal.Decimal, c Currency) decimal.Decimal {
	if c.IsZeroDecimal() {
		return amount.Floor()
	}
	return amount.RoundFloor(2)
}

// ToMinorUnits converts an amount to the smallest currency unit, as
// payment gateways expect. 1000 JPY is 1000, 10.50 USD is 1050.
func ToMinorUnits(amount decimal.Decimal, c Currency) int64 {
	if c.IsZeroDecimal() {
		return amount.Round(0).IntPart()
	}
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// FromMinorUnits is the inverse of ToMinorUnits
func FromMinorUnits(units int64, c Currency) decimal.Decimal {
	if c.IsZeroDecimal() {
		return decimal.NewFromInt(units)
	}
	return decimal.New(units, -2)
}

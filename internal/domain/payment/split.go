package payment

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/teebalk/marketplace/internal/domain/shared"
)

// MinStripeChargeJPY is the smallest amount Stripe accepts for JPY charges
var MinStripeChargeJPY = decimal.NewFromInt(50)

// Split is the division of a payment between coins and fiat money
type Split struct {
	Coin decimal.Decimal
	Fiat decimal.Decimal
}

// IsCoinOnly reports whether no fiat charge is needed
func (s Split) IsCoinOnly() bool {
	return s.Fiat.IsZero()
}

// CalculateSplit uses as many coins as requested, bounded by the wallet
// balance and the total, and charges the rest in fiat. One coin is worth
// one yen. A fiat remainder below minCharge cannot be charged and is
// rejected so the buyer can adjust the coin amount.
func CalculateSplit(total, requestedCoins, balance, minCharge decimal.Decimal) (Split, error) {
	if total.IsNegative() {
		return Split{}, shared.NewFieldValidationError("total", "total cannot be negative")
	}
	if requestedCoins.IsNegative() {
		return Split{}, shared.NewFieldValidationError("used_coins", "coin amount cannot be negative")
	}
	if !requestedCoins.Equal(requestedCoins.Floor()) {
		return Split{}, shared.NewFieldValidationError("used_coins", "coin amount must be a whole number")
	}
	if balance.IsNegative() {
		balance = decimal.Zero
	}

	coin := decimal.Min(requestedCoins, balance, total)
	fiat := total.Sub(coin)

	if fiat.IsPositive() && fiat.LessThan(minCharge) {
		return Split{}, shared.NewFieldValidationError("used_coins",
			fmt.Sprintf("remaining card amount %s is below the minimum charge of %s", fiat.String(), minCharge.String()))
	}
	return Split{Coin: coin, Fiat: fiat}, nil
}

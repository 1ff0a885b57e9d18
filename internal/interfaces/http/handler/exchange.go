package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/teebalk/marketplace/internal/domain/shared"
	"github.com/teebalk/marketplace/internal/infrastructure/exchange"
)

// RateSource supplies currency exchange rates
type RateSource interface {
	Latest(ctx context.Context, base shared.Currency) (*exchange.Rates, error)
	Convert(ctx context.Context, amount decimal.Decimal, from, to shared.Currency) (decimal.Decimal, error)
}

// ExchangeHandler serves exchange rates for displaying prices abroad
type ExchangeHandler struct {
	BaseHandler
	rates RateSource
}

// NewExchangeHandler creates a new ExchangeHandler
func NewExchangeHandler(rates RateSource) *ExchangeHandler {
	return &ExchangeHandler{rates: rates}
}

// ConvertQuery converts one amount between currencies
type ConvertQuery struct {
	Amount string `form:"amount" binding:"required"`
	From   string `form:"from"`
	To     string `form:"to" binding:"required,len=3"`
}

// ConversionResponse is one converted amount
type ConversionResponse struct {
	Amount    decimal.Decimal `json:"amount"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Converted decimal.Decimal `json:"converted"`
}

// Latest godoc
//
//	@Summary	Latest exchange rates
//	@Tags		exchange
//	@Param		base	query	string	false	"Base currency, JPY by default"
//	@Router		/exchange-rates [get]
func (h *ExchangeHandler) Latest(c *gin.Context) {
	rates, err := h.rates.Latest(c.Request.Context(), shared.ParseCurrency(c.Query("base")))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, rates)
}

// Convert converts an amount, from JPY unless from is given
func (h *ExchangeHandler) Convert(c *gin.Context) {
	var q ConvertQuery
	if !h.BindQuery(c, &q) {
		return
	}
	amount, err := decimal.NewFromString(q.Amount)
	if err != nil || amount.IsNegative() {
		h.Error(c, shared.NewFieldValidationError("amount", "Must be a non-negative number"))
		return
	}
	from := shared.ParseCurrency(q.From)
	if from == "" {
		from = shared.DefaultCurrency
	}
	to := shared.ParseCurrency(q.To)

	converted, err := h.rates.Convert(c.Request.Context(), amount, from, to)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, ConversionResponse{Amount: amount, From: from.String(), To: to.String(), Converted: converted})
}

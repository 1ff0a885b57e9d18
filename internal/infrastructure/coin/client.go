// Package coin is the client of the coin payment microservice that keeps
// SEC wallet balances.
package coin

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/teebalk/marketplace/internal/domain/payment"
	"github.com/teebalk/marketplace/internal/domain/shared"
	"github.com/teebalk/marketplace/internal/infrastructure/config"
	"github.com/teebalk/marketplace/internal/infrastructure/external"
)

const serviceName = "coin service"

// Client implements payment.CoinWallet over the service's REST API
type Client struct {
	api    *external.Client
	logger *zap.Logger
}

// NewClient creates a coin service client authenticated with cfg.APIKey
func NewClient(cfg config.CoinConfig, logger *zap.Logger) *Client {
	header := http.Header{}
	if cfg.APIKey != "" {
		header.Set("X-Api-Key", cfg.APIKey)
	}
	return &Client{
		api:    external.NewClient(serviceName, cfg.BaseURL, cfg.Timeout, header),
		logger: logger,
	}
}

type balanceResponse struct {
	Balance decimal.Decimal `json:"balance"`
}

type chargeRequest struct {
	UserID    string          `json:"user_id"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference"`
}

type chargeResponse struct {
	ID string `json:"id"`
}

// Balance returns the user's spendable coins
func (c *Client) Balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	var resp balanceResponse
	path := fmt.Sprintf("/api/v1/wallets/%s/balance", url.PathEscape(userID.String()))
	if err := c.api.Do(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		return decimal.Zero, c.translate("balance", err)
	}
	return resp.Balance, nil
}

// Charge debits coins. reference is the payment transaction ID so the
// service can reject duplicate charges.
func (c *Client) Charge(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, reference string) (string, error) {
	if !amount.IsPositive() {
		return "", shared.NewFieldValidationError("used_coins", "coin amount must be positive")
	}
	var resp chargeResponse
	req := chargeRequest{UserID: userID.String(), Amount: amount, Reference: reference}
	if err := c.api.Do(ctx, http.MethodPost, "/api/v1/transactions/charge", nil, req, &resp); err != nil {
		return "", c.translate("charge", err)
	}
	c.logger.Info("Charged coins",
		zap.String("user_id", userID.String()),
		zap.String("amount", amount.String()),
		zap.String("reference", reference),
		zap.String("coin_transaction_id", resp.ID))
	return resp.ID, nil
}

// Refund returns the coins of a previous charge
func (c *Client) Refund(ctx context.Context, coinTransactionID string) error {
	path := fmt.Sprintf("/api/v1/transactions/%s/refund", url.PathEscape(coinTransactionID))
	if err := c.api.Do(ctx, http.MethodPost, path, nil, nil, nil); err != nil {
		return c.translate("refund", err)
	}
	c.logger.Info("Refunded coins", zap.String("coin_transaction_id", coinTransactionID))
	return nil
}

// translate maps 402 to PAYMENT_FAILED; every other failure is an
// EXTERNAL_SERVICE_ERROR
func (c *Client) translate(op string, err error) error {
	c.logger.Warn("Coin service call failed", zap.String("op", op), zap.Error(err))
	if external.StatusCode(err) == http.StatusPaymentRequired {
		return shared.WrapApiError(shared.CodePaymentFailed, "Not enough coins in wallet", err)
	}
	return external.Unavailable(serviceName, err)
}

var _ payment.CoinWallet = (*Client)(nil)

// Package notification emails buyers and sellers when orders change state.
// Handlers subscribe to domain events; delivery failures are logged and
// never reach the payment flow that published the event.
package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/teebalk/marketplace/internal/domain/shop"
	"github.com/teebalk/marketplace/internal/infrastructure/auth"
	"github.com/teebalk/marketplace/internal/infrastructure/mail"
)

// UserDirectory resolves SSO users to their profile
type UserDirectory interface {
	LookupUser(ctx context.Context, userID uuid.UUID) (*auth.Profile, error)
}

// Notifier holds what every notification handler needs to address and
// render an email
type Notifier struct {
	mailer  mail.Mailer
	users   UserDirectory
	shops   shop.Repository
	printer *message.Printer
	logger  *zap.Logger
}

// NewNotifier creates a Notifier
func NewNotifier(mailer mail.Mailer, users UserDirectory, shops shop.Repository, logger *zap.Logger) *Notifier {
	return &Notifier{
		mailer:  mailer,
		users:   users,
		shops:   shops,
		printer: message.NewPrinter(language.Japanese),
		logger:  logger,
	}
}

// yen formats a JPY amount with digit grouping, e.g. ¥12,000
func (n *Notifier) yen(amount decimal.Decimal) string {
	return n.printer.Sprintf("¥%d", amount.IntPart())
}

func (n *Notifier) userEmail(ctx context.Context, userID uuid.UUID) string {
	profile, err := n.users.LookupUser(ctx, userID)
	if err != nil {
		n.logger.Warn("failed to look up notification recipient",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return ""
	}
	return profile.Email
}

// shopContact returns the shop and the address its mail goes to. Shops
// without a contact address are mailed at their owner's SSO address.
func (n *Notifier) shopContact(ctx context.Context, shopID uuid.UUID) (*shop.Shop, string) {
	s, err := n.shops.FindByID(ctx, shopID)
	if err != nil {
		n.logger.Warn("failed to load shop for notification",
			zap.String("shop_id", shopID.String()),
			zap.Error(err))
		return nil, ""
	}
	if s.Email != "" {
		return s, s.Email
	}
	return s, n.userEmail(ctx, s.UserID)
}

// send delivers one message. It reports nothing: a lost email must not
// undo a settled payment.
func (n *Notifier) send(ctx context.Context, to, subject string, body *strings.Builder) {
	if to == "" {
		n.logger.Warn("notification skipped, no recipient address", zap.String("subject", subject))
		return
	}
	err := n.mailer.Send(ctx, mail.Message{To: []string{to}, Subject: subject, Body: body.String()})
	if err != nil {
		n.logger.Error("failed to send notification",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err))
		return
	}
	n.logger.Debug("notification sent", zap.String("to", to), zap.String("subject", subject))
}

func unexpectedEvent(logger *zap.Logger, expected, actual string) error {
	logger.Error("unexpected event type",
		zap.String("expected", expected),
		zap.String("actual", actual))
	return fmt.Errorf("unexpected event type: expected %s, got %s", expected, actual)
}

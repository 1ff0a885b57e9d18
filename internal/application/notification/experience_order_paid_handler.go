package notification

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/teebalk/marketplace/internal/domain/experience"
	"github.com/teebalk/marketplace/internal/domain/shared"
)

// sessionTimeLayout renders session times in the marketplace's local zone
const sessionTimeLayout = "2006-01-02 15:04 MST"

// ExperienceOrderPaidHandler sends the buyer their ticket codes and tells
// the shop about the booking
type ExperienceOrderPaidHandler struct {
	*Notifier
	experiences experience.Repository
	sessions    experience.SessionRepository
}

// NewExperienceOrderPaidHandler creates a new ExperienceOrderPaidHandler
func NewExperienceOrderPaidHandler(n *Notifier, experiences experience.Repository, sessions experience.SessionRepository) *ExperienceOrderPaidHandler {
	return &ExperienceOrderPaidHandler{Notifier: n, experiences: experiences, sessions: sessions}
}

// EventTypes returns the event types this handler is interested in
func (h *ExperienceOrderPaidHandler) EventTypes() []string {
	return []string{experience.EventTypeExperienceOrderPaid}
}

// Handle sends the booking emails
func (h *ExperienceOrderPaidHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	paid, ok := event.(*experience.OrderPaidEvent)
	if !ok {
		return unexpectedEvent(h.logger, experience.EventTypeExperienceOrderPaid, event.EventType())
	}

	title, when, where := h.describe(ctx, paid)

	var buyer strings.Builder
	fmt.Fprintf(&buyer, "Your booking for %s is confirmed.\n\n", title)
	fmt.Fprintf(&buyer, "Booking: %s\n", paid.Code)
	if when != "" {
		fmt.Fprintf(&buyer, "When: %s\n", when)
	}
	if where != "" {
		fmt.Fprintf(&buyer, "Where: %s\n", where)
	}
	fmt.Fprintf(&buyer, "Total: %s\n\n", h.yen(paid.Total))
	buyer.WriteString("Show one code per guest at the entrance:\n")
	for _, code := range paid.TicketCodes {
		fmt.Fprintf(&buyer, "  %s\n", code)
	}
	h.send(ctx, h.userEmail(ctx, paid.UserID), "Booking confirmed: "+title, &buyer)

	_, shopAddr := h.shopContact(ctx, paid.ShopID)
	var seller strings.Builder
	fmt.Fprintf(&seller, "New booking %s for %s.\n\n", paid.Code, title)
	if when != "" {
		fmt.Fprintf(&seller, "Session: %s\n", when)
	}
	fmt.Fprintf(&seller, "Guests: %d\n", len(paid.TicketCodes))
	fmt.Fprintf(&seller, "Total: %s\n", h.yen(paid.Total))
	h.send(ctx, shopAddr, "New booking: "+paid.Code, &seller)
	return nil
}

// describe resolves the experience title, session time and location. Lookup
// failures degrade the email instead of dropping it.
func (h *ExperienceOrderPaidHandler) describe(ctx context.Context, paid *experience.OrderPaidEvent) (title, when, where string) {
	title = "your experience"
	if e, err := h.experiences.FindByID(ctx, paid.ExperienceID); err == nil {
		title = e.Title
		where = e.Location
	} else {
		h.logger.Warn("failed to load experience for notification",
			zap.String("experience_id", paid.ExperienceID.String()),
			zap.Error(err))
	}
	if s, err := h.sessions.FindByID(ctx, paid.SessionID); err == nil {
		when = s.StartTime.Format(sessionTimeLayout)
	} else {
		h.logger.Warn("failed to load session for notification",
			zap.String("session_id", paid.SessionID.String()),
			zap.Error(err))
	}
	return title, when, where
}

var _ shared.EventHandler = (*ExperienceOrderPaidHandler)(nil)

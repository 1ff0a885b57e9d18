package experience

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	paymentapp "github.com/teebalk/marketplace/internal/application/payment"
	"github.com/teebalk/marketplace/internal/application/uow"
	"github.com/teebalk/marketplace/internal/domain/experience"
	"github.com/teebalk/marketplace/internal/domain/payment"
	"github.com/teebalk/marketplace/internal/domain/shared"
	"github.com/teebalk/marketplace/internal/domain/shop"
	"github.com/teebalk/marketplace/internal/infrastructure/telemetry"
)

// BookingConfig controls how long seats are held
type BookingConfig struct {
	HoldTTL      time.Duration
	PaymentTTL   time.Duration
	CleanupBatch int
}

// BookingService holds seats while the buyer pays and turns settled
// payments into bookings with ticket codes.
//
// Seats are held by reservation rows that count against availability
// until they expire. Ticket rows of a session are locked while holds are
// taken or sold, so concurrent buyers serialize per session.
type BookingService struct {
	scope           uow.TransactionScope
	experienceRepo  experience.Repository
	sessionRepo     experience.SessionRepository
	reservationRepo experience.ReservationRepository
	orderRepo       experience.OrderRepository
	txRepo          payment.TransactionRepository
	shopRepo        shop.Repository
	payments        *paymentapp.PaymentService
	cfg             BookingConfig
	eventPublisher  shared.EventPublisher
	metrics         *telemetry.Metrics
	logger          *zap.Logger
	now             func() time.Time
}

// NewBookingService creates a new BookingService
func NewBookingService(
	scope uow.TransactionScope,
	experienceRepo experience.Repository,
	sessionRepo experience.SessionRepository,
	reservationRepo experience.ReservationRepository,
	orderRepo experience.OrderRepository,
	txRepo payment.TransactionRepository,
	shopRepo shop.Repository,
	payments *paymentapp.PaymentService,
	cfg BookingConfig,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		scope:           scope,
		experienceRepo:  experienceRepo,
		sessionRepo:     sessionRepo,
		reservationRepo: reservationRepo,
		orderRepo:       orderRepo,
		txRepo:          txRepo,
		shopRepo:        shopRepo,
		payments:        payments,
		cfg:             cfg,
		logger:          logger,
		now:             shared.Now,
	}
}

// SetEventPublisher sets the publisher for booking events
func (s *BookingService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the business metrics recorder
func (s *BookingService) SetMetrics(m *telemetry.Metrics) {
	s.metrics = m
}

// ReserveTickets replaces the buyer's holds on a session with the requested
// seats. A payment already started for the old holds is voided first.
func (s *BookingService) ReserveTickets(ctx context.Context, userID, sessionID uuid.UUID, req ReserveTicketsRequest) (*ReservationResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "BookingService", "ReserveTickets",
		telemetry.AttrUserID, userID.String(),
		telemetry.AttrSessionID, sessionID.String(),
	)
	defer span.End()

	wanted, err := mergeQuantities(req.Tickets)
	if err != nil {
		return nil, err
	}
	now := s.now()
	session, e, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := session.EnsureBookable(now); err != nil {
		return nil, err
	}
	if err := s.releasePrevious(ctx, userID, sessionID, now); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var holds []experience.Reservation
	err = s.scope.Execute(ctx, func(repos uow.Repositories) error {
		tickets, err := repos.Sessions().FindTicketsForUpdate(ctx, sessionID)
		if err != nil {
			return err
		}
		if _, err := repos.Reservations().DeleteByUserAndSession(ctx, userID, sessionID); err != nil {
			return err
		}
		held, err := repos.Reservations().SumActiveBySessionTicket(ctx, sessionID, now)
		if err != nil {
			return err
		}

		byID := make(map[uuid.UUID]*experience.SessionTicket, len(tickets))
		for i := range tickets {
			byID[tickets[i].ID] = &tickets[i]
		}
		for _, w := range wanted {
			st, ok := byID[w.SessionTicketID]
			if !ok {
				return shared.NewFieldValidationError("tickets", "ticket does not belong to this session")
			}
			if err := st.EnsureAvailable(w.Quantity, held[st.ID]); err != nil {
				return err
			}
			r, err := experience.NewReservation(sessionID, st.ID, userID, w.Quantity, now, s.cfg.HoldTTL)
			if err != nil {
				return err
			}
			holds = append(holds, *r)
		}
		return repos.Reservations().SaveBatch(ctx, holds)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.AttrQuantity, experience.TotalQuantity(holds))
	return toReservationResponse(e, session, holds), nil
}

// CreatePaymentIntent starts paying for the buyer's active holds. Calling
// it again while that payment is pending returns the same payment. Holds
// are extended so the card flow can finish; free or coin-only bookings are
// finalized right away.
func (s *BookingService) CreatePaymentIntent(ctx context.Context, userID, sessionID uuid.UUID, req BookingPaymentRequest) (*BookingPaymentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "BookingService", "CreatePaymentIntent",
		telemetry.AttrUserID, userID.String(),
		telemetry.AttrSessionID, sessionID.String(),
	)
	defer span.End()

	now := s.now()
	holds, err := s.reservationRepo.FindActiveByUserAndSession(ctx, userID, sessionID, now)
	if err != nil {
		return nil, err
	}
	if len(holds) == 0 {
		return nil, errReservationExpired()
	}
	if txID := holds[0].PaymentTransactionID; txID != nil {
		tx, err := s.txRepo.FindByID(ctx, *txID)
		if err != nil {
			return nil, err
		}
		if tx.Status == payment.StatusPending {
			return &BookingPaymentResponse{
				Payment:   paymentapp.ToTransactionResponse(tx),
				ExpiredAt: earliestExpiry(holds),
			}, nil
		}
	}

	session, e, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	balance, err := s.payments.Balance(ctx, userID, req.UsedCoins)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var (
		tx        *payment.Transaction
		expiredAt = now.Add(s.cfg.PaymentTTL).UTC()
	)
	err = s.scope.Execute(ctx, func(repos uow.Repositories) error {
		holds, err := repos.Reservations().FindActiveByUserAndSession(ctx, userID, sessionID, now)
		if err != nil {
			return err
		}
		if len(holds) == 0 {
			return errReservationExpired()
		}
		for _, h := range holds {
			if h.PaymentTransactionID != nil {
				return shared.NewApiError(shared.CodeInvalidState, "A payment for these tickets is already in progress")
			}
		}
		details, err := orderDetails(e, session, holds)
		if err != nil {
			return err
		}

		if tx, err = payment.NewTransaction(userID, payment.KindExperienceOrder, detailsTotal(details)); err != nil {
			return err
		}
		if err := s.payments.Split(tx, req.UsedCoins, balance); err != nil {
			return err
		}
		if err := repos.Transactions().Save(ctx, tx); err != nil {
			return err
		}
		for i := range holds {
			holds[i].AttachTransaction(tx.ID)
			holds[i].ExtendUntil(expiredAt)
		}
		return repos.Reservations().SaveBatch(ctx, holds)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.AttrTransactionID, tx.ID.String(), telemetry.AttrAmount, tx.TotalAmount.String())

	if err := s.payments.Settle(ctx, tx, e.Title); err != nil {
		telemetry.RecordError(span, err)
		if _, failErr := s.FailPayment(ctx, tx.ID, "payment could not be started: "+err.Error()); failErr != nil {
			s.logger.Error("failed to roll back booking payment",
				zap.String("transaction_id", tx.ID.String()),
				zap.Error(failErr),
			)
		}
		return nil, err
	}

	resp := &BookingPaymentResponse{ExpiredAt: expiredAt}
	if !tx.RequiresStripe() {
		o, err := s.FinalizePayment(ctx, tx.ID)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		if tx, err = s.txRepo.FindByID(ctx, tx.ID); err != nil {
			return nil, err
		}
		order := ToExperienceOrderResponse(o)
		resp.Order = &order
	}
	resp.Payment = paymentapp.ToTransactionResponse(tx)
	return resp, nil
}

// FinalizePayment turns a settled payment into a booking: seats are sold,
// ticket codes issued and the holds dropped. Finalizing a completed
// transaction again returns the existing booking.
//
// Holds that expired in the meantime are honored if the seats are still
// free. If they are not, the transaction fails and the money is refunded.
func (s *BookingService) FinalizePayment(ctx context.Context, transactionID uuid.UUID) (*experience.Order, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "BookingService", "FinalizePayment",
		telemetry.AttrTransactionID, transactionID.String(),
	)
	defer span.End()

	// The experience is read before the database transaction starts;
	// everything that changes is re-read under lock inside it. A listing
	// withdrawn after the buyer paid is rejected below, not reported as
	// missing.
	var (
		session *experience.Session
		e       *experience.Experience
	)
	pre, err := s.reservationRepo.FindByTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if len(pre) > 0 {
		if session, e, err = s.loadListing(ctx, pre[0].SessionID); err != nil {
			return nil, err
		}
	}

	now := s.now()
	var (
		tx       *payment.Transaction
		o        *experience.Order
		changed  bool
		rejected string
	)
	err = s.scope.Execute(ctx, func(repos uow.Repositories) error {
		var err error
		tx, err = repos.Transactions().FindByIDForUpdate(ctx, transactionID)
		if err != nil {
			return err
		}
		if tx.Status == payment.StatusCompleted {
			o, err = repos.ExperienceOrders().FindByTransaction(ctx, transactionID)
			return err
		}
		if tx.Status.IsFinal() {
			_, err = tx.Complete()
			return err
		}

		holds, err := repos.Reservations().FindByTransaction(ctx, transactionID)
		if err != nil {
			return err
		}
		switch {
		case len(holds) == 0 || session == nil:
			rejected = "ticket reservation expired before the payment completed"
		case !e.IsPublished():
			rejected = "experience is no longer listed"
		default:
			rejected, err = s.sell(ctx, repos, session.ID, holds, now)
			if err != nil {
				return err
			}
		}
		if rejected != "" {
			if changed, err = tx.Fail(rejected); err != nil {
				return err
			}
			if _, err := repos.Reservations().DeleteByTransaction(ctx, transactionID); err != nil {
				return err
			}
			return repos.Transactions().SaveWithLock(ctx, tx)
		}

		details, err := orderDetails(e, session, holds)
		if err != nil {
			return err
		}
		if o, err = experience.NewPaidOrder(tx.UserID, e.ShopID, e.ID, session.ID, tx.ID, details); err != nil {
			return err
		}
		if err := repos.ExperienceOrders().Save(ctx, o); err != nil {
			return err
		}
		if _, err := repos.Reservations().DeleteByTransaction(ctx, transactionID); err != nil {
			return err
		}
		if changed, err = tx.Complete(); err != nil {
			return err
		}
		return repos.Transactions().SaveWithLock(ctx, tx)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if rejected != "" {
		if changed {
			if err := s.payments.RefundFunds(ctx, tx); err != nil {
				telemetry.RecordError(span, err)
			}
			s.payments.Settled(tx)
			s.publishTx(ctx, tx)
			s.logger.Warn("booking rejected after payment, refunded",
				zap.String("transaction_id", tx.ID.String()),
				zap.String("reason", rejected),
			)
		}
		return nil, shared.NewApiError(shared.CodeReservationExpired,
			"The reserved tickets are no longer available. Your payment has been refunded.")
	}
	if !changed {
		return o, nil
	}

	s.payments.Settled(tx)
	s.publishOrder(ctx, o)
	s.publishTx(ctx, tx)
	s.logger.Info("experience booking completed",
		zap.String("transaction_id", tx.ID.String()),
		zap.String("order_id", o.ID.String()),
		zap.Int("tickets", len(o.Tickets)),
	)
	return o, nil
}

// sell locks the session's ticket rows and records the held seats as sold.
// It returns a rejection reason instead of an error when the seats cannot
// be sold any more; nothing is written in that case.
func (s *BookingService) sell(ctx context.Context, repos uow.Repositories, sessionID uuid.UUID, holds []experience.Reservation, now time.Time) (string, error) {
	current, err := repos.Sessions().FindByID(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if current.Status != experience.SessionStatusActive {
		return "session was cancelled", nil
	}
	tickets, err := repos.Sessions().FindTicketsForUpdate(ctx, sessionID)
	if err != nil {
		return "", err
	}
	held, err := repos.Reservations().SumActiveBySessionTicket(ctx, sessionID, now)
	if err != nil {
		return "", err
	}
	wanted := make(map[uuid.UUID]int)
	for _, h := range holds {
		wanted[h.SessionTicketID] += h.Quantity
		if h.IsActive(now) {
			held[h.SessionTicketID] -= h.Quantity
		}
	}

	for i := range tickets {
		st := &tickets[i]
		if qty := wanted[st.ID]; qty > 0 {
			if err := st.EnsureAvailable(qty, held[st.ID]); err != nil {
				if errors.Is(err, shared.ErrInsufficientStock) {
					return "tickets sold out before the payment completed", nil
				}
				return "", err
			}
		}
	}
	for i := range tickets {
		st := &tickets[i]
		qty := wanted[st.ID]
		if qty == 0 {
			continue
		}
		if err := st.Sell(qty, held[st.ID]); err != nil {
			return "", err
		}
		if err := repos.Sessions().SaveTicketWithLock(ctx, st); err != nil {
			return "", err
		}
	}
	return "", nil
}

// FailPayment closes a transaction whose card payment failed, drops its
// holds and releases any funds taken.
func (s *BookingService) FailPayment(ctx context.Context, transactionID uuid.UUID, reason string) (*payment.Transaction, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "BookingService", "FailPayment",
		telemetry.AttrTransactionID, transactionID.String(),
	)
	defer span.End()

	var (
		tx      *payment.Transaction
		changed bool
	)
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		var err error
		tx, err = repos.Transactions().FindByIDForUpdate(ctx, transactionID)
		if err != nil {
			return err
		}
		if changed, err = tx.Fail(reason); err != nil || !changed {
			return err
		}
		if _, err := repos.Reservations().DeleteByTransaction(ctx, transactionID); err != nil {
			return err
		}
		return repos.Transactions().SaveWithLock(ctx, tx)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if !changed {
		return tx, nil
	}

	if err := s.payments.ReleaseFunds(ctx, tx); err != nil {
		telemetry.RecordError(span, err)
	}
	s.payments.Settled(tx)
	s.publishTx(ctx, tx)
	s.logger.Info("booking payment failed",
		zap.String("transaction_id", tx.ID.String()),
		zap.String("reason", reason),
	)
	return tx, nil
}

// CancelReservation gives up the buyer's seats on a session and voids the
// payment started for them. Cancelling without holds is a no-op.
func (s *BookingService) CancelReservation(ctx context.Context, userID, sessionID uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "BookingService", "CancelReservation",
		telemetry.AttrUserID, userID.String(),
		telemetry.AttrSessionID, sessionID.String(),
	)
	defer span.End()

	if err := s.releasePrevious(ctx, userID, sessionID, s.now()); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	_, err := s.reservationRepo.DeleteByUserAndSession(ctx, userID, sessionID)
	return err
}

// CleanupExpiredReservations drops lapsed holds. Payments started for them
// are voided first; holds whose payment cannot be voided are kept so a late
// successful payment can still be finalized, and counted as failed.
func (s *BookingService) CleanupExpiredReservations(ctx context.Context) (*CleanupStats, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "BookingService", "CleanupExpiredReservations")
	defer span.End()

	now := s.now()
	expired, err := s.reservationRepo.FindExpired(ctx, now, s.cfg.CleanupBatch)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	stats := &CleanupStats{Total: len(expired), ProcessedAt: now}
	if len(expired) == 0 {
		return stats, nil
	}

	var (
		unattached []uuid.UUID
		byTx       = make(map[uuid.UUID]int)
		txIDs      []uuid.UUID
	)
	for _, r := range expired {
		if r.PaymentTransactionID == nil {
			unattached = append(unattached, r.ID)
			continue
		}
		if _, seen := byTx[*r.PaymentTransactionID]; !seen {
			txIDs = append(txIDs, *r.PaymentTransactionID)
		}
		byTx[*r.PaymentTransactionID]++
	}

	for _, txID := range txIDs {
		if err := s.voidTransaction(ctx, txID, "reservation expired"); err != nil {
			stats.Failed += byTx[txID]
			s.logger.Warn("failed to release expired reservation",
				zap.String("transaction_id", txID.String()),
				zap.Error(err),
			)
			continue
		}
		stats.Released += byTx[txID]
	}
	if len(unattached) > 0 {
		n, err := s.reservationRepo.DeleteByIDs(ctx, unattached)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		stats.Released += int(n)
	}

	s.metrics.ReservationsExpired(stats.Released)
	telemetry.SetAttributes(span, telemetry.AttrQuantity, stats.Released)
	return stats, nil
}

// releasePrevious voids payments started for the buyer's holds on a
// session and drops those holds
func (s *BookingService) releasePrevious(ctx context.Context, userID, sessionID uuid.UUID, now time.Time) error {
	holds, err := s.reservationRepo.FindActiveByUserAndSession(ctx, userID, sessionID, now)
	if err != nil {
		return err
	}
	seen := make(map[uuid.UUID]bool)
	for _, h := range holds {
		if h.PaymentTransactionID == nil || seen[*h.PaymentTransactionID] {
			continue
		}
		seen[*h.PaymentTransactionID] = true
		if err := s.voidTransaction(ctx, *h.PaymentTransactionID, "reservation replaced by the buyer"); err != nil {
			return err
		}
	}
	return nil
}

// voidTransaction cancels a pending booking payment and deletes its holds.
// The card payment is cancelled before anything is written, so an error
// leaves transaction and holds untouched.
func (s *BookingService) voidTransaction(ctx context.Context, transactionID uuid.UUID, reason string) error {
	tx, err := s.txRepo.FindByID(ctx, transactionID)
	if err != nil {
		return err
	}
	if tx.Status == payment.StatusPending {
		if err := s.payments.Void(ctx, tx); err != nil {
			return shared.WrapApiError(shared.CodeExternalService, "The pending payment could not be cancelled", err)
		}
	}

	changed := false
	err = s.scope.Execute(ctx, func(repos uow.Repositories) error {
		locked, err := repos.Transactions().FindByIDForUpdate(ctx, transactionID)
		if err != nil {
			return err
		}
		if locked.Status == payment.StatusPending {
			if changed, err = locked.Cancel(reason); err != nil {
				return err
			}
			if err := repos.Transactions().SaveWithLock(ctx, locked); err != nil {
				return err
			}
		}
		tx = locked
		_, err = repos.Reservations().DeleteByTransaction(ctx, transactionID)
		return err
	})
	if err != nil {
		return err
	}
	if changed {
		s.payments.Settled(tx)
	}
	return nil
}

// CheckInTicket admits the holder of a ticket code at the seller's door
func (s *BookingService) CheckInTicket(ctx context.Context, sellerID uuid.UUID, req CheckInRequest) (*ExperienceOrderResponse, error) {
	o, err := s.orderRepo.FindByTicketCode(ctx, req.Code)
	if err != nil {
		return nil, err
	}
	sh, err := s.shopRepo.FindByID(ctx, o.ShopID)
	if err != nil {
		return nil, err
	}
	if !sh.IsOwnedBy(sellerID) {
		return nil, shared.NewApiError(shared.CodeInvalidState, "This ticket is not for one of your experiences")
	}
	t, err := o.CheckIn(req.Code, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.orderRepo.SaveTicket(ctx, t); err != nil {
		return nil, err
	}
	resp := ToExperienceOrderResponse(o)
	return &resp, nil
}

// ListMyOrders lists the buyer's bookings, newest first
func (s *BookingService) ListMyOrders(ctx context.Context, userID uuid.UUID, f ExperienceOrderListFilter) (*shared.Paginated[ExperienceOrderResponse], error) {
	filter := shared.DefaultFilter()
	filter.Page = f.Page
	filter.PageSize = f.PageSize
	filter = filter.Normalize()

	orders, total, err := s.orderRepo.FindByUser(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	items := make([]ExperienceOrderResponse, len(orders))
	for i := range orders {
		items[i] = ToExperienceOrderResponse(&orders[i])
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// GetOrder returns a booking to its buyer or to the shop that sold it
func (s *BookingService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*ExperienceOrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		sh, err := s.shopRepo.FindByID(ctx, o.ShopID)
		if err != nil || !sh.IsOwnedBy(userID) {
			return nil, shared.NewApiError(shared.CodeNotFound, "Experience order not found")
		}
	}
	resp := ToExperienceOrderResponse(o)
	return &resp, nil
}

// load returns a session with its experience. Sessions of unlisted
// experiences cannot be booked.
func (s *BookingService) load(ctx context.Context, sessionID uuid.UUID) (*experience.Session, *experience.Experience, error) {
	session, e, err := s.loadListing(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if !e.IsPublished() {
		return nil, nil, shared.NewApiError(shared.CodeNotFound, "Session not found")
	}
	return session, e, nil
}

// loadListing returns a session with its experience whatever the listing
// status
func (s *BookingService) loadListing(ctx context.Context, sessionID uuid.UUID) (*experience.Session, *experience.Experience, error) {
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	e, err := s.experienceRepo.FindByID(ctx, session.ExperienceID)
	if err != nil {
		return nil, nil, err
	}
	return session, e, nil
}

func (s *BookingService) publishOrder(ctx context.Context, o *experience.Order) {
	if s.eventPublisher != nil {
		if err := s.eventPublisher.Publish(ctx, o.GetDomainEvents()...); err != nil {
			s.logger.Warn("failed to publish booking events", zap.String("order_id", o.ID.String()), zap.Error(err))
		}
	}
	o.ClearDomainEvents()
}

func (s *BookingService) publishTx(ctx context.Context, tx *payment.Transaction) {
	if s.eventPublisher != nil {
		_ = s.eventPublisher.Publish(ctx, tx.GetDomainEvents()...)
	}
	tx.ClearDomainEvents()
}

// mergeQuantities sums repeated session tickets, keeping request order
func mergeQuantities(in []TicketQuantity) ([]TicketQuantity, error) {
	if len(in) == 0 {
		return nil, shared.NewFieldValidationError("tickets", "select at least one ticket")
	}
	index := make(map[uuid.UUID]int, len(in))
	out := make([]TicketQuantity, 0, len(in))
	for _, t := range in {
		if t.Quantity <= 0 {
			return nil, shared.NewFieldValidationError("quantity", "quantity must be positive")
		}
		if i, ok := index[t.SessionTicketID]; ok {
			out[i].Quantity += t.Quantity
			continue
		}
		index[t.SessionTicketID] = len(out)
		out = append(out, t)
	}
	return out, nil
}

// orderDetails prices the holds with the experience's ticket types
func orderDetails(e *experience.Experience, session *experience.Session, holds []experience.Reservation) ([]experience.OrderDetail, error) {
	ticketOf := make(map[uuid.UUID]uuid.UUID, len(session.Tickets))
	for _, st := range session.Tickets {
		ticketOf[st.ID] = st.TicketID
	}
	qty := make(map[uuid.UUID]int)
	var order []uuid.UUID
	for _, h := range holds {
		if _, ok := qty[h.SessionTicketID]; !ok {
			order = append(order, h.SessionTicketID)
		}
		qty[h.SessionTicketID] += h.Quantity
	}

	details := make([]experience.OrderDetail, 0, len(order))
	for _, id := range order {
		t, ok := e.FindTicket(ticketOf[id])
		if !ok {
			return nil, shared.NewApiError(shared.CodeInvalidState, "A reserved ticket is no longer offered")
		}
		details = append(details, experience.OrderDetail{
			SessionTicketID: id,
			TicketTitle:     t.Title,
			Price:           t.Price,
			Quantity:        qty[id],
		})
	}
	return details, nil
}

func detailsTotal(details []experience.OrderDetail) decimal.Decimal {
	total := decimal.Zero
	for _, d := range details {
		total = total.Add(d.Subtotal())
	}
	return total
}

func toReservationResponse(e *experience.Experience, session *experience.Session, holds []experience.Reservation) *ReservationResponse {
	resp := &ReservationResponse{
		SessionID: session.ID,
		Tickets:   make([]ReservedTicketResponse, 0, len(holds)),
		Total:     decimal.Zero,
		ExpiredAt: earliestExpiry(holds),
	}
	ticketOf := make(map[uuid.UUID]uuid.UUID, len(session.Tickets))
	for _, st := range session.Tickets {
		ticketOf[st.ID] = st.TicketID
	}
	for _, h := range holds {
		item := ReservedTicketResponse{
			ID:              h.ID,
			SessionTicketID: h.SessionTicketID,
			Quantity:        h.Quantity,
			Subtotal:        decimal.Zero,
		}
		if t, ok := e.FindTicket(ticketOf[h.SessionTicketID]); ok {
			item.Title = t.Title
			item.Price = t.Price
			item.Subtotal = t.Price.Mul(decimal.NewFromInt(int64(h.Quantity)))
		}
		resp.Total = resp.Total.Add(item.Subtotal)
		resp.Tickets = append(resp.Tickets, item)
	}
	sort.SliceStable(resp.Tickets, func(i, j int) bool { return resp.Tickets[i].Title < resp.Tickets[j].Title })
	return resp
}

func earliestExpiry(holds []experience.Reservation) time.Time {
	var first time.Time
	for _, h := range holds {
		if first.IsZero() || h.ExpiredAt.Before(first) {
			first = h.ExpiredAt
		}
	}
	return first
}

func errReservationExpired() error {
	return shared.NewApiError(shared.CodeReservationExpired, "Your ticket reservation has expired. Please select tickets again.")
}

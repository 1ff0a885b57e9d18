// Package experience implements the ticketed experience catalogue and the
// booking flow that holds seats while the buyer pays.
package experience

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/teebalk/marketplace/internal/domain/experience"
	"github.com/teebalk/marketplace/internal/domain/shared"
	"github.com/teebalk/marketplace/internal/domain/shop"
)

// ExperienceService manages experiences, their ticket types and sessions
type ExperienceService struct {
	experienceRepo  experience.Repository
	sessionRepo     experience.SessionRepository
	reservationRepo experience.ReservationRepository
	shopRepo        shop.Repository
	now             func() time.Time
}

// NewExperienceService creates a new ExperienceService
func NewExperienceService(
	experienceRepo experience.Repository,
	sessionRepo experience.SessionRepository,
	reservationRepo experience.ReservationRepository,
	shopRepo shop.Repository,
) *ExperienceService {
	return &ExperienceService{
		experienceRepo:  experienceRepo,
		sessionRepo:     sessionRepo,
		reservationRepo: reservationRepo,
		shopRepo:        shopRepo,
		now:             shared.Now,
	}
}

// Create adds a draft experience to the seller's shop
func (s *ExperienceService) Create(ctx context.Context, sellerID uuid.UUID, req ExperienceRequest) (*ExperienceResponse, error) {
	sh, err := s.shopRepo.FindByUserID(ctx, sellerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewApiError(shared.CodeForbidden, "Open a shop before adding experiences")
		}
		return nil, err
	}
	e, err := experience.NewExperience(sh.ID, req.details())
	if err != nil {
		return nil, err
	}
	if err := s.experienceRepo.Save(ctx, e); err != nil {
		return nil, err
	}
	resp := ToExperienceResponse(e)
	return &resp, nil
}

// Update replaces the experience details
func (s *ExperienceService) Update(ctx context.Context, sellerID, id uuid.UUID, req ExperienceRequest) (*ExperienceResponse, error) {
	e, err := s.owned(ctx, sellerID, id)
	if err != nil {
		return nil, err
	}
	if err := e.Update(req.details()); err != nil {
		return nil, err
	}
	return s.save(ctx, e)
}

// Publish lists the experience
func (s *ExperienceService) Publish(ctx context.Context, sellerID, id uuid.UUID) (*ExperienceResponse, error) {
	e, err := s.owned(ctx, sellerID, id)
	if err != nil {
		return nil, err
	}
	if err := e.Publish(); err != nil {
		return nil, err
	}
	return s.save(ctx, e)
}

// Unpublish hides the experience
func (s *ExperienceService) Unpublish(ctx context.Context, sellerID, id uuid.UUID) (*ExperienceResponse, error) {
	e, err := s.owned(ctx, sellerID, id)
	if err != nil {
		return nil, err
	}
	e.Unpublish()
	return s.save(ctx, e)
}

// AddTicket adds a ticket type to the experience
func (s *ExperienceService) AddTicket(ctx context.Context, sellerID, id uuid.UUID, req TicketRequest) (*TicketResponse, error) {
	e, err := s.owned(ctx, sellerID, id)
	if err != nil {
		return nil, err
	}
	t, err := e.AddTicket(req.Title, req.Price)
	if err != nil {
		return nil, err
	}
	if err := s.experienceRepo.SaveTicket(ctx, t); err != nil {
		return nil, err
	}
	return &TicketResponse{ID: t.ID, Title: t.Title, Price: t.Price, IsFree: t.IsFree}, nil
}

// AddSession schedules a session with a capacity per ticket type
func (s *ExperienceService) AddSession(ctx context.Context, sellerID, id uuid.UUID, req SessionRequest) (*SessionResponse, error) {
	e, err := s.owned(ctx, sellerID, id)
	if err != nil {
		return nil, err
	}
	capacities := make(map[uuid.UUID]int, len(req.Tickets))
	for _, c := range req.Tickets {
		if _, ok := e.FindTicket(c.TicketID); !ok {
			return nil, shared.NewFieldValidationError("tickets", "ticket does not belong to this experience")
		}
		if _, dup := capacities[c.TicketID]; dup {
			return nil, shared.NewFieldValidationError("tickets", "each ticket may be listed once")
		}
		capacities[c.TicketID] = c.Quantity
	}

	now := s.now()
	session, err := experience.NewSession(e.ID, req.StartTime, req.EndTime, now, capacities)
	if err != nil {
		return nil, err
	}
	if err := s.sessionRepo.Save(ctx, session); err != nil {
		return nil, err
	}
	resp := ToSessionResponse(e, session, nil, now)
	return &resp, nil
}

// CancelSession stops bookings for a session without sales
func (s *ExperienceService) CancelSession(ctx context.Context, sellerID, sessionID uuid.UUID) (*SessionResponse, error) {
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	e, err := s.owned(ctx, sellerID, session.ExperienceID)
	if err != nil {
		return nil, err
	}
	if err := session.Cancel(); err != nil {
		return nil, err
	}
	if err := s.sessionRepo.Save(ctx, session); err != nil {
		return nil, err
	}
	resp := ToSessionResponse(e, session, nil, s.now())
	return &resp, nil
}

// Get returns an experience with its upcoming sessions and the seats still
// available in each. Unlisted experiences are visible to their shop only.
func (s *ExperienceService) Get(ctx context.Context, viewerID *uuid.UUID, id uuid.UUID) (*ExperienceResponse, error) {
	e, err := s.experienceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !e.IsPublished() && !s.isOwner(ctx, viewerID, e.ShopID) {
		return nil, shared.NewApiError(shared.CodeNotFound, "Experience not found")
	}

	now := s.now()
	sessions, err := s.sessionRepo.FindByExperience(ctx, e.ID, now)
	if err != nil {
		return nil, err
	}
	resp := ToExperienceResponse(e)
	resp.Sessions = make([]SessionResponse, 0, len(sessions))
	for i := range sessions {
		held, err := s.reservationRepo.SumActiveBySessionTicket(ctx, sessions[i].ID, now)
		if err != nil {
			return nil, err
		}
		resp.Sessions = append(resp.Sessions, ToSessionResponse(e, &sessions[i], held, now))
	}
	return &resp, nil
}

// List returns published experiences
func (s *ExperienceService) List(ctx context.Context, f ExperienceListFilter) (*shared.Paginated[ExperienceResponse], error) {
	filter := toFilter(f)
	if f.ShopID != nil {
		filter = filter.With("shop_id", *f.ShopID)
	}
	list, total, err := s.experienceRepo.FindPublished(ctx, filter)
	if err != nil {
		return nil, err
	}
	return paginate(list, total, filter), nil
}

// ListShop returns the seller's experiences in every status
func (s *ExperienceService) ListShop(ctx context.Context, sellerID uuid.UUID, f ExperienceListFilter) (*shared.Paginated[ExperienceResponse], error) {
	sh, err := s.shopRepo.FindByUserID(ctx, sellerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewApiError(shared.CodeForbidden, "Open a shop first")
		}
		return nil, err
	}
	filter := toFilter(f)
	list, total, err := s.experienceRepo.FindByShop(ctx, sh.ID, filter)
	if err != nil {
		return nil, err
	}
	return paginate(list, total, filter), nil
}

func (s *ExperienceService) owned(ctx context.Context, sellerID, id uuid.UUID) (*experience.Experience, error) {
	e, err := s.experienceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	sh, err := s.shopRepo.FindByID(ctx, e.ShopID)
	if err != nil {
		return nil, err
	}
	if err := sh.EnsureOwner(sellerID); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *ExperienceService) isOwner(ctx context.Context, viewerID *uuid.UUID, shopID uuid.UUID) bool {
	if viewerID == nil {
		return false
	}
	sh, err := s.shopRepo.FindByID(ctx, shopID)
	return err == nil && sh.IsOwnedBy(*viewerID)
}

func (s *ExperienceService) save(ctx context.Context, e *experience.Experience) (*ExperienceResponse, error) {
	if err := s.experienceRepo.Save(ctx, e); err != nil {
		return nil, err
	}
	resp := ToExperienceResponse(e)
	return &resp, nil
}

func toFilter(f ExperienceListFilter) shared.Filter {
	filter := shared.DefaultFilter()
	filter.Search = f.Search
	filter.Page = f.Page
	filter.PageSize = f.PageSize
	return filter.Normalize()
}

func paginate(list []experience.Experience, total int64, filter shared.Filter) *shared.Paginated[ExperienceResponse] {
	items := make([]ExperienceResponse, len(list))
	for i := range list {
		items[i] = ToExperienceResponse(&list[i])
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page
}

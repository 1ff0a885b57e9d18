package experience

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	paymentapp "github.com/teebalk/marketplace/internal/application/payment"
	"github.com/teebalk/marketplace/internal/domain/experience"
)

// ExperienceRequest creates or replaces an experience
type ExperienceRequest struct {
	Title       string `json:"title" binding:"required,min=1,max=200"`
	Description string `json:"description" binding:"max=10000"`
	Location    string `json:"location" binding:"max=300"`
	ImageURL    string `json:"image_url" binding:"max=500"`
}

func (r ExperienceRequest) details() experience.Details {
	return experience.Details{
		Title:       r.Title,
		Description: r.Description,
		Location:    r.Location,
		ImageURL:    r.ImageURL,
	}
}

// TicketRequest adds a ticket type. A zero price makes the ticket free.
type TicketRequest struct {
	Title string          `json:"title" binding:"required,max=100"`
	Price decimal.Decimal `json:"price"`
}

// SessionCapacity is the number of seats of one ticket type in a session
type SessionCapacity struct {
	TicketID uuid.UUID `json:"ticket_id" binding:"required"`
	Quantity int       `json:"quantity" binding:"required,min=1"`
}

// SessionRequest schedules a session
type SessionRequest struct {
	StartTime time.Time         `json:"start_time" binding:"required"`
	EndTime   time.Time         `json:"end_time" binding:"required"`
	Tickets   []SessionCapacity `json:"tickets" binding:"required,min=1,dive"`
}

// ExperienceListFilter is the query of experience listings
type ExperienceListFilter struct {
	Search   string     `form:"search"`
	ShopID   *uuid.UUID `form:"-"`
	Page     int        `form:"page"`
	PageSize int        `form:"page_size" binding:"omitempty,max=100"`
}

// TicketResponse is a ticket type
type TicketResponse struct {
	ID     uuid.UUID       `json:"id"`
	Title  string          `json:"title"`
	Price  decimal.Decimal `json:"price"`
	IsFree bool            `json:"is_free"`
}

// SessionTicketResponse is the capacity of one ticket type in a session
type SessionTicketResponse struct {
	ID        uuid.UUID       `json:"id"`
	TicketID  uuid.UUID       `json:"ticket_id"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Sold      int             `json:"sold"`
	Available int             `json:"available"`
}

// SessionResponse is a scheduled session with live availability
type SessionResponse struct {
	ID        uuid.UUID               `json:"id"`
	StartTime time.Time               `json:"start_time"`
	EndTime   time.Time               `json:"end_time"`
	Status    string                  `json:"status"`
	Bookable  bool                    `json:"bookable"`
	Tickets   []SessionTicketResponse `json:"tickets"`
}

// ExperienceResponse represents an experience in API responses. Sessions
// are only filled in for the detail view.
type ExperienceResponse struct {
	ID          uuid.UUID         `json:"id"`
	ShopID      uuid.UUID         `json:"shop_id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Location    string            `json:"location"`
	ImageURL    string            `json:"image_url,omitempty"`
	Status      string            `json:"status"`
	Tickets     []TicketResponse  `json:"tickets"`
	Sessions    []SessionResponse `json:"sessions,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	Version     int               `json:"version"`
}

// ToExperienceResponse converts a domain Experience to ExperienceResponse
func ToExperienceResponse(e *experience.Experience) ExperienceResponse {
	tickets := make([]TicketResponse, len(e.Tickets))
	for i, t := range e.Tickets {
		tickets[i] = TicketResponse{ID: t.ID, Title: t.Title, Price: t.Price, IsFree: t.IsFree}
	}
	return ExperienceResponse{
		ID:          e.ID,
		ShopID:      e.ShopID,
		Title:       e.Title,
		Description: e.Description,
		Location:    e.Location,
		ImageURL:    e.ImageURL,
		Status:      string(e.Status),
		Tickets:     tickets,
		CreatedAt:   e.CreatedAt,
		Version:     e.Version,
	}
}

// ToSessionResponse converts a session; held maps session ticket ids to
// seats under an active reservation
func ToSessionResponse(e *experience.Experience, s *experience.Session, held map[uuid.UUID]int, now time.Time) SessionResponse {
	bookable := s.IsBookable(now)
	tickets := make([]SessionTicketResponse, len(s.Tickets))
	for i := range s.Tickets {
		st := &s.Tickets[i]
		resp := SessionTicketResponse{
			ID:       st.ID,
			TicketID: st.TicketID,
			Quantity: st.Quantity,
			Sold:     st.Sold,
		}
		if bookable {
			resp.Available = st.Available(held[st.ID])
		}
		if t, ok := e.FindTicket(st.TicketID); ok {
			resp.Title = t.Title
			resp.Price = t.Price
		}
		tickets[i] = resp
	}
	return SessionResponse{
		ID:        s.ID,
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
		Status:    string(s.Status),
		Bookable:  bookable,
		Tickets:   tickets,
	}
}

// TicketQuantity is the number of seats wanted of one session ticket
type TicketQuantity struct {
	SessionTicketID uuid.UUID `json:"session_ticket_id" binding:"required"`
	Quantity        int       `json:"quantity" binding:"required,min=1,max=20"`
}

// ReserveTicketsRequest holds seats of a session
type ReserveTicketsRequest struct {
	Tickets []TicketQuantity `json:"tickets" binding:"required,min=1,dive"`
}

// ReservedTicketResponse is one hold
type ReservedTicketResponse struct {
	ID              uuid.UUID       `json:"id"`
	SessionTicketID uuid.UUID       `json:"session_ticket_id"`
	Title           string          `json:"title"`
	Price           decimal.Decimal `json:"price"`
	Quantity        int             `json:"quantity"`
	Subtotal        decimal.Decimal `json:"subtotal"`
}

// ReservationResponse lists the seats held for the buyer until ExpiredAt
type ReservationResponse struct {
	SessionID uuid.UUID                `json:"session_id"`
	Tickets   []ReservedTicketResponse `json:"tickets"`
	Total     decimal.Decimal          `json:"total"`
	ExpiredAt time.Time                `json:"expired_at"`
}

// BookingPaymentRequest starts paying for the held seats
type BookingPaymentRequest struct {
	UsedCoins decimal.Decimal `json:"used_coins"`
}

// BookingPaymentResponse carries the client secret the buyer confirms the
// card payment with. Order is set when no card payment was needed.
type BookingPaymentResponse struct {
	Payment   paymentapp.TransactionResponse `json:"payment"`
	ExpiredAt time.Time                      `json:"expired_at"`
	Order     *ExperienceOrderResponse       `json:"order,omitempty"`
}

// OrderDetailResponse is one ticket line of a booking
type OrderDetailResponse struct {
	SessionTicketID uuid.UUID       `json:"session_ticket_id"`
	Title           string          `json:"title"`
	Price           decimal.Decimal `json:"price"`
	Quantity        int             `json:"quantity"`
}

// OrderTicketResponse is one admission
type OrderTicketResponse struct {
	ID              uuid.UUID  `json:"id"`
	SessionTicketID uuid.UUID  `json:"session_ticket_id"`
	Code            string     `json:"code"`
	CheckedInAt     *time.Time `json:"checked_in_at,omitempty"`
}

// ExperienceOrderResponse represents a booking in API responses
type ExperienceOrderResponse struct {
	ID                   uuid.UUID             `json:"id"`
	Code                 string                `json:"code"`
	UserID               uuid.UUID             `json:"user_id"`
	ShopID               uuid.UUID             `json:"shop_id"`
	ExperienceID         uuid.UUID             `json:"experience_id"`
	SessionID            uuid.UUID             `json:"session_id"`
	Status               string                `json:"status"`
	Total                decimal.Decimal       `json:"total"`
	Currency             string                `json:"currency"`
	PaymentTransactionID uuid.UUID             `json:"payment_transaction_id"`
	Details              []OrderDetailResponse `json:"details"`
	Tickets              []OrderTicketResponse `json:"tickets"`
	CreatedAt            time.Time             `json:"created_at"`
}

// ToExperienceOrderResponse converts a domain Order to ExperienceOrderResponse
func ToExperienceOrderResponse(o *experience.Order) ExperienceOrderResponse {
	details := make([]OrderDetailResponse, len(o.Details))
	for i, d := range o.Details {
		details[i] = OrderDetailResponse{
			SessionTicketID: d.SessionTicketID,
			Title:           d.TicketTitle,
			Price:           d.Price,
			Quantity:        d.Quantity,
		}
	}
	tickets := make([]OrderTicketResponse, len(o.Tickets))
	for i, t := range o.Tickets {
		tickets[i] = OrderTicketResponse{
			ID:              t.ID,
			SessionTicketID: t.SessionTicketID,
			Code:            t.Code,
			CheckedInAt:     t.CheckedInAt,
		}
	}
	return ExperienceOrderResponse{
		ID:                   o.ID,
		Code:                 o.Code,
		UserID:               o.UserID,
		ShopID:               o.ShopID,
		ExperienceID:         o.ExperienceID,
		SessionID:            o.SessionID,
		Status:               string(o.Status),
		Total:                o.Total,
		Currency:             string(o.Currency),
		PaymentTransactionID: o.PaymentTransactionID,
		Details:              details,
		Tickets:              tickets,
		CreatedAt:            o.CreatedAt,
	}
}

// CheckInRequest admits the holder of a ticket code
type CheckInRequest struct {
	Code string `json:"code" binding:"required,max=64"`
}

// ExperienceOrderListFilter pages through bookings
type ExperienceOrderListFilter struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size" binding:"omitempty,max=100"`
}

// CleanupStats reports one run of the expired reservation cleanup
type CleanupStats struct {
	Total       int       `json:"total"`
	Released    int       `json:"released"`
	Failed      int       `json:"failed"`
	ProcessedAt time.Time `json:"processed_at"`
}

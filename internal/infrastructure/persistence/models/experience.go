package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/teebalk/marketplace/internal/domain/experience"
	"github.com/teebalk/marketplace/internal/domain/shared"
)

// ExperienceModel is the persistence model for the Experience aggregate
type ExperienceModel struct {
	AggregateModel
	ShopID      uuid.UUID               `gorm:"type:char(36);not null;index"`
	Shop        *ShopModel              `gorm:"foreignKey:ShopID;constraint:OnDelete:RESTRICT"`
	Title       string                  `gorm:"type:varchar(200);not null"`
	Description string                  `gorm:"type:text"`
	Location    string                  `gorm:"type:varchar(255)"`
	ImageURL    string                  `gorm:"type:varchar(500)"`
	Status      experience.Status       `gorm:"type:varchar(20);not null;default:'draft';index"`
	Tickets     []ExperienceTicketModel `gorm:"foreignKey:ExperienceID;constraint:OnDelete:CASCADE"`
	DeletedAt   gorm.DeletedAt          `gorm:"index"`
}

// TableName returns the table name for GORM
func (ExperienceModel) TableName() string {
	return "experiences"
}

// ExperienceTicketModel is a ticket type of an experience
type ExperienceTicketModel struct {
	BaseModel
	ExperienceID uuid.UUID       `gorm:"type:char(36);not null;index"`
	Title        string          `gorm:"type:varchar(100);not null"`
	Price        decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	IsFree       bool            `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (ExperienceTicketModel) TableName() string {
	return "experience_tickets"
}

// ToDomain converts the model to a domain Experience
func (m *ExperienceModel) ToDomain() *experience.Experience {
	e := &experience.Experience{
		BaseAggregateRoot: m.ToAggregateRoot(),
		ShopID:            m.ShopID,
		Title:             m.Title,
		Description:       m.Description,
		Location:          m.Location,
		ImageURL:          m.ImageURL,
		Status:            m.Status,
		Tickets:           make([]experience.Ticket, len(m.Tickets)),
	}
	for i := range m.Tickets {
		e.Tickets[i] = *m.Tickets[i].ToDomain()
	}
	return e
}

// ExperienceModelFromDomain creates the header model; tickets are saved
// separately through SaveTicket
func ExperienceModelFromDomain(e *experience.Experience) *ExperienceModel {
	m := &ExperienceModel{
		ShopID:      e.ShopID,
		Title:       e.Title,
		Description: e.Description,
		Location:    e.Location,
		ImageURL:    e.ImageURL,
		Status:      e.Status,
	}
	m.FromDomainAggregateRoot(e.BaseAggregateRoot)
	return m
}

// ToDomain converts the model to a domain Ticket
func (m *ExperienceTicketModel) ToDomain() *experience.Ticket {
	return &experience.Ticket{
		BaseEntity:   m.BaseModel.ToDomain(),
		ExperienceID: m.ExperienceID,
		Title:        m.Title,
		Price:        m.Price,
		IsFree:       m.IsFree,
	}
}

// ExperienceTicketModelFromDomain creates a model from a domain Ticket
func ExperienceTicketModelFromDomain(t *experience.Ticket) *ExperienceTicketModel {
	m := &ExperienceTicketModel{
		ExperienceID: t.ExperienceID,
		Title:        t.Title,
		Price:        t.Price,
		IsFree:       t.IsFree,
	}
	m.FromDomainBaseEntity(t.BaseEntity)
	return m
}

// ExperienceSessionModel is one scheduled occurrence of an experience
type ExperienceSessionModel struct {
	BaseModel
	ExperienceID uuid.UUID                      `gorm:"type:char(36);not null;index:idx_sessions_experience_start,priority:1"`
	Experience   *ExperienceModel               `gorm:"foreignKey:ExperienceID;constraint:OnDelete:CASCADE"`
	StartTime    time.Time                      `gorm:"not null;index:idx_sessions_experience_start,priority:2"`
	EndTime      time.Time                      `gorm:"not null"`
	Status       experience.SessionStatus       `gorm:"type:varchar(20);not null;default:'active'"`
	Tickets      []ExperienceSessionTicketModel `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (ExperienceSessionModel) TableName() string {
	return "experience_sessions"
}

// ExperienceSessionTicketModel is the capacity of one ticket type in a session
type ExperienceSessionTicketModel struct {
	BaseModel
	SessionID uuid.UUID              `gorm:"type:char(36);not null;uniqueIndex:idx_session_ticket,priority:1"`
	TicketID  uuid.UUID              `gorm:"type:char(36);not null;uniqueIndex:idx_session_ticket,priority:2"`
	Ticket    *ExperienceTicketModel `gorm:"foreignKey:TicketID;constraint:OnDelete:RESTRICT"`
	Quantity  int                    `gorm:"not null"`
	Sold      int                    `gorm:"not null;default:0"`
	Version   int                    `gorm:"not null;default:1"`
}

// TableName returns the table name for GORM
func (ExperienceSessionTicketModel) TableName() string {
	return "experience_session_tickets"
}

// ToDomain converts the model to a domain Session
func (m *ExperienceSessionModel) ToDomain() *experience.Session {
	s := &experience.Session{
		BaseEntity:   m.BaseModel.ToDomain(),
		ExperienceID: m.ExperienceID,
		StartTime:    m.StartTime.UTC(),
		EndTime:      m.EndTime.UTC(),
		Status:       m.Status,
		Tickets:      make([]experience.SessionTicket, len(m.Tickets)),
	}
	for i := range m.Tickets {
		s.Tickets[i] = *m.Tickets[i].ToDomain()
	}
	return s
}

// ExperienceSessionModelFromDomain creates a model, ticket rows included
func ExperienceSessionModelFromDomain(s *experience.Session) *ExperienceSessionModel {
	m := &ExperienceSessionModel{
		ExperienceID: s.ExperienceID,
		StartTime:    s.StartTime,
		EndTime:      s.EndTime,
		Status:       s.Status,
		Tickets:      make([]ExperienceSessionTicketModel, len(s.Tickets)),
	}
	m.FromDomainBaseEntity(s.BaseEntity)
	for i := range s.Tickets {
		m.Tickets[i] = *ExperienceSessionTicketModelFromDomain(&s.Tickets[i])
	}
	return m
}

// ToDomain converts the model to a domain SessionTicket
func (m *ExperienceSessionTicketModel) ToDomain() *experience.SessionTicket {
	return &experience.SessionTicket{
		BaseEntity: m.BaseModel.ToDomain(),
		SessionID:  m.SessionID,
		TicketID:   m.TicketID,
		Quantity:   m.Quantity,
		Sold:       m.Sold,
		Version:    m.Version,
	}
}

// ExperienceSessionTicketModelFromDomain creates a model from a SessionTicket
func ExperienceSessionTicketModelFromDomain(t *experience.SessionTicket) *ExperienceSessionTicketModel {
	m := &ExperienceSessionTicketModel{
		SessionID: t.SessionID,
		TicketID:  t.TicketID,
		Quantity:  t.Quantity,
		Sold:      t.Sold,
		Version:   t.Version,
	}
	m.FromDomainBaseEntity(t.BaseEntity)
	return m
}

// ReservationModel is a temporary hold on session ticket seats
type ReservationModel struct {
	BaseModel
	SessionID            uuid.UUID                     `gorm:"type:char(36);not null;index:idx_reservations_user_session,priority:2"`
	SessionTicketID      uuid.UUID                     `gorm:"type:char(36);not null;index"`
	SessionTicket        *ExperienceSessionTicketModel `gorm:"foreignKey:SessionTicketID;constraint:OnDelete:CASCADE"`
	UserID               uuid.UUID                     `gorm:"type:char(36);not null;index:idx_reservations_user_session,priority:1"`
	Quantity             int                           `gorm:"not null"`
	ExpiredAt            time.Time                     `gorm:"not null;index"`
	PaymentTransactionID *uuid.UUID                    `gorm:"type:char(36);index"`
}

// TableName returns the table name for GORM
func (ReservationModel) TableName() string {
	return "experience_session_ticket_reservations"
}

// ToDomain converts the model to a domain Reservation
func (m *ReservationModel) ToDomain() *experience.Reservation {
	return &experience.Reservation{
		BaseEntity:           m.BaseModel.ToDomain(),
		SessionID:            m.SessionID,
		SessionTicketID:      m.SessionTicketID,
		UserID:               m.UserID,
		Quantity:             m.Quantity,
		ExpiredAt:            m.ExpiredAt.UTC(),
		PaymentTransactionID: m.PaymentTransactionID,
	}
}

// ReservationModelFromDomain creates a model from a domain Reservation
func ReservationModelFromDomain(r *experience.Reservation) *ReservationModel {
	m := &ReservationModel{
		SessionID:            r.SessionID,
		SessionTicketID:      r.SessionTicketID,
		UserID:               r.UserID,
		Quantity:             r.Quantity,
		ExpiredAt:            r.ExpiredAt,
		PaymentTransactionID: r.PaymentTransactionID,
	}
	m.FromDomainBaseEntity(r.BaseEntity)
	return m
}

// ExperienceOrderModel is a paid booking
type ExperienceOrderModel struct {
	AggregateModel
	Code                 string                       `gorm:"type:varchar(32);not null;uniqueIndex"`
	UserID               uuid.UUID                    `gorm:"type:char(36);not null;index"`
	ShopID               uuid.UUID                    `gorm:"type:char(36);not null;index"`
	ExperienceID         uuid.UUID                    `gorm:"type:char(36);not null;index"`
	SessionID            uuid.UUID                    `gorm:"type:char(36);not null;index"`
	Status               experience.OrderStatus       `gorm:"type:varchar(20);not null"`
	Total                decimal.Decimal              `gorm:"type:decimal(18,2);not null"`
	Currency             string                       `gorm:"type:varchar(3);not null"`
	PaymentTransactionID uuid.UUID                    `gorm:"type:char(36);not null;uniqueIndex"`
	Details              []ExperienceOrderDetailModel `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Tickets              []ExperienceOrderTicketModel `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (ExperienceOrderModel) TableName() string {
	return "experience_orders"
}

// ExperienceOrderDetailModel is one ticket line of a booking
type ExperienceOrderDetailModel struct {
	ID              uuid.UUID       `gorm:"type:char(36);primaryKey"`
	OrderID         uuid.UUID       `gorm:"type:char(36);not null;index"`
	SessionTicketID uuid.UUID       `gorm:"type:char(36);not null"`
	TicketTitle     string          `gorm:"type:varchar(100);not null"`
	Price           decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Quantity        int             `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ExperienceOrderDetailModel) TableName() string {
	return "experience_order_details"
}

// ExperienceOrderTicketModel is one admission of a booking
type ExperienceOrderTicketModel struct {
	ID              uuid.UUID `gorm:"type:char(36);primaryKey"`
	OrderID         uuid.UUID `gorm:"type:char(36);not null;index"`
	SessionTicketID uuid.UUID `gorm:"type:char(36);not null"`
	Code            string    `gorm:"type:varchar(36);not null;uniqueIndex"`
	CheckedInAt     *time.Time
}

// TableName returns the table name for GORM
func (ExperienceOrderTicketModel) TableName() string {
	return "experience_order_tickets"
}

// ToDomain converts the model to a domain experience Order
func (m *ExperienceOrderModel) ToDomain() *experience.Order {
	o := &experience.Order{
		BaseAggregateRoot:    m.ToAggregateRoot(),
		Code:                 m.Code,
		UserID:               m.UserID,
		ShopID:               m.ShopID,
		ExperienceID:         m.ExperienceID,
		SessionID:            m.SessionID,
		Status:               m.Status,
		Total:                m.Total,
		Currency:             shared.Currency(m.Currency),
		PaymentTransactionID: m.PaymentTransactionID,
		Details:              make([]experience.OrderDetail, len(m.Details)),
		Tickets:              make([]experience.OrderTicket, len(m.Tickets)),
	}
	for i, d := range m.Details {
		o.Details[i] = experience.OrderDetail{
			ID:              d.ID,
			SessionTicketID: d.SessionTicketID,
			TicketTitle:     d.TicketTitle,
			Price:           d.Price,
			Quantity:        d.Quantity,
		}
	}
	for i := range m.Tickets {
		o.Tickets[i] = *m.Tickets[i].ToDomain()
	}
	return o
}

// ExperienceOrderModelFromDomain creates a model with details and tickets
func ExperienceOrderModelFromDomain(o *experience.Order) *ExperienceOrderModel {
	m := &ExperienceOrderModel{
		Code:                 o.Code,
		UserID:               o.UserID,
		ShopID:               o.ShopID,
		ExperienceID:         o.ExperienceID,
		SessionID:            o.SessionID,
		Status:               o.Status,
		Total:                o.Total,
		Currency:             string(o.Currency),
		PaymentTransactionID: o.PaymentTransactionID,
		Details:              make([]ExperienceOrderDetailModel, len(o.Details)),
		Tickets:              make([]ExperienceOrderTicketModel, len(o.Tickets)),
	}
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	for i, d := range o.Details {
		m.Details[i] = ExperienceOrderDetailModel{
			ID:              d.ID,
			OrderID:         o.ID,
			SessionTicketID: d.SessionTicketID,
			TicketTitle:     d.TicketTitle,
			Price:           d.Price,
			Quantity:        d.Quantity,
		}
	}
	for i := range o.Tickets {
		m.Tickets[i] = *ExperienceOrderTicketModelFromDomain(&o.Tickets[i])
	}
	return m
}

// ToDomain converts the model to a domain OrderTicket
func (m *ExperienceOrderTicketModel) ToDomain() *experience.OrderTicket {
	return &experience.OrderTicket{
		ID:              m.ID,
		OrderID:         m.OrderID,
		SessionTicketID: m.SessionTicketID,
		Code:            m.Code,
		CheckedInAt:     utcPtr(m.CheckedInAt),
	}
}

// ExperienceOrderTicketModelFromDomain creates a model from an OrderTicket
func ExperienceOrderTicketModelFromDomain(t *experience.OrderTicket) *ExperienceOrderTicketModel {
	return &ExperienceOrderTicketModel{
		ID:              t.ID,
		OrderID:         t.OrderID,
		SessionTicketID: t.SessionTicketID,
		Code:            t.Code,
		CheckedInAt:     t.CheckedInAt,
	}
}

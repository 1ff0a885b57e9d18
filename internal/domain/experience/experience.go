package experience

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/teebalk/marketplace/internal/domain/shared"
)

// Status represents whether an experience is listed
type Status string

const (
	StatusDraft       Status = "draft"
	StatusPublished   Status = "published"
	StatusUnpublished Status = "unpublished"
)

// Experience is a bookable ticketed event offered by a shop
type Experience struct {
	shared.BaseAggregateRoot
	ShopID      uuid.UUID
	Title       string
	Description string
	Location    string
	ImageURL    string
	Status      Status
	Tickets     []Ticket
}

// Details carries the editable fields of an experience
type Details struct {
	Title       string
	Description string
	Location    string
	ImageURL    string
}

// Ticket is a ticket type of an experience, e.g. "Adult" or "Child"
type Ticket struct {
	shared.BaseEntity
	ExperienceID uuid.UUID
	Title        string
	Price        decimal.Decimal
	IsFree       bool
}

// NewExperience creates a draft experience for a shop
func NewExperience(shopID uuid.UUID, d Details) (*Experience, error) {
	if shopID == uuid.Nil {
		return nil, shared.NewFieldValidationError("shop_id", "shop is required")
	}
	if err := d.validate(); err != nil {
		return nil, err
	}
	e := &Experience{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ShopID:            shopID,
		Status:            StatusDraft,
	}
	e.apply(d)
	return e, nil
}

// Update replaces the experience details
func (e *Experience) Update(d Details) error {
	if err := d.validate(); err != nil {
		return err
	}
	e.apply(d)
	e.Touch()
	e.IncrementVersion()
	return nil
}

// AddTicket adds a ticket type. Free tickets must have a zero price.
func (e *Experience) AddTicket(title string, price decimal.Decimal) (*Ticket, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, shared.NewFieldValidationError("title", "ticket title cannot be empty")
	}
	if price.IsNegative() {
		return nil, shared.NewFieldValidationError("price", "ticket price cannot be negative")
	}
	for _, t := range e.Tickets {
		if strings.EqualFold(t.Title, title) {
			return nil, shared.NewApiError(shared.CodeAlreadyExists, "A ticket with this title already exists")
		}
	}
	t := Ticket{
		BaseEntity:   shared.NewBaseEntity(),
		ExperienceID: e.ID,
		Title:        title,
		Price:        price,
		IsFree:       price.IsZero(),
	}
	e.Tickets = append(e.Tickets, t)
	e.Touch()
	return &e.Tickets[len(e.Tickets)-1], nil
}

// FindTicket returns the ticket type with id
func (e *Experience) FindTicket(id uuid.UUID) (*Ticket, bool) {
	for i := range e.Tickets {
		if e.Tickets[i].ID == id {
			return &e.Tickets[i], true
		}
	}
	return nil, false
}

// Publish lists the experience. It needs at least one ticket type.
func (e *Experience) Publish() error {
	if e.Status == StatusPublished {
		return nil
	}
	if len(e.Tickets) == 0 {
		return shared.NewApiError(shared.CodeInvalidState, "Add at least one ticket before publishing")
	}
	e.Status = StatusPublished
	e.Touch()
	e.IncrementVersion()
	return nil
}

// Unpublish hides the experience
func (e *Experience) Unpublish() {
	e.Status = StatusUnpublished
	e.Touch()
	e.IncrementVersion()
}

// IsPublished reports whether buyers can book the experience
func (e *Experience) IsPublished() bool {
	return e.Status == StatusPublished
}

func (e *Experience) apply(d Details) {
	e.Title = strings.TrimSpace(d.Title)
	e.Description = d.Description
	e.Location = strings.TrimSpace(d.Location)
	e.ImageURL = d.ImageURL
}

func (d Details) validate() error {
	title := strings.TrimSpace(d.Title)
	if title == "" {
		return shared.NewFieldValidationError("title", "experience title cannot be empty")
	}
	if utf8.RuneCountInString(title) > 200 {
		return shared.NewFieldValidationError("title", "experience title cannot exceed 200 characters")
	}
	return nil
}

package shop

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/teebalk/marketplace/internal/domain/shared"
)

// Status represents the lifecycle state of a shop
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusBanned    Status = "banned"
)

// IsValid reports whether s is a known status
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusBanned:
		return true
	}
	return false
}

// Shop is a seller's storefront. Each SSO user owns at most one shop.
type Shop struct {
	shared.BaseAggregateRoot
	UserID      uuid.UUID
	Name        string
	Description string
	Email       string
	Phone       string
	Website     string
	ImageURL    string
	Status      Status
	IsFeatured  bool
}

// Profile carries the editable fields of a shop
type Profile struct {
	Name        string
	Description string
	Email       string
	Phone       string
	Website     string
	ImageURL    string
}

// NewShop creates a draft shop owned by userID
func NewShop(userID uuid.UUID, profile Profile) (*Shop, error) {
	if userID == uuid.Nil {
		return nil, shared.NewFieldValidationError("user_id", "owner is required")
	}
	if err := profile.validate(); err != nil {
		return nil, err
	}

	s := &Shop{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UserID:            userID,
		Status:            StatusDraft,
	}
	s.apply(profile)
	s.AddDomainEvent(NewShopCreatedEvent(s))
	return s, nil
}

// Update replaces the shop profile
func (s *Shop) Update(profile Profile) error {
	if err := profile.validate(); err != nil {
		return err
	}
	s.apply(profile)
	s.Touch()
	s.IncrementVersion()
	return nil
}

// Publish makes the shop visible in the marketplace
func (s *Shop) Publish() error {
	switch s.Status {
	case StatusPublished:
		return nil
	case StatusBanned:
		return shared.NewApiError(shared.CodeInvalidState, "Banned shops cannot be published")
	}
	s.Status = StatusPublished
	s.Touch()
	s.IncrementVersion()
	s.AddDomainEvent(NewShopPublishedEvent(s))
	return nil
}

// Unpublish hides the shop from the marketplace
func (s *Shop) Unpublish() error {
	if s.Status == StatusBanned {
		return shared.NewApiError(shared.CodeInvalidState, "Banned shops cannot be changed")
	}
	s.Status = StatusDraft
	s.Touch()
	s.IncrementVersion()
	return nil
}

// IsOwnedBy reports whether userID owns the shop
func (s *Shop) IsOwnedBy(userID uuid.UUID) bool {
	return s.UserID == userID
}

// IsPublished reports whether buyers can see the shop
func (s *Shop) IsPublished() bool {
	return s.Status == StatusPublished
}

// EnsureOwner returns FORBIDDEN unless userID owns the shop
func (s *Shop) EnsureOwner(userID uuid.UUID) error {
	if !s.IsOwnedBy(userID) {
		return shared.NewApiError(shared.CodeForbidden, "You do not own this shop")
	}
	return nil
}

func (s *Shop) apply(p Profile) {
	s.Name = strings.TrimSpace(p.Name)
	s.Description = p.Description
	s.Email = strings.TrimSpace(p.Email)
	s.Phone = strings.TrimSpace(p.Phone)
	s.Website = strings.TrimSpace(p.Website)
	s.ImageURL = p.ImageURL
}

func (p Profile) validate() error {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return shared.NewFieldValidationError("name", "shop name cannot be empty")
	}
	if utf8.RuneCountInString(name) > 100 {
		return shared.NewFieldValidationError("name", "shop name cannot exceed 100 characters")
	}
	if p.Email != "" {
		if _, err := mail.ParseAddress(p.Email); err != nil {
			return shared.NewFieldValidationError("email", "invalid email address")
		}
	}
	return nil
}

package shop

import (
	"time"

	"github.com/google/uuid"

	"github.com/teebalk/marketplace/internal/domain/shop"
)

// ShopRequest creates or replaces a shop profile
type ShopRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Description string `json:"description" binding:"max=5000"`
	Email       string `json:"email" binding:"omitempty,email"`
	Phone       string `json:"phone" binding:"max=30"`
	Website     string `json:"website" binding:"omitempty,url"`
	ImageURL    string `json:"image_url" binding:"max=500"`
}

func (r ShopRequest) profile() shop.Profile {
	return shop.Profile{
		Name:        r.Name,
		Description: r.Description,
		Email:       r.Email,
		Phone:       r.Phone,
		Website:     r.Website,
		ImageURL:    r.ImageURL,
	}
}

// ShopListFilter is the query of the public shop directory
type ShopListFilter struct {
	Search   string `form:"search"`
	Featured *bool  `form:"featured"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size" binding:"omitempty,max=100"`
}

// ShopResponse represents a shop in API responses
type ShopResponse struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Website     string    `json:"website,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Status      string    `json:"status"`
	IsFeatured  bool      `json:"is_featured"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Version     int       `json:"version"`
}

// ToShopResponse converts a domain Shop to ShopResponse
func ToShopResponse(s *shop.Shop) ShopResponse {
	return ShopResponse{
		ID:          s.ID,
		UserID:      s.UserID,
		Name:        s.Name,
		Description: s.Description,
		Email:       s.Email,
		Phone:       s.Phone,
		Website:     s.Website,
		ImageURL:    s.ImageURL,
		Status:      string(s.Status),
		IsFeatured:  s.IsFeatured,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
		Version:     s.Version,
	}
}

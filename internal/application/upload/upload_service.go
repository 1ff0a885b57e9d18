// Package upload hands out presigned URLs so clients can put images
// straight into object storage.
package upload

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teebalk/marketplace/internal/domain/shared"
	"github.com/teebalk/marketplace/internal/infrastructure/storage"
)

// Presigner issues a PUT URL for one object key
type Presigner interface {
	PresignUpload(ctx context.Context, key, contentType string) (*storage.PresignedUpload, error)
}

// Kinds of images that can be uploaded
const (
	KindShop       = "shop"
	KindProduct    = "product"
	KindExperience = "experience"
)

// extensions maps accepted content types to the stored file extension
var extensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}

// PresignRequest asks for an upload slot
type PresignRequest struct {
	Kind        string `json:"kind" binding:"required,oneof=shop product experience"`
	ContentType string `json:"content_type" binding:"required"`
}

// PresignResponse is what the client PUTs to and later stores as image_url
type PresignResponse struct {
	URL       string    `json:"url"`
	Key       string    `json:"key"`
	PublicURL string    `json:"public_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UploadService issues image upload URLs
type UploadService struct {
	presigner Presigner
	logger    *zap.Logger
}

// NewUploadService creates an UploadService
func NewUploadService(presigner Presigner, logger *zap.Logger) *UploadService {
	return &UploadService{presigner: presigner, logger: logger}
}

// Presign validates the request and returns a presigned PUT. Keys are
// kind/uuid.ext so uploads never overwrite each other.
func (s *UploadService) Presign(ctx context.Context, userID uuid.UUID, req PresignRequest) (*PresignResponse, error) {
	switch req.Kind {
	case KindShop, KindProduct, KindExperience:
	default:
		return nil, shared.NewFieldValidationError("kind", "must be one of shop, product, experience")
	}
	contentType := strings.ToLower(strings.TrimSpace(req.ContentType))
	ext, ok := extensions[contentType]
	if !ok {
		return nil, shared.NewFieldValidationError("content_type", "only JPEG, PNG, WebP and GIF images can be uploaded")
	}
	if s.presigner == nil {
		return nil, shared.NewApiError(shared.CodeExternalService, "Image uploads are not configured")
	}

	key := fmt.Sprintf("%ss/%s.%s", req.Kind, uuid.New(), ext)
	up, err := s.presigner.PresignUpload(ctx, key, contentType)
	if err != nil {
		s.logger.Error("failed to presign upload", zap.String("key", key), zap.Error(err))
		return nil, shared.WrapApiError(shared.CodeExternalService, "Could not prepare the upload", err)
	}
	s.logger.Info("upload presigned",
		zap.String("user_id", userID.String()),
		zap.String("key", key))
	return &PresignResponse{URL: up.URL, Key: up.Key, PublicURL: up.PublicURL, ExpiresAt: up.ExpiresAt}, nil
}

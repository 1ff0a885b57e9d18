package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	uploadapp "github.com/teebalk/marketplace/internal/application/upload"
)

// UploadPresigner hands out direct-to-storage upload URLs
type UploadPresigner interface {
	Presign(ctx context.Context, userID uuid.UUID, req uploadapp.PresignRequest) (*uploadapp.PresignResponse, error)
}

// UploadHandler handles image uploads for shops, products and experiences
type UploadHandler struct {
	BaseHandler
	uploads UploadPresigner
}

// NewUploadHandler creates a new UploadHandler
func NewUploadHandler(uploads UploadPresigner) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

// Presign godoc
//
//	@Summary		Get a presigned image upload URL
//	@Description	The client PUTs the image to url and stores public_url on the listing
//	@Tags			uploads
//	@Router			/uploads/presign [post]
func (h *UploadHandler) Presign(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	var req uploadapp.PresignRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.uploads.Presign(c.Request.Context(), userID, req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, resp)
}

package produce

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"nammaraitha-backend/internal/domain"
	"nammaraitha-backend/internal/service/produce"
	"nammaraitha-backend/internal/service/storage"
	"nammaraitha-backend/pkg/pagination"
	"nammaraitha-backend/pkg/response"
)

// maxImageSize caps listing image uploads at 5 MB
const maxImageSize = 5 << 20

// Handler handles produce listing HTTP requests
type Handler struct {
	produceService *produce.Service
	storageService *storage.Service
}

// NewHandler creates a new produce handler
func NewHandler(produceService *produce.Service, storageService *storage.Service) *Handler {
	return &Handler{
		produceService: produceService,
		storageService: storageService,
	}
}

// Create publishes a new listing
// POST /v1/produce
func (h *Handler) Create(c *gin.Context) {
	farmerID, ok := currentUser(c)
	if !ok {
		return
	}

	var req domain.ProduceCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	listing, err := h.produceService.Create(c.Request.Context(), farmerID, &req)
	if err != nil {
		response.InternalError(c, "Failed to create listing")
		return
	}

	response.Success(c, http.StatusCreated, listing)
}

// ListMine returns the farmer's own listings
// GET /v1/produce/mine
func (h *Handler) ListMine(c *gin.Context) {
	farmerID, ok := currentUser(c)
	if !ok {
		return
	}

	listings, err := h.produceService.GetByFarmer(c.Request.Context(), farmerID)
	if err != nil {
		response.InternalError(c, "Failed to get listings")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"listings": listings})
}

// ListAvailable returns the in-stock catalog for retailers
// GET /v1/produce?page=1&limit=50
func (h *Handler) ListAvailable(c *gin.Context) {
	params, err := pagination.ParsePaginationParams(c.Query("page"), c.Query("limit"))
	if err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	listings, err := h.produceService.GetAvailable(c.Request.Context(), params.Limit, params.Offset)
	if err != nil {
		response.InternalError(c, "Failed to get catalog")
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"listings": listings,
		"page":     params.Page,
		"limit":    params.Limit,
		"offset":   params.Offset,
	})
}

// Get returns one listing
// GET /v1/produce/:id
func (h *Handler) Get(c *gin.Context) {
	cropID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid crop ID")
		return
	}

	listing, err := h.produceService.GetByID(c.Request.Context(), cropID)
	if err != nil {
		response.NotFound(c, "Listing not found")
		return
	}

	response.Success(c, http.StatusOK, listing)
}

// Update applies a partial update to an owned listing
// PATCH /v1/produce/:id
func (h *Handler) Update(c *gin.Context) {
	farmerID, ok := currentUser(c)
	if !ok {
		return
	}

	cropID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid crop ID")
		return
	}

	var req domain.ProduceUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	listing, err := h.produceService.Update(c.Request.Context(), farmerID, cropID, &req)
	if err != nil {
		if errors.Is(err, produce.ErrNotOwner) {
			response.Forbidden(c, "Listing belongs to another farmer")
			return
		}
		if strings.Contains(err.Error(), "not found") {
			response.NotFound(c, "Listing not found")
			return
		}
		response.InternalError(c, "Failed to update listing")
		return
	}

	response.Success(c, http.StatusOK, listing)
}

// Delete removes an owned listing
// DELETE /v1/produce/:id
func (h *Handler) Delete(c *gin.Context) {
	farmerID, ok := currentUser(c)
	if !ok {
		return
	}

	cropID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid crop ID")
		return
	}

	if err := h.produceService.Delete(c.Request.Context(), farmerID, cropID); err != nil {
		if errors.Is(err, produce.ErrNotOwner) {
			response.Forbidden(c, "Listing belongs to another farmer")
			return
		}
		if strings.Contains(err.Error(), "not found") {
			response.NotFound(c, "Listing not found")
			return
		}
		response.InternalError(c, "Failed to delete listing")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Listing deleted"})
}

// UploadImage stores a listing image and returns its public URL
// POST /v1/produce/images (multipart, field "image")
func (h *Handler) UploadImage(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		response.ValidationError(c, "image file required")
		return
	}
	if fileHeader.Size > maxImageSize {
		response.ValidationError(c, "image exceeds 5MB limit")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.InternalError(c, "Failed to read image")
		return
	}
	defer file.Close()

	imageURL, err := h.storageService.UploadImage(c.Request.Context(), &storage.UploadImageInput{
		Reader:      file,
		Size:        fileHeader.Size,
		ContentType: fileHeader.Header.Get("Content-Type"),
	})
	if err != nil {
		if strings.Contains(err.Error(), "unsupported content type") {
			response.ValidationError(c, err.Error())
			return
		}
		response.InternalError(c, "Failed to upload image")
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"image_url": imageURL})
}

// currentUser pulls the authenticated user ID from the Gin context
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	userIDVal, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, "Not authenticated")
		return uuid.Nil, false
	}
	userID, ok := userIDVal.(uuid.UUID)
	if !ok {
		response.InternalError(c, "Invalid user ID")
		return uuid.Nil, false
	}
	return userID, true
}

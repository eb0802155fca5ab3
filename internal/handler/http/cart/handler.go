package cart

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"nammaraitha-backend/internal/domain"
	"nammaraitha-backend/internal/service/cart"
	"nammaraitha-backend/pkg/response"
)

// Handler handles retailer cart HTTP requests
type Handler struct {
	cartService *cart.Service
}

// NewHandler creates a new cart handler
func NewHandler(cartService *cart.Service) *Handler {
	return &Handler{cartService: cartService}
}

// Add puts a listing in the cart
// POST /v1/cart
func (h *Handler) Add(c *gin.Context) {
	retailerID, ok := currentUser(c)
	if !ok {
		return
	}

	var req domain.CartAdd
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	item, err := h.cartService.Add(c.Request.Context(), retailerID, req.CropID)
	if err != nil {
		errMsg := err.Error()
		switch {
		case strings.Contains(errMsg, "not found"):
			response.NotFound(c, "Listing not found")
		case strings.Contains(errMsg, "out of stock"), strings.Contains(errMsg, "insufficient stock"):
			response.Conflict(c, "Listing is out of stock")
		default:
			response.InternalError(c, "Failed to add to cart")
		}
		return
	}

	response.Success(c, http.StatusCreated, item)
}

// UpdateQuantity sets an item's quantity; values below 1 remove it
// PUT /v1/cart/:id
func (h *Handler) UpdateQuantity(c *gin.Context) {
	retailerID, ok := currentUser(c)
	if !ok {
		return
	}

	cartItemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid cart item ID")
		return
	}

	var req domain.CartQuantityUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	item, err := h.cartService.SetQuantity(c.Request.Context(), retailerID, cartItemID, req.Quantity)
	if err != nil {
		errMsg := err.Error()
		switch {
		case strings.Contains(errMsg, "not found"):
			response.NotFound(c, "Cart item not found")
		case strings.Contains(errMsg, "another retailer"):
			response.Forbidden(c, "Cart item belongs to another retailer")
		case strings.Contains(errMsg, "insufficient stock"):
			response.Conflict(c, "Not enough stock")
		default:
			response.InternalError(c, "Failed to update cart")
		}
		return
	}

	if item == nil {
		response.Success(c, http.StatusOK, gin.H{"message": "Item removed"})
		return
	}

	response.Success(c, http.StatusOK, item)
}

// Remove deletes a cart row and restores reserved stock
// DELETE /v1/cart/:id
func (h *Handler) Remove(c *gin.Context) {
	retailerID, ok := currentUser(c)
	if !ok {
		return
	}

	cartItemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid cart item ID")
		return
	}

	if err := h.cartService.Remove(c.Request.Context(), retailerID, cartItemID); err != nil {
		errMsg := err.Error()
		switch {
		case strings.Contains(errMsg, "not found"):
			response.NotFound(c, "Cart item not found")
		case strings.Contains(errMsg, "another retailer"):
			response.Forbidden(c, "Cart item belongs to another retailer")
		default:
			response.InternalError(c, "Failed to remove cart item")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Item removed"})
}

// Get returns the full cart with its grand total
// GET /v1/cart
func (h *Handler) Get(c *gin.Context) {
	retailerID, ok := currentUser(c)
	if !ok {
		return
	}

	summary, err := h.cartService.Get(c.Request.Context(), retailerID)
	if err != nil {
		response.InternalError(c, "Failed to get cart")
		return
	}

	response.Success(c, http.StatusOK, summary)
}

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

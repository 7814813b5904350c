// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/your-org/eyewear-backend/internal/domain/cart"
	"github.com/your-org/eyewear-backend/internal/interfaces/http/middleware"
)

const (
	sessionCookie = "session_id"
	sessionHeader = "X-Session-ID"
)

// CartService reads and edits a buyer's cart
type CartService interface {
	GetCart(ctx context.Context, owner cart.Owner) (*cart.CartResponse, error)
	RemoveItem(ctx context.Context, owner cart.Owner, itemID uint) (*cart.CartResponse, error)
	ClearCart(ctx context.Context, owner cart.Owner) error
}

// CartHandler handles cart endpoints
type CartHandler struct {
	cartService CartService
}

// NewCartHandler creates a new cart handler
func NewCartHandler(cartService CartService) *CartHandler {
	return &CartHandler{
		cartService: cartService,
	}
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	cartResponse, err := h.cartService.GetCart(c.Request.Context(), cartOwner(c))
	if err != nil {
		respondError(c, err, "Failed to retrieve cart")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart retrieved successfully",
		"data":    cartResponse,
	})
}

// RemoveItem handles DELETE /cart/items/:itemId
func (h *CartHandler) RemoveItem(c *gin.Context) {
	itemID, ok := parseUintParam(c, "itemId", "Invalid cart item ID")
	if !ok {
		return
	}

	cartResponse, err := h.cartService.RemoveItem(c.Request.Context(), cartOwner(c), itemID)
	if err != nil {
		respondError(c, err, "Failed to remove item from cart")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item removed from cart successfully",
		"data":    cartResponse,
	})
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	if err := h.cartService.ClearCart(c.Request.Context(), cartOwner(c)); err != nil {
		respondError(c, err, "Failed to clear cart")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart cleared successfully",
	})
}

// cartOwner addresses the signed-in user's cart, else the guest session's.
// A guest without a session gets a new one in a cookie.
func cartOwner(c *gin.Context) cart.Owner {
	if userID, ok := middleware.GetUserIDFromContext(c); ok {
		return cart.Owner{UserID: &userID}
	}
	return cart.Owner{SessionID: getOrCreateSessionID(c)}
}

// getOrCreateSessionID gets the guest session from the header or cookie, or creates one
func getOrCreateSessionID(c *gin.Context) string {
	if sessionID := c.GetHeader(sessionHeader); sessionID != "" {
		return sessionID
	}

	sessionID, err := c.Cookie(sessionCookie)
	if err != nil || sessionID == "" {
		sessionID = uuid.New().String()

		// Session cookie (24 hours)
		c.SetCookie(sessionCookie, sessionID, 86400, "/", "", false, true)
	}
	c.Header(sessionHeader, sessionID)

	return sessionID
}

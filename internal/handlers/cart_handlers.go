package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/storefront-golang/internal/middleware"
)

//
// --- Cart Handlers ---
//

type AddToCartInput struct {
	ProductID string `json:"productId" binding:"required"`
}

type UpdateCartItemInput struct {
	Quantity *int `json:"quantity" binding:"required"`
}

type RemoveFromCartInput struct {
	ProductID string `json:"productId"`
}

// GetCart is the handler for GET /api/cart
func (h *Handlers) GetCart(c *gin.Context) {
	lines, err := h.Cart.GetCart(c.Request.Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lines)
}

// AddToCart is the handler for POST /api/cart
func (h *Handlers) AddToCart(c *gin.Context) {
	var input AddToCartInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	items, err := h.Cart.AddToCart(c.Request.Context(), middleware.CurrentUser(c).ID, input.ProductID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// UpdateCartItem is the handler for PUT /api/cart/:id
func (h *Handlers) UpdateCartItem(c *gin.Context) {
	var input UpdateCartItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	items, err := h.Cart.UpdateQuantity(c.Request.Context(), middleware.CurrentUser(c).ID, c.Param("id"), *input.Quantity)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// RemoveFromCart is the handler for DELETE /api/cart. An empty body clears the cart.
func (h *Handlers) RemoveFromCart(c *gin.Context) {
	var input RemoveFromCartInput
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			badRequest(c, err)
			return
		}
	}

	items, err := h.Cart.RemoveFromCart(c.Request.Context(), middleware.CurrentUser(c).ID, input.ProductID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

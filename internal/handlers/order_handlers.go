package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/01moynul/storefront-golang/internal/middleware"
	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/01moynul/storefront-golang/internal/orders"
)

//
// --- Order Handlers ---
//

// IdempotencyKeyHeader makes a repeated checkout return the first order instead of placing a new one.
const IdempotencyKeyHeader = "Idempotency-Key"

type OrderItemInput struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// PlaceOrderInput is validated by the orders service so every missing field gets the same message.
type PlaceOrderInput struct {
	Items           []OrderItemInput        `json:"items"`
	ShippingAddress *models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                  `json:"paymentMethod"`
	TotalAmount     *decimal.Decimal        `json:"totalAmount"`
}

type UpdateOrderStatusInput struct {
	NewStatus string `json:"newStatus" binding:"required"`
}

// PlaceOrder is the handler for POST /api/orders
func (h *Handlers) PlaceOrder(c *gin.Context) {
	// 1. --- Bind input ---
	var input PlaceOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	lines := make([]orders.LineRequest, 0, len(input.Items))
	for _, item := range input.Items {
		lines = append(lines, orders.LineRequest{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	// 2. --- Reserve stock and persist ---
	res, err := h.Orders.PlaceOrder(c.Request.Context(), orders.PlaceOrderInput{
		UserID:          middleware.CurrentUser(c).ID,
		Items:           lines,
		ShippingAddress: input.ShippingAddress,
		PaymentMethod:   input.PaymentMethod,
		ClaimedTotal:    input.TotalAmount,
		IdempotencyKey:  strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader)),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	// 3. --- Respond ---
	status, message := http.StatusCreated, "Order placed successfully!"
	if res.Replayed {
		status, message = http.StatusOK, "Order already placed"
	}
	c.JSON(status, gin.H{
		"success": true,
		"message": message,
		"orderId": res.Order.ID,
		"order":   res.Order,
	})
}

// GetAllOrders is the handler for GET /api/orders (admin)
func (h *Handlers) GetAllOrders(c *gin.Context) {
	list, err := h.Orders.ListOrders(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(list), "data": list})
}

// GetMyOrders is the handler for GET /api/orders/myorders
func (h *Handlers) GetMyOrders(c *gin.Context) {
	list, err := h.Orders.ListUserOrders(c.Request.Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(list), "data": list})
}

// GetOrderByID is the handler for GET /api/orders/:id (owner or admin)
func (h *Handlers) GetOrderByID(c *gin.Context) {
	order, err := h.Orders.GetOrder(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": order})
}

// UpdateOrderStatus is the handler for PUT /api/orders/:id/status (admin)
func (h *Handlers) UpdateOrderStatus(c *gin.Context) {
	var input UpdateOrderStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	order, err := h.Orders.UpdateOrderStatus(c.Request.Context(), c.Param("id"), input.NewStatus)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Order status updated successfully", "data": order})
}

// OrdersLive is the handler for GET /api/orders/live (admin websocket feed)
func (h *Handlers) OrdersLive(c *gin.Context) {
	h.Live.ServeHTTP(c.Writer, c.Request)
}

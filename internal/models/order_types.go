package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

// OrderStatuses lists every valid status in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// ParseOrderStatus accepts only the exact status names; surrounding spaces are trimmed.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	s = strings.TrimSpace(s)
	for _, status := range OrderStatuses {
		if s == string(status) {
			return status, true
		}
	}
	return "", false
}

// PaymentCashOnDelivery is the only payment rail the store supports.
const PaymentCashOnDelivery = "Cash on Delivery"

// PlaceholderImage is snapshotted into line items whose product has no image.
const PlaceholderImage = "https://via.placeholder.com/400x300.png?text=No+Image"

// ShippingAddress is the delivery destination. Every field is mandatory.
type ShippingAddress struct {
	FullName   string `json:"fullName" bson:"fullName" validate:"required"`
	Address    string `json:"address" bson:"address" validate:"required"`
	City       string `json:"city" bson:"city" validate:"required"`
	PostalCode string `json:"postalCode" bson:"postalCode" validate:"required"`
	Country    string `json:"country" bson:"country" validate:"required"`
	Phone      string `json:"phone" bson:"phone" validate:"required"`
}

// OrderLineItem is a snapshot of a product taken when the order was placed.
// Later catalog edits never touch it.
type OrderLineItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Subtotal is price x quantity for the line.
func (li OrderLineItem) Subtotal() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Order is the persisted checkout record. Only OrderStatus, DeliveredAt and UpdatedAt change after creation.
type Order struct {
	ID              string          `json:"_id"`
	UserID          string          `json:"user"`
	Items           []OrderLineItem `json:"items"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	OrderStatus     OrderStatus     `json:"orderStatus"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty"`
	IdempotencyKey  string          `json:"-"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`

	// Customer is filled in on reads and never stored.
	Customer *OrderCustomer `json:"customer,omitempty"`
}

// OrderCustomer is the name and email of the user who placed an order.
type OrderCustomer struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// OrderFilter narrows order listings. Zero values mean "no constraint".
type OrderFilter struct {
	UserID        string
	CreatedFrom   time.Time
	CreatedTo     time.Time
	ExcludeStatus OrderStatus
}

// Matches reports whether the order passes the filter.
func (f OrderFilter) Matches(o *Order) bool {
	if f.UserID != "" && o.UserID != f.UserID {
		return false
	}
	if !f.CreatedFrom.IsZero() && o.CreatedAt.Before(f.CreatedFrom) {
		return false
	}
	if !f.CreatedTo.IsZero() && o.CreatedAt.After(f.CreatedTo) {
		return false
	}
	if f.ExcludeStatus != "" && o.OrderStatus == f.ExcludeStatus {
		return false
	}
	return true
}

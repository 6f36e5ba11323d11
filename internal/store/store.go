// Package store defines the persistence contracts shared by the mongo, mysql and memory backends.
package store

import (
	"context"
	"errors"

	"github.com/01moynul/storefront-golang/internal/models"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrDuplicate         = errors.New("duplicate record")
)

type ProductStore interface {
	CreateProduct(ctx context.Context, product *models.Product) error
	FindProduct(ctx context.Context, id string) (*models.Product, error)
	FindProducts(ctx context.Context, ids []string) ([]models.Product, error)
	ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error)
	SampleProducts(ctx context.Context, size int) ([]models.Product, error)
	UpdateProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, id string) error
	CountProducts(ctx context.Context) (int64, error)

	// DecrementStock removes qty units in a single conditional write ("stock >= qty").
	// It returns the product as it is after the write. When fewer than qty units are left it
	// returns ErrInsufficientStock together with the unchanged product.
	DecrementStock(ctx context.Context, id string, qty int) (*models.Product, error)
	IncrementStock(ctx context.Context, id string, qty int) error
}

type OrderStore interface {
	// CreateOrder assigns the id and timestamps. A second order with the same
	// (user, idempotency key) pair fails with ErrDuplicate.
	CreateOrder(ctx context.Context, order *models.Order) error
	FindOrder(ctx context.Context, id string) (*models.Order, error)
	FindOrderByIdempotencyKey(ctx context.Context, userID, key string) (*models.Order, error)
	// ListOrders returns matching orders, newest first.
	ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, error)
	// UpdateOrderStatus persists OrderStatus, DeliveredAt and UpdatedAt.
	UpdateOrderStatus(ctx context.Context, order *models.Order) error
}

type UserStore interface {
	// CreateUser fails with ErrDuplicate when the email is taken.
	CreateUser(ctx context.Context, user *models.User) error
	FindUser(ctx context.Context, id string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	SaveCart(ctx context.Context, userID string, items []models.CartItem) error
	CountUsers(ctx context.Context) (int64, error)
}

// Store bundles every collection of one backend.
type Store interface {
	ProductStore
	OrderStore
	UserStore
	Close(ctx context.Context) error
}

// Package cart keeps the shopping cart stored on each user.
package cart

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/01moynul/storefront-golang/internal/apperr"
	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/01moynul/storefront-golang/internal/store"
)

type Service struct {
	users    store.UserStore
	products store.ProductStore
	log      *logrus.Entry
}

func NewService(users store.UserStore, products store.ProductStore, log *logrus.Entry) *Service {
	return &Service{users: users, products: products, log: log.WithField("component", "cart")}
}

func (s *Service) load(ctx context.Context, userID string) (*models.User, error) {
	u, err := s.users.FindUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, apperr.Internal(err, "Internal server error")
	}
	return u, nil
}

func (s *Service) save(ctx context.Context, userID string, items []models.CartItem) ([]models.CartItem, error) {
	if items == nil {
		items = []models.CartItem{}
	}
	if err := s.users.SaveCart(ctx, userID, items); err != nil {
		return nil, apperr.Internal(err, "Internal server error")
	}
	return items, nil
}

// GetCart joins every cart entry with its live product. Entries whose product is gone are skipped.
func (s *Service) GetCart(ctx context.Context, userID string) ([]models.CartLine, error) {
	u, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(u.CartItems))
	for _, item := range u.CartItems {
		ids = append(ids, item.ProductID)
	}
	products, err := s.products.FindProducts(ctx, ids)
	if err != nil {
		return nil, apperr.Internal(err, "Internal server error")
	}
	byID := make(map[string]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	lines := make([]models.CartLine, 0, len(u.CartItems))
	for _, item := range u.CartItems {
		p, ok := byID[item.ProductID]
		if !ok {
			continue
		}
		lines = append(lines, models.CartLine{Product: p, Quantity: item.Quantity})
	}
	return lines, nil
}

// AddToCart bumps the quantity of a product already in the cart or appends it with quantity 1.
func (s *Service) AddToCart(ctx context.Context, userID, productID string) ([]models.CartItem, error) {
	if productID == "" {
		return nil, apperr.Validation("productId is required")
	}
	if _, err := s.products.FindProduct(ctx, productID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("Product not found")
		}
		return nil, apperr.Internal(err, "Internal server error")
	}

	u, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := u.CartItems
	found := false
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity++
			found = true
			break
		}
	}
	if !found {
		items = append(items, models.CartItem{ProductID: productID, Quantity: 1})
	}
	return s.save(ctx, userID, items)
}

// UpdateQuantity sets the quantity of a cart entry; zero removes it.
func (s *Service) UpdateQuantity(ctx context.Context, userID, productID string, quantity int) ([]models.CartItem, error) {
	if quantity < 0 {
		return nil, apperr.Validation("Quantity cannot be negative")
	}
	u, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]models.CartItem, 0, len(u.CartItems))
	found := false
	for _, item := range u.CartItems {
		if item.ProductID == productID {
			found = true
			if quantity == 0 {
				continue
			}
			item.Quantity = quantity
		}
		items = append(items, item)
	}
	if !found {
		return nil, apperr.NotFound("Product not found in cart")
	}
	return s.save(ctx, userID, items)
}

// RemoveFromCart drops one product, or empties the cart when productID is empty.
func (s *Service) RemoveFromCart(ctx context.Context, userID, productID string) ([]models.CartItem, error) {
	if productID == "" {
		return s.save(ctx, userID, nil)
	}
	u, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]models.CartItem, 0, len(u.CartItems))
	for _, item := range u.CartItems {
		if item.ProductID != productID {
			items = append(items, item)
		}
	}
	return s.save(ctx, userID, items)
}

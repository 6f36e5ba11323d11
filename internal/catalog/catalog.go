// Package catalog manages products and their featured flag.
package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/01moynul/storefront-golang/internal/apperr"
	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/01moynul/storefront-golang/internal/store"
)

const recommendedCount = 3

type Service struct {
	products store.ProductStore
	log      *logrus.Entry
}

func NewService(products store.ProductStore, log *logrus.Entry) *Service {
	return &Service{products: products, log: log.WithField("component", "catalog")}
}

// NormalizeCategory turns "T Shirts" into "t-shirts" so lookups and writes agree.
func NormalizeCategory(category string) string {
	return slug.Make(strings.TrimSpace(category))
}

type ProductInput struct {
	Name        string
	Description string
	Category    string
	Price       decimal.Decimal
	Image       string
	Stock       int
	IsFeatured  bool
}

// ProductPatch is a partial update; nil fields are left alone.
type ProductPatch struct {
	Name        *string
	Description *string
	Category    *string
	Price       *decimal.Decimal
	Image       *string
	Stock       *int
	IsFeatured  *bool
}

func internal(err error) error {
	return apperr.Internal(err, "Internal server error")
}

func (s *Service) find(ctx context.Context, id string) (*models.Product, error) {
	p, err := s.products.FindProduct(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("Product not found")
		}
		return nil, internal(err)
	}
	return p, nil
}

func validateProduct(p *models.Product) error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return apperr.Validation("Product name is required")
	case strings.TrimSpace(p.Description) == "":
		return apperr.Validation("Product description is required")
	case p.Category == "":
		return apperr.Validation("Product category is required")
	case p.Price.IsNegative():
		return apperr.Validation("Price cannot be negative")
	case p.Stock < 0:
		return apperr.Validation("Stock cannot be negative")
	}
	return nil
}

func (s *Service) ListProducts(ctx context.Context) ([]models.Product, error) {
	products, err := s.products.ListProducts(ctx, models.ProductFilter{})
	if err != nil {
		return nil, internal(err)
	}
	return products, nil
}

func (s *Service) FeaturedProducts(ctx context.Context) ([]models.Product, error) {
	products, err := s.products.ListProducts(ctx, models.ProductFilter{FeaturedOnly: true})
	if err != nil {
		return nil, internal(err)
	}
	if len(products) == 0 {
		return nil, apperr.NotFound("No featured products found")
	}
	return products, nil
}

func (s *Service) ProductsByCategory(ctx context.Context, category string) ([]models.Product, error) {
	products, err := s.products.ListProducts(ctx, models.ProductFilter{Category: NormalizeCategory(category)})
	if err != nil {
		return nil, internal(err)
	}
	return products, nil
}

func (s *Service) RecommendedProducts(ctx context.Context) ([]models.Product, error) {
	products, err := s.products.SampleProducts(ctx, recommendedCount)
	if err != nil {
		return nil, internal(err)
	}
	return products, nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	return s.find(ctx, id)
}

func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	p := &models.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Category:    NormalizeCategory(in.Category),
		Price:       models.RoundMoney(in.Price),
		Image:       strings.TrimSpace(in.Image),
		Stock:       in.Stock,
		IsFeatured:  in.IsFeatured,
	}
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	if err := s.products.CreateProduct(ctx, p); err != nil {
		return nil, internal(err)
	}
	s.log.WithFields(logrus.Fields{"productId": p.ID, "category": p.Category}).Info("Product created")
	return p, nil
}

// UpdateProduct applies a partial update. Concurrent edits are last-write-wins, except stock
// which checkout only ever moves through conditional decrements.
func (s *Service) UpdateProduct(ctx context.Context, id string, patch ProductPatch) (*models.Product, error) {
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		p.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		p.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Category != nil {
		p.Category = NormalizeCategory(*patch.Category)
	}
	if patch.Price != nil {
		p.Price = models.RoundMoney(*patch.Price)
	}
	if patch.Image != nil {
		p.Image = strings.TrimSpace(*patch.Image)
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.IsFeatured != nil {
		p.IsFeatured = *patch.IsFeatured
	}

	if err := validateProduct(p); err != nil {
		return nil, err
	}
	if err := s.products.UpdateProduct(ctx, p); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("Product not found")
		}
		return nil, internal(err)
	}
	return p, nil
}

func (s *Service) ToggleFeatured(ctx context.Context, id string) (*models.Product, error) {
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	featured := !p.IsFeatured
	return s.UpdateProduct(ctx, id, ProductPatch{IsFeatured: &featured})
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := s.products.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("Product not found")
		}
		return internal(err)
	}
	s.log.WithField("productId", id).Info("Product deleted")
	return nil
}

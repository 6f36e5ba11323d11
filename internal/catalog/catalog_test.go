package catalog

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/01moynul/storefront-golang/internal/apperr"
	"github.com/01moynul/storefront-golang/internal/logging"
	"github.com/01moynul/storefront-golang/internal/store"
)

func newService() *Service {
	return NewService(store.NewMemory(), logging.Discard())
}

func create(t *testing.T, s *Service, name, category string, featured bool) string {
	t.Helper()
	p, err := s.CreateProduct(context.Background(), ProductInput{
		Name: name, Description: "desc", Category: category,
		Price: decimal.RequireFromString("9.999"), Stock: 3, IsFeatured: featured,
	})
	require.NoError(t, err)
	return p.ID
}

func TestNormalizeCategory(t *testing.T) {
	assert.Equal(t, "jeans", NormalizeCategory(" Jeans "))
	assert.Equal(t, "t-shirts", NormalizeCategory("T Shirts"))
}

func TestCreateProduct(t *testing.T) {
	s := newService()
	ctx := context.Background()

	id := create(t, s, "Slim fit", "Jeans", false)
	p, err := s.GetProduct(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "jeans", p.Category)
	assert.Equal(t, "10.00", p.Price.StringFixed(2))

	_, err = s.CreateProduct(ctx, ProductInput{Name: "x", Description: "d", Category: "c", Price: decimal.NewFromInt(-1)})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = s.CreateProduct(ctx, ProductInput{Description: "d", Category: "c"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestFeaturedAndToggle(t *testing.T) {
	s := newService()
	ctx := context.Background()

	_, err := s.FeaturedProducts(ctx)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	id := create(t, s, "A", "shoes", false)
	p, err := s.ToggleFeatured(ctx, id)
	require.NoError(t, err)
	assert.True(t, p.IsFeatured)

	featured, err := s.FeaturedProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, featured, 1)

	p, err = s.ToggleFeatured(ctx, id)
	require.NoError(t, err)
	assert.False(t, p.IsFeatured)
}

func TestProductsByCategoryAndRecommended(t *testing.T) {
	s := newService()
	ctx := context.Background()
	for _, name := range []string{"a", "b", "c", "d"} {
		create(t, s, name, "Jeans", false)
	}
	create(t, s, "e", "shoes", false)

	jeans, err := s.ProductsByCategory(ctx, "JEANS")
	require.NoError(t, err)
	assert.Len(t, jeans, 4)

	rec, err := s.RecommendedProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, rec, 3)
}

func TestUpdateAndDelete(t *testing.T) {
	s := newService()
	ctx := context.Background()
	id := create(t, s, "A", "shoes", false)

	stock := 25
	name := "Renamed"
	p, err := s.UpdateProduct(ctx, id, ProductPatch{Stock: &stock, Name: &name})
	require.NoError(t, err)
	assert.Equal(t, 25, p.Stock)
	assert.Equal(t, "Renamed", p.Name)
	assert.Equal(t, "desc", p.Description)

	negative := -1
	_, err = s.UpdateProduct(ctx, id, ProductPatch{Stock: &negative})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = s.UpdateProduct(ctx, "missing", ProductPatch{Stock: &stock})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	require.NoError(t, s.DeleteProduct(ctx, id))
	assert.True(t, apperr.Is(s.DeleteProduct(ctx, id), apperr.KindNotFound))

	_, err = s.GetProduct(ctx, id)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

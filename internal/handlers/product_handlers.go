package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/01moynul/storefront-golang/internal/catalog"
)

//
// --- Product Handlers ---
//

type CreateProductInput struct {
	Name        string           `json:"name" binding:"required"`
	Description string           `json:"description" binding:"required"`
	Category    string           `json:"category" binding:"required"`
	Price       *decimal.Decimal `json:"price" binding:"required"`
	Image       string           `json:"image"`
	Stock       int              `json:"stock" binding:"gte=0"`
	IsFeatured  bool             `json:"isFeatured"`
}

// UpdateProductInput only touches the fields present in the body.
type UpdateProductInput struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Category    *string          `json:"category"`
	Price       *decimal.Decimal `json:"price"`
	Image       *string          `json:"image"`
	Stock       *int             `json:"stock"`
	IsFeatured  *bool            `json:"isFeatured"`
}

// GetAllProducts is the handler for GET /api/products (admin)
func (h *Handlers) GetAllProducts(c *gin.Context) {
	products, err := h.Catalog.ListProducts(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// GetFeaturedProducts is the handler for GET /api/products/featured
func (h *Handlers) GetFeaturedProducts(c *gin.Context) {
	products, err := h.Catalog.FeaturedProducts(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// GetProductsByCategory is the handler for GET /api/products/category/:category
func (h *Handlers) GetProductsByCategory(c *gin.Context) {
	products, err := h.Catalog.ProductsByCategory(c.Request.Context(), c.Param("category"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// GetRecommendedProducts is the handler for GET /api/products/recommended
func (h *Handlers) GetRecommendedProducts(c *gin.Context) {
	products, err := h.Catalog.RecommendedProducts(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// GetProduct is the handler for GET /api/products/:id
func (h *Handlers) GetProduct(c *gin.Context) {
	product, err := h.Catalog.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// CreateProduct is the handler for POST /api/products (admin)
func (h *Handlers) CreateProduct(c *gin.Context) {
	var input CreateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	product, err := h.Catalog.CreateProduct(c.Request.Context(), catalog.ProductInput{
		Name:        input.Name,
		Description: input.Description,
		Category:    input.Category,
		Price:       *input.Price,
		Image:       input.Image,
		Stock:       input.Stock,
		IsFeatured:  input.IsFeatured,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// UpdateProduct is the handler for PUT /api/products/:id (admin)
func (h *Handlers) UpdateProduct(c *gin.Context) {
	var input UpdateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	product, err := h.Catalog.UpdateProduct(c.Request.Context(), c.Param("id"), catalog.ProductPatch{
		Name:        input.Name,
		Description: input.Description,
		Category:    input.Category,
		Price:       input.Price,
		Image:       input.Image,
		Stock:       input.Stock,
		IsFeatured:  input.IsFeatured,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// ToggleFeaturedProduct is the handler for PATCH /api/products/:id (admin)
func (h *Handlers) ToggleFeaturedProduct(c *gin.Context) {
	product, err := h.Catalog.ToggleFeatured(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// DeleteProduct is the handler for DELETE /api/products/:id (admin)
func (h *Handlers) DeleteProduct(c *gin.Context) {
	if err := h.Catalog.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Product deleted successfully"})
}

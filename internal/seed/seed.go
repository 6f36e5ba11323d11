// Package seed loads the sample catalog and an optional admin account.
package seed

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/01moynul/storefront-golang/internal/accounts"
	"github.com/01moynul/storefront-golang/internal/apperr"
	"github.com/01moynul/storefront-golang/internal/catalog"
	"github.com/01moynul/storefront-golang/internal/models"
)

const defaultStock = 25

type Admin struct {
	Name     string
	Email    string
	Password string
}

type Options struct {
	// Destroy only clears the catalog.
	Destroy bool
	// Admin is created when Email is set; an existing account is left alone.
	Admin Admin
}

type Seeder struct {
	catalog  *catalog.Service
	accounts *accounts.Service
	log      *logrus.Entry
}

func New(cat *catalog.Service, acc *accounts.Service, log *logrus.Entry) *Seeder {
	return &Seeder{catalog: cat, accounts: acc, log: log.WithField("component", "seed")}
}

// Run replaces the whole catalog with SampleProducts.
func (s *Seeder) Run(ctx context.Context, opts Options) error {
	// 1. --- Clear existing products ---
	existing, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return errors.Wrap(err, "list products")
	}
	for _, p := range existing {
		if err := s.catalog.DeleteProduct(ctx, p.ID); err != nil && !apperr.Is(err, apperr.KindNotFound) {
			return errors.Wrapf(err, "delete product %s", p.ID)
		}
	}
	if opts.Destroy {
		s.log.WithField("deleted", len(existing)).Info("Catalog destroyed")
		return nil
	}

	// 2. --- Import the sample catalog ---
	for _, in := range SampleProducts() {
		if _, err := s.catalog.CreateProduct(ctx, in); err != nil {
			return errors.Wrapf(err, "create product %q", in.Name)
		}
	}
	s.log.WithFields(logrus.Fields{"deleted": len(existing), "imported": len(SampleProducts())}).Info("Catalog imported")

	// 3. --- Admin account ---
	if opts.Admin.Email == "" {
		return nil
	}
	_, err = s.accounts.Signup(ctx, accounts.SignupInput{
		Name:     opts.Admin.Name,
		Email:    opts.Admin.Email,
		Password: opts.Admin.Password,
		Role:     models.RoleAdmin,
	})
	switch {
	case err == nil:
		s.log.WithField("email", opts.Admin.Email).Info("Admin account created")
	case apperr.MessageOf(err) == "User already exists":
		s.log.WithField("email", opts.Admin.Email).Info("Admin account already exists")
	default:
		return errors.Wrap(err, "create admin")
	}
	return nil
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func SampleProducts() []catalog.ProductInput {
	return []catalog.ProductInput{
		{Name: "Argentina T-shirt", Description: "Official FIFA 24 matchday jersey, representing the spirit of Argentina.", Category: "tshirts", Price: price("39.99"), Image: "http://res.cloudinary.com/dkql2kdgz/image/upload/v1749404408/products/fzswicjpgodxnfo3liyi.jpg", Stock: defaultStock, IsFeatured: true},
		{Name: "Nike Air Max 270 React", Description: "Experience supreme comfort and style with the Nike Air Max 270 React. Perfect for everyday wear.", Category: "shoes", Price: price("159.99"), Image: "https://fakestoreapi.com/img/81QpkxQc-LT._AC_SL1500_.jpg", Stock: defaultStock, IsFeatured: true},
		{Name: "Classic Blue Denim Jacket", Description: "A timeless and versatile piece for your wardrobe. Made from durable, high-quality denim.", Category: "jackets", Price: price("79.95"), Image: "https://fakestoreapi.com/img/81XH0e8fefL._AC_SL1500_.jpg", Stock: defaultStock},
		{Name: "Wireless Bluetooth Earbuds Pro", Description: "Immersive sound, comfortable fit, and seamless connectivity for your music and calls.", Category: "electronics", Price: price("49.99"), Image: "https://fakestoreapi.com/img/61IBoJtVnHL._AC_SL1500_.jpg", Stock: defaultStock, IsFeatured: true},
		{Name: "Portable Espresso Maker", Description: "Enjoy barista-quality espresso anywhere with this compact and easy-to-use portable maker.", Category: "kitchen", Price: price("59.00"), Image: "https://picsum.photos/id/240/400/400", Stock: defaultStock},
		{Name: "Ergonomic Mesh Office Chair", Description: "Designed for ultimate comfort and support, reducing strain during long working hours.", Category: "furniture", Price: price("299.00"), Image: "https://fakestoreapi.com/img/71kWp3OPL9L._AC_SL1500_.jpg", Stock: defaultStock, IsFeatured: true},
		{Name: "Smart RGB LED Strip Lights (5m)", Description: "Transform your living space with millions of colors and dynamic lighting effects.", Category: "electronics", Price: price("34.50"), Image: "https://picsum.photos/id/250/400/400", Stock: defaultStock},
		{Name: "Waterproof Trekking Boots", Description: "Conquer any trail with these durable, waterproof hiking boots. Excellent grip and ankle support.", Category: "shoes", Price: price("120.00"), Image: "https://fakestoreapi.com/img/71li-UNsERL._AC_SL1500_.jpg", Stock: defaultStock, IsFeatured: true},
		{Name: "Premium Cotton Blend Hoodie", Description: "Soft, warm, and comfortable. Made from a high-quality cotton blend.", Category: "tshirts", Price: price("45.00"), Image: "https://fakestoreapi.com/img/71-3HjhnzGL._AC_SL1500_.jpg", Stock: defaultStock},
		{Name: "Genuine Leather Bifold Wallet", Description: "Crafted from authentic leather, this wallet offers classic style and ample space for cards and cash.", Category: "accessories", Price: price("30.00"), Image: "https://picsum.photos/id/177/400/400", Stock: defaultStock},
		{Name: "Fitness Tracker Smartwatch", Description: "Monitor your heart rate, steps, and sleep. Stay connected with notifications on your wrist.", Category: "electronics", Price: price("89.99"), Image: "https://fakestoreapi.com/img/71YXzeOuslL._AC_SL1500_.jpg", Stock: defaultStock, IsFeatured: true},
		{Name: "Stainless Steel Water Bottle", Description: "Keep your drinks cold for 24 hours or hot for 12. Eco-friendly and durable.", Category: "kitchen", Price: price("19.99"), Image: "https://picsum.photos/id/292/400/400", Stock: defaultStock},
	}
}

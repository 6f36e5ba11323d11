package mysqlstore

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/01moynul/storefront-golang/internal/store"
)

const productColumns = `id, name, description, category, price, image, stock, is_featured, created_at, updated_at`

func (s *Store) CreateProduct(ctx context.Context, product *models.Product) error {
	now := s.now()
	product.ID = uuid.NewString()
	product.CreatedAt = now
	product.UpdatedAt = now

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES (:id, :name, :description, :category, :price, :image, :stock, :is_featured, :created_at, :updated_at)`,
		product)
	return errors.Wrap(err, "insert product")
}

func (s *Store) FindProduct(ctx context.Context, id string) (*models.Product, error) {
	return findProduct(ctx, s.db, id)
}

func findProduct(ctx context.Context, q sqlx.QueryerContext, id string) (*models.Product, error) {
	var p models.Product
	err := sqlx.GetContext(ctx, q, &p, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	if err != nil {
		return nil, notFound(err, "find product")
	}
	return &p, nil
}

func (s *Store) FindProducts(ctx context.Context, ids []string) ([]models.Product, error) {
	products := []models.Product{}
	if len(ids) == 0 {
		return products, nil
	}

	query, args, err := sqlx.In(`SELECT `+productColumns+` FROM products WHERE id IN (?) ORDER BY created_at`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "build product lookup")
	}
	err = s.db.SelectContext(ctx, &products, s.db.Rebind(query), args...)
	return products, errors.Wrap(err, "find products")
}

func (s *Store) ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE 1 = 1`
	args := []any{}
	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, filter.Category)
	}
	if filter.FeaturedOnly {
		query += ` AND is_featured = 1`
	}
	query += ` ORDER BY created_at`

	products := []models.Product{}
	err := s.db.SelectContext(ctx, &products, query, args...)
	return products, errors.Wrap(err, "list products")
}

func (s *Store) SampleProducts(ctx context.Context, size int) ([]models.Product, error) {
	products := []models.Product{}
	err := s.db.SelectContext(ctx, &products, `SELECT `+productColumns+` FROM products ORDER BY RAND() LIMIT ?`, size)
	return products, errors.Wrap(err, "sample products")
}

func (s *Store) UpdateProduct(ctx context.Context, product *models.Product) error {
	product.UpdatedAt = s.now()
	res, err := s.db.NamedExecContext(ctx, `
		UPDATE products
		SET name = :name, description = :description, category = :category, price = :price,
		    image = :image, stock = :stock, is_featured = :is_featured, updated_at = :updated_at
		WHERE id = :id`,
		product)
	if err != nil {
		return errors.Wrap(err, "update product")
	}
	// MySQL reports zero changed rows for a no-op update, so existence is checked separately.
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "update product")
	}
	if n == 0 {
		if _, err := s.FindProduct(ctx, product.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "delete product")
	}
	return affected(res, "delete product")
}

func (s *Store) CountProducts(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM products`)
	return n, errors.Wrap(err, "count products")
}

func (s *Store) DecrementStock(ctx context.Context, id string, qty int) (*models.Product, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "begin decrement")
	}
	defer tx.Rollback()

	// 1. --- Conditional write: only succeeds while enough units are left ---
	res, err := tx.ExecContext(ctx,
		`UPDATE products SET stock = stock - ?, updated_at = ? WHERE id = ? AND stock >= ?`,
		qty, s.now(), id, qty)
	if err != nil {
		return nil, errors.Wrap(err, "decrement stock")
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, errors.Wrap(err, "decrement stock")
	}

	// 2. --- Read back inside the transaction; the row lock pins what we snapshot ---
	product, err := findProduct(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return product, store.ErrInsufficientStock
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit decrement")
	}
	return product, nil
}

func (s *Store) IncrementStock(ctx context.Context, id string, qty int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE products SET stock = stock + ?, updated_at = ? WHERE id = ?`, qty, s.now(), id)
	if err != nil {
		return errors.Wrap(err, "increment stock")
	}
	return affected(res, "increment stock")
}

package mysqlstore

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/01moynul/storefront-golang/internal/store"
)

const userColumns = `id, name, email, password_hash, role, created_at, updated_at`

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	now := s.now()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (:id, :name, :email, :password_hash, :role, :created_at, :updated_at)`,
		user)
	if err != nil {
		if isDuplicate(err) {
			return store.ErrDuplicate
		}
		return errors.Wrap(err, "insert user")
	}

	if len(user.CartItems) > 0 {
		return s.SaveCart(ctx, user.ID, user.CartItems)
	}
	user.CartItems = []models.CartItem{}
	return nil
}

func (s *Store) findUser(ctx context.Context, where string, arg any) (*models.User, error) {
	var u models.User
	if err := s.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE `+where, arg); err != nil {
		return nil, notFound(err, "find user")
	}

	u.CartItems = []models.CartItem{}
	err := s.db.SelectContext(ctx, &u.CartItems,
		`SELECT product_id, quantity FROM cart_items WHERE user_id = ? ORDER BY position`, u.ID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	return &u, nil
}

func (s *Store) FindUser(ctx context.Context, id string) (*models.User, error) {
	return s.findUser(ctx, `id = ?`, id)
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, `email = ?`, models.NormalizeEmail(email))
}

// SaveCart replaces the stored cart with items, keeping their order.
func (s *Store) SaveCart(ctx context.Context, userID string, items []models.CartItem) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin save cart")
	}
	defer tx.Rollback()

	var id string
	if err := tx.GetContext(ctx, &id, `SELECT id FROM users WHERE id = ? FOR UPDATE`, userID); err != nil {
		return notFound(err, "lock user")
	}
	if _, err := tx.ExecContext(ctx, `UPDATE users SET updated_at = ? WHERE id = ?`, s.now(), userID); err != nil {
		return errors.Wrap(err, "touch user")
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = ?`, userID); err != nil {
		return errors.Wrap(err, "clear cart")
	}
	for i, item := range items {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO cart_items (user_id, product_id, quantity, position) VALUES (?, ?, ?, ?)`,
			userID, item.ProductID, item.Quantity, i)
		if err != nil {
			return errors.Wrap(err, "insert cart item")
		}
	}

	return errors.Wrap(tx.Commit(), "commit save cart")
}

func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`)
	return n, errors.Wrap(err, "count users")
}

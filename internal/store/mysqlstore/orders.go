package mysqlstore

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/01moynul/storefront-golang/internal/store"
)

type orderRow struct {
	ID                 string          `db:"id"`
	UserID             string          `db:"user_id"`
	ShippingFullName   string          `db:"shipping_full_name"`
	ShippingAddress    string          `db:"shipping_address"`
	ShippingCity       string          `db:"shipping_city"`
	ShippingPostalCode string          `db:"shipping_postal_code"`
	ShippingCountry    string          `db:"shipping_country"`
	ShippingPhone      string          `db:"shipping_phone"`
	PaymentMethod      string          `db:"payment_method"`
	TotalAmount        decimal.Decimal `db:"total_amount"`
	OrderStatus        string          `db:"order_status"`
	DeliveredAt        sql.NullTime    `db:"delivered_at"`
	IdempotencyKey     sql.NullString  `db:"idempotency_key"`
	CreatedAt          time.Time       `db:"created_at"`
	UpdatedAt          time.Time       `db:"updated_at"`
}

type orderItemRow struct {
	OrderID   string          `db:"order_id"`
	Position  int             `db:"position"`
	ProductID string          `db:"product_id"`
	Name      string          `db:"name"`
	Image     string          `db:"image"`
	Price     decimal.Decimal `db:"price"`
	Quantity  int             `db:"quantity"`
}

const orderColumns = `id, user_id, shipping_full_name, shipping_address, shipping_city, shipping_postal_code,
	shipping_country, shipping_phone, payment_method, total_amount, order_status, delivered_at,
	idempotency_key, created_at, updated_at`

func newOrderRow(o *models.Order) orderRow {
	row := orderRow{
		ID:                 o.ID,
		UserID:             o.UserID,
		ShippingFullName:   o.ShippingAddress.FullName,
		ShippingAddress:    o.ShippingAddress.Address,
		ShippingCity:       o.ShippingAddress.City,
		ShippingPostalCode: o.ShippingAddress.PostalCode,
		ShippingCountry:    o.ShippingAddress.Country,
		ShippingPhone:      o.ShippingAddress.Phone,
		PaymentMethod:      o.PaymentMethod,
		TotalAmount:        o.TotalAmount,
		OrderStatus:        string(o.OrderStatus),
		IdempotencyKey:     sql.NullString{String: o.IdempotencyKey, Valid: o.IdempotencyKey != ""},
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
	if o.DeliveredAt != nil {
		row.DeliveredAt = sql.NullTime{Time: *o.DeliveredAt, Valid: true}
	}
	return row
}

func (r orderRow) model(items []orderItemRow) models.Order {
	o := models.Order{
		ID:     r.ID,
		UserID: r.UserID,
		Items:  make([]models.OrderLineItem, 0, len(items)),
		ShippingAddress: models.ShippingAddress{
			FullName:   r.ShippingFullName,
			Address:    r.ShippingAddress,
			City:       r.ShippingCity,
			PostalCode: r.ShippingPostalCode,
			Country:    r.ShippingCountry,
			Phone:      r.ShippingPhone,
		},
		PaymentMethod:  r.PaymentMethod,
		TotalAmount:    r.TotalAmount,
		OrderStatus:    models.OrderStatus(r.OrderStatus),
		IdempotencyKey: r.IdempotencyKey.String,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	if r.DeliveredAt.Valid {
		t := r.DeliveredAt.Time
		o.DeliveredAt = &t
	}
	for _, it := range items {
		o.Items = append(o.Items, models.OrderLineItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Image:     it.Image,
			Price:     it.Price,
			Quantity:  it.Quantity,
		})
	}
	return o
}

func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	now := s.now()
	order.ID = uuid.NewString()
	order.CreatedAt = now
	order.UpdatedAt = now

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin create order")
	}
	defer tx.Rollback()

	// 1. --- Order header ---
	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES (:id, :user_id, :shipping_full_name, :shipping_address, :shipping_city, :shipping_postal_code,
		        :shipping_country, :shipping_phone, :payment_method, :total_amount, :order_status, :delivered_at,
		        :idempotency_key, :created_at, :updated_at)`,
		newOrderRow(order))
	if err != nil {
		if isDuplicate(err) {
			return store.ErrDuplicate
		}
		return errors.Wrap(err, "insert order")
	}

	// 2. --- Line item snapshots ---
	for i, li := range order.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, position, product_id, name, image, price, quantity)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			order.ID, i, li.ProductID, li.Name, li.Image, li.Price, li.Quantity)
		if err != nil {
			return errors.Wrap(err, "insert order item")
		}
	}

	return errors.Wrap(tx.Commit(), "commit create order")
}

func (s *Store) findOrder(ctx context.Context, where string, args ...any) (*models.Order, error) {
	var row orderRow
	err := s.db.GetContext(ctx, &row, `SELECT `+orderColumns+` FROM orders WHERE `+where, args...)
	if err != nil {
		return nil, notFound(err, "find order")
	}
	orders, err := s.attachItems(ctx, []orderRow{row})
	if err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (s *Store) FindOrder(ctx context.Context, id string) (*models.Order, error) {
	return s.findOrder(ctx, `id = ?`, id)
}

func (s *Store) FindOrderByIdempotencyKey(ctx context.Context, userID, key string) (*models.Order, error) {
	return s.findOrder(ctx, `user_id = ? AND idempotency_key = ?`, userID, key)
}

func (s *Store) ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, error) {
	var (
		where []string
		args  []any
	)
	if filter.UserID != "" {
		where = append(where, `user_id = ?`)
		args = append(args, filter.UserID)
	}
	if !filter.CreatedFrom.IsZero() {
		where = append(where, `created_at >= ?`)
		args = append(args, filter.CreatedFrom)
	}
	if !filter.CreatedTo.IsZero() {
		where = append(where, `created_at <= ?`)
		args = append(args, filter.CreatedTo)
	}
	if filter.ExcludeStatus != "" {
		where = append(where, `order_status <> ?`)
		args = append(args, string(filter.ExcludeStatus))
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY created_at DESC`

	var rows []orderRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return s.attachItems(ctx, rows)
}

// attachItems loads the line items of every row in one query.
func (s *Store) attachItems(ctx context.Context, rows []orderRow) ([]models.Order, error) {
	orders := make([]models.Order, 0, len(rows))
	if len(rows) == 0 {
		return orders, nil
	}

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	query, args, err := sqlx.In(`
		SELECT order_id, position, product_id, name, image, price, quantity
		FROM order_items WHERE order_id IN (?) ORDER BY order_id, position`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "build order items lookup")
	}

	var items []orderItemRow
	if err := s.db.SelectContext(ctx, &items, s.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "load order items")
	}
	byOrder := make(map[string][]orderItemRow, len(rows))
	for _, it := range items {
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
	}

	for _, r := range rows {
		orders = append(orders, r.model(byOrder[r.ID]))
	}
	return orders, nil
}

func (s *Store) UpdateOrderStatus(ctx context.Context, order *models.Order) error {
	order.UpdatedAt = s.now()
	var delivered sql.NullTime
	if order.DeliveredAt != nil {
		delivered = sql.NullTime{Time: *order.DeliveredAt, Valid: true}
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE orders SET order_status = ?, delivered_at = ?, updated_at = ? WHERE id = ?`,
		string(order.OrderStatus), delivered, order.UpdatedAt, order.ID)
	if err != nil {
		return errors.Wrap(err, "update order status")
	}
	return affected(res, "update order status")
}

// Package orders implements checkout with stock reservation and the order status lifecycle.
package orders

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/01moynul/storefront-golang/internal/apperr"
	"github.com/01moynul/storefront-golang/internal/events"
	"github.com/01moynul/storefront-golang/internal/metrics"
	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/01moynul/storefront-golang/internal/store"
)

type Options struct {
	// CompensateStock reverses earlier decrements when a later line or the order write fails.
	// When false, decrements made before the failure stay committed.
	CompensateStock bool
}

type Service struct {
	products store.ProductStore
	orders   store.OrderStore
	users    store.UserStore
	sink     events.Sink
	metrics  *metrics.Metrics
	log      *logrus.Entry
	validate *validator.Validate
	opts     Options
	now      func() time.Time
}

func NewService(products store.ProductStore, orders store.OrderStore, users store.UserStore, sink events.Sink, m *metrics.Metrics, log *logrus.Entry, opts Options) *Service {
	if sink == nil {
		sink = events.Discard{}
	}
	return &Service{
		products: products,
		orders:   orders,
		users:    users,
		sink:     sink,
		metrics:  m,
		log:      log.WithField("component", "orders"),
		validate: validator.New(),
		opts:     opts,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type LineRequest struct {
	ProductID string
	Quantity  int
}

type PlaceOrderInput struct {
	UserID          string
	Items           []LineRequest
	ShippingAddress *models.ShippingAddress
	PaymentMethod   string
	// ClaimedTotal is the client's own total. It is only compared, never trusted.
	ClaimedTotal   *decimal.Decimal
	IdempotencyKey string
}

type PlaceOrderResult struct {
	Order *models.Order
	// Replayed is true when an earlier order with the same idempotency key was returned.
	Replayed bool
}

func (s *Service) validateInput(in PlaceOrderInput) error {
	if len(in.Items) == 0 || in.ShippingAddress == nil || strings.TrimSpace(in.PaymentMethod) == "" || in.ClaimedTotal == nil {
		return apperr.Validation("Missing required order details.")
	}
	for _, item := range in.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			return apperr.Validation("Every item needs a productId.")
		}
		if item.Quantity <= 0 {
			return apperr.Validation("Quantity must be at least 1 for product %s.", item.ProductID)
		}
	}
	trimAddress(in.ShippingAddress)
	if err := s.validate.Struct(in.ShippingAddress); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return apperr.Validation("Shipping address is missing %s.", lowerFirst(fieldErrs[0].Field()))
		}
		return apperr.Validation("Invalid shipping address.")
	}
	if in.PaymentMethod != models.PaymentCashOnDelivery {
		return apperr.Validation("Unsupported payment method. Only %s is accepted.", models.PaymentCashOnDelivery)
	}
	if in.ClaimedTotal.IsNegative() {
		return apperr.Validation("Total amount cannot be negative.")
	}
	return nil
}

// reservation is one stock decrement that may have to be undone.
type reservation struct {
	productID string
	quantity  int
}

// PlaceOrder reserves stock line by line, then persists a Pending order priced from the store.
func (s *Service) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*PlaceOrderResult, error) {
	// 1. --- Validate the request shape ---
	if in.ShippingAddress != nil {
		addr := *in.ShippingAddress
		in.ShippingAddress = &addr
	}
	if err := s.validateInput(in); err != nil {
		return nil, err
	}
	log := s.log.WithField("userId", in.UserID)

	// 2. --- Replay a checkout that already went through ---
	if in.IdempotencyKey != "" {
		existing, err := s.orders.FindOrderByIdempotencyKey(ctx, in.UserID, in.IdempotencyKey)
		if err == nil {
			s.metrics.OrderReplayed()
			log.WithField("orderId", existing.ID).Info("Returning existing order for idempotency key")
			return &PlaceOrderResult{Order: existing, Replayed: true}, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Internal(err, "Internal server error")
		}
	}

	// 3. --- Reserve stock and snapshot every line ---
	var (
		reserved []reservation
		items    = make([]models.OrderLineItem, 0, len(in.Items))
		total    = decimal.Zero
	)
	fail := func(err error) (*PlaceOrderResult, error) {
		s.release(ctx, log, reserved)
		return nil, err
	}

	for _, line := range in.Items {
		product, err := s.products.DecrementStock(ctx, line.ProductID, line.Quantity)
		switch {
		case errors.Is(err, store.ErrNotFound):
			return fail(apperr.NotFound("Product not found for ID: %s", line.ProductID))
		case errors.Is(err, store.ErrInsufficientStock):
			s.metrics.StockConflict()
			return fail(apperr.InsufficientStock(product.Name, product.Stock))
		case err != nil:
			return fail(apperr.Internal(err, "Internal server error"))
		}
		reserved = append(reserved, reservation{productID: line.ProductID, quantity: line.Quantity})

		item := models.OrderLineItem{
			ProductID: product.ID,
			Name:      product.Name,
			Image:     product.ImageOrPlaceholder(),
			Price:     product.Price,
			Quantity:  line.Quantity,
		}
		items = append(items, item)
		total = total.Add(item.Subtotal())
	}

	// 4. --- The server total always wins over the client's ---
	if total.Sub(*in.ClaimedTotal).Abs().GreaterThan(models.MoneyTolerance) {
		log.WithFields(logrus.Fields{
			"expected": total.StringFixed(2),
			"claimed":  in.ClaimedTotal.StringFixed(2),
		}).Warn("Client total mismatch, using server-calculated total")
	}

	// 5. --- Persist the order ---
	order := &models.Order{
		UserID:          in.UserID,
		Items:           items,
		ShippingAddress: *in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		TotalAmount:     models.RoundMoney(total),
		OrderStatus:     models.OrderStatusPending,
		IdempotencyKey:  in.IdempotencyKey,
	}
	if err := s.orders.CreateOrder(ctx, order); err != nil {
		if errors.Is(err, store.ErrDuplicate) && in.IdempotencyKey != "" {
			// A concurrent request with the same key won the insert. This request
			// reports a replay, so its own reservations go back whatever the options say.
			s.restore(ctx, log, reserved)
			existing, findErr := s.orders.FindOrderByIdempotencyKey(ctx, in.UserID, in.IdempotencyKey)
			if findErr != nil {
				return nil, apperr.Internal(findErr, "Internal server error")
			}
			s.metrics.OrderReplayed()
			return &PlaceOrderResult{Order: existing, Replayed: true}, nil
		}
		return fail(apperr.Internal(err, "Internal server error"))
	}

	s.metrics.OrderPlaced()
	log.WithFields(logrus.Fields{"orderId": order.ID, "total": order.TotalAmount.StringFixed(2)}).Info("Order placed")
	s.publish(ctx, events.OrderPlaced, order)

	return &PlaceOrderResult{Order: order}, nil
}

// release gives reserved units back, newest first. Failures are logged and never replace the caller's error.
func (s *Service) release(ctx context.Context, log *logrus.Entry, reserved []reservation) {
	if !s.opts.CompensateStock {
		if len(reserved) > 0 {
			log.WithField("lines", len(reserved)).Warn("Checkout failed after reserving stock; reservations kept")
		}
		return
	}
	s.restore(ctx, log, reserved)
}

// restore increments every reserved line back, newest first.
func (s *Service) restore(ctx context.Context, log *logrus.Entry, reserved []reservation) {
	// The request context may already be cancelled; compensation still has to run.
	ctx = context.WithoutCancel(ctx)
	for i := len(reserved) - 1; i >= 0; i-- {
		r := reserved[i]
		if err := s.products.IncrementStock(ctx, r.productID, r.quantity); err != nil {
			s.metrics.Compensation(false)
			log.WithError(err).WithFields(logrus.Fields{
				"productId": r.productID,
				"quantity":  r.quantity,
			}).Error("Failed to restore reserved stock")
			continue
		}
		s.metrics.Compensation(true)
	}
}

func (s *Service) publish(ctx context.Context, eventType string, order *models.Order) {
	if err := s.sink.Publish(ctx, events.FromOrder(eventType, order)); err != nil {
		s.log.WithError(err).WithField("orderId", order.ID).Warn("Failed to publish order event")
	}
}

// UpdateOrderStatus moves an order along its lifecycle and keeps deliveredAt in step.
func (s *Service) UpdateOrderStatus(ctx context.Context, orderID, newStatus string) (*models.Order, error) {
	status, ok := models.ParseOrderStatus(newStatus)
	if !ok {
		return nil, apperr.Validation("Invalid order status")
	}

	order, err := s.orders.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("Order not found")
		}
		return nil, apperr.Internal(err, "Internal server error")
	}

	previous := order.OrderStatus
	if previous == status {
		return order, nil
	}
	if !CanTransition(previous, status) {
		return nil, apperr.Validation("Cannot change order status from %s to %s", previous, status)
	}

	order.OrderStatus = status
	switch {
	case status == models.OrderStatusDelivered:
		now := s.now()
		order.DeliveredAt = &now
	case previous == models.OrderStatusDelivered:
		order.DeliveredAt = nil
	}

	if err := s.orders.UpdateOrderStatus(ctx, order); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("Order not found")
		}
		return nil, apperr.Internal(err, "Internal server error")
	}

	s.metrics.StatusChanged(string(status))
	s.log.WithFields(logrus.Fields{"orderId": order.ID, "from": previous, "to": status}).Info("Order status updated")
	if status == models.OrderStatusDelivered {
		s.publish(ctx, events.OrderDelivered, order)
	}
	return order, nil
}

// GetOrder returns the order when the viewer owns it or is an admin.
func (s *Service) GetOrder(ctx context.Context, orderID string, viewer *models.User) (*models.Order, error) {
	order, err := s.orders.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("Order not found")
		}
		return nil, apperr.Internal(err, "Internal server error")
	}
	if viewer == nil || (order.UserID != viewer.ID && !viewer.IsAdmin()) {
		return nil, apperr.Forbidden("You do not have permission to view this order")
	}
	if err := s.attachCustomers(ctx, []*models.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Service) ListOrders(ctx context.Context) ([]models.Order, error) {
	return s.list(ctx, models.OrderFilter{})
}

func (s *Service) ListUserOrders(ctx context.Context, userID string) ([]models.Order, error) {
	return s.list(ctx, models.OrderFilter{UserID: userID})
}

func (s *Service) list(ctx context.Context, filter models.OrderFilter) ([]models.Order, error) {
	orders, err := s.orders.ListOrders(ctx, filter)
	if err != nil {
		return nil, apperr.Internal(err, "Internal server error")
	}
	refs := make([]*models.Order, len(orders))
	for i := range orders {
		refs[i] = &orders[i]
	}
	if err := s.attachCustomers(ctx, refs); err != nil {
		return nil, err
	}
	return orders, nil
}

// attachCustomers sets the buyer's name and email on each order, one lookup per distinct user.
// Orders whose user no longer exists keep a nil Customer.
func (s *Service) attachCustomers(ctx context.Context, orders []*models.Order) error {
	if s.users == nil {
		return nil
	}
	seen := make(map[string]*models.OrderCustomer)
	for _, o := range orders {
		customer, ok := seen[o.UserID]
		if !ok {
			u, err := s.users.FindUser(ctx, o.UserID)
			switch {
			case err == nil:
				customer = &models.OrderCustomer{ID: u.ID, Name: u.Name, Email: u.Email}
			case !errors.Is(err, store.ErrNotFound):
				return apperr.Internal(err, "Internal server error")
			}
			seen[o.UserID] = customer
		}
		o.Customer = customer
	}
	return nil
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func trimAddress(a *models.ShippingAddress) {
	a.FullName = strings.TrimSpace(a.FullName)
	a.Address = strings.TrimSpace(a.Address)
	a.City = strings.TrimSpace(a.City)
	a.PostalCode = strings.TrimSpace(a.PostalCode)
	a.Country = strings.TrimSpace(a.Country)
	a.Phone = strings.TrimSpace(a.Phone)
}

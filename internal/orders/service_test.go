package orders

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/01moynul/storefront-golang/internal/apperr"
	"github.com/01moynul/storefront-golang/internal/events"
	"github.com/01moynul/storefront-golang/internal/logging"
	"github.com/01moynul/storefront-golang/internal/metrics"
	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/01moynul/storefront-golang/internal/store"
)

type recordingSink struct {
	mu  sync.Mutex
	got []events.Event
}

func (r *recordingSink) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, e)
	return nil
}

func (r *recordingSink) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.got {
		out = append(out, e.Type)
	}
	return out
}

// failingOrders makes CreateOrder fail so compensation after the last line can be observed.
type failingOrders struct {
	*store.Memory
}

func (failingOrders) CreateOrder(context.Context, *models.Order) error {
	return errors.New("disk full")
}

// raceOrders misses the first idempotency lookup, as if a concurrent request
// with the same key were still in flight when this one checked.
type raceOrders struct {
	*store.Memory
	mu     sync.Mutex
	missed bool
}

func (r *raceOrders) FindOrderByIdempotencyKey(ctx context.Context, userID, key string) (*models.Order, error) {
	r.mu.Lock()
	first := !r.missed
	r.missed = true
	r.mu.Unlock()
	if first {
		return nil, store.ErrNotFound
	}
	return r.Memory.FindOrderByIdempotencyKey(ctx, userID, key)
}

type fixture struct {
	svc  *Service
	st   *store.Memory
	sink *recordingSink
}

func newFixture(t *testing.T, compensate bool) *fixture {
	t.Helper()
	st := store.NewMemory()
	sink := &recordingSink{}
	svc := NewService(st, st, st, sink, metrics.New(), logging.Discard(), Options{CompensateStock: compensate})
	return &fixture{svc: svc, st: st, sink: sink}
}

func (f *fixture) product(t *testing.T, name, price string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Description: name, Category: "jeans", Price: decimal.RequireFromString(price), Stock: stock}
	require.NoError(t, f.st.CreateProduct(context.Background(), p))
	return p
}

func (f *fixture) stock(t *testing.T, id string) int {
	t.Helper()
	p, err := f.st.FindProduct(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func address() *models.ShippingAddress {
	return &models.ShippingAddress{
		FullName:   "Ada Lovelace",
		Address:    "12 Analytical Row",
		City:       "London",
		PostalCode: "N1 9GU",
		Country:    "UK",
		Phone:      "+44 20 7946 0000",
	}
}

func money(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func input(userID string, claimed string, lines ...LineRequest) PlaceOrderInput {
	return PlaceOrderInput{
		UserID:          userID,
		Items:           lines,
		ShippingAddress: address(),
		PaymentMethod:   models.PaymentCashOnDelivery,
		ClaimedTotal:    money(claimed),
	}
}

func TestPlaceOrderScenarioA(t *testing.T) {
	f := newFixture(t, true)
	a := f.product(t, "A", "10.00", 5)

	res, err := f.svc.PlaceOrder(context.Background(), input("u1", "30", LineRequest{ProductID: a.ID, Quantity: 3}))
	require.NoError(t, err)

	assert.False(t, res.Replayed)
	assert.Equal(t, 2, f.stock(t, a.ID))
	assert.Equal(t, "30.00", res.Order.TotalAmount.StringFixed(2))
	assert.Equal(t, models.OrderStatusPending, res.Order.OrderStatus)
	assert.Nil(t, res.Order.DeliveredAt)
	require.Len(t, res.Order.Items, 1)
	assert.Equal(t, "A", res.Order.Items[0].Name)
	assert.Equal(t, models.PlaceholderImage, res.Order.Items[0].Image)
	assert.Equal(t, []string{events.OrderPlaced}, f.sink.types())

	stored, err := f.st.FindOrder(context.Background(), res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", stored.UserID)
}

func TestPlaceOrderInsufficientStock(t *testing.T) {
	f := newFixture(t, true)
	a := f.product(t, "A", "10.00", 2)

	_, err := f.svc.PlaceOrder(context.Background(), input("u1", "30", LineRequest{ProductID: a.ID, Quantity: 3}))

	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindInsufficientStock))
	assert.Equal(t, "Insufficient stock for A. Available: 2", apperr.MessageOf(err))
	assert.Equal(t, 2, f.stock(t, a.ID))
	assert.Empty(t, f.sink.types())
}

func TestPlaceOrderUsesServerTotal(t *testing.T) {
	f := newFixture(t, true)
	a := f.product(t, "A", "19.99", 10)
	b := f.product(t, "B", "5.01", 10)

	res, err := f.svc.PlaceOrder(context.Background(), input("u1", "0.01",
		LineRequest{ProductID: a.ID, Quantity: 2},
		LineRequest{ProductID: b.ID, Quantity: 1},
	))
	require.NoError(t, err)

	assert.Equal(t, "44.99", res.Order.TotalAmount.StringFixed(2))
	assert.Equal(t, 8, f.stock(t, a.ID))
	assert.Equal(t, 9, f.stock(t, b.ID))
}

func TestPlaceOrderUnknownProduct(t *testing.T) {
	for _, tc := range []struct {
		name       string
		compensate bool
		wantFirst  int
	}{
		{name: "compensation restores earlier lines", compensate: true, wantFirst: 5},
		{name: "legacy keeps earlier lines decremented", compensate: false, wantFirst: 4},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, tc.compensate)
			first := f.product(t, "First", "1.00", 5)
			last := f.product(t, "Last", "1.00", 5)

			_, err := f.svc.PlaceOrder(context.Background(), input("u1", "3",
				LineRequest{ProductID: first.ID, Quantity: 1},
				LineRequest{ProductID: "ghost", Quantity: 1},
				LineRequest{ProductID: last.ID, Quantity: 1},
			))

			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.KindNotFound))
			assert.Equal(t, "Product not found for ID: ghost", apperr.MessageOf(err))
			assert.Equal(t, tc.wantFirst, f.stock(t, first.ID))
			assert.Equal(t, 5, f.stock(t, last.ID), "lines after the failure are never touched")

			orders, err := f.st.ListOrders(context.Background(), models.OrderFilter{})
			require.NoError(t, err)
			assert.Empty(t, orders)
		})
	}
}

func TestPlaceOrderInsufficientStockRestoresEarlierLines(t *testing.T) {
	f := newFixture(t, true)
	a := f.product(t, "A", "1.00", 5)
	b := f.product(t, "B", "1.00", 1)

	_, err := f.svc.PlaceOrder(context.Background(), input("u1", "4",
		LineRequest{ProductID: a.ID, Quantity: 2},
		LineRequest{ProductID: b.ID, Quantity: 2},
	))

	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindInsufficientStock))
	assert.Equal(t, "Insufficient stock for B. Available: 1", apperr.MessageOf(err))
	assert.Equal(t, 5, f.stock(t, a.ID))
	assert.Equal(t, 1, f.stock(t, b.ID))
}

func TestPlaceOrderDuplicateKeyRaceReleasesStock(t *testing.T) {
	for _, compensate := range []bool{true, false} {
		t.Run(fmt.Sprintf("compensate=%v", compensate), func(t *testing.T) {
			st := store.NewMemory()
			p := &models.Product{Name: "A", Price: decimal.RequireFromString("1.00"), Stock: 5}
			require.NoError(t, st.CreateProduct(context.Background(), p))

			in := input("u1", "1", LineRequest{ProductID: p.ID, Quantity: 1})
			in.IdempotencyKey = "k"

			first := NewService(st, st, st, nil, nil, logging.Discard(), Options{CompensateStock: compensate})
			placed, err := first.PlaceOrder(context.Background(), in)
			require.NoError(t, err)

			racing := NewService(st, &raceOrders{Memory: st}, st, nil, nil, logging.Discard(), Options{CompensateStock: compensate})
			res, err := racing.PlaceOrder(context.Background(), in)
			require.NoError(t, err)
			assert.True(t, res.Replayed)
			assert.Equal(t, placed.Order.ID, res.Order.ID)

			got, err := st.FindProduct(context.Background(), p.ID)
			require.NoError(t, err)
			assert.Equal(t, 4, got.Stock, "only the stored order keeps its reservation")
		})
	}
}

func TestListOrdersAttachesCustomer(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	u := &models.User{Name: "Ada", Email: "ada@example.com", Role: models.RoleCustomer}
	require.NoError(t, f.st.CreateUser(ctx, u))

	mine := placeOne(t, f, u.ID)
	placeOne(t, f, "gone")

	all, err := f.svc.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, o := range all {
		if o.ID == mine.ID {
			require.NotNil(t, o.Customer)
			assert.Equal(t, models.OrderCustomer{ID: u.ID, Name: "Ada", Email: "ada@example.com"}, *o.Customer)
		} else {
			assert.Nil(t, o.Customer, "deleted users leave the customer empty")
		}
	}

	got, err := f.svc.GetOrder(ctx, mine.ID, u)
	require.NoError(t, err)
	require.NotNil(t, got.Customer)
	assert.Equal(t, "Ada", got.Customer.Name)
}

func TestPlaceOrderCompensatesWhenPersistFails(t *testing.T) {
	st := store.NewMemory()
	svc := NewService(st, failingOrders{st}, st, nil, nil, logging.Discard(), Options{CompensateStock: true})

	p := &models.Product{Name: "A", Price: decimal.RequireFromString("2.50"), Stock: 4}
	require.NoError(t, st.CreateProduct(context.Background(), p))

	_, err := svc.PlaceOrder(context.Background(), input("u1", "5", LineRequest{ProductID: p.ID, Quantity: 2}))
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))

	got, err := st.FindProduct(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Stock)
}

func TestPlaceOrderValidation(t *testing.T) {
	f := newFixture(t, true)
	a := f.product(t, "A", "1.00", 5)
	line := LineRequest{ProductID: a.ID, Quantity: 1}

	blankCity := address()
	blankCity.City = "   "

	cases := map[string]PlaceOrderInput{
		"no items":            input("u1", "1"),
		"zero quantity":       input("u1", "1", LineRequest{ProductID: a.ID, Quantity: 0}),
		"missing product id":  input("u1", "1", LineRequest{Quantity: 1}),
		"no address":          {UserID: "u1", Items: []LineRequest{line}, PaymentMethod: models.PaymentCashOnDelivery, ClaimedTotal: money("1")},
		"blank address field": {UserID: "u1", Items: []LineRequest{line}, ShippingAddress: blankCity, PaymentMethod: models.PaymentCashOnDelivery, ClaimedTotal: money("1")},
		"no payment method":   {UserID: "u1", Items: []LineRequest{line}, ShippingAddress: address(), ClaimedTotal: money("1")},
		"card payment":        {UserID: "u1", Items: []LineRequest{line}, ShippingAddress: address(), PaymentMethod: "Card", ClaimedTotal: money("1")},
		"no claimed total":    {UserID: "u1", Items: []LineRequest{line}, ShippingAddress: address(), PaymentMethod: models.PaymentCashOnDelivery},
		"negative total":      input("u1", "-1", line),
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.PlaceOrder(context.Background(), in)
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.KindValidation), err.Error())
		})
	}

	assert.Equal(t, 5, f.stock(t, a.ID))
}

func TestPlaceOrderReplay(t *testing.T) {
	t.Run("without a key every call is a new order", func(t *testing.T) {
		f := newFixture(t, true)
		a := f.product(t, "A", "10.00", 5)
		in := input("u1", "20", LineRequest{ProductID: a.ID, Quantity: 2})

		first, err := f.svc.PlaceOrder(context.Background(), in)
		require.NoError(t, err)
		second, err := f.svc.PlaceOrder(context.Background(), in)
		require.NoError(t, err)

		assert.NotEqual(t, first.Order.ID, second.Order.ID)
		assert.Equal(t, 1, f.stock(t, a.ID))
	})

	t.Run("the same key returns the first order", func(t *testing.T) {
		f := newFixture(t, true)
		a := f.product(t, "A", "10.00", 5)
		in := input("u1", "20", LineRequest{ProductID: a.ID, Quantity: 2})
		in.IdempotencyKey = "checkout-1"

		first, err := f.svc.PlaceOrder(context.Background(), in)
		require.NoError(t, err)
		second, err := f.svc.PlaceOrder(context.Background(), in)
		require.NoError(t, err)

		assert.True(t, second.Replayed)
		assert.Equal(t, first.Order.ID, second.Order.ID)
		assert.Equal(t, 3, f.stock(t, a.ID))
		assert.Equal(t, []string{events.OrderPlaced}, f.sink.types())
	})

	t.Run("keys are scoped per user", func(t *testing.T) {
		f := newFixture(t, true)
		a := f.product(t, "A", "10.00", 5)
		in := input("u1", "10", LineRequest{ProductID: a.ID, Quantity: 1})
		in.IdempotencyKey = "same"

		_, err := f.svc.PlaceOrder(context.Background(), in)
		require.NoError(t, err)
		in.UserID = "u2"
		other, err := f.svc.PlaceOrder(context.Background(), in)
		require.NoError(t, err)

		assert.False(t, other.Replayed)
		assert.Equal(t, 3, f.stock(t, a.ID))
	})
}

func TestPlaceOrderConcurrentNeverOversells(t *testing.T) {
	f := newFixture(t, true)
	a := f.product(t, "A", "1.00", 10)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.PlaceOrder(context.Background(), input("u1", "1", LineRequest{ProductID: a.ID, Quantity: 1}))
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	assert.Equal(t, 0, f.stock(t, a.ID))
}

func placeOne(t *testing.T, f *fixture, userID string) *models.Order {
	t.Helper()
	a := f.product(t, "A", "10.00", 5)
	res, err := f.svc.PlaceOrder(context.Background(), input(userID, "10", LineRequest{ProductID: a.ID, Quantity: 1}))
	require.NoError(t, err)
	return res.Order
}

func TestUpdateOrderStatusDeliveredAt(t *testing.T) {
	f := newFixture(t, true)
	order := placeOne(t, f, "u1")
	ctx := context.Background()

	deliveredAt := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return deliveredAt }

	_, err := f.svc.UpdateOrderStatus(ctx, order.ID, "Shipped")
	require.NoError(t, err)

	got, err := f.svc.UpdateOrderStatus(ctx, order.ID, "Delivered")
	require.NoError(t, err)
	require.NotNil(t, got.DeliveredAt)
	assert.Equal(t, deliveredAt, *got.DeliveredAt)
	assert.Equal(t, []string{events.OrderPlaced, events.OrderDelivered}, f.sink.types())

	stored, err := f.st.FindOrder(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.DeliveredAt)

	got, err = f.svc.UpdateOrderStatus(ctx, order.ID, "Cancelled")
	require.NoError(t, err)
	assert.Nil(t, got.DeliveredAt)

	stored, err = f.st.FindOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.DeliveredAt)
	assert.Equal(t, models.OrderStatusCancelled, stored.OrderStatus)
}

func TestUpdateOrderStatusErrors(t *testing.T) {
	f := newFixture(t, true)
	order := placeOne(t, f, "u1")
	ctx := context.Background()

	_, err := f.svc.UpdateOrderStatus(ctx, order.ID, "Lost")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Equal(t, "Invalid order status", apperr.MessageOf(err))

	_, err = f.svc.UpdateOrderStatus(ctx, "missing", "Shipped")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = f.svc.UpdateOrderStatus(ctx, order.ID, "Delivered")
	assert.True(t, apperr.Is(err, apperr.KindValidation), "Pending cannot jump to Delivered")

	for _, wrongCase := range []string{"delivered", "PENDING", "processing"} {
		_, err = f.svc.UpdateOrderStatus(ctx, order.ID, wrongCase)
		assert.True(t, apperr.Is(err, apperr.KindValidation), wrongCase)
		assert.Equal(t, "Invalid order status", apperr.MessageOf(err), wrongCase)
	}
	unchanged, err := f.st.FindOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, unchanged.OrderStatus)

	_, err = f.svc.UpdateOrderStatus(ctx, order.ID, " Cancelled ")
	require.NoError(t, err)
	_, err = f.svc.UpdateOrderStatus(ctx, order.ID, "Pending")
	assert.True(t, apperr.Is(err, apperr.KindValidation), "Cancelled is terminal")

	same, err := f.svc.UpdateOrderStatus(ctx, order.ID, "Cancelled")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, same.OrderStatus)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(models.OrderStatusPending, models.OrderStatusProcessing))
	assert.True(t, CanTransition(models.OrderStatusShipped, models.OrderStatusDelivered))
	assert.True(t, CanTransition(models.OrderStatusDelivered, models.OrderStatusShipped))
	assert.True(t, CanTransition(models.OrderStatusCancelled, models.OrderStatusCancelled))
	assert.False(t, CanTransition(models.OrderStatusPending, models.OrderStatusDelivered))
	assert.False(t, CanTransition(models.OrderStatusCancelled, models.OrderStatusPending))
	assert.False(t, CanTransition(models.OrderStatusDelivered, models.OrderStatusPending))
}

func TestGetOrderAccess(t *testing.T) {
	f := newFixture(t, true)
	order := placeOne(t, f, "owner")
	ctx := context.Background()

	got, err := f.svc.GetOrder(ctx, order.ID, &models.User{ID: "owner", Role: models.RoleCustomer})
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	_, err = f.svc.GetOrder(ctx, order.ID, &models.User{ID: "admin", Role: models.RoleAdmin})
	require.NoError(t, err)

	_, err = f.svc.GetOrder(ctx, order.ID, &models.User{ID: "stranger", Role: models.RoleCustomer})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = f.svc.GetOrder(ctx, "missing", &models.User{ID: "owner"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestListOrdersNewestFirst(t *testing.T) {
	f := newFixture(t, true)
	first := placeOne(t, f, "u1")
	placeOne(t, f, "u2")
	last := placeOne(t, f, "u1")

	all, err := f.svc.ListOrders(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := f.svc.ListUserOrders(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, last.ID, mine[0].ID)
	assert.Equal(t, first.ID, mine[1].ID)
}

package store

import (
	"context"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/01moynul/storefront-golang/internal/models"
)

var _ Store = (*Memory)(nil)

// Memory is a process-local backend. Every read returns a copy.
type Memory struct {
	mu sync.RWMutex

	products     map[string]*models.Product
	productOrder []string
	orders       map[string]*models.Order
	orderOrder   []string
	users        map[string]*models.User

	now func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		products: make(map[string]*models.Product),
		orders:   make(map[string]*models.Order),
		users:    make(map[string]*models.User),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (m *Memory) Close(context.Context) error { return nil }

//
// --- Products ---
//

func (m *Memory) CreateProduct(_ context.Context, product *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	product.ID = uuid.NewString()
	product.CreatedAt = now
	product.UpdatedAt = now

	stored := *product
	m.products[product.ID] = &stored
	m.productOrder = append(m.productOrder, product.ID)
	return nil
}

func (m *Memory) FindProduct(_ context.Context, id string) (*models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (m *Memory) FindProducts(_ context.Context, ids []string) ([]models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	products := []models.Product{}
	for _, id := range m.productOrder {
		if slices.Contains(ids, id) {
			products = append(products, *m.products[id])
		}
	}
	return products, nil
}

func (m *Memory) ListProducts(_ context.Context, filter models.ProductFilter) ([]models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	products := []models.Product{}
	for _, id := range m.productOrder {
		p := m.products[id]
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.FeaturedOnly && !p.IsFeatured {
			continue
		}
		products = append(products, *p)
	}
	return products, nil
}

func (m *Memory) SampleProducts(_ context.Context, size int) ([]models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	products := []models.Product{}
	for _, i := range rand.Perm(len(m.productOrder)) {
		if len(products) == size {
			break
		}
		products = append(products, *m.products[m.productOrder[i]])
	}
	return products, nil
}

func (m *Memory) UpdateProduct(_ context.Context, product *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.products[product.ID]
	if !ok {
		return ErrNotFound
	}
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = m.now()

	stored := *product
	m.products[product.ID] = &stored
	return nil
}

func (m *Memory) DeleteProduct(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[id]; !ok {
		return ErrNotFound
	}
	delete(m.products, id)
	m.productOrder = slices.DeleteFunc(m.productOrder, func(s string) bool { return s == id })
	return nil
}

func (m *Memory) CountProducts(context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.products)), nil
}

func (m *Memory) DecrementStock(_ context.Context, id string, qty int) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	if p.Stock < qty {
		clone := *p
		return &clone, ErrInsufficientStock
	}
	p.Stock -= qty
	p.UpdatedAt = m.now()

	clone := *p
	return &clone, nil
}

func (m *Memory) IncrementStock(_ context.Context, id string, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return ErrNotFound
	}
	p.Stock += qty
	p.UpdatedAt = m.now()
	return nil
}

//
// --- Orders ---
//

func cloneOrder(o *models.Order) *models.Order {
	clone := *o
	clone.Items = slices.Clone(o.Items)
	if o.DeliveredAt != nil {
		at := *o.DeliveredAt
		clone.DeliveredAt = &at
	}
	return &clone
}

func (m *Memory) CreateOrder(_ context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if order.IdempotencyKey != "" {
		for _, existing := range m.orders {
			if existing.UserID == order.UserID && existing.IdempotencyKey == order.IdempotencyKey {
				return ErrDuplicate
			}
		}
	}

	now := m.now()
	order.ID = uuid.NewString()
	order.CreatedAt = now
	order.UpdatedAt = now

	m.orders[order.ID] = cloneOrder(order)
	m.orderOrder = append(m.orderOrder, order.ID)
	return nil
}

func (m *Memory) FindOrder(_ context.Context, id string) (*models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneOrder(o), nil
}

func (m *Memory) FindOrderByIdempotencyKey(_ context.Context, userID, key string) (*models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, o := range m.orders {
		if o.UserID == userID && o.IdempotencyKey == key {
			return cloneOrder(o), nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) ListOrders(_ context.Context, filter models.OrderFilter) ([]models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	orders := []models.Order{}
	for i := len(m.orderOrder) - 1; i >= 0; i-- {
		o := m.orders[m.orderOrder[i]]
		if filter.Matches(o) {
			orders = append(orders, *cloneOrder(o))
		}
	}
	return orders, nil
}

func (m *Memory) UpdateOrderStatus(_ context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.orders[order.ID]
	if !ok {
		return ErrNotFound
	}
	existing.OrderStatus = order.OrderStatus
	existing.DeliveredAt = nil
	if order.DeliveredAt != nil {
		at := *order.DeliveredAt
		existing.DeliveredAt = &at
	}
	order.UpdatedAt = m.now()
	existing.UpdatedAt = order.UpdatedAt
	return nil
}

//
// --- Users ---
//

func cloneUser(u *models.User) *models.User {
	clone := *u
	clone.CartItems = append([]models.CartItem{}, u.CartItems...)
	return &clone
}

func (m *Memory) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.Email == user.Email {
			return ErrDuplicate
		}
	}

	now := m.now()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.CartItems == nil {
		user.CartItems = []models.CartItem{}
	}

	m.users[user.ID] = cloneUser(user)
	return nil
}

func (m *Memory) FindUser(_ context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(u), nil
}

func (m *Memory) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) SaveCart(_ context.Context, userID string, items []models.CartItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.CartItems = slices.Clone(items)
	u.UpdatedAt = m.now()
	return nil
}

func (m *Memory) CountUsers(context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.users)), nil
}

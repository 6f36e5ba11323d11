package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/01moynul/storefront-golang/internal/apperr"
	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/01moynul/storefront-golang/internal/store"
)

func seed(t *testing.T) store.Store {
	t.Helper()
	st := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, st.CreateUser(ctx, &models.User{Name: "a", Email: "a@x.io"}))
	require.NoError(t, st.CreateUser(ctx, &models.User{Name: "b", Email: "b@x.io"}))
	require.NoError(t, st.CreateProduct(ctx, &models.Product{Name: "p", Price: decimal.NewFromInt(1)}))

	for _, o := range []struct {
		total  string
		status models.OrderStatus
	}{
		{"10.005", models.OrderStatusPending},
		{"5.00", models.OrderStatusDelivered},
		{"99.00", models.OrderStatusCancelled},
	} {
		order := &models.Order{UserID: "u", TotalAmount: decimal.RequireFromString(o.total), OrderStatus: o.status}
		require.NoError(t, st.CreateOrder(ctx, order))
	}
	return st
}

func TestSummary(t *testing.T) {
	sum, err := NewService(seed(t)).Summary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(2), sum.TotalUsers)
	assert.Equal(t, int64(1), sum.TotalProducts)
	assert.Equal(t, 3, sum.TotalOrders)
	assert.Equal(t, "114.01", sum.TotalRevenue.StringFixed(2))
}

func TestDailySalesZeroFillsAndSkipsCancelled(t *testing.T) {
	today := time.Now().UTC()
	start := today.AddDate(0, 0, -2).Format(dateLayout)
	end := today.Format(dateLayout)

	days, err := NewService(seed(t)).DailySales(context.Background(), start, end)
	require.NoError(t, err)
	require.Len(t, days, 3)

	assert.Equal(t, start, days[0].Date)
	assert.Equal(t, 0, days[0].TotalOrders)
	assert.True(t, days[0].Revenue.IsZero())

	last := days[2]
	assert.Equal(t, end, last.Date)
	assert.Equal(t, 2, last.TotalOrders)
	assert.Equal(t, "15.01", last.Revenue.StringFixed(2))
}

func TestDailySalesValidation(t *testing.T) {
	s := NewService(store.NewMemory())
	ctx := context.Background()

	for name, r := range map[string][2]string{
		"missing end":   {"2024-01-01", ""},
		"bad format":    {"01/01/2024", "2024-01-02"},
		"reversed":      {"2024-02-01", "2024-01-01"},
		"too many days": {"2020-01-01", "2024-01-01"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := s.DailySales(ctx, r[0], r[1])
			assert.True(t, apperr.Is(err, apperr.KindValidation))
		})
	}

	days, err := s.DailySales(ctx, "2024-02-28", "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-02-28", "2024-02-29", "2024-03-01"}, []string{days[0].Date, days[1].Date, days[2].Date})
}

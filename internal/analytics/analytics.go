// Package analytics computes the admin dashboard figures.
package analytics

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/01moynul/storefront-golang/internal/apperr"
	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/01moynul/storefront-golang/internal/store"
)

const (
	dateLayout = "2006-01-02"
	maxDays    = 366
)

type Service struct {
	st store.Store
}

func NewService(st store.Store) *Service {
	return &Service{st: st}
}

type Summary struct {
	TotalUsers    int64           `json:"totalUsers"`
	TotalProducts int64           `json:"totalProducts"`
	TotalOrders   int             `json:"totalOrders"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
}

type DailySales struct {
	Date        string          `json:"date"`
	TotalOrders int             `json:"totalOrders"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// Summary gathers the counters concurrently.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	var sum Summary
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.st.CountUsers(ctx)
		sum.TotalUsers = n
		return err
	})
	g.Go(func() error {
		n, err := s.st.CountProducts(ctx)
		sum.TotalProducts = n
		return err
	})
	g.Go(func() error {
		orders, err := s.st.ListOrders(ctx, models.OrderFilter{})
		if err != nil {
			return err
		}
		revenue := decimal.Zero
		for _, o := range orders {
			revenue = revenue.Add(o.TotalAmount)
		}
		sum.TotalOrders = len(orders)
		sum.TotalRevenue = models.RoundMoney(revenue)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, apperr.Internal(err, "Internal server error")
	}
	return &sum, nil
}

// DailySales returns one entry per day in [startDate, endDate] (UTC, inclusive). Cancelled orders
// are left out and days without sales are reported as zero.
func (s *Service) DailySales(ctx context.Context, startDate, endDate string) ([]DailySales, error) {
	if startDate == "" || endDate == "" {
		return nil, apperr.Validation("Please provide both startDate and endDate query parameters (YYYY-MM-DD).")
	}
	start, errStart := time.ParseInLocation(dateLayout, startDate, time.UTC)
	end, errEnd := time.ParseInLocation(dateLayout, endDate, time.UTC)
	if errStart != nil || errEnd != nil || start.After(end) {
		return nil, apperr.Validation("Invalid date range. Ensure dates are valid and startDate is before or equal to endDate.")
	}
	if end.Sub(start) >= maxDays*24*time.Hour {
		return nil, apperr.Validation("Date range cannot exceed %d days.", maxDays)
	}

	orders, err := s.st.ListOrders(ctx, models.OrderFilter{
		CreatedFrom:   start,
		CreatedTo:     end.Add(24*time.Hour - time.Nanosecond),
		ExcludeStatus: models.OrderStatusCancelled,
	})
	if err != nil {
		return nil, apperr.Internal(err, "Internal server error")
	}

	byDay := make(map[string]*DailySales)
	for _, o := range orders {
		day := o.CreatedAt.UTC().Format(dateLayout)
		entry, ok := byDay[day]
		if !ok {
			entry = &DailySales{Date: day, Revenue: decimal.Zero}
			byDay[day] = entry
		}
		entry.TotalOrders++
		entry.Revenue = entry.Revenue.Add(o.TotalAmount)
	}

	days := make([]DailySales, 0, int(end.Sub(start).Hours()/24)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := d.Format(dateLayout)
		entry := DailySales{Date: key, Revenue: decimal.Zero}
		if found, ok := byDay[key]; ok {
			entry = *found
		}
		entry.Revenue = models.RoundMoney(entry.Revenue)
		days = append(days, entry)
	}
	return days, nil
}

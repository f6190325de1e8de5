package dashboard

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/internal/orders"
)

// Stats is the admin dashboard summary.
type Stats struct {
	TotalOrders   int64             `json:"total_orders"`
	TotalRevenue  decimal.Decimal   `json:"total_revenue"`
	LowStockCount int64             `json:"low_stock_count"`
	RecentOrders  []orders.OrderDTO `json:"recent_orders"`
}

type orderReader interface {
	Stats(ctx context.Context) (orders.Stats, error)
	Recent(ctx context.Context) ([]orders.OrderDTO, error)
}

type stockCounter interface {
	LowStockCount(ctx context.Context) (int64, error)
}

// Service builds the dashboard summary.
type Service interface {
	Stats(ctx context.Context) (*Stats, error)
}

type service struct {
	orders orderReader
	stock  stockCounter
}

func NewService(orders orderReader, stock stockCounter) (Service, error) {
	if orders == nil {
		return nil, fmt.Errorf("order reader required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock counter required")
	}
	return &service{orders: orders, stock: stock}, nil
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	totals, err := s.orders.Stats(ctx)
	if err != nil {
		return nil, err
	}
	low, err := s.stock.LowStockCount(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.orders.Recent(ctx)
	if err != nil {
		return nil, err
	}
	if recent == nil {
		recent = []orders.OrderDTO{}
	}
	return &Stats{
		TotalOrders:   totals.TotalOrders,
		TotalRevenue:  totals.TotalRevenue,
		LowStockCount: low,
		RecentOrders:  recent,
	}, nil
}

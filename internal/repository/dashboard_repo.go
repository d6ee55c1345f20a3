package repository

import (
	"context"

	"shop-api/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DashboardRepository interface {
	GetDashboardStats(ctx context.Context, lowStockThreshold int) (*DashboardStats, error)
}

// StatusCount is one bucket of the order status breakdown
type StatusCount struct {
	Status model.OrderStatus `json:"status"`
	Count  int64             `json:"count"`
}

// DashboardStats is the admin overview
type DashboardStats struct {
	TotalProducts  int64           `json:"total_products"`
	LowStockCount  int64           `json:"low_stock_count"`
	TotalOrders    int64           `json:"total_orders"`
	OrdersByStatus []StatusCount   `json:"orders_by_status"`
	Revenue        decimal.Decimal `json:"revenue"`
}

type dashboardRepo struct {
	db *gorm.DB
}

func NewDashboardRepo(db *gorm.DB) DashboardRepository {
	return &dashboardRepo{db}
}

// revenueStatuses are the states in which money has been collected and not
// returned.
var revenueStatuses = []model.OrderStatus{model.OrderPaid, model.OrderShipped, model.OrderDelivered}

func (r *dashboardRepo) GetDashboardStats(ctx context.Context, lowStockThreshold int) (*DashboardStats, error) {
	var stats DashboardStats
	db := r.db.WithContext(ctx)

	if err := db.Model(&model.Product{}).Scopes(ActiveOnly).Count(&stats.TotalProducts).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&model.Product{}).Scopes(ActiveOnly).
		Where("stock < ?", lowStockThreshold).
		Count(&stats.LowStockCount).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&model.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Order("status").
		Scan(&stats.OrdersByStatus).Error; err != nil {
		return nil, err
	}
	for _, sc := range stats.OrdersByStatus {
		stats.TotalOrders += sc.Count
	}

	var revenue struct {
		Revenue decimal.Decimal
	}
	if err := db.Model(&model.Order{}).
		Where("status IN ?", revenueStatuses).
		Select("COALESCE(SUM(grand_total), 0) AS revenue").
		Scan(&revenue).Error; err != nil {
		return nil, err
	}
	stats.Revenue = revenue.Revenue

	return &stats, nil
}

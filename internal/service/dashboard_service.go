package service

import (
	"context"

	"shop-api/internal/repository"
)

// lowStockThreshold marks active products worth restocking.
const lowStockThreshold = 10

type DashboardService interface {
	GetDashboardStats(ctx context.Context) (*repository.DashboardStats, error)
}

type dashboardService struct {
	dashRepo repository.DashboardRepository
}

func NewDashboardService(dashRepo repository.DashboardRepository) DashboardService {
	return &dashboardService{dashRepo: dashRepo}
}

func (s *dashboardService) GetDashboardStats(ctx context.Context) (*repository.DashboardStats, error) {
	return s.dashRepo.GetDashboardStats(ctx, lowStockThreshold)
}

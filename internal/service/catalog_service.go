package service

import (
	"context"
	"errors"
	"fmt"

	"shop-api/internal/model"
	"shop-api/internal/repository"
	"shop-api/pkg/database"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CatalogService interface {
	ListProducts(ctx context.Context, featuredOnly bool) ([]model.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)
	CreateProduct(ctx context.Context, req CreateProductRequest) (*model.Product, error)
}

type CreateProductRequest struct {
	CategoryID   *uuid.UUID       `json:"categoryId"`
	SKU          string           `json:"sku" validate:"notblank,max=50"`
	Name         string           `json:"name" validate:"notblank,max=255"`
	Description  string           `json:"description"`
	Price        decimal.Decimal  `json:"price"`
	SalePrice    *decimal.Decimal `json:"salePrice"`
	Stock        int              `json:"stock" validate:"min=0"`
	Status       string           `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE"`
	IsFeatured   bool             `json:"isFeatured"`
	ThumbnailURL string           `json:"thumbnailUrl" validate:"omitempty,url,max=500"`
}

type catalogService struct {
	productRepo repository.ProductRepository
	events      Publisher
}

func NewCatalogService(pRepo repository.ProductRepository, events Publisher) CatalogService {
	return &catalogService{productRepo: pRepo, events: publisherOrNoop(events)}
}

func (s *catalogService) ListProducts(ctx context.Context, featuredOnly bool) ([]model.Product, error) {
	return s.productRepo.FindActive(ctx, repository.ProductFilter{FeaturedOnly: featuredOnly})
}

// GetProduct returns the product in any status; listings filter inactive ones.
func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (s *catalogService) CreateProduct(ctx context.Context, req CreateProductRequest) (*model.Product, error) {
	if err := validate(&req); err != nil {
		return nil, err
	}
	if req.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}
	if req.SalePrice != nil && (req.SalePrice.IsNegative() || req.SalePrice.GreaterThan(req.Price)) {
		return nil, fmt.Errorf("%w: sale price must be between 0 and price", ErrInvalidInput)
	}

	if existing, err := s.productRepo.FindBySKU(ctx, req.SKU); err == nil && existing != nil {
		return nil, ErrSKUExists
	}

	product := &model.Product{
		CategoryID:   req.CategoryID,
		SKU:          req.SKU,
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		Stock:        req.Stock,
		Status:       model.ProductActive,
		IsFeatured:   req.IsFeatured,
		ThumbnailURL: req.ThumbnailURL,
	}
	if req.Status != "" {
		product.Status = model.ProductStatus(req.Status)
	}
	if req.SalePrice != nil {
		product.SalePrice = decimal.NewNullDecimal(*req.SalePrice)
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrSKUExists
		}
		return nil, err
	}

	s.events.Publish(map[string]interface{}{
		"type":   "stock_update",
		"action": "product_created",
		"product": map[string]interface{}{
			"id":    product.ID,
			"sku":   product.SKU,
			"name":  product.Name,
			"stock": product.Stock,
			"price": product.Price,
		},
	})

	return product, nil
}

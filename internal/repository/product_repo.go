package repository

import (
	"context"

	"shop-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductFilter narrows the public catalog listing. Conditions are ANDed.
type ProductFilter struct {
	FeaturedOnly bool
	Limit        int
}

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	FindActive(ctx context.Context, filter ProductFilter) ([]model.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindBySKU(ctx context.Context, sku string) (*model.Product, error)
	LockByIDs(tx *gorm.DB, ids []uuid.UUID) ([]model.Product, error)
	DecrementStock(tx *gorm.DB, id uuid.UUID, quantity int) error
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func ActiveOnly(db *gorm.DB) *gorm.DB {
	return db.Where("products.status = ?", model.ProductActive)
}

func FeaturedOnly(db *gorm.DB) *gorm.DB {
	return db.Where("products.is_featured = ?", true)
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepo) FindActive(ctx context.Context, filter ProductFilter) ([]model.Product, error) {
	scopes := []func(*gorm.DB) *gorm.DB{ActiveOnly}
	if filter.FeaturedOnly {
		scopes = append(scopes, FeaturedOnly)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 60
	}

	var products []model.Product
	err := r.db.WithContext(ctx).
		Scopes(scopes...).
		Preload("Category").
		Order("products.is_featured DESC").
		Order("products.created_at DESC").
		Limit(limit).
		Find(&products).Error
	return products, err
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).Preload("Category").First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) FindBySKU(ctx context.Context, sku string) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).First(&product, "sku = ?", sku).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// LockByIDs is the exclusive read used by checkout. Rows are locked in id
// order so overlapping checkouts always acquire locks in the same sequence.
func (r *productRepo) LockByIDs(tx *gorm.DB, ids []uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id").
		Find(&products).Error
	return products, err
}

// DecrementStock must run on a row already locked by LockByIDs. The stock
// guard is kept as a last line against a negative balance.
func (r *productRepo) DecrementStock(tx *gorm.DB, id uuid.UUID, quantity int) error {
	result := tx.Model(&model.Product{}).
		Where("id = ? AND stock >= ?", id, quantity).
		Update("stock", gorm.Expr("stock - ?", quantity))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStockGuard
	}
	return nil
}

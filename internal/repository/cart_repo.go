package repository

import (
	"context"

	"shop-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartRepository interface {
	FindByUser(ctx context.Context, userID uuid.UUID) (*model.Cart, error)
	CreateIfMissing(ctx context.Context, userID uuid.UUID) error
	LockByUser(tx *gorm.DB, userID uuid.UUID) (*model.Cart, error)
	LockByID(tx *gorm.DB, id uuid.UUID) (*model.Cart, error)
	FindItem(tx *gorm.DB, cartID, productID uuid.UUID) (*model.CartItem, error)
	FindItemWithProduct(tx *gorm.DB, cartID, itemID uuid.UUID) (*model.CartItem, error)
	SaveItem(tx *gorm.DB, item *model.CartItem) error
	DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) error
	ListItems(ctx context.Context, cartID uuid.UUID) ([]model.CartItem, error)
	ItemsForCheckout(tx *gorm.DB, cartID uuid.UUID) ([]model.CartItem, error)
	ClearItems(tx *gorm.DB, cartID uuid.UUID) error
}

type cartRepo struct {
	db *gorm.DB
}

func NewCartRepo(db *gorm.DB) CartRepository {
	return &cartRepo{db}
}

func (r *cartRepo) FindByUser(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	var cart model.Cart
	if err := r.db.WithContext(ctx).First(&cart, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// CreateIfMissing inserts a cart unless one exists. The unique index on
// user_id makes racing first requests converge on a single row.
func (r *cartRepo) CreateIfMissing(ctx context.Context, userID uuid.UUID) error {
	cart := model.Cart{UserID: userID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&cart).Error
}

func (r *cartRepo) LockByUser(tx *gorm.DB, userID uuid.UUID) (*model.Cart, error) {
	var cart model.Cart
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&cart, "user_id = ?", userID).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *cartRepo) LockByID(tx *gorm.DB, id uuid.UUID) (*model.Cart, error) {
	var cart model.Cart
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&cart, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *cartRepo) FindItem(tx *gorm.DB, cartID, productID uuid.UUID) (*model.CartItem, error) {
	var item model.CartItem
	err := tx.Where("cart_id = ? AND product_id = ?", cartID, productID).First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *cartRepo) FindItemWithProduct(tx *gorm.DB, cartID, itemID uuid.UUID) (*model.CartItem, error) {
	var item model.CartItem
	err := tx.Preload("Product").Where("id = ? AND cart_id = ?", itemID, cartID).First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *cartRepo) SaveItem(tx *gorm.DB, item *model.CartItem) error {
	if item.ID == uuid.Nil {
		return tx.Omit(clause.Associations).Create(item).Error
	}
	return tx.Model(&model.CartItem{}).Where("id = ?", item.ID).Update("quantity", item.Quantity).Error
}

// DeleteItem is scoped by cart so a caller can never delete another user's
// item. Deleting a missing item is not an error.
func (r *cartRepo) DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		Delete(&model.CartItem{}).Error
}

func (r *cartRepo) ListItems(ctx context.Context, cartID uuid.UUID) ([]model.CartItem, error) {
	var items []model.CartItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("cart_id = ?", cartID).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

func (r *cartRepo) ItemsForCheckout(tx *gorm.DB, cartID uuid.UUID) ([]model.CartItem, error) {
	var items []model.CartItem
	err := tx.Where("cart_id = ?", cartID).Order("created_at ASC").Find(&items).Error
	return items, err
}

func (r *cartRepo) ClearItems(tx *gorm.DB, cartID uuid.UUID) error {
	return tx.Where("cart_id = ?", cartID).Delete(&model.CartItem{}).Error
}

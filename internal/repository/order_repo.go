package repository

import (
	"context"
	"time"

	"shop-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository interface {
	Create(tx *gorm.DB, order *model.Order) error
	FindByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.Order, error)
	FindByUserAndNo(ctx context.Context, userID uuid.UUID, orderNo string) (*model.Order, error)
	FindAll(ctx context.Context, status string, limit int) ([]model.Order, error)
	FindByNo(ctx context.Context, orderNo string) (*model.Order, error)
	LockByNo(tx *gorm.DB, orderNo string) (*model.Order, error)
	UpdateStatus(tx *gorm.DB, id uuid.UUID, status model.OrderStatus) error
	UpdateShipping(tx *gorm.DB, id uuid.UUID, update ShippingUpdate) error
}

type ShippingUpdate struct {
	Courier    string
	TrackingNo string
	ShippedAt  time.Time
	Status     *model.OrderStatus
}

type orderRepo struct {
	db *gorm.DB
}

func NewOrderRepo(db *gorm.DB) OrderRepository {
	return &orderRepo{db}
}

func orderedItems(db *gorm.DB) *gorm.DB {
	return db.Order("order_items.created_at ASC")
}

// Create inserts the order and its items in one statement batch on tx.
func (r *orderRepo) Create(tx *gorm.DB, order *model.Order) error {
	return tx.Omit("User").Create(order).Error
}

func (r *orderRepo) FindByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

func (r *orderRepo) FindByUserAndNo(ctx context.Context, userID uuid.UUID, orderNo string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Items", orderedItems).
		Where("user_id = ? AND order_no = ?", userID, orderNo).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) FindAll(ctx context.Context, status string, limit int) ([]model.Order, error) {
	query := r.db.WithContext(ctx).Model(&model.Order{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var orders []model.Order
	err := query.Order("created_at DESC").Limit(limit).Find(&orders).Error
	return orders, err
}

func (r *orderRepo) FindByNo(ctx context.Context, orderNo string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Items", orderedItems).
		Where("order_no = ?", orderNo).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) LockByNo(tx *gorm.DB, orderNo string) (*model.Order, error) {
	var order model.Order
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("order_no = ?", orderNo).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) UpdateStatus(tx *gorm.DB, id uuid.UUID, status model.OrderStatus) error {
	return tx.Model(&model.Order{}).Where("id = ?", id).Update("status", status).Error
}

func (r *orderRepo) UpdateShipping(tx *gorm.DB, id uuid.UUID, update ShippingUpdate) error {
	values := map[string]interface{}{
		"courier":     update.Courier,
		"tracking_no": update.TrackingNo,
		"shipped_at":  update.ShippedAt,
	}
	if update.Status != nil {
		values["status"] = *update.Status
	}
	return tx.Model(&model.Order{}).Where("id = ?", id).Updates(values).Error
}

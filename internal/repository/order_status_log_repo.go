package repository

import (
	"context"

	"shop-api/internal/model"

	"gorm.io/gorm"
)

type OrderStatusLogRepository interface {
	Append(tx *gorm.DB, entry *model.OrderStatusLog) error
	FindByOrderNo(ctx context.Context, orderNo string) ([]model.OrderStatusLog, error)
}

type orderStatusLogRepo struct {
	db *gorm.DB
}

func NewOrderStatusLogRepo(db *gorm.DB) OrderStatusLogRepository {
	return &orderStatusLogRepo{db}
}

func (r *orderStatusLogRepo) Append(tx *gorm.DB, entry *model.OrderStatusLog) error {
	return tx.Create(entry).Error
}

func (r *orderStatusLogRepo) FindByOrderNo(ctx context.Context, orderNo string) ([]model.OrderStatusLog, error) {
	var logs []model.OrderStatusLog
	err := r.db.WithContext(ctx).
		Where("order_no = ?", orderNo).
		Order("created_at ASC").
		Find(&logs).Error
	return logs, err
}

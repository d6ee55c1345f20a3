package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderStatusLog is append-only: one row per status change, never updated.
type OrderStatusLog struct {
	ID          uuid.UUID   `gorm:"type:uuid;primary_key;" json:"id"`
	OrderID     uuid.UUID   `gorm:"type:uuid;not null;index" json:"order_id"`
	OrderNo     string      `gorm:"type:varchar(32);not null" json:"order_no"`
	FromStatus  OrderStatus `gorm:"type:varchar(20);not null" json:"from_status"`
	ToStatus    OrderStatus `gorm:"type:varchar(20);not null" json:"to_status"`
	ActorUserID *uuid.UUID  `gorm:"type:uuid" json:"actor_user_id"`
	ActorEmail  *string     `gorm:"type:varchar(255)" json:"actor_email"`
	ActorRole   *string     `gorm:"type:varchar(20)" json:"actor_role"`
	Note        *string     `gorm:"type:varchar(255)" json:"note"`
	IP          *string     `gorm:"type:varchar(64)" json:"ip"`
	UserAgent   *string     `gorm:"type:varchar(255)" json:"user_agent"`
	CreatedAt   time.Time   `json:"created_at"`
}

func (l *OrderStatusLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

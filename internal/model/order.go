package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderPaid      OrderStatus = "PAID"
	OrderShipped   OrderStatus = "SHIPPED"
	OrderDelivered OrderStatus = "DELIVERED"
	OrderCanceled  OrderStatus = "CANCELED"
	OrderRefunded  OrderStatus = "REFUNDED"
)

// orderTransitions is the fulfillment state machine. CANCELED and REFUNDED
// are terminal.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:   {OrderPaid, OrderCanceled},
	OrderPaid:      {OrderShipped, OrderCanceled, OrderRefunded},
	OrderShipped:   {OrderDelivered, OrderRefunded},
	OrderDelivered: {OrderRefunded},
	OrderCanceled:  nil,
	OrderRefunded:  nil,
}

// ParseOrderStatus returns the status named by s and false if s is not one
// of the six known values. Matching is exact.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	status := OrderStatus(s)
	_, ok := orderTransitions[status]
	return status, ok
}

// CanTransition reports whether the state machine allows from -> to.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Order struct {
	BaseModel
	OrderNo       string          `gorm:"type:varchar(32);uniqueIndex;not null" json:"order_no"`
	UserID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	User          *User           `json:"user,omitempty"`
	Status        OrderStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	ItemsTotal    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"items_total"`
	ShippingFee   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"shipping_fee"`
	GrandTotal    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"grand_total"`
	RecipientName string          `gorm:"type:varchar(100);not null" json:"recipient_name"`
	Phone         string          `gorm:"type:varchar(30);not null" json:"phone"`
	Zipcode       string          `gorm:"type:varchar(10);not null" json:"zipcode"`
	Address1      string          `gorm:"type:varchar(255);not null" json:"address1"`
	Address2      string          `gorm:"type:varchar(255)" json:"address2"`
	Memo          string          `gorm:"type:varchar(255)" json:"memo"`
	Courier       *string         `gorm:"type:varchar(50)" json:"courier"`
	TrackingNo    *string         `gorm:"type:varchar(50)" json:"tracking_no"`
	ShippedAt     *time.Time      `json:"shipped_at"`
	Items         []OrderItem     `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

// OrderItem is a snapshot taken at checkout; later product edits do not
// touch it.
type OrderItem struct {
	BaseModel
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null" json:"product_id"`
	ProductName string          `gorm:"type:varchar(255);not null" json:"product_name"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	LineTotal   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"line_total"`
}

package model

import "gorm.io/gorm"

// AutoMigrate creates or updates every table the API owns.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Category{},
		&Product{},
		&Cart{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&OrderStatusLog{},
	)
}

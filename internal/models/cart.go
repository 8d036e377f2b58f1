package models

import "time"

// Cart is one open line per (product, staff, outlet). Adding the same
// product again merges into the existing row; the unique index backs
// that invariant at the store level.
type Cart struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	ProductID uint `gorm:"not null;index:idx_cart_line,unique" json:"product_id"`
	StaffID   uint `gorm:"not null;index:idx_cart_line,unique" json:"staff_id"`
	OutletID  uint `gorm:"not null;index:idx_cart_line,unique" json:"outlet_id"`
	Quantity  int  `gorm:"not null" json:"quantity"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

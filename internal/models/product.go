package models

import "time"

type Category struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"size:100;not null" json:"name"`
	OutletID uint   `gorm:"index" json:"outlet_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Product prices are stored in the minor currency unit (rupiah), as
// integers. Checkout math never touches floating point.
type Product struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	Name       string `gorm:"size:150;not null" json:"name"`
	Price      int64  `gorm:"not null" json:"price"`
	CategoryID uint   `gorm:"index" json:"category_id"`
	Category   string `gorm:"size:100" json:"category"`
	OutletID   uint   `gorm:"index" json:"outlet_id"`
	Status     string `gorm:"size:20;default:active" json:"status"`
	Picture    string `gorm:"size:255" json:"picture"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

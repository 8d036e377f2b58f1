package models

import "time"

type OutletStatus string

const (
	OutletActive   OutletStatus = "active"
	OutletInactive OutletStatus = "inactive"
)

type Outlet struct {
	ID       uint         `gorm:"primaryKey" json:"id"`
	Name     string       `gorm:"size:100;not null;unique" json:"name"`
	Address  string       `gorm:"size:255" json:"address"`
	Status   OutletStatus `gorm:"size:20;not null;default:active" json:"status"`
	OpenAt   string       `gorm:"size:10" json:"open_at"`   // "08:00"
	ClosedAt string       `gorm:"size:10" json:"closed_at"` // "22:00"

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserOutlet links a manager/staff account to the single outlet it
// works at. Owners have no rows here; they are scoped to all outlets.
type UserOutlet struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	UserID   uint `gorm:"not null;index:idx_user_outlet,unique" json:"user_id"`
	OutletID uint `gorm:"not null;index:idx_user_outlet,unique" json:"outlet_id"`
}

package models

import "time"

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentQRIS PaymentMethod = "qris"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentQRIS:
		return true
	}
	return false
}

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
)

type Transaction struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	InvoiceNumber   string            `gorm:"size:64;uniqueIndex;not null" json:"invoice_number"`
	StaffID         uint              `gorm:"not null;index" json:"staff_id"`
	OutletID        uint              `gorm:"index" json:"outlet_id"`
	NameConsumer    string            `gorm:"size:100" json:"name_consumer"`
	TotalAmount     int64             `gorm:"not null" json:"total_amount"`
	AmountPaid      int64             `json:"amount_paid"`
	Change          int64             `json:"change"`
	PaymentMethod   PaymentMethod     `gorm:"size:10;not null" json:"payment_method"`
	Status          TransactionStatus `gorm:"size:20;not null;index" json:"status"`
	Provider        *string           `gorm:"size:20" json:"provider"`
	TransactionDate time.Time         `json:"transaction_date"`
	Notes           string            `gorm:"type:text" json:"notes"`

	Details []DetailTransaction `gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE" json:"details"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DetailTransaction snapshots a cart line at checkout time. Product
// edits after the fact must not change historical receipts, so name
// and price are copied rather than joined.
type DetailTransaction struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	TransactionID  uint   `gorm:"not null;index" json:"transaction_id"`
	ProductID      uint   `gorm:"not null" json:"product_id"`
	ProductName    string `gorm:"size:150;not null" json:"product_name"`
	ProductPrice   int64  `gorm:"not null" json:"product_price"`
	ProductPicture string `gorm:"size:255" json:"product_picture"`
	Quantity       int    `gorm:"not null" json:"quantity"`
	Subtotal       int64  `gorm:"not null" json:"subtotal"`
}

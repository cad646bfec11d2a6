package entity

import "time"

// Purchase order status.
const (
	POStatusActive  = "active"
	POStatusConfirm = "confirm"
	POStatusCancel  = "cancel"
)

// PurchaseOrder closes out one quotation. At most one non-cancelled PO may
// exist per quotation_number.
type PurchaseOrder struct {
	PONumber        string    `json:"po_number" gorm:"primaryKey;size:32"`
	QuotationNumber string    `json:"quotation_number" gorm:"size:32;not null;index"`
	PODate          time.Time `json:"po_date" gorm:"type:date;not null"`
	POStatus        string    `json:"po_status" gorm:"size:10;not null;default:active"`
	TotalAmount     float64   `json:"total_amount" gorm:"type:decimal(10,2);not null"`
	CompanyName     string    `json:"company_name" gorm:"size:200"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Quotation *Quotation `json:"quotation,omitempty" gorm:"foreignKey:QuotationNumber;references:QuotationNumber"`
}

func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

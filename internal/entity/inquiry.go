package entity

import "time"

// Pipeline stages. An inquiry only ever moves forward through these.
const (
	StageInquiryReceived  = "inquiry_received"
	StageTechnicalReview  = "technical_review"
	StageManagementReview = "management_review"
	StagePurchaseOrder    = "purchase_order"
)

// Per-stage status flags.
const (
	StageStatusPending   = "pending"
	StageStatusForwarded = "forwarded"
)

// Inquiry is a customer request entering the quotation pipeline.
// Each stage carries its own status flag, update timestamp and actor name;
// a forwarded stage is a one-way latch and cannot be reset.
type Inquiry struct {
	InquiryNumber string `json:"inquiry_number" gorm:"primaryKey;size:32"`
	CustomerName  string `json:"customer_name" gorm:"size:200;not null;default:Unknown"`
	Email         string `json:"email" gorm:"size:200;not null"`

	CurrentStage string `json:"current_stage" gorm:"size:20;not null;default:inquiry_received"`

	InquiryStatus       string `json:"inquiry_status" gorm:"size:10;not null;default:pending"`
	TechnicalStatus     string `json:"technical_status" gorm:"size:10;not null;default:pending"`
	ManagementStatus    string `json:"management_status" gorm:"size:10;not null;default:pending"`
	PurchaseOrderStatus string `json:"purchase_order_status" gorm:"size:10;not null;default:pending"`

	InquiryUpdateDate    *time.Time `json:"inquiry_update_date"`
	TechnicalUpdateDate  *time.Time `json:"technical_update_date"`
	ManagementUpdateDate *time.Time `json:"management_update_date"`
	POUpdateDate         *time.Time `json:"po_update_date"`

	InquiryBy            string `json:"inquiry_by" gorm:"size:100"`
	TechnicalQuotationBy string `json:"technical_quotation_by" gorm:"size:100"`
	MarketingQuotationBy string `json:"marketing_quotation_by" gorm:"size:100"`
	POBy                 string `json:"po_by" gorm:"size:100"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Products   []InquiryProduct `json:"products,omitempty" gorm:"foreignKey:InquiryNumber;references:InquiryNumber"`
	Quotations []Quotation      `json:"quotations,omitempty" gorm:"foreignKey:InquiryNumber;references:InquiryNumber"`
}

func (Inquiry) TableName() string {
	return "inquiries"
}

// InquiryProduct is one requested chemical on an inquiry.
type InquiryProduct struct {
	ID            uint    `json:"id" gorm:"primaryKey;autoIncrement"`
	InquiryNumber string  `json:"inquiry_number" gorm:"size:32;not null;index"`
	ProductName   string  `json:"product_name" gorm:"size:200;not null;default:Unknown"`
	CASNumber     string  `json:"cas_number" gorm:"size:50;not null;default:N/A"`
	ProductCode   string  `json:"product_code" gorm:"size:50;not null;default:N/A"`
	QuantityReq   float64 `json:"quantity_required" gorm:"not null;default:0"`
	ImageURL      string  `json:"image_url" gorm:"size:500"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (InquiryProduct) TableName() string {
	return "inquiry_products"
}

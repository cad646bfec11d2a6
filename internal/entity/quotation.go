package entity

import "time"

// Quotation lifecycle. The draft value is kept verbatim from the legacy
// system for wire compatibility.
const (
	QuotationStatusDraft      = "Temp. Quatation"
	QuotationStatusFinalise   = "finalise"
	QuotationStatusSendEmail  = "send_email"
	QuotationStatusGeneratePO = "generate_po"
)

// Quotation is a priced proposal against one inquiry.
type Quotation struct {
	QuotationNumber string    `json:"quotation_number" gorm:"primaryKey;size:32"`
	Date            time.Time `json:"date" gorm:"type:date;not null"`
	QuotationBy     string    `json:"quotation_by" gorm:"size:100;not null"`
	InquiryNumber   string    `json:"inquiry_number" gorm:"size:32;not null;index"`

	QuotationPDF string  `json:"quotation_pdf" gorm:"size:500"`
	TotalPrice   float64 `json:"total_price" gorm:"type:decimal(10,2);not null;default:0"`
	GST          float64 `json:"gst" gorm:"type:decimal(8,2);not null;default:0"`
	Remark       string  `json:"remark" gorm:"size:500"`

	QuotationStatus string `json:"quotation_status" gorm:"size:20;not null;default:'Temp. Quatation'"`

	EmailSentDate *time.Time `json:"email_sent_date"`
	EmailSentBy   string     `json:"email_sent_by" gorm:"size:100"`

	// Reminder fields: a polled due-date, not a timer.
	ReminderDays     *int       `json:"reminder_days"`
	NextReminderDate *time.Time `json:"next_reminder_date"`
	ReminderActive   bool       `json:"reminder_active" gorm:"not null;default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Products []QuotationProduct `json:"products,omitempty" gorm:"foreignKey:QuotationNumber;references:QuotationNumber"`
	Inquiry  *Inquiry           `json:"inquiry,omitempty" gorm:"foreignKey:InquiryNumber;references:InquiryNumber"`
}

func (Quotation) TableName() string {
	return "quotations"
}

// QuotationProduct is one priced line item on a quotation. Lines are mutated
// in place by revisions and deleted when dropped from a revision's item set.
type QuotationProduct struct {
	ID              uint    `json:"id" gorm:"primaryKey;autoIncrement"`
	QuotationNumber string  `json:"quotation_number" gorm:"size:32;not null;index"`
	ProductName     string  `json:"product_name" gorm:"size:200;not null"`
	CASNumber       string  `json:"cas_number" gorm:"size:50"`
	HSNNumber       string  `json:"hsn_number" gorm:"size:50"`
	CompanyName     string  `json:"company_name" gorm:"size:200"`
	Quantity        int     `json:"quantity" gorm:"not null"`
	Price           float64 `json:"price" gorm:"type:decimal(10,2);not null"`
	LeadTime        string  `json:"lead_time" gorm:"size:100"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (QuotationProduct) TableName() string {
	return "quotation_products"
}

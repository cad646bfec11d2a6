package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Sentinel field names in the revision log. A row with one of these carries a
// serialized line snapshot instead of a single field change.
const (
	FieldNewProduct     = "NEW_PRODUCT"
	FieldDeletedProduct = "DELETED_PRODUCT"
)

// RevisionFields are the per-line fields compared when building a revision.
var RevisionFields = []string{
	"quantity", "price", "lead_time", "company_name",
	"product_name", "cas_number", "hsn_number",
}

// QuotationRevision is one field-level change record. Append-only: rows are
// never updated or deleted once written.
type QuotationRevision struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	ProductID uint      `json:"product_id" gorm:"not null;index"`
	FieldName string    `json:"field_name" gorm:"size:50;not null"`
	OldValue  *string   `json:"old_value" gorm:"size:1000"`
	NewValue  *string   `json:"new_value" gorm:"size:1000"`
	ChangedBy string    `json:"changed_by" gorm:"size:100;not null"`
	ChangedAt time.Time `json:"changed_at" gorm:"not null;autoCreateTime"`
}

func (QuotationRevision) TableName() string {
	return "quotation_revisions"
}

// SnapshotItem is one line item as captured in a revision snapshot.
// JSON keys are the persisted interop layout; do not rename.
type SnapshotItem struct {
	ID          uint    `json:"id"`
	ProductName string  `json:"product_name"`
	CASNo       string  `json:"cas_no"`
	HSNNo       string  `json:"hsn_no"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	LeadTime    string  `json:"lead_time"`
	CompanyName string  `json:"company_name"`
}

// RevisionSnapshot is the full post-change item state stored per revision.
type RevisionSnapshot struct {
	Items  []SnapshotItem `json:"items"`
	Remark string         `json:"remark,omitempty"`
}

func (s RevisionSnapshot) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *RevisionSnapshot) Scan(value interface{}) error {
	if value == nil {
		*s = RevisionSnapshot{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to scan RevisionSnapshot: %v", value)
	}
	return json.Unmarshal(bytes, s)
}

// QuotationRevised is the numbered snapshot row for one revision of a
// quotation. revision_number is strictly increasing per quotation; the unique
// index makes concurrent writers fail instead of colliding. A null ProductID
// marks a whole-quotation revision.
type QuotationRevised struct {
	ID              uint             `json:"id" gorm:"primaryKey;autoIncrement"`
	QuotationNumber string           `json:"quotation_number" gorm:"size:32;not null;uniqueIndex:idx_revised_quotation_rev"`
	RevisionNumber  int              `json:"revision_number" gorm:"not null;uniqueIndex:idx_revised_quotation_rev"`
	ProductID       *uint            `json:"product_id"`
	Changes         RevisionSnapshot `json:"changes" gorm:"type:jsonb;not null"`
	ChangedBy       string           `json:"changed_by" gorm:"size:100;not null"`
	ChangedAt       time.Time        `json:"changed_at" gorm:"not null;autoCreateTime"`
	PDFPath         string           `json:"pdf_path" gorm:"size:500"`
}

func (QuotationRevised) TableName() string {
	return "quotation_reviced"
}

package entity

import "time"

// Product status.
const (
	ProductStatusActive   = "active"
	ProductStatusInactive = "inactive"
)

// Price units.
const (
	UnitMg  = "mg"
	UnitGm  = "gm"
	UnitMl  = "ml"
	UnitKg  = "kg"
	UnitLtr = "ltr"
)

// Product is a catalog entry identified by name.
type Product struct {
	ID          uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	ProductName string `json:"product_name" gorm:"size:200;not null;uniqueIndex"`
	CASNumber   string `json:"cas_number" gorm:"size:50;not null;default:N/A"`
	ProductCode string `json:"product_code" gorm:"size:50;not null;default:N/A"`
	Status      string `json:"status" gorm:"size:10;not null;default:active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Prices []ProductPrice `json:"prices,omitempty" gorm:"foreignKey:ProductID"`
}

func (Product) TableName() string {
	return "products"
}

// ProductPrice is a per-company offer for a product. One row per
// (product, company).
type ProductPrice struct {
	ID        uint    `json:"id" gorm:"primaryKey;autoIncrement"`
	ProductID uint    `json:"product_id" gorm:"not null;uniqueIndex:idx_price_product_company"`
	Company   string  `json:"company" gorm:"size:200;not null;uniqueIndex:idx_price_product_company"`
	Price     float64 `json:"price" gorm:"not null"`
	Quantity  int     `json:"quantity" gorm:"not null;default:0"`
	Unit      string  `json:"unit" gorm:"size:10;not null;default:mg"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

func (ProductPrice) TableName() string {
	return "product_prices"
}

package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
)

// Repositories bundles one repository per aggregate.
type Repositories struct {
	Inquiry    *InquiryRepository
	Quotation  *QuotationRepository
	Revision   *RevisionRepository
	Product    *ProductRepository
	PO         *PORepository
	User       *UserRepository
	Permission *PermissionRepository
}

// NewRepositories wires all repositories onto one gorm handle.
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Inquiry:    NewInquiryRepository(db),
		Quotation:  NewQuotationRepository(db),
		Revision:   NewRevisionRepository(db),
		Product:    NewProductRepository(db),
		PO:         NewPORepository(db),
		User:       NewUserRepository(db),
		Permission: NewPermissionRepository(db),
	}
}

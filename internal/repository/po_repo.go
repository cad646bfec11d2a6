package repository

import (
	"context"
	"errors"

	"github.com/Shido75/Spectrasynth-CRM/internal/entity"
	"gorm.io/gorm"
)

// PORepository persists purchase orders.
type PORepository struct {
	db *gorm.DB
}

func NewPORepository(db *gorm.DB) *PORepository {
	return &PORepository{db: db}
}

// FindAll returns purchase orders newest first with their quotation header.
func (r *PORepository) FindAll(ctx context.Context) ([]entity.PurchaseOrder, error) {
	var items []entity.PurchaseOrder
	err := r.db.WithContext(ctx).
		Preload("Quotation").
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

// FindByNumber loads one purchase order.
func (r *PORepository) FindByNumber(ctx context.Context, poNumber string) (*entity.PurchaseOrder, error) {
	var po entity.PurchaseOrder
	err := r.db.WithContext(ctx).
		Preload("Quotation").
		Where("po_number = ?", poNumber).
		First(&po).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &po, nil
}

// Save persists status mutations. Creation runs inside the PO service's
// transaction, not here.
func (r *PORepository) Save(ctx context.Context, po *entity.PurchaseOrder) error {
	return r.db.WithContext(ctx).Save(po).Error
}

package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Shido75/Spectrasynth-CRM/internal/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QuotationRepository persists quotations and their line items.
type QuotationRepository struct {
	db *gorm.DB
}

func NewQuotationRepository(db *gorm.DB) *QuotationRepository {
	return &QuotationRepository{db: db}
}

// FindAll returns quotations newest first with their inquiry header.
func (r *QuotationRepository) FindAll(ctx context.Context) ([]entity.Quotation, error) {
	var items []entity.Quotation
	err := r.db.WithContext(ctx).
		Preload("Inquiry").
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

// FindProcessed returns quotations that left the draft state.
func (r *QuotationRepository) FindProcessed(ctx context.Context) ([]entity.Quotation, error) {
	var items []entity.Quotation
	err := r.db.WithContext(ctx).
		Where("quotation_status <> ?", entity.QuotationStatusDraft).
		Preload("Inquiry").
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

// FindByNumber loads one quotation with line items and inquiry.
func (r *QuotationRepository) FindByNumber(ctx context.Context, quotationNumber string) (*entity.Quotation, error) {
	var q entity.Quotation
	err := r.db.WithContext(ctx).
		Preload("Products").
		Preload("Inquiry").
		Where("quotation_number = ?", quotationNumber).
		First(&q).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &q, nil
}

// FindLatestByInquiry returns the newest quotation for an inquiry.
func (r *QuotationRepository) FindLatestByInquiry(ctx context.Context, inquiryNumber string) (*entity.Quotation, error) {
	var q entity.Quotation
	err := r.db.WithContext(ctx).
		Preload("Products").
		Preload("Inquiry").
		Where("inquiry_number = ?", inquiryNumber).
		Order("created_at DESC").
		First(&q).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &q, nil
}

// LastNumber returns the most recently created quotation number, or "" when
// none exist.
func (r *QuotationRepository) LastNumber(ctx context.Context) (string, error) {
	var q entity.Quotation
	err := r.db.WithContext(ctx).
		Select("quotation_number").
		Order("created_at DESC").
		First(&q).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return q.QuotationNumber, nil
}

// Create stores the quotation and its line items in one transaction.
func (r *QuotationRepository) Create(ctx context.Context, q *entity.Quotation, products []entity.QuotationProduct) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(q).Error; err != nil {
			return err
		}
		for i := range products {
			products[i].QuotationNumber = q.QuotationNumber
		}
		if len(products) > 0 {
			if err := tx.Create(&products).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Save persists header mutations. Associations are never cascaded: line
// items move through Create/ReplaceProducts or the revision engine only.
func (r *QuotationRepository) Save(ctx context.Context, q *entity.Quotation) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(q).Error
}

// Delete removes the quotation and its line items.
func (r *QuotationRepository) Delete(ctx context.Context, quotationNumber string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quotation_number = ?", quotationNumber).Delete(&entity.QuotationProduct{}).Error; err != nil {
			return err
		}
		return tx.Where("quotation_number = ?", quotationNumber).Delete(&entity.Quotation{}).Error
	})
}

// ReplaceProducts swaps the full line item set of a quotation in one
// transaction.
func (r *QuotationRepository) ReplaceProducts(ctx context.Context, quotationNumber string, products []entity.QuotationProduct) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quotation_number = ?", quotationNumber).Delete(&entity.QuotationProduct{}).Error; err != nil {
			return err
		}
		for i := range products {
			products[i].QuotationNumber = quotationNumber
		}
		if len(products) > 0 {
			if err := tx.Create(&products).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// FindProducts returns the live line items for a quotation.
func (r *QuotationRepository) FindProducts(ctx context.Context, quotationNumber string) ([]entity.QuotationProduct, error) {
	var items []entity.QuotationProduct
	err := r.db.WithContext(ctx).
		Where("quotation_number = ?", quotationNumber).
		Order("id ASC").
		Find(&items).Error
	return items, err
}

// DueReminders returns quotations whose reminder has come due, soonest first.
// Terminal quotations (generate_po) never surface.
func (r *QuotationRepository) DueReminders(ctx context.Context, now time.Time) ([]entity.Quotation, error) {
	var items []entity.Quotation
	err := r.db.WithContext(ctx).
		Where("reminder_active = ?", true).
		Where("quotation_status <> ?", entity.QuotationStatusGeneratePO).
		Where("next_reminder_date <= ?", now).
		Order("next_reminder_date ASC").
		Find(&items).Error
	return items, err
}

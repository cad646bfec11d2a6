package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Shido75/Spectrasynth-CRM/internal/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InquiryRepository persists inquiries and their requested product lines.
type InquiryRepository struct {
	db *gorm.DB
}

func NewInquiryRepository(db *gorm.DB) *InquiryRepository {
	return &InquiryRepository{db: db}
}

// FindAll returns inquiries newest first, optionally filtered by stage.
func (r *InquiryRepository) FindAll(ctx context.Context, filters map[string]string) ([]entity.Inquiry, error) {
	var items []entity.Inquiry

	query := r.db.WithContext(ctx).Model(&entity.Inquiry{})
	if stage := filters["current_stage"]; stage != "" {
		query = query.Where("current_stage = ?", stage)
	}
	if search := filters["search"]; search != "" {
		query = query.Where("customer_name ILIKE ? OR inquiry_number ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	err := query.
		Preload("Products").
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

// FindProcessed returns inquiries whose stage is past the given stages.
func (r *InquiryRepository) FindProcessed(ctx context.Context, excludeStages []string) ([]entity.Inquiry, error) {
	var items []entity.Inquiry
	err := r.db.WithContext(ctx).
		Where("current_stage NOT IN ?", excludeStages).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

// FindByNumber loads one inquiry with its product lines.
func (r *InquiryRepository) FindByNumber(ctx context.Context, inquiryNumber string) (*entity.Inquiry, error) {
	var inq entity.Inquiry
	err := r.db.WithContext(ctx).
		Preload("Products").
		Where("inquiry_number = ?", inquiryNumber).
		First(&inq).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &inq, nil
}

// Create stores the inquiry and its product lines in one transaction.
func (r *InquiryRepository) Create(ctx context.Context, inq *entity.Inquiry, products []entity.InquiryProduct) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(inq).Error; err != nil {
			return err
		}
		for i := range products {
			products[i].InquiryNumber = inq.InquiryNumber
		}
		if len(products) > 0 {
			if err := tx.Create(&products).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Save persists stage and status mutations on an inquiry. Associations are
// never cascaded.
func (r *InquiryRepository) Save(ctx context.Context, inq *entity.Inquiry) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(inq).Error
}

// UpdateProduct updates one requested line in place.
func (r *InquiryRepository) UpdateProduct(ctx context.Context, p *entity.InquiryProduct) error {
	return r.db.WithContext(ctx).Save(p).Error
}

// FindProductByName finds a requested line by inquiry and product name.
func (r *InquiryRepository) FindProductByName(ctx context.Context, inquiryNumber, productName string) (*entity.InquiryProduct, error) {
	var p entity.InquiryProduct
	err := r.db.WithContext(ctx).
		Where("inquiry_number = ? AND product_name = ?", inquiryNumber, productName).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// HasQuotations reports whether any quotation references the inquiry.
// Inquiries with quotations are never hard-deleted.
func (r *InquiryRepository) HasQuotations(ctx context.Context, inquiryNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Quotation{}).
		Where("inquiry_number = ?", inquiryNumber).
		Count(&count).Error
	return count > 0, err
}

// Delete removes the inquiry and its product lines.
func (r *InquiryRepository) Delete(ctx context.Context, inquiryNumber string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("inquiry_number = ?", inquiryNumber).Delete(&entity.InquiryProduct{}).Error; err != nil {
			return err
		}
		return tx.Where("inquiry_number = ?", inquiryNumber).Delete(&entity.Inquiry{}).Error
	})
}

// GenerateNumber allocates the next inquiry number INQ{n}. The current
// maximum row is locked so two intakes cannot draw the same number.
func (r *InquiryRepository) GenerateNumber(ctx context.Context) (string, error) {
	var number string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var last entity.Inquiry
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Order("created_at DESC").
			Select("inquiry_number").
			First(&last).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		seq := 0
		if last.InquiryNumber != "" {
			raw := strings.TrimPrefix(strings.ToUpper(last.InquiryNumber), "INQ")
			if n, convErr := strconv.Atoi(raw); convErr == nil {
				seq = n
			}
		}
		number = fmt.Sprintf("INQ%d", seq+1)
		return nil
	})
	return number, err
}

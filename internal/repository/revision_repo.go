package repository

import (
	"context"
	"errors"

	"github.com/Shido75/Spectrasynth-CRM/internal/entity"
	"gorm.io/gorm"
)

// RevisionRepository reads the append-only revision history. All writes
// happen inside the revision engine's transaction, not here.
type RevisionRepository struct {
	db *gorm.DB
}

func NewRevisionRepository(db *gorm.DB) *RevisionRepository {
	return &RevisionRepository{db: db}
}

// FindSnapshots returns the snapshot rows for a quotation, revision ascending.
func (r *RevisionRepository) FindSnapshots(ctx context.Context, quotationNumber string) ([]entity.QuotationRevised, error) {
	var items []entity.QuotationRevised
	err := r.db.WithContext(ctx).
		Where("quotation_number = ?", quotationNumber).
		Order("revision_number ASC").
		Find(&items).Error
	return items, err
}

// LatestSnapshot returns the highest-numbered snapshot for a quotation, or
// ErrNotFound when no revision exists yet.
func (r *RevisionRepository) LatestSnapshot(ctx context.Context, quotationNumber string) (*entity.QuotationRevised, error) {
	var rev entity.QuotationRevised
	err := r.db.WithContext(ctx).
		Where("quotation_number = ?", quotationNumber).
		Order("revision_number DESC").
		First(&rev).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rev, nil
}

// CountSnapshots reports how many revisions exist for a quotation.
func (r *RevisionRepository) CountSnapshots(ctx context.Context, quotationNumber string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.QuotationRevised{}).
		Where("quotation_number = ?", quotationNumber).
		Count(&count).Error
	return count, err
}

// FindLogRows returns field-level change rows for the given line item ids,
// newest first.
func (r *RevisionRepository) FindLogRows(ctx context.Context, productIDs []uint) ([]entity.QuotationRevision, error) {
	var items []entity.QuotationRevision
	err := r.db.WithContext(ctx).
		Where("product_id IN ?", productIDs).
		Order("changed_at DESC").
		Find(&items).Error
	return items, err
}

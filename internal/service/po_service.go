package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Shido75/Spectrasynth-CRM/internal/entity"
	"github.com/Shido75/Spectrasynth-CRM/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// POService manages purchase orders generated from quotations.
type POService struct {
	poRepo *repository.PORepository
	db     *gorm.DB
	logger *zap.Logger
}

func NewPOService(poRepo *repository.PORepository, db *gorm.DB, logger *zap.Logger) *POService {
	return &POService{
		poRepo: poRepo,
		db:     db,
		logger: logger,
	}
}

// CreatePORequest generates a purchase order against a quotation.
type CreatePORequest struct {
	QuotationNumber string     `json:"quotation_number" binding:"required"`
	PODate          *time.Time `json:"po_date"`
	TotalAmount     *float64   `json:"total_amount"`
	CompanyName     string     `json:"company_name"`
}

// Create generates a purchase order for a quotation. A quotation carries at
// most one live PO: the quotation row is locked while the PO is written, its
// status latches terminal and the inquiry's purchase-order stage forwards,
// which also disarms reminders. All of it commits or rolls back together; a
// partial unique index on live POs backstops concurrent creators.
func (s *POService) Create(ctx context.Context, req *CreatePORequest, actor string) (*entity.PurchaseOrder, error) {
	var created *entity.PurchaseOrder

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var q entity.Quotation
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("quotation_number = ?", req.QuotationNumber).
			First(&q).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: quotation %s", ErrNotFound, req.QuotationNumber)
			}
			return err
		}

		var live int64
		if err := tx.Model(&entity.PurchaseOrder{}).
			Where("quotation_number = ? AND po_status <> ?", req.QuotationNumber, entity.POStatusCancel).
			Count(&live).Error; err != nil {
			return err
		}
		if live > 0 {
			return fmt.Errorf("%w: quotation %s already has a live purchase order", ErrConflict, req.QuotationNumber)
		}

		var inquiry entity.Inquiry
		if err := tx.Where("inquiry_number = ?", q.InquiryNumber).First(&inquiry).Error; err != nil &&
			!errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := time.Now()
		number, err := nextPONumber(tx, now)
		if err != nil {
			return err
		}

		date := now
		if req.PODate != nil {
			date = *req.PODate
		}
		amount := q.TotalPrice
		if req.TotalAmount != nil {
			amount = *req.TotalAmount
		}
		company := req.CompanyName
		if company == "" {
			company = inquiry.CustomerName
		}

		po := &entity.PurchaseOrder{
			PONumber:        number,
			QuotationNumber: req.QuotationNumber,
			PODate:          date,
			POStatus:        entity.POStatusActive,
			TotalAmount:     amount,
			CompanyName:     company,
		}
		if err := tx.Create(po).Error; err != nil {
			return err
		}

		q.QuotationStatus = entity.QuotationStatusGeneratePO
		q.ReminderActive = false
		q.NextReminderDate = nil
		if err := tx.Omit(clause.Associations).Save(&q).Error; err != nil {
			return err
		}

		if inquiry.InquiryNumber != "" {
			if advErr := advanceStage(&inquiry, SlotPurchaseOrder, actor, now); advErr == nil {
				if err := tx.Omit(clause.Associations).Save(&inquiry).Error; err != nil {
					return err
				}
			}
		}

		created = po
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: quotation %s already has a live purchase order", ErrConflict, req.QuotationNumber)
		}
		return nil, err
	}

	s.logger.Info("purchase order created",
		zap.String("po_number", created.PONumber),
		zap.String("quotation_number", created.QuotationNumber),
		zap.Float64("total_amount", created.TotalAmount),
	)
	return created, nil
}

// List returns all purchase orders newest first.
func (s *POService) List(ctx context.Context) ([]entity.PurchaseOrder, error) {
	return s.poRepo.FindAll(ctx)
}

// Get loads one purchase order.
func (s *POService) Get(ctx context.Context, poNumber string) (*entity.PurchaseOrder, error) {
	po, err := s.poRepo.FindByNumber(ctx, poNumber)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: purchase order %s", ErrNotFound, poNumber)
		}
		return nil, err
	}
	return po, nil
}

// Confirm marks an active purchase order as confirmed.
func (s *POService) Confirm(ctx context.Context, poNumber string) (*entity.PurchaseOrder, error) {
	po, err := s.Get(ctx, poNumber)
	if err != nil {
		return nil, err
	}
	if po.POStatus != entity.POStatusActive {
		return nil, fmt.Errorf("%w: purchase order %s is %s", ErrConflict, poNumber, po.POStatus)
	}
	po.POStatus = entity.POStatusConfirm
	if err := s.poRepo.Save(ctx, po); err != nil {
		return nil, err
	}
	s.logger.Info("purchase order confirmed", zap.String("po_number", poNumber))
	return po, nil
}

// Cancel voids a purchase order. A cancelled PO frees the quotation for a
// replacement order.
func (s *POService) Cancel(ctx context.Context, poNumber string) (*entity.PurchaseOrder, error) {
	po, err := s.Get(ctx, poNumber)
	if err != nil {
		return nil, err
	}
	if po.POStatus == entity.POStatusCancel {
		return nil, fmt.Errorf("%w: purchase order %s already cancelled", ErrConflict, poNumber)
	}
	po.POStatus = entity.POStatusCancel
	if err := s.poRepo.Save(ctx, po); err != nil {
		return nil, err
	}
	s.logger.Info("purchase order cancelled", zap.String("po_number", poNumber))
	return po, nil
}

// nextPONumber allocates the next PO number SS-PO-YYMM-NNN inside the
// caller's transaction. The newest row is locked so concurrent creators
// cannot draw the same number; the sequence resets each month.
func nextPONumber(tx *gorm.DB, now time.Time) (string, error) {
	var last entity.PurchaseOrder
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("po_number").
		Order("created_at DESC").
		First(&last).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	period := now.Format("0601")
	seq := 1
	if last.PONumber != "" {
		parts := strings.Split(last.PONumber, "-")
		if len(parts) == 4 && parts[2] == period {
			if n, convErr := strconv.Atoi(parts[3]); convErr == nil {
				seq = n + 1
			}
		}
	}
	return fmt.Sprintf("SS-PO-%s-%03d", period, seq), nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Shido75/Spectrasynth-CRM/internal/entity"
	"github.com/Shido75/Spectrasynth-CRM/internal/repository"
	"github.com/Shido75/Spectrasynth-CRM/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DocumentRenderer produces the quotation PDF for one revision state.
// revision 0 renders the base (unrevised) document.
type DocumentRenderer interface {
	RenderQuotation(ctx context.Context, q *entity.Quotation, items []entity.SnapshotItem, inquiry *entity.Inquiry, revision int) (string, error)
}

// RevisionService is the quotation revision engine: it computes field-level
// diffs against the previous revision, applies the change set to the live
// line items, renders the revised document and persists one numbered
// snapshot — all inside a single transaction.
type RevisionService struct {
	quotationRepo *repository.QuotationRepository
	revisionRepo  *repository.RevisionRepository
	renderer      DocumentRenderer
	artifacts     *storage.ArtifactStore
	db            *gorm.DB
	logger        *zap.Logger
	renderTimeout time.Duration
}

func NewRevisionService(
	quotationRepo *repository.QuotationRepository,
	revisionRepo *repository.RevisionRepository,
	renderer DocumentRenderer,
	artifacts *storage.ArtifactStore,
	db *gorm.DB,
	logger *zap.Logger,
	renderTimeout time.Duration,
) *RevisionService {
	if renderTimeout <= 0 {
		renderTimeout = 30 * time.Second
	}
	return &RevisionService{
		quotationRepo: quotationRepo,
		revisionRepo:  revisionRepo,
		renderer:      renderer,
		artifacts:     artifacts,
		db:            db,
		logger:        logger,
		renderTimeout: renderTimeout,
	}
}

// RevisionItem is one incoming line in a change set. A nil ID marks a new
// line; lines in storage whose id is absent from the set are deletions.
type RevisionItem struct {
	ID          *uint   `json:"id"`
	ProductName string  `json:"product_name"`
	CASNo       string  `json:"cas_no"`
	HSNNo       string  `json:"hsn_no"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	LeadTime    string  `json:"lead_time"`
	CompanyName string  `json:"company_name"`
}

// CreateRevisionRequest carries a full replacement item set for a quotation.
type CreateRevisionRequest struct {
	ProductID *uint          `json:"product_id"`
	Items     []RevisionItem `json:"items" binding:"required"`
	Remark    string         `json:"remark"`
}

const maxRevisionAttempts = 3

// CreateRevision applies a change set as revision N+1 of the quotation.
// Number allocation, diff rows, line mutations, document render and the
// snapshot row commit or roll back together; the unique index on
// (quotation_number, revision_number) makes a concurrent writer fail, and the
// losing writer retries against the new state.
func (s *RevisionService) CreateRevision(ctx context.Context, quotationNumber string, req *CreateRevisionRequest, actor string) (*entity.QuotationRevised, error) {
	if req == nil || len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: change set must contain at least one item", ErrValidation)
	}
	if actor == "" {
		actor = "System"
	}

	var lastErr error
	for attempt := 0; attempt < maxRevisionAttempts; attempt++ {
		rev, err := s.createRevisionOnce(ctx, quotationNumber, req, actor)
		if err == nil {
			s.archive(ctx, rev.PDFPath)
			return rev, nil
		}
		if !isUniqueViolation(err) {
			return nil, err
		}
		lastErr = err
		s.logger.Warn("revision number collision, retrying",
			zap.String("quotation_number", quotationNumber),
			zap.Int("attempt", attempt+1),
		)
	}
	return nil, fmt.Errorf("%w: revision number contention on %s: %v", ErrConflict, quotationNumber, lastErr)
}

func (s *RevisionService) createRevisionOnce(ctx context.Context, quotationNumber string, req *CreateRevisionRequest, actor string) (*entity.QuotationRevised, error) {
	var created *entity.QuotationRevised

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the quotation header so concurrent revisions serialize here.
		var quotation entity.Quotation
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("quotation_number = ?", quotationNumber).
			First(&quotation).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: quotation %s", ErrNotFound, quotationNumber)
			}
			return err
		}

		var inquiry entity.Inquiry
		if err := tx.Where("inquiry_number = ?", quotation.InquiryNumber).First(&inquiry).Error; err != nil &&
			!errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var maxRev int
		if err := tx.Model(&entity.QuotationRevised{}).
			Select("COALESCE(MAX(revision_number), 0)").
			Where("quotation_number = ?", quotationNumber).
			Scan(&maxRev).Error; err != nil {
			return err
		}
		nextRev := maxRev + 1

		var live []entity.QuotationProduct
		if err := tx.Where("quotation_number = ?", quotationNumber).
			Order("id ASC").
			Find(&live).Error; err != nil {
			return err
		}
		liveByID := make(map[uint]*entity.QuotationProduct, len(live))
		for i := range live {
			liveByID[live[i].ID] = &live[i]
		}

		// Previous values come from the last snapshot when one exists,
		// otherwise from the live rows. Direct line edits are rejected once a
		// revision exists (see QuotationService.EditQuotation), so the two
		// sources cannot diverge.
		prevItems := snapshotFromProducts(live)
		var latest entity.QuotationRevised
		err = tx.Where("quotation_number = ?", quotationNumber).
			Order("revision_number DESC").
			First(&latest).Error
		if err == nil {
			prevItems = latest.Changes.Items
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		// Materialize the incoming set: updates must reference live lines,
		// new lines are inserted now so they carry a real id.
		nextItems := make([]entity.SnapshotItem, 0, len(req.Items))
		for _, item := range req.Items {
			if item.ID != nil {
				if _, ok := liveByID[*item.ID]; !ok {
					return fmt.Errorf("%w: line item %d does not belong to quotation %s", ErrValidation, *item.ID, quotationNumber)
				}
				nextItems = append(nextItems, entity.SnapshotItem{
					ID:          *item.ID,
					ProductName: item.ProductName,
					CASNo:       item.CASNo,
					HSNNo:       item.HSNNo,
					Quantity:    item.Quantity,
					Price:       item.Price,
					LeadTime:    item.LeadTime,
					CompanyName: item.CompanyName,
				})
				continue
			}

			line := entity.QuotationProduct{
				QuotationNumber: quotationNumber,
				ProductName:     item.ProductName,
				CASNumber:       item.CASNo,
				HSNNumber:       item.HSNNo,
				CompanyName:     item.CompanyName,
				Quantity:        item.Quantity,
				Price:           item.Price,
				LeadTime:        item.LeadTime,
			}
			if err := tx.Create(&line).Error; err != nil {
				return err
			}
			nextItems = append(nextItems, entity.SnapshotItem{
				ID:          line.ID,
				ProductName: line.ProductName,
				CASNo:       line.CASNumber,
				HSNNo:       line.HSNNumber,
				Quantity:    line.Quantity,
				Price:       line.Price,
				LeadTime:    line.LeadTime,
				CompanyName: line.CompanyName,
			})
		}

		changes := diffItemSets(prevItems, nextItems)

		// One append-only log row per change.
		now := time.Now()
		for _, ch := range changes {
			row := entity.QuotationRevision{
				ProductID: ch.ProductID,
				FieldName: ch.FieldName,
				OldValue:  ch.OldValue,
				NewValue:  ch.NewValue,
				ChangedBy: actor,
				ChangedAt: now,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}

		// Apply the set to live storage: update survivors, delete the rest.
		keep := make(map[uint]bool, len(nextItems))
		for _, item := range nextItems {
			keep[item.ID] = true
			line := liveByID[item.ID]
			if line == nil {
				continue // freshly inserted above
			}
			line.ProductName = item.ProductName
			line.CASNumber = item.CASNo
			line.HSNNumber = item.HSNNo
			line.Quantity = item.Quantity
			line.Price = item.Price
			line.LeadTime = item.LeadTime
			line.CompanyName = item.CompanyName
			if err := tx.Save(line).Error; err != nil {
				return err
			}
		}
		for id := range liveByID {
			if !keep[id] {
				if err := tx.Where("id = ?", id).Delete(&entity.QuotationProduct{}).Error; err != nil {
					return err
				}
			}
		}

		remark := req.Remark
		if remark == "" {
			remark = quotation.Remark
		}
		snapshot := entity.RevisionSnapshot{Items: nextItems, Remark: remark}

		// Render inside the transaction: a failed render rolls everything
		// back instead of leaving orphan diff rows.
		renderCtx, cancel := context.WithTimeout(ctx, s.renderTimeout)
		defer cancel()
		pdfPath, err := s.renderer.RenderQuotation(renderCtx, &quotation, nextItems, &inquiry, nextRev)
		if err != nil {
			return fmt.Errorf("%w: revision %d of %s: %v", ErrRender, nextRev, quotationNumber, err)
		}

		rev := entity.QuotationRevised{
			QuotationNumber: quotationNumber,
			RevisionNumber:  nextRev,
			ProductID:       req.ProductID,
			Changes:         snapshot,
			ChangedBy:       actor,
			ChangedAt:       now,
			PDFPath:         pdfPath,
		}
		if err := tx.Create(&rev).Error; err != nil {
			return err
		}

		created = &rev
		s.logger.Info("quotation revision created",
			zap.String("quotation_number", quotationNumber),
			zap.Int("revision_number", nextRev),
			zap.Int("field_changes", len(changes)),
			zap.String("changed_by", actor),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// RevisionHistoryEntry is one annotated revision in the history read model.
type RevisionHistoryEntry struct {
	RevisionNumber int           `json:"revision_number"`
	ChangedItems   []FieldChange `json:"changed_items"`
	PDFPath        string        `json:"pdf_path"`
	ChangedBy      string        `json:"changed_by"`
	ChangedAt      time.Time     `json:"changed_at"`
}

// GetRevisionHistory returns all revisions ascending, each annotated with the
// per-field changes computed against the previous revision's snapshot (the
// live rows for revision 1). Pure read.
func (s *RevisionService) GetRevisionHistory(ctx context.Context, quotationNumber string) ([]RevisionHistoryEntry, error) {
	if _, err := s.quotationRepo.FindByNumber(ctx, quotationNumber); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: quotation %s", ErrNotFound, quotationNumber)
		}
		return nil, err
	}

	snapshots, err := s.revisionRepo.FindSnapshots(ctx, quotationNumber)
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return []RevisionHistoryEntry{}, nil
	}

	live, err := s.quotationRepo.FindProducts(ctx, quotationNumber)
	if err != nil {
		return nil, err
	}

	history := make([]RevisionHistoryEntry, 0, len(snapshots))
	prev := snapshotFromProducts(live)
	for i, snap := range snapshots {
		if i > 0 {
			prev = snapshots[i-1].Changes.Items
		}
		history = append(history, RevisionHistoryEntry{
			RevisionNumber: snap.RevisionNumber,
			ChangedItems:   diffItemSets(prev, snap.Changes.Items),
			PDFPath:        snap.PDFPath,
			ChangedBy:      snap.ChangedBy,
			ChangedAt:      snap.ChangedAt,
		})
	}
	return history, nil
}

// GetFieldLog returns the raw append-only change rows for a quotation's
// current line items, newest first.
func (s *RevisionService) GetFieldLog(ctx context.Context, quotationNumber string) ([]entity.QuotationRevision, error) {
	products, err := s.quotationRepo.FindProducts(ctx, quotationNumber)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("%w: no products for quotation %s", ErrNotFound, quotationNumber)
	}
	ids := make([]uint, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	return s.revisionRepo.FindLogRows(ctx, ids)
}

// archive pushes the rendered artifact to object storage when configured.
// Best effort: the revision is already committed.
func (s *RevisionService) archive(ctx context.Context, relPath string) {
	if s.artifacts == nil || relPath == "" {
		return
	}
	if err := s.artifacts.Upload(ctx, relPath); err != nil {
		s.logger.Warn("artifact archive failed", zap.String("path", relPath), zap.Error(err))
	}
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "SQLSTATE 23505")
}

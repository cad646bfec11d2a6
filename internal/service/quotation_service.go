package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Shido75/Spectrasynth-CRM/internal/entity"
	"github.com/Shido75/Spectrasynth-CRM/internal/mail"
	"github.com/Shido75/Spectrasynth-CRM/internal/repository"
	"github.com/Shido75/Spectrasynth-CRM/internal/storage"
	"go.uber.org/zap"
)

// QuotationService manages quotation lifecycle: creation, header edits,
// finalisation, outbound mail and follow-up reminders.
type QuotationService struct {
	quotationRepo *repository.QuotationRepository
	inquiryRepo   *repository.InquiryRepository
	revisionRepo  *repository.RevisionRepository
	renderer      DocumentRenderer
	mailer        *mail.Mailer
	artifacts     *storage.ArtifactStore
	logger        *zap.Logger
	uploadRoot    string
	renderTimeout time.Duration
}

func NewQuotationService(
	quotationRepo *repository.QuotationRepository,
	inquiryRepo *repository.InquiryRepository,
	revisionRepo *repository.RevisionRepository,
	renderer DocumentRenderer,
	mailer *mail.Mailer,
	artifacts *storage.ArtifactStore,
	logger *zap.Logger,
	uploadRoot string,
	renderTimeout time.Duration,
) *QuotationService {
	if renderTimeout <= 0 {
		renderTimeout = 30 * time.Second
	}
	return &QuotationService{
		quotationRepo: quotationRepo,
		inquiryRepo:   inquiryRepo,
		revisionRepo:  revisionRepo,
		renderer:      renderer,
		mailer:        mailer,
		artifacts:     artifacts,
		logger:        logger,
		uploadRoot:    uploadRoot,
		renderTimeout: renderTimeout,
	}
}

// CreateQuotationRequest is the payload for drafting a quotation against an
// inquiry. The quotation number is allocated by the service.
type CreateQuotationRequest struct {
	InquiryNumber string         `json:"inquiry_number" binding:"required"`
	QuotationBy   string         `json:"quotation_by"`
	Date          *time.Time     `json:"date"`
	GST           float64        `json:"gst"`
	Remark        string         `json:"remark"`
	Items         []RevisionItem `json:"items" binding:"required"`
	ReminderDays  *int           `json:"reminder_days"`
}

// Create drafts a quotation with its line items and renders the base
// document.
func (s *QuotationService) Create(ctx context.Context, req *CreateQuotationRequest, actor string) (*entity.Quotation, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: at least one line item is required", ErrValidation)
	}
	for _, item := range req.Items {
		if strings.TrimSpace(item.ProductName) == "" {
			return nil, fmt.Errorf("%w: line item product name is required", ErrValidation)
		}
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: line item quantity must be positive", ErrValidation)
		}
	}
	if req.ReminderDays != nil && *req.ReminderDays <= 0 {
		return nil, fmt.Errorf("%w: reminder_days must be positive", ErrValidation)
	}

	inquiry, err := s.inquiryRepo.FindByNumber(ctx, req.InquiryNumber)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: inquiry %s", ErrNotFound, req.InquiryNumber)
		}
		return nil, err
	}

	number, err := s.nextNumber(ctx, time.Now())
	if err != nil {
		return nil, err
	}

	by := req.QuotationBy
	if by == "" {
		by = actor
	}
	if by == "" {
		by = "System"
	}
	date := time.Now()
	if req.Date != nil {
		date = *req.Date
	}

	q := &entity.Quotation{
		QuotationNumber: number,
		Date:            date,
		QuotationBy:     by,
		InquiryNumber:   req.InquiryNumber,
		GST:             req.GST,
		Remark:          req.Remark,
		QuotationStatus: entity.QuotationStatusDraft,
		ReminderDays:    req.ReminderDays,
	}

	products := make([]entity.QuotationProduct, 0, len(req.Items))
	for _, item := range req.Items {
		products = append(products, entity.QuotationProduct{
			ProductName: item.ProductName,
			CASNumber:   item.CASNo,
			HSNNumber:   item.HSNNo,
			CompanyName: item.CompanyName,
			Quantity:    item.Quantity,
			Price:       item.Price,
			LeadTime:    item.LeadTime,
		})
	}
	q.TotalPrice = lineTotal(products)

	if err := s.quotationRepo.Create(ctx, q, products); err != nil {
		return nil, err
	}
	q.Products = products

	if err := s.renderBase(ctx, q, inquiry); err != nil {
		return nil, err
	}

	// Drafting a quotation is the technical review's output: the technical
	// slot latches and the inquiry moves to management review.
	if err := s.forwardSlot(ctx, req.InquiryNumber, SlotTechnical, by); err != nil {
		return nil, err
	}

	s.logger.Info("quotation created",
		zap.String("quotation_number", q.QuotationNumber),
		zap.String("inquiry_number", q.InquiryNumber),
		zap.Float64("total_price", q.TotalPrice),
	)
	return q, nil
}

// List returns all quotations newest first.
func (s *QuotationService) List(ctx context.Context) ([]entity.Quotation, error) {
	return s.quotationRepo.FindAll(ctx)
}

// ListProcessed returns quotations that left the draft state.
func (s *QuotationService) ListProcessed(ctx context.Context) ([]entity.Quotation, error) {
	return s.quotationRepo.FindProcessed(ctx)
}

// Get loads one quotation with line items and inquiry.
func (s *QuotationService) Get(ctx context.Context, quotationNumber string) (*entity.Quotation, error) {
	q, err := s.quotationRepo.FindByNumber(ctx, quotationNumber)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: quotation %s", ErrNotFound, quotationNumber)
		}
		return nil, err
	}
	return q, nil
}

// GetLatestForInquiry returns the newest quotation drafted for an inquiry.
func (s *QuotationService) GetLatestForInquiry(ctx context.Context, inquiryNumber string) (*entity.Quotation, error) {
	q, err := s.quotationRepo.FindLatestByInquiry(ctx, inquiryNumber)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: no quotation for inquiry %s", ErrNotFound, inquiryNumber)
		}
		return nil, err
	}
	return q, nil
}

// EditQuotationRequest mutates header fields, and optionally replaces the
// line items while the quotation has no revisions yet.
type EditQuotationRequest struct {
	Date   *time.Time     `json:"date"`
	GST    *float64       `json:"gst"`
	Remark *string        `json:"remark"`
	Items  []RevisionItem `json:"items"`
}

// Edit applies header mutations and, before the first revision exists,
// direct line replacements. Once a revision exists all line changes must go
// through the revision engine so the diff log stays complete.
func (s *QuotationService) Edit(ctx context.Context, quotationNumber string, req *EditQuotationRequest) (*entity.Quotation, error) {
	q, err := s.Get(ctx, quotationNumber)
	if err != nil {
		return nil, err
	}

	if req.Date != nil {
		q.Date = *req.Date
	}
	if req.GST != nil {
		q.GST = *req.GST
	}
	if req.Remark != nil {
		q.Remark = *req.Remark
	}

	if len(req.Items) > 0 {
		count, err := s.revisionRepo.CountSnapshots(ctx, quotationNumber)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, fmt.Errorf("%w: quotation %s has revisions, line changes must go through the revision engine", ErrConflict, quotationNumber)
		}

		products := make([]entity.QuotationProduct, 0, len(req.Items))
		for _, item := range req.Items {
			products = append(products, entity.QuotationProduct{
				ProductName: item.ProductName,
				CASNumber:   item.CASNo,
				HSNNumber:   item.HSNNo,
				CompanyName: item.CompanyName,
				Quantity:    item.Quantity,
				Price:       item.Price,
				LeadTime:    item.LeadTime,
			})
		}
		q.TotalPrice = lineTotal(products)
		if err := s.quotationRepo.ReplaceProducts(ctx, quotationNumber, products); err != nil {
			return nil, err
		}
		q.Products = products
	}
	if err := s.quotationRepo.Save(ctx, q); err != nil {
		return nil, err
	}

	if err := s.renderBase(ctx, q, q.Inquiry); err != nil {
		return nil, err
	}
	return q, nil
}

// Finalise moves a quotation to the finalised state: management signs off,
// the inquiry advances to the purchase-order stage and the document is
// regenerated so the sent artifact reflects the final header.
func (s *QuotationService) Finalise(ctx context.Context, quotationNumber, actor string) (*entity.Quotation, error) {
	q, err := s.Get(ctx, quotationNumber)
	if err != nil {
		return nil, err
	}
	if q.QuotationStatus == entity.QuotationStatusGeneratePO {
		return nil, fmt.Errorf("%w: quotation %s already has a purchase order", ErrConflict, quotationNumber)
	}
	q.QuotationStatus = entity.QuotationStatusFinalise
	if err := s.quotationRepo.Save(ctx, q); err != nil {
		return nil, err
	}
	if err := s.renderBase(ctx, q, q.Inquiry); err != nil {
		return nil, err
	}
	if err := s.forwardSlot(ctx, q.InquiryNumber, SlotManagement, actor); err != nil {
		return nil, err
	}
	s.logger.Info("quotation finalised",
		zap.String("quotation_number", quotationNumber),
		zap.String("actor", actor),
	)
	return q, nil
}

// SendEmailRequest addresses an outbound quotation mail. Recipients default
// to the inquiry's customer email.
type SendEmailRequest struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

// SendEmail mails the current quotation document to the customer and stamps
// the send. Activates the follow-up reminder when reminder days are set.
// The send is synchronous: a failed send changes nothing.
func (s *QuotationService) SendEmail(ctx context.Context, quotationNumber string, req *SendEmailRequest, actor string) (*entity.Quotation, error) {
	q, err := s.Get(ctx, quotationNumber)
	if err != nil {
		return nil, err
	}
	if q.QuotationStatus == entity.QuotationStatusGeneratePO {
		return nil, fmt.Errorf("%w: quotation %s already has a purchase order", ErrConflict, quotationNumber)
	}
	if q.QuotationPDF == "" {
		return nil, fmt.Errorf("%w: quotation %s has no rendered document", ErrValidation, quotationNumber)
	}

	to := req.To
	if len(to) == 0 {
		if q.Inquiry == nil || q.Inquiry.Email == "" {
			return nil, fmt.Errorf("%w: no recipient for quotation %s", ErrValidation, quotationNumber)
		}
		to = []string{q.Inquiry.Email}
	}
	subject := req.Subject
	if subject == "" {
		subject = fmt.Sprintf("Quotation %s - Spectrasynth Pharmachem", quotationNumber)
	}
	body := req.Body
	if body == "" {
		body = fmt.Sprintf("Dear Customer,\n\nPlease find attached quotation %s for your inquiry %s.\n\nRegards,\nSpectrasynth Pharmachem", quotationNumber, q.InquiryNumber)
	}

	err = s.mailer.Send(ctx, mail.Message{
		To:             to,
		Subject:        subject,
		Body:           body,
		AttachmentPath: filepath.Join(s.uploadRoot, q.QuotationPDF),
	})
	if err != nil {
		return nil, fmt.Errorf("send quotation mail: %w", err)
	}

	now := time.Now()
	q.QuotationStatus = entity.QuotationStatusSendEmail
	q.EmailSentDate = &now
	q.EmailSentBy = actor
	if q.ReminderDays != nil && *q.ReminderDays > 0 {
		next := now.AddDate(0, 0, *q.ReminderDays)
		q.NextReminderDate = &next
		q.ReminderActive = true
	}
	if err := s.quotationRepo.Save(ctx, q); err != nil {
		return nil, err
	}

	// A delivered quotation closes out the intake slot on the inquiry.
	if err := s.forwardSlot(ctx, q.InquiryNumber, SlotInquiry, actor); err != nil {
		return nil, err
	}

	s.logger.Info("quotation emailed",
		zap.String("quotation_number", quotationNumber),
		zap.Strings("to", to),
		zap.String("sent_by", actor),
	)
	return q, nil
}

// SetReminderRequest configures the follow-up cadence for a quotation.
type SetReminderRequest struct {
	ReminderDays int `json:"reminder_days" binding:"required"`
}

// SetReminder arms or rearms the follow-up reminder: the next due date is
// now plus the given days. Quotations that already produced a purchase order
// take no reminders.
func (s *QuotationService) SetReminder(ctx context.Context, quotationNumber string, req *SetReminderRequest) (*entity.Quotation, error) {
	if req.ReminderDays <= 0 {
		return nil, fmt.Errorf("%w: reminder_days must be positive", ErrValidation)
	}
	q, err := s.Get(ctx, quotationNumber)
	if err != nil {
		return nil, err
	}
	if q.QuotationStatus == entity.QuotationStatusGeneratePO {
		return nil, fmt.Errorf("%w: quotation %s already has a purchase order", ErrConflict, quotationNumber)
	}

	days := req.ReminderDays
	next := time.Now().AddDate(0, 0, days)
	q.ReminderDays = &days
	q.ReminderActive = true
	q.NextReminderDate = &next
	if err := s.quotationRepo.Save(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// StopReminder disarms the follow-up reminder.
func (s *QuotationService) StopReminder(ctx context.Context, quotationNumber string) (*entity.Quotation, error) {
	q, err := s.Get(ctx, quotationNumber)
	if err != nil {
		return nil, err
	}
	q.ReminderActive = false
	q.NextReminderDate = nil
	if err := s.quotationRepo.Save(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// ProcessDueReminders sends follow-up mail for every quotation whose
// reminder has come due and advances its next due date. One failed send
// skips that quotation and leaves its due date as is; the next tick retries.
func (s *QuotationService) ProcessDueReminders(ctx context.Context, now time.Time) (int, error) {
	due, err := s.quotationRepo.DueReminders(ctx, now)
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range due {
		q := &due[i]
		if err := s.sendReminder(ctx, q, now); err != nil {
			s.logger.Warn("reminder send failed",
				zap.String("quotation_number", q.QuotationNumber),
				zap.Error(err),
			)
			continue
		}
		sent++
	}
	if len(due) > 0 {
		s.logger.Info("reminder sweep finished",
			zap.Int("due", len(due)),
			zap.Int("sent", sent),
		)
	}
	return sent, nil
}

func (s *QuotationService) sendReminder(ctx context.Context, q *entity.Quotation, now time.Time) error {
	full, err := s.Get(ctx, q.QuotationNumber)
	if err != nil {
		return err
	}
	if full.Inquiry == nil || full.Inquiry.Email == "" {
		return fmt.Errorf("no customer email on inquiry %s", full.InquiryNumber)
	}

	msg := mail.Message{
		To:      []string{full.Inquiry.Email},
		Subject: fmt.Sprintf("Follow up on quotation %s - Spectrasynth Pharmachem", full.QuotationNumber),
		Body: fmt.Sprintf("Dear Customer,\n\nThis is a gentle follow up on quotation %s sent against your inquiry %s. We would be glad to hear your feedback.\n\nRegards,\nSpectrasynth Pharmachem",
			full.QuotationNumber, full.InquiryNumber),
	}
	if full.QuotationPDF != "" {
		msg.AttachmentPath = filepath.Join(s.uploadRoot, full.QuotationPDF)
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return err
	}

	if full.ReminderDays != nil && *full.ReminderDays > 0 {
		next := now.AddDate(0, 0, *full.ReminderDays)
		full.NextReminderDate = &next
	} else {
		full.ReminderActive = false
		full.NextReminderDate = nil
	}
	return s.quotationRepo.Save(ctx, full)
}

// DocumentURL returns a temporary download link for the quotation's current
// document from the object-storage archive. Revised quotations resolve to
// their newest revision artifact.
func (s *QuotationService) DocumentURL(ctx context.Context, quotationNumber string, expirySeconds int) (string, error) {
	q, err := s.Get(ctx, quotationNumber)
	if err != nil {
		return "", err
	}

	path := q.QuotationPDF
	latest, err := s.revisionRepo.LatestSnapshot(ctx, quotationNumber)
	if err == nil && latest.PDFPath != "" {
		path = latest.PDFPath
	} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return "", err
	}
	if path == "" {
		return "", fmt.Errorf("%w: quotation %s has no rendered document", ErrNotFound, quotationNumber)
	}
	if s.artifacts == nil {
		return "", fmt.Errorf("%w: object storage not configured", ErrValidation)
	}
	return s.artifacts.PresignedURL(ctx, path, expirySeconds)
}

// forwardSlot latches one inquiry stage slot after a quotation event. A slot
// that already forwarded is left untouched.
func (s *QuotationService) forwardSlot(ctx context.Context, inquiryNumber string, slot StageSlot, actor string) error {
	inq, err := s.inquiryRepo.FindByNumber(ctx, inquiryNumber)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}
	if actor == "" {
		actor = "System"
	}
	if err := advanceStage(inq, slot, actor, time.Now()); err != nil {
		if errors.Is(err, ErrConflict) {
			return nil
		}
		return err
	}
	if err := s.inquiryRepo.Save(ctx, inq); err != nil {
		return err
	}
	s.logger.Info("inquiry stage forwarded",
		zap.String("inquiry_number", inquiryNumber),
		zap.String("slot", string(slot)),
		zap.String("current_stage", inq.CurrentStage),
	)
	return nil
}

// Delete removes a quotation with its line items.
func (s *QuotationService) Delete(ctx context.Context, quotationNumber string) error {
	q, err := s.Get(ctx, quotationNumber)
	if err != nil {
		return err
	}
	if q.QuotationStatus == entity.QuotationStatusGeneratePO {
		return fmt.Errorf("%w: quotation %s has a purchase order", ErrConflict, quotationNumber)
	}
	if err := s.quotationRepo.Delete(ctx, quotationNumber); err != nil {
		return err
	}
	s.logger.Info("quotation deleted", zap.String("quotation_number", quotationNumber))
	return nil
}

// nextNumber allocates the next quotation number SS-Q-YYMM-NNN. The running
// sequence resets each month.
func (s *QuotationService) nextNumber(ctx context.Context, now time.Time) (string, error) {
	last, err := s.quotationRepo.LastNumber(ctx)
	if err != nil {
		return "", err
	}

	period := now.Format("0601")
	seq := 1
	if last != "" {
		parts := strings.Split(last, "-")
		if len(parts) == 4 && parts[2] == period {
			if n, convErr := strconv.Atoi(parts[3]); convErr == nil {
				seq = n + 1
			}
		}
	}
	return fmt.Sprintf("SS-Q-%s-%03d", period, seq), nil
}

// renderBase renders revision 0 of the document and stamps the path.
func (s *QuotationService) renderBase(ctx context.Context, q *entity.Quotation, inquiry *entity.Inquiry) error {
	renderCtx, cancel := context.WithTimeout(ctx, s.renderTimeout)
	defer cancel()

	if inquiry == nil {
		inquiry = &entity.Inquiry{InquiryNumber: q.InquiryNumber}
	}
	path, err := s.renderer.RenderQuotation(renderCtx, q, snapshotFromProducts(q.Products), inquiry, 0)
	if err != nil {
		return fmt.Errorf("%w: quotation %s: %v", ErrRender, q.QuotationNumber, err)
	}
	q.QuotationPDF = path
	if err := s.quotationRepo.Save(ctx, q); err != nil {
		return err
	}

	if s.artifacts != nil {
		if err := s.artifacts.Upload(ctx, path); err != nil {
			s.logger.Warn("artifact archive failed", zap.String("path", path), zap.Error(err))
		}
	}
	return nil
}

func lineTotal(products []entity.QuotationProduct) float64 {
	total := 0.0
	for _, p := range products {
		total += float64(p.Quantity) * p.Price
	}
	return total
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Shido75/Spectrasynth-CRM/internal/entity"
	"github.com/Shido75/Spectrasynth-CRM/internal/repository"
	"go.uber.org/zap"
)

// InquiryService handles inquiry intake and stage progression.
type InquiryService struct {
	inquiryRepo   *repository.InquiryRepository
	quotationRepo *repository.QuotationRepository
	logger        *zap.Logger
}

func NewInquiryService(inquiryRepo *repository.InquiryRepository, quotationRepo *repository.QuotationRepository, logger *zap.Logger) *InquiryService {
	return &InquiryService{
		inquiryRepo:   inquiryRepo,
		quotationRepo: quotationRepo,
		logger:        logger,
	}
}

// CreateInquiryRequest is the intake payload. The inquiry number is
// allocated by the service.
type CreateInquiryRequest struct {
	CustomerName string                `json:"customer_name"`
	Email        string                `json:"email" binding:"required"`
	Products     []InquiryProductInput `json:"products" binding:"required"`
}

// InquiryProductInput is one requested chemical on intake.
type InquiryProductInput struct {
	ProductName string  `json:"product_name" binding:"required"`
	CASNumber   string  `json:"cas_number"`
	ProductCode string  `json:"product_code"`
	QuantityReq float64 `json:"quantity_required"`
	ImageURL    string  `json:"image_url"`
}

// Create registers a new inquiry at the first pipeline stage.
func (s *InquiryService) Create(ctx context.Context, req *CreateInquiryRequest) (*entity.Inquiry, error) {
	if req.Email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrValidation)
	}
	if len(req.Products) == 0 {
		return nil, fmt.Errorf("%w: at least one product is required", ErrValidation)
	}
	for _, p := range req.Products {
		if strings.TrimSpace(p.ProductName) == "" {
			return nil, fmt.Errorf("%w: product name is required", ErrValidation)
		}
	}

	number, err := s.inquiryRepo.GenerateNumber(ctx)
	if err != nil {
		return nil, err
	}

	customer := req.CustomerName
	if customer == "" {
		customer = "Unknown"
	}

	inq := &entity.Inquiry{
		InquiryNumber: number,
		CustomerName:  customer,
		Email:         req.Email,
		CurrentStage:  entity.StageInquiryReceived,

		InquiryStatus:       entity.StageStatusPending,
		TechnicalStatus:     entity.StageStatusPending,
		ManagementStatus:    entity.StageStatusPending,
		PurchaseOrderStatus: entity.StageStatusPending,
	}

	products := make([]entity.InquiryProduct, 0, len(req.Products))
	for _, p := range req.Products {
		name := p.ProductName
		cas := p.CASNumber
		code := p.ProductCode
		if cas == "" {
			cas = "N/A"
		}
		if code == "" {
			code = "N/A"
		}
		products = append(products, entity.InquiryProduct{
			ProductName: name,
			CASNumber:   cas,
			ProductCode: code,
			QuantityReq: p.QuantityReq,
			ImageURL:    p.ImageURL,
		})
	}

	if err := s.inquiryRepo.Create(ctx, inq, products); err != nil {
		return nil, err
	}
	inq.Products = products

	s.logger.Info("inquiry created",
		zap.String("inquiry_number", inq.InquiryNumber),
		zap.String("customer", inq.CustomerName),
		zap.Int("products", len(products)),
	)
	return inq, nil
}

// List returns inquiries, optionally filtered by stage or search term.
func (s *InquiryService) List(ctx context.Context, filters map[string]string) ([]entity.Inquiry, error) {
	return s.inquiryRepo.FindAll(ctx, filters)
}

// ListProcessed returns inquiries that left the intake stage.
func (s *InquiryService) ListProcessed(ctx context.Context) ([]entity.Inquiry, error) {
	return s.inquiryRepo.FindProcessed(ctx, []string{entity.StageInquiryReceived})
}

// Get loads one inquiry with its requested products.
func (s *InquiryService) Get(ctx context.Context, inquiryNumber string) (*entity.Inquiry, error) {
	inq, err := s.inquiryRepo.FindByNumber(ctx, inquiryNumber)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: inquiry %s", ErrNotFound, inquiryNumber)
		}
		return nil, err
	}
	return inq, nil
}

// UpdateInquiryRequest mutates header fields on an inquiry.
type UpdateInquiryRequest struct {
	CustomerName *string `json:"customer_name"`
	Email        *string `json:"email"`
}

// Update applies header mutations. Stage fields are not editable here;
// forwarding goes through ForwardStage.
func (s *InquiryService) Update(ctx context.Context, inquiryNumber string, req *UpdateInquiryRequest) (*entity.Inquiry, error) {
	inq, err := s.Get(ctx, inquiryNumber)
	if err != nil {
		return nil, err
	}
	if req.CustomerName != nil {
		inq.CustomerName = *req.CustomerName
	}
	if req.Email != nil {
		if *req.Email == "" {
			return nil, fmt.Errorf("%w: email cannot be empty", ErrValidation)
		}
		inq.Email = *req.Email
	}
	if err := s.inquiryRepo.Save(ctx, inq); err != nil {
		return nil, err
	}
	return inq, nil
}

// UpdateProductRequest mutates one requested line, addressed by its current
// product name on the inquiry.
type UpdateProductRequest struct {
	ProductName string   `json:"product_name" binding:"required"`
	NewName     *string  `json:"new_name"`
	CASNumber   *string  `json:"cas_number"`
	ProductCode *string  `json:"product_code"`
	QuantityReq *float64 `json:"quantity_required"`
	ImageURL    *string  `json:"image_url"`
}

// UpdateProduct edits one requested product line in place.
func (s *InquiryService) UpdateProduct(ctx context.Context, inquiryNumber string, req *UpdateProductRequest) (*entity.InquiryProduct, error) {
	p, err := s.inquiryRepo.FindProductByName(ctx, inquiryNumber, req.ProductName)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: product %q on inquiry %s", ErrNotFound, req.ProductName, inquiryNumber)
		}
		return nil, err
	}

	if req.NewName != nil && *req.NewName != "" {
		p.ProductName = *req.NewName
	}
	if req.CASNumber != nil {
		p.CASNumber = *req.CASNumber
	}
	if req.ProductCode != nil {
		p.ProductCode = *req.ProductCode
	}
	if req.QuantityReq != nil {
		p.QuantityReq = *req.QuantityReq
	}
	if req.ImageURL != nil {
		p.ImageURL = *req.ImageURL
	}

	if err := s.inquiryRepo.UpdateProduct(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ForwardStage forwards one stage slot of the inquiry. A slot forwards
// exactly once; repeating the call fails with ErrConflict.
func (s *InquiryService) ForwardStage(ctx context.Context, inquiryNumber string, slot StageSlot, actor string) (*entity.Inquiry, error) {
	inq, err := s.Get(ctx, inquiryNumber)
	if err != nil {
		return nil, err
	}
	if actor == "" {
		actor = "System"
	}

	if err := advanceStage(inq, slot, actor, time.Now()); err != nil {
		return nil, err
	}
	if err := s.inquiryRepo.Save(ctx, inq); err != nil {
		return nil, err
	}

	s.logger.Info("inquiry stage forwarded",
		zap.String("inquiry_number", inquiryNumber),
		zap.String("slot", string(slot)),
		zap.String("current_stage", inq.CurrentStage),
		zap.String("actor", actor),
	)
	return inq, nil
}

// Delete removes an inquiry. Inquiries that already have quotations are
// protected.
func (s *InquiryService) Delete(ctx context.Context, inquiryNumber string) error {
	if _, err := s.Get(ctx, inquiryNumber); err != nil {
		return err
	}
	has, err := s.inquiryRepo.HasQuotations(ctx, inquiryNumber)
	if err != nil {
		return err
	}
	if has {
		return fmt.Errorf("%w: inquiry %s has quotations", ErrConflict, inquiryNumber)
	}
	if err := s.inquiryRepo.Delete(ctx, inquiryNumber); err != nil {
		return err
	}
	s.logger.Info("inquiry deleted", zap.String("inquiry_number", inquiryNumber))
	return nil
}

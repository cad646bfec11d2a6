package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Shido75/Spectrasynth-CRM/internal/entity"
	"github.com/Shido75/Spectrasynth-CRM/internal/repository"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ProductService manages the chemical catalog and per-company prices,
// including Excel export and import.
type ProductService struct {
	productRepo *repository.ProductRepository
	logger      *zap.Logger
}

func NewProductService(productRepo *repository.ProductRepository, logger *zap.Logger) *ProductService {
	return &ProductService{productRepo: productRepo, logger: logger}
}

// CreateProductRequest registers a catalog entry.
type CreateProductRequest struct {
	ProductName string `json:"product_name" binding:"required"`
	CASNumber   string `json:"cas_number"`
	ProductCode string `json:"product_code"`
	Status      string `json:"status"`
}

// Create registers a catalog entry. Product names are unique.
func (s *ProductService) Create(ctx context.Context, req *CreateProductRequest) (*entity.Product, error) {
	name := strings.TrimSpace(req.ProductName)
	if name == "" {
		return nil, fmt.Errorf("%w: product name is required", ErrValidation)
	}
	if _, err := s.productRepo.FindByName(ctx, name); err == nil {
		return nil, fmt.Errorf("%w: product %q already exists", ErrConflict, name)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = entity.ProductStatusActive
	}
	if !validProductStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}

	p := &entity.Product{
		ProductName: name,
		CASNumber:   orDefault(req.CASNumber, "N/A"),
		ProductCode: orDefault(req.ProductCode, "N/A"),
		Status:      status,
	}
	if err := s.productRepo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("product created", zap.String("product_name", p.ProductName))
	return p, nil
}

// List returns catalog entries, optionally filtered.
func (s *ProductService) List(ctx context.Context, filters map[string]string) ([]entity.Product, error) {
	return s.productRepo.FindAll(ctx, filters)
}

// Get loads one catalog entry.
func (s *ProductService) Get(ctx context.Context, id uint) (*entity.Product, error) {
	p, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: product %d", ErrNotFound, id)
		}
		return nil, err
	}
	return p, nil
}

// UpdateProductCatalogRequest mutates a catalog entry.
type UpdateProductCatalogRequest struct {
	ProductName *string `json:"product_name"`
	CASNumber   *string `json:"cas_number"`
	ProductCode *string `json:"product_code"`
	Status      *string `json:"status"`
}

// Update applies catalog mutations.
func (s *ProductService) Update(ctx context.Context, id uint, req *UpdateProductCatalogRequest) (*entity.Product, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.ProductName != nil && *req.ProductName != "" {
		p.ProductName = *req.ProductName
	}
	if req.CASNumber != nil {
		p.CASNumber = *req.CASNumber
	}
	if req.ProductCode != nil {
		p.ProductCode = *req.ProductCode
	}
	if req.Status != nil {
		if !validProductStatus(*req.Status) {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, *req.Status)
		}
		p.Status = *req.Status
	}
	if err := s.productRepo.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes a catalog entry with its prices.
func (s *ProductService) Delete(ctx context.Context, id uint) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.productRepo.Delete(ctx, id)
}

// SetPriceRequest records a per-company offer for a product.
type SetPriceRequest struct {
	ProductID uint    `json:"product_id" binding:"required"`
	Company   string  `json:"company" binding:"required"`
	Price     float64 `json:"price" binding:"required"`
	Quantity  int     `json:"quantity"`
	Unit      string  `json:"unit"`
}

// SetPrice creates or updates the offer for one (product, company) pair.
func (s *ProductService) SetPrice(ctx context.Context, req *SetPriceRequest) (*entity.ProductPrice, error) {
	if req.Price <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", ErrValidation)
	}
	unit := orDefault(req.Unit, entity.UnitMg)
	switch unit {
	case entity.UnitMg, entity.UnitGm, entity.UnitMl, entity.UnitKg, entity.UnitLtr:
	default:
		return nil, fmt.Errorf("%w: unknown unit %q", ErrValidation, unit)
	}
	if _, err := s.Get(ctx, req.ProductID); err != nil {
		return nil, err
	}

	pp, err := s.productRepo.FindPrice(ctx, req.ProductID, req.Company)
	if errors.Is(err, repository.ErrNotFound) {
		pp = &entity.ProductPrice{
			ProductID: req.ProductID,
			Company:   req.Company,
			Price:     req.Price,
			Quantity:  req.Quantity,
			Unit:      unit,
		}
		if err := s.productRepo.CreatePrice(ctx, pp); err != nil {
			return nil, err
		}
		return pp, nil
	}
	if err != nil {
		return nil, err
	}

	pp.Price = req.Price
	pp.Quantity = req.Quantity
	pp.Unit = unit
	if err := s.productRepo.SavePrice(ctx, pp); err != nil {
		return nil, err
	}
	return pp, nil
}

// ListPrices returns all company prices with their product.
func (s *ProductService) ListPrices(ctx context.Context) ([]entity.ProductPrice, error) {
	return s.productRepo.FindAllPrices(ctx)
}

// DeletePrice removes one offer.
func (s *ProductService) DeletePrice(ctx context.Context, id uint) error {
	if _, err := s.productRepo.FindPriceByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: price %d", ErrNotFound, id)
		}
		return err
	}
	return s.productRepo.DeletePrice(ctx, id)
}

var catalogExportHeader = []string{"Product Name", "CAS Number", "Product Code", "Status", "Company", "Price", "Quantity", "Unit"}

// ExportExcel renders the catalog with prices as a workbook, one row per
// (product, company) offer and one row for products without offers.
func (s *ProductService) ExportExcel(ctx context.Context) (*excelize.File, error) {
	products, err := s.productRepo.FindAllWithPrices(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	const sheet = "Products"
	f.SetSheetName(f.GetSheetName(0), sheet)

	for i, h := range catalogExportHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	row := 2
	writeRow := func(p entity.Product, pp *entity.ProductPrice) {
		values := []interface{}{p.ProductName, p.CASNumber, p.ProductCode, p.Status, "", "", "", ""}
		if pp != nil {
			values[4] = pp.Company
			values[5] = pp.Price
			values[6] = pp.Quantity
			values[7] = pp.Unit
		}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			f.SetCellValue(sheet, cell, v)
		}
		row++
	}

	for _, p := range products {
		if len(p.Prices) == 0 {
			writeRow(p, nil)
			continue
		}
		for i := range p.Prices {
			writeRow(p, &p.Prices[i])
		}
	}
	return f, nil
}

// ImportResult summarizes one catalog import.
type ImportResult struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Prices  int      `json:"prices"`
	Skipped []string `json:"skipped,omitempty"`
}

// ImportExcel ingests a workbook in the export layout. Existing products are
// updated by name, unknown rows are skipped with a note, prices upsert per
// (product, company).
func (s *ProductService) ImportExcel(ctx context.Context, r io.Reader) (*ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read workbook: %v", ErrValidation, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read sheet %s: %v", ErrValidation, sheet, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: workbook has no data rows", ErrValidation)
	}

	result := &ImportResult{}
	for i, cells := range rows[1:] {
		rowNum := i + 2
		name := strings.TrimSpace(cellAt(cells, 0))
		if name == "" {
			result.Skipped = append(result.Skipped, fmt.Sprintf("row %d: missing product name", rowNum))
			continue
		}

		status := strings.TrimSpace(cellAt(cells, 3))
		if status != "" && !validProductStatus(status) {
			result.Skipped = append(result.Skipped, fmt.Sprintf("row %d: unknown status %q", rowNum, status))
			status = ""
		}

		p, err := s.productRepo.FindByName(ctx, name)
		if errors.Is(err, repository.ErrNotFound) {
			p = &entity.Product{
				ProductName: name,
				CASNumber:   orDefault(strings.TrimSpace(cellAt(cells, 1)), "N/A"),
				ProductCode: orDefault(strings.TrimSpace(cellAt(cells, 2)), "N/A"),
				Status:      orDefault(status, entity.ProductStatusActive),
			}
			if err := s.productRepo.Create(ctx, p); err != nil {
				return nil, err
			}
			result.Created++
		} else if err != nil {
			return nil, err
		} else {
			if cas := strings.TrimSpace(cellAt(cells, 1)); cas != "" {
				p.CASNumber = cas
			}
			if code := strings.TrimSpace(cellAt(cells, 2)); code != "" {
				p.ProductCode = code
			}
			if status != "" {
				p.Status = status
			}
			if err := s.productRepo.Save(ctx, p); err != nil {
				return nil, err
			}
			result.Updated++
		}

		company := strings.TrimSpace(cellAt(cells, 4))
		priceRaw := strings.TrimSpace(cellAt(cells, 5))
		if company == "" || priceRaw == "" {
			continue
		}
		price, err := strconv.ParseFloat(priceRaw, 64)
		if err != nil || price <= 0 {
			result.Skipped = append(result.Skipped, fmt.Sprintf("row %d: bad price %q", rowNum, priceRaw))
			continue
		}
		quantity := 0
		if qRaw := strings.TrimSpace(cellAt(cells, 6)); qRaw != "" {
			if n, convErr := strconv.Atoi(qRaw); convErr == nil {
				quantity = n
			}
		}
		_, err = s.SetPrice(ctx, &SetPriceRequest{
			ProductID: p.ID,
			Company:   company,
			Price:     price,
			Quantity:  quantity,
			Unit:      strings.TrimSpace(cellAt(cells, 7)),
		})
		if err != nil {
			result.Skipped = append(result.Skipped, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}
		result.Prices++
	}

	s.logger.Info("catalog import finished",
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("prices", result.Prices),
		zap.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}

func cellAt(cells []string, idx int) string {
	if idx < len(cells) {
		return cells[idx]
	}
	return ""
}

func validProductStatus(s string) bool {
	return s == entity.ProductStatusActive || s == entity.ProductStatusInactive
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

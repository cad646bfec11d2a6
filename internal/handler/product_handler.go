package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Shido75/Spectrasynth-CRM/internal/service"
	"github.com/gin-gonic/gin"
)

// ProductHandler serves the chemical catalog and company prices.
type ProductHandler struct {
	svc *service.ProductService
}

func NewProductHandler(svc *service.ProductService) *ProductHandler {
	return &ProductHandler{svc: svc}
}

// Create registers a catalog entry.
// POST /api/v1/products
func (h *ProductHandler) Create(c *gin.Context) {
	var req service.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	p, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, p)
}

// List returns catalog entries.
// GET /api/v1/products?status=&search=
func (h *ProductHandler) List(c *gin.Context) {
	filters := map[string]string{
		"status": c.Query("status"),
		"search": c.Query("search"),
	}
	items, err := h.svc.List(c.Request.Context(), filters)
	if err != nil {
		InternalError(c, "failed to list products: "+err.Error())
		return
	}
	Success(c, gin.H{"items": items})
}

// Get returns one catalog entry.
// GET /api/v1/products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := ParamUint(c, "id")
	if !ok {
		return
	}
	p, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, p)
}

// Update mutates a catalog entry.
// PUT /api/v1/products/:id
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := ParamUint(c, "id")
	if !ok {
		return
	}
	var req service.UpdateProductCatalogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	p, err := h.svc.Update(c.Request.Context(), id, &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, p)
}

// Delete removes a catalog entry with its prices.
// DELETE /api/v1/products/:id
func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := ParamUint(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"message": "product deleted"})
}

// SetPrice creates or updates a company offer.
// POST /api/v1/products/prices
func (h *ProductHandler) SetPrice(c *gin.Context) {
	var req service.SetPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	pp, err := h.svc.SetPrice(c.Request.Context(), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, pp)
}

// ListPrices returns all company offers.
// GET /api/v1/products/prices
func (h *ProductHandler) ListPrices(c *gin.Context) {
	items, err := h.svc.ListPrices(c.Request.Context())
	if err != nil {
		InternalError(c, "failed to list prices: "+err.Error())
		return
	}
	Success(c, gin.H{"items": items})
}

// DeletePrice removes one company offer.
// DELETE /api/v1/products/prices/:id
func (h *ProductHandler) DeletePrice(c *gin.Context) {
	id, ok := ParamUint(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeletePrice(c.Request.Context(), id); err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"message": "price deleted"})
}

// Export streams the catalog as an Excel workbook.
// GET /api/v1/products/export
func (h *ProductHandler) Export(c *gin.Context) {
	f, err := h.svc.ExportExcel(c.Request.Context())
	if err != nil {
		InternalError(c, "failed to export catalog: "+err.Error())
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("products-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := f.Write(c.Writer); err != nil {
		c.Status(http.StatusInternalServerError)
	}
}

// Import ingests an Excel workbook in the export layout.
// POST /api/v1/products/import
func (h *ProductHandler) Import(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "file is required")
		return
	}
	src, err := file.Open()
	if err != nil {
		BadRequest(c, "cannot open upload: "+err.Error())
		return
	}
	defer src.Close()

	result, err := h.svc.ImportExcel(c.Request.Context(), src)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, result)
}

package handler

import (
	"github.com/Shido75/Spectrasynth-CRM/internal/service"
	"github.com/gin-gonic/gin"
)

// InquiryHandler serves inquiry intake and stage progression.
type InquiryHandler struct {
	svc          *service.InquiryService
	quotationSvc *service.QuotationService
}

func NewInquiryHandler(svc *service.InquiryService, quotationSvc *service.QuotationService) *InquiryHandler {
	return &InquiryHandler{svc: svc, quotationSvc: quotationSvc}
}

// Create registers a new inquiry.
// POST /api/v1/inquiries
func (h *InquiryHandler) Create(c *gin.Context) {
	var req service.CreateInquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	inq, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, inq)
}

// List returns inquiries.
// GET /api/v1/inquiries?current_stage=&search=
func (h *InquiryHandler) List(c *gin.Context) {
	filters := map[string]string{
		"current_stage": c.Query("current_stage"),
		"search":        c.Query("search"),
	}
	items, err := h.svc.List(c.Request.Context(), filters)
	if err != nil {
		InternalError(c, "failed to list inquiries: "+err.Error())
		return
	}
	Success(c, gin.H{"items": items})
}

// ListProcessed returns inquiries past the intake stage.
// GET /api/v1/inquiries/processed
func (h *InquiryHandler) ListProcessed(c *gin.Context) {
	items, err := h.svc.ListProcessed(c.Request.Context())
	if err != nil {
		InternalError(c, "failed to list processed inquiries: "+err.Error())
		return
	}
	Success(c, gin.H{"items": items})
}

// Get returns one inquiry.
// GET /api/v1/inquiries/:number
func (h *InquiryHandler) Get(c *gin.Context) {
	inq, err := h.svc.Get(c.Request.Context(), c.Param("number"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, inq)
}

// Update mutates inquiry header fields.
// PUT /api/v1/inquiries/:number
func (h *InquiryHandler) Update(c *gin.Context) {
	var req service.UpdateInquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	inq, err := h.svc.Update(c.Request.Context(), c.Param("number"), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, inq)
}

// UpdateProduct edits one requested product line.
// PUT /api/v1/inquiries/:number/products
func (h *InquiryHandler) UpdateProduct(c *gin.Context) {
	var req service.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	p, err := h.svc.UpdateProduct(c.Request.Context(), c.Param("number"), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, p)
}

type forwardStageRequest struct {
	Slot string `json:"slot" binding:"required"`
}

// ForwardStage forwards one pipeline slot.
// POST /api/v1/inquiries/:number/forward
func (h *InquiryHandler) ForwardStage(c *gin.Context) {
	var req forwardStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	slot := service.StageSlot(req.Slot)
	switch slot {
	case service.SlotInquiry, service.SlotTechnical, service.SlotManagement, service.SlotPurchaseOrder:
	default:
		BadRequest(c, "unknown stage slot: "+req.Slot)
		return
	}

	inq, err := h.svc.ForwardStage(c.Request.Context(), c.Param("number"), slot, Actor(c))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, inq)
}

// LatestQuotation returns the newest quotation drafted for the inquiry.
// GET /api/v1/inquiries/:number/quotation
func (h *InquiryHandler) LatestQuotation(c *gin.Context) {
	q, err := h.quotationSvc.GetLatestForInquiry(c.Request.Context(), c.Param("number"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, q)
}

// Delete removes an inquiry without quotations.
// DELETE /api/v1/inquiries/:number
func (h *InquiryHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("number")); err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"message": "inquiry deleted"})
}

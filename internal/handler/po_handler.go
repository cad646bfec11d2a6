package handler

import (
	"github.com/Shido75/Spectrasynth-CRM/internal/service"
	"github.com/gin-gonic/gin"
)

// POHandler serves purchase orders.
type POHandler struct {
	svc *service.POService
}

func NewPOHandler(svc *service.POService) *POHandler {
	return &POHandler{svc: svc}
}

// Create generates a purchase order from a quotation.
// POST /api/v1/purchase-orders
func (h *POHandler) Create(c *gin.Context) {
	var req service.CreatePORequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	po, err := h.svc.Create(c.Request.Context(), &req, Actor(c))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, po)
}

// List returns all purchase orders.
// GET /api/v1/purchase-orders
func (h *POHandler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		InternalError(c, "failed to list purchase orders: "+err.Error())
		return
	}
	Success(c, gin.H{"items": items})
}

// Get returns one purchase order.
// GET /api/v1/purchase-orders/:number
func (h *POHandler) Get(c *gin.Context) {
	po, err := h.svc.Get(c.Request.Context(), c.Param("number"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, po)
}

// Confirm marks an active purchase order as confirmed.
// POST /api/v1/purchase-orders/:number/confirm
func (h *POHandler) Confirm(c *gin.Context) {
	po, err := h.svc.Confirm(c.Request.Context(), c.Param("number"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, po)
}

// Cancel voids a purchase order.
// POST /api/v1/purchase-orders/:number/cancel
func (h *POHandler) Cancel(c *gin.Context) {
	po, err := h.svc.Cancel(c.Request.Context(), c.Param("number"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, po)
}

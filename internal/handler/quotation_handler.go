package handler

import (
	"strconv"

	"github.com/Shido75/Spectrasynth-CRM/internal/service"
	"github.com/gin-gonic/gin"
)

// QuotationHandler serves quotation lifecycle, revisions and reminders.
type QuotationHandler struct {
	svc         *service.QuotationService
	revisionSvc *service.RevisionService
}

func NewQuotationHandler(svc *service.QuotationService, revisionSvc *service.RevisionService) *QuotationHandler {
	return &QuotationHandler{svc: svc, revisionSvc: revisionSvc}
}

// Create drafts a quotation against an inquiry.
// POST /api/v1/quotations
func (h *QuotationHandler) Create(c *gin.Context) {
	var req service.CreateQuotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	q, err := h.svc.Create(c.Request.Context(), &req, Actor(c))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, q)
}

// List returns all quotations.
// GET /api/v1/quotations
func (h *QuotationHandler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		InternalError(c, "failed to list quotations: "+err.Error())
		return
	}
	Success(c, gin.H{"items": items})
}

// ListProcessed returns quotations past the draft state.
// GET /api/v1/quotations/processed
func (h *QuotationHandler) ListProcessed(c *gin.Context) {
	items, err := h.svc.ListProcessed(c.Request.Context())
	if err != nil {
		InternalError(c, "failed to list processed quotations: "+err.Error())
		return
	}
	Success(c, gin.H{"items": items})
}

// Get returns one quotation with line items.
// GET /api/v1/quotations/:number
func (h *QuotationHandler) Get(c *gin.Context) {
	q, err := h.svc.Get(c.Request.Context(), c.Param("number"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, q)
}

// Update applies header edits and, before any revision exists, direct line
// replacements.
// PUT /api/v1/quotations/:number
func (h *QuotationHandler) Update(c *gin.Context) {
	var req service.EditQuotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	q, err := h.svc.Edit(c.Request.Context(), c.Param("number"), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, q)
}

// Finalise moves the quotation out of the draft state.
// POST /api/v1/quotations/:number/finalise
func (h *QuotationHandler) Finalise(c *gin.Context) {
	q, err := h.svc.Finalise(c.Request.Context(), c.Param("number"), Actor(c))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, q)
}

// SendEmail mails the quotation document to the customer.
// POST /api/v1/quotations/:number/email
func (h *QuotationHandler) SendEmail(c *gin.Context) {
	var req service.SendEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	q, err := h.svc.SendEmail(c.Request.Context(), c.Param("number"), &req, Actor(c))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, q)
}

// CreateRevision applies a change set as the next numbered revision.
// POST /api/v1/quotations/:number/revisions
func (h *QuotationHandler) CreateRevision(c *gin.Context) {
	var req service.CreateRevisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	rev, err := h.revisionSvc.CreateRevision(c.Request.Context(), c.Param("number"), &req, Actor(c))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, rev)
}

// ListRevisions returns the annotated revision history, oldest first.
// GET /api/v1/quotations/:number/revisions
func (h *QuotationHandler) ListRevisions(c *gin.Context) {
	history, err := h.revisionSvc.GetRevisionHistory(c.Request.Context(), c.Param("number"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": history})
}

// FieldLog returns the raw append-only change rows, newest first.
// GET /api/v1/quotations/:number/revisions/log
func (h *QuotationHandler) FieldLog(c *gin.Context) {
	rows, err := h.revisionSvc.GetFieldLog(c.Request.Context(), c.Param("number"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": rows})
}

// SetReminder arms the follow-up reminder.
// POST /api/v1/quotations/:number/reminder
func (h *QuotationHandler) SetReminder(c *gin.Context) {
	var req service.SetReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	q, err := h.svc.SetReminder(c.Request.Context(), c.Param("number"), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, q)
}

// DocumentURL returns a temporary download link for the current document
// from the object-storage archive.
// GET /api/v1/quotations/:number/document?expiry=600
func (h *QuotationHandler) DocumentURL(c *gin.Context) {
	expiry := 600
	if raw := c.Query("expiry"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			BadRequest(c, "expiry must be a positive number of seconds")
			return
		}
		expiry = n
	}
	url, err := h.svc.DocumentURL(c.Request.Context(), c.Param("number"), expiry)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"url": url, "expiry_seconds": expiry})
}

// StopReminder disarms the follow-up reminder.
// DELETE /api/v1/quotations/:number/reminder
func (h *QuotationHandler) StopReminder(c *gin.Context) {
	q, err := h.svc.StopReminder(c.Request.Context(), c.Param("number"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, q)
}

// Delete removes a quotation that has not produced a purchase order.
// DELETE /api/v1/quotations/:number
func (h *QuotationHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("number")); err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"message": "quotation deleted"})
}

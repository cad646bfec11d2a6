package handler_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/Shido75/Spectrasynth-CRM/internal/entity"
	"github.com/Shido75/Spectrasynth-CRM/internal/handler"
	"github.com/Shido75/Spectrasynth-CRM/internal/middleware"
	"github.com/Shido75/Spectrasynth-CRM/internal/service"
	"github.com/Shido75/Spectrasynth-CRM/internal/testutil"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type apiFixture struct {
	router *gin.Engine
	db     *gorm.DB
	svc    *service.Services
	token  string
	user   *entity.User
}

// setupAPI builds the gated API surface used by the workflow tests and an
// authenticated operator holding every grant.
func setupAPI(t *testing.T) *apiFixture {
	t.Helper()

	db := testutil.SetupTestDB(t)
	svc := testutil.BuildServices(t, db)
	h := handler.NewHandlers(svc)

	user := testutil.SeedTestUser(t, db, "Ravi", "ravi@spectrasynth.example", "secret12")
	testutil.GrantAllModules(t, db, user.ID)

	r := testutil.SetupRouter()
	api := r.Group("/api/v1")
	api.Use(middleware.JWTAuth(svc.Auth))

	gate := func(module, action string) gin.HandlerFunc {
		return middleware.RequireModulePermission(svc.Auth, module, action)
	}

	inquiries := api.Group("/inquiries")
	{
		inquiries.POST("", gate(entity.ModuleInquiry, entity.ActionCreate), h.Inquiry.Create)
		inquiries.GET("", gate(entity.ModuleInquiry, entity.ActionRead), h.Inquiry.List)
		inquiries.GET("/:number", gate(entity.ModuleInquiry, entity.ActionRead), h.Inquiry.Get)
		inquiries.POST("/:number/forward", gate(entity.ModuleInquiry, entity.ActionUpdate), h.Inquiry.ForwardStage)
		inquiries.GET("/:number/quotation", gate(entity.ModuleQuotation, entity.ActionRead), h.Inquiry.LatestQuotation)
		inquiries.DELETE("/:number", gate(entity.ModuleInquiry, entity.ActionDelete), h.Inquiry.Delete)
	}

	quotations := api.Group("/quotations")
	{
		quotations.POST("", gate(entity.ModuleQuotation, entity.ActionCreate), h.Quotation.Create)
		quotations.GET("/:number", gate(entity.ModuleQuotation, entity.ActionRead), h.Quotation.Get)
		quotations.PUT("/:number", gate(entity.ModuleQuotation, entity.ActionUpdate), h.Quotation.Update)
		quotations.POST("/:number/revisions", gate(entity.ModuleQuotation, entity.ActionUpdate), h.Quotation.CreateRevision)
		quotations.GET("/:number/revisions", gate(entity.ModuleQuotation, entity.ActionRead), h.Quotation.ListRevisions)
		quotations.POST("/:number/reminder", gate(entity.ModuleQuotation, entity.ActionUpdate), h.Quotation.SetReminder)
	}

	pos := api.Group("/purchase-orders")
	{
		pos.POST("", gate(entity.ModulePurchaseOrder, entity.ActionCreate), h.PO.Create)
		pos.POST("/:number/cancel", gate(entity.ModulePurchaseOrder, entity.ActionUpdate), h.PO.Cancel)
	}

	return &apiFixture{
		router: r,
		db:     db,
		svc:    svc,
		token:  testutil.GenerateTestToken(user.ID, user.Name, nil),
		user:   user,
	}
}

func (f *apiFixture) createInquiry(t *testing.T) string {
	t.Helper()
	w := testutil.DoRequest(f.router, http.MethodPost, "/api/v1/inquiries", gin.H{
		"email": "buyer@acme.example",
		"products": []gin.H{
			{"product_name": "Ethanol", "cas_number": "64-17-5", "quantity_required": 10},
		},
	}, f.token)
	if w.Code != http.StatusCreated {
		t.Fatalf("create inquiry: status %d body %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	return data["inquiry_number"].(string)
}

func (f *apiFixture) createQuotation(t *testing.T, inquiryNumber string) string {
	t.Helper()
	w := testutil.DoRequest(f.router, http.MethodPost, "/api/v1/quotations", gin.H{
		"inquiry_number": inquiryNumber,
		"gst":            18,
		"items": []gin.H{
			{"product_name": "Ethanol", "cas_no": "64-17-5", "quantity": 10, "price": 250, "company_name": "Acme Chem"},
		},
	}, f.token)
	if w.Code != http.StatusCreated {
		t.Fatalf("create quotation: status %d body %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	return data["quotation_number"].(string)
}

func TestAPIRequiresToken(t *testing.T) {
	f := setupAPI(t)

	w := testutil.DoRequest(f.router, http.MethodGet, "/api/v1/inquiries", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}

	w = testutil.DoRequest(f.router, http.MethodGet, "/api/v1/inquiries", nil, "bogus-token")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad token status = %d, want 401", w.Code)
	}
}

func TestAPIEnforcesModulePermission(t *testing.T) {
	f := setupAPI(t)

	// An operator with read-only quotation access cannot draft quotations.
	limited := testutil.SeedTestUser(t, f.db, "Meera", "meera@spectrasynth.example", "secret12")
	if err := f.db.Create(&entity.Permission{
		UserID: limited.ID, ModuleName: entity.ModuleQuotation, CanRead: true,
	}).Error; err != nil {
		t.Fatalf("seed permission: %v", err)
	}
	limitedToken := testutil.GenerateTestToken(limited.ID, limited.Name, nil)

	w := testutil.DoRequest(f.router, http.MethodPost, "/api/v1/quotations", gin.H{
		"inquiry_number": "INQ1",
		"items":          []gin.H{{"product_name": "Ethanol", "quantity": 1, "price": 1}},
	}, limitedToken)
	if w.Code != http.StatusForbidden {
		t.Errorf("create status = %d, want 403", w.Code)
	}

	// No row at all on the inquiry module denies reads too.
	w = testutil.DoRequest(f.router, http.MethodGet, "/api/v1/inquiries", nil, limitedToken)
	if w.Code != http.StatusForbidden {
		t.Errorf("list status = %d, want 403", w.Code)
	}
}

func TestQuotationRevisionFlowOverHTTP(t *testing.T) {
	f := setupAPI(t)

	inqNumber := f.createInquiry(t)
	qNumber := f.createQuotation(t, inqNumber)

	// Read back the line id assigned on creation.
	w := testutil.DoRequest(f.router, http.MethodGet, "/api/v1/quotations/"+qNumber, nil, f.token)
	if w.Code != http.StatusOK {
		t.Fatalf("get quotation: status %d", w.Code)
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	products := data["products"].([]interface{})
	lineID := products[0].(map[string]interface{})["id"].(float64)

	// Revision 1: quantity 10 -> 15.
	w = testutil.DoRequest(f.router, http.MethodPost, "/api/v1/quotations/"+qNumber+"/revisions", gin.H{
		"items": []gin.H{
			{"id": lineID, "product_name": "Ethanol", "cas_no": "64-17-5", "quantity": 15, "price": 250, "company_name": "Acme Chem"},
		},
	}, f.token)
	if w.Code != http.StatusCreated {
		t.Fatalf("create revision: status %d body %s", w.Code, w.Body.String())
	}
	rev := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if rev["revision_number"].(float64) != 1 {
		t.Errorf("revision number = %v, want 1", rev["revision_number"])
	}

	// Direct line edits are rejected once a revision exists.
	w = testutil.DoRequest(f.router, http.MethodPut, "/api/v1/quotations/"+qNumber, gin.H{
		"items": []gin.H{{"product_name": "Toluene", "quantity": 1, "price": 1}},
	}, f.token)
	if w.Code != http.StatusConflict {
		t.Errorf("direct edit status = %d, want 409", w.Code)
	}

	// History carries the single revision.
	w = testutil.DoRequest(f.router, http.MethodGet, "/api/v1/quotations/"+qNumber+"/revisions", nil, f.token)
	if w.Code != http.StatusOK {
		t.Fatalf("list revisions: status %d", w.Code)
	}
	items := testutil.ParseResponse(w)["data"].(map[string]interface{})["items"].([]interface{})
	if len(items) != 1 {
		t.Errorf("history entries = %d, want 1", len(items))
	}
}

func TestSetReminderArmsOverHTTP(t *testing.T) {
	f := setupAPI(t)
	inqNumber := f.createInquiry(t)
	qNumber := f.createQuotation(t, inqNumber)

	// The bare days payload arms the reminder and computes the due date.
	w := testutil.DoRequest(f.router, http.MethodPost, "/api/v1/quotations/"+qNumber+"/reminder", gin.H{
		"reminder_days": 7,
	}, f.token)
	if w.Code != http.StatusOK {
		t.Fatalf("set reminder: status %d body %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if active, _ := data["reminder_active"].(bool); !active {
		t.Error("reminder_active = false after arming")
	}
	if data["next_reminder_date"] == nil {
		t.Error("next_reminder_date not set after arming")
	}
}

func TestForwardStageConflictOverHTTP(t *testing.T) {
	f := setupAPI(t)
	inqNumber := f.createInquiry(t)

	w := testutil.DoRequest(f.router, http.MethodPost, "/api/v1/inquiries/"+inqNumber+"/forward", gin.H{"slot": "inquiry"}, f.token)
	if w.Code != http.StatusOK {
		t.Fatalf("forward: status %d body %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(f.router, http.MethodPost, "/api/v1/inquiries/"+inqNumber+"/forward", gin.H{"slot": "inquiry"}, f.token)
	if w.Code != http.StatusConflict {
		t.Errorf("repeat forward status = %d, want 409", w.Code)
	}

	w = testutil.DoRequest(f.router, http.MethodPost, "/api/v1/inquiries/"+inqNumber+"/forward", gin.H{"slot": "warehouse"}, f.token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad slot status = %d, want 400", w.Code)
	}
}

func TestPurchaseOrderFlowOverHTTP(t *testing.T) {
	f := setupAPI(t)
	inqNumber := f.createInquiry(t)
	qNumber := f.createQuotation(t, inqNumber)

	w := testutil.DoRequest(f.router, http.MethodPost, "/api/v1/purchase-orders", gin.H{
		"quotation_number": qNumber,
	}, f.token)
	if w.Code != http.StatusCreated {
		t.Fatalf("create po: status %d body %s", w.Code, w.Body.String())
	}
	po := testutil.ParseResponse(w)["data"].(map[string]interface{})
	poNumber := po["po_number"].(string)

	// A second live PO for the same quotation conflicts.
	w = testutil.DoRequest(f.router, http.MethodPost, "/api/v1/purchase-orders", gin.H{
		"quotation_number": qNumber,
	}, f.token)
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate po status = %d, want 409", w.Code)
	}

	// Reminders cannot be armed after the PO.
	w = testutil.DoRequest(f.router, http.MethodPost, "/api/v1/quotations/"+qNumber+"/reminder", gin.H{
		"reminder_days": 7,
	}, f.token)
	if w.Code != http.StatusConflict {
		t.Errorf("set reminder status = %d, want 409", w.Code)
	}

	// Cancelling frees the quotation for a replacement order.
	w = testutil.DoRequest(f.router, http.MethodPost, "/api/v1/purchase-orders/"+poNumber+"/cancel", nil, f.token)
	if w.Code != http.StatusOK {
		t.Fatalf("cancel po: status %d", w.Code)
	}
	w = testutil.DoRequest(f.router, http.MethodPost, "/api/v1/purchase-orders", gin.H{
		"quotation_number": qNumber,
	}, f.token)
	if w.Code != http.StatusCreated {
		t.Errorf("replacement po status = %d, want 201", w.Code)
	}
}

func TestDeleteInquiryGuardedByQuotations(t *testing.T) {
	f := setupAPI(t)
	inqNumber := f.createInquiry(t)
	f.createQuotation(t, inqNumber)

	w := testutil.DoRequest(f.router, http.MethodDelete, "/api/v1/inquiries/"+inqNumber, nil, f.token)
	if w.Code != http.StatusConflict {
		t.Errorf("delete status = %d, want 409", w.Code)
	}
}

func TestGetUnknownResources(t *testing.T) {
	f := setupAPI(t)

	for _, path := range []string{
		"/api/v1/inquiries/INQ999",
		"/api/v1/quotations/SS-Q-0000-000",
		"/api/v1/inquiries/INQ999/quotation",
	} {
		w := testutil.DoRequest(f.router, http.MethodGet, path, nil, f.token)
		if w.Code != http.StatusNotFound {
			t.Errorf("%s status = %d, want 404", path, w.Code)
		}
	}
}

func TestCreateInquiryRejectsBadBody(t *testing.T) {
	f := setupAPI(t)

	w := testutil.DoRequest(f.router, http.MethodPost, "/api/v1/inquiries", gin.H{
		"customer_name": "Acme Chem",
	}, f.token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}

	resp := testutil.ParseResponse(w)
	if fmt.Sprintf("%v", resp["code"]) == "" {
		t.Error("error body has no code")
	}
}

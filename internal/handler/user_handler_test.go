package handler_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/Shido75/Spectrasynth-CRM/internal/entity"
	"github.com/Shido75/Spectrasynth-CRM/internal/handler"
	"github.com/Shido75/Spectrasynth-CRM/internal/middleware"
	"github.com/Shido75/Spectrasynth-CRM/internal/testutil"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func setupAuthAPI(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	svc := testutil.BuildServices(t, db)
	h := handler.NewHandlers(svc)

	r := testutil.SetupRouter()
	api := r.Group("/api/v1")
	api.POST("/auth/login", h.Auth.Login)

	authorized := api.Group("")
	authorized.Use(middleware.JWTAuth(svc.Auth))
	authorized.GET("/auth/me", h.Auth.Me)

	users := authorized.Group("/users")
	users.Use(middleware.RequireModulePermission(svc.Auth, entity.ModuleUsers, entity.ActionUpdate))
	users.PUT("/:id/permissions", h.User.SetPermissions)
	users.GET("/:id/permissions", h.User.GetPermissions)

	return r, db
}

func TestLoginAndMeOverHTTP(t *testing.T) {
	r, db := setupAuthAPI(t)
	u := testutil.SeedTestUser(t, db, "Ravi", "ravi@spectrasynth.example", "secret12")

	w := testutil.DoRequest(r, http.MethodPost, "/api/v1/auth/login", gin.H{
		"email": "ravi@spectrasynth.example", "password": "secret12",
	}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("login: status %d body %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	token, _ := data["access_token"].(string)
	if token == "" {
		t.Fatal("no access token in login response")
	}

	w = testutil.DoRequest(r, http.MethodGet, "/api/v1/auth/me", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("me: status %d", w.Code)
	}
	me := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if uint(me["id"].(float64)) != u.ID {
		t.Errorf("me id = %v, want %d", me["id"], u.ID)
	}
	if _, leaked := me["password"]; leaked {
		t.Error("password serialized in response")
	}
}

func TestLoginRejectsBadCredentialsOverHTTP(t *testing.T) {
	r, db := setupAuthAPI(t)
	testutil.SeedTestUser(t, db, "Ravi", "ravi@spectrasynth.example", "secret12")

	w := testutil.DoRequest(r, http.MethodPost, "/api/v1/auth/login", gin.H{
		"email": "ravi@spectrasynth.example", "password": "wrong",
	}, "")
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestPermissionAdministrationOverHTTP(t *testing.T) {
	r, db := setupAuthAPI(t)

	admin := testutil.SeedTestUser(t, db, "Admin", "admin@spectrasynth.example", "secret12")
	testutil.GrantAllModules(t, db, admin.ID)
	adminToken := testutil.GenerateTestToken(admin.ID, admin.Name, nil)

	target := testutil.SeedTestUser(t, db, "Meera", "meera@spectrasynth.example", "secret12")

	path := fmt.Sprintf("/api/v1/users/%d/permissions", target.ID)
	w := testutil.DoRequest(r, http.MethodPut, path, gin.H{
		"grants": []gin.H{
			{"module_name": entity.ModuleQuotation, "can_read": true, "can_create": true},
		},
	}, adminToken)
	if w.Code != http.StatusOK {
		t.Fatalf("set permissions: status %d body %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(r, http.MethodGet, path, nil, adminToken)
	if w.Code != http.StatusOK {
		t.Fatalf("get permissions: status %d", w.Code)
	}
	items := testutil.ParseResponse(w)["data"].(map[string]interface{})["items"].([]interface{})
	if len(items) != 1 {
		t.Fatalf("grants = %d, want 1", len(items))
	}

	// The target holds no users-module grant, so they cannot administer
	// permissions themselves.
	targetToken := testutil.GenerateTestToken(target.ID, target.Name, nil)
	w = testutil.DoRequest(r, http.MethodGet, path, nil, targetToken)
	if w.Code != http.StatusForbidden {
		t.Errorf("self admin status = %d, want 403", w.Code)
	}

	// Unknown module names are rejected.
	w = testutil.DoRequest(r, http.MethodPut, path, gin.H{
		"grants": []gin.H{{"module_name": "warehouse"}},
	}, adminToken)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad module status = %d, want 400", w.Code)
	}
}

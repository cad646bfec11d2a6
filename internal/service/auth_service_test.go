package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Shido75/Spectrasynth-CRM/internal/entity"
	"github.com/Shido75/Spectrasynth-CRM/internal/service"
	"github.com/Shido75/Spectrasynth-CRM/internal/testutil"
)

func TestCreateUserAndLogin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.BuildServices(t, db)
	ctx := context.Background()

	u, err := svc.Auth.CreateUser(ctx, &service.CreateUserRequest{
		Name:     "Ravi",
		Email:    "Ravi@Spectrasynth.Example",
		Password: "secret12",
		Roles:    []string{"sales"},
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.Email != "ravi@spectrasynth.example" {
		t.Errorf("email not lowercased: %s", u.Email)
	}
	if u.Password == "secret12" {
		t.Error("password stored in plaintext")
	}
	if len(u.Roles) != 1 || u.Roles[0].Role != "sales" {
		t.Errorf("roles = %+v", u.Roles)
	}

	pair, err := svc.Auth.Login(ctx, "ravi@spectrasynth.example", "secret12")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if pair.AccessToken == "" {
		t.Fatal("no access token")
	}

	claims, err := svc.Auth.ParseToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != u.ID || claims.Name != "Ravi" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.BuildServices(t, db)
	ctx := context.Background()

	testutil.SeedTestUser(t, db, "Ravi", "ravi@spectrasynth.example", "secret12")

	if _, err := svc.Auth.Login(ctx, "ravi@spectrasynth.example", "wrong"); !errors.Is(err, service.ErrPermission) {
		t.Errorf("wrong password = %v, want ErrPermission", err)
	}
	if _, err := svc.Auth.Login(ctx, "nobody@spectrasynth.example", "secret12"); !errors.Is(err, service.ErrPermission) {
		t.Errorf("unknown account = %v, want ErrPermission", err)
	}
}

func TestCreateUserValidation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.BuildServices(t, db)
	ctx := context.Background()

	if _, err := svc.Auth.CreateUser(ctx, &service.CreateUserRequest{
		Name: "Ravi", Email: "ravi@spectrasynth.example", Password: "short",
	}); !errors.Is(err, service.ErrValidation) {
		t.Errorf("short password = %v, want ErrValidation", err)
	}

	if _, err := svc.Auth.CreateUser(ctx, &service.CreateUserRequest{
		Name: "Ravi", Email: "ravi@spectrasynth.example", Password: "secret12",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Auth.CreateUser(ctx, &service.CreateUserRequest{
		Name: "Other", Email: "RAVI@spectrasynth.example", Password: "secret12",
	}); !errors.Is(err, service.ErrConflict) {
		t.Errorf("duplicate email = %v, want ErrConflict", err)
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.BuildServices(t, db)

	if _, err := svc.Auth.ParseToken("not-a-token"); !errors.Is(err, service.ErrPermission) {
		t.Errorf("err = %v, want ErrPermission", err)
	}
}

func TestSetAndCheckPermissions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.BuildServices(t, db)
	ctx := context.Background()

	u := testutil.SeedTestUser(t, db, "Meera", "meera@spectrasynth.example", "secret12")

	perms, err := svc.Auth.SetPermissions(ctx, u.ID, []service.PermissionGrant{
		{ModuleName: entity.ModuleQuotation, CanRead: true, CanCreate: true},
	})
	if err != nil {
		t.Fatalf("set permissions: %v", err)
	}
	if len(perms) != 1 {
		t.Fatalf("perms = %d, want 1", len(perms))
	}

	if err := svc.Auth.CheckPermission(ctx, u.ID, entity.ModuleQuotation, entity.ActionCreate); err != nil {
		t.Errorf("granted action denied: %v", err)
	}
	if err := svc.Auth.CheckPermission(ctx, u.ID, entity.ModuleQuotation, entity.ActionDelete); !errors.Is(err, service.ErrPermission) {
		t.Errorf("ungranted action = %v, want ErrPermission", err)
	}
	if err := svc.Auth.CheckPermission(ctx, u.ID, entity.ModuleInquiry, entity.ActionRead); !errors.Is(err, service.ErrPermission) {
		t.Errorf("module without row = %v, want ErrPermission", err)
	}

	// Upsert narrows the grant in place.
	if _, err := svc.Auth.SetPermissions(ctx, u.ID, []service.PermissionGrant{
		{ModuleName: entity.ModuleQuotation, CanRead: true},
	}); err != nil {
		t.Fatalf("re-grant: %v", err)
	}
	if err := svc.Auth.CheckPermission(ctx, u.ID, entity.ModuleQuotation, entity.ActionCreate); !errors.Is(err, service.ErrPermission) {
		t.Errorf("narrowed action = %v, want ErrPermission", err)
	}
}

func TestSetPermissionsRejectsUnknownModule(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.BuildServices(t, db)
	ctx := context.Background()

	u := testutil.SeedTestUser(t, db, "Meera", "meera@spectrasynth.example", "secret12")
	_, err := svc.Auth.SetPermissions(ctx, u.ID, []service.PermissionGrant{{ModuleName: "warehouse"}})
	if !errors.Is(err, service.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestUpdateAndDeleteUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.BuildServices(t, db)
	ctx := context.Background()

	u := testutil.SeedTestUser(t, db, "Meera", "meera@spectrasynth.example", "secret12")

	name := "Meera K"
	updated, err := svc.Auth.UpdateUser(ctx, u.ID, &service.UpdateUserRequest{
		Name:  &name,
		Roles: []string{"admin", "sales"},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != name || len(updated.Roles) != 2 {
		t.Errorf("update not applied: %+v", updated)
	}

	if err := svc.Auth.DeleteUser(ctx, u.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Auth.GetUser(ctx, u.ID); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("get after delete = %v, want ErrNotFound", err)
	}
}

func TestRefreshWithoutRedisDisabled(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.BuildServices(t, db)

	_, err := svc.Auth.Refresh(context.Background(), "some-token")
	if !errors.Is(err, service.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

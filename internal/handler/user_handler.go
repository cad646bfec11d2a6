package handler

import (
	"github.com/Shido75/Spectrasynth-CRM/internal/service"
	"github.com/gin-gonic/gin"
)

// AuthHandler serves login and session routes.
type AuthHandler struct {
	svc *service.AuthService
}

func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials and issues a token pair.
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	pair, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, pair)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Refresh rotates a refresh token.
// POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	pair, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, pair)
}

// Logout revokes a refresh token.
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if err := h.svc.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		InternalError(c, "logout failed: "+err.Error())
		return
	}
	Success(c, gin.H{"message": "logged out"})
}

// Me returns the caller's account.
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	u, err := h.svc.GetUser(c.Request.Context(), GetUserID(c))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, u)
}

// UserHandler serves account and permission administration.
type UserHandler struct {
	svc *service.AuthService
}

func NewUserHandler(svc *service.AuthService) *UserHandler {
	return &UserHandler{svc: svc}
}

// Create registers an operator account.
// POST /api/v1/users
func (h *UserHandler) Create(c *gin.Context) {
	var req service.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	u, err := h.svc.CreateUser(c.Request.Context(), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, u)
}

// List returns all accounts.
// GET /api/v1/users
func (h *UserHandler) List(c *gin.Context) {
	items, err := h.svc.ListUsers(c.Request.Context())
	if err != nil {
		InternalError(c, "failed to list users: "+err.Error())
		return
	}
	Success(c, gin.H{"items": items})
}

// Get returns one account.
// GET /api/v1/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := ParamUint(c, "id")
	if !ok {
		return
	}
	u, err := h.svc.GetUser(c.Request.Context(), id)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, u)
}

// Update mutates an account.
// PUT /api/v1/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := ParamUint(c, "id")
	if !ok {
		return
	}
	var req service.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	u, err := h.svc.UpdateUser(c.Request.Context(), id, &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, u)
}

// Delete removes an account.
// DELETE /api/v1/users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := ParamUint(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteUser(c.Request.Context(), id); err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"message": "user deleted"})
}

type setPermissionsRequest struct {
	Grants []service.PermissionGrant `json:"grants" binding:"required"`
}

// SetPermissions upserts module grants for one account.
// PUT /api/v1/users/:id/permissions
func (h *UserHandler) SetPermissions(c *gin.Context) {
	id, ok := ParamUint(c, "id")
	if !ok {
		return
	}
	var req setPermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	perms, err := h.svc.SetPermissions(c.Request.Context(), id, req.Grants)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": perms})
}

// GetPermissions returns module grants for one account.
// GET /api/v1/users/:id/permissions
func (h *UserHandler) GetPermissions(c *gin.Context) {
	id, ok := ParamUint(c, "id")
	if !ok {
		return
	}
	perms, err := h.svc.GetPermissions(c.Request.Context(), id)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": perms})
}

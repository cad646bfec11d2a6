package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Shido75/Spectrasynth-CRM/internal/entity"
	"github.com/Shido75/Spectrasynth-CRM/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Claims is the JWT payload carried by access tokens.
type Claims struct {
	UserID uint     `json:"user_id"`
	Name   string   `json:"name"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

// TokenPair is the login/refresh response.
type TokenPair struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	User         *entity.User `json:"user"`
}

// AuthService manages operator accounts, sessions and the permission table.
// Refresh tokens live in redis under a per-token key so logout and rotation
// revoke them server side.
type AuthService struct {
	userRepo   *repository.UserRepository
	permRepo   *repository.PermissionRepository
	rdb        *redis.Client
	logger     *zap.Logger
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewAuthService(
	userRepo *repository.UserRepository,
	permRepo *repository.PermissionRepository,
	rdb *redis.Client,
	logger *zap.Logger,
	jwtSecret string,
	accessTTL, refreshTTL time.Duration,
) *AuthService {
	if accessTTL <= 0 {
		accessTTL = 2 * time.Hour
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &AuthService{
		userRepo:   userRepo,
		permRepo:   permRepo,
		rdb:        rdb,
		logger:     logger,
		jwtSecret:  []byte(jwtSecret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func refreshKey(token string) string {
	return "refresh:" + token
}

// Login verifies credentials and issues a token pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	u, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid credentials", ErrPermission)
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", ErrPermission)
	}

	pair, err := s.issuePair(ctx, u)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user logged in", zap.Uint("user_id", u.ID), zap.String("email", u.Email))
	return pair, nil
}

// Refresh rotates a refresh token and issues a new pair. The old token is
// revoked whether or not the rotation succeeds.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if s.rdb == nil {
		return nil, fmt.Errorf("%w: refresh tokens not enabled", ErrValidation)
	}

	raw, err := s.rdb.GetDel(ctx, refreshKey(refreshToken)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: refresh token expired or revoked", ErrPermission)
		}
		return nil, err
	}

	var userID uint
	if _, err := fmt.Sscanf(raw, "%d", &userID); err != nil {
		return nil, fmt.Errorf("%w: malformed session", ErrPermission)
	}
	u, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: account removed", ErrPermission)
		}
		return nil, err
	}
	return s.issuePair(ctx, u)
}

// Logout revokes one refresh token.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if s.rdb == nil || refreshToken == "" {
		return nil
	}
	return s.rdb.Del(ctx, refreshKey(refreshToken)).Err()
}

// ParseToken validates an access token and returns its claims.
func (s *AuthService) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token", ErrPermission)
	}
	return claims, nil
}

func (s *AuthService) issuePair(ctx context.Context, u *entity.User) (*TokenPair, error) {
	roles := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		roles = append(roles, r.Role)
	}

	now := time.Now()
	claims := Claims{
		UserID: u.ID,
		Name:   u.Name,
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", u.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	pair := &TokenPair{AccessToken: access, User: u}
	if s.rdb != nil {
		refresh := uuid.NewString()
		if err := s.rdb.Set(ctx, refreshKey(refresh), fmt.Sprintf("%d", u.ID), s.refreshTTL).Err(); err != nil {
			return nil, fmt.Errorf("store refresh token: %w", err)
		}
		pair.RefreshToken = refresh
	}
	return pair, nil
}

// CreateUserRequest registers an operator account.
type CreateUserRequest struct {
	Name     string   `json:"name" binding:"required"`
	Email    string   `json:"email" binding:"required"`
	Password string   `json:"password" binding:"required"`
	Roles    []string `json:"roles"`
}

// CreateUser registers an account with a bcrypt password hash.
func (s *AuthService) CreateUser(ctx context.Context, req *CreateUserRequest) (*entity.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Name == "" {
		return nil, fmt.Errorf("%w: name and email are required", ErrValidation)
	}
	if len(req.Password) < 6 {
		return nil, fmt.Errorf("%w: password must be at least 6 characters", ErrValidation)
	}
	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: email %s already registered", ErrConflict, email)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &entity.User{Name: req.Name, Email: email, Password: string(hash)}
	if err := s.userRepo.Create(ctx, u, req.Roles); err != nil {
		return nil, err
	}
	s.logger.Info("user created", zap.Uint("user_id", u.ID), zap.String("email", u.Email))
	return s.userRepo.FindByID(ctx, u.ID)
}

// ListUsers returns all accounts.
func (s *AuthService) ListUsers(ctx context.Context) ([]entity.User, error) {
	return s.userRepo.FindAll(ctx)
}

// GetUser loads one account.
func (s *AuthService) GetUser(ctx context.Context, id uint) (*entity.User, error) {
	u, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %d", ErrNotFound, id)
		}
		return nil, err
	}
	return u, nil
}

// UpdateUserRequest mutates an account. A nil Roles keeps the current set.
type UpdateUserRequest struct {
	Name     *string  `json:"name"`
	Password *string  `json:"password"`
	Roles    []string `json:"roles"`
}

// UpdateUser applies account mutations.
func (s *AuthService) UpdateUser(ctx context.Context, id uint, req *UpdateUserRequest) (*entity.User, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil && *req.Name != "" {
		u.Name = *req.Name
	}
	if req.Password != nil {
		if len(*req.Password) < 6 {
			return nil, fmt.Errorf("%w: password must be at least 6 characters", ErrValidation)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		u.Password = string(hash)
	}
	if err := s.userRepo.Update(ctx, u, req.Roles); err != nil {
		return nil, err
	}
	return s.userRepo.FindByID(ctx, id)
}

// DeleteUser removes an account with its roles and permissions.
func (s *AuthService) DeleteUser(ctx context.Context, id uint) error {
	if _, err := s.GetUser(ctx, id); err != nil {
		return err
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("user deleted", zap.Uint("user_id", id))
	return nil
}

// PermissionGrant is one module grant in a permission update.
type PermissionGrant struct {
	ModuleName string `json:"module_name" binding:"required"`
	CanCreate  bool   `json:"can_create"`
	CanRead    bool   `json:"can_read"`
	CanUpdate  bool   `json:"can_update"`
	CanDelete  bool   `json:"can_delete"`
}

// SetPermissions upserts module grants for one user.
func (s *AuthService) SetPermissions(ctx context.Context, userID uint, grants []PermissionGrant) ([]entity.Permission, error) {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	if len(grants) == 0 {
		return nil, fmt.Errorf("%w: at least one grant is required", ErrValidation)
	}

	perms := make([]entity.Permission, 0, len(grants))
	for _, g := range grants {
		if !validModule(g.ModuleName) {
			return nil, fmt.Errorf("%w: unknown module %q", ErrValidation, g.ModuleName)
		}
		perms = append(perms, entity.Permission{
			UserID:     userID,
			ModuleName: g.ModuleName,
			CanCreate:  g.CanCreate,
			CanRead:    g.CanRead,
			CanUpdate:  g.CanUpdate,
			CanDelete:  g.CanDelete,
		})
	}
	if err := s.permRepo.Upsert(ctx, perms); err != nil {
		return nil, err
	}
	return s.permRepo.FindByUser(ctx, userID)
}

// GetPermissions returns all module grants for one user.
func (s *AuthService) GetPermissions(ctx context.Context, userID uint) ([]entity.Permission, error) {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.permRepo.FindByUser(ctx, userID)
}

// CheckPermission reports whether a user may perform an action on a module.
// A user with no permission row for the module is denied.
func (s *AuthService) CheckPermission(ctx context.Context, userID uint, module, action string) error {
	p, err := s.permRepo.Find(ctx, userID, module)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: no access to %s", ErrPermission, module)
		}
		return err
	}
	if !p.Allows(action) {
		return fmt.Errorf("%w: %s on %s", ErrPermission, action, module)
	}
	return nil
}

func validModule(name string) bool {
	for _, m := range entity.ValidModules {
		if m == name {
			return true
		}
	}
	return false
}

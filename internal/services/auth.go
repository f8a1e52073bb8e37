package services

import (
	"context"
	"strings"
	"time"

	"adspace/internal/domain"
	"adspace/internal/metrics"
	"adspace/internal/ratelimit"
	"adspace/internal/store"
	"adspace/internal/util"
	apperrors "adspace/pkg/errors"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"goa.design/goa/v3/security"
)

type userKey struct{}

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, u *domain.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// CurrentUser returns the user stored by JWTAuth.
func CurrentUser(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(userKey{}).(*domain.User)
	return u, ok && u != nil
}

// LoginRequest holds sign-in credentials
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResult is returned on successful sign-in
type LoginResult struct {
	Token     string      `json:"token"`
	Role      domain.Role `json:"role"`
	Email     string      `json:"email"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// CreateUserRequest invites a new admin
type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=admin superAdmin"`
}

// UpdateUserRequest changes an account. Nil fields are left as they are.
type UpdateUserRequest struct {
	Role     *string `json:"role" validate:"omitempty,oneof=admin superAdmin"`
	Status   *string `json:"status" validate:"omitempty,oneof=active suspended"`
	Password *string `json:"password" validate:"omitempty,min=8,max=72"`
}

// AuthService handles sign-in, token checks and admin accounts
type AuthService struct {
	users   store.UserStore
	tokens  *util.TokenManager
	limiter ratelimit.Limiter
	log     *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(users store.UserStore, tokens *util.TokenManager, limiter ratelimit.Limiter, log *zap.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, limiter: limiter, log: log.Named("auth")}
}

// JWTAuth validates a bearer token, loads its user and checks the scopes
// required by schema.
func (s *AuthService) JWTAuth(ctx context.Context, token string, schema *security.JWTScheme) (context.Context, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return ctx, apperrors.Unauthorized("invalid or expired token")
	}

	user, err := s.users.Get(ctx, claims.UserID())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ctx, apperrors.Unauthorized("user not found")
		}
		return ctx, storeError(err, "user", "fetch user")
	}
	if !user.IsActive() {
		return ctx, apperrors.Unauthorized("user account is suspended")
	}

	if schema != nil && len(schema.RequiredScopes) > 0 {
		if err := schema.Validate(user.Role.Scopes()); err != nil {
			s.log.Info("insufficient permissions", zap.String("user", user.ID), zap.String("role", string(user.Role)))
			return ctx, apperrors.Forbidden("insufficient permissions")
		}
	}
	return WithUser(ctx, user), nil
}

// Login checks credentials and issues an access token. Repeated failures for
// one email are throttled.
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*LoginResult, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	email := req.Email

	s.log.Info("login attempt", zap.String("email", email))

	blocked, retryIn, err := s.limiter.Blocked(ctx, email)
	if err != nil {
		s.log.Warn("throttle check failed", zap.Error(err))
	}
	if blocked {
		s.log.Warn("login throttled", zap.String("email", email), zap.Duration("retry_in", retryIn))
		metrics.RecordAuthAttempt("throttled")
		return nil, apperrors.TooManyRequests("too many failed login attempts, try again in " + retryIn.Round(time.Second).String())
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		s.log.Info("login failed: user not found", zap.String("email", email))
		return nil, s.failed(ctx, email)
	}
	if err != nil {
		s.log.Error("login failed: database error", zap.String("email", email), zap.Error(err))
		metrics.RecordAuthAttempt("failure")
		return nil, storeError(err, "user", "fetch user")
	}

	if !util.CheckPasswordHash(req.Password, user.PasswordHash) {
		s.log.Info("login failed: invalid password", zap.String("email", email))
		return nil, s.failed(ctx, email)
	}

	if !user.IsActive() {
		s.log.Info("login failed: account suspended", zap.String("email", email))
		metrics.RecordAuthAttempt("failure")
		return nil, apperrors.Unauthorized("user account is suspended")
	}

	if err := s.limiter.Reset(ctx, email); err != nil {
		s.log.Warn("throttle reset failed", zap.Error(err))
	}

	now := time.Now().UTC()
	user.LastLogin = &now
	if err := s.users.Save(ctx, user); err != nil {
		s.log.Warn("failed to record last login", zap.String("user", user.ID), zap.Error(err))
	}

	token, expiresAt, err := s.tokens.GenerateToken(user)
	if err != nil {
		s.log.Error("login failed: token generation error", zap.String("email", email), zap.Error(err))
		return nil, apperrors.Internal("failed to generate token", err)
	}

	s.log.Info("login successful", zap.String("user", user.ID), zap.String("role", string(user.Role)))
	metrics.RecordAuthAttempt("success")

	return &LoginResult{Token: token, Role: user.Role, Email: user.Email, ExpiresAt: expiresAt}, nil
}

func (s *AuthService) failed(ctx context.Context, email string) error {
	metrics.RecordAuthAttempt("failure")
	if _, err := s.limiter.Hit(ctx, email); err != nil {
		s.log.Warn("throttle update failed", zap.Error(err))
	}
	return apperrors.Unauthorized("incorrect email or password")
}

// Me returns the authenticated user.
func (s *AuthService) Me(ctx context.Context) (*domain.User, error) {
	user, ok := CurrentUser(ctx)
	if !ok {
		return nil, apperrors.Unauthorized("not authenticated")
	}
	return user, nil
}

// ListUsers returns every admin account
func (s *AuthService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, storeError(err, "user", "fetch users")
	}
	return users, nil
}

// CreateUser invites a new admin
func (s *AuthService) CreateUser(ctx context.Context, req *CreateUserRequest) (*domain.User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Role = strings.TrimSpace(req.Role)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	s.log.Info("create user request", zap.String("email", req.Email), zap.String("role", req.Role))

	hash, err := util.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.Internal("failed to hash password", err)
	}
	user := &domain.User{
		Email:        req.Email,
		PasswordHash: hash,
		Role:         domain.Role(req.Role),
		Status:       domain.UserActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		s.log.Info("create user failed", zap.String("email", req.Email), zap.Error(err))
		return nil, storeError(err, "user with this email", "create user")
	}

	s.log.Info("create user successful", zap.String("user", user.ID))
	return user, nil
}

// UpdateUser changes the role, status or password of an account. Operators
// cannot suspend themselves.
func (s *AuthService) UpdateUser(ctx context.Context, id string, req *UpdateUserRequest) (*domain.User, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	user, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, storeError(err, "user", "fetch user")
	}

	if req.Status != nil && domain.UserStatus(*req.Status) == domain.UserSuspended && s.isSelf(ctx, id) {
		return nil, apperrors.Validation("cannot suspend your own account")
	}

	if req.Role != nil {
		user.Role = domain.Role(*req.Role)
	}
	if req.Status != nil {
		user.Status = domain.UserStatus(*req.Status)
	}
	if req.Password != nil {
		hash, err := util.HashPassword(*req.Password)
		if err != nil {
			return nil, apperrors.Internal("failed to hash password", err)
		}
		user.PasswordHash = hash
	}

	if err := s.users.Save(ctx, user); err != nil {
		s.log.Error("update user failed", zap.String("user", id), zap.Error(err))
		return nil, storeError(err, "user", "update user")
	}
	s.log.Info("update user successful", zap.String("user", id),
		zap.String("role", string(user.Role)), zap.String("status", string(user.Status)))
	return user, nil
}

// DeleteUser removes an account. Operators cannot delete themselves.
func (s *AuthService) DeleteUser(ctx context.Context, id string) error {
	if s.isSelf(ctx, id) {
		return apperrors.Validation("cannot delete your own account")
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return storeError(err, "user", "delete user")
	}
	s.log.Info("delete user successful", zap.String("user", id))
	return nil
}

func (s *AuthService) isSelf(ctx context.Context, id string) bool {
	u, ok := CurrentUser(ctx)
	return ok && u.ID == id
}

package user

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkmint/inkmint-backend/pkg/auth"
	"github.com/inkmint/inkmint-backend/pkg/auth/session"
	"github.com/inkmint/inkmint-backend/pkg/config"
	"github.com/inkmint/inkmint-backend/pkg/db"
	"github.com/inkmint/inkmint-backend/pkg/db/models"
	"github.com/inkmint/inkmint-backend/pkg/enums"
	pkgerrors "github.com/inkmint/inkmint-backend/pkg/errors"
	"github.com/inkmint/inkmint-backend/pkg/pagination"
	"github.com/inkmint/inkmint-backend/pkg/security"
)

const minPasswordLength = 8

// invalidCredentialsMessage is shared between the unknown-email and
// wrong-password paths so responses do not leak which one failed.
const invalidCredentialsMessage = "invalid email or password"

// RegisterInput creates a new customer account.
type RegisterInput struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
}

// LoginInput authenticates an existing account.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ProfileInput updates the caller's own profile.
type ProfileInput struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
}

// AuthResult is a signed-in session: the account plus its token pair.
type AuthResult struct {
	User         *models.User
	AccessToken  string
	RefreshToken string
}

// ListResult is one page of accounts for the back office.
type ListResult struct {
	Users      []models.User
	NextCursor string
}

// Service covers account lifecycle: registration, login, token
// rotation, profile management and back-office administration.
type Service interface {
	Register(ctx context.Context, input RegisterInput, clientIP string) (*AuthResult, error)
	Login(ctx context.Context, input LoginInput, clientIP string) (*AuthResult, error)
	Refresh(ctx context.Context, accessToken, refreshToken string) (*AuthResult, error)
	Logout(ctx context.Context, accessID string) error

	GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input ProfileInput) (*models.User, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error

	ListUsers(ctx context.Context, params pagination.Params) (*ListResult, error)
	SetUserActive(ctx context.Context, userID uuid.UUID, active bool) (*models.User, error)
}

type userStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
	List(ctx context.Context, params pagination.Params) ([]models.User, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type service struct {
	repo     userStore
	sessions sessionManager
	limiter  rateLimiter
	jwtCfg   config.JWTConfig
	pwCfg    config.PasswordConfig
	rlCfg    config.AuthRateLimitConfig
	now      func() time.Time
}

// NewService constructs the account service. limiter may be nil, which
// disables auth rate limiting (tests, local development).
func NewService(
	repo userStore,
	sessions sessionManager,
	limiter rateLimiter,
	jwtCfg config.JWTConfig,
	pwCfg config.PasswordConfig,
	rlCfg config.AuthRateLimitConfig,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session manager required")
	}
	return &service{
		repo:     repo,
		sessions: sessions,
		limiter:  limiter,
		jwtCfg:   jwtCfg,
		pwCfg:    pwCfg,
		rlCfg:    rlCfg,
		now:      time.Now,
	}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput, clientIP string) (*AuthResult, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if len(input.Password) < minPasswordLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	if strings.TrimSpace(input.FirstName) == "" || strings.TrimSpace(input.LastName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "first and last name are required")
	}

	if err := s.allow(ctx, "register:email:"+email, int64(s.rlCfg.RegisterEmailLimit), s.rlCfg.RegisterWindow); err != nil {
		return nil, err
	}
	if err := s.allow(ctx, "register:ip:"+clientIP, int64(s.rlCfg.RegisterIPLimit), s.rlCfg.RegisterWindow); err != nil {
		return nil, err
	}

	hash, err := security.HashPassword(input.Password, s.pwCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing password")
	}

	created, err := s.repo.Create(ctx, &models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Role:         enums.UserRoleCustomer,
		IsActive:     true,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "users_email_key") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "an account with this email already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating account")
	}

	return s.issueTokens(ctx, created)
}

func (s *service) Login(ctx context.Context, input LoginInput, clientIP string) (*AuthResult, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password is required")
	}

	if err := s.allow(ctx, "login:email:"+email, int64(s.rlCfg.LoginEmailLimit), s.rlCfg.LoginWindow); err != nil {
		return nil, err
	}
	if err := s.allow(ctx, "login:ip:"+clientIP, int64(s.rlCfg.LoginIPLimit), s.rlCfg.LoginWindow); err != nil {
		return nil, err
	}

	account, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading account")
	}

	ok, err := security.VerifyPassword(input.Password, account.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verifying password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	if !account.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "this account has been disabled")
	}

	return s.issueTokens(ctx, account)
}

// Refresh rotates the refresh token and mints a fresh access token. The
// expired access token is accepted here solely to recover the session id.
func (s *service) Refresh(ctx context.Context, accessToken, refreshToken string) (*AuthResult, error) {
	claims, err := auth.ParseAccessTokenAllowExpired(s.jwtCfg, accessToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}

	newAccessID, newRefresh, err := s.sessions.Rotate(ctx, claims.ID, refreshToken)
	if errors.Is(err, session.ErrInvalidRefreshToken) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rotating session")
	}

	account, err := s.repo.FindByID(ctx, claims.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account no longer exists")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading account")
	}
	if !account.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "this account has been disabled")
	}

	token, err := auth.MintAccessToken(s.jwtCfg, s.now(), auth.AccessTokenPayload{
		UserID: account.ID,
		Role:   account.Role,
		JTI:    newAccessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "minting access token")
	}

	return &AuthResult{User: account, AccessToken: token, RefreshToken: newRefresh}, nil
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "revoking session")
	}
	return nil
}

func (s *service) GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	account, err := s.repo.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading account")
	}
	return account, nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, input ProfileInput) (*models.User, error) {
	if strings.TrimSpace(input.FirstName) == "" || strings.TrimSpace(input.LastName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "first and last name are required")
	}

	account, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	account.FirstName = strings.TrimSpace(input.FirstName)
	account.LastName = strings.TrimSpace(input.LastName)
	updated, err := s.repo.Update(ctx, account)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating profile")
	}
	return updated, nil
}

func (s *service) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	account, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := security.VerifyPassword(currentPassword, account.PasswordHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verifying password")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "current password is incorrect")
	}

	hash, err := security.HashPassword(newPassword, s.pwCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing password")
	}
	account.PasswordHash = hash
	if _, err := s.repo.Update(ctx, account); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating password")
	}
	return nil
}

func (s *service) ListUsers(ctx context.Context, params pagination.Params) (*ListResult, error) {
	rows, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing users")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	result := &ListResult{Users: rows}
	if len(rows) > limit {
		result.Users = rows[:limit]
		last := result.Users[limit-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return result, nil
}

func (s *service) SetUserActive(ctx context.Context, userID uuid.UUID, active bool) (*models.User, error) {
	account, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if account.IsActive == active {
		return account, nil
	}
	if err := s.repo.SetActive(ctx, userID, active); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating account flag")
	}
	account.IsActive = active
	return account, nil
}

// issueTokens mints an access token bound to a fresh session id and
// stores the matching refresh token.
func (s *service) issueTokens(ctx context.Context, account *models.User) (*AuthResult, error) {
	accessID := session.NewAccessID()
	token, err := auth.MintAccessToken(s.jwtCfg, s.now(), auth.AccessTokenPayload{
		UserID: account.ID,
		Role:   account.Role,
		JTI:    accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "minting access token")
	}

	refresh, err := s.sessions.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating session")
	}

	return &AuthResult{User: account, AccessToken: token, RefreshToken: refresh}, nil
}

func (s *service) allow(ctx context.Context, scope string, limit int64, window time.Duration) error {
	if s.limiter == nil || limit <= 0 || window <= 0 {
		return nil
	}
	ok, _, err := s.limiter.FixedWindowAllow(ctx, scope, limit, window)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checking rate limit")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, try again later")
	}
	return nil
}

func normalizeEmail(email string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(email))
	if trimmed == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if _, err := mail.ParseAddress(trimmed); err != nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid email address")
	}
	return trimmed, nil
}

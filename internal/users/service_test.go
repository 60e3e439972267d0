package user

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/inkmint/inkmint-backend/pkg/auth"
	"github.com/inkmint/inkmint-backend/pkg/auth/session"
	"github.com/inkmint/inkmint-backend/pkg/config"
	"github.com/inkmint/inkmint-backend/pkg/db/models"
	"github.com/inkmint/inkmint-backend/pkg/enums"
	pkgerrors "github.com/inkmint/inkmint-backend/pkg/errors"
	"github.com/inkmint/inkmint-backend/pkg/pagination"
)

type fakeUserStore struct {
	byID map[uuid.UUID]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byID: map[uuid.UUID]*models.User{}}
}

func (f *fakeUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.byID {
		if strings.EqualFold(u.Email, email) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserStore) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := f.byID[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserStore) Create(_ context.Context, u *models.User) (*models.User, error) {
	for _, existing := range f.byID {
		if strings.EqualFold(existing.Email, u.Email) {
			return nil, errors.New(`duplicate key value violates unique constraint "users_email_key"`)
		}
	}
	u.ID = uuid.New()
	f.byID[u.ID] = u
	return u, nil
}

func (f *fakeUserStore) Update(_ context.Context, u *models.User) (*models.User, error) {
	f.byID[u.ID] = u
	return u, nil
}

func (f *fakeUserStore) List(_ context.Context, _ pagination.Params) ([]models.User, error) {
	var out []models.User
	for _, u := range f.byID {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUserStore) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	if u, ok := f.byID[id]; ok {
		u.IsActive = active
	}
	return nil
}

// fakeSessionManager mirrors the Redis-backed rotation semantics.
type fakeSessionManager struct {
	tokens  map[string]string
	revoked []string
}

func newFakeSessionManager() *fakeSessionManager {
	return &fakeSessionManager{tokens: map[string]string{}}
}

func (f *fakeSessionManager) Generate(_ context.Context, accessID string) (string, error) {
	token := "refresh-" + accessID
	f.tokens[accessID] = token
	return token, nil
}

func (f *fakeSessionManager) Rotate(_ context.Context, oldAccessID, provided string) (string, string, error) {
	stored, ok := f.tokens[oldAccessID]
	if !ok || stored != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(f.tokens, oldAccessID)
	newID := session.NewAccessID()
	token := "refresh-" + newID
	f.tokens[newID] = token
	return newID, token, nil
}

func (f *fakeSessionManager) Revoke(_ context.Context, accessID string) error {
	f.revoked = append(f.revoked, accessID)
	delete(f.tokens, accessID)
	return nil
}

type fakeLimiter struct {
	counts map[string]int64
	limits map[string]int64
}

func (f *fakeLimiter) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if f.counts == nil {
		f.counts = map[string]int64{}
	}
	f.counts[scope]++
	if capped, ok := f.limits[scope]; ok {
		limit = capped
	}
	return f.counts[scope] <= limit, f.counts[scope], nil
}

func jwtConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                 "test-secret",
		Issuer:                 "inkmint-test",
		ExpirationMinutes:      15,
		RefreshTokenTTLMinutes: 60,
	}
}

func passwordConfig() config.PasswordConfig {
	// Cheap parameters keep the argon2 hashing fast under test.
	return config.PasswordConfig{ArgonMemoryKB: 8192, ArgonTime: 1, ArgonParallelism: 1}
}

func rateLimitConfig() config.AuthRateLimitConfig {
	return config.AuthRateLimitConfig{
		LoginWindow:        time.Minute,
		LoginEmailLimit:    5,
		LoginIPLimit:       20,
		RegisterWindow:     5 * time.Minute,
		RegisterEmailLimit: 3,
		RegisterIPLimit:    20,
	}
}

func newTestService(t *testing.T, store *fakeUserStore, sessions *fakeSessionManager, limiter rateLimiter) Service {
	t.Helper()
	svc, err := NewService(store, sessions, limiter, jwtConfig(), passwordConfig(), rateLimitConfig())
	require.NoError(t, err)
	return svc
}

func registerInput() RegisterInput {
	return RegisterInput{
		Email:     "asha@example.com",
		Password:  "correct horse",
		FirstName: "Asha",
		LastName:  "Rao",
	}
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected coded error, got %v", err)
	require.Equal(t, code, typed.Code())
}

func TestRegisterIssuesSignedTokens(t *testing.T) {
	sessions := newFakeSessionManager()
	svc := newTestService(t, newFakeUserStore(), sessions, nil)

	result, err := svc.Register(context.Background(), registerInput(), "198.51.100.7")
	require.NoError(t, err)
	require.Equal(t, enums.UserRoleCustomer, result.User.Role)
	require.True(t, result.User.IsActive)
	require.NotEmpty(t, result.RefreshToken)

	claims, err := auth.ParseAccessToken(jwtConfig(), result.AccessToken)
	require.NoError(t, err)
	require.Equal(t, result.User.ID, claims.UserID)
	require.Contains(t, sessions.tokens, claims.ID, "session stored under the token's jti")
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(t, newFakeUserStore(), newFakeSessionManager(), nil)
	ctx := context.Background()

	input := registerInput()
	input.Email = "not-an-email"
	_, err := svc.Register(ctx, input, "")
	requireCode(t, err, pkgerrors.CodeValidation)

	input = registerInput()
	input.Password = "short"
	_, err = svc.Register(ctx, input, "")
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(t, store, newFakeSessionManager(), nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerInput(), "")
	require.NoError(t, err)

	input := registerInput()
	input.Email = "ASHA@example.com"
	_, err = svc.Register(ctx, input, "")
	requireCode(t, err, pkgerrors.CodeConflict)
}

func TestLoginDoesNotLeakWhichCredentialFailed(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(t, store, newFakeSessionManager(), nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerInput(), "")
	require.NoError(t, err)

	_, unknownErr := svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "whatever!"}, "")
	_, wrongErr := svc.Login(ctx, LoginInput{Email: "asha@example.com", Password: "wrong password"}, "")

	requireCode(t, unknownErr, pkgerrors.CodeUnauthorized)
	requireCode(t, wrongErr, pkgerrors.CodeUnauthorized)
	require.Equal(t, unknownErr.Error(), wrongErr.Error())
}

func TestLoginDisabledAccount(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(t, store, newFakeSessionManager(), nil)
	ctx := context.Background()

	result, err := svc.Register(ctx, registerInput(), "")
	require.NoError(t, err)
	_, err = svc.SetUserActive(ctx, result.User.ID, false)
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginInput{Email: "asha@example.com", Password: "correct horse"}, "")
	requireCode(t, err, pkgerrors.CodeForbidden)
}

func TestLoginRateLimited(t *testing.T) {
	store := newFakeUserStore()
	limiter := &fakeLimiter{limits: map[string]int64{"login:email:asha@example.com": 2}}
	svc := newTestService(t, store, newFakeSessionManager(), limiter)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerInput(), "")
	require.NoError(t, err)

	login := LoginInput{Email: "asha@example.com", Password: "wrong password"}
	for i := 0; i < 2; i++ {
		_, err = svc.Login(ctx, login, "198.51.100.7")
		requireCode(t, err, pkgerrors.CodeUnauthorized)
	}
	_, err = svc.Login(ctx, login, "198.51.100.7")
	requireCode(t, err, pkgerrors.CodeRateLimit)
}

func TestRefreshRotatesSession(t *testing.T) {
	store := newFakeUserStore()
	sessions := newFakeSessionManager()
	svc := newTestService(t, store, sessions, nil)
	ctx := context.Background()

	signedIn, err := svc.Register(ctx, registerInput(), "")
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, signedIn.AccessToken, signedIn.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, signedIn.RefreshToken, refreshed.RefreshToken)

	// The old pair is single use.
	_, err = svc.Refresh(ctx, signedIn.AccessToken, signedIn.RefreshToken)
	requireCode(t, err, pkgerrors.CodeUnauthorized)

	// The new pair works.
	_, err = svc.Refresh(ctx, refreshed.AccessToken, refreshed.RefreshToken)
	require.NoError(t, err)
}

func TestChangePasswordRequiresCurrent(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(t, store, newFakeSessionManager(), nil)
	ctx := context.Background()

	signedIn, err := svc.Register(ctx, registerInput(), "")
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, signedIn.User.ID, "wrong password", "a new password")
	requireCode(t, err, pkgerrors.CodeUnauthorized)

	require.NoError(t, svc.ChangePassword(ctx, signedIn.User.ID, "correct horse", "a new password"))

	_, err = svc.Login(ctx, LoginInput{Email: "asha@example.com", Password: "a new password"}, "")
	require.NoError(t, err)
}

func TestLogoutRevokesSession(t *testing.T) {
	store := newFakeUserStore()
	sessions := newFakeSessionManager()
	svc := newTestService(t, store, sessions, nil)
	ctx := context.Background()

	signedIn, err := svc.Register(ctx, registerInput(), "")
	require.NoError(t, err)
	claims, err := auth.ParseAccessToken(jwtConfig(), signedIn.AccessToken)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, claims.ID))
	require.Contains(t, sessions.revoked, claims.ID)

	_, err = svc.Refresh(ctx, signedIn.AccessToken, signedIn.RefreshToken)
	requireCode(t, err, pkgerrors.CodeUnauthorized)
}

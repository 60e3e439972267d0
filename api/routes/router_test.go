package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/inkmint/inkmint-backend/internal/cart"
	pkgauth "github.com/inkmint/inkmint-backend/pkg/auth"
	"github.com/inkmint/inkmint-backend/pkg/config"
	"github.com/inkmint/inkmint-backend/pkg/enums"
	"github.com/inkmint/inkmint-backend/pkg/logger"
	"github.com/inkmint/inkmint-backend/pkg/metrics"
)

type alwaysOnSessions struct{}

func (alwaysOnSessions) HasSession(context.Context, string) (bool, error) { return true, nil }

type memoryIdempotencyStore struct {
	records map[string]string
}

func (m *memoryIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	return m.records[key], nil
}

func (m *memoryIdempotencyStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, exists := m.records[key]; exists {
		return false, nil
	}
	m.records[key] = value.(string)
	return true, nil
}

func (m *memoryIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

func (m *memoryIdempotencyStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.records, key)
	}
	return nil
}

type fakeCartService struct {
	summary *cart.Summary
}

func (f *fakeCartService) GetCart(context.Context, uuid.UUID) (*cart.Summary, error) {
	return f.summary, nil
}

func (f *fakeCartService) AddItem(context.Context, uuid.UUID, cart.AddItemInput) (*cart.Summary, error) {
	return f.summary, nil
}

func (f *fakeCartService) UpdateItemQuantity(context.Context, uuid.UUID, uuid.UUID, int) (*cart.Summary, error) {
	return f.summary, nil
}

func (f *fakeCartService) RemoveItem(context.Context, uuid.UUID, uuid.UUID) (*cart.Summary, error) {
	return f.summary, nil
}

func (f *fakeCartService) Clear(context.Context, uuid.UUID) error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "router-test-secret",
			Issuer:            "inkmint-test",
			ExpirationMinutes: 15,
		},
	}
}

func testRouter(t *testing.T, svcs Services) http.Handler {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "router-test", Level: zerolog.ErrorLevel})
	return NewRouter(testConfig(), logg, Deps{
		Sessions:        alwaysOnSessions{},
		Idempotency:     &memoryIdempotencyStore{records: map[string]string{}},
		MetricsGatherer: prometheus.NewRegistry(),
		HTTPMetrics:     metrics.NewHTTPMetrics(nil),
	}, svcs)
}

func mintToken(t *testing.T, role enums.UserRole) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(testConfig().JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
	})
	require.NoError(t, err)
	return token
}

func TestHealthLive(t *testing.T) {
	router := testRouter(t, Services{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "test", rec.Header().Get("X-Inkmint-Env"))
}

func TestMetricsEndpointMounted(t *testing.T) {
	router := testRouter(t, Services{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCartRequiresAuth(t *testing.T) {
	router := testRouter(t, Services{Cart: &fakeCartService{summary: &cart.Summary{}}})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/cart", nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCartServedWithBearerToken(t *testing.T) {
	router := testRouter(t, Services{Cart: &fakeCartService{summary: &cart.Summary{SubtotalCents: 500}}})

	req := httptest.NewRequest(http.MethodGet, "/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.UserRoleCustomer))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.True(t, strings.Contains(string(envelope.Data), "500"))
}

func TestAdminRoutesRejectCustomers(t *testing.T) {
	router := testRouter(t, Services{})

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/orders", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.UserRoleCustomer))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCheckoutRequiresIdempotencyKey(t *testing.T) {
	router := testRouter(t, Services{})

	req := httptest.NewRequest(http.MethodPost, "/v1/checkout", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.UserRoleCustomer))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Idempotency-Key")
}

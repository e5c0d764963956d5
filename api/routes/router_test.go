package routes

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/dispensary-pos/internal/settings"
	"github.com/angelmondragon/dispensary-pos/pkg/auth"
	"github.com/angelmondragon/dispensary-pos/pkg/auth/session"
	"github.com/angelmondragon/dispensary-pos/pkg/config"
	"github.com/angelmondragon/dispensary-pos/pkg/db/models"
	"github.com/angelmondragon/dispensary-pos/pkg/enums"
	"github.com/angelmondragon/dispensary-pos/pkg/metrics"
)

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error {
	return p.err
}

type memoryStore struct {
	stubPinger
	data    map[string]string
	blocked bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string]string{}}
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = fmt.Sprint(value)
	return true, nil
}

func (m *memoryStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return "idempotency:" + scope + ":" + id
}

func (m *memoryStore) FixedWindowAllow(context.Context, string, int64, time.Duration) (bool, int64, error) {
	if m.blocked {
		return false, 99, nil
	}
	return true, 1, nil
}

type stubSessions struct{}

func (stubSessions) HasSession(context.Context, string) (bool, error) {
	return true, nil
}

type stubSettingsService struct {
	updated bool
}

func (s *stubSettingsService) Get(context.Context) (*models.CompanySettings, error) {
	return &models.CompanySettings{ID: 1, CompanyName: "Green Room", TaxRate: decimal.RequireFromString("0.07")}, nil
}

func (s *stubSettingsService) Update(_ context.Context, input settings.UpdateInput) (*models.CompanySettings, error) {
	s.updated = true
	out := &models.CompanySettings{ID: 1}
	if input.CompanyName != nil {
		out.CompanyName = *input.CompanyName
	}
	return out, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{Secret: "router-secret", Issuer: "dispensary-pos", ExpirationMinutes: 15},
		AuthRateLimit: config.AuthRateLimitConfig{
			LoginWindow:        time.Minute,
			LoginUsernameLimit: 5,
			LoginIPLimit:       20,
		},
	}
}

type testServer struct {
	handler  http.Handler
	cfg      *config.Config
	store    *memoryStore
	settings *stubSettingsService
}

func newTestServer(t *testing.T, dbErr error) *testServer {
	t.Helper()
	cfg := testConfig()
	store := newMemoryStore()
	settingsSvc := &stubSettingsService{}
	reg := prometheus.NewRegistry()
	handler := NewRouter(
		cfg,
		nil,
		stubPinger{err: dbErr},
		store,
		stubSessions{},
		metrics.NewPOSMetrics(reg),
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		nil, nil, nil, nil, nil, nil, nil, nil, nil,
		settingsSvc,
	)
	return &testServer{handler: handler, cfg: cfg, store: store, settings: settingsSvc}
}

func (s *testServer) token(t *testing.T, role enums.AdminRole) string {
	t.Helper()
	token, err := auth.MintAccessToken(s.cfg.JWT, time.Now(), auth.AccessTokenPayload{
		UserID:   uuid.New(),
		Username: "till-1",
		Role:     role,
		JTI:      session.NewAccessID(),
	})
	require.NoError(t, err)
	return token
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func authed(method, target, body, token string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestHealthLive(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := srv.do(httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", rec.Header().Get("X-POS-Env"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestHealthReadyReportsDependencyFailure(t *testing.T) {
	srv := newTestServer(t, errors.New("connection refused"))
	rec := srv.do(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	ok := newTestServer(t, nil)
	assert.Equal(t, http.StatusOK, ok.do(httptest.NewRequest(http.MethodGet, "/health/ready", nil)).Code)
}

func TestMetricsEndpointExposesHTTPHistogram(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.do(httptest.NewRequest(http.MethodGet, "/health/live", nil))

	rec := srv.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pos_http_request_duration_seconds")
}

func TestAPIRequiresToken(t *testing.T) {
	srv := newTestServer(t, nil)
	for _, target := range []string{"/api/members", "/api/settings", "/api/sessions", "/api/reports/sales"} {
		rec := srv.do(httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
	}
}

func TestSessionCurrentEchoesCaller(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := srv.do(authed(http.MethodGet, "/api/sessions", "", srv.token(t, enums.AdminRoleDealer)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"till-1"`)
	assert.Contains(t, rec.Body.String(), `"role":"dealer"`)
}

func TestDealerCannotUseAdminRoutes(t *testing.T) {
	srv := newTestServer(t, nil)
	token := srv.token(t, enums.AdminRoleDealer)

	assert.Equal(t, http.StatusOK, srv.do(authed(http.MethodGet, "/api/settings", "", token)).Code)

	cases := []struct {
		method string
		target string
		body   string
	}{
		{http.MethodPut, "/api/settings", `{"companyName":"X"}`},
		{http.MethodGet, "/api/reports/sales", ""},
		{http.MethodPost, "/api/admin-users", `{}`},
		{http.MethodDelete, "/api/transactions/" + uuid.NewString(), ""},
		{http.MethodPut, "/api/tiers/gold", `{"rate":"0.1"}`},
		{http.MethodPost, "/api/inventory", `{}`},
	}
	for _, tc := range cases {
		rec := srv.do(authed(tc.method, tc.target, tc.body, token))
		assert.Equal(t, http.StatusForbidden, rec.Code, tc.method+" "+tc.target)
	}
	assert.False(t, srv.settings.updated)
}

func TestAdminCanUpdateSettings(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := srv.do(authed(http.MethodPut, "/api/settings", `{"companyName":"Green Room"}`, srv.token(t, enums.AdminRoleAdmin)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, srv.settings.updated)
	assert.Contains(t, rec.Body.String(), `"companyName":"Green Room"`)
}

func TestSalesRequireIdempotencyKey(t *testing.T) {
	srv := newTestServer(t, nil)
	token := srv.token(t, enums.AdminRoleDealer)
	for _, target := range []string{"/api/orders", "/api/transactions", "/api/invoices"} {
		rec := srv.do(authed(http.MethodPost, target, `{}`, token))
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.Contains(t, rec.Body.String(), "Idempotency-Key", target)
	}
}

func TestLoginIsRateLimited(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.store.blocked = true
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"username":"till-1","password":"pw"}`))
	rec := srv.do(req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRefreshIsOutsideAuth(t *testing.T) {
	srv := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/refresh", strings.NewReader(`{"refreshToken":"abc"}`))
	rec := srv.do(req)
	// No auth service is wired, so the handler itself answers.
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

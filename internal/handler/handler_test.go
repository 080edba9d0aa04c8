package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"callhub-service/internal/middleware"
	"callhub-service/internal/model"
	"callhub-service/internal/service"
	"callhub-service/internal/store"
	"callhub-service/pkg/config"
	"callhub-service/pkg/jwtutil"
	"callhub-service/pkg/provider"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testApp wires the full router the way cmd/main.go does, against the
// in-memory store and the mock provider
type testApp struct {
	e   *echo.Echo
	mem *store.Memory
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	mem := store.NewMemory()
	jwt := jwtutil.NewJWTUtil(&config.JWTConfig{SigningKey: "test-secret", ExpirationHours: 168})
	log := zap.NewNop()

	mock := provider.NewMock()
	mock.AdvanceEveryPoll = true

	audit := service.NewAuditRecorder(mem.Audit(), log)
	accounts := service.NewAccountService(mem, jwt, audit, log)
	calls := service.NewCallService(mem.Calls(), mock, audit, log)

	authHandler := NewAuthHandler(accounts)
	tenantHandler := NewTenantHandler(accounts)
	userHandler := NewUserHandler(accounts)
	callHandler := NewCallHandler(calls)
	auditHandler := NewAuditHandler(mem.Audit(), audit)

	e := echo.New()
	e.Use(middleware.RequestIDMiddleware)
	e.Use(middleware.TenantResolver(mem.Tenants()))

	e.GET("/health", HealthCheck)
	e.POST("/signup", authHandler.Signup)

	auth := e.Group("/auth")
	auth.Use(middleware.RequireTenant)
	auth.POST("/login", authHandler.Login)

	api := e.Group("/api")
	api.Use(middleware.RequireTenant)
	api.Use(middleware.Auth(jwt, mem.Users(), audit))

	api.GET("/users/me", userHandler.Me)
	api.POST("/users", userHandler.Create, middleware.RequireAdmin)
	api.GET("/tenants/current", tenantHandler.Current)
	api.PATCH("/tenants/branding", tenantHandler.UpdateBranding, middleware.RequireAdmin)
	api.POST("/calls", callHandler.Create)
	api.GET("/calls", callHandler.List)
	api.GET("/calls/:id/status", callHandler.Status)
	api.GET("/calls/:id/transcript", callHandler.Transcript)
	api.GET("/audit", auditHandler.List, middleware.RequireAdmin)

	return &testApp{e: e, mem: mem}
}

func (a *testApp) do(method, path, tenant, token, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if tenant != "" {
		req.Header.Set(middleware.TenantHeader, tenant)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) signup(t *testing.T, email, password, subdomain, name string) (token string) {
	t.Helper()
	rec := a.do(http.MethodPost, "/signup", "",
		"", `{"email":"`+email+`","password":"`+password+`","subdomain":"`+subdomain+`","tenantName":"`+name+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Token  string `json:"token"`
		Tenant struct {
			Subdomain string `json:"subdomain"`
		} `json:"tenant"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, subdomain, resp.Tenant.Subdomain)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestSignupAndCrossTenantForbidden(t *testing.T) {
	app := newTestApp(t)

	acmeToken := app.signup(t, "a@acme.com", "secret1", "acme", "Acme")
	app.signup(t, "b@beta.com", "secret2", "beta", "Beta")

	// acme's token against beta's subdomain: Forbidden, not NotFound.
	rec := app.do(http.MethodGet, "/api/calls", "beta", acmeToken, "")
	require.Equal(t, http.StatusForbidden, rec.Code)

	// Exactly one cross-tenant audit entry was written.
	var violations int
	for _, entry := range app.mem.Entries() {
		if entry.Action == model.ActionCrossTenant {
			violations++
		}
	}
	require.Equal(t, 1, violations)

	// The same token against its own tenant works.
	rec = app.do(http.MethodGet, "/api/calls", "acme", acmeToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestSignup_DuplicateSubdomainConflicts(t *testing.T) {
	app := newTestApp(t)
	app.signup(t, "a@acme.com", "secret1", "acme", "Acme")

	rec := app.do(http.MethodPost, "/signup", "",
		"", `{"email":"x@y.com","password":"p","subdomain":"acme","tenantName":"Clone"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestLogin_RequiresResolvedTenant(t *testing.T) {
	app := newTestApp(t)
	app.signup(t, "a@acme.com", "secret1", "acme", "Acme")

	// No tenant header or subdomain: login cannot resolve a tenant.
	rec := app.do(http.MethodPost, "/auth/login", "", "", `{"email":"a@acme.com","password":"secret1"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.do(http.MethodPost, "/auth/login", "acme", "", `{"email":"a@acme.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCallLifecycleThroughAPI(t *testing.T) {
	app := newTestApp(t)
	token := app.signup(t, "a@acme.com", "secret1", "acme", "Acme")

	rec := app.do(http.MethodPost, "/api/calls", "acme", token,
		`{"systemPrompt":"be helpful","model":"gpt-4o","voice":"alloy"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Call struct {
			ID     uint   `json:"id"`
			Status string `json:"status"`
		} `json:"call"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, "queued", created.Call.Status)
	callPath := fmt.Sprintf("/api/calls/%d", created.Call.ID)

	// No transcript yet: a null transcript, not an error.
	rec = app.do(http.MethodGet, callPath+"/transcript", "acme", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var transcript struct {
		Transcript []model.TranscriptSegment `json:"transcript"`
		Available  bool                      `json:"available"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &transcript))
	require.False(t, transcript.Available)
	require.Nil(t, transcript.Transcript)

	// Poll until the mock progresses to completed; each status change appends
	// one event.
	var status struct {
		Status string           `json:"status"`
		Events model.CallEvents `json:"events"`
	}
	for i := 0; i < 3; i++ {
		rec = app.do(http.MethodGet, callPath+"/status", "acme", token, "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	}
	require.Equal(t, "completed", status.Status)
	require.Len(t, status.Events, 3)
	require.Equal(t, "status.completed", status.Events[2].Type)

	// Transcript is now available and cached.
	rec = app.do(http.MethodGet, callPath+"/transcript", "acme", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &transcript))
	require.True(t, transcript.Available)
	require.NotEmpty(t, transcript.Transcript)
}

func TestAdminGuards(t *testing.T) {
	app := newTestApp(t)
	adminToken := app.signup(t, "a@acme.com", "secret1", "acme", "Acme")

	// Provision a standard user as admin.
	rec := app.do(http.MethodPost, "/api/users", "acme", adminToken,
		`{"email":"b@acme.com","password":"secret2","role":"user"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = app.do(http.MethodPost, "/auth/login", "acme", "", `{"email":"b@acme.com","password":"secret2"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))

	// The standard user cannot reach admin routes.
	rec = app.do(http.MethodGet, "/api/audit", "acme", login.Token, "")
	require.Equal(t, http.StatusForbidden, rec.Code)
	rec = app.do(http.MethodPost, "/api/users", "acme", login.Token, `{"email":"c@acme.com","password":"p"}`)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// The admin can list the audit trail.
	rec = app.do(http.MethodGet, "/api/audit", "acme", adminToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestUserResponseHidesPasswordHash(t *testing.T) {
	app := newTestApp(t)
	token := app.signup(t, "a@acme.com", "secret1", "acme", "Acme")

	rec := app.do(http.MethodGet, "/api/users/me", "acme", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "password")
	require.NotContains(t, rec.Body.String(), "$2a$")
}

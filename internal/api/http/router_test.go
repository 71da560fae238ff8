package http

import (
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/roster-service/internal/api/http/handlers"
	"github.com/spec-kit/roster-service/internal/auth"
	"github.com/spec-kit/roster-service/internal/ingestion"
	"github.com/spec-kit/roster-service/internal/observability"
)

const testSecret = "test-secret"

// newTestApp wires middleware, auth, and routes. Roster handlers get nil
// services: these tests only exercise the access-control layers in front of
// them.
func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), 5*time.Second)

	tokenManager := auth.NewTokenManager(testSecret)
	rosterHandler := handlers.NewRosterHandler(nil, nil, ingestion.NewParser(), observability.NewMetrics())

	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("roster-test", "test", nil, nil),
		Roster:         rosterHandler,
		AuthMiddleware: auth.NewAuthMiddleware(tokenManager),
	})
	return app
}

func mintToken(t *testing.T, role string) string {
	t.Helper()
	tokenStr, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "actor-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return tokenStr
}

func TestHealthLive(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(stdhttp.MethodGet, "/health/live", nil))
	require.NoError(t, err)
	assert.Equal(t, stdhttp.StatusOK, resp.StatusCode)
}

func TestRosterRoutesRequireToken(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(stdhttp.MethodPost, "/orgs/org-1/roster/preview", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, stdhttp.StatusUnauthorized, resp.StatusCode)
}

func TestRosterRoutesRejectMalformedToken(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(stdhttp.MethodPost, "/orgs/org-1/roster/import/cancel", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, stdhttp.StatusUnauthorized, resp.StatusCode)
}

func TestRosterRoutesRejectInsufficientRole(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(stdhttp.MethodGet, "/orgs/org-1/roster/import/pending", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, "VIEWER"))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, stdhttp.StatusForbidden, resp.StatusCode)

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "FORBIDDEN", body.Error.Code)
}

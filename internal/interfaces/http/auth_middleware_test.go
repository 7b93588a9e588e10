package http_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphttp "github.com/jhoicas/quantlab-api/internal/interfaces/http"
	"github.com/jhoicas/quantlab-api/pkg/authz"
	pkgjwt "github.com/jhoicas/quantlab-api/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testAdminID   = "00000000-0000-4000-8000-000000000001"
	testUserID    = "00000000-0000-4000-8000-000000000002"
	testOtherID   = "00000000-0000-4000-8000-000000000003"
	testIssuer    = "quantlab-api-test"
	testExpMin    = 60
)

// buildTestApp construye una aplicación Fiber mínima con:
//   - AuthMiddleware para parsear el JWT y cargar locals
//   - RequirePermission con la política embebida para (object, action)
//   - Un handler dummy que devuelve 200 si pasa los middlewares
func buildTestApp(t *testing.T, object, action string) *fiber.App {
	t.Helper()
	a, err := authz.New("")
	require.NoError(t, err)

	app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler})
	app.Get("/protected",
		apphttp.AuthMiddleware(apphttp.AuthOptions{Secret: testJWTSecret}),
		apphttp.RequirePermission(a, object, action),
		func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusOK).JSON(fiber.Map{
				"ok":   true,
				"role": apphttp.GetRole(c),
			})
		},
	)
	return app
}

// tokenFor genera un JWT con el usuario y rol indicados.
func tokenFor(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, userID, role, testIssuer, testExpMin)
	require.NoError(t, err, "debe generarse un token JWT válido")
	return "Bearer " + tok
}

// doRequest lanza una petición GET /protected y devuelve la respuesta.
func doRequest(t *testing.T, app *fiber.App, authHeader string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests RequirePermission (casbin)
// ──────────────────────────────────────────────────────────────────────────────

func TestRequirePermission_AdminBorraCategorias(t *testing.T) {
	app := buildTestApp(t, authz.ObjectCategories, authz.ActionDelete)
	resp := doRequest(t, app, tokenFor(t, testAdminID, "admin"))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "admin", body["role"])
}

func TestRequirePermission_UserNoBorraCategorias(t *testing.T) {
	app := buildTestApp(t, authz.ObjectCategories, authz.ActionDelete)
	resp := doRequest(t, app, tokenFor(t, testUserID, "user"))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "FORBIDDEN")
}

func TestRequirePermission_TokenSinRol_Retorna401(t *testing.T) {
	app := buildTestApp(t, authz.ObjectCategories, authz.ActionDelete)
	resp := doRequest(t, app, tokenFor(t, testUserID, ""))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "MISSING_ROLE")
}

func TestRequirePermission_SinAuthHeader_Retorna401(t *testing.T) {
	app := buildTestApp(t, authz.ObjectCategories, authz.ActionDelete)
	resp := doRequest(t, app, "")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "MISSING_TOKEN")
}

func TestRequirePermission_TokenInvalido_Retorna401(t *testing.T) {
	app := buildTestApp(t, authz.ObjectCategories, authz.ActionDelete)
	resp := doRequest(t, app, "Bearer token.invalido.aqui")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests AuthMiddleware: claims y tokens mock
// ──────────────────────────────────────────────────────────────────────────────

func meApp(opts apphttp.AuthOptions) *fiber.App {
	app := fiber.New()
	app.Get("/me", apphttp.AuthMiddleware(opts), func(c *fiber.Ctx) error {
		actor := apphttp.GetActor(c)
		return c.JSON(fiber.Map{"user_id": actor.UserID, "role": actor.Role})
	})
	return app
}

func TestAuthMiddleware_ExtraeClaims(t *testing.T) {
	app := meApp(apphttp.AuthOptions{Secret: testJWTSecret})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", tokenFor(t, testAdminID, "admin"))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, testAdminID, body["user_id"])
	assert.Equal(t, "admin", body["role"])
}

func TestAuthMiddleware_MockHabilitado(t *testing.T) {
	app := meApp(apphttp.AuthOptions{Secret: testJWTSecret, AllowMockTokens: true})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer mock:user:"+testUserID)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, testUserID, body["user_id"])
	assert.Equal(t, "user", body["role"])
}

func TestAuthMiddleware_MockRolDesconocido(t *testing.T) {
	app := meApp(apphttp.AuthOptions{Secret: testJWTSecret, AllowMockTokens: true})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer mock:root:"+testUserID)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddleware_MockDeshabilitado(t *testing.T) {
	app := meApp(apphttp.AuthOptions{Secret: testJWTSecret})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer mock:admin:"+testAdminID)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests RequirePermission: permisos de lectura del rol user
// ──────────────────────────────────────────────────────────────────────────────

func TestRequirePermission_UserLeeCategorias(t *testing.T) {
	app := buildTestApp(t, authz.ObjectCategories, authz.ActionRead)
	resp := doRequest(t, app, tokenFor(t, testUserID, "user"))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

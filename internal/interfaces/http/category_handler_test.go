package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/quantlab-api/internal/application/dto"
	"github.com/jhoicas/quantlab-api/internal/application/usecase"
	"github.com/jhoicas/quantlab-api/internal/domain/repository"
	"github.com/jhoicas/quantlab-api/internal/infrastructure/datasource"
	"github.com/jhoicas/quantlab-api/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/quantlab-api/internal/interfaces/http"
	"github.com/jhoicas/quantlab-api/pkg/authz"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers: API completa sobre la fuente en memoria
// ──────────────────────────────────────────────────────────────────────────────

func newAPI(t *testing.T, ds repository.DataSource) *fiber.App {
	t.Helper()
	a, err := authz.New("")
	require.NoError(t, err)

	app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler})
	apphttp.Router(app, apphttp.RouterDeps{
		DataSource: ds,
		CategoryUC: usecase.NewCategoryUseCase(ds, nil),
		StrategyUC: usecase.NewStrategyUseCase(ds, nil),
		TemplateUC: usecase.NewTemplateUseCase(ds, nil),
		Authorizer: a,
		Auth:       apphttp.AuthOptions{Secret: testJWTSecret},
		AppName:    "quantlab-api-test",
	})
	return app
}

func call(t *testing.T, app *fiber.App, method, path, auth string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func createCategory(t *testing.T, app *fiber.App, auth string, in dto.CreateCategoryRequest) dto.CategoryResponse {
	t.Helper()
	resp := call(t, app, http.MethodPost, "/api/categories", auth, in)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[dto.CategoryResponse](t, resp)
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestCategories_ArbolRaizConHijo(t *testing.T) {
	app := newAPI(t, memory.New())
	admin := tokenFor(t, testAdminID, "admin")

	trend := createCategory(t, app, admin, dto.CreateCategoryRequest{Name: "Trend"})
	momentum := createCategory(t, app, admin, dto.CreateCategoryRequest{Name: "Momentum", Parent: trend.ID})
	require.NotNil(t, momentum.Parent)
	assert.Equal(t, trend.ID, *momentum.Parent)
	assert.Equal(t, []string{}, momentum.Tags)
	assert.Equal(t, "public", momentum.Visibility)

	resp := call(t, app, http.MethodGet, "/api/categories/tree", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tree := decode[[]dto.CategoryTreeNode](t, resp)

	require.Len(t, tree, 1)
	assert.Equal(t, "Trend", tree[0].Name)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, "Momentum", tree[0].Children[0].Name)
	assert.Empty(t, tree[0].Children[0].Children)
}

func TestCategories_NombreDuplicadoEntreHermanos(t *testing.T) {
	app := newAPI(t, memory.New())
	admin := tokenFor(t, testAdminID, "admin")

	createCategory(t, app, admin, dto.CreateCategoryRequest{Name: "A"})
	resp := call(t, app, http.MethodPost, "/api/categories", admin, dto.CreateCategoryRequest{Name: "A"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	body := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, apphttp.CodeConflict, body.Error)
}

func TestCategories_PlantillaBloqueaBorrado(t *testing.T) {
	app := newAPI(t, memory.New())
	admin := tokenFor(t, testAdminID, "admin")

	c := createCategory(t, app, admin, dto.CreateCategoryRequest{Name: "Con plantilla"})
	resp := call(t, app, http.MethodPost, "/api/templates", admin, dto.CreateTemplateRequest{Name: "T", Category: c.ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = call(t, app, http.MethodDelete, "/api/categories/"+c.ID, admin, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	body := decode[dto.ErrorResponse](t, resp)
	assert.Contains(t, body.Message, "plantillas")

	// La categoría sigue existiendo.
	resp = call(t, app, http.MethodGet, "/api/categories/"+c.ID, admin, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCategories_BorradoSinDependencias(t *testing.T) {
	app := newAPI(t, memory.New())
	admin := tokenFor(t, testAdminID, "admin")

	c := createCategory(t, app, admin, dto.CreateCategoryRequest{Name: "Temporal"})
	resp := call(t, app, http.MethodDelete, "/api/categories/"+c.ID, admin, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = call(t, app, http.MethodGet, "/api/categories/"+c.ID, admin, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCategories_SistemaNoSeBorra(t *testing.T) {
	app := newAPI(t, memory.New())
	admin := tokenFor(t, testAdminID, "admin")

	c := createCategory(t, app, admin, dto.CreateCategoryRequest{Name: "Base", IsSystem: true})
	resp := call(t, app, http.MethodDelete, "/api/categories/"+c.ID, admin, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCategories_AutoReferencia(t *testing.T) {
	app := newAPI(t, memory.New())
	admin := tokenFor(t, testAdminID, "admin")

	c := createCategory(t, app, admin, dto.CreateCategoryRequest{Name: "X"})
	resp := call(t, app, http.MethodPut, "/api/categories/"+c.ID, admin, map[string]any{"parent": c.ID})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, apphttp.CodeInvalidArgument, body.Error)
}

func TestCategories_IDMalFormadoEInexistente(t *testing.T) {
	app := newAPI(t, memory.New())
	admin := tokenFor(t, testAdminID, "admin")

	resp := call(t, app, http.MethodGet, "/api/categories/no-es-uuid", admin, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = call(t, app, http.MethodGet, "/api/categories/"+uuid.NewString(), admin, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	body := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, apphttp.CodeNotFound, body.Error)
}

func TestCategories_UsuarioNoCreaPublicas(t *testing.T) {
	app := newAPI(t, memory.New())
	user := tokenFor(t, testUserID, "user")

	resp := call(t, app, http.MethodPost, "/api/categories", user, dto.CreateCategoryRequest{Name: "Pública"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	own := createCategory(t, app, user, dto.CreateCategoryRequest{Name: "Mía", Visibility: "private"})
	require.NotNil(t, own.Owner)
	assert.Equal(t, testUserID, *own.Owner)

	// Otro usuario no la ve.
	other := tokenFor(t, testOtherID, "user")
	resp = call(t, app, http.MethodGet, "/api/categories/"+own.ID, other, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCategories_UsuarioNoBorraPorPolitica(t *testing.T) {
	app := newAPI(t, memory.New())
	user := tokenFor(t, testUserID, "user")

	own := createCategory(t, app, user, dto.CreateCategoryRequest{Name: "Mía", Visibility: "private"})
	resp := call(t, app, http.MethodDelete, "/api/categories/"+own.ID, user, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCategories_ListadoFiltrosYOrdenInvalido(t *testing.T) {
	app := newAPI(t, memory.New())
	admin := tokenFor(t, testAdminID, "admin")

	root := createCategory(t, app, admin, dto.CreateCategoryRequest{Name: "Raíz"})
	createCategory(t, app, admin, dto.CreateCategoryRequest{Name: "Hija", Parent: root.ID, Tags: []string{"momentum"}})

	resp := call(t, app, http.MethodGet, "/api/categories?parent=root", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[dto.CategoryListResponse](t, resp)
	assert.Equal(t, 1, list.Total)
	assert.Equal(t, 1, list.Page)
	assert.Equal(t, "Raíz", list.Items[0].Name)

	resp = call(t, app, http.MethodGet, "/api/categories?search=MOMENT", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list = decode[dto.CategoryListResponse](t, resp)
	require.Equal(t, 1, list.Total)
	assert.Equal(t, "Hija", list.Items[0].Name)

	resp = call(t, app, http.MethodGet, "/api/categories?sort=popularity", admin, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = call(t, app, http.MethodGet, "/api/categories?archived=quizas", admin, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCategories_BatchIgnoraIDsInvalidos(t *testing.T) {
	app := newAPI(t, memory.New())
	admin := tokenFor(t, testAdminID, "admin")

	a := createCategory(t, app, admin, dto.CreateCategoryRequest{Name: "A"})
	resp := call(t, app, http.MethodGet, "/api/categories/batch?ids="+a.ID+",basura,"+uuid.NewString(), admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[[]dto.CategoryResponse](t, resp)
	require.Len(t, out, 1)
	assert.Equal(t, a.ID, out[0].ID)
}

func TestCategories_ArchivarYReactivar(t *testing.T) {
	app := newAPI(t, memory.New())
	admin := tokenFor(t, testAdminID, "admin")

	c := createCategory(t, app, admin, dto.CreateCategoryRequest{Name: "Vieja"})
	resp := call(t, app, http.MethodPatch, "/api/categories/"+c.ID+"/archive", admin, dto.ArchiveCategoryRequest{Archived: true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[dto.CategoryResponse](t, resp).Archived)

	resp = call(t, app, http.MethodPatch, "/api/categories/"+c.ID+"/archive", admin, dto.ArchiveCategoryRequest{Archived: false})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, decode[dto.CategoryResponse](t, resp).Archived)
}

func TestCategories_EstrategiasDeCategoria(t *testing.T) {
	app := newAPI(t, memory.New())
	admin := tokenFor(t, testAdminID, "admin")

	c := createCategory(t, app, admin, dto.CreateCategoryRequest{Name: "Con estrategias"})
	resp := call(t, app, http.MethodGet, "/api/categories/"+c.ID+"/strategies", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[[]dto.StrategyResponse](t, resp))

	resp = call(t, app, http.MethodPost, "/api/strategies", admin, dto.CreateStrategyRequest{Name: "S1", Categories: []string{c.ID}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = call(t, app, http.MethodGet, "/api/categories/"+c.ID+"/strategies", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[[]dto.StrategyResponse](t, resp)
	require.Len(t, out, 1)
	assert.Equal(t, "S1", out[0].Name)

	resp = call(t, app, http.MethodGet, "/api/categories/"+uuid.NewString()+"/strategies", admin, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCategories_SinToken(t *testing.T) {
	app := newAPI(t, memory.New())
	resp := call(t, app, http.MethodGet, "/api/categories", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCategories_FuenteNoDisponibleResponde503(t *testing.T) {
	app := newAPI(t, datasource.NewUnavailable(nil))
	admin := tokenFor(t, testAdminID, "admin")

	resp := call(t, app, http.MethodGet, "/api/categories", admin, nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	body := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, apphttp.CodeServiceUnavailable, body.Error)

	resp = call(t, app, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHealth_Memory(t *testing.T) {
	app := newAPI(t, memory.New())
	resp := call(t, app, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]string](t, resp)
	assert.Equal(t, "memory", body["datasource"])
	assert.Equal(t, "ok", body["status"])
}

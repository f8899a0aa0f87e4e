package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Financiamiento-api/internal/application/dto"
	apphttp "github.com/jhoicas/Financiamiento-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/Financiamiento-api/pkg/jwt"
)

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testUserID    = "00000000-0000-0000-0000-000000000001"
	testName      = "Operador de prueba"
	testIssuer    = "financiamiento-test"
	testExpMin    = 60
)

// collectionsApp replica la protección de /collections: recordatorios para
// admin y cobrador, recálculo de estados solo para admin, listado abierto.
func collectionsApp() *fiber.App {
	app := fiber.New()
	coll := app.Group("/api/collections", apphttp.AuthMiddleware(testJWTSecret))
	ok := func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"role": apphttp.GetRole(c), "user_id": apphttp.GetUserID(c), "name": apphttp.GetName(c)})
	}
	coll.Get("/", ok)
	coll.Post("/reminders", apphttp.RequireRole(apphttp.RoleAdmin, apphttp.RoleCollector), ok)
	coll.Post("/refresh-status", apphttp.RequireRole(apphttp.RoleAdmin), ok)
	return app
}

func tokenForRole(t *testing.T, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, testName, role, testIssuer, testExpMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

func call(t *testing.T, app *fiber.App, method, path, auth string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Code
}

func TestRequireRole_CollectionsMatrix(t *testing.T) {
	app := collectionsApp()
	cases := []struct {
		role   string
		method string
		path   string
		want   int
	}{
		{apphttp.RoleAdmin, http.MethodPost, "/api/collections/reminders", http.StatusOK},
		{apphttp.RoleCollector, http.MethodPost, "/api/collections/reminders", http.StatusOK},
		{apphttp.RoleSeller, http.MethodPost, "/api/collections/reminders", http.StatusForbidden},
		{apphttp.RoleAdmin, http.MethodPost, "/api/collections/refresh-status", http.StatusOK},
		{apphttp.RoleCollector, http.MethodPost, "/api/collections/refresh-status", http.StatusForbidden},
		{apphttp.RoleSeller, http.MethodPost, "/api/collections/refresh-status", http.StatusForbidden},
		{apphttp.RoleSeller, http.MethodGet, "/api/collections/", http.StatusOK},
		{apphttp.RoleCollector, http.MethodGet, "/api/collections/", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.role+" "+tc.path, func(t *testing.T) {
			resp := call(t, app, tc.method, tc.path, tokenForRole(t, tc.role))
			defer resp.Body.Close()
			require.Equal(t, tc.want, resp.StatusCode)
			if tc.want == http.StatusForbidden {
				assert.Equal(t, "FORBIDDEN", errorCode(t, resp))
			}
		})
	}
}

func TestRequireRole_TokenWithoutRole(t *testing.T) {
	app := collectionsApp()
	resp := call(t, app, http.MethodPost, "/api/collections/reminders", tokenForRole(t, ""))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "MISSING_ROLE", errorCode(t, resp))

	// Sin RequireRole el listado sigue abierto aunque el token no traiga rol.
	list := call(t, app, http.MethodGet, "/api/collections/", tokenForRole(t, ""))
	defer list.Body.Close()
	assert.Equal(t, http.StatusOK, list.StatusCode)
}

func TestAuthMiddleware_RejectsBadCredentials(t *testing.T) {
	app := collectionsApp()

	expired, err := pkgjwt.Generate(testJWTSecret, testUserID, testName, apphttp.RoleAdmin, testIssuer, -1)
	require.NoError(t, err)
	foreign, err := pkgjwt.Generate("otro-secreto", testUserID, testName, apphttp.RoleAdmin, testIssuer, testExpMin)
	require.NoError(t, err)

	cases := []struct {
		name string
		auth string
		code string
	}{
		{"sin header", "", "MISSING_TOKEN"},
		{"sin esquema", "abc.def.ghi", "INVALID_TOKEN"},
		{"malformado", "Bearer token.invalido.aqui", "INVALID_TOKEN"},
		{"expirado", "Bearer " + expired, "INVALID_TOKEN"},
		{"otro secreto", "Bearer " + foreign, "INVALID_TOKEN"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := call(t, app, http.MethodPost, "/api/collections/refresh-status", tc.auth)
			defer resp.Body.Close()
			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, tc.code, errorCode(t, resp))
		})
	}
}

func TestAuthMiddleware_LoadsOperator(t *testing.T) {
	app := collectionsApp()
	resp := call(t, app, http.MethodPost, "/api/collections/reminders", tokenForRole(t, apphttp.RoleCollector))
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, testUserID, body["user_id"])
	assert.Equal(t, testName, body["name"])
	assert.Equal(t, apphttp.RoleCollector, body["role"])
}

package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Financiamiento-api/internal/application/analytics"
	"github.com/jhoicas/Financiamiento-api/internal/application/auth"
	"github.com/jhoicas/Financiamiento-api/internal/application/dto"
	"github.com/jhoicas/Financiamiento-api/internal/application/inventory"
	"github.com/jhoicas/Financiamiento-api/internal/application/sales"
	"github.com/jhoicas/Financiamiento-api/internal/application/store"
	"github.com/jhoicas/Financiamiento-api/internal/application/usecase"
	"github.com/jhoicas/Financiamiento-api/internal/domain/entity"
	"github.com/jhoicas/Financiamiento-api/internal/domain/financing"
	"github.com/jhoicas/Financiamiento-api/internal/infrastructure/memory"
	"github.com/jhoicas/Financiamiento-api/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/Financiamiento-api/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fixture: API completa sobre la base en memoria
// ──────────────────────────────────────────────────────────────────────────────

type apiFixture struct {
	app   *fiber.App
	db    *memory.DB
	store *store.Store
}

func newAPI(t *testing.T) apiFixture {
	t.Helper()
	ctx := context.Background()
	db := memory.New()
	r := db.Repos()
	require.NoError(t, r.Products.Create(ctx, &entity.Product{
		ID: "nevera", Name: "Nevera", Category: "Línea blanca", Price: decimal.NewFromInt(600), Stock: 3, MinStock: 1,
	}))

	policy := financing.CanonicalPolicy()
	log := zerolog.Nop()
	st := store.New(store.RepoSource{Repos: r}, nil, policy, time.Second, log)
	st.Start(ctx)

	finUC := sales.NewFinancingUseCase(r, db, nil, policy, log).WithView(st)
	collUC := analytics.NewCollectionsUseCase(st, policy, analytics.CollectionsConfig{CountryCode: "58"}, nil, log)
	metrics := apphttp.NewMetrics()
	collUC.WithObserver(metrics)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC:        auth.NewAuthUseCase(db.Users(), auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: testExpMin, Issuer: testIssuer}),
		UserUC:        usecase.NewUserUseCase(db.Users()),
		CustomerUC:    usecase.NewCustomerUseCase(r.Customers, db, nil),
		ProductUC:     usecase.NewProductUseCase(r.Products),
		StockUC:       inventory.NewStockUseCase(db),
		FinancingUC:   finUC,
		CollectionsUC: collUC,
		ReportsUC:     analytics.NewReportsUseCase(st, collUC, finUC, pdf.NewMarotoRenderer("Tienda de prueba")),
		DashboardUC:   analytics.NewDashboardUseCase(st, policy),
		Store:         st,
		Metrics:       metrics,
		JWTSecret:     testJWTSecret,
		Log:           log,
	})
	return apiFixture{app: app, db: db, store: st}
}

func (f apiFixture) do(t *testing.T, method, path, role string, body interface{}) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if role != "" {
		req.Header.Set("Authorization", tokenForRole(t, role))
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (f apiFixture) reload(t *testing.T) {
	t.Helper()
	require.NoError(t, f.store.ReloadAll(context.Background()))
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func customerBody(nationalID string) map[string]interface{} {
	return map[string]interface{}{
		"name":         "José Pérez",
		"national_id":  nationalID,
		"phone":        "0414-1234567",
		"address":      "Av. Bolívar",
		"id_photo_url": "https://fotos.example.com/cedula.jpg",
	}
}

func (f apiFixture) createCustomer(t *testing.T) dto.CustomerResponse {
	t.Helper()
	resp := f.do(t, http.MethodPost, "/api/customers", "vendedor", customerBody("V-12.345.678"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[dto.CustomerResponse](t, resp)
}

func (f apiFixture) createFinancing(t *testing.T, customerID string) dto.FinancingResponse {
	t.Helper()
	resp := f.do(t, http.MethodPost, "/api/financings", "vendedor", map[string]interface{}{
		"customer_id":  customerID,
		"sale_type":    "cuotas",
		"installments": 6,
		"items":        []map[string]interface{}{{"product_id": "nevera", "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[dto.FinancingResponse](t, resp)
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestAPI_RequiresToken(t *testing.T) {
	f := newAPI(t)
	resp := f.do(t, http.MethodGet, "/api/customers", "", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_RegisterAndLogin(t *testing.T) {
	f := newAPI(t)
	resp := f.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "caja@tienda.com", "password": "secreto123", "role": "cobrador",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = f.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "caja@tienda.com", "password": "secreto123"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[dto.LoginResponse](t, resp)
	assert.NotEmpty(t, out.Token)
	assert.Equal(t, "cobrador", out.User.Role)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+out.Token)
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	me := decode[dto.UserResponse](t, resp)
	assert.Equal(t, "caja@tienda.com", me.Email)

	// el token de prueba apunta a un usuario que no existe
	resp = f.do(t, http.MethodGet, "/api/me", "admin", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = f.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "caja@tienda.com", "password": "otra-clave"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_CustomerValidationAndUniqueness(t *testing.T) {
	f := newAPI(t)

	body := customerBody("V-1000")
	delete(body, "id_photo_url")
	resp := f.do(t, http.MethodPost, "/api/customers", "vendedor", body)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errBody := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "VALIDATION", errBody.Code)
	assert.Equal(t, "id_photo_url", errBody.Field)

	c := f.createCustomer(t)
	assert.Equal(t, "V12345678", c.NationalID)

	resp = f.do(t, http.MethodPost, "/api/customers", "vendedor", customerBody("v 12345678"))
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	errBody = decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "DUPLICATE_NATIONAL_ID", errBody.Code)
	assert.Equal(t, "national_id", errBody.Field)

	f.reload(t)
	resp = f.do(t, http.MethodGet, "/api/customers?q=jose", "vendedor", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[dto.CustomerListResponse](t, resp)
	assert.Equal(t, 1, list.Total)

	resp = f.do(t, http.MethodGet, "/api/customers/no-existe", "vendedor", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_StockAdjust(t *testing.T) {
	f := newAPI(t)

	resp := f.do(t, http.MethodPost, "/api/products/nevera/stock", "admin", map[string]interface{}{"delta": -5})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	errBody := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "INSUFFICIENT_STOCK", errBody.Code)

	resp = f.do(t, http.MethodPost, "/api/products/nevera/stock", "admin", map[string]interface{}{"delta": 2, "reason": "compra"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	p := decode[dto.ProductResponse](t, resp)
	assert.Equal(t, 5, p.Stock)

	resp = f.do(t, http.MethodPost, "/api/products/nevera/stock", "admin", map[string]interface{}{"delta": 0})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_FinancingAndPayments(t *testing.T) {
	f := newAPI(t)
	c := f.createCustomer(t)
	fin := f.createFinancing(t, c.ID)
	assert.Equal(t, "F-000001", fin.ControlNumberText)
	assert.True(t, fin.Amount.Equal(decimal.NewFromInt(600)))

	resp := f.do(t, http.MethodGet, "/api/financings/control/f-1", "vendedor", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, fin.ID, decode[dto.FinancingResponse](t, resp).ID)

	payment := map[string]interface{}{"amount": 100, "kind": "cuota", "method": "transferencia", "reference": "ab-77"}
	resp = f.do(t, http.MethodPost, "/api/financings/"+fin.ID+"/payments", "cobrador", payment)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	rec := decode[dto.RecordPaymentResponse](t, resp)
	assert.Equal(t, 1, rec.Summary.PaidInstallments)

	payment["reference"] = "AB-77"
	resp = f.do(t, http.MethodPost, "/api/financings/"+fin.ID+"/payments", "cobrador", payment)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "DUPLICATE_RECEIPT", decode[dto.ErrorResponse](t, resp).Code)

	resp = f.do(t, http.MethodGet, "/api/financings/"+fin.ID+"/payments", "vendedor", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, decode[dto.PaymentListResponse](t, resp).Total)

	f.reload(t)
	resp = f.do(t, http.MethodGet, "/api/financings?estado=activo&tipo=cuotas", "vendedor", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[dto.FinancingListResponse](t, resp)
	require.Equal(t, 1, list.Total)
	require.NotNil(t, list.Items[0].Summary)
	assert.Equal(t, 1, list.Items[0].Summary.PaidInstallments)

	resp = f.do(t, http.MethodGet, "/api/financings?estado=atrasado", "vendedor", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Zero(t, decode[dto.FinancingListResponse](t, resp).Total)

	resp = f.do(t, http.MethodGet, "/api/financings/"+fin.ID+"/plan", "vendedor", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[dto.PlanResponse](t, resp).Rows, 6)

	resp = f.do(t, http.MethodGet, "/api/financings/"+fin.ID+"/plan.pdf", "vendedor", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF")))

	resp = f.do(t, http.MethodGet, "/api/financings/nada/summary", "vendedor", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_FinancingInsufficientStock(t *testing.T) {
	f := newAPI(t)
	c := f.createCustomer(t)

	resp := f.do(t, http.MethodPost, "/api/financings", "vendedor", map[string]interface{}{
		"customer_id":  c.ID,
		"sale_type":    "cuotas",
		"installments": 6,
		"items":        []map[string]interface{}{{"product_id": "nevera", "quantity": 4}},
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	p, err := f.db.Repos().Products.GetByID(context.Background(), "nevera")
	require.NoError(t, err)
	assert.Equal(t, 3, p.Stock)
}

func TestAPI_Collections(t *testing.T) {
	f := newAPI(t)
	c := f.createCustomer(t)
	fin := f.createFinancing(t, c.ID)
	f.reload(t)

	resp := f.do(t, http.MethodGet, "/api/collections?orden=prioridad", "cobrador", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[dto.CollectionsResponse](t, resp)
	require.Len(t, list.Items, 1)
	assert.Equal(t, fin.ID, list.Items[0].FinancingID)
	assert.Equal(t, "Nevera", list.Items[0].ProductText)

	resp = f.do(t, http.MethodGet, "/api/collections?severidad=gravisima", "cobrador", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "severidad", decode[dto.ErrorResponse](t, resp).Field)

	resp = f.do(t, http.MethodGet, "/api/collections/"+fin.ID+"/whatsapp", "cobrador", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	link := decode[dto.WhatsAppLinkResponse](t, resp)
	assert.Equal(t, "584141234567", link.Phone)
	assert.True(t, strings.HasPrefix(link.Link, "https://wa.me/584141234567?text="))

	resp = f.do(t, http.MethodGet, "/api/collections/report.pdf", "admin", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	resp.Body.Close()
}

func TestAPI_CollectionsRoles(t *testing.T) {
	f := newAPI(t)

	resp := f.do(t, http.MethodPost, "/api/collections/refresh-status", "vendedor", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = f.do(t, http.MethodPost, "/api/collections/refresh-status", "admin", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = f.do(t, http.MethodPost, "/api/collections/reminders", "cobrador", nil)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "WHATSAPP_DISABLED", decode[dto.ErrorResponse](t, resp).Code)
}

func TestAPI_StoreStatusDashboardAndMetrics(t *testing.T) {
	f := newAPI(t)

	resp := f.do(t, http.MethodGet, "/api/store/status", "admin", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[dto.StoreStatusResponse](t, resp).Collections, 4)

	resp = f.do(t, http.MethodGet, "/api/dashboard/summary", "admin", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = f.do(t, http.MethodGet, "/api/collections", "admin", nil)
	resp.Body.Close()

	resp = f.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(raw), "fin_http_requests_total")
	assert.Contains(t, string(raw), "fin_collections_overdue_installments")
}

func TestAPI_CustomerListPDF(t *testing.T) {
	f := newAPI(t)
	f.createCustomer(t)
	f.reload(t)

	resp := f.do(t, http.MethodGet, "/api/reports/customers.pdf", "admin", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "clientes_")
	resp.Body.Close()
}

package sales_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Financiamiento-api/internal/application/dto"
	"github.com/jhoicas/Financiamiento-api/internal/application/sales"
	"github.com/jhoicas/Financiamiento-api/internal/application/store"
	"github.com/jhoicas/Financiamiento-api/internal/domain"
	"github.com/jhoicas/Financiamiento-api/internal/domain/entity"
	"github.com/jhoicas/Financiamiento-api/internal/domain/financing"
	"github.com/jhoicas/Financiamiento-api/internal/infrastructure/memory"
)

var now = time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)

type fixture struct {
	db  *memory.DB
	uc  *sales.FinancingUseCase
	clk *time.Time
}

func setup(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	db := memory.New()
	r := db.Repos()
	require.NoError(t, r.Customers.Create(ctx, &entity.Customer{ID: "c1", ControlNumber: 1, Name: "José Pérez", NationalID: "123", Phone: "04141234567"}))
	require.NoError(t, r.Products.Create(ctx, &entity.Product{ID: "nevera", Name: "Nevera", Price: decimal.NewFromInt(600), Stock: 5}))
	require.NoError(t, r.Products.Create(ctx, &entity.Product{ID: "cocina", Name: "Cocina", Price: decimal.NewFromInt(400), Stock: 1}))

	clk := now
	uc := sales.NewFinancingUseCase(r, db, nil, financing.CanonicalPolicy(), zerolog.Nop()).
		WithClock(func() time.Time { return clk })
	return fixture{db: db, uc: uc, clk: &clk}
}

func (f fixture) stock(t *testing.T, id string) int {
	t.Helper()
	p, err := f.db.Repos().Products.GetByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func installmentsRequest(initial *dto.InitialPaymentRequest) dto.CreateFinancingRequest {
	return dto.CreateFinancingRequest{
		CustomerID:   "c1",
		SaleType:     entity.SaleTypeInstallments,
		Installments: 10,
		Items: []dto.LineItemRequest{
			{ProductID: "nevera", Quantity: 1},
			{ProductID: "cocina", Quantity: 1},
		},
		InitialPayment: initial,
	}
}

func TestCreate_InstallmentSale(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	out, err := f.uc.Create(ctx, installmentsRequest(&dto.InitialPaymentRequest{
		Amount: decimal.NewFromInt(100), Method: "Transferencia", Reference: "ab123",
	}))
	require.NoError(t, err)

	assert.Equal(t, "F-000001", out.ControlNumberText)
	assert.True(t, out.Amount.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, entity.StatusActive, out.Status)
	require.NotNil(t, out.Summary)
	assert.True(t, out.Summary.InstallmentValue.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, 1, out.Summary.PaidInstallments)
	assert.Len(t, out.Items, 2)
	assert.Equal(t, "Nevera", out.Items[0].ProductName)

	assert.Equal(t, 4, f.stock(t, "nevera"))
	assert.Equal(t, 0, f.stock(t, "cocina"))

	payments, err := f.uc.ListPayments(ctx, out.ID)
	require.NoError(t, err)
	require.Equal(t, 1, payments.Total)
	assert.Equal(t, "AB123", payments.Items[0].Reference)
	assert.Equal(t, entity.PaymentKindInitial, payments.Items[0].Kind)
}

func TestCreate_CashSaleIsCompletedWithPayment(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	out, err := f.uc.Create(ctx, dto.CreateFinancingRequest{
		CustomerID: "c1",
		SaleType:   entity.SaleTypeCash,
		Items:      []dto.LineItemRequest{{ProductID: "nevera", Quantity: 2}},
	})
	require.NoError(t, err)

	assert.Equal(t, "C-000001", out.ControlNumberText)
	assert.Equal(t, 0, out.Installments)
	assert.Equal(t, entity.StatusCompleted, out.Status)
	assert.True(t, out.Summary.ProgressPct.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, 0, out.Summary.OverdueCount)
	assert.Equal(t, 3, f.stock(t, "nevera"))

	_, err = f.uc.RecordPayment(ctx, out.ID, dto.RecordPaymentRequest{Amount: decimal.NewFromInt(1), Kind: entity.PaymentKindCredit, Method: "efectivo"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestCreate_InsufficientStockRollsBackEverything(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	req := installmentsRequest(nil)
	req.Items[1].Quantity = 2 // solo hay 1 cocina

	_, err := f.uc.Create(ctx, req)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Equal(t, 5, f.stock(t, "nevera"), "el descuento de la primera línea debe revertirse")
	assert.Equal(t, 1, f.stock(t, "cocina"))
	list, err := f.uc.List(ctx, "", "")
	require.NoError(t, err)
	assert.Zero(t, list.Total)

	// el número de control tampoco se consume
	out, err := f.uc.Create(ctx, installmentsRequest(nil))
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.ControlNumber)
}

func TestCreate_FailureAfterStockLeavesNoTrace(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	boom := errors.New("conexión perdida")

	// stock x2, contador y contrato pasan; falla el pago inicial
	f.db.FailNext = boom
	f.db.FailAfter = 4
	_, err := f.uc.Create(ctx, installmentsRequest(&dto.InitialPaymentRequest{Amount: decimal.NewFromInt(100), Method: "efectivo"}))
	require.ErrorIs(t, err, boom)

	assert.Equal(t, 5, f.stock(t, "nevera"))
	assert.Equal(t, 1, f.stock(t, "cocina"))
	list, err := f.uc.List(ctx, "", "")
	require.NoError(t, err)
	assert.Zero(t, list.Total)
}

func TestCreate_ZeroAmountOverride(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	req := installmentsRequest(nil)
	zero := decimal.Zero
	req.Amount = &zero

	_, err := f.uc.Create(ctx, req)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 5, f.stock(t, "nevera"))
}

func TestCreate_Validation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	req := installmentsRequest(nil)
	req.Installments = 0
	_, err := f.uc.Create(ctx, req)
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "installments", verr.Field)

	req = installmentsRequest(nil)
	req.CustomerID = "ghost"
	_, err = f.uc.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecordPayment_DuplicateReference(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	fin, err := f.uc.Create(ctx, installmentsRequest(nil))
	require.NoError(t, err)

	_, err = f.uc.RecordPayment(ctx, fin.ID, dto.RecordPaymentRequest{
		Amount: decimal.NewFromInt(100), Kind: entity.PaymentKindInstallment, Method: "transferencia", Reference: "AB123",
	})
	require.NoError(t, err)

	_, err = f.uc.RecordPayment(ctx, fin.ID, dto.RecordPaymentRequest{
		Amount: decimal.NewFromInt(100), Kind: entity.PaymentKindInstallment, Method: "pago_movil", Reference: "ab123",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDuplicateReceipt)
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "reference", verr.Field)

	_, err = f.uc.RecordPayment(ctx, fin.ID, dto.RecordPaymentRequest{
		Amount: decimal.NewFromInt(100), Kind: entity.PaymentKindInstallment, Method: "Efectivo", Reference: "AB123",
	})
	assert.NoError(t, err, "en efectivo la referencia no se valida")

	payments, err := f.uc.ListPayments(ctx, fin.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, payments.Total)
}

func TestRecordPayment_DerivesStatus(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	req := installmentsRequest(nil)
	req.Items = req.Items[:1]
	req.Installments = 3
	start := now.AddDate(0, 0, -14)
	req.StartDate = &start

	fin, err := f.uc.Create(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusOverdue, fin.Status)
	assert.Equal(t, 3, fin.Summary.OverdueCount)

	pay := dto.RecordPaymentRequest{Amount: decimal.NewFromInt(200), Kind: entity.PaymentKindInstallment, Method: "efectivo"}
	out, err := f.uc.RecordPayment(ctx, fin.ID, pay)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusOverdue, out.Summary.Status)
	assert.Equal(t, 2, out.Summary.OverdueCount)

	_, err = f.uc.RecordPayment(ctx, fin.ID, pay)
	require.NoError(t, err)
	out, err = f.uc.RecordPayment(ctx, fin.ID, pay)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCompleted, out.Summary.Status)

	stored, err := f.db.Repos().Financings.GetByID(ctx, fin.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCompleted, stored.Status)

	_, err = f.uc.RecordPayment(ctx, fin.ID, pay)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestRecordPayment_Validation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	fin, err := f.uc.Create(ctx, installmentsRequest(nil))
	require.NoError(t, err)

	_, err = f.uc.RecordPayment(ctx, fin.ID, dto.RecordPaymentRequest{Amount: decimal.Zero, Kind: entity.PaymentKindInstallment, Method: "efectivo"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.uc.RecordPayment(ctx, fin.ID, dto.RecordPaymentRequest{Amount: decimal.NewFromInt(5), Kind: "regalo", Method: "efectivo"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.uc.RecordPayment(ctx, "nope", dto.RecordPaymentRequest{Amount: decimal.NewFromInt(5), Kind: entity.PaymentKindInstallment, Method: "efectivo"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRefreshStatuses_TimeMakesContractsOverdue(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	fin, err := f.uc.Create(ctx, installmentsRequest(&dto.InitialPaymentRequest{Amount: decimal.NewFromInt(100), Method: "efectivo"}))
	require.NoError(t, err)
	require.Equal(t, entity.StatusActive, fin.Status)

	*f.clk = now.AddDate(0, 0, 21)
	res, err := f.uc.RefreshStatuses(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Checked)
	assert.Equal(t, 1, res.Updated)

	stored, err := f.db.Repos().Financings.GetByID(ctx, fin.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusOverdue, stored.Status)

	res, err = f.uc.RefreshStatuses(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.Updated)
}

func TestQueries(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	fin, err := f.uc.Create(ctx, installmentsRequest(&dto.InitialPaymentRequest{Amount: decimal.NewFromInt(100), Method: "efectivo"}))
	require.NoError(t, err)

	got, err := f.uc.GetByControlNumber(ctx, "f-1")
	require.NoError(t, err)
	assert.Equal(t, fin.ID, got.ID)

	_, err = f.uc.GetByControlNumber(ctx, "X-9")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.uc.GetByControlNumber(ctx, "F-000099")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	plan, err := f.uc.Plan(ctx, fin.ID)
	require.NoError(t, err)
	require.Len(t, plan.Rows, 10)
	assert.Equal(t, financing.PlanPaid, plan.Rows[0].State)
	assert.Equal(t, financing.PlanPending, plan.Rows[1].State)

	doc, err := f.uc.PlanDoc(ctx, fin.ID)
	require.NoError(t, err)
	assert.Equal(t, "F-000001", doc.ControlNumber)
	assert.Equal(t, "Nevera, Cocina", doc.ProductText)
	assert.Equal(t, "José Pérez", doc.Customer.Name)

	s, err := f.uc.Summary(ctx, fin.ID)
	require.NoError(t, err)
	assert.True(t, s.PendingBalance.Equal(decimal.NewFromInt(900)))

	list, err := f.uc.List(ctx, entity.StatusActive, entity.SaleTypeInstallments)
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)
}

func TestList_UsesDerivedStatus(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	fin, err := f.uc.Create(ctx, installmentsRequest(&dto.InitialPaymentRequest{Amount: decimal.NewFromInt(100), Method: "efectivo"}))
	require.NoError(t, err)

	*f.clk = now.AddDate(0, 0, 21)

	got, err := f.uc.Get(ctx, fin.ID)
	require.NoError(t, err)
	require.Equal(t, entity.StatusOverdue, got.Status)

	overdue, err := f.uc.List(ctx, entity.StatusOverdue, "")
	require.NoError(t, err)
	require.Equal(t, 1, overdue.Total)
	assert.Equal(t, entity.StatusOverdue, overdue.Items[0].Status)
	require.NotNil(t, overdue.Items[0].Summary)
	assert.Equal(t, 3, overdue.Items[0].Summary.OverdueCount)

	active, err := f.uc.List(ctx, entity.StatusActive, "")
	require.NoError(t, err)
	assert.Zero(t, active.Total)

	stored, err := f.db.Repos().Financings.GetByID(ctx, fin.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusActive, stored.Status, "listar no persiste el estado")
}

func TestList_FromStoreView(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, err := f.uc.Create(ctx, installmentsRequest(&dto.InitialPaymentRequest{Amount: decimal.NewFromInt(100), Method: "efectivo"}))
	require.NoError(t, err)

	st := store.New(store.RepoSource{Repos: f.db.Repos()}, nil, financing.CanonicalPolicy(), time.Second, zerolog.Nop())
	st.Start(ctx)
	f.uc.WithView(st)

	*f.clk = now.AddDate(0, 0, 21)
	overdue, err := f.uc.List(ctx, entity.StatusOverdue, entity.SaleTypeInstallments)
	require.NoError(t, err)
	assert.Equal(t, 1, overdue.Total)

	active, err := f.uc.List(ctx, entity.StatusActive, "")
	require.NoError(t, err)
	assert.Zero(t, active.Total)
}

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Financiamiento-api/internal/application/store"
	"github.com/jhoicas/Financiamiento-api/internal/domain/collections"
	"github.com/jhoicas/Financiamiento-api/internal/domain/entity"
	"github.com/jhoicas/Financiamiento-api/internal/domain/financing"
	"github.com/jhoicas/Financiamiento-api/internal/infrastructure/memory"
)

// ─── fakes ───────────────────────────────────────────────────────────────────

type fakeSource struct {
	store.RepoSource
	block      string // colección que nunca responde antes de que ctx termine
	failing    string
	financings atomic.Int32
}

func (f *fakeSource) wait(ctx context.Context, name string) error {
	if name == f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if name == f.failing {
		return errors.New("conexión rechazada")
	}
	return nil
}

func (f *fakeSource) Customers(ctx context.Context) ([]*entity.Customer, error) {
	if err := f.wait(ctx, store.Customers); err != nil {
		return nil, err
	}
	return f.RepoSource.Customers(ctx)
}

func (f *fakeSource) Products(ctx context.Context) ([]*entity.Product, error) {
	if err := f.wait(ctx, store.Products); err != nil {
		return nil, err
	}
	return f.RepoSource.Products(ctx)
}

func (f *fakeSource) Financings(ctx context.Context) ([]*entity.Financing, error) {
	f.financings.Add(1)
	if err := f.wait(ctx, store.Financings); err != nil {
		return nil, err
	}
	return f.RepoSource.Financings(ctx)
}

func (f *fakeSource) Payments(ctx context.Context) ([]*entity.Payment, error) {
	if err := f.wait(ctx, store.Payments); err != nil {
		return nil, err
	}
	return f.RepoSource.Payments(ctx)
}

type fakeFeed struct {
	events chan string
}

func (f *fakeFeed) Listen(ctx context.Context, notify func(string)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case name := <-f.events:
			notify(name)
		}
	}
}

var now = time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)

func seed(t *testing.T) *memory.DB {
	t.Helper()
	ctx := context.Background()
	db := memory.New()
	r := db.Repos()
	require.NoError(t, r.Customers.Create(ctx, &entity.Customer{ID: "c1", ControlNumber: 1, Name: "María Gómez", NationalID: "V-111", Phone: "0414"}))
	require.NoError(t, r.Customers.Create(ctx, &entity.Customer{ID: "c2", ControlNumber: 2, Name: "Pedro Ruiz", NationalID: "V-222"}))
	require.NoError(t, r.Products.Create(ctx, &entity.Product{ID: "p1", Name: "Nevera", Category: "Línea blanca", Price: decimal.NewFromInt(500), Stock: 1, MinStock: 2}))
	require.NoError(t, r.Products.Create(ctx, &entity.Product{ID: "p2", Name: "Televisor", Category: "Audio y video", Price: decimal.NewFromInt(300), Stock: 10, MinStock: 2}))
	require.NoError(t, r.Financings.Create(ctx, &entity.Financing{
		ID: "f1", ControlNumber: 1, CustomerID: "c1", SaleType: entity.SaleTypeInstallments,
		Amount: decimal.NewFromInt(500), Installments: 10, StartDate: now.AddDate(0, 0, -28),
		Status: entity.StatusActive, LegacyProductID: "p1",
	}))
	return db
}

// ─── tests ───────────────────────────────────────────────────────────────────

func TestStart_LoadsEveryCollection(t *testing.T) {
	db := seed(t)
	s := store.New(store.RepoSource{Repos: db.Repos()}, nil, financing.CanonicalPolicy(), time.Second, zerolog.Nop())

	s.Start(context.Background())

	st := s.Status()
	require.Len(t, st.Collections, 4)
	for _, c := range st.Collections {
		assert.False(t, c.Loading, c.Name)
		assert.Empty(t, c.Error, c.Name)
		assert.Equal(t, uint64(1), c.Version, c.Name)
	}
	assert.Nil(t, s.Errors())
	assert.Len(t, s.Snapshot().Customers, 2)
}

func TestStart_SlowCollectionDegradesSoftly(t *testing.T) {
	db := seed(t)
	src := &fakeSource{RepoSource: store.RepoSource{Repos: db.Repos()}, block: store.Payments, failing: store.Products}
	s := store.New(src, nil, financing.CanonicalPolicy(), 50*time.Millisecond, zerolog.Nop())

	start := time.Now()
	s.Start(context.Background())
	assert.Less(t, time.Since(start), 2*time.Second)

	errs := s.Errors()
	assert.Equal(t, store.ErrLoadTimeout.Error(), errs[store.Payments])
	assert.Equal(t, "conexión rechazada", errs[store.Products])
	assert.NotContains(t, errs, store.Customers)

	snap := s.Snapshot()
	assert.Empty(t, snap.Payments)
	assert.Len(t, snap.Financings, 1)

	// los datos disponibles se siguen sirviendo
	res := s.Collections(collections.Filters{}, now)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Producto no disponible", res.Items[0].ProductText)
}

func TestReload_ReplacesWholesaleAndBumpsVersion(t *testing.T) {
	db := seed(t)
	s := store.New(store.RepoSource{Repos: db.Repos()}, nil, financing.CanonicalPolicy(), time.Second, zerolog.Nop())
	s.Start(context.Background())
	ctx := context.Background()

	require.NoError(t, db.Repos().Customers.Create(ctx, &entity.Customer{ID: "c3", ControlNumber: 3, Name: "Ana Díaz", NationalID: "V-333"}))
	assert.Len(t, s.Customers(""), 2, "sin aviso el store no cambia")

	require.NoError(t, s.Reload(ctx, store.Customers))
	assert.Len(t, s.Customers(""), 3)
	assert.Equal(t, uint64(2), s.Status().Collections[0].Version)

	assert.Error(t, s.Reload(ctx, "facturas"))
}

func TestSelectors(t *testing.T) {
	db := seed(t)
	s := store.New(store.RepoSource{Repos: db.Repos()}, nil, financing.CanonicalPolicy(), time.Second, zerolog.Nop())
	s.Start(context.Background())

	for _, q := range []string{"maria", "María", "MARIA", " gómez "} {
		got := s.Customers(q)
		require.Len(t, got, 1, q)
		assert.Equal(t, "c1", got[0].ID, q)
	}
	assert.Len(t, s.Customers("V-222"), 1)
	assert.Len(t, s.Customers("v-222"), 1)
	assert.Empty(t, s.Customers("Ramírez"))

	assert.Len(t, s.Products("", "", true), 1)
	assert.Len(t, s.Products("", "línea blanca", false), 1)
	assert.Len(t, s.Products("tele", "", false), 1)
	assert.Len(t, s.Products("Tele", "", false), 1)
	assert.Len(t, s.Products("LINEA", "", false), 1)

	// f1 está persistido como activo pero lleva 5 cuotas vencidas sin pagos
	rows := s.Financings(entity.StatusOverdue, "", now)
	require.Len(t, rows, 1)
	assert.Equal(t, "f1", rows[0].Financing.ID)
	assert.Equal(t, entity.StatusOverdue, rows[0].Summary.Status)
	assert.Equal(t, 5, rows[0].Summary.OverdueCount)
	assert.Empty(t, s.Financings(entity.StatusActive, "", now))
	assert.Empty(t, s.Financings("", entity.SaleTypeCash, now))

	res := s.Collections(collections.Filters{Sort: collections.SortPriority}, now)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "F-000001", res.Items[0].ControlNumber)
	assert.Equal(t, 5, res.Items[0].Summary.OverdueCount)
	assert.Equal(t, financing.SeverityCritical, res.Items[0].Severity.Level)
}

func TestCollections_Memoized(t *testing.T) {
	db := seed(t)
	src := &fakeSource{RepoSource: store.RepoSource{Repos: db.Repos()}}
	s := store.New(src, nil, financing.CanonicalPolicy(), time.Second, zerolog.Nop())
	s.Start(context.Background())

	a := s.Customers("maria")
	b := s.Customers("maria")
	require.NotEmpty(t, a)
	assert.Same(t, &a[0], &b[0], "mismos argumentos y versión devuelven el mismo slice")

	r1 := s.Collections(collections.Filters{}, now)
	r2 := s.Collections(collections.Filters{}, now.Add(10*time.Second))
	require.NotEmpty(t, r1.Items)
	assert.Same(t, &r1.Items[0], &r2.Items[0])

	require.NoError(t, s.Reload(context.Background(), store.Payments))
	r3 := s.Collections(collections.Filters{}, now)
	require.NotEmpty(t, r3.Items)
	assert.NotSame(t, &r1.Items[0], &r3.Items[0], "una recarga invalida el resultado")
}

func TestWatch_ReloadsOnNotification(t *testing.T) {
	db := seed(t)
	src := &fakeSource{RepoSource: store.RepoSource{Repos: db.Repos()}}
	feed := &fakeFeed{events: make(chan string)}
	s := store.New(src, feed, financing.CanonicalPolicy(), time.Second, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	require.Equal(t, int32(1), src.financings.Load())

	require.NoError(t, db.Repos().Financings.Create(ctx, &entity.Financing{
		ID: "f2", ControlNumber: 2, CustomerID: "c2", SaleType: entity.SaleTypeInstallments,
		Amount: decimal.NewFromInt(300), Installments: 3, StartDate: now, Status: entity.StatusActive, LegacyProductID: "p2",
	}))
	feed.events <- store.Financings

	assert.Eventually(t, func() bool {
		return len(s.Financings("", "", now)) == 2
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(2), src.financings.Load())
}

func TestStore_ConcurrentReadersAndReloads(t *testing.T) {
	db := seed(t)
	s := store.New(store.RepoSource{Repos: db.Repos()}, nil, financing.CanonicalPolicy(), time.Second, zerolog.Nop())
	s.Start(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.Reload(context.Background(), store.Financings)
		}()
		go func() {
			defer wg.Done()
			_ = s.Collections(collections.Filters{IncludeCurrent: true}, now)
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(9), s.Status().Collections[2].Version)
}

func TestFinancings_StatusFollowsPaymentsAndClock(t *testing.T) {
	db := seed(t)
	s := store.New(store.RepoSource{Repos: db.Repos()}, nil, financing.CanonicalPolicy(), time.Second, zerolog.Nop())
	s.Start(context.Background())
	ctx := context.Background()

	// 4 semanas transcurridas: con 5 cuotas pagadas queda al día
	for i := 0; i < 5; i++ {
		require.NoError(t, db.Repos().Payments.Create(ctx, &entity.Payment{
			ID: "pg" + string(rune('a'+i)), FinancingID: "f1", Amount: decimal.NewFromInt(50),
			Date: now, Kind: entity.PaymentKindInstallment, Method: "efectivo",
		}))
	}
	require.NoError(t, s.Reload(ctx, store.Payments))

	require.Len(t, s.Financings(entity.StatusActive, "", now), 1)
	assert.Empty(t, s.Financings(entity.StatusOverdue, "", now))

	// dos semanas después vuelve a tener cuotas vencidas sin que cambie nada persistido
	later := now.AddDate(0, 0, 14)
	rows := s.Financings(entity.StatusOverdue, "", later)
	require.Len(t, rows, 1)
	assert.Equal(t, entity.StatusActive, rows[0].Financing.Status)
}

// Package bootstrap arma las dependencias compartidas por la API y la CLI: pool de PostgreSQL,
// locks en Redis, store en memoria, generador de PDF, envío de WhatsApp y casos de uso.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Financiamiento-api/internal/application/analytics"
	"github.com/jhoicas/Financiamiento-api/internal/application/auth"
	"github.com/jhoicas/Financiamiento-api/internal/application/inventory"
	"github.com/jhoicas/Financiamiento-api/internal/application/ports"
	"github.com/jhoicas/Financiamiento-api/internal/application/sales"
	"github.com/jhoicas/Financiamiento-api/internal/application/store"
	"github.com/jhoicas/Financiamiento-api/internal/application/usecase"
	"github.com/jhoicas/Financiamiento-api/internal/domain/financing"
	infrapdf "github.com/jhoicas/Financiamiento-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Financiamiento-api/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/Financiamiento-api/internal/infrastructure/redis"
	"github.com/jhoicas/Financiamiento-api/internal/infrastructure/whatsapp"
	"github.com/jhoicas/Financiamiento-api/pkg/config"
)

// App dependencias construidas.
type App struct {
	Config *config.Config
	Policy financing.Policy
	Pool   *pgxpool.Pool
	Redis  *goredis.Client // nil sin REDIS_ADDR
	Store  *store.Store
	Sender ports.WhatsAppSender // nil sin credenciales de Twilio

	Auth        *auth.AuthUseCase
	Users       *usecase.UserUseCase
	Customers   *usecase.CustomerUseCase
	Products    *usecase.ProductUseCase
	Stock       *inventory.StockUseCase
	Financings  *sales.FinancingUseCase
	Collections *analytics.CollectionsUseCase
	Reports     *analytics.ReportsUseCase
	Dashboard   *analytics.DashboardUseCase

	log zerolog.Logger
}

// New conecta a PostgreSQL (y Redis si está configurado) y construye los casos de uso.
// El store queda creado pero sin cargar: ver StartStore. Con watch=false el store no escucha
// NOTIFY (uso de la CLI: una sola carga).
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger, watch bool) (*App, error) {
	policy, err := PolicyFromConfig(cfg.Finance)
	if err != nil {
		return nil, err
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	a := &App{Config: cfg, Policy: policy, Pool: pool, log: log}

	var locker ports.Locker = ports.NoopLocker{}
	if cfg.Redis.Addr != "" {
		client, err := infraredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("conexión a Redis: %w", err)
		}
		a.Redis = client
		locker = infraredis.NewLocker(client, cfg.Redis.LockTTL)
	} else {
		log.Warn().Msg("REDIS_ADDR vacío: unicidad solo por índices de la base")
	}

	if s := whatsapp.NewTwilioSender(cfg.WhatsApp, log); s != nil {
		a.Sender = s
	}

	repos := postgres.NewRepos(pool)
	tx := postgres.NewTxRunner(pool)
	var feed store.ChangeFeed
	if watch {
		feed = postgres.NewChangeFeed(pool, cfg.Store.Channel, log)
	}
	a.Store = store.New(postgres.NewSource(pool), feed, policy, cfg.Store.LoadTimeout, log)

	users := postgres.NewUserRepository(pool)
	a.Users = usecase.NewUserUseCase(users)
	a.Auth = auth.NewAuthUseCase(users, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	a.Customers = usecase.NewCustomerUseCase(repos.Customers, tx, locker)
	a.Products = usecase.NewProductUseCase(repos.Products)
	a.Stock = inventory.NewStockUseCase(tx)
	a.Financings = sales.NewFinancingUseCase(repos, tx, locker, policy, log).WithView(a.Store)
	a.Collections = analytics.NewCollectionsUseCase(a.Store, policy, analytics.CollectionsConfig{
		MorosoThreshold: cfg.Finance.MorosoThreshold,
		CountryCode:     cfg.WhatsApp.CountryCode,
	}, a.Sender, log)
	a.Reports = analytics.NewReportsUseCase(a.Store, a.Collections, a.Financings, infrapdf.NewMarotoRenderer(cfg.App.StoreName))
	a.Dashboard = analytics.NewDashboardUseCase(a.Store, policy)
	return a, nil
}

// StartStore carga las colecciones con espera acotada. Con feed, sigue escuchando cambios hasta que ctx termine.
func (a *App) StartStore(ctx context.Context) {
	a.Store.Start(ctx)
	if errs := a.Store.Errors(); len(errs) > 0 {
		a.log.Warn().Interface("errors", errs).Msg("store cargado con colecciones degradadas")
	}
}

// Close libera conexiones.
func (a *App) Close() {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	a.Pool.Close()
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/Financiamiento-api/internal/bootstrap"
	httpRouter "github.com/jhoicas/Financiamiento-api/internal/interfaces/http"
	"github.com/jhoicas/Financiamiento-api/internal/jobs"
	"github.com/jhoicas/Financiamiento-api/pkg/config"
	"github.com/jhoicas/Financiamiento-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("policy", cfg.Finance.Policy).
		Msg("iniciando aplicación")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	deps, err := bootstrap.New(ctx, cfg, log.Zerolog(), true)
	if err != nil {
		log.Fatal().Err(err).Msg("inicialización")
	}
	defer deps.Close()

	// Store en memoria: carga inicial acotada y recarga por LISTEN/NOTIFY.
	deps.StartStore(ctx)

	metrics := httpRouter.NewMetrics()
	deps.Collections.WithObserver(metrics)

	var reminders jobs.ReminderSender
	if deps.Sender != nil {
		reminders = deps.Collections
	} else {
		log.Warn().Msg("WhatsApp sin credenciales de Twilio: recordatorios automáticos desactivados")
	}
	scheduler, err := jobs.New(jobs.Config{
		StatusRefresh: cfg.Cron.StatusRefresh,
		Reminders:     cfg.Cron.Reminders,
	}, deps.Financings, reminders, metrics.Registerer(), log.Component("jobs"))
	if err != nil {
		log.Fatal().Err(err).Msg("scheduler")
	}
	scheduler.Start()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Financiamiento API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:        deps.Auth,
		UserUC:        deps.Users,
		CustomerUC:    deps.Customers,
		ProductUC:     deps.Products,
		StockUC:       deps.Stock,
		FinancingUC:   deps.Financings,
		CollectionsUC: deps.Collections,
		ReportsUC:     deps.Reports,
		DashboardUC:   deps.Dashboard,
		Store:         deps.Store,
		Metrics:       metrics,
		JWTSecret:     cfg.JWT.Secret,
		Log:           log.Component("http"),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	if err := scheduler.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del scheduler")
	}
	stop()

	log.Info().Msg("aplicación detenida")
}

package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Financiamiento-api/internal/application/analytics"
	"github.com/jhoicas/Financiamiento-api/internal/application/auth"
	"github.com/jhoicas/Financiamiento-api/internal/application/inventory"
	"github.com/jhoicas/Financiamiento-api/internal/application/sales"
	"github.com/jhoicas/Financiamiento-api/internal/application/usecase"
)

// StoreView lecturas que la API hace sobre el store en memoria.
type StoreView interface {
	CustomerView
	ProductView
	StatusView
}

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC        *auth.AuthUseCase
	UserUC        *usecase.UserUseCase
	CustomerUC    *usecase.CustomerUseCase
	ProductUC     *usecase.ProductUseCase
	StockUC       *inventory.StockUseCase
	FinancingUC   *sales.FinancingUseCase
	CollectionsUC *analytics.CollectionsUseCase
	ReportsUC     *analytics.ReportsUseCase
	DashboardUC   *analytics.DashboardUseCase
	Store         StoreView
	Metrics       *Metrics // opcional
	JWTSecret     string
	Log           zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.Metrics != nil {
		app.Use(deps.Metrics.Middleware())
		app.Get("/metrics", deps.Metrics.Handler())
	}

	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC, deps.UserUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	if deps.UserUC != nil {
		protected.Get("/me", authHandler.Me)
	}

	var customerView CustomerView
	var productView ProductView
	if deps.Store != nil {
		customerView, productView = deps.Store, deps.Store
	}

	customers := protected.Group("/customers")
	customerHandler := NewCustomerHandler(deps.CustomerUC, customerView)
	customers.Post("/", customerHandler.Create)
	customers.Get("/", customerHandler.List)
	customers.Get("/:id", customerHandler.GetByID)
	customers.Put("/:id", customerHandler.Update)

	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC, productView)
	inventoryHandler := NewInventoryHandler(deps.StockUC, deps.Log)
	products.Post("/", productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", productHandler.Update)
	products.Post("/:id/stock", inventoryHandler.AdjustStock)

	financings := protected.Group("/financings")
	financingHandler := NewFinancingHandler(deps.FinancingUC, deps.ReportsUC)
	financings.Post("/", financingHandler.Create)
	financings.Get("/", financingHandler.List)
	financings.Get("/control/:numero", financingHandler.GetByControlNumber)
	financings.Get("/:id", financingHandler.GetByID)
	financings.Get("/:id/summary", financingHandler.Summary)
	financings.Get("/:id/plan.pdf", financingHandler.PlanPDF)
	financings.Get("/:id/plan", financingHandler.Plan)
	financings.Get("/:id/payments", financingHandler.ListPayments)
	financings.Post("/:id/payments", financingHandler.RecordPayment)

	coll := protected.Group("/collections")
	collHandler := NewCollectionsHandler(deps.CollectionsUC, deps.ReportsUC, deps.FinancingUC, deps.Log)
	coll.Get("/", collHandler.List)
	coll.Get("/report.pdf", collHandler.ReportPDF)
	coll.Get("/report", collHandler.Report)
	coll.Get("/:id/whatsapp", collHandler.WhatsApp)
	coll.Post("/reminders", RequireRole(RoleAdmin, RoleCollector), collHandler.SendReminders)
	coll.Post("/refresh-status", RequireRole(RoleAdmin), collHandler.RefreshStatus)

	analyticsHandler := NewAnalyticsHandler(deps.ReportsUC, deps.Store)
	protected.Get("/reports/customers.pdf", analyticsHandler.CustomersPDF)
	if deps.Store != nil {
		protected.Get("/store/status", analyticsHandler.StoreStatus)
	}

	if deps.DashboardUC != nil {
		dashboardHandler := NewDashboardHandler(deps.DashboardUC)
		protected.Get("/dashboard/summary", dashboardHandler.GetSummary)
	}
}

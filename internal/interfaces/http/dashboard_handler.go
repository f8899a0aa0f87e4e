package http

import (
	"github.com/gofiber/fiber/v2"

	appanalytics "github.com/jhoicas/Financiamiento-api/internal/application/analytics"
)

// DashboardHandler maneja los endpoints del módulo de Dashboard.
type DashboardHandler struct {
	uc *appanalytics.DashboardUseCase
}

// NewDashboardHandler construye el handler.
func NewDashboardHandler(uc *appanalytics.DashboardUseCase) *DashboardHandler {
	return &DashboardHandler{uc: uc}
}

// GetSummary devuelve cobros del día y del mes, cartera activa y los casos más atrasados.
// GET /api/dashboard/summary
//
// Se calcula sobre el store en memoria; las colecciones degradadas se informan en store_errors.
func (h *DashboardHandler) GetSummary(c *fiber.Ctx) error {
	summary, err := h.uc.GetSummary(c.Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(summary)
}

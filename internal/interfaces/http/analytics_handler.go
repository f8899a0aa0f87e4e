package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Financiamiento-api/internal/application/analytics"
	"github.com/jhoicas/Financiamiento-api/internal/application/dto"
)

// StatusView estado del store en memoria.
type StatusView interface {
	Status() dto.StoreStatusResponse
}

// AnalyticsHandler reportes imprimibles y estado del store.
type AnalyticsHandler struct {
	reports *analytics.ReportsUseCase
	status  StatusView
}

// NewAnalyticsHandler construye el handler.
func NewAnalyticsHandler(reports *analytics.ReportsUseCase, status StatusView) *AnalyticsHandler {
	return &AnalyticsHandler{reports: reports, status: status}
}

// CustomersPDF godoc
// @Summary      Listado de clientes en PDF
// @Tags         reports
// @Security     Bearer
// @Produce      application/pdf
// @Param        q  query  string  false  "Texto a buscar"
// @Success      200  {file}  binary
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/reports/customers.pdf [get]
func (h *AnalyticsHandler) CustomersPDF(c *fiber.Ctx) error {
	data, filename, err := h.reports.CustomerListPDF(c.Context(), c.Query("q"))
	if err != nil {
		return writeError(c, err)
	}
	return sendPDF(c, data, filename)
}

// StoreStatus godoc
// @Summary      Estado del store en memoria
// @Description  Por colección: cantidad, si está cargando, último error y versión.
// @Tags         store
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.StoreStatusResponse
// @Router       /api/store/status [get]
func (h *AnalyticsHandler) StoreStatus(c *fiber.Ctx) error {
	return c.JSON(h.status.Status())
}

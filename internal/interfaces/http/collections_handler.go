package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Financiamiento-api/internal/application/analytics"
	"github.com/jhoicas/Financiamiento-api/internal/application/dto"
	"github.com/jhoicas/Financiamiento-api/internal/application/sales"
)

// CollectionsHandler vista de cobranza, morosos y recordatorios (protegido).
type CollectionsHandler struct {
	uc        *analytics.CollectionsUseCase
	reports   *analytics.ReportsUseCase
	financing *sales.FinancingUseCase
	log       zerolog.Logger
}

// NewCollectionsHandler construye el handler.
func NewCollectionsHandler(uc *analytics.CollectionsUseCase, reports *analytics.ReportsUseCase, fin *sales.FinancingUseCase, log zerolog.Logger) *CollectionsHandler {
	return &CollectionsHandler{uc: uc, reports: reports, financing: fin, log: log}
}

// List godoc
// @Summary      Vista de cobranza
// @Description  Financiamientos con cuotas vencidas (o todos con incluir_al_dia), su severidad y estadísticas.
// @Tags         collections
// @Security     Bearer
// @Produce      json
// @Param        q               query  string  false  "Cliente, cédula, teléfono, producto o número de control"
// @Param        severidad       query  string  false  "al_dia | baja | media | alta | critica"
// @Param        orden           query  string  false  "prioridad | cuotas"
// @Param        incluir_al_dia  query  bool    false  "Incluir financiamientos al día"
// @Success      200  {object}  dto.CollectionsResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/collections [get]
func (h *CollectionsHandler) List(c *fiber.Ctx) error {
	var q dto.CollectionsQuery
	if ok, err := parseQuery(c, &q); !ok {
		return err
	}
	out, err := h.uc.List(c.Context(), q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ReportPDF godoc
// @Summary      Reporte de morosos en PDF
// @Tags         collections
// @Security     Bearer
// @Produce      application/pdf
// @Param        umbral  query  int  false  "Cuotas vencidas mínimas para considerar moroso"
// @Success      200  {file}  binary
// @Router       /api/collections/report.pdf [get]
func (h *CollectionsHandler) ReportPDF(c *fiber.Ctx) error {
	data, filename, err := h.reports.MorosoReportPDF(c.Context(), c.QueryInt("umbral", 0))
	if err != nil {
		return writeError(c, err)
	}
	return sendPDF(c, data, filename)
}

// Report godoc
// @Summary      Reporte de morosos
// @Tags         collections
// @Security     Bearer
// @Produce      json
// @Param        umbral  query  int  false  "Cuotas vencidas mínimas para considerar moroso"
// @Success      200  {object}  collections.Report
// @Router       /api/collections/report [get]
func (h *CollectionsHandler) Report(c *fiber.Ctx) error {
	out, err := h.uc.Report(c.Context(), c.QueryInt("umbral", 0))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// WhatsApp godoc
// @Summary      Enlace de recordatorio por WhatsApp
// @Tags         collections
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del financiamiento"
// @Success      200  {object}  dto.WhatsAppLinkResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/collections/{id}/whatsapp [get]
func (h *CollectionsHandler) WhatsApp(c *fiber.Ctx) error {
	out, err := h.uc.WhatsApp(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// SendReminders godoc
// @Summary      Enviar recordatorios a morosos
// @Tags         collections
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.ReminderRunResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/collections/reminders [post]
func (h *CollectionsHandler) SendReminders(c *fiber.Ctx) error {
	out, err := h.uc.SendReminders(c.Context())
	if err != nil {
		return writeError(c, err)
	}
	h.log.Info().Str("user_id", GetUserID(c)).Int("sent", out.Sent).Int("failed", out.Failed).Msg("recordatorios enviados")
	return c.JSON(out)
}

// RefreshStatus godoc
// @Summary      Re-derivar estados de financiamientos
// @Tags         collections
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.RefreshStatusResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/collections/refresh-status [post]
func (h *CollectionsHandler) RefreshStatus(c *fiber.Ctx) error {
	out, err := h.financing.RefreshStatuses(c.Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

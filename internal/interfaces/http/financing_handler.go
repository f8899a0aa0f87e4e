package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Financiamiento-api/internal/application/analytics"
	"github.com/jhoicas/Financiamiento-api/internal/application/dto"
	"github.com/jhoicas/Financiamiento-api/internal/application/sales"
)

// FinancingHandler ventas, financiamientos y pagos (protegido).
type FinancingHandler struct {
	uc      *sales.FinancingUseCase
	reports *analytics.ReportsUseCase
}

// NewFinancingHandler construye el handler.
func NewFinancingHandler(uc *sales.FinancingUseCase, reports *analytics.ReportsUseCase) *FinancingHandler {
	return &FinancingHandler{uc: uc, reports: reports}
}

// Create godoc
// @Summary      Registrar venta o financiamiento
// @Description  Descuenta stock, asigna número de control y registra el pago inicial en una sola transacción.
// @Tags         financings
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateFinancingRequest  true  "Cliente, tipo de venta, líneas y pago inicial"
// @Success      201   {object}  dto.FinancingResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/financings [post]
func (h *FinancingHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateFinancingRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.uc.Create(c.Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar financiamientos
// @Tags         financings
// @Security     Bearer
// @Produce      json
// @Param        estado  query  string  false  "activo | completado | atrasado"
// @Param        tipo    query  string  false  "contado | cuotas"
// @Success      200  {object}  dto.FinancingListResponse
// @Router       /api/financings [get]
func (h *FinancingHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.Context(), c.Query("estado"), c.Query("tipo"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener financiamiento con su resumen
// @Tags         financings
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del financiamiento"
// @Success      200  {object}  dto.FinancingResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/financings/{id} [get]
func (h *FinancingHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByControlNumber godoc
// @Summary      Buscar financiamiento por número de control
// @Description  Acepta "F-000123", "C-000123", "000123" o "123".
// @Tags         financings
// @Security     Bearer
// @Produce      json
// @Param        numero  path  string  true  "Número de control"
// @Success      200  {object}  dto.FinancingResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/financings/control/{numero} [get]
func (h *FinancingHandler) GetByControlNumber(c *fiber.Ctx) error {
	out, err := h.uc.GetByControlNumber(c.Context(), c.Params("numero"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Summary godoc
// @Summary      Resumen calculado del financiamiento
// @Tags         financings
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del financiamiento"
// @Success      200  {object}  financing.Summary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/financings/{id}/summary [get]
func (h *FinancingHandler) Summary(c *fiber.Ctx) error {
	out, err := h.uc.Summary(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Plan godoc
// @Summary      Plan de pagos
// @Tags         financings
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del financiamiento"
// @Success      200  {object}  dto.PlanResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/financings/{id}/plan [get]
func (h *FinancingHandler) Plan(c *fiber.Ctx) error {
	out, err := h.uc.Plan(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// PlanPDF godoc
// @Summary      Plan de pagos en PDF
// @Tags         financings
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID del financiamiento"
// @Success      200  {file}  binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/financings/{id}/plan.pdf [get]
func (h *FinancingHandler) PlanPDF(c *fiber.Ctx) error {
	data, filename, err := h.reports.PaymentPlanPDF(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return sendPDF(c, data, filename)
}

// ListPayments godoc
// @Summary      Pagos del financiamiento
// @Tags         financings
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del financiamiento"
// @Success      200  {object}  dto.PaymentListResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/financings/{id}/payments [get]
func (h *FinancingHandler) ListPayments(c *fiber.Ctx) error {
	out, err := h.uc.ListPayments(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// RecordPayment godoc
// @Summary      Registrar pago
// @Description  Valida la referencia del comprobante (única salvo efectivo) y re-deriva el estado del financiamiento.
// @Tags         financings
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                    true  "ID del financiamiento"
// @Param        body  body  dto.RecordPaymentRequest  true  "Datos del pago"
// @Success      201   {object}  dto.RecordPaymentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/financings/{id}/payments [post]
func (h *FinancingHandler) RecordPayment(c *fiber.Ctx) error {
	var in dto.RecordPaymentRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.uc.RecordPayment(c.Context(), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func sendPDF(c *fiber.Ctx, data []byte, filename string) error {
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+filename+`"`)
	return c.Send(data)
}

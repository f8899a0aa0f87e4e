package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Financiamiento-api/internal/application/dto"
	"github.com/jhoicas/Financiamiento-api/internal/application/inventory"
	"github.com/jhoicas/Financiamiento-api/internal/application/usecase"
)

// InventoryHandler ajustes manuales de stock (protegido).
type InventoryHandler struct {
	uc  *inventory.StockUseCase
	log zerolog.Logger
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(uc *inventory.StockUseCase, log zerolog.Logger) *InventoryHandler {
	return &InventoryHandler{uc: uc, log: log}
}

// AdjustStock godoc
// @Summary      Ajustar stock de un producto
// @Description  Suma delta al stock con la fila bloqueada. Si el resultado fuera negativo responde 409 y el stock no cambia.
// @Tags         products
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID del producto"
// @Param        body  body  dto.AdjustStockRequest  true  "delta y motivo"
// @Success      200   {object}  dto.ProductResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/products/{id}/stock [post]
func (h *InventoryHandler) AdjustStock(c *fiber.Ctx) error {
	var in dto.AdjustStockRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	p, err := h.uc.Adjust(c.Context(), c.Params("id"), in.Delta)
	if err != nil {
		return writeError(c, err)
	}
	h.log.Info().
		Str("product_id", p.ID).
		Int("delta", in.Delta).
		Int("stock", p.Stock).
		Str("reason", in.Reason).
		Str("user_id", GetUserID(c)).
		Msg("ajuste de stock")
	return c.JSON(usecase.ToProductResponse(p))
}

// Package inventory maneja el stock de productos: ajustes manuales y descuentos por venta,
// siempre con la fila bloqueada (SELECT ... FOR UPDATE) dentro de una transacción.
package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Financiamiento-api/internal/application/ports"
	"github.com/jhoicas/Financiamiento-api/internal/domain"
	"github.com/jhoicas/Financiamiento-api/internal/domain/entity"
	"github.com/jhoicas/Financiamiento-api/internal/domain/repository"
)

// StockUseCase ajustes de stock transaccionales.
type StockUseCase struct {
	tx ports.TxRunner
}

// NewStockUseCase construye el caso de uso.
func NewStockUseCase(tx ports.TxRunner) *StockUseCase {
	return &StockUseCase{tx: tx}
}

// Adjust suma delta (positivo o negativo) al stock. Si el resultado fuera negativo
// devuelve ErrInsufficientStock y el stock no cambia.
func (uc *StockUseCase) Adjust(ctx context.Context, productID string, delta int) (*entity.Product, error) {
	if delta == 0 {
		return nil, domain.NewValidationError("delta", domain.ErrInvalidInput, "el ajuste no puede ser cero")
	}
	var out *entity.Product
	err := uc.tx.Run(ctx, func(r ports.Repos) error {
		p, err := ApplyDelta(ctx, r.Products, productID, delta)
		if err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ApplyDelta bloquea el producto y aplica delta usando el repositorio del caller (misma transacción).
func ApplyDelta(ctx context.Context, products repository.ProductRepository, productID string, delta int) (*entity.Product, error) {
	p, err := products.GetForUpdate(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("producto %s: %w", productID, domain.ErrNotFound)
	}
	next := p.Stock + delta
	if next < 0 {
		return nil, domain.NewValidationError("quantity", domain.ErrInsufficientStock,
			fmt.Sprintf("stock insuficiente para %s: disponible %d, solicitado %d", p.Name, p.Stock, -delta))
	}
	if err := products.UpdateStock(ctx, productID, next); err != nil {
		return nil, err
	}
	p.Stock = next
	p.UpdatedAt = time.Now()
	return p, nil
}

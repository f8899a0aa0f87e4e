package repository

import (
	"context"

	"github.com/jhoicas/Financiamiento-api/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// GetForUpdate bloquea la fila (SELECT ... FOR UPDATE); solo tiene efecto dentro de una transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Product, error)
	Update(ctx context.Context, product *entity.Product) error
	// UpdateStock es la única vía de mutación del stock.
	UpdateStock(ctx context.Context, id string, stock int) error
	List(ctx context.Context) ([]*entity.Product, error)
}

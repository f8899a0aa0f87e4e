package repository

import (
	"context"

	"github.com/jhoicas/Financiamiento-api/internal/domain/entity"
)

// FinancingRepository define el puerto de persistencia para Financing y sus líneas.
type FinancingRepository interface {
	// Create inserta la cabecera y todas las líneas.
	Create(ctx context.Context, financing *entity.Financing) error
	GetByID(ctx context.Context, id string) (*entity.Financing, error)
	GetByControlNumber(ctx context.Context, controlNumber int64) (*entity.Financing, error)
	List(ctx context.Context) ([]*entity.Financing, error)
	// UpdateStatus persiste el estado derivado (caché del cálculo sobre pagos).
	UpdateStatus(ctx context.Context, id, status string) error
}

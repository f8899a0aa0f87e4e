package repository

import (
	"context"

	"github.com/jhoicas/Financiamiento-api/internal/domain/entity"
)

// PaymentRepository define el puerto de persistencia para Payment. Los pagos no se actualizan ni se borran.
type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	ListByFinancing(ctx context.Context, financingID string) ([]*entity.Payment, error)
	List(ctx context.Context) ([]*entity.Payment, error)
	// ExistsByReference indica si ya hay un pago no-efectivo con esa referencia.
	ExistsByReference(ctx context.Context, reference string) (bool, error)
}

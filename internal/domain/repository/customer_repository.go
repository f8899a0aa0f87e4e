package repository

import (
	"context"

	"github.com/jhoicas/Financiamiento-api/internal/domain/entity"
)

// CustomerRepository define el puerto de persistencia para Customer.
// Los Get devuelven (nil, nil) cuando el registro no existe.
type CustomerRepository interface {
	Create(ctx context.Context, customer *entity.Customer) error
	GetByID(ctx context.Context, id string) (*entity.Customer, error)
	GetByNationalID(ctx context.Context, nationalID string) (*entity.Customer, error)
	List(ctx context.Context) ([]*entity.Customer, error)
	Update(ctx context.Context, customer *entity.Customer) error
}

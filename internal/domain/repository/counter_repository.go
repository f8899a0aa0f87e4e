package repository

import "context"

// Entidades con número de control secuencial.
const (
	CounterCustomers  = "clientes"
	CounterFinancings = "financiamientos"
)

// CounterRepository asigna números de control monótonos por tipo de entidad.
// Next debe ejecutarse en la misma transacción que crea la entidad dueña del número.
type CounterRepository interface {
	Next(ctx context.Context, entity string) (int64, error)
}

package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Financiamiento-api/internal/domain/repository"
)

var _ repository.CounterRepository = (*CounterRepo)(nil)

// CounterRepo secuencias de números de control en la tabla contadores.
type CounterRepo struct {
	q Querier
}

// NewCounterRepository construye el adaptador. Pasar la tx de la entidad dueña del número.
func NewCounterRepository(q Querier) *CounterRepo {
	return &CounterRepo{q: q}
}

// Next incrementa y devuelve el contador de entity. La fila queda bloqueada hasta el fin de la
// transacción, así que dos altas concurrentes nunca obtienen el mismo número y un rollback lo libera.
func (r *CounterRepo) Next(ctx context.Context, entity string) (int64, error) {
	var n int64
	err := r.q.QueryRow(ctx, `
		INSERT INTO contadores (entidad, valor) VALUES ($1, 1)
		ON CONFLICT (entidad) DO UPDATE SET valor = contadores.valor + 1
		RETURNING valor`, entity).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("next counter %s: %w", entity, err)
	}
	return n, nil
}

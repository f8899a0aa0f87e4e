package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Financiamiento-api/internal/domain"
	"github.com/jhoicas/Financiamiento-api/internal/domain/entity"
	"github.com/jhoicas/Financiamiento-api/internal/domain/repository"
)

var _ repository.FinancingRepository = (*FinancingRepo)(nil)

const financingColumns = `id, numero_control, cliente_id, tipo_venta, monto, cuotas, fecha_inicio, estado,
	COALESCE(producto_id, ''), descripcion, created_at, updated_at`

const itemColumns = `id, financiamiento_id, producto_id, cantidad, precio_unitario, subtotal`

// FinancingRepo implementación de FinancingRepository (usable con pool o tx).
type FinancingRepo struct {
	q Querier
}

// NewFinancingRepository construye el adaptador. Pasar pool o tx (Querier).
func NewFinancingRepository(q Querier) *FinancingRepo {
	return &FinancingRepo{q: q}
}

// Create inserta la cabecera y sus líneas en un solo batch. Debe llamarse dentro de una transacción
// para que cabecera y líneas queden juntas.
func (r *FinancingRepo) Create(ctx context.Context, f *entity.Financing) error {
	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO financiamientos (id, numero_control, cliente_id, tipo_venta, monto, cuotas, fecha_inicio, estado,
			producto_id, descripcion, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), $10, $11, $12)`,
		f.ID, f.ControlNumber, f.CustomerID, f.SaleType, f.Amount, f.Installments, f.StartDate, f.Status,
		f.LegacyProductID, f.Description, f.CreatedAt, f.UpdatedAt,
	)
	for _, it := range f.Items {
		batch.Queue(`INSERT INTO financiamiento_items (`+itemColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
			it.ID, f.ID, it.ProductID, it.Quantity, it.UnitPrice, it.Subtotal,
		)
	}

	br := r.q.SendBatch(ctx, batch)
	defer br.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %v", domain.ErrSequence, err)
			}
			return fmt.Errorf("insert financing: %w", err)
		}
	}
	return nil
}

// GetByID obtiene un financiamiento con sus líneas.
func (r *FinancingRepo) GetByID(ctx context.Context, id string) (*entity.Financing, error) {
	return r.getOne(ctx, `SELECT `+financingColumns+` FROM financiamientos WHERE id = $1`, id)
}

// GetByControlNumber obtiene un financiamiento por número de control.
func (r *FinancingRepo) GetByControlNumber(ctx context.Context, controlNumber int64) (*entity.Financing, error) {
	return r.getOne(ctx, `SELECT `+financingColumns+` FROM financiamientos WHERE numero_control = $1`, controlNumber)
}

func (r *FinancingRepo) getOne(ctx context.Context, query string, arg any) (*entity.Financing, error) {
	var f entity.Financing
	err := scanFinancing(r.q.QueryRow(ctx, query, arg), &f)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get financing: %w", err)
	}
	items, err := r.items(ctx, `WHERE financiamiento_id = $1`, f.ID)
	if err != nil {
		return nil, err
	}
	f.Items = items[f.ID]
	return &f, nil
}

// List todos los financiamientos con sus líneas, por número de control.
func (r *FinancingRepo) List(ctx context.Context) ([]*entity.Financing, error) {
	rows, err := r.q.Query(ctx, `SELECT `+financingColumns+` FROM financiamientos ORDER BY numero_control`)
	if err != nil {
		return nil, fmt.Errorf("list financings: %w", err)
	}
	defer rows.Close()
	var list []*entity.Financing
	for rows.Next() {
		var f entity.Financing
		if err := scanFinancing(rows, &f); err != nil {
			return nil, fmt.Errorf("scan financing: %w", err)
		}
		list = append(list, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	items, err := r.items(ctx, "")
	if err != nil {
		return nil, err
	}
	for _, f := range list {
		f.Items = items[f.ID]
	}
	return list, nil
}

// UpdateStatus persiste el estado derivado.
func (r *FinancingRepo) UpdateStatus(ctx context.Context, id, status string) error {
	cmd, err := r.q.Exec(ctx, `UPDATE financiamientos SET estado = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update financing status: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// items líneas agrupadas por financiamiento.
func (r *FinancingRepo) items(ctx context.Context, where string, args ...any) (map[string][]entity.LineItem, error) {
	rows, err := r.q.Query(ctx, `SELECT `+itemColumns+` FROM financiamiento_items `+where+` ORDER BY financiamiento_id, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list financing items: %w", err)
	}
	defer rows.Close()
	out := make(map[string][]entity.LineItem)
	for rows.Next() {
		var it entity.LineItem
		if err := rows.Scan(&it.ID, &it.FinancingID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.Subtotal); err != nil {
			return nil, fmt.Errorf("scan financing item: %w", err)
		}
		out[it.FinancingID] = append(out[it.FinancingID], it)
	}
	return out, rows.Err()
}

func scanFinancing(row pgx.Row, f *entity.Financing) error {
	return row.Scan(&f.ID, &f.ControlNumber, &f.CustomerID, &f.SaleType, &f.Amount, &f.Installments, &f.StartDate,
		&f.Status, &f.LegacyProductID, &f.Description, &f.CreatedAt, &f.UpdatedAt)
}

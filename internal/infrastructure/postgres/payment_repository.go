package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Financiamiento-api/internal/domain"
	"github.com/jhoicas/Financiamiento-api/internal/domain/entity"
	"github.com/jhoicas/Financiamiento-api/internal/domain/repository"
)

var _ repository.PaymentRepository = (*PaymentRepo)(nil)

const paymentColumns = `id, financiamiento_id, monto, fecha, tipo, metodo, referencia, comprobante_url, numero_cuota, created_at`

// PaymentRepo implementación de PaymentRepository (usable con pool o tx). Los pagos solo se insertan.
type PaymentRepo struct {
	q Querier
}

// NewPaymentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPaymentRepository(q Querier) *PaymentRepo {
	return &PaymentRepo{q: q}
}

// Create inserta un pago. La referencia repetida de un pago no-efectivo la rechaza el índice
// único parcial pagos_referencia_unica y se devuelve domain.ErrDuplicateReceipt.
func (r *PaymentRepo) Create(ctx context.Context, p *entity.Payment) error {
	query := `
		INSERT INTO pagos (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.FinancingID, p.Amount, p.Date, p.Kind, p.Method, p.Reference, p.ReceiptURL, p.InstallmentNumber, p.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			if constraintName(err) == constraintReferencia {
				return domain.ErrDuplicateReceipt
			}
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// ListByFinancing pagos de un financiamiento por fecha.
func (r *PaymentRepo) ListByFinancing(ctx context.Context, financingID string) ([]*entity.Payment, error) {
	rows, err := r.q.Query(ctx, `SELECT `+paymentColumns+` FROM pagos WHERE financiamiento_id = $1 ORDER BY fecha, created_at`, financingID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return collectPayments(rows)
}

// List todos los pagos por fecha.
func (r *PaymentRepo) List(ctx context.Context) ([]*entity.Payment, error) {
	rows, err := r.q.Query(ctx, `SELECT `+paymentColumns+` FROM pagos ORDER BY fecha, created_at`)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return collectPayments(rows)
}

// ExistsByReference indica si ya hay un pago no-efectivo con esa referencia (sin distinguir mayúsculas).
func (r *PaymentRepo) ExistsByReference(ctx context.Context, reference string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM pagos
			WHERE upper(referencia) = upper($1) AND metodo <> 'efectivo' AND referencia <> ''
		)`, reference).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check payment reference: %w", err)
	}
	return exists, nil
}

func collectPayments(rows pgx.Rows) ([]*entity.Payment, error) {
	defer rows.Close()
	var list []*entity.Payment
	for rows.Next() {
		var p entity.Payment
		if err := rows.Scan(&p.ID, &p.FinancingID, &p.Amount, &p.Date, &p.Kind, &p.Method, &p.Reference,
			&p.ReceiptURL, &p.InstallmentNumber, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}

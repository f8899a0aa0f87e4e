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

var _ repository.CustomerRepository = (*CustomerRepo)(nil)

const customerColumns = `id, numero_control, nombre, cedula, telefono, direccion, foto_cedula_url, created_at, updated_at`

// CustomerRepo implementación de CustomerRepository (usable con pool o tx).
type CustomerRepo struct {
	q Querier
}

// NewCustomerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCustomerRepository(q Querier) *CustomerRepo {
	return &CustomerRepo{q: q}
}

// Create persiste un nuevo cliente. Una cédula repetida devuelve domain.ErrDuplicateNationalID.
func (r *CustomerRepo) Create(ctx context.Context, c *entity.Customer) error {
	query := `
		INSERT INTO clientes (` + customerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		c.ID, c.ControlNumber, c.Name, c.NationalID, c.Phone, c.Address, c.IDPhotoURL, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return customerWriteError("insert customer", err)
	}
	return nil
}

// GetByID obtiene un cliente por ID.
func (r *CustomerRepo) GetByID(ctx context.Context, id string) (*entity.Customer, error) {
	c, err := scanCustomer(r.q.QueryRow(ctx, `SELECT `+customerColumns+` FROM clientes WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

// GetByNationalID obtiene un cliente por cédula.
func (r *CustomerRepo) GetByNationalID(ctx context.Context, nationalID string) (*entity.Customer, error) {
	c, err := scanCustomer(r.q.QueryRow(ctx, `SELECT `+customerColumns+` FROM clientes WHERE cedula = $1`, nationalID))
	if err != nil {
		return nil, fmt.Errorf("get customer by cedula: %w", err)
	}
	return c, nil
}

// List todos los clientes ordenados por número de control.
func (r *CustomerRepo) List(ctx context.Context) ([]*entity.Customer, error) {
	rows, err := r.q.Query(ctx, `SELECT `+customerColumns+` FROM clientes ORDER BY numero_control`)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()
	var list []*entity.Customer
	for rows.Next() {
		var c entity.Customer
		if err := rows.Scan(&c.ID, &c.ControlNumber, &c.Name, &c.NationalID, &c.Phone, &c.Address,
			&c.IDPhotoURL, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		list = append(list, &c)
	}
	return list, rows.Err()
}

// Update actualiza los datos editables; el número de control no cambia.
func (r *CustomerRepo) Update(ctx context.Context, c *entity.Customer) error {
	query := `
		UPDATE clientes SET nombre = $2, cedula = $3, telefono = $4, direccion = $5, foto_cedula_url = $6, updated_at = $7
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query, c.ID, c.Name, c.NationalID, c.Phone, c.Address, c.IDPhotoURL, c.UpdatedAt)
	if err != nil {
		return customerWriteError("update customer", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanCustomer(row pgx.Row) (*entity.Customer, error) {
	var c entity.Customer
	err := row.Scan(&c.ID, &c.ControlNumber, &c.Name, &c.NationalID, &c.Phone, &c.Address,
		&c.IDPhotoURL, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func customerWriteError(op string, err error) error {
	if isUniqueViolation(err) {
		if constraintName(err) == constraintCedula {
			return domain.ErrDuplicateNationalID
		}
		return domain.ErrDuplicate
	}
	return fmt.Errorf("%s: %w", op, err)
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Financiamiento-api/internal/application/dto"
	"github.com/jhoicas/Financiamiento-api/internal/application/ports"
	"github.com/jhoicas/Financiamiento-api/internal/domain"
	"github.com/jhoicas/Financiamiento-api/internal/domain/entity"
	"github.com/jhoicas/Financiamiento-api/internal/domain/repository"
	"github.com/jhoicas/Financiamiento-api/pkg/controlnum"
)

// CustomerUseCase alta, edición y consulta de clientes.
type CustomerUseCase struct {
	repo   repository.CustomerRepository
	tx     ports.TxRunner
	locker ports.Locker
}

// NewCustomerUseCase construye el caso de uso. locker puede ser nil.
func NewCustomerUseCase(repo repository.CustomerRepository, tx ports.TxRunner, locker ports.Locker) *CustomerUseCase {
	if locker == nil {
		locker = ports.NoopLocker{}
	}
	return &CustomerUseCase{repo: repo, tx: tx, locker: locker}
}

// NormalizeNationalID quita espacios, puntos y guiones y pasa a mayúsculas ("v-12.345.678" -> "V12345678").
func NormalizeNationalID(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '.', '-', '\t':
			return -1
		}
		return r
	}, strings.ToUpper(strings.TrimSpace(s)))
}

// Create registra un cliente con número de control propio. La cédula debe ser única.
func (uc *CustomerUseCase) Create(ctx context.Context, in dto.CreateCustomerRequest) (*dto.CustomerResponse, error) {
	nationalID := NormalizeNationalID(in.NationalID)
	if nationalID == "" {
		return nil, domain.NewValidationError("national_id", domain.ErrInvalidInput, "la cédula es obligatoria")
	}
	if strings.TrimSpace(in.IDPhotoURL) == "" {
		return nil, domain.NewValidationError("id_photo_url", domain.ErrInvalidInput, "la foto de la cédula es obligatoria")
	}

	release, err := uc.lockNationalID(ctx, nationalID)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := uc.ensureUniqueNationalID(ctx, nationalID, ""); err != nil {
		return nil, err
	}

	now := time.Now()
	customer := &entity.Customer{
		ID:         uuid.New().String(),
		Name:       strings.TrimSpace(in.Name),
		NationalID: nationalID,
		Phone:      strings.TrimSpace(in.Phone),
		Address:    strings.TrimSpace(in.Address),
		IDPhotoURL: strings.TrimSpace(in.IDPhotoURL),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	err = uc.tx.Run(ctx, func(r ports.Repos) error {
		n, err := r.Counters.Next(ctx, repository.CounterCustomers)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrSequence, err)
		}
		customer.ControlNumber = n
		return r.Customers.Create(ctx, customer)
	})
	if err != nil {
		return nil, duplicateNationalID(err, nationalID)
	}
	return ToCustomerResponse(customer), nil
}

// Update aplica los campos enviados. Cambiar la cédula exige que ningún otro cliente la tenga;
// el propio registro no cuenta como duplicado.
func (uc *CustomerUseCase) Update(ctx context.Context, id string, in dto.UpdateCustomerRequest) (*dto.CustomerResponse, error) {
	customer, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, domain.ErrNotFound
	}

	if in.NationalID != nil {
		nationalID := NormalizeNationalID(*in.NationalID)
		if nationalID == "" {
			return nil, domain.NewValidationError("national_id", domain.ErrInvalidInput, "la cédula es obligatoria")
		}
		if nationalID != customer.NationalID {
			release, err := uc.lockNationalID(ctx, nationalID)
			if err != nil {
				return nil, err
			}
			defer release()
			if err := uc.ensureUniqueNationalID(ctx, nationalID, customer.ID); err != nil {
				return nil, err
			}
		}
		customer.NationalID = nationalID
	}
	if in.Name != nil {
		customer.Name = strings.TrimSpace(*in.Name)
	}
	if in.Phone != nil {
		customer.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Address != nil {
		customer.Address = strings.TrimSpace(*in.Address)
	}
	if in.IDPhotoURL != nil {
		if strings.TrimSpace(*in.IDPhotoURL) == "" {
			return nil, domain.NewValidationError("id_photo_url", domain.ErrInvalidInput, "la foto de la cédula es obligatoria")
		}
		customer.IDPhotoURL = strings.TrimSpace(*in.IDPhotoURL)
	}
	customer.UpdatedAt = time.Now()

	if err := uc.repo.Update(ctx, customer); err != nil {
		return nil, duplicateNationalID(err, customer.NationalID)
	}
	return ToCustomerResponse(customer), nil
}

// GetByID obtiene un cliente.
func (uc *CustomerUseCase) GetByID(ctx context.Context, id string) (*dto.CustomerResponse, error) {
	c, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	return ToCustomerResponse(c), nil
}

// List lista todos los clientes ordenados por número de control.
func (uc *CustomerUseCase) List(ctx context.Context) (*dto.CustomerListResponse, error) {
	list, err := uc.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return ToCustomerList(list), nil
}

func (uc *CustomerUseCase) lockNationalID(ctx context.Context, nationalID string) (func(), error) {
	release, err := uc.locker.Acquire(ctx, "cedula:"+nationalID)
	if errors.Is(err, ports.ErrLocked) {
		return nil, domain.NewValidationError("national_id", domain.ErrConflict,
			"otro registro con la misma cédula se está guardando, intente de nuevo")
	}
	if err != nil {
		return nil, err
	}
	return release, nil
}

// ensureUniqueNationalID falla si otro cliente (distinto de selfID) ya tiene la cédula.
func (uc *CustomerUseCase) ensureUniqueNationalID(ctx context.Context, nationalID, selfID string) error {
	existing, err := uc.repo.GetByNationalID(ctx, nationalID)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != selfID {
		return domain.NewValidationError("national_id", domain.ErrDuplicateNationalID,
			fmt.Sprintf("ya existe un cliente con la cédula %s (%s, control %s)",
				nationalID, existing.Name, controlnum.Format("", existing.ControlNumber)))
	}
	return nil
}

func duplicateNationalID(err error, nationalID string) error {
	if errors.Is(err, domain.ErrDuplicateNationalID) {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			return err
		}
		return domain.NewValidationError("national_id", domain.ErrDuplicateNationalID,
			fmt.Sprintf("ya existe un cliente con la cédula %s", nationalID))
	}
	return err
}

// ToCustomerResponse mapea la entidad a la respuesta HTTP.
func ToCustomerResponse(c *entity.Customer) *dto.CustomerResponse {
	if c == nil {
		return nil
	}
	return &dto.CustomerResponse{
		ID:                c.ID,
		ControlNumber:     c.ControlNumber,
		ControlNumberText: controlnum.Format("", c.ControlNumber),
		Name:              c.Name,
		NationalID:        c.NationalID,
		Phone:             c.Phone,
		Address:           c.Address,
		IDPhotoURL:        c.IDPhotoURL,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

// ToCustomerList mapea un listado.
func ToCustomerList(list []*entity.Customer) *dto.CustomerListResponse {
	items := make([]dto.CustomerResponse, 0, len(list))
	for _, c := range list {
		items = append(items, *ToCustomerResponse(c))
	}
	return &dto.CustomerListResponse{Items: items, Total: len(items)}
}

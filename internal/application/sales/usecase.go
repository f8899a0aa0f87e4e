// Package sales contiene los casos de uso de ventas de contado y financiamientos: creación atómica
// (stock + número de control + contrato + pago inicial), registro de pagos y re-derivación del estado.
package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Financiamiento-api/internal/application/dto"
	"github.com/jhoicas/Financiamiento-api/internal/application/inventory"
	"github.com/jhoicas/Financiamiento-api/internal/application/ports"
	"github.com/jhoicas/Financiamiento-api/internal/application/store"
	"github.com/jhoicas/Financiamiento-api/internal/domain"
	"github.com/jhoicas/Financiamiento-api/internal/domain/entity"
	"github.com/jhoicas/Financiamiento-api/internal/domain/financing"
	"github.com/jhoicas/Financiamiento-api/internal/domain/repository"
	"github.com/jhoicas/Financiamiento-api/pkg/controlnum"
)

// FinancingView listado de contratos con estado derivado (implementado por el store).
type FinancingView interface {
	Financings(status, saleType string, now time.Time) []store.FinancingRow
}

// FinancingUseCase casos de uso de financiamientos y pagos.
type FinancingUseCase struct {
	view   FinancingView
	repos  ports.Repos
	tx     ports.TxRunner
	locker ports.Locker
	policy financing.Policy
	log    zerolog.Logger
	now    func() time.Time
}

// NewFinancingUseCase construye el caso de uso. locker puede ser nil.
func NewFinancingUseCase(repos ports.Repos, tx ports.TxRunner, locker ports.Locker, policy financing.Policy, log zerolog.Logger) *FinancingUseCase {
	if locker == nil {
		locker = ports.NoopLocker{}
	}
	return &FinancingUseCase{
		repos:  repos,
		tx:     tx,
		locker: locker,
		policy: policy,
		log:    log.With().Str("component", "sales").Logger(),
		now:    time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (uc *FinancingUseCase) WithClock(now func() time.Time) *FinancingUseCase {
	uc.now = now
	return uc
}

// WithView sirve List desde el store en lugar de los repositorios.
func (uc *FinancingUseCase) WithView(v FinancingView) *FinancingUseCase {
	uc.view = v
	return uc
}

// Policy política de cálculo en uso.
func (uc *FinancingUseCase) Policy() financing.Policy { return uc.policy }

// Create registra una venta de contado o un financiamiento en una sola transacción: descuenta el stock de
// cada línea, asigna el número de control, inserta contrato y líneas y el pago inicial si lo hay.
// Si cualquier paso falla no queda nada persistido. El monto se fija aquí y no se recalcula después.
// Las ventas de contado registran automáticamente un pago "inicial" por el monto completo.
func (uc *FinancingUseCase) Create(ctx context.Context, in dto.CreateFinancingRequest) (*dto.FinancingResponse, error) {
	installments := in.Installments
	switch in.SaleType {
	case entity.SaleTypeCash:
		installments = 0
	case entity.SaleTypeInstallments:
		if installments < 1 {
			return nil, domain.NewValidationError("installments", domain.ErrInvalidInput, "un financiamiento requiere al menos una cuota")
		}
	default:
		return nil, domain.NewValidationError("sale_type", domain.ErrInvalidInput, "tipo de venta inválido (contado|cuotas)")
	}
	if len(in.Items) == 0 {
		return nil, domain.NewValidationError("items", domain.ErrInvalidInput, "debe incluir al menos un producto")
	}
	for i, it := range in.Items {
		if it.Quantity < 1 {
			return nil, domain.NewValidationError(fmt.Sprintf("items[%d].quantity", i), domain.ErrInvalidInput, "la cantidad debe ser al menos 1")
		}
		if it.UnitPrice != nil && it.UnitPrice.IsNegative() {
			return nil, domain.NewValidationError(fmt.Sprintf("items[%d].unit_price", i), domain.ErrInvalidInput, "precio inválido")
		}
	}

	customer, err := uc.repos.Customers.GetByID(ctx, in.CustomerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, domain.NewValidationError("customer_id", domain.ErrNotFound, "el cliente no existe")
	}

	now := uc.now()
	start := today(now)
	if in.StartDate != nil && !in.StartDate.IsZero() {
		start = *in.StartDate
	}

	var initial *entity.Payment
	if in.InitialPayment != nil {
		initial, err = uc.newPayment("initial_payment.", in.InitialPayment.Amount, now, entity.PaymentKindInitial,
			in.InitialPayment.Method, in.InitialPayment.Reference, in.InitialPayment.ReceiptURL, nil)
		if err != nil {
			return nil, err
		}
	}
	if in.SaleType == entity.SaleTypeCash && initial == nil {
		initial = &entity.Payment{
			ID:        uuid.New().String(),
			Date:      now,
			Kind:      entity.PaymentKindInitial,
			Method:    entity.MethodCash,
			CreatedAt: now,
		}
	}
	if initial != nil && initial.RequiresUniqueReference() {
		release, err := uc.reserveReference(ctx, "initial_payment.reference", initial.Reference)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	f := &entity.Financing{
		ID:           uuid.New().String(),
		CustomerID:   customer.ID,
		SaleType:     in.SaleType,
		Installments: installments,
		StartDate:    start,
		Status:       entity.StatusActive,
		Description:  strings.TrimSpace(in.Description),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	var (
		summary  financing.Summary
		products = map[string]string{}
	)
	err = uc.tx.Run(ctx, func(r ports.Repos) error {
		total := decimal.Zero
		for _, it := range in.Items {
			p, err := inventory.ApplyDelta(ctx, r.Products, it.ProductID, -it.Quantity)
			if err != nil {
				return err
			}
			unit := p.Price
			if it.UnitPrice != nil {
				unit = *it.UnitPrice
			}
			sub := unit.Mul(decimal.NewFromInt(int64(it.Quantity))).Round(2)
			total = total.Add(sub)
			products[p.ID] = p.Name
			f.Items = append(f.Items, entity.LineItem{
				ID:          uuid.New().String(),
				FinancingID: f.ID,
				ProductID:   p.ID,
				Quantity:    it.Quantity,
				UnitPrice:   unit,
				Subtotal:    sub,
			})
		}
		f.Amount = total
		if in.Amount != nil {
			f.Amount = in.Amount.Round(2)
		}
		if !f.Amount.IsPositive() {
			return domain.NewValidationError("amount", domain.ErrInvalidInput, "el monto debe ser mayor que cero")
		}

		n, err := r.Counters.Next(ctx, repository.CounterFinancings)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrSequence, err)
		}
		f.ControlNumber = n

		if err := r.Financings.Create(ctx, f); err != nil {
			return err
		}

		var payments []*entity.Payment
		if initial != nil {
			initial.FinancingID = f.ID
			if f.SaleType == entity.SaleTypeCash && initial.Amount.IsZero() {
				initial.Amount = f.Amount
			}
			if initial.Amount.GreaterThan(f.Amount) {
				return domain.NewValidationError("initial_payment.amount", domain.ErrInvalidInput, "el pago inicial supera el monto")
			}
			if err := r.Payments.Create(ctx, initial); err != nil {
				return err
			}
			payments = append(payments, initial)
		}

		summary = financing.Compute(f, payments, now, uc.policy)
		if summary.Status != f.Status {
			if err := r.Financings.UpdateStatus(ctx, f.ID, summary.Status); err != nil {
				return err
			}
			f.Status = summary.Status
		}
		return nil
	})
	if err != nil {
		return nil, receiptError(err, "initial_payment.reference")
	}

	uc.log.Info().
		Str("financing_id", f.ID).
		Str("control", controlnum.ForSale(f.SaleType, f.ControlNumber)).
		Str("amount", f.Amount.StringFixed(2)).
		Int("items", len(f.Items)).
		Msg("venta registrada")
	return ToFinancingResponse(f, &summary, products), nil
}

// RecordPayment registra un pago y re-deriva el estado del financiamiento en la misma transacción.
// Una referencia informada en un pago que no es en efectivo debe ser única entre todos los pagos.
func (uc *FinancingUseCase) RecordPayment(ctx context.Context, financingID string, in dto.RecordPaymentRequest) (*dto.RecordPaymentResponse, error) {
	f, err := uc.repos.Financings.GetByID(ctx, financingID)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, domain.ErrNotFound
	}
	if f.SaleType == entity.SaleTypeCash || f.Status == entity.StatusCompleted {
		return nil, fmt.Errorf("%w: el financiamiento ya está completado", domain.ErrConflict)
	}

	now := uc.now()
	date := now
	if in.Date != nil && !in.Date.IsZero() {
		date = *in.Date
	}
	p, err := uc.newPayment("", in.Amount, date, in.Kind, in.Method, in.Reference, in.ReceiptURL, in.InstallmentNumber)
	if err != nil {
		return nil, err
	}
	p.FinancingID = f.ID
	p.CreatedAt = now

	if p.RequiresUniqueReference() {
		release, err := uc.reserveReference(ctx, "reference", p.Reference)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	var summary financing.Summary
	err = uc.tx.Run(ctx, func(r ports.Repos) error {
		if err := r.Payments.Create(ctx, p); err != nil {
			return err
		}
		payments, err := r.Payments.ListByFinancing(ctx, f.ID)
		if err != nil {
			return err
		}
		summary = financing.Compute(f, payments, now, uc.policy)
		if summary.Status != f.Status {
			return r.Financings.UpdateStatus(ctx, f.ID, summary.Status)
		}
		return nil
	})
	if err != nil {
		return nil, receiptError(err, "reference")
	}

	uc.log.Info().
		Str("financing_id", f.ID).
		Str("payment_id", p.ID).
		Str("amount", p.Amount.StringFixed(2)).
		Str("status", summary.Status).
		Msg("pago registrado")
	return &dto.RecordPaymentResponse{Payment: ToPaymentResponse(p), Summary: summary}, nil
}

// newPayment valida y arma un pago. prefix antecede el nombre del campo en los errores.
func (uc *FinancingUseCase) newPayment(prefix string, amount decimal.Decimal, date time.Time, kind, method, reference, receiptURL string, number *int) (*entity.Payment, error) {
	if !amount.IsPositive() {
		return nil, domain.NewValidationError(prefix+"amount", domain.ErrInvalidInput, "el monto del pago debe ser mayor que cero")
	}
	switch kind {
	case entity.PaymentKindInstallment, entity.PaymentKindInitial, entity.PaymentKindCredit:
	default:
		return nil, domain.NewValidationError(prefix+"kind", domain.ErrInvalidInput, "tipo de pago inválido (cuota|inicial|abono)")
	}
	method = strings.ToLower(strings.TrimSpace(method))
	if method == "" {
		return nil, domain.NewValidationError(prefix+"method", domain.ErrInvalidInput, "el método de pago es obligatorio")
	}
	return &entity.Payment{
		ID:                uuid.New().String(),
		Amount:            amount.Round(2),
		Date:              date,
		Kind:              kind,
		Method:            method,
		Reference:         strings.ToUpper(strings.TrimSpace(reference)),
		ReceiptURL:        strings.TrimSpace(receiptURL),
		InstallmentNumber: number,
		CreatedAt:         date,
	}, nil
}

// reserveReference toma el lock de la referencia y verifica que no exista. La verificación
// definitiva es el índice único parcial sobre pagos.referencia.
func (uc *FinancingUseCase) reserveReference(ctx context.Context, field, reference string) (func(), error) {
	release, err := uc.locker.Acquire(ctx, "comprobante:"+reference)
	if errors.Is(err, ports.ErrLocked) {
		return nil, domain.NewValidationError(field, domain.ErrConflict,
			"otro pago con la misma referencia se está registrando, intente de nuevo")
	}
	if err != nil {
		return nil, err
	}
	exists, err := uc.repos.Payments.ExistsByReference(ctx, reference)
	if err != nil {
		release()
		return nil, err
	}
	if exists {
		release()
		return nil, duplicateReceipt(field, reference)
	}
	return release, nil
}

func duplicateReceipt(field, reference string) error {
	return domain.NewValidationError(field, domain.ErrDuplicateReceipt,
		fmt.Sprintf("la referencia %s ya fue registrada en otro pago", reference))
}

func receiptError(err error, field string) error {
	var verr *domain.ValidationError
	if errors.Is(err, domain.ErrDuplicateReceipt) && !errors.As(err, &verr) {
		return domain.NewValidationError(field, domain.ErrDuplicateReceipt, domain.ErrDuplicateReceipt.Error())
	}
	return err
}

func today(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

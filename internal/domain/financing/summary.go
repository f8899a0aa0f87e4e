package financing

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Financiamiento-api/internal/domain/entity"
)

var hundred = decimal.NewFromInt(100)

// Summary valores derivados de un financiamiento y sus pagos en un instante dado.
// Los montos se redondean a 2 decimales.
type Summary struct {
	InstallmentValue     decimal.Decimal `json:"installment_value"`
	TotalCollected       decimal.Decimal `json:"total_collected"`
	PendingBalance       decimal.Decimal `json:"pending_balance"`
	ProgressPct          decimal.Decimal `json:"progress_pct"`
	ExpectedInstallments int             `json:"expected_installments"`
	PaidInstallments     int             `json:"paid_installments"`
	OverdueCount         int             `json:"overdue_count"`
	OverdueAmount        decimal.Decimal `json:"overdue_amount"`
	DaysOverdueEstimate  int             `json:"days_overdue_estimate"`
	Status               string          `json:"status"`
}

// IsValidPayment pago que cuenta como cuota pagada y como cobrado: tipo cuota o inicial
// (abono solo si la política lo permite) y con un id real (no vacío ni temporal).
func IsValidPayment(p *entity.Payment, policy Policy) bool {
	if p == nil {
		return false
	}
	id := strings.TrimSpace(p.ID)
	if id == "" || strings.HasPrefix(strings.ToLower(id), "temp") {
		return false
	}
	switch p.Kind {
	case entity.PaymentKindInstallment, entity.PaymentKindInitial:
		return true
	case entity.PaymentKindCredit:
		return policy.CountAbonos
	}
	return false
}

// ValidPayments filtra los pagos válidos del financiamiento financingID. Acepta la lista completa
// de pagos o una ya filtrada.
func ValidPayments(financingID string, payments []*entity.Payment, policy Policy) []*entity.Payment {
	out := make([]*entity.Payment, 0, len(payments))
	for _, p := range payments {
		if p == nil || (financingID != "" && p.FinancingID != financingID) {
			continue
		}
		if IsValidPayment(p, policy) {
			out = append(out, p)
		}
	}
	return out
}

// InstallmentValue monto / cuotas en financiamientos; el monto completo en contado.
func InstallmentValue(f *entity.Financing) decimal.Decimal {
	if f.IsInstallmentSale() {
		return f.Amount.Div(decimal.NewFromInt(int64(f.Installments)))
	}
	return f.Amount
}

// ExpectedInstallments cuotas que deberían estar pagadas en now:
// max(0, min(floor((now-start)/cadencia)+1, cuotas)), con el tope opcional de la política.
// Un inicio sin fecha no genera cuotas esperadas.
func ExpectedInstallments(start, now time.Time, installments int, policy Policy) int {
	policy = policy.normalized()
	if start.IsZero() || installments <= 0 {
		return 0
	}
	elapsed := now.Sub(start)
	periods := int(elapsed / policy.Cadence)
	if elapsed < 0 && elapsed%policy.Cadence != 0 {
		periods-- // floor, no truncamiento hacia cero
	}
	expected := periods + 1
	if expected > installments {
		expected = installments
	}
	if policy.MaxExpectedInstallments > 0 && expected > policy.MaxExpectedInstallments {
		expected = policy.MaxExpectedInstallments
	}
	if expected < 0 {
		expected = 0
	}
	return expected
}

// Compute calcula el resumen financiero. Es determinista para los mismos argumentos.
func Compute(f *entity.Financing, payments []*entity.Payment, now time.Time, policy Policy) Summary {
	policy = policy.normalized()
	valid := ValidPayments(f.ID, payments, policy)

	collected := decimal.Zero
	for _, p := range valid {
		collected = collected.Add(p.Amount)
	}

	installment := InstallmentValue(f)
	pending := f.Amount.Sub(collected)
	if pending.IsNegative() {
		pending = decimal.Zero
	}

	progress := decimal.Zero
	if f.Amount.IsPositive() {
		progress = collected.Div(f.Amount).Mul(hundred)
	}
	if !f.IsInstallmentSale() && (len(valid) > 0 || collected.GreaterThanOrEqual(f.Amount)) {
		progress = hundred
	}
	if progress.IsNegative() {
		progress = decimal.Zero
	}

	s := Summary{
		InstallmentValue: installment.Round(2),
		TotalCollected:   collected.Round(2),
		PendingBalance:   pending.Round(2),
		ProgressPct:      progress.Round(2),
		PaidInstallments: len(valid),
		OverdueAmount:    decimal.Zero,
	}

	if f.IsInstallmentSale() {
		s.ExpectedInstallments = ExpectedInstallments(f.StartDate, now, f.Installments, policy)
		if f.Status != entity.StatusCompleted {
			overdue := s.ExpectedInstallments - s.PaidInstallments
			if overdue > 0 {
				s.OverdueCount = overdue
			}
		}
	}

	s.OverdueAmount = installment.Mul(decimal.NewFromInt(int64(s.OverdueCount))).Round(2)
	s.DaysOverdueEstimate = s.OverdueCount * policy.DaysPerInstallment
	if policy.MaxDaysOverdue > 0 && s.DaysOverdueEstimate > policy.MaxDaysOverdue {
		s.DaysOverdueEstimate = policy.MaxDaysOverdue
	}
	s.Status = DeriveStatus(f, s)
	return s
}

// DeriveStatus estado a partir del resumen. Contado y completado son terminales;
// un financiamiento sin saldo pendiente pasa a completado; con cuotas vencidas, a atrasado.
func DeriveStatus(f *entity.Financing, s Summary) string {
	if f.SaleType == entity.SaleTypeCash || f.Status == entity.StatusCompleted {
		return entity.StatusCompleted
	}
	if !s.PendingBalance.IsPositive() {
		return entity.StatusCompleted
	}
	if s.OverdueCount > 0 {
		return entity.StatusOverdue
	}
	return entity.StatusActive
}

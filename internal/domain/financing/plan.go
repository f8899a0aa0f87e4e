package financing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Financiamiento-api/internal/domain/entity"
)

// Estados de una fila del plan de pagos.
const (
	PlanPaid    = "pagada"
	PlanOverdue = "vencida"
	PlanPending = "pendiente"
)

// PlanRow una cuota del plan de pagos.
type PlanRow struct {
	Number  int             `json:"number"`
	DueDate time.Time       `json:"due_date"`
	Amount  decimal.Decimal `json:"amount"`
	State   string          `json:"state"`
}

// BuildPlan arma la grilla de cuotas: vencimiento = inicio + (n-1)*cadencia. La última cuota
// absorbe la diferencia de redondeo para que la suma sea exactamente el monto.
// Las ventas de contado no tienen plan.
func BuildPlan(f *entity.Financing, payments []*entity.Payment, now time.Time, policy Policy) []PlanRow {
	if !f.IsInstallmentSale() {
		return nil
	}
	policy = policy.normalized()
	s := Compute(f, payments, now, policy)

	n := f.Installments
	value := InstallmentValue(f).Round(2)
	last := f.Amount.Sub(value.Mul(decimal.NewFromInt(int64(n - 1))))

	rows := make([]PlanRow, 0, n)
	for i := 1; i <= n; i++ {
		amount := value
		if i == n {
			amount = last
		}
		state := PlanPending
		switch {
		case i <= s.PaidInstallments || f.Status == entity.StatusCompleted:
			state = PlanPaid
		case i <= s.ExpectedInstallments:
			state = PlanOverdue
		}
		rows = append(rows, PlanRow{
			Number:  i,
			DueDate: f.StartDate.Add(time.Duration(i-1) * policy.Cadence),
			Amount:  amount,
			State:   state,
		})
	}
	return rows
}

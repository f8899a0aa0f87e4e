package financing_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Financiamiento-api/internal/domain/entity"
	"github.com/jhoicas/Financiamiento-api/internal/domain/financing"
)

var now = time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func contract(amount string, installments int, start time.Time) *entity.Financing {
	saleType := entity.SaleTypeInstallments
	if installments == 0 {
		saleType = entity.SaleTypeCash
	}
	return &entity.Financing{
		ID:           "fin-1",
		SaleType:     saleType,
		Amount:       dec(amount),
		Installments: installments,
		StartDate:    start,
		Status:       entity.StatusActive,
	}
}

func payments(n int, amount string, kind string) []*entity.Payment {
	out := make([]*entity.Payment, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, &entity.Payment{
			ID:          fmt.Sprintf("pay-%d", i),
			FinancingID: "fin-1",
			Amount:      dec(amount),
			Kind:        kind,
			Method:      entity.MethodCash,
		})
	}
	return out
}

func TestCompute_OverdueCappedAtInstallments(t *testing.T) {
	f := contract("1000", 10, now.AddDate(0, 0, -70))

	s := financing.Compute(f, nil, now, financing.CanonicalPolicy())

	assert.Equal(t, 10, s.ExpectedInstallments)
	assert.Equal(t, 10, s.OverdueCount)
	assert.True(t, s.InstallmentValue.Equal(dec("100")))
	assert.True(t, s.OverdueAmount.Equal(dec("1000")))
	assert.True(t, s.PendingBalance.Equal(dec("1000")))
	assert.Equal(t, 70, s.DaysOverdueEstimate)
	assert.Equal(t, entity.StatusOverdue, s.Status)
}

func TestCompute_FullyPaid(t *testing.T) {
	f := contract("1000", 10, now.AddDate(0, 0, -70))

	s := financing.Compute(f, payments(10, "100", entity.PaymentKindInstallment), now, financing.CanonicalPolicy())

	assert.Equal(t, 0, s.OverdueCount)
	assert.True(t, s.ProgressPct.Equal(dec("100")))
	assert.True(t, s.PendingBalance.IsZero())
	assert.Equal(t, entity.StatusCompleted, s.Status)
}

func TestCompute_CashSale(t *testing.T) {
	f := contract("500", 0, now.AddDate(-2, 0, 0))

	s := financing.Compute(f, nil, now, financing.CanonicalPolicy())
	assert.True(t, s.InstallmentValue.Equal(dec("500")))
	assert.Equal(t, 0, s.OverdueCount)
	assert.Equal(t, 0, s.ExpectedInstallments)
	assert.True(t, s.ProgressPct.IsZero())
	assert.Equal(t, entity.StatusCompleted, s.Status)

	s = financing.Compute(f, payments(1, "500", entity.PaymentKindInitial), now, financing.CanonicalPolicy())
	assert.True(t, s.ProgressPct.Equal(dec("100")))
}

func TestCompute_FirstInstallmentDueOnStartDate(t *testing.T) {
	f := contract("1000", 10, now)

	s := financing.Compute(f, nil, now, financing.CanonicalPolicy())
	assert.Equal(t, 1, s.ExpectedInstallments)
	assert.Equal(t, 1, s.OverdueCount)

	s = financing.Compute(f, payments(1, "100", entity.PaymentKindInitial), now, financing.CanonicalPolicy())
	assert.Equal(t, 0, s.OverdueCount)
	assert.Equal(t, entity.StatusActive, s.Status)
}

func TestCompute_FutureStartDate(t *testing.T) {
	f := contract("1000", 10, now.Add(36*time.Hour))

	s := financing.Compute(f, nil, now, financing.CanonicalPolicy())

	assert.Equal(t, 0, s.ExpectedInstallments)
	assert.Equal(t, 0, s.OverdueCount)
}

func TestCompute_CompletedStatusForcesZeroOverdue(t *testing.T) {
	f := contract("1000", 10, now.AddDate(0, 0, -70))
	f.Status = entity.StatusCompleted

	s := financing.Compute(f, nil, now, financing.CanonicalPolicy())

	assert.Equal(t, 0, s.OverdueCount)
	assert.True(t, s.OverdueAmount.IsZero())
	assert.Equal(t, entity.StatusCompleted, s.Status)
}

func TestCompute_ZeroAmount(t *testing.T) {
	f := contract("0", 4, now.AddDate(0, 0, -14))

	s := financing.Compute(f, nil, now, financing.CanonicalPolicy())

	assert.True(t, s.ProgressPct.IsZero())
	assert.True(t, s.InstallmentValue.IsZero())
}

func TestValidPayments(t *testing.T) {
	ps := []*entity.Payment{
		{ID: "a", FinancingID: "fin-1", Amount: dec("10"), Kind: entity.PaymentKindInstallment},
		{ID: "b", FinancingID: "fin-1", Amount: dec("10"), Kind: entity.PaymentKindInitial},
		{ID: "c", FinancingID: "fin-1", Amount: dec("10"), Kind: entity.PaymentKindCredit},
		{ID: "", FinancingID: "fin-1", Amount: dec("10"), Kind: entity.PaymentKindInstallment},
		{ID: "temp-123", FinancingID: "fin-1", Amount: dec("10"), Kind: entity.PaymentKindInstallment},
		{ID: "d", FinancingID: "fin-2", Amount: dec("10"), Kind: entity.PaymentKindInstallment},
		nil,
	}

	valid := financing.ValidPayments("fin-1", ps, financing.CanonicalPolicy())
	require.Len(t, valid, 2)
	assert.Equal(t, "a", valid[0].ID)
	assert.Equal(t, "b", valid[1].ID)

	p := financing.CanonicalPolicy()
	p.CountAbonos = true
	assert.Len(t, financing.ValidPayments("fin-1", ps, p), 3)
}

func TestCompute_IgnoresInvalidPayments(t *testing.T) {
	f := contract("1000", 10, now.AddDate(0, 0, -21))
	ps := append(payments(2, "100", entity.PaymentKindInstallment),
		&entity.Payment{ID: "temp-1", FinancingID: "fin-1", Amount: dec("100"), Kind: entity.PaymentKindInstallment},
		&entity.Payment{ID: "x", FinancingID: "fin-1", Amount: dec("100"), Kind: entity.PaymentKindCredit},
	)

	s := financing.Compute(f, ps, now, financing.CanonicalPolicy())

	assert.Equal(t, 2, s.PaidInstallments)
	assert.Equal(t, 4, s.ExpectedInstallments)
	assert.Equal(t, 2, s.OverdueCount)
	assert.True(t, s.TotalCollected.Equal(dec("200")))
}

func TestCompute_LegacyCaps(t *testing.T) {
	f := contract("3000", 30, now.AddDate(0, 0, -7*29))

	canonical := financing.Compute(f, nil, now, financing.CanonicalPolicy())
	legacy := financing.Compute(f, nil, now, financing.LegacyCappedPolicy())

	assert.Equal(t, 30, canonical.OverdueCount)
	assert.Equal(t, 210, canonical.DaysOverdueEstimate)
	assert.Equal(t, 15, legacy.OverdueCount)
	assert.Equal(t, 105, legacy.DaysOverdueEstimate)

	f.Installments = 40
	f.StartDate = now.AddDate(0, 0, -7*39)
	legacy = financing.Compute(f, payments(0, "0", ""), now, financing.PolicyByName("legacy"))
	assert.Equal(t, 105, legacy.DaysOverdueEstimate)
	p := financing.LegacyCappedPolicy()
	p.MaxExpectedInstallments = 0
	assert.Equal(t, 180, financing.Compute(f, nil, now, p).DaysOverdueEstimate)
}

func TestCompute_Properties(t *testing.T) {
	policy := financing.CanonicalPolicy()
	f := contract("1200", 12, now.AddDate(0, 0, -40))

	prevOverdue := -1
	prevProgress := decimal.NewFromInt(-1)
	for paid := 0; paid <= 14; paid++ {
		ps := payments(paid, "100", entity.PaymentKindInstallment)
		s := financing.Compute(f, ps, now, policy)

		assert.GreaterOrEqual(t, s.OverdueCount, 0)
		assert.LessOrEqual(t, s.ExpectedInstallments, f.Installments)
		assert.False(t, s.PendingBalance.IsNegative())
		assert.False(t, s.ProgressPct.IsNegative())
		assert.True(t, s.OverdueAmount.Equal(s.InstallmentValue.Mul(decimal.NewFromInt(int64(s.OverdueCount)))))
		if prevOverdue >= 0 {
			assert.LessOrEqual(t, s.OverdueCount, prevOverdue, "overdue must not grow when a payment is added")
		}
		prevOverdue = s.OverdueCount
		assert.True(t, s.ProgressPct.GreaterThanOrEqual(prevProgress), "progress must not drop when a payment is added (paid=%d)", paid)
		prevProgress = s.ProgressPct

		again := financing.Compute(f, ps, now, policy)
		assert.Equal(t, s, again)
	}
}

func TestExpectedInstallments_FloorDivision(t *testing.T) {
	policy := financing.CanonicalPolicy()
	start := now

	assert.Equal(t, 1, financing.ExpectedInstallments(start, now.Add(6*24*time.Hour), 10, policy))
	assert.Equal(t, 2, financing.ExpectedInstallments(start, now.Add(7*24*time.Hour), 10, policy))
	assert.Equal(t, 0, financing.ExpectedInstallments(start, now.Add(-time.Hour), 10, policy))
	assert.Equal(t, 0, financing.ExpectedInstallments(time.Time{}, now, 10, policy))
	assert.Equal(t, 0, financing.ExpectedInstallments(start, now, 0, policy))
}

func TestDeriveStatus(t *testing.T) {
	f := contract("1000", 10, now)
	assert.Equal(t, entity.StatusActive, financing.DeriveStatus(f, financing.Summary{PendingBalance: dec("10")}))
	assert.Equal(t, entity.StatusOverdue, financing.DeriveStatus(f, financing.Summary{PendingBalance: dec("10"), OverdueCount: 1}))
	assert.Equal(t, entity.StatusCompleted, financing.DeriveStatus(f, financing.Summary{PendingBalance: decimal.Zero}))

	cash := contract("100", 0, now)
	assert.Equal(t, entity.StatusCompleted, financing.DeriveStatus(cash, financing.Summary{PendingBalance: dec("100")}))
}

func TestSeverityTable(t *testing.T) {
	table := financing.DefaultSeverityTable()
	require.NoError(t, table.Validate())

	cases := map[int]string{
		0:  financing.SeverityNone,
		1:  financing.SeverityLow,
		2:  financing.SeverityMedium,
		3:  financing.SeverityHigh,
		4:  financing.SeverityHigh,
		5:  financing.SeverityCritical,
		40: financing.SeverityCritical,
	}
	for overdue, level := range cases {
		assert.Equal(t, level, table.Classify(overdue).Level, "overdue=%d", overdue)
	}
	assert.Equal(t, 0, table.Classify(0).Rank)
	assert.Equal(t, 4, table.Classify(9).Rank)
	assert.Equal(t, 3, table.Rank(financing.SeverityHigh))
	assert.Equal(t, 0, table.Rank("desconocido"))

	threshold, ok := table.Min(financing.SeverityCritical)
	assert.True(t, ok)
	assert.Equal(t, 5, threshold)

	bad := financing.SeverityTable{{Level: financing.SeverityLow, Min: 2}, {Level: financing.SeverityHigh, Min: 2}}
	assert.Error(t, bad.Validate())
	assert.Error(t, financing.SeverityTable{}.Validate())
	assert.Error(t, financing.SeverityTable{{Level: financing.SeverityLow, Min: 0}}.Validate())
}

func TestBuildPlan(t *testing.T) {
	f := contract("1000", 3, now.AddDate(0, 0, -8))

	rows := financing.BuildPlan(f, payments(1, "333.33", entity.PaymentKindInstallment), now, financing.CanonicalPolicy())

	require.Len(t, rows, 3)
	assert.Equal(t, financing.PlanPaid, rows[0].State)
	assert.Equal(t, financing.PlanOverdue, rows[1].State)
	assert.Equal(t, financing.PlanPending, rows[2].State)
	assert.True(t, rows[1].DueDate.Equal(f.StartDate.AddDate(0, 0, 7)))

	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.Amount)
	}
	assert.True(t, total.Equal(dec("1000")))
	assert.True(t, rows[2].Amount.Equal(dec("333.34")))

	assert.Nil(t, financing.BuildPlan(contract("500", 0, now), nil, now, financing.CanonicalPolicy()))
}

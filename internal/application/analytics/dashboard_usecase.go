// Package analytics contiene los casos de uso de lectura sobre la cartera: vista de cobranza,
// reporte de morosos, recordatorios por WhatsApp, PDFs y el dashboard de cobranza.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Financiamiento-api/internal/application/dto"
	"github.com/jhoicas/Financiamiento-api/internal/domain/collections"
	"github.com/jhoicas/Financiamiento-api/internal/domain/entity"
	"github.com/jhoicas/Financiamiento-api/internal/domain/financing"
)

const dashboardTopOverdue = 5 // financiamientos en el widget del dashboard

// View proyección de solo lectura sobre la que trabajan estos casos de uso (store.Store).
type View interface {
	Snapshot() collections.Snapshot
	Collections(f collections.Filters, now time.Time) collections.Result
	Customers(search string) []*entity.Customer
	Errors() map[string]string
}

// DashboardUseCase genera el resumen de cobranza del día y del mes en curso.
//
// Fuente de datos: la proyección en memoria; no consulta la base.
type DashboardUseCase struct {
	view   View
	policy financing.Policy
	now    func() time.Time
}

// NewDashboardUseCase construye el caso de uso.
func NewDashboardUseCase(view View, policy financing.Policy) *DashboardUseCase {
	return &DashboardUseCase{view: view, policy: policy, now: time.Now}
}

// WithClock reemplaza el reloj (tests).
func (uc *DashboardUseCase) WithClock(now func() time.Time) *DashboardUseCase {
	uc.now = now
	return uc
}

// GetSummary construye el DashboardSummaryDTO.
func (uc *DashboardUseCase) GetSummary(ctx context.Context) (*dto.DashboardSummaryDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := uc.now()

	// ── Rangos de fecha ────────────────────────────────────────────────────────
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	todayEnd := todayStart.Add(24*time.Hour - time.Nanosecond)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	snap := uc.view.Snapshot()
	out := &dto.DashboardSummaryDTO{
		TodayCollected:   decimal.Zero,
		MonthlyCollected: decimal.Zero,
		PendingBalance:   decimal.Zero,
		TopOverdue:       []dto.TopOverdueDTO{},
		DateLabel:        monthLabel(now),
		StoreErrors:      uc.view.Errors(),
	}

	// ── Cobrado ────────────────────────────────────────────────────────────────
	for _, p := range snap.Payments {
		if !financing.IsValidPayment(p, uc.policy) || p.Date.After(todayEnd) || p.Date.Before(monthStart) {
			continue
		}
		out.MonthlyCollected = out.MonthlyCollected.Add(p.Amount)
		out.MonthlyPayments++
		if !p.Date.Before(todayStart) {
			out.TodayCollected = out.TodayCollected.Add(p.Amount)
			out.TodayPayments++
		}
	}
	out.TodayCollected = out.TodayCollected.Round(2)
	out.MonthlyCollected = out.MonthlyCollected.Round(2)

	// ── Cartera abierta ────────────────────────────────────────────────────────
	res := uc.view.Collections(collections.Filters{IncludeCurrent: true, Sort: collections.SortOverdue}, now)
	for _, it := range res.Items {
		out.PendingBalance = out.PendingBalance.Add(it.Summary.PendingBalance)
		if it.Summary.OverdueCount > 0 {
			out.OverdueFinancings++
		} else {
			out.ActiveFinancings++
		}
	}
	overdue := overdueOnly(res.Items)
	out.Collections = collections.ComputeStatistics(overdue)

	for i, it := range overdue {
		if i == dashboardTopOverdue {
			break
		}
		out.TopOverdue = append(out.TopOverdue, dto.TopOverdueDTO{
			FinancingID:   it.FinancingID,
			ControlNumber: it.ControlNumber,
			CustomerName:  it.Customer.Name,
			OverdueCount:  it.Summary.OverdueCount,
			OverdueAmount: it.Summary.OverdueAmount,
			Severity:      it.Severity.Level,
		})
	}
	return out, nil
}

// overdueOnly conserva el orden de items.
func overdueOnly(items []collections.Item) []collections.Item {
	out := make([]collections.Item, 0, len(items))
	for _, it := range items {
		if it.Summary.OverdueCount > 0 {
			out = append(out, it)
		}
	}
	return out
}

// monthLabel devuelve una etiqueta legible del mes, ej: "Febrero 2026".
func monthLabel(t time.Time) string {
	months := [...]string{
		"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
		"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
	}
	return fmt.Sprintf("%s %d", months[t.Month()-1], t.Year())
}

package dto

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Financiamiento-api/internal/domain/collections"
)

// DashboardSummaryDTO respuesta de GET /api/dashboard/summary.
// Cobranza del día y del mes en curso, cartera abierta y estadísticas de morosidad.
type DashboardSummaryDTO struct {
	// Cobrado hoy (00:00 – 23:59)
	TodayCollected decimal.Decimal `json:"today_collected"`
	TodayPayments  int             `json:"today_payments"`

	// Cobrado en el mes en curso (día 1 – hoy)
	MonthlyCollected decimal.Decimal `json:"monthly_collected"`
	MonthlyPayments  int             `json:"monthly_payments"`

	// Cartera
	ActiveFinancings  int                    `json:"active_financings"`
	OverdueFinancings int                    `json:"overdue_financings"`
	PendingBalance    decimal.Decimal        `json:"pending_balance"`
	Collections       collections.Statistics `json:"collections"`

	// Top 5 financiamientos con más cuotas vencidas
	TopOverdue []TopOverdueDTO `json:"top_overdue"`

	DateLabel   string            `json:"date_label"` // ej: "Febrero 2026"
	StoreErrors map[string]string `json:"store_errors,omitempty"`
}

// TopOverdueDTO resumen de un financiamiento para el widget del dashboard.
type TopOverdueDTO struct {
	FinancingID   string          `json:"financing_id"`
	ControlNumber string          `json:"control_number"`
	CustomerName  string          `json:"customer_name"`
	OverdueCount  int             `json:"overdue_count"`
	OverdueAmount decimal.Decimal `json:"overdue_amount"`
	Severity      string          `json:"severity"`
}

package ports

import (
	"time"

	"github.com/jhoicas/Financiamiento-api/internal/domain/collections"
	"github.com/jhoicas/Financiamiento-api/internal/domain/entity"
	"github.com/jhoicas/Financiamiento-api/internal/domain/financing"
)

// CustomerListDoc datos del listado imprimible de clientes.
type CustomerListDoc struct {
	Title       string
	GeneratedAt time.Time
	Customers   []*entity.Customer
}

// MorosoReportDoc datos del reporte de morosos.
type MorosoReportDoc struct {
	Title       string
	GeneratedAt time.Time
	Report      collections.Report
}

// PaymentPlanDoc datos del plan de pagos de un financiamiento.
type PaymentPlanDoc struct {
	GeneratedAt   time.Time
	ControlNumber string
	Financing     *entity.Financing
	Customer      *entity.Customer
	ProductText   string
	Summary       financing.Summary
	Rows          []financing.PlanRow
}

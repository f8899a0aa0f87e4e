package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de venta.
const (
	SaleTypeCash         = "contado"
	SaleTypeInstallments = "cuotas"
)

// Estados del ciclo de vida de un financiamiento. El estado persistido es una caché
// del valor derivado de los pagos (ver financing.DeriveStatus).
const (
	StatusActive    = "activo"
	StatusCompleted = "completado"
	StatusOverdue   = "atrasado"
)

// LineItem línea de producto de un financiamiento o venta de contado.
type LineItem struct {
	ID          string
	FinancingID string
	ProductID   string
	Quantity    int
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
}

// Financing representa una venta de contado (SaleType "contado", Installments 0) o un
// financiamiento en cuotas semanales (SaleType "cuotas").
// Amount se fija al crear y no se recalcula aunque cambie el precio del producto.
type Financing struct {
	ID              string
	ControlNumber   int64
	CustomerID      string
	SaleType        string
	Amount          decimal.Decimal
	Installments    int
	StartDate       time.Time
	Status          string
	Items           []LineItem
	LegacyProductID string // registros antiguos con un único producto y sin líneas
	Description     string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsInstallmentSale indica si es un financiamiento en cuotas con al menos una cuota.
func (f *Financing) IsInstallmentSale() bool {
	return f.SaleType == SaleTypeInstallments && f.Installments > 0
}

// ProductIDs devuelve los productos referenciados, priorizando las líneas sobre el campo legado.
func (f *Financing) ProductIDs() []string {
	if len(f.Items) > 0 {
		ids := make([]string, 0, len(f.Items))
		for _, it := range f.Items {
			ids = append(ids, it.ProductID)
		}
		return ids
	}
	if f.LegacyProductID != "" {
		return []string{f.LegacyProductID}
	}
	return nil
}

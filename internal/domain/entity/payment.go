package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de pago.
const (
	PaymentKindInstallment = "cuota"   // cuota regular
	PaymentKindInitial     = "inicial" // pago inicial
	PaymentKindCredit      = "abono"   // abono genérico
)

// MethodCash método de pago en efectivo; los demás métodos exigen referencia única si se informa.
const MethodCash = "efectivo"

// Payment es un cobro registrado contra un financiamiento. Inmutable una vez creado.
type Payment struct {
	ID                string
	FinancingID       string
	Amount            decimal.Decimal
	Date              time.Time
	Kind              string
	Method            string
	Reference         string // número de comprobante/transferencia
	ReceiptURL        string
	InstallmentNumber *int
	CreatedAt         time.Time
}

// RequiresUniqueReference indica si la referencia debe ser única entre todos los pagos:
// solo para métodos distintos de efectivo y con referencia no vacía.
func (p *Payment) RequiresUniqueReference() bool {
	return !strings.EqualFold(strings.TrimSpace(p.Method), MethodCash) && strings.TrimSpace(p.Reference) != ""
}

package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Financiamiento-api/internal/domain/financing"
)

// CreateFinancingRequest body para POST /api/financings. Sirve para ventas de contado
// (sale_type "contado", installments 0) y financiamientos en cuotas.
// Si Amount no se envía, el monto es la suma de las líneas.
type CreateFinancingRequest struct {
	CustomerID     string                 `json:"customer_id" validate:"required"`
	SaleType       string                 `json:"sale_type" validate:"required,oneof=contado cuotas"`
	Installments   int                    `json:"installments" validate:"min=0,max=520"`
	StartDate      *time.Time             `json:"start_date"`
	Amount         *decimal.Decimal       `json:"amount"`
	Description    string                 `json:"description" validate:"omitempty,max=500"`
	Items          []LineItemRequest      `json:"items" validate:"required,min=1,dive"`
	InitialPayment *InitialPaymentRequest `json:"initial_payment" validate:"omitempty"`
}

// LineItemRequest producto y cantidad. Sin precio se usa el del producto.
type LineItemRequest struct {
	ProductID string           `json:"product_id" validate:"required"`
	Quantity  int              `json:"quantity" validate:"min=1"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

// InitialPaymentRequest pago inicial registrado junto con el financiamiento.
type InitialPaymentRequest struct {
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method" validate:"required,max=30"`
	Reference  string          `json:"reference" validate:"omitempty,max=60"`
	ReceiptURL string          `json:"receipt_url" validate:"omitempty,url"`
}

// RecordPaymentRequest body para POST /api/financings/:id/payments.
type RecordPaymentRequest struct {
	Amount            decimal.Decimal `json:"amount"`
	Date              *time.Time      `json:"date"`
	Kind              string          `json:"kind" validate:"required,oneof=cuota inicial abono"`
	Method            string          `json:"method" validate:"required,max=30"`
	Reference         string          `json:"reference" validate:"omitempty,max=60"`
	ReceiptURL        string          `json:"receipt_url" validate:"omitempty,url"`
	InstallmentNumber *int            `json:"installment_number" validate:"omitempty,min=1"`
}

// LineItemResponse línea de un financiamiento.
type LineItemResponse struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// FinancingResponse financiamiento con su estado derivado.
type FinancingResponse struct {
	ID                string             `json:"id"`
	ControlNumber     int64              `json:"control_number"`
	ControlNumberText string             `json:"control_number_text"`
	CustomerID        string             `json:"customer_id"`
	SaleType          string             `json:"sale_type"`
	Amount            decimal.Decimal    `json:"amount"`
	Installments      int                `json:"installments"`
	StartDate         time.Time          `json:"start_date"`
	Status            string             `json:"status"`
	Description       string             `json:"description,omitempty"`
	Items             []LineItemResponse `json:"items"`
	Summary           *financing.Summary `json:"summary,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// FinancingListResponse listado de financiamientos.
type FinancingListResponse struct {
	Items []FinancingResponse `json:"items"`
	Total int                 `json:"total"`
}

// PaymentResponse pago registrado.
type PaymentResponse struct {
	ID                string          `json:"id"`
	FinancingID       string          `json:"financing_id"`
	Amount            decimal.Decimal `json:"amount"`
	Date              time.Time       `json:"date"`
	Kind              string          `json:"kind"`
	Method            string          `json:"method"`
	Reference         string          `json:"reference,omitempty"`
	ReceiptURL        string          `json:"receipt_url,omitempty"`
	InstallmentNumber *int            `json:"installment_number,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

// PaymentListResponse pagos de un financiamiento.
type PaymentListResponse struct {
	Items []PaymentResponse `json:"items"`
	Total int               `json:"total"`
}

// RecordPaymentResponse pago creado y resumen recalculado del financiamiento.
type RecordPaymentResponse struct {
	Payment PaymentResponse   `json:"payment"`
	Summary financing.Summary `json:"summary"`
}

// PlanResponse plan de pagos de un financiamiento.
type PlanResponse struct {
	Financing FinancingResponse   `json:"financing"`
	Rows      []financing.PlanRow `json:"rows"`
}

// RefreshStatusResponse resultado de re-derivar estados.
type RefreshStatusResponse struct {
	Checked int `json:"checked"`
	Updated int `json:"updated"`
}

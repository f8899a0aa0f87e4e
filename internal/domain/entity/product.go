package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un artículo del inventario.
// Stock nunca puede quedar negativo; solo se descuenta por ventas y financiamientos.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal // precio de venta unitario
	Stock       int
	MinStock    int
	Category    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// LowStock indica si el stock actual está en o por debajo del mínimo.
func (p *Product) LowStock() bool {
	return p.Stock <= p.MinStock
}

// Package collections arma la vista de cobranza: une financiamientos con clientes, productos y pagos,
// ejecuta el motor de cálculo y produce ítems filtrados y ordenados con sus estadísticas.
// Es puro: no hace I/O ni depende del store.
package collections

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Financiamiento-api/internal/domain/entity"
	"github.com/jhoicas/Financiamiento-api/internal/domain/financing"
	"github.com/jhoicas/Financiamiento-api/pkg/controlnum"
	"github.com/jhoicas/Financiamiento-api/pkg/textutil"
)

// Criterios de orden.
const (
	SortPriority = "prioridad" // severidad desc, luego cuotas vencidas desc
	SortOverdue  = "cuotas"    // cuotas vencidas desc
)

// Snapshot colecciones completas sobre las que se agrega.
type Snapshot struct {
	Customers  []*entity.Customer
	Products   []*entity.Product
	Financings []*entity.Financing
	Payments   []*entity.Payment
}

// Filters criterios de la vista. Por defecto solo se listan financiamientos con cuotas vencidas.
type Filters struct {
	Search         string
	Severity       string
	IncludeCurrent bool
	Sort           string
}

// CustomerView datos del cliente que acompañan cada ítem.
type CustomerView struct {
	ID            string `json:"id"`
	ControlNumber int64  `json:"control_number"`
	Name          string `json:"name"`
	NationalID    string `json:"national_id"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
}

// Item un financiamiento enriquecido.
type Item struct {
	Financing     *entity.Financing  `json:"-"`
	FinancingID   string             `json:"financing_id"`
	ControlNumber string             `json:"control_number"`
	Summary       financing.Summary  `json:"summary"`
	Customer      CustomerView       `json:"customer"`
	ProductText   string             `json:"product_text"`
	Severity      financing.Severity `json:"severity"`
}

// Statistics totales del conjunto filtrado. Un conjunto vacío da todo en cero.
type Statistics struct {
	TotalOverdueInstallments int             `json:"total_overdue_installments"`
	TotalOverdueAmount       decimal.Decimal `json:"total_overdue_amount"`
	AffectedCustomers        int             `json:"affected_customers"`
	CriticalCount            int             `json:"critical_count"`
	HighCount                int             `json:"high_count"`
	AverageInstallmentValue  decimal.Decimal `json:"average_installment_value"`
	AverageOverdueCount      decimal.Decimal `json:"average_overdue_count"`
}

// Warning inconsistencia de datos detectada durante la agregación.
type Warning struct {
	FinancingID string `json:"financing_id"`
	CustomerID  string `json:"customer_id,omitempty"`
	ProductID   string `json:"product_id,omitempty"`
	Message     string `json:"message"`
}

// Result salida de Aggregate.
type Result struct {
	Items      []Item     `json:"items"`
	Statistics Statistics `json:"statistics"`
	Warnings   []Warning  `json:"warnings,omitempty"`
}

// Aggregate recorre los financiamientos en cuotas activos o atrasados, descarta los que no tienen
// cliente (con un Warning), calcula el resumen y aplica filtros y orden.
func Aggregate(s Snapshot, f Filters, now time.Time, policy financing.Policy) Result {
	table := policy.Severity
	if len(table) == 0 {
		table = financing.DefaultSeverityTable()
	}

	customers := make(map[string]*entity.Customer, len(s.Customers))
	for _, c := range s.Customers {
		if c != nil {
			customers[c.ID] = c
		}
	}
	products := make(map[string]*entity.Product, len(s.Products))
	for _, p := range s.Products {
		if p != nil {
			products[p.ID] = p
		}
	}
	paymentsBy := make(map[string][]*entity.Payment)
	for _, p := range s.Payments {
		if p != nil {
			paymentsBy[p.FinancingID] = append(paymentsBy[p.FinancingID], p)
		}
	}

	needle := textutil.Fold(f.Search)
	number, isNumber := controlnum.Normalize(f.Search)

	res := Result{Items: []Item{}}
	for _, fin := range s.Financings {
		if !inScope(fin) {
			continue
		}
		cust, ok := customers[fin.CustomerID]
		if !ok {
			res.Warnings = append(res.Warnings, Warning{
				FinancingID: fin.ID,
				CustomerID:  fin.CustomerID,
				Message:     "financiamiento sin cliente, excluido de la cobranza",
			})
			continue
		}

		sum := financing.Compute(fin, paymentsBy[fin.ID], now, policy)
		if sum.Status == entity.StatusCompleted {
			continue
		}
		text, missing := productText(fin, products)
		for _, id := range missing {
			res.Warnings = append(res.Warnings, Warning{
				FinancingID: fin.ID,
				ProductID:   id,
				Message:     "producto referenciado no existe",
			})
		}

		it := Item{
			Financing:     fin,
			FinancingID:   fin.ID,
			ControlNumber: controlnum.ForSale(fin.SaleType, fin.ControlNumber),
			Summary:       sum,
			Customer: CustomerView{
				ID:            cust.ID,
				ControlNumber: cust.ControlNumber,
				Name:          cust.Name,
				NationalID:    cust.NationalID,
				Phone:         cust.Phone,
				Address:       cust.Address,
			},
			ProductText: text,
			Severity:    table.Classify(sum.OverdueCount),
		}

		if !f.IncludeCurrent && sum.OverdueCount == 0 {
			continue
		}
		if f.Severity != "" && it.Severity.Level != f.Severity {
			continue
		}
		if needle != "" && !matches(it, needle, number, isNumber) {
			continue
		}
		res.Items = append(res.Items, it)
	}

	SortItems(res.Items, f.Sort)
	res.Statistics = ComputeStatistics(res.Items)
	return res
}

func inScope(f *entity.Financing) bool {
	if f == nil || f.SaleType != entity.SaleTypeInstallments {
		return false
	}
	return f.Status == entity.StatusActive || f.Status == entity.StatusOverdue
}

// productText "Nevera x2, Cocina". Devuelve también los ids que no se encontraron.
func productText(f *entity.Financing, products map[string]*entity.Product) (string, []string) {
	var parts, missing []string
	if len(f.Items) > 0 {
		for _, li := range f.Items {
			name := "Producto no disponible"
			if p, ok := products[li.ProductID]; ok {
				name = p.Name
			} else {
				missing = append(missing, li.ProductID)
			}
			if li.Quantity > 1 {
				name = fmt.Sprintf("%s x%d", name, li.Quantity)
			}
			parts = append(parts, name)
		}
		return strings.Join(parts, ", "), missing
	}
	if f.LegacyProductID != "" {
		if p, ok := products[f.LegacyProductID]; ok {
			return p.Name, nil
		}
		return "Producto no disponible", []string{f.LegacyProductID}
	}
	return f.Description, nil
}

func matches(it Item, needle string, number int64, isNumber bool) bool {
	if isNumber && it.Financing.ControlNumber == number {
		return true
	}
	return textutil.Contains(needle, it.Customer.Name, it.Customer.NationalID, it.Customer.Phone, it.ProductText)
}

// SortItems ordena en el lugar. Los empates se resuelven por número de control ascendente.
func SortItems(items []Item, by string) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if by != SortOverdue && a.Severity.Rank != b.Severity.Rank {
			return a.Severity.Rank > b.Severity.Rank
		}
		if a.Summary.OverdueCount != b.Summary.OverdueCount {
			return a.Summary.OverdueCount > b.Summary.OverdueCount
		}
		return a.Financing.ControlNumber < b.Financing.ControlNumber
	})
}

// ComputeStatistics totales y promedios; los promedios valen cero si no hay ítems.
func ComputeStatistics(items []Item) Statistics {
	st := Statistics{
		TotalOverdueAmount:      decimal.Zero,
		AverageInstallmentValue: decimal.Zero,
		AverageOverdueCount:     decimal.Zero,
	}
	if len(items) == 0 {
		return st
	}

	affected := make(map[string]struct{})
	installments := decimal.Zero
	for _, it := range items {
		st.TotalOverdueInstallments += it.Summary.OverdueCount
		st.TotalOverdueAmount = st.TotalOverdueAmount.Add(it.Summary.OverdueAmount)
		installments = installments.Add(it.Summary.InstallmentValue)
		if it.Summary.OverdueCount > 0 {
			affected[it.Customer.ID] = struct{}{}
		}
		switch it.Severity.Level {
		case financing.SeverityCritical:
			st.CriticalCount++
		case financing.SeverityHigh:
			st.HighCount++
		}
	}

	n := decimal.NewFromInt(int64(len(items)))
	st.AffectedCustomers = len(affected)
	st.TotalOverdueAmount = st.TotalOverdueAmount.Round(2)
	st.AverageInstallmentValue = installments.Div(n).Round(2)
	st.AverageOverdueCount = decimal.NewFromInt(int64(st.TotalOverdueInstallments)).Div(n).Round(2)
	return st
}

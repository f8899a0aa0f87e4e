package store

import (
	"strings"
	"sync"
	"time"

	"github.com/jhoicas/Financiamiento-api/internal/domain/collections"
	"github.com/jhoicas/Financiamiento-api/internal/domain/entity"
	"github.com/jhoicas/Financiamiento-api/internal/domain/financing"
	"github.com/jhoicas/Financiamiento-api/pkg/textutil"
)

// memo recuerda el último resultado y los argumentos con que se calculó.
type memo[K comparable, V any] struct {
	mu  sync.Mutex
	ok  bool
	key K
	val V
}

func (m *memo[K, V]) get(key K, compute func() V) V {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ok && m.key == key {
		return m.val
	}
	m.val = compute()
	m.key = key
	m.ok = true
	return m.val
}

type customerKey struct {
	version uint64
	search  string
}

type productKey struct {
	version  uint64
	search   string
	category string
	lowStock bool
}

type financingKey struct {
	financings, payments uint64
	status               string
	saleType             string
	now                  time.Time
}

// FinancingRow contrato con su resumen calculado al momento de la consulta.
type FinancingRow struct {
	Financing *entity.Financing
	Summary   financing.Summary
}

type collectionsKey struct {
	customers, products, financings, payments uint64
	filters                                   collections.Filters
	now                                       time.Time
}

// Customers clientes cuyo nombre, cédula o teléfono contienen search (sin acentos ni mayúsculas).
func (s *Store) Customers(search string) []*entity.Customer {
	s.mu.RLock()
	items, version := s.customers.items, s.customers.version
	s.mu.RUnlock()

	search = textutil.Fold(search)
	return s.customerSel.get(customerKey{version, search}, func() []*entity.Customer {
		out := make([]*entity.Customer, 0, len(items))
		for _, c := range items {
			if search == "" || textutil.Contains(search, c.Name, c.NationalID, c.Phone) {
				out = append(out, c)
			}
		}
		return out
	})
}

// Products productos por texto, categoría y, si lowStock, solo los que están en o bajo el mínimo.
func (s *Store) Products(search, category string, lowStock bool) []*entity.Product {
	s.mu.RLock()
	items, version := s.products.items, s.products.version
	s.mu.RUnlock()

	search = textutil.Fold(search)
	return s.productSel.get(productKey{version, search, category, lowStock}, func() []*entity.Product {
		out := make([]*entity.Product, 0, len(items))
		for _, p := range items {
			if category != "" && !strings.EqualFold(p.Category, category) {
				continue
			}
			if lowStock && !p.LowStock() {
				continue
			}
			if search != "" && !textutil.Contains(search, p.Name, p.Description, p.Category) {
				continue
			}
			out = append(out, p)
		}
		return out
	})
}

// Financings financiamientos por estado derivado y tipo de venta (vacío = todos). El estado sale de
// financing.Compute con los pagos del store, no del valor persistido, que solo se actualiza con los pagos
// y el job de estados. Se memoiza mientras no cambien contratos, pagos, filtros ni el minuto de now.
func (s *Store) Financings(status, saleType string, now time.Time) []FinancingRow {
	s.mu.RLock()
	fins, payments := s.financings.items, s.payments.items
	key := financingKey{
		financings: s.financings.version,
		payments:   s.payments.version,
		status:     status,
		saleType:   saleType,
		now:        now.Truncate(time.Minute),
	}
	s.mu.RUnlock()

	return s.financingSel.get(key, func() []FinancingRow {
		byFinancing := make(map[string][]*entity.Payment)
		for _, p := range payments {
			byFinancing[p.FinancingID] = append(byFinancing[p.FinancingID], p)
		}
		out := make([]FinancingRow, 0, len(fins))
		for _, f := range fins {
			if saleType != "" && f.SaleType != saleType {
				continue
			}
			sum := financing.Compute(f, byFinancing[f.ID], now, s.policy)
			if status != "" && sum.Status != status {
				continue
			}
			out = append(out, FinancingRow{Financing: f, Summary: sum})
		}
		return out
	})
}

// Collections vista de cobranza calculada por el agregador. El resultado se reutiliza mientras no cambien
// las colecciones, los filtros ni el minuto de now.
func (s *Store) Collections(f collections.Filters, now time.Time) collections.Result {
	s.mu.RLock()
	key := collectionsKey{
		customers:  s.customers.version,
		products:   s.products.version,
		financings: s.financings.version,
		payments:   s.payments.version,
		filters:    f,
		now:        now.Truncate(time.Minute),
	}
	s.mu.RUnlock()

	return s.collSel.get(key, func() collections.Result {
		return collections.Aggregate(s.Snapshot(), f, now, s.policy)
	})
}

// Package memory implementa los repositorios en memoria. Lo usan los tests de los casos de uso;
// respeta las mismas restricciones que el esquema SQL (unicidad de cédula y de referencia, stock >= 0).
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/jhoicas/Financiamiento-api/internal/application/ports"
	"github.com/jhoicas/Financiamiento-api/internal/domain"
	"github.com/jhoicas/Financiamiento-api/internal/domain/entity"
	"github.com/jhoicas/Financiamiento-api/internal/domain/repository"
)

// DB estado compartido por todos los repositorios.
type DB struct {
	txMu sync.Mutex
	mu   sync.Mutex

	customers  map[string]entity.Customer
	products   map[string]entity.Product
	financings map[string]entity.Financing
	payments   map[string]entity.Payment
	users      map[string]entity.User
	counters   map[string]int64

	// FailNext, si no es nil, se devuelve en la próxima escritura (para simular fallas a mitad de transacción).
	// FailAfter deja pasar esa cantidad de escrituras antes de fallar.
	FailNext  error
	FailAfter int
}

// New crea una base vacía.
func New() *DB {
	return &DB{
		customers:  map[string]entity.Customer{},
		products:   map[string]entity.Product{},
		financings: map[string]entity.Financing{},
		payments:   map[string]entity.Payment{},
		users:      map[string]entity.User{},
		counters:   map[string]int64{},
	}
}

// Repos devuelve los repositorios fuera de transacción.
func (db *DB) Repos() ports.Repos {
	return ports.Repos{
		Customers:  &CustomerRepo{db: db},
		Products:   &ProductRepo{db: db},
		Financings: &FinancingRepo{db: db},
		Payments:   &PaymentRepo{db: db},
		Counters:   &CounterRepo{db: db},
	}
}

// Users repositorio de usuarios.
func (db *DB) Users() repository.UserRepository { return &UserRepo{db: db} }

// Run ejecuta fn serializado; si fn falla, el estado vuelve a como estaba antes.
func (db *DB) Run(ctx context.Context, fn func(r ports.Repos) error) error {
	db.txMu.Lock()
	defer db.txMu.Unlock()

	snap := db.snapshot()
	if err := fn(db.Repos()); err != nil {
		db.restore(snap)
		return err
	}
	return nil
}

var _ ports.TxRunner = (*DB)(nil)

type state struct {
	customers  map[string]entity.Customer
	products   map[string]entity.Product
	financings map[string]entity.Financing
	payments   map[string]entity.Payment
	counters   map[string]int64
}

func (db *DB) snapshot() state {
	db.mu.Lock()
	defer db.mu.Unlock()
	return state{
		customers:  copyMap(db.customers),
		products:   copyMap(db.products),
		financings: copyMap(db.financings),
		payments:   copyMap(db.payments),
		counters:   copyMap(db.counters),
	}
}

func (db *DB) restore(s state) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.customers, db.products, db.financings, db.payments, db.counters =
		s.customers, s.products, s.financings, s.payments, s.counters
}

// failure consume FailNext. Debe llamarse con mu tomado.
func (db *DB) failure() error {
	if db.FailNext != nil && db.FailAfter > 0 {
		db.FailAfter--
		return nil
	}
	err := db.FailNext
	db.FailNext = nil
	return err
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// CustomerRepo implementa repository.CustomerRepository.
type CustomerRepo struct{ db *DB }

func (r *CustomerRepo) Create(_ context.Context, c *entity.Customer) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.failure(); err != nil {
		return err
	}
	for _, other := range r.db.customers {
		if other.NationalID == c.NationalID {
			return domain.ErrDuplicateNationalID
		}
	}
	r.db.customers[c.ID] = *c
	return nil
}

func (r *CustomerRepo) GetByID(_ context.Context, id string) (*entity.Customer, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.customers[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *CustomerRepo) GetByNationalID(_ context.Context, nationalID string) (*entity.Customer, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, c := range r.db.customers {
		if c.NationalID == nationalID {
			c := c
			return &c, nil
		}
	}
	return nil, nil
}

func (r *CustomerRepo) List(_ context.Context) ([]*entity.Customer, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]*entity.Customer, 0, len(r.db.customers))
	for _, c := range r.db.customers {
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ControlNumber < out[j].ControlNumber })
	return out, nil
}

func (r *CustomerRepo) Update(_ context.Context, c *entity.Customer) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.failure(); err != nil {
		return err
	}
	if _, ok := r.db.customers[c.ID]; !ok {
		return domain.ErrNotFound
	}
	for id, other := range r.db.customers {
		if id != c.ID && other.NationalID == c.NationalID {
			return domain.ErrDuplicateNationalID
		}
	}
	r.db.customers[c.ID] = *c
	return nil
}

// ProductRepo implementa repository.ProductRepository.
type ProductRepo struct{ db *DB }

func (r *ProductRepo) Create(_ context.Context, p *entity.Product) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.failure(); err != nil {
		return err
	}
	r.db.products[p.ID] = *p
	return nil
}

func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *ProductRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.GetByID(ctx, id)
}

func (r *ProductRepo) Update(_ context.Context, p *entity.Product) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.failure(); err != nil {
		return err
	}
	cur, ok := r.db.products[p.ID]
	if !ok {
		return domain.ErrNotFound
	}
	next := *p
	next.Stock = cur.Stock
	r.db.products[p.ID] = next
	return nil
}

func (r *ProductRepo) UpdateStock(_ context.Context, id string, stock int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.failure(); err != nil {
		return err
	}
	p, ok := r.db.products[id]
	if !ok {
		return domain.ErrNotFound
	}
	if stock < 0 {
		return domain.ErrInsufficientStock
	}
	p.Stock = stock
	r.db.products[id] = p
	return nil
}

func (r *ProductRepo) List(_ context.Context) ([]*entity.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]*entity.Product, 0, len(r.db.products))
	for _, p := range r.db.products {
		p := p
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// FinancingRepo implementa repository.FinancingRepository.
type FinancingRepo struct{ db *DB }

func (r *FinancingRepo) Create(_ context.Context, f *entity.Financing) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.failure(); err != nil {
		return err
	}
	cp := *f
	cp.Items = append([]entity.LineItem(nil), f.Items...)
	r.db.financings[f.ID] = cp
	return nil
}

func (r *FinancingRepo) GetByID(_ context.Context, id string) (*entity.Financing, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	f, ok := r.db.financings[id]
	if !ok {
		return nil, nil
	}
	f.Items = append([]entity.LineItem(nil), f.Items...)
	return &f, nil
}

func (r *FinancingRepo) GetByControlNumber(_ context.Context, n int64) (*entity.Financing, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, f := range r.db.financings {
		if f.ControlNumber == n {
			f := f
			f.Items = append([]entity.LineItem(nil), f.Items...)
			return &f, nil
		}
	}
	return nil, nil
}

func (r *FinancingRepo) List(_ context.Context) ([]*entity.Financing, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]*entity.Financing, 0, len(r.db.financings))
	for _, f := range r.db.financings {
		f := f
		f.Items = append([]entity.LineItem(nil), f.Items...)
		out = append(out, &f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ControlNumber < out[j].ControlNumber })
	return out, nil
}

func (r *FinancingRepo) UpdateStatus(_ context.Context, id, status string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.failure(); err != nil {
		return err
	}
	f, ok := r.db.financings[id]
	if !ok {
		return domain.ErrNotFound
	}
	f.Status = status
	r.db.financings[id] = f
	return nil
}

// PaymentRepo implementa repository.PaymentRepository.
type PaymentRepo struct{ db *DB }

func (r *PaymentRepo) Create(_ context.Context, p *entity.Payment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.failure(); err != nil {
		return err
	}
	if p.RequiresUniqueReference() {
		for _, other := range r.db.payments {
			if other.RequiresUniqueReference() && strings.EqualFold(other.Reference, p.Reference) {
				return domain.ErrDuplicateReceipt
			}
		}
	}
	r.db.payments[p.ID] = *p
	return nil
}

func (r *PaymentRepo) ListByFinancing(_ context.Context, financingID string) ([]*entity.Payment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*entity.Payment
	for _, p := range r.db.payments {
		if p.FinancingID == financingID {
			p := p
			out = append(out, &p)
		}
	}
	sortPayments(out)
	return out, nil
}

func (r *PaymentRepo) List(_ context.Context) ([]*entity.Payment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]*entity.Payment, 0, len(r.db.payments))
	for _, p := range r.db.payments {
		p := p
		out = append(out, &p)
	}
	sortPayments(out)
	return out, nil
}

func (r *PaymentRepo) ExistsByReference(_ context.Context, reference string) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, p := range r.db.payments {
		if p.RequiresUniqueReference() && strings.EqualFold(p.Reference, reference) {
			return true, nil
		}
	}
	return false, nil
}

func sortPayments(ps []*entity.Payment) {
	sort.Slice(ps, func(i, j int) bool {
		if !ps[i].Date.Equal(ps[j].Date) {
			return ps[i].Date.Before(ps[j].Date)
		}
		return ps[i].ID < ps[j].ID
	})
}

// CounterRepo implementa repository.CounterRepository.
type CounterRepo struct{ db *DB }

func (r *CounterRepo) Next(_ context.Context, name string) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.failure(); err != nil {
		return 0, err
	}
	r.db.counters[name]++
	return r.db.counters[name], nil
}

// UserRepo implementa repository.UserRepository.
type UserRepo struct{ db *DB }

func (r *UserRepo) Create(_ context.Context, u *entity.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, other := range r.db.users {
		if strings.EqualFold(other.Email, u.Email) {
			return domain.ErrEmailAlreadyExists
		}
	}
	r.db.users[u.ID] = *u
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if strings.EqualFold(u.Email, email) {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

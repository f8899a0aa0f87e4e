// Package store mantiene en memoria una proyección de solo lectura de clientes, productos, financiamientos
// y pagos. Cada colección se reemplaza completa cuando la base avisa un cambio; nunca se parchea.
// Las escrituras van por los casos de uso y llegan aquí a través del ChangeFeed.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Financiamiento-api/internal/application/dto"
	"github.com/jhoicas/Financiamiento-api/internal/domain/collections"
	"github.com/jhoicas/Financiamiento-api/internal/domain/entity"
	"github.com/jhoicas/Financiamiento-api/internal/domain/financing"
)

// DefaultLoadTimeout espera máxima de la carga inicial.
const DefaultLoadTimeout = 10 * time.Second

// ErrLoadTimeout la colección no llegó dentro de la espera de carga.
var ErrLoadTimeout = errors.New("tiempo de espera agotado")

const (
	retryMin = time.Second
	retryMax = 30 * time.Second
)

type collection[T any] struct {
	items   []T
	loading bool
	err     string
	version uint64
}

func (c *collection[T]) status(name string) dto.CollectionStatus {
	return dto.CollectionStatus{Name: name, Count: len(c.items), Loading: c.loading, Error: c.err, Version: c.version}
}

// Store proyección en memoria. Es seguro para uso concurrente.
type Store struct {
	src     Source
	feed    ChangeFeed
	policy  financing.Policy
	timeout time.Duration
	log     zerolog.Logger

	mu         sync.RWMutex
	customers  collection[*entity.Customer]
	products   collection[*entity.Product]
	financings collection[*entity.Financing]
	payments   collection[*entity.Payment]

	customerSel  memo[customerKey, []*entity.Customer]
	productSel   memo[productKey, []*entity.Product]
	financingSel memo[financingKey, []FinancingRow]
	collSel      memo[collectionsKey, collections.Result]
}

// New construye el store. feed puede ser nil (sin recarga automática); timeout <= 0 usa DefaultLoadTimeout.
func New(src Source, feed ChangeFeed, policy financing.Policy, timeout time.Duration, log zerolog.Logger) *Store {
	if timeout <= 0 {
		timeout = DefaultLoadTimeout
	}
	return &Store{
		src:     src,
		feed:    feed,
		policy:  policy,
		timeout: timeout,
		log:     log.With().Str("component", "store").Logger(),
	}
}

// Start carga todas las colecciones en paralelo con una espera acotada y, si hay feed, empieza a escuchar
// cambios en segundo plano hasta que ctx termine. Una colección que falla o no llega a tiempo queda
// vacía con su error; Start no falla por eso.
func (s *Store) Start(ctx context.Context) {
	s.mu.Lock()
	s.customers.loading, s.products.loading, s.financings.loading, s.payments.loading = true, true, true, true
	s.mu.Unlock()

	loadCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var wg sync.WaitGroup
	for _, name := range Names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			if err := s.fetch(loadCtx, name); err != nil {
				if loadCtx.Err() != nil {
					err = ErrLoadTimeout
				}
				s.fail(name, err)
			}
		}(name)
	}
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-loadCtx.Done():
		s.timeoutPending()
	}

	if s.feed != nil {
		go s.watch(ctx)
	}
}

// Reload vuelve a leer la colección name y la reemplaza completa. Si la lectura falla se conservan los
// ítems anteriores y se registra el error.
func (s *Store) Reload(ctx context.Context, name string) error {
	if err := s.fetch(ctx, name); err != nil {
		s.fail(name, err)
		return err
	}
	s.log.Debug().Str("collection", name).Msg("colección recargada")
	return nil
}

func (s *Store) fetch(ctx context.Context, name string) error {
	var err error
	switch name {
	case Customers:
		var items []*entity.Customer
		if items, err = s.src.Customers(ctx); err == nil {
			s.mu.Lock()
			replace(&s.customers, items)
			s.mu.Unlock()
		}
	case Products:
		var items []*entity.Product
		if items, err = s.src.Products(ctx); err == nil {
			s.mu.Lock()
			replace(&s.products, items)
			s.mu.Unlock()
		}
	case Financings:
		var items []*entity.Financing
		if items, err = s.src.Financings(ctx); err == nil {
			s.mu.Lock()
			replace(&s.financings, items)
			s.mu.Unlock()
		}
	case Payments:
		var items []*entity.Payment
		if items, err = s.src.Payments(ctx); err == nil {
			s.mu.Lock()
			replace(&s.payments, items)
			s.mu.Unlock()
		}
	default:
		return fmt.Errorf("store: colección desconocida %q", name)
	}
	return err
}

// ReloadAll recarga todas las colecciones; devuelve el primer error.
func (s *Store) ReloadAll(ctx context.Context) error {
	var first error
	for _, name := range Names {
		if err := s.Reload(ctx, name); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func replace[T any](c *collection[T], items []T) {
	c.items = items
	c.loading = false
	c.err = ""
	c.version++
}

func (s *Store) fail(name string, err error) {
	s.log.Warn().Err(err).Str("collection", name).Msg("no se pudo cargar la colección")
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := err.Error()
	switch name {
	case Customers:
		s.customers.loading, s.customers.err = false, msg
	case Products:
		s.products.loading, s.products.err = false, msg
	case Financings:
		s.financings.loading, s.financings.err = false, msg
	case Payments:
		s.payments.loading, s.payments.err = false, msg
	}
}

// timeoutPending marca con ErrLoadTimeout las colecciones que siguen cargando.
func (s *Store) timeoutPending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := ErrLoadTimeout.Error()
	for _, c := range []struct {
		loading *bool
		err     *string
	}{
		{&s.customers.loading, &s.customers.err},
		{&s.products.loading, &s.products.err},
		{&s.financings.loading, &s.financings.err},
		{&s.payments.loading, &s.payments.err},
	} {
		if *c.loading {
			*c.loading, *c.err = false, msg
		}
	}
}

// watch mantiene la suscripción al feed. Tras una reconexión recarga todo porque pudo perder avisos.
func (s *Store) watch(ctx context.Context) {
	backoff := retryMin
	for {
		err := s.feed.Listen(ctx, func(name string) {
			if err := s.Reload(ctx, name); err != nil && ctx.Err() == nil {
				s.log.Error().Err(err).Str("collection", name).Msg("recarga tras aviso fallida")
			}
		})
		if ctx.Err() != nil {
			return
		}
		s.log.Warn().Err(err).Dur("retry_in", backoff).Msg("feed de cambios desconectado")
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > retryMax {
			backoff = retryMax
		}
		if err := s.ReloadAll(ctx); err == nil {
			backoff = retryMin
		}
	}
}

// Status estado de cada colección.
func (s *Store) Status() dto.StoreStatusResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return dto.StoreStatusResponse{Collections: []dto.CollectionStatus{
		s.customers.status(Customers),
		s.products.status(Products),
		s.financings.status(Financings),
		s.payments.status(Payments),
	}}
}

// Errors colecciones degradadas y su error; nil si no hay ninguna.
func (s *Store) Errors() map[string]string {
	var out map[string]string
	for _, st := range s.Status().Collections {
		if st.Error == "" {
			continue
		}
		if out == nil {
			out = make(map[string]string)
		}
		out[st.Name] = st.Error
	}
	return out
}

// Snapshot vista coherente de las cuatro colecciones. Los slices son compartidos: solo lectura.
func (s *Store) Snapshot() collections.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return collections.Snapshot{
		Customers:  s.customers.items,
		Products:   s.products.items,
		Financings: s.financings.items,
		Payments:   s.payments.items,
	}
}

// Policy política con la que se calcula la vista de cobranza.
func (s *Store) Policy() financing.Policy { return s.policy }

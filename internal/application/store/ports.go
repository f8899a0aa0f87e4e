package store

import (
	"context"

	"github.com/jhoicas/Financiamiento-api/internal/application/ports"
	"github.com/jhoicas/Financiamiento-api/internal/domain/entity"
)

// Nombres de las colecciones. Coinciden con los nombres de tabla que publican los triggers de NOTIFY.
const (
	Customers  = "clientes"
	Products   = "productos"
	Financings = "financiamientos"
	Payments   = "pagos"
)

// Names colecciones en el orden en que se reportan.
var Names = []string{Customers, Products, Financings, Payments}

// Source lista colecciones completas.
type Source interface {
	Customers(ctx context.Context) ([]*entity.Customer, error)
	Products(ctx context.Context) ([]*entity.Product, error)
	Financings(ctx context.Context) ([]*entity.Financing, error)
	Payments(ctx context.Context) ([]*entity.Payment, error)
}

// ChangeFeed avisa qué colección cambió. Listen bloquea hasta que ctx termina o se pierde la conexión;
// en el segundo caso devuelve el error y el store vuelve a suscribirse.
type ChangeFeed interface {
	Listen(ctx context.Context, notify func(collection string)) error
}

// RepoSource adapta los repositorios como Source.
type RepoSource struct {
	Repos ports.Repos
}

func (s RepoSource) Customers(ctx context.Context) ([]*entity.Customer, error) {
	return s.Repos.Customers.List(ctx)
}

func (s RepoSource) Products(ctx context.Context) ([]*entity.Product, error) {
	return s.Repos.Products.List(ctx)
}

func (s RepoSource) Financings(ctx context.Context) ([]*entity.Financing, error) {
	return s.Repos.Financings.List(ctx)
}

func (s RepoSource) Payments(ctx context.Context) ([]*entity.Payment, error) {
	return s.Repos.Payments.List(ctx)
}

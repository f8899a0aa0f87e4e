// Package ports define los puertos de salida de la capa de aplicación. Los adaptadores
// (postgres, redis, twilio, maroto) viven en infrastructure; los casos de uso solo conocen estos contratos.
package ports

import (
	"context"
	"errors"
	"io"

	"github.com/jhoicas/Financiamiento-api/internal/domain/repository"
)

// Repos repositorios atados a una misma transacción.
type Repos struct {
	Customers  repository.CustomerRepository
	Products   repository.ProductRepository
	Financings repository.FinancingRepository
	Payments   repository.PaymentRepository
	Counters   repository.CounterRepository
}

// TxRunner ejecuta fn dentro de una transacción: Commit si fn devuelve nil, Rollback en otro caso.
type TxRunner interface {
	Run(ctx context.Context, fn func(r Repos) error) error
}

// ErrLocked la clave ya está tomada por otra operación en curso.
var ErrLocked = errors.New("operación en curso para el mismo recurso")

// Locker lock distribuido de corta duración para serializar verificaciones de unicidad
// (cédula, referencia de comprobante). El índice único de la DB sigue siendo la garantía final.
type Locker interface {
	// Acquire toma key o devuelve ErrLocked. release es idempotente.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// WhatsAppSender envía un mensaje de WhatsApp a un número internacional (solo dígitos).
type WhatsAppSender interface {
	Send(ctx context.Context, to, body string) error
}

// PDFRenderer genera los documentos imprimibles.
type PDFRenderer interface {
	CustomerList(w io.Writer, doc CustomerListDoc) error
	MorosoReport(w io.Writer, doc MorosoReportDoc) error
	PaymentPlan(w io.Writer, doc PaymentPlanDoc) error
}

// NoopLocker no serializa nada; la unicidad queda a cargo de los índices únicos.
type NoopLocker struct{}

func (NoopLocker) Acquire(context.Context, string) (func(), error) { return func() {}, nil }

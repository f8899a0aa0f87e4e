package analytics

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Financiamiento-api/internal/application/dto"
	"github.com/jhoicas/Financiamiento-api/internal/application/ports"
	"github.com/jhoicas/Financiamiento-api/internal/domain"
	"github.com/jhoicas/Financiamiento-api/internal/domain/collections"
	"github.com/jhoicas/Financiamiento-api/internal/domain/financing"
)

// reminderWorkers envíos de WhatsApp simultáneos.
const reminderWorkers = 4

// ErrSenderDisabled no hay proveedor de WhatsApp configurado.
var ErrSenderDisabled = errors.New("envío de WhatsApp no configurado")

// StatsObserver recibe las estadísticas de cada cálculo de la vista (métricas).
type StatsObserver interface {
	ObserveCollections(stats collections.Statistics, warnings int)
}

// CollectionsConfig parámetros de cobranza.
type CollectionsConfig struct {
	MorosoThreshold int
	CountryCode     string
}

// CollectionsUseCase vista de cobranza, reporte de morosos y recordatorios.
type CollectionsUseCase struct {
	view     View
	policy   financing.Policy
	cfg      CollectionsConfig
	sender   ports.WhatsAppSender
	observer StatsObserver
	log      zerolog.Logger
	now      func() time.Time
}

// NewCollectionsUseCase construye el caso de uso. sender puede ser nil: SendReminders devuelve ErrSenderDisabled.
func NewCollectionsUseCase(view View, policy financing.Policy, cfg CollectionsConfig, sender ports.WhatsAppSender, log zerolog.Logger) *CollectionsUseCase {
	if cfg.MorosoThreshold <= 0 {
		cfg.MorosoThreshold = collections.DefaultMorosoThreshold
	}
	return &CollectionsUseCase{
		view:   view,
		policy: policy,
		cfg:    cfg,
		sender: sender,
		log:    log.With().Str("component", "collections").Logger(),
		now:    time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (uc *CollectionsUseCase) WithClock(now func() time.Time) *CollectionsUseCase {
	uc.now = now
	return uc
}

// WithObserver registra un observador de estadísticas.
func (uc *CollectionsUseCase) WithObserver(o StatsObserver) *CollectionsUseCase {
	uc.observer = o
	return uc
}

// List vista de cobranza filtrada y ordenada. Las inconsistencias de datos se registran en el log
// y se informan como conteo; las colecciones degradadas del store se devuelven en StoreErrors.
func (uc *CollectionsUseCase) List(ctx context.Context, q dto.CollectionsQuery) (*dto.CollectionsResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f := q.Filters()
	if f.Severity != "" && f.Severity != financing.SeverityNone && uc.severityTable().Rank(f.Severity) == 0 {
		return nil, domain.NewValidationError("severidad", domain.ErrInvalidInput, "severidad desconocida")
	}

	res := uc.view.Collections(f, uc.now())
	uc.logWarnings(res.Warnings)
	if uc.observer != nil && q == (dto.CollectionsQuery{}) {
		uc.observer.ObserveCollections(res.Statistics, len(res.Warnings))
	}
	return &dto.CollectionsResponse{
		Items:       res.Items,
		Statistics:  res.Statistics,
		Warnings:    len(res.Warnings),
		StoreErrors: uc.view.Errors(),
	}, nil
}

// Report reporte de morosos en dos niveles. threshold <= 0 usa el umbral configurado.
func (uc *CollectionsUseCase) Report(ctx context.Context, threshold int) (*collections.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if threshold <= 0 {
		threshold = uc.cfg.MorosoThreshold
	}
	res := uc.view.Collections(collections.Filters{Sort: collections.SortPriority}, uc.now())
	uc.logWarnings(res.Warnings)
	rep := collections.MorosoReport(res, threshold, uc.severityTable())
	return &rep, nil
}

// WhatsApp enlace de recordatorio para un financiamiento abierto.
func (uc *CollectionsUseCase) WhatsApp(ctx context.Context, financingID string) (*dto.WhatsAppLinkResponse, error) {
	it, err := uc.find(ctx, financingID)
	if err != nil {
		return nil, err
	}
	msg := collections.ReminderMessage(it)
	link, err := collections.WhatsAppLink(it.Customer.Phone, uc.cfg.CountryCode, msg)
	if errors.Is(err, collections.ErrNoPhone) {
		return nil, domain.NewValidationError("phone", domain.ErrInvalidInput, "el cliente no tiene un teléfono válido")
	}
	if err != nil {
		return nil, err
	}
	phone, _ := collections.InternationalPhone(it.Customer.Phone, uc.cfg.CountryCode)
	return &dto.WhatsAppLinkResponse{
		FinancingID: it.FinancingID,
		Phone:       phone,
		Message:     msg,
		Link:        link,
	}, nil
}

// SendReminders envía un recordatorio por WhatsApp a cada cliente del reporte de morosos.
// Los clientes sin teléfono se omiten; un envío fallido no detiene los demás.
func (uc *CollectionsUseCase) SendReminders(ctx context.Context) (*dto.ReminderRunResponse, error) {
	if uc.sender == nil {
		return nil, ErrSenderDisabled
	}
	rep, err := uc.Report(ctx, 0)
	if err != nil {
		return nil, err
	}
	items := append(append([]collections.Item{}, rep.Critical.Items...), rep.Moroso.Items...)

	var (
		mu  sync.Mutex
		out dto.ReminderRunResponse
		wg  sync.WaitGroup
		sem = make(chan struct{}, reminderWorkers)
	)
	count := func(field *int) {
		mu.Lock()
		*field++
		mu.Unlock()
	}

	for _, it := range items {
		phone, err := collections.InternationalPhone(it.Customer.Phone, uc.cfg.CountryCode)
		if err != nil {
			count(&out.Skipped)
			continue
		}
		select {
		case <-ctx.Done():
			wg.Wait()
			return &out, ctx.Err()
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(it collections.Item, phone string) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := uc.sender.Send(ctx, phone, collections.ReminderMessage(it)); err != nil {
				uc.log.Error().Err(err).Str("financing_id", it.FinancingID).Msg("recordatorio no enviado")
				count(&out.Failed)
				return
			}
			count(&out.Sent)
		}(it, phone)
	}
	wg.Wait()

	uc.log.Info().
		Int("sent", out.Sent).
		Int("failed", out.Failed).
		Int("skipped", out.Skipped).
		Msg("recordatorios de cobranza enviados")
	return &out, nil
}

func (uc *CollectionsUseCase) find(ctx context.Context, financingID string) (collections.Item, error) {
	if err := ctx.Err(); err != nil {
		return collections.Item{}, err
	}
	res := uc.view.Collections(collections.Filters{IncludeCurrent: true}, uc.now())
	for _, it := range res.Items {
		if it.FinancingID == financingID {
			return it, nil
		}
	}
	return collections.Item{}, fmt.Errorf("%w: financiamiento sin cobranza abierta", domain.ErrNotFound)
}

func (uc *CollectionsUseCase) severityTable() financing.SeverityTable {
	if len(uc.policy.Severity) == 0 {
		return financing.DefaultSeverityTable()
	}
	return uc.policy.Severity
}

func (uc *CollectionsUseCase) logWarnings(ws []collections.Warning) {
	for _, w := range ws {
		uc.log.Warn().
			Str("financing_id", w.FinancingID).
			Str("customer_id", w.CustomerID).
			Str("product_id", w.ProductID).
			Msg(w.Message)
	}
}

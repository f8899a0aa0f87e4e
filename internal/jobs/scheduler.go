// Package jobs programa las tareas periódicas: re-derivar el estado de los financiamientos
// y enviar recordatorios de cobranza por WhatsApp.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Financiamiento-api/internal/application/dto"
)

// Nombres de los jobs (etiqueta de métricas y logs).
const (
	JobStatusRefresh = "status_refresh"
	JobReminders     = "reminders"
)

// runTimeout tope de duración de una ejecución.
const runTimeout = 5 * time.Minute

// StatusRefresher re-deriva y persiste el estado de los financiamientos.
type StatusRefresher interface {
	RefreshStatuses(ctx context.Context) (*dto.RefreshStatusResponse, error)
}

// ReminderSender envía los recordatorios de cobranza.
type ReminderSender interface {
	SendReminders(ctx context.Context) (*dto.ReminderRunResponse, error)
}

// Config expresiones cron. Vacío desactiva el job.
type Config struct {
	StatusRefresh string
	Reminders     string
}

// Scheduler envuelve un cron con las tareas de la aplicación.
type Scheduler struct {
	cron      *cron.Cron
	refresher StatusRefresher
	reminders ReminderSender
	metrics   *Metrics
	log       zerolog.Logger
}

// New registra los jobs configurados. reminders puede ser nil (Twilio no configurado).
// registerer puede ser nil: sin métricas.
func New(cfg Config, refresher StatusRefresher, reminders ReminderSender, registerer prometheus.Registerer, log zerolog.Logger) (*Scheduler, error) {
	log = log.With().Str("component", "jobs").Logger()
	s := &Scheduler{
		refresher: refresher,
		reminders: reminders,
		log:       log,
	}
	if registerer != nil {
		s.metrics = NewMetrics(registerer)
	}
	cl := cronLogger{log: log}
	s.cron = cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))

	if cfg.StatusRefresh != "" && refresher != nil {
		if _, err := s.cron.AddFunc(cfg.StatusRefresh, func() { _ = s.RunStatusRefresh(context.Background()) }); err != nil {
			return nil, fmt.Errorf("jobs: %s %q: %w", JobStatusRefresh, cfg.StatusRefresh, err)
		}
	}
	if cfg.Reminders != "" && reminders != nil {
		if _, err := s.cron.AddFunc(cfg.Reminders, func() { _ = s.RunReminders(context.Background()) }); err != nil {
			return nil, fmt.Errorf("jobs: %s %q: %w", JobReminders, cfg.Reminders, err)
		}
	}
	return s, nil
}

// Jobs cantidad de jobs programados.
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

// Start arranca el cron en su propia goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Int("jobs", s.Jobs()).Msg("scheduler iniciado")
}

// Stop detiene el cron y espera a que terminen las ejecuciones en curso o a que ctx expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunStatusRefresh ejecuta una vez la re-derivación de estados.
func (s *Scheduler) RunStatusRefresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()
	t := s.metrics.Track(JobStatusRefresh)
	out, err := s.refresher.RefreshStatuses(ctx)
	if err != nil {
		s.log.Error().Err(err).Str("job", JobStatusRefresh).Msg("job fallido")
		return t.End(err)
	}
	s.log.Info().Str("job", JobStatusRefresh).Int("checked", out.Checked).Int("updated", out.Updated).Msg("estados actualizados")
	return t.End(nil)
}

// RunReminders ejecuta una vez el envío de recordatorios.
func (s *Scheduler) RunReminders(ctx context.Context) error {
	if s.reminders == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()
	t := s.metrics.Track(JobReminders)
	out, err := s.reminders.SendReminders(ctx)
	if err != nil {
		s.log.Error().Err(err).Str("job", JobReminders).Msg("job fallido")
		return t.End(err)
	}
	s.log.Info().Str("job", JobReminders).Int("sent", out.Sent).Int("failed", out.Failed).Int("skipped", out.Skipped).Msg("recordatorios enviados")
	return t.End(nil)
}

// cronLogger adapta zerolog a cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}

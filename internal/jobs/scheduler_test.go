package jobs_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Financiamiento-api/internal/application/dto"
	"github.com/jhoicas/Financiamiento-api/internal/jobs"
)

type fakeRefresher struct {
	calls int
	err   error
}

func (f *fakeRefresher) RefreshStatuses(ctx context.Context) (*dto.RefreshStatusResponse, error) {
	f.calls++
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("sin deadline")
	}
	if f.err != nil {
		return nil, f.err
	}
	return &dto.RefreshStatusResponse{Checked: 3, Updated: 1}, nil
}

type fakeReminders struct{ calls int }

func (f *fakeReminders) SendReminders(context.Context) (*dto.ReminderRunResponse, error) {
	f.calls++
	return &dto.ReminderRunResponse{Sent: 2, Skipped: 1}, nil
}

func TestNew_RegistersConfiguredJobs(t *testing.T) {
	s, err := jobs.New(jobs.Config{StatusRefresh: "@hourly", Reminders: "0 9 * * *"},
		&fakeRefresher{}, &fakeReminders{}, nil, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 2, s.Jobs())
}

func TestNew_SkipsRemindersWithoutSender(t *testing.T) {
	s, err := jobs.New(jobs.Config{StatusRefresh: "@hourly", Reminders: "0 9 * * *"},
		&fakeRefresher{}, nil, nil, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 1, s.Jobs())
	assert.NoError(t, s.RunReminders(context.Background()))
}

func TestNew_InvalidSpec(t *testing.T) {
	_, err := jobs.New(jobs.Config{StatusRefresh: "cada hora"}, &fakeRefresher{}, nil, nil, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), jobs.JobStatusRefresh)
}

func TestRun_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	ref := &fakeRefresher{}
	rem := &fakeReminders{}
	s, err := jobs.New(jobs.Config{}, ref, rem, reg, zerolog.Nop())
	require.NoError(t, err)
	assert.Zero(t, s.Jobs())

	require.NoError(t, s.RunStatusRefresh(context.Background()))
	require.NoError(t, s.RunReminders(context.Background()))

	ref.err = errors.New("db caída")
	assert.Error(t, s.RunStatusRefresh(context.Background()))

	assert.Equal(t, 2, ref.calls)
	assert.Equal(t, 1, rem.calls)

	n, err := testutil.GatherAndCount(reg, "fin_job_runs_total")
	require.NoError(t, err)
	assert.Equal(t, 3, n, "success/failure de status_refresh y success de reminders")
}

func TestStartStop(t *testing.T) {
	s, err := jobs.New(jobs.Config{StatusRefresh: "@hourly"}, &fakeRefresher{}, nil, nil, zerolog.Nop())
	require.NoError(t, err)
	s.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}

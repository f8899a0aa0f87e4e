package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Financiamiento-api/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "canonical", cfg.Finance.Policy)
	assert.Equal(t, 2, cfg.Finance.MorosoThreshold)
	assert.Equal(t, 10*time.Second, cfg.Store.LoadTimeout)
	assert.Equal(t, "fin_cambios", cfg.Store.Channel)
	assert.Equal(t, "0 9 * * *", cfg.Cron.Reminders)
	assert.False(t, cfg.WhatsApp.Enabled())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("FIN_POLICY", "legacy")
	t.Setenv("FIN_MAX_DAYS_OVERDUE", "90")
	t.Setenv("STORE_LOAD_TIMEOUT", "3")
	t.Setenv("REDIS_LOCK_TTL", "750ms")
	t.Setenv("HTTP_PORT", "9090")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "legacy", cfg.Finance.Policy)
	assert.Equal(t, 90, cfg.Finance.MaxDaysOverdue)
	assert.Equal(t, 3*time.Second, cfg.Store.LoadTimeout)
	assert.Equal(t, 750*time.Millisecond, cfg.Redis.LockTTL)
	assert.Equal(t, "0.0.0.0:9090", cfg.HTTP.Addr())
}

func TestLoad_RejectsUnknownPolicy(t *testing.T) {
	t.Setenv("FIN_POLICY", "mensual")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestDBConfig_DSNEscapesPassword(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss/word", DBName: "fin", SSLMode: "disable"}

	assert.Equal(t, "postgres://app:p%40ss%2Fword@db:5432/fin?sslmode=disable", c.DSN())
	assert.Equal(t, c.DSN(), c.ConnectionString())
}

package bootstrap

import (
	"fmt"

	"github.com/jhoicas/Financiamiento-api/internal/domain/financing"
	"github.com/jhoicas/Financiamiento-api/pkg/config"
)

// PolicyFromConfig parte de la política nombrada (canonical | legacy) y aplica los overrides FIN_*.
// Los topes en -1 conservan el valor de la política.
func PolicyFromConfig(cfg config.FinanceConfig) (financing.Policy, error) {
	p := financing.PolicyByName(cfg.Policy)
	if cfg.MaxExpectedInstallments >= 0 {
		p.MaxExpectedInstallments = cfg.MaxExpectedInstallments
	}
	if cfg.MaxDaysOverdue >= 0 {
		p.MaxDaysOverdue = cfg.MaxDaysOverdue
	}
	p.CountAbonos = cfg.CountAbonos

	table := financing.SeverityTable{
		{Level: financing.SeverityLow, Min: cfg.SeverityLow},
		{Level: financing.SeverityMedium, Min: cfg.SeverityMedium},
		{Level: financing.SeverityHigh, Min: cfg.SeverityHigh},
		{Level: financing.SeverityCritical, Min: cfg.SeverityCritical},
	}
	if err := table.Validate(); err != nil {
		return financing.Policy{}, fmt.Errorf("FIN_SEVERITY_*: %w", err)
	}
	p.Severity = table
	return p, nil
}

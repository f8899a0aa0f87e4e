package financing

import (
	"errors"
	"fmt"
)

// Niveles de severidad de la cobranza.
const (
	SeverityNone     = "al_dia"
	SeverityLow      = "baja"
	SeverityMedium   = "media"
	SeverityHigh     = "alta"
	SeverityCritical = "critica"
)

// Band nivel que aplica desde Min cuotas vencidas (inclusive).
type Band struct {
	Level string `json:"level"`
	Min   int    `json:"min"`
}

// SeverityTable bandas ordenadas por Min ascendente. El motor expone el conteo numérico;
// la tabla es una capa configurable encima.
type SeverityTable []Band

// Severity resultado de clasificar un conteo de cuotas vencidas. Rank 0 = al día.
type Severity struct {
	Level string `json:"level"`
	Rank  int    `json:"rank"`
}

// DefaultSeverityTable baja: 1, media: 2, alta: 3-4, crítica: 5+.
func DefaultSeverityTable() SeverityTable {
	return SeverityTable{
		{Level: SeverityLow, Min: 1},
		{Level: SeverityMedium, Min: 2},
		{Level: SeverityHigh, Min: 3},
		{Level: SeverityCritical, Min: 5},
	}
}

// Validate exige Min >= 1, estrictamente ascendente y niveles no repetidos.
func (t SeverityTable) Validate() error {
	if len(t) == 0 {
		return errors.New("tabla de severidad vacía")
	}
	seen := make(map[string]bool, len(t))
	prev := 0
	for _, b := range t {
		if b.Level == "" || b.Level == SeverityNone {
			return fmt.Errorf("nivel de severidad inválido %q", b.Level)
		}
		if seen[b.Level] {
			return fmt.Errorf("nivel de severidad repetido %q", b.Level)
		}
		if b.Min <= prev {
			return fmt.Errorf("umbral de %q debe ser mayor que %d", b.Level, prev)
		}
		seen[b.Level] = true
		prev = b.Min
	}
	return nil
}

// Classify devuelve la banda más alta cuyo Min <= overdue.
func (t SeverityTable) Classify(overdue int) Severity {
	out := Severity{Level: SeverityNone}
	for i, b := range t {
		if overdue >= b.Min {
			out = Severity{Level: b.Level, Rank: i + 1}
		}
	}
	return out
}

// Rank posición del nivel (0 para al_dia o desconocido).
func (t SeverityTable) Rank(level string) int {
	for i, b := range t {
		if b.Level == level {
			return i + 1
		}
	}
	return 0
}

// Min umbral del nivel.
func (t SeverityTable) Min(level string) (int, bool) {
	for _, b := range t {
		if b.Level == level {
			return b.Min, true
		}
	}
	return 0, false
}

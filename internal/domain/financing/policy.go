// Package financing es el motor de cálculo de financiamientos: valor de cuota, cobrado,
// saldo, progreso, cuotas esperadas/pagadas/vencidas, monto vencido, días de atraso y severidad.
//
// Todas las funciones son puras: no hacen I/O y el instante "now" siempre llega como parámetro.
// Las constantes que históricamente variaban entre pantallas (cadencia, topes, umbrales)
// viven en Policy.
package financing

import "time"

// Week cadencia canónica de cobro.
const Week = 7 * 24 * time.Hour

// LegacyMaxExpectedInstallments tope de cuotas esperadas usado por el resumen de cobranza antiguo.
const LegacyMaxExpectedInstallments = 15

// LegacyMaxDaysOverdue tope de días de atraso (6 meses) usado por el reporte antiguo.
const LegacyMaxDaysOverdue = 180

// Policy parámetros de cálculo.
type Policy struct {
	Cadence                 time.Duration // intervalo entre cuotas
	MaxExpectedInstallments int           // 0 = solo limitado por el número de cuotas del contrato
	DaysPerInstallment      int           // días de atraso estimados por cuota vencida
	MaxDaysOverdue          int           // 0 = sin tope
	CountAbonos             bool          // si true, los abonos cuentan como cuota pagada
	Severity                SeverityTable
}

// CanonicalPolicy cadencia semanal, sin topes adicionales.
func CanonicalPolicy() Policy {
	return Policy{
		Cadence:            Week,
		DaysPerInstallment: 7,
		Severity:           DefaultSeverityTable(),
	}
}

// LegacyCappedPolicy igual que la canónica pero con tope de 15 cuotas esperadas y 180 días de atraso.
func LegacyCappedPolicy() Policy {
	p := CanonicalPolicy()
	p.MaxExpectedInstallments = LegacyMaxExpectedInstallments
	p.MaxDaysOverdue = LegacyMaxDaysOverdue
	return p
}

// PolicyByName devuelve "legacy" o, para cualquier otro nombre, la política canónica.
func PolicyByName(name string) Policy {
	if name == "legacy" {
		return LegacyCappedPolicy()
	}
	return CanonicalPolicy()
}

// normalized completa valores cero con los canónicos.
func (p Policy) normalized() Policy {
	if p.Cadence <= 0 {
		p.Cadence = Week
	}
	if p.DaysPerInstallment <= 0 {
		p.DaysPerInstallment = 7
	}
	if len(p.Severity) == 0 {
		p.Severity = DefaultSeverityTable()
	}
	return p
}

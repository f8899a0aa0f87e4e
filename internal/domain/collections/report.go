package collections

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Financiamiento-api/internal/domain/financing"
	"github.com/jhoicas/Financiamiento-api/pkg/textutil"
)

// DefaultMorosoThreshold cuotas vencidas a partir de las cuales un cliente entra al reporte de morosos.
const DefaultMorosoThreshold = 2

// Niveles del reporte de morosos.
const (
	TierCritical = "critica"
	TierMoroso   = "morosa"
)

// ErrNoPhone el cliente no tiene un teléfono utilizable.
var ErrNoPhone = errors.New("cliente sin teléfono")

// Tier un bloque del reporte de morosos.
type Tier struct {
	Level       string          `json:"level"`
	Title       string          `json:"title"`
	Items       []Item          `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// Report reporte de morosos en dos niveles: crítico (umbral de la banda crítica) y moroso
// (desde threshold cuotas vencidas hasta antes de crítico).
type Report struct {
	Threshold int        `json:"threshold"`
	Critical  Tier       `json:"critical"`
	Moroso    Tier       `json:"moroso"`
	Stats     Statistics `json:"statistics"`
}

// MorosoReport clasifica los ítems de r. threshold <= 0 usa DefaultMorosoThreshold.
func MorosoReport(r Result, threshold int, table financing.SeverityTable) Report {
	if threshold <= 0 {
		threshold = DefaultMorosoThreshold
	}
	if len(table) == 0 {
		table = financing.DefaultSeverityTable()
	}
	critical, ok := table.Min(financing.SeverityCritical)
	if !ok {
		critical = table[len(table)-1].Min
	}

	rep := Report{
		Threshold: threshold,
		Critical:  Tier{Level: TierCritical, Title: "Casos críticos", Items: []Item{}, TotalAmount: decimal.Zero},
		Moroso:    Tier{Level: TierMoroso, Title: "Clientes morosos", Items: []Item{}, TotalAmount: decimal.Zero},
	}
	var all []Item
	for _, it := range r.Items {
		n := it.Summary.OverdueCount
		switch {
		case n >= critical:
			rep.Critical.Items = append(rep.Critical.Items, it)
			rep.Critical.TotalAmount = rep.Critical.TotalAmount.Add(it.Summary.OverdueAmount)
		case n >= threshold:
			rep.Moroso.Items = append(rep.Moroso.Items, it)
			rep.Moroso.TotalAmount = rep.Moroso.TotalAmount.Add(it.Summary.OverdueAmount)
		default:
			continue
		}
		all = append(all, it)
	}
	SortItems(rep.Critical.Items, SortOverdue)
	SortItems(rep.Moroso.Items, SortOverdue)
	rep.Stats = ComputeStatistics(all)
	return rep
}

// ReminderMessage texto del recordatorio de pago por WhatsApp.
func ReminderMessage(it Item) string {
	cuotas := "cuota vencida"
	if it.Summary.OverdueCount != 1 {
		cuotas = "cuotas vencidas"
	}
	return fmt.Sprintf(
		"Hola %s, le recordamos que su financiamiento %s (%s) tiene %d %s por un monto de $%s. "+
			"Por favor comuníquese con nosotros para ponerse al día. ¡Gracias!",
		strings.TrimSpace(it.Customer.Name), it.ControlNumber, it.ProductText,
		it.Summary.OverdueCount, cuotas, it.Summary.OverdueAmount.StringFixed(2),
	)
}

// InternationalPhone deja solo dígitos y antepone el código de país: un 0 inicial se reemplaza
// y los números de 10 dígitos o menos lo reciben delante.
func InternationalPhone(phone, countryCode string) (string, error) {
	digits := textutil.Digits(phone)
	cc := textutil.Digits(countryCode)
	if len(digits) < 7 {
		return "", ErrNoPhone
	}
	switch {
	case strings.HasPrefix(digits, "0"):
		digits = cc + strings.TrimLeft(digits, "0")
	case len(digits) <= 10:
		digits = cc + digits
	}
	return digits, nil
}

// WhatsAppLink enlace wa.me con el mensaje precargado.
func WhatsAppLink(phone, countryCode, message string) (string, error) {
	number, err := InternationalPhone(phone, countryCode)
	if err != nil {
		return "", err
	}
	text := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return "https://wa.me/" + number + "?text=" + text, nil
}

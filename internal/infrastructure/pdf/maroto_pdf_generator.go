// Package pdf genera los documentos imprimibles de la tienda con Maroto v2:
// listado de clientes, reporte de morosos y plan de pagos de un financiamiento.
//
// Layout común (A4):
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Título del documento   │  Fecha de emisión          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  CUERPO: tabla(s) del documento                              │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES                                                     │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"
	"io"
	"strconv"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/jhoicas/Financiamiento-api/internal/application/ports"
	"github.com/jhoicas/Financiamiento-api/internal/domain/collections"
	"github.com/jhoicas/Financiamiento-api/internal/domain/financing"
	"github.com/jhoicas/Financiamiento-api/pkg/controlnum"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary  = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray     = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorCritical = &props.Color{Red: 170, Green: 20, Blue: 20}
)

var printer = message.NewPrinter(language.MustParse("es-VE"))

// ── Renderer ──────────────────────────────────────────────────────────────────

var _ ports.PDFRenderer = (*MarotoRenderer)(nil)

// MarotoRenderer implementa ports.PDFRenderer usando Maroto v2.
type MarotoRenderer struct {
	storeName string
}

// NewMarotoRenderer construye el generador. storeName aparece como autor y en el encabezado.
func NewMarotoRenderer(storeName string) *MarotoRenderer {
	return &MarotoRenderer{storeName: storeName}
}

func (g *MarotoRenderer) newDoc(title string) core.Maroto {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(title, true).
		WithAuthor(g.storeName, true).
		Build()
	return maroto.New(cfg)
}

func write(w io.Writer, m core.Maroto) error {
	doc, err := m.Generate()
	if err != nil {
		return fmt.Errorf("pdf: generar documento: %w", err)
	}
	if _, err := w.Write(doc.GetBytes()); err != nil {
		return fmt.Errorf("pdf: escribir documento: %w", err)
	}
	return nil
}

// CustomerList listado de clientes: N° control, nombre, cédula, teléfono, dirección.
func (g *MarotoRenderer) CustomerList(w io.Writer, doc ports.CustomerListDoc) error {
	m := g.newDoc(doc.Title)
	m.AddRows(g.headerRow(doc.Title, doc.GeneratedAt))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(tableHeaderRow([]column{
		{"N°", 2, align.Left}, {"Nombre", 4, align.Left}, {"Cédula", 2, align.Left},
		{"Teléfono", 2, align.Left}, {"Dirección", 2, align.Left},
	}))
	for _, c := range doc.Customers {
		m.AddRows(tableRow(
			cell{controlnum.Format("", c.ControlNumber), 2, align.Left},
			cell{c.Name, 4, align.Left},
			cell{c.NationalID, 2, align.Left},
			cell{nonEmpty(c.Phone, "—"), 2, align.Left},
			cell{nonEmpty(c.Address, "—"), 2, align.Left},
		))
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(summaryRow(fmt.Sprintf("Total de clientes: %d", len(doc.Customers))))
	return write(w, m)
}

// MorosoReport reporte en dos bloques: casos críticos y clientes morosos, con sus totales.
func (g *MarotoRenderer) MorosoReport(w io.Writer, doc ports.MorosoReportDoc) error {
	m := g.newDoc(doc.Title)
	m.AddRows(g.headerRow(doc.Title, doc.GeneratedAt))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(summaryRow(fmt.Sprintf("Umbral: %d cuotas vencidas", doc.Report.Threshold)))

	for _, tier := range []collections.Tier{doc.Report.Critical, doc.Report.Moroso} {
		color := colorPrimary
		if tier.Level == collections.TierCritical {
			color = colorCritical
		}
		m.AddRows(row.New(9).Add(col.New(12).Add(text.New(
			fmt.Sprintf("%s (%d)", tier.Title, len(tier.Items)),
			props.Text{Style: fontstyle.Bold, Size: 11, Color: color, Top: 3},
		))))
		m.AddRows(tableHeaderRow([]column{
			{"N°", 2, align.Left}, {"Cliente", 3, align.Left}, {"Teléfono", 2, align.Left},
			{"Producto", 2, align.Left}, {"Vencidas", 1, align.Center}, {"Monto vencido", 2, align.Right},
		}))
		for _, it := range tier.Items {
			m.AddRows(tableRow(
				cell{it.ControlNumber, 2, align.Left},
				cell{it.Customer.Name, 3, align.Left},
				cell{nonEmpty(it.Customer.Phone, "—"), 2, align.Left},
				cell{it.ProductText, 2, align.Left},
				cell{strconv.Itoa(it.Summary.OverdueCount), 1, align.Center},
				cell{money(it.Summary.OverdueAmount), 2, align.Right},
			))
		}
		m.AddRows(summaryRow("Total vencido: " + money(tier.TotalAmount)))
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	st := doc.Report.Stats
	m.AddRows(summaryRow(fmt.Sprintf("Cuotas vencidas: %d   |   Clientes afectados: %d   |   Monto vencido: %s",
		st.TotalOverdueInstallments, st.AffectedCustomers, money(st.TotalOverdueAmount))))
	return write(w, m)
}

// PaymentPlan plan de pagos: datos del contrato, resumen y grilla de cuotas con su estado.
func (g *MarotoRenderer) PaymentPlan(w io.Writer, doc ports.PaymentPlanDoc) error {
	title := "Plan de pagos " + doc.ControlNumber
	m := g.newDoc(title)
	m.AddRows(g.headerRow(title, doc.GeneratedAt))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	f, s := doc.Financing, doc.Summary
	m.AddRows(row.New(30).Add(
		col.New(8).Add(
			text.New("CLIENTE", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(doc.Customer.Name, props.Text{Style: fontstyle.Bold, Size: 10, Top: 6}),
			text.New(fmt.Sprintf("Cédula: %s   |   Tel: %s", doc.Customer.NationalID, nonEmpty(doc.Customer.Phone, "—")),
				props.Text{Size: 8, Top: 12, Color: colorGray}),
			text.New("Producto: "+nonEmpty(doc.ProductText, "—"), props.Text{Size: 8, Top: 17, Color: colorGray}),
			text.New(fmt.Sprintf("Monto: %s   |   %d cuotas de %s   |   Inicio: %s",
				money(f.Amount), f.Installments, money(s.InstallmentValue), f.StartDate.Format("02/01/2006")),
				props.Text{Size: 8, Top: 22}),
		),
		col.New(4).Add(code.NewQr(doc.ControlNumber, props.Rect{Percent: 80, Center: true})),
	))

	m.AddRows(tableHeaderRow([]column{
		{"Cuota", 2, align.Center}, {"Vence", 3, align.Left}, {"Monto", 4, align.Right}, {"Estado", 3, align.Center},
	}))
	for _, r := range doc.Rows {
		m.AddRows(tableRow(
			cell{strconv.Itoa(r.Number), 2, align.Center},
			cell{r.DueDate.Format("02/01/2006"), 3, align.Left},
			cell{money(r.Amount), 4, align.Right},
			cell{planState(r.State), 3, align.Center},
		))
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(summaryRow(fmt.Sprintf("Cobrado: %s   |   Saldo: %s   |   Avance: %s%%   |   Vencidas: %d",
		money(s.TotalCollected), money(s.PendingBalance), s.ProgressPct.StringFixed(0), s.OverdueCount)))
	return write(w, m)
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func (g *MarotoRenderer) headerRow(title string, at time.Time) core.Row {
	return row.New(16).Add(
		col.New(8).Add(
			text.New(g.storeName, props.Text{Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1}),
			text.New(title, props.Text{Size: 10, Top: 9}),
		),
		col.New(4).Add(
			text.New("Emitido: "+at.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 3, Color: colorGray,
			}),
		),
	)
}

type column struct {
	label string
	size  int
	align align.Type
}

type cell struct {
	value string
	size  int
	align align.Type
}

func tableHeaderRow(cols []column) core.Row {
	out := make([]core.Col, 0, len(cols))
	for _, c := range cols {
		out = append(out, col.New(c.size).Add(text.New(c.label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: c.align, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		})))
	}
	return row.New(8).Add(out...)
}

func tableRow(cells ...cell) core.Row {
	out := make([]core.Col, 0, len(cells))
	for _, c := range cells {
		out = append(out, col.New(c.size).Add(text.New(c.value, props.Text{
			Size: 8, Align: c.align, Top: 1, Left: 1, Right: 1,
		})))
	}
	return row.New(7).Add(out...)
}

func summaryRow(s string) core.Row {
	return row.New(8).Add(col.New(12).Add(text.New(s, props.Text{
		Style: fontstyle.Bold, Size: 9, Align: align.Right, Top: 2,
	})))
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// money formatea con separadores locales, ej: 1234.5 → "$1.234,50".
func money(d decimal.Decimal) string {
	return "$" + printer.Sprint(number.Decimal(d.Round(2).InexactFloat64(), number.Scale(2)))
}

func planState(state string) string {
	switch state {
	case financing.PlanPaid:
		return "Pagada"
	case financing.PlanOverdue:
		return "Vencida"
	default:
		return "Pendiente"
	}
}

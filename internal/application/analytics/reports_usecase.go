package analytics

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/Financiamiento-api/internal/application/ports"
	"github.com/jhoicas/Financiamiento-api/internal/domain/entity"
)

// PlanSource arma los datos del plan de pagos de un financiamiento (sales.FinancingUseCase).
type PlanSource interface {
	PlanDoc(ctx context.Context, id string) (*ports.PaymentPlanDoc, error)
}

// ReportsUseCase genera los documentos imprimibles: listado de clientes, reporte de morosos y plan de pagos.
type ReportsUseCase struct {
	view        View
	collections *CollectionsUseCase
	plans       PlanSource
	renderer    ports.PDFRenderer
	now         func() time.Time
}

// NewReportsUseCase construye el caso de uso inyectando todas sus dependencias.
func NewReportsUseCase(view View, collections *CollectionsUseCase, plans PlanSource, renderer ports.PDFRenderer) *ReportsUseCase {
	return &ReportsUseCase{
		view:        view,
		collections: collections,
		plans:       plans,
		renderer:    renderer,
		now:         time.Now,
	}
}

// CustomerListPDF listado de clientes (filtrado por search) ordenado por número de control.
func (uc *ReportsUseCase) CustomerListPDF(ctx context.Context, search string) (pdfBytes []byte, filename string, err error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	customers := append([]*entity.Customer(nil), uc.view.Customers(search)...)
	sort.SliceStable(customers, func(i, j int) bool { return customers[i].ControlNumber < customers[j].ControlNumber })

	now := uc.now()
	var buf bytes.Buffer
	if err := uc.renderer.CustomerList(&buf, ports.CustomerListDoc{
		Title:       "Listado de clientes",
		GeneratedAt: now,
		Customers:   customers,
	}); err != nil {
		return nil, "", fmt.Errorf("pdf: listado de clientes: %w", err)
	}
	return buf.Bytes(), fmt.Sprintf("clientes_%s.pdf", now.Format("20060102")), nil
}

// MorosoReportPDF reporte de morosos en dos niveles. threshold <= 0 usa el umbral configurado.
func (uc *ReportsUseCase) MorosoReportPDF(ctx context.Context, threshold int) (pdfBytes []byte, filename string, err error) {
	rep, err := uc.collections.Report(ctx, threshold)
	if err != nil {
		return nil, "", err
	}
	now := uc.now()
	var buf bytes.Buffer
	if err := uc.renderer.MorosoReport(&buf, ports.MorosoReportDoc{
		Title:       "Reporte de morosos",
		GeneratedAt: now,
		Report:      *rep,
	}); err != nil {
		return nil, "", fmt.Errorf("pdf: reporte de morosos: %w", err)
	}
	return buf.Bytes(), fmt.Sprintf("morosos_%s.pdf", now.Format("20060102")), nil
}

// PaymentPlanPDF plan de pagos de un financiamiento.
func (uc *ReportsUseCase) PaymentPlanPDF(ctx context.Context, financingID string) (pdfBytes []byte, filename string, err error) {
	doc, err := uc.plans.PlanDoc(ctx, financingID)
	if err != nil {
		return nil, "", err
	}
	var buf bytes.Buffer
	if err := uc.renderer.PaymentPlan(&buf, *doc); err != nil {
		return nil, "", fmt.Errorf("pdf: plan de pagos: %w", err)
	}
	return buf.Bytes(), fmt.Sprintf("plan_%s.pdf", doc.ControlNumber), nil
}

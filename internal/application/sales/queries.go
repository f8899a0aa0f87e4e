package sales

import (
	"context"
	"strings"
	"time"

	"github.com/jhoicas/Financiamiento-api/internal/application/dto"
	"github.com/jhoicas/Financiamiento-api/internal/application/ports"
	"github.com/jhoicas/Financiamiento-api/internal/application/store"
	"github.com/jhoicas/Financiamiento-api/internal/domain"
	"github.com/jhoicas/Financiamiento-api/internal/domain/entity"
	"github.com/jhoicas/Financiamiento-api/internal/domain/financing"
	"github.com/jhoicas/Financiamiento-api/pkg/controlnum"
)

// Get devuelve el financiamiento con su resumen calculado al momento.
func (uc *FinancingUseCase) Get(ctx context.Context, id string) (*dto.FinancingResponse, error) {
	f, err := uc.repos.Financings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, domain.ErrNotFound
	}
	return uc.withSummary(ctx, f)
}

// GetByControlNumber busca por número de control en cualquiera de sus formas ("F-000123", "f123", "123").
func (uc *FinancingUseCase) GetByControlNumber(ctx context.Context, text string) (*dto.FinancingResponse, error) {
	n, _, err := controlnum.Parse(text)
	if err != nil {
		return nil, domain.NewValidationError("numero", domain.ErrInvalidInput, "número de control inválido")
	}
	f, err := uc.repos.Financings.GetByControlNumber(ctx, n)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, domain.ErrNotFound
	}
	return uc.withSummary(ctx, f)
}

// Summary resumen financiero calculado al momento.
func (uc *FinancingUseCase) Summary(ctx context.Context, id string) (*financing.Summary, error) {
	f, payments, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	s := financing.Compute(f, payments, uc.now(), uc.policy)
	return &s, nil
}

// Plan grilla de cuotas con su estado (pagada, vencida, pendiente).
func (uc *FinancingUseCase) Plan(ctx context.Context, id string) (*dto.PlanResponse, error) {
	f, payments, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	s := financing.Compute(f, payments, now, uc.policy)
	names, err := uc.productNames(ctx, f)
	if err != nil {
		return nil, err
	}
	return &dto.PlanResponse{
		Financing: *ToFinancingResponse(f, &s, names),
		Rows:      financing.BuildPlan(f, payments, now, uc.policy),
	}, nil
}

// PlanDoc datos para el PDF del plan de pagos.
func (uc *FinancingUseCase) PlanDoc(ctx context.Context, id string) (*ports.PaymentPlanDoc, error) {
	f, payments, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	customer, err := uc.repos.Customers.GetByID(ctx, f.CustomerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		customer = &entity.Customer{ID: f.CustomerID, Name: "Cliente no disponible"}
	}
	names, err := uc.productNames(ctx, f)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	return &ports.PaymentPlanDoc{
		GeneratedAt:   now,
		ControlNumber: controlnum.ForSale(f.SaleType, f.ControlNumber),
		Financing:     f,
		Customer:      customer,
		ProductText:   productText(f, names),
		Summary:       financing.Compute(f, payments, now, uc.policy),
		Rows:          financing.BuildPlan(f, payments, now, uc.policy),
	}, nil
}

// ListPayments pagos del financiamiento ordenados por fecha.
func (uc *FinancingUseCase) ListPayments(ctx context.Context, id string) (*dto.PaymentListResponse, error) {
	_, payments, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	items := make([]dto.PaymentResponse, 0, len(payments))
	for _, p := range payments {
		items = append(items, ToPaymentResponse(p))
	}
	return &dto.PaymentListResponse{Items: items, Total: len(items)}, nil
}

// RefreshStatuses recalcula el estado de todos los financiamientos abiertos y persiste los que cambiaron.
// El paso del tiempo convierte financiamientos activos en atrasados sin que haya pagos nuevos.
func (uc *FinancingUseCase) RefreshStatuses(ctx context.Context) (*dto.RefreshStatusResponse, error) {
	fins, err := uc.repos.Financings.List(ctx)
	if err != nil {
		return nil, err
	}
	payments, err := uc.repos.Payments.List(ctx)
	if err != nil {
		return nil, err
	}
	byFinancing := make(map[string][]*entity.Payment)
	for _, p := range payments {
		byFinancing[p.FinancingID] = append(byFinancing[p.FinancingID], p)
	}

	now := uc.now()
	out := &dto.RefreshStatusResponse{}
	for _, f := range fins {
		if f.Status == entity.StatusCompleted {
			continue
		}
		if err := ctx.Err(); err != nil {
			return out, err
		}
		out.Checked++
		s := financing.Compute(f, byFinancing[f.ID], now, uc.policy)
		if s.Status == f.Status {
			continue
		}
		if err := uc.repos.Financings.UpdateStatus(ctx, f.ID, s.Status); err != nil {
			uc.log.Error().Err(err).Str("financing_id", f.ID).Msg("no se pudo actualizar el estado")
			continue
		}
		out.Updated++
	}
	uc.log.Info().Int("checked", out.Checked).Int("updated", out.Updated).Msg("estados re-derivados")
	return out, nil
}

// List financiamientos filtrados por estado derivado y tipo de venta (vacío = todos). Con vista se sirve
// del store; sin ella se leen contratos y pagos de los repositorios. En ambos casos el estado es el
// calculado al momento, no el persistido.
func (uc *FinancingUseCase) List(ctx context.Context, status, saleType string) (*dto.FinancingListResponse, error) {
	now := uc.now()
	var rows []store.FinancingRow
	if uc.view != nil {
		rows = uc.view.Financings(status, saleType, now)
	} else {
		var err error
		if rows, err = uc.listFromRepos(ctx, status, saleType, now); err != nil {
			return nil, err
		}
	}
	items := make([]dto.FinancingResponse, 0, len(rows))
	for _, r := range rows {
		sum := r.Summary
		items = append(items, *ToFinancingResponse(r.Financing, &sum, nil))
	}
	return &dto.FinancingListResponse{Items: items, Total: len(items)}, nil
}

func (uc *FinancingUseCase) listFromRepos(ctx context.Context, status, saleType string, now time.Time) ([]store.FinancingRow, error) {
	fins, err := uc.repos.Financings.List(ctx)
	if err != nil {
		return nil, err
	}
	payments, err := uc.repos.Payments.List(ctx)
	if err != nil {
		return nil, err
	}
	byFinancing := make(map[string][]*entity.Payment)
	for _, p := range payments {
		byFinancing[p.FinancingID] = append(byFinancing[p.FinancingID], p)
	}
	var out []store.FinancingRow
	for _, f := range fins {
		if saleType != "" && f.SaleType != saleType {
			continue
		}
		sum := financing.Compute(f, byFinancing[f.ID], now, uc.policy)
		if status != "" && sum.Status != status {
			continue
		}
		out = append(out, store.FinancingRow{Financing: f, Summary: sum})
	}
	return out, nil
}

func (uc *FinancingUseCase) load(ctx context.Context, id string) (*entity.Financing, []*entity.Payment, error) {
	f, err := uc.repos.Financings.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if f == nil {
		return nil, nil, domain.ErrNotFound
	}
	payments, err := uc.repos.Payments.ListByFinancing(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return f, payments, nil
}

func (uc *FinancingUseCase) withSummary(ctx context.Context, f *entity.Financing) (*dto.FinancingResponse, error) {
	payments, err := uc.repos.Payments.ListByFinancing(ctx, f.ID)
	if err != nil {
		return nil, err
	}
	s := financing.Compute(f, payments, uc.now(), uc.policy)
	names, err := uc.productNames(ctx, f)
	if err != nil {
		return nil, err
	}
	return ToFinancingResponse(f, &s, names), nil
}

func (uc *FinancingUseCase) productNames(ctx context.Context, f *entity.Financing) (map[string]string, error) {
	names := make(map[string]string)
	for _, id := range f.ProductIDs() {
		p, err := uc.repos.Products.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if p != nil {
			names[id] = p.Name
		}
	}
	return names, nil
}

func productText(f *entity.Financing, names map[string]string) string {
	var parts []string
	for _, id := range f.ProductIDs() {
		if n, ok := names[id]; ok {
			parts = append(parts, n)
		}
	}
	if len(parts) == 0 {
		return f.Description
	}
	return strings.Join(parts, ", ")
}

// ToFinancingResponse mapea la entidad. Con summary, Status es el derivado; sin él, el persistido.
func ToFinancingResponse(f *entity.Financing, summary *financing.Summary, names map[string]string) *dto.FinancingResponse {
	status := f.Status
	if summary != nil {
		status = summary.Status
	}
	items := make([]dto.LineItemResponse, 0, len(f.Items))
	for _, it := range f.Items {
		items = append(items, dto.LineItemResponse{
			ProductID:   it.ProductID,
			ProductName: names[it.ProductID],
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Subtotal:    it.Subtotal,
		})
	}
	if len(items) == 0 && f.LegacyProductID != "" {
		items = append(items, dto.LineItemResponse{
			ProductID:   f.LegacyProductID,
			ProductName: names[f.LegacyProductID],
			Quantity:    1,
			UnitPrice:   f.Amount,
			Subtotal:    f.Amount,
		})
	}
	return &dto.FinancingResponse{
		ID:                f.ID,
		ControlNumber:     f.ControlNumber,
		ControlNumberText: controlnum.ForSale(f.SaleType, f.ControlNumber),
		CustomerID:        f.CustomerID,
		SaleType:          f.SaleType,
		Amount:            f.Amount,
		Installments:      f.Installments,
		StartDate:         f.StartDate,
		Status:            status,
		Description:       f.Description,
		Items:             items,
		Summary:           summary,
		CreatedAt:         f.CreatedAt,
		UpdatedAt:         f.UpdatedAt,
	}
}

// ToPaymentResponse mapea un pago.
func ToPaymentResponse(p *entity.Payment) dto.PaymentResponse {
	return dto.PaymentResponse{
		ID:                p.ID,
		FinancingID:       p.FinancingID,
		Amount:            p.Amount,
		Date:              p.Date,
		Kind:              p.Kind,
		Method:            p.Method,
		Reference:         p.Reference,
		ReceiptURL:        p.ReceiptURL,
		InstallmentNumber: p.InstallmentNumber,
		CreatedAt:         p.CreatedAt,
	}
}

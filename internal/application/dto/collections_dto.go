package dto

import (
	"github.com/jhoicas/Financiamiento-api/internal/domain/collections"
)

// CollectionsQuery query params de GET /api/collections.
type CollectionsQuery struct {
	Search         string `query:"q" validate:"omitempty,max=100"`
	Severity       string `query:"severidad" validate:"omitempty,oneof=al_dia baja media alta critica"`
	Sort           string `query:"orden" validate:"omitempty,oneof=prioridad cuotas"`
	IncludeCurrent bool   `query:"incluir_al_dia"`
}

// Filters convierte la query en filtros del agregador.
func (q CollectionsQuery) Filters() collections.Filters {
	return collections.Filters{
		Search:         q.Search,
		Severity:       q.Severity,
		Sort:           q.Sort,
		IncludeCurrent: q.IncludeCurrent,
	}
}

// CollectionsResponse vista de cobranza. StoreErrors lista colecciones degradadas (carga fallida o lenta).
type CollectionsResponse struct {
	Items       []collections.Item     `json:"items"`
	Statistics  collections.Statistics `json:"statistics"`
	Warnings    int                    `json:"warnings"`
	StoreErrors map[string]string      `json:"store_errors,omitempty"`
}

// WhatsAppLinkResponse enlace de recordatorio para un financiamiento.
type WhatsAppLinkResponse struct {
	FinancingID string `json:"financing_id"`
	Phone       string `json:"phone"`
	Message     string `json:"message"`
	Link        string `json:"link"`
}

// ReminderRunResponse resultado del envío de recordatorios.
type ReminderRunResponse struct {
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// CollectionStatus estado de una colección del store.
type CollectionStatus struct {
	Name    string `json:"name"`
	Count   int    `json:"count"`
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
	Version uint64 `json:"version"`
}

// StoreStatusResponse estado del store en memoria.
type StoreStatusResponse struct {
	Collections []CollectionStatus `json:"collections"`
}

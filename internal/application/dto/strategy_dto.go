package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// PerformanceDTO métricas de rendimiento de una estrategia.
type PerformanceDTO struct {
	ReturnRate  decimal.Decimal `json:"returnRate"`
	WinRate     decimal.Decimal `json:"winRate"`
	SharpeRatio decimal.Decimal `json:"sharpeRatio"`
	MaxDrawdown decimal.Decimal `json:"maxDrawdown"`
}

// StrategyListRequest filtros de GET /strategies.
type StrategyListRequest struct {
	PageRequest
	Author string `query:"author"`
	Status string `query:"status"`
	Search string `query:"search"`
}

// CreateStrategyRequest entrada para crear una estrategia.
type CreateStrategyRequest struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Status      string          `json:"status"`
	Performance *PerformanceDTO `json:"performance"`
	Categories  []string        `json:"categories"`
}

// UpdateStrategyRequest entrada para actualizar una estrategia.
type UpdateStrategyRequest struct {
	Name        *string         `json:"name"`
	Description *string         `json:"description"`
	Status      *string         `json:"status"`
	Performance *PerformanceDTO `json:"performance"`
}

// AssignCategoriesRequest reemplaza el conjunto de categorías de una estrategia.
type AssignCategoriesRequest struct {
	Categories []string `json:"categories"`
	Reason     string   `json:"reason"`
}

// StrategyResponse salida de una estrategia.
type StrategyResponse struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Author      string         `json:"author"`
	Status      string         `json:"status"`
	Performance PerformanceDTO `json:"performance"`
	Categories  []string       `json:"categories,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// StrategyListResponse lista paginada de estrategias.
type StrategyListResponse struct {
	Items     []StrategyResponse `json:"items"`
	Total     int                `json:"total"`
	Page      int                `json:"page"`
	PageCount int                `json:"pageCount"`
}

// CategoryChangeLogResponse entrada de auditoría.
type CategoryChangeLogResponse struct {
	ID             string    `json:"id"`
	Strategy       string    `json:"strategy"`
	FromCategories []string  `json:"fromCategories"`
	ToCategories   []string  `json:"toCategories"`
	ChangedBy      string    `json:"changedBy"`
	ChangeType     string    `json:"changeType"`
	Reason         string    `json:"reason"`
	CreatedAt      time.Time `json:"createdAt"`
}

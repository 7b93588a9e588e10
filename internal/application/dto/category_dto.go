package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CategoryListRequest filtros de GET /categories.
// Parent acepta un ID o el centinela "root".
type CategoryListRequest struct {
	PageRequest
	Parent     string `query:"parent"`
	Visibility string `query:"visibility"`
	Archived   *bool  `query:"archived"`
	IsSystem   *bool  `query:"isSystem"`
	Tag        string `query:"tag"`
	Search     string `query:"search"`
	Sort       string `query:"sort"`  // name, createdAt, updatedAt
	Order      string `query:"order"` // asc, desc
}

// CreateCategoryRequest entrada para crear una categoría.
type CreateCategoryRequest struct {
	Name        string   `json:"name" validate:"required,min=1,max=100"`
	Description string   `json:"description"`
	Parent      string   `json:"parent"`
	Tags        []string `json:"tags"`
	Visibility  string   `json:"visibility"`
	IsSystem    bool     `json:"isSystem"`
}

// UpdateCategoryRequest entrada para actualizar una categoría (campos nil no cambian).
// Parent = "" o "root" mueve la categoría a la raíz.
type UpdateCategoryRequest struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Parent      *string   `json:"parent"`
	Tags        *[]string `json:"tags"`
	Visibility  *string   `json:"visibility"`
	IsSystem    *bool     `json:"isSystem"`
	Archived    *bool     `json:"archived"`
}

// ArchiveCategoryRequest entrada de PATCH /categories/:id/archive.
type ArchiveCategoryRequest struct {
	Archived bool `json:"archived"`
}

// CategoryResponse salida de una categoría.
type CategoryResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Parent      *string   `json:"parent"`
	Tags        []string  `json:"tags"`
	Visibility  string    `json:"visibility"`
	Owner       *string   `json:"owner"`
	IsSystem    bool      `json:"isSystem"`
	Archived    bool      `json:"archived"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CategoryListResponse lista paginada de categorías.
type CategoryListResponse struct {
	Items     []CategoryResponse `json:"items"`
	Total     int                `json:"total"`
	Page      int                `json:"page"`
	PageCount int                `json:"pageCount"`
}

// CategoryTreeNode nodo del árbol de categorías.
type CategoryTreeNode struct {
	CategoryResponse
	Children []*CategoryTreeNode `json:"children"`
}

// CategoryStatsResponse conteos globales de categorías.
type CategoryStatsResponse struct {
	Total     int `json:"total"`
	System    int `json:"system"`
	UserOwned int `json:"userOwned"`
	Archived  int `json:"archived"`
	Root      int `json:"root"`
	Child     int `json:"child"`
}

// CategoryUsage conteo de estrategias y plantillas de una categoría.
type CategoryUsage struct {
	CategoryID    string `json:"categoryId"`
	Name          string `json:"name"`
	StrategyCount int    `json:"strategyCount"`
	TemplateCount int    `json:"templateCount"`
}

// CategoryStatisticsResponse estadísticas de uso de las categorías.
type CategoryStatisticsResponse struct {
	TotalCategories          int             `json:"totalCategories"`
	TotalStrategyLinks       int             `json:"totalStrategyLinks"`
	TotalTemplates           int             `json:"totalTemplates"`
	AvgStrategiesPerCategory decimal.Decimal `json:"avgStrategiesPerCategory"`
	AvgTemplatesPerCategory  decimal.Decimal `json:"avgTemplatesPerCategory"`
	Categories               []CategoryUsage `json:"categories"`
}

// CategoryDistributionItem participación de una categoría en el total de vínculos.
type CategoryDistributionItem struct {
	CategoryID    string          `json:"categoryId"`
	Name          string          `json:"name"`
	StrategyCount int             `json:"strategyCount"`
	Percentage    decimal.Decimal `json:"percentage"`
}

// CategoryDistributionResponse distribución de estrategias por categoría.
type CategoryDistributionResponse struct {
	TotalStrategyLinks int                        `json:"totalStrategyLinks"`
	Items              []CategoryDistributionItem `json:"items"`
}

// CategoryPerformance promedios de rendimiento de las estrategias de una categoría.
type CategoryPerformance struct {
	CategoryID     string          `json:"categoryId"`
	Name           string          `json:"name"`
	StrategyCount  int             `json:"strategyCount"`
	AvgReturnRate  decimal.Decimal `json:"avgReturnRate"`
	AvgWinRate     decimal.Decimal `json:"avgWinRate"`
	AvgSharpeRatio decimal.Decimal `json:"avgSharpeRatio"`
}

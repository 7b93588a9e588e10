package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/quantlab-api/internal/domain/entity"
)

// TemplateListRequest filtros de GET /templates.
type TemplateListRequest struct {
	PageRequest
	Category string `query:"category"`
	Status   string `query:"status"`
	Source   string `query:"source"`
	Search   string `query:"search"`
}

// CreateTemplateRequest entrada para crear una plantilla.
type CreateTemplateRequest struct {
	Name        string                 `json:"name" validate:"required"`
	Description string                 `json:"description"`
	Category    string                 `json:"category" validate:"required"`
	Version     string                 `json:"version"`
	Source      string                 `json:"source"`
	Status      string                 `json:"status"`
	Code        string                 `json:"code"`
	Params      []entity.TemplateParam `json:"params"`
	IsPaid      bool                   `json:"isPaid"`
	Price       decimal.Decimal        `json:"price"`
	RiskLevel   string                 `json:"riskLevel"`
}

// UpdateTemplateRequest entrada para actualizar una plantilla (campos nil no cambian).
type UpdateTemplateRequest struct {
	Name        *string                 `json:"name"`
	Description *string                 `json:"description"`
	Category    *string                 `json:"category"`
	Version     *string                 `json:"version"`
	Status      *string                 `json:"status"`
	Code        *string                 `json:"code"`
	Params      *[]entity.TemplateParam `json:"params"`
	IsPaid      *bool                   `json:"isPaid"`
	Price       *decimal.Decimal        `json:"price"`
	RiskLevel   *string                 `json:"riskLevel"`
}

// TemplateResponse salida de una plantilla.
type TemplateResponse struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Category    string                 `json:"category"`
	Version     string                 `json:"version"`
	Author      string                 `json:"author"`
	Source      string                 `json:"source"`
	Status      string                 `json:"status"`
	Code        string                 `json:"code"`
	Params      []entity.TemplateParam `json:"params"`
	UsageCount  int                    `json:"usageCount"`
	IsPaid      bool                   `json:"isPaid"`
	Price       decimal.Decimal        `json:"price"`
	RiskLevel   string                 `json:"riskLevel"`
	CreatedAt   time.Time              `json:"createdAt"`
	UpdatedAt   time.Time              `json:"updatedAt"`
}

// TemplateListResponse lista paginada de plantillas.
type TemplateListResponse struct {
	Items     []TemplateResponse `json:"items"`
	Total     int                `json:"total"`
	Page      int                `json:"page"`
	PageCount int                `json:"pageCount"`
}

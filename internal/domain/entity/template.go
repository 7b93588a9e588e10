package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Origen de una plantilla.
const (
	TemplateSourceOfficial = "official"
	TemplateSourceUser     = "user"
)

// Estados de publicación de una plantilla.
const (
	TemplateStatusPublished = "published"
	TemplateStatusReviewing = "reviewing"
	TemplateStatusRejected  = "rejected"
	TemplateStatusOffline   = "offline"
	TemplateStatusDraft     = "draft"
)

// Niveles de riesgo.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// TemplateParam descriptor de un parámetro configurable de la plantilla (orden significativo).
type TemplateParam struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Default     any    `json:"default,omitempty" yaml:"default,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool   `json:"required" yaml:"required"`
}

// Template plantilla reutilizable de estrategia. CategoryID debe existir al escribir.
type Template struct {
	ID          string
	Name        string
	Description string
	CategoryID  string
	Version     string
	AuthorID    string
	Source      string
	Status      string
	Code        string // código fuente opaco
	Params      []TemplateParam
	UsageCount  int
	IsPaid      bool
	Price       decimal.Decimal
	RiskLevel   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Clone devuelve una copia profunda.
func (t *Template) Clone() *Template {
	if t == nil {
		return nil
	}
	cp := *t
	cp.Params = append([]TemplateParam(nil), t.Params...)
	return &cp
}

// IsValidTemplateSource valida el enum de origen.
func IsValidTemplateSource(s string) bool {
	return s == TemplateSourceOfficial || s == TemplateSourceUser
}

// IsValidTemplateStatus valida el enum de estado.
func IsValidTemplateStatus(s string) bool {
	switch s {
	case TemplateStatusPublished, TemplateStatusReviewing, TemplateStatusRejected, TemplateStatusOffline, TemplateStatusDraft:
		return true
	}
	return false
}

// IsValidRiskLevel valida el enum de riesgo.
func IsValidRiskLevel(s string) bool {
	return s == RiskLow || s == RiskMedium || s == RiskHigh
}

package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una estrategia.
const (
	StrategyStatusDraft    = "draft"
	StrategyStatusActive   = "active"
	StrategyStatusPaused   = "paused"
	StrategyStatusArchived = "archived"
)

// Performance métricas de rendimiento de una estrategia (backtest o real).
type Performance struct {
	ReturnRate  decimal.Decimal // rentabilidad acumulada (%)
	WinRate     decimal.Decimal // % de operaciones ganadoras
	SharpeRatio decimal.Decimal
	MaxDrawdown decimal.Decimal
}

// Strategy representa una estrategia de trading de un usuario.
type Strategy struct {
	ID          string
	Name        string
	Description string
	AuthorID    string
	Status      string
	Performance Performance
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Clone devuelve una copia de la estrategia.
func (s *Strategy) Clone() *Strategy {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}

// IsValidStrategyStatus valida el enum de estado.
func IsValidStrategyStatus(s string) bool {
	switch s {
	case StrategyStatusDraft, StrategyStatusActive, StrategyStatusPaused, StrategyStatusArchived:
		return true
	}
	return false
}

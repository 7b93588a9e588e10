package entity

import "time"

// StrategyCategory vínculo estrategia ↔ categoría. El par (StrategyID, CategoryID) es único.
type StrategyCategory struct {
	ID           string
	StrategyID   string
	CategoryID   string
	AssignedBy   string // vacío si fue asignado por el sistema
	AutoAssigned bool
	CreatedAt    time.Time
}

// Clone devuelve una copia del vínculo.
func (l *StrategyCategory) Clone() *StrategyCategory {
	if l == nil {
		return nil
	}
	cp := *l
	return &cp
}

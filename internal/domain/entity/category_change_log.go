package entity

import "time"

// Tipos de cambio registrados en la auditoría de categorías.
const (
	ChangeTypeAssign = "assign"
	ChangeTypeRemove = "remove"
	ChangeTypeUpdate = "update"
)

// CategoryChangeLog entrada de auditoría (solo inserción) de la asignación de categorías a una estrategia.
type CategoryChangeLog struct {
	ID             string
	StrategyID     string
	FromCategories []string
	ToCategories   []string
	ChangedBy      string
	ChangeType     string
	Reason         string
	CreatedAt      time.Time
}

// Clone devuelve una copia profunda.
func (l *CategoryChangeLog) Clone() *CategoryChangeLog {
	if l == nil {
		return nil
	}
	cp := *l
	cp.FromCategories = append([]string(nil), l.FromCategories...)
	cp.ToCategories = append([]string(nil), l.ToCategories...)
	return &cp
}

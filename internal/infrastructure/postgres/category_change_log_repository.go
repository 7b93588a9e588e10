package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/quantlab-api/internal/domain/entity"
	"github.com/jhoicas/quantlab-api/internal/domain/repository"
)

var _ repository.CategoryChangeLogRepository = (*CategoryChangeLogRepo)(nil)

// CategoryChangeLogRepo auditoría de cambios de categoría; la tabla no se actualiza ni se borra.
type CategoryChangeLogRepo struct {
	q Querier
}

// NewCategoryChangeLogRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCategoryChangeLogRepository(q Querier) *CategoryChangeLogRepo {
	return &CategoryChangeLogRepo{q: q}
}

// Append inserta una entrada.
func (r *CategoryChangeLogRepo) Append(ctx context.Context, l *entity.CategoryChangeLog) error {
	query := `
		INSERT INTO category_change_logs (id, strategy_id, from_categories, to_categories, changed_by, change_type, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		l.ID, l.StrategyID, nonNilStrings(l.FromCategories), nonNilStrings(l.ToCategories),
		l.ChangedBy, l.ChangeType, l.Reason, l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert category change log: %w", err)
	}
	return nil
}

// ListByStrategy devuelve el historial de una estrategia, más reciente primero.
func (r *CategoryChangeLogRepo) ListByStrategy(ctx context.Context, strategyID string) ([]*entity.CategoryChangeLog, error) {
	query := `
		SELECT id, strategy_id, from_categories, to_categories, changed_by, change_type, reason, created_at
		FROM category_change_logs WHERE strategy_id = $1 ORDER BY created_at DESC, id DESC`
	rows, err := r.q.Query(ctx, query, strategyID)
	if err != nil {
		return nil, fmt.Errorf("list category change logs: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.CategoryChangeLog, 0)
	for rows.Next() {
		var l entity.CategoryChangeLog
		if err := rows.Scan(&l.ID, &l.StrategyID, &l.FromCategories, &l.ToCategories,
			&l.ChangedBy, &l.ChangeType, &l.Reason, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category change log: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}

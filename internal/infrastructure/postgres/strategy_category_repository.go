package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/quantlab-api/internal/domain"
	"github.com/jhoicas/quantlab-api/internal/domain/entity"
	"github.com/jhoicas/quantlab-api/internal/domain/repository"
)

var _ repository.StrategyCategoryRepository = (*StrategyCategoryRepo)(nil)

const linkColumns = `id, strategy_id, category_id, COALESCE(assigned_by, ''), auto_assigned, created_at`

// StrategyCategoryRepo vínculos estrategia ↔ categoría. UNIQUE (strategy_id, category_id).
type StrategyCategoryRepo struct {
	q Querier
}

// NewStrategyCategoryRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStrategyCategoryRepository(q Querier) *StrategyCategoryRepo {
	return &StrategyCategoryRepo{q: q}
}

// Create inserta el vínculo; un par repetido devuelve domain.ErrDuplicate.
func (r *StrategyCategoryRepo) Create(ctx context.Context, l *entity.StrategyCategory) error {
	query := `
		INSERT INTO strategy_categories (id, strategy_id, category_id, assigned_by, auto_assigned, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)`
	_, err := r.q.Exec(ctx, query, l.ID, l.StrategyID, l.CategoryID, l.AssignedBy, l.AutoAssigned, l.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert strategy category: %w", err)
	}
	return nil
}

// Delete elimina un vínculo concreto.
func (r *StrategyCategoryRepo) Delete(ctx context.Context, strategyID, categoryID string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM strategy_categories WHERE strategy_id = $1 AND category_id = $2`, strategyID, categoryID)
	if err != nil {
		return fmt.Errorf("delete strategy category: %w", err)
	}
	return nil
}

// DeleteByStrategy elimina todos los vínculos de una estrategia.
func (r *StrategyCategoryRepo) DeleteByStrategy(ctx context.Context, strategyID string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM strategy_categories WHERE strategy_id = $1`, strategyID); err != nil {
		return fmt.Errorf("delete strategy categories: %w", err)
	}
	return nil
}

func (r *StrategyCategoryRepo) ListByStrategy(ctx context.Context, strategyID string) ([]*entity.StrategyCategory, error) {
	return r.query(ctx, `SELECT `+linkColumns+` FROM strategy_categories WHERE strategy_id = $1 ORDER BY created_at, id`, strategyID)
}

func (r *StrategyCategoryRepo) ListByCategory(ctx context.Context, categoryID string) ([]*entity.StrategyCategory, error) {
	return r.query(ctx, `SELECT `+linkColumns+` FROM strategy_categories WHERE category_id = $1 ORDER BY created_at, id`, categoryID)
}

func (r *StrategyCategoryRepo) ListAll(ctx context.Context) ([]*entity.StrategyCategory, error) {
	return r.query(ctx, `SELECT `+linkColumns+` FROM strategy_categories ORDER BY created_at, id`)
}

// CountByCategory cuenta las estrategias vinculadas a una categoría.
func (r *StrategyCategoryRepo) CountByCategory(ctx context.Context, categoryID string) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM strategy_categories WHERE category_id = $1`, categoryID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count strategy categories: %w", err)
	}
	return n, nil
}

func (r *StrategyCategoryRepo) query(ctx context.Context, query string, args ...any) ([]*entity.StrategyCategory, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list strategy categories: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.StrategyCategory, 0)
	for rows.Next() {
		var l entity.StrategyCategory
		if err := rows.Scan(&l.ID, &l.StrategyID, &l.CategoryID, &l.AssignedBy, &l.AutoAssigned, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan strategy category: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/quantlab-api/internal/domain"
	"github.com/jhoicas/quantlab-api/internal/domain/entity"
	"github.com/jhoicas/quantlab-api/internal/domain/repository"
)

var _ repository.StrategyRepository = (*StrategyRepo)(nil)

const strategyColumns = `id, name, description, author_id, status, return_rate, win_rate, sharpe_ratio, max_drawdown, created_at, updated_at`

// StrategyRepo implementación del puerto StrategyRepository sobre PostgreSQL.
type StrategyRepo struct {
	q Querier
}

// NewStrategyRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStrategyRepository(q Querier) *StrategyRepo {
	return &StrategyRepo{q: q}
}

// Create persiste una estrategia.
func (r *StrategyRepo) Create(ctx context.Context, s *entity.Strategy) error {
	query := `
		INSERT INTO strategies (id, name, description, author_id, status, return_rate, win_rate, sharpe_ratio, max_drawdown, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.Name, s.Description, s.AuthorID, s.Status,
		s.Performance.ReturnRate, s.Performance.WinRate, s.Performance.SharpeRatio, s.Performance.MaxDrawdown,
		s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert strategy: %w", err)
	}
	return nil
}

// GetByID obtiene una estrategia por ID.
func (r *StrategyRepo) GetByID(ctx context.Context, id string) (*entity.Strategy, error) {
	s, err := scanStrategy(r.q.QueryRow(ctx, `SELECT `+strategyColumns+` FROM strategies WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get strategy: %w", err)
	}
	return s, nil
}

// GetByIDs devuelve las estrategias existentes entre ids.
func (r *StrategyRepo) GetByIDs(ctx context.Context, ids []string) ([]*entity.Strategy, error) {
	if len(ids) == 0 {
		return []*entity.Strategy{}, nil
	}
	return r.query(ctx, `SELECT `+strategyColumns+` FROM strategies WHERE id = ANY($1) ORDER BY created_at DESC, id DESC`, ids)
}

// Update actualiza nombre, descripción, estado y métricas.
func (r *StrategyRepo) Update(ctx context.Context, s *entity.Strategy) error {
	query := `
		UPDATE strategies SET name = $2, description = $3, status = $4, return_rate = $5, win_rate = $6,
			sharpe_ratio = $7, max_drawdown = $8, updated_at = $9
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		s.ID, s.Name, s.Description, s.Status,
		s.Performance.ReturnRate, s.Performance.WinRate, s.Performance.SharpeRatio, s.Performance.MaxDrawdown,
		s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update strategy: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: estrategia %s", domain.ErrNotFound, s.ID)
	}
	return nil
}

// Delete elimina una estrategia por ID.
func (r *StrategyRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM strategies WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete strategy: %w", err)
	}
	return nil
}

// List lista estrategias con filtros y paginación.
func (r *StrategyRepo) List(ctx context.Context, filter repository.StrategyFilter, opts repository.ListOptions) ([]*entity.Strategy, error) {
	w := strategyWhere(filter)
	return r.query(ctx, `SELECT `+strategyColumns+` FROM strategies`+w.sql()+orderAndPage(w, opts, "created_at"), w.args...)
}

// Count cuenta las estrategias que cumplen el filtro.
func (r *StrategyRepo) Count(ctx context.Context, filter repository.StrategyFilter) (int, error) {
	w := strategyWhere(filter)
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM strategies`+w.sql(), w.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count strategies: %w", err)
	}
	return n, nil
}

func strategyWhere(f repository.StrategyFilter) *whereBuilder {
	w := &whereBuilder{}
	if f.AuthorID != "" {
		w.add("author_id = ?", f.AuthorID)
	}
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}
	if f.Search != "" {
		p := likePattern(f.Search)
		w.add("(name ILIKE ? OR description ILIKE ?)", p, p)
	}
	return w
}

func (r *StrategyRepo) query(ctx context.Context, query string, args ...any) ([]*entity.Strategy, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list strategies: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Strategy, 0)
	for rows.Next() {
		s, err := scanStrategy(rows)
		if err != nil {
			return nil, fmt.Errorf("scan strategy: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

func scanStrategy(row pgx.Row) (*entity.Strategy, error) {
	var s entity.Strategy
	if err := row.Scan(&s.ID, &s.Name, &s.Description, &s.AuthorID, &s.Status,
		&s.Performance.ReturnRate, &s.Performance.WinRate, &s.Performance.SharpeRatio, &s.Performance.MaxDrawdown,
		&s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

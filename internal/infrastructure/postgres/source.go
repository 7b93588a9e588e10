package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/quantlab-api/internal/domain/repository"
)

var _ repository.DataSource = (*Source)(nil)

// Source fuente de datos sobre PostgreSQL. Fuera de una transacción q es el pool; dentro, la tx.
type Source struct {
	pool *pgxpool.Pool
	q    Querier
	inTx bool
}

// NewSource construye la fuente con el pool ya conectado.
func NewSource(pool *pgxpool.Pool) *Source {
	return &Source{pool: pool, q: pool}
}

func (s *Source) Name() string { return "postgres" }

func (s *Source) Categories() repository.CategoryRepository {
	return NewCategoryRepository(s.q)
}

func (s *Source) Strategies() repository.StrategyRepository {
	return NewStrategyRepository(s.q)
}

func (s *Source) StrategyCategories() repository.StrategyCategoryRepository {
	return NewStrategyCategoryRepository(s.q)
}

func (s *Source) Templates() repository.TemplateRepository {
	return NewTemplateRepository(s.q)
}

func (s *Source) ChangeLogs() repository.CategoryChangeLogRepository {
	return NewCategoryChangeLogRepository(s.q)
}

// RunInTx inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Llamadas anidadas reutilizan la transacción en curso.
func (s *Source) RunInTx(ctx context.Context, fn func(tx repository.DataSource) error) error {
	if s.inTx {
		return fn(s)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&Source{pool: s.pool, q: tx, inTx: true}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *Source) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close cierra el pool. No hace nada sobre una fuente atada a una transacción.
func (s *Source) Close() {
	if !s.inTx {
		s.pool.Close()
	}
}

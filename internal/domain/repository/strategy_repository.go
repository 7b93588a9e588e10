package repository

import (
	"context"

	"github.com/jhoicas/quantlab-api/internal/domain/entity"
)

// StrategyFilter criterios de búsqueda de estrategias.
type StrategyFilter struct {
	AuthorID string
	Status   string
	Search   string
}

// StrategyRepository define el puerto de persistencia para Strategy (DIP).
type StrategyRepository interface {
	Create(ctx context.Context, strategy *entity.Strategy) error
	GetByID(ctx context.Context, id string) (*entity.Strategy, error)
	GetByIDs(ctx context.Context, ids []string) ([]*entity.Strategy, error)
	Update(ctx context.Context, strategy *entity.Strategy) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter StrategyFilter, opts ListOptions) ([]*entity.Strategy, error)
	Count(ctx context.Context, filter StrategyFilter) (int, error)
}

// StrategyCategoryRepository define el puerto de persistencia del vínculo estrategia ↔ categoría.
// Create devuelve domain.ErrDuplicate si el par ya existe.
type StrategyCategoryRepository interface {
	Create(ctx context.Context, link *entity.StrategyCategory) error
	Delete(ctx context.Context, strategyID, categoryID string) error
	DeleteByStrategy(ctx context.Context, strategyID string) error
	ListByStrategy(ctx context.Context, strategyID string) ([]*entity.StrategyCategory, error)
	ListByCategory(ctx context.Context, categoryID string) ([]*entity.StrategyCategory, error)
	ListAll(ctx context.Context) ([]*entity.StrategyCategory, error)
	CountByCategory(ctx context.Context, categoryID string) (int, error)
}

// CategoryChangeLogRepository auditoría de cambios de categoría (solo inserción y lectura).
type CategoryChangeLogRepository interface {
	Append(ctx context.Context, log *entity.CategoryChangeLog) error
	ListByStrategy(ctx context.Context, strategyID string) ([]*entity.CategoryChangeLog, error)
}

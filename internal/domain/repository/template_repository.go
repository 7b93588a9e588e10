package repository

import (
	"context"

	"github.com/jhoicas/quantlab-api/internal/domain/entity"
)

// TemplateFilter criterios de búsqueda de plantillas.
type TemplateFilter struct {
	CategoryID string
	Status     string
	Source     string
	AuthorID   string
	Search     string
}

// TemplateRepository define el puerto de persistencia para Template (DIP).
type TemplateRepository interface {
	Create(ctx context.Context, template *entity.Template) error
	GetByID(ctx context.Context, id string) (*entity.Template, error)
	Update(ctx context.Context, template *entity.Template) error
	IncrementUsage(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter TemplateFilter, opts ListOptions) ([]*entity.Template, error)
	Count(ctx context.Context, filter TemplateFilter) (int, error)
	// CountByCategory agrupa el número de plantillas por CategoryID (recalculado en cada lectura).
	CountByCategory(ctx context.Context) (map[string]int, error)
}

package repository

import (
	"context"

	"github.com/jhoicas/quantlab-api/internal/domain/entity"
)

// Campos de ordenamiento soportados por los listados de categorías.
const (
	SortByName      = "name"
	SortByCreatedAt = "createdAt"
	SortByUpdatedAt = "updatedAt"
)

// CategoryFilter criterios de búsqueda de categorías. Los punteros nil no filtran.
type CategoryFilter struct {
	ParentID   *string // "" = solo raíces
	Visibility string
	Archived   *bool
	IsSystem   *bool
	Tag        string
	Search     string // subcadena sin distinguir mayúsculas sobre name, description y tags
	VisibleTo  string // si no está vacío: públicas o privadas de este usuario
}

// ListOptions paginación y orden. Limit 0 = sin límite.
type ListOptions struct {
	Limit     int
	Offset    int
	SortField string
	SortDesc  bool
}

// CategoryRepository define el puerto de persistencia para Category (DIP).
// GetByID y FindByNameAndParent devuelven (nil, nil) si no existe.
type CategoryRepository interface {
	Create(ctx context.Context, category *entity.Category) error
	GetByID(ctx context.Context, id string) (*entity.Category, error)
	GetByIDs(ctx context.Context, ids []string) ([]*entity.Category, error)
	FindByNameAndParent(ctx context.Context, name, parentID string) (*entity.Category, error)
	Update(ctx context.Context, category *entity.Category) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter CategoryFilter, opts ListOptions) ([]*entity.Category, error)
	Count(ctx context.Context, filter CategoryFilter) (int, error)
	CountChildren(ctx context.Context, id string) (int, error)
}

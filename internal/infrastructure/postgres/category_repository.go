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

var _ repository.CategoryRepository = (*CategoryRepo)(nil)

const categoryColumns = `id, name, description, COALESCE(parent_id, ''), tags, visibility, COALESCE(owner_id, ''), is_system, archived, created_at, updated_at`

// CategoryRepo implementación del puerto CategoryRepository sobre PostgreSQL (usable con pool o tx).
type CategoryRepo struct {
	q Querier
}

// NewCategoryRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCategoryRepository(q Querier) *CategoryRepo {
	return &CategoryRepo{q: q}
}

// Create persiste una categoría. El índice único (name, parent) convierte la carrera entre hermanos en ErrDuplicate.
func (r *CategoryRepo) Create(ctx context.Context, c *entity.Category) error {
	query := `
		INSERT INTO categories (id, name, description, parent_id, tags, visibility, owner_id, is_system, archived, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, NULLIF($7, ''), $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		c.ID, c.Name, c.Description, c.ParentID, nonNilStrings(c.Tags), c.Visibility, c.OwnerID,
		c.IsSystem, c.Archived, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

// GetByID obtiene una categoría por ID.
func (r *CategoryRepo) GetByID(ctx context.Context, id string) (*entity.Category, error) {
	c, err := scanCategory(r.q.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

// GetByIDs devuelve las categorías existentes entre ids.
func (r *CategoryRepo) GetByIDs(ctx context.Context, ids []string) ([]*entity.Category, error) {
	if len(ids) == 0 {
		return []*entity.Category{}, nil
	}
	return r.query(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = ANY($1) ORDER BY name, id`, ids)
}

// FindByNameAndParent busca una categoría por nombre dentro de un padre ("" = raíz).
func (r *CategoryRepo) FindByNameAndParent(ctx context.Context, name, parentID string) (*entity.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE name = $1 AND COALESCE(parent_id, '') = $2`
	c, err := scanCategory(r.q.QueryRow(ctx, query, name, parentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find category by name: %w", err)
	}
	return c, nil
}

// Update actualiza todos los campos mutables.
func (r *CategoryRepo) Update(ctx context.Context, c *entity.Category) error {
	query := `
		UPDATE categories SET name = $2, description = $3, parent_id = NULLIF($4, ''), tags = $5, visibility = $6,
			owner_id = NULLIF($7, ''), is_system = $8, archived = $9, updated_at = $10
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		c.ID, c.Name, c.Description, c.ParentID, nonNilStrings(c.Tags), c.Visibility, c.OwnerID,
		c.IsSystem, c.Archived, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update category: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: categoría %s", domain.ErrNotFound, c.ID)
	}
	return nil
}

// Delete elimina una categoría por ID. Las FK RESTRICT de vínculos y plantillas devuelven ErrConflict.
func (r *CategoryRepo) Delete(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			// Un vínculo o plantilla llegó después de la verificación del caso de uso.
			return fmt.Errorf("%w: la categoría tiene elementos asociados", domain.ErrConflict)
		}
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

// List lista categorías con filtros, orden y paginación.
func (r *CategoryRepo) List(ctx context.Context, filter repository.CategoryFilter, opts repository.ListOptions) ([]*entity.Category, error) {
	w := categoryWhere(filter)
	query := `SELECT ` + categoryColumns + ` FROM categories` + w.sql() + orderAndPage(w, opts, "created_at")
	return r.query(ctx, query, w.args...)
}

// Count cuenta las categorías que cumplen el filtro.
func (r *CategoryRepo) Count(ctx context.Context, filter repository.CategoryFilter) (int, error) {
	w := categoryWhere(filter)
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM categories`+w.sql(), w.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count categories: %w", err)
	}
	return n, nil
}

// CountChildren cuenta los hijos directos de una categoría.
func (r *CategoryRepo) CountChildren(ctx context.Context, id string) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM categories WHERE parent_id = $1`, id).Scan(&n); err != nil {
		return 0, fmt.Errorf("count children: %w", err)
	}
	return n, nil
}

func categoryWhere(f repository.CategoryFilter) *whereBuilder {
	w := &whereBuilder{}
	if f.ParentID != nil {
		if *f.ParentID == "" {
			w.add("parent_id IS NULL")
		} else {
			w.add("parent_id = ?", *f.ParentID)
		}
	}
	if f.Visibility != "" {
		w.add("visibility = ?", f.Visibility)
	}
	if f.Archived != nil {
		w.add("archived = ?", *f.Archived)
	}
	if f.IsSystem != nil {
		w.add("is_system = ?", *f.IsSystem)
	}
	if f.Tag != "" {
		w.add("? = ANY(tags)", f.Tag)
	}
	if f.Search != "" {
		p := likePattern(f.Search)
		w.add("(name ILIKE ? OR description ILIKE ? OR array_to_string(tags, ' ') ILIKE ?)", p, p, p)
	}
	if f.VisibleTo != "" {
		w.add("(visibility <> 'private' OR owner_id = ?)", f.VisibleTo)
	}
	return w
}

func (r *CategoryRepo) query(ctx context.Context, query string, args ...any) ([]*entity.Category, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func scanCategory(row pgx.Row) (*entity.Category, error) {
	var c entity.Category
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.ParentID, &c.Tags, &c.Visibility, &c.OwnerID,
		&c.IsSystem, &c.Archived, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	return &c, nil
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

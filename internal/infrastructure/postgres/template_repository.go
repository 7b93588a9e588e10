package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/quantlab-api/internal/domain"
	"github.com/jhoicas/quantlab-api/internal/domain/entity"
	"github.com/jhoicas/quantlab-api/internal/domain/repository"
)

var _ repository.TemplateRepository = (*TemplateRepo)(nil)

const templateColumns = `id, name, description, category_id, version, author_id, source, status, code, params, usage_count, is_paid, price, risk_level, created_at, updated_at`

// TemplateRepo implementación del puerto TemplateRepository sobre PostgreSQL. Params se guarda como JSONB.
type TemplateRepo struct {
	q Querier
}

// NewTemplateRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTemplateRepository(q Querier) *TemplateRepo {
	return &TemplateRepo{q: q}
}

// Create persiste una plantilla.
func (r *TemplateRepo) Create(ctx context.Context, t *entity.Template) error {
	params, err := marshalParams(t.Params)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO templates (id, name, description, category_id, version, author_id, source, status, code, params,
			usage_count, is_paid, price, risk_level, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err = r.q.Exec(ctx, query,
		t.ID, t.Name, t.Description, t.CategoryID, t.Version, t.AuthorID, t.Source, t.Status, t.Code, params,
		t.UsageCount, t.IsPaid, t.Price, t.RiskLevel, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert template: %w", err)
	}
	return nil
}

// GetByID obtiene una plantilla por ID.
func (r *TemplateRepo) GetByID(ctx context.Context, id string) (*entity.Template, error) {
	t, err := scanTemplate(r.q.QueryRow(ctx, `SELECT `+templateColumns+` FROM templates WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get template: %w", err)
	}
	return t, nil
}

// Update actualiza los campos editables. usage_count solo cambia con IncrementUsage.
func (r *TemplateRepo) Update(ctx context.Context, t *entity.Template) error {
	params, err := marshalParams(t.Params)
	if err != nil {
		return err
	}
	query := `
		UPDATE templates SET name = $2, description = $3, category_id = $4, version = $5, status = $6, code = $7,
			params = $8, is_paid = $9, price = $10, risk_level = $11, updated_at = $12
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		t.ID, t.Name, t.Description, t.CategoryID, t.Version, t.Status, t.Code,
		params, t.IsPaid, t.Price, t.RiskLevel, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update template: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: plantilla %s", domain.ErrNotFound, t.ID)
	}
	return nil
}

// IncrementUsage suma uno al contador de uso en una sola sentencia.
func (r *TemplateRepo) IncrementUsage(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `UPDATE templates SET usage_count = usage_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment template usage: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: plantilla %s", domain.ErrNotFound, id)
	}
	return nil
}

// Delete elimina una plantilla por ID.
func (r *TemplateRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM templates WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	return nil
}

// List lista plantillas con filtros y paginación.
func (r *TemplateRepo) List(ctx context.Context, filter repository.TemplateFilter, opts repository.ListOptions) ([]*entity.Template, error) {
	w := templateWhere(filter)
	rows, err := r.q.Query(ctx, `SELECT `+templateColumns+` FROM templates`+w.sql()+orderAndPage(w, opts, "created_at"), w.args...)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Template, 0)
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// Count cuenta las plantillas que cumplen el filtro.
func (r *TemplateRepo) Count(ctx context.Context, filter repository.TemplateFilter) (int, error) {
	w := templateWhere(filter)
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM templates`+w.sql(), w.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count templates: %w", err)
	}
	return n, nil
}

// CountByCategory agrupa plantillas por categoría.
func (r *TemplateRepo) CountByCategory(ctx context.Context) (map[string]int, error) {
	rows, err := r.q.Query(ctx, `SELECT category_id, COUNT(*) FROM templates GROUP BY category_id`)
	if err != nil {
		return nil, fmt.Errorf("count templates by category: %w", err)
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan template count: %w", err)
		}
		out[id] = n
	}
	return out, rows.Err()
}

func templateWhere(f repository.TemplateFilter) *whereBuilder {
	w := &whereBuilder{}
	if f.CategoryID != "" {
		w.add("category_id = ?", f.CategoryID)
	}
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}
	if f.Source != "" {
		w.add("source = ?", f.Source)
	}
	if f.AuthorID != "" {
		w.add("author_id = ?", f.AuthorID)
	}
	if f.Search != "" {
		p := likePattern(f.Search)
		w.add("(name ILIKE ? OR description ILIKE ?)", p, p)
	}
	return w
}

func scanTemplate(row pgx.Row) (*entity.Template, error) {
	var t entity.Template
	var params []byte
	if err := row.Scan(&t.ID, &t.Name, &t.Description, &t.CategoryID, &t.Version, &t.AuthorID, &t.Source, &t.Status,
		&t.Code, &params, &t.UsageCount, &t.IsPaid, &t.Price, &t.RiskLevel, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Params = []entity.TemplateParam{}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &t.Params); err != nil {
			return nil, fmt.Errorf("decode params: %w", err)
		}
	}
	return &t, nil
}

func marshalParams(p []entity.TemplateParam) ([]byte, error) {
	if p == nil {
		p = []entity.TemplateParam{}
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode params: %w", err)
	}
	return b, nil
}

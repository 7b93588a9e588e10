package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/quantlab-api/internal/domain"
	"github.com/jhoicas/quantlab-api/internal/domain/entity"
	"github.com/jhoicas/quantlab-api/internal/domain/repository"
)

type templateRepo struct{ s *Source }

func (r templateRepo) Create(ctx context.Context, t *entity.Template) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.templates[t.ID]; exists {
		return domain.ErrDuplicate
	}
	r.s.templates[t.ID] = t.Clone()
	return nil
}

func (r templateRepo) GetByID(ctx context.Context, id string) (*entity.Template, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.templates[id].Clone(), nil
}

func (r templateRepo) Update(ctx context.Context, t *entity.Template) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.templates[t.ID]; !exists {
		return fmt.Errorf("update template: %w", domain.ErrNotFound)
	}
	r.s.templates[t.ID] = t.Clone()
	return nil
}

func (r templateRepo) IncrementUsage(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.templates[id]
	if !ok {
		return fmt.Errorf("increment usage: %w", domain.ErrNotFound)
	}
	t.UsageCount++
	return nil
}

func (r templateRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.templates, id)
	return nil
}

func (r templateRepo) List(ctx context.Context, f repository.TemplateFilter, opts repository.ListOptions) ([]*entity.Template, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	list := make([]*entity.Template, 0, len(r.s.templates))
	for _, t := range r.s.templates {
		if matchTemplate(t, f) {
			list = append(list, t.Clone())
		}
	}
	sortByTimeOrName(list, opts,
		func(t *entity.Template) string { return t.Name },
		func(t *entity.Template) time.Time { return t.CreatedAt },
		func(t *entity.Template) time.Time { return t.UpdatedAt },
		func(t *entity.Template) string { return t.ID },
	)
	return paginate(list, opts), nil
}

func (r templateRepo) Count(ctx context.Context, f repository.TemplateFilter) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, t := range r.s.templates {
		if matchTemplate(t, f) {
			n++
		}
	}
	return n, nil
}

func (r templateRepo) CountByCategory(ctx context.Context) (map[string]int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make(map[string]int)
	for _, t := range r.s.templates {
		out[t.CategoryID]++
	}
	return out, nil
}

func matchTemplate(t *entity.Template, f repository.TemplateFilter) bool {
	if f.CategoryID != "" && t.CategoryID != f.CategoryID {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Source != "" && t.Source != f.Source {
		return false
	}
	if f.AuthorID != "" && t.AuthorID != f.AuthorID {
		return false
	}
	if f.Search != "" && !containsFold(t.Name, f.Search) && !containsFold(t.Description, f.Search) {
		return false
	}
	return true
}

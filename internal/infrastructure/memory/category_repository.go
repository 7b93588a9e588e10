package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/quantlab-api/internal/domain"
	"github.com/jhoicas/quantlab-api/internal/domain/entity"
	"github.com/jhoicas/quantlab-api/internal/domain/repository"
)

type categoryRepo struct{ s *Source }

func (r categoryRepo) Create(ctx context.Context, c *entity.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.categories[c.ID]; exists {
		return domain.ErrDuplicate
	}
	if r.siblingTaken(c.Name, c.ParentID, c.ID) {
		return domain.ErrDuplicate
	}
	r.s.categories[c.ID] = c.Clone()
	return nil
}

func (r categoryRepo) GetByID(ctx context.Context, id string) (*entity.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.categories[id].Clone(), nil
}

func (r categoryRepo) GetByIDs(ctx context.Context, ids []string) ([]*entity.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.Category, 0, len(ids))
	for _, id := range ids {
		if c, ok := r.s.categories[id]; ok {
			out = append(out, c.Clone())
		}
	}
	return out, nil
}

func (r categoryRepo) FindByNameAndParent(ctx context.Context, name, parentID string) (*entity.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, c := range r.s.categories {
		if c.Name == name && c.ParentID == parentID {
			return c.Clone(), nil
		}
	}
	return nil, nil
}

func (r categoryRepo) Update(ctx context.Context, c *entity.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.categories[c.ID]; !exists {
		return fmt.Errorf("update category: %w", domain.ErrNotFound)
	}
	if r.siblingTaken(c.Name, c.ParentID, c.ID) {
		return domain.ErrDuplicate
	}
	r.s.categories[c.ID] = c.Clone()
	return nil
}

func (r categoryRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.categories, id)
	return nil
}

func (r categoryRepo) List(ctx context.Context, f repository.CategoryFilter, opts repository.ListOptions) ([]*entity.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	list := make([]*entity.Category, 0, len(r.s.categories))
	for _, c := range r.s.categories {
		if matchCategory(c, f) {
			list = append(list, c.Clone())
		}
	}
	sortByTimeOrName(list, opts,
		func(c *entity.Category) string { return c.Name },
		func(c *entity.Category) time.Time { return c.CreatedAt },
		func(c *entity.Category) time.Time { return c.UpdatedAt },
		func(c *entity.Category) string { return c.ID },
	)
	return paginate(list, opts), nil
}

func (r categoryRepo) Count(ctx context.Context, f repository.CategoryFilter) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, c := range r.s.categories {
		if matchCategory(c, f) {
			n++
		}
	}
	return n, nil
}

func (r categoryRepo) CountChildren(ctx context.Context, id string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, c := range r.s.categories {
		if c.ParentID == id {
			n++
		}
	}
	return n, nil
}

// siblingTaken equivale al índice único (name, parent). Requiere el candado tomado.
func (r categoryRepo) siblingTaken(name, parentID, selfID string) bool {
	for _, c := range r.s.categories {
		if c.ID != selfID && c.Name == name && c.ParentID == parentID {
			return true
		}
	}
	return false
}

func matchCategory(c *entity.Category, f repository.CategoryFilter) bool {
	if f.ParentID != nil && c.ParentID != *f.ParentID {
		return false
	}
	if f.Visibility != "" && c.Visibility != f.Visibility {
		return false
	}
	if f.Archived != nil && c.Archived != *f.Archived {
		return false
	}
	if f.IsSystem != nil && c.IsSystem != *f.IsSystem {
		return false
	}
	if f.Tag != "" && !c.HasTag(f.Tag) {
		return false
	}
	if f.VisibleTo != "" && c.Visibility == entity.VisibilityPrivate && c.OwnerID != f.VisibleTo {
		return false
	}
	if f.Search != "" {
		found := containsFold(c.Name, f.Search) || containsFold(c.Description, f.Search)
		for _, t := range c.Tags {
			if found {
				break
			}
			found = containsFold(t, f.Search)
		}
		if !found {
			return false
		}
	}
	return true
}

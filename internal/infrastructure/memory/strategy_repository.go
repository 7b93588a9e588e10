package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/quantlab-api/internal/domain"
	"github.com/jhoicas/quantlab-api/internal/domain/entity"
	"github.com/jhoicas/quantlab-api/internal/domain/repository"
)

type strategyRepo struct{ s *Source }

func (r strategyRepo) Create(ctx context.Context, st *entity.Strategy) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.strategies[st.ID]; exists {
		return domain.ErrDuplicate
	}
	r.s.strategies[st.ID] = st.Clone()
	return nil
}

func (r strategyRepo) GetByID(ctx context.Context, id string) (*entity.Strategy, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.strategies[id].Clone(), nil
}

func (r strategyRepo) GetByIDs(ctx context.Context, ids []string) ([]*entity.Strategy, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.Strategy, 0, len(ids))
	for _, id := range ids {
		if st, ok := r.s.strategies[id]; ok {
			out = append(out, st.Clone())
		}
	}
	return out, nil
}

func (r strategyRepo) Update(ctx context.Context, st *entity.Strategy) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.strategies[st.ID]; !exists {
		return fmt.Errorf("update strategy: %w", domain.ErrNotFound)
	}
	r.s.strategies[st.ID] = st.Clone()
	return nil
}

func (r strategyRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.strategies, id)
	return nil
}

func (r strategyRepo) List(ctx context.Context, f repository.StrategyFilter, opts repository.ListOptions) ([]*entity.Strategy, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	list := make([]*entity.Strategy, 0, len(r.s.strategies))
	for _, st := range r.s.strategies {
		if matchStrategy(st, f) {
			list = append(list, st.Clone())
		}
	}
	sortByTimeOrName(list, opts,
		func(st *entity.Strategy) string { return st.Name },
		func(st *entity.Strategy) time.Time { return st.CreatedAt },
		func(st *entity.Strategy) time.Time { return st.UpdatedAt },
		func(st *entity.Strategy) string { return st.ID },
	)
	return paginate(list, opts), nil
}

func (r strategyRepo) Count(ctx context.Context, f repository.StrategyFilter) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, st := range r.s.strategies {
		if matchStrategy(st, f) {
			n++
		}
	}
	return n, nil
}

func matchStrategy(st *entity.Strategy, f repository.StrategyFilter) bool {
	if f.AuthorID != "" && st.AuthorID != f.AuthorID {
		return false
	}
	if f.Status != "" && st.Status != f.Status {
		return false
	}
	if f.Search != "" && !containsFold(st.Name, f.Search) && !containsFold(st.Description, f.Search) {
		return false
	}
	return true
}

type linkRepo struct{ s *Source }

func (r linkRepo) Create(ctx context.Context, l *entity.StrategyCategory) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.links {
		if existing.StrategyID == l.StrategyID && existing.CategoryID == l.CategoryID {
			return domain.ErrDuplicate
		}
	}
	r.s.links[l.ID] = l.Clone()
	return nil
}

func (r linkRepo) Delete(ctx context.Context, strategyID, categoryID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, l := range r.s.links {
		if l.StrategyID == strategyID && l.CategoryID == categoryID {
			delete(r.s.links, id)
		}
	}
	return nil
}

func (r linkRepo) DeleteByStrategy(ctx context.Context, strategyID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, l := range r.s.links {
		if l.StrategyID == strategyID {
			delete(r.s.links, id)
		}
	}
	return nil
}

func (r linkRepo) ListByStrategy(ctx context.Context, strategyID string) ([]*entity.StrategyCategory, error) {
	return r.filter(func(l *entity.StrategyCategory) bool { return l.StrategyID == strategyID }), nil
}

func (r linkRepo) ListByCategory(ctx context.Context, categoryID string) ([]*entity.StrategyCategory, error) {
	return r.filter(func(l *entity.StrategyCategory) bool { return l.CategoryID == categoryID }), nil
}

func (r linkRepo) ListAll(ctx context.Context) ([]*entity.StrategyCategory, error) {
	return r.filter(func(*entity.StrategyCategory) bool { return true }), nil
}

func (r linkRepo) CountByCategory(ctx context.Context, categoryID string) (int, error) {
	return len(r.filter(func(l *entity.StrategyCategory) bool { return l.CategoryID == categoryID })), nil
}

// filter devuelve copias ordenadas por createdAt (id como desempate).
func (r linkRepo) filter(keep func(*entity.StrategyCategory) bool) []*entity.StrategyCategory {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.StrategyCategory, 0)
	for _, l := range r.s.links {
		if keep(l) {
			out = append(out, l.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

type changeLogRepo struct{ s *Source }

func (r changeLogRepo) Append(ctx context.Context, l *entity.CategoryChangeLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.logs = append(r.s.logs, l.Clone())
	return nil
}

// ListByStrategy devuelve la auditoría más reciente primero.
func (r changeLogRepo) ListByStrategy(ctx context.Context, strategyID string) ([]*entity.CategoryChangeLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.CategoryChangeLog, 0)
	for i := len(r.s.logs) - 1; i >= 0; i-- {
		if r.s.logs[i].StrategyID == strategyID {
			out = append(out, r.s.logs[i].Clone())
		}
	}
	return out, nil
}

package datasource

import (
	"context"
	"fmt"

	"github.com/jhoicas/quantlab-api/internal/domain"
	"github.com/jhoicas/quantlab-api/internal/domain/entity"
	"github.com/jhoicas/quantlab-api/internal/domain/repository"
)

var (
	_ repository.DataSource                  = (*Unavailable)(nil)
	_ repository.CategoryRepository          = unavailableCategories{}
	_ repository.StrategyRepository          = unavailableStrategies{}
	_ repository.StrategyCategoryRepository  = unavailableLinks{}
	_ repository.TemplateRepository          = unavailableTemplates{}
	_ repository.CategoryChangeLogRepository = unavailableLogs{}
)

// Unavailable fuente usada cuando el almacén no respondió al arrancar y no hay respaldo:
// toda operación falla con domain.ErrServiceUnavailable (HTTP 503).
type Unavailable struct {
	cause error
}

// NewUnavailable guarda la causa para incluirla en los errores.
func NewUnavailable(cause error) *Unavailable {
	return &Unavailable{cause: cause}
}

func (u *Unavailable) Name() string { return "unavailable" }

func (u *Unavailable) fail() error {
	if u == nil || u.cause == nil {
		return fmt.Errorf("%w: almacén no disponible", domain.ErrServiceUnavailable)
	}
	return fmt.Errorf("%w: %v", domain.ErrServiceUnavailable, u.cause)
}

func (u *Unavailable) Categories() repository.CategoryRepository { return unavailableCategories{u} }
func (u *Unavailable) Strategies() repository.StrategyRepository { return unavailableStrategies{u} }
func (u *Unavailable) StrategyCategories() repository.StrategyCategoryRepository {
	return unavailableLinks{u}
}
func (u *Unavailable) Templates() repository.TemplateRepository           { return unavailableTemplates{u} }
func (u *Unavailable) ChangeLogs() repository.CategoryChangeLogRepository { return unavailableLogs{u} }

func (u *Unavailable) RunInTx(context.Context, func(tx repository.DataSource) error) error {
	return u.fail()
}

func (u *Unavailable) Ping(context.Context) error { return u.fail() }

func (u *Unavailable) Close() {}

type unavailableCategories struct{ u *Unavailable }

func (r unavailableCategories) Create(context.Context, *entity.Category) error { return r.u.fail() }
func (r unavailableCategories) GetByID(context.Context, string) (*entity.Category, error) {
	return nil, r.u.fail()
}
func (r unavailableCategories) GetByIDs(context.Context, []string) ([]*entity.Category, error) {
	return nil, r.u.fail()
}
func (r unavailableCategories) FindByNameAndParent(context.Context, string, string) (*entity.Category, error) {
	return nil, r.u.fail()
}
func (r unavailableCategories) Update(context.Context, *entity.Category) error { return r.u.fail() }
func (r unavailableCategories) Delete(context.Context, string) error           { return r.u.fail() }
func (r unavailableCategories) List(context.Context, repository.CategoryFilter, repository.ListOptions) ([]*entity.Category, error) {
	return nil, r.u.fail()
}
func (r unavailableCategories) Count(context.Context, repository.CategoryFilter) (int, error) {
	return 0, r.u.fail()
}
func (r unavailableCategories) CountChildren(context.Context, string) (int, error) {
	return 0, r.u.fail()
}

type unavailableStrategies struct{ u *Unavailable }

func (r unavailableStrategies) Create(context.Context, *entity.Strategy) error { return r.u.fail() }
func (r unavailableStrategies) GetByID(context.Context, string) (*entity.Strategy, error) {
	return nil, r.u.fail()
}
func (r unavailableStrategies) GetByIDs(context.Context, []string) ([]*entity.Strategy, error) {
	return nil, r.u.fail()
}
func (r unavailableStrategies) Update(context.Context, *entity.Strategy) error { return r.u.fail() }
func (r unavailableStrategies) Delete(context.Context, string) error           { return r.u.fail() }
func (r unavailableStrategies) List(context.Context, repository.StrategyFilter, repository.ListOptions) ([]*entity.Strategy, error) {
	return nil, r.u.fail()
}
func (r unavailableStrategies) Count(context.Context, repository.StrategyFilter) (int, error) {
	return 0, r.u.fail()
}

type unavailableLinks struct{ u *Unavailable }

func (r unavailableLinks) Create(context.Context, *entity.StrategyCategory) error { return r.u.fail() }
func (r unavailableLinks) Delete(context.Context, string, string) error           { return r.u.fail() }
func (r unavailableLinks) DeleteByStrategy(context.Context, string) error         { return r.u.fail() }
func (r unavailableLinks) ListByStrategy(context.Context, string) ([]*entity.StrategyCategory, error) {
	return nil, r.u.fail()
}
func (r unavailableLinks) ListByCategory(context.Context, string) ([]*entity.StrategyCategory, error) {
	return nil, r.u.fail()
}
func (r unavailableLinks) ListAll(context.Context) ([]*entity.StrategyCategory, error) {
	return nil, r.u.fail()
}
func (r unavailableLinks) CountByCategory(context.Context, string) (int, error) {
	return 0, r.u.fail()
}

type unavailableTemplates struct{ u *Unavailable }

func (r unavailableTemplates) Create(context.Context, *entity.Template) error { return r.u.fail() }
func (r unavailableTemplates) GetByID(context.Context, string) (*entity.Template, error) {
	return nil, r.u.fail()
}
func (r unavailableTemplates) Update(context.Context, *entity.Template) error { return r.u.fail() }
func (r unavailableTemplates) IncrementUsage(context.Context, string) error   { return r.u.fail() }
func (r unavailableTemplates) Delete(context.Context, string) error           { return r.u.fail() }
func (r unavailableTemplates) List(context.Context, repository.TemplateFilter, repository.ListOptions) ([]*entity.Template, error) {
	return nil, r.u.fail()
}
func (r unavailableTemplates) Count(context.Context, repository.TemplateFilter) (int, error) {
	return 0, r.u.fail()
}
func (r unavailableTemplates) CountByCategory(context.Context) (map[string]int, error) {
	return nil, r.u.fail()
}

type unavailableLogs struct{ u *Unavailable }

func (r unavailableLogs) Append(context.Context, *entity.CategoryChangeLog) error { return r.u.fail() }
func (r unavailableLogs) ListByStrategy(context.Context, string) ([]*entity.CategoryChangeLog, error) {
	return nil, r.u.fail()
}

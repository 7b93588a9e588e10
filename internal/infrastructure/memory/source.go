// Package memory implementa repository.DataSource sobre mapas en memoria.
// Se usa como fuente de respaldo cuando PostgreSQL no está disponible (DATASOURCE_FALLBACK=memory)
// o explícitamente con DATASOURCE_DRIVER=memory. Aplica los mismos invariantes de unicidad que
// los índices de la base de datos, bajo su propio candado de escritura.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"

	"github.com/jhoicas/quantlab-api/internal/domain/entity"
	"github.com/jhoicas/quantlab-api/internal/domain/repository"
)

var _ repository.DataSource = (*Source)(nil)

// Source almacén en memoria. Las entidades se clonan al entrar y al salir.
type Source struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	categories map[string]*entity.Category
	strategies map[string]*entity.Strategy
	links      map[string]*entity.StrategyCategory
	templates  map[string]*entity.Template
	logs       []*entity.CategoryChangeLog
}

// New crea una fuente vacía.
func New() *Source {
	return &Source{
		categories: make(map[string]*entity.Category),
		strategies: make(map[string]*entity.Strategy),
		links:      make(map[string]*entity.StrategyCategory),
		templates:  make(map[string]*entity.Template),
	}
}

// Name identifica la fuente en logs y /health.
func (s *Source) Name() string { return "memory" }

func (s *Source) Categories() repository.CategoryRepository { return categoryRepo{s} }

func (s *Source) Strategies() repository.StrategyRepository { return strategyRepo{s} }

func (s *Source) StrategyCategories() repository.StrategyCategoryRepository { return linkRepo{s} }

func (s *Source) Templates() repository.TemplateRepository { return templateRepo{s} }

func (s *Source) ChangeLogs() repository.CategoryChangeLogRepository { return changeLogRepo{s} }

// RunInTx serializa las transacciones. No hay rollback: una falla a mitad de fn deja las escrituras previas.
func (s *Source) RunInTx(ctx context.Context, fn func(tx repository.DataSource) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(s)
}

// Ping siempre responde: la memoria está disponible mientras el proceso viva.
func (s *Source) Ping(ctx context.Context) error { return ctx.Err() }

// Close no libera nada.
func (s *Source) Close() {}

// containsFold compara subcadenas con plegado de mayúsculas Unicode.
// cases.Caser guarda estado, por eso se crea uno por llamada.
func containsFold(haystack, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(cases.Fold().String(haystack), cases.Fold().String(needle))
}

// paginate aplica Offset/Limit (Limit 0 = sin límite).
func paginate[T any](list []T, opts repository.ListOptions) []T {
	if opts.Offset > 0 {
		if opts.Offset >= len(list) {
			return list[:0]
		}
		list = list[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(list) {
		list = list[:opts.Limit]
	}
	return list
}

// sortByTimeOrName ordena por el campo pedido usando id como desempate para resultados estables.
func sortByTimeOrName[T any](list []T, opts repository.ListOptions, name func(T) string, created, updated func(T) time.Time, id func(T) string) {
	less := func(a, b T) int {
		switch opts.SortField {
		case repository.SortByName:
			return strings.Compare(name(a), name(b))
		case repository.SortByUpdatedAt:
			return updated(a).Compare(updated(b))
		default:
			return created(a).Compare(created(b))
		}
	}
	sort.SliceStable(list, func(i, j int) bool {
		c := less(list[i], list[j])
		if c == 0 {
			c = strings.Compare(id(list[i]), id(list[j]))
		}
		if opts.SortDesc {
			return c > 0
		}
		return c < 0
	})
}

package usecase_test

import (
	"context"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/quantlab-api/internal/application/dto"
	"github.com/jhoicas/quantlab-api/internal/domain"
	"github.com/jhoicas/quantlab-api/internal/domain/entity"
)

func sorted(ids ...string) []string {
	out := append([]string{}, ids...)
	sort.Strings(out)
	return out
}

func TestStrategyCreate_ConCategoriasRegistraAuditoria(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.category(t, admin, dto.CreateCategoryRequest{Name: "A"})
	b := f.category(t, admin, dto.CreateCategoryRequest{Name: "B"})

	s, err := f.strategies.Create(ctx, alice, dto.CreateStrategyRequest{Name: "Cruce", Categories: []string{b.ID, a.ID, a.ID}})
	require.NoError(t, err)
	assert.Equal(t, entity.StrategyStatusDraft, s.Status)
	assert.Equal(t, alice.UserID, s.Author)
	assert.Equal(t, sorted(a.ID, b.ID), s.Categories)
	assert.True(t, s.Performance.ReturnRate.IsZero())

	logs, err := f.strategies.ChangeLog(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, entity.ChangeTypeAssign, logs[0].ChangeType)
	assert.Empty(t, logs[0].FromCategories)
	assert.Equal(t, sorted(a.ID, b.ID), logs[0].ToCategories)
	assert.Equal(t, alice.UserID, logs[0].ChangedBy)
}

func TestStrategyCreate_Validaciones(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	archived := f.category(t, admin, dto.CreateCategoryRequest{Name: "Vieja"})
	_, err := f.categories.SetArchived(ctx, admin, archived.ID, true)
	require.NoError(t, err)

	_, err = f.strategies.Create(ctx, alice, dto.CreateStrategyRequest{Name: ""})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.strategies.Create(ctx, alice, dto.CreateStrategyRequest{Name: "S", Status: "running"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.strategies.Create(ctx, alice, dto.CreateStrategyRequest{Name: "S", Categories: []string{uuid.NewString()}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.strategies.Create(ctx, alice, dto.CreateStrategyRequest{Name: "S", Categories: []string{archived.ID}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	list, err := f.strategies.List(ctx, dto.StrategyListRequest{})
	require.NoError(t, err)
	assert.Equal(t, 0, list.Total, "ninguna creación fallida deja estrategias")
}

func TestStrategyAssignCategories_TiposDeCambio(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.category(t, admin, dto.CreateCategoryRequest{Name: "A"})
	b := f.category(t, admin, dto.CreateCategoryRequest{Name: "B"})
	c := f.category(t, admin, dto.CreateCategoryRequest{Name: "C"})

	s, err := f.strategies.Create(ctx, alice, dto.CreateStrategyRequest{Name: "S"})
	require.NoError(t, err)

	_, err = f.strategies.AssignCategories(ctx, alice, s.ID, dto.AssignCategoriesRequest{Categories: []string{a.ID, b.ID}, Reason: "alta"})
	require.NoError(t, err)
	_, err = f.strategies.AssignCategories(ctx, alice, s.ID, dto.AssignCategoriesRequest{Categories: []string{a.ID}})
	require.NoError(t, err)
	out, err := f.strategies.AssignCategories(ctx, alice, s.ID, dto.AssignCategoriesRequest{Categories: []string{c.ID}})
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID}, out.Categories)

	// Mismo conjunto: no genera auditoría.
	_, err = f.strategies.AssignCategories(ctx, alice, s.ID, dto.AssignCategoriesRequest{Categories: []string{c.ID}})
	require.NoError(t, err)

	logs, err := f.strategies.ChangeLog(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	types := []string{logs[0].ChangeType, logs[1].ChangeType, logs[2].ChangeType}
	assert.ElementsMatch(t, []string{entity.ChangeTypeAssign, entity.ChangeTypeRemove, entity.ChangeTypeUpdate}, types)

	got, err := f.strategies.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID}, got.Categories)

	n, err := f.ds.StrategyCategories().CountByCategory(ctx, a.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStrategyAssignCategories_SoloAutorOAdmin(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.category(t, admin, dto.CreateCategoryRequest{Name: "A"})
	s, err := f.strategies.Create(ctx, alice, dto.CreateStrategyRequest{Name: "S"})
	require.NoError(t, err)

	_, err = f.strategies.AssignCategories(ctx, bob, s.ID, dto.AssignCategoriesRequest{Categories: []string{a.ID}})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.strategies.AssignCategories(ctx, admin, s.ID, dto.AssignCategoriesRequest{Categories: []string{a.ID}})
	assert.NoError(t, err)
}

func TestStrategyUpdate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	s, err := f.strategies.Create(ctx, alice, dto.CreateStrategyRequest{Name: "S"})
	require.NoError(t, err)

	out, err := f.strategies.Update(ctx, alice, s.ID, dto.UpdateStrategyRequest{Status: ptr(entity.StrategyStatusActive)})
	require.NoError(t, err)
	assert.Equal(t, entity.StrategyStatusActive, out.Status)

	_, err = f.strategies.Update(ctx, alice, s.ID, dto.UpdateStrategyRequest{Status: ptr("bogus")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.strategies.Update(ctx, bob, s.ID, dto.UpdateStrategyRequest{Name: ptr("X")})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestStrategyDelete_EliminaVinculosYConservaAuditoria(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.category(t, admin, dto.CreateCategoryRequest{Name: "A"})
	s, err := f.strategies.Create(ctx, alice, dto.CreateStrategyRequest{Name: "S", Categories: []string{a.ID}})
	require.NoError(t, err)

	assert.ErrorIs(t, f.strategies.Delete(ctx, bob, s.ID), domain.ErrForbidden)
	require.NoError(t, f.strategies.Delete(ctx, alice, s.ID))

	_, err = f.strategies.GetByID(ctx, s.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	n, err := f.ds.StrategyCategories().CountByCategory(ctx, a.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, f.categories.Delete(ctx, admin, a.ID), "la categoría queda libre")

	logs, err := f.ds.ChangeLogs().ListByStrategy(ctx, s.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestStrategyList_Filtros(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.strategies.Create(ctx, alice, dto.CreateStrategyRequest{Name: "Momentum diario", Status: entity.StrategyStatusActive})
	require.NoError(t, err)
	_, err = f.strategies.Create(ctx, bob, dto.CreateStrategyRequest{Name: "Grid"})
	require.NoError(t, err)

	out, err := f.strategies.List(ctx, dto.StrategyListRequest{Author: alice.UserID})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Total)

	out, err = f.strategies.List(ctx, dto.StrategyListRequest{Status: entity.StrategyStatusDraft})
	require.NoError(t, err)
	require.Equal(t, 1, out.Total)
	assert.Equal(t, "Grid", out.Items[0].Name)

	_, err = f.strategies.List(ctx, dto.StrategyListRequest{Status: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

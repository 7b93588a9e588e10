package usecase_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/quantlab-api/internal/application/dto"
	"github.com/jhoicas/quantlab-api/internal/application/usecase"
	"github.com/jhoicas/quantlab-api/internal/domain"
	"github.com/jhoicas/quantlab-api/internal/domain/entity"
	"github.com/jhoicas/quantlab-api/internal/infrastructure/memory"
	"github.com/jhoicas/quantlab-api/pkg/logger"
)

func TestTemplateCreate_ExigeCategoriaExistente(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.templates.Create(ctx, alice, dto.CreateTemplateRequest{Name: "T"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.templates.Create(ctx, alice, dto.CreateTemplateRequest{Name: "T", Category: uuid.NewString()})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	c := f.category(t, admin, dto.CreateCategoryRequest{Name: "A"})
	out, err := f.templates.Create(ctx, alice, dto.CreateTemplateRequest{
		Name:     "T",
		Category: c.ID,
		Price:    decimal.NewFromInt(10),
		Params:   []entity.TemplateParam{{Name: "periodo", Type: "int", Default: 14}},
	})
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", out.Version)
	assert.Equal(t, entity.TemplateSourceUser, out.Source)
	assert.Equal(t, entity.TemplateStatusDraft, out.Status)
	assert.Equal(t, entity.RiskMedium, out.RiskLevel)
	assert.True(t, out.Price.IsZero(), "una plantilla gratuita no tiene precio")
	assert.Len(t, out.Params, 1)
}

func TestTemplateCreate_CategoriaPrivadaAjena(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	secret := f.category(t, alice, dto.CreateCategoryRequest{Name: "Alice secreta", Visibility: "private"})
	public := f.category(t, admin, dto.CreateCategoryRequest{Name: "Pública"})

	_, err := f.templates.Create(ctx, bob, dto.CreateTemplateRequest{Name: "T", Category: secret.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	own, err := f.templates.Create(ctx, bob, dto.CreateTemplateRequest{Name: "T", Category: public.ID})
	require.NoError(t, err)
	_, err = f.templates.Update(ctx, bob, own.ID, dto.UpdateTemplateRequest{Category: &secret.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// Nada quedó colgado de la categoría: la dueña puede borrarla.
	require.NoError(t, f.categories.Delete(ctx, alice, secret.ID))

	_, err = f.templates.Create(ctx, admin, dto.CreateTemplateRequest{Name: "T", Category: public.ID})
	assert.NoError(t, err)
}

func TestTemplateCreate_Validaciones(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	c := f.category(t, admin, dto.CreateCategoryRequest{Name: "A"})

	_, err := f.templates.Create(ctx, alice, dto.CreateTemplateRequest{Name: "T", Category: c.ID, Source: entity.TemplateSourceOfficial})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.templates.Create(ctx, alice, dto.CreateTemplateRequest{Name: "T", Category: c.ID, RiskLevel: "extreme"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.templates.Create(ctx, alice, dto.CreateTemplateRequest{Name: "T", Category: c.ID, IsPaid: true, Price: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.templates.Create(ctx, alice, dto.CreateTemplateRequest{
		Name: "T", Category: c.ID,
		Params: []entity.TemplateParam{{Name: "p"}, {Name: "p"}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	official, err := f.templates.Create(ctx, admin, dto.CreateTemplateRequest{Name: "Oficial", Category: c.ID, Source: entity.TemplateSourceOfficial})
	require.NoError(t, err)
	assert.Equal(t, entity.TemplateSourceOfficial, official.Source)
}

func TestTemplateUpdate_CambioDeCategoria(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.category(t, admin, dto.CreateCategoryRequest{Name: "A"})
	b := f.category(t, admin, dto.CreateCategoryRequest{Name: "B"})
	tpl, err := f.templates.Create(ctx, alice, dto.CreateTemplateRequest{Name: "T", Category: a.ID})
	require.NoError(t, err)

	_, err = f.templates.Update(ctx, alice, tpl.ID, dto.UpdateTemplateRequest{Category: ptr(uuid.NewString())})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	out, err := f.templates.Update(ctx, alice, tpl.ID, dto.UpdateTemplateRequest{Category: ptr(b.ID)})
	require.NoError(t, err)
	assert.Equal(t, b.ID, out.Category)

	_, err = f.templates.Update(ctx, bob, tpl.ID, dto.UpdateTemplateRequest{Name: ptr("X")})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	assert.NoError(t, f.categories.Delete(ctx, admin, a.ID), "A ya no tiene plantillas")
}

func TestTemplateRecordUsage(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	c := f.category(t, admin, dto.CreateCategoryRequest{Name: "A"})
	tpl, err := f.templates.Create(ctx, alice, dto.CreateTemplateRequest{Name: "T", Category: c.ID})
	require.NoError(t, err)

	_, err = f.templates.RecordUsage(ctx, tpl.ID)
	require.NoError(t, err)
	out, err := f.templates.RecordUsage(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, out.UsageCount)

	got, err := f.templates.GetByID(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.UsageCount)

	_, err = f.templates.RecordUsage(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTemplateListYDelete(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.category(t, admin, dto.CreateCategoryRequest{Name: "A"})
	b := f.category(t, admin, dto.CreateCategoryRequest{Name: "B"})
	t1, err := f.templates.Create(ctx, alice, dto.CreateTemplateRequest{Name: "Uno", Category: a.ID})
	require.NoError(t, err)
	_, err = f.templates.Create(ctx, alice, dto.CreateTemplateRequest{Name: "Dos", Category: b.ID})
	require.NoError(t, err)

	out, err := f.templates.List(ctx, dto.TemplateListRequest{Category: a.ID})
	require.NoError(t, err)
	require.Equal(t, 1, out.Total)
	assert.Equal(t, "Uno", out.Items[0].Name)

	_, err = f.templates.List(ctx, dto.TemplateListRequest{Source: "market"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.ErrorIs(t, f.templates.Delete(ctx, bob, t1.ID), domain.ErrForbidden)
	require.NoError(t, f.templates.Delete(ctx, alice, t1.ID))
	_, err = f.templates.GetByID(ctx, t1.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTemplate_RegistraCreacionYBorrado(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Env: "production", Level: "info", Output: &buf})
	ds := memory.New()
	categories := usecase.NewCategoryUseCase(ds, log)
	templates := usecase.NewTemplateUseCase(ds, log)
	ctx := context.Background()

	c, err := categories.Create(ctx, admin, dto.CreateCategoryRequest{Name: "A"})
	require.NoError(t, err)
	tpl, err := templates.Create(ctx, alice, dto.CreateTemplateRequest{Name: "T", Category: c.ID})
	require.NoError(t, err)
	require.NoError(t, templates.Delete(ctx, alice, tpl.ID))

	out := buf.String()
	assert.Contains(t, out, `"component":"templates"`)
	assert.Contains(t, out, "plantilla creada")
	assert.Contains(t, out, "plantilla eliminada")
	assert.Contains(t, out, tpl.ID)
}

package fixtures_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/quantlab-api/internal/domain"
	"github.com/jhoicas/quantlab-api/internal/domain/repository"
	"github.com/jhoicas/quantlab-api/internal/infrastructure/fixtures"
	"github.com/jhoicas/quantlab-api/internal/infrastructure/memory"
)

func TestDefault_AplicaEnMemoria(t *testing.T) {
	d, err := fixtures.Default()
	require.NoError(t, err)

	src := memory.New()
	sum, err := d.Apply(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, len(d.Categories), sum.Categories)
	assert.Equal(t, len(d.Strategies), sum.Strategies)
	assert.Equal(t, len(d.Templates), sum.Templates)
	assert.Greater(t, sum.Links, 0)

	total, err := src.Categories().Count(context.Background(), repository.CategoryFilter{})
	require.NoError(t, err)
	assert.Equal(t, sum.Categories, total)

	// Las plantillas referencian categorías existentes.
	for _, tf := range d.Templates {
		c, err := src.Categories().GetByID(context.Background(), tf.Category)
		require.NoError(t, err)
		assert.NotNil(t, c, "plantilla %s sin categoría", tf.Name)
	}
}

func TestApply_HijoAntesQuePadre(t *testing.T) {
	const doc = `
categories:
  - id: 11111111-1111-4111-8111-0000000000b2
    name: Hija
    parent: 11111111-1111-4111-8111-0000000000b1
  - id: 11111111-1111-4111-8111-0000000000b1
    name: Padre
`
	d, err := fixtures.Load(strings.NewReader(doc))
	require.NoError(t, err)

	src := memory.New()
	sum, err := d.Apply(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Categories)

	child, err := src.Categories().GetByID(context.Background(), "11111111-1111-4111-8111-0000000000b2")
	require.NoError(t, err)
	require.NotNil(t, child)
	assert.Equal(t, "11111111-1111-4111-8111-0000000000b1", child.ParentID)
	assert.Equal(t, "public", child.Visibility)
}

func TestApply_PadreInexistente(t *testing.T) {
	const doc = `
categories:
  - id: 11111111-1111-4111-8111-0000000000c1
    name: Huérfana
    parent: 11111111-1111-4111-8111-0000000000ff
`
	d, err := fixtures.Load(strings.NewReader(doc))
	require.NoError(t, err)
	_, err = d.Apply(context.Background(), memory.New())
	assert.ErrorContains(t, err, "inexistente")
}

func TestApply_Ciclo(t *testing.T) {
	const doc = `
categories:
  - id: a
    name: A
    parent: b
  - id: b
    name: B
    parent: a
`
	d, err := fixtures.Load(strings.NewReader(doc))
	require.NoError(t, err)
	_, err = d.Apply(context.Background(), memory.New())
	assert.ErrorContains(t, err, "ciclo")
}

func TestApply_DosVecesChocaPorDuplicado(t *testing.T) {
	d, err := fixtures.Default()
	require.NoError(t, err)
	src := memory.New()
	_, err = d.Apply(context.Background(), src)
	require.NoError(t, err)

	_, err = d.Apply(context.Background(), src)
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestLoad_MetricaInvalida(t *testing.T) {
	const doc = `
strategies:
  - id: 22222222-2222-4222-8222-0000000000d1
    name: Mala
    performance: {returnRate: "abc"}
`
	d, err := fixtures.Load(strings.NewReader(doc))
	require.NoError(t, err)
	_, err = d.Apply(context.Background(), memory.New())
	assert.ErrorContains(t, err, "returnRate")
}

func TestLoad_YAMLInvalido(t *testing.T) {
	_, err := fixtures.Load(strings.NewReader("categories: [\n"))
	assert.Error(t, err)
}

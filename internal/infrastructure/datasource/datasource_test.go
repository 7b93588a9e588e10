package datasource

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/quantlab-api/internal/domain"
	"github.com/jhoicas/quantlab-api/internal/domain/repository"
	"github.com/jhoicas/quantlab-api/pkg/config"
	"github.com/jhoicas/quantlab-api/pkg/logger"
)

func cfgWith(driver, fallback string) *config.Config {
	return &config.Config{DataSource: config.DataSourceConfig{Driver: driver, Fallback: fallback}}
}

func failingConnect(calls *int) connectFunc {
	return func(context.Context, config.DBConfig, *logger.Logger) (repository.DataSource, error) {
		*calls++
		return nil, errors.New("dial tcp: connection refused")
	}
}

func TestOpen_Memory(t *testing.T) {
	calls := 0
	src, err := open(context.Background(), cfgWith(config.DriverMemory, config.FallbackUnavailable), nil, failingConnect(&calls))
	require.NoError(t, err)
	assert.Equal(t, "memory", src.Name())
	assert.Zero(t, calls, "memory no intenta conectar a PostgreSQL")

	n, err := src.Categories().Count(context.Background(), repository.CategoryFilter{})
	require.NoError(t, err)
	assert.Positive(t, n)
}

func TestOpen_PostgresCaidoConRespaldoMemory(t *testing.T) {
	calls := 0
	src, err := open(context.Background(), cfgWith(config.DriverPostgres, config.FallbackMemory), logger.Nop(), failingConnect(&calls))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "memory", src.Name())
}

func TestOpen_PostgresCaidoSinRespaldo(t *testing.T) {
	calls := 0
	src, err := open(context.Background(), cfgWith(config.DriverPostgres, config.FallbackUnavailable), logger.Nop(), failingConnect(&calls))
	require.NoError(t, err)
	assert.Equal(t, "unavailable", src.Name())

	ctx := context.Background()
	_, err = src.Categories().GetByID(ctx, "x")
	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
	_, err = src.Templates().CountByCategory(ctx)
	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
	err = src.RunInTx(ctx, func(repository.DataSource) error { return nil })
	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
	assert.ErrorContains(t, src.Ping(ctx), "connection refused")

	// La decisión es única: ninguna llamada posterior vuelve a intentar conectar.
	assert.Equal(t, 1, calls)
}

func TestOpen_PostgresDisponible(t *testing.T) {
	want := NewUnavailable(nil) // cualquier DataSource sirve como sustituto
	connect := func(context.Context, config.DBConfig, *logger.Logger) (repository.DataSource, error) {
		return want, nil
	}
	src, err := open(context.Background(), cfgWith(config.DriverPostgres, config.FallbackMemory), nil, connect)
	require.NoError(t, err)
	assert.Same(t, want, src)
}

func TestOpen_DriverDesconocido(t *testing.T) {
	calls := 0
	_, err := open(context.Background(), cfgWith("mongo", config.FallbackMemory), nil, failingConnect(&calls))
	assert.Error(t, err)
}

func TestOpenMemory_ArchivoInexistente(t *testing.T) {
	_, err := OpenMemory(context.Background(), "/no/existe.yaml")
	assert.Error(t, err)
}

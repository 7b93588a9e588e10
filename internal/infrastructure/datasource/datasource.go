// Package datasource elige una sola vez, al arrancar, la fuente de datos del proceso.
package datasource

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/quantlab-api/internal/domain/repository"
	"github.com/jhoicas/quantlab-api/internal/infrastructure/fixtures"
	"github.com/jhoicas/quantlab-api/internal/infrastructure/memory"
	"github.com/jhoicas/quantlab-api/internal/infrastructure/postgres"
	"github.com/jhoicas/quantlab-api/pkg/config"
	"github.com/jhoicas/quantlab-api/pkg/logger"
)

// ConnectTimeout tope para conectar y migrar PostgreSQL antes de aplicar el respaldo.
const ConnectTimeout = 10 * time.Second

// connectFunc abre la fuente PostgreSQL; reemplazable en tests.
type connectFunc func(ctx context.Context, cfg config.DBConfig, log *logger.Logger) (repository.DataSource, error)

// Open devuelve la fuente según cfg.DataSource:
//   - memory: fuente en memoria con el dataset de fixtures.
//   - postgres: pool + ping (+ migraciones). Si falla, Fallback decide entre la fuente en
//     memoria y Unavailable. La decisión no se revisa durante la vida del proceso.
//
// Solo devuelve error si la configuración es inválida o el dataset de fixtures no carga.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (repository.DataSource, error) {
	return open(ctx, cfg, log, connectPostgres)
}

func open(ctx context.Context, cfg *config.Config, log *logger.Logger, connect connectFunc) (repository.DataSource, error) {
	if log == nil {
		log = logger.Nop()
	}
	log = log.Named("datasource")

	switch cfg.DataSource.Driver {
	case config.DriverMemory:
		src, err := OpenMemory(ctx, cfg.DataSource.FixturesPath)
		if err != nil {
			return nil, err
		}
		log.Info().Str("source", src.Name()).Msg("fuente de datos en memoria")
		return src, nil
	case config.DriverPostgres:
	default:
		return nil, fmt.Errorf("driver de datos desconocido: %q", cfg.DataSource.Driver)
	}

	connectCtx, cancel := context.WithTimeout(ctx, ConnectTimeout)
	defer cancel()
	src, err := connect(connectCtx, cfg.DB, log)
	if err == nil {
		log.Info().Str("source", src.Name()).Msg("fuente de datos PostgreSQL")
		return src, nil
	}

	switch cfg.DataSource.Fallback {
	case config.FallbackMemory:
		log.Warn().Err(err).Msg("PostgreSQL no disponible; se sirve el dataset en memoria")
		return OpenMemory(ctx, cfg.DataSource.FixturesPath)
	default:
		log.Error().Err(err).Msg("PostgreSQL no disponible; las operaciones responderán 503")
		return NewUnavailable(err), nil
	}
}

// OpenMemory crea la fuente en memoria y le aplica el dataset de path (vacío = embebido).
func OpenMemory(ctx context.Context, path string) (*memory.Source, error) {
	var (
		d   *fixtures.Dataset
		err error
	)
	if path != "" {
		d, err = fixtures.LoadFile(path)
	} else {
		d, err = fixtures.Default()
	}
	if err != nil {
		return nil, err
	}
	src := memory.New()
	if _, err := d.Apply(ctx, src); err != nil {
		return nil, fmt.Errorf("aplicar fixtures: %w", err)
	}
	return src, nil
}

func connectPostgres(ctx context.Context, cfg config.DBConfig, log *logger.Logger) (repository.DataSource, error) {
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		applied, err := postgres.EnsureSchema(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("migraciones: %w", err)
		}
		for _, name := range applied {
			log.Info().Str("migration", name).Msg("migración aplicada")
		}
	}
	return postgres.NewSource(pool), nil
}

// seed carga el dataset de fixtures (categorías, estrategias y plantillas) en PostgreSQL.
//
// Uso: go run ./cmd/seed [-fixtures ruta/fixtures.yaml] [-migrate=false]
// Sin -fixtures usa DATASOURCE_FIXTURES y, si está vacío, el dataset embebido.
// La carga corre en una transacción: si un registro ya existe no se aplica nada.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jhoicas/quantlab-api/internal/infrastructure/fixtures"
	"github.com/jhoicas/quantlab-api/internal/infrastructure/postgres"
	"github.com/jhoicas/quantlab-api/pkg/config"
	"github.com/jhoicas/quantlab-api/pkg/logger"
)

func main() {
	fixturesPath := flag.String("fixtures", "", "YAML de fixtures (por defecto DATASOURCE_FIXTURES o el embebido)")
	migrate := flag.Bool("migrate", true, "aplicar migraciones antes de cargar")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel}).Named("seed")

	path := *fixturesPath
	if path == "" {
		path = cfg.DataSource.FixturesPath
	}
	var d *fixtures.Dataset
	if path != "" {
		d, err = fixtures.LoadFile(path)
	} else {
		d, err = fixtures.Default()
	}
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("leer fixtures")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if *migrate {
		applied, err := postgres.EnsureSchema(ctx, pool)
		if err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
		for _, name := range applied {
			log.Info().Str("migration", name).Msg("migración aplicada")
		}
	}

	summary, err := d.Apply(ctx, postgres.NewSource(pool))
	if err != nil {
		log.Fatal().Err(err).Msg("cargar fixtures")
	}
	log.Info().
		Int("categories", summary.Categories).
		Int("strategies", summary.Strategies).
		Int("links", summary.Links).
		Int("templates", summary.Templates).
		Msg("fixtures cargados")
}

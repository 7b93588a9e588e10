package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	_ "github.com/jhoicas/quantlab-api/docs"
	"github.com/jhoicas/quantlab-api/internal/application/usecase"
	"github.com/jhoicas/quantlab-api/internal/infrastructure/datasource"
	httpRouter "github.com/jhoicas/quantlab-api/internal/interfaces/http"
	"github.com/jhoicas/quantlab-api/pkg/authz"
	"github.com/jhoicas/quantlab-api/pkg/config"
	"github.com/jhoicas/quantlab-api/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

// @title        QuantLab API
// @version      1.0
// @description  Catálogo de categorías de estrategias de trading, estrategias y plantillas.
// @BasePath     /
// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("datasource", cfg.DataSource.Driver).
		Str("fallback", cfg.DataSource.Fallback).
		Msg("iniciando aplicación")
	if cfg.Auth.AllowMockTokens {
		log.Warn().Msg("tokens mock habilitados; solo para desarrollo")
	}

	// La fuente se decide una sola vez al arrancar.
	ctx := context.Background()
	ds, err := datasource.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("abrir fuente de datos")
	}
	defer ds.Close()

	authorizer, err := authz.New(cfg.Authz.PolicyPath)
	if err != nil {
		log.Fatal().Err(err).Msg("cargar política de autorización")
	}

	categoryUC := usecase.NewCategoryUseCase(ds, log)
	strategyUC := usecase.NewStrategyUseCase(ds, log)
	templateUC := usecase.NewTemplateUseCase(ds, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: httpRouter.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New())
	app.Use(httpRouter.RequestLogger(log))

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "QuantLab API",
		}))
	} else {
		log.Warn().Str("file", swaggerFile).Msg("swagger.json no encontrado; /docs deshabilitado")
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		DataSource: ds,
		CategoryUC: categoryUC,
		StrategyUC: strategyUC,
		TemplateUC: templateUC,
		Authorizer: authorizer,
		Auth: httpRouter.AuthOptions{
			Secret:          cfg.JWT.Secret,
			AllowMockTokens: cfg.Auth.AllowMockTokens,
		},
		AppName: cfg.App.Name,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

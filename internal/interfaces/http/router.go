package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/quantlab-api/internal/application/usecase"
	"github.com/jhoicas/quantlab-api/internal/domain/repository"
	"github.com/jhoicas/quantlab-api/pkg/authz"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	DataSource repository.DataSource
	CategoryUC *usecase.CategoryUseCase
	StrategyUC *usecase.StrategyUseCase
	TemplateUC *usecase.TemplateUseCase
	Authorizer *authz.Authorizer
	Auth       AuthOptions
	AppName    string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	health := NewHealthHandler(deps.DataSource, deps.AppName)
	app.Get("/health", health.Health)

	// Rutas protegidas (requieren Bearer Token)
	api := app.Group("/api", AuthMiddleware(deps.Auth))
	can := func(object, action string) fiber.Handler {
		return RequirePermission(deps.Authorizer, object, action)
	}

	// Categories. Las rutas fijas van antes de /:id.
	categories := api.Group("/categories")
	ch := NewCategoryHandler(deps.CategoryUC)
	categories.Get("/", can(authz.ObjectCategories, authz.ActionRead), ch.List)
	categories.Get("/tree", can(authz.ObjectCategories, authz.ActionRead), ch.Tree)
	categories.Get("/batch", can(authz.ObjectCategories, authz.ActionRead), ch.Batch)
	categories.Get("/stats", can(authz.ObjectCategories, authz.ActionRead), ch.Stats)
	categories.Get("/statistics", can(authz.ObjectCategories, authz.ActionRead), ch.Statistics)
	categories.Get("/distribution", can(authz.ObjectCategories, authz.ActionRead), ch.Distribution)
	categories.Get("/performance", can(authz.ObjectCategories, authz.ActionRead), ch.Performance)
	categories.Get("/:categoryId/strategies", can(authz.ObjectCategories, authz.ActionRead), ch.Strategies)
	categories.Get("/:id", can(authz.ObjectCategories, authz.ActionRead), ch.GetByID)
	categories.Post("/", can(authz.ObjectCategories, authz.ActionCreate), ch.Create)
	categories.Put("/:id", can(authz.ObjectCategories, authz.ActionUpdate), ch.Update)
	categories.Patch("/:id/archive", can(authz.ObjectCategories, authz.ActionUpdate), ch.Archive)
	categories.Delete("/:id", can(authz.ObjectCategories, authz.ActionDelete), ch.Delete)

	// Templates
	templates := api.Group("/templates")
	th := NewTemplateHandler(deps.TemplateUC)
	templates.Get("/", can(authz.ObjectTemplates, authz.ActionRead), th.List)
	templates.Get("/:id", can(authz.ObjectTemplates, authz.ActionRead), th.GetByID)
	templates.Post("/", can(authz.ObjectTemplates, authz.ActionCreate), th.Create)
	templates.Put("/:id", can(authz.ObjectTemplates, authz.ActionUpdate), th.Update)
	templates.Delete("/:id", can(authz.ObjectTemplates, authz.ActionDelete), th.Delete)
	templates.Post("/:id/use", can(authz.ObjectTemplates, authz.ActionUse), th.Use)

	// Strategies
	strategies := api.Group("/strategies")
	sh := NewStrategyHandler(deps.StrategyUC)
	strategies.Get("/", can(authz.ObjectStrategies, authz.ActionRead), sh.List)
	strategies.Get("/:id", can(authz.ObjectStrategies, authz.ActionRead), sh.GetByID)
	strategies.Post("/", can(authz.ObjectStrategies, authz.ActionCreate), sh.Create)
	strategies.Put("/:id", can(authz.ObjectStrategies, authz.ActionUpdate), sh.Update)
	strategies.Delete("/:id", can(authz.ObjectStrategies, authz.ActionDelete), sh.Delete)
	strategies.Put("/:id/categories", can(authz.ObjectStrategies, authz.ActionAssign), sh.AssignCategories)
	strategies.Get("/:id/category-logs", can(authz.ObjectStrategies, authz.ActionRead), sh.ChangeLog)
}

package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/quantlab-api/internal/domain/repository"
)

// HealthHandler informa si el proceso vive y qué fuente de datos quedó activa al arrancar.
type HealthHandler struct {
	ds      repository.DataSource
	appName string
}

// NewHealthHandler construye el handler.
func NewHealthHandler(ds repository.DataSource, appName string) *HealthHandler {
	return &HealthHandler{ds: ds, appName: appName}
}

// Health godoc
// @Summary      Estado del servicio
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	body := fiber.Map{"status": "ok", "app": h.appName, "datasource": h.ds.Name()}
	if err := h.ds.Ping(ctx); err != nil {
		body["status"] = "degraded"
		body["error"] = err.Error()
		return c.Status(fiber.StatusServiceUnavailable).JSON(body)
	}
	return c.JSON(body)
}

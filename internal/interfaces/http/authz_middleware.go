package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/quantlab-api/internal/application/dto"
)

// authorizer contrato mínimo del enforcer; lo implementa *authz.Authorizer.
type authorizer interface {
	Authorize(role, object, action string) (bool, error)
}

// RequirePermission consulta la política (rol → recurso, acción). Usar después de AuthMiddleware.
//   - 401 si el token no trae rol.
//   - 403 si la política no lo permite.
//   - 500 si el enforcer falla.
func RequirePermission(a authorizer, object, action string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := GetRole(c)
		if role == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: CodeMissingRole, Message: "el token no incluye rol"})
		}
		ok, err := a.Authorize(role, object, action)
		if err != nil {
			return respondError(c, err)
		}
		if !ok {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error:   CodeForbidden,
				Message: "el rol '" + role + "' no puede " + action + " " + object,
			})
		}
		return c.Next()
	}
}

package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/quantlab-api/internal/application/dto"
	"github.com/jhoicas/quantlab-api/internal/domain/entity"
	"github.com/jhoicas/quantlab-api/pkg/jwt"
)

// Locals keys en Fiber.
const (
	LocalUserID = "user_id"
	LocalRole   = "role"
	LocalError  = "error"
)

// AuthOptions configuración del middleware de autenticación.
type AuthOptions struct {
	Secret          string
	AllowMockTokens bool // acepta "mock:<rol>:<userID>" (solo desarrollo)
}

// AuthMiddleware valida el Bearer Token y deja UserID y Role en c.Locals.
func AuthMiddleware(opts AuthOptions) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: CodeMissingToken, Message: "Authorization header requerido"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: CodeInvalidToken, Message: "formato: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: CodeMissingToken, Message: "token vacío"})
		}

		var userID, role string
		var err error
		if opts.AllowMockTokens && jwt.IsMock(tokenString) {
			userID, role, err = jwt.ParseMock(tokenString)
			if err == nil && !entity.IsValidRole(role) {
				err = jwt.ErrMockToken
			}
		} else {
			userID, role, err = jwt.Parse(opts.Secret, tokenString)
		}
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: CodeInvalidToken, Message: "token inválido o expirado"})
		}
		c.Locals(LocalUserID, userID)
		c.Locals(LocalRole, role)
		return c.Next()
	}
}

// GetUserID devuelve el UserID del contexto (después del middleware de auth).
func GetUserID(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalUserID).(string)
	return s
}

// GetRole devuelve el rol del contexto (después del middleware de auth).
func GetRole(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalRole).(string)
	return s
}

// GetActor arma el actor de dominio a partir del contexto.
func GetActor(c *fiber.Ctx) entity.Actor {
	return entity.Actor{UserID: GetUserID(c), Role: GetRole(c)}
}

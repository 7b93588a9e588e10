package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/quantlab-api/internal/application/dto"
	"github.com/jhoicas/quantlab-api/internal/application/usecase"
)

// StrategyHandler maneja las peticiones HTTP para Strategy (protegido).
type StrategyHandler struct {
	uc *usecase.StrategyUseCase
}

// NewStrategyHandler construye el handler.
func NewStrategyHandler(uc *usecase.StrategyUseCase) *StrategyHandler {
	return &StrategyHandler{uc: uc}
}

// List godoc
// @Summary      Listar estrategias
// @Tags         strategies
// @Security     Bearer
// @Produce      json
// @Param        author  query  string  false  "ID del autor"
// @Param        status  query  string  false  "draft | active | paused | archived"
// @Param        search  query  string  false  "Texto en nombre o descripción"
// @Param        page    query  int     false  "Página"  default(1)
// @Param        limit   query  int     false  "Límite"  default(20)
// @Success      200  {object}  dto.StrategyListResponse
// @Router       /api/strategies [get]
func (h *StrategyHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext(), dto.StrategyListRequest{
		PageRequest: pageFromQuery(c),
		Author:      c.Query("author"),
		Status:      c.Query("status"),
		Search:      c.Query("search"),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener estrategia por ID
// @Tags         strategies
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la estrategia"
// @Success      200  {object}  dto.StrategyResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/strategies/{id} [get]
func (h *StrategyHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Crear estrategia
// @Tags         strategies
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateStrategyRequest  true  "Datos de la estrategia"
// @Success      201   {object}  dto.StrategyResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/strategies [post]
func (h *StrategyHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateStrategyRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, CodeInvalidBody, "cuerpo inválido")
	}
	out, err := h.uc.Create(c.UserContext(), GetActor(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Update godoc
// @Summary      Actualizar estrategia
// @Tags         strategies
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la estrategia"
// @Param        body  body  dto.UpdateStrategyRequest  true  "Campos a actualizar"
// @Success      200   {object}  dto.StrategyResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/strategies/{id} [put]
func (h *StrategyHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateStrategyRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, CodeInvalidBody, "cuerpo inválido")
	}
	out, err := h.uc.Update(c.UserContext(), GetActor(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar estrategia
// @Tags         strategies
// @Security     Bearer
// @Param        id   path  string  true  "ID de la estrategia"
// @Success      204
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/strategies/{id} [delete]
func (h *StrategyHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), GetActor(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AssignCategories godoc
// @Summary      Reemplazar categorías de una estrategia
// @Description  Registra una entrada en el historial de cambios.
// @Tags         strategies
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la estrategia"
// @Param        body  body  dto.AssignCategoriesRequest  true  "Categorías y motivo"
// @Success      200   {object}  dto.StrategyResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/strategies/{id}/categories [put]
func (h *StrategyHandler) AssignCategories(c *fiber.Ctx) error {
	var in dto.AssignCategoriesRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, CodeInvalidBody, "cuerpo inválido")
	}
	out, err := h.uc.AssignCategories(c.UserContext(), GetActor(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ChangeLog godoc
// @Summary      Historial de categorías de una estrategia
// @Tags         strategies
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la estrategia"
// @Success      200  {array}   dto.CategoryChangeLogResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/strategies/{id}/category-logs [get]
func (h *StrategyHandler) ChangeLog(c *fiber.Ctx) error {
	out, err := h.uc.ChangeLog(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/quantlab-api/internal/application/dto"
	"github.com/jhoicas/quantlab-api/internal/application/usecase"
)

// CategoryHandler maneja las peticiones HTTP para Category (protegido).
type CategoryHandler struct {
	uc *usecase.CategoryUseCase
}

// NewCategoryHandler construye el handler.
func NewCategoryHandler(uc *usecase.CategoryUseCase) *CategoryHandler {
	return &CategoryHandler{uc: uc}
}

func categoryListRequest(c *fiber.Ctx) (dto.CategoryListRequest, error) {
	in := dto.CategoryListRequest{
		PageRequest: pageFromQuery(c),
		Parent:      c.Query("parent"),
		Visibility:  c.Query("visibility"),
		Tag:         c.Query("tag"),
		Search:      c.Query("search"),
		Sort:        c.Query("sort"),
		Order:       c.Query("order"),
	}
	var err error
	if in.Archived, err = optionalBool(c, "archived"); err != nil {
		return in, err
	}
	if in.IsSystem, err = optionalBool(c, "isSystem"); err != nil {
		return in, err
	}
	return in, nil
}

// List godoc
// @Summary      Listar categorías
// @Tags         categories
// @Security     Bearer
// @Produce      json
// @Param        parent      query  string  false  "ID del padre o root"
// @Param        visibility  query  string  false  "public | private"
// @Param        archived    query  bool    false  "Archivadas"
// @Param        isSystem    query  bool    false  "De sistema"
// @Param        tag         query  string  false  "Etiqueta exacta"
// @Param        search      query  string  false  "Texto en nombre, descripción o etiquetas"
// @Param        sort        query  string  false  "name | createdAt | updatedAt"  default(createdAt)
// @Param        order       query  string  false  "asc | desc"  default(desc)
// @Param        page        query  int     false  "Página"  default(1)
// @Param        limit       query  int     false  "Límite"  default(20)
// @Success      200  {object}  dto.CategoryListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/categories [get]
func (h *CategoryHandler) List(c *fiber.Ctx) error {
	in, err := categoryListRequest(c)
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.List(c.UserContext(), GetActor(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Tree godoc
// @Summary      Árbol de categorías
// @Description  Bosque de categorías visibles; hijos ordenados por nombre.
// @Tags         categories
// @Security     Bearer
// @Produce      json
// @Param        archived  query  bool    false  "Archivadas"
// @Param        search    query  string  false  "Texto"
// @Success      200  {array}   dto.CategoryTreeNode
// @Router       /api/categories/tree [get]
func (h *CategoryHandler) Tree(c *fiber.Ctx) error {
	in, err := categoryListRequest(c)
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.Tree(c.UserContext(), GetActor(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Batch godoc
// @Summary      Obtener varias categorías
// @Description  Devuelve las existentes; los ids mal formados se ignoran.
// @Tags         categories
// @Security     Bearer
// @Produce      json
// @Param        ids  query  string  true  "IDs separados por coma"
// @Success      200  {array}   dto.CategoryResponse
// @Router       /api/categories/batch [get]
func (h *CategoryHandler) Batch(c *fiber.Ctx) error {
	out, err := h.uc.GetByIDs(c.UserContext(), GetActor(c), splitIDs(c.Query("ids")))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Stats godoc
// @Summary      Conteos de categorías
// @Tags         categories
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.CategoryStatsResponse
// @Router       /api/categories/stats [get]
func (h *CategoryHandler) Stats(c *fiber.Ctx) error {
	out, err := h.uc.Stats(c.UserContext(), GetActor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Statistics godoc
// @Summary      Estadísticas de uso por categoría
// @Tags         categories
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.CategoryStatisticsResponse
// @Router       /api/categories/statistics [get]
func (h *CategoryHandler) Statistics(c *fiber.Ctx) error {
	out, err := h.uc.Statistics(c.UserContext(), GetActor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Distribution godoc
// @Summary      Distribución de estrategias por categoría
// @Tags         categories
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.CategoryDistributionResponse
// @Router       /api/categories/distribution [get]
func (h *CategoryHandler) Distribution(c *fiber.Ctx) error {
	out, err := h.uc.Distribution(c.UserContext(), GetActor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Performance godoc
// @Summary      Rendimiento promedio por categoría
// @Tags         categories
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.CategoryPerformance
// @Router       /api/categories/performance [get]
func (h *CategoryHandler) Performance(c *fiber.Ctx) error {
	out, err := h.uc.PerformanceComparison(c.UserContext(), GetActor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener categoría por ID
// @Tags         categories
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la categoría"
// @Success      200  {object}  dto.CategoryResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/categories/{id} [get]
func (h *CategoryHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.UserContext(), GetActor(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Crear categoría
// @Tags         categories
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateCategoryRequest  true  "Datos de la categoría"
// @Success      201   {object}  dto.CategoryResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/categories [post]
func (h *CategoryHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateCategoryRequest
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
// @Summary      Actualizar categoría
// @Description  parent = "root" o "" mueve a la raíz. Una categoría con hijos no se puede mover.
// @Tags         categories
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la categoría"
// @Param        body  body  dto.UpdateCategoryRequest  true  "Campos a actualizar"
// @Success      200   {object}  dto.CategoryResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/categories/{id} [put]
func (h *CategoryHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateCategoryRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, CodeInvalidBody, "cuerpo inválido")
	}
	out, err := h.uc.Update(c.UserContext(), GetActor(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Archive godoc
// @Summary      Archivar o reactivar categoría
// @Tags         categories
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la categoría"
// @Param        body  body  dto.ArchiveCategoryRequest  true  "Estado"
// @Success      200   {object}  dto.CategoryResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/categories/{id}/archive [patch]
func (h *CategoryHandler) Archive(c *fiber.Ctx) error {
	var in dto.ArchiveCategoryRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, CodeInvalidBody, "cuerpo inválido")
	}
	out, err := h.uc.SetArchived(c.UserContext(), GetActor(c), c.Params("id"), in.Archived)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar categoría
// @Description  Falla con 409 si tiene hijos, estrategias o plantillas; 403 si es de sistema.
// @Tags         categories
// @Security     Bearer
// @Param        id   path  string  true  "ID de la categoría"
// @Success      204
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/categories/{id} [delete]
func (h *CategoryHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), GetActor(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Strategies godoc
// @Summary      Estrategias de una categoría
// @Tags         categories
// @Security     Bearer
// @Produce      json
// @Param        categoryId  path  string  true  "ID de la categoría"
// @Success      200  {array}   dto.StrategyResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/categories/{categoryId}/strategies [get]
func (h *CategoryHandler) Strategies(c *fiber.Ctx) error {
	out, err := h.uc.StrategiesByCategory(c.UserContext(), GetActor(c), c.Params("categoryId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/quantlab-api/internal/application/dto"
	"github.com/jhoicas/quantlab-api/internal/domain"
	"github.com/jhoicas/quantlab-api/internal/domain/category"
	"github.com/jhoicas/quantlab-api/internal/domain/entity"
	"github.com/jhoicas/quantlab-api/internal/domain/repository"
	"github.com/jhoicas/quantlab-api/pkg/logger"
)

// RootParent centinela de "sin padre" aceptado en filtros y actualizaciones.
const RootParent = "root"

// CategoryUseCase gestiona el bosque de categorías y sus reglas de consistencia:
//   - unicidad de nombre entre hermanos,
//   - sin auto-referencia ni re-parentado de nodos con hijos,
//   - borrado bloqueado por subcategorías, estrategias o plantillas asociadas.
type CategoryUseCase struct {
	ds  repository.DataSource
	log *logger.Logger
}

// NewCategoryUseCase construye el caso de uso sobre la fuente de datos elegida al arrancar.
func NewCategoryUseCase(ds repository.DataSource, log *logger.Logger) *CategoryUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &CategoryUseCase{ds: ds, log: log.Named("categories")}
}

// List lista categorías con filtros, paginación y orden (por defecto createdAt desc).
func (uc *CategoryUseCase) List(ctx context.Context, actor entity.Actor, in dto.CategoryListRequest) (*dto.CategoryListResponse, error) {
	filter, err := buildCategoryFilter(actor, in)
	if err != nil {
		return nil, err
	}
	opts, err := sortOptions(in.Sort, in.Order)
	if err != nil {
		return nil, err
	}
	in.Normalize()
	opts.Limit = in.Limit
	opts.Offset = in.Offset()

	repo := uc.ds.Categories()
	total, err := repo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	list, err := repo.List(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	items := make([]dto.CategoryResponse, 0, len(list))
	for _, c := range list {
		items = append(items, toCategoryResponse(c))
	}
	return &dto.CategoryListResponse{
		Items:     items,
		Total:     total,
		Page:      in.Page,
		PageCount: dto.PageCount(total, in.Limit),
	}, nil
}

// GetByID obtiene una categoría visible para el actor.
func (uc *CategoryUseCase) GetByID(ctx context.Context, actor entity.Actor, id string) (*dto.CategoryResponse, error) {
	c, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.VisibleTo(actor) {
		return nil, fmt.Errorf("%w: categoría privada de otro usuario", domain.ErrForbidden)
	}
	out := toCategoryResponse(c)
	return &out, nil
}

// GetByIDs devuelve el subconjunto existente (y visible) de los IDs pedidos; los IDs mal formados se ignoran.
func (uc *CategoryUseCase) GetByIDs(ctx context.Context, actor entity.Actor, ids []string) ([]dto.CategoryResponse, error) {
	valid := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if _, err := uuid.Parse(id); err != nil {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		valid = append(valid, id)
	}
	out := make([]dto.CategoryResponse, 0, len(valid))
	if len(valid) == 0 {
		return out, nil
	}
	list, err := uc.ds.Categories().GetByIDs(ctx, valid)
	if err != nil {
		return nil, err
	}
	for _, c := range list {
		if c.VisibleTo(actor) {
			out = append(out, toCategoryResponse(c))
		}
	}
	return out, nil
}

// Create crea una categoría. Los usuarios no administradores solo pueden crear categorías privadas propias.
func (uc *CategoryUseCase) Create(ctx context.Context, actor entity.Actor, in dto.CreateCategoryRequest) (*dto.CategoryResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name es requerido", domain.ErrInvalidInput)
	}
	visibility := in.Visibility
	if visibility == "" {
		visibility = entity.VisibilityPublic
	}
	if !entity.IsValidVisibility(visibility) {
		return nil, fmt.Errorf("%w: visibility debe ser public o private", domain.ErrInvalidInput)
	}
	if !actor.IsAdmin() {
		if in.IsSystem {
			return nil, fmt.Errorf("%w: solo un administrador puede crear categorías de sistema", domain.ErrForbidden)
		}
		if visibility != entity.VisibilityPrivate {
			return nil, fmt.Errorf("%w: solo un administrador puede crear categorías públicas", domain.ErrForbidden)
		}
	}

	repo := uc.ds.Categories()
	parentID := normalizeParent(in.Parent)
	if parentID != "" {
		if err := uc.requireParent(ctx, actor, parentID); err != nil {
			return nil, err
		}
	}
	if err := uc.ensureUniqueName(ctx, name, parentID, ""); err != nil {
		return nil, err
	}

	owner := ""
	if visibility == entity.VisibilityPrivate && !in.IsSystem {
		owner = actor.UserID
		if owner == "" {
			return nil, fmt.Errorf("%w: una categoría privada requiere propietario", domain.ErrInvalidInput)
		}
	}

	now := time.Now().UTC()
	c := &entity.Category{
		ID:          uuid.New().String(),
		Name:        name,
		Description: in.Description,
		ParentID:    parentID,
		Tags:        normalizeTags(in.Tags),
		Visibility:  visibility,
		OwnerID:     owner,
		IsSystem:    in.IsSystem,
		Archived:    false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := repo.Create(ctx, c); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, siblingConflict(name)
		}
		return nil, err
	}
	uc.log.Info().Str("category_id", c.ID).Str("parent_id", parentID).Str("actor", actor.UserID).Msg("categoría creada")
	out := toCategoryResponse(c)
	return &out, nil
}

// Update actualiza una categoría. Un nodo con hijos no puede cambiar de padre.
func (uc *CategoryUseCase) Update(ctx context.Context, actor entity.Actor, id string, in dto.UpdateCategoryRequest) (*dto.CategoryResponse, error) {
	c, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeCategoryWrite(actor, c); err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		if in.IsSystem != nil && *in.IsSystem != c.IsSystem {
			return nil, fmt.Errorf("%w: solo un administrador puede cambiar isSystem", domain.ErrForbidden)
		}
		if in.Visibility != nil && *in.Visibility == entity.VisibilityPublic {
			return nil, fmt.Errorf("%w: solo un administrador puede publicar categorías", domain.ErrForbidden)
		}
	}

	repo := uc.ds.Categories()
	scopeChanged := false
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name no puede estar vacío", domain.ErrInvalidInput)
		}
		if name != c.Name {
			c.Name = name
			scopeChanged = true
		}
	}
	if in.Parent != nil {
		parentID := normalizeParent(*in.Parent)
		if parentID != c.ParentID {
			if parentID == c.ID {
				return nil, fmt.Errorf("%w: una categoría no puede ser su propio padre", domain.ErrInvalidInput)
			}
			if parentID != "" {
				if err := uc.requireParent(ctx, actor, parentID); err != nil {
					return nil, err
				}
			}
			children, err := repo.CountChildren(ctx, c.ID)
			if err != nil {
				return nil, err
			}
			if children > 0 {
				return nil, fmt.Errorf("%w: una categoría con subcategorías no puede cambiar de padre", domain.ErrConflict)
			}
			c.ParentID = parentID
			scopeChanged = true
		}
	}
	if scopeChanged {
		if err := uc.ensureUniqueName(ctx, c.Name, c.ParentID, c.ID); err != nil {
			return nil, err
		}
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	if in.Tags != nil {
		c.Tags = normalizeTags(*in.Tags)
	}
	if in.IsSystem != nil {
		c.IsSystem = *in.IsSystem
	}
	if in.Visibility != nil {
		if !entity.IsValidVisibility(*in.Visibility) {
			return nil, fmt.Errorf("%w: visibility debe ser public o private", domain.ErrInvalidInput)
		}
		c.Visibility = *in.Visibility
	}
	if c.Visibility == entity.VisibilityPrivate && !c.IsSystem && c.OwnerID == "" {
		if actor.UserID == "" {
			return nil, fmt.Errorf("%w: una categoría privada requiere propietario", domain.ErrInvalidInput)
		}
		c.OwnerID = actor.UserID
	}
	if in.Archived != nil {
		c.Archived = *in.Archived
	}
	c.UpdatedAt = time.Now().UTC()

	if err := repo.Update(ctx, c); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, siblingConflict(c.Name)
		}
		return nil, err
	}
	out := toCategoryResponse(c)
	return &out, nil
}

// SetArchived alterna el archivado (borrado lógico) de una categoría: active ↔ archived.
func (uc *CategoryUseCase) SetArchived(ctx context.Context, actor entity.Actor, id string, archived bool) (*dto.CategoryResponse, error) {
	c, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeCategoryWrite(actor, c); err != nil {
		return nil, err
	}
	if c.Archived != archived {
		c.Archived = archived
		c.UpdatedAt = time.Now().UTC()
		if err := uc.ds.Categories().Update(ctx, c); err != nil {
			return nil, err
		}
		uc.log.Info().Str("category_id", c.ID).Bool("archived", archived).Msg("archivado de categoría actualizado")
	}
	out := toCategoryResponse(c)
	return &out, nil
}

// Delete elimina físicamente una categoría sin subcategorías, vínculos de estrategias ni plantillas.
func (uc *CategoryUseCase) Delete(ctx context.Context, actor entity.Actor, id string) error {
	c, err := uc.load(ctx, id)
	if err != nil {
		return err
	}
	if c.IsSystem {
		return fmt.Errorf("%w: las categorías de sistema no se pueden eliminar", domain.ErrForbidden)
	}
	if err := authorizeCategoryWrite(actor, c); err != nil {
		return err
	}

	children, err := uc.ds.Categories().CountChildren(ctx, c.ID)
	if err != nil {
		return err
	}
	if children > 0 {
		return fmt.Errorf("%w: la categoría tiene %d subcategorías", domain.ErrConflict, children)
	}
	links, err := uc.ds.StrategyCategories().CountByCategory(ctx, c.ID)
	if err != nil {
		return err
	}
	if links > 0 {
		return fmt.Errorf("%w: la categoría tiene %d estrategias asociadas", domain.ErrConflict, links)
	}
	templates, err := uc.ds.Templates().Count(ctx, repository.TemplateFilter{CategoryID: c.ID})
	if err != nil {
		return err
	}
	if templates > 0 {
		return fmt.Errorf("%w: la categoría tiene %d plantillas asociadas", domain.ErrConflict, templates)
	}

	if err := uc.ds.Categories().Delete(ctx, c.ID); err != nil {
		return err
	}
	uc.log.Info().Str("category_id", c.ID).Str("actor", actor.UserID).Msg("categoría eliminada")
	return nil
}

// Tree devuelve el bosque de las categorías que cumplen el filtro (paginación y parent se ignoran).
func (uc *CategoryUseCase) Tree(ctx context.Context, actor entity.Actor, in dto.CategoryListRequest) ([]*dto.CategoryTreeNode, error) {
	in.Parent = ""
	filter, err := buildCategoryFilter(actor, in)
	if err != nil {
		return nil, err
	}
	list, err := uc.ds.Categories().List(ctx, filter, repository.ListOptions{SortField: repository.SortByName})
	if err != nil {
		return nil, err
	}
	roots, report := category.BuildForest(list)
	if report.Unreachable > 0 {
		uc.log.Warn().
			Int("unreachable", report.Unreachable).
			Bool("truncated", report.Truncated).
			Msg("categorías fuera del árbol (huérfanas, ciclo o profundidad máxima)")
	}
	return toTreeNodes(roots), nil
}

// StrategiesByCategory resuelve los vínculos de la categoría a estrategias.
func (uc *CategoryUseCase) StrategiesByCategory(ctx context.Context, actor entity.Actor, id string) ([]dto.StrategyResponse, error) {
	c, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.VisibleTo(actor) {
		return nil, fmt.Errorf("%w: categoría privada de otro usuario", domain.ErrForbidden)
	}
	links, err := uc.ds.StrategyCategories().ListByCategory(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.StrategyResponse, 0, len(links))
	if len(links) == 0 {
		return out, nil
	}
	ids := make([]string, 0, len(links))
	for _, l := range links {
		ids = append(ids, l.StrategyID)
	}
	strategies, err := uc.ds.Strategies().GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*entity.Strategy, len(strategies))
	for _, s := range strategies {
		byID[s.ID] = s
	}
	for _, id := range ids {
		if s, ok := byID[id]; ok {
			out = append(out, toStrategyResponse(s, nil))
		}
	}
	return out, nil
}

// load valida el ID y obtiene la categoría; ErrNotFound si no existe.
func (uc *CategoryUseCase) load(ctx context.Context, id string) (*entity.Category, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	c, err := uc.ds.Categories().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("%w: categoría %s", domain.ErrNotFound, id)
	}
	return c, nil
}

// requireParent exige que el padre exista y sea visible para el actor (InvalidArgument si no).
func (uc *CategoryUseCase) requireParent(ctx context.Context, actor entity.Actor, parentID string) error {
	if _, err := uuid.Parse(parentID); err != nil {
		return fmt.Errorf("%w: parent no es un identificador válido", domain.ErrInvalidInput)
	}
	parent, err := uc.ds.Categories().GetByID(ctx, parentID)
	if err != nil {
		return err
	}
	if parent == nil || !parent.VisibleTo(actor) {
		return fmt.Errorf("%w: la categoría padre no existe", domain.ErrInvalidInput)
	}
	return nil
}

// ensureUniqueName verifica que ningún hermano (mismo padre) use el nombre, excluyendo selfID.
// El índice único (name, parent) de la fuente cierra la carrera entre verificación e inserción.
func (uc *CategoryUseCase) ensureUniqueName(ctx context.Context, name, parentID, selfID string) error {
	existing, err := uc.ds.Categories().FindByNameAndParent(ctx, name, parentID)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != selfID {
		return siblingConflict(name)
	}
	return nil
}

// authorizeCategoryWrite: admin puede todo; un usuario solo sus categorías privadas que no sean de sistema.
func authorizeCategoryWrite(actor entity.Actor, c *entity.Category) error {
	if actor.IsAdmin() {
		return nil
	}
	if c.IsSystem {
		return fmt.Errorf("%w: las categorías de sistema solo las modifica un administrador", domain.ErrForbidden)
	}
	if c.Visibility != entity.VisibilityPrivate || c.OwnerID != actor.UserID {
		return fmt.Errorf("%w: la categoría no pertenece al usuario", domain.ErrForbidden)
	}
	return nil
}

func siblingConflict(name string) error {
	return fmt.Errorf("%w: ya existe una categoría %q con el mismo padre", domain.ErrConflict, name)
}

func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: id %q no es un identificador válido", domain.ErrInvalidInput, id)
	}
	return nil
}

func normalizeParent(p string) string {
	p = strings.TrimSpace(p)
	if p == RootParent || p == "null" {
		return ""
	}
	return p
}

// normalizeTags recorta, descarta vacías y elimina duplicados conservando el orden.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func buildCategoryFilter(actor entity.Actor, in dto.CategoryListRequest) (repository.CategoryFilter, error) {
	f := repository.CategoryFilter{
		Archived: in.Archived,
		IsSystem: in.IsSystem,
		Tag:      strings.TrimSpace(in.Tag),
		Search:   strings.TrimSpace(in.Search),
	}
	if p := strings.TrimSpace(in.Parent); p != "" {
		parentID := normalizeParent(p)
		if parentID != "" {
			if err := validateID(parentID); err != nil {
				return f, err
			}
		}
		f.ParentID = &parentID
	}
	if in.Visibility != "" {
		if !entity.IsValidVisibility(in.Visibility) {
			return f, fmt.Errorf("%w: visibility debe ser public o private", domain.ErrInvalidInput)
		}
		f.Visibility = in.Visibility
	}
	if !actor.IsAdmin() {
		f.VisibleTo = actor.UserID
		if f.VisibleTo == "" {
			// Sin usuario no hay categorías privadas propias.
			f.Visibility = entity.VisibilityPublic
		}
	}
	return f, nil
}

func sortOptions(field, order string) (repository.ListOptions, error) {
	opts := repository.ListOptions{SortField: repository.SortByCreatedAt, SortDesc: true}
	switch field {
	case "":
	case repository.SortByName, repository.SortByCreatedAt, repository.SortByUpdatedAt:
		opts.SortField = field
	default:
		return opts, fmt.Errorf("%w: sort debe ser name, createdAt o updatedAt", domain.ErrInvalidInput)
	}
	switch strings.ToLower(order) {
	case "", "desc":
		opts.SortDesc = true
	case "asc":
		opts.SortDesc = false
	default:
		return opts, fmt.Errorf("%w: order debe ser asc o desc", domain.ErrInvalidInput)
	}
	return opts, nil
}

func toCategoryResponse(c *entity.Category) dto.CategoryResponse {
	out := dto.CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Tags:        append([]string{}, c.Tags...),
		Visibility:  c.Visibility,
		IsSystem:    c.IsSystem,
		Archived:    c.Archived,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
	if c.ParentID != "" {
		parent := c.ParentID
		out.Parent = &parent
	}
	if c.OwnerID != "" {
		owner := c.OwnerID
		out.Owner = &owner
	}
	return out
}

// toTreeNodes convierte el bosque de dominio a DTO. La recursión está acotada por category.MaxTreeDepth.
func toTreeNodes(nodes []*category.Node) []*dto.CategoryTreeNode {
	out := make([]*dto.CategoryTreeNode, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, &dto.CategoryTreeNode{
			CategoryResponse: toCategoryResponse(n.Category),
			Children:         toTreeNodes(n.Children),
		})
	}
	return out
}

package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/quantlab-api/internal/application/dto"
	"github.com/jhoicas/quantlab-api/internal/domain"
	"github.com/jhoicas/quantlab-api/internal/domain/entity"
	"github.com/jhoicas/quantlab-api/internal/domain/repository"
	"github.com/jhoicas/quantlab-api/pkg/logger"
)

const defaultTemplateVersion = "1.0.0"

// TemplateUseCase CRUD de plantillas. La categoría referenciada debe existir y ser visible
// para el actor en cada escritura.
type TemplateUseCase struct {
	ds  repository.DataSource
	log *logger.Logger
}

// NewTemplateUseCase construye el caso de uso.
func NewTemplateUseCase(ds repository.DataSource, log *logger.Logger) *TemplateUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &TemplateUseCase{ds: ds, log: log.Named("templates")}
}

// List lista plantillas con filtros y paginación (createdAt desc).
func (uc *TemplateUseCase) List(ctx context.Context, in dto.TemplateListRequest) (*dto.TemplateListResponse, error) {
	filter := repository.TemplateFilter{
		CategoryID: strings.TrimSpace(in.Category),
		Status:     in.Status,
		Source:     in.Source,
		Search:     strings.TrimSpace(in.Search),
	}
	if filter.CategoryID != "" {
		if err := validateID(filter.CategoryID); err != nil {
			return nil, err
		}
	}
	if filter.Status != "" && !entity.IsValidTemplateStatus(filter.Status) {
		return nil, fmt.Errorf("%w: status inválido", domain.ErrInvalidInput)
	}
	if filter.Source != "" && !entity.IsValidTemplateSource(filter.Source) {
		return nil, fmt.Errorf("%w: source debe ser official o user", domain.ErrInvalidInput)
	}
	in.Normalize()
	repo := uc.ds.Templates()
	total, err := repo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	list, err := repo.List(ctx, filter, repository.ListOptions{
		Limit:     in.Limit,
		Offset:    in.Offset(),
		SortField: repository.SortByCreatedAt,
		SortDesc:  true,
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.TemplateResponse, 0, len(list))
	for _, t := range list {
		items = append(items, toTemplateResponse(t))
	}
	return &dto.TemplateListResponse{
		Items:     items,
		Total:     total,
		Page:      in.Page,
		PageCount: dto.PageCount(total, in.Limit),
	}, nil
}

// GetByID obtiene una plantilla por ID.
func (uc *TemplateUseCase) GetByID(ctx context.Context, id string) (*dto.TemplateResponse, error) {
	t, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	out := toTemplateResponse(t)
	return &out, nil
}

// Create crea una plantilla del actor. Solo un administrador publica plantillas oficiales.
func (uc *TemplateUseCase) Create(ctx context.Context, actor entity.Actor, in dto.CreateTemplateRequest) (*dto.TemplateResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name es requerido", domain.ErrInvalidInput)
	}
	if err := uc.requireCategory(ctx, actor, in.Category); err != nil {
		return nil, err
	}
	t := &entity.Template{
		ID:          uuid.New().String(),
		Name:        name,
		Description: in.Description,
		CategoryID:  strings.TrimSpace(in.Category),
		Version:     orDefault(in.Version, defaultTemplateVersion),
		AuthorID:    actor.UserID,
		Source:      orDefault(in.Source, entity.TemplateSourceUser),
		Status:      orDefault(in.Status, entity.TemplateStatusDraft),
		Code:        in.Code,
		Params:      in.Params,
		IsPaid:      in.IsPaid,
		Price:       in.Price,
		RiskLevel:   orDefault(in.RiskLevel, entity.RiskMedium),
	}
	if t.Source == entity.TemplateSourceOfficial && !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: solo un administrador crea plantillas oficiales", domain.ErrForbidden)
	}
	if err := validateTemplate(t); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	if err := uc.ds.Templates().Create(ctx, t); err != nil {
		return nil, err
	}
	uc.log.Info().Str("template_id", t.ID).Str("category_id", t.CategoryID).Str("actor", actor.UserID).Msg("plantilla creada")
	out := toTemplateResponse(t)
	return &out, nil
}

// Update actualiza una plantilla (autor o admin). Un cambio de categoría debe resolver a una existente.
func (uc *TemplateUseCase) Update(ctx context.Context, actor entity.Actor, id string, in dto.UpdateTemplateRequest) (*dto.TemplateResponse, error) {
	t, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeAuthor(actor, t.AuthorID); err != nil {
		return nil, err
	}
	if in.Name != nil {
		t.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Category != nil && strings.TrimSpace(*in.Category) != t.CategoryID {
		if err := uc.requireCategory(ctx, actor, *in.Category); err != nil {
			return nil, err
		}
		t.CategoryID = strings.TrimSpace(*in.Category)
	}
	if in.Version != nil {
		t.Version = *in.Version
	}
	if in.Status != nil {
		t.Status = *in.Status
	}
	if in.Code != nil {
		t.Code = *in.Code
	}
	if in.Params != nil {
		t.Params = *in.Params
	}
	if in.IsPaid != nil {
		t.IsPaid = *in.IsPaid
	}
	if in.Price != nil {
		t.Price = *in.Price
	}
	if in.RiskLevel != nil {
		t.RiskLevel = *in.RiskLevel
	}
	if err := validateTemplate(t); err != nil {
		return nil, err
	}
	t.UpdatedAt = time.Now().UTC()
	if err := uc.ds.Templates().Update(ctx, t); err != nil {
		return nil, err
	}
	out := toTemplateResponse(t)
	return &out, nil
}

// Delete elimina una plantilla (autor o admin).
func (uc *TemplateUseCase) Delete(ctx context.Context, actor entity.Actor, id string) error {
	t, err := uc.load(ctx, id)
	if err != nil {
		return err
	}
	if err := authorizeAuthor(actor, t.AuthorID); err != nil {
		return err
	}
	if err := uc.ds.Templates().Delete(ctx, t.ID); err != nil {
		return err
	}
	uc.log.Info().Str("template_id", t.ID).Str("actor", actor.UserID).Msg("plantilla eliminada")
	return nil
}

// RecordUsage incrementa el contador de uso de la plantilla.
func (uc *TemplateUseCase) RecordUsage(ctx context.Context, id string) (*dto.TemplateResponse, error) {
	t, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := uc.ds.Templates().IncrementUsage(ctx, t.ID); err != nil {
		return nil, err
	}
	t.UsageCount++
	out := toTemplateResponse(t)
	return &out, nil
}

func (uc *TemplateUseCase) load(ctx context.Context, id string) (*entity.Template, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	t, err := uc.ds.Templates().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("%w: plantilla %s", domain.ErrNotFound, id)
	}
	return t, nil
}

// requireCategory exige una categoría existente y visible para el actor (InvalidArgument si no).
// Una categoría privada ajena se reporta como inexistente.
func (uc *TemplateUseCase) requireCategory(ctx context.Context, actor entity.Actor, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: category es requerido", domain.ErrInvalidInput)
	}
	if err := validateID(id); err != nil {
		return err
	}
	c, err := uc.ds.Categories().GetByID(ctx, id)
	if err != nil {
		return err
	}
	if c == nil || !c.VisibleTo(actor) {
		return fmt.Errorf("%w: la categoría %s no existe", domain.ErrInvalidInput, id)
	}
	return nil
}

func validateTemplate(t *entity.Template) error {
	if t.Name == "" {
		return fmt.Errorf("%w: name no puede estar vacío", domain.ErrInvalidInput)
	}
	if !entity.IsValidTemplateSource(t.Source) {
		return fmt.Errorf("%w: source debe ser official o user", domain.ErrInvalidInput)
	}
	if !entity.IsValidTemplateStatus(t.Status) {
		return fmt.Errorf("%w: status inválido", domain.ErrInvalidInput)
	}
	if !entity.IsValidRiskLevel(t.RiskLevel) {
		return fmt.Errorf("%w: riskLevel debe ser low, medium o high", domain.ErrInvalidInput)
	}
	if t.Price.IsNegative() {
		return fmt.Errorf("%w: price no puede ser negativo", domain.ErrInvalidInput)
	}
	if !t.IsPaid {
		t.Price = decimal.Zero
	}
	seen := make(map[string]struct{}, len(t.Params))
	for _, p := range t.Params {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("%w: todos los parámetros requieren name", domain.ErrInvalidInput)
		}
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("%w: parámetro %q duplicado", domain.ErrInvalidInput, p.Name)
		}
		seen[p.Name] = struct{}{}
	}
	if t.Params == nil {
		t.Params = []entity.TemplateParam{}
	}
	return nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func toTemplateResponse(t *entity.Template) dto.TemplateResponse {
	params := append([]entity.TemplateParam{}, t.Params...)
	return dto.TemplateResponse{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Category:    t.CategoryID,
		Version:     t.Version,
		Author:      t.AuthorID,
		Source:      t.Source,
		Status:      t.Status,
		Code:        t.Code,
		Params:      params,
		UsageCount:  t.UsageCount,
		IsPaid:      t.IsPaid,
		Price:       t.Price,
		RiskLevel:   t.RiskLevel,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

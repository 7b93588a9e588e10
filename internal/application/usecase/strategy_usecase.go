package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
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

// StrategyUseCase CRUD de estrategias y asignación de categorías con auditoría.
type StrategyUseCase struct {
	ds  repository.DataSource
	log *logger.Logger
}

// NewStrategyUseCase construye el caso de uso.
func NewStrategyUseCase(ds repository.DataSource, log *logger.Logger) *StrategyUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &StrategyUseCase{ds: ds, log: log.Named("strategies")}
}

// List lista estrategias con filtros y paginación (createdAt desc).
func (uc *StrategyUseCase) List(ctx context.Context, in dto.StrategyListRequest) (*dto.StrategyListResponse, error) {
	if in.Status != "" && !entity.IsValidStrategyStatus(in.Status) {
		return nil, fmt.Errorf("%w: status inválido", domain.ErrInvalidInput)
	}
	in.Normalize()
	filter := repository.StrategyFilter{
		AuthorID: strings.TrimSpace(in.Author),
		Status:   in.Status,
		Search:   strings.TrimSpace(in.Search),
	}
	repo := uc.ds.Strategies()
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
	items := make([]dto.StrategyResponse, 0, len(list))
	for _, s := range list {
		items = append(items, toStrategyResponse(s, nil))
	}
	return &dto.StrategyListResponse{
		Items:     items,
		Total:     total,
		Page:      in.Page,
		PageCount: dto.PageCount(total, in.Limit),
	}, nil
}

// GetByID obtiene una estrategia con sus categorías.
func (uc *StrategyUseCase) GetByID(ctx context.Context, id string) (*dto.StrategyResponse, error) {
	s, err := uc.load(ctx, uc.ds, id)
	if err != nil {
		return nil, err
	}
	categories, err := uc.categoryIDs(ctx, uc.ds, s.ID)
	if err != nil {
		return nil, err
	}
	out := toStrategyResponse(s, categories)
	return &out, nil
}

// Create crea una estrategia del actor y, si se indican, le asigna categorías en la misma transacción.
func (uc *StrategyUseCase) Create(ctx context.Context, actor entity.Actor, in dto.CreateStrategyRequest) (*dto.StrategyResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name es requerido", domain.ErrInvalidInput)
	}
	status := in.Status
	if status == "" {
		status = entity.StrategyStatusDraft
	}
	if !entity.IsValidStrategyStatus(status) {
		return nil, fmt.Errorf("%w: status inválido", domain.ErrInvalidInput)
	}
	categoryIDs, err := uc.resolveCategories(ctx, actor, in.Categories)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	s := &entity.Strategy{
		ID:          uuid.New().String(),
		Name:        name,
		Description: in.Description,
		AuthorID:    actor.UserID,
		Status:      status,
		Performance: fromPerformanceDTO(in.Performance),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = uc.ds.RunInTx(ctx, func(tx repository.DataSource) error {
		if err := tx.Strategies().Create(ctx, s); err != nil {
			return err
		}
		if len(categoryIDs) == 0 {
			return nil
		}
		return applyCategoryChange(ctx, tx, actor, s.ID, nil, categoryIDs, "creación de estrategia")
	})
	if err != nil {
		return nil, err
	}
	out := toStrategyResponse(s, categoryIDs)
	return &out, nil
}

// Update actualiza una estrategia (autor o admin).
func (uc *StrategyUseCase) Update(ctx context.Context, actor entity.Actor, id string, in dto.UpdateStrategyRequest) (*dto.StrategyResponse, error) {
	s, err := uc.load(ctx, uc.ds, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeAuthor(actor, s.AuthorID); err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name no puede estar vacío", domain.ErrInvalidInput)
		}
		s.Name = name
	}
	if in.Description != nil {
		s.Description = *in.Description
	}
	if in.Status != nil {
		if !entity.IsValidStrategyStatus(*in.Status) {
			return nil, fmt.Errorf("%w: status inválido", domain.ErrInvalidInput)
		}
		s.Status = *in.Status
	}
	if in.Performance != nil {
		s.Performance = fromPerformanceDTO(in.Performance)
	}
	s.UpdatedAt = time.Now().UTC()
	if err := uc.ds.Strategies().Update(ctx, s); err != nil {
		return nil, err
	}
	categories, err := uc.categoryIDs(ctx, uc.ds, s.ID)
	if err != nil {
		return nil, err
	}
	out := toStrategyResponse(s, categories)
	return &out, nil
}

// Delete elimina la estrategia y sus vínculos de categoría. La auditoría se conserva.
func (uc *StrategyUseCase) Delete(ctx context.Context, actor entity.Actor, id string) error {
	s, err := uc.load(ctx, uc.ds, id)
	if err != nil {
		return err
	}
	if err := authorizeAuthor(actor, s.AuthorID); err != nil {
		return err
	}
	return uc.ds.RunInTx(ctx, func(tx repository.DataSource) error {
		if err := tx.StrategyCategories().DeleteByStrategy(ctx, s.ID); err != nil {
			return err
		}
		return tx.Strategies().Delete(ctx, s.ID)
	})
}

// AssignCategories reemplaza el conjunto de categorías de la estrategia y registra el cambio.
func (uc *StrategyUseCase) AssignCategories(ctx context.Context, actor entity.Actor, id string, in dto.AssignCategoriesRequest) (*dto.StrategyResponse, error) {
	s, err := uc.load(ctx, uc.ds, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeAuthor(actor, s.AuthorID); err != nil {
		return nil, err
	}
	target, err := uc.resolveCategories(ctx, actor, in.Categories)
	if err != nil {
		return nil, err
	}
	err = uc.ds.RunInTx(ctx, func(tx repository.DataSource) error {
		current, err := uc.categoryIDs(ctx, tx, s.ID)
		if err != nil {
			return err
		}
		return applyCategoryChange(ctx, tx, actor, s.ID, current, target, in.Reason)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("strategy_id", s.ID).Strs("categories", target).Msg("categorías de estrategia actualizadas")
	out := toStrategyResponse(s, target)
	return &out, nil
}

// ChangeLog devuelve la auditoría de categorías de la estrategia (más reciente primero).
func (uc *StrategyUseCase) ChangeLog(ctx context.Context, id string) ([]dto.CategoryChangeLogResponse, error) {
	s, err := uc.load(ctx, uc.ds, id)
	if err != nil {
		return nil, err
	}
	logs, err := uc.ds.ChangeLogs().ListByStrategy(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CategoryChangeLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, dto.CategoryChangeLogResponse{
			ID:             l.ID,
			Strategy:       l.StrategyID,
			FromCategories: append([]string{}, l.FromCategories...),
			ToCategories:   append([]string{}, l.ToCategories...),
			ChangedBy:      l.ChangedBy,
			ChangeType:     l.ChangeType,
			Reason:         l.Reason,
			CreatedAt:      l.CreatedAt,
		})
	}
	return out, nil
}

func (uc *StrategyUseCase) load(ctx context.Context, ds repository.DataSource, id string) (*entity.Strategy, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	s, err := ds.Strategies().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("%w: estrategia %s", domain.ErrNotFound, id)
	}
	return s, nil
}

func (uc *StrategyUseCase) categoryIDs(ctx context.Context, ds repository.DataSource, strategyID string) ([]string, error) {
	links, err := ds.StrategyCategories().ListByStrategy(ctx, strategyID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(links))
	for _, l := range links {
		ids = append(ids, l.CategoryID)
	}
	sort.Strings(ids)
	return ids, nil
}

// resolveCategories valida que cada categoría exista, sea visible y no esté archivada; elimina duplicados.
func (uc *StrategyUseCase) resolveCategories(ctx context.Context, actor entity.Actor, ids []string) ([]string, error) {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if _, dup := seen[id]; dup {
			continue
		}
		if err := validateID(id); err != nil {
			return nil, err
		}
		c, err := uc.ds.Categories().GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if c == nil || !c.VisibleTo(actor) {
			return nil, fmt.Errorf("%w: la categoría %s no existe", domain.ErrInvalidInput, id)
		}
		if c.Archived {
			return nil, fmt.Errorf("%w: la categoría %q está archivada", domain.ErrInvalidInput, c.Name)
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

// applyCategoryChange aplica la diferencia current → target sobre los vínculos y agrega una entrada de auditoría.
// Debe ejecutarse dentro de RunInTx.
func applyCategoryChange(ctx context.Context, tx repository.DataSource, actor entity.Actor, strategyID string, current, target []string, reason string) error {
	currentSet := make(map[string]struct{}, len(current))
	for _, id := range current {
		currentSet[id] = struct{}{}
	}
	targetSet := make(map[string]struct{}, len(target))
	for _, id := range target {
		targetSet[id] = struct{}{}
	}

	var removed, added []string
	for _, id := range current {
		if _, keep := targetSet[id]; !keep {
			removed = append(removed, id)
		}
	}
	for _, id := range target {
		if _, exists := currentSet[id]; !exists {
			added = append(added, id)
		}
	}
	if len(removed) == 0 && len(added) == 0 {
		return nil
	}

	links := tx.StrategyCategories()
	for _, id := range removed {
		if err := links.Delete(ctx, strategyID, id); err != nil {
			return err
		}
	}
	now := time.Now().UTC()
	for _, id := range added {
		err := links.Create(ctx, &entity.StrategyCategory{
			ID:         uuid.New().String(),
			StrategyID: strategyID,
			CategoryID: id,
			AssignedBy: actor.UserID,
			CreatedAt:  now,
		})
		if errors.Is(err, domain.ErrDuplicate) {
			return fmt.Errorf("%w: la estrategia ya está vinculada a la categoría %s", domain.ErrConflict, id)
		}
		if err != nil {
			return err
		}
	}

	changeType := entity.ChangeTypeUpdate
	switch {
	case len(removed) == 0:
		changeType = entity.ChangeTypeAssign
	case len(added) == 0:
		changeType = entity.ChangeTypeRemove
	}
	return tx.ChangeLogs().Append(ctx, &entity.CategoryChangeLog{
		ID:             uuid.New().String(),
		StrategyID:     strategyID,
		FromCategories: append([]string{}, current...),
		ToCategories:   append([]string{}, target...),
		ChangedBy:      actor.UserID,
		ChangeType:     changeType,
		Reason:         reason,
		CreatedAt:      now,
	})
}

// authorizeAuthor: admin o el autor del recurso.
func authorizeAuthor(actor entity.Actor, authorID string) error {
	if actor.IsAdmin() || (authorID != "" && authorID == actor.UserID) {
		return nil
	}
	return fmt.Errorf("%w: solo el autor o un administrador puede modificar el recurso", domain.ErrForbidden)
}

func fromPerformanceDTO(p *dto.PerformanceDTO) entity.Performance {
	if p == nil {
		return entity.Performance{
			ReturnRate:  decimal.Zero,
			WinRate:     decimal.Zero,
			SharpeRatio: decimal.Zero,
			MaxDrawdown: decimal.Zero,
		}
	}
	return entity.Performance{
		ReturnRate:  p.ReturnRate,
		WinRate:     p.WinRate,
		SharpeRatio: p.SharpeRatio,
		MaxDrawdown: p.MaxDrawdown,
	}
}

func toStrategyResponse(s *entity.Strategy, categories []string) dto.StrategyResponse {
	return dto.StrategyResponse{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		Author:      s.AuthorID,
		Status:      s.Status,
		Performance: dto.PerformanceDTO{
			ReturnRate:  s.Performance.ReturnRate,
			WinRate:     s.Performance.WinRate,
			SharpeRatio: s.Performance.SharpeRatio,
			MaxDrawdown: s.Performance.MaxDrawdown,
		},
		Categories: categories,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}

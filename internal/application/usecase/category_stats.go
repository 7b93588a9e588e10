package usecase

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/quantlab-api/internal/application/dto"
	"github.com/jhoicas/quantlab-api/internal/domain/entity"
	"github.com/jhoicas/quantlab-api/internal/domain/repository"
)

var hundred = decimal.NewFromInt(100)

// Stats cuenta categorías por tipo (sistema, de usuario, archivadas, raíz, hijas).
func (uc *CategoryUseCase) Stats(ctx context.Context, actor entity.Actor) (*dto.CategoryStatsResponse, error) {
	list, err := uc.visibleCategories(ctx, actor, nil)
	if err != nil {
		return nil, err
	}
	out := &dto.CategoryStatsResponse{Total: len(list)}
	for _, c := range list {
		if c.IsSystem {
			out.System++
		}
		if c.OwnerID != "" {
			out.UserOwned++
		}
		if c.Archived {
			out.Archived++
		}
		if c.IsRoot() {
			out.Root++
		} else {
			out.Child++
		}
	}
	return out, nil
}

// Statistics calcula el uso de cada categoría y los promedios de estrategias y plantillas por categoría.
// Los conteos de plantillas se recalculan en cada lectura (no hay contador en la categoría).
func (uc *CategoryUseCase) Statistics(ctx context.Context, actor entity.Actor) (*dto.CategoryStatisticsResponse, error) {
	list, err := uc.visibleCategories(ctx, actor, nil)
	if err != nil {
		return nil, err
	}
	strategyCounts, totalLinks, err := uc.strategyCountsByCategory(ctx, list)
	if err != nil {
		return nil, err
	}
	templateCounts, err := uc.ds.Templates().CountByCategory(ctx)
	if err != nil {
		return nil, err
	}

	out := &dto.CategoryStatisticsResponse{
		TotalCategories:          len(list),
		TotalStrategyLinks:       totalLinks,
		AvgStrategiesPerCategory: decimal.Zero,
		AvgTemplatesPerCategory:  decimal.Zero,
		Categories:               make([]dto.CategoryUsage, 0, len(list)),
	}
	for _, c := range list {
		out.TotalTemplates += templateCounts[c.ID]
		out.Categories = append(out.Categories, dto.CategoryUsage{
			CategoryID:    c.ID,
			Name:          c.Name,
			StrategyCount: strategyCounts[c.ID],
			TemplateCount: templateCounts[c.ID],
		})
	}
	if n := len(list); n > 0 {
		count := decimal.NewFromInt(int64(n))
		out.AvgStrategiesPerCategory = decimal.NewFromInt(int64(totalLinks)).DivRound(count, 2)
		out.AvgTemplatesPerCategory = decimal.NewFromInt(int64(out.TotalTemplates)).DivRound(count, 2)
	}
	sort.SliceStable(out.Categories, func(i, j int) bool {
		return out.Categories[i].StrategyCount > out.Categories[j].StrategyCount
	})
	return out, nil
}

// Distribution reparte los vínculos de estrategias entre categorías (solo categorías con vínculos).
func (uc *CategoryUseCase) Distribution(ctx context.Context, actor entity.Actor) (*dto.CategoryDistributionResponse, error) {
	list, err := uc.visibleCategories(ctx, actor, nil)
	if err != nil {
		return nil, err
	}
	counts, total, err := uc.strategyCountsByCategory(ctx, list)
	if err != nil {
		return nil, err
	}
	out := &dto.CategoryDistributionResponse{TotalStrategyLinks: total, Items: []dto.CategoryDistributionItem{}}
	if total == 0 {
		return out, nil
	}
	totalDec := decimal.NewFromInt(int64(total))
	for _, c := range list {
		n := counts[c.ID]
		if n == 0 {
			continue
		}
		out.Items = append(out.Items, dto.CategoryDistributionItem{
			CategoryID:    c.ID,
			Name:          c.Name,
			StrategyCount: n,
			Percentage:    decimal.NewFromInt(int64(n)).Mul(hundred).DivRound(totalDec, 2),
		})
	}
	sort.SliceStable(out.Items, func(i, j int) bool {
		if out.Items[i].StrategyCount != out.Items[j].StrategyCount {
			return out.Items[i].StrategyCount > out.Items[j].StrategyCount
		}
		return out.Items[i].Name < out.Items[j].Name
	})
	return out, nil
}

// PerformanceComparison promedia returnRate, winRate y sharpeRatio de las estrategias de cada
// categoría no archivada. Las categorías sin estrategias se omiten; orden por retorno promedio desc.
func (uc *CategoryUseCase) PerformanceComparison(ctx context.Context, actor entity.Actor) ([]dto.CategoryPerformance, error) {
	notArchived := false
	list, err := uc.visibleCategories(ctx, actor, &notArchived)
	if err != nil {
		return nil, err
	}
	links, err := uc.ds.StrategyCategories().ListAll(ctx)
	if err != nil {
		return nil, err
	}
	visible := categoryIDSet(list)
	byCategory := make(map[string][]string)
	strategyIDs := make([]string, 0, len(links))
	seen := make(map[string]struct{})
	for _, l := range links {
		if _, ok := visible[l.CategoryID]; !ok {
			continue
		}
		byCategory[l.CategoryID] = append(byCategory[l.CategoryID], l.StrategyID)
		if _, ok := seen[l.StrategyID]; !ok {
			seen[l.StrategyID] = struct{}{}
			strategyIDs = append(strategyIDs, l.StrategyID)
		}
	}
	out := make([]dto.CategoryPerformance, 0)
	if len(strategyIDs) == 0 {
		return out, nil
	}
	strategies, err := uc.ds.Strategies().GetByIDs(ctx, strategyIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*entity.Strategy, len(strategies))
	for _, s := range strategies {
		byID[s.ID] = s
	}

	for _, c := range list {
		var ret, win, sharpe decimal.Decimal
		n := 0
		for _, sid := range byCategory[c.ID] {
			s, ok := byID[sid]
			if !ok {
				continue
			}
			ret = ret.Add(s.Performance.ReturnRate)
			win = win.Add(s.Performance.WinRate)
			sharpe = sharpe.Add(s.Performance.SharpeRatio)
			n++
		}
		if n == 0 {
			continue
		}
		count := decimal.NewFromInt(int64(n))
		out = append(out, dto.CategoryPerformance{
			CategoryID:     c.ID,
			Name:           c.Name,
			StrategyCount:  n,
			AvgReturnRate:  ret.DivRound(count, 4),
			AvgWinRate:     win.DivRound(count, 4),
			AvgSharpeRatio: sharpe.DivRound(count, 4),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].AvgReturnRate.Equal(out[j].AvgReturnRate) {
			return out[i].AvgReturnRate.GreaterThan(out[j].AvgReturnRate)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// visibleCategories lista, por nombre, las categorías que el actor puede ver.
func (uc *CategoryUseCase) visibleCategories(ctx context.Context, actor entity.Actor, archived *bool) ([]*entity.Category, error) {
	filter, err := buildCategoryFilter(actor, dto.CategoryListRequest{Archived: archived})
	if err != nil {
		return nil, err
	}
	return uc.ds.Categories().List(ctx, filter, repository.ListOptions{SortField: repository.SortByName})
}

// strategyCountsByCategory devuelve vínculos por categoría y el total, contando solo las categorías de list.
func (uc *CategoryUseCase) strategyCountsByCategory(ctx context.Context, list []*entity.Category) (map[string]int, int, error) {
	links, err := uc.ds.StrategyCategories().ListAll(ctx)
	if err != nil {
		return nil, 0, err
	}
	visible := categoryIDSet(list)
	counts := make(map[string]int)
	total := 0
	for _, l := range links {
		if _, ok := visible[l.CategoryID]; !ok {
			continue
		}
		counts[l.CategoryID]++
		total++
	}
	return counts, total, nil
}

func categoryIDSet(list []*entity.Category) map[string]struct{} {
	out := make(map[string]struct{}, len(list))
	for _, c := range list {
		out[c.ID] = struct{}{}
	}
	return out
}

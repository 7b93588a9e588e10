// Package fixtures carga el dataset YAML de respaldo y lo aplica sobre cualquier repository.DataSource.
package fixtures

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/jhoicas/quantlab-api/internal/domain/entity"
	"github.com/jhoicas/quantlab-api/internal/domain/repository"
)

//go:embed fixtures.yaml
var defaultDataset []byte

// Dataset contenido del archivo YAML.
type Dataset struct {
	Categories []CategoryFixture `yaml:"categories"`
	Strategies []StrategyFixture `yaml:"strategies"`
	Templates  []TemplateFixture `yaml:"templates"`
}

// CategoryFixture categoría del dataset.
type CategoryFixture struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Parent      string   `yaml:"parent"`
	Tags        []string `yaml:"tags"`
	Visibility  string   `yaml:"visibility"`
	Owner       string   `yaml:"owner"`
	IsSystem    bool     `yaml:"isSystem"`
	Archived    bool     `yaml:"archived"`
}

// StrategyFixture estrategia del dataset; Categories genera los vínculos.
type StrategyFixture struct {
	ID          string            `yaml:"id"`
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Author      string            `yaml:"author"`
	Status      string            `yaml:"status"`
	Performance map[string]string `yaml:"performance"`
	Categories  []string          `yaml:"categories"`
}

// TemplateFixture plantilla del dataset.
type TemplateFixture struct {
	ID          string                 `yaml:"id"`
	Name        string                 `yaml:"name"`
	Description string                 `yaml:"description"`
	Category    string                 `yaml:"category"`
	Version     string                 `yaml:"version"`
	Author      string                 `yaml:"author"`
	Source      string                 `yaml:"source"`
	Status      string                 `yaml:"status"`
	Code        string                 `yaml:"code"`
	Params      []entity.TemplateParam `yaml:"params"`
	IsPaid      bool                   `yaml:"isPaid"`
	Price       string                 `yaml:"price"`
	RiskLevel   string                 `yaml:"riskLevel"`
}

// Summary cuántas entidades se aplicaron.
type Summary struct {
	Categories int
	Strategies int
	Links      int
	Templates  int
}

// Default devuelve el dataset embebido en el binario.
func Default() (*Dataset, error) {
	return parse(defaultDataset)
}

// LoadFile lee un dataset desde disco.
func LoadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("abrir fixtures: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodifica un dataset YAML.
func Load(r io.Reader) (*Dataset, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("leer fixtures: %w", err)
	}
	return parse(raw)
}

func parse(raw []byte) (*Dataset, error) {
	var d Dataset
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("decodificar fixtures: %w", err)
	}
	return &d, nil
}

// Apply inserta el dataset en ds dentro de una transacción. Las categorías se insertan
// padres primero; una referencia a un padre inexistente o un ciclo devuelve error.
func (d *Dataset) Apply(ctx context.Context, ds repository.DataSource) (Summary, error) {
	var sum Summary
	ordered, err := d.categoriesParentFirst()
	if err != nil {
		return sum, err
	}
	// Marcas de tiempo escalonadas para que el orden createdAt respete el archivo.
	base := time.Now().UTC().Add(-time.Duration(len(ordered)+len(d.Strategies)+len(d.Templates)) * time.Minute)
	tick := func() time.Time {
		base = base.Add(time.Minute)
		return base
	}

	err = ds.RunInTx(ctx, func(tx repository.DataSource) error {
		for _, cf := range ordered {
			now := tick()
			visibility := cf.Visibility
			if visibility == "" {
				visibility = entity.VisibilityPublic
			}
			c := &entity.Category{
				ID:          cf.ID,
				Name:        cf.Name,
				Description: cf.Description,
				ParentID:    cf.Parent,
				Tags:        append([]string{}, cf.Tags...),
				Visibility:  visibility,
				OwnerID:     cf.Owner,
				IsSystem:    cf.IsSystem,
				Archived:    cf.Archived,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := tx.Categories().Create(ctx, c); err != nil {
				return fmt.Errorf("categoría %q: %w", cf.Name, err)
			}
			sum.Categories++
		}
		for _, sf := range d.Strategies {
			now := tick()
			perf, err := parsePerformance(sf.Performance)
			if err != nil {
				return fmt.Errorf("estrategia %q: %w", sf.Name, err)
			}
			status := sf.Status
			if status == "" {
				status = entity.StrategyStatusDraft
			}
			s := &entity.Strategy{
				ID:          sf.ID,
				Name:        sf.Name,
				Description: sf.Description,
				AuthorID:    sf.Author,
				Status:      status,
				Performance: perf,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := tx.Strategies().Create(ctx, s); err != nil {
				return fmt.Errorf("estrategia %q: %w", sf.Name, err)
			}
			sum.Strategies++
			for _, categoryID := range sf.Categories {
				link := &entity.StrategyCategory{
					ID:           linkID(sf.ID, categoryID),
					StrategyID:   sf.ID,
					CategoryID:   categoryID,
					AutoAssigned: true,
					CreatedAt:    now,
				}
				if err := tx.StrategyCategories().Create(ctx, link); err != nil {
					return fmt.Errorf("vínculo %s → %s: %w", sf.ID, categoryID, err)
				}
				sum.Links++
			}
		}
		for _, tf := range d.Templates {
			now := tick()
			price := decimal.Zero
			if tf.Price != "" {
				p, err := decimal.NewFromString(tf.Price)
				if err != nil {
					return fmt.Errorf("plantilla %q: price: %w", tf.Name, err)
				}
				price = p
			}
			t := &entity.Template{
				ID:          tf.ID,
				Name:        tf.Name,
				Description: tf.Description,
				CategoryID:  tf.Category,
				Version:     tf.Version,
				AuthorID:    tf.Author,
				Source:      tf.Source,
				Status:      tf.Status,
				Code:        tf.Code,
				Params:      append([]entity.TemplateParam{}, tf.Params...),
				IsPaid:      tf.IsPaid,
				Price:       price,
				RiskLevel:   tf.RiskLevel,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := tx.Templates().Create(ctx, t); err != nil {
				return fmt.Errorf("plantilla %q: %w", tf.Name, err)
			}
			sum.Templates++
		}
		return nil
	})
	return sum, err
}

// categoriesParentFirst ordena las categorías de modo que cada padre preceda a sus hijos.
func (d *Dataset) categoriesParentFirst() ([]CategoryFixture, error) {
	byID := make(map[string]struct{}, len(d.Categories))
	for _, c := range d.Categories {
		byID[c.ID] = struct{}{}
	}
	placed := make(map[string]struct{}, len(d.Categories))
	out := make([]CategoryFixture, 0, len(d.Categories))
	pending := d.Categories
	for len(pending) > 0 {
		var next []CategoryFixture
		for _, c := range pending {
			if c.Parent == c.ID {
				return nil, fmt.Errorf("categoría %q es su propio padre", c.Name)
			}
			if c.Parent != "" {
				if _, ok := byID[c.Parent]; !ok {
					return nil, fmt.Errorf("categoría %q: padre %s inexistente", c.Name, c.Parent)
				}
				if _, ok := placed[c.Parent]; !ok {
					next = append(next, c)
					continue
				}
			}
			placed[c.ID] = struct{}{}
			out = append(out, c)
		}
		if len(next) == len(pending) {
			return nil, fmt.Errorf("ciclo entre categorías del dataset (%d sin ubicar)", len(next))
		}
		pending = next
	}
	return out, nil
}

// linkID es determinista para que sembrar dos veces el mismo dataset choque en vez de duplicar.
func linkID(strategyID, categoryID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(strategyID+"/"+categoryID)).String()
}

func parsePerformance(m map[string]string) (entity.Performance, error) {
	p := entity.Performance{
		ReturnRate:  decimal.Zero,
		WinRate:     decimal.Zero,
		SharpeRatio: decimal.Zero,
		MaxDrawdown: decimal.Zero,
	}
	fields := map[string]*decimal.Decimal{
		"returnRate":  &p.ReturnRate,
		"winRate":     &p.WinRate,
		"sharpeRatio": &p.SharpeRatio,
		"maxDrawdown": &p.MaxDrawdown,
	}
	for key, raw := range m {
		dst, ok := fields[key]
		if !ok {
			return p, fmt.Errorf("métrica desconocida %q", key)
		}
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return p, fmt.Errorf("%s: %w", key, err)
		}
		*dst = v
	}
	return p, nil
}

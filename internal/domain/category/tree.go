package category

import (
	"sort"

	"github.com/jhoicas/quantlab-api/internal/domain/entity"
)

// MaxTreeDepth profundidad máxima ensamblada (las raíces están en el nivel 1).
const MaxTreeDepth = 32

// Node nodo del bosque de categorías.
type Node struct {
	Category *entity.Category
	Children []*Node
}

// ForestReport resume lo que no pudo ubicarse en el bosque.
type ForestReport struct {
	Placed      int
	Unreachable int  // huérfanos, ciclos o nodos por debajo de MaxTreeDepth
	Truncated   bool // se alcanzó MaxTreeDepth
}

// BuildForest construye el bosque (servicio de dominio) de forma iterativa:
// 1) índice padre → hijos en una sola pasada, 2) ensamblado nivel por nivel desde las raíces (ParentID vacío).
// Un conjunto de visitados garantiza que ningún nodo aparezca dos veces aunque los datos tengan ciclos.
// Los hijos se ordenan por nombre (y por ID como desempate) para una salida estable.
func BuildForest(categories []*entity.Category) ([]*Node, ForestReport) {
	byParent := make(map[string][]*entity.Category, len(categories))
	seen := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		if c == nil {
			continue
		}
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		byParent[c.ParentID] = append(byParent[c.ParentID], c)
	}
	for _, siblings := range byParent {
		sort.Slice(siblings, func(i, j int) bool {
			if siblings[i].Name != siblings[j].Name {
				return siblings[i].Name < siblings[j].Name
			}
			return siblings[i].ID < siblings[j].ID
		})
	}

	var report ForestReport
	visited := make(map[string]struct{}, len(seen))
	roots := make([]*Node, 0, len(byParent[""]))
	for _, c := range byParent[""] {
		visited[c.ID] = struct{}{}
		roots = append(roots, &Node{Category: c, Children: []*Node{}})
	}

	level := roots
	for depth := 1; len(level) > 0; depth++ {
		var next []*Node
		for _, n := range level {
			kids := byParent[n.Category.ID]
			if len(kids) == 0 {
				continue
			}
			if depth >= MaxTreeDepth {
				report.Truncated = true
				continue
			}
			for _, k := range kids {
				if _, ok := visited[k.ID]; ok {
					continue
				}
				visited[k.ID] = struct{}{}
				child := &Node{Category: k, Children: []*Node{}}
				n.Children = append(n.Children, child)
				next = append(next, child)
			}
		}
		level = next
	}

	report.Placed = len(visited)
	report.Unreachable = len(seen) - len(visited)
	return roots, report
}

package entity

import "time"

// Visibilidad de una categoría.
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// Category representa un nodo del bosque de categorías (jerárquico vía ParentID).
type Category struct {
	ID          string
	Name        string // único entre hermanos (mismo ParentID)
	Description string
	ParentID    string // vacío si es raíz
	Tags        []string
	Visibility  string // public, private
	OwnerID     string // obligatorio si es private y no es de sistema
	IsSystem    bool
	Archived    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsRoot informa si la categoría no tiene padre.
func (c *Category) IsRoot() bool { return c.ParentID == "" }

// VisibleTo informa si el actor puede ver la categoría.
func (c *Category) VisibleTo(a Actor) bool {
	if a.IsAdmin() || c.Visibility != VisibilityPrivate {
		return true
	}
	return c.OwnerID != "" && c.OwnerID == a.UserID
}

// HasTag informa si la categoría tiene la etiqueta exacta.
func (c *Category) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Clone devuelve una copia profunda (los slices no se comparten).
func (c *Category) Clone() *Category {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Tags = append([]string(nil), c.Tags...)
	return &cp
}

// IsValidVisibility valida el enum de visibilidad.
func IsValidVisibility(v string) bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

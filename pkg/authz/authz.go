// Package authz decide qué rol puede ejecutar qué acción sobre cada recurso (casbin).
// La propiedad y la visibilidad de cada registro las valida el caso de uso, no este paquete.
package authz

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
	stringadapter "github.com/casbin/casbin/v2/persist/string-adapter"
)

// Recursos.
const (
	ObjectCategories = "categories"
	ObjectTemplates  = "templates"
	ObjectStrategies = "strategies"
)

// Acciones.
const (
	ActionRead   = "read"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionUse    = "use"
	ActionAssign = "assign"
)

//go:embed model.conf
var modelText string

//go:embed policy.csv
var defaultPolicy string

// Authorizer envuelve el enforcer de casbin.
type Authorizer struct {
	enforcer *casbin.Enforcer
}

// New carga el modelo embebido y la política de policyPath; vacío usa la política embebida.
func New(policyPath string) (*Authorizer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("authz: modelo: %w", err)
	}
	var enforcer *casbin.Enforcer
	if strings.TrimSpace(policyPath) != "" {
		enforcer, err = casbin.NewEnforcer(m, fileadapter.NewAdapter(policyPath))
	} else {
		enforcer, err = casbin.NewEnforcer(m, stringadapter.NewAdapter(defaultPolicy))
	}
	if err != nil {
		return nil, fmt.Errorf("authz: enforcer: %w", err)
	}
	return &Authorizer{enforcer: enforcer}, nil
}

// SubjectFromRole normaliza el rol al sujeto de la política ("role:<rol>").
func SubjectFromRole(role string) string {
	role = strings.TrimSpace(strings.ToLower(role))
	if role == "" {
		role = "anonymous"
	}
	return "role:" + role
}

// Authorize indica si el rol puede ejecutar action sobre object.
func (a *Authorizer) Authorize(role, object, action string) (bool, error) {
	return a.enforcer.Enforce(SubjectFromRole(role), object, action)
}

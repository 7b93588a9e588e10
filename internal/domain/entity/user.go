package entity

// Roles válidos del token.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Actor identidad que ejecuta una operación (extraída del Bearer Token).
type Actor struct {
	UserID string
	Role   string // admin, user
}

// IsAdmin informa si el actor omite los chequeos de propiedad y visibilidad.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// IsValidRole valida el rol del token.
func IsValidRole(role string) bool {
	return role == RoleAdmin || role == RoleUser
}

package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/quantlab-api/internal/domain/repository"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "23505")
}

// isForeignKeyViolation detecta una FK violada (23503), p. ej. ON DELETE RESTRICT con filas dependientes.
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

// whereBuilder acumula condiciones AND con placeholders numerados.
type whereBuilder struct {
	clauses []string
	args    []any
}

// add agrega una condición; cada "?" de cond se reemplaza por el siguiente placeholder.
func (w *whereBuilder) add(cond string, args ...any) {
	for _, a := range args {
		w.args = append(w.args, a)
		cond = strings.Replace(cond, "?", fmt.Sprintf("$%d", len(w.args)), 1)
	}
	w.clauses = append(w.clauses, cond)
}

func (w *whereBuilder) sql() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// next devuelve el siguiente placeholder libre (para LIMIT/OFFSET).
func (w *whereBuilder) next(arg any) string {
	w.args = append(w.args, arg)
	return fmt.Sprintf("$%d", len(w.args))
}

// sortColumns columnas permitidas en ORDER BY; nunca se interpola la entrada del cliente.
var sortColumns = map[string]string{
	repository.SortByName:      "name",
	repository.SortByCreatedAt: "created_at",
	repository.SortByUpdatedAt: "updated_at",
}

// orderAndPage traduce ListOptions a ORDER BY/LIMIT/OFFSET; def es la columna por defecto.
func orderAndPage(w *whereBuilder, opts repository.ListOptions, def string) string {
	col, ok := sortColumns[opts.SortField]
	if !ok {
		col = def
	}
	dir := "ASC"
	if opts.SortDesc {
		dir = "DESC"
	}
	out := fmt.Sprintf(" ORDER BY %s %s, id %s", col, dir, dir)
	if opts.Limit > 0 {
		out += " LIMIT " + w.next(opts.Limit)
	}
	if opts.Offset > 0 {
		out += " OFFSET " + w.next(opts.Offset)
	}
	return out
}

// likePattern escapa comodines de LIKE para búsquedas por subcadena.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

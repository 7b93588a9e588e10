package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/quantlab-api/internal/domain"
	"github.com/jhoicas/quantlab-api/internal/domain/repository"
)

func TestCategoryWhere_CombinaFiltros(t *testing.T) {
	root := ""
	archived := false
	w := categoryWhere(repository.CategoryFilter{
		ParentID:  &root,
		Archived:  &archived,
		Tag:       "momentum",
		Search:    "50%",
		VisibleTo: "u-1",
	})

	assert.Equal(t,
		" WHERE parent_id IS NULL AND archived = $1 AND $2 = ANY(tags)"+
			" AND (name ILIKE $3 OR description ILIKE $4 OR array_to_string(tags, ' ') ILIKE $5)"+
			" AND (visibility <> 'private' OR owner_id = $6)",
		w.sql())
	assert.Equal(t, []any{false, "momentum", `%50\%%`, `%50\%%`, `%50\%%`, "u-1"}, w.args)
}

func TestCategoryWhere_SinFiltros(t *testing.T) {
	w := categoryWhere(repository.CategoryFilter{})
	assert.Empty(t, w.sql())
	assert.Empty(t, w.args)
}

func TestOrderAndPage(t *testing.T) {
	w := &whereBuilder{}
	w.add("status = ?", "active")

	got := orderAndPage(w, repository.ListOptions{SortField: repository.SortByName, Limit: 20, Offset: 40}, "created_at")
	assert.Equal(t, " ORDER BY name ASC, id ASC LIMIT $2 OFFSET $3", got)
	assert.Equal(t, []any{"active", 20, 40}, w.args)
}

func TestOrderAndPage_CampoDesconocidoUsaDefecto(t *testing.T) {
	w := &whereBuilder{}
	got := orderAndPage(w, repository.ListOptions{SortField: "name; DROP TABLE categories", SortDesc: true}, "created_at")
	assert.Equal(t, " ORDER BY created_at DESC, id DESC", got)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("connection refused")))
}

func TestIsForeignKeyViolation(t *testing.T) {
	assert.True(t, isForeignKeyViolation(fmt.Errorf("delete: %w", &pgconn.PgError{Code: "23503"})))
	assert.False(t, isForeignKeyViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isForeignKeyViolation(errors.New("23503 en el texto no basta")))
}

// execOnly Querier que solo responde Exec con el error configurado.
type execOnly struct{ err error }

func (q execOnly) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, q.err
}
func (q execOnly) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, q.err }
func (q execOnly) QueryRow(context.Context, string, ...any) pgx.Row        { return nil }

func TestCategoryRepo_DeleteConDependientesEsConflicto(t *testing.T) {
	ctx := context.Background()
	fk := &pgconn.PgError{Code: "23503", ConstraintName: "templates_category_id_fkey"}

	err := NewCategoryRepository(execOnly{err: fk}).Delete(ctx, "c1")
	assert.ErrorIs(t, err, domain.ErrConflict)

	err = NewCategoryRepository(execOnly{err: errors.New("conexión cerrada")}).Delete(ctx, "c1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrConflict)

	assert.NoError(t, NewCategoryRepository(execOnly{}).Delete(ctx, "c1"))
}

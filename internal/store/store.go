// Package store is the data-access layer. Repositories describe queries as
// Query values and hand them to a Backend, which is either the hosted
// backend's REST interface or a direct gorm connection to its database.
// Callers only ever see the typed errors declared here, never engine codes.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a row addressed by id does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate is returned when an insert or update hits a unique constraint.
	ErrDuplicate = errors.New("store: duplicate")
	// ErrStale is returned when an update's expected version no longer matches.
	ErrStale = errors.New("store: stale write")
	// ErrForbidden is returned when the backend refuses the caller's credentials.
	ErrForbidden = errors.New("store: forbidden")
)

// Op is a comparison operator in a Filter.
type Op string

const (
	OpEq  Op = "eq"
	OpNeq Op = "neq"
	OpGte Op = "gte"
	OpLte Op = "lte"
	OpIn  Op = "in"
	// OpILike is a case-insensitive substring match; Value is the bare needle.
	OpILike Op = "ilike"
)

type Filter struct {
	Column string
	Op     Op
	Value  any
}

type Order struct {
	Column string
	Desc   bool
}

// Query selects rows of one table. The zero Query selects everything.
type Query struct {
	Filters []Filter
	Orders  []Order
	Limit   int
}

func (q Query) Where(column string, op Op, value any) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Column: column, Op: op, Value: value})
	return q
}

func (q Query) Eq(column string, value any) Query { return q.Where(column, OpEq, value) }

// In filters column by a set of values. values must be a slice.
func (q Query) In(column string, values any) Query { return q.Where(column, OpIn, values) }

func (q Query) OrderBy(column string, desc bool) Query {
	q.Orders = append(append([]Order(nil), q.Orders...), Order{Column: column, Desc: desc})
	return q
}

func (q Query) Take(n int) Query {
	q.Limit = n
	return q
}

// ByID is shorthand for the primary key filter.
func ByID(id uuid.UUID) Query { return Query{}.Eq("id", id) }

// Backend executes queries against one storage path.
//
// dest for Select is a pointer to a slice of records; dest for Insert is a
// pointer to a single record, filled with the stored row.
type Backend interface {
	Select(ctx context.Context, table string, q Query, dest any) error
	Count(ctx context.Context, table string, q Query) (int64, error)
	Insert(ctx context.Context, table string, values map[string]any, dest any) error
	// Update applies values to every row matched by q and reports how many changed.
	Update(ctx context.Context, table string, q Query, values map[string]any) (int64, error)
	Delete(ctx context.Context, table string, q Query) (int64, error)
}

// Values is a column -> value map for inserts and updates. Write models build
// one explicitly so types survive into either backend unchanged.
type Values map[string]any

func wrap(op, table string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s %s: %w", op, table, err)
}

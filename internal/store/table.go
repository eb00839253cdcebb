package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Table is a typed handle on one table. T is the record type rows decode into.
type Table[T any] struct {
	name      string
	backend   Backend
	versioned bool
}

// NewTable returns a handle for a table whose rows are never edited in place
// (or have no updated_at column).
func NewTable[T any](b Backend, name string) Table[T] {
	return Table[T]{name: name, backend: b}
}

// NewVersionedTable returns a handle for a table with an updated_at column.
// Updates stamp it, and it serves as the optimistic concurrency token.
func NewVersionedTable[T any](b Backend, name string) Table[T] {
	return Table[T]{name: name, backend: b, versioned: true}
}

func (t Table[T]) Name() string { return t.name }

// now is the timestamp written by the service. Postgres keeps microseconds, so
// the value read back compares equal to the value written.
func now() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }

// List returns the rows matching q; never nil.
func (t Table[T]) List(ctx context.Context, q Query) ([]T, error) {
	var rows []T
	if err := t.backend.Select(ctx, t.name, q, &rows); err != nil {
		return nil, wrap("select", t.name, err)
	}
	if rows == nil {
		rows = []T{}
	}
	return rows, nil
}

// First returns the first row matching q or ErrNotFound.
func (t Table[T]) First(ctx context.Context, q Query) (T, error) {
	var zero T
	rows, err := t.List(ctx, q.Take(1))
	if err != nil {
		return zero, err
	}
	if len(rows) == 0 {
		return zero, wrap("select", t.name, ErrNotFound)
	}
	return rows[0], nil
}

func (t Table[T]) Get(ctx context.Context, id uuid.UUID) (T, error) {
	return t.First(ctx, ByID(id))
}

func (t Table[T]) Count(ctx context.Context, q Query) (int64, error) {
	n, err := t.backend.Count(ctx, t.name, q)
	return n, wrap("count", t.name, err)
}

// Create inserts values and returns the stored row. The id and timestamps are
// minted here unless values already carries them.
func (t Table[T]) Create(ctx context.Context, values Values) (T, error) {
	var row T
	ts := now()
	if _, ok := values["id"]; !ok {
		values["id"] = uuid.New()
	}
	if _, ok := values["created_at"]; !ok {
		values["created_at"] = ts
	}
	if t.versioned {
		if _, ok := values["updated_at"]; !ok {
			values["updated_at"] = ts
		}
	}
	if err := t.backend.Insert(ctx, t.name, values, &row); err != nil {
		return row, wrap("insert", t.name, err)
	}
	return row, nil
}

// Update applies values to the row with id and returns the row as stored.
//
// When expected is non-nil the write only happens if the row's updated_at still
// equals it; otherwise ErrStale. A nil expected overwrites unconditionally.
func (t Table[T]) Update(ctx context.Context, id uuid.UUID, expected *time.Time, values Values) (T, error) {
	var zero T
	q := ByID(id)
	if t.versioned {
		values["updated_at"] = now()
		if expected != nil {
			q = q.Eq("updated_at", expected.UTC())
		}
	}

	n, err := t.backend.Update(ctx, t.name, q, values)
	if err != nil {
		return zero, wrap("update", t.name, err)
	}
	if n == 0 {
		return zero, t.missing(ctx, id, expected != nil && t.versioned)
	}
	return t.Get(ctx, id)
}

// missing explains a zero-row update: the row is gone, or it moved on.
func (t Table[T]) missing(ctx context.Context, id uuid.UUID, versionChecked bool) error {
	if !versionChecked {
		return wrap("update", t.name, ErrNotFound)
	}
	n, err := t.backend.Count(ctx, t.name, ByID(id))
	if err != nil {
		return wrap("update", t.name, err)
	}
	if n == 0 {
		return wrap("update", t.name, ErrNotFound)
	}
	return wrap("update", t.name, ErrStale)
}

// UpdateWhere applies values to every row matched by q. No version check.
func (t Table[T]) UpdateWhere(ctx context.Context, q Query, values Values) (int64, error) {
	if t.versioned {
		values["updated_at"] = now()
	}
	n, err := t.backend.Update(ctx, t.name, q, values)
	return n, wrap("update", t.name, err)
}

func (t Table[T]) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := t.backend.Delete(ctx, t.name, ByID(id))
	if err != nil {
		return wrap("delete", t.name, err)
	}
	if n == 0 {
		return wrap("delete", t.name, ErrNotFound)
	}
	return nil
}

func (t Table[T]) DeleteWhere(ctx context.Context, q Query) (int64, error) {
	n, err := t.backend.Delete(ctx, t.name, q)
	return n, wrap("delete", t.name, err)
}

// IsNotFound is errors.Is(err, ErrNotFound), for readability at call sites.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
